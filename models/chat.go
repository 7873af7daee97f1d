package models

// ChatRequest is the transport payload for one user utterance.
type ChatRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message" binding:"required"`
}

// TurnResult is what the dialogue service hands back to the transport after
// processing one turn.
type TurnResult struct {
	SessionID string        `json:"sessionId"`
	Reply     string        `json:"reply"`
	State     DialogueState `json:"state"`
	Booking   *Booking      `json:"booking,omitempty"`
}
