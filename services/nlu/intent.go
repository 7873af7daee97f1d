package nlu

import (
	"strings"

	"bookwise/models"
)

// Intent is the classified purpose of a user utterance.
type Intent string

const (
	IntentSchedule          Intent = "schedule"
	IntentCheckAvailability Intent = "check_availability"
	IntentModify            Intent = "modify"
	IntentCancel            Intent = "cancel"
	IntentGreeting          Intent = "greeting"
	IntentSmalltalk         Intent = "smalltalk"
	IntentUnknown           Intent = "unknown"
)

// SessionContext is the prior the classifier uses: mid-flow, short replies
// carrying entities are biased toward slot filling rather than unknown.
type SessionContext struct {
	State       models.DialogueState
	HasEntities bool
}

// Classifier labels utterances with one of the closed intent set.
type Classifier struct {
	threshold float64
}

// NewClassifier builds a classifier; intents scoring below threshold resolve
// to unknown so the machine clarifies instead of guessing.
func NewClassifier(threshold float64) *Classifier {
	return &Classifier{threshold: threshold}
}

var greetingPhrases = []string{
	"hi", "hello", "hey", "good morning", "good afternoon", "good evening", "howdy",
}

var smalltalkKeywords = []string{
	"help", "what can you do", "how does this work", "show me examples",
	"bye", "goodbye", "thanks", "thank you", "see you", "that's all",
}

var intentKeywords = map[Intent][]string{
	IntentCancel:            {"cancel", "call it off", "never mind", "forget it"},
	IntentModify:            {"reschedule", "modify", "move it", "move the", "change the", "change my", "update the", "different time", "different day"},
	IntentCheckAvailability: {"availability", "available", "free slots", "any slots", "open slots", "am i free", "what's open", "free time", "check my calendar", "check the calendar"},
	IntentSchedule:          {"book", "schedule", "appointment", "meeting", "set up a", "reserve", "slot", "call"},
}

// intentPriority breaks score ties deterministically; an utterance like
// "cancel my appointment" carries both cancel and schedule keywords.
var intentPriority = []Intent{IntentCancel, IntentModify, IntentCheckAvailability, IntentSchedule}

// Classify labels text with an intent and a confidence score.
func (c *Classifier) Classify(text string, sctx SessionContext) (Intent, float64) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return IntentUnknown, 0
	}

	for _, g := range greetingPhrases {
		if lower == g || lower == g+"!" || lower == g+"." {
			return IntentGreeting, 0.95
		}
	}
	for _, k := range smalltalkKeywords {
		if strings.Contains(lower, k) {
			return IntentSmalltalk, 0.9
		}
	}

	best := IntentUnknown
	bestScore := 0.0
	for _, intent := range intentPriority {
		hits := 0
		for _, k := range intentKeywords[intent] {
			if strings.Contains(lower, k) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		score := 0.7 + 0.1*float64(hits-1)
		if score > 0.95 {
			score = 0.95
		}
		if score > bestScore {
			best, bestScore = intent, score
		}
	}

	if bestScore >= c.threshold {
		return best, bestScore
	}

	// Mid-flow prior: short replies that carry entities (a date, "2pm", a
	// yes/no) continue the active booking flow.
	if midFlow(sctx.State) && (sctx.HasEntities || Affirmative(lower) || Negative(lower)) {
		return IntentSchedule, 0.75
	}

	return IntentUnknown, bestScore
}

func midFlow(state models.DialogueState) bool {
	switch state {
	case models.StateCollectingSlots, models.StateCheckingAvailability,
		models.StateConfirming, models.StateBooking:
		return true
	}
	return false
}

var affirmativeWords = []string{
	"yes", "yeah", "yep", "sure", "confirm", "book it", "okay", "ok",
	"sounds good", "perfect", "that works", "go ahead", "correct",
}

var negativeWords = []string{
	"no", "nope", "nah", "not that", "doesn't work", "does not work",
	"something else", "another time", "won't work",
}

var farewellWords = []string{"bye", "goodbye", "see you", "that's all", "take care"}

// Farewell reports a closing utterance like "thanks, bye". Only meaningful
// once the utterance already classified as smalltalk.
func Farewell(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, w := range farewellWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// Affirmative reports an explicit yes on a confirmation turn.
func Affirmative(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, w := range affirmativeWords {
		if lower == w || strings.HasPrefix(lower, w+" ") || strings.HasPrefix(lower, w+",") || strings.HasPrefix(lower, w+"!") || strings.HasPrefix(lower, w+".") {
			return true
		}
	}
	return false
}

// Negative reports an explicit no on a confirmation turn.
func Negative(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, w := range negativeWords {
		if lower == w || strings.HasPrefix(lower, w+" ") || strings.HasPrefix(lower, w+",") || strings.HasPrefix(lower, w+"!") || strings.HasPrefix(lower, w+".") {
			return true
		}
	}
	return false
}
