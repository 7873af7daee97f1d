// File: services/composer/composer.go
package composer

import (
	"fmt"
	"strings"
	"time"

	"bookwise/models"
)

// Composer renders assistant replies from dialogue outcomes.
type Composer interface {
	Greeting() string
	Help() string
	Goodbye() string
	AskSlot(slot models.SlotName) string
	Clarify() string
	ProposeCandidates(cands []models.CandidateInterval) string
	Availability(cands []models.CandidateInterval) string
	ConfirmPrompt(iv models.Interval, title string) string
	Booked(b *models.Booking) string
	NoAvailability() string
	ProposeAlternatives(cands []models.CandidateInterval) string
	CalendarUnavailable() string
	BookingFailed() string
	Cancelled() string
	Expired() string
	ValidationError(reason string) string
}

// DefaultComposer renders fixed templates in the configured timezone.
type DefaultComposer struct {
	Loc *time.Location
}

// NewComposer returns a template-based composer.
func NewComposer(loc *time.Location) Composer {
	if loc == nil {
		loc = time.Local
	}
	return &DefaultComposer{Loc: loc}
}

func (c *DefaultComposer) Greeting() string {
	return "Hello! I can help you schedule appointments, check availability, and manage your calendar. What would you like to do?"
}

func (c *DefaultComposer) Help() string {
	return "You can ask me to book an appointment (\"schedule a meeting next Friday at 2 PM\"), " +
		"check availability (\"what's free on Tuesday?\"), or cancel the current booking. " +
		"Just tell me what you need in plain language."
}

func (c *DefaultComposer) Goodbye() string {
	return "Thanks for chatting! I'm here whenever you need to schedule something. Have a great day."
}

func (c *DefaultComposer) AskSlot(slot models.SlotName) string {
	switch slot {
	case models.SlotDate:
		return "What date would you like to meet? You can say things like \"tomorrow\" or \"next Friday\"."
	case models.SlotTimeRange:
		return "What time works for you? A specific time like \"2 PM\" or a window like \"morning\" both work."
	case models.SlotDuration:
		return "How long should the appointment be?"
	case models.SlotTitle:
		return "What should I call this appointment?"
	default:
		return "Could you tell me a bit more about the appointment?"
	}
}

func (c *DefaultComposer) Clarify() string {
	return "I want to make sure I understand. Could you be more specific? " +
		"For example: \"book a meeting tomorrow afternoon\" or \"what's free next Tuesday?\""
}

func (c *DefaultComposer) ProposeCandidates(cands []models.CandidateInterval) string {
	if len(cands) == 0 {
		return c.NoAvailability()
	}
	var sb strings.Builder
	sb.WriteString("I found these available slots:\n")
	sb.WriteString(c.listCandidates(cands))
	sb.WriteString("\nReply with a number to pick one, or \"yes\" for the first option.")
	return sb.String()
}

func (c *DefaultComposer) Availability(cands []models.CandidateInterval) string {
	if len(cands) == 0 {
		return "I couldn't find any open slots in that window."
	}
	return "Here is what's open:\n" + c.listCandidates(cands)
}

func (c *DefaultComposer) ConfirmPrompt(iv models.Interval, title string) string {
	label := title
	if label == "" {
		label = "your appointment"
	}
	return fmt.Sprintf("Shall I book %s for %s? Say \"yes\" to confirm or \"no\" to pick another time.",
		label, c.formatInterval(iv))
}

func (c *DefaultComposer) Booked(b *models.Booking) string {
	label := b.Title
	if label == "" {
		label = "Your appointment"
	}
	return fmt.Sprintf("Booked! %s is confirmed for %s. You'll find it on your calendar. Anything else?",
		label, c.formatInterval(b.Interval))
}

func (c *DefaultComposer) NoAvailability() string {
	return "I couldn't find any available slots for that time. " +
		"Try a different day, a different time window, or a shorter duration and I'll look again."
}

func (c *DefaultComposer) ProposeAlternatives(cands []models.CandidateInterval) string {
	if len(cands) == 0 {
		return c.NoAvailability()
	}
	var sb strings.Builder
	sb.WriteString("That time is already taken, but these are close:\n")
	sb.WriteString(c.listCandidates(cands))
	sb.WriteString("\nReply with a number to pick one, or suggest another time.")
	return sb.String()
}

func (c *DefaultComposer) CalendarUnavailable() string {
	return "I'm having trouble reaching the calendar right now. Give it a moment and try again."
}

func (c *DefaultComposer) BookingFailed() string {
	return "I wasn't able to complete the booking. The slot may have just been taken. " +
		"Let's pick another time and try again."
}

func (c *DefaultComposer) Cancelled() string {
	return "No problem, I've cancelled that. Let me know if you'd like to schedule something else."
}

func (c *DefaultComposer) Expired() string {
	return "This conversation has expired. Please start a new session to book an appointment."
}

func (c *DefaultComposer) ValidationError(reason string) string {
	return fmt.Sprintf("I can't book that: %s. Could you pick a different time?", reason)
}

func (c *DefaultComposer) listCandidates(cands []models.CandidateInterval) string {
	var sb strings.Builder
	for i, cand := range cands {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, c.formatInterval(cand.Interval)))
	}
	return sb.String()
}

func (c *DefaultComposer) formatInterval(iv models.Interval) string {
	start := iv.Start.In(c.Loc)
	end := iv.End.In(c.Loc)
	return fmt.Sprintf("%s, %s to %s",
		start.Format("Monday, January 2"),
		start.Format("3:04 PM"),
		end.Format("3:04 PM"))
}
