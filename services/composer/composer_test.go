package composer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"bookwise/models"
)

func TestProposeCandidatesNumbersSlots(t *testing.T) {
	c := NewComposer(time.UTC)
	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	cands := []models.CandidateInterval{
		{Interval: models.Interval{Start: day.Add(14 * time.Hour), End: day.Add(15 * time.Hour)}},
		{Interval: models.Interval{Start: day.Add(15 * time.Hour), End: day.Add(16 * time.Hour)}},
	}

	out := c.ProposeCandidates(cands)
	assert.Contains(t, out, "1. Tuesday, March 3, 2:00 PM to 3:00 PM")
	assert.Contains(t, out, "2. Tuesday, March 3, 3:00 PM to 4:00 PM")
}

func TestConfirmPromptFallsBackWithoutTitle(t *testing.T) {
	c := NewComposer(time.UTC)
	iv := models.Interval{
		Start: time.Date(2026, 3, 3, 14, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 3, 14, 30, 0, 0, time.UTC),
	}

	assert.Contains(t, c.ConfirmPrompt(iv, ""), "your appointment")
	assert.Contains(t, c.ConfirmPrompt(iv, "standup"), "standup")
}

func TestProposeCandidatesEmptyFallsBack(t *testing.T) {
	c := NewComposer(time.UTC)
	assert.Equal(t, c.NoAvailability(), c.ProposeCandidates(nil))
}
