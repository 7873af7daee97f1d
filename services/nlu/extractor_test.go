package nlu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookwise/models"
)

// ref is a Monday morning so weekday arithmetic is easy to follow.
var ref = time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

func findEntity(ents []models.CandidateEntity, typ models.EntityType) (models.CandidateEntity, bool) {
	for _, e := range ents {
		if e.Type == typ {
			return e, true
		}
	}
	return models.CandidateEntity{}, false
}

func TestExtractTimeRangeWithSharedMeridiem(t *testing.T) {
	e := NewExtractor(time.UTC)
	ents := e.Extract("can we meet 2-4 PM", ref)

	tr, ok := findEntity(ents, models.EntityTimeRange)
	require.True(t, ok)
	assert.Equal(t, 14*60, tr.Start)
	assert.Equal(t, 16*60, tr.End)
	assert.GreaterOrEqual(t, tr.Confidence, 0.9)
}

func TestExtractBetweenRange(t *testing.T) {
	e := NewExtractor(time.UTC)
	ents := e.Extract("sometime between 2 and 4 pm would be great", ref)

	tr, ok := findEntity(ents, models.EntityTimeRange)
	require.True(t, ok)
	assert.Equal(t, 14*60, tr.Start)
	assert.Equal(t, 16*60, tr.End)
}

func TestExtractRangeWrappingNoon(t *testing.T) {
	e := NewExtractor(time.UTC)
	ents := e.Extract("11-1 pm works", ref)

	tr, ok := findEntity(ents, models.EntityTimeRange)
	require.True(t, ok)
	assert.Equal(t, 11*60, tr.Start)
	assert.Equal(t, 13*60, tr.End)
}

func TestExtractNextWeekdaySkipsCurrentWeek(t *testing.T) {
	e := NewExtractor(time.UTC)

	// From Monday March 2nd, "friday" is this week's Friday but
	// "next friday" lands in the following week.
	ents := e.Extract("friday", ref)
	d, ok := findEntity(ents, models.EntityRelativeDate)
	require.True(t, ok)
	assert.Equal(t, "2026-03-06", d.Date)

	ents = e.Extract("next friday", ref)
	d, ok = findEntity(ents, models.EntityRelativeDate)
	require.True(t, ok)
	assert.Equal(t, "2026-03-13", d.Date)
}

func TestExtractRelativeDates(t *testing.T) {
	e := NewExtractor(time.UTC)

	cases := map[string]string{
		"today":              "2026-03-02",
		"tomorrow":           "2026-03-03",
		"day after tomorrow": "2026-03-04",
		"next week":          "2026-03-09",
	}
	for text, want := range cases {
		ents := e.Extract(text, ref)
		d, ok := findEntity(ents, models.EntityRelativeDate)
		require.True(t, ok, "no date entity for %q", text)
		assert.Equal(t, want, d.Date, "text %q", text)
	}
}

func TestExtractISOAndMonthDay(t *testing.T) {
	e := NewExtractor(time.UTC)

	ents := e.Extract("put it on 2026-04-10 please", ref)
	d, ok := findEntity(ents, models.EntityDate)
	require.True(t, ok)
	assert.Equal(t, "2026-04-10", d.Date)

	// A month-day already past rolls to next year.
	ents = e.Extract("january 5th", ref)
	d, ok = findEntity(ents, models.EntityDate)
	require.True(t, ok)
	assert.Equal(t, "2027-01-05", d.Date)
}

func TestExtractBareHourIsLowConfidence(t *testing.T) {
	e := NewExtractor(time.UTC)
	ents := e.Extract("meet me at 3", ref)

	tm, ok := findEntity(ents, models.EntityTime)
	require.True(t, ok)
	// Small hours read as afternoon, but flagged for clarification.
	assert.Equal(t, 15*60, tm.Start)
	assert.Less(t, tm.Confidence, 0.6)
}

func TestExtractDurations(t *testing.T) {
	e := NewExtractor(time.UTC)

	cases := map[string]int{
		"for 45 minutes":      45,
		"a 2 hour session":    120,
		"an hour and a half":  90,
		"just half an hour":   30,
		"an hour if possible": 60,
	}
	for text, want := range cases {
		ents := e.Extract(text, ref)
		d, ok := findEntity(ents, models.EntityDuration)
		require.True(t, ok, "no duration entity for %q", text)
		assert.Equal(t, want, d.Duration, "text %q", text)
	}
}

func TestExtractDaypartWindow(t *testing.T) {
	e := NewExtractor(time.UTC)
	ents := e.Extract("tomorrow afternoon", ref)

	tr, ok := findEntity(ents, models.EntityTimeRange)
	require.True(t, ok)
	assert.Equal(t, 13*60, tr.Start)
	assert.Equal(t, 17*60, tr.End)

	d, ok := findEntity(ents, models.EntityRelativeDate)
	require.True(t, ok)
	assert.Equal(t, "2026-03-03", d.Date)
}

func TestExtractNoon(t *testing.T) {
	e := NewExtractor(time.UTC)
	ents := e.Extract("how about noon", ref)

	tm, ok := findEntity(ents, models.EntityTime)
	require.True(t, ok)
	assert.Equal(t, 12*60, tm.Start)
}

func TestExtractTitleAndAttendees(t *testing.T) {
	e := NewExtractor(time.UTC)
	ents := e.Extract("book a meeting about project planning next friday at 2 pm with Alice and Bob", ref)

	title, ok := findEntity(ents, models.EntityTitle)
	require.True(t, ok)
	assert.Equal(t, "project planning", title.Text)

	att, ok := findEntity(ents, models.EntityAttendees)
	require.True(t, ok)
	assert.Equal(t, []string{"Alice", "Bob"}, att.Attendees)

	tm, ok := findEntity(ents, models.EntityTime)
	require.True(t, ok)
	assert.Equal(t, 14*60, tm.Start)
}

func TestExtractGarbageYieldsNothing(t *testing.T) {
	e := NewExtractor(time.UTC)
	assert.Empty(t, e.Extract("the quick brown fox", ref))
	assert.Empty(t, e.Extract("", ref))
	assert.Empty(t, e.Extract("   ", ref))
}

func TestRangeNotReconsumedAsTimes(t *testing.T) {
	e := NewExtractor(time.UTC)
	ents := e.Extract("between 2 and 4 pm", ref)

	// The range swallows both clock references; no stray time entity remains.
	_, hasTime := findEntity(ents, models.EntityTime)
	assert.False(t, hasTime)
}
