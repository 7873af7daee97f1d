package nlu

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"bookwise/models"
)

// Extractor parses raw utterances into structured date/time/duration
// candidates. Extraction is deterministic and never fails: malformed input
// yields an empty list and the dialogue layer falls back to a clarification.
type Extractor struct {
	loc *time.Location
}

// NewExtractor builds an extractor anchored to the given timezone.
func NewExtractor(loc *time.Location) *Extractor {
	if loc == nil {
		loc = time.UTC
	}
	return &Extractor{loc: loc}
}

// ---------- package-level compiled regexes ----------

var (
	betweenRE   = regexp.MustCompile(`(?i)\bbetween\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\s+and\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	timeRangeRE = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\s*(?:[-–—]|to|until)\s*(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	time12RE    = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	time24RE    = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	bareHourRE  = regexp.MustCompile(`(?i)\bat\s+(\d{1,2})\b`)
	onlyHourRE  = regexp.MustCompile(`^\s*(\d{1,2})\s*$`)
	noonRE      = regexp.MustCompile(`(?i)\b(noon|midday)\b`)

	durationRE     = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(hours?|hrs?|minutes?|mins?)\b`)
	halfHourRE     = regexp.MustCompile(`(?i)\bhalf\s+an?\s+hour\b`)
	hourAndHalfRE  = regexp.MustCompile(`(?i)\ban?\s+hour\s+and\s+a\s+half\b|\b1\.5\s*hours?\b`)
	anHourRE       = regexp.MustCompile(`(?i)\ban?\s+hour\b`)
	isoDateRE      = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	monthDayRE     = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	weekdayRE      = regexp.MustCompile(`(?i)\b(next\s+|this\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	titleRE        = regexp.MustCompile(`(?i)\b(?:about|regarding|titled)\s+(.+?)(?:\s+(?:on|at|for|next|tomorrow|between)\b|[.!?]|$)`)
	attendeesRE    = regexp.MustCompile(`(?i)\bwith\s+([A-Za-z]+(?:\s*(?:,|and)\s*[A-Za-z]+)*)\b`)
	daypartRE      = regexp.MustCompile(`(?i)\b(morning|afternoon|evening)\b`)
	nameSplitRE    = regexp.MustCompile(`(?i)\s*(?:,|\band\b)\s*`)
	relativeDateRE = regexp.MustCompile(`(?i)\b(day\s+after\s+tomorrow|tomorrow|today|next\s+week)\b`)
)

var months = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June, "july": time.July,
	"august": time.August, "september": time.September, "october": time.October,
	"november": time.November, "december": time.December,
}

var weekdays = map[string]time.Weekday{
	"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
	"sunday": time.Sunday,
}

// Daypart windows, minutes from midnight.
var dayparts = map[string][2]int{
	"morning":   {9 * 60, 12 * 60},
	"afternoon": {13 * 60, 17 * 60},
	"evening":   {17 * 60, 19 * 60},
}

// Extract parses text into candidate entities, resolving relative expressions
// against ref. Matched spans are blanked so later, looser patterns cannot
// re-consume them (e.g. the "4 pm" inside "between 2 and 4 pm").
func (e *Extractor) Extract(text string, ref time.Time) []models.CandidateEntity {
	var out []models.CandidateEntity
	if strings.TrimSpace(text) == "" {
		return out
	}
	ref = ref.In(e.loc)
	work := text

	work, out = e.extractTimeRanges(work, out)
	work, out = e.extractDates(work, ref, out)
	work, out = e.extractDurations(work, out)
	work, out = e.extractTimes(work, out)
	out = e.extractFreeText(work, out)
	return out
}

// blank replaces the span [lo,hi) with spaces so it cannot match again.
func blank(s string, lo, hi int) string {
	return s[:lo] + strings.Repeat(" ", hi-lo) + s[hi:]
}

func (e *Extractor) extractTimeRanges(work string, out []models.CandidateEntity) (string, []models.CandidateEntity) {
	for _, re := range []*regexp.Regexp{betweenRE, timeRangeRE} {
		for {
			loc := re.FindStringSubmatchIndex(work)
			if loc == nil {
				break
			}
			m := matchGroups(work, loc)
			raw := work[loc[0]:loc[1]]
			work = blank(work, loc[0], loc[1])

			startMin, ok1 := clockMinutes(m[1], m[2], meridiem(m[3], m[6]))
			endMin, ok2 := clockMinutes(m[4], m[5], m[6])
			if !ok1 || !ok2 {
				continue
			}
			// "11-1 pm" style wraps across noon.
			if endMin <= startMin && startMin >= 12*60 {
				startMin -= 12 * 60
			}
			if endMin <= startMin {
				continue
			}
			out = append(out, models.CandidateEntity{
				Type: models.EntityTimeRange, Raw: strings.TrimSpace(raw),
				Start: startMin, End: endMin, Confidence: 0.9,
			})
		}
	}
	return work, out
}

func (e *Extractor) extractDates(work string, ref time.Time, out []models.CandidateEntity) (string, []models.CandidateEntity) {
	if loc := isoDateRE.FindStringSubmatchIndex(work); loc != nil {
		m := matchGroups(work, loc)
		raw := work[loc[0]:loc[1]]
		work = blank(work, loc[0], loc[1])
		if d, err := time.ParseInLocation("2006-01-02", m[1]+"-"+m[2]+"-"+m[3], e.loc); err == nil {
			out = append(out, models.CandidateEntity{
				Type: models.EntityDate, Raw: raw,
				Date: d.Format("2006-01-02"), Confidence: 0.95,
			})
		}
	}

	if loc := monthDayRE.FindStringSubmatchIndex(work); loc != nil {
		m := matchGroups(work, loc)
		raw := work[loc[0]:loc[1]]
		work = blank(work, loc[0], loc[1])
		day, _ := strconv.Atoi(m[2])
		month := months[strings.ToLower(m[1])]
		if day >= 1 && day <= 31 {
			d := time.Date(ref.Year(), month, day, 0, 0, 0, 0, e.loc)
			// A bare month-day in the past refers to next year.
			if d.Before(truncateDay(ref)) {
				d = d.AddDate(1, 0, 0)
			}
			out = append(out, models.CandidateEntity{
				Type: models.EntityDate, Raw: raw,
				Date: d.Format("2006-01-02"), Confidence: 0.85,
			})
		}
	}

	if loc := relativeDateRE.FindStringSubmatchIndex(work); loc != nil {
		raw := work[loc[0]:loc[1]]
		work = blank(work, loc[0], loc[1])
		var d time.Time
		switch strings.ToLower(strings.Join(strings.Fields(raw), " ")) {
		case "today":
			d = truncateDay(ref)
		case "tomorrow":
			d = truncateDay(ref).AddDate(0, 0, 1)
		case "day after tomorrow":
			d = truncateDay(ref).AddDate(0, 0, 2)
		case "next week":
			d = truncateDay(ref).AddDate(0, 0, 7)
		}
		out = append(out, models.CandidateEntity{
			Type: models.EntityRelativeDate, Raw: strings.TrimSpace(raw),
			Date: d.Format("2006-01-02"), Confidence: 0.9,
		})
	}

	if loc := weekdayRE.FindStringSubmatchIndex(work); loc != nil {
		m := matchGroups(work, loc)
		raw := work[loc[0]:loc[1]]
		work = blank(work, loc[0], loc[1])
		target := weekdays[strings.ToLower(m[2])]
		strict := strings.HasPrefix(strings.ToLower(strings.TrimSpace(m[1])), "next")
		d := resolveWeekday(ref, target, strict)
		out = append(out, models.CandidateEntity{
			Type: models.EntityRelativeDate, Raw: strings.TrimSpace(raw),
			Date: d.Format("2006-01-02"), Confidence: 0.9,
		})
	}
	return work, out
}

func (e *Extractor) extractDurations(work string, out []models.CandidateEntity) (string, []models.CandidateEntity) {
	if loc := hourAndHalfRE.FindStringIndex(work); loc != nil {
		raw := work[loc[0]:loc[1]]
		work = blank(work, loc[0], loc[1])
		out = append(out, models.CandidateEntity{
			Type: models.EntityDuration, Raw: raw, Duration: 90, Confidence: 0.9,
		})
		return work, out
	}
	if loc := halfHourRE.FindStringIndex(work); loc != nil {
		raw := work[loc[0]:loc[1]]
		work = blank(work, loc[0], loc[1])
		out = append(out, models.CandidateEntity{
			Type: models.EntityDuration, Raw: raw, Duration: 30, Confidence: 0.9,
		})
		return work, out
	}
	if loc := durationRE.FindStringSubmatchIndex(work); loc != nil {
		m := matchGroups(work, loc)
		raw := work[loc[0]:loc[1]]
		work = blank(work, loc[0], loc[1])
		val, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			minutes := int(val)
			if strings.HasPrefix(strings.ToLower(m[2]), "h") {
				minutes = int(val * 60)
			}
			if minutes > 0 {
				out = append(out, models.CandidateEntity{
					Type: models.EntityDuration, Raw: raw, Duration: minutes, Confidence: 0.9,
				})
			}
		}
		return work, out
	}
	if loc := anHourRE.FindStringIndex(work); loc != nil {
		raw := work[loc[0]:loc[1]]
		work = blank(work, loc[0], loc[1])
		out = append(out, models.CandidateEntity{
			Type: models.EntityDuration, Raw: raw, Duration: 60, Confidence: 0.8,
		})
	}
	return work, out
}

func (e *Extractor) extractTimes(work string, out []models.CandidateEntity) (string, []models.CandidateEntity) {
	if loc := noonRE.FindStringIndex(work); loc != nil {
		raw := work[loc[0]:loc[1]]
		work = blank(work, loc[0], loc[1])
		out = append(out, models.CandidateEntity{
			Type: models.EntityTime, Raw: raw, Start: 12 * 60, Confidence: 0.9,
		})
	}

	for {
		loc := time12RE.FindStringSubmatchIndex(work)
		if loc == nil {
			break
		}
		m := matchGroups(work, loc)
		raw := work[loc[0]:loc[1]]
		work = blank(work, loc[0], loc[1])
		if min, ok := clockMinutes(m[1], m[2], m[3]); ok {
			out = append(out, models.CandidateEntity{
				Type: models.EntityTime, Raw: raw, Start: min, Confidence: 0.9,
			})
		}
	}

	if loc := time24RE.FindStringSubmatchIndex(work); loc != nil {
		m := matchGroups(work, loc)
		raw := work[loc[0]:loc[1]]
		work = blank(work, loc[0], loc[1])
		h, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		if h >= 0 && h < 24 && mm >= 0 && mm < 60 {
			out = append(out, models.CandidateEntity{
				Type: models.EntityTime, Raw: raw, Start: h*60 + mm, Confidence: 0.85,
			})
		}
	}

	// Hour with no meridiem: business-hours heuristic, low confidence so the
	// machine asks for clarification instead of guessing.
	bare := ""
	rawBare := ""
	if m := onlyHourRE.FindStringSubmatch(work); m != nil {
		bare, rawBare = m[1], strings.TrimSpace(m[0])
	} else if loc := bareHourRE.FindStringSubmatchIndex(work); loc != nil {
		m := matchGroups(work, loc)
		bare, rawBare = m[1], work[loc[0]:loc[1]]
		work = blank(work, loc[0], loc[1])
	}
	if bare != "" {
		if h, err := strconv.Atoi(bare); err == nil && h >= 0 && h <= 23 {
			if h >= 1 && h <= 7 {
				h += 12
			}
			out = append(out, models.CandidateEntity{
				Type: models.EntityTime, Raw: strings.TrimSpace(rawBare),
				Start: h * 60, Confidence: 0.4,
			})
		}
	}

	if loc := daypartRE.FindStringSubmatchIndex(work); loc != nil {
		m := matchGroups(work, loc)
		raw := work[loc[0]:loc[1]]
		work = blank(work, loc[0], loc[1])
		win := dayparts[strings.ToLower(m[1])]
		out = append(out, models.CandidateEntity{
			Type: models.EntityTimeRange, Raw: raw,
			Start: win[0], End: win[1], Confidence: 0.7,
		})
	}
	return work, out
}

func (e *Extractor) extractFreeText(work string, out []models.CandidateEntity) []models.CandidateEntity {
	if m := titleRE.FindStringSubmatch(work); m != nil {
		title := strings.TrimSpace(m[1])
		if title != "" {
			out = append(out, models.CandidateEntity{
				Type: models.EntityTitle, Raw: m[0], Text: title, Confidence: 0.8,
			})
		}
	}
	if m := attendeesRE.FindStringSubmatch(work); m != nil {
		parts := nameSplitRE.Split(m[1], -1)
		var names []string
		for _, p := range parts {
			p = strings.TrimSpace(p)
			// Attendee names are capitalized; skip fillers like "with my team".
			if p != "" && p[0] >= 'A' && p[0] <= 'Z' {
				names = append(names, p)
			}
		}
		if len(names) > 0 {
			out = append(out, models.CandidateEntity{
				Type: models.EntityAttendees, Raw: m[0], Attendees: names, Confidence: 0.75,
			})
		}
	}
	return out
}

// resolveWeekday picks the concrete date for a weekday mention. Bare or
// "this" weekdays resolve to the nearest upcoming occurrence; "next" weekdays
// resolve to the first occurrence strictly after the current Mon–Sun week.
func resolveWeekday(ref time.Time, target time.Weekday, strict bool) time.Time {
	day := truncateDay(ref)
	days := (int(target) - int(ref.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	d := day.AddDate(0, 0, days)
	if strict {
		// Monday-based offset of ref within its week.
		offset := (int(ref.Weekday()) + 6) % 7
		sunday := day.AddDate(0, 0, 6-offset)
		if !d.After(sunday) {
			d = d.AddDate(0, 0, 7)
		}
	}
	return d
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// clockMinutes converts an hour/minute/meridiem triple to minutes from
// midnight. Hours without a meridiem are taken as written (24h clock).
func clockMinutes(hourStr, minStr, mer string) (int, bool) {
	h, err := strconv.Atoi(hourStr)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m := 0
	if minStr != "" {
		m, err = strconv.Atoi(minStr)
		if err != nil || m < 0 || m > 59 {
			return 0, false
		}
	}
	switch strings.ToLower(mer) {
	case "pm":
		if h > 12 {
			return 0, false
		}
		if h != 12 {
			h += 12
		}
	case "am":
		if h > 12 {
			return 0, false
		}
		if h == 12 {
			h = 0
		}
	}
	return h*60 + m, true
}

// meridiem prefers an explicit marker and falls back to the range's trailing
// one, so "2-4 PM" reads as 14:00–16:00.
func meridiem(own, fallback string) string {
	if own != "" {
		return own
	}
	return fallback
}

// matchGroups materializes submatch strings from FindStringSubmatchIndex
// output; absent groups come back empty.
func matchGroups(s string, loc []int) []string {
	out := make([]string, len(loc)/2)
	for i := range out {
		lo, hi := loc[2*i], loc[2*i+1]
		if lo >= 0 {
			out[i] = s[lo:hi]
		}
	}
	return out
}
