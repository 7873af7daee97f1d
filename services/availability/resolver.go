package availability

import (
	"sort"
	"time"

	"bookwise/models"
)

// slotStride is the granularity at which candidate start times are generated.
const slotStride = 30 * time.Minute

// Constraints is the (possibly partial) user-side restriction on candidates.
// Times within a day are minutes from midnight; WindowEnd == 0 means no
// time-of-day window, PreferredStart < 0 means no stated preference.
type Constraints struct {
	Date           string
	WindowStart    int
	WindowEnd      int
	DurationMin    int
	PreferredStart int
	Exclude        []models.Interval
}

// Resolver computes free gaps from a busy-interval snapshot and proposes
// candidate appointment slots.
type Resolver struct {
	BusinessStartHour int
	BusinessEndHour   int
	ScanDays          int
	MaxProposals      int
	Loc               *time.Location
}

// NewResolver builds a resolver with the given business-hours policy.
func NewResolver(startHour, endHour, scanDays, maxProposals int, loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{
		BusinessStartHour: startHour,
		BusinessEndHour:   endHour,
		ScanDays:          scanDays,
		MaxProposals:      maxProposals,
		Loc:               loc,
	}
}

// Propose returns up to MaxProposals candidate intervals of the requested
// duration that fit inside free calendar gaps and the caller's constraints.
// Candidates never overlap the busy set; when nothing fits the result is
// empty and the caller must treat that as no availability.
func (r *Resolver) Propose(ref time.Time, c Constraints, busy []models.Interval) []models.CandidateInterval {
	if c.DurationMin <= 0 {
		return nil
	}
	ref = ref.In(r.Loc)
	merged := mergeIntervals(busy)
	dur := time.Duration(c.DurationMin) * time.Minute

	var days []time.Time
	if c.Date != "" {
		d, err := time.ParseInLocation("2006-01-02", c.Date, r.Loc)
		if err != nil {
			return nil
		}
		days = []time.Time{d}
	} else {
		day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, r.Loc)
		for i := 0; i < r.ScanDays; i++ {
			days = append(days, day.AddDate(0, 0, i))
		}
	}

	var all []models.CandidateInterval
	for _, day := range days {
		winStart, winEnd := r.dayWindow(day, c)
		for t := winStart; !t.Add(dur).After(winEnd); t = t.Add(slotStride) {
			if t.Before(ref) {
				continue
			}
			iv := models.Interval{Start: t, End: t.Add(dur)}
			if overlapsAny(iv, merged) || containsInterval(c.Exclude, iv) {
				continue
			}
			all = append(all, r.score(iv, day, c))
		}
	}

	sortCandidates(all, day0Preferred(days, c, r.Loc))
	if len(all) > r.MaxProposals {
		all = all[:r.MaxProposals]
	}
	return all
}

// dayWindow intersects business hours with the user's time-of-day window.
func (r *Resolver) dayWindow(day time.Time, c Constraints) (time.Time, time.Time) {
	startMin := r.BusinessStartHour * 60
	endMin := r.BusinessEndHour * 60
	if c.WindowEnd > c.WindowStart {
		if c.WindowStart > startMin {
			startMin = c.WindowStart
		}
		if c.WindowEnd < endMin {
			endMin = c.WindowEnd
		}
	}
	return day.Add(time.Duration(startMin) * time.Minute), day.Add(time.Duration(endMin) * time.Minute)
}

// score attaches rank inputs: candidates matching the stated preference
// exactly count as direct user requests.
func (r *Resolver) score(iv models.Interval, day time.Time, c Constraints) models.CandidateInterval {
	startMin := iv.Start.Hour()*60 + iv.Start.Minute()
	if c.PreferredStart >= 0 && startMin == c.PreferredStart && (c.Date == "" || day.Format("2006-01-02") == c.Date) {
		return models.CandidateInterval{Interval: iv, Confidence: 1.0, Reason: models.ReasonUserRequest}
	}
	return models.CandidateInterval{Interval: iv, Confidence: 0.8, Reason: models.ReasonResolver}
}

// day0Preferred materializes the preferred instant used for proximity
// ranking, or zero time when the user stated none.
func day0Preferred(days []time.Time, c Constraints, loc *time.Location) time.Time {
	if c.PreferredStart < 0 || len(days) == 0 {
		return time.Time{}
	}
	return days[0].Add(time.Duration(c.PreferredStart) * time.Minute)
}

// sortCandidates orders by confidence desc, proximity to the preference asc,
// then earliest start.
func sortCandidates(cs []models.CandidateInterval, preferred time.Time) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Confidence != cs[j].Confidence {
			return cs[i].Confidence > cs[j].Confidence
		}
		if !preferred.IsZero() {
			di := absDuration(cs[i].Interval.Start.Sub(preferred))
			dj := absDuration(cs[j].Interval.Start.Sub(preferred))
			if di != dj {
				return di < dj
			}
		}
		return cs[i].Interval.Start.Before(cs[j].Interval.Start)
	})
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// mergeIntervals sorts and coalesces overlapping busy intervals.
func mergeIntervals(busy []models.Interval) []models.Interval {
	if len(busy) == 0 {
		return nil
	}
	sorted := append([]models.Interval(nil), busy...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })
	out := []models.Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

func overlapsAny(iv models.Interval, busy []models.Interval) bool {
	for _, b := range busy {
		if iv.Overlaps(b) {
			return true
		}
	}
	return false
}

func containsInterval(set []models.Interval, iv models.Interval) bool {
	for _, s := range set {
		if s.Start.Equal(iv.Start) && s.End.Equal(iv.End) {
			return true
		}
	}
	return false
}
