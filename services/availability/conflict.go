package availability

import (
	"time"

	"bookwise/models"
)

// ResolveConflict produces ranked alternatives after a requested interval
// collided with a busy one. It re-runs the resolver restricted to the same
// day first (keeping, then dropping, the user's time-of-day window) and only
// then expands to the full scan window. It never books anything itself; the
// dialogue machine re-confirms every alternative with the user.
func (r *Resolver) ResolveConflict(ref time.Time, requested models.Interval, c Constraints, busy []models.Interval) []models.CandidateInterval {
	sameDay := c
	sameDay.Date = requested.Start.In(r.Loc).Format("2006-01-02")
	sameDay.PreferredStart = requested.Start.In(r.Loc).Hour()*60 + requested.Start.In(r.Loc).Minute()
	sameDay.Exclude = append(append([]models.Interval(nil), c.Exclude...), requested)

	if out := r.Propose(ref, sameDay, busy); len(out) > 0 {
		return out
	}

	widened := sameDay
	widened.WindowStart, widened.WindowEnd = 0, 0
	if out := r.Propose(ref, widened, busy); len(out) > 0 {
		return out
	}

	expanded := widened
	expanded.Date = ""
	return r.Propose(ref, expanded, busy)
}
