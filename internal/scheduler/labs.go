package scheduler

import "fmt"

const phaseLabs = "labs"

// allocateLabs places multi-hour labs as atomic blocks, at most one session
// per requirement per day.
func (e *engine) allocateLabs(pool []*Requirement) {
	for _, day := range weekdays {
		for _, req := range pool {
			if e.exhausted {
				return
			}
			if req.Remaining < req.LabDuration || !e.worksOn(req.Cohort.Year, day) {
				continue
			}
			slots := e.calendars[req.Cohort.Year]
			for start := 0; start+req.LabDuration <= len(slots); start++ {
				ok, conflict := e.tryLab(req, day, start, slots)
				if ok {
					delete(e.labFailures, req)
					break
				}
				if conflict != nil && conflict.moreSpecificThan(e.labFailures[req]) {
					e.labFailures[req] = conflict
				}
				if e.exhausted {
					return
				}
			}
		}
	}
}

// tryLab attempts every eligible teacher and room pair for one window and
// returns the most actionable conflict when none fits.
func (e *engine) tryLab(req *Requirement, day string, start int, slots []TimeSlot) (bool, *Conflict) {
	var best *Conflict
	defer func() {
		if best != nil {
			best.Subject = req.Code
			best.Year = req.Cohort.Year
			best.Division = req.Cohort.Division
			best.Batch = req.Batch
			best.Day = day
			best.AttemptedStart = slots[start].Key
		}
	}()

	teachers := e.teachersFor(req.Code, day, req.LabDuration, true)
	if len(teachers) == 0 {
		best = &Conflict{
			Reason: ReasonTeacherConflict,
			Detail: fmt.Sprintf("no qualified teacher has %d free hours on %s", req.LabDuration, day),
		}
		return false, best
	}
	rooms := candidateRooms(req, e.in.RoomMappings, e.in.Rooms)
	for _, t := range teachers {
		for _, r := range rooms {
			if !e.spend() {
				return false, best
			}
			keys, conflict := e.checker.reserveContiguous(req.Cohort, day, start, req.LabDuration, t.Name, r.Name, req.Batch, slots)
			if conflict == nil {
				e.book(req, day, keys, t.Name, r.Name, phaseLabs)
				best = nil
				return true, nil
			}
			if conflict.moreSpecificThan(best) {
				best = conflict
			}
			if conflict.Reason == ReasonBreakInterruption || conflict.Reason == ReasonBatchConflict {
				// Neither depends on the teacher or room, so no pairing can succeed here.
				return false, best
			}
		}
	}
	return false, best
}
