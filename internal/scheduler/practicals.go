package scheduler

const (
	phasePracticals = "practicals"
	phaseFallback   = "fallback"
)

// allocatePracticals places single-hour labs and tutorials. Requirements are
// shuffled per day and year so no subject always wins the early slots.
func (e *engine) allocatePracticals(pool []*Requirement) {
	for _, day := range weekdays {
		for _, req := range pool {
			req.CountToday = 0
		}
		for _, year := range e.in.Years {
			if e.exhausted {
				return
			}
			if !e.worksOn(year.Name, day) {
				continue
			}
			var reqs []*Requirement
			for _, req := range pool {
				if req.Cohort.Year == year.Name {
					reqs = append(reqs, req)
				}
			}
			e.rng.Shuffle(len(reqs), func(i, j int) { reqs[i], reqs[j] = reqs[j], reqs[i] })

			for _, slot := range e.calendars[year.Name] {
				if slot.IsBreak {
					continue
				}
				for _, req := range reqs {
					if req.Remaining <= 0 || req.CountToday >= req.MaxPerDay {
						continue
					}
					if e.placeSingle(req, day, slot, true, phasePracticals) {
						req.CountToday++
					}
				}
			}
		}
	}
}

// sweep is the last resort for single-slot requirements: daily caps and
// teacher load limits are ignored, exclusivity is not.
func (e *engine) sweep(reqs []*Requirement) {
	for _, req := range reqs {
		if req.isContinuousLab() {
			continue
		}
		slots := e.calendars[req.Cohort.Year]
		for _, day := range e.years[req.Cohort.Year].WorkingDays() {
			for _, slot := range slots {
				if req.Remaining <= 0 || e.exhausted {
					break
				}
				e.placeSingle(req, day, slot, false, phaseFallback)
			}
		}
	}
}
