package scheduler

import "sort"

const phaseTheory = "theory"

// theoryPlan groups one cohort's theory requirements with its daily quota.
type theoryPlan struct {
	cohort Cohort
	reqs   []*Requirement
	target int
}

func (e *engine) theoryPlans(pool []*Requirement) []*theoryPlan {
	var plans []*theoryPlan
	index := make(map[Cohort]*theoryPlan)
	for _, req := range pool {
		plan, ok := index[req.Cohort]
		if !ok {
			plan = &theoryPlan{cohort: req.Cohort}
			index[req.Cohort] = plan
			plans = append(plans, plan)
		}
		plan.reqs = append(plan.reqs, req)
	}
	for _, plan := range plans {
		total := 0
		for _, req := range plan.reqs {
			total += req.Remaining
		}
		days := len(e.years[plan.cohort.Year].WorkingDays())
		if days > 0 {
			plan.target = (total + days - 1) / days
		}
	}
	return plans
}

// allocateTheory spreads theory hours across the week under the cohort daily
// target and the per-subject daily cap.
func (e *engine) allocateTheory(pool []*Requirement) {
	plans := e.theoryPlans(pool)
	for _, day := range weekdays {
		for _, req := range pool {
			req.CountToday = 0
		}
		for _, plan := range plans {
			if e.exhausted {
				return
			}
			if plan.target == 0 || !e.worksOn(plan.cohort.Year, day) {
				continue
			}
			e.theoryDay(plan, day)
		}
	}
}

func (e *engine) theoryDay(plan *theoryPlan, day string) {
	slots := e.calendars[plan.cohort.Year]
	taught := make(map[string]bool)
	daily := 0
	for i, slot := range slots {
		if slot.IsBreak {
			continue
		}
		if daily >= plan.target || e.exhausted {
			return
		}
		prev := e.previousTheory(plan.cohort, day, slots, i)

		var fresh, different, open []*Requirement
		for _, req := range plan.reqs {
			if req.Remaining <= 0 || req.CountToday >= req.MaxPerDay {
				continue
			}
			open = append(open, req)
			if !taught[req.Code] {
				fresh = append(fresh, req)
			}
			if req.Code != prev {
				different = append(different, req)
			}
		}

		for _, candidates := range [][]*Requirement{fresh, different, open} {
			if placed := e.placeFirst(candidates, day, slot); placed != nil {
				placed.CountToday++
				taught[placed.Code] = true
				daily++
				break
			}
		}
	}
}

// placeFirst tries candidates in descending remaining order and stops at the first success.
func (e *engine) placeFirst(candidates []*Requirement, day string, slot TimeSlot) *Requirement {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Remaining > candidates[j].Remaining
	})
	for _, req := range candidates {
		if e.placeSingle(req, day, slot, true, phaseTheory) {
			return req
		}
	}
	return nil
}

// previousTheory returns the theory subject in the preceding non-break slot, if any.
func (e *engine) previousTheory(c Cohort, day string, slots []TimeSlot, i int) string {
	if i == 0 || slots[i-1].IsBreak {
		return ""
	}
	for _, a := range e.grids.ClassCell(c, day, slots[i-1].Key) {
		if a.Type == SessionTheory {
			return a.Subject
		}
	}
	return ""
}
