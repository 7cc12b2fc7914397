package scheduler

import "fmt"

// Requirement is one atomic demand: a subject component for a cohort and batch.
type Requirement struct {
	Cohort      Cohort
	Code        string
	Type        SessionType
	Batch       int
	Total       int
	Remaining   int
	CountToday  int
	MaxPerDay   int
	LabDuration int
}

// Satisfied reports whether every hour has been placed.
func (r *Requirement) Satisfied() bool {
	return r.Remaining <= 0
}

// Key uniquely identifies the requirement within a run.
func (r *Requirement) Key() string {
	return fmt.Sprintf("%s_Div%d_%s_Batch%d", r.Cohort.Year, r.Cohort.Division, r.Code, r.Batch)
}

func (r *Requirement) isContinuousLab() bool {
	return r.Type == SessionLab && r.LabDuration > 1
}

// Pools partitions requirements by the phase that owns them.
type Pools struct {
	Theory     []*Requirement
	Labs       []*Requirement
	Practicals []*Requirement
}

// All returns every requirement in phase order.
func (p Pools) All() []*Requirement {
	all := make([]*Requirement, 0, len(p.Theory)+len(p.Labs)+len(p.Practicals))
	all = append(all, p.Theory...)
	all = append(all, p.Labs...)
	return append(all, p.Practicals...)
}

// BuildPools expands year subjects into requirements, one per division and batch.
func BuildPools(years []YearConfig) Pools {
	var pools Pools
	for _, year := range years {
		for div := 1; div <= year.Divisions; div++ {
			for _, subj := range year.Subjects {
				stype := subj.Type
				if stype == "" {
					stype = SessionTheory
				}
				batches := 1
				if stype != SessionTheory && subj.Batches > 1 {
					batches = subj.Batches
				}
				duration := 1
				if stype == SessionLab && subj.LabDuration > 1 {
					duration = subj.LabDuration
				}
				hours := subj.Hours
				if hours < 0 {
					hours = 0
				}

				for b := 1; b <= batches; b++ {
					req := &Requirement{
						Cohort:      Cohort{Year: year.Name, Division: div},
						Code:        subj.Code,
						Type:        stype,
						Total:       hours,
						Remaining:   hours,
						MaxPerDay:   min(hours, defaultMaxPerDayCap),
						LabDuration: duration,
					}
					if stype != SessionTheory {
						req.Batch = b
					}
					switch {
					case stype == SessionTheory:
						pools.Theory = append(pools.Theory, req)
					case req.isContinuousLab():
						pools.Labs = append(pools.Labs, req)
					default:
						pools.Practicals = append(pools.Practicals, req)
					}
				}
			}
		}
	}
	return pools
}
