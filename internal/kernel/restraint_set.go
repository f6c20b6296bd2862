package kernel

import "fmt"

// RestraintSet groups restraints under a common weight. Each member's
// own weight multiplies the set's.
type RestraintSet struct {
	RestraintBase
	members []Restraint
}

func NewRestraintSet(m *Model, name string) *RestraintSet {
	rs := &RestraintSet{RestraintBase: NewRestraintBase(m, "RestraintSet%d")}
	if name != "" {
		rs.SetName(name)
	}
	return rs
}

func (rs *RestraintSet) Add(restraints ...Restraint) error {
	for _, r := range restraints {
		if r.Model() != rs.model {
			return fmt.Errorf("add %s to %s: %w", r.Name(), rs.name, ErrModelMismatch)
		}
		if contains(r, rs) {
			return fmt.Errorf("add %s to %s: %w", r.Name(), rs.name, ErrRestraintCycle)
		}
	}
	rs.members = append(rs.members, restraints...)
	return nil
}

func (rs *RestraintSet) Restraints() []Restraint {
	out := make([]Restraint, len(rs.members))
	copy(out, rs.members)
	return out
}

func (rs *RestraintSet) Len() int { return len(rs.members) }

func (rs *RestraintSet) AddScoreAndDerivatives(sa ScoreAccumulator) error {
	for _, r := range rs.members {
		if err := r.AddScoreAndDerivatives(sa.Child(r.Weight())); err != nil {
			return fmt.Errorf("%s: %w", r.Name(), err)
		}
	}
	return nil
}

// Inputs is the union of the members' inputs, first occurrence order.
func (rs *RestraintSet) Inputs() []ModelObject {
	seen := make(map[ModelObject]struct{})
	out := make([]ModelObject, 0)
	for _, r := range rs.members {
		for _, in := range r.Inputs() {
			if _, ok := seen[in]; ok {
				continue
			}
			seen[in] = struct{}{}
			out = append(out, in)
		}
	}
	return out
}

// contains reports whether target is r or nested anywhere below it.
func contains(r, target Restraint) bool {
	if r == target {
		return true
	}
	group, ok := r.(interface{ Restraints() []Restraint })
	if !ok {
		return false
	}
	for _, member := range group.Restraints() {
		if contains(member, target) {
			return true
		}
	}
	return false
}
