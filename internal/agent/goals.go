package agent

import "time"

// SetGoal adds a new goal, or replaces an existing one with the same ID.
func (a *Agent) SetGoal(id, kind, target string) *Goal {
	for i := range a.Goals {
		if a.Goals[i].ID == id {
			a.Goals[i] = Goal{ID: id, Kind: kind, Target: target, CreatedAt: time.Now()}
			return &a.Goals[i]
		}
	}
	a.Goals = append(a.Goals, Goal{ID: id, Kind: kind, Target: target, CreatedAt: time.Now()})
	return &a.Goals[len(a.Goals)-1]
}

// ProgressGoal advances a goal's progress by delta, clamped to [0,1].
func (a *Agent) ProgressGoal(id string, delta float64) bool {
	for i := range a.Goals {
		if a.Goals[i].ID == id && !a.Goals[i].Abandoned {
			a.Goals[i].Progress = clampUnit(a.Goals[i].Progress + delta)
			return true
		}
	}
	return false
}

// AbandonGoal marks a goal abandoned with a reason; it is retained for
// audit but excluded from active-goal views.
func (a *Agent) AbandonGoal(id, reason string) bool {
	for i := range a.Goals {
		if a.Goals[i].ID == id {
			a.Goals[i].Abandoned = true
			a.Goals[i].Reason = reason
			return true
		}
	}
	return false
}

// ActiveGoals returns goals that have not been abandoned or completed.
func (a *Agent) ActiveGoals() []Goal {
	var out []Goal
	for _, g := range a.Goals {
		if !g.Abandoned && g.Progress < 1.0 {
			out = append(out, g)
		}
	}
	return out
}
