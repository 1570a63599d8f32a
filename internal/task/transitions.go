package task

// transitions is the complete directed transition table. Any edge not
// listed here is rejected.
var transitions = map[Status][]Status{
	StatusBacklog:    {StatusInProgress, StatusArchived},
	StatusInProgress: {StatusReview, StatusArchived},
	StatusReview:     {StatusDone, StatusInProgress, StatusArchived},
	StatusDone:       {StatusArchived},
	StatusArchived:   {StatusBacklog},
}

// IsValidTransition reports whether a task may move from one status to
// another. Staying in the same status is always allowed.
func IsValidTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns a fresh copy of the statuses reachable from
// the given status in one step.
func AllowedTransitions(from Status) []Status {
	return append([]Status(nil), transitions[from]...)
}

// CheckTransition returns a *TransitionError when from→to is not allowed.
func CheckTransition(from, to Status) error {
	if IsValidTransition(from, to) {
		return nil
	}
	return &TransitionError{From: from, To: to, Allowed: AllowedTransitions(from)}
}

// Advance returns the next workflow status after from, skipping the
// archive edge. ok is false when from only leads to archived.
func Advance(from Status) (next Status, ok bool) {
	for _, s := range transitions[from] {
		if s != StatusArchived {
			return s, true
		}
	}
	return from, false
}
