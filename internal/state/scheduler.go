package state

import "time"

// Scheduling policy over the persisted state: the repair cooldown and the
// per-day AI budget. Elapsed-equals-cooldown counts as satisfied.

// CanAttemptRepair reports whether a repair attempt is allowed now. Force
// always passes, as does a store with no prior attempt. When denied,
// remaining carries the time left on the cooldown.
func (s *Store) CanAttemptRepair(cooldown time.Duration, force bool) (ok bool, remaining time.Duration) {
	if force {
		return true, 0
	}
	st := s.Load()
	if st.LastRepairTs == nil {
		return true, 0
	}
	elapsed := time.Duration(s.now().Unix()-*st.LastRepairTs) * time.Second
	if elapsed >= cooldown {
		return true, 0
	}
	return false, cooldown - elapsed
}

// MarkRepairAttempt starts a new repair cooldown window. This is the only
// operation that consumes the cooldown.
func (s *Store) MarkRepairAttempt() error {
	st := s.Load()
	ts := s.now().Unix()
	st.LastRepairTs = &ts
	return s.Save(st)
}

// CanAttemptAI reports whether the AI tier may run: the per-day budget must
// have room and any previous AI attempt must be out of its cooldown. The
// day counter rolls over lazily on first access after local midnight, and
// the rollover is persisted immediately so a crash cannot revive
// yesterday's count.
func (s *Store) CanAttemptAI(maxPerDay int, cooldown time.Duration) (bool, error) {
	st := s.Load()
	today := s.today()
	if st.AIAttemptsDay == nil || *st.AIAttemptsDay != today {
		st.AIAttemptsDay = &today
		st.AIAttemptsCount = 0
		if err := s.Save(st); err != nil {
			return false, err
		}
	}

	if st.AIAttemptsCount >= maxPerDay {
		return false, nil
	}
	if st.LastAITs != nil {
		elapsed := time.Duration(s.now().Unix()-*st.LastAITs) * time.Second
		if elapsed < cooldown {
			return false, nil
		}
	}
	return true, nil
}

// MarkAIAttempt consumes one unit of today's AI budget and starts the AI
// cooldown.
func (s *Store) MarkAIAttempt() error {
	st := s.Load()
	today := s.today()
	if st.AIAttemptsDay == nil || *st.AIAttemptsDay != today {
		st.AIAttemptsDay = &today
		st.AIAttemptsCount = 0
	}
	st.AIAttemptsCount++
	ts := s.now().Unix()
	st.LastAITs = &ts
	return s.Save(st)
}

// today is the local calendar day, the unit of the AI budget.
func (s *Store) today() string {
	return s.now().Format("2006-01-02")
}
