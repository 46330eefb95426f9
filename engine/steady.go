package engine

// SteadyState counts consecutive generations whose board is identical to the
// previous one.
type SteadyState struct {
	Window int
	streak int
}

func NewSteadyState(window int) *SteadyState {
	return &SteadyState{Window: window}
}

// Observe records the transition prev -> next and reports whether the streak
// has reached the window.
func (s *SteadyState) Observe(prev, next *Board) bool {
	if prev.Equal(next) {
		s.streak++
	} else {
		s.streak = 0
	}
	return s.streak >= s.Window
}

func (s *SteadyState) Streak() int { return s.streak }

func (s *SteadyState) Reset() { s.streak = 0 }
