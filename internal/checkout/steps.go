package checkout

// Checkout progresses through three steps on the kiosk screen.
const (
	StepAddress      = 1
	StepPayment      = 2
	StepConfirmation = 3
)

// Steps tracks the current checkout step and which steps have been
// completed, so the kiosk can render the progress bar and allow
// jumping back to finished steps.
type Steps struct {
	current   int
	completed map[int]bool
}

func NewSteps() *Steps {
	return &Steps{current: StepAddress, completed: make(map[int]bool)}
}

// Current returns the active step.
func (s *Steps) Current() int {
	return s.current
}

// Next marks the current step completed and advances, stopping at the
// confirmation step.
func (s *Steps) Next() {
	s.completed[s.current] = true
	if s.current < StepConfirmation {
		s.current++
	}
}

// Prev moves one step back, never below the address step.
func (s *Steps) Prev() {
	if s.current > StepAddress {
		s.current--
	}
}

// GoTo jumps to a step. Only known steps are accepted.
func (s *Steps) GoTo(step int) {
	if step >= StepAddress && step <= StepConfirmation {
		s.current = step
	}
}

// IsCompleted reports whether a step has been finished before.
func (s *Steps) IsCompleted(step int) bool {
	return s.completed[step]
}

// Reset returns to the address step and forgets completion state.
func (s *Steps) Reset() {
	s.current = StepAddress
	s.completed = make(map[int]bool)
}
