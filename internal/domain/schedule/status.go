package schedule

// Status is a point-in-time view of one scheduler instance for operators.
type Status struct {
	Name          string
	Started       bool
	Running       bool
	LastCompleted PeriodKey
	HasCompleted  bool
}
