package solver

type Status int

const (
	Initializing Status = iota
	Running
	Converged
	IterationCapReached
)

func (status Status) String() string {
	switch status {
	case Initializing:
		return "Initializing"
	case Running:
		return "Running"
	case Converged:
		return "Converged"
	case IterationCapReached:
		return "IterationCapReached"
	default:
		return "Unknown"
	}
}

func (status Status) Terminal() bool {
	return status == Converged || status == IterationCapReached
}
