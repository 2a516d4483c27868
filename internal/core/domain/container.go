package domain

// Status is the runtime-observed state of a provisioned container.
type Status string

const (
	StatusUnknown Status = "unknown"
	StatusRunning Status = "running"
	StatusCreated Status = "created"
	StatusExited  Status = "exited"
)

// ParseStatus maps a runtime status string onto the known set.
// Anything unrecognized (paused, restarting, dead...) becomes StatusUnknown.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusRunning, StatusCreated, StatusExited:
		return Status(s)
	default:
		return StatusUnknown
	}
}

// ContainerInstance represents a provisioned storage container.
// Ports maps a container port ("3306/tcp") to its host addresses ("0.0.0.0:10123");
// a nil slice means the port is exposed but not published.
type ContainerInstance struct {
	ID     string              `json:"id"`
	Name   string              `json:"name"`
	Ports  map[string][]string `json:"ports"`
	Status Status              `json:"status"`
}
