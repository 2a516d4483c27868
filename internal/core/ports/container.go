package ports

import (
	"context"
	"errors"
)

var (
	// ErrContainerNotFound is returned by a ContainerRuntime when no container matches.
	ErrContainerNotFound = errors.New("container not found")
	// ErrImageNotFound is returned by a ContainerRuntime when an image is not present locally.
	ErrImageNotFound = errors.New("image not found")
)

// ContainerRuntime defines the container operations storage managers need.
// This interface keeps the managers independent of the Docker SDK so they can
// be driven by a fake in tests.
type ContainerRuntime interface {
	// ListContainers returns every container, including stopped ones.
	ListContainers(ctx context.Context) ([]ContainerSnapshot, error)
	// InspectContainer returns ErrContainerNotFound if id matches nothing.
	InspectContainer(ctx context.Context, id string) (ContainerSnapshot, error)
	// InspectImage resolves a local image reference, or ErrImageNotFound.
	InspectImage(ctx context.Context, ref string) (Image, error)
	// CreateContainer creates (but does not start) a container and returns its ID.
	CreateContainer(ctx context.Context, spec ContainerSpec) (string, error)
	StartContainer(ctx context.Context, id string) error
	StopContainer(ctx context.Context, id string) error
	RemoveContainer(ctx context.Context, id string) error
	Close() error
}

// ContainerSnapshot is a point-in-time view of a runtime container.
type ContainerSnapshot struct {
	ID        string
	Name      string
	ImageTags []string
	Status    string
	// Ports maps "3306/tcp" to "hostIP:hostPort" entries.
	Ports  map[string][]string
	Mounts []Mount
}

// ShortID returns the 12 character abbreviated container ID.
func (s ContainerSnapshot) ShortID() string {
	if len(s.ID) > 12 {
		return s.ID[:12]
	}
	return s.ID
}

type Mount struct {
	Source      string
	Destination string
}

type Image struct {
	ID   string
	Tags []string
}

// Bind mounts a host path into a container.
type Bind struct {
	Source   string
	Target   string
	ReadOnly bool
}

// ContainerSpec describes a container to create.
type ContainerSpec struct {
	Image string
	Cmd   []string
	Env   []string
	// PortBindings maps a container port ("6379/tcp") to a host port.
	PortBindings map[string]int
	Binds        []Bind
	Tty          bool
	OpenStdin    bool
}
