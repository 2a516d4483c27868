package storage

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/melih/lighthouse-storage/internal/core/ports"
)

// fakeRuntime is an in-memory ports.ContainerRuntime.
type fakeRuntime struct {
	mu         sync.Mutex
	images     map[string]ports.Image
	containers map[string]*ports.ContainerSnapshot
	specs      map[string]ports.ContainerSpec
	seq        int

	// startStatus is the status a container reports after StartContainer.
	startStatus string
	closed      bool
}

func newFakeRuntime(tags ...string) *fakeRuntime {
	f := &fakeRuntime{
		images:      make(map[string]ports.Image),
		containers:  make(map[string]*ports.ContainerSnapshot),
		specs:       make(map[string]ports.ContainerSpec),
		startStatus: "running",
	}
	for _, tag := range tags {
		f.images[tag] = ports.Image{ID: "sha256:" + tag, Tags: []string{tag}}
	}
	return f
}

// add registers a pre-existing container and returns its full ID.
func (f *fakeRuntime) add(image, status string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	id := fmt.Sprintf("%012x%052d", f.seq, 0)
	f.containers[id] = &ports.ContainerSnapshot{
		ID:        id,
		Name:      "existing_" + strconv.Itoa(f.seq),
		ImageTags: []string{image},
		Status:    status,
		Ports:     map[string][]string{},
	}
	return id
}

func (f *fakeRuntime) find(id string) *ports.ContainerSnapshot {
	if c, ok := f.containers[id]; ok {
		return c
	}
	for full, c := range f.containers {
		if len(id) >= 12 && full[:len(id)] == id {
			return c
		}
	}
	return nil
}

func (f *fakeRuntime) ListContainers(context.Context) ([]ports.ContainerSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ports.ContainerSnapshot, 0, len(f.containers))
	for _, c := range f.containers {
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b ports.ContainerSnapshot) int {
		if a.ID < b.ID {
			return -1
		}
		return 1
	})
	return out, nil
}

func (f *fakeRuntime) InspectContainer(_ context.Context, id string) (ports.ContainerSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.find(id)
	if c == nil {
		return ports.ContainerSnapshot{}, ports.ErrContainerNotFound
	}
	return *c, nil
}

func (f *fakeRuntime) InspectImage(_ context.Context, ref string) (ports.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	img, ok := f.images[ref]
	if !ok {
		return ports.Image{}, ports.ErrImageNotFound
	}
	return img, nil
}

func (f *fakeRuntime) CreateContainer(_ context.Context, spec ports.ContainerSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	img, ok := f.images[spec.Image]
	if !ok {
		return "", ports.ErrImageNotFound
	}
	f.seq++
	id := fmt.Sprintf("%012x%052d", f.seq, 1)

	portMap := make(map[string][]string, len(spec.PortBindings))
	for containerPort, hostPort := range spec.PortBindings {
		portMap[containerPort] = []string{"0.0.0.0:" + strconv.Itoa(hostPort)}
	}
	mounts := make([]ports.Mount, 0, len(spec.Binds))
	for _, b := range spec.Binds {
		mounts = append(mounts, ports.Mount{Source: b.Source, Destination: b.Target})
	}
	f.containers[id] = &ports.ContainerSnapshot{
		ID:        id,
		Name:      "instance_" + strconv.Itoa(f.seq),
		ImageTags: img.Tags,
		Status:    "created",
		Ports:     portMap,
		Mounts:    mounts,
	}
	f.specs[id] = spec
	return id, nil
}

func (f *fakeRuntime) StartContainer(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.find(id)
	if c == nil {
		return ports.ErrContainerNotFound
	}
	c.Status = f.startStatus
	return nil
}

func (f *fakeRuntime) StopContainer(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.find(id)
	if c == nil {
		return ports.ErrContainerNotFound
	}
	c.Status = "exited"
	return nil
}

func (f *fakeRuntime) RemoveContainer(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.find(id)
	if c == nil {
		return ports.ErrContainerNotFound
	}
	delete(f.containers, c.ID)
	return nil
}

func (f *fakeRuntime) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
