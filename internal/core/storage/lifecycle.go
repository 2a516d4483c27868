package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/melih/lighthouse-storage/internal/core/domain"
	"github.com/melih/lighthouse-storage/internal/core/ports"
)

// volumeMode leaves volume directories writable by whatever uid the engine image runs as.
const volumeMode = 0o777

// Options configures one engine manager.
type Options struct {
	// ImageTag selects the image containers are created from and is the
	// ownership filter for every read and delete.
	ImageTag    string
	HostIP      string
	VolumeRoot  string
	SettleDelay time.Duration
}

// lifecycle implements the operations shared by every engine: list, get and
// remove filtered by image tag, plus the create/start/verify sequence.
// runtime is nil when the container runtime was unreachable at construction.
type lifecycle struct {
	engine  domain.Engine
	opts    Options
	runtime ports.ContainerRuntime
	alloc   *Allocator
	sleep   func(time.Duration)
	logger  *log.Logger
}

func newLifecycle(engine domain.Engine, runtime ports.ContainerRuntime, opts Options, logger *log.Logger) lifecycle {
	if logger == nil {
		logger = log.Default()
	}
	return lifecycle{
		engine:  engine,
		opts:    opts,
		runtime: runtime,
		alloc:   NewAllocator(opts.HostIP, opts.VolumeRoot),
		sleep:   time.Sleep,
		logger:  logger.With("engine", engine),
	}
}

func (l *lifecycle) Engine() domain.Engine { return l.engine }

func (l *lifecycle) ready() error {
	if l.runtime == nil {
		return domain.NewServiceError(domain.ErrRuntimeUnavailable, "container runtime unavailable")
	}
	return nil
}

func runtimeError(op string, err error) error {
	return domain.WrapServiceError(domain.ErrRuntimeUnavailable, "container runtime failed to "+op, err)
}

// List returns every container, stopped ones included, built from this engine's image.
func (l *lifecycle) List(ctx context.Context) ([]domain.ContainerInstance, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	snapshots, err := l.runtime.ListContainers(ctx)
	if err != nil {
		return nil, runtimeError("list containers", err)
	}

	instances := make([]domain.ContainerInstance, 0, len(snapshots))
	for _, s := range snapshots {
		if !l.owns(s) {
			continue
		}
		instances = append(instances, toInstance(s))
	}
	return instances, nil
}

func (l *lifecycle) Get(ctx context.Context, id string) (domain.ContainerInstance, error) {
	s, err := l.get(ctx, id)
	if err != nil {
		return domain.ContainerInstance{}, err
	}
	return toInstance(s), nil
}

func (l *lifecycle) get(ctx context.Context, id string) (ports.ContainerSnapshot, error) {
	if err := l.ready(); err != nil {
		return ports.ContainerSnapshot{}, err
	}
	s, err := l.runtime.InspectContainer(ctx, id)
	if errors.Is(err, ports.ErrContainerNotFound) {
		return ports.ContainerSnapshot{}, domain.NewServiceError(domain.ErrNotFound,
			fmt.Sprintf("container instance %s not found", id))
	}
	if err != nil {
		return ports.ContainerSnapshot{}, runtimeError("inspect container", err)
	}
	if !l.owns(s) {
		return ports.ContainerSnapshot{}, domain.NewServiceError(domain.ErrOwnershipMismatch,
			fmt.Sprintf("container instance %s is not a %s instance", id, l.engine))
	}
	return s, nil
}

func (l *lifecycle) owns(s ports.ContainerSnapshot) bool {
	return slices.Contains(s.ImageTags, l.opts.ImageTag)
}

// Remove stops and deletes the container. Its volume stays on disk.
func (l *lifecycle) Remove(ctx context.Context, id string) error {
	s, err := l.get(ctx, id)
	if err != nil {
		return err
	}
	if err := l.runtime.StopContainer(ctx, s.ID); err != nil {
		return runtimeError("stop container", err)
	}
	if err := l.runtime.RemoveContainer(ctx, s.ID); err != nil {
		return runtimeError("remove container", err)
	}
	l.logger.Info("removed instance", "id", s.ShortID(), "name", s.Name)
	return nil
}

// mountSource finds the host path bound to destination inside the container.
func (l *lifecycle) mountSource(s ports.ContainerSnapshot, destination string) (string, error) {
	for _, m := range s.Mounts {
		if m.Destination == destination {
			return m.Source, nil
		}
	}
	return "", domain.NewServiceError(domain.ErrConfigMissing,
		fmt.Sprintf("no config file mounted at %s on container instance %s", destination, s.ShortID()))
}

// provisioning records what a Create has left on the host so far.
type provisioning struct {
	volume      string
	containerID string
}

// abandon logs partially created state. Nothing is rolled back.
func (l *lifecycle) abandon(p *provisioning, err error) error {
	if p.volume != "" || p.containerID != "" {
		l.logger.Warn("create failed, leaving partial state behind",
			"volume", p.volume, "container", p.containerID, "err", err)
	}
	return err
}

// makeVolumeDir creates the volume directory itself. A directory that already
// exists belongs to another instance and is never reused.
func makeVolumeDir(volume string) error {
	if err := makeDirs(filepath.Dir(volume)); err != nil {
		return err
	}
	if err := os.Mkdir(volume, volumeMode); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return domain.WrapServiceError(domain.ErrDirectoryAllocationExhausted,
				fmt.Sprintf("volume directory %s is already taken", volume), err)
		}
		return domain.WrapServiceError(domain.ErrPermissionDenied, "failed to create volume directory", err)
	}
	if err := os.Chmod(volume, volumeMode); err != nil {
		return domain.WrapServiceError(domain.ErrPermissionDenied, "failed to create volume directory", err)
	}
	return nil
}

// makeDirs creates each directory with open permissions.
func makeDirs(paths ...string) error {
	for _, p := range paths {
		if err := os.MkdirAll(p, volumeMode); err != nil {
			return domain.WrapServiceError(domain.ErrPermissionDenied, "failed to create volume directory", err)
		}
		// MkdirAll is subject to umask
		if err := os.Chmod(p, volumeMode); err != nil {
			return domain.WrapServiceError(domain.ErrPermissionDenied, "failed to create volume directory", err)
		}
	}
	return nil
}

// launch resolves the image, picks a host port, creates and starts the
// container, waits the settle delay and verifies it left the created state.
func (l *lifecycle) launch(ctx context.Context, p *provisioning, build func(port int) ports.ContainerSpec) (ports.ContainerSnapshot, int, error) {
	if _, err := l.runtime.InspectImage(ctx, l.opts.ImageTag); err != nil {
		if errors.Is(err, ports.ErrImageNotFound) {
			return ports.ContainerSnapshot{}, 0, domain.NewServiceError(domain.ErrImageMissing,
				fmt.Sprintf("image %s not found on host", l.opts.ImageTag))
		}
		return ports.ContainerSnapshot{}, 0, runtimeError("inspect image", err)
	}

	port := l.alloc.PickPort(ctx)
	if err := ctx.Err(); err != nil {
		return ports.ContainerSnapshot{}, 0, err
	}
	if port == 0 {
		return ports.ContainerSnapshot{}, 0, domain.NewServiceError(domain.ErrPortExhausted, "no free port available on host")
	}
	l.logger.Debug("picked host port", "port", port)

	id, err := l.runtime.CreateContainer(ctx, build(port))
	if err != nil {
		return ports.ContainerSnapshot{}, 0, runtimeError("create container", err)
	}
	p.containerID = id
	if err := l.runtime.StartContainer(ctx, id); err != nil {
		return ports.ContainerSnapshot{}, 0, runtimeError("start container", err)
	}

	l.sleep(l.opts.SettleDelay)

	s, err := l.get(ctx, id)
	if err != nil {
		return ports.ContainerSnapshot{}, 0, err
	}
	if domain.ParseStatus(s.Status) == domain.StatusCreated {
		return ports.ContainerSnapshot{}, 0, domain.NewServiceError(domain.ErrStartupFailed,
			fmt.Sprintf("container instance %s failed to start", s.ShortID()))
	}
	return s, port, nil
}

func toInstance(s ports.ContainerSnapshot) domain.ContainerInstance {
	return domain.ContainerInstance{
		ID:     s.ShortID(),
		Name:   s.Name,
		Ports:  s.Ports,
		Status: domain.ParseStatus(s.Status),
	}
}
