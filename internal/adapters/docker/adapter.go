package docker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/go-connections/nat"

	"github.com/melih/lighthouse-storage/internal/core/ports"
)

// stopTimeout bounds how long a stop waits before the daemon kills the container.
const stopTimeout = 10 * time.Second

// Adapter implements ports.ContainerRuntime using the Docker SDK
type Adapter struct {
	cli *client.Client
}

// NewAdapter connects to the Docker daemon at host, or the environment's
// DOCKER_HOST when host is empty, and pings it.
func NewAdapter(ctx context.Context, host string) (*Adapter, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	if _, err := cli.Ping(ctx); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("failed to reach docker daemon: %w", err)
	}
	return &Adapter{cli: cli}, nil
}

// ListContainers returns every container, stopped ones included.
// Docker's list view lacks mounts and port maps, so each one is inspected.
func (a *Adapter) ListContainers(ctx context.Context) ([]ports.ContainerSnapshot, error) {
	containers, err := a.cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	tags := make(map[string][]string)
	result := make([]ports.ContainerSnapshot, 0, len(containers))
	for _, c := range containers {
		info, err := a.cli.ContainerInspect(ctx, c.ID)
		if errdefs.IsNotFound(err) {
			// removed between list and inspect
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to inspect container %s: %w", c.ID, err)
		}
		imageTags, err := a.imageTags(ctx, tags, info.Image)
		if err != nil {
			return nil, err
		}
		result = append(result, snapshot(info, imageTags))
	}
	return result, nil
}

func (a *Adapter) InspectContainer(ctx context.Context, id string) (ports.ContainerSnapshot, error) {
	info, err := a.cli.ContainerInspect(ctx, id)
	if errdefs.IsNotFound(err) {
		return ports.ContainerSnapshot{}, fmt.Errorf("%w: %s", ports.ErrContainerNotFound, id)
	}
	if err != nil {
		return ports.ContainerSnapshot{}, fmt.Errorf("failed to inspect container %s: %w", id, err)
	}
	imageTags, err := a.imageTags(ctx, nil, info.Image)
	if err != nil {
		return ports.ContainerSnapshot{}, err
	}
	return snapshot(info, imageTags), nil
}

// imageTags resolves an image ID to its repo tags, memoizing into cache when given.
// An image deleted from under its containers has no tags.
func (a *Adapter) imageTags(ctx context.Context, cache map[string][]string, imageID string) ([]string, error) {
	if tags, ok := cache[imageID]; ok {
		return tags, nil
	}
	img, err := a.InspectImage(ctx, imageID)
	if err != nil && !errors.Is(err, ports.ErrImageNotFound) {
		return nil, err
	}
	if cache != nil {
		cache[imageID] = img.Tags
	}
	return img.Tags, nil
}

func (a *Adapter) InspectImage(ctx context.Context, ref string) (ports.Image, error) {
	img, _, err := a.cli.ImageInspectWithRaw(ctx, ref)
	if errdefs.IsNotFound(err) {
		return ports.Image{}, fmt.Errorf("%w: %s", ports.ErrImageNotFound, ref)
	}
	if err != nil {
		return ports.Image{}, fmt.Errorf("failed to inspect image %s: %w", ref, err)
	}
	return ports.Image{ID: img.ID, Tags: img.RepoTags}, nil
}

// CreateContainer creates a container from spec without starting it.
func (a *Adapter) CreateContainer(ctx context.Context, spec ports.ContainerSpec) (string, error) {
	config, hostConfig, err := containerConfig(spec)
	if err != nil {
		return "", err
	}
	resp, err := a.cli.ContainerCreate(ctx, config, hostConfig, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("failed to create container: %w", err)
	}
	return resp.ID, nil
}

func (a *Adapter) StartContainer(ctx context.Context, id string) error {
	if err := a.cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}
	return nil
}

// StopContainer stops a running container
func (a *Adapter) StopContainer(ctx context.Context, id string) error {
	timeout := int(stopTimeout.Seconds())
	if err := a.cli.ContainerStop(ctx, id, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("failed to stop container: %w", err)
	}
	return nil
}

func (a *Adapter) RemoveContainer(ctx context.Context, id string) error {
	if err := a.cli.ContainerRemove(ctx, id, container.RemoveOptions{}); err != nil {
		return fmt.Errorf("failed to remove container: %w", err)
	}
	return nil
}

func (a *Adapter) Close() error {
	return a.cli.Close()
}

func containerConfig(spec ports.ContainerSpec) (*container.Config, *container.HostConfig, error) {
	exposed := make(nat.PortSet, len(spec.PortBindings))
	bindings := make(nat.PortMap, len(spec.PortBindings))
	for containerPort, hostPort := range spec.PortBindings {
		proto, port := nat.SplitProtoPort(containerPort)
		p, err := nat.NewPort(proto, port)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid container port %q: %w", containerPort, err)
		}
		exposed[p] = struct{}{}
		bindings[p] = []nat.PortBinding{{HostPort: strconv.Itoa(hostPort)}}
	}

	binds := make([]string, 0, len(spec.Binds))
	for _, b := range spec.Binds {
		mode := "rw"
		if b.ReadOnly {
			mode = "ro"
		}
		binds = append(binds, b.Source+":"+b.Target+":"+mode)
	}

	config := &container.Config{
		Image:        spec.Image,
		Cmd:          spec.Cmd,
		Env:          spec.Env,
		ExposedPorts: exposed,
		Tty:          spec.Tty,
		OpenStdin:    spec.OpenStdin,
	}
	hostConfig := &container.HostConfig{
		Binds:        binds,
		PortBindings: bindings,
	}
	return config, hostConfig, nil
}

func snapshot(info types.ContainerJSON, imageTags []string) ports.ContainerSnapshot {
	s := ports.ContainerSnapshot{
		ImageTags: imageTags,
		Ports:     map[string][]string{},
	}
	if info.ContainerJSONBase != nil {
		s.ID = info.ID
		s.Name = strings.TrimPrefix(info.Name, "/")
		if info.State != nil {
			s.Status = info.State.Status
		}
	}
	for _, m := range info.Mounts {
		s.Mounts = append(s.Mounts, ports.Mount{Source: m.Source, Destination: m.Destination})
	}
	if info.NetworkSettings != nil {
		s.Ports = portMap(info.NetworkSettings.Ports)
	}
	return s
}

// portMap renders bindings as "hostIP:hostPort"; unpublished ports map to nil.
func portMap(pm nat.PortMap) map[string][]string {
	out := make(map[string][]string, len(pm))
	for port, bindings := range pm {
		if bindings == nil {
			out[string(port)] = nil
			continue
		}
		addrs := make([]string, 0, len(bindings))
		for _, b := range bindings {
			addrs = append(addrs, net.JoinHostPort(b.HostIP, b.HostPort))
		}
		out[string(port)] = addrs
	}
	return out
}
