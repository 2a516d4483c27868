package docker

import (
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melih/lighthouse-storage/internal/core/ports"
)

func TestContainerConfig(t *testing.T) {
	spec := ports.ContainerSpec{
		Image:        "mysql:latest",
		Env:          []string{"MYSQL_ROOT_PASSWORD=secret"},
		PortBindings: map[string]int{"3306/tcp": 12345},
		Binds: []ports.Bind{
			{Source: "/v/mysql/abc123/my.cnf", Target: "/etc/mysql/my.cnf", ReadOnly: true},
			{Source: "/v/mysql/abc123/data", Target: "/mysql/data"},
		},
		Tty:       true,
		OpenStdin: true,
	}

	config, hostConfig, err := containerConfig(spec)
	require.NoError(t, err)

	assert.Equal(t, "mysql:latest", config.Image)
	assert.Equal(t, []string{"MYSQL_ROOT_PASSWORD=secret"}, config.Env)
	assert.True(t, config.Tty)
	assert.True(t, config.OpenStdin)
	assert.Contains(t, config.ExposedPorts, nat.Port("3306/tcp"))

	assert.Equal(t, []string{
		"/v/mysql/abc123/my.cnf:/etc/mysql/my.cnf:ro",
		"/v/mysql/abc123/data:/mysql/data:rw",
	}, hostConfig.Binds)
	assert.Equal(t, []nat.PortBinding{{HostPort: "12345"}}, hostConfig.PortBindings[nat.Port("3306/tcp")])
}

func TestContainerConfigInvalidPort(t *testing.T) {
	_, _, err := containerConfig(ports.ContainerSpec{PortBindings: map[string]int{"redis/tcp": 1}})
	require.Error(t, err)
}

func TestSnapshot(t *testing.T) {
	info := types.ContainerJSON{
		ContainerJSONBase: &types.ContainerJSONBase{
			ID:    "0123456789abcdef0123456789abcdef",
			Name:  "/happy_redis",
			Image: "sha256:feed",
			State: &types.ContainerState{Status: "running"},
		},
		Mounts: []types.MountPoint{{Source: "/v/redis/abc123", Destination: "/opt"}},
		NetworkSettings: &types.NetworkSettings{
			NetworkSettingsBase: types.NetworkSettingsBase{
				Ports: nat.PortMap{
					"6379/tcp": {{HostIP: "0.0.0.0", HostPort: "20001"}, {HostIP: "::", HostPort: "20001"}},
					"6380/tcp": nil,
				},
			},
		},
		Config: &container.Config{Image: "redis:latest"},
	}

	s := snapshot(info, []string{"redis:latest"})
	assert.Equal(t, "0123456789ab", s.ShortID())
	assert.Equal(t, "happy_redis", s.Name)
	assert.Equal(t, "running", s.Status)
	assert.Equal(t, []string{"redis:latest"}, s.ImageTags)
	assert.Equal(t, []ports.Mount{{Source: "/v/redis/abc123", Destination: "/opt"}}, s.Mounts)
	assert.Equal(t, []string{"0.0.0.0:20001", "[::]:20001"}, s.Ports["6379/tcp"])
	v, ok := s.Ports["6380/tcp"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestSnapshotPartial(t *testing.T) {
	s := snapshot(types.ContainerJSON{}, nil)
	assert.Empty(t, s.ID)
	assert.NotNil(t, s.Ports)
}
