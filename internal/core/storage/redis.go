package storage

import (
	"context"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/melih/lighthouse-storage/internal/core/domain"
	"github.com/melih/lighthouse-storage/internal/core/ports"
)

const redisPort = "6379/tcp"

// RedisManager provisions Redis instances.
type RedisManager struct {
	lifecycle
}

func NewRedisManager(runtime ports.ContainerRuntime, opts Options, logger *log.Logger) *RedisManager {
	return &RedisManager{lifecycle: newLifecycle(domain.EngineRedis, runtime, opts, logger)}
}

// Info reads the live redis.conf from the instance's /opt mount.
func (m *RedisManager) Info(ctx context.Context, id string) (map[string]any, error) {
	s, err := m.get(ctx, id)
	if err != nil {
		return nil, err
	}
	dir, err := m.mountSource(s, redisConfigMount)
	if err != nil {
		return nil, err
	}
	info, err := readRedisConfig(filepath.Join(dir, redisConfigFile))
	if err != nil {
		return nil, domain.WrapServiceError(domain.ErrConfigMissing, "failed to read instance config", err)
	}
	return info, nil
}

// GenerateConfig creates the volume directory and renders redis.conf into it.
// Keys missing from cfg take the engine defaults.
func (m *RedisManager) GenerateConfig(cfg domain.Config, volume string) error {
	if err := makeVolumeDir(volume); err != nil {
		return err
	}
	if err := writeRedisConfig(cfg.WithDefaults(m.engine), volume); err != nil {
		return domain.WrapServiceError(domain.ErrPermissionDenied, "failed to write instance config", err)
	}
	return nil
}

func (m *RedisManager) Create(ctx context.Context, cfg domain.Config) (domain.ContainerInstance, domain.Connection, error) {
	if err := m.ready(); err != nil {
		return domain.ContainerInstance{}, nil, err
	}
	password := m.alloc.GeneratePassword()
	values := cfg.WithDefaults(m.engine)
	values["password"] = password

	var p provisioning
	volume, err := m.alloc.PickVolume(ctx, m.engine)
	if err != nil {
		return domain.ContainerInstance{}, nil, err
	}
	p.volume = volume
	m.logger.Debug("allocated volume", "path", volume)

	if err := m.GenerateConfig(values, volume); err != nil {
		return domain.ContainerInstance{}, nil, m.abandon(&p, err)
	}

	s, port, err := m.launch(ctx, &p, func(port int) ports.ContainerSpec {
		return ports.ContainerSpec{
			Image:        m.opts.ImageTag,
			Cmd:          []string{"redis-server", redisConfigMount + "/" + redisConfigFile},
			PortBindings: map[string]int{redisPort: port},
			Binds:        []ports.Bind{{Source: volume, Target: redisConfigMount}},
			Tty:          true,
			OpenStdin:    true,
		}
	})
	if err != nil {
		return domain.ContainerInstance{}, nil, m.abandon(&p, err)
	}

	instance := toInstance(s)
	m.logger.Info("created instance", "id", instance.ID, "name", instance.Name, "port", port, "volume", volume)
	return instance, domain.RedisConnection{
		Host:     m.opts.HostIP,
		Port:     port,
		Password: password,
	}, nil
}
