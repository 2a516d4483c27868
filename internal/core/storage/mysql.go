package storage

import (
	"context"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/melih/lighthouse-storage/internal/core/domain"
	"github.com/melih/lighthouse-storage/internal/core/ports"
)

const (
	mysqlPort     = "3306/tcp"
	mysqlUsername = "root"
	mysqlDataDir  = "data"
	mysqlLogDir   = "logbin"
)

// MySQLManager provisions MySQL instances.
type MySQLManager struct {
	lifecycle
}

func NewMySQLManager(runtime ports.ContainerRuntime, opts Options, logger *log.Logger) *MySQLManager {
	return &MySQLManager{lifecycle: newLifecycle(domain.EngineMySQL, runtime, opts, logger)}
}

// Info returns the my.cnf mounted into the instance as section -> key -> value.
func (m *MySQLManager) Info(ctx context.Context, id string) (map[string]any, error) {
	s, err := m.get(ctx, id)
	if err != nil {
		return nil, err
	}
	path, err := m.mountSource(s, mysqlConfigMount)
	if err != nil {
		return nil, err
	}
	info, err := readMySQLConfig(path)
	if err != nil {
		return nil, domain.WrapServiceError(domain.ErrConfigMissing, "failed to read instance config", err)
	}
	return info, nil
}

// GenerateConfig creates the volume directory and writes my.cnf into it.
// Keys missing from cfg take the engine defaults.
func (m *MySQLManager) GenerateConfig(cfg domain.Config, volume string) error {
	if err := makeVolumeDir(volume); err != nil {
		return err
	}
	if err := writeMySQLConfig(cfg.WithDefaults(m.engine), volume); err != nil {
		return domain.WrapServiceError(domain.ErrPermissionDenied, "failed to write instance config", err)
	}
	return nil
}

func (m *MySQLManager) Create(ctx context.Context, cfg domain.Config) (domain.ContainerInstance, domain.Connection, error) {
	if err := m.ready(); err != nil {
		return domain.ContainerInstance{}, nil, err
	}
	password := m.alloc.GeneratePassword()

	var p provisioning
	volume, err := m.alloc.PickVolume(ctx, m.engine)
	if err != nil {
		return domain.ContainerInstance{}, nil, err
	}
	p.volume = volume
	m.logger.Debug("allocated volume", "path", volume)

	if err := m.GenerateConfig(cfg, volume); err != nil {
		return domain.ContainerInstance{}, nil, m.abandon(&p, err)
	}
	dataDir := filepath.Join(volume, mysqlDataDir)
	logDir := filepath.Join(volume, mysqlLogDir)
	if err := makeDirs(dataDir, logDir); err != nil {
		return domain.ContainerInstance{}, nil, m.abandon(&p, err)
	}

	s, port, err := m.launch(ctx, &p, func(port int) ports.ContainerSpec {
		return ports.ContainerSpec{
			Image:        m.opts.ImageTag,
			Env:          []string{"MYSQL_ROOT_PASSWORD=" + password},
			PortBindings: map[string]int{mysqlPort: port},
			Binds: []ports.Bind{
				{Source: filepath.Join(volume, mysqlConfigFile), Target: mysqlConfigMount, ReadOnly: true},
				{Source: dataDir, Target: "/mysql/data"},
				{Source: logDir, Target: "/mysql/logbin"},
			},
			Tty:       true,
			OpenStdin: true,
		}
	})
	if err != nil {
		return domain.ContainerInstance{}, nil, m.abandon(&p, err)
	}

	instance := toInstance(s)
	m.logger.Info("created instance", "id", instance.ID, "name", instance.Name, "port", port, "volume", volume)
	return instance, domain.MySQLConnection{
		Host:     m.opts.HostIP,
		Port:     port,
		Username: mysqlUsername,
		Password: password,
	}, nil
}
