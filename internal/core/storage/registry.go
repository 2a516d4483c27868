package storage

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"go.uber.org/multierr"

	"github.com/melih/lighthouse-storage/internal/core/domain"
	"github.com/melih/lighthouse-storage/internal/core/ports"
)

// RuntimeFactory opens a container runtime handle.
type RuntimeFactory func() (ports.ContainerRuntime, error)

// Registry owns at most one manager per engine. It is built once at process
// start and handed to request handlers.
type Registry struct {
	mu       sync.Mutex
	options  map[domain.Engine]Options
	connect  RuntimeFactory
	logger   *log.Logger
	managers map[domain.Engine]ports.StorageManager
	runtimes []ports.ContainerRuntime
}

func NewRegistry(options map[domain.Engine]Options, connect RuntimeFactory, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		options:  options,
		connect:  connect,
		logger:   logger,
		managers: make(map[domain.Engine]ports.StorageManager),
	}
}

// Init constructs the manager for engine unless it already exists.
// A runtime that cannot be reached leaves the manager without a handle;
// its operations then fail with domain.ErrRuntimeUnavailable.
func (r *Registry) Init(engine domain.Engine) (ports.StorageManager, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.managers[engine]; ok {
		return m, nil
	}
	opts, ok := r.options[engine]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownEngine, engine)
	}

	runtime, err := r.connect()
	if err != nil {
		r.logger.Error("container runtime unreachable", "engine", engine, "err", err)
		runtime = nil
	} else {
		r.runtimes = append(r.runtimes, runtime)
	}

	var m ports.StorageManager
	switch engine {
	case domain.EngineMySQL:
		m = NewMySQLManager(runtime, opts, r.logger)
	case domain.EngineRedis:
		m = NewRedisManager(runtime, opts, r.logger)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownEngine, engine)
	}
	r.managers[engine] = m
	r.logger.Info("storage manager ready", "engine", engine, "image", opts.ImageTag, "runtime", runtime != nil)
	return m, nil
}

// InitAll initializes a manager for every configured engine.
func (r *Registry) InitAll() error {
	for _, engine := range domain.Engines {
		if _, ok := r.options[engine]; !ok {
			continue
		}
		if _, err := r.Init(engine); err != nil {
			return err
		}
	}
	return nil
}

// Instance returns the manager created by Init.
func (r *Registry) Instance(engine domain.Engine) (ports.StorageManager, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.managers[engine]
	if !ok {
		return nil, domain.NewServiceError(domain.ErrNotInitialized,
			fmt.Sprintf("%s storage manager not initialized", engine))
	}
	return m, nil
}

// Close releases every runtime handle the registry opened.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	for _, rt := range r.runtimes {
		err = multierr.Append(err, rt.Close())
	}
	r.runtimes = nil
	return err
}
