package ports

import (
	"context"

	"github.com/melih/lighthouse-storage/internal/core/domain"
)

// StorageManager is the capability set every storage engine implements.
// All errors returned are *domain.ServiceError.
type StorageManager interface {
	Engine() domain.Engine
	List(ctx context.Context) ([]domain.ContainerInstance, error)
	Get(ctx context.Context, id string) (domain.ContainerInstance, error)
	// Info returns the live configuration mounted into the instance.
	Info(ctx context.Context, id string) (map[string]any, error)
	Create(ctx context.Context, cfg domain.Config) (domain.ContainerInstance, domain.Connection, error)
	Remove(ctx context.Context, id string) error
}

// ManagerRegistry hands out the initialized manager for an engine.
type ManagerRegistry interface {
	Instance(engine domain.Engine) (StorageManager, error)
}
