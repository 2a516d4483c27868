package http

import (
	"errors"
	"regexp"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"

	"github.com/melih/lighthouse-storage/internal/core/domain"
	"github.com/melih/lighthouse-storage/internal/core/ports"
)

var instanceIDPattern = regexp.MustCompile(`^[0-9a-f]{12}$`)

// Response is the envelope every storage endpoint answers with.
type Response struct {
	Err  int    `json:"err"`
	Msg  string `json:"msg,omitempty"`
	Data any    `json:"data,omitempty"`
}

type StorageHandler struct {
	registry ports.ManagerRegistry
	logger   *log.Logger
}

func NewStorageHandler(registry ports.ManagerRegistry, logger *log.Logger) *StorageHandler {
	return &StorageHandler{registry: registry, logger: logger}
}

// Register mounts the instance routes under router, e.g. /api/storage/:engine.
func (h *StorageHandler) Register(router fiber.Router) {
	instances := router.Group("/:engine/instances")
	instances.Get("/", h.ListInstances)
	instances.Post("/", h.CreateInstance)
	instances.Get("/:id", h.GetInstance)
	instances.Get("/:id/config", h.GetInstanceConfig)
	instances.Delete("/:id", h.RemoveInstance)
}

func (h *StorageHandler) manager(c *fiber.Ctx) (ports.StorageManager, error) {
	engine, err := domain.ParseEngine(c.Params("engine"))
	if err != nil {
		return nil, err
	}
	return h.registry.Instance(engine)
}

func instanceID(c *fiber.Ctx) (string, error) {
	id := c.Params("id")
	if !instanceIDPattern.MatchString(id) {
		return "", fiber.NewError(fiber.StatusUnprocessableEntity, "instance id must be 12 lowercase hex characters")
	}
	return id, nil
}

func (h *StorageHandler) ListInstances(c *fiber.Ctx) error {
	m, err := h.manager(c)
	if err != nil {
		return h.fail(c, err)
	}
	instances, err := m.List(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(Response{Data: fiber.Map{
		"total":     len(instances),
		"instances": instances,
	}})
}

func (h *StorageHandler) GetInstance(c *fiber.Ctx) error {
	m, err := h.manager(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := instanceID(c)
	if err != nil {
		return h.fail(c, err)
	}
	instance, err := m.Get(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(Response{Data: instance})
}

func (h *StorageHandler) GetInstanceConfig(c *fiber.Ctx) error {
	m, err := h.manager(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := instanceID(c)
	if err != nil {
		return h.fail(c, err)
	}
	info, err := m.Info(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(Response{Data: info})
}

func (h *StorageHandler) CreateInstance(c *fiber.Ctx) error {
	m, err := h.manager(c)
	if err != nil {
		return h.fail(c, err)
	}
	cfg, err := parseConfig(c, m.Engine())
	if err != nil {
		return h.fail(c, err)
	}

	// Note: this blocks for the manager's settle delay.
	instance, connection, err := m.Create(c.UserContext(), cfg)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(Response{Msg: "created", Data: fiber.Map{
		"instance":   instance,
		"connection": connection,
	}})
}

func (h *StorageHandler) RemoveInstance(c *fiber.Ctx) error {
	m, err := h.manager(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := instanceID(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := m.Remove(c.UserContext(), id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(Response{Msg: "removed"})
}

// parseConfig decodes and validates the engine-specific request body.
// An empty body means all defaults.
func parseConfig(c *fiber.Ctx, engine domain.Engine) (domain.Config, error) {
	body := len(c.Body()) > 0
	invalid := func(err error) error {
		return domain.WrapServiceError(domain.ErrInvalidConfig, "invalid request body", err)
	}

	switch engine {
	case domain.EngineMySQL:
		var req domain.MySQLConfig
		if body {
			if err := c.BodyParser(&req); err != nil {
				return nil, invalid(err)
			}
		}
		req = req.WithDefaults()
		if err := req.Validate(); err != nil {
			return nil, err
		}
		return req.Values(), nil
	case domain.EngineRedis:
		var req domain.RedisConfig
		if body {
			if err := c.BodyParser(&req); err != nil {
				return nil, invalid(err)
			}
		}
		req = req.WithDefaults()
		if err := req.Validate(); err != nil {
			return nil, err
		}
		return req.Values(), nil
	}
	return nil, domain.ErrUnknownEngine
}

func (h *StorageHandler) fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		h.logger.Error("storage request failed", "method", c.Method(), "path", c.Path(), "err", err)
	}
	return c.Status(status).JSON(Response{Err: 1, Msg: err.Error()})
}

func statusFor(err error) int {
	var ferr *fiber.Error
	switch {
	case errors.As(err, &ferr):
		return ferr.Code
	case errors.Is(err, domain.ErrUnknownEngine),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrOwnershipMismatch):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidConfig):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrRuntimeUnavailable),
		errors.Is(err, domain.ErrNotInitialized):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
