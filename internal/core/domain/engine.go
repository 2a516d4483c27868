package domain

import (
	"fmt"
	"strconv"
)

// Engine identifies a storage engine a manager provisions.
type Engine string

const (
	EngineMySQL Engine = "mysql"
	EngineRedis Engine = "redis"
)

// Engines lists every supported engine in initialization order.
var Engines = []Engine{EngineRedis, EngineMySQL}

func ParseEngine(s string) (Engine, error) {
	switch Engine(s) {
	case EngineMySQL, EngineRedis:
		return Engine(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEngine, s)
}

// Config is the flat request mapping handed to an engine's Create.
type Config map[string]string

// Defaults returns the default request mapping for engine.
func Defaults(engine Engine) Config {
	switch engine {
	case EngineMySQL:
		return MySQLConfig{}.WithDefaults().Values()
	case EngineRedis:
		return RedisConfig{}.WithDefaults().Values()
	}
	return Config{}
}

// WithDefaults returns a copy of c with missing or empty keys taken from
// engine's defaults. c itself is not modified.
func (c Config) WithDefaults(engine Engine) Config {
	out := Defaults(engine)
	for k, v := range c {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// MySQLConfig is the user-tunable part of a MySQL instance.
type MySQLConfig struct {
	Charset      string `json:"charset"`
	BinlogFormat string `json:"binlog_format"`
}

// WithDefaults fills unset fields.
func (c MySQLConfig) WithDefaults() MySQLConfig {
	if c.Charset == "" {
		c.Charset = "utf8mb4"
	}
	if c.BinlogFormat == "" {
		c.BinlogFormat = "STATEMENT"
	}
	return c
}

func (c MySQLConfig) Validate() error {
	switch c.Charset {
	case "utf8mb4", "latin1":
	default:
		return NewServiceError(ErrInvalidConfig, fmt.Sprintf("unsupported charset %q", c.Charset))
	}
	switch c.BinlogFormat {
	case "STATEMENT", "ROW", "MIXED":
	default:
		return NewServiceError(ErrInvalidConfig, fmt.Sprintf("unsupported binlog_format %q", c.BinlogFormat))
	}
	return nil
}

func (c MySQLConfig) Values() Config {
	return Config{
		"charset":       c.Charset,
		"binlog_format": c.BinlogFormat,
	}
}

// RedisConfig is the user-tunable part of a Redis instance.
// Pointers distinguish "unset" from an explicit zero.
type RedisConfig struct {
	MaxMemory   *int64 `json:"maxmemory"`
	MaxClients  *int64 `json:"maxclients"`
	AppendFSync string `json:"appendfsync"`
}

func (c RedisConfig) WithDefaults() RedisConfig {
	if c.MaxMemory == nil {
		v := int64(0)
		c.MaxMemory = &v
	}
	if c.MaxClients == nil {
		v := int64(10000)
		c.MaxClients = &v
	}
	if c.AppendFSync == "" {
		c.AppendFSync = "everysec"
	}
	return c
}

func (c RedisConfig) Validate() error {
	if c.MaxMemory != nil && *c.MaxMemory < 0 {
		return NewServiceError(ErrInvalidConfig, "maxmemory must be >= 0")
	}
	if c.MaxClients != nil && *c.MaxClients <= 0 {
		return NewServiceError(ErrInvalidConfig, "maxclients must be > 0")
	}
	switch c.AppendFSync {
	case "always", "everysec", "no":
	default:
		return NewServiceError(ErrInvalidConfig, fmt.Sprintf("unsupported appendfsync %q", c.AppendFSync))
	}
	return nil
}

// Values expects WithDefaults to have been applied.
func (c RedisConfig) Values() Config {
	return Config{
		"maxmemory":   strconv.FormatInt(*c.MaxMemory, 10),
		"maxclients":  strconv.FormatInt(*c.MaxClients, 10),
		"appendfsync": c.AppendFSync,
	}
}
