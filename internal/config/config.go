// Package config loads lighthouse settings from flags, environment, an
// optional .env file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/melih/lighthouse-storage/internal/core/domain"
	"github.com/melih/lighthouse-storage/internal/core/storage"
)

const EnvPrefix = "LIGHTHOUSE"

// Viper keys.
const (
	KeyDockerHost       = "docker.host"
	KeyDockerHostIP     = "docker.host_ip"
	KeyDockerVolumeRoot = "docker.volume_root"
	KeySettleDelay      = "storage.settle_delay"
	KeyMySQLImage       = "storage.mysql.image"
	KeyRedisImage       = "storage.redis.image"
	KeyHTTPListen       = "http.listen"
	KeyLogLevel         = "log.level"
	KeyConfigFile       = "config"
)

var defaults = map[string]any{
	KeyDockerHost:       "",
	KeyDockerHostIP:     "127.0.0.1",
	KeyDockerVolumeRoot: "/var/lib/lighthouse/volumes",
	KeySettleDelay:      3 * time.Second,
	KeyMySQLImage:       "mysql:latest",
	KeyRedisImage:       "redis:latest",
	KeyHTTPListen:       ":3000",
	KeyLogLevel:         "info",
}

type Settings struct {
	DockerHost  string
	HostIP      string
	VolumeRoot  string
	SettleDelay time.Duration
	MySQLImage  string
	RedisImage  string
	Listen      string
	LogLevel    string
}

// New returns a viper instance with defaults and LIGHTHOUSE_* env binding.
// docker.host_ip is read from LIGHTHOUSE_DOCKER_HOST_IP.
func New() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads envFile (if present) into the process environment, then the
// config file named by the "config" key, and returns the resolved settings.
func Load(v *viper.Viper, envFile string) (Settings, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	if file := v.GetString(KeyConfigFile); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	s := Settings{
		DockerHost:  v.GetString(KeyDockerHost),
		HostIP:      v.GetString(KeyDockerHostIP),
		VolumeRoot:  v.GetString(KeyDockerVolumeRoot),
		SettleDelay: v.GetDuration(KeySettleDelay),
		MySQLImage:  v.GetString(KeyMySQLImage),
		RedisImage:  v.GetString(KeyRedisImage),
		Listen:      v.GetString(KeyHTTPListen),
		LogLevel:    v.GetString(KeyLogLevel),
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) Validate() error {
	switch {
	case s.HostIP == "":
		return fmt.Errorf("%s must be set", KeyDockerHostIP)
	case s.VolumeRoot == "":
		return fmt.Errorf("%s must be set", KeyDockerVolumeRoot)
	case s.SettleDelay < 0:
		return fmt.Errorf("%s must not be negative", KeySettleDelay)
	case s.MySQLImage == "" || s.RedisImage == "":
		return errors.New("storage engine images must be set")
	}
	return nil
}

// StorageOptions returns per-engine manager options.
func (s Settings) StorageOptions() map[domain.Engine]storage.Options {
	base := storage.Options{
		HostIP:      s.HostIP,
		VolumeRoot:  s.VolumeRoot,
		SettleDelay: s.SettleDelay,
	}
	mysql, redis := base, base
	mysql.ImageTag = s.MySQLImage
	redis.ImageTag = s.RedisImage
	return map[domain.Engine]storage.Options{
		domain.EngineMySQL: mysql,
		domain.EngineRedis: redis,
	}
}
