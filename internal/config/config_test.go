package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melih/lighthouse-storage/internal/core/domain"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", s.HostIP)
	assert.Equal(t, 3*time.Second, s.SettleDelay)
	assert.Equal(t, "mysql:latest", s.MySQLImage)
	assert.Equal(t, "redis:latest", s.RedisImage)
	assert.Equal(t, ":3000", s.Listen)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("LIGHTHOUSE_DOCKER_HOST_IP", "10.0.0.5")
	t.Setenv("LIGHTHOUSE_STORAGE_SETTLE_DELAY", "500ms")

	s, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", s.HostIP)
	assert.Equal(t, 500*time.Millisecond, s.SettleDelay)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("LIGHTHOUSE_STORAGE_REDIS_IMAGE=redis:7\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("LIGHTHOUSE_STORAGE_REDIS_IMAGE") })

	s, err := Load(New(), envFile)
	require.NoError(t, err)
	assert.Equal(t, "redis:7", s.RedisImage)

	_, err = Load(New(), filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
}

func TestLoadConfigFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "lighthouse.yaml")
	content := "docker:\n  volume_root: /srv/volumes\nstorage:\n  mysql:\n    image: mysql:8.4\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	v := New()
	v.Set(KeyConfigFile, file)
	s, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "/srv/volumes", s.VolumeRoot)

	opts := s.StorageOptions()
	assert.Equal(t, "mysql:8.4", opts[domain.EngineMySQL].ImageTag)
	assert.Equal(t, "redis:latest", opts[domain.EngineRedis].ImageTag)
	assert.Equal(t, "/srv/volumes", opts[domain.EngineRedis].VolumeRoot)
}

func TestValidate(t *testing.T) {
	v := New()
	v.Set(KeySettleDelay, "-1s")
	_, err := Load(v, "")
	require.Error(t, err)
}
