package storage

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melih/lighthouse-storage/internal/core/domain"
	"github.com/melih/lighthouse-storage/internal/core/ports"
)

func testRegistryOptions(t *testing.T) map[domain.Engine]Options {
	return map[domain.Engine]Options{
		domain.EngineMySQL: testOptions(t, testMySQLImage),
		domain.EngineRedis: testOptions(t, testRedisImage),
	}
}

func TestRegistryInitOnce(t *testing.T) {
	var connects atomic.Int32
	rt := newFakeRuntime(testRedisImage)
	r := NewRegistry(testRegistryOptions(t), func() (ports.ContainerRuntime, error) {
		connects.Add(1)
		return rt, nil
	}, quietLogger())

	var wg sync.WaitGroup
	managers := make([]ports.StorageManager, 16)
	for i := range managers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := r.Init(domain.EngineRedis)
			assert.NoError(t, err)
			managers[i] = m
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), connects.Load())
	for _, m := range managers {
		assert.Same(t, managers[0], m)
	}

	got, err := r.Instance(domain.EngineRedis)
	require.NoError(t, err)
	assert.Same(t, managers[0], got)
	assert.Equal(t, domain.EngineRedis, got.Engine())
}

func TestRegistryInstanceBeforeInit(t *testing.T) {
	r := NewRegistry(testRegistryOptions(t), func() (ports.ContainerRuntime, error) {
		return newFakeRuntime(), nil
	}, quietLogger())

	_, err := r.Instance(domain.EngineMySQL)
	require.ErrorIs(t, err, domain.ErrNotInitialized)

	_, err = r.Init(domain.Engine("postgres"))
	require.ErrorIs(t, err, domain.ErrUnknownEngine)
}

func TestRegistryUnreachableRuntime(t *testing.T) {
	r := NewRegistry(testRegistryOptions(t), func() (ports.ContainerRuntime, error) {
		return nil, errors.New("dial unix /var/run/docker.sock: connect: no such file or directory")
	}, quietLogger())
	require.NoError(t, r.InitAll())

	for _, engine := range domain.Engines {
		m, err := r.Instance(engine)
		require.NoError(t, err)
		_, err = m.List(t.Context())
		require.ErrorIs(t, err, domain.ErrRuntimeUnavailable)
	}
	assert.NoError(t, r.Close())
}

func TestRegistryClose(t *testing.T) {
	var runtimes []*fakeRuntime
	r := NewRegistry(testRegistryOptions(t), func() (ports.ContainerRuntime, error) {
		rt := newFakeRuntime()
		runtimes = append(runtimes, rt)
		return rt, nil
	}, quietLogger())
	require.NoError(t, r.InitAll())
	require.Len(t, runtimes, 2)

	require.NoError(t, r.Close())
	for _, rt := range runtimes {
		assert.True(t, rt.closed)
	}
}
