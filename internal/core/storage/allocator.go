package storage

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/melih/lighthouse-storage/internal/core/domain"
)

const (
	portMin          = 10000
	portMax          = 60000
	portAttempts     = 10
	volumeAttempts   = 3
	volumeNameLength = 6
	volumeAlphabet   = "0123456789abcdef"

	passwordPerClass = 3
)

var passwordClasses = []string{
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ",
	"abcdefghijklmnopqrstuvwxyz",
	"0123456789",
	"!@#$%^&*()<>?[],.",
}

// ProbeFunc reports whether something is already listening on host:port.
type ProbeFunc func(ctx context.Context, host string, port int) bool

// Allocator hands out host ports, volume directories and passwords.
// Nothing is reserved: a port or name is only checked, so two concurrent
// allocations may pick the same value before either is bound.
type Allocator struct {
	hostIP     string
	volumeRoot string
	probe      ProbeFunc
	intN       func(n int) int
	exists     func(path string) bool
	backoff    time.Duration
}

func NewAllocator(hostIP, volumeRoot string) *Allocator {
	return &Allocator{
		hostIP:     hostIP,
		volumeRoot: volumeRoot,
		probe:      DialProbe(time.Second),
		intN:       rand.IntN,
		exists:     pathExists,
		backoff:    time.Millisecond,
	}
}

// DialProbe treats a successful TCP connect as "occupied".
func DialProbe(timeout time.Duration) ProbeFunc {
	return func(ctx context.Context, host string, port int) bool {
		d := net.Dialer{Timeout: timeout}
		conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}
}

var errOccupied = errors.New("occupied")

// PickPort returns a port in [10000, 60000) that nothing answered on,
// or 0 once every attempt found the port occupied. A cancelled ctx also
// yields 0; callers check ctx.Err() to tell the two apart.
func (a *Allocator) PickPort(ctx context.Context) int {
	var port int
	b := retry.WithMaxRetries(portAttempts-1, retry.NewConstant(a.backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		candidate := portMin + a.intN(portMax-portMin)
		if a.probe(ctx, a.hostIP, candidate) {
			return retry.RetryableError(errOccupied)
		}
		port = candidate
		return nil
	})
	if err != nil {
		return 0
	}
	return port
}

// PickVolume returns the path of an unused volume directory for engine.
// The directory itself is not created.
func (a *Allocator) PickVolume(ctx context.Context, engine domain.Engine) (string, error) {
	var path string
	b := retry.WithMaxRetries(volumeAttempts-1, retry.NewConstant(a.backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		candidate := filepath.Join(a.volumeRoot, string(engine), a.volumeName())
		if a.exists(candidate) {
			return retry.RetryableError(os.ErrExist)
		}
		path = candidate
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", domain.WrapServiceError(domain.ErrDirectoryAllocationExhausted,
			"failed to allocate volume directory", err)
	}
	return path, nil
}

func (a *Allocator) volumeName() string {
	return string(a.sample(volumeAlphabet, volumeNameLength))
}

// GeneratePassword returns 12 characters holding three of each class.
func (a *Allocator) GeneratePassword() string {
	var chars []byte
	for _, class := range passwordClasses {
		chars = append(chars, a.sample(class, passwordPerClass)...)
	}
	a.shuffle(chars)
	return string(chars)
}

// sample draws k distinct characters from alphabet in random order.
func (a *Allocator) sample(alphabet string, k int) []byte {
	pool := []byte(alphabet)
	for i := 0; i < k; i++ {
		j := i + a.intN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

func (a *Allocator) shuffle(b []byte) {
	for i := len(b) - 1; i > 0; i-- {
		j := a.intN(i + 1)
		b[i], b[j] = b[j], b[i]
	}
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}
