package storage

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/melih/lighthouse-storage/internal/core/domain"
)

const (
	redisConfigFile  = "redis.conf"
	redisConfigMount = "/opt"
)

var redisTemplate = template.Must(
	template.New(redisConfigFile).Option("missingkey=zero").ParseFS(templates, "templates/"+redisConfigFile),
)

// writeRedisConfig renders the whole request mapping into redis.conf.
func writeRedisConfig(cfg domain.Config, volume string) error {
	var buf bytes.Buffer
	if err := redisTemplate.Execute(&buf, map[string]string(cfg)); err != nil {
		return fmt.Errorf("failed to render redis.conf: %w", err)
	}
	if err := os.WriteFile(filepath.Join(volume, redisConfigFile), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write redis.conf: %w", err)
	}
	return nil
}

// readRedisConfig parses "key value..." lines, skipping blanks and comments.
// Repeated keys (save) keep the last value.
func readRedisConfig(path string) (map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer f.Close()

	info := make(map[string]any)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		info[fields[0]] = trimQuotes(strings.Join(fields[1:], " "))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return info, nil
}
