package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/melih/lighthouse-storage/internal/core/domain"
)

const (
	mysqlConfigFile  = "my.cnf"
	mysqlConfigMount = "/etc/mysql/my.cnf"
	mysqlSection     = "mysqld"
)

var iniOptions = ini.LoadOptions{
	AllowBooleanKeys: true,
	// quoted values come back verbatim; readMySQLConfig trims them
	PreserveSurroundedQuote: true,
}

// writeMySQLConfig merges cfg into the base template and writes my.cnf into volume.
func writeMySQLConfig(cfg domain.Config, volume string) error {
	base, err := templates.ReadFile("templates/" + mysqlConfigFile)
	if err != nil {
		return fmt.Errorf("failed to read my.cnf template: %w", err)
	}
	file, err := ini.LoadSources(iniOptions, base)
	if err != nil {
		return fmt.Errorf("failed to parse my.cnf template: %w", err)
	}

	section := file.Section(mysqlSection)
	section.Key("character-set-server").SetValue(cfg["charset"])
	section.Key("binlog_format").SetValue(cfg["binlog_format"])

	if err := file.SaveTo(filepath.Join(volume, mysqlConfigFile)); err != nil {
		return fmt.Errorf("failed to write my.cnf: %w", err)
	}
	return nil
}

// readMySQLConfig parses an INI file into section -> key -> value.
func readMySQLConfig(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	file, err := ini.LoadSources(iniOptions, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	info := make(map[string]any)
	for _, section := range file.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		values := make(map[string]string, len(section.Keys()))
		for _, key := range section.Keys() {
			values[key.Name()] = trimQuotes(key.Value())
		}
		info[section.Name()] = values
	}
	return info, nil
}

func trimQuotes(s string) string {
	return strings.Trim(strings.Trim(s, "'"), `"`)
}
