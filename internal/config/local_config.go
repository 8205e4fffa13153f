// Package config wires spf13/viper and spf13/cobra for the
// swh-provenance CLI (see cmd/swh-provenance), and additionally offers a
// direct-file reader for provenance.yaml independent of the viper
// singleton, for tools that run before full config initialization.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalConfig represents the subset of provenance.yaml fields that need
// to be read directly from the file rather than through the viper
// singleton. This is needed when the CWD has changed since config
// initialization, or when checking config before viper is initialized
// (e.g. `gen-test-database`, which has no graph/database to bind flags
// against).
//
// Using proper YAML parsing handles edge cases like comments, indentation,
// and special characters that regex-based parsing would miss.
type LocalConfig struct {
	TableSetDir    string `yaml:"table-set-dir"`
	FooterCacheMB  int    `yaml:"footer-cache-mb"`
	EFCacheMB      int    `yaml:"ef-cache-mb"`
	PageCacheMB    int    `yaml:"page-cache-mb"`
	GCGracePeriod  string `yaml:"gc-grace-period"`
	DefaultWorkers int    `yaml:"default-workers"`
}

// defaultLocalConfig holds the built-in provenance.yaml defaults, so a
// project directory with no provenance.yaml at all still gets sane cache
// sizes.
func defaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		TableSetDir:    "tableset",
		FooterCacheMB:  64,
		EFCacheMB:      256,
		PageCacheMB:    512,
		GCGracePeriod:  "5m",
		DefaultWorkers: 0, // 0 means runtime.NumCPU()
	}
}

// LoadLocalConfig reads and parses provenance.yaml directly from the
// given project directory. This bypasses the viper singleton and reads
// the file directly, which is useful when:
//   - CWD has changed since config initialization
//   - Checking config before viper is initialized
//   - A tool needs config from a different directory than the one viper
//     was initialized with
//
// Returns the defaults (not nil) if the file doesn't exist or can't be
// parsed.
func LoadLocalConfig(projectDir string) *LocalConfig {
	configPath := filepath.Join(projectDir, "provenance.yaml")
	data, err := os.ReadFile(configPath) // #nosec G304 - config file path from projectDir
	if err != nil {
		return defaultLocalConfig()
	}

	cfg := defaultLocalConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return defaultLocalConfig()
	}

	return cfg
}

// LoadLocalConfigWithEnv reads provenance.yaml and applies environment
// variable overrides. Environment variables take precedence over config
// file values.
//
// Supported environment variables:
//   - SWH_PROVENANCE_TABLE_SET_DIR: overrides table-set-dir
func LoadLocalConfigWithEnv(projectDir string) *LocalConfig {
	cfg := LoadLocalConfig(projectDir)

	if envDir := os.Getenv("SWH_PROVENANCE_TABLE_SET_DIR"); envDir != "" {
		cfg.TableSetDir = envDir
	}

	return cfg
}

// GetLocalTableSetDir reads table-set-dir from the local provenance.yaml
// file, honoring the SWH_PROVENANCE_TABLE_SET_DIR override.
func GetLocalTableSetDir(projectDir string) string {
	return LoadLocalConfigWithEnv(projectDir).TableSetDir
}
