package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadLocalConfig(t *testing.T) {
	tests := []struct {
		name           string
		configYAML     string
		wantTableSet   string
		wantFooterMB   int
		wantGCGrace    string
		wantFileExists bool
	}{
		{
			name:           "no config file uses defaults",
			configYAML:     "",
			wantTableSet:   "tableset",
			wantFooterMB:   64,
			wantGCGrace:    "5m",
			wantFileExists: false,
		},
		{
			name:           "table-set-dir override",
			configYAML:     "table-set-dir: /data/provenance\n",
			wantTableSet:   "/data/provenance",
			wantFooterMB:   64,
			wantGCGrace:    "5m",
			wantFileExists: true,
		},
		{
			name:           "table-set-dir in comment should not match",
			configYAML:     "# table-set-dir: /ignored\nfooter-cache-mb: 128\n",
			wantTableSet:   "tableset",
			wantFooterMB:   128,
			wantGCGrace:    "5m",
			wantFileExists: true,
		},
		{
			name:           "mixed config",
			configYAML:     "table-set-dir: /srv/ts\nfooter-cache-mb: 32\ngc-grace-period: 10m\n",
			wantTableSet:   "/srv/ts",
			wantFooterMB:   32,
			wantGCGrace:    "10m",
			wantFileExists: true,
		},
		{
			name:           "nested keys are not top-level",
			configYAML:     "settings:\n  table-set-dir: nested\n",
			wantTableSet:   "tableset",
			wantFooterMB:   64,
			wantGCGrace:    "5m",
			wantFileExists: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()

			if tt.wantFileExists {
				configPath := filepath.Join(tmpDir, "provenance.yaml")
				if err := os.WriteFile(configPath, []byte(tt.configYAML), 0600); err != nil {
					t.Fatalf("Failed to write provenance.yaml: %v", err)
				}
			}

			cfg := LoadLocalConfig(tmpDir)

			if cfg.TableSetDir != tt.wantTableSet {
				t.Errorf("TableSetDir = %q, want %q", cfg.TableSetDir, tt.wantTableSet)
			}
			if cfg.FooterCacheMB != tt.wantFooterMB {
				t.Errorf("FooterCacheMB = %d, want %d", cfg.FooterCacheMB, tt.wantFooterMB)
			}
			if cfg.GCGracePeriod != tt.wantGCGrace {
				t.Errorf("GCGracePeriod = %q, want %q", cfg.GCGracePeriod, tt.wantGCGrace)
			}
		})
	}
}

func TestLoadLocalConfigWithEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configYAML := "table-set-dir: /from/config\n"
	configPath := filepath.Join(tmpDir, "provenance.yaml")
	if err := os.WriteFile(configPath, []byte(configYAML), 0600); err != nil {
		t.Fatalf("Failed to write provenance.yaml: %v", err)
	}

	t.Run("env var overrides config file", func(t *testing.T) {
		os.Setenv("SWH_PROVENANCE_TABLE_SET_DIR", "/from/env")
		defer os.Unsetenv("SWH_PROVENANCE_TABLE_SET_DIR")

		cfg := LoadLocalConfigWithEnv(tmpDir)
		if cfg.TableSetDir != "/from/env" {
			t.Errorf("TableSetDir = %q, want %q (env var should override)", cfg.TableSetDir, "/from/env")
		}
	})

	t.Run("no env var uses config file", func(t *testing.T) {
		os.Unsetenv("SWH_PROVENANCE_TABLE_SET_DIR")

		cfg := LoadLocalConfigWithEnv(tmpDir)
		if cfg.TableSetDir != "/from/config" {
			t.Errorf("TableSetDir = %q, want %q", cfg.TableSetDir, "/from/config")
		}
	})
}

func TestGetLocalTableSetDir(t *testing.T) {
	t.Run("returns table-set-dir from config", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "provenance.yaml")
		if err := os.WriteFile(configPath, []byte("table-set-dir: /srv/ts\n"), 0600); err != nil {
			t.Fatalf("Failed to write provenance.yaml: %v", err)
		}

		dir := GetLocalTableSetDir(tmpDir)
		if dir != "/srv/ts" {
			t.Errorf("GetLocalTableSetDir() = %q, want %q", dir, "/srv/ts")
		}
	})

	t.Run("env var takes precedence", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "provenance.yaml")
		if err := os.WriteFile(configPath, []byte("table-set-dir: /srv/ts\n"), 0600); err != nil {
			t.Fatalf("Failed to write provenance.yaml: %v", err)
		}

		os.Setenv("SWH_PROVENANCE_TABLE_SET_DIR", "/env/ts")
		defer os.Unsetenv("SWH_PROVENANCE_TABLE_SET_DIR")

		dir := GetLocalTableSetDir(tmpDir)
		if dir != "/env/ts" {
			t.Errorf("GetLocalTableSetDir() = %q, want %q (env var should take precedence)", dir, "/env/ts")
		}
	})
}
