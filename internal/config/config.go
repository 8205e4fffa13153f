package config

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the runtime configuration shared by every swh-provenance
// subcommand: graph/database locations, cache sizing, and server bind
// address. Values are resolved in flag > environment > provenance.yaml >
// built-in default order, the same precedence cobra+viper give the
// teacher's persistent flags.
type Config struct {
	GraphPath string
	DBURL     string
	Workers   int
	Bind      string

	TableSetDir   string
	FooterCacheMB int
	EFCacheMB     int
	PageCacheMB   int
	GCGracePeriod time.Duration
}

// EnvPrefix is the prefix viper uses for environment overrides, producing
// SWH_PROVENANCE_GRAPH_PATH, SWH_PROVENANCE_DB_URL, SWH_PROVENANCE_WORKERS,
// SWH_PROVENANCE_BIND (spec §6.5).
const EnvPrefix = "SWH_PROVENANCE"

// BindPersistentFlags registers the flags shared by every subcommand onto
// cmd's persistent flag set and binds each one into v, mirroring the way
// cmd/bd/main.go registers its PersistentFlags on rootCmd, generalized
// here to route through a single viper instance instead of package
// globals so env-var and config-file overrides compose for free.
func BindPersistentFlags(cmd *cobra.Command, v *viper.Viper) error {
	flags := cmd.PersistentFlags()
	flags.String("graph", "", "Path to the graph collaborator's local dataset")
	flags.String("database", "", "Table-set directory or connection URL to query")
	flags.Int("workers", 0, "Worker pool size (0 = runtime.NumCPU())")
	flags.String("bind", "127.0.0.1:9871", "gRPC listen address for 'grpc-serve'")

	for _, name := range []string{"graph", "database", "workers", "bind"} {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}

// NewViper constructs the viper instance used across the CLI: env
// overrides under EnvPrefix, dashes in flag names translated to
// underscores in env var names (the same translation viper applies by
// default), and provenance.yaml consulted as a config file when present
// in the working directory.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// AutomaticEnv alone would read SWH_PROVENANCE_GRAPH and
	// SWH_PROVENANCE_DATABASE; bind the documented names explicitly.
	_ = v.BindEnv("graph", EnvPrefix+"_GRAPH_PATH")
	_ = v.BindEnv("database", EnvPrefix+"_DB_URL")

	v.SetConfigName("provenance")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // absence is not an error; defaults/flags/env still apply

	return v
}

// Load resolves a Config from v plus the project-local provenance.yaml
// (read directly, independent of the viper singleton, the way
// LoadLocalConfig serves callers that run before full config
// initialization).
func Load(v *viper.Viper, projectDir string) (*Config, error) {
	local := LoadLocalConfig(projectDir)

	gcGrace, err := time.ParseDuration(local.GCGracePeriod)
	if err != nil {
		gcGrace = 5 * time.Minute
	}

	cfg := &Config{
		GraphPath:     v.GetString("graph"),
		DBURL:         v.GetString("database"),
		Workers:       v.GetInt("workers"),
		Bind:          v.GetString("bind"),
		TableSetDir:   local.TableSetDir,
		FooterCacheMB: local.FooterCacheMB,
		EFCacheMB:     local.EFCacheMB,
		PageCacheMB:   local.PageCacheMB,
		GCGracePeriod: gcGrace,
	}
	if cfg.DBURL == "" {
		cfg.DBURL = cfg.TableSetDir
	}
	return cfg, nil
}
