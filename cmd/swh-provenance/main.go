// Command swh-provenance builds the isochrone-frontier provenance tables
// (spec §3-4) and serves point provenance queries over them via gRPC
// (spec §6.1). Subcommands are grouped the way cmd/bd/main.go groups
// issue-tracker commands on one binary: a single root command, persistent
// flags bound into one viper instance, one signal-aware context per
// invocation.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/softwareheritage/swh-provenance/internal/config"
	"github.com/softwareheritage/swh-provenance/internal/types"
)

var v = config.NewViper()

var rootCmd = &cobra.Command{
	Use:   "swh-provenance",
	Short: "Software Heritage provenance index builder and query service",
	Long: `swh-provenance builds and serves the isochrone-frontier provenance
tables (nodes, frontier_directories_in_revisions,
contents_in_frontier_directories, contents_in_revisions_without_frontiers)
and answers point provenance queries over them via gRPC.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	if err := config.BindPersistentFlags(rootCmd, v); err != nil {
		fmt.Fprintf(os.Stderr, "swh-provenance: %v\n", err)
		os.Exit(exitInternal)
	}
	rootCmd.PersistentFlags().Bool("json", false, "emit structured JSON logs instead of text")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(grpcServeCmd)
	rootCmd.AddCommand(genTestDatabaseCmd)
	rootCmd.AddCommand(indexStatsCmd)
}

// newLogger builds the root *slog.Logger for one invocation: a text
// handler for terminals, a JSON handler under --json. The logger is
// threaded down explicitly by parameter to every stage/handler rather
// than fetched from slog.Default(), the way daemon_sync.go's log
// *slog.Logger parameters are threaded through the teacher's sync path.
func newLogger(cmd *cobra.Command) *slog.Logger {
	asJSON, _ := cmd.Flags().GetBool("json")
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if asJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// signalContext returns a context cancelled on SIGINT/SIGTERM, so a
// long-running build or server shuts down gracefully instead of being
// killed mid-write.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Exit codes (spec §6.2).
const (
	exitSuccess         = 0
	exitArgumentError   = 1
	exitIOError         = 2
	exitIncompleteInput = 3
	exitInternal        = 64
)

// exitCode maps the internal error taxonomy (spec §7) onto the CLI exit
// codes spec §6.2 defines. ErrNotFound at this layer means a graph
// property the builder needed was absent from the snapshot (spec's
// "incomplete input" example), distinct from its query-time meaning of
// "empty provenance result".
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, types.ErrInputError):
		return exitArgumentError
	case errors.Is(err, types.ErrNotFound):
		return exitIncompleteInput
	case errors.Is(err, types.ErrCorruption):
		return exitInternal
	default:
		return exitIOError
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "swh-provenance: %v\n", err)
		os.Exit(exitCode(err))
	}
}
