// trophycase - side-by-side 3D reconstruction comparisons
//
// Every viewport in a group shows the same sample under a different role
// (ground truth, input, baseline, candidate method) in one shared,
// normalized frame.
//
// Controls (view):
//
//	Mouse drag  - Orbit (right drag pans)
//	Scroll      - Zoom in/out
//	N/P         - Next/previous sample
//	1-9         - Select candidate method
//	Tab         - Next group
//	Q/Esc       - Quit
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"fortio.org/log"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/taigrr/trophycase/pkg/config"
)

var (
	configPath string
	logLevel   string
	logFile    string
)

func main() {
	cmd := &cobra.Command{
		Use:   "trophycase",
		Short: "Compare 3D reconstructions side by side",
		Long: `trophycase - side-by-side 3D reconstruction comparisons

Loads ground truth, input, baseline and candidate assets for a sample,
normalizes them to a shared frame and drives synchronized cameras.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file (default: built-in groups)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, verbose, info, warning, error)")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file")

	cmd.AddCommand(viewCmd(), snapshotCmd(), infoCmd(), configCmd())

	if err := fang.Execute(context.Background(), cmd); err != nil {
		os.Exit(1)
	}
}

func setupLogging() error {
	if err := log.SetLogLevelStr(logLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if logFile == "" {
		return nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	return nil
}

// loadConfig reads the config and resolves every group's samples and
// methods against the data root.
func loadConfig() (*config.Config, fs.FS, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	fsys := os.DirFS(cfg.DataRoot)
	for i := range cfg.Groups {
		g := &cfg.Groups[i]
		if err := g.Resolve(fsys); err != nil {
			log.Warnf("group %s: %v", g.Name, err)
		}
	}
	return cfg, fsys, nil
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			out, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
