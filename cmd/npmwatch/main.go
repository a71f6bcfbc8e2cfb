package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/npmwatch/npmwatch"
	"github.com/npmwatch/npmwatch/internal/config"
	"github.com/npmwatch/npmwatch/internal/shutdown"
)

func main() {
	root, _ := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRoot() (*cobra.Command, *RootFlags) {
	flags := &RootFlags{}
	cmd := &cobra.Command{
		Use:           "npmwatch [script]",
		Short:         "Run an npm script and restart it when it exits",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := assembleConfig(cmd, args, flags)
			if err != nil {
				return err
			}
			return supervise(cfg)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.ConfigPath, "config", "", "optional TOML config file")
	f.BoolVar(&flags.Restart, "restart", false, "restart the script when it exits")
	f.StringVar(&flags.Cwd, "cwd", ".", "working directory of the npm project")
	f.IntVar(&flags.MaxRestarts, "max-restarts", -1, "cap on restart attempts, -1 = unlimited")
	f.StringVar(&flags.Bin, "bin", "npm", "package-script runner binary")
	f.StringVar(&flags.LogLevel, "log-level", "info", "supervisor log level (debug|info|warn|error)")
	f.BoolVar(&flags.NoColor, "no-color", false, "disable colored log output")
	f.StringVar(&flags.ChildLogDir, "child-log-dir", "", "capture combined child output into rotating files in this directory")
	f.StringVar(&flags.MetricsListen, "metrics-listen", "", "serve Prometheus metrics on this address (e.g. :9464)")
	f.StringVar(&flags.HistoryDSN, "history", "", "record attempt history to this sqlite DSN")
	return cmd, flags
}

// assembleConfig merges defaults, the optional config file, and any flags
// the user set explicitly (flags win).
func assembleConfig(cmd *cobra.Command, args []string, flags *RootFlags) (npmwatch.Config, error) {
	cfg := config.Default()
	if flags.ConfigPath != "" {
		loaded, err := config.Load(flags.ConfigPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if len(args) > 0 {
		cfg.Script = args[0]
	}
	set := cmd.Flags().Changed
	if set("restart") {
		cfg.Restart = flags.Restart
	}
	if set("cwd") {
		cfg.WorkDir = flags.Cwd
	}
	if set("max-restarts") {
		cfg.MaxRestarts = flags.MaxRestarts
	}
	if set("bin") {
		cfg.Bin = flags.Bin
	}
	if set("log-level") {
		cfg.Log.Level = flags.LogLevel
	}
	if set("no-color") {
		cfg.Log.NoColor = flags.NoColor
	}
	if set("child-log-dir") {
		cfg.ChildLog.Dir = flags.ChildLogDir
	}
	if set("metrics-listen") {
		cfg.MetricsListen = flags.MetricsListen
	}
	if set("history") {
		cfg.HistoryDSN = flags.HistoryDSN
	}
	return cfg, nil
}

func supervise(cfg npmwatch.Config) error {
	cfg.Log.Setup()

	mon, err := npmwatch.New(cfg)
	if err != nil {
		return err
	}
	if !cfg.HasManifest() {
		slog.Warn("no package.json found in working directory", "dir", cfg.WorkDir)
	}

	shutdown.Notify(mon.Flag())
	mon.Run()
	return nil
}
