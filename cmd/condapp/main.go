package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/provide-io/condapp/pkg"
	"github.com/provide-io/condapp/pkg/logging"
)

const version = "0.1.0"

var (
	buildFlag   bool
	dmgFlag     bool
	clearFlag   bool
	verifyFlag  bool
	verbose     bool
	versionFlag bool
	archiveFmt  string
	logLevel    string
	rootCmd     *cobra.Command
)

func getBuildTimestamp() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					return t.UTC().Format(time.RFC3339)
				}
			}
		}
	}
	if exePath, err := os.Executable(); err == nil {
		if stat, err := os.Stat(exePath); err == nil {
			return stat.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return "unknown"
}

func init() {
	rootCmd = &cobra.Command{
		Use:   "condapp <config.yaml>",
		Short: "Build macOS app bundles from Python environments",
		Long: `condapp copies a conda or virtualenv prefix into a self-contained macOS
.app bundle, and can wrap the result in a disk image.

Without --build or --dmg the configuration is only loaded and validated.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	flags := rootCmd.Flags()
	flags.BoolVar(&buildFlag, "build", false, "Build the app bundle")
	flags.BoolVar(&dmgFlag, "dmg", false, "Create a disk image from the bundle")
	flags.BoolVar(&clearFlag, "clear", false, "Remove an existing bundle and disk image first")
	flags.BoolVar(&verifyFlag, "verify", false, "Check the bundle after building it")
	flags.StringVar(&archiveFmt, "archive", "", "Also write a tar archive (tar, tar.gz, tar.bz2, tar.xz)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error, json[:level])")
	flags.BoolVarP(&versionFlag, "version", "V", false, "Show version information")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("%v", err))
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if versionFlag {
		fmt.Printf("condapp %s\n", version)
		fmt.Printf("Built: %s\n", getBuildTimestamp())
		return nil
	}
	if len(args) != 1 {
		return fmt.Errorf("missing configuration file\n\n%s", cmd.UsageString())
	}

	logger, source, logFile := logging.NewLogger(logging.Options{Level: logLevel, Verbose: verbose})
	defer logFile.Close()
	logger.Debug("Log level", "level", logger.GetLevel().String(), "source", source)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := pkg.Run(ctx, pkg.Options{
		ConfigPath: args[0],
		Build:      buildFlag,
		DMG:        dmgFlag,
		Clear:      clearFlag,
		Verify:     verifyFlag,
		Archive:    archiveFmt,
	}, logger)
	if err != nil {
		logger.Error("Build failed", "error", err)
		return err
	}

	switch {
	case res.Bundle != nil && !res.Bundle.Created:
		color.Yellow("⏭️  %s already exists, use --clear to rebuild", res.Config.AppPath())
	case res.Bundle != nil:
		color.Green("✅ %s", res.Config.AppPath())
		if n := len(res.Bundle.Rewrite.Failed) + len(res.Bundle.Cleanup.Failed) + len(res.Bundle.HookFailures); n > 0 {
			color.Yellow("⚠️  %d item(s) need attention, see warnings above", n)
		}
	}
	if res.Archive != "" {
		color.Green("✅ %s", res.Archive)
	}
	if res.Image != "" {
		color.Green("✅ %s", res.Image)
	}
	if res.Bundle == nil && res.Image == "" {
		color.Green("✅ %s is valid", args[0])
	}
	fmt.Println("Done! 🎉")
	return nil
}
