package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/toyz/servicereg/internal/cli"
	"github.com/toyz/servicereg/internal/config"
	"github.com/toyz/servicereg/internal/utils"
)

// app holds the state shared by every subcommand
type app struct {
	stdout io.Writer
	stderr io.Writer
	plain  bool // no colors or timestamps, for tests

	cfgFile string
	verbose bool
	quiet   bool
	module  string

	cfg         config.Config
	diagnostics *utils.DiagnosticSystem
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

func (a *app) execute(args []string) error {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	return root.ExecuteContext(context.Background())
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "servicereg",
		Short: "Compose annotated services into a registration plan",
		Long: `servicereg loads Go packages, collects types annotated with
//servicereg::service and //servicereg::decorator, and resolves them into an
ordered binding plan with decorator chains expanded.

Package patterns follow the go tool: ./... scans recursively.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initConfig,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default: ./"+config.FileName+")")
	flags.BoolVar(&a.verbose, "verbose", false, "enable verbose output and detailed error reporting")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "only show errors and final results")
	flags.StringVar(&a.module, "module", "", "module path used for short identities (defaults to go.mod)")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")

	root.AddCommand(a.planCommand(), a.generateCommand(), a.cleanCommand())
	return root
}

func (a *app) initConfig(cmd *cobra.Command, _ []string) error {
	level := utils.DiagnosticInfo
	switch {
	case a.quiet:
		level = utils.DiagnosticError
	case a.verbose:
		level = utils.DiagnosticVerbose
	}

	// Diagnostics go to stderr so plan output on stdout stays machine readable
	a.diagnostics = utils.NewDiagnosticSystem(level)
	if a.plain {
		a.diagnostics.WithWriters(a.stderr, a.stderr)
	} else {
		a.diagnostics.RedirectOutput(a.stderr)
	}

	cfg, err := config.Load(viper.New(), a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.diagnostics.Debug("config: %s", cfg)
	return nil
}

func (a *app) runOptions(patterns []string) cli.RunOptions {
	return cli.RunOptions{Dir: ".", Patterns: patterns, Module: a.module, Config: a.cfg}
}

func (a *app) reportError(err error) {
	useColors := !a.plain && a.diagnostics != nil && a.diagnostics.UseColors()
	cli.NewErrorReporter(a.stderr, a.verbose, useColors).Report(err)
}
