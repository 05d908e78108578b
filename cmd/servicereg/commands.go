package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/toyz/servicereg/internal/cli"
	"github.com/toyz/servicereg/internal/config"
	"github.com/toyz/servicereg/internal/errors"
)

func (a *app) planCommand() *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "plan [patterns...]",
		Short: "Print the composed binding plan",
		Example: `  servicereg plan ./...
  servicereg plan --format yaml --out plan.yaml ./internal/...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "" {
				a.cfg.Output.Format = format
			}
			if out != "" {
				a.cfg.Output.File = out
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			result, err := cli.NewComposer(a.diagnostics).Run(cmd.Context(), a.runOptions(args))
			if err != nil {
				return err
			}
			report := cli.NewPlanReport(result.Module, result.Plan.Bindings())

			if a.cfg.Output.File == "" {
				return report.Write(cmd.OutOrStdout(), a.cfg.Output.Format, !a.plain && a.diagnostics.UseColors())
			}

			f, err := os.Create(a.cfg.Output.File)
			if err != nil {
				return errors.WrapFileSystemError("create", a.cfg.Output.File, err)
			}
			if err := report.Write(f, a.cfg.Output.Format, false); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return errors.WrapFileSystemError("close", a.cfg.Output.File, err)
			}
			a.diagnostics.Success("Plan written to %s", a.cfg.Output.File)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: "+config.FormatText+" or "+config.FormatYAML)
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the plan to a file instead of stdout")
	return cmd
}

func (a *app) generateCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "generate [patterns...]",
		Short: "Write the composed plan as Go source (" + cli.GeneratedFileName + ")",
		Long: `generate composes the plan and writes it to ` + cli.GeneratedFileName + ` in the
target package as a []servicereg.Binding literal. The generated GeneratedPlan
function returns it ready to Apply or Build.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := cli.NewComposer(a.diagnostics).Run(cmd.Context(), a.runOptions(args))
			if err != nil {
				return err
			}

			pkg, err := result.TargetPackage(dir)
			if err != nil {
				return err
			}

			file, err := cli.NewGenerator().Generate(cli.GenerateRequest{
				Dir:      dir,
				Package:  pkg,
				Source:   result.Module.Path,
				Bindings: result.Plan.Bindings(),
			})
			if err != nil {
				return err
			}

			a.diagnostics.Summary("Generation complete", map[string]interface{}{
				"Packages loaded": len(result.Manifest.Packages),
				"Bindings":        result.Plan.Len(),
			})
			a.diagnostics.Success("Generated %s", file)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "package directory that receives the generated file")
	return cmd
}

func (a *app) cleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [patterns...]",
		Short: "Delete generated " + cli.GeneratedFileName + " files",
		RunE: func(cmd *cobra.Command, args []string) error {
			patterns := args
			if len(patterns) == 0 {
				patterns = a.cfg.Packages.Patterns
			}

			removed, err := cli.NewCleaner().CleanGeneratedFiles(patterns)
			for _, file := range removed {
				a.diagnostics.PhaseItem("Removed " + file)
			}
			if err != nil {
				return err
			}
			if len(removed) == 0 {
				a.diagnostics.Info("No generated files found")
			}
			return nil
		},
	}
}
