package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cerebrum/bofh-go/internal/app"
	"github.com/cerebrum/bofh-go/internal/domain"
	"github.com/cerebrum/bofh-go/internal/infrastructure/config"
	"github.com/cerebrum/bofh-go/internal/version"
)

const msgNoDifferencesFromDefault = "No differences from default configuration."

// newVersionCommand creates the version command to display version information.
func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show bofh version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return displayVersionInformation(cmd.OutOrStdout())
		},
	}
}

func displayVersionInformation(out io.Writer) error {
	fmt.Fprintf(out, "bofh version %s\n", version.Version)

	if version.Commit != "" {
		fmt.Fprintf(out, "Commit: %s\n", version.Commit)
	}

	if version.BuildDate != "" {
		fmt.Fprintf(out, "Built: %s\n", version.BuildDate)
	}

	fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
	return nil
}

// newConfigCommand creates the config command with its subcommands.
func newConfigCommand(f *flags) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect bofh configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfiguration(cmd, f)
		},
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return showConfiguration(cmd, f)
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), config.NewFileLoader(f.configPath).Path())
				return nil
			},
		},
		&cobra.Command{
			Use:   "diff",
			Short: "Show differences from the default configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return diffConfiguration(cmd, f)
			},
		},
	)
	return configCmd
}

func showConfiguration(cmd *cobra.Command, f *flags) error {
	cfg, err := config.NewFileLoader(f.configPath).Load(cmd.Context())
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func diffConfiguration(cmd *cobra.Command, f *flags) error {
	currentConfig, err := config.NewFileLoader(f.configPath).Load(cmd.Context())
	if err != nil {
		return err
	}
	diff := cmp.Diff(config.Defaults(), currentConfig)
	if diff == "" {
		fmt.Fprintln(cmd.OutOrStdout(), msgNoDifferencesFromDefault)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), diff)
	return nil
}

// newDoctorCommand creates the doctor command.
func newDoctorCommand(f *flags, opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose configuration, history and server reachability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := app.BuildContainer(cmd.Context(), app.Options{
				Overrides: f.overrides(),
				LogWriter: opts.Stderr,
				Level:     f.level(),
			})
			if err != nil {
				return err
			}
			defer container.Close()

			report, err := container.Doctor.Run(cmd.Context())
			displayDoctorReport(cmd.OutOrStdout(), report)
			if err != nil {
				return fmt.Errorf("diagnostics completed with errors: %w", err)
			}
			return nil
		},
	}
}

// displayDoctorReport displays the health check report
func displayDoctorReport(out io.Writer, report domain.HealthReport) {
	for _, check := range report.Checks {
		fmt.Fprintf(out, "[%s] %s - %s\n",
			strings.ToUpper(string(check.Status)),
			check.Name,
			check.Details)
	}
}
