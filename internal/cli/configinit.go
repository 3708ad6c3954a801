// Package cli — configinit.go implements the "hookrunner config" command
// group. "config init" writes a starter configuration file populated with
// the defaults, ready to edit.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artclub/hookrunner/internal/config"
)

// defaultStarterPath is where "config init" writes when no path is given.
const defaultStarterPath = "hookrunner.yaml"

// NewConfigCommand creates the "config" cobra command group.
// It is called from NewRootCommand to register as a subcommand.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the launcher configuration file",
	}

	cmd.AddCommand(newConfigInitCommand())
	return cmd
}

// newConfigInitCommand creates the "config init" subcommand.
func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter configuration file with the defaults",
		Long: `Write a commented starter configuration file populated with the default
values. Refuses to overwrite an existing file unless --force is given.

Examples:
  hookrunner config init
  hookrunner config init configs/dev.yaml --force`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultStarterPath
			if len(args) == 1 {
				path = args[0]
			}
			return runConfigInit(path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}

// runConfigInit is the main logic function for the config init command.
func runConfigInit(path string, force bool) error {
	if err := config.WriteStarter(path, force); err != nil {
		return err
	}

	if IsJSONOutput() {
		fmt.Printf("{\n  \"path\": %q,\n  \"action\": \"written\"\n}\n", path)
	} else {
		fmt.Printf("Wrote starter configuration to %s\n", path)
	}
	return nil
}
