// Package cli — instructions.go implements the "hookrunner instructions"
// command, which prints the tunnel setup steps without launching anything.
// Useful when the server is already running and the operator just needs
// the ngrok command and env var export again.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/artclub/hookrunner/internal/model"
)

// NewInstructionsCommand creates the "instructions" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewInstructionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instructions",
		Short: "Print the tunnel setup instructions without launching",
		Long: `Print the same setup instructions the up command shows before launch:
how to expose the local port with a tunneling tool and which environment
variable to put the public callback URL in.

Examples:
  hookrunner instructions
  SERVER_PORT=9100 hookrunner instructions`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstructions()
		},
	}

	return cmd
}

// runInstructions is the main logic function for the instructions command.
func runInstructions() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := instructionsFromConfig(cfg).Fprint(os.Stdout); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to print setup instructions", err)
	}
	return nil
}
