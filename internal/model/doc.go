// Package model defines the domain types and value objects for the
// hookrunner CLI.
//
// This package contains pure data structures with no external dependencies.
// LaunchSpec captures everything needed to start the local webhook receiver
// (application reference, bind address, working directory, runner mode);
// it is assembled once by the config layer and handed unchanged to the
// launch path — there is no persistent state.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
