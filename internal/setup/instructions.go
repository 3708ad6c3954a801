// Package setup renders the operator-facing setup instructions that the
// up command prints before anything else happens.
//
// The ordering is part of the launcher's contract: the full instruction
// text is written to stdout before the working directory is validated and
// before the server-runner is invoked, so an operator always sees the
// tunneling steps even when the launch itself fails.
package setup

import (
	"fmt"
	"io"
	"strings"
)

// Instructions holds the values interpolated into the instruction text.
// All fields are advisory — the launcher never acts on the tunnel tool,
// the env var, or the webhook path itself.
type Instructions struct {
	// App is the application reference being launched.
	App string

	// Host and Port are the receiver's bind address.
	Host string
	Port int

	// TunnelTool is the suggested tunneling command, e.g. "ngrok".
	TunnelTool string

	// EnvVar is the environment variable the webhook application reads
	// the public callback URL from.
	EnvVar string

	// WebhookPath is the route the provider delivers callbacks to.
	WebhookPath string
}

// Lines returns the fixed ordered sequence of instruction lines.
// Callers must emit them in this order; tests pin both content and order.
func (in Instructions) Lines() []string {
	return []string{
		fmt.Sprintf("Starting webhook receiver %s (development mode)", in.App),
		"",
		"  1. In a separate terminal, expose the local port publicly:",
		fmt.Sprintf("       %s http %d", in.TunnelTool, in.Port),
		"  2. Point the payment provider at the public URL it prints:",
		fmt.Sprintf("       export %s=https://<public-host>%s", in.EnvVar, in.WebhookPath),
		fmt.Sprintf("  3. Callbacks arrive on %s:%d once the server below is running.", in.Host, in.Port),
		"",
		"Press Ctrl-C to stop the server.",
		"",
	}
}

// Fprint writes the instruction lines to w, one per line.
// The single Fprint call site (the up command) uses os.Stdout; taking an
// io.Writer keeps the rendering testable without capturing the process's
// real stdout.
func (in Instructions) Fprint(w io.Writer) error {
	_, err := io.WriteString(w, strings.Join(in.Lines(), "\n")+"\n")
	return err
}
