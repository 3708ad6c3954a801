// Package port implements bind-port probing for the hookrunner CLI.
//
// The Scanner verifies OS-level port availability via net.Listen() on the
// same address space the webhook receiver will bind. It backs the
// `hookrunner check` preflight command, which reports whether the
// configured port is free and, when it is not, suggests a nearby free
// port as advisory output.
//
// The launch path deliberately does not use this package: a bind conflict
// at launch time surfaces through the server-runner's own diagnostics and
// exit status, with no retry and no automatic port selection.
package port
