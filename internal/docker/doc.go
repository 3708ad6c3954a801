// Package docker implements the container runner mode: instead of
// launching the webhook receiver as a host process, the up command can
// run it inside a container with the working directory bind-mounted and
// the server port published on the requested host interface.
//
// Client handles daemon connection with platform socket autodetection.
// RunServer owns the full container lifecycle (create, start, stream
// logs, wait, stop, remove). Containers are tagged with hookrunner
// labels so ListManaged can find strays from interrupted runs.
package docker
