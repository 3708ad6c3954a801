// Package runner launches the webhook receiver as a host process and
// supervises it for the lifetime of the up command.
//
// Run is the plain blocking launch: start the child, pass stdio through,
// forward operator signals, and exit with the child's status. Supervise
// adds the --watch restart loop on top of the same launch path, consuming
// change batches from the watch package.
package runner
