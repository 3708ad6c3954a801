// Package watch provides the debounced filesystem watcher behind the
// launcher's --watch mode.
//
// It wraps fsnotify with recursive directory registration and coalesces
// event bursts into single restart triggers (Batch). The supervisor in
// the runner package consumes batches and restarts the webhook receiver
// once per batch.
package watch
