// Package config loads the launcher configuration.
//
// Sources, in increasing precedence: struct-tag defaults, an optional
// explicit config file (YAML, JSON, or comment-tolerant JSONC), a .env
// overlay, and environment variables (SERVER_PORT → server.port).
//
// The defaults reproduce the historical hard-coded launch constants:
// uvicorn serving webhook.prodamus:app on 0.0.0.0:8000 with reload
// enabled, so a bare `hookrunner up` behaves exactly like the original
// launch script.
package config
