// Package server runs the loopback hook server of the sync client.
//
// It owns the listener lifecycle: startup, signal handling and graceful
// shutdown once SIGINT, SIGTERM or SIGQUIT is received.
package server
