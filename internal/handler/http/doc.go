// Package http implements the loopback hook surface of the sync client.
//
// The host platform calls these endpoints to report lifecycle events
// (app open, connectivity change, periodic wake-up, manual refresh), to hand
// over the session token and to read the sync status. Local edits made by
// the host UI go through the /records endpoints so they are queued in the
// same transaction as the local write.
package http
