// Package server implements the HTTP and WebSocket transport for the room chat.
//
// The Hub owns every connection and serializes client actions into the
// chat engine. The rest of the package is split by concern: configuration,
// origin checks, the frame codec, routing, and HTTP handlers.
package server
