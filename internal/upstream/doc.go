// Package upstream is the client side of the relay: it forwards conversion
// payloads to the invoice-to-Excel conversion service (the local Functions
// host), classifies failures into terrors codes and tracks whether the
// service is reachable.
package upstream
