// Package httpserver runs the relay's HTTP listener. Binding is separate from
// serving so a port that is already taken is reported at startup.
package httpserver
