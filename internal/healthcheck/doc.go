// Package healthcheck watches the conversion service. It dials the service
// periodically, logs when it goes down or comes back, and serves the relay's
// own health report.
package healthcheck
