// Package conversion defines the conversions the relay accepts: how each
// request body is decoded and validated, the payload forwarded to the
// conversion service, and the attachment name of the resulting workbook.
//
// Validation failures are returned as terrors with a bad_request code and a
// message safe to show to the caller.
package conversion
