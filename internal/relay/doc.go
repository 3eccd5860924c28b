// Package relay implements the HTTP side of the invoice relay. Conversion
// requests are validated, forwarded to the conversion service and answered
// with the returned workbook; failures become JSON errors whose status comes
// from a single terrors code table (400 invalid input, 503 service not
// reachable, 500 anything else). Every response carries permissive CORS
// headers so a browser test page can call the relay directly.
package relay
