package conversion

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/monzo/terrors"
)

// SpreadsheetContentType is the MIME type of every successful conversion.
const SpreadsheetContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DefaultParamValue is forwarded when the caller omits paramValue.
const DefaultParamValue = "AUTO"

// Request is a validated conversion request. It marshals to the payload the
// conversion service expects.
type Request interface {
	// Label identifies the conversion in logs and metrics, e.g. "invoice-406".
	Label() string
	// Filename is the attachment name for a workbook produced at now.
	Filename(now time.Time) string
}

// Kind describes one conversion endpoint. The relay listens on Path and
// forwards to the same path on the conversion service.
type Kind struct {
	Name   string
	Path   string
	Decode func(body []byte) (Request, error)
}

// Kinds lists every conversion the relay exposes, in routing order.
func Kinds() []Kind {
	return []Kind{Invoice, PurchaseOrder}
}

const (
	MsgInvalidJSON = "Invalid JSON format"
	MsgNotAnObject = "Server error: request body must be a JSON object"
)

// decodeObject parses body into its top-level fields. Malformed JSON is a
// client error; well-formed JSON that is not an object is a server error.
func decodeObject(body []byte) (map[string]json.RawMessage, error) {
	if !json.Valid(body) {
		return nil, terrors.BadRequest("invalid_json", MsgInvalidJSON, nil)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, terrors.InternalService("malformed_body", MsgNotAnObject, nil)
	}

	return fields, nil
}

// text renders a field as forwarded text. Strings are unquoted, other values
// keep their JSON form. Absent fields, null and JSON values that are "empty"
// (false, 0, "", [], {}) yield "" and ok=false.
func text(raw json.RawMessage) (value string, ok bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, s != ""
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
			return "", false
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil || len(obj) == 0 {
			return "", false
		}
	case 'n', 'f':
		return "", false
	default:
		var n float64
		if err := json.Unmarshal(raw, &n); err == nil && n == 0 {
			return "", false
		}
	}

	return string(raw), true
}

// stringField returns the value only when raw is a JSON string.
func stringField(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// paramValue applies the AUTO default for absent or null values. Any other
// value is forwarded, strings unquoted and the rest as JSON text.
func paramValue(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return DefaultParamValue
	}
	if s, ok := stringField(raw); ok {
		return s
	}
	return string(raw)
}
