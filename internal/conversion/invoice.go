package conversion

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/monzo/terrors"
)

const (
	InvoiceFormat406 = "406"
	InvoiceFormat407 = "407"
)

const (
	MsgOCRRequired   = "OCR JSON is required"
	MsgInvoiceFormat = "Format must be '406' or '407'"
)

// Invoice converts OCR output of an invoice into a 406 or 407 workbook.
var Invoice = Kind{
	Name:   "invoice",
	Path:   "/api/convert-invoice-to-excel",
	Decode: DecodeInvoice,
}

// InvoiceRequest is both the validated inbound request and the payload
// forwarded to the conversion service.
type InvoiceRequest struct {
	OCRJSON    string `json:"ocrJson"`
	Format     string `json:"format"`
	ParamValue string `json:"paramValue"`
}

func (r *InvoiceRequest) Label() string {
	return "invoice-" + r.Format
}

// Filename follows Invoice_{format}INF_{YYYYMMDDHHMMSS}.xlsx.
func (r *InvoiceRequest) Filename(now time.Time) string {
	return fmt.Sprintf("Invoice_%sINF_%s.xlsx", r.Format, now.Format("20060102150405"))
}

// DecodeInvoice checks, in order, that body is JSON, that ocrJson is present
// and that format is one of the accepted codes.
func DecodeInvoice(body []byte) (Request, error) {
	fields, err := decodeObject(body)
	if err != nil {
		return nil, err
	}

	ocr, _ := text(fields["ocrJson"])
	if err := validation.Validate(ocr, validation.Required); err != nil {
		return nil, terrors.BadRequest("missing_ocr_json", MsgOCRRequired, nil)
	}

	format, _ := stringField(fields["format"])
	if err := validation.Validate(format,
		validation.Required,
		validation.In(InvoiceFormat406, InvoiceFormat407),
	); err != nil {
		return nil, terrors.BadRequest("invalid_format", MsgInvoiceFormat, map[string]string{
			"format": format,
		})
	}

	return &InvoiceRequest{
		OCRJSON:    ocr,
		Format:     format,
		ParamValue: paramValue(fields["paramValue"]),
	}, nil
}
