package conversion

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/monzo/terrors"
)

const (
	POFormatCO       = "CO"
	POFormatSO       = "SO"
	POFormatTwoStage = "TWOSTAGE"
	// Aliases the conversion service accepts for the two-stage order sheet.
	POFormat2Stage        = "2STAGE"
	POFormatTwoStageLocal = "兩階段"
)

const MsgPORequired = "Missing PO JSON data"

// PurchaseOrder converts purchase order JSON into a CO, SO or two-stage
// order workbook.
var PurchaseOrder = Kind{
	Name:   "po",
	Path:   "/api/convert-po-to-excel",
	Decode: DecodePurchaseOrder,
}

type PurchaseOrderRequest struct {
	POJSON     string `json:"poJson"`
	Format     string `json:"format"`
	ParamValue string `json:"paramValue"`
}

func (r *PurchaseOrderRequest) Label() string {
	return "po-" + r.Format
}

func (r *PurchaseOrderRequest) Filename(now time.Time) string {
	stamp := now.Format("20060102_150405")
	switch r.Format {
	case POFormatSO:
		return fmt.Sprintf("SO_%s.xlsx", stamp)
	case POFormatTwoStage, POFormat2Stage, POFormatTwoStageLocal:
		return fmt.Sprintf("%s_%s.xlsx", POFormatTwoStageLocal, stamp)
	default:
		return fmt.Sprintf("CO_%s.xlsx", stamp)
	}
}

// DecodePurchaseOrder validates a purchase order conversion. format is
// case-insensitive and defaults to CO when absent; non-string values are
// matched by their JSON text.
func DecodePurchaseOrder(body []byte) (Request, error) {
	fields, err := decodeObject(body)
	if err != nil {
		return nil, err
	}

	po, _ := text(fields["poJson"])
	if err := validation.Validate(strings.TrimSpace(po), validation.Required); err != nil {
		return nil, terrors.BadRequest("missing_po_json", MsgPORequired, nil)
	}

	format := POFormatCO
	if raw, ok := fields["format"]; ok && string(raw) != "null" {
		s, ok := stringField(raw)
		if !ok {
			s = string(bytes.TrimSpace(raw))
		}
		format = strings.ToUpper(s)
	}

	if err := validation.Validate(format,
		validation.Required,
		validation.In(POFormatCO, POFormatSO, POFormatTwoStage, POFormat2Stage, POFormatTwoStageLocal),
	); err != nil {
		return nil, terrors.BadRequest("invalid_format",
			fmt.Sprintf("Invalid format: %s. Supported formats: CO, SO, TWOSTAGE", format),
			map[string]string{"format": format},
		)
	}

	return &PurchaseOrderRequest{
		POJSON:     po,
		Format:     format,
		ParamValue: paramValue(fields["paramValue"]),
	}, nil
}
