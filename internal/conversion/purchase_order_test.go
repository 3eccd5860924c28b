package conversion_test

import (
	"encoding/json"
	"time"

	"github.com/monzo/terrors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/invoice-relay/internal/conversion"
)

var _ = Describe("PurchaseOrder", func() {
	Describe("DecodePurchaseOrder", func() {
		It("should default the format to CO", func() {
			req, err := conversion.DecodePurchaseOrder([]byte(`{"poJson": "{\"lines\": [1]}"}`))
			Expect(err).NotTo(HaveOccurred())

			payload, err := json.Marshal(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(payload).To(MatchJSON(`{"poJson": "{\"lines\": [1]}", "format": "CO", "paramValue": "AUTO"}`))
		})

		It("should upper-case the format", func() {
			req, err := conversion.DecodePurchaseOrder([]byte(`{"poJson": "x", "format": "twostage", "paramValue": "ORDER-7"}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(req.(*conversion.PurchaseOrderRequest).Format).To(Equal("TWOSTAGE"))
			Expect(req.(*conversion.PurchaseOrderRequest).ParamValue).To(Equal("ORDER-7"))
		})

		It("should require poJson", func() {
			_, err := conversion.DecodePurchaseOrder([]byte(`{"format": "SO"}`))
			expectRejected(err, terrors.ErrBadRequest, conversion.MsgPORequired)
		})

		It("should treat whitespace-only poJson as missing", func() {
			_, err := conversion.DecodePurchaseOrder([]byte(`{"poJson": "   "}`))
			expectRejected(err, terrors.ErrBadRequest, conversion.MsgPORequired)
		})

		It("should name the rejected format", func() {
			_, err := conversion.DecodePurchaseOrder([]byte(`{"poJson": "x", "format": "po"}`))
			expectRejected(err, terrors.ErrBadRequest, "Invalid format: PO. Supported formats: CO, SO, TWOSTAGE")
		})

		It("should name a non-string format by its JSON text", func() {
			_, err := conversion.DecodePurchaseOrder([]byte(`{"poJson": "x", "format": 5}`))
			expectRejected(err, terrors.ErrBadRequest, "Invalid format: 5. Supported formats: CO, SO, TWOSTAGE")
		})

		It("should reject malformed JSON", func() {
			_, err := conversion.DecodePurchaseOrder([]byte(`{`))
			expectRejected(err, terrors.ErrBadRequest, conversion.MsgInvalidJSON)
		})
	})

	DescribeTable("Filename",
		func(format, want string) {
			now := time.Date(2025, time.December, 31, 23, 59, 1, 0, time.Local)
			req := &conversion.PurchaseOrderRequest{POJSON: "x", Format: format}
			Expect(req.Filename(now)).To(Equal(want))
		},
		Entry("customer order", "CO", "CO_20251231_235901.xlsx"),
		Entry("sales order", "SO", "SO_20251231_235901.xlsx"),
		Entry("two stage", "TWOSTAGE", "兩階段_20251231_235901.xlsx"),
		Entry("two stage alias", "2STAGE", "兩階段_20251231_235901.xlsx"),
	)

	It("should be listed after the invoice conversion", func() {
		kinds := conversion.Kinds()
		Expect(kinds).To(HaveLen(2))
		Expect(kinds[0].Path).To(Equal("/api/convert-invoice-to-excel"))
		Expect(kinds[1].Path).To(Equal("/api/convert-po-to-excel"))
	})
})
