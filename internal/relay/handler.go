package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/monzo/terrors"

	"github.com/angeloszaimis/invoice-relay/internal/conversion"
	"github.com/angeloszaimis/invoice-relay/internal/metrics"
	"github.com/angeloszaimis/invoice-relay/internal/upstream"
)

const maxBodyBytes = 32 << 20

// Converter forwards a validated payload to the conversion service.
type Converter interface {
	Convert(ctx context.Context, path string, payload any) ([]byte, error)
}

type Handler struct {
	logger    *slog.Logger
	converter Converter
	collector *metrics.Collector
}

// NewHandler builds the relay handler. collector may be nil.
func NewHandler(logger *slog.Logger, converter Converter, collector *metrics.Collector) *Handler {
	return &Handler{
		logger:    logger,
		converter: converter,
		collector: collector,
	}
}

// Convert returns the handler for one conversion endpoint: decode and
// validate the body, forward it, and answer with the workbook or a JSON error.
func (h *Handler) Convert(kind conversion.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := LoggerFrom(r.Context(), h.logger).With(slog.String("conversion", kind.Name))

		h.collector.Emit(metrics.MetricEvent{
			Type: metrics.EventConversionReceived,
			Kind: kind.Name,
		})

		req, data, err := h.forward(w, r, kind)

		label := kind.Name
		if req != nil {
			label = req.Label()
		}

		status := http.StatusOK
		if err != nil {
			status = writeError(w, err)
			logFailure(log, label, status, err)
		} else {
			filename := req.Filename(time.Now())
			h.describeWorkbook(r.Context(), log, data)
			writeSpreadsheet(w, log, filename, data)

			log.Info("Conversion completed",
				slog.String("label", label),
				slog.String("filename", filename),
				slog.Int("bytes", len(data)),
				slog.Duration("duration", time.Since(start)))
		}

		h.collector.Emit(metrics.MetricEvent{
			Type:       metrics.EventConversionCompleted,
			Kind:       kind.Name,
			Label:      label,
			Duration:   time.Since(start),
			StatusCode: status,
		})
	}
}

// forward returns the decoded request whenever validation passed, so the
// caller can label failures of the upstream call.
func (h *Handler) forward(w http.ResponseWriter, r *http.Request, kind conversion.Kind) (conversion.Request, []byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, terrors.InternalService("read_body", "Server error: "+err.Error(), nil)
	}

	req, err := kind.Decode(body)
	if err != nil {
		return nil, nil, err
	}

	data, err := h.converter.Convert(r.Context(), kind.Path, req)
	if err != nil {
		return req, nil, err
	}

	return req, data, nil
}

// describeWorkbook logs the sheets of the returned workbook at debug level.
// The response is relayed unchanged whatever this finds.
func (h *Handler) describeWorkbook(ctx context.Context, log *slog.Logger, data []byte) {
	if !log.Enabled(ctx, slog.LevelDebug) {
		return
	}

	sheets, err := upstream.SheetNames(data)
	if err != nil {
		log.Warn("Conversion service returned an unreadable workbook", slog.Any("err", err))
		return
	}

	log.Debug("Workbook received", slog.Any("sheets", sheets))
}

func writeSpreadsheet(w http.ResponseWriter, log *slog.Logger, filename string, data []byte) {
	w.Header().Set("Content-Type", conversion.SpreadsheetContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": filename,
	}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(data); err != nil {
		log.Warn("Failed to write workbook to client", slog.Any("err", err))
	}
}

func logFailure(log *slog.Logger, label string, status int, err error) {
	attrs := []any{
		slog.String("label", label),
		slog.Int("status", status),
		slog.String("error", Message(err)),
	}
	var terr *terrors.Error
	if errors.As(err, &terr) && terr.Params["cause"] != "" {
		attrs = append(attrs, slog.String("cause", terr.Params["cause"]))
	}

	switch status {
	case http.StatusBadRequest:
		log.Info("Conversion rejected", attrs...)
	case http.StatusServiceUnavailable:
		log.Warn("Conversion service unreachable", append(attrs, slog.String("hint", upstream.StartHint))...)
	default:
		log.Error("Conversion failed", attrs...)
	}
}
