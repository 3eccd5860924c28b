// Fakeconverter stands in for the local Functions host during development
// and load tests. It accepts the same conversion requests and answers with
// a small generated workbook.
//
// Usage:
//
//	go run ./scripts/fakeconverter -port 7071
//	go run ./scripts/fakeconverter -port 7071 -delay 2s -fail-every 5
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/angeloszaimis/invoice-relay/pkg/logger"
)

type conversionRequest struct {
	OCRJSON    string `json:"ocrJson"`
	POJSON     string `json:"poJson"`
	Format     string `json:"format"`
	ParamValue string `json:"paramValue"`
}

func main() {
	port := flag.Int("port", 7071, "port to listen on")
	delay := flag.Duration("delay", 0, "artificial delay before answering")
	failEvery := flag.Int("fail-every", 0, "answer 500 on every Nth request (0 disables)")
	flag.Parse()

	log := logger.New("debug", false, "dev")

	var count atomic.Int64
	convert := func(w http.ResponseWriter, r *http.Request) {
		n := count.Add(1)
		id := uuid.NewString()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable body")
			return
		}

		var req conversionRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		log.Info("Conversion requested",
			slog.String("id", id),
			slog.String("path", r.URL.Path),
			slog.String("format", req.Format),
			slog.String("param_value", req.ParamValue),
			slog.Int("bytes", len(body)))

		if *delay > 0 {
			time.Sleep(*delay)
		}

		if *failEvery > 0 && n%int64(*failEvery) == 0 {
			writeError(w, http.StatusInternalServerError, "simulated failure")
			return
		}

		data, err := buildWorkbook(id, r.URL.Path, req)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/convert-invoice-to-excel", convert)
	mux.HandleFunc("POST /api/convert-po-to-excel", convert)

	addr := fmt.Sprintf("localhost:%d", *port)
	log.Info("Starting fake conversion service", slog.String("address", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("Server failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func buildWorkbook(id, path string, req conversionRequest) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	source := req.OCRJSON
	if source == "" {
		source = req.POJSON
	}

	rows := [][]any{
		{"Request", id},
		{"Endpoint", path},
		{"Format", req.Format},
		{"ParamValue", req.ParamValue},
		{"SourceBytes", len(source)},
		{"GeneratedAt", time.Now().Format(time.RFC3339)},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
