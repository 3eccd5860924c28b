// Loadtest sends concurrent conversion requests to the relay and reports
// throughput, latency percentiles and the outcome per status code.
//
// Usage:
//
//	go run ./scripts/loadtest -concurrency 10 -requests 200
//	go run ./scripts/loadtest -url http://localhost:8000/api/convert-po-to-excel -body '{"poJson":"{}","format":"SO"}' -out summary.json
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type statusStats struct {
	Count     int
	Latencies []time.Duration
}

type statusSummary struct {
	Count int     `json:"count"`
	P50   float64 `json:"p50_ms"`
	P95   float64 `json:"p95_ms"`
	P99   float64 `json:"p99_ms"`
}

func main() {
	var (
		url         = flag.String("url", "http://localhost:8000/api/convert-invoice-to-excel", "Target URL")
		concurrency = flag.Int("concurrency", 10, "Number of concurrent workers")
		requests    = flag.Int("requests", 100, "Total number of requests to send")
		body        = flag.String("body", `{"ocrJson":"{\"invoiceNo\":\"AB-12345678\"}","format":"406"}`, "Request body")
		timeout     = flag.Duration("timeout", 35*time.Second, "Per-request timeout")
		outJSON     = flag.String("out", "", "Write JSON summary to this file (optional)")
		verbose     = flag.Bool("v", false, "Verbose per-request logging to stdout")
	)
	flag.Parse()

	client := &http.Client{Timeout: *timeout}

	jobs := make(chan int)
	var wg sync.WaitGroup

	var success, failure, transport atomic.Int32

	stats := make(map[int]*statusStats)
	var mu sync.Mutex

	testStart := time.Now()

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range jobs {
				start := time.Now()
				resp, err := client.Post(*url, "application/json", bytes.NewBufferString(*body))
				dur := time.Since(start)

				if err != nil {
					transport.Add(1)
					if *verbose {
						fmt.Printf("[%d] idx=%d error=%v\n", workerID, idx, err)
					}
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()

				if resp.StatusCode == http.StatusOK {
					success.Add(1)
				} else {
					failure.Add(1)
				}

				mu.Lock()
				s, ok := stats[resp.StatusCode]
				if !ok {
					s = &statusStats{}
					stats[resp.StatusCode] = s
				}
				s.Count++
				s.Latencies = append(s.Latencies, dur)
				mu.Unlock()

				if *verbose {
					fmt.Printf("[%d] idx=%d status=%d file=%q dur=%v\n",
						workerID, idx, resp.StatusCode, resp.Header.Get("Content-Disposition"), dur)
				}
			}
		}(i)
	}

	go func() {
		for i := 0; i < *requests; i++ {
			jobs <- i
		}
		close(jobs)
	}()

	wg.Wait()
	total := time.Since(testStart)

	fmt.Println("--- Load Test Summary ---")
	fmt.Printf("Target: %s\n", *url)
	fmt.Printf("Requests: %d  Concurrency: %d\n", *requests, *concurrency)
	fmt.Printf("Success: %d  Failure: %d  Transport errors: %d\n", success.Load(), failure.Load(), transport.Load())
	fmt.Printf("Duration: %v  Throughput: %.2f req/s\n", total, float64(*requests)/total.Seconds())

	codes := make([]int, 0, len(stats))
	for code := range stats {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	summary := make(map[string]statusSummary, len(codes))
	fmt.Println("\nBy status:")
	for _, code := range codes {
		s := stats[code]
		sorted := append([]time.Duration(nil), s.Latencies...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		sum := statusSummary{
			Count: s.Count,
			P50:   ms(percentile(sorted, 0.50)),
			P95:   ms(percentile(sorted, 0.95)),
			P99:   ms(percentile(sorted, 0.99)),
		}
		summary[fmt.Sprint(code)] = sum
		fmt.Printf("  %d -> %d  p50=%.1fms p95=%.1fms p99=%.1fms\n", code, sum.Count, sum.P50, sum.P95, sum.P99)
	}

	if *outJSON != "" {
		report := map[string]any{
			"target":           *url,
			"requests":         *requests,
			"concurrency":      *concurrency,
			"success":          success.Load(),
			"failure":          failure.Load(),
			"transport_errors": transport.Load(),
			"duration_ms":      total.Milliseconds(),
			"statuses":         summary,
		}

		f, err := os.Create(*outJSON)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create json file: %v\n", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		enc.Encode(report)
		f.Close()
		fmt.Printf("\nWrote JSON summary to %s\n", *outJSON)
	}

	if failure.Load() > 0 || transport.Load() > 0 {
		os.Exit(2)
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
