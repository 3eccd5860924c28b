package upstream_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/monzo/terrors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/invoice-relay/internal/upstream"
)

type payload struct {
	OCRJSON    string `json:"ocrJson"`
	Format     string `json:"format"`
	ParamValue string `json:"paramValue"`
}

var _ = Describe("Client", func() {
	var (
		server   *httptest.Server
		client   *upstream.Client
		received []byte
		path     string
		ctype    string
		reply    func(w http.ResponseWriter, r *http.Request)
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		reply = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("xlsx-bytes"))
		}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received, _ = io.ReadAll(r.Body)
			path = r.URL.Path
			ctype = r.Header.Get("Content-Type")
			reply(w, r)
		}))
		client = upstream.New(mustParseURL(server.URL), 2*time.Second)
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("Convert", func() {
		It("should forward the payload as JSON to the same path", func() {
			data, err := client.Convert(ctx, "/api/convert-invoice-to-excel", payload{OCRJSON: "{}", Format: "406", ParamValue: "AUTO"})
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("xlsx-bytes")))
			Expect(path).To(Equal("/api/convert-invoice-to-excel"))
			Expect(ctype).To(Equal("application/json"))
			Expect(received).To(MatchJSON(`{"ocrJson": "{}", "format": "406", "paramValue": "AUTO"}`))
		})

		It("should return the body byte for byte", func() {
			wb := buildWorkbook("Detail")
			reply = func(w http.ResponseWriter, r *http.Request) {
				w.Write(wb)
			}
			data, err := client.Convert(ctx, "/api/convert-invoice-to-excel", payload{})
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal(wb))
		})

		It("should record the response time without touching reachability", func() {
			_, err := client.Convert(ctx, "/api/convert-invoice-to-excel", payload{})
			Expect(err).NotTo(HaveOccurred())
			Expect(client.Status().EWMAResponse()).To(BeNumerically(">", 0))
			Expect(client.Status().Checked()).To(BeFalse())
		})

		It("should send a fresh request for every call", func() {
			calls := 0
			reply = func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.Write([]byte("ok"))
			}
			for i := 0; i < 2; i++ {
				_, err := client.Convert(ctx, "/api/convert-invoice-to-excel", payload{})
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(calls).To(Equal(2))
		})

		Context("when the service rejects the payload", func() {
			BeforeEach(func() {
				reply = func(w http.ResponseWriter, r *http.Request) {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{"error": "Conversion failed: bad row"})
				}
			})

			It("should return an internal_service error naming status and message", func() {
				_, err := client.Convert(ctx, "/api/convert-invoice-to-excel", payload{})
				Expect(err).To(HaveOccurred())
				Expect(terrors.PrefixMatches(err, terrors.ErrInternalService)).To(BeTrue())
				terr := err.(*terrors.Error)
				Expect(terr.Message).To(Equal("Error: conversion service responded with 500 Internal Server Error: Conversion failed: bad row"))
			})
		})

		Context("when the service answers with plain text", func() {
			BeforeEach(func() {
				reply = func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusBadRequest)
					w.Write([]byte(strings.Repeat("x", 300)))
				}
			})

			It("should truncate the detail", func() {
				_, err := client.Convert(ctx, "/api/convert-po-to-excel", payload{})
				terr := err.(*terrors.Error)
				Expect(terr.Message).To(HavePrefix("Error: conversion service responded with 400 Bad Request: xxx"))
				Expect(terr.Message).To(HaveSuffix("..."))
			})
		})

		Context("when the service is not running", func() {
			It("should return service_unavailable with the address and start hint", func() {
				addr := mustParseURL(server.URL).Host
				server.Close()

				_, err := client.Convert(ctx, "/api/convert-invoice-to-excel", payload{})
				Expect(err).To(HaveOccurred())
				Expect(terrors.PrefixMatches(err, upstream.ErrServiceUnavailable)).To(BeTrue())
				terr := err.(*terrors.Error)
				Expect(terr.Message).To(Equal("Cannot connect to local Functions host on " + addr + ". Make sure Functions are running: func host start"))
				Expect(client.Status().Checked()).To(BeFalse())
			})
		})

		Context("when the service is too slow", func() {
			BeforeEach(func() {
				reply = func(w http.ResponseWriter, r *http.Request) {
					select {
					case <-r.Context().Done():
					case <-time.After(2 * time.Second):
					}
				}
				client = upstream.New(mustParseURL(server.URL), 50*time.Millisecond)
			})

			It("should give up after the timeout and report the service unavailable", func() {
				start := time.Now()
				_, err := client.Convert(ctx, "/api/convert-invoice-to-excel", payload{})
				Expect(time.Since(start)).To(BeNumerically("<", time.Second))
				Expect(terrors.PrefixMatches(err, upstream.ErrServiceUnavailable)).To(BeTrue())
			})
		})

		Context("when the payload cannot be encoded", func() {
			It("should return an internal_service error", func() {
				_, err := client.Convert(ctx, "/api/convert-invoice-to-excel", map[string]any{"bad": make(chan int)})
				Expect(terrors.PrefixMatches(err, terrors.ErrInternalService)).To(BeTrue())
			})
		})
	})

	Describe("Probe", func() {
		It("should succeed against a listening service", func() {
			Expect(client.Probe(ctx, time.Second)).To(Succeed())
		})

		It("should fail once the service stops", func() {
			server.Close()
			err := client.Probe(ctx, time.Second)
			Expect(err).To(HaveOccurred())
			Expect(upstream.IsUnreachable(err)).To(BeTrue())
		})
	})

	Describe("Address", func() {
		It("should return host and port", func() {
			c := upstream.New(mustParseURL("http://localhost:7071"), time.Second)
			Expect(c.Address()).To(Equal("localhost:7071"))
			Expect(c.URL().String()).To(Equal("http://localhost:7071"))
		})
	})
})

func mustParseURL(rawURL string) *url.URL {
	u, err := url.Parse(rawURL)
	if err != nil {
		panic(err)
	}
	return u
}
