// Package server builds the HTTP and gRPC servers of the vending machine.
package server

import (
	"fmt"
	"net/http"
	"net/http/pprof"

	"github.com/abgdnv/vendingmachine/internal/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const httpOperation = "vending-http"

// NewHTTPServer creates the REST server. Every request is traced with otelhttp.
func NewHTTPServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           otelhttp.NewHandler(handler, httpOperation),
		ReadTimeout:       cfg.Timeout.Read,
		WriteTimeout:      cfg.Timeout.Write,
		IdleTimeout:       cfg.Timeout.Idle,
		ReadHeaderTimeout: cfg.Timeout.ReadHeader,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}

// NewPProfServer serves the runtime profiles on a mux of their own.
func NewPProfServer(cfg config.PProfConfig, httpCfg config.HTTPConfig) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: httpCfg.Timeout.ReadHeader,
	}
}
