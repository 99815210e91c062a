// Command tracereceiver is a minimal embedder of package receiver: it
// binds a listen address, serves Prometheus metrics on a second address,
// and runs until interrupted. It exists to give the receiver and metrics
// packages a runnable home, the same role the teacher's own binaries play
// for trace.StartServer.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/Unity-Technologies/trace-exporter-go/internal/log"
	"github.com/Unity-Technologies/trace-exporter-go/receiver"
)

func main() {
	listenAddr := pflag.String("listen", "127.0.0.1:4317", "address the trace receiver listens on")
	metricsAddr := pflag.String("metrics-listen", "127.0.0.1:9464", "address the Prometheus metrics endpoint listens on")
	stopTimeout := pflag.Duration("stop-timeout", 30*time.Second, "grace period for in-flight calls during shutdown")
	pflag.Parse()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{Addr: *metricsAddr, Handler: mux}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fail().MMap("tracereceiver: metrics server exited", "error", err)
		}
	}()

	recv, accepted := receiver.New(*listenAddr, nil).Start()
	log.Trace().MMap("tracereceiver: listening", "addr", *listenAddr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-accepted:
		if err != nil {
			log.Exit().MMap("tracereceiver: accept loop exited", "error", err)
		}
	case <-sig:
		log.Trace().MMap("tracereceiver: shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), *stopTimeout)
		defer cancel()
		if err := recv.Stop(ctx); err != nil {
			log.Warn().MMap("tracereceiver: stop did not complete cleanly", "error", err)
		}
		_ = metricsServer.Close()
	}
}
