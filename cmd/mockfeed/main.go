// Command mockfeed serves a generated GISTDA hotspot feed for local runs.
// Point GISTDA_ENDPOINT at it and set GISTDA_KEY to the -key value.
//
// Usage:
//
//	go run ./cmd/mockfeed -addr :9090 -total 2400 -key local
//	GISTDA_ENDPOINT=http://localhost:9090/ GISTDA_KEY=local hotspot run --container folder-1
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/couchcryptid/hotspot-etl/internal/adapter/gistda/gistdatest"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	addr := flag.String("addr", ":9090", "listen address")
	total := flag.Int("total", 2400, "number of hotspots in the feed (negative for an endless feed)")
	key := flag.String("key", "", "required api_key value (empty accepts any)")
	reportTotal := flag.Bool("report-total", false, "set numberMatched on every page")
	failAt := flag.Int("fail-at", -1, "answer -fail-status at this offset")
	failStatus := flag.Int("fail-status", http.StatusBadGateway, "status used with -fail-at")
	flag.Parse()

	if *failAt >= 0 && (*failStatus < 400 || *failStatus > 599) {
		return fmt.Errorf("-fail-status must be an HTTP error status, got %d", *failStatus)
	}

	feed := &gistdatest.Feed{
		Total:       *total,
		ReportTotal: *reportTotal,
		Key:         *key,
	}
	if *failAt >= 0 {
		feed.FailAtOffset = *failAt
		feed.FailStatus = *failStatus
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           logRequests(feed),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("serving %d hotspots on %s", *total, *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		log.Printf("%s offset=%s limit=%s", r.Method, q.Get("offset"), q.Get("limit"))
		next.ServeHTTP(w, r)
	})
}
