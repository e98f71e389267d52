package priceoracle_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ErlanBelekov/dist-job-scheduler/internal/priceoracle"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHTTPOracle_GetPrices_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"intra-day": {"2016-07-06T10:00:00": 39.6},
			"day-ahead": {"2016-07-07T10:00:00": 36.5}
		}`))
	}))
	defer srv.Close()

	o := priceoracle.NewHTTPOracle(srv.URL, time.Second, discardLogger())
	curve, err := o.GetPrices(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if curve == nil {
		t.Fatal("expected a curve, got nil")
	}
	if len(curve.IntraDay) != 1 || len(curve.DayAhead) != 1 {
		t.Fatalf("unexpected curve shape: %+v", curve)
	}
}

func TestHTTPOracle_GetPrices_ServerError_ReturnsNilNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	o := priceoracle.NewHTTPOracle(srv.URL, time.Second, discardLogger())
	curve, err := o.GetPrices(context.Background())
	if err != nil {
		t.Fatalf("expected no error on oracle failure, got %v", err)
	}
	if curve != nil {
		t.Fatalf("expected nil curve on server error, got %+v", curve)
	}
}

func TestHTTPOracle_GetPrices_MalformedBody_ReturnsNilNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	o := priceoracle.NewHTTPOracle(srv.URL, time.Second, discardLogger())
	curve, err := o.GetPrices(context.Background())
	if err != nil {
		t.Fatalf("expected no error on malformed body, got %v", err)
	}
	if curve != nil {
		t.Fatalf("expected nil curve on malformed body, got %+v", curve)
	}
}

func TestHTTPOracle_GetPrices_ContextCanceled_ReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := priceoracle.NewHTTPOracle(srv.URL, time.Second, discardLogger())
	_, err := o.GetPrices(ctx)
	if err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
}
