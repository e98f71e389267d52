// Package priceoracle fetches the hourly energy price curve (C3) from an
// external market-price feed. Failures other than a cancelled or expired
// context never surface as an error to callers: the energy-aware
// placement policy treats an unavailable oracle
// as "no data" and falls back to its own default, matching the source
// scheduler's behaviour of logging and continuing rather than failing the
// DTW it was trying to place.
package priceoracle

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/ErlanBelekov/dist-job-scheduler/internal/domain"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/requestid"
)

// Oracle fetches the current intra-day/day-ahead price curve.
type Oracle interface {
	GetPrices(ctx context.Context) (*domain.PriceCurve, error)
}

type HTTPOracle struct {
	client *http.Client
	url    string
	logger *slog.Logger
}

func NewHTTPOracle(url string, timeout time.Duration, logger *slog.Logger) *HTTPOracle {
	return &HTTPOracle{
		url: url,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
		},
		logger: logger.With("component", "priceoracle"),
	}
}

// wireCurve is the documented on-wire shape: hour-keyed ISO8601 timestamps
// mapping to a price, split into today's intra-day feed and tomorrow's
// day-ahead feed.
type wireCurve struct {
	IntraDay map[string]float64 `json:"intra-day"`
	DayAhead map[string]float64 `json:"day-ahead"`
}

// GetPrices returns nil, nil when the oracle cannot be reached or its
// response cannot be parsed; it returns a non-nil error only for a
// cancelled/expired context, which the caller should treat as fatal to the
// current tick rather than as "prices unavailable".
func (o *HTTPOracle) GetPrices(ctx context.Context) (*domain.PriceCurve, error) {
	reqID := requestid.New()
	ctx = requestid.WithRequestID(ctx, reqID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.url, nil)
	if err != nil {
		o.logger.WarnContext(ctx, "build price oracle request failed", "error", err)
		return nil, nil
	}
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("price oracle request: %w", ctx.Err())
		}
		o.logger.WarnContext(ctx, "price oracle unreachable", "error", err)
		return nil, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		o.logger.WarnContext(ctx, "price oracle returned non-2xx", "status", resp.StatusCode)
		return nil, nil
	}

	var wire wireCurve
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		o.logger.WarnContext(ctx, "price oracle response unparseable", "error", err)
		return nil, nil
	}

	curve := &domain.PriceCurve{
		IntraDay: make(map[time.Time]float64, len(wire.IntraDay)),
		DayAhead: make(map[time.Time]float64, len(wire.DayAhead)),
	}
	for k, v := range wire.IntraDay {
		ts, err := time.ParseInLocation("2006-01-02T15:04:05", k, time.Local)
		if err != nil {
			o.logger.WarnContext(ctx, "price oracle intra-day key unparseable", "key", k, "error", err)
			return nil, nil
		}
		curve.IntraDay[ts] = v
	}
	for k, v := range wire.DayAhead {
		ts, err := time.ParseInLocation("2006-01-02T15:04:05", k, time.Local)
		if err != nil {
			o.logger.WarnContext(ctx, "price oracle day-ahead key unparseable", "key", k, "error", err)
			return nil, nil
		}
		curve.DayAhead[ts] = v
	}

	return curve, nil
}
