// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// Pacer spaces outgoing requests with a token bucket so paginated fetches
// stay inside the upstream polite-pool limits. It issues each request once;
// any status, including 429, is returned to the caller unchanged.
//
// A nil *Pacer sends requests without waiting.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer returns a Pacer allowing perSecond requests per second with a
// burst of one. A non-positive rate returns nil, which disables pacing.
func NewPacer(perSecond float64) *Pacer {
	if perSecond <= 0 {
		return nil
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

// Do waits for a token and then executes req with client. If ctx is
// cancelled while waiting, Do returns ctx.Err() without sending.
func (p *Pacer) Do(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	if p != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for request slot: %w", err)
		}
	}
	return client.Do(req.WithContext(ctx))
}
