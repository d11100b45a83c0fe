package library

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"
)

const (
	totalBooksPath  = "api/stats/total-books"
	totalTopicsPath = "api/stats/total-topics"
)

// Totals fetches the dashboard counters concurrently.
func (c *Client) Totals(ctx context.Context) (Totals, error) {
	var totals Totals
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := c.fetchCount(gctx, totalBooksPath)
		totals.Books = n
		return err
	})
	g.Go(func() error {
		n, err := c.fetchCount(gctx, totalTopicsPath)
		totals.Topics = n
		return err
	})
	if err := g.Wait(); err != nil {
		return Totals{}, fmt.Errorf("fetch totals: %w", err)
	}
	return totals, nil
}

// fetchCount accepts a bare number or an object carrying the count under
// one of the usual keys, optionally wrapped in "data".
func (c *Client) fetchCount(ctx context.Context, path string) (int, error) {
	body, err := c.do(ctx, request{method: http.MethodGet, rel: &url.URL{Path: path}})
	if err != nil {
		return 0, err
	}
	return decodeCount(body)
}

func decodeCount(body []byte) (int, error) {
	body = bytes.TrimSpace(body)
	var n int
	if err := json.Unmarshal(body, &n); err == nil {
		return n, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrDecode, err)
	}
	for _, key := range []string{"data", "total", "count", "totalBooks", "totalTopics"} {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		if n, err := decodeCount(raw); err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: no count in %s", ErrDecode, body)
}
