// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

package feedcache

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"
)

// NullFetcher returns an empty feed; used when no upstream is configured.
func NullFetcher(context.Context, string, string, int) ([]Event, error) {
	return []Event{}, nil
}

// NewHTTPFetcher builds a Fetcher that queries the upstream event source at
// baseURL. The upstream contract is GET /events?category=&location=&limit=
// returning a JSON array of event records.
func NewHTTPFetcher(baseURL string, client *http.Client) Fetcher {
	if client == nil {
		client = http.DefaultClient
	}

	return func(ctx context.Context, category, location string, limit int) ([]Event, error) {
		q := url.Values{}
		q.Set("category", category)
		if location != "" {
			q.Set("location", location)
		}
		q.Set("limit", strconv.Itoa(limit))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/events?"+q.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("build upstream request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("upstream fetch: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("upstream fetch: unexpected status %d", resp.StatusCode)
		}

		var events []Event
		if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
			return nil, fmt.Errorf("decode upstream response: %w", err)
		}
		return events, nil
	}
}
