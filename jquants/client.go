/*
Copyright 2022

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package jquants

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"go.uber.org/ratelimit"
)

const (
	// DefaultBaseURL is the J-Quants V2 API root.
	DefaultBaseURL = "https://api.jquants.com/v2"

	// DefaultRateLimit is the number of follow-up pages requested per
	// second while draining a paginated feed (2/s keeps the spacing the
	// vendor asks for on every plan tier).
	DefaultRateLimit = 2

	// paramDate is the compact form required in from/to query parameters.
	paramDate = "20060102"

	requestTimeout = 30 * time.Second
)

// Client fetches feeds from the J-Quants V2 API. V2 authentication is a
// static API key in the x-api-key header on every request; there is no
// token negotiation or refresh. The zero value is not usable; construct
// with NewClient and release with Close.
type Client struct {
	http  *resty.Client
	pager ratelimit.Limiter
}

func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rate := cfg.RateLimit
	if rate <= 0 {
		rate = DefaultRateLimit
	}
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("x-api-key", cfg.APIKey).
			SetTimeout(requestTimeout),
		pager: ratelimit.New(rate),
	}
}

// Close releases the client's pooled connections.
func (c *Client) Close() {
	c.http.GetClient().CloseIdleConnections()
}

// fetch GETs an endpoint and follows pagination_key continuation until the
// feed is drained, returning the merged response object. List-valued fields
// are concatenated across pages in arrival order; scalar fields take the
// value from the latest page. Follow-up pages are paced by the rate
// limiter. Any non-success status aborts the fetch; there is no retry.
func (c *Client) fetch(ctx context.Context, endpoint string, params map[string]string) (map[string]interface{}, error) {
	merged := map[string]interface{}{}
	token := ""

	for page := 0; ; page++ {
		if page > 0 {
			c.pager.Take()
		}

		req := c.http.R().SetContext(ctx).SetQueryParams(params)
		if token != "" {
			req.SetQueryParam("pagination_key", token)
		}

		resp, err := req.Get(endpoint)
		if err != nil {
			log.Error().Err(err).Str("Endpoint", endpoint).Msg("error when requesting feed")
			return nil, fmt.Errorf("get %s: %w", endpoint, err)
		}
		if resp.StatusCode() >= 400 {
			log.Error().Int("StatusCode", resp.StatusCode()).Str("Endpoint", endpoint).Bytes("Body", resp.Body()).Msg("error when requesting feed")
			return nil, fmt.Errorf("get %s: unexpected status %d", endpoint, resp.StatusCode())
		}

		var body map[string]interface{}
		if err := json.Unmarshal(resp.Body(), &body); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", endpoint, err)
		}

		token = ""
		for key, value := range body {
			if key == "pagination_key" {
				token, _ = value.(string)
				continue
			}
			if list, ok := value.([]interface{}); ok {
				prev, _ := merged[key].([]interface{})
				merged[key] = append(prev, list...)
			} else {
				merged[key] = value
			}
		}

		if token == "" {
			return merged, nil
		}
		log.Debug().Str("Endpoint", endpoint).Int("Page", page+1).Msg("following pagination_key")
	}
}

// decodeItems pulls the row list out of a merged response and decodes it
// into out (a pointer to a record slice). Depending on response shape the
// rows live under the feed-specific key or the generic "data" key; if
// neither is populated out is left empty.
func decodeItems(merged map[string]interface{}, feedKey string, out interface{}) error {
	items, ok := merged[feedKey].([]interface{})
	if !ok || len(items) == 0 {
		items, _ = merged["data"].([]interface{})
	}
	if len(items) == 0 {
		return nil
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("re-encode %s items: %w", feedKey, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s items: %w", feedKey, err)
	}
	return nil
}

// rangeParams builds the shared {code, from, to} parameter set; zero-value
// inputs are omitted from the request entirely.
func rangeParams(code string, from, to time.Time) map[string]string {
	params := map[string]string{}
	if code != "" {
		params["code"] = code
	}
	if !from.IsZero() {
		params["from"] = from.Format(paramDate)
	}
	if !to.IsZero() {
		params["to"] = to.Format(paramDate)
	}
	return params
}

// ListedStocks fetches the full security master. The feed is not
// time-ranged; one call returns every listed security.
func (c *Client) ListedStocks(ctx context.Context) ([]*StockRecord, error) {
	merged, err := c.fetch(ctx, "/equities/master", nil)
	if err != nil {
		return nil, err
	}
	var stocks []*StockRecord
	if err := decodeItems(merged, "equities_master", &stocks); err != nil {
		return nil, err
	}
	return stocks, nil
}

// DailyQuotes fetches daily bars. An empty code requests the whole market;
// zero dates leave the range open on that side.
func (c *Client) DailyQuotes(ctx context.Context, code string, from, to time.Time) ([]*QuoteRecord, error) {
	merged, err := c.fetch(ctx, "/equities/bars/daily", rangeParams(code, from, to))
	if err != nil {
		return nil, err
	}
	var quotes []*QuoteRecord
	if err := decodeItems(merged, "equities_bars_daily", &quotes); err != nil {
		return nil, err
	}
	return quotes, nil
}

// FinancialSummaries fetches financial disclosure summaries. An empty code
// requests all issuers; zero dates leave the range open on that side.
func (c *Client) FinancialSummaries(ctx context.Context, code string, from, to time.Time) ([]*FinancialRecord, error) {
	merged, err := c.fetch(ctx, "/fins/summary", rangeParams(code, from, to))
	if err != nil {
		return nil, err
	}
	var summaries []*FinancialRecord
	if err := decodeItems(merged, "fins_summary", &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}
