// Package rest talks to a PostgREST compatible backend (such as a hosted
// Supabase project) over HTTP.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/utafrali/storefront/internal/store"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
)

// Config holds the REST backend settings.
type Config struct {
	BaseURL string
	APIKey  string
	// Schema selects a non-default schema through Accept-Profile and
	// Content-Profile. Empty uses the server default.
	Schema string
}

// Doer sends HTTP requests. *httpclient.CircuitBreakerClient satisfies it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client implements store.Client against /rest/v1.
type Client struct {
	cfg    Config
	http   Doer
	tracer database.QueryTracer
	logger *slog.Logger
}

var _ store.Client = (*Client)(nil)

// New creates a Client. The base URL must not carry the /rest/v1 suffix.
func New(cfg Config, doer Doer, tracer database.QueryTracer, logger *slog.Logger) (*Client, error) {
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid store base url %q: %w", cfg.BaseURL, err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if tracer.System == "" {
		tracer.System = "postgrest"
	}
	return &Client{cfg: cfg, http: doer, tracer: tracer, logger: logger}, nil
}

// Select implements store.Client.
func (c *Client) Select(ctx context.Context, collection string, q store.Query) (recs []store.Record, err error) {
	params := url.Values{}
	params.Set("select", "*")
	if err := addFilters(params, q.Filters); err != nil {
		return nil, err
	}
	if q.Order != nil {
		dir := "asc"
		if q.Order.Desc {
			dir = "desc"
		}
		params.Set("order", q.Order.Column+"."+dir)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	ctx, end := c.tracer.Start(ctx, "select", collection, params.Encode())
	defer func() { end(err) }()

	err = c.do(ctx, http.MethodGet, collection, params, nil, false, &recs)
	return recs, err
}

// Insert implements store.Client.
func (c *Client) Insert(ctx context.Context, collection string, rec store.Record) (out store.Record, err error) {
	ctx, end := c.tracer.Start(ctx, "insert", collection, "")
	defer func() { end(err) }()

	var recs []store.Record
	if err = c.do(ctx, http.MethodPost, collection, nil, rec, true, &recs); err != nil {
		return nil, err
	}
	if len(recs) != 1 {
		err = fmt.Errorf("insert %s: expected 1 row back, got %d", collection, len(recs))
		return nil, err
	}
	return recs[0], nil
}

// Update implements store.Client.
func (c *Client) Update(ctx context.Context, collection string, patch store.Record, filters ...store.Filter) (recs []store.Record, err error) {
	if err := store.RequireFilters("update", collection, filters); err != nil {
		return nil, err
	}
	params := url.Values{}
	if err := addFilters(params, filters); err != nil {
		return nil, err
	}

	ctx, end := c.tracer.Start(ctx, "update", collection, params.Encode())
	defer func() { end(err) }()

	err = c.do(ctx, http.MethodPatch, collection, params, patch, true, &recs)
	return recs, err
}

// Delete implements store.Client.
func (c *Client) Delete(ctx context.Context, collection string, filters ...store.Filter) (n int, err error) {
	if err := store.RequireFilters("delete", collection, filters); err != nil {
		return 0, err
	}
	params := url.Values{}
	if err := addFilters(params, filters); err != nil {
		return 0, err
	}

	ctx, end := c.tracer.Start(ctx, "delete", collection, params.Encode())
	defer func() { end(err) }()

	var recs []store.Record
	err = c.do(ctx, http.MethodDelete, collection, params, nil, true, &recs)
	return len(recs), err
}

// Ping fetches at most one product.
func (c *Client) Ping(ctx context.Context) error {
	params := url.Values{"select": {"product_id"}, "limit": {"1"}}
	var recs []store.Record
	return c.do(ctx, http.MethodGet, store.Products, params, nil, false, &recs)
}

func (c *Client) do(ctx context.Context, method, collection string, params url.Values, body any, returning bool, dst any) error {
	endpoint := c.cfg.BaseURL + "/rest/v1/" + url.PathEscape(collection)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader = http.NoBody
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: marshal body: %w", method, collection, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s %s: build request: %w", method, collection, err)
	}
	req.Header.Set("apikey", c.cfg.APIKey)
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if returning {
		req.Header.Set("Prefer", "return=representation")
	}
	if c.cfg.Schema != "" {
		req.Header.Set("Accept-Profile", c.cfg.Schema)
		req.Header.Set("Content-Profile", c.cfg.Schema)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return apperrors.RemoteStore(method+" "+collection, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classify(method+" "+collection, httpclient.ParseResponseError(resp, "store"))
	}
	defer func() { _ = resp.Body.Close() }()

	if dst == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil && err != io.EOF {
		return fmt.Errorf("%s %s: decode response: %w", method, collection, err)
	}
	return nil
}

// addFilters encodes filters in PostgREST's column=op.value syntax.
func addFilters(params url.Values, filters []store.Filter) error {
	for _, f := range filters {
		var v string
		switch f.Op {
		case store.OpEq, store.OpNeq:
			v = string(f.Op) + "." + fmt.Sprint(f.Value)
		case store.OpIn:
			v = "in.(" + joinQuoted(f.Value) + ")"
		case store.OpContains:
			v = "cs.{" + joinQuoted(f.Value) + "}"
		default:
			return fmt.Errorf("unsupported filter operator %q", f.Op)
		}
		params.Add(f.Column, v)
	}
	return nil
}

// joinQuoted renders a list for in.() and cs.{} filters, quoting elements
// that contain separators.
func joinQuoted(v any) string {
	var items []string
	switch vs := v.(type) {
	case []string:
		items = vs
	default:
		items = []string{fmt.Sprint(vs)}
	}

	out := make([]string, len(items))
	for i, s := range items {
		if strings.ContainsAny(s, `,(){}" `) {
			s = `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
		}
		out[i] = s
	}
	return strings.Join(out, ",")
}

// classify keeps a unique violation as a conflict. Any other non-2xx answer
// is a failed store call: a 404 means a missing relation, not a missing row,
// and a 401 or 403 is the service's key, not the shopper's session.
func classify(op string, err error) error {
	if errors.Is(err, apperrors.ErrConflict) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return apperrors.RemoteStore(op, err)
}
