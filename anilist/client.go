package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/animecal/schema"
)

const (
	// DefaultEndpoint is the public AniList GraphQL endpoint
	DefaultEndpoint = "https://graphql.anilist.co"
	// DefaultTimeout bounds a single page request
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent identifies requests to AniList
	DefaultUserAgent = "animecal"

	maxResponseBytes = 8 << 20
	maxErrorBody     = 512
)

var responseSchema = schema.Strict[mediaResponse]{}

// Client fetches single pages of upcoming movies
type Client struct {
	endpoint   string
	userAgent  string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new AniList client
func NewClient(logger zerolog.Logger, opts ...Option) (*Client, error) {
	o := clientOptions{
		endpoint:  DefaultEndpoint,
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(&o)
	}

	u, err := url.Parse(o.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid AniList endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid AniList endpoint %q: scheme must be http or https", o.endpoint)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid AniList endpoint %q: missing host", o.endpoint)
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: o.timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				ForceAttemptHTTP2:   true,
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}

	return &Client{
		endpoint:   strings.TrimRight(o.endpoint, "/"),
		userAgent:  o.userAgent,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "anilist").Logger(),
	}, nil
}

// FetchPage requests one page of upcoming movies and validates the response
func (c *Client) FetchPage(ctx context.Context, page int) (PageEnvelope, error) {
	if page < 1 {
		return PageEnvelope{}, fmt.Errorf("%w: %d", ErrInvalidPage, page)
	}

	body, err := c.doRequest(ctx, page)
	if err != nil {
		return PageEnvelope{}, err
	}

	resp, err := responseSchema.Decode(body)
	if err != nil {
		return PageEnvelope{}, &ShapeError{Page: page, Err: err}
	}
	if resp.Data == nil {
		return PageEnvelope{}, &EmptyResultError{Page: page, Messages: errorMessages(resp.Errors)}
	}

	env := PageEnvelope{
		Media:       resp.Data.Page.Media,
		HasNextPage: *resp.Data.Page.PageInfo.HasNextPage,
	}

	c.logger.Debug().
		Int("page", page).
		Int("count", len(env.Media)).
		Bool("has_next_page", env.HasNextPage).
		Msg("Fetched AniList page")

	return env, nil
}

// doRequest posts the page query and returns the body of a 2xx response
func (c *Client) doRequest(ctx context.Context, page int) ([]byte, error) {
	payload, err := json.Marshal(newPageRequest(page))
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Page: page, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Page: page, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Page: page, StatusCode: resp.StatusCode, Status: resp.Status, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug().
			Int("page", page).
			Int("status", resp.StatusCode).
			Msg("AniList request failed")
		return nil, &TransportError{
			Page:       page,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       truncate(string(body), maxErrorBody),
		}
	}

	return body, nil
}

// errorMessages extracts messages from a GraphQL errors array, ignoring
// anything that does not parse
func errorMessages(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var errs []graphQLError
	if err := json.Unmarshal(raw, &errs); err != nil {
		return nil
	}
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.Message != "" {
			messages = append(messages, e.Message)
		}
	}
	return messages
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
