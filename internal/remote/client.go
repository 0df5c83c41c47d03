// Package remote is the HTTP JSON client of the details API.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MrSnakeDoc/metafetch/internal/apierr"
	"github.com/MrSnakeDoc/metafetch/internal/config"
	"github.com/MrSnakeDoc/metafetch/internal/details"
	"github.com/MrSnakeDoc/metafetch/internal/logger"
	"github.com/MrSnakeDoc/metafetch/internal/service"
	"github.com/MrSnakeDoc/metafetch/internal/utils"
	"github.com/MrSnakeDoc/metafetch/internal/version"
)

const (
	detailsPath = "details"

	// OutputSelectorUpdateTime narrows a details response to its timestamp.
	OutputSelectorUpdateTime = "UpdateTime"

	ackFailure = "Failure"
)

type Client struct {
	base        *url.URL
	http        service.HTTPClient
	maxBodySize int64
}

type Option func(*Client)

// WithHTTPClient replaces the client built from the API configuration.
func WithHTTPClient(c service.HTTPClient) Option {
	return func(cl *Client) { cl.http = c }
}

func WithMaxBodySize(n int64) Option {
	return func(cl *Client) { cl.maxBodySize = n }
}

func New(cfg config.APIConfig, opts ...Option) (*Client, error) {
	base, err := utils.ParseSecureURL(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("api base url: %w", err)
	}
	c := &Client{
		base:        base,
		maxBodySize: service.DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = service.NewHTTPClient(service.Options{
			Timeout:   cfg.Timeout,
			UserAgent: version.UserAgent(),
			Token:     cfg.Token,
		})
	}
	return c, nil
}

// FetchLastUpdateTime asks only for the update time of the sections q selects.
func (c *Client) FetchLastUpdateTime(ctx context.Context, q details.Query) (time.Time, error) {
	var probe struct {
		UpdateTime time.Time `json:"updateTime"`
	}
	if err := c.call(ctx, q, OutputSelectorUpdateTime, &probe); err != nil {
		return time.Time{}, err
	}
	if probe.UpdateTime.IsZero() {
		return time.Time{}, apierr.SDK("update time missing from response", nil)
	}
	return probe.UpdateTime, nil
}

func (c *Client) FetchFullPayload(ctx context.Context, q details.Query) (details.Details, error) {
	var d details.Details
	if err := c.call(ctx, q, "", &d); err != nil {
		return details.Details{}, err
	}
	return d, nil
}

// envelope is the status part shared by every response.
type envelope struct {
	Ack    string               `json:"ack"`
	Errors []apierr.ErrorDetail `json:"errors"`
}

func (c *Client) call(ctx context.Context, q details.Query, outputSelector string, out any) error {
	u := c.requestURL(q, outputSelector)
	logger.Debug("GET %s", u)

	resp, err := service.Get(ctx, c.http, u)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return ctxErr
		}
		return &apierr.APIError{Err: &apierr.HTTPError{Err: err}}
	}

	body, err := service.ReadBody(resp, c.maxBodySize)
	if err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &apierr.APIError{Err: &apierr.HTTPError{StatusCode: resp.StatusCode, Err: err}}
		}
		return &apierr.APIError{Err: &apierr.HTTPError{Err: err}}
	}

	var env envelope
	envErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apierr.APIError{Err: &apierr.HTTPError{StatusCode: resp.StatusCode, Body: body}}
		if envErr == nil {
			apiErr.Errors = env.Errors
		}
		return apiErr
	}

	if envErr != nil {
		return apierr.SDK("decode response envelope", envErr)
	}
	for _, d := range env.Errors {
		if d.Severity == apierr.SeverityWarning {
			logger.Debug("api warning %s: %s", d.Code, d.ShortMessage)
		}
	}
	if strings.EqualFold(env.Ack, ackFailure) || (&apierr.APIError{Errors: env.Errors}).HasErrors() {
		return &apierr.APIError{Errors: env.Errors}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return apierr.SDK("decode response", err)
	}
	return nil
}

func (c *Client) requestURL(q details.Query, outputSelector string) string {
	u := c.base.JoinPath(detailsPath)
	v := url.Values{}
	if q.Site != "" {
		v.Set("site", strings.ToUpper(q.Site))
	}
	for _, n := range q.EffectiveNames() {
		v.Add("detailName", string(n))
	}
	if outputSelector != "" {
		v.Set("outputSelector", outputSelector)
	}
	u.RawQuery = v.Encode()
	return u.String()
}
