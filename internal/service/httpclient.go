package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/MrSnakeDoc/metafetch/internal/utils"
)

// DefaultMaxBodySize bounds every response body read through ReadBody.
const DefaultMaxBodySize = 64 << 20

var ErrBodyTooLarge = errors.New("response body exceeds size limit")

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type DefaultHTTPClient struct{ *http.Client }

type Options struct {
	Timeout   time.Duration
	UserAgent string

	// Token, when set, is sent as a bearer token on every request.
	Token string

	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

func NewHTTPClient(opts Options) *DefaultHTTPClient {
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if opts.UserAgent != "" {
		base = &userAgentRoundTripper{Wrapped: base, UserAgent: opts.UserAgent}
	}
	if opts.Token != "" {
		base = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"}),
			Base:   base,
		}
	}
	return &DefaultHTTPClient{Client: &http.Client{Timeout: opts.Timeout, Transport: base}}
}

// userAgentRoundTripper sets the User-Agent header on a clone of each request.
type userAgentRoundTripper struct {
	Wrapped   http.RoundTripper
	UserAgent string
}

func (rt *userAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", rt.UserAgent)
	return rt.Wrapped.RoundTrip(clone)
}

// Get issues a GET for url and returns the response. The caller closes the body.
func Get(ctx context.Context, c HTTPClient, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	return c.Do(req)
}

// ReadBody reads at most maxSize bytes of resp's body, gunzipping it when the
// server compressed it, and closes it.
func ReadBody(resp *http.Response, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxBodySize
	}
	rc, err := utils.MaybeGunzip(resp.Body)
	if err != nil {
		utils.Try(resp.Body.Close)
		return nil, fmt.Errorf("decompress body: %w", err)
	}
	defer utils.Try(rc.Close)

	b, err := io.ReadAll(io.LimitReader(rc, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > maxSize {
		return nil, ErrBodyTooLarge
	}
	return b, nil
}
