package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/metafetch/internal/apierr"
	"github.com/MrSnakeDoc/metafetch/internal/config"
	"github.com/MrSnakeDoc/metafetch/internal/details"
	"github.com/MrSnakeDoc/metafetch/internal/logger"
	"github.com/MrSnakeDoc/metafetch/internal/service"
)

func TestMain(m *testing.M) {
	logger.UseTestMode()
	os.Exit(m.Run())
}

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...service.Options) *Client {
	t.Helper()
	srv := httptest.NewTLSServer(h)
	t.Cleanup(srv.Close)

	o := service.Options{UserAgent: "metafetch/test"}
	if len(opts) > 0 {
		o = opts[0]
	}
	o.Transport = srv.Client().Transport

	c, err := New(config.APIConfig{BaseURL: srv.URL + "/ws/api"}, WithHTTPClient(service.NewHTTPClient(o)))
	require.NoError(t, err)
	return c
}

func TestFetchLastUpdateTime_SendsOutputSelector(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		_, _ = w.Write([]byte(`{"ack":"Success","updateTime":"2024-01-01T00:00:00Z"}`))
	})

	ts, err := c.FetchLastUpdateTime(context.Background(), details.NewQuery("de"))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ts.UTC())

	require.NotNil(t, got)
	assert.Equal(t, "/ws/api/details", got.URL.Path)
	assert.Equal(t, "UpdateTime", got.URL.Query().Get("outputSelector"))
	assert.Equal(t, "DE", got.URL.Query().Get("site"))
	assert.Equal(t, []string{"ReturnPolicyDetails", "ShippingLocationDetails", "ShippingServiceDetails"},
		got.URL.Query()["detailName"])
	assert.Equal(t, "metafetch/test", got.Header.Get("User-Agent"))
}

func TestFetchFullPayload(t *testing.T) {
	var selector atomic.Value
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		selector.Store(r.URL.Query().Get("outputSelector"))
		_, _ = w.Write([]byte(`{
			"ack": "Warning",
			"errors": [{"errorCode": "21917053", "severityCode": "Warning", "shortMessage": "deprecated"}],
			"updateTime": "2024-03-02T10:11:12Z",
			"shippingLocationDetails": [{"shippingLocation": "Worldwide", "description": "Worldwide"}],
			"shippingServiceDetails": [{"shippingServiceID": 1, "shippingService": "USPSPriority"}]
		}`))
	})

	d, err := c.FetchFullPayload(context.Background(), details.NewQuery("US"))
	require.NoError(t, err)
	assert.Equal(t, "", selector.Load())
	assert.Len(t, d.ShippingLocations, 1)
	assert.Equal(t, "USPSPriority", d.ShippingServices[0].Name)
	assert.Equal(t, time.Date(2024, 3, 2, 10, 11, 12, 0, time.UTC), d.UpdatedAt().UTC())
}

func TestBearerToken(t *testing.T) {
	var auth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"ack":"Success","updateTime":"2024-01-01T00:00:00Z"}`))
	}, service.Options{Token: "s3cr3t"})

	_, err := c.FetchLastUpdateTime(context.Background(), details.NewQuery("US"))
	require.NoError(t, err)
	assert.Equal(t, "Bearer s3cr3t", auth)
}

func TestErrorMapping(t *testing.T) {
	t.Run("server error wraps transport error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"ack":"Failure","errors":[{"errorCode":"10007","severityCode":"Error"}]}`))
		})

		_, err := c.FetchLastUpdateTime(context.Background(), details.NewQuery("US"))
		apiErr, ok := err.(*apierr.APIError)
		require.True(t, ok, "got %T", err)
		httpErr, ok := apiErr.Err.(*apierr.HTTPError)
		require.True(t, ok, "got cause %T", apiErr.Err)
		assert.Equal(t, 500, httpErr.StatusCode)
		require.Len(t, apiErr.Errors, 1)
		assert.Equal(t, "10007", apiErr.Errors[0].Code)
	})

	t.Run("non json error body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "bad gateway", http.StatusBadGateway)
		})

		_, err := c.FetchFullPayload(context.Background(), details.NewQuery("US"))
		code, ok := apierr.StatusCode(err)
		require.True(t, ok)
		assert.Equal(t, 502, code)
		assert.Empty(t, err.(*apierr.APIError).Errors)
	})

	t.Run("ack failure is an api error without transport cause", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"ack":"Failure","errors":[{"errorCode":"931","severityCode":"Error","shortMessage":"Auth token is invalid."}]}`))
		})

		_, err := c.FetchFullPayload(context.Background(), details.NewQuery("US"))
		apiErr, ok := err.(*apierr.APIError)
		require.True(t, ok, "got %T", err)
		assert.Nil(t, apiErr.Err)
		assert.Contains(t, err.Error(), "931")
	})

	t.Run("undecodable body is an sdk error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>maintenance</html>`))
		})

		_, err := c.FetchFullPayload(context.Background(), details.NewQuery("US"))
		k, ok := apierr.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, apierr.KindSDK, k)
	})

	t.Run("missing update time is an sdk error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"ack":"Success"}`))
		})

		_, err := c.FetchLastUpdateTime(context.Background(), details.NewQuery("US"))
		k, _ := apierr.KindOf(err)
		assert.Equal(t, apierr.KindSDK, k)
	})
}

func TestTimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, service.Options{Timeout: 50 * time.Millisecond})
	defer close(release)

	_, err := c.FetchLastUpdateTime(context.Background(), details.NewQuery("US"))
	apiErr, ok := err.(*apierr.APIError)
	require.True(t, ok, "got %T: %v", err, err)
	httpErr, ok := apiErr.Err.(*apierr.HTTPError)
	require.True(t, ok)
	assert.Zero(t, httpErr.StatusCode)
}

func TestCancelledContextIsReturnedAsIs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ack":"Success","updateTime":"2024-01-01T00:00:00Z"}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchLastUpdateTime(ctx, details.NewQuery("US"))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNew_RequiresHTTPS(t *testing.T) {
	_, err := New(config.APIConfig{BaseURL: "http://api.example.com"})
	assert.Error(t, err)

	_, err = New(config.APIConfig{BaseURL: ""})
	assert.Error(t, err)
}
