package pkg

import (
	"net/http"
	"strconv"
	"time"

	"print-roll-console/internal/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/ratelimit"
)

// NewHTTPClient returns a client whose requests are limited to perSecond calls
// per second and tagged with a fresh X-Request-ID. perSecond <= 0 disables the
// limit.
func NewHTTPClient(timeout time.Duration, perSecond int) *http.Client {
	limiter := ratelimit.NewUnlimited()
	if perSecond > 0 {
		limiter = ratelimit.New(perSecond)
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &limitedTransport{
			next:    http.DefaultTransport,
			limiter: limiter,
		},
	}
}

type limitedTransport struct {
	next    http.RoundTripper
	limiter ratelimit.Limiter
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.limiter.Take()

	req = req.Clone(req.Context())
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}

	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	metrics.APIRequestDuration.WithLabelValues(req.Method, status).Observe(time.Since(start).Seconds())
	return resp, err
}
