package vm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linky_vm_queries_total",
		Help: "Queries issued against the VictoriaMetrics backend.",
	}, []string{"kind"})
	queryErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linky_vm_query_errors_total",
		Help: "Backend queries that failed or returned a malformed payload.",
	}, []string{"kind"})
)

// Client queries a VictoriaMetrics (Prometheus API compatible) backend.
type Client struct {
	host   string
	port   int
	client *http.Client
}

func NewClient(host string, port int, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		host: host,
		port: port,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// QueryRange fetches samples of one series over [start, end] at the given
// step resolution. Samples are returned in ascending time order. An empty
// result from the backend yields an empty slice, not an error.
func (c *Client) QueryRange(ctx context.Context, series string, start, end time.Time, step int) ([]Sample, error) {
	queriesTotal.WithLabelValues("range").Inc()

	if step <= 0 {
		step = 60
	}

	query := url.Values{}
	query.Set("query", series)
	query.Set("start", strconv.FormatInt(start.Unix(), 10))
	query.Set("end", strconv.FormatInt(end.Unix(), 10))
	query.Set("step", strconv.Itoa(step))

	endpoint := url.URL{
		Scheme:   "http",
		Host:     fmt.Sprintf("%s:%d", c.host, c.port),
		Path:     "/api/v1/query_range",
		RawQuery: query.Encode(),
	}

	var payload rangeResponse
	if err := c.get(ctx, endpoint.String(), &payload); err != nil {
		queryErrorsTotal.WithLabelValues("range").Inc()
		return nil, fmt.Errorf("query_range %q: %w", series, err)
	}

	if len(payload.Data.Result) == 0 {
		return nil, nil
	}

	values := payload.Data.Result[0].Values
	samples := make([]Sample, 0, len(values))
	for _, pair := range values {
		sample, err := decodeSample(pair[0], pair[1])
		if err != nil {
			queryErrorsTotal.WithLabelValues("range").Inc()
			return nil, fmt.Errorf("query_range %q: %w", series, err)
		}
		samples = append(samples, sample)
	}

	return samples, nil
}

// Query runs an instant query and returns the scalar value of the first
// result. The second return value reports whether the backend had a value.
func (c *Client) Query(ctx context.Context, expr string) (float64, bool, error) {
	queriesTotal.WithLabelValues("instant").Inc()

	query := url.Values{}
	query.Set("query", expr)

	endpoint := url.URL{
		Scheme:   "http",
		Host:     fmt.Sprintf("%s:%d", c.host, c.port),
		Path:     "/api/v1/query",
		RawQuery: query.Encode(),
	}

	var payload instantResponse
	if err := c.get(ctx, endpoint.String(), &payload); err != nil {
		queryErrorsTotal.WithLabelValues("instant").Inc()
		return 0, false, fmt.Errorf("query %q: %w", expr, err)
	}

	if len(payload.Data.Result) == 0 {
		return 0, false, nil
	}

	sample, err := decodeSample(payload.Data.Result[0].Value[0], payload.Data.Result[0].Value[1])
	if err != nil {
		queryErrorsTotal.WithLabelValues("instant").Inc()
		return 0, false, fmt.Errorf("query %q: %w", expr, err)
	}

	return sample.Value, true, nil
}

// Ping checks that the backend answers the Prometheus API at all.
func (c *Client) Ping(ctx context.Context) error {
	_, _, err := c.Query(ctx, "vm_app_version")
	return err
}

func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	return nil
}

// decodeSample turns one [ts, "value"] pair of the Prometheus API wire
// format into a Sample. Timestamps may carry sub-second precision.
func decodeSample(rawTS, rawValue interface{}) (Sample, error) {
	ts, ok := rawTS.(float64)
	if !ok {
		return Sample{}, fmt.Errorf("unexpected timestamp %v", rawTS)
	}

	str, ok := rawValue.(string)
	if !ok {
		return Sample{}, fmt.Errorf("unexpected value %v", rawValue)
	}

	value, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return Sample{}, fmt.Errorf("parse value %q: %w", str, err)
	}

	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return Sample{Time: time.Unix(sec, nsec), Value: value}, nil
}
