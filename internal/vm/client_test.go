package vm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	parsed, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse test server url: %v", err)
	}
	port, err := strconv.Atoi(parsed.Port())
	if err != nil {
		t.Fatalf("parse test server port: %v", err)
	}

	return NewClient(parsed.Hostname(), port, 5*time.Second), server
}

func TestQueryRangeParsesSamples(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/query_range" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "sensor.linky_index" {
			t.Errorf("query param = %q", got)
		}
		if got := r.URL.Query().Get("step"); got != "60" {
			t.Errorf("step param = %q", got)
		}
		w.Write([]byte(`{"status":"success","data":{"resultType":"matrix","result":[{"metric":{},"values":[[1718100000,"100.5"],[1718100060,"101"]]}]}}`))
	})

	samples, err := client.QueryRange(context.Background(), "sensor.linky_index",
		time.Unix(1718100000, 0), time.Unix(1718103600, 0), 60)
	if err != nil {
		t.Fatalf("QueryRange: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	if samples[0].Value != 100.5 || samples[1].Value != 101 {
		t.Errorf("values = %v, %v", samples[0].Value, samples[1].Value)
	}
	if samples[0].Time.Unix() != 1718100000 {
		t.Errorf("timestamp = %v", samples[0].Time.Unix())
	}
}

func TestQueryRangeEmptyResultIsNotAnError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{"resultType":"matrix","result":[]}}`))
	})

	samples, err := client.QueryRange(context.Background(), "missing",
		time.Unix(0, 0), time.Unix(3600, 0), 60)
	if err != nil {
		t.Fatalf("QueryRange: %v", err)
	}
	if len(samples) != 0 {
		t.Errorf("got %d samples, want none", len(samples))
	}
}

func TestQueryRangeBadStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	if _, err := client.QueryRange(context.Background(), "any",
		time.Unix(0, 0), time.Unix(3600, 0), 60); err == nil {
		t.Fatal("expected an error on HTTP 500")
	}
}

func TestQueryRangeMalformedPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{"result":[{"values":[["not-a-ts","1"]]}]}}`))
	})

	if _, err := client.QueryRange(context.Background(), "any",
		time.Unix(0, 0), time.Unix(3600, 0), 60); err == nil {
		t.Fatal("expected an error on malformed values")
	}
}

func TestInstantQuery(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/query" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":"success","data":{"resultType":"vector","result":[{"metric":{},"value":[1718100000,"42.5"]}]}}`))
	})

	value, ok, err := client.Query(context.Background(), "last_over_time(sensor.linky_index[1d] offset 1d)")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !ok {
		t.Fatal("expected a value")
	}
	if value != 42.5 {
		t.Errorf("value = %v, want 42.5", value)
	}
}

func TestInstantQueryNoData(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{"resultType":"vector","result":[]}}`))
	})

	_, ok, err := client.Query(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if ok {
		t.Error("expected no value")
	}
}
