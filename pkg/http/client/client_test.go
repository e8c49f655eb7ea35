package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBuildsQueryString(t *testing.T) {
	t.Parallel()

	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := New(Options{BaseURL: server.URL})

	query := url.Values{}
	query.Set("lat", "53.28")
	query.Set("lon", "-3.83")

	resp, err := c.Get(context.Background(), "/v3", query)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "53.28", gotQuery.Get("lat"))
	assert.Equal(t, "-3.83", gotQuery.Get("lon"))
}

func TestGetJSONDecodes(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"heights":[{"dt":1748736000,"height":3.2}]}`))
	}))
	defer server.Close()

	c := New(Options{BaseURL: server.URL})

	var out struct {
		Heights []struct {
			DT     int64   `json:"dt"`
			Height float64 `json:"height"`
		} `json:"heights"`
	}
	require.NoError(t, c.GetJSON(context.Background(), "/v3", nil, &out))
	require.Len(t, out.Heights, 1)
	assert.Equal(t, 3.2, out.Heights[0].Height)
}

func TestGetJSONStatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := New(Options{BaseURL: server.URL})

	var out map[string]any
	err := c.GetJSON(context.Background(), "/v3", nil, &out)
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
}

func TestGetRetriesTransportErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			// Drop the first connection mid-flight.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			_ = conn.Close()
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := New(Options{BaseURL: server.URL, MaxRetries: 3})

	resp, err := c.Get(context.Background(), "/", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), hits.Load())
}

func TestGetHonoursContext(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	c := New(Options{BaseURL: server.URL, MaxRetries: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx, "/", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(ctx.Err(), context.DeadlineExceeded))
}
