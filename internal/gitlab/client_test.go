package gitlab

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_NoConfigProvider(t *testing.T) {
	c, err := NewClient(nil)

	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrNoConfigProvider)
}

func TestCall_SendsTokenAndDecodes(t *testing.T) {
	var gotToken, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("PRIVATE-TOKEN")
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"n":7}`))
	}))
	defer server.Close()
	c := newTestClient(t, server.URL+"/")

	got, err := Call[item](context.Background(), c, "things/1", "", nil)

	require.NoError(t, err)
	assert.Equal(t, item{N: 7}, got)
	assert.Equal(t, "secret", gotToken)
	assert.Equal(t, "/api/v4/things/1", gotPath)
}

func TestCall_ProviderConsultedPerRequest(t *testing.T) {
	var tokens []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokens = append(tokens, r.Header.Get("PRIVATE-TOKEN"))
	}))
	defer server.Close()

	token := "first"
	c, err := NewClient(ConfigProviderFunc(func() Config {
		return Config{Host: server.URL, Token: token}
	}))
	require.NoError(t, err)

	_, err = Call[struct{}](context.Background(), c, "a", "", nil)
	require.NoError(t, err)
	token = "second"
	_, err = Call[struct{}](context.Background(), c, "a", "", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, tokens)
}

func TestCall_JSONBody(t *testing.T) {
	var (
		contentType string
		body        map[string]string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()
	c := newTestClient(t, server.URL)

	_, err := Call[struct{}](context.Background(), c, "a", http.MethodPost, &CallOptions{
		Body:    map[string]string{"name": "bug"},
		Headers: map[string]string{"X-Extra": "1"},
	})

	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, map[string]string{"name": "bug"}, body)
}

func TestTelemetry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v4/missing" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()
	c := newTestClient(t, server.URL)

	var (
		accesses []Access
		failures []AccessError
	)
	c.OnAccess(func(a Access) { accesses = append(accesses, a) })
	c.OnError(func(e AccessError) { failures = append(failures, e) })

	_, err := Call[struct{}](context.Background(), c, "present", "", nil)
	require.NoError(t, err)
	_, err = Call[struct{}](context.Background(), c, "missing", http.MethodDelete, nil)
	require.Error(t, err)

	require.Len(t, accesses, 1)
	assert.Equal(t, Access{Method: http.MethodGet, Resource: "present", StatusCode: http.StatusOK}, accesses[0])
	require.Len(t, failures, 1)
	assert.Equal(t, http.MethodDelete, failures[0].Method)
	assert.Equal(t, "missing", failures[0].Resource)
	assert.Equal(t, http.StatusNotFound, failures[0].Status)
	assert.Equal(t, err, failures[0].Err)
}

func TestTelemetry_NetworkErrorHasZeroStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	host := server.URL
	server.Close()
	c := newTestClient(t, host)

	var failures []AccessError
	c.OnError(func(e AccessError) { failures = append(failures, e) })

	_, err := Call[struct{}](context.Background(), c, "a", "", nil)

	require.Error(t, err)
	require.Len(t, failures, 1)
	assert.Zero(t, failures[0].Status)
	assert.Zero(t, StatusCode(err))
}
