package gitlab

import (
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	N int `json:"n"`
}

// pagedServer serves total items under /api/v4/test and records the requested URIs
type pagedServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []string
}

func newPagedServer(t *testing.T, total int) *pagedServer {
	t.Helper()
	ps := &pagedServer{}
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps.mu.Lock()
		ps.requests = append(ps.requests, r.URL.RequestURI())
		ps.mu.Unlock()

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
		totalPages := (total + perPage - 1) / perPage

		items := []item{}
		for i := (page - 1) * perPage; i < total && i < page*perPage; i++ {
			items = append(items, item{N: i})
		}
		w.Header().Set("X-Total", strconv.Itoa(total))
		w.Header().Set("X-Total-Pages", strconv.Itoa(totalPages))
		_ = json.NewEncoder(w).Encode(items)
	}))
	t.Cleanup(ps.Close)
	return ps
}

func (ps *pagedServer) requestCount() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return len(ps.requests)
}

func newTestClient(t *testing.T, host string) *Client {
	t.Helper()
	c, err := NewClient(StaticConfig(host, "secret"))
	require.NoError(t, err)
	return c
}

// drain pulls every item of seq
func drain[T any](seq iter.Seq2[DataSet[T], error]) ([]DataSet[T], error) {
	var result []DataSet[T]
	for set, err := range seq {
		if err != nil {
			return nil, err
		}
		result = append(result, set)
	}
	return result, nil
}

func TestPaginate_LazyDemand(t *testing.T) {
	tests := []struct {
		take         int
		wantRequests int
	}{
		{take: 20, wantRequests: 1},
		{take: 25, wantRequests: 2},
		{take: 50, wantRequests: 3},
	}
	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.take), func(t *testing.T) {
			server := newPagedServer(t, 100)
			c := newTestClient(t, server.URL)

			sets, err := Take(Paginate[item](context.Background(), c, "test", nil, 20), tt.take)

			require.NoError(t, err)
			require.Len(t, sets, tt.take)
			assert.Equal(t, tt.wantRequests, server.requestCount())
			assert.Equal(t, "/api/v4/test?page=1&per_page=20", server.requests[0])
		})
	}
}

func TestPaginate_StopsAtLastPage(t *testing.T) {
	tests := []struct {
		name string
		pull func(seq iter.Seq2[DataSet[item], error]) ([]DataSet[item], error)
	}{
		{"take", func(seq iter.Seq2[DataSet[item], error]) ([]DataSet[item], error) { return Take(seq, 50) }},
		{"drain", drain[item]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newPagedServer(t, 50)
			c := newTestClient(t, server.URL)

			sets, err := tt.pull(Paginate[item](context.Background(), c, "test", nil, 20))

			require.NoError(t, err)
			require.Len(t, sets, 50)
			assert.Equal(t, 49, sets[49].Index)
			assert.Equal(t, 50, sets[49].Total)
			assert.Equal(t, []string{
				"/api/v4/test?page=1&per_page=20",
				"/api/v4/test?page=2&per_page=20",
				"/api/v4/test?page=3&per_page=20",
			}, server.requests)
		})
	}
}

func TestPaginate_NoRequestBeforeFirstPull(t *testing.T) {
	server := newPagedServer(t, 5)
	c := newTestClient(t, server.URL)

	_ = Paginate[item](context.Background(), c, "test", nil, 20)

	assert.Zero(t, server.requestCount())
}

func TestPaginate_Completeness(t *testing.T) {
	server := newPagedServer(t, 45)
	c := newTestClient(t, server.URL)

	sets, err := drain(Paginate[item](context.Background(), c, "test", nil, 20))

	require.NoError(t, err)
	require.Len(t, sets, 45)
	for i, set := range sets {
		assert.Equal(t, i, set.Index)
		assert.Equal(t, i, set.Payload.N)
		assert.Equal(t, 45, set.Total)
	}
	assert.Equal(t, 3, server.requestCount())
}

func TestPaginate_EmptyCollection(t *testing.T) {
	server := newPagedServer(t, 0)
	c := newTestClient(t, server.URL)

	sets, err := drain(Paginate[item](context.Background(), c, "test", nil, 20))

	require.NoError(t, err)
	assert.Empty(t, sets)
	assert.Equal(t, 1, server.requestCount())
}

func TestPaginate_MissingHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"n":1},{"n":2}]`))
	}))
	defer server.Close()
	c := newTestClient(t, server.URL)

	sets, err := drain(Paginate[item](context.Background(), c, "test", nil, 20))

	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, 2, sets[1].Total)
}

func TestPaginate_ErrorEndsSequence(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("page") == "2" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("X-Total", "4")
		w.Header().Set("X-Total-Pages", "2")
		_, _ = w.Write([]byte(`[{"n":0},{"n":1}]`))
	}))
	defer server.Close()
	c := newTestClient(t, server.URL)

	var (
		items  int
		errors []error
	)
	for _, err := range Paginate[item](context.Background(), c, "test", nil, 2) {
		if err != nil {
			errors = append(errors, err)
			continue
		}
		items++
	}

	assert.Equal(t, 2, items)
	require.Len(t, errors, 1)
	assert.Equal(t, http.StatusInternalServerError, StatusCode(errors[0]))
	assert.Equal(t, 2, calls)
}

func TestPaginate_CancelledContext(t *testing.T) {
	server := newPagedServer(t, 10)
	c := newTestClient(t, server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := drain(Paginate[item](ctx, c, "test", nil, 20))

	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, server.requestCount())
}

func TestPaginate_KeepsCallerParams(t *testing.T) {
	server := newPagedServer(t, 1)
	c := newTestClient(t, server.URL)
	opts := &CallOptions{Params: map[string][]string{"state": {"opened"}}}

	_, err := drain(Paginate[item](context.Background(), c, "test", opts, 20))

	require.NoError(t, err)
	assert.Equal(t, "/api/v4/test?page=1&per_page=20&state=opened", server.requests[0])
	assert.Len(t, opts.Params, 1)
}
