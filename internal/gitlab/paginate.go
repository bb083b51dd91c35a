package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
)

// DefaultPageSize is the page size used when none is given
const DefaultPageSize = 20

// pagination headers
const (
	totalHeader      = "X-Total"
	totalPagesHeader = "X-Total-Pages"
)

// DataSet is one item of a paginated resource
type DataSet[T any] struct {
	Payload T
	Index   int // 0-based position across all pages
	Total   int // item count reported by the server
}

// MapDataSet converts the payload of a DataSet and keeps its position
func MapDataSet[T, V any](set DataSet[T], fn func(T) V) DataSet[V] {
	return DataSet[V]{Payload: fn(set.Payload), Index: set.Index, Total: set.Total}
}

// Paginate streams all items of a paginated resource.
//
// Nothing is requested before the first item is pulled, and the next page is
// requested only after every item of the current page was yielded. A failing
// request is yielded once as error and ends the sequence. Ranging again
// restarts from the first page.
func Paginate[T any](ctx context.Context, c *Client, resource string, opts *CallOptions, pageSize int) iter.Seq2[DataSet[T], error] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return func(yield func(DataSet[T], error) bool) {
		for page := 1; ; page++ {
			items, total, totalPages, err := fetchPage[T](ctx, c, resource, opts, page, pageSize)
			if err != nil {
				yield(DataSet[T]{}, err)
				return
			}
			for i, item := range items {
				set := DataSet[T]{
					Payload: item,
					Index:   (page-1)*pageSize + i,
					Total:   total,
				}
				if !yield(set, nil) {
					return
				}
			}
			// X-Total-Pages is 0 for empty collections
			if page >= totalPages {
				return
			}
		}
	}
}

func fetchPage[T any](ctx context.Context, c *Client, resource string, opts *CallOptions, page, pageSize int) ([]T, int, int, error) {
	pageOpts := CallOptions{Params: url.Values{}}
	if opts != nil {
		pageOpts.Body = opts.Body
		pageOpts.Headers = opts.Headers
		for k, v := range opts.Params {
			pageOpts.Params[k] = v
		}
	}
	pageOpts.Params.Set("page", strconv.Itoa(page))
	pageOpts.Params.Set("per_page", strconv.Itoa(pageSize))

	if err := ctx.Err(); err != nil {
		return nil, 0, 0, err
	}
	resp, err := c.do(ctx, http.MethodGet, resource, &pageOpts)
	if err != nil {
		return nil, 0, 0, err
	}

	var items []T
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &items); err != nil {
			return nil, 0, 0, fmt.Errorf("failed to decode page %d of %s: %w", page, resource, err)
		}
	}

	// servers may omit the headers for single page results
	total := headerInt(resp.Header, totalHeader, len(items))
	totalPages := headerInt(resp.Header, totalPagesHeader, page)
	return items, total, totalPages, nil
}

func headerInt(header http.Header, key string, fallback int) int {
	value := header.Get(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

// Take pulls at most n items and stops the sequence right after the n-th one
func Take[T any](seq iter.Seq2[DataSet[T], error], n int) ([]DataSet[T], error) {
	result := make([]DataSet[T], 0, n)
	if n <= 0 {
		return result, nil
	}
	for set, err := range seq {
		if err != nil {
			return nil, err
		}
		result = append(result, set)
		if len(result) == n {
			break
		}
	}
	return result, nil
}

// Payloads drains a sequence and keeps only the payloads
func Payloads[T any](seq iter.Seq2[DataSet[T], error]) ([]T, error) {
	var result []T
	for set, err := range seq {
		if err != nil {
			return nil, err
		}
		result = append(result, set.Payload)
	}
	return result, nil
}

// mapSeq applies fn to every payload of seq
func mapSeq[T, V any](seq iter.Seq2[DataSet[T], error], fn func(T) V) iter.Seq2[DataSet[V], error] {
	return func(yield func(DataSet[V], error) bool) {
		for set, err := range seq {
			if err != nil {
				yield(DataSet[V]{}, err)
				return
			}
			if !yield(MapDataSet(set, fn), nil) {
				return
			}
		}
	}
}
