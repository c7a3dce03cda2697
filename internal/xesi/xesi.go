// Package xesi contains extensions to the goesi package.
package xesi

import (
	"context"
	"net/http"
	"slices"
	"strconv"

	"github.com/antihax/goesi"
	"golang.org/x/sync/errgroup"
)

// NewContextWithToken returns a context that authenticates ESI requests with an access token.
func NewContextWithToken(ctx context.Context, accessToken string) context.Context {
	return context.WithValue(ctx, goesi.ContextAccessToken, accessToken)
}

// FetchWithPaging returns the combined list of items from all pages of an ESI endpoint.
// This only works for ESI endpoints which support the X-Pages pattern and return a list.
func FetchWithPaging[T any](fetch func(page int) ([]T, *http.Response, error)) ([]T, error) {
	result, r, err := fetch(1)
	if err != nil {
		return nil, err
	}
	pages, err := extractPageCount(r)
	if err != nil {
		return nil, err
	}
	if pages < 2 {
		return result, nil
	}
	results := make([][]T, pages)
	results[0] = result
	g := new(errgroup.Group)
	for p := 2; p <= pages; p++ {
		g.Go(func() error {
			result, _, err := fetch(p)
			if err != nil {
				return err
			}
			results[p-1] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	combined := make([]T, 0)
	for _, result := range results {
		combined = slices.Concat(combined, result)
	}
	return combined, nil
}

func extractPageCount(r *http.Response) (int, error) {
	x := r.Header.Get("X-Pages")
	if x == "" {
		return 1, nil
	}
	return strconv.Atoi(x)
}
