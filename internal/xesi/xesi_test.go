package xesi_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ErikKalkoken/structurewatch/internal/xesi"
)

func makeResponse(pages string) *http.Response {
	r := &http.Response{Header: http.Header{}}
	if pages != "" {
		r.Header.Set("X-Pages", pages)
	}
	return r
}

func TestFetchWithPaging(t *testing.T) {
	t.Run("should return single page", func(t *testing.T) {
		got, err := xesi.FetchWithPaging(func(page int) ([]int, *http.Response, error) {
			return []int{1, 2}, makeResponse(""), nil
		})
		if assert.NoError(t, err) {
			assert.Equal(t, []int{1, 2}, got)
		}
	})
	t.Run("should combine all pages in order", func(t *testing.T) {
		got, err := xesi.FetchWithPaging(func(page int) ([]int, *http.Response, error) {
			return []int{page}, makeResponse("3"), nil
		})
		if assert.NoError(t, err) {
			assert.Equal(t, []int{1, 2, 3}, got)
		}
	})
	t.Run("should return error from any page", func(t *testing.T) {
		myErr := errors.New("failed")
		_, err := xesi.FetchWithPaging(func(page int) ([]int, *http.Response, error) {
			if page == 2 {
				return nil, nil, myErr
			}
			return []int{page}, makeResponse("2"), nil
		})
		assert.ErrorIs(t, err, myErr)
	})
}
