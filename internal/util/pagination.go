package util

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Window is a 1-based page of a listing, resolved to the offset a query needs.
type Window struct {
	Page   int
	Size   int
	Offset int
}

// NewWindow clamps page to [1, last page whose offset fits an int] and falls
// back to DefaultPageSize for a size outside 1..MaxPageSize.
func NewWindow(page, size int) Window {
	w := Window{Page: page, Size: size}
	if w.Size < 1 || w.Size > MaxPageSize {
		w.Size = DefaultPageSize
	}
	lastPage := math.MaxInt/w.Size + 1
	switch {
	case w.Page < 1:
		w.Page = 1
	case w.Page > lastPage:
		w.Page = lastPage
	}
	w.Offset = (w.Page - 1) * w.Size
	return w
}

func TotalPages(total int64, size int) int64 {
	if size <= 0 {
		return 0
	}
	return (total + int64(size) - 1) / int64(size)
}
