package domain

import "fmt"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageRequest is a 1-based page window.
type PageRequest struct {
	Page  int
	Limit int
}

func NewPageRequest(page, limit int) (PageRequest, error) {
	if page == 0 {
		page = DefaultPage
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if page < 1 {
		return PageRequest{}, fmt.Errorf("%w: page must be >= 1", ErrInvalidInput)
	}
	if limit < 1 || limit > MaxLimit {
		return PageRequest{}, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidInput, MaxLimit)
	}
	return PageRequest{Page: page, Limit: limit}, nil
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is one window of a listing plus the navigation fields clients expect.
type Page[T any] struct {
	Docs        []T  `json:"docs"`
	TotalDocs   int  `json:"totalDocs"`
	Limit       int  `json:"limit"`
	Page        int  `json:"page"`
	TotalPages  int  `json:"totalPages"`
	HasPrevPage bool `json:"hasPrevPage"`
	HasNextPage bool `json:"hasNextPage"`
	PrevPage    *int `json:"prevPage"`
	NextPage    *int `json:"nextPage"`
}

func NewPage[T any](docs []T, total int, req PageRequest) Page[T] {
	if docs == nil {
		docs = []T{}
	}
	totalPages := 0
	if req.Limit > 0 {
		totalPages = (total + req.Limit - 1) / req.Limit
	}
	p := Page[T]{
		Docs:       docs,
		TotalDocs:  total,
		Limit:      req.Limit,
		Page:       req.Page,
		TotalPages: totalPages,
	}
	if req.Page > 1 {
		prev := req.Page - 1
		p.HasPrevPage = true
		p.PrevPage = &prev
	}
	if req.Page < totalPages {
		next := req.Page + 1
		p.HasNextPage = true
		p.NextPage = &next
	}
	return p
}

// MapPage converts the docs of a page while keeping its navigation fields.
func MapPage[T, U any](in Page[T], fn func(T) U) Page[U] {
	docs := make([]U, 0, len(in.Docs))
	for _, d := range in.Docs {
		docs = append(docs, fn(d))
	}
	return Page[U]{
		Docs:        docs,
		TotalDocs:   in.TotalDocs,
		Limit:       in.Limit,
		Page:        in.Page,
		TotalPages:  in.TotalPages,
		HasPrevPage: in.HasPrevPage,
		HasNextPage: in.HasNextPage,
		PrevPage:    in.PrevPage,
		NextPage:    in.NextPage,
	}
}
