package core

import (
	"bytes"
	"context"
	"encoding/json"
	"iter"
	"reflect"
)

const (
	CursorStartAfter   = "start_after"
	CursorEndingBefore = "ending_before"
)

// PageFetcher re-issues the listing operation that produced a page. Positional
// arguments (application id, event id) are captured by the closure; only the
// filters change between pages.
type PageFetcher[T Identifiable] func(ctx context.Context, filters map[string]string) (*Page[T], error)

// Page is one page of a cursor-paginated listing. It is immutable: moving to
// another page always returns a new value.
type Page[T Identifiable] struct {
	items   []T
	hasMore bool
	filters map[string]string
	fetch   PageFetcher[T]
}

func NewPage[T Identifiable](items []T, hasMore bool, filters map[string]string, fetch PageFetcher[T]) *Page[T] {
	return &Page[T]{
		items:   append([]T(nil), items...),
		hasMore: hasMore,
		filters: cloneFilters(filters),
		fetch:   fetch,
	}
}

type pageEnvelope[T any] struct {
	Data    []T  `json:"data"`
	HasMore bool `json:"has_more"`
}

// DecodePage builds a page from a list response body.
func DecodePage[T Identifiable](body []byte, filters map[string]string, fetch PageFetcher[T]) (*Page[T], error) {
	var envelope pageEnvelope[T]
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, invalidJSONError(body, err)
		}
	}
	for i := range envelope.Data {
		normalizeModel(&envelope.Data[i])
	}
	return NewPage(envelope.Data, envelope.HasMore, filters, fetch), nil
}

func (p *Page[T]) HasMore() bool {
	return p != nil && p.hasMore
}

// Items returns a copy of the page's items.
func (p *Page[T]) Items() []T {
	if p == nil {
		return nil
	}
	return append([]T(nil), p.items...)
}

func (p *Page[T]) Len() int {
	if p == nil {
		return 0
	}
	return len(p.items)
}

func (p *Page[T]) Empty() bool {
	return p.Len() == 0
}

func (p *Page[T]) First() (T, bool) {
	var zero T
	if p.Empty() {
		return zero, false
	}
	return p.items[0], true
}

func (p *Page[T]) Last() (T, bool) {
	var zero T
	if p.Empty() {
		return zero, false
	}
	return p.items[len(p.items)-1], true
}

// All yields the items of this page in order. It never fetches.
func (p *Page[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		if p == nil {
			return
		}
		for _, item := range p.items {
			if !yield(item) {
				return
			}
		}
	}
}

// Filters returns a copy of the filters this page was fetched with.
func (p *Page[T]) Filters() map[string]string {
	if p == nil {
		return map[string]string{}
	}
	return cloneFilters(p.filters)
}

// Equal compares items and has_more. Filters and the fetch binding are not
// part of a page's identity.
func (p *Page[T]) Equal(other *Page[T]) bool {
	if p == nil || other == nil {
		return p == other
	}
	if p.hasMore != other.hasMore || len(p.items) != len(other.items) {
		return false
	}
	return reflect.DeepEqual(p.items, other.items)
}

// NextPage fetches the page after this one. It returns nil, nil when the page
// is empty and the server reported no more results.
func (p *Page[T]) NextPage(ctx context.Context) (*Page[T], error) {
	if p == nil || (!p.hasMore && len(p.items) == 0) {
		return nil, nil
	}
	filters := cloneFilters(p.filters)
	delete(filters, CursorEndingBefore)
	if last, ok := p.Last(); ok {
		filters[CursorStartAfter] = last.ListID()
	}
	return p.fetchWith(ctx, filters)
}

// PrevPage fetches the page before this one. It returns nil, nil when the page
// is empty.
func (p *Page[T]) PrevPage(ctx context.Context) (*Page[T], error) {
	first, ok := p.First()
	if !ok {
		return nil, nil
	}
	filters := cloneFilters(p.filters)
	delete(filters, CursorStartAfter)
	filters[CursorEndingBefore] = first.ListID()
	return p.fetchWith(ctx, filters)
}

func (p *Page[T]) fetchWith(ctx context.Context, filters map[string]string) (*Page[T], error) {
	if p.fetch == nil {
		return nil, NewUsageError("page is not bound to a listing operation")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return p.fetch(ctx, filters)
}

func (p *Page[T]) MarshalJSON() ([]byte, error) {
	data := p.Items()
	if data == nil {
		data = []T{}
	}
	return json.Marshal(pageEnvelope[T]{Data: data, HasMore: p.HasMore()})
}

func cloneFilters(filters map[string]string) map[string]string {
	out := make(map[string]string, len(filters))
	for key, value := range filters {
		out[key] = value
	}
	return out
}
