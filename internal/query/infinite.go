package query

import (
	"context"
	"encoding/json"
	"fmt"
)

// Pages is the state of an infinite query: the pages loaded so far in
// order, the cursor for the next page and whether the listing is exhausted.
type Pages[T any] struct {
	Pages      [][]T  `json:"pages"`
	NextCursor string `json:"nextCursor,omitempty"`
	Done       bool   `json:"done"`
}

// Items flattens the loaded pages.
func (p Pages[T]) Items() []T {
	var n int
	for _, page := range p.Pages {
		n += len(page)
	}
	items := make([]T, 0, n)
	for _, page := range p.Pages {
		items = append(items, page...)
	}
	return items
}

// Infinite describes how an infinite query loads its pages.
type Infinite[T any] struct {
	Key      Key
	PageSize int
	// Fetch loads the page after cursor; an empty cursor is the first page.
	Fetch func(ctx context.Context, cursor string) ([]T, error)
	// Cursor returns the cursor value of an item, usually its id.
	Cursor func(T) string
}

func (q Infinite[T]) appendPage(p Pages[T], page []T) Pages[T] {
	if len(page) > 0 {
		p.Pages = append(p.Pages, page)
		p.NextCursor = q.Cursor(page[len(page)-1])
	}
	p.Done = len(page) == 0 || len(page) < q.PageSize
	return p
}

// LoadPages returns the loaded pages, fetching the first page when nothing
// is cached.
func LoadPages[T any](ctx context.Context, c *Client, q Infinite[T]) (Pages[T], error) {
	return Fetch(ctx, c, q.Key, func(ctx context.Context) (Pages[T], error) {
		page, err := q.Fetch(ctx, "")
		if err != nil {
			return Pages[T]{}, err
		}
		return q.appendPage(Pages[T]{Pages: [][]T{}}, page), nil
	})
}

// FetchNextPage loads the page after the last loaded item and appends it.
// Once a short or empty page has been seen the listing is returned as is.
func FetchNextPage[T any](ctx context.Context, c *Client, q Infinite[T]) (Pages[T], error) {
	current, err := LoadPages(ctx, c, q)
	if err != nil {
		return current, err
	}
	if current.Done {
		return current, nil
	}

	gen := c.generation(q.Key.Name)
	flight := flightKey(q.Key.String()+"#next#"+current.NextCursor, gen)
	raw, err := c.do(ctx, flight, func(ctx context.Context) ([]byte, error) {
		page, err := q.Fetch(ctx, current.NextCursor)
		if err != nil {
			return nil, err
		}
		next := q.appendPage(current, page)
		raw, err := json.Marshal(next)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", q.Key, err)
		}
		c.write(ctx, q.Key, gen, raw)
		return raw, nil
	})
	if err != nil {
		return current, err
	}

	var out Pages[T]
	if err := json.Unmarshal(raw, &out); err != nil {
		return current, fmt.Errorf("decode %s: %w", q.Key, err)
	}
	return out, nil
}
