package query

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/petermazzocco/snapgram/internal/log"
	"golang.org/x/sync/singleflight"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// MutationState is the last observed state of a mutation within a scope.
type MutationState struct {
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type stateKey struct {
	mutation MutationName
	scope    string
}

// Client caches query results by key and applies the invalidation table
// after each successful mutation.
//
// Every query name carries a generation that an invalidation bumps. A fetch
// only writes its result back if the generation it started under is still
// current, so a slow fetch cannot restore data a mutation made stale.
type Client struct {
	cache Cache
	ttl   time.Duration
	group singleflight.Group

	mu          sync.Mutex
	generations map[QueryName]uint64
	states      map[stateKey]MutationState
	now         func() time.Time
}

func NewClient(cache Cache, ttl time.Duration) *Client {
	return &Client{
		cache:       cache,
		ttl:         ttl,
		generations: map[QueryName]uint64{},
		states:      map[stateKey]MutationState{},
		now:         time.Now,
	}
}

func (c *Client) generation(name QueryName) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[name]
}

// write stores raw under key unless key's query was invalidated after gen.
func (c *Client) write(ctx context.Context, key Key, gen uint64, raw []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[key.Name] != gen {
		log.Info.Printf("query %s: dropping result fetched before invalidation", key)
		return false
	}
	if err := c.cache.Set(ctx, key.String(), raw, c.ttl); err != nil {
		log.Warn.Printf("query cache set %s: %v", key, err)
		return false
	}
	return true
}

func (c *Client) read(ctx context.Context, key Key) ([]byte, bool) {
	raw, ok, err := c.cache.Get(ctx, key.String())
	if err != nil {
		log.Warn.Printf("query cache get %s: %v", key, err)
		return nil, false
	}
	return raw, ok
}

// Invalidate marks keys stale. A key also covers every key extending its
// arguments; a key without arguments covers the whole query.
func (c *Client) Invalidate(ctx context.Context, keys ...Key) {
	for _, key := range keys {
		c.mu.Lock()
		c.generations[key.Name]++
		c.mu.Unlock()

		k := key.String()
		if err := c.cache.Delete(ctx, k); err != nil {
			log.Warn.Printf("query cache delete %s: %v", k, err)
		}
		if err := c.cache.DeletePrefix(ctx, k+keySep); err != nil {
			log.Warn.Printf("query cache delete prefix %s: %v", k, err)
		}
	}
}

// MutationState reports the last state of mutation m in scope, usually the
// acting account.
func (c *Client) MutationState(m MutationName, scope string) MutationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.states[stateKey{m, scope}]; ok {
		return st
	}
	return MutationState{Status: StatusIdle}
}

// setState records the state of m for scope. Mutations run without an
// account, such as sign-in, have no scope to report to and are not tracked.
func (c *Client) setState(m MutationName, scope string, status Status, err error) {
	if scope == "" {
		return
	}
	st := MutationState{Status: status, UpdatedAt: c.now()}
	if err != nil {
		st.Error = err.Error()
	}
	c.mu.Lock()
	c.states[stateKey{m, scope}] = st
	c.mu.Unlock()
}

// Fetch returns the cached value of key or runs fn to produce it.
// Concurrent fetches of one key share a single call. Errors are not cached.
func Fetch[T any](ctx context.Context, c *Client, key Key, fn func(context.Context) (T, error)) (T, error) {
	var out T
	if raw, ok := c.read(ctx, key); ok {
		if err := json.Unmarshal(raw, &out); err == nil {
			return out, nil
		}
		log.Warn.Printf("query %s: discarding undecodable cache entry", key)
	}

	gen := c.generation(key.Name)
	raw, err := c.do(ctx, flightKey(key.String(), gen), func(ctx context.Context) ([]byte, error) {
		val, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		c.write(ctx, key, gen, raw)
		return raw, nil
	})
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}

// flightKey scopes a shared call to one generation of its query, so a read
// that starts after an invalidation never joins a call that began before it.
func flightKey(key string, gen uint64) string {
	return fmt.Sprintf("%s#%d", key, gen)
}

// do runs fn once per flight for every concurrent caller. fn is detached
// from the cancellation of the caller that started it; each caller stops
// waiting when its own ctx is done.
func (c *Client) do(ctx context.Context, flight string, fn func(context.Context) ([]byte, error)) ([]byte, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flight, func() (any, error) {
		return fn(detached)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Mutate runs fn as mutation m and, when it succeeds, invalidates every
// query the table lists for m.
func Mutate[T any](ctx context.Context, c *Client, m MutationName, vars Vars, fn func(context.Context) (T, error)) (T, error) {
	c.setState(m, vars.AccountID, StatusPending, nil)

	v, err := fn(ctx)
	if err != nil {
		c.setState(m, vars.AccountID, StatusError, err)
		return v, err
	}

	c.Invalidate(ctx, Invalidates(m, vars)...)
	c.setState(m, vars.AccountID, StatusSuccess, nil)
	return v, nil
}
