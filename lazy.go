package reddit

import (
	"context"
	"log/slog"
	"maps"
	"sync"
)

// fetchFunc loads the full field mapping of a remote object.
type fetchFunc func(ctx context.Context) (map[string]any, error)

// setHook rewrites a value on assignment. It returns the value to store.
type setHook func(key string, value any) any

// lazyObject caches the fields of a remote object and fetches them on first miss.
// The owning type supplies fetch and hook per call so a decoded zero value works too.
type lazyObject struct {
	typ string

	mu      sync.Mutex
	data    map[string]any
	fetched bool
}

func newLazyObject(typ string, data map[string]any, fetched bool, hook setHook) *lazyObject {
	o := &lazyObject{typ: typ, fetched: fetched}
	o.merge(data, hook)
	return o
}

// attr returns the cached field, fetching once when it is absent.
func (o *lazyObject) attr(ctx context.Context, key string, fetch fetchFunc, hook setHook) (any, error) {
	o.mu.Lock()
	v, ok := o.data[key]
	fetched := o.fetched
	o.mu.Unlock()
	if ok {
		return v, nil
	}
	if !fetched {
		if err := o.refresh(ctx, fetch, hook); err != nil {
			return nil, err
		}
		o.mu.Lock()
		v, ok = o.data[key]
		o.mu.Unlock()
		if ok {
			return v, nil
		}
	}
	return nil, &AttributeError{Type: o.typ, Name: key}
}

// refresh runs fetch outside the lock and merges the result.
func (o *lazyObject) refresh(ctx context.Context, fetch fetchFunc, hook setHook) error {
	slog.Debug("lazy fetch", slog.String("type", o.typ))
	data, err := fetch(ctx)
	if err != nil {
		return err
	}
	o.merge(data, hook)
	o.mu.Lock()
	o.fetched = true
	o.mu.Unlock()
	return nil
}

func (o *lazyObject) merge(data map[string]any, hook setHook) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.data == nil {
		o.data = make(map[string]any, len(data))
	}
	for k, v := range data {
		if hook != nil {
			v = hook(k, v)
		}
		o.data[k] = v
	}
}

func (o *lazyObject) set(key string, value any, hook setHook) {
	o.merge(map[string]any{key: value}, hook)
}

func (o *lazyObject) peek(key string) (any, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	v, ok := o.data[key]
	return v, ok
}

func (o *lazyObject) isFetched() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fetched
}

// snapshot returns a plain copy of the fields, with referenced objects reduced to identifiers.
func (o *lazyObject) snapshot() (map[string]any, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.data) == 0 {
		return nil, o.fetched
	}
	out := maps.Clone(o.data)
	for k, v := range out {
		if rd, ok := v.(*Redditor); ok {
			out[k] = rd.Name
		}
	}
	return out, o.fetched
}

// rebind points referenced objects that lost their requestor at r.
func (o *lazyObject) rebind(r Requestor) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, v := range o.data {
		if rd, ok := v.(*Redditor); ok && rd.r == nil {
			rd.Bind(r)
		}
	}
}
