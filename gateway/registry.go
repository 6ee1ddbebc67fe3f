package gateway

import "github.com/filegate/filegate/backends"

// Adapter is a named mount of one filesystem backend.
type Adapter struct {
	Key string
	FS  backends.FS
}

// Registry is an ordered mapping from adapter key to backend. The first
// registered adapter is the default used when a request names none.
//
// The registry is populated at startup and only read afterwards, so it
// carries no locking; registering during live traffic is unsupported.
type Registry struct {
	order    []string
	adapters map[string]backends.FS
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]backends.FS)}
}

// Register adds or replaces an adapter. The first key registered becomes the
// default adapter.
func (r *Registry) Register(key string, fs backends.FS) {
	if _, ok := r.adapters[key]; !ok {
		r.order = append(r.order, key)
	}
	r.adapters[key] = fs
}

// Unregister removes an adapter if present; removing an unknown key is a
// no-op. If the default (oldest) adapter is removed, the next-oldest
// registered adapter becomes the default.
func (r *Registry) Unregister(key string) {
	if _, ok := r.adapters[key]; !ok {
		return
	}
	delete(r.adapters, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Keys returns the adapter keys in registration order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.order...)
}

// Default returns the default adapter, or ErrNoAdapterConfigured when the
// registry is empty.
func (r *Registry) Default() (Adapter, error) {
	if len(r.order) == 0 {
		return Adapter{}, ErrNoAdapterConfigured
	}
	key := r.order[0]
	return Adapter{Key: key, FS: r.adapters[key]}, nil
}

// Resolve returns the adapter registered under key. An empty or unknown key
// falls back to the default adapter; an unknown key with no default fails
// with ErrAdapterNotFound.
func (r *Registry) Resolve(key string) (Adapter, error) {
	if fs, ok := r.adapters[key]; ok {
		return Adapter{Key: key, FS: fs}, nil
	}
	if key == "" {
		return r.Default()
	}
	if len(r.order) == 0 {
		return Adapter{}, ErrAdapterNotFound
	}
	return r.Default()
}
