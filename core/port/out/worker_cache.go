package out

import "context"

// PropertyStore is a small string key-value store for run state.
type PropertyStore interface {
	// Get returns the value for key; ok is false when the key was never set.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set replaces the value for key.
	Set(ctx context.Context, key, value string) error

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
}
