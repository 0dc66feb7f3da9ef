// internal/tssync/store.go
package tssync

import "context"

// Store is the exact command set the synchronizer uses.
type Store interface {
	// QueryIndex returns the keys of every series matching all label filters
	// ("label=value").
	QueryIndex(ctx context.Context, filters ...string) ([]string, error)
	CreateSeries(ctx context.Context, key string, labels map[string]string) error
	SetHash(ctx context.Context, key string, fields map[string]string) error
	// ReplaceHash swaps the whole hash for fields in one step; fields not
	// listed are gone afterwards.
	ReplaceHash(ctx context.Context, key string, fields map[string]string) error
	Add(ctx context.Context, key string, tsMillis int64, value float64) error
}

// Session is a store connection scoped to one cycle.
type Session interface {
	Store
	Close() error
}

// Opener acquires a fresh Session.
type Opener interface {
	Open(ctx context.Context) (Session, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context) (Session, error)

func (f OpenerFunc) Open(ctx context.Context) (Session, error) { return f(ctx) }
