// Package store persists hydration bundles. Bundles are flat objects named
// "<key>.js"; an object's existence is its only state.
package store

import (
	"context"
	"time"
)

type BundleStore interface {
	Exists(ctx context.Context, name string) (bool, error)
	Put(ctx context.Context, name string, data []byte) error
	// Location is where name lives, for logs and listings.
	Location(name string) string
	List(ctx context.Context) ([]Object, error)
}

type Object struct {
	Name    string
	Size    int64
	ModTime time.Time
}
