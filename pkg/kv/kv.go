// Package kv is the ordered key-value layer under the memory store.
//
// Keys are hierarchical paths such as Key{"memo", "entry", "00000000000000000042"}
// joined with a separator (':' by default). Listing walks a prefix in
// lexicographic order, forwards or backwards, so zero-padded numeric segments
// give chronological scans.
//
// Badger backs the appliance on disk; Memory is used by tests and dry runs.
package kv

import (
	"context"
	"errors"
	"iter"
	"strings"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("kv: not found")

// Key is a hierarchical path. Segments must not contain the separator.
type Key []string

// String joins the segments with ':' for display.
func (k Key) String() string {
	return strings.Join(k, ":")
}

// Entry is a key-value pair returned by List and used by BatchSet.
type Entry struct {
	Key   Key
	Value []byte
}

// ListOptions controls a prefix scan.
type ListOptions struct {
	// Reverse walks from the largest key to the smallest.
	Reverse bool
	// Limit stops after this many entries. Zero means no limit.
	Limit int
	// KeysOnly skips value reads; Entry.Value is nil.
	KeysOnly bool
}

// Store is a key-value store with path keys.
type Store interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores a value, replacing any existing one.
	Set(ctx context.Context, key Key, value []byte) error

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key Key) error

	// List yields entries under prefix in key order.
	List(ctx context.Context, prefix Key, opts ListOptions) iter.Seq2[Entry, error]

	// BatchSet stores all entries atomically.
	BatchSet(ctx context.Context, entries []Entry) error

	// BatchDelete removes all keys atomically.
	BatchDelete(ctx context.Context, keys []Key) error

	Close() error
}

// DefaultSeparator joins key segments.
const DefaultSeparator byte = ':'

// Options configures key encoding.
type Options struct {
	// Separator joins segments. Zero selects DefaultSeparator.
	Separator byte
}

func (o *Options) sep() byte {
	if o != nil && o.Separator != 0 {
		return o.Separator
	}
	return DefaultSeparator
}

func (o *Options) encode(k Key) []byte {
	return []byte(strings.Join(k, string(o.sep())))
}

func (o *Options) decode(b []byte) Key {
	return Key(strings.Split(string(b), string(o.sep())))
}

// scanPrefix returns the byte prefix for listing under k. A trailing
// separator keeps "a:b" from matching "a:bc".
func (o *Options) scanPrefix(k Key) []byte {
	if len(k) == 0 {
		return nil
	}
	return append(o.encode(k), o.sep())
}
