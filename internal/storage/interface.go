package storage

import "errors"

// ErrNotFound is returned by Retrieve when the named object does not exist.
var ErrNotFound = errors.New("object not found")

// Backend defines the contract for durable storage. Names use forward-slash
// separators regardless of backend.
//
// Store must be atomic from the reader's perspective: a concurrent or
// crashed write never leaves a partially written object visible to Retrieve
// or List. Append is for append-only logs and must preserve prior content
// even if the process dies mid-call (at worst the final line is truncated).
type Backend interface {
	Store(name string, data []byte) error
	Retrieve(name string) ([]byte, error)
	Append(name string, data []byte) error
	List(prefix string) ([]string, error)
	Delete(name string) error
}
