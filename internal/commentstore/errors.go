package commentstore

import "errors"

var (
	// ErrNotFound indicates the comment id (or the author's whole file) does not exist.
	ErrNotFound = errors.New("comment not found")
	// ErrEmptyText indicates the comment text is empty after trimming.
	ErrEmptyText = errors.New("comment text is empty")
	// ErrUnsafeKey indicates a key component or author would escape the storage subtree.
	ErrUnsafeKey = errors.New("unsafe path component")
)
