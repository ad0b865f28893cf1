package anchormap

import "errors"

var (
	// ErrKeyNotFound is returned by At when the key has no entry in
	// the map. Errors returned by At wrap it, so test with errors.Is.
	ErrKeyNotFound = errors.New("key not found")
)
