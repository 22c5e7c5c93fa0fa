package storage

import "errors"

// NotFoundError is returned when a node or chat doesn't exist in the store.
type NotFoundError struct {
	Hash   string
	ChatID string
}

func (e NotFoundError) Error() string {
	switch {
	case e.Hash != "":
		return "node not found: " + e.Hash
	case e.ChatID != "":
		return "chat not found: " + e.ChatID
	default:
		return "node not found"
	}
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}
