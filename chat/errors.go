package chat

import "errors"

// ErrNotFound indicates an unknown conversation id.
var ErrNotFound = errors.New("conversation not found")
