package player

import "errors"

// ErrPlayerNotFound is returned when no player matches the session token.
var ErrPlayerNotFound = errors.New("player not found")
