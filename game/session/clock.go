// game/session/clock.go
package session

import "time"

// Clock supplies the current instant for window checks and penalty expiry.
// Injected so tests can drive time explicitly.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }
