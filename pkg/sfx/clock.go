// ABOUTME: Time source for end-of-sample prediction
// ABOUTME: Lets tests drive refresh without sleeping
package sfx

import "time"

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock
var SystemClock Clock = systemClock{}
