package ports

import "time"

// Clock supplies the current time to the runtime
type Clock interface {
	Now() time.Time
}
