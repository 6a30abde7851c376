package core

import "time"

// AdminSession is an authenticated operator allowed to manage the engine.
type AdminSession struct {
	ID        string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
