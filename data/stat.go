package data

import "time"

// ObjectStat describes one object returned by a storage backend listing.
type ObjectStat struct {
	Key        string
	Name       string
	Size       int64
	IsDir      bool
	ModifyTime time.Time
}
