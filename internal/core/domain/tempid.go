package domain

import (
	"sync"
	"time"
)

// TempIDThreshold separates local placeholder ids from server ids.
// Server-assigned ids never exceed it.
const TempIDThreshold int64 = 1_000_000_000_000

var (
	tempMu   sync.Mutex
	lastTemp int64
)

// NewTempID returns a fresh placeholder id for an entity created while its
// server id is unknown. Ids come from the millisecond clock and strictly
// increase within a process.
func NewTempID() int64 {
	tempMu.Lock()
	defer tempMu.Unlock()
	id := time.Now().UnixMilli()
	if id <= lastTemp {
		id = lastTemp + 1
	}
	if id <= TempIDThreshold {
		id = TempIDThreshold + 1
	}
	lastTemp = id
	return id
}

// IsTempID reports whether id is a local placeholder.
func IsTempID(id int64) bool {
	return id > TempIDThreshold
}
