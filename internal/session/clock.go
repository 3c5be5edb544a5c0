package session

import "time"

// nowMillis returns the current wall-clock time in milliseconds since the
// epoch, the timestamp unit used throughout session/message records.
func nowMillis() int64 {
	return time.Now().UnixMilli()
}
