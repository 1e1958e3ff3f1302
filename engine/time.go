package engine

import "time"

func nowMicros() int64 {
	return time.Now().UnixNano() / int64(time.Microsecond)
}
