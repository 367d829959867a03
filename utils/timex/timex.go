package timex

import (
	"time"
)

func NowLocalTime() time.Time {
	return time.Now().Local()
}

// OrNow 零值时返回当前本地时间
func OrNow(t time.Time) time.Time {
	if t.IsZero() {
		return NowLocalTime()
	}
	return t
}
