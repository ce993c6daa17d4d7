package redisx

import (
	"fmt"
	"time"
)

const (
	// Cached order view: order:{order_id} -> serialized OrderResponse
	KeyOrderView = "order:%s"

	// Dedup of event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLOrderView = 5 * time.Minute
	TTLDedup     = 48 * time.Hour
)

func Key(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
