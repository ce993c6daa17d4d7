package payments

import "time"

type Status string

// Every recorded payment is COMPLETED: there is no gateway that could
// decline, so no other status is ever written.
const StatusCompleted Status = "COMPLETED"

// Payment is a bookkeeping record created once per consumed OrderPlaced
// event. Nothing verifies that money actually moved; this is not a
// payment gateway.
type Payment struct {
	ID            string
	OrderID       string
	UserID        int64
	AmountCents   int64
	Status        Status
	TransactionID string
	CreatedAt     time.Time
}
