package orders

type Status string

// Order placement is fire-and-forget: the orchestrator writes PENDING and
// nothing in the saga ever moves an order past it. The other states exist
// for operators who reconcile stuck orders by hand.
const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)
