package purchasing

// Status is the lifecycle state of a purchase order.
type Status string

const (
	StatusPending           Status = "pending"
	StatusApproved          Status = "approved"
	StatusOrdered           Status = "ordered"
	StatusPartiallyReceived Status = "partially_received"
	StatusReceived          Status = "received"
	StatusCancelled         Status = "cancelled"
)

// transitions lists every legal edge of the state machine.
var transitions = map[Status][]Status{
	StatusPending:           {StatusApproved, StatusCancelled},
	StatusApproved:          {StatusOrdered, StatusReceived, StatusPartiallyReceived, StatusCancelled},
	StatusOrdered:           {StatusReceived, StatusPartiallyReceived, StatusCancelled},
	StatusPartiallyReceived: {StatusReceived, StatusPartiallyReceived},
	StatusReceived:          nil,
	StatusCancelled:         nil,
}

// IsValid checks if the status is a known value.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusReceived || s == StatusCancelled
}

// CanTransitionTo checks if the status can move to target.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// CanReceive returns true if goods may be received against an order in this status.
func (s Status) CanReceive() bool {
	return s.CanTransitionTo(StatusReceived)
}

// CanEditLines returns true while the order has not been sent to the supplier.
func (s Status) CanEditLines() bool {
	return s == StatusPending || s == StatusApproved
}
