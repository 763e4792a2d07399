package dispatch

import "chefbridge/chef"

// Local order statuses. The local lifecycle is wider than the kitchen
// service's: served and paid are front-of-house transitions the
// kitchen never sees.
const (
	StatusPending    = "pending"
	StatusSentToChef = "sent_to_chef"
	StatusPreparing  = "preparing"
	StatusReady      = "ready"
	StatusServed     = "served"
	StatusPaid       = "paid"
	StatusCancelled  = "cancelled"
)

// IsTerminalStatus reports whether a local status admits no further
// transitions.
func IsTerminalStatus(status string) bool {
	return status == StatusPaid || status == StatusCancelled
}

// CanTransition reports whether an order may move from one local
// status to another. Cancellation is allowed from any non-terminal
// status.
func CanTransition(from, to string) bool {
	if from == to {
		return false
	}
	if to == StatusCancelled {
		return !IsTerminalStatus(from)
	}
	switch from {
	case StatusPending:
		return to == StatusSentToChef
	case StatusSentToChef:
		return to == StatusPreparing || to == StatusReady
	case StatusPreparing:
		return to == StatusReady
	case StatusReady:
		return to == StatusServed
	case StatusServed:
		return to == StatusPaid
	}
	return false
}

// statusRank orders the forward lifecycle. Mirroring from the kitchen
// accepts any forward jump, since polling can miss intermediate
// states; guest-driven transitions go through CanTransition instead.
func statusRank(status string) int {
	switch status {
	case StatusPending:
		return 0
	case StatusSentToChef:
		return 1
	case StatusPreparing:
		return 2
	case StatusReady:
		return 3
	case StatusServed:
		return 4
	case StatusPaid:
		return 5
	}
	return -1
}

// localStatus maps a kitchen-side lifecycle value onto the local one.
// PENDING and CONFIRMED both mean the kitchen has the order but has
// not started it.
func localStatus(s chef.OrderStatus) string {
	switch s {
	case chef.StatusPending, chef.StatusConfirmed:
		return StatusSentToChef
	case chef.StatusPreparing:
		return StatusPreparing
	case chef.StatusReady:
		return StatusReady
	case chef.StatusServed:
		return StatusServed
	case chef.StatusCancelled:
		return StatusCancelled
	}
	return StatusSentToChef
}
