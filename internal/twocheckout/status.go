package twocheckout

import "strings"

// Outcome buckets vendor order-status strings into the semantic results
// settlement cares about.
type Outcome int

const (
	// OutcomeUnknown marks statuses outside the known vendor sets. Callers
	// must treat these as unhandled and never assume success.
	OutcomeUnknown Outcome = iota
	// OutcomeSuccessful means the payment is authorised or complete.
	OutcomeSuccessful
	// OutcomePending means the vendor is still processing the payment.
	OutcomePending
	// OutcomeFailed means the payment was cancelled, reversed or flagged.
	OutcomeFailed
)

// String implements fmt.Stringer for logs and metrics labels.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccessful:
		return "successful"
	case OutcomePending:
		return "pending"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	successStatuses = statusSet("COMPLETE", "AUTHRECEIVED", "PAYMENT_AUTHORIZED")
	pendingStatuses = statusSet("PENDING", "PENDING_APPROVAL", "PAYMENT_RECEIVED")
	failedStatuses  = statusSet("CANCELED", "REFUND", "REVERSED", "FRAUD", "DENIED", "EXPIRED", "INVALID")
)

// Classify maps a vendor ORDERSTATUS value onto an Outcome, case-insensitively.
func Classify(status string) Outcome {
	normalised := strings.ToUpper(strings.TrimSpace(status))
	switch {
	case successStatuses[normalised]:
		return OutcomeSuccessful
	case pendingStatuses[normalised]:
		return OutcomePending
	case failedStatuses[normalised]:
		return OutcomeFailed
	default:
		return OutcomeUnknown
	}
}

func statusSet(names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
