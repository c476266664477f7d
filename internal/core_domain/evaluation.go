package core_domain

// ClassificationKind enumerates the closed set of evaluation outcomes.
type ClassificationKind int

const (
	ClassificationPending ClassificationKind = iota
	ClassificationAcknowledged
	ClassificationRejected
	ClassificationUnresolvable
)

func (k ClassificationKind) String() string {
	switch k {
	case ClassificationPending:
		return "pending"
	case ClassificationAcknowledged:
		return "acknowledged"
	case ClassificationRejected:
		return "rejected"
	case ClassificationUnresolvable:
		return "unresolvable"
	default:
		return "unknown"
	}
}

// Classification is the evaluator's verdict on a polled external status.
// DeliveryState and AppRecStatus are only meaningful when Resolved() is true.
type Classification struct {
	Kind          ClassificationKind
	DeliveryState ExternalDeliveryState
	AppRecStatus  AppRecStatus
}

// Resolved reports whether the classification carries a definite
// delivery/receipt status pair eligible for publication.
func (c Classification) Resolved() bool {
	return c.Kind == ClassificationAcknowledged || c.Kind == ClassificationRejected
}

// Evaluate maps a raw external delivery state plus an optional receipt status
// to a classification. Deterministic and side-effect free.
//
// A delivery-level rejection resolves regardless of receipt status. An
// acknowledged delivery resolves only once a receipt status is present; a
// rejected receipt on an acknowledged delivery is a rejection distinct from a
// delivery-level one (the delivery state stays ACKNOWLEDGED). An unconfirmed
// delivery paired with a receipt status is contradictory and stays
// unresolvable until the external system sorts itself out.
func Evaluate(delivery ExternalDeliveryState, receipt *AppRecStatus) Classification {
	switch delivery {
	case DeliveryRejected:
		return Classification{
			Kind:          ClassificationRejected,
			DeliveryState: DeliveryRejected,
			AppRecStatus:  AppRecRejected,
		}
	case DeliveryAcknowledged:
		if receipt == nil {
			return Classification{Kind: ClassificationPending}
		}
		switch *receipt {
		case AppRecOK, AppRecOKErrorInMessagePart:
			return Classification{
				Kind:          ClassificationAcknowledged,
				DeliveryState: DeliveryAcknowledged,
				AppRecStatus:  *receipt,
			}
		case AppRecRejected:
			return Classification{
				Kind:          ClassificationRejected,
				DeliveryState: DeliveryAcknowledged,
				AppRecStatus:  AppRecRejected,
			}
		default:
			return Classification{Kind: ClassificationUnresolvable}
		}
	case DeliveryUnconfirmed:
		if receipt == nil {
			return Classification{Kind: ClassificationPending}
		}
		return Classification{Kind: ClassificationUnresolvable}
	default:
		return Classification{Kind: ClassificationUnresolvable}
	}
}
