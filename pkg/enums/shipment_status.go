package enums

import "fmt"

// ShipmentStatus is the lifecycle of the carrier shipment attached to an order.
type ShipmentStatus string

const (
	ShipmentStatusNone      ShipmentStatus = "none"
	ShipmentStatusPending   ShipmentStatus = "pending"
	ShipmentStatusReleased  ShipmentStatus = "released"
	ShipmentStatusGenerated ShipmentStatus = "generated"
	ShipmentStatusPrinted   ShipmentStatus = "printed"
	ShipmentStatusPosted    ShipmentStatus = "posted"
	ShipmentStatusDelivered ShipmentStatus = "delivered"
	ShipmentStatusCancelled ShipmentStatus = "cancelled"
)

var validShipmentStatuses = []ShipmentStatus{
	ShipmentStatusNone,
	ShipmentStatusPending,
	ShipmentStatusReleased,
	ShipmentStatusGenerated,
	ShipmentStatusPrinted,
	ShipmentStatusPosted,
	ShipmentStatusDelivered,
	ShipmentStatusCancelled,
}

// String implements fmt.Stringer.
func (s ShipmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShipmentStatus.
func (s ShipmentStatus) IsValid() bool {
	for _, candidate := range validShipmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Normalize maps the empty value of legacy rows to none.
func (s ShipmentStatus) Normalize() ShipmentStatus {
	if s == "" {
		return ShipmentStatusNone
	}
	return s
}

// ParseShipmentStatus converts raw input into a ShipmentStatus.
func ParseShipmentStatus(value string) (ShipmentStatus, error) {
	if value == "" {
		return ShipmentStatusNone, nil
	}
	for _, candidate := range validShipmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipment status %q", value)
}

// ShipmentAction is an operator command issued against an order's shipment.
type ShipmentAction string

const (
	ShipmentActionCart     ShipmentAction = "cart"
	ShipmentActionCheckout ShipmentAction = "checkout"
	ShipmentActionGenerate ShipmentAction = "generate"
	ShipmentActionPrint    ShipmentAction = "print"
	ShipmentActionTracking ShipmentAction = "tracking"
	ShipmentActionCancel   ShipmentAction = "cancel"
)

func (a ShipmentAction) String() string {
	return string(a)
}

var shipmentActionSources = map[ShipmentAction][]ShipmentStatus{
	ShipmentActionCart:     {ShipmentStatusNone, ShipmentStatusCancelled},
	ShipmentActionCheckout: {ShipmentStatusPending},
	ShipmentActionGenerate: {ShipmentStatusReleased},
	ShipmentActionPrint:    {ShipmentStatusGenerated, ShipmentStatusPrinted},
	ShipmentActionTracking: {
		ShipmentStatusPending, ShipmentStatusReleased, ShipmentStatusGenerated,
		ShipmentStatusPrinted, ShipmentStatusPosted, ShipmentStatusDelivered,
	},
	ShipmentActionCancel: {ShipmentStatusPending, ShipmentStatusReleased, ShipmentStatusGenerated},
}

var shipmentActionTargets = map[ShipmentAction]ShipmentStatus{
	ShipmentActionCart:     ShipmentStatusPending,
	ShipmentActionCheckout: ShipmentStatusReleased,
	ShipmentActionGenerate: ShipmentStatusGenerated,
	ShipmentActionPrint:    ShipmentStatusPrinted,
	ShipmentActionCancel:   ShipmentStatusCancelled,
}

// Allows reports whether action may be issued while the shipment is in from.
func (a ShipmentAction) Allows(from ShipmentStatus) bool {
	for _, candidate := range shipmentActionSources[a] {
		if candidate == from.Normalize() {
			return true
		}
	}
	return false
}

// Target returns the state reached after a successful action. Tracking has no
// fixed target; see TrackingTarget.
func (a ShipmentAction) Target() (ShipmentStatus, bool) {
	target, ok := shipmentActionTargets[a]
	return target, ok
}

// TrackingTarget maps an upstream tracking status onto the local lifecycle.
// Only posted and delivered are adopted, and only once a label exists.
func TrackingTarget(current ShipmentStatus, upstream string) ShipmentStatus {
	current = current.Normalize()
	switch current {
	case ShipmentStatusGenerated, ShipmentStatusPrinted, ShipmentStatusPosted:
	default:
		return current
	}
	switch ShipmentStatus(upstream) {
	case ShipmentStatusPosted:
		if current == ShipmentStatusPosted {
			return current
		}
		return ShipmentStatusPosted
	case ShipmentStatusDelivered:
		return ShipmentStatusDelivered
	}
	return current
}
