package enums

import (
	"fmt"
	"strings"
)

// OrderStatus tracks the assignment lifecycle of an order.
type OrderStatus string

const (
	OrderStatusUnassigned OrderStatus = "unassigned"
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusAssigned   OrderStatus = "assigned"
	OrderStatusError      OrderStatus = "error"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusUnassigned,
	OrderStatusPending,
	OrderStatusAssigned,
	OrderStatusError,
}

// pendingSynonyms maps the status vocabularies upstream systems have been
// observed writing for not-yet-assigned orders onto the canonical value.
var pendingSynonyms = map[string]struct{}{
	"pending":              {},
	"pendiente":            {},
	"pendiente_asignacion": {},
	"por_asignar":          {},
	"unassigned":           {},
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// NormalizeOrderStatus translates any known pending synonym to the canonical
// pending status. Unknown values pass through unchanged so callers can decide
// how to treat them.
func NormalizeOrderStatus(raw string) OrderStatus {
	value := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := pendingSynonyms[value]; ok {
		return OrderStatusPending
	}
	if parsed, err := ParseOrderStatus(value); err == nil {
		return parsed
	}
	return OrderStatus(value)
}

// PendingStatusVariants returns the raw status strings a pending order may
// carry in the durable store before normalization.
func PendingStatusVariants() []string {
	variants := make([]string, 0, len(pendingSynonyms))
	for variant := range pendingSynonyms {
		variants = append(variants, variant)
	}
	return variants
}
