package enums

import "fmt"

// PurchaseOrderStatus tracks a purchase order through the logistics pipeline.
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft        PurchaseOrderStatus = "draft"
	PurchaseOrderStatusSent         PurchaseOrderStatus = "sent"
	PurchaseOrderStatusOnOrder      PurchaseOrderStatus = "on_order"
	PurchaseOrderStatusInTransit    PurchaseOrderStatus = "in_transit"
	PurchaseOrderStatusInLoadingBay PurchaseOrderStatus = "in_loading_bay"
	PurchaseOrderStatusAtSupplier   PurchaseOrderStatus = "at_supplier"
	PurchaseOrderStatusInStorage    PurchaseOrderStatus = "in_storage"
	PurchaseOrderStatusInVehicle    PurchaseOrderStatus = "in_vehicle"
	PurchaseOrderStatusInstalled    PurchaseOrderStatus = "installed"
	PurchaseOrderStatusCancelled    PurchaseOrderStatus = "cancelled"
)

var validPurchaseOrderStatuses = []PurchaseOrderStatus{
	PurchaseOrderStatusDraft,
	PurchaseOrderStatusSent,
	PurchaseOrderStatusOnOrder,
	PurchaseOrderStatusInTransit,
	PurchaseOrderStatusInLoadingBay,
	PurchaseOrderStatusAtSupplier,
	PurchaseOrderStatusInStorage,
	PurchaseOrderStatusInVehicle,
	PurchaseOrderStatusInstalled,
	PurchaseOrderStatusCancelled,
}

// String implements fmt.Stringer.
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PurchaseOrderStatus.
func (s PurchaseOrderStatus) IsValid() bool {
	for _, candidate := range validPurchaseOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePurchaseOrderStatus converts raw input into a PurchaseOrderStatus.
func ParsePurchaseOrderStatus(value string) (PurchaseOrderStatus, error) {
	for _, candidate := range validPurchaseOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid purchase order status %q", value)
}

// DeliveryMethod describes how goods on a purchase order reach us.
type DeliveryMethod string

const (
	DeliveryMethodDelivery DeliveryMethod = "delivery"
	DeliveryMethodPickup   DeliveryMethod = "pickup"
)

// IsValid reports whether the value is a known DeliveryMethod.
func (d DeliveryMethod) IsValid() bool {
	return d == DeliveryMethodDelivery || d == DeliveryMethodPickup
}
