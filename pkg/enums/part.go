package enums

import "fmt"

// PartStatus is the projection of purchase order status onto a part, plus pending.
type PartStatus string

const (
	PartStatusPending      PartStatus = "pending"
	PartStatusOnOrder      PartStatus = "on_order"
	PartStatusInTransit    PartStatus = "in_transit"
	PartStatusInLoadingBay PartStatus = "in_loading_bay"
	PartStatusAtSupplier   PartStatus = "at_supplier"
	PartStatusInStorage    PartStatus = "in_storage"
	PartStatusInVehicle    PartStatus = "in_vehicle"
	PartStatusInstalled    PartStatus = "installed"
	PartStatusCancelled    PartStatus = "cancelled"
)

var validPartStatuses = []PartStatus{
	PartStatusPending,
	PartStatusOnOrder,
	PartStatusInTransit,
	PartStatusInLoadingBay,
	PartStatusAtSupplier,
	PartStatusInStorage,
	PartStatusInVehicle,
	PartStatusInstalled,
	PartStatusCancelled,
}

// PartStatuses returns every known part status in pipeline order.
func PartStatuses() []PartStatus {
	out := make([]PartStatus, len(validPartStatuses))
	copy(out, validPartStatuses)
	return out
}

// String implements fmt.Stringer.
func (s PartStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PartStatus.
func (s PartStatus) IsValid() bool {
	for _, candidate := range validPartStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePartStatus converts raw input into a PartStatus.
func ParsePartStatus(value string) (PartStatus, error) {
	for _, candidate := range validPartStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid part status %q", value)
}

// PartLocation is where a part physically is.
type PartLocation string

const (
	PartLocationSupplier         PartLocation = "supplier"
	PartLocationLoadingBay       PartLocation = "loading_bay"
	PartLocationWarehouseStorage PartLocation = "warehouse_storage"
	PartLocationVehicle          PartLocation = "vehicle"
	PartLocationClientSite       PartLocation = "client_site"
)

var validPartLocations = []PartLocation{
	PartLocationSupplier,
	PartLocationLoadingBay,
	PartLocationWarehouseStorage,
	PartLocationVehicle,
	PartLocationClientSite,
}

// IsValid reports whether the value is a known PartLocation.
func (l PartLocation) IsValid() bool {
	for _, candidate := range validPartLocations {
		if candidate == l {
			return true
		}
	}
	return false
}
