package store

import (
	"gorm.io/gorm"

	"github.com/angelmondragon/fieldops-logistics/pkg/db/models"
)

// Set groups the collections for every logistics entity.
type Set struct {
	PriceListItems     *Collection[models.PriceListItem]
	Locations          *Collection[models.InventoryLocation]
	Quantities         *Collection[models.InventoryQuantity]
	VehicleStock       *Collection[models.VehicleStock]
	PurchaseOrders     *Collection[models.PurchaseOrder]
	PurchaseOrderLines *Collection[models.PurchaseOrderLine]
	Parts              *Collection[models.Part]
	Visits             *Collection[models.Visit]
	RequirementLines   *Collection[models.ProjectRequirementLine]
	Allocations        *Collection[models.StockAllocation]
	Consumptions       *Collection[models.StockConsumption]
	Movements          *Collection[models.StockMovement]
	Counters           *Collection[models.LogisticsJobCounter]
	Jobs               *Collection[models.Job]
}

// NewSet binds every collection to the same connection.
func NewSet(db *gorm.DB) *Set {
	return &Set{
		PriceListItems:     NewCollection[models.PriceListItem](db),
		Locations:          NewCollection[models.InventoryLocation](db),
		Quantities:         NewCollection[models.InventoryQuantity](db),
		VehicleStock:       NewCollection[models.VehicleStock](db),
		PurchaseOrders:     NewCollection[models.PurchaseOrder](db),
		PurchaseOrderLines: NewCollection[models.PurchaseOrderLine](db),
		Parts:              NewCollection[models.Part](db),
		Visits:             NewCollection[models.Visit](db),
		RequirementLines:   NewCollection[models.ProjectRequirementLine](db),
		Allocations:        NewCollection[models.StockAllocation](db),
		Consumptions:       NewCollection[models.StockConsumption](db),
		Movements:          NewCollection[models.StockMovement](db),
		Counters:           NewCollection[models.LogisticsJobCounter](db),
		Jobs:               NewCollection[models.Job](db),
	}
}
