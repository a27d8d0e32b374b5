// Package purpose canonicalizes free-form logistics purpose values.
package purpose

import (
	"strings"

	"github.com/angelmondragon/fieldops-logistics/pkg/enums"
)

type definition struct {
	code      enums.LogisticsPurpose
	shortCode string
	label     string
}

var definitions = []definition{
	{enums.LogisticsPurposePODeliveryToWarehouse, "PO-DEL", "PO Delivery to Warehouse"},
	{enums.LogisticsPurposePOPickupFromSupplier, "PO-PU", "PO Pickup from Supplier"},
	{enums.LogisticsPurposePartPickupForInstall, "PT-PU", "Part Pickup for Install"},
	{enums.LogisticsPurposeStockTransfer, "ST-TR", "Stock Transfer"},
	{enums.LogisticsPurposeVehicleRestock, "VH-RS", "Vehicle Restock"},
	{enums.LogisticsPurposeReturnToSupplier, "RTS", "Return to Supplier"},
	{enums.LogisticsPurposeSampleDropoff, "SMP", "Sample Drop-off"},
	{enums.LogisticsPurposeOther, "OTH", "Other"},
}

// synonyms maps folded legacy values onto canonical purposes.
var synonyms = map[string]enums.LogisticsPurpose{
	"delivery":              enums.LogisticsPurposePODeliveryToWarehouse,
	"po_delivery":           enums.LogisticsPurposePODeliveryToWarehouse,
	"warehouse_delivery":    enums.LogisticsPurposePODeliveryToWarehouse,
	"supplier_delivery":     enums.LogisticsPurposePODeliveryToWarehouse,
	"pickup":                enums.LogisticsPurposePOPickupFromSupplier,
	"po_pickup":             enums.LogisticsPurposePOPickupFromSupplier,
	"supplier_pickup":       enums.LogisticsPurposePOPickupFromSupplier,
	"collect_from_supplier": enums.LogisticsPurposePOPickupFromSupplier,
	"collection":            enums.LogisticsPurposePOPickupFromSupplier,
	"part_pickup":           enums.LogisticsPurposePartPickupForInstall,
	"install_pickup":        enums.LogisticsPurposePartPickupForInstall,
	"parts_for_install":     enums.LogisticsPurposePartPickupForInstall,
	"transfer":              enums.LogisticsPurposeStockTransfer,
	"warehouse_transfer":    enums.LogisticsPurposeStockTransfer,
	"stock_move":            enums.LogisticsPurposeStockTransfer,
	"restock":               enums.LogisticsPurposeVehicleRestock,
	"van_restock":           enums.LogisticsPurposeVehicleRestock,
	"vehicle_top_up":        enums.LogisticsPurposeVehicleRestock,
	"return":                enums.LogisticsPurposeReturnToSupplier,
	"supplier_return":       enums.LogisticsPurposeReturnToSupplier,
	"returns":               enums.LogisticsPurposeReturnToSupplier,
	"sample":                enums.LogisticsPurposeSampleDropoff,
	"samples":               enums.LogisticsPurposeSampleDropoff,
	"sample_drop":           enums.LogisticsPurposeSampleDropoff,
	"misc":                  enums.LogisticsPurposeOther,
	"general":               enums.LogisticsPurposeOther,
}

var (
	byFolded    = map[string]enums.LogisticsPurpose{}
	byShortCode = map[string]enums.LogisticsPurpose{}
	byCode      = map[enums.LogisticsPurpose]definition{}
)

func init() {
	for _, def := range definitions {
		byCode[def.code] = def
		byShortCode[def.shortCode] = def.code
		byFolded[fold(string(def.code))] = def.code
		byFolded[fold(def.label)] = def.code
		byFolded[fold(def.shortCode)] = def.code
	}
}

// Normalize maps raw input onto a canonical purpose. It never fails: values
// that cannot be classified become enums.LogisticsPurposeOther.
func Normalize(raw string) enums.LogisticsPurpose {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return enums.LogisticsPurposeOther
	}
	if code := enums.LogisticsPurpose(trimmed); code.IsValid() {
		return code
	}
	if code, ok := byShortCode[strings.ToUpper(trimmed)]; ok {
		return code
	}
	folded := fold(trimmed)
	if code, ok := byFolded[folded]; ok {
		return code
	}
	if code, ok := synonyms[folded]; ok {
		return code
	}
	return byKeyword(folded)
}

// ShortCode returns the job-number prefix for a purpose.
func ShortCode(p enums.LogisticsPurpose) string {
	if def, ok := byCode[p]; ok {
		return def.shortCode
	}
	return byCode[enums.LogisticsPurposeOther].shortCode
}

// Label returns the human readable name of a purpose.
func Label(p enums.LogisticsPurpose) string {
	if def, ok := byCode[p]; ok {
		return def.label
	}
	return byCode[enums.LogisticsPurposeOther].label
}

func byKeyword(folded string) enums.LogisticsPurpose {
	tokens := strings.Split(folded, "_")
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(w, "_") {
				if strings.Contains(folded, w) {
					return true
				}
				continue
			}
			for _, tok := range tokens {
				if strings.HasPrefix(tok, w) {
					return true
				}
			}
		}
		return false
	}
	switch {
	case has("return", "rma"):
		return enums.LogisticsPurposeReturnToSupplier
	case has("sample"):
		return enums.LogisticsPurposeSampleDropoff
	case has("restock", "top_up", "van", "vehicle"):
		return enums.LogisticsPurposeVehicleRestock
	case has("transfer"):
		return enums.LogisticsPurposeStockTransfer
	case has("install"):
		return enums.LogisticsPurposePartPickupForInstall
	case has("pickup", "pick_up", "collect"):
		return enums.LogisticsPurposePOPickupFromSupplier
	case has("deliver", "drop_off"):
		return enums.LogisticsPurposePODeliveryToWarehouse
	default:
		return enums.LogisticsPurposeOther
	}
}

// fold lowercases and collapses every run of non-alphanumerics to "_".
func fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSep := false
	for _, r := range strings.ToLower(s) {
		isWord := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isWord {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
