package enums

import "testing"

func TestNormalizeMovementSource(t *testing.T) {
	tests := []struct {
		in   string
		want MovementSource
		ok   bool
	}{
		{in: "purchase_order_receipt", want: MovementSourcePurchaseOrderReceipt, ok: true},
		{in: "po_receive", want: MovementSourcePurchaseOrderReceipt, ok: true},
		{in: " PO-Receive ", want: MovementSourcePurchaseOrderReceipt, ok: true},
		{in: "Stock Transfer", want: MovementSourceStockTransfer, ok: true},
		{in: "unload", want: MovementSourceVehicleUnload, ok: true},
		{in: "teleport", ok: false},
		{in: "", ok: false},
	}
	for _, tt := range tests {
		got, ok := NormalizeMovementSource(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("NormalizeMovementSource(%q) = %q,%v want %q,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestStockTransferRank(t *testing.T) {
	tests := map[StockTransferStatus]int{
		StockTransferStatusDraft:      0,
		StockTransferStatusNotStarted: 0,
		StockTransferStatusPending:    1,
		StockTransferStatusSkipped:    1,
		StockTransferStatusCompleted:  2,
		"COMPLETED":                   2,
		"":                            0,
	}
	for status, want := range tests {
		if got := status.Rank(); got != want {
			t.Fatalf("rank(%q) = %d, want %d", status, got, want)
		}
	}
}

func TestParsePartStatus(t *testing.T) {
	if _, err := ParsePartStatus("installed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParsePartStatus("lost"); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if !AllocationStatusConsumed.IsTerminal() || AllocationStatusLoaded.IsTerminal() {
		t.Fatal("unexpected terminal classification")
	}
	if InventoryLocationSupplier.TracksQuantity() || !InventoryLocationVehicle.TracksQuantity() {
		t.Fatal("unexpected quantity tracking classification")
	}
}

func TestParseStockTransferStatus(t *testing.T) {
	if got, err := ParseStockTransferStatus(" Completed "); err != nil || got != StockTransferStatusCompleted {
		t.Fatalf("expected completed, got %q err=%v", got, err)
	}
	if got, err := ParseStockTransferStatus("NOT_STARTED"); err != nil || got != StockTransferStatusNotStarted {
		t.Fatalf("expected not_started, got %q err=%v", got, err)
	}
	if _, err := ParseStockTransferStatus("shipped"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
}
