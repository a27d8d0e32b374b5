package movements

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

const (
	keyPrefix       = "smv1_"
	keyDigestLength = 40
	customSKUPrefix = "CUSTOM_"
	customSKUDigest = 12
)

// BuildIdempotencyKey fingerprints the logical event a payload describes.
// occurred_at is truncated to the minute so retries of the same event within
// that minute collapse onto one key.
func BuildIdempotencyKey(p Payload) string {
	fields := []string{
		p.Source,
		p.SourceID,
		string(p.MovementType),
		deref(p.FromLocationID),
		deref(p.ToLocationID),
		deref(p.PriceListItemID),
		p.ItemSKU,
		p.Quantity.String(),
		p.OccurredAt.UTC().Truncate(time.Minute).Format("2006-01-02T15:04Z"),
	}
	sum := sha256.Sum256([]byte(strings.Join(fields, "|")))
	return keyPrefix + hex.EncodeToString(sum[:])[:keyDigestLength]
}

// CustomSKU derives a stable SKU for items without a catalog link.
func CustomSKU(label string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(label)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return customSKUPrefix + strings.ToUpper(hex.EncodeToString(sum[:])[:customSKUDigest])
}

// IsCustomSKU reports whether sku was synthesized by CustomSKU.
func IsCustomSKU(sku string) bool {
	return strings.HasPrefix(sku, customSKUPrefix)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
