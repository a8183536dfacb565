package shipbook

import "strings"

// placeholderSentinels are the out-of-band markers extraction calls emit
// when a field is truly absent from the text. Assembly collapses them all
// to nil, the single canonical "not available" representation.
var placeholderSentinels = map[string]struct{}{
	"NULL":      {},
	"null":      {},
	"<UNKNOWN>": {},
	"UNKNOWN":   {},
	"N/A":       {},
	"n/a":       {},
}

// Assemble collects the four merged entities into the final booking record.
// Every top-level key is always present: a missing or failed entity defaults
// to an empty mapping and the shipment item list to an empty list. Sentinel
// placeholders are normalized recursively before the record is returned.
func Assemble(pickup, delivery, billing, shipment map[string]any) *BookingRecord {
	record := &BookingRecord{
		PickupAddress:   orEmpty(pickup),
		DeliveryAddress: orEmpty(delivery),
		BillingAddress:  orEmpty(billing),
		Shipment:        orEmpty(shipment),
	}
	if _, ok := record.Shipment["items"]; !ok || record.Shipment["items"] == nil {
		record.Shipment["items"] = []map[string]any{}
	}

	record.PickupAddress = normalizeMap(record.PickupAddress)
	record.DeliveryAddress = normalizeMap(record.DeliveryAddress)
	record.BillingAddress = normalizeMap(record.BillingAddress)
	record.Shipment = normalizeMap(record.Shipment)
	return record
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// NormalizePlaceholders rewrites sentinel placeholder strings to nil,
// recursing through nested mappings and lists. It is idempotent: a second
// application is a no-op.
func NormalizePlaceholders(v any) any {
	switch value := v.(type) {
	case string:
		if _, sentinel := placeholderSentinels[strings.TrimSpace(value)]; sentinel {
			return nil
		}
		return value
	case map[string]any:
		return normalizeMap(value)
	case []any:
		out := make([]any, len(value))
		for i, el := range value {
			out[i] = NormalizePlaceholders(el)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(value))
		for i, el := range value {
			out[i] = normalizeMap(el)
		}
		return out
	default:
		return v
	}
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		out[key] = NormalizePlaceholders(value)
	}
	return out
}
