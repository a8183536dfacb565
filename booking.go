package shipbook

// Entity names used as top-level keys of a BookingRecord and as group owners.
const (
	EntityPickup   = "pickup_address"
	EntityDelivery = "delivery_address"
	EntityBilling  = "billing_address"
	EntityShipment = "shipment"
)

// LoadCarrier enumerates the shipment packaging categories.
type LoadCarrier string

const (
	CarrierPallet         LoadCarrier = "pallet"
	CarrierPackage        LoadCarrier = "package"
	CarrierEuroPalletCage LoadCarrier = "euro_pallet_cage"
	CarrierDocument       LoadCarrier = "document"
	CarrierOther          LoadCarrier = "other"
)

// LoadCarriers holds the declared enum values, in schema order.
var LoadCarriers = []string{
	string(CarrierPallet),
	string(CarrierPackage),
	string(CarrierEuroPalletCage),
	string(CarrierDocument),
	string(CarrierOther),
}

// Valid reports whether c is in the declared set.
func (c LoadCarrier) Valid() bool {
	for _, v := range LoadCarriers {
		if string(c) == v {
			return true
		}
	}
	return false
}

// BookingRecord is the final structured output of one extraction run.
// All four entities are always present; a failed or absent entity is an
// empty map and the shipment item list is never nil.
type BookingRecord struct {
	PickupAddress   map[string]any `json:"pickup_address"`
	DeliveryAddress map[string]any `json:"delivery_address"`
	BillingAddress  map[string]any `json:"billing_address"`
	Shipment        map[string]any `json:"shipment"`
}

// Items returns the shipment item list, never nil.
func (b *BookingRecord) Items() []map[string]any {
	raw, ok := b.Shipment["items"]
	if !ok || raw == nil {
		return []map[string]any{}
	}
	switch items := raw.(type) {
	case []map[string]any:
		return items
	case []any:
		out := make([]map[string]any, 0, len(items))
		for _, it := range items {
			if m, ok := it.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return []map[string]any{}
}
