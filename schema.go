package shipbook

// Declarative field-group schemas. Each group describes one schema-scoped
// extraction call: its owning entity, the prompt template tag, and the exact
// field vocabulary the model is allowed to fill. Groups of one entity are
// field-disjoint by construction; the merge step relies on that.

// FieldKind is the declared type of a schema field.
type FieldKind int

const (
	KindString FieldKind = iota
	KindInt
	KindFloat
	KindBool
	KindEnum
	KindItems // list of item objects, element shape in Field.Items
)

// Field declares one extractable field.
type Field struct {
	Name     string
	Kind     FieldKind
	Required bool
	Positive bool     // numeric fields that must be > 0
	Enum     []string // KindEnum only
	Desc     string
	Items    []Field // KindItems only: element fields
}

// FieldGroup declares one extractable sub-object: a named set of fields that
// one extraction task targets with one prompt.
type FieldGroup struct {
	Name   string // task/slot name, e.g. "pickup_basis"
	Entity string // owning top-level entity
	Prompt string // prompt template tag
	Fields []Field
}

// FieldNames returns the declared field names in declaration order.
func (g *FieldGroup) FieldNames() []string {
	names := make([]string, len(g.Fields))
	for i, f := range g.Fields {
		names[i] = f.Name
	}
	return names
}

// PromptKeys returns the field names a prompt should enumerate. Item-list
// groups expose the element fields, not the wrapping "items" key.
func (g *FieldGroup) PromptKeys() []string {
	if len(g.Fields) == 1 && g.Fields[0].Kind == KindItems {
		names := make([]string, len(g.Fields[0].Items))
		for i, f := range g.Fields[0].Items {
			names[i] = f.Name
		}
		return names
	}
	return g.FieldNames()
}

// Has reports whether name is part of the group's vocabulary.
func (g *FieldGroup) Has(name string) bool {
	for _, f := range g.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// JSONSchemaMap renders the group as a JSON-Schema document used to validate
// raw model output before it is accepted. Optional fields may be absent or
// null; required fields must be present and non-null; positive numerics
// reject values <= 0 at this boundary.
func (g *FieldGroup) JSONSchemaMap() map[string]any {
	props := make(map[string]any, len(g.Fields))
	var required []string
	for _, f := range g.Fields {
		props[f.Name] = fieldSchema(f)
		if f.Required {
			required = append(required, f.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func fieldSchema(f Field) map[string]any {
	switch f.Kind {
	case KindInt:
		s := typedSchema("integer", f.Required)
		if f.Positive {
			s["exclusiveMinimum"] = 0
		}
		return s
	case KindFloat:
		s := typedSchema("number", f.Required)
		if f.Positive {
			s["exclusiveMinimum"] = 0
		}
		return s
	case KindBool:
		return typedSchema("boolean", f.Required)
	case KindEnum:
		values := make([]any, 0, len(f.Enum)+1)
		for _, v := range f.Enum {
			values = append(values, v)
		}
		if !f.Required {
			values = append(values, nil)
		}
		return map[string]any{"enum": values}
	case KindItems:
		itemProps := make(map[string]any, len(f.Items))
		var itemRequired []string
		for _, it := range f.Items {
			itemProps[it.Name] = fieldSchema(it)
			if it.Required {
				itemRequired = append(itemRequired, it.Name)
			}
		}
		itemSchema := map[string]any{
			"type":       "object",
			"properties": itemProps,
		}
		if len(itemRequired) > 0 {
			itemSchema["required"] = itemRequired
		}
		return map[string]any{
			"type":  "array",
			"items": itemSchema,
		}
	default:
		return typedSchema("string", f.Required)
	}
}

func typedSchema(t string, required bool) map[string]any {
	if required {
		return map[string]any{"type": t}
	}
	return map[string]any{"type": []any{t, "null"}}
}

// locationFields is the shared location block of the three address entities.
// The original schema set repeats this field block per address type.
func locationFields() []Field {
	return []Field{
		{Name: "street", Kind: KindString, Required: true, Desc: "Street name and house number"},
		{Name: "address_addition", Kind: KindString, Desc: "Additional address information (building, floor, etc.)"},
		{Name: "postal_code", Kind: KindString, Required: true, Desc: "Postal code / ZIP code"},
		{Name: "city", Kind: KindString, Required: true, Desc: "City name"},
		{Name: "country", Kind: KindString, Desc: "Country code (ISO 2-letter)"},
	}
}

func itemBasicsFields() []Field {
	return []Field{
		{Name: "load_carrier", Kind: KindEnum, Required: true, Enum: LoadCarriers, Desc: "Type of load carrier"},
		{Name: "description", Kind: KindString, Desc: "Description of the goods being shipped"},
		{Name: "quantity", Kind: KindInt, Required: true, Positive: true, Desc: "Number of pieces of this item type"},
		{Name: "stackable", Kind: KindBool, Desc: "Whether the items can be stacked"},
	}
}

func itemDimensionFields() []Field {
	return []Field{
		{Name: "weight", Kind: KindFloat, Required: true, Positive: true, Desc: "Weight in kg"},
		{Name: "length", Kind: KindFloat, Positive: true, Desc: "Length in cm"},
		{Name: "width", Kind: KindFloat, Positive: true, Desc: "Width in cm"},
		{Name: "height", Kind: KindFloat, Positive: true, Desc: "Height in cm"},
	}
}

// bookingGroups is the full decomposed schema set: four entities, fourteen
// field groups. Treated as immutable configuration.
var bookingGroups = []FieldGroup{
	{
		Name: "pickup_basis", Entity: EntityPickup, Prompt: "pickup-address-basis",
		Fields: []Field{
			{Name: "company", Kind: KindString, Required: true, Desc: "Company name at pickup address"},
			{Name: "first_name", Kind: KindString, Desc: "First name of contact person at pickup"},
			{Name: "last_name", Kind: KindString, Desc: "Last name of contact person at pickup"},
		},
	},
	{Name: "pickup_location", Entity: EntityPickup, Prompt: "pickup-address-location", Fields: locationFields()},
	{
		Name: "pickup_time", Entity: EntityPickup, Prompt: "pickup-address-time",
		Fields: []Field{
			{Name: "pickup_date", Kind: KindString, Required: true, Desc: "Pickup date in format YYYY-MM-DD"},
			{Name: "pickup_time_from", Kind: KindString, Desc: "Start of pickup time window (HH:MM)"},
			{Name: "pickup_time_to", Kind: KindString, Desc: "End of pickup time window (HH:MM)"},
		},
	},
	{
		Name: "pickup_communication", Entity: EntityPickup, Prompt: "pickup-address-communication",
		Fields: []Field{
			{Name: "phone", Kind: KindString, Desc: "Phone number for pickup contact"},
			{Name: "email", Kind: KindString, Desc: "Email address for pickup contact"},
			{Name: "pickup_reference", Kind: KindString, Desc: "Reference number or code for pickup"},
			{Name: "pickup_notes", Kind: KindString, Desc: "Special instructions for pickup, access or loading"},
		},
	},
	{
		Name: "delivery_basis", Entity: EntityDelivery, Prompt: "delivery-address-basis",
		Fields: []Field{
			{Name: "company", Kind: KindString, Required: true, Desc: "Company name at delivery address"},
			{Name: "first_name", Kind: KindString, Desc: "First name of contact person at delivery"},
			{Name: "last_name", Kind: KindString, Desc: "Last name of contact person at delivery"},
		},
	},
	{Name: "delivery_location", Entity: EntityDelivery, Prompt: "delivery-address-location", Fields: locationFields()},
	{
		Name: "delivery_time", Entity: EntityDelivery, Prompt: "delivery-address-time",
		Fields: []Field{
			{Name: "delivery_date", Kind: KindString, Desc: "Delivery date in format YYYY-MM-DD"},
			{Name: "delivery_time_from", Kind: KindString, Desc: "Start of delivery time window (HH:MM)"},
			{Name: "delivery_time_to", Kind: KindString, Desc: "End of delivery time window (HH:MM)"},
		},
	},
	{
		Name: "delivery_communication", Entity: EntityDelivery, Prompt: "delivery-address-communication",
		Fields: []Field{
			{Name: "phone", Kind: KindString, Desc: "Phone number for delivery contact"},
			{Name: "email", Kind: KindString, Desc: "Email address for delivery contact"},
			{Name: "delivery_reference", Kind: KindString, Desc: "Reference number or code for delivery"},
			{Name: "delivery_notes", Kind: KindString, Desc: "Special instructions for delivery, access or unloading"},
		},
	},
	{
		Name: "billing_basis", Entity: EntityBilling, Prompt: "billing-address-basis",
		Fields: []Field{
			{Name: "company", Kind: KindString, Required: true, Desc: "Company name for billing"},
			{Name: "salutation", Kind: KindString, Desc: "Salutation for contact person (Mr., Mrs., etc.)"},
			{Name: "first_name", Kind: KindString, Desc: "First name of contact person for billing"},
			{Name: "last_name", Kind: KindString, Desc: "Last name of contact person for billing"},
		},
	},
	{Name: "billing_location", Entity: EntityBilling, Prompt: "billing-address-location", Fields: locationFields()},
	{
		Name: "billing_communication", Entity: EntityBilling, Prompt: "billing-address-communication",
		Fields: []Field{
			{Name: "phone", Kind: KindString, Desc: "Phone number for billing contact"},
			{Name: "email", Kind: KindString, Desc: "Email address for billing contact"},
			{Name: "billing_email", Kind: KindString, Desc: "Email address specifically for billing/invoices"},
			{Name: "reference", Kind: KindString, Desc: "Reference number or code for billing"},
			{Name: "vat_id", Kind: KindString, Desc: "VAT ID / tax identification number"},
		},
	},
	{
		Name: "shipment_basics", Entity: EntityShipment, Prompt: "shipment-item-basics",
		Fields: []Field{
			{Name: "items", Kind: KindItems, Required: true, Items: itemBasicsFields(), Desc: "Items in the shipment, basic information"},
		},
	},
	{
		Name: "shipment_dimensions", Entity: EntityShipment, Prompt: "shipment-item-dimensions",
		Fields: []Field{
			{Name: "items", Kind: KindItems, Required: true, Items: itemDimensionFields(), Desc: "Items in the shipment, dimension information"},
		},
	},
	{
		Name: "shipment_notes", Entity: EntityShipment, Prompt: "shipment-notes",
		Fields: []Field{
			{Name: "shipment_notes", Kind: KindString, Desc: "Specific notes about the shipment not covered by other fields"},
		},
	},
}

// BookingGroups returns the declared field groups for the shipment-booking
// schema. The slice is shared; callers must not mutate it.
func BookingGroups() []FieldGroup { return bookingGroups }

// GroupsForEntity filters the declared groups by owning entity, preserving
// declaration order. Declaration order is also merge precedence order.
func GroupsForEntity(entity string) []FieldGroup {
	var out []FieldGroup
	for _, g := range bookingGroups {
		if g.Entity == entity {
			out = append(out, g)
		}
	}
	return out
}

// EntityVocabulary is the union of the entity's group vocabularies: the only
// keys allowed in a merged entity. For the shipment entity the item element
// fields live in ItemVocabulary instead.
func EntityVocabulary(entity string) map[string]struct{} {
	vocab := make(map[string]struct{})
	for _, g := range GroupsForEntity(entity) {
		for _, f := range g.Fields {
			vocab[f.Name] = struct{}{}
		}
	}
	return vocab
}

// ItemVocabulary is the union of basics and dimensions element fields: the
// only keys allowed in a merged shipment item.
func ItemVocabulary() map[string]struct{} {
	vocab := make(map[string]struct{})
	for _, f := range itemBasicsFields() {
		vocab[f.Name] = struct{}{}
	}
	for _, f := range itemDimensionFields() {
		vocab[f.Name] = struct{}{}
	}
	return vocab
}
