package shipbook

import (
	"log/slog"
)

// Merger is a pure function combining one group's partial results into one
// merged entity mapping. Implementations must tolerate failed slots and must
// never emit a key outside the entity's declared vocabulary.
type Merger interface {
	Merge(results map[string]TaskResult) (map[string]any, []*SchemaViolationError)
}

// AddressMerger shallow-merges the scalar field groups of one address
// entity. Sub-groups are field-disjoint by schema construction; a collision
// is a design error that tests assert against, while production resolves it
// last-wins with an error log.
type AddressMerger struct {
	Entity string
	Order  []string // task names in declaration (= precedence) order
	Vocab  map[string]struct{}
	Log    *slog.Logger
}

// NewAddressMerger derives the merger from the declared groups of entity.
func NewAddressMerger(entity string, log *slog.Logger) *AddressMerger {
	if log == nil {
		log = slog.Default()
	}
	groups := GroupsForEntity(entity)
	order := make([]string, len(groups))
	for i, g := range groups {
		order[i] = g.Name
	}
	return &AddressMerger{
		Entity: entity,
		Order:  order,
		Vocab:  EntityVocabulary(entity),
		Log:    log,
	}
}

func (m *AddressMerger) Merge(results map[string]TaskResult) (map[string]any, []*SchemaViolationError) {
	merged := make(map[string]any, len(m.Vocab))
	for key := range m.Vocab {
		merged[key] = nil // failed slots leave their fields null
	}

	var violations []*SchemaViolationError
	seen := make(map[string]string, len(m.Vocab)) // key -> first producing task
	for _, name := range m.Order {
		res, ok := results[name]
		if !ok || res.Failed() {
			continue
		}
		for key, value := range res.Data {
			if _, declared := m.Vocab[key]; !declared {
				v := &SchemaViolationError{Entity: m.Entity, Source: name, Key: key}
				violations = append(violations, v)
				m.Log.Warn("dropping undeclared merge key", "entity", m.Entity, "task", name, "key", key)
				continue
			}
			if prev, dup := seen[key]; dup && value != nil {
				// Sub-groups are declared disjoint; reaching this line means
				// the schema tables regressed. Later declaration wins.
				m.Log.Error("field collision across sub-groups",
					"entity", m.Entity, "key", key, "first", prev, "second", name)
			}
			if value != nil || seen[key] == "" {
				merged[key] = value
				seen[key] = name
			}
		}
	}
	return merged, violations
}

// ShipmentMerger combines the shipment sub-extractions. The basics and
// dimensions tasks each emit an item list; elements are paired positionally
// by index, since no stable item identifier exists across calls. Dimension
// entries beyond the basics length are discarded; basics items without a
// dimensions counterpart get null dimension fields. A count mismatch is
// surfaced as a warning, not reconciled.
type ShipmentMerger struct {
	ItemVocab map[string]struct{}
	Log       *slog.Logger
}

func NewShipmentMerger(log *slog.Logger) *ShipmentMerger {
	if log == nil {
		log = slog.Default()
	}
	return &ShipmentMerger{ItemVocab: ItemVocabulary(), Log: log}
}

func (m *ShipmentMerger) Merge(results map[string]TaskResult) (map[string]any, []*SchemaViolationError) {
	var violations []*SchemaViolationError

	basics := m.itemList(results, "shipment_basics")
	dims := m.itemList(results, "shipment_dimensions")
	if len(basics) != len(dims) && !results["shipment_basics"].Failed() && !results["shipment_dimensions"].Failed() {
		m.Log.Warn("item count mismatch between basics and dimensions; pairing by index",
			"basics", len(basics), "dimensions", len(dims))
	}

	items := make([]map[string]any, 0, len(basics))
	for i, basic := range basics {
		item := make(map[string]any, len(m.ItemVocab))
		for key := range m.ItemVocab {
			item[key] = nil
		}
		violations = append(violations, m.fillItem(item, basic, "shipment_basics")...)
		if i < len(dims) {
			violations = append(violations, m.fillItem(item, dims[i], "shipment_dimensions")...)
		}
		items = append(items, item)
	}

	merged := map[string]any{
		"items":          items,
		"shipment_notes": nil,
	}
	if res, ok := results["shipment_notes"]; ok && !res.Failed() {
		for key, value := range res.Data {
			if key != "shipment_notes" {
				v := &SchemaViolationError{Entity: EntityShipment, Source: "shipment_notes", Key: key}
				violations = append(violations, v)
				m.Log.Warn("dropping undeclared merge key", "entity", EntityShipment, "task", "shipment_notes", "key", key)
				continue
			}
			merged["shipment_notes"] = value
		}
	}
	return merged, violations
}

func (m *ShipmentMerger) fillItem(dst, src map[string]any, source string) []*SchemaViolationError {
	var violations []*SchemaViolationError
	for key, value := range src {
		if _, declared := m.ItemVocab[key]; !declared {
			violations = append(violations, &SchemaViolationError{Entity: EntityShipment, Source: source, Key: key})
			m.Log.Warn("dropping undeclared item key", "task", source, "key", key)
			continue
		}
		if value != nil {
			dst[key] = value
		}
	}
	return violations
}

// itemList extracts the "items" slice from a task slot, tolerating failed
// slots and malformed shapes.
func (m *ShipmentMerger) itemList(results map[string]TaskResult, task string) []map[string]any {
	res, ok := results[task]
	if !ok || res.Failed() {
		return nil
	}
	raw, ok := res.Data["items"]
	if !ok || raw == nil {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	items := make([]map[string]any, 0, len(list))
	for _, el := range list {
		if obj, ok := el.(map[string]any); ok {
			items = append(items, obj)
		}
	}
	return items
}
