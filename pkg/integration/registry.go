package integration

// Registry is an insertion-ordered, read-only collection of integrations.
// It is built once from configuration (or from a dispatch request) and only
// read during dispatch, which makes concurrent reads safe by construction.
type Registry struct {
	integrations []Integration
}

// NewRegistry creates a registry preserving the given order.
func NewRegistry(integrations ...Integration) *Registry {
	items := make([]Integration, len(integrations))
	copy(items, integrations)
	return &Registry{integrations: items}
}

// Select returns every enabled integration subscribed to eventType,
// preserving registry insertion order. An empty result is valid and yields
// an empty dispatch summary downstream, not an error.
func (r *Registry) Select(eventType string) []Integration {
	var matched []Integration
	for _, in := range r.integrations {
		if in.Enabled && in.Subscribed(eventType) {
			matched = append(matched, in)
		}
	}
	return matched
}

// All returns a copy of every registered integration in insertion order.
func (r *Registry) All() []Integration {
	items := make([]Integration, len(r.integrations))
	copy(items, r.integrations)
	return items
}

// Len returns the number of registered integrations.
func (r *Registry) Len() int {
	return len(r.integrations)
}
