package di

// ProviderSnapshot describes one registered provider.
type ProviderSnapshot struct {
	ID           string   `json:"id"`
	Key          string   `json:"key"`
	Component    string   `json:"component"`
	Scoped       bool     `json:"scoped"`
	State        string   `json:"state"`
	RefCount     int      `json:"ref_count"`
	Owners       int      `json:"owners"`
	Cached       bool     `json:"cached"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// Snapshot describes every provider of every attached component, in search
// order. Shadowed providers are included.
func (g *Graph) Snapshot() []ProviderSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []ProviderSnapshot
	for _, c := range g.components {
		for _, p := range c.Providers() {
			_, cached := p.CachedInstance()

			var deps []string
			for _, dep := range p.Dependencies() {
				deps = append(deps, dep.key.String())
			}

			out = append(out, ProviderSnapshot{
				ID:           p.ID().String(),
				Key:          p.key.String(),
				Component:    c.Name(),
				Scoped:       p.Scoped(),
				State:        p.State().String(),
				RefCount:     p.RefCount(),
				Owners:       len(p.Owners()),
				Cached:       cached,
				Dependencies: deps,
			})
		}
	}

	return out
}
