package catalog

// Processor families with independently priced tiers.
const (
	ProcessorIntel = "Intel"
	ProcessorAMD   = "AMD"
)

// PlanSpec is one service tier. Specs are immutable once the catalog is
// built; provisioned instances copy these values and never read them again.
type PlanSpec struct {
	Name      string         `json:"name"`
	MemoryMB  int            `json:"memory_mb"`
	CPUs      int            `json:"cpus"`
	StorageGB int            `json:"storage_gb"`
	Prices    map[string]int `json:"prices"`
}

// Catalog is a static table of plans looked up by name.
type Catalog struct {
	plans map[string]PlanSpec
	order []string
}

// New builds a catalog from the given plans, preserving their order.
func New(plans []PlanSpec) *Catalog {
	c := &Catalog{plans: make(map[string]PlanSpec, len(plans))}
	for _, p := range plans {
		if _, ok := c.plans[p.Name]; ok {
			continue
		}
		c.plans[p.Name] = p
		c.order = append(c.order, p.Name)
	}
	return c
}

// Default returns the built-in four-tier catalog.
func Default() *Catalog {
	return New([]PlanSpec{
		{Name: "Starter", MemoryMB: 4096, CPUs: 1, StorageGB: 10, Prices: map[string]int{ProcessorIntel: 42, ProcessorAMD: 83}},
		{Name: "Basic", MemoryMB: 8192, CPUs: 1, StorageGB: 10, Prices: map[string]int{ProcessorIntel: 96, ProcessorAMD: 164}},
		{Name: "Standard", MemoryMB: 12288, CPUs: 2, StorageGB: 10, Prices: map[string]int{ProcessorIntel: 192, ProcessorAMD: 320}},
		{Name: "Pro", MemoryMB: 16384, CPUs: 2, StorageGB: 10, Prices: map[string]int{ProcessorIntel: 220, ProcessorAMD: 340}},
	})
}

// Resolve looks up a plan by name.
func (c *Catalog) Resolve(name string) (PlanSpec, bool) {
	p, ok := c.plans[name]
	return p, ok
}

// PriceFor returns the price of a plan for the given processor family.
func (c *Catalog) PriceFor(name, processor string) (int, bool) {
	p, ok := c.plans[name]
	if !ok {
		return 0, false
	}
	price, ok := p.Prices[processor]
	return price, ok
}

// Plans returns all plans in catalog order.
func (c *Catalog) Plans() []PlanSpec {
	out := make([]PlanSpec, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.plans[name])
	}
	return out
}
