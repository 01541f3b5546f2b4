package catalog

import "testing"

func TestDefaultCatalogTiers(t *testing.T) {
	c := Default()

	plans := c.Plans()
	if len(plans) != 4 {
		t.Fatalf("len(plans)=%d, want 4", len(plans))
	}

	want := []string{"Starter", "Basic", "Standard", "Pro"}
	for i, name := range want {
		if plans[i].Name != name {
			t.Fatalf("plans[%d].Name=%q, want %q", i, plans[i].Name, name)
		}
	}

	basic, ok := c.Resolve("Basic")
	if !ok {
		t.Fatal("Resolve(Basic) not found")
	}
	if basic.MemoryMB != 8192 || basic.CPUs != 1 || basic.StorageGB != 10 {
		t.Fatalf("Basic spec=%+v, want 8192MB/1cpu/10GB", basic)
	}
}

func TestResolveUnknownPlan(t *testing.T) {
	c := Default()
	if _, ok := c.Resolve("Enterprise"); ok {
		t.Fatal("Resolve(Enterprise)=ok, want not found")
	}
}

func TestPriceFor(t *testing.T) {
	c := Default()

	tests := []struct {
		plan      string
		processor string
		want      int
		ok        bool
	}{
		{"Starter", ProcessorIntel, 42, true},
		{"Starter", ProcessorAMD, 83, true},
		{"Basic", ProcessorIntel, 96, true},
		{"Basic", ProcessorAMD, 164, true},
		{"Standard", ProcessorIntel, 192, true},
		{"Standard", ProcessorAMD, 320, true},
		{"Pro", ProcessorIntel, 220, true},
		{"Pro", ProcessorAMD, 340, true},
		{"Basic", "SPARC", 0, false},
		{"Enterprise", ProcessorIntel, 0, false},
	}
	for _, tt := range tests {
		got, ok := c.PriceFor(tt.plan, tt.processor)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("PriceFor(%s,%s)=(%d,%v), want (%d,%v)",
				tt.plan, tt.processor, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNewSkipsDuplicateNames(t *testing.T) {
	c := New([]PlanSpec{
		{Name: "Solo", MemoryMB: 1024},
		{Name: "Solo", MemoryMB: 2048},
	})

	p, ok := c.Resolve("Solo")
	if !ok {
		t.Fatal("Resolve(Solo) not found")
	}
	if p.MemoryMB != 1024 {
		t.Fatalf("MemoryMB=%d, want first definition 1024", p.MemoryMB)
	}
	if len(c.Plans()) != 1 {
		t.Fatalf("len(plans)=%d, want 1", len(c.Plans()))
	}
}
