package layout

import (
	"fmt"
	"math"
	"testing"

	"schemaviz/geometry"
	"schemaviz/schema"
)

// chainDataset builds n entities linked one after another: e0 -> e1 -> ...
func chainDataset(n int) schema.Dataset {
	var ds schema.Dataset
	for i := 0; i < n; i++ {
		ds.Entities = append(ds.Entities, schema.Entity{
			ID:   fmt.Sprintf("e%d", i),
			Name: fmt.Sprintf("Entity%d", i),
			Kind: "collection",
		})
		if i > 0 {
			ds.Links = append(ds.Links, schema.Link{
				SourceID:    fmt.Sprintf("e%d", i-1),
				TargetID:    fmt.Sprintf("e%d", i),
				Cardinality: schema.OneToMany,
			})
		}
	}
	return ds
}

// starDataset links every leaf to a single hub.
func starDataset(leaves int) schema.Dataset {
	ds := schema.Dataset{Entities: []schema.Entity{{ID: "hub", Name: "Hub"}}}
	for i := 0; i < leaves; i++ {
		id := fmt.Sprintf("leaf%d", i)
		ds.Entities = append(ds.Entities, schema.Entity{ID: id, Name: id})
		ds.Links = append(ds.Links, schema.Link{SourceID: "hub", TargetID: id})
	}
	return ds
}

func newTestSimulation(ds schema.Dataset) *Simulation {
	return NewSimulation(schema.Resolve(ds, nil), DefaultConfig())
}

// validateSeparation checks that no two entity circles overlap.
func validateSeparation(t *testing.T, sim *Simulation, minDist float64) {
	t.Helper()
	ids := sim.IDs()
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, _ := sim.Position(ids[i])
			b, _ := sim.Position(ids[j])
			if d := geometry.Distance(a, b); d < minDist-1e-6 {
				t.Errorf("Entities %s and %s too close: %.2f < %.2f", ids[i], ids[j], d, minDist)
			}
		}
	}
}

// validateFinite checks that no position went NaN or infinite.
func validateFinite(t *testing.T, sim *Simulation) {
	t.Helper()
	for _, id := range sim.IDs() {
		p, _ := sim.Position(id)
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			t.Errorf("Entity %s has invalid position %v", id, p)
		}
	}
}
