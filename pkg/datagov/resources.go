package datagov

import (
	"github.com/lei/datagov-gateway/pkg/datagov/schema"
	"github.com/lei/datagov-gateway/pkg/datagov/transform"
)

// Built-in resources
var (
	// RoadTrafficAttica is the Attica road sensor traffic dataset
	RoadTrafficAttica = NewResource("road_traffic_attica", transform.RoadTrafficAttica, NewCollection[schema.Traffic])

	// OasaRidership is the OASA public transport ridership dataset
	OasaRidership = NewResource("oasa_ridership", transform.OasaRidership, NewCollection[schema.Ridership])
)

var defaultRegistry = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	if err := RegisterBuiltins(r); err != nil {
		panic(err)
	}
	r.Freeze()
	return r
}

// DefaultRegistry returns the frozen registry holding the built-in resources
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// RegisterBuiltins adds the built-in resources to r
func RegisterBuiltins(r *Registry) error {
	for _, d := range []Descriptor{RoadTrafficAttica, OasaRidership} {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}
