package reconcile

import (
	"fmt"
	"sort"

	"github.com/agentstation/custody/pkg/observation"
)

// Strategy merges two entities that share an identity hash.
type Strategy interface {
	// Name returns the strategy name
	Name() string

	// Merge combines the entity already in the output with a later duplicate
	Merge(existing, incoming observation.Entity) observation.Entity
}

type strategyFunc struct {
	name  string
	merge func(existing, incoming observation.Entity) observation.Entity
}

func (s strategyFunc) Name() string { return s.name }

func (s strategyFunc) Merge(existing, incoming observation.Entity) observation.Entity {
	return s.merge(existing, incoming)
}

// RightBiased overlays the later entity's fields onto the earlier one, so on
// a conflict the later value wins and fields only the earlier one has survive.
func RightBiased() Strategy {
	return strategyFunc{name: "right-biased", merge: func(existing, incoming observation.Entity) observation.Entity {
		out := make(observation.Entity, len(existing)+len(incoming))
		for k, v := range existing {
			out[k] = v
		}
		for k, v := range incoming {
			out[k] = v
		}
		return out
	}}
}

// Additive keeps the earlier entity's values and only fills fields it lacks
// or holds as null.
func Additive() Strategy {
	return strategyFunc{name: "additive", merge: func(existing, incoming observation.Entity) observation.Entity {
		out := make(observation.Entity, len(existing)+len(incoming))
		for k, v := range existing {
			out[k] = v
		}
		for k, v := range incoming {
			if cur, ok := out[k]; !ok || cur == nil {
				out[k] = v
			}
		}
		return out
	}}
}

var strategies = map[string]func() Strategy{
	"right-biased": RightBiased,
	"additive":     Additive,
}

// StrategyByName returns a registered strategy.
func StrategyByName(name string) (Strategy, error) {
	if name == "" {
		return RightBiased(), nil
	}
	newStrategy, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown merge strategy %q (available: %v)", name, StrategyNames())
	}
	return newStrategy(), nil
}

// StrategyNames lists the registered strategies in sorted order.
func StrategyNames() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
