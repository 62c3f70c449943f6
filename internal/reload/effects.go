package reload

import (
	"fmt"
	"math"

	"lantern/server/internal/gamedef"
	"lantern/server/internal/runtime"
)

// effectHost is the live surface carrying a named effect map: an object
// instance or a layer.
type effectHost interface {
	Effect(name string) (*runtime.EffectInstance, bool)
	AddEffect(decl gamedef.EffectDescriptor) *runtime.EffectInstance
	RemoveEffect(name string) bool
}

// reconcileEffects aligns the live effects of one host with the new
// declarations. A kept effect of unchanged type receives a per-parameter
// patch; a type change is destroy+recreate, since no effect implementation
// can be retyped in place.
func reconcileEffects(log *Log, scope string, host effectHost, old, updated []gamedef.EffectDescriptor) {
	hooks := entityHooks[gamedef.EffectDescriptor]{
		kind:  "effect",
		key:   func(decl gamedef.EffectDescriptor) string { return decl.Name },
		equal: gamedef.EqualEffects,
		create: func(decl gamedef.EffectDescriptor) error {
			host.AddEffect(decl)
			return nil
		},
		destroy: func(name string) error {
			if !host.RemoveEffect(name) {
				return fmt.Errorf("no live effect")
			}
			return nil
		},
		patch: func(previous, decl gamedef.EffectDescriptor) error {
			live, ok := host.Effect(decl.Name)
			if !ok {
				host.AddEffect(decl)
				return nil
			}
			if previous.Type != decl.Type {
				host.RemoveEffect(decl.Name)
				host.AddEffect(decl)
				return nil
			}
			patchEffectParameters(live, previous, decl)
			return nil
		},
	}
	reconcileEntityList(log, scope, hooks, old, updated)
}

// patchEffectParameters copies only the parameters whose value differs
// between the old and new declarations, one typed map at a time.
func patchEffectParameters(live *runtime.EffectInstance, old, updated gamedef.EffectDescriptor) {
	for name, value := range updated.BooleanParameters {
		if previous, had := old.BooleanParameters[name]; had && previous == value {
			continue
		}
		live.SetBooleanParameter(name, value)
	}
	for name := range old.BooleanParameters {
		if _, kept := updated.BooleanParameters[name]; !kept {
			live.RemoveBooleanParameter(name)
		}
	}

	for name, value := range updated.DoubleParameters {
		if previous, had := old.DoubleParameters[name]; had && equalDouble(previous, value) {
			continue
		}
		live.SetDoubleParameter(name, value)
	}
	for name := range old.DoubleParameters {
		if _, kept := updated.DoubleParameters[name]; !kept {
			live.RemoveDoubleParameter(name)
		}
	}

	for name, value := range updated.StringParameters {
		if previous, had := old.StringParameters[name]; had && previous == value {
			continue
		}
		live.SetStringParameter(name, value)
	}
	for name := range old.StringParameters {
		if _, kept := updated.StringParameters[name]; !kept {
			live.RemoveStringParameter(name)
		}
	}
}

func equalDouble(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}
