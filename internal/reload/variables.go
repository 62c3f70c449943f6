package reload

import (
	"lantern/server/internal/gamedef"
	"lantern/server/internal/runtime"
)

// variableScope is the live surface the variable reconciler mutates: either a
// whole container or one structure variable's children.
type variableScope interface {
	Get(name string) (*runtime.Variable, bool)
	Declare(decl gamedef.VariableDescriptor) *runtime.Variable
	Remove(name string)
	RebuildOrder(decls []gamedef.VariableDescriptor)
}

// structureScope adapts one structure variable to the variableScope surface
// so the reconciler can recurse into its children.
type structureScope struct {
	v *runtime.Variable
}

func (s structureScope) Get(name string) (*runtime.Variable, bool) {
	return s.v.Child(name)
}

func (s structureScope) Declare(decl gamedef.VariableDescriptor) *runtime.Variable {
	return s.v.DeclareChild(decl)
}

func (s structureScope) Remove(name string) {
	s.v.RemoveChild(name)
}

func (s structureScope) RebuildOrder(decls []gamedef.VariableDescriptor) {
	s.v.RebuildChildOrder(decls)
}

// ReconcileVariables aligns a live variable container with its new
// declaration list, preserving live values wherever the declaration did not
// change:
//
//   - declared fresh in new: created as declared;
//   - primitive in both with equal value: untouched;
//   - primitive in new, differing value or changed shape: destroyed and
//     recreated from the new declaration;
//   - structure in new: recursed into child by child, unless the live entry
//     had no children, in which case it is recreated wholesale;
//   - array in new: destroyed and recreated whenever anything differs.
//     Index-based correlation across an edit cannot tell "moved" from
//     "edited", so arrays are atomic, non-diffable leaves. This loses
//     runtime edits to untouched sibling elements and is intentional;
//   - absent from new: destroyed.
//
// Declaration order is rebuilt from the new list afterwards, since
// enumeration order is observable by game logic.
func ReconcileVariables(log *Log, scope string, old, updated []gamedef.VariableDescriptor, live variableScope) {
	oldByName := make(map[string]gamedef.VariableDescriptor, len(old))
	for _, decl := range old {
		oldByName[decl.Name] = decl
	}
	newNames := make(map[string]struct{}, len(updated))

	for _, decl := range updated {
		newNames[decl.Name] = struct{}{}
		previous, existed := oldByName[decl.Name]
		liveVar, hasLive := live.Get(decl.Name)
		if !existed || !hasLive {
			live.Declare(decl)
			log.Infof("%s: added variable %q", scope, decl.Name)
			continue
		}
		if gamedef.EqualVariables(previous, decl) {
			continue
		}
		switch decl.Type {
		case gamedef.VariableStructure:
			if previous.Type != gamedef.VariableStructure || !liveVar.HasChildren() {
				live.Declare(decl)
				continue
			}
			ReconcileVariables(log, scope+"."+decl.Name, previous.Children, decl.Children, structureScope{v: liveVar})
		default:
			// Changed primitives and arrays are replaced wholesale.
			live.Declare(decl)
		}
	}

	for _, decl := range old {
		if _, kept := newNames[decl.Name]; kept {
			continue
		}
		live.Remove(decl.Name)
		log.Infof("%s: removed variable %q", scope, decl.Name)
	}

	live.RebuildOrder(updated)
}
