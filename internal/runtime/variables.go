package runtime

import (
	"lantern/server/internal/gamedef"
)

// Variable is the live, mutable counterpart of a gamedef.VariableDescriptor.
// Structure children are keyed by name and iterate in declaration order;
// array items are positional.
type Variable struct {
	Type   gamedef.VariableType
	Number float64
	String string
	Bool   bool

	children map[string]*Variable
	order    []string
	items    []*Variable

	note func()
}

// NewVariable builds a live variable tree from its declaration.
func NewVariable(decl gamedef.VariableDescriptor, note func()) *Variable {
	v := &Variable{Type: decl.Type, note: note}
	switch decl.Type {
	case gamedef.VariableNumber:
		v.Number = decl.Number
	case gamedef.VariableString:
		v.String = decl.String
	case gamedef.VariableBoolean:
		v.Bool = decl.Bool
	case gamedef.VariableStructure:
		v.children = make(map[string]*Variable, len(decl.Children))
		for _, child := range decl.Children {
			v.children[child.Name] = NewVariable(child, note)
			v.order = append(v.order, child.Name)
		}
	case gamedef.VariableArray:
		v.items = make([]*Variable, 0, len(decl.Children))
		for _, child := range decl.Children {
			v.items = append(v.items, NewVariable(child, note))
		}
	}
	return v
}

// HasChildren reports whether the live variable currently holds named children.
func (v *Variable) HasChildren() bool {
	return len(v.children) > 0
}

// Child returns the named child of a structure variable.
func (v *Variable) Child(name string) (*Variable, bool) {
	child, ok := v.children[name]
	return child, ok
}

// ChildNames returns the children in declaration order.
func (v *Variable) ChildNames() []string {
	return append([]string(nil), v.order...)
}

// Items returns the array items in order.
func (v *Variable) Items() []*Variable {
	return append([]*Variable(nil), v.items...)
}

// DeclareChild creates a fresh child from its declaration, replacing any
// existing child of the same name.
func (v *Variable) DeclareChild(decl gamedef.VariableDescriptor) *Variable {
	if v.children == nil {
		v.children = make(map[string]*Variable)
	}
	if _, exists := v.children[decl.Name]; !exists {
		v.order = append(v.order, decl.Name)
	}
	child := NewVariable(decl, v.note)
	v.children[decl.Name] = child
	v.mutated()
	return child
}

// RemoveChild destroys the named child.
func (v *Variable) RemoveChild(name string) {
	if _, ok := v.children[name]; !ok {
		return
	}
	delete(v.children, name)
	for i, n := range v.order {
		if n == name {
			v.order = append(v.order[:i], v.order[i+1:]...)
			break
		}
	}
	v.mutated()
}

// RebuildChildOrder restores declaration order over the surviving children.
func (v *Variable) RebuildChildOrder(decls []gamedef.VariableDescriptor) {
	order := make([]string, 0, len(v.children))
	for _, decl := range decls {
		if _, ok := v.children[decl.Name]; ok {
			order = append(order, decl.Name)
		}
	}
	v.order = order
}

func (v *Variable) mutated() {
	if v.note != nil {
		v.note()
	}
}

// VariableContainer is a live registry of named variables: a scene's own
// variables, an extension's contribution, or one instance's variables.
type VariableContainer struct {
	vars  map[string]*Variable
	order []string

	mutations uint64
	note      func()
}

// NewVariableContainer builds a container pre-populated from declarations.
func NewVariableContainer(decls []gamedef.VariableDescriptor) *VariableContainer {
	c := &VariableContainer{vars: make(map[string]*Variable, len(decls))}
	for _, decl := range decls {
		c.vars[decl.Name] = NewVariable(decl, c.noteMutation)
		c.order = append(c.order, decl.Name)
	}
	return c
}

// SetMutationHook forwards every mutation notice to the owning container, on
// top of the local counter.
func (c *VariableContainer) SetMutationHook(note func()) {
	c.note = note
}

func (c *VariableContainer) noteMutation() {
	c.mutations++
	if c.note != nil {
		c.note()
	}
}

// Mutations returns the number of mutating calls performed on this container
// and every variable tree it owns.
func (c *VariableContainer) Mutations() uint64 {
	return c.mutations
}

// Has reports whether the named variable exists.
func (c *VariableContainer) Has(name string) bool {
	_, ok := c.vars[name]
	return ok
}

// Get returns the named live variable.
func (c *VariableContainer) Get(name string) (*Variable, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// Names returns the variables in declaration order.
func (c *VariableContainer) Names() []string {
	return append([]string(nil), c.order...)
}

// Declare creates a fresh variable from its declaration, replacing any
// existing variable of the same name.
func (c *VariableContainer) Declare(decl gamedef.VariableDescriptor) *Variable {
	if c.vars == nil {
		c.vars = make(map[string]*Variable)
	}
	if _, exists := c.vars[decl.Name]; !exists {
		c.order = append(c.order, decl.Name)
	}
	v := NewVariable(decl, c.noteMutation)
	c.vars[decl.Name] = v
	c.noteMutation()
	return v
}

// Remove destroys the named variable.
func (c *VariableContainer) Remove(name string) {
	if _, ok := c.vars[name]; !ok {
		return
	}
	delete(c.vars, name)
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.noteMutation()
}

// RebuildOrder restores declaration order over the surviving variables.
// Enumeration order is observable by game logic, so it must follow the new
// declaration after a reload.
func (c *VariableContainer) RebuildOrder(decls []gamedef.VariableDescriptor) {
	order := make([]string, 0, len(c.vars))
	seen := make(map[string]struct{}, len(decls))
	for _, decl := range decls {
		if _, ok := c.vars[decl.Name]; ok {
			order = append(order, decl.Name)
			seen[decl.Name] = struct{}{}
		}
	}
	for _, name := range c.order {
		if _, ok := seen[name]; !ok {
			if _, live := c.vars[name]; live {
				order = append(order, name)
			}
		}
	}
	c.order = order
}
