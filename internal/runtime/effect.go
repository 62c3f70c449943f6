package runtime

import (
	"lantern/server/internal/gamedef"
)

// EffectInstance is one live effect on an object instance or a layer.
// Parameters live in three typed maps mirroring the declaration.
type EffectInstance struct {
	Name string
	Type string

	booleans map[string]bool
	doubles  map[string]float64
	strings  map[string]string

	note func()
}

// NewEffectInstance constructs a live effect from its declaration.
func NewEffectInstance(decl gamedef.EffectDescriptor, note func()) *EffectInstance {
	e := &EffectInstance{
		Name:     decl.Name,
		Type:     decl.Type,
		booleans: make(map[string]bool, len(decl.BooleanParameters)),
		doubles:  make(map[string]float64, len(decl.DoubleParameters)),
		strings:  make(map[string]string, len(decl.StringParameters)),
		note:     note,
	}
	for k, v := range decl.BooleanParameters {
		e.booleans[k] = v
	}
	for k, v := range decl.DoubleParameters {
		e.doubles[k] = v
	}
	for k, v := range decl.StringParameters {
		e.strings[k] = v
	}
	return e
}

// BooleanParameter returns one boolean parameter.
func (e *EffectInstance) BooleanParameter(name string) (bool, bool) {
	v, ok := e.booleans[name]
	return v, ok
}

// DoubleParameter returns one number parameter.
func (e *EffectInstance) DoubleParameter(name string) (float64, bool) {
	v, ok := e.doubles[name]
	return v, ok
}

// StringParameter returns one string parameter.
func (e *EffectInstance) StringParameter(name string) (string, bool) {
	v, ok := e.strings[name]
	return v, ok
}

// SetBooleanParameter updates one boolean parameter.
func (e *EffectInstance) SetBooleanParameter(name string, value bool) {
	e.booleans[name] = value
	e.mutated()
}

// SetDoubleParameter updates one number parameter.
func (e *EffectInstance) SetDoubleParameter(name string, value float64) {
	e.doubles[name] = value
	e.mutated()
}

// SetStringParameter updates one string parameter.
func (e *EffectInstance) SetStringParameter(name string, value string) {
	e.strings[name] = value
	e.mutated()
}

// RemoveBooleanParameter drops one boolean parameter.
func (e *EffectInstance) RemoveBooleanParameter(name string) {
	if _, ok := e.booleans[name]; !ok {
		return
	}
	delete(e.booleans, name)
	e.mutated()
}

// RemoveDoubleParameter drops one number parameter.
func (e *EffectInstance) RemoveDoubleParameter(name string) {
	if _, ok := e.doubles[name]; !ok {
		return
	}
	delete(e.doubles, name)
	e.mutated()
}

// RemoveStringParameter drops one string parameter.
func (e *EffectInstance) RemoveStringParameter(name string) {
	if _, ok := e.strings[name]; !ok {
		return
	}
	delete(e.strings, name)
	e.mutated()
}

func (e *EffectInstance) mutated() {
	if e.note != nil {
		e.note()
	}
}
