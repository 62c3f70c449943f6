package runtime

import (
	"lantern/server/internal/gamedef"
)

// Layer is one live rendering layer. RenderingType is fixed at creation: the
// renderer allocates its pipeline from it, so changing it requires a restart
// rather than a hot reload.
type Layer struct {
	Name          string
	RenderingType string

	visible               bool
	isLightingLayer       bool
	ambientLightColor     string
	followBaseLayerCamera bool

	effects map[string]*EffectInstance

	note func()
}

// NewLayer constructs a live layer from its declaration.
func NewLayer(decl gamedef.LayerDescriptor, note func()) *Layer {
	layer := &Layer{
		Name:                  decl.Name,
		RenderingType:         decl.RenderingType,
		visible:               decl.Visible,
		isLightingLayer:       decl.IsLightingLayer,
		ambientLightColor:     decl.AmbientLightColor,
		followBaseLayerCamera: decl.FollowBaseLayerCamera,
		effects:               make(map[string]*EffectInstance, len(decl.Effects)),
		note:                  note,
	}
	for _, effect := range decl.Effects {
		layer.effects[effect.Name] = NewEffectInstance(effect, note)
	}
	return layer
}

// Visible reports the layer visibility.
func (l *Layer) Visible() bool {
	return l.visible
}

// SetVisible updates the layer visibility.
func (l *Layer) SetVisible(visible bool) {
	l.visible = visible
	l.mutated()
}

// IsLightingLayer reports whether the layer renders lights.
func (l *Layer) IsLightingLayer() bool {
	return l.isLightingLayer
}

// SetLightingLayer toggles light rendering.
func (l *Layer) SetLightingLayer(lighting bool) {
	l.isLightingLayer = lighting
	l.mutated()
}

// AmbientLightColor returns the lighting base color.
func (l *Layer) AmbientLightColor() string {
	return l.ambientLightColor
}

// SetAmbientLightColor updates the lighting base color.
func (l *Layer) SetAmbientLightColor(color string) {
	l.ambientLightColor = color
	l.mutated()
}

// FollowBaseLayerCamera reports whether the lighting camera tracks the base layer.
func (l *Layer) FollowBaseLayerCamera() bool {
	return l.followBaseLayerCamera
}

// SetFollowBaseLayerCamera updates the camera-follow flag.
func (l *Layer) SetFollowBaseLayerCamera(follow bool) {
	l.followBaseLayerCamera = follow
	l.mutated()
}

// Effect returns the named live effect.
func (l *Layer) Effect(name string) (*EffectInstance, bool) {
	effect, ok := l.effects[name]
	return effect, ok
}

// EffectNames returns the names of the live effects.
func (l *Layer) EffectNames() []string {
	names := make([]string, 0, len(l.effects))
	for name := range l.effects {
		names = append(names, name)
	}
	return names
}

// AddEffect creates a live effect from its declaration.
func (l *Layer) AddEffect(decl gamedef.EffectDescriptor) *EffectInstance {
	effect := NewEffectInstance(decl, l.note)
	l.effects[decl.Name] = effect
	l.mutated()
	return effect
}

// RemoveEffect destroys the named effect. It reports whether the effect existed.
func (l *Layer) RemoveEffect(name string) bool {
	if _, ok := l.effects[name]; !ok {
		return false
	}
	delete(l.effects, name)
	l.mutated()
	return true
}

func (l *Layer) mutated() {
	if l.note != nil {
		l.note()
	}
}
