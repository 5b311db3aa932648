// Package configuration implements the layered property store used during
// blueprint resolution.
//
// A Configuration is an ordered chain of layers, most specific first. Reads
// walk the chain until a layer answers; writes and removals only touch the
// first layer. A removal leaves a tombstone so that values inherited from
// less specific layers are hidden as well.
package configuration

import (
	"fmt"

	"github.com/tiendc/go-deepcopy"
)

// Layer holds the properties and attributes owned by one level of the chain.
type Layer struct {
	Properties map[string]map[string]string
	// Attributes maps config type -> attribute name -> property name -> value.
	Attributes map[string]map[string]map[string]string
	Removed    map[string]map[string]bool
}

func newLayer() *Layer {
	return &Layer{
		Properties: map[string]map[string]string{},
		Attributes: map[string]map[string]map[string]string{},
		Removed:    map[string]map[string]bool{},
	}
}

type Configuration struct {
	layers []*Layer
}

// New creates a single-layer configuration owning copies of the given maps.
// Either map may be nil.
func New(properties map[string]map[string]string, attributes map[string]map[string]map[string]string) *Configuration {
	l := newLayer()
	for t, props := range properties {
		m := make(map[string]string, len(props))
		for k, v := range props {
			m[k] = v
		}
		l.Properties[t] = m
	}
	for t, attrs := range attributes {
		am := make(map[string]map[string]string, len(attrs))
		for a, props := range attrs {
			pm := make(map[string]string, len(props))
			for k, v := range props {
				pm[k] = v
			}
			am[a] = pm
		}
		l.Attributes[t] = am
	}
	return &Configuration{layers: []*Layer{l}}
}

// NewWithParent is New followed by SetParent.
func NewWithParent(properties map[string]map[string]string, attributes map[string]map[string]map[string]string, parent *Configuration) *Configuration {
	c := New(properties, attributes)
	c.SetParent(parent)
	return c
}

// SetParent replaces everything below the first layer with the layers of parent.
// The parent layers are shared, not copied.
func (c *Configuration) SetParent(parent *Configuration) {
	c.layers = c.layers[:1:1]
	if parent != nil {
		c.layers = append(c.layers, parent.layers...)
	}
}

// Depth is the number of layers in the chain.
func (c *Configuration) Depth() int {
	return len(c.layers)
}

// Get returns the value of the property from the most specific layer that defines it.
// The boolean is false when the property is absent or was removed.
func (c *Configuration) Get(configType, name string) (string, bool) {
	for _, l := range c.layers {
		if l.Removed[configType][name] {
			return "", false
		}
		if v, ok := l.Properties[configType][name]; ok {
			return v, true
		}
	}
	return "", false
}

// Value is Get without the presence flag.
func (c *Configuration) Value(configType, name string) string {
	v, _ := c.Get(configType, name)
	return v
}

// Set writes into the first layer.
func (c *Configuration) Set(configType, name, value string) {
	l := c.layers[0]
	props, ok := l.Properties[configType]
	if !ok {
		props = map[string]string{}
		l.Properties[configType] = props
	}
	props[name] = value
	if removed := l.Removed[configType]; removed != nil {
		delete(removed, name)
	}
}

// Remove hides the property for this configuration and returns the value it had.
func (c *Configuration) Remove(configType, name string) (string, bool) {
	old, existed := c.Get(configType, name)
	l := c.layers[0]
	if props := l.Properties[configType]; props != nil {
		delete(props, name)
	}
	for _, props := range l.Attributes[configType] {
		delete(props, name)
	}
	inherited := false
	for _, p := range c.layers[1:] {
		if p.Removed[configType][name] {
			break
		}
		if _, ok := p.Properties[configType][name]; ok {
			inherited = true
			break
		}
	}
	if inherited {
		removed, ok := l.Removed[configType]
		if !ok {
			removed = map[string]bool{}
			l.Removed[configType] = removed
		}
		removed[name] = true
	}
	return old, existed
}

// Properties returns a copy of the first layer's properties.
func (c *Configuration) Properties() map[string]map[string]string {
	return c.FullPropertiesDepth(1)
}

// FullProperties returns the merged view of the whole chain.
func (c *Configuration) FullProperties() map[string]map[string]string {
	return c.FullPropertiesDepth(len(c.layers))
}

// FullPropertiesDepth merges the first depth layers. More specific layers win and
// tombstones hide anything below them. The result is a fresh copy.
func (c *Configuration) FullPropertiesDepth(depth int) map[string]map[string]string {
	if depth > len(c.layers) {
		depth = len(c.layers)
	}
	merged := map[string]map[string]string{}
	for i := depth - 1; i >= 0; i-- {
		l := c.layers[i]
		for t, props := range l.Properties {
			m, ok := merged[t]
			if !ok {
				m = map[string]string{}
				merged[t] = m
			}
			for k, v := range props {
				m[k] = v
			}
		}
		for t, removed := range l.Removed {
			for k := range removed {
				delete(merged[t], k)
			}
		}
	}
	return merged
}

// FullAttributes returns the merged attribute view of the whole chain. Attributes of
// removed properties are left out.
func (c *Configuration) FullAttributes() map[string]map[string]map[string]string {
	merged := map[string]map[string]map[string]string{}
	for i := len(c.layers) - 1; i >= 0; i-- {
		l := c.layers[i]
		for t, attrs := range l.Attributes {
			mt, ok := merged[t]
			if !ok {
				mt = map[string]map[string]string{}
				merged[t] = mt
			}
			for a, props := range attrs {
				ma, ok := mt[a]
				if !ok {
					ma = map[string]string{}
					mt[a] = ma
				}
				for k, v := range props {
					ma[k] = v
				}
			}
		}
		for t, removed := range l.Removed {
			for _, ma := range merged[t] {
				for k := range removed {
					delete(ma, k)
				}
			}
		}
	}
	return merged
}

// Snapshot deep-copies the first layer so that it can be restored later.
func (c *Configuration) Snapshot() (*Layer, error) {
	snap := newLayer()
	if err := deepcopy.Copy(snap, c.layers[0]); err != nil {
		return nil, fmt.Errorf("snapshot configuration: %w", err)
	}
	return snap, nil
}

// Restore puts the content of a snapshot taken by Snapshot back into the first layer.
// The layer keeps its identity so chains sharing it observe the restore.
func (c *Configuration) Restore(snap *Layer) {
	if snap == nil {
		return
	}
	*c.layers[0] = *snap
}
