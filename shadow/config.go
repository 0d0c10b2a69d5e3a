// Package shadow records which nodes cast and receive shadows and sizes the
// shadow maps of casting lights.
package shadow

import (
	"errors"
	"log/slog"

	"haunted-house/core"
	"haunted-house/scene"
)

// Shadow-map policy for casting lights.
const (
	MinMapSize = 64

	PointMapSize = 256
	PointFar     = 7

	DirectionalMapSize = 1024
	DirectionalFar     = 15
)

// Config is the registry of shadow participants. Flags live on the nodes
// themselves; Config remembers who was configured so Validate can catch
// nodes flagged behind its back.
type Config struct {
	nodes      []*scene.Node
	registered map[*scene.Node]bool
}

func NewConfig() *Config {
	return &Config{registered: make(map[*scene.Node]bool)}
}

// Configure turns on the requested flags. It never clears a flag, so
// repeated calls only widen participation. A light that starts casting
// without a map gets the policy size for its kind.
func (c *Config) Configure(node *scene.Node, castsShadow, receivesShadow bool) error {
	if node == nil {
		return core.ConfigErrorf("configure shadows: nil node")
	}
	if castsShadow && node.Light != nil && node.Light.Kind == scene.LightAmbient {
		return core.ConfigErrorf("configure shadows: ambient light %q cannot cast", node.Name)
	}

	node.Shadow.CastShadow = node.Shadow.CastShadow || castsShadow
	node.Shadow.ReceiveShadow = node.Shadow.ReceiveShadow || receivesShadow
	c.register(node)

	if node.Light != nil && node.Shadow.CastShadow && !node.Shadow.HasMap() {
		size, far := PolicyFor(node.Light.Kind)
		node.Shadow.MapWidth, node.Shadow.MapHeight, node.Shadow.Far = size, size, far
	}
	return nil
}

// SetShadowMap sizes a light's shadow map.
func (c *Config) SetShadowMap(node *scene.Node, width, height int, far float32) error {
	if node == nil || node.Light == nil {
		return core.ConfigErrorf("shadow map: node is not a light")
	}
	if err := checkMap(node.Name, width, height, far); err != nil {
		return err
	}
	node.Shadow.MapWidth, node.Shadow.MapHeight, node.Shadow.Far = width, height, far
	c.register(node)
	slog.Debug("shadow map set", "light", node.Name, "width", width, "height", height, "far", far)
	return nil
}

// Validate checks the graph under root before the first frame: every
// flagged node must have been configured, and every casting light needs a
// usable map. All problems are reported together.
func (c *Config) Validate(root *scene.Node) error {
	var errs []error
	check := func(n *scene.Node) {
		if n.Light != nil && n.Shadow.CastShadow {
			if err := checkMap(n.Name, n.Shadow.MapWidth, n.Shadow.MapHeight, n.Shadow.Far); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if root != nil {
		root.Traverse(func(n *scene.Node) {
			if (n.Shadow.CastShadow || n.Shadow.ReceiveShadow) && !c.registered[n] {
				errs = append(errs, core.ConfigErrorf("node %q has shadow flags but was never configured", n.Name))
				return
			}
			if !c.registered[n] {
				check(n)
			}
		})
	}
	for _, n := range c.nodes {
		check(n)
	}
	return errors.Join(errs...)
}

// Nodes returns the configured nodes in registration order.
func (c *Config) Nodes() []*scene.Node {
	return c.nodes
}

// Casters returns configured nodes that cast, lights included.
func (c *Config) Casters() []*scene.Node {
	var out []*scene.Node
	for _, n := range c.nodes {
		if n.Shadow.CastShadow {
			out = append(out, n)
		}
	}
	return out
}

func (c *Config) register(node *scene.Node) {
	if c.registered[node] {
		return
	}
	c.registered[node] = true
	c.nodes = append(c.nodes, node)
}

// PolicyFor returns the default map size and far plane for a light kind.
func PolicyFor(kind scene.LightKind) (size int, far float32) {
	if kind == scene.LightDirectional {
		return DirectionalMapSize, DirectionalFar
	}
	return PointMapSize, PointFar
}

func checkMap(name string, width, height int, far float32) error {
	if !isPow2(width) || !isPow2(height) || width < MinMapSize || height < MinMapSize {
		return core.ConfigErrorf("light %q: shadow map %dx%d must be powers of two >= %d", name, width, height, MinMapSize)
	}
	if !(far > 0) {
		return core.ConfigErrorf("light %q: shadow far plane must be positive, got %v", name, far)
	}
	return nil
}

func isPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}
