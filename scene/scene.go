package scene

import (
	"haunted-house/core"
)

// Fog blends geometry toward Color linearly between Near and Far camera
// distances.
type Fog struct {
	Enabled bool
	Color   core.Color
	Near    float32
	Far     float32
}

// Scene is the render-facing aggregate: the node tree plus the camera and
// global parameters the renderer reads each draw.
type Scene struct {
	Root       *Node
	Camera     *Camera
	Fog        Fog
	ClearColor core.Color
}

func NewScene() *Scene {
	return &Scene{
		Root:       NewNode("Root"),
		ClearColor: core.ColorBlack,
	}
}

func (s *Scene) SetCamera(camera *Camera) {
	s.Camera = camera
}

func (s *Scene) AddNode(node *Node) {
	s.Root.AddChild(node)
}

func (s *Scene) RemoveNode(node *Node) {
	s.Root.RemoveChild(node)
}

func (s *Scene) Find(name string) *Node {
	return s.Root.Find(name)
}

// Lights returns every visible light node in traversal order.
func (s *Scene) Lights() []*Node {
	var lights []*Node
	s.Root.Traverse(func(node *Node) {
		if node.Visible && node.Light != nil {
			lights = append(lights, node)
		}
	})
	return lights
}
