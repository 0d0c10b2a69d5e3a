// Package drawlist turns a scene graph into the ordered work of one frame:
// which meshes to draw, in what order, which ones cast shadows, and where
// the lights and their shadow cameras are.
package drawlist

import (
	"sort"

	"github.com/chewxy/math32"

	"haunted-house/core"
	"haunted-house/math"
	"haunted-house/scene"
)

// Directional shadow camera bounds, in light space.
const (
	ShadowOrthoHalfExtent = 5
	ShadowNear            = 0.5
)

// Item is one mesh node with its world matrix resolved.
type Item struct {
	Node     *scene.Node
	Model    math.Mat4
	Distance float32 // world-space distance from the camera
}

// List is the draw work for one frame.
type List struct {
	Opaque      []Item
	Transparent []Item // far to near
	Casters     []Item // every visible caster, culled or not
	Culled      int
}

// Triangles counts the triangles drawn by the main pass.
func (l List) Triangles() int {
	n := 0
	for _, it := range l.Opaque {
		n += it.Node.Mesh.TriangleCount()
	}
	for _, it := range l.Transparent {
		n += it.Node.Mesh.TriangleCount()
	}
	return n
}

// Build walks the visible part of the graph. A hidden node hides its
// subtree. With cull set, meshes whose world AABB lies outside the camera
// frustum are left out of the main pass but still cast shadows.
func Build(s *scene.Scene, cam *scene.Camera, cull bool) List {
	var list List
	frustum := scene.FrustumFromVP(cam.GetViewProjectionMatrix())

	walk(s.Root, func(n *scene.Node) {
		if n.Mesh == nil {
			return
		}
		model := n.GetWorldMatrix()
		it := Item{Node: n, Model: model, Distance: model.Translation().Distance(cam.Position)}
		if n.Shadow.CastShadow {
			list.Casters = append(list.Casters, it)
		}
		if cull && n.Mesh.HasLocalAABB {
			box := scene.ComputeAABB(n.Mesh, model)
			if !box.IntersectsFrustum(&frustum) {
				list.Culled++
				return
			}
		}
		if n.Mesh.Material != nil && n.Mesh.Material.Transparent {
			list.Transparent = append(list.Transparent, it)
		} else {
			list.Opaque = append(list.Opaque, it)
		}
	})

	sort.SliceStable(list.Transparent, func(i, j int) bool {
		return list.Transparent[i].Distance > list.Transparent[j].Distance
	})
	return list
}

// Lights is the lighting of one frame.
type Lights struct {
	Ambient     core.Color // sum of ambient colors times intensity
	Directional *scene.Node
	Points      []*scene.Node
}

// GatherLights collects the visible lights. The first directional light is
// used; point lights past maxPoints are dropped in traversal order.
func GatherLights(s *scene.Scene, maxPoints int) Lights {
	var out Lights
	walk(s.Root, func(n *scene.Node) {
		l := n.Light
		if l == nil {
			return
		}
		switch l.Kind {
		case scene.LightAmbient:
			out.Ambient.R += l.Color.R * l.Intensity
			out.Ambient.G += l.Color.G * l.Intensity
			out.Ambient.B += l.Color.B * l.Intensity
		case scene.LightDirectional:
			if out.Directional == nil {
				out.Directional = n
			}
		case scene.LightPoint:
			if len(out.Points) < maxPoints {
				out.Points = append(out.Points, n)
			}
		}
	})
	out.Ambient.A = 1
	return out
}

// Direction is the unit vector from a directional light toward its target.
func Direction(n *scene.Node) math.Vec3 {
	d := n.Light.Target.Sub(n.WorldPosition())
	if d.LengthSqr() < 1e-8 {
		return math.Vec3Down
	}
	return d.Normalize()
}

// DirectionalViewProj is the orthographic shadow camera of a directional
// light, placed at the light and aimed at its target.
func DirectionalViewProj(n *scene.Node) math.Mat4 {
	eye := n.WorldPosition()
	dir := Direction(n)
	up := math.Vec3Up
	if math32.Abs(dir.Dot(up)) > 0.999 {
		up = math.Vec3Front
	}
	far := n.Shadow.Far
	if far <= ShadowNear {
		far = ShadowNear + 1
	}
	view := math.Mat4LookAt(eye, eye.Add(dir), up)
	proj := math.Mat4Orthographic(
		-ShadowOrthoHalfExtent, ShadowOrthoHalfExtent,
		-ShadowOrthoHalfExtent, ShadowOrthoHalfExtent,
		ShadowNear, far,
	)
	return view.Mul(proj)
}

// cubeFaces follows the GL cube map face order and orientation.
var cubeFaces = [6]struct{ dir, up math.Vec3 }{
	{math.Vec3Right, math.Vec3Down},
	{math.Vec3Left, math.Vec3Down},
	{math.Vec3Up, math.Vec3Front},
	{math.Vec3Down, math.Vec3Back},
	{math.Vec3Front, math.Vec3Down},
	{math.Vec3Back, math.Vec3Down},
}

// CubeFaceViewProj is the 90° camera rendering cube face 0..5 of a point
// light's shadow.
func CubeFaceViewProj(pos math.Vec3, face int, far float32) math.Mat4 {
	f := cubeFaces[face]
	view := math.Mat4LookAt(pos, pos.Add(f.dir), f.up)
	proj := math.Mat4Perspective(math32.Pi/2, 1, ShadowNear, far)
	return view.Mul(proj)
}

// TargetSize is the render-target size for a viewport at the given pixel
// density, rounded to whole pixels and never empty.
func TargetSize(width, height int, density float32) (int, int) {
	tw := int(float32(width)*density + 0.5)
	th := int(float32(height)*density + 0.5)
	return max(tw, 1), max(th, 1)
}

func walk(n *scene.Node, visit func(*scene.Node)) {
	if !n.Visible {
		return
	}
	visit(n)
	for _, c := range n.Children {
		walk(c, visit)
	}
}
