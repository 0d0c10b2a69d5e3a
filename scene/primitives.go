package scene

import (
	"fmt"

	"github.com/chewxy/math32"

	"haunted-house/core"
	"haunted-house/math"
)

// Build generates a mesh for shape and attaches mat. Invalid dimensions
// return an error wrapping core.ErrConfiguration. Texture handles in mat are
// only referenced, never read, so unresolved textures are fine.
//
// Materials with an ambient-occlusion map get their UVs duplicated into the
// AO channel; materials with a normal map get tangents.
func Build(shape Shape, mat *Material) (*Mesh, error) {
	if shape == nil {
		return nil, core.ConfigErrorf("nil shape")
	}
	if err := shape.validate(); err != nil {
		return nil, err
	}
	if mat == nil {
		mat = DefaultMaterial()
	}
	vertices, indices := shape.geometry()
	mesh := CreateMeshFromData(fmt.Sprintf("%s/%s", shape.ShapeName(), mat.Name), vertices, indices)
	mesh.Material = mat
	if mat.NeedsAOUV() {
		mesh.DuplicateUV2()
	}
	if mat.Maps.Normal != nil {
		ComputeTangents(mesh)
	}
	return mesh, nil
}

var vertexColor = core.ColorWhite

// boxFaces lists each face's outward normal and the in-plane axes spanning
// it, ordered so that u x v = n.
var boxFaces = [6]struct{ n, u, v math.Vec3 }{
	{math.Vec3Right, math.Vec3Back, math.Vec3Up},
	{math.Vec3Left, math.Vec3Front, math.Vec3Up},
	{math.Vec3Up, math.Vec3Right, math.Vec3Back},
	{math.Vec3Down, math.Vec3Right, math.Vec3Front},
	{math.Vec3Front, math.Vec3Right, math.Vec3Up},
	{math.Vec3Back, math.Vec3Left, math.Vec3Up},
}

func boxGeometry(width, height, depth float32) ([]core.Vertex, []uint32) {
	size := math.Vec3{X: width, Y: height, Z: depth}
	half := size.Mul(0.5)

	vertices := make([]core.Vertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range boxFaces {
		center := f.n.MulVec(half)
		u := f.u.MulVec(size)
		v := f.v.MulVec(size)
		p0 := center.Sub(u.Mul(0.5)).Sub(v.Mul(0.5))

		base := uint32(len(vertices))
		corners := [4]struct {
			p  math.Vec3
			uv math.Vec2
		}{
			{p0, math.Vec2{X: 0, Y: 0}},
			{p0.Add(u), math.Vec2{X: 1, Y: 0}},
			{p0.Add(u).Add(v), math.Vec2{X: 1, Y: 1}},
			{p0.Add(v), math.Vec2{X: 0, Y: 1}},
		}
		for _, c := range corners {
			vertices = append(vertices, core.Vertex{Position: c.p, Normal: f.n, UV: c.uv, Color: vertexColor})
		}
		indices = append(indices, base, base+1, base+2, base+2, base+3, base)
	}
	return vertices, indices
}

// coneGeometry builds the side from one apex vertex per segment, so each
// face gets its own apex normal, plus a bottom cap.
func coneGeometry(radius, height float32, radialSegments int) ([]core.Vertex, []uint32) {
	var vertices []core.Vertex
	var indices []uint32
	halfHeight := height / 2
	slope := radius / height

	ring := func(i int) (sin, cos float32) {
		theta := float32(i) / float32(radialSegments) * 2 * math32.Pi
		return math32.Sin(theta), math32.Cos(theta)
	}

	for i := 0; i < radialSegments; i++ {
		s0, c0 := ring(i)
		s1, c1 := ring(i + 1)
		mid := (float32(i) + 0.5) / float32(radialSegments) * 2 * math32.Pi
		sm, cm := math32.Sin(mid), math32.Cos(mid)
		u0 := float32(i) / float32(radialSegments)
		u1 := float32(i+1) / float32(radialSegments)

		base := uint32(len(vertices))
		vertices = append(vertices,
			core.Vertex{
				Position: math.Vec3{Y: halfHeight},
				Normal:   math.Vec3{X: sm, Y: slope, Z: cm}.Normalize(),
				UV:       math.Vec2{X: (u0 + u1) / 2, Y: 1},
				Color:    vertexColor,
			},
			core.Vertex{
				Position: math.Vec3{X: radius * s0, Y: -halfHeight, Z: radius * c0},
				Normal:   math.Vec3{X: s0, Y: slope, Z: c0}.Normalize(),
				UV:       math.Vec2{X: u0, Y: 0},
				Color:    vertexColor,
			},
			core.Vertex{
				Position: math.Vec3{X: radius * s1, Y: -halfHeight, Z: radius * c1},
				Normal:   math.Vec3{X: s1, Y: slope, Z: c1}.Normalize(),
				UV:       math.Vec2{X: u1, Y: 0},
				Color:    vertexColor,
			},
		)
		indices = append(indices, base, base+1, base+2)
	}

	center := uint32(len(vertices))
	vertices = append(vertices, core.Vertex{
		Position: math.Vec3{Y: -halfHeight},
		Normal:   math.Vec3Down,
		UV:       math.Vec2{X: 0.5, Y: 0.5},
		Color:    vertexColor,
	})
	for i := 0; i <= radialSegments; i++ {
		s, c := ring(i)
		vertices = append(vertices, core.Vertex{
			Position: math.Vec3{X: radius * s, Y: -halfHeight, Z: radius * c},
			Normal:   math.Vec3Down,
			UV:       math.Vec2{X: s*0.5 + 0.5, Y: c*0.5 + 0.5},
			Color:    vertexColor,
		})
	}
	for i := 0; i < radialSegments; i++ {
		a := center + 1 + uint32(i)
		indices = append(indices, center, a+1, a)
	}
	return vertices, indices
}

// sphereGeometry generates a UV sphere; rows run from the north pole down.
func sphereGeometry(radius float32, widthSegments, heightSegments int) ([]core.Vertex, []uint32) {
	var vertices []core.Vertex
	var indices []uint32
	stride := uint32(widthSegments + 1)

	for iy := 0; iy <= heightSegments; iy++ {
		v := float32(iy) / float32(heightSegments)
		sinPhi, cosPhi := math32.Sin(v*math32.Pi), math32.Cos(v*math32.Pi)
		for ix := 0; ix <= widthSegments; ix++ {
			u := float32(ix) / float32(widthSegments)
			sinTheta, cosTheta := math32.Sin(u*2*math32.Pi), math32.Cos(u*2*math32.Pi)

			normal := math.Vec3{X: -cosTheta * sinPhi, Y: cosPhi, Z: sinTheta * sinPhi}
			vertices = append(vertices, core.Vertex{
				Position: normal.Mul(radius),
				Normal:   normal,
				UV:       math.Vec2{X: u, Y: 1 - v},
				Color:    vertexColor,
			})
		}
	}

	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := uint32(iy)*stride + uint32(ix) + 1
			b := uint32(iy)*stride + uint32(ix)
			c := uint32(iy+1)*stride + uint32(ix)
			d := uint32(iy+1)*stride + uint32(ix) + 1
			if iy != 0 {
				indices = append(indices, a, b, d)
			}
			if iy != heightSegments-1 {
				indices = append(indices, b, c, d)
			}
		}
	}
	return vertices, indices
}

// planeGeometry generates a subdivided quad in XY facing +Z; rows run from
// the top edge down.
func planeGeometry(width, height float32, widthSegments, heightSegments int) ([]core.Vertex, []uint32) {
	cols := widthSegments + 1
	rows := heightSegments + 1
	segW := width / float32(widthSegments)
	segH := height / float32(heightSegments)

	vertices := make([]core.Vertex, 0, cols*rows)
	for iy := 0; iy < rows; iy++ {
		y := float32(iy)*segH - height/2
		for ix := 0; ix < cols; ix++ {
			x := float32(ix)*segW - width/2
			vertices = append(vertices, core.Vertex{
				Position: math.Vec3{X: x, Y: -y},
				Normal:   math.Vec3Front,
				UV: math.Vec2{
					X: float32(ix) / float32(widthSegments),
					Y: 1 - float32(iy)/float32(heightSegments),
				},
				Color: vertexColor,
			})
		}
	}

	indices := make([]uint32, 0, widthSegments*heightSegments*6)
	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := uint32(ix + cols*iy)
			b := uint32(ix + cols*(iy+1))
			c := uint32(ix + 1 + cols*(iy+1))
			d := uint32(ix + 1 + cols*iy)
			indices = append(indices, a, b, d, b, c, d)
		}
	}
	return vertices, indices
}
