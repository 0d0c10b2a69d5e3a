package scene

import (
	"github.com/chewxy/math32"

	"haunted-house/core"
	"haunted-house/math"
)

// ComputeTangents fills the tangent frame used for normal mapping. Tangents
// follow +U and bitangents +V of the surface, accumulated over the triangles
// sharing a vertex. The bitangent keeps the handedness of the UV layout so
// mirrored faces sample their normal map the right way round.
func ComputeTangents(m *Mesh) {
	tan := make([]math.Vec3, len(m.Vertices))
	bit := make([]math.Vec3, len(m.Vertices))

	for _, tri := range m.triangles() {
		t, b, ok := uvBasis(m.Vertices[tri[0]], m.Vertices[tri[1]], m.Vertices[tri[2]])
		if !ok {
			continue
		}
		for _, i := range tri {
			tan[i] = tan[i].Add(t)
			bit[i] = bit[i].Add(b)
		}
	}

	for i := range m.Vertices {
		v := &m.Vertices[i]
		v.Tangent = orthoTangent(v.Normal, tan[i])
		v.Bitangent = v.Normal.Cross(v.Tangent)
		if v.Bitangent.Dot(bit[i]) < 0 {
			v.Bitangent = v.Bitangent.Negate()
		}
	}
}

// triangles lists vertex index triples, indexed or not.
func (m *Mesh) triangles() [][3]uint32 {
	var out [][3]uint32
	if len(m.Indices) > 0 {
		for i := 0; i+2 < len(m.Indices); i += 3 {
			out = append(out, [3]uint32{m.Indices[i], m.Indices[i+1], m.Indices[i+2]})
		}
		return out
	}
	for i := uint32(0); int(i)+2 < len(m.Vertices); i += 3 {
		out = append(out, [3]uint32{i, i + 1, i + 2})
	}
	return out
}

// uvBasis solves the triangle's edges for the directions of +U and +V. It
// reports false when the UVs have no area.
func uvBasis(a, b, c core.Vertex) (t, bt math.Vec3, ok bool) {
	e1, e2 := b.Position.Sub(a.Position), c.Position.Sub(a.Position)
	s1, s2 := b.UV.Sub(a.UV), c.UV.Sub(a.UV)

	det := s1.X*s2.Y - s2.X*s1.Y
	if math32.Abs(det) < 1e-12 {
		return t, bt, false
	}
	inv := 1 / det
	t = e1.Mul(s2.Y * inv).Sub(e2.Mul(s1.Y * inv))
	bt = e2.Mul(s1.X * inv).Sub(e1.Mul(s2.X * inv))
	return t, bt, true
}

// orthoTangent projects t onto the plane of n and normalizes it, picking
// any perpendicular axis when nothing is left.
func orthoTangent(n, t math.Vec3) math.Vec3 {
	t = t.Sub(n.Mul(n.Dot(t)))
	if t.LengthSqr() >= 1e-8 {
		return t.Normalize()
	}
	axis := math.Vec3Right
	if math32.Abs(n.X) > 0.9 {
		axis = math.Vec3Up
	}
	return axis.Sub(n.Mul(n.Dot(axis))).Normalize()
}
