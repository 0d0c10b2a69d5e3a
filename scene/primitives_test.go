package scene

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haunted-house/core"
	"haunted-house/math"
)

func TestBuildRejectsInvalidShapes(t *testing.T) {
	cases := map[string]Shape{
		"zero box width":         Box{Width: 0, Height: 1, Depth: 1},
		"negative box depth":     Box{Width: 1, Height: 1, Depth: -1},
		"zero cone radius":       Cone{Radius: 0, Height: 1},
		"two-sided cone":         Cone{Radius: 1, Height: 1, RadialSegments: 2},
		"negative cone segments": Cone{Radius: 1, Height: 1, RadialSegments: -4},
		"flat sphere":            Sphere{Radius: 1, WidthSegments: 2, HeightSegments: 16},
		"sphere one band":        Sphere{Radius: 1, WidthSegments: 16, HeightSegments: 1},
		"negative sphere radius": Sphere{Radius: -1},
		"zero plane height":      Plane{Width: 1, Height: 0},
		"negative plane segment": Plane{Width: 1, Height: 1, WidthSegments: -1},
		"nil shape":              nil,
	}
	for name, shape := range cases {
		t.Run(name, func(t *testing.T) {
			mesh, err := Build(shape, nil)
			assert.ErrorIs(t, err, core.ErrConfiguration)
			assert.Nil(t, mesh)
		})
	}
}

func TestBuildDefaultsSegments(t *testing.T) {
	mesh, err := Build(Sphere{Radius: 1}, nil)
	require.NoError(t, err)
	assert.Len(t, mesh.Vertices, (DefaultSphereWidthSegments+1)*(DefaultSphereHeightSegments+1))
	assert.Equal(t, "Default", mesh.Material.Name)
}

func TestBuildBox(t *testing.T) {
	mesh, err := Build(Box{Width: 4, Height: 2.5, Depth: 4}, nil)
	require.NoError(t, err)
	assert.Len(t, mesh.Vertices, 24)
	assert.Len(t, mesh.Indices, 36)
	assert.Equal(t, uint32(36), mesh.IndexCount)

	require.True(t, mesh.HasLocalAABB)
	assert.Equal(t, math.NewVec3(-2, -1.25, -2), mesh.LocalAABB.Min)
	assert.Equal(t, math.NewVec3(2, 1.25, 2), mesh.LocalAABB.Max)
	assertOutwardWinding(t, mesh)
}

func TestBuildConeStandsOnApex(t *testing.T) {
	mesh, err := Build(Cone{Radius: 3.5, Height: 1, RadialSegments: 4}, nil)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, mesh.LocalAABB.Max.Y, 1e-6)
	assert.InDelta(t, -0.5, mesh.LocalAABB.Min.Y, 1e-6)
	assert.InDelta(t, 3.5, mesh.LocalAABB.Max.X, 1e-5)
	assert.InDelta(t, -3.5, mesh.LocalAABB.Min.X, 1e-5)
	assert.Equal(t, 4*2, mesh.TriangleCount())
	assertOutwardWinding(t, mesh)
}

func TestBuildSphere(t *testing.T) {
	mesh, err := Build(Sphere{Radius: 1, WidthSegments: 16, HeightSegments: 16}, nil)
	require.NoError(t, err)

	assert.Len(t, mesh.Vertices, 17*17)
	// Pole rows contribute one triangle per segment, the rest two.
	assert.Equal(t, (16*2-2)*16, mesh.TriangleCount())
	for _, v := range mesh.Vertices {
		assert.InDelta(t, 1.0, v.Position.Length(), 1e-5)
		assert.InDelta(t, 1.0, v.Normal.Length(), 1e-5)
	}
	assertOutwardWinding(t, mesh)
}

func TestBuildPlane(t *testing.T) {
	mesh, err := Build(Plane{Width: 2.2, Height: 2.2, WidthSegments: 100, HeightSegments: 100}, nil)
	require.NoError(t, err)

	assert.Len(t, mesh.Vertices, 101*101)
	assert.Len(t, mesh.Indices, 100*100*6)
	assert.InDelta(t, 1.1, mesh.LocalAABB.Max.X, 1e-5)
	assert.InDelta(t, -1.1, mesh.LocalAABB.Min.Y, 1e-5)
	assert.Equal(t, float32(0), mesh.LocalAABB.Max.Z)

	// Top-left corner maps to the top of the texture.
	assert.Equal(t, math.NewVec2(0, 1), mesh.Vertices[0].UV)
	assertOutwardWinding(t, mesh)
}

func TestBuildDuplicatesUVForAmbientOcclusion(t *testing.T) {
	ao := NewTexture("door/ambientOcclusion.jpg")
	mat := NewTexturedMaterial("door", TextureSet{AmbientOcclusion: ao})

	mesh, err := Build(Plane{Width: 2, Height: 2, WidthSegments: 4, HeightSegments: 4}, mat)
	require.NoError(t, err)

	assert.False(t, ao.Ready(), "building must not wait for the texture")
	assert.True(t, mesh.HasUV2)
	for _, v := range mesh.Vertices {
		assert.Equal(t, v.UV, v.UV2)
	}
	assert.Same(t, mat, mesh.Material)
}

func TestBuildWithoutAmbientOcclusionLeavesUV2Empty(t *testing.T) {
	mesh, err := Build(Box{Width: 1, Height: 1, Depth: 1}, NewColorMaterial("grave", core.MustHex("#AEAEAE")))
	require.NoError(t, err)
	assert.False(t, mesh.HasUV2)
	assert.Equal(t, math.Vec2{}, mesh.Vertices[2].UV2)
}

func TestBuildComputesTangentsForNormalMaps(t *testing.T) {
	mat := NewTexturedMaterial("bricks", TextureSet{Normal: NewTexture("bricks/normal.jpg")})
	mesh, err := Build(Box{Width: 4, Height: 2.5, Depth: 4}, mat)
	require.NoError(t, err)
	for _, v := range mesh.Vertices {
		assert.InDelta(t, 1.0, v.Tangent.Length(), 1e-4)
		assert.InDelta(t, 0.0, v.Tangent.Dot(v.Normal), 1e-4)
	}
}

func TestBuildSharesMaterial(t *testing.T) {
	mat := NewColorMaterial("grave", core.MustHex("#AEAEAE"))
	a, err := Build(Box{Width: 0.6, Height: 0.8, Depth: 0.2}, mat)
	require.NoError(t, err)
	b, err := Build(Box{Width: 0.6, Height: 0.8, Depth: 0.2}, mat)
	require.NoError(t, err)
	assert.Same(t, a.Material, b.Material)
	assert.NotSame(t, &a.Vertices[0], &b.Vertices[0])
}

func TestFloorRotationFacesUp(t *testing.T) {
	floor := NewNode("floor")
	floor.SetRotation(math.NewVec3(-math32.Pi/2, 0, 0))
	up := floor.GetWorldMatrix().MulDir(math.Vec3Front)
	assert.True(t, up.ApproxEqual(math.Vec3Up, 1e-6), "got %v", up)
}

// assertOutwardWinding checks that every triangle's counter-clockwise face
// normal agrees with its vertex normals.
func assertOutwardWinding(t *testing.T, mesh *Mesh) {
	t.Helper()
	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		a := mesh.Vertices[mesh.Indices[i]]
		b := mesh.Vertices[mesh.Indices[i+1]]
		c := mesh.Vertices[mesh.Indices[i+2]]
		face := b.Position.Sub(a.Position).Cross(c.Position.Sub(a.Position))
		shading := a.Normal.Add(b.Normal).Add(c.Normal)
		if face.Dot(shading) <= 0 {
			t.Fatalf("triangle %d winds inward: face %v, normals %v", i/3, face, shading)
		}
	}
}
