package haunted

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haunted-house/core"
	"haunted-house/math"
	"haunted-house/scene"
	"haunted-house/shadow"
)

// fakeTextures returns unresolved handles and remembers what was asked for.
type fakeTextures struct {
	paths map[string]*scene.Texture
}

func (f *fakeTextures) Load(path string) *scene.Texture {
	if f.paths == nil {
		f.paths = make(map[string]*scene.Texture)
	}
	if t, ok := f.paths[path]; ok {
		return t
	}
	t := scene.NewTexture(path)
	f.paths[path] = t
	return t
}

func variant(t *testing.T, name string) Variant {
	t.Helper()
	c, err := DefaultCatalog()
	require.NoError(t, err)
	v, err := c.Lookup(name)
	require.NoError(t, err)
	return v
}

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	assert.Equal(t, []string{"basic", "textured", "ghosts", "shadows"}, c.Names())

	_, err = c.Lookup("mansion")
	assert.ErrorIs(t, err, core.ErrConfiguration)

	basic, err := c.Lookup("basic")
	require.NoError(t, err)
	assert.Equal(t, "#5697FE", basic.Ambient.Color)
	assert.Equal(t, GraveSpec{Count: 40, InnerRadius: 3, RadiusSpan: 6.5}, basic.Graves)
	assert.Empty(t, basic.Ghosts)

	shadows, err := c.Lookup("shadows")
	require.NoError(t, err)
	assert.True(t, shadows.Shadows)
	require.Len(t, shadows.Ghosts, 3)
	assert.Equal(t, float32(2), shadows.Ghosts[0].Intensity)
	assert.Equal(t, float32(3), shadows.Ghosts[2].Range)
	assert.Equal(t, DefaultShadowRoles(), *shadows.ShadowRoles)
}

func TestParseVariantsIsStrict(t *testing.T) {
	_, err := ParseVariants(strings.NewReader("[[variant]]\nname = \"x\"\nghost_count = 3\n"))
	assert.ErrorIs(t, err, core.ErrConfiguration)
	assert.Contains(t, err.Error(), "ghost_count")

	_, err = ParseVariants(strings.NewReader("[[variant]]\nname = \"x\"\n[[variant.ghosts]]\ncolor = \"#fff\"\norbit = \"spiral\"\n"))
	assert.ErrorIs(t, err, core.ErrConfiguration)

	_, err = ParseVariants(strings.NewReader("[[variant]]\nname = \"x\"\nfog = { color = \"#464647\", near = 9, far = 2 }\n"))
	assert.ErrorIs(t, err, core.ErrConfiguration)

	_, err = ParseVariants(strings.NewReader("[[variant]]\nname = \"x\"\nambient = { color = \"blueish\" }\n"))
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func parseOne(t *testing.T, doc string) Variant {
	t.Helper()
	variants, err := ParseVariants(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, variants, 1)
	return variants[0]
}

func TestParseVariantsKeepsExplicitZero(t *testing.T) {
	v := parseOne(t, `
[[variant]]
name = "dark"
ambient = { color = "#5697FE", intensity = 0.0 }
moon = { intensity = 0.0 }
door_light = { intensity = 0.0 }

  [[variant.ghosts]]
  color = "#ff00ff"
  orbit = "a"
  intensity = 0.0
  range = 0.0

  [[variant.ghosts]]
  color = "#00ffff"
  orbit = "b"
`)
	assert.Zero(t, v.Ambient.Intensity)
	assert.Zero(t, v.Moon.Intensity)
	assert.Equal(t, "#b9d5ff", v.Moon.Color, "missing color keeps its default")
	assert.Zero(t, v.DoorLight.Intensity)
	require.Len(t, v.Ghosts, 2)
	assert.Zero(t, v.Ghosts[0].Intensity)
	assert.Zero(t, v.Ghosts[0].Range)
	assert.Equal(t, float32(DefaultGhostIntensity), v.Ghosts[1].Intensity)
	assert.Equal(t, float32(DefaultGhostRange), v.Ghosts[1].Range)

	hs, err := Assemble(v, Options{})
	require.NoError(t, err)
	assert.Zero(t, hs.Graph.Find(NameAmbient).Light.Intensity)
	assert.Zero(t, hs.Graph.Find("ghost1").Light.Intensity)
}

func TestParseVariantsFillsPartialTables(t *testing.T) {
	v := parseOne(t, "[[variant]]\nname = \"few\"\ngraves = { count = 10 }\n")
	assert.Equal(t, GraveSpec{Count: 10, InnerRadius: 3, RadiusSpan: 6.5}, v.Graves)
	hs, err := Assemble(v, Options{})
	require.NoError(t, err)
	assert.Len(t, hs.Graph.Find(NameGraves).Children, 10)

	v = parseOne(t, "[[variant]]\nname = \"empty\"\ngraves = { count = 0 }\n")
	assert.Zero(t, v.Graves.Count)
	hs, err = Assemble(v, Options{})
	require.NoError(t, err)
	assert.Empty(t, hs.Graph.Find(NameGraves).Children)

	v = parseOne(t, "[[variant]]\nname = \"red\"\nfog = { color = \"#ff0000\" }\n")
	assert.Equal(t, FogSpec{Color: "#ff0000", Near: 5, Far: 18}, v.Fog)

	v = parseOne(t, "[[variant]]\nname = \"thick\"\nfog = { far = 8.0 }\n")
	assert.Equal(t, FogSpec{Color: "#464647", Near: 5, Far: 8}, v.Fog)
}

func TestParseVariantsRejectsBadGraveyard(t *testing.T) {
	for _, graves := range []string{
		"{ count = -1 }",
		"{ inner_radius = -2.0 }",
		"{ radius_span = 0.0 }",
		"{ radius_span = -6.5 }",
	} {
		_, err := ParseVariants(strings.NewReader("[[variant]]\nname = \"x\"\ngraves = " + graves + "\n"))
		assert.ErrorIs(t, err, core.ErrConfiguration, graves)
	}
}

func TestDefaultVariantValidates(t *testing.T) {
	assert.NoError(t, DefaultVariant("plain").Validate())
	assert.ErrorIs(t, Variant{Name: "bare"}.Validate(), core.ErrConfiguration)

	v := DefaultVariant("shadowed")
	v.Shadows = true
	v.ShadowRoles = nil
	assert.ErrorIs(t, v.Validate(), core.ErrConfiguration)
}

func TestCatalogLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "variants.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[variant]]
name = "basic"
ambient = { color = "#ffffff", intensity = 0.5 }

[[variant]]
name = "sparse"
graves = { count = 5, inner_radius = 4, radius_span = 1 }
`), 0o644))

	c, err := DefaultCatalog()
	require.NoError(t, err)
	require.NoError(t, c.LoadFile(path))
	assert.Equal(t, []string{"basic", "textured", "ghosts", "shadows", "sparse"}, c.Names())

	basic, err := c.Lookup("basic")
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), basic.Ambient.Intensity)

	assert.Error(t, c.LoadFile(filepath.Join(t.TempDir(), "missing.toml")))
}

func TestAssembleBasic(t *testing.T) {
	hs, err := Assemble(variant(t, "basic"), Options{Seed: 1})
	require.NoError(t, err)
	g := hs.Graph

	for _, name := range []string{NameAmbient, NameMoon, NameFloor, NameHouse, NameWalls, NameRoof, NameDoor, NameDoorLight, NameBushes, NameGraves, NameGhosts} {
		assert.NotNil(t, g.Find(name), name)
	}
	assert.Len(t, g.Find(NameGraves).Children, 40)
	assert.Len(t, g.Find(NameBushes).Children, 4)
	assert.Empty(t, hs.Roaming)
	assert.Len(t, g.Lights(), 3)

	walls := g.Find(NameWalls)
	assert.Equal(t, core.MustHex("#ac8e88"), walls.Mesh.Material.Color)
	assert.InDelta(t, 1.25, walls.WorldPosition().Y, 1e-6)
	assert.InDelta(t, 3, g.Find(NameRoof).WorldPosition().Y, 1e-6)
	assert.InDelta(t, 2.2, g.Find(NameDoorLight).WorldPosition().Y, 1e-6)

	// The door is flat without a texture source.
	assert.False(t, g.Find(NameDoor).Mesh.Material.Textured())

	// Graves share a material.
	graves := g.Find(NameGraves).Children
	assert.Same(t, graves[0].Mesh.Material, graves[39].Mesh.Material)

	assert.True(t, g.Fog.Enabled)
	assert.Equal(t, float32(5), g.Fog.Near)
	assert.Equal(t, float32(18), g.Fog.Far)
	assert.Equal(t, "#464647", g.ClearColor.Hex())

	assert.Same(t, hs.Camera, g.Camera)
	assert.InDelta(t, 50*math32.Pi/180, hs.Camera.FOV, 1e-6)
	assert.Equal(t, CameraPosition, hs.Camera.Position)

	for _, n := range hs.Shadows.Nodes() {
		t.Errorf("basic variant should not register %q", n.Name)
	}
}

func TestAssembleIsReproducible(t *testing.T) {
	a, err := Assemble(variant(t, "basic"), Options{Seed: 42})
	require.NoError(t, err)
	b, err := Assemble(variant(t, "basic"), Options{Seed: 42})
	require.NoError(t, err)

	ga, gb := a.Graph.Find(NameGraves).Children, b.Graph.Find(NameGraves).Children
	for i := range ga {
		assert.Equal(t, ga[i].Transform, gb[i].Transform)
	}
}

func TestAssembleTexturedNeedsSource(t *testing.T) {
	_, err := Assemble(variant(t, "textured"), Options{})
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestAssembleTextured(t *testing.T) {
	tex := &fakeTextures{}
	hs, err := Assemble(variant(t, "textured"), Options{Textures: tex})
	require.NoError(t, err)

	door := hs.Graph.Find(NameDoor).Mesh
	assert.True(t, door.HasUV2)
	assert.True(t, door.Material.Transparent)
	assert.Equal(t, float32(0.1), door.Material.DisplacementScale)
	assert.False(t, door.Material.Maps.Albedo.Ready(), "textures resolve later")

	floor := hs.Graph.Find(NameFloor).Mesh
	assert.Equal(t, math.Vec2{X: 8, Y: 8}, floor.Material.Repeat)
	assert.True(t, floor.HasUV2)
	assert.True(t, hs.Graph.Find(NameWalls).Mesh.HasUV2)

	assert.Contains(t, tex.paths, "door/height.jpg")
	assert.Contains(t, tex.paths, "bricks/normal.jpg")
	assert.Contains(t, tex.paths, "grass/ambientOcclusion.jpg")
	assert.Len(t, tex.paths, 7+4+4)
}

func TestAssembleGhosts(t *testing.T) {
	hs, err := Assemble(variant(t, "ghosts"), Options{Textures: &fakeTextures{}})
	require.NoError(t, err)
	require.Len(t, hs.Roaming, 3)

	first := hs.Roaming[0]
	assert.Equal(t, "ghost1", first.Node.Name)
	assert.Equal(t, core.MustHex("#ff00ff"), first.Node.Light.Color)
	assert.Equal(t, float32(3), first.Node.Light.Range)
	assert.True(t, first.Node.WorldPosition().ApproxEqual(math.Vec3{X: 5}, 1e-6))
}

func TestAssembleShadows(t *testing.T) {
	hs, err := Assemble(variant(t, "shadows"), Options{Textures: &fakeTextures{}, Seed: 3})
	require.NoError(t, err)
	g := hs.Graph

	assert.NoError(t, hs.Shadows.Validate(g.Root))
	assert.True(t, g.Find(NameWalls).Shadow.CastShadow)
	assert.True(t, g.Find("bush4").Shadow.CastShadow)
	assert.True(t, g.Find("grave17").Shadow.CastShadow)
	assert.True(t, g.Find(NameFloor).Shadow.ReceiveShadow)
	assert.False(t, g.Find(NameFloor).Shadow.CastShadow)
	assert.False(t, g.Find(NameRoof).Shadow.CastShadow)

	moon := g.Find(NameMoon).Shadow
	assert.Equal(t, shadow.DirectionalMapSize, moon.MapWidth)
	assert.Equal(t, float32(shadow.DirectionalFar), moon.Far)

	for _, name := range []string{NameDoorLight, "ghost1", "ghost2", "ghost3"} {
		flags := g.Find(name).Shadow
		assert.True(t, flags.CastShadow, name)
		assert.Equal(t, shadow.PointMapSize, flags.MapWidth, name)
		assert.Equal(t, float32(shadow.PointFar), flags.Far, name)
	}

	g.Root.Traverse(func(n *scene.Node) {
		if n.Shadow.CastShadow && n.Light != nil {
			assert.GreaterOrEqual(t, n.Shadow.MapWidth, shadow.MinMapSize, n.Name)
			assert.Greater(t, n.Shadow.Far, float32(0), n.Name)
		}
	})
}

func TestAssembleRejectsUnknownRole(t *testing.T) {
	v := variant(t, "shadows")
	v.ShadowRoles = &ShadowRoles{Casters: []string{"chimney"}}
	_, err := Assemble(v, Options{Textures: &fakeTextures{}})
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestAssembleRejectsBadGraveyard(t *testing.T) {
	v := variant(t, "basic")
	v.Graves = GraveSpec{Count: 40, InnerRadius: 3, RadiusSpan: -1}
	_, err := Assemble(v, Options{})
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestPanelBindings(t *testing.T) {
	hs, err := Assemble(variant(t, "basic"), Options{})
	require.NoError(t, err)
	p := hs.Panel
	assert.Equal(t, []string{"ambient.intensity", "moon.intensity", "moon.x", "moon.y", "moon.z"}, p.Names())

	moon := hs.Graph.Find(NameMoon)
	require.NoError(t, p.Set("moon.x", -3))
	assert.InDelta(t, -3, moon.WorldPosition().X, 1e-6)

	require.NoError(t, p.Set("ambient.intensity", 0.5))
	assert.Equal(t, float32(0.5), hs.Graph.Find(NameAmbient).Light.Intensity)
	assert.Error(t, p.Set("moon.intensity", 2))
}
