// Package haunted assembles the haunted-house vignette from a Variant.
package haunted

import (
	"fmt"
	"log/slog"

	"github.com/chewxy/math32"

	"haunted-house/animate"
	"haunted-house/core"
	"haunted-house/math"
	"haunted-house/placement"
	"haunted-house/scene"
	"haunted-house/shadow"
	"haunted-house/tuning"
)

// Node names. Shadow roles and the debug panel address nodes by these.
const (
	NameAmbient   = "ambient"
	NameMoon      = "moon"
	NameFloor     = "floor"
	NameHouse     = "house"
	NameWalls     = "walls"
	NameRoof      = "roof"
	NameDoor      = "door"
	NameDoorLight = "doorLight"
	NameBushes    = "bushes"
	NameGraves    = "graves"
	NameGhosts    = "ghosts"
)

// Camera placement.
const (
	CameraFOVDegrees = 50
	CameraNear       = 0.1
	CameraFar        = 100
)

var CameraPosition = math.Vec3{X: 4, Y: 2, Z: 15}

// TextureSource hands out texture handles that may resolve later.
type TextureSource interface {
	Load(path string) *scene.Texture
}

// Options are the inputs that are not part of a Variant.
type Options struct {
	// Seed drives graveyard placement when Rand is nil.
	Seed uint64
	Rand placement.RandomSource

	// Textures is required for textured variants. Without it the door is
	// drawn in a flat color.
	Textures TextureSource

	// Aspect is the initial camera aspect ratio; zero means 16:9.
	Aspect float32
}

// Scene is everything the render loop owns for one assembled variant.
type Scene struct {
	Variant Variant
	Graph   *scene.Scene
	Camera  *scene.Camera
	Shadows *shadow.Config
	Roaming []animate.RoamingLight
	Panel   *tuning.Panel
}

// Assemble builds the scene graph for v, registers its shadow participants
// and binds the tunable parameters. Any invalid input fails the whole
// assembly with an error wrapping core.ErrConfiguration.
func Assemble(v Variant, opts Options) (*Scene, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if v.Textured && opts.Textures == nil {
		return nil, core.ConfigErrorf("variant %q is textured but no texture source was given", v.Name)
	}
	rng := opts.Rand
	if rng == nil {
		rng = placement.NewRand(opts.Seed)
	}

	b := &builder{v: v, textures: opts.Textures}
	g := scene.NewScene()
	g.ClearColor = core.MustHex(v.Fog.Color)
	g.Fog = scene.Fog{Enabled: true, Color: core.MustHex(v.Fog.Color), Near: v.Fog.Near, Far: v.Fog.Far}

	ambient := scene.NewLightNode(NameAmbient, scene.NewAmbientLight(core.MustHex(v.Ambient.Color), v.Ambient.Intensity))
	g.AddNode(ambient)

	moon := scene.NewLightNode(NameMoon, scene.NewDirectionalLight(core.MustHex(v.Moon.Color), v.Moon.Intensity))
	moon.SetPosition(math.Vec3{X: 4, Y: 5, Z: -2})
	g.AddNode(moon)

	floor, err := b.floor()
	if err != nil {
		return nil, err
	}
	g.AddNode(floor)

	house, err := b.house()
	if err != nil {
		return nil, err
	}
	g.AddNode(house)

	graves, err := b.graves(rng)
	if err != nil {
		return nil, err
	}
	g.AddNode(graves)

	ghosts, roaming, err := b.ghosts()
	if err != nil {
		return nil, err
	}
	g.AddNode(ghosts)

	aspect := opts.Aspect
	if aspect <= 0 {
		aspect = 16.0 / 9.0
	}
	camera := scene.NewCamera(CameraFOVDegrees*math32.Pi/180, aspect, CameraNear, CameraFar)
	camera.SetPosition(CameraPosition)
	camera.LookAt(math.Vec3Zero)
	g.SetCamera(camera)

	shadows := shadow.NewConfig()
	if v.Shadows {
		if err := applyRoles(g, shadows, *v.ShadowRoles); err != nil {
			return nil, err
		}
	}
	if err := shadows.Validate(g.Root); err != nil {
		return nil, err
	}

	panel, err := bindPanel(ambient, moon)
	if err != nil {
		return nil, err
	}

	slog.Info("scene assembled", "variant", v.Name, "textured", v.Textured,
		"shadows", v.Shadows, "ghosts", len(roaming), "graves", len(graves.Children))
	return &Scene{
		Variant: v,
		Graph:   g,
		Camera:  camera,
		Shadows: shadows,
		Roaming: roaming,
		Panel:   panel,
	}, nil
}

type builder struct {
	v        Variant
	textures TextureSource
}

func (b *builder) mesh(name string, shape scene.Shape, mat *scene.Material) (*scene.Node, error) {
	m, err := scene.Build(shape, mat)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return scene.NewMeshNode(name, m), nil
}

// maps loads the conventional file set under dir.
func (b *builder) maps(dir string, files ...string) scene.TextureSet {
	var ts scene.TextureSet
	for _, f := range files {
		tex := b.textures.Load(dir + "/" + f + ".jpg")
		switch f {
		case "color":
			ts.Albedo = tex
		case "alpha":
			ts.Alpha = tex
		case "ambientOcclusion":
			ts.AmbientOcclusion = tex
		case "height":
			ts.Displacement = tex
		case "normal":
			ts.Normal = tex
		case "metalness":
			ts.Metalness = tex
		case "roughness":
			ts.Roughness = tex
		}
	}
	return ts
}

func (b *builder) floor() (*scene.Node, error) {
	mat := scene.NewColorMaterial(NameFloor, core.MustHex("#b2ff44"))
	if b.v.Textured {
		mat = scene.NewTexturedMaterial(NameFloor, b.maps("grass", "color", "ambientOcclusion", "normal", "roughness"))
		mat.Repeat = math.Vec2{X: 8, Y: 8}
	}
	n, err := b.mesh(NameFloor, scene.Plane{Width: 20, Height: 20}, mat)
	if err != nil {
		return nil, err
	}
	n.SetRotation(math.Vec3{X: -math32.Pi / 2})
	return n, nil
}

func (b *builder) house() (*scene.Node, error) {
	house := scene.NewGroup(NameHouse)

	wallMat := scene.NewColorMaterial(NameWalls, core.MustHex("#ac8e88"))
	if b.v.Textured {
		wallMat = scene.NewTexturedMaterial(NameWalls, b.maps("bricks", "color", "ambientOcclusion", "normal", "roughness"))
	}
	walls, err := b.mesh(NameWalls, scene.Box{Width: 4, Height: 2.5, Depth: 4}, wallMat)
	if err != nil {
		return nil, err
	}
	walls.SetPosition(math.Vec3{Y: 2.5 / 2})
	house.AddChild(walls)

	roof, err := b.mesh(NameRoof, scene.Cone{Radius: 3.5, Height: 1, RadialSegments: 4},
		scene.NewColorMaterial(NameRoof, core.MustHex("#2D2D2D")))
	if err != nil {
		return nil, err
	}
	roof.SetRotation(math.Vec3{Y: math32.Pi / 4})
	roof.SetPosition(math.Vec3{Y: 2.5 + 0.5})
	house.AddChild(roof)

	doorMat := scene.NewColorMaterial(NameDoor, core.MustHex("#aa7b7b"))
	if b.textures != nil {
		doorMat = scene.NewTexturedMaterial(NameDoor,
			b.maps("door", "color", "alpha", "ambientOcclusion", "height", "normal", "metalness", "roughness"))
		doorMat.DisplacementScale = 0.1
		doorMat.Transparent = true
	}
	door, err := b.mesh(NameDoor, scene.Plane{Width: 2.2, Height: 2.2, WidthSegments: 100, HeightSegments: 100}, doorMat)
	if err != nil {
		return nil, err
	}
	door.SetPosition(math.Vec3{Y: 1, Z: 2 + 0.00001})
	house.AddChild(door)

	doorLight := scene.NewLightNode(NameDoorLight,
		scene.NewPointLight(core.MustHex(b.v.DoorLight.Color), b.v.DoorLight.Intensity, 7))
	doorLight.SetPosition(math.Vec3{X: 0, Y: 2.2, Z: 2.7})
	house.AddChild(doorLight)

	bushes, err := b.bushes()
	if err != nil {
		return nil, err
	}
	house.AddChild(bushes)
	return house, nil
}

var bushLayout = []struct {
	scale    float32
	position math.Vec3
}{
	{0.5, math.Vec3{X: 1.5, Y: 0.3, Z: 2.3}},
	{0.3, math.Vec3{X: 1.9, Y: 0.2, Z: 2.3}},
	{0.4, math.Vec3{X: -1.1, Y: 0.2, Z: 2.3}},
	{0.5, math.Vec3{X: -1.5, Y: 0.2, Z: 2.3}},
}

func (b *builder) bushes() (*scene.Node, error) {
	group := scene.NewGroup(NameBushes)
	mat := scene.NewColorMaterial("bush", core.MustHex("#1E861A"))
	for i, l := range bushLayout {
		bush, err := b.mesh(fmt.Sprintf("bush%d", i+1), scene.Sphere{Radius: 1, WidthSegments: 16, HeightSegments: 16}, mat)
		if err != nil {
			return nil, err
		}
		bush.SetScale(math.Vec3{X: l.scale, Y: l.scale, Z: l.scale})
		bush.SetPosition(l.position)
		group.AddChild(bush)
	}
	return group, nil
}

func (b *builder) graves(rng placement.RandomSource) (*scene.Node, error) {
	spec := b.v.Graves
	transforms, err := placement.PlaceGraveyard(spec.Count, spec.InnerRadius, spec.RadiusSpan, rng)
	if err != nil {
		return nil, fmt.Errorf("graves: %w", err)
	}
	group := scene.NewGroup(NameGraves)
	mat := scene.NewColorMaterial("grave", core.MustHex("#AEAEAE"))
	// Graves share one material but each gets its own geometry.
	for i, t := range transforms {
		grave, err := b.mesh(fmt.Sprintf("grave%d", i+1), scene.Box{Width: 0.6, Height: 0.8, Depth: 0.2}, mat)
		if err != nil {
			return nil, err
		}
		grave.SetTransform(t)
		group.AddChild(grave)
	}
	return group, nil
}

func (b *builder) ghosts() (*scene.Node, []animate.RoamingLight, error) {
	group := scene.NewGroup(NameGhosts)
	var roaming []animate.RoamingLight
	for i, spec := range b.v.Ghosts {
		orbit, err := animate.OrbitByName(spec.Orbit)
		if err != nil {
			return nil, nil, err
		}
		ghost := scene.NewLightNode(fmt.Sprintf("ghost%d", i+1),
			scene.NewPointLight(core.MustHex(spec.Color), spec.Intensity, spec.Range))
		ghost.SetPosition(orbit(0))
		group.AddChild(ghost)
		roaming = append(roaming, animate.RoamingLight{Node: ghost, Orbit: orbit})
	}
	return group, roaming, nil
}

// applyRoles flags every mesh and non-ambient light under each named node.
func applyRoles(g *scene.Scene, cfg *shadow.Config, roles ShadowRoles) error {
	apply := func(name string, casts, receives bool) error {
		root := g.Find(name)
		if root == nil {
			return core.ConfigErrorf("shadow role names unknown node %q", name)
		}
		var err error
		root.Traverse(func(n *scene.Node) {
			if err != nil {
				return
			}
			switch {
			case n.Mesh != nil:
				err = cfg.Configure(n, casts, receives)
			case n.Light != nil && n.Light.Kind != scene.LightAmbient:
				err = cfg.Configure(n, casts, false)
			}
		})
		return err
	}
	for _, name := range roles.Casters {
		if err := apply(name, true, false); err != nil {
			return err
		}
	}
	for _, name := range roles.Receivers {
		if err := apply(name, false, true); err != nil {
			return err
		}
	}
	return nil
}

// Ranges of the live-tunable parameters.
const (
	IntensityMin, IntensityMax = 0, 1
	PositionMin, PositionMax   = -5, 5
)

func bindPanel(ambient, moon *scene.Node) (*tuning.Panel, error) {
	p := tuning.NewPanel()
	bind := func(name string, target *float32, min, max float32, onChange func(float32)) error {
		param, err := p.Bind(name, target, min, max)
		if err != nil {
			return err
		}
		param.OnChange = onChange
		return nil
	}
	moved := func(float32) { moon.MarkWorldMatrixDirty() }

	for _, b := range []struct {
		name     string
		target   *float32
		min, max float32
		onChange func(float32)
	}{
		{"ambient.intensity", &ambient.Light.Intensity, IntensityMin, IntensityMax, nil},
		{"moon.intensity", &moon.Light.Intensity, IntensityMin, IntensityMax, nil},
		{"moon.x", &moon.Transform.Position.X, PositionMin, PositionMax, moved},
		{"moon.y", &moon.Transform.Position.Y, PositionMin, PositionMax, moved},
		{"moon.z", &moon.Transform.Position.Z, PositionMin, PositionMax, moved},
	} {
		if err := bind(b.name, b.target, b.min, b.max, b.onChange); err != nil {
			return nil, err
		}
	}
	return p, nil
}
