package haunted

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"

	"haunted-house/animate"
	"haunted-house/core"
)

//go:embed variants.toml
var builtinVariants []byte

// LightSpec is a light's color and strength.
type LightSpec struct {
	Color     string  `toml:"color"`
	Intensity float32 `toml:"intensity"`
}

// GhostSpec is one roaming light.
type GhostSpec struct {
	Color     string  `toml:"color"`
	Orbit     string  `toml:"orbit"`
	Intensity float32 `toml:"intensity"`
	Range     float32 `toml:"range"`
}

// GraveSpec shapes the graveyard annulus.
type GraveSpec struct {
	Count       int     `toml:"count"`
	InnerRadius float64 `toml:"inner_radius"`
	RadiusSpan  float64 `toml:"radius_span"`
}

// FogSpec is linear fog between Near and Far.
type FogSpec struct {
	Color string  `toml:"color"`
	Near  float32 `toml:"near"`
	Far   float32 `toml:"far"`
}

// ShadowRoles names the nodes that cast and receive shadows. A name that
// resolves to a group applies to every mesh and light beneath it.
type ShadowRoles struct {
	Casters   []string `toml:"casters"`
	Receivers []string `toml:"receivers"`
}

// DefaultShadowRoles lets occluders cast and the ground receive.
func DefaultShadowRoles() ShadowRoles {
	return ShadowRoles{
		Casters:   []string{NameWalls, NameBushes, NameGraves, NameMoon, NameDoorLight, NameGhosts},
		Receivers: []string{NameFloor},
	}
}

// Variant is one configuration of the scene. Start from DefaultVariant or
// ParseVariants; the zero value does not validate.
type Variant struct {
	Name        string       `toml:"name"`
	Description string       `toml:"description"`
	Textured    bool         `toml:"textured"`
	Shadows     bool         `toml:"shadows"`
	Ambient     LightSpec    `toml:"ambient"`
	Moon        LightSpec    `toml:"moon"`
	DoorLight   LightSpec    `toml:"door_light"`
	Ghosts      []GhostSpec  `toml:"ghosts"`
	Graves      GraveSpec    `toml:"graves"`
	Fog         FogSpec      `toml:"fog"`
	ShadowRoles *ShadowRoles `toml:"shadow_roles"`
}

// Ghost light defaults for keys a variant file leaves out.
const (
	DefaultGhostIntensity = 2
	DefaultGhostRange     = 3
)

// DefaultVariant is the basic night scene: blue ambient, moon, door light,
// forty graves and grey fog, with no ghosts.
func DefaultVariant(name string) Variant {
	roles := DefaultShadowRoles()
	return Variant{
		Name:        name,
		Ambient:     LightSpec{Color: "#5697FE", Intensity: 0.12},
		Moon:        LightSpec{Color: "#b9d5ff", Intensity: 0.12},
		DoorLight:   LightSpec{Color: "#ff7d46", Intensity: 1},
		Graves:      GraveSpec{Count: 40, InnerRadius: 3, RadiusSpan: 6.5},
		Fog:         FogSpec{Color: "#464647", Near: 5, Far: 18},
		ShadowRoles: &roles,
	}
}

// Validate checks every field Assemble relies on.
func (v Variant) Validate() error {
	var errs []error
	if v.Name == "" {
		errs = append(errs, core.ConfigErrorf("variant without a name"))
	}
	color := func(field, s string) {
		if _, err := core.ParseHex(s); err != nil {
			errs = append(errs, core.ConfigErrorf("variant %q %s: %v", v.Name, field, err))
		}
	}
	light := func(field string, l LightSpec) {
		color(field, l.Color)
		if l.Intensity < 0 {
			errs = append(errs, core.ConfigErrorf("variant %q %s: negative intensity", v.Name, field))
		}
	}
	light("ambient", v.Ambient)
	light("moon", v.Moon)
	light("door_light", v.DoorLight)
	for i, g := range v.Ghosts {
		color(fmt.Sprintf("ghost %d", i+1), g.Color)
		if _, err := animate.OrbitByName(g.Orbit); err != nil {
			errs = append(errs, fmt.Errorf("variant %q ghost %d: %w", v.Name, i+1, err))
		}
		if g.Intensity < 0 || g.Range < 0 {
			errs = append(errs, core.ConfigErrorf("variant %q ghost %d: negative intensity or range", v.Name, i+1))
		}
	}
	g := v.Graves
	if g.Count < 0 || g.InnerRadius < 0 || !(g.RadiusSpan > 0) {
		errs = append(errs, core.ConfigErrorf("variant %q graves: want count >= 0, inner_radius >= 0 and radius_span > 0, got %d, %v, %v",
			v.Name, g.Count, g.InnerRadius, g.RadiusSpan))
	}
	color("fog", v.Fog.Color)
	if !(v.Fog.Near >= 0 && v.Fog.Far > v.Fog.Near) {
		errs = append(errs, core.ConfigErrorf("variant %q fog: want 0 <= near < far, got %v..%v", v.Name, v.Fog.Near, v.Fog.Far))
	}
	if v.Shadows && v.ShadowRoles == nil {
		errs = append(errs, core.ConfigErrorf("variant %q: shadows enabled without shadow roles", v.Name))
	}
	return errors.Join(errs...)
}

// The document types mirror Variant with pointers wherever zero is a legal
// value. A key present in the file always wins over its default.
type lightDoc struct {
	Color     string   `toml:"color"`
	Intensity *float32 `toml:"intensity"`
}

type ghostDoc struct {
	Color     string   `toml:"color"`
	Orbit     string   `toml:"orbit"`
	Intensity *float32 `toml:"intensity"`
	Range     *float32 `toml:"range"`
}

type gravesDoc struct {
	Count       *int     `toml:"count"`
	InnerRadius *float64 `toml:"inner_radius"`
	RadiusSpan  *float64 `toml:"radius_span"`
}

type fogDoc struct {
	Color string   `toml:"color"`
	Near  *float32 `toml:"near"`
	Far   *float32 `toml:"far"`
}

type variantDoc struct {
	Name        string       `toml:"name"`
	Description string       `toml:"description"`
	Textured    bool         `toml:"textured"`
	Shadows     bool         `toml:"shadows"`
	Ambient     lightDoc     `toml:"ambient"`
	Moon        lightDoc     `toml:"moon"`
	DoorLight   lightDoc     `toml:"door_light"`
	Ghosts      []ghostDoc   `toml:"ghosts"`
	Graves      gravesDoc    `toml:"graves"`
	Fog         fogDoc       `toml:"fog"`
	ShadowRoles *ShadowRoles `toml:"shadow_roles"`
}

type variantFile struct {
	Variants []variantDoc `toml:"variant"`
}

// variant lays the document over DefaultVariant.
func (d variantDoc) variant() Variant {
	v := DefaultVariant(d.Name)
	v.Description = d.Description
	v.Textured = d.Textured
	v.Shadows = d.Shadows
	d.Ambient.apply(&v.Ambient)
	d.Moon.apply(&v.Moon)
	d.DoorLight.apply(&v.DoorLight)

	for _, g := range d.Ghosts {
		ghost := GhostSpec{Color: g.Color, Orbit: g.Orbit, Intensity: DefaultGhostIntensity, Range: DefaultGhostRange}
		set(&ghost.Intensity, g.Intensity)
		set(&ghost.Range, g.Range)
		v.Ghosts = append(v.Ghosts, ghost)
	}

	set(&v.Graves.Count, d.Graves.Count)
	set(&v.Graves.InnerRadius, d.Graves.InnerRadius)
	set(&v.Graves.RadiusSpan, d.Graves.RadiusSpan)

	if d.Fog.Color != "" {
		v.Fog.Color = d.Fog.Color
	}
	set(&v.Fog.Near, d.Fog.Near)
	set(&v.Fog.Far, d.Fog.Far)

	if d.ShadowRoles != nil {
		v.ShadowRoles = d.ShadowRoles
	}
	return v
}

func (l lightDoc) apply(dst *LightSpec) {
	if l.Color != "" {
		dst.Color = l.Color
	}
	set(&dst.Intensity, l.Intensity)
}

// set copies *src into *dst when the key was present.
func set[T any](dst, src *T) {
	if src != nil {
		*dst = *src
	}
}

// ParseVariants decodes a variant file. Unknown keys are rejected so typos
// surface at startup.
func ParseVariants(r io.Reader) ([]Variant, error) {
	var f variantFile
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, core.ConfigErrorf("variants: %s", strict.String())
		}
		return nil, core.ConfigErrorf("variants: %v", err)
	}
	out := make([]Variant, len(f.Variants))
	for i, d := range f.Variants {
		v := d.variant()
		if err := v.Validate(); err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Catalog is an ordered set of variants keyed by name.
type Catalog struct {
	order  []string
	byName map[string]Variant
}

// DefaultCatalog holds the built-in variants.
func DefaultCatalog() (*Catalog, error) {
	variants, err := ParseVariants(bytes.NewReader(builtinVariants))
	if err != nil {
		return nil, fmt.Errorf("built-in variants: %w", err)
	}
	c := &Catalog{byName: make(map[string]Variant)}
	c.Add(variants...)
	return c, nil
}

// Add inserts variants, replacing any with the same name in place.
func (c *Catalog) Add(variants ...Variant) {
	for _, v := range variants {
		if _, ok := c.byName[v.Name]; !ok {
			c.order = append(c.order, v.Name)
		}
		c.byName[v.Name] = v
	}
}

// LoadFile merges the variants in a TOML file into c.
func (c *Catalog) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open variants: %w", err)
	}
	defer f.Close()
	variants, err := ParseVariants(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	c.Add(variants...)
	return nil
}

// Lookup finds a variant by name.
func (c *Catalog) Lookup(name string) (Variant, error) {
	v, ok := c.byName[name]
	if !ok {
		return Variant{}, core.ConfigErrorf("unknown variant %q (have %v)", name, c.order)
	}
	return v, nil
}

// Names lists variants in the order they were added.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}
