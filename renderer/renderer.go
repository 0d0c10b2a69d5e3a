package renderer

import (
	"fmt"
	"log/slog"

	"haunted-house/internal/drawlist"
	"haunted-house/internal/opengl"
	"haunted-house/math"
	"haunted-house/scene"
)

// FramebufferSizer reports the window's drawable size in pixels.
type FramebufferSizer interface {
	GetFramebufferSize() (width, height int)
}

// Stats describes the most recent Draw.
type Stats struct {
	Objects       int
	Triangles     int
	Culled        int
	ShadowCasters int
	ShadowMaps    int
}

// RenderEngine is the high-level renderer that drives the OpenGL backend.
// All methods must be called on the thread owning the GL context.
type RenderEngine struct {
	gl     *opengl.Renderer
	output FramebufferSizer

	FrustumCulling bool

	viewportW, viewportH int
	density              float32
	target               *opengl.RenderTarget

	shadowMaps map[*scene.Node]*opengl.ShadowMap
	cubeMaps   map[*scene.Node]*opengl.CubeShadowMap

	last Stats
}

// NewRenderEngine initialises OpenGL on the current context. output may be
// nil, in which case the window is assumed to be viewport × density pixels.
func NewRenderEngine(width, height int, output FramebufferSizer) (*RenderEngine, error) {
	glRenderer, err := opengl.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenGL renderer: %w", err)
	}
	re := &RenderEngine{
		gl:             glRenderer,
		output:         output,
		FrustumCulling: true,
		viewportW:      width,
		viewportH:      height,
		density:        1,
		shadowMaps:     make(map[*scene.Node]*opengl.ShadowMap),
		cubeMaps:       make(map[*scene.Node]*opengl.CubeShadowMap),
	}
	slog.Info("render engine initialized", "backend", "opengl", "width", width, "height", height)
	return re, nil
}

// SetViewportSize records the logical drawing size. The render target
// follows on the next Draw.
func (re *RenderEngine) SetViewportSize(width, height int) {
	re.viewportW = width
	re.viewportH = height
}

// SetPixelDensity sets the ratio of render-target pixels to viewport units.
func (re *RenderEngine) SetPixelDensity(ratio float32) {
	if ratio > 0 {
		re.density = ratio
	}
}

// TargetSize is the size of the off-screen render target.
func (re *RenderEngine) TargetSize() (int, int) {
	return drawlist.TargetSize(re.viewportW, re.viewportH, re.density)
}

// Draw renders one frame: shadow passes, the main pass into the render
// target, then the blit onto the window.
func (re *RenderEngine) Draw(s *scene.Scene, camera *scene.Camera) error {
	if s == nil || camera == nil {
		return fmt.Errorf("no scene or camera")
	}
	if re.viewportW <= 0 || re.viewportH <= 0 {
		return nil
	}
	if err := re.ensureTarget(); err != nil {
		return err
	}

	list := drawlist.Build(s, camera, re.FrustumCulling)
	lights := drawlist.GatherLights(s, opengl.MaxPointLights)

	frame := opengl.Frame{
		ClearColor:    s.ClearColor,
		Ambient:       lights.Ambient,
		Fog:           s.Fog,
		CameraPos:     camera.Position,
		CameraForward: camera.Forward(),
	}

	shadowMaps := 0
	if n := lights.Directional; n != nil {
		dl := &opengl.DirectionalLight{
			Direction: drawlist.Direction(n),
			Color:     n.Light.Color,
			Intensity: n.Light.Intensity,
		}
		if n.Shadow.CastShadow && n.Shadow.HasMap() {
			sm, err := re.shadowMapFor(n)
			if err != nil {
				return err
			}
			dl.ViewProj = drawlist.DirectionalViewProj(n)
			re.renderDirectionalShadow(sm, dl.ViewProj, list.Casters)
			dl.Shadow = sm
			shadowMaps++
		}
		frame.Directional = dl
	}

	cubes := 0
	for _, n := range lights.Points {
		pl := opengl.PointLight{
			Position:  n.WorldPosition(),
			Color:     n.Light.Color,
			Intensity: n.Light.Intensity,
			Range:     n.Light.Range,
			Decay:     n.Light.Decay,
		}
		if n.Shadow.CastShadow && n.Shadow.HasMap() && cubes < opengl.MaxPointShadows {
			cm, err := re.cubeMapFor(n)
			if err != nil {
				return err
			}
			re.renderPointShadow(cm, pl.Position, list.Casters)
			pl.Shadow = cm
			cubes++
		}
		frame.Points = append(frame.Points, pl)
	}

	re.gl.BeginFrame(frame, re.target)
	vp := camera.GetViewProjectionMatrix()
	for _, it := range list.Opaque {
		re.gl.DrawMesh(it.Node.Mesh, it.Model.Mul(vp), it.Model, it.Node.Shadow.ReceiveShadow)
	}
	for _, it := range list.Transparent {
		re.gl.DrawMesh(it.Node.Mesh, it.Model.Mul(vp), it.Model, it.Node.Shadow.ReceiveShadow)
	}

	outW, outH := re.TargetSize()
	if re.output != nil {
		outW, outH = re.output.GetFramebufferSize()
	}
	re.target.Blit(outW, outH)

	re.last = Stats{
		Objects:       len(list.Opaque) + len(list.Transparent),
		Triangles:     list.Triangles(),
		Culled:        list.Culled,
		ShadowCasters: len(list.Casters),
		ShadowMaps:    shadowMaps + cubes,
	}
	return nil
}

func (re *RenderEngine) renderDirectionalShadow(sm *opengl.ShadowMap, lightVP math.Mat4, casters []drawlist.Item) {
	re.gl.BeginShadowPass(sm)
	for _, it := range casters {
		re.gl.DrawMeshShadow(it.Node.Mesh, it.Model.Mul(lightVP))
	}
}

func (re *RenderEngine) renderPointShadow(cm *opengl.CubeShadowMap, pos math.Vec3, casters []drawlist.Item) {
	for face := 0; face < 6; face++ {
		faceVP := drawlist.CubeFaceViewProj(pos, face, cm.Far)
		re.gl.BeginCubeFace(cm, face, pos)
		for _, it := range casters {
			re.gl.DrawMeshDistance(it.Node.Mesh, it.Model, it.Model.Mul(faceVP))
		}
	}
}

func (re *RenderEngine) ensureTarget() error {
	w, h := re.TargetSize()
	if re.target == nil {
		rt, err := opengl.NewRenderTarget(w, h)
		if err != nil {
			return fmt.Errorf("render target: %w", err)
		}
		re.target = rt
		return nil
	}
	if err := re.target.Resize(w, h); err != nil {
		return fmt.Errorf("render target: %w", err)
	}
	return nil
}

// shadowMapFor returns the light's map, reallocating it when its
// configured size changed.
func (re *RenderEngine) shadowMapFor(n *scene.Node) (*opengl.ShadowMap, error) {
	sm := re.shadowMaps[n]
	if sm.Matches(n.Shadow.MapWidth, n.Shadow.MapHeight) {
		return sm, nil
	}
	if sm != nil {
		sm.Destroy()
	}
	sm, err := opengl.NewShadowMap(n.Shadow.MapWidth, n.Shadow.MapHeight)
	if err != nil {
		return nil, fmt.Errorf("shadow map for %q: %w", n.Name, err)
	}
	re.shadowMaps[n] = sm
	return sm, nil
}

func (re *RenderEngine) cubeMapFor(n *scene.Node) (*opengl.CubeShadowMap, error) {
	cm := re.cubeMaps[n]
	if cm.Matches(n.Shadow.MapWidth, n.Shadow.Far) {
		return cm, nil
	}
	if cm != nil {
		cm.Destroy()
	}
	cm, err := opengl.NewCubeShadowMap(n.Shadow.MapWidth, n.Shadow.Far)
	if err != nil {
		return nil, fmt.Errorf("cube shadow map for %q: %w", n.Name, err)
	}
	re.cubeMaps[n] = cm
	return cm, nil
}

// DrawStats returns stats from the most recent Draw call.
func (re *RenderEngine) DrawStats() Stats {
	return re.last
}

func (re *RenderEngine) Destroy() {
	for _, sm := range re.shadowMaps {
		sm.Destroy()
	}
	for _, cm := range re.cubeMaps {
		cm.Destroy()
	}
	if re.target != nil {
		re.target.Destroy()
	}
	re.gl.Destroy()
}
