package opengl

import (
	"fmt"
	"log/slog"
	"strings"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"haunted-house/core"
	"haunted-house/math"
	"haunted-house/scene"
)

const (
	// MaxPointLights is the number of point lights the shader evaluates.
	MaxPointLights = 8
	// MaxPointShadows is the number of point lights that may cast shadows.
	MaxPointShadows = 4
)

// Texture units used by the main shader.
const (
	unitAlbedo = iota
	unitDirShadow
	unitNormal
	unitRoughness
	unitAO
	unitAlpha
	unitMetalness
	unitDisplacement
	unitPointShadow0
)

// GPUMesh holds the OpenGL buffer objects for an uploaded mesh.
type GPUMesh struct {
	VAO        uint32
	VBO        uint32
	EBO        uint32
	IndexCount int32
	HasIndices bool
}

// DirectionalLight is a directional light resolved to world space for one
// frame. Shadow is nil when the light does not cast.
type DirectionalLight struct {
	Direction math.Vec3 // from the light toward its target
	Color     core.Color
	Intensity float32
	ViewProj  math.Mat4
	Shadow    *ShadowMap
}

// PointLight is a point light resolved to world space for one frame.
type PointLight struct {
	Position  math.Vec3
	Color     core.Color
	Intensity float32
	Range     float32
	Decay     float32
	Shadow    *CubeShadowMap
}

// Frame carries the per-frame uniforms.
type Frame struct {
	ClearColor    core.Color
	Ambient       core.Color // summed ambient lights, premultiplied by intensity
	Fog           scene.Fog
	CameraPos     math.Vec3
	CameraForward math.Vec3
	Directional   *DirectionalLight
	Points        []PointLight
}

// textureSlot pairs a sampler unit with its "has" flag uniform.
type textureSlot struct {
	unit   int32
	hasLoc int32
}

// Renderer is the OpenGL rendering backend.
type Renderer struct {
	program uint32

	// Vertex transform uniforms
	mvpLoc           int32
	modelLoc         int32
	lightViewProjLoc int32
	uvRepeatLoc      int32

	// Directional light
	hasDirLightLoc    int32
	lightDirLoc       int32
	lightColorLoc     int32
	lightIntensityLoc int32
	ambientColorLoc   int32

	// Point lights
	pointLightCountLoc     int32
	pointLightPosLoc       [MaxPointLights]int32
	pointLightColorLoc     [MaxPointLights]int32
	pointLightIntensityLoc [MaxPointLights]int32
	pointLightRangeLoc     [MaxPointLights]int32
	pointLightDecayLoc     [MaxPointLights]int32
	pointShadowSlotLoc     [MaxPointLights]int32
	pointShadowFarLoc      [MaxPointShadows]int32

	cameraPosLoc     int32
	cameraForwardLoc int32

	// Material
	matColorLoc          int32
	matRoughnessLoc      int32
	matMetalnessLoc      int32
	displacementScaleLoc int32
	transparentLoc       int32
	receiveShadowLoc     int32

	albedo       textureSlot
	normal       textureSlot
	roughness    textureSlot
	ao           textureSlot
	alpha        textureSlot
	metalness    textureSlot
	displacement textureSlot

	// Fog
	fogEnabledLoc int32
	fogColorLoc   int32
	fogNearLoc    int32
	fogFarLoc     int32

	hasDirShadowLoc int32

	// Directional depth shader
	shadowProg        uint32
	shadowLightMVPLoc int32

	// Point-light distance shader
	cubeProg        uint32
	cubeLightMVPLoc int32
	cubeModelLoc    int32
	cubeLightPosLoc int32
	cubeFarLoc      int32

	gpuMeshes      map[*scene.Mesh]*GPUMesh
	failedTextures map[*scene.Texture]bool
	uploaded       []*scene.Texture
}

// vertex shader: displacement along the normal, UV repeat on both UV sets,
// light-space position for the directional shadow lookup.
const vertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec3 inNormal;
layout(location = 2) in vec2 inUV;
layout(location = 3) in vec4 inColor;
layout(location = 4) in vec3 inTangent;
layout(location = 5) in vec3 inBitangent;
layout(location = 6) in vec2 inUV2;

uniform mat4 mvp;
uniform mat4 model;
uniform mat4 lightViewProj;
uniform vec2 uvRepeat;

// Displacement (unit 7)
uniform sampler2D displacementTex;
uniform bool      hasDisplacementTex;
uniform float     displacementScale;

out vec4 fragColor;
out vec3 fragNormal;
out vec2 fragUV;
out vec2 fragUV2;
out vec3 fragWorldPos;
out vec4 fragLightSpacePos;
out vec3 fragTangent;
out vec3 fragBitangent;

void main() {
    vec2 uv  = inUV * uvRepeat;
    vec3 pos = inPosition;
    if (hasDisplacementTex) {
        pos += normalize(inNormal) * textureLod(displacementTex, uv, 0.0).r * displacementScale;
    }

    mat3 normalMat = mat3(model);
    vec4 worldPos  = model * vec4(pos, 1.0);

    gl_Position       = mvp * vec4(pos, 1.0);
    fragLightSpacePos = lightViewProj * worldPos;
    fragColor         = inColor;
    fragNormal        = normalMat * inNormal;
    fragUV            = uv;
    fragUV2           = inUV2 * uvRepeat;
    fragWorldPos      = worldPos.xyz;
    fragTangent       = normalMat * inTangent;
    fragBitangent     = normalMat * inBitangent;
}
` + "\x00"

// fragment shader: Cook-Torrance with ambient, one directional and up to 8
// point lights. Light intensities use the non-physical convention where a
// white light of intensity 1 fully lights a white lambertian surface facing it.
const fragSrc = `
#version 410 core
in vec4 fragColor;
in vec3 fragNormal;
in vec2 fragUV;
in vec2 fragUV2;
in vec3 fragWorldPos;
in vec4 fragLightSpacePos;
in vec3 fragTangent;
in vec3 fragBitangent;

out vec4 outColor;

uniform vec3 ambientColor;

// Directional light
uniform bool  hasDirLight;
uniform vec3  lightDir;
uniform vec3  lightColor;
uniform float lightIntensity;

// Point lights
#define MAX_POINT_LIGHTS 8
#define MAX_POINT_SHADOWS 4
uniform int   pointLightCount;
uniform vec3  pointLightPos[MAX_POINT_LIGHTS];
uniform vec3  pointLightColor[MAX_POINT_LIGHTS];
uniform float pointLightIntensity[MAX_POINT_LIGHTS];
uniform float pointLightRange[MAX_POINT_LIGHTS];
uniform float pointLightDecay[MAX_POINT_LIGHTS];
uniform int   pointShadowSlot[MAX_POINT_LIGHTS]; // -1 = no shadow
uniform float pointShadowFar[MAX_POINT_SHADOWS];

// Point shadow cube maps (units 8-11)
uniform samplerCube pointShadow0;
uniform samplerCube pointShadow1;
uniform samplerCube pointShadow2;
uniform samplerCube pointShadow3;

uniform vec3 cameraPos;
uniform vec3 cameraForward;

// Material
uniform vec4  matColor;
uniform float matRoughness;
uniform float matMetalness;
uniform bool  transparent;
uniform bool  receiveShadow;

uniform sampler2D albedoTex;    // unit 0
uniform bool      hasAlbedoTex;
uniform sampler2D normalTex;    // unit 2
uniform bool      hasNormalTex;
uniform sampler2D roughnessTex; // unit 3, green channel
uniform bool      hasRoughnessTex;
uniform sampler2D aoTex;        // unit 4, red channel, second UV set
uniform bool      hasAOTex;
uniform sampler2D alphaTex;     // unit 5, green channel
uniform bool      hasAlphaTex;
uniform sampler2D metalnessTex; // unit 6, blue channel
uniform bool      hasMetalnessTex;

// Directional shadow map (unit 1)
uniform sampler2DShadow shadowMap;
uniform bool            hasDirShadow;

// Linear fog over view depth
uniform bool  fogEnabled;
uniform vec3  fogColor;
uniform float fogNear;
uniform float fogFar;

const float PI = 3.14159265359;

// ── Shadows ──────────────────────────────────────────────────────────────────

float calcDirShadow() {
    vec3 p = fragLightSpacePos.xyz / fragLightSpacePos.w;
    p = p * 0.5 + 0.5;
    if (p.z > 1.0) return 1.0;
    vec2 ts = 1.0 / vec2(textureSize(shadowMap, 0));
    float shadow = 0.0;
    for (int x = -1; x <= 1; x++) {
        for (int y = -1; y <= 1; y++) {
            shadow += texture(shadowMap, vec3(p.xy + vec2(float(x), float(y)) * ts, p.z - 0.002));
        }
    }
    return shadow / 9.0;
}

float pointShadowDepth(int slot, vec3 dir) {
    if (slot == 0) return texture(pointShadow0, dir).r;
    if (slot == 1) return texture(pointShadow1, dir).r;
    if (slot == 2) return texture(pointShadow2, dir).r;
    return texture(pointShadow3, dir).r;
}

float calcPointShadow(int i) {
    int slot = pointShadowSlot[i];
    if (slot < 0) return 1.0;
    vec3  fromLight = fragWorldPos - pointLightPos[i];
    float current   = length(fromLight) / pointShadowFar[slot];
    if (current >= 1.0) return 1.0;
    return current - 0.005 > pointShadowDepth(slot, fromLight) ? 0.0 : 1.0;
}

// ── PBR helpers (Cook-Torrance BRDF) ─────────────────────────────────────────

float DistributionGGX(vec3 N, vec3 H, float roughness) {
    float a  = roughness * roughness;
    float a2 = a * a;
    float NdH = max(dot(N, H), 0.0);
    float d   = NdH * NdH * (a2 - 1.0) + 1.0;
    return a2 / (PI * d * d);
}

float GeometrySchlickGGX(float cosTheta, float roughness) {
    float r = roughness + 1.0;
    float k = (r * r) / 8.0;
    return cosTheta / (cosTheta * (1.0 - k) + k);
}

float GeometrySmith(float NdV, float NdL, float roughness) {
    return GeometrySchlickGGX(NdV, roughness) * GeometrySchlickGGX(NdL, roughness);
}

vec3 FresnelSchlick(float cosTheta, vec3 F0) {
    return F0 + (1.0 - F0) * pow(clamp(1.0 - cosTheta, 0.0, 1.0), 5.0);
}

// Evaluate one Cook-Torrance lobe. L = unit vector toward light, rad = light radiance.
vec3 evalPBR(vec3 N, vec3 V, vec3 L, vec3 rad, vec3 albedo, float metallic, float roughness, vec3 F0) {
    float NdL = max(dot(N, L), 0.0);
    if (NdL <= 0.0) return vec3(0.0);

    vec3  H   = normalize(V + L);
    float NdV = max(dot(N, V), 0.0);

    float D  = DistributionGGX(N, H, roughness);
    float G  = GeometrySmith(NdV, NdL, roughness);
    vec3  F  = FresnelSchlick(max(dot(H, V), 0.0), F0);

    vec3 kD       = (vec3(1.0) - F) * (1.0 - metallic);
    vec3 specular = D * G * F / max(4.0 * NdV * NdL, 0.001);

    return (kD * albedo / PI + specular) * rad * NdL;
}

// Reaches zero at range; range 0 disables the cutoff.
float distanceAttenuation(float dist, float range, float decay) {
    if (range > 0.0 && decay > 0.0) {
        return pow(clamp(1.0 - dist / range, 0.0, 1.0), decay);
    }
    return 1.0;
}

// ── Main ─────────────────────────────────────────────────────────────────────

void main() {
    vec4 baseColor = fragColor * matColor;
    if (hasAlbedoTex) {
        baseColor *= texture(albedoTex, fragUV);
    }
    if (hasAlphaTex) {
        baseColor.a *= texture(alphaTex, fragUV).g;
    }
    if (transparent && baseColor.a <= 0.0) {
        discard;
    }

    vec3 N;
    if (hasNormalTex) {
        vec3 T  = normalize(fragTangent);
        vec3 B  = normalize(fragBitangent);
        vec3 Nv = normalize(fragNormal);
        mat3 TBN = mat3(T, B, Nv);
        N = normalize(TBN * (texture(normalTex, fragUV).rgb * 2.0 - 1.0));
    } else {
        N = normalize(fragNormal);
    }
    vec3 V = normalize(cameraPos - fragWorldPos);

    float roughness = matRoughness;
    if (hasRoughnessTex) {
        roughness *= texture(roughnessTex, fragUV).g;
    }
    roughness = clamp(roughness, 0.04, 1.0);
    float metallic = matMetalness;
    if (hasMetalnessTex) {
        metallic *= texture(metalnessTex, fragUV).b;
    }
    float occlusion = hasAOTex ? texture(aoTex, fragUV2).r : 1.0;

    vec3 albedo = baseColor.rgb;
    vec3 F0     = mix(vec3(0.04), albedo, metallic);

    vec3 color = ambientColor * albedo * (1.0 - metallic) * occlusion;

    if (hasDirLight) {
        float shadow = (receiveShadow && hasDirShadow) ? calcDirShadow() : 1.0;
        vec3 rad = lightColor * lightIntensity * PI * shadow;
        color += evalPBR(N, V, normalize(-lightDir), rad, albedo, metallic, roughness, F0);
    }

    for (int i = 0; i < pointLightCount && i < MAX_POINT_LIGHTS; i++) {
        vec3  toLight = pointLightPos[i] - fragWorldPos;
        float atten   = distanceAttenuation(length(toLight), pointLightRange[i], pointLightDecay[i]);
        if (atten <= 0.0) continue;
        float shadow = receiveShadow ? calcPointShadow(i) : 1.0;
        vec3 rad = pointLightColor[i] * pointLightIntensity[i] * atten * PI * shadow;
        color += evalPBR(N, V, normalize(toLight), rad, albedo, metallic, roughness, F0);
    }

    if (fogEnabled) {
        float depth = dot(fragWorldPos - cameraPos, cameraForward);
        color = mix(color, fogColor, smoothstep(fogNear, fogFar, depth));
    }
    outColor = vec4(color, transparent ? baseColor.a : 1.0);
}
` + "\x00"

// depth-only vertex shader for the directional shadow pass
const depthVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
uniform mat4 lightMVP;
void main() {
    gl_Position = lightMVP * vec4(inPosition, 1.0);
}
` + "\x00"

// depth-only fragment shader (OpenGL writes depth implicitly)
const depthFragSrc = `
#version 410 core
void main() {}
` + "\x00"

// distance shaders for point-light cube faces: depth = |p - light| / far
const distanceVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
uniform mat4 lightMVP;
uniform mat4 model;
out vec3 worldPos;
void main() {
    worldPos    = (model * vec4(inPosition, 1.0)).xyz;
    gl_Position = lightMVP * vec4(inPosition, 1.0);
}
` + "\x00"

const distanceFragSrc = `
#version 410 core
in vec3 worldPos;
uniform vec3  lightPos;
uniform float far;
void main() {
    gl_FragDepth = length(worldPos - lightPos) / far;
}
` + "\x00"

// ── NewRenderer ───────────────────────────────────────────────────────────────

// NewRenderer initialises OpenGL.
// Must be called after the GLFW window context is made current.
func NewRenderer() (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	slog.Info("OpenGL ready", "version", gl.GoStr(gl.GetString(gl.VERSION)))

	prog, err := newProgram(vertSrc, fragSrc)
	if err != nil {
		return nil, fmt.Errorf("main shader compile: %w", err)
	}
	shadowProg, err := newProgram(depthVertSrc, depthFragSrc)
	if err != nil {
		return nil, fmt.Errorf("depth shader compile: %w", err)
	}
	cubeProg, err := newProgram(distanceVertSrc, distanceFragSrc)
	if err != nil {
		return nil, fmt.Errorf("distance shader compile: %w", err)
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	u := func(p uint32, name string) int32 {
		return gl.GetUniformLocation(p, gl.Str(name+"\x00"))
	}
	slot := func(unit int32, has string) textureSlot {
		return textureSlot{unit: unit, hasLoc: u(prog, has)}
	}

	r := &Renderer{
		program:    prog,
		shadowProg: shadowProg,
		cubeProg:   cubeProg,

		mvpLoc:           u(prog, "mvp"),
		modelLoc:         u(prog, "model"),
		lightViewProjLoc: u(prog, "lightViewProj"),
		uvRepeatLoc:      u(prog, "uvRepeat"),

		hasDirLightLoc:    u(prog, "hasDirLight"),
		lightDirLoc:       u(prog, "lightDir"),
		lightColorLoc:     u(prog, "lightColor"),
		lightIntensityLoc: u(prog, "lightIntensity"),
		ambientColorLoc:   u(prog, "ambientColor"),

		pointLightCountLoc: u(prog, "pointLightCount"),
		cameraPosLoc:       u(prog, "cameraPos"),
		cameraForwardLoc:   u(prog, "cameraForward"),

		matColorLoc:          u(prog, "matColor"),
		matRoughnessLoc:      u(prog, "matRoughness"),
		matMetalnessLoc:      u(prog, "matMetalness"),
		displacementScaleLoc: u(prog, "displacementScale"),
		transparentLoc:       u(prog, "transparent"),
		receiveShadowLoc:     u(prog, "receiveShadow"),

		albedo:       slot(unitAlbedo, "hasAlbedoTex"),
		normal:       slot(unitNormal, "hasNormalTex"),
		roughness:    slot(unitRoughness, "hasRoughnessTex"),
		ao:           slot(unitAO, "hasAOTex"),
		alpha:        slot(unitAlpha, "hasAlphaTex"),
		metalness:    slot(unitMetalness, "hasMetalnessTex"),
		displacement: slot(unitDisplacement, "hasDisplacementTex"),

		fogEnabledLoc: u(prog, "fogEnabled"),
		fogColorLoc:   u(prog, "fogColor"),
		fogNearLoc:    u(prog, "fogNear"),
		fogFarLoc:     u(prog, "fogFar"),

		hasDirShadowLoc: u(prog, "hasDirShadow"),

		shadowLightMVPLoc: u(shadowProg, "lightMVP"),

		cubeLightMVPLoc: u(cubeProg, "lightMVP"),
		cubeModelLoc:    u(cubeProg, "model"),
		cubeLightPosLoc: u(cubeProg, "lightPos"),
		cubeFarLoc:      u(cubeProg, "far"),

		gpuMeshes:      make(map[*scene.Mesh]*GPUMesh),
		failedTextures: make(map[*scene.Texture]bool),
	}

	for i := 0; i < MaxPointLights; i++ {
		r.pointLightPosLoc[i] = u(prog, fmt.Sprintf("pointLightPos[%d]", i))
		r.pointLightColorLoc[i] = u(prog, fmt.Sprintf("pointLightColor[%d]", i))
		r.pointLightIntensityLoc[i] = u(prog, fmt.Sprintf("pointLightIntensity[%d]", i))
		r.pointLightRangeLoc[i] = u(prog, fmt.Sprintf("pointLightRange[%d]", i))
		r.pointLightDecayLoc[i] = u(prog, fmt.Sprintf("pointLightDecay[%d]", i))
		r.pointShadowSlotLoc[i] = u(prog, fmt.Sprintf("pointShadowSlot[%d]", i))
	}
	for i := 0; i < MaxPointShadows; i++ {
		r.pointShadowFarLoc[i] = u(prog, fmt.Sprintf("pointShadowFar[%d]", i))
	}

	gl.UseProgram(prog)
	gl.Uniform1i(u(prog, "albedoTex"), unitAlbedo)
	gl.Uniform1i(u(prog, "shadowMap"), unitDirShadow)
	gl.Uniform1i(u(prog, "normalTex"), unitNormal)
	gl.Uniform1i(u(prog, "roughnessTex"), unitRoughness)
	gl.Uniform1i(u(prog, "aoTex"), unitAO)
	gl.Uniform1i(u(prog, "alphaTex"), unitAlpha)
	gl.Uniform1i(u(prog, "metalnessTex"), unitMetalness)
	gl.Uniform1i(u(prog, "displacementTex"), unitDisplacement)
	for i := 0; i < MaxPointShadows; i++ {
		gl.Uniform1i(u(prog, fmt.Sprintf("pointShadow%d", i)), int32(unitPointShadow0+i))
	}

	// Initialise lightViewProj to identity so the shadow computation is safe
	// even when shadows are disabled
	ident := math.Mat4Identity()
	gl.UniformMatrix4fv(r.lightViewProjLoc, 1, false, (*float32)(unsafe.Pointer(&ident[0][0])))

	return r, nil
}

// ── Shadow passes ─────────────────────────────────────────────────────────────

// BeginShadowPass binds a directional shadow map for depth rendering.
func (r *Renderer) BeginShadowPass(sm *ShadowMap) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, sm.FBO)
	gl.Viewport(0, 0, sm.Width, sm.Height)
	gl.Disable(gl.BLEND)
	gl.Clear(gl.DEPTH_BUFFER_BIT)
	gl.UseProgram(r.shadowProg)
}

// DrawMeshShadow draws a mesh into the bound directional shadow map.
func (r *Renderer) DrawMeshShadow(mesh *scene.Mesh, lightMVP math.Mat4) {
	gpu := r.ensureUploaded(mesh)
	if gpu == nil {
		return
	}
	gl.UniformMatrix4fv(r.shadowLightMVPLoc, 1, false,
		(*float32)(unsafe.Pointer(&lightMVP[0][0])))
	r.drawGPU(gpu, mesh)
}

// BeginCubeFace binds one face of a point-light shadow cube for distance
// rendering from lightPos.
func (r *Renderer) BeginCubeFace(cm *CubeShadowMap, face int, lightPos math.Vec3) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, cm.FBO)
	gl.Viewport(0, 0, cm.Size, cm.Size)
	gl.Disable(gl.BLEND)
	cm.BindFace(face)
	gl.UseProgram(r.cubeProg)
	gl.Uniform3f(r.cubeLightPosLoc, lightPos.X, lightPos.Y, lightPos.Z)
	gl.Uniform1f(r.cubeFarLoc, cm.Far)
}

// DrawMeshDistance draws a mesh into the bound cube face.
func (r *Renderer) DrawMeshDistance(mesh *scene.Mesh, model, lightMVP math.Mat4) {
	gpu := r.ensureUploaded(mesh)
	if gpu == nil {
		return
	}
	gl.UniformMatrix4fv(r.cubeLightMVPLoc, 1, false,
		(*float32)(unsafe.Pointer(&lightMVP[0][0])))
	gl.UniformMatrix4fv(r.cubeModelLoc, 1, false,
		(*float32)(unsafe.Pointer(&model[0][0])))
	r.drawGPU(gpu, mesh)
}

// ── BeginFrame ────────────────────────────────────────────────────────────────

// BeginFrame binds target (the window when nil), clears it and uploads the
// per-frame lighting, camera, fog and shadow uniforms.
func (r *Renderer) BeginFrame(f Frame, target *RenderTarget) {
	if target != nil {
		target.Bind()
	} else {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	}
	c := f.ClearColor
	gl.ClearColor(c.R, c.G, c.B, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	gl.UseProgram(r.program)

	gl.Uniform3f(r.ambientColorLoc, f.Ambient.R, f.Ambient.G, f.Ambient.B)
	gl.Uniform3f(r.cameraPosLoc, f.CameraPos.X, f.CameraPos.Y, f.CameraPos.Z)
	gl.Uniform3f(r.cameraForwardLoc, f.CameraForward.X, f.CameraForward.Y, f.CameraForward.Z)

	if f.Fog.Enabled {
		gl.Uniform1i(r.fogEnabledLoc, 1)
		gl.Uniform3f(r.fogColorLoc, f.Fog.Color.R, f.Fog.Color.G, f.Fog.Color.B)
		gl.Uniform1f(r.fogNearLoc, f.Fog.Near)
		gl.Uniform1f(r.fogFarLoc, f.Fog.Far)
	} else {
		gl.Uniform1i(r.fogEnabledLoc, 0)
	}

	lightVP := math.Mat4Identity()
	gl.Uniform1i(r.hasDirShadowLoc, 0)
	if d := f.Directional; d != nil {
		dir := d.Direction.Normalize()
		gl.Uniform1i(r.hasDirLightLoc, 1)
		gl.Uniform3f(r.lightDirLoc, dir.X, dir.Y, dir.Z)
		gl.Uniform3f(r.lightColorLoc, d.Color.R, d.Color.G, d.Color.B)
		gl.Uniform1f(r.lightIntensityLoc, d.Intensity)
		if d.Shadow != nil {
			lightVP = d.ViewProj
			gl.ActiveTexture(gl.TEXTURE0 + unitDirShadow)
			gl.BindTexture(gl.TEXTURE_2D, d.Shadow.DepthTex)
			gl.Uniform1i(r.hasDirShadowLoc, 1)
		}
	} else {
		gl.Uniform1i(r.hasDirLightLoc, 0)
	}
	gl.UniformMatrix4fv(r.lightViewProjLoc, 1, false,
		(*float32)(unsafe.Pointer(&lightVP[0][0])))

	count, shadows := 0, 0
	for _, p := range f.Points {
		if count == MaxPointLights {
			break
		}
		gl.Uniform3f(r.pointLightPosLoc[count], p.Position.X, p.Position.Y, p.Position.Z)
		gl.Uniform3f(r.pointLightColorLoc[count], p.Color.R, p.Color.G, p.Color.B)
		gl.Uniform1f(r.pointLightIntensityLoc[count], p.Intensity)
		gl.Uniform1f(r.pointLightRangeLoc[count], p.Range)
		gl.Uniform1f(r.pointLightDecayLoc[count], p.Decay)
		if p.Shadow != nil && shadows < MaxPointShadows {
			gl.ActiveTexture(gl.TEXTURE0 + unitPointShadow0 + uint32(shadows))
			gl.BindTexture(gl.TEXTURE_CUBE_MAP, p.Shadow.DepthTex)
			gl.Uniform1f(r.pointShadowFarLoc[shadows], p.Shadow.Far)
			gl.Uniform1i(r.pointShadowSlotLoc[count], int32(shadows))
			shadows++
		} else {
			gl.Uniform1i(r.pointShadowSlotLoc[count], -1)
		}
		count++
	}
	gl.Uniform1i(r.pointLightCountLoc, int32(count))
}

// ── DrawMesh ──────────────────────────────────────────────────────────────────

// DrawMesh draws a mesh with the given MVP and model matrices. Material
// properties are read from mesh.Material; maps that are not resolved yet are
// skipped.
func (r *Renderer) DrawMesh(mesh *scene.Mesh, mvp, model math.Mat4, receiveShadow bool) {
	gpu := r.ensureUploaded(mesh)
	if gpu == nil {
		return
	}

	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.mvpLoc, 1, false, (*float32)(unsafe.Pointer(&mvp[0][0])))
	gl.UniformMatrix4fv(r.modelLoc, 1, false, (*float32)(unsafe.Pointer(&model[0][0])))
	gl.Uniform1i(r.receiveShadowLoc, boolInt(receiveShadow))

	mat := mesh.Material
	if mat == nil {
		mat = scene.DefaultMaterial()
	}
	r.applyMaterial(mat)

	if mat.Transparent {
		gl.Enable(gl.BLEND)
	}
	r.drawGPU(gpu, mesh)
	if mat.Transparent {
		gl.Disable(gl.BLEND)
	}
}

// applyMaterial sets all material-related shader uniforms and binds textures.
// Must be called while r.program is active.
func (r *Renderer) applyMaterial(mat *scene.Material) {
	c := mat.Color
	gl.Uniform4f(r.matColorLoc, c.R, c.G, c.B, c.A)
	gl.Uniform1f(r.matRoughnessLoc, mat.Roughness)
	gl.Uniform1f(r.matMetalnessLoc, mat.Metalness)
	gl.Uniform1f(r.displacementScaleLoc, mat.DisplacementScale)
	gl.Uniform1i(r.transparentLoc, boolInt(mat.Transparent))
	rep := mat.UVRepeat()
	gl.Uniform2f(r.uvRepeatLoc, rep.X, rep.Y)

	r.bindMap(r.albedo, mat.Maps.Albedo)
	r.bindMap(r.normal, mat.Maps.Normal)
	r.bindMap(r.roughness, mat.Maps.Roughness)
	r.bindMap(r.ao, mat.Maps.AmbientOcclusion)
	r.bindMap(r.alpha, mat.Maps.Alpha)
	r.bindMap(r.metalness, mat.Maps.Metalness)
	r.bindMap(r.displacement, mat.Maps.Displacement)
}

// bindMap uploads tex on first use after it resolves and binds it to the
// slot's unit. Unresolved or failed textures leave the slot disabled.
func (r *Renderer) bindMap(s textureSlot, tex *scene.Texture) {
	if tex.Ready() && tex.GLID == 0 && !r.failedTextures[tex] {
		if err := UploadTexture(tex); err != nil {
			slog.Warn("texture upload failed", "texture", tex.Name, "err", err)
			r.failedTextures[tex] = true
		} else {
			r.uploaded = append(r.uploaded, tex)
		}
	}
	if tex == nil || tex.GLID == 0 {
		gl.Uniform1i(s.hasLoc, 0)
		return
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(s.unit))
	gl.BindTexture(gl.TEXTURE_2D, tex.GLID)
	gl.Uniform1i(s.hasLoc, 1)
}

func (r *Renderer) drawGPU(gpu *GPUMesh, mesh *scene.Mesh) {
	gl.BindVertexArray(gpu.VAO)
	if gpu.HasIndices {
		gl.DrawElements(gl.TRIANGLES, gpu.IndexCount, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, int32(len(mesh.Vertices)))
	}
	gl.BindVertexArray(0)
}

// ── Resource management ───────────────────────────────────────────────────────

// ReleaseMesh frees GPU buffers for the given mesh.
func (r *Renderer) ReleaseMesh(mesh *scene.Mesh) {
	if gpu, ok := r.gpuMeshes[mesh]; ok {
		gl.DeleteVertexArrays(1, &gpu.VAO)
		gl.DeleteBuffers(1, &gpu.VBO)
		if gpu.HasIndices {
			gl.DeleteBuffers(1, &gpu.EBO)
		}
		delete(r.gpuMeshes, mesh)
		mesh.GPUData = nil
	}
}

// Destroy releases all GPU resources owned by the renderer. Shadow maps and
// render targets belong to the caller.
func (r *Renderer) Destroy() {
	for mesh := range r.gpuMeshes {
		r.ReleaseMesh(mesh)
	}
	for _, tex := range r.uploaded {
		DeleteTexture(tex)
	}
	r.uploaded = nil
	gl.DeleteProgram(r.shadowProg)
	gl.DeleteProgram(r.cubeProg)
	gl.DeleteProgram(r.program)
}

// ── Internal helpers ──────────────────────────────────────────────────────────

// ensureUploaded uploads vertex/index data if not already done.
func (r *Renderer) ensureUploaded(mesh *scene.Mesh) *GPUMesh {
	if gpu, ok := r.gpuMeshes[mesh]; ok {
		return gpu
	}
	if len(mesh.Vertices) == 0 {
		return nil
	}

	stride := int32(unsafe.Sizeof(core.Vertex{}))

	gpu := &GPUMesh{
		IndexCount: int32(len(mesh.Indices)),
		HasIndices: len(mesh.Indices) > 0,
	}

	gl.GenVertexArrays(1, &gpu.VAO)
	gl.GenBuffers(1, &gpu.VBO)
	gl.BindVertexArray(gpu.VAO)

	gl.BindBuffer(gl.ARRAY_BUFFER, gpu.VBO)
	gl.BufferData(gl.ARRAY_BUFFER,
		len(mesh.Vertices)*int(stride),
		gl.Ptr(mesh.Vertices),
		gl.STATIC_DRAW)

	var v core.Vertex
	attribs := []struct {
		size   int32
		offset uintptr
	}{
		{3, unsafe.Offsetof(v.Position)},
		{3, unsafe.Offsetof(v.Normal)},
		{2, unsafe.Offsetof(v.UV)},
		{4, unsafe.Offsetof(v.Color)},
		{3, unsafe.Offsetof(v.Tangent)},
		{3, unsafe.Offsetof(v.Bitangent)},
		{2, unsafe.Offsetof(v.UV2)},
	}
	for i, a := range attribs {
		gl.EnableVertexAttribArray(uint32(i))
		gl.VertexAttribPointer(uint32(i), a.size, gl.FLOAT, false, stride, gl.PtrOffset(int(a.offset)))
	}

	if gpu.HasIndices {
		gl.GenBuffers(1, &gpu.EBO)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gpu.EBO)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER,
			len(mesh.Indices)*4,
			gl.Ptr(mesh.Indices),
			gl.STATIC_DRAW)
	}

	gl.BindVertexArray(0)

	r.gpuMeshes[mesh] = gpu
	mesh.GPUData = gpu
	return gpu
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// ── Shader helpers ────────────────────────────────────────────────────────────

func newProgram(vertSrc, fragSrc string) (uint32, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vert)
		return 0, fmt.Errorf("fragment: %w", err)
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)
	gl.DeleteShader(vert)
	gl.DeleteShader(frag)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("link failed: %v", log)
	}
	return prog, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %v", log)
	}
	return shader, nil
}
