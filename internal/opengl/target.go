package opengl

import (
	"fmt"
	"log/slog"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// RenderTarget is the off-screen framebuffer the scene renders into. It is
// sized viewport × pixel density and resampled onto the window by Blit.
type RenderTarget struct {
	FBO      uint32
	ColorTex uint32 // RGBA8 colour attachment
	DepthRB  uint32 // depth renderbuffer
	Width    int32
	Height   int32

	prog    uint32
	srcLoc  int32
	quadVAO uint32 // empty VAO for the fullscreen triangle
}

// blitVertSrc draws a fullscreen triangle via gl_VertexID (no VBO needed).
const blitVertSrc = `
#version 410 core
out vec2 fragUV;
void main() {
    const vec2 pos[3] = vec2[3](
        vec2(-1.0, -1.0),
        vec2( 3.0, -1.0),
        vec2(-1.0,  3.0)
    );
    gl_Position = vec4(pos[gl_VertexID], 0.0, 1.0);
    fragUV      = pos[gl_VertexID] * 0.5 + 0.5;
}
` + "\x00"

const blitFragSrc = `
#version 410 core
in  vec2 fragUV;
out vec4 outColor;

uniform sampler2D source;

void main() {
    outColor = vec4(texture(source, fragUV).rgb, 1.0);
}
` + "\x00"

func NewRenderTarget(width, height int) (*RenderTarget, error) {
	prog, err := newProgram(blitVertSrc, blitFragSrc)
	if err != nil {
		return nil, fmt.Errorf("blit shader: %w", err)
	}
	rt := &RenderTarget{prog: prog}
	rt.srcLoc = gl.GetUniformLocation(prog, gl.Str("source\x00"))
	gl.UseProgram(prog)
	gl.Uniform1i(rt.srcLoc, 0)

	gl.GenVertexArrays(1, &rt.quadVAO)

	if err := rt.alloc(width, height); err != nil {
		rt.Destroy()
		return nil, err
	}
	return rt, nil
}

func (rt *RenderTarget) alloc(width, height int) error {
	rt.Width = int32(width)
	rt.Height = int32(height)

	gl.GenTextures(1, &rt.ColorTex)
	gl.BindTexture(gl.TEXTURE_2D, rt.ColorTex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8,
		rt.Width, rt.Height, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	gl.GenRenderbuffers(1, &rt.DepthRB)
	gl.BindRenderbuffer(gl.RENDERBUFFER, rt.DepthRB)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, rt.Width, rt.Height)
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)

	gl.GenFramebuffers(1, &rt.FBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, rt.FBO)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0,
		gl.TEXTURE_2D, rt.ColorTex, 0)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT,
		gl.RENDERBUFFER, rt.DepthRB)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("render target %dx%d incomplete: status=0x%X", width, height, status)
	}
	return nil
}

func (rt *RenderTarget) free() {
	if rt.FBO != 0 {
		gl.DeleteFramebuffers(1, &rt.FBO)
		rt.FBO = 0
	}
	if rt.ColorTex != 0 {
		gl.DeleteTextures(1, &rt.ColorTex)
		rt.ColorTex = 0
	}
	if rt.DepthRB != 0 {
		gl.DeleteRenderbuffers(1, &rt.DepthRB)
		rt.DepthRB = 0
	}
}

// Resize reallocates the attachments when the size changed.
func (rt *RenderTarget) Resize(width, height int) error {
	if rt.Width == int32(width) && rt.Height == int32(height) {
		return nil
	}
	slog.Debug("resizing render target", "width", width, "height", height)
	rt.free()
	return rt.alloc(width, height)
}

// Bind makes the target the draw framebuffer and sets the viewport to
// cover it.
func (rt *RenderTarget) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, rt.FBO)
	gl.Viewport(0, 0, rt.Width, rt.Height)
}

// Blit resamples the target onto the default framebuffer of outW×outH pixels.
func (rt *RenderTarget) Blit(outW, outH int) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(outW), int32(outH))
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.BLEND)

	gl.UseProgram(rt.prog)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, rt.ColorTex)
	gl.BindVertexArray(rt.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)

	gl.Enable(gl.DEPTH_TEST)
}

// Destroy frees all GPU resources owned by this object.
func (rt *RenderTarget) Destroy() {
	rt.free()
	if rt.prog != 0 {
		gl.DeleteProgram(rt.prog)
		rt.prog = 0
	}
	if rt.quadVAO != 0 {
		gl.DeleteVertexArrays(1, &rt.quadVAO)
		rt.quadVAO = 0
	}
}
