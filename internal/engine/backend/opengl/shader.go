package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

const spriteVertexSrc = `
#version 410 core

layout(location = 0) in vec2 buf_coords;
layout(location = 1) in vec2 tex_coords;

out vec2 frag_tex_coords;

uniform mat4 proj;
uniform mat4 view;
uniform mat4 model;

void main() {
    frag_tex_coords = tex_coords;
    gl_Position = proj * view * model * vec4(buf_coords, 0.0, 1.0);
}
`

const spriteFragmentSrc = `
#version 410 core

uniform sampler2D sampler;
uniform vec4 obj_color;

in vec2 frag_tex_coords;

layout(location = 0) out vec4 color;

void main() {
    color = texture(sampler, frag_tex_coords) * obj_color;
}
`

// spriteProgram is the compiled sprite shader and its uniform locations.
type spriteProgram struct {
	id      uint32
	proj    int32
	view    int32
	model   int32
	sampler int32
	color   int32
}

func newSpriteProgram() (*spriteProgram, error) {
	id, err := compileProgram(spriteVertexSrc, spriteFragmentSrc)
	if err != nil {
		return nil, err
	}
	return &spriteProgram{
		id:      id,
		proj:    uniform(id, "proj"),
		view:    uniform(id, "view"),
		model:   uniform(id, "model"),
		sampler: uniform(id, "sampler"),
		color:   uniform(id, "obj_color"),
	}, nil
}

func (p *spriteProgram) delete() {
	if p.id != 0 {
		gl.DeleteProgram(p.id)
		p.id = 0
	}
}

// compileProgram compiles vertex and fragment shaders and links them into a program.
func compileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", gl.GoStr(&log[0]))
	}

	return program, nil
}

func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, gl.GoStr(&log[0]))
	}

	return shader, nil
}

func uniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}
