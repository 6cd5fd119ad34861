package recorder

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

func newShader(t *testing.T, b *Backend) *metadata.Shader {
	t.Helper()
	cfg := &metadata.ShaderConfig{
		Name:           "test",
		VertexSource:   "void main() {}",
		FragmentSource: "void main() {}",
		Uniforms: []metadata.ShaderUniformConfig{
			{Name: "u_projTrans", Type: metadata.SHADER_UNIFORM_TYPE_MATRIX_4},
			{Name: "u_texture", Type: metadata.SHADER_UNIFORM_TYPE_SAMPLER},
		},
	}
	s := metadata.NewShader(cfg)
	if err := b.ShaderCreate(s, cfg); err != nil {
		t.Fatalf("ShaderCreate: %v", err)
	}
	return s
}

func newMesh(t *testing.T, b *Backend, maxVertices, maxIndices int) *metadata.Mesh {
	t.Helper()
	m := &metadata.Mesh{
		MaxVertices: maxVertices,
		MaxIndices:  maxIndices,
		Attributes: []metadata.ShaderAttribute{
			{Name: "a_position", Type: metadata.SHADER_ATTRIB_TYPE_FLOAT32_2},
			{Name: "a_color", Type: metadata.SHADER_ATTRIB_TYPE_PACKED_COLOR},
			{Name: "a_texCoord0", Type: metadata.SHADER_ATTRIB_TYPE_FLOAT32_2},
		},
	}
	if err := b.MeshCreate(m); err != nil {
		t.Fatalf("MeshCreate: %v", err)
	}
	return m
}

func TestMeshRenderRecordsState(t *testing.T) {
	b := New()
	shader := newShader(t, b)
	mesh := newMesh(t, b, 4, 6)
	tex := &metadata.Texture{Name: "t", Width: 2, Height: 2, ChannelCount: 4}
	if err := b.TextureCreate(make([]uint8, 16), tex); err != nil {
		t.Fatalf("TextureCreate: %v", err)
	}

	if err := b.BeginFrame(0); err != nil {
		t.Fatal(err)
	}
	if err := b.ShaderUse(shader); err != nil {
		t.Fatal(err)
	}
	if err := b.SetUniformMatrix(shader, "u_projTrans", math.NewMat4Identity()); err != nil {
		t.Fatal(err)
	}
	if err := b.TextureBind(tex, 0); err != nil {
		t.Fatal(err)
	}
	if err := b.MeshSetIndices(mesh, []uint16{0, 1, 2, 2, 3, 0}); err != nil {
		t.Fatal(err)
	}
	if err := b.MeshSetVertices(mesh, make([]float32, 20)); err != nil {
		t.Fatal(err)
	}
	if err := b.MeshRender(mesh, shader, metadata.PrimitiveTriangles, 0, 6); err != nil {
		t.Fatalf("MeshRender: %v", err)
	}
	if err := b.EndFrame(0); err != nil {
		t.Fatal(err)
	}

	renders := b.Renders()
	if len(renders) != 1 {
		t.Fatalf("got %d renders, want 1", len(renders))
	}
	if renders[0].Texture != tex || renders[0].Count != 6 {
		t.Fatalf("unexpected render %+v", renders[0])
	}
	if got := b.LastFrame(); got.DrawCalls != 1 || got.Indices != 6 || got.TextureBinds != 1 {
		t.Fatalf("unexpected frame stats %+v", got)
	}
}

func TestMeshRenderValidation(t *testing.T) {
	b := New()
	shader := newShader(t, b)
	mesh := newMesh(t, b, 4, 6)
	tex := &metadata.Texture{Name: "t", Width: 1, Height: 1, ChannelCount: 4}
	_ = b.TextureCreate(nil, tex)
	_ = b.MeshSetIndices(mesh, []uint16{0, 1, 2, 2, 3, 0})
	_ = b.MeshSetVertices(mesh, make([]float32, 20))

	tests := []struct {
		name    string
		setup   func()
		offset  int
		count   int
		wantErr error
	}{
		{"shader not in use", func() {}, 0, 6, core.ErrInvalidState},
		{"no texture", func() { _ = b.ShaderUse(shader) }, 0, 6, core.ErrNilTexture},
		{"out of range", func() { _ = b.TextureBind(tex, 0) }, 3, 6, core.ErrCapacity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			err := b.MeshRender(mesh, shader, metadata.PrimitiveTriangles, tt.offset, tt.count)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("MeshRender() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFailNext(t *testing.T) {
	b := New()
	boom := errors.New("device lost")
	b.FailNext(OpBeginFrame, boom)
	if err := b.BeginFrame(0); !errors.Is(err, boom) {
		t.Fatalf("BeginFrame() = %v, want %v", err, boom)
	}
	if err := b.BeginFrame(0); err != nil {
		t.Fatalf("second BeginFrame() = %v, want nil", err)
	}
}

func TestUniformChecks(t *testing.T) {
	b := New()
	shader := newShader(t, b)
	if err := b.SetUniformInt(shader, "u_texture", 0); !errors.Is(err, core.ErrInvalidState) {
		t.Fatalf("uniform without shader in use = %v", err)
	}
	_ = b.ShaderUse(shader)
	if err := b.SetUniformInt(shader, "u_missing", 0); err == nil {
		t.Fatal("expected error for unknown uniform")
	}
	if err := b.SetUniformInt(shader, "u_projTrans", 0); err == nil {
		t.Fatal("expected error for mismatched uniform type")
	}
	if err := b.SetUniformInt(shader, "u_texture", 0); err != nil {
		t.Fatalf("SetUniformInt: %v", err)
	}
}
