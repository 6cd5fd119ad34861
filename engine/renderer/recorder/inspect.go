package recorder

import "github.com/spaghettifunk/anima/engine/renderer/metadata"

// FailNext makes the next call of op return err.
func (b *Backend) FailNext(op Op, err error) {
	b.failures[op] = err
}

// Commands returns every recorded command in call order.
func (b *Backend) Commands() []Command {
	return b.commands
}

// Filter returns the recorded commands with the given op.
func (b *Backend) Filter(op Op) []Command {
	var out []Command
	for _, c := range b.commands {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Renders is shorthand for Filter(OpMeshRender).
func (b *Backend) Renders() []Command {
	return b.Filter(OpMeshRender)
}

// Reset drops the recorded commands but keeps resource state.
func (b *Backend) Reset() {
	b.commands = b.commands[:0]
}

// MeshVertices returns the vertex data currently held by mesh.
func (b *Backend) MeshVertices(mesh *metadata.Mesh) []float32 {
	if md, ok := b.meshes[mesh.ID]; ok {
		return md.vertices
	}
	return nil
}

// MeshIndices returns the index data currently held by mesh.
func (b *Backend) MeshIndices(mesh *metadata.Mesh) []uint16 {
	if md, ok := b.meshes[mesh.ID]; ok {
		return md.indices
	}
	return nil
}

func (b *Backend) BlendingEnabled() bool                     { return b.blending }
func (b *Backend) BlendState() metadata.BlendState           { return b.blend }
func (b *Backend) DepthMask() bool                           { return b.depthMask }
func (b *Backend) ActiveShader() *metadata.Shader            { return b.activeShader }
func (b *Backend) BoundTexture(unit uint32) *metadata.Texture { return b.boundTextures[unit] }
func (b *Backend) LastFrame() FrameStats                     { return b.lastFrame }
func (b *Backend) FrameNumber() uint64                       { return b.frameNumber }
func (b *Backend) Size() (uint32, uint32)                    { return b.width, b.height }
