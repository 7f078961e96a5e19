// Package model declares the records shared byte-for-byte between host code
// and the shaders: the per-frame Uniform block and the per-vertex Vertex.
// Field order, count and width are the contract, the GPU reads these by
// offset and stride, never by name.
package model

import (
	glm "github.com/go-gl/mathgl/mgl32"
)

// Layout sizes and offsets, in bytes
const (
	FloatSize  = 4
	MatrixSize = 16 * FloatSize

	ModelOffset      = 0
	ViewOffset       = ModelOffset + MatrixSize
	ProjectionOffset = ViewOffset + MatrixSize
	UniformSize      = ProjectionOffset + MatrixSize

	PositionSize   = 3 * FloatSize
	TexCoordSize   = 2 * FloatSize
	PositionOffset = 0
	TexCoordOffset = PositionOffset + PositionSize
	VertexSize     = TexCoordOffset + TexCoordSize
)

// Object represents the engine supported model
type Object interface {

	// SetPosition sets the object's current position in space.
	// Has to be thread-safe
	SetPosition(glm.Mat4)

	// Position gets the object's current position in space.
	// Has to be thread-safe
	Position() glm.Mat4

	// SetRotation sets the object's rotation matrix.
	// Has to be thread-safe
	SetRotation(glm.Mat4)

	// Rotation gets the object's rotation matrix.
	// Has to be thread-safe
	Rotation() glm.Mat4

	// Vertices returns the vertices for Renderer use,
	// so it has to match the descriptors exactly
	Vertices() []Vertex
}

// Vertex is a model vertex: object-space position followed by
// normalized texture coordinates.
type Vertex struct {
	Pos      glm.Vec3
	TexCoord glm.Vec2
}

// Uniform defines a model-view-projection object.
// Matrices are column-major.
type Uniform struct {
	Model      glm.Mat4
	View       glm.Mat4
	Projection glm.Mat4
}

// IdentityUniform returns a Uniform with all three matrices set to identity
func IdentityUniform() Uniform {
	return Uniform{
		Model:      glm.Ident4(),
		View:       glm.Ident4(),
		Projection: glm.Ident4(),
	}
}
