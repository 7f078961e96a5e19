package model

import (
	"sync"

	glm "github.com/go-gl/mathgl/mgl32"
)

// NewMesh creates a mesh from an ordered list of vertices.
// Position and rotation start as identity.
func NewMesh(name string, vertices []Vertex) *Mesh {
	return &Mesh{
		name:     name,
		position: glm.Ident4(),
		rotation: glm.Ident4(),
		vertices: vertices,
	}
}

// Mesh is a named vertex list held in memory. Vertices are
// not modified once the mesh is created.
type Mesh struct {
	name string

	mutex    sync.RWMutex
	position glm.Mat4
	rotation glm.Mat4

	vertices []Vertex
}

var _ Object = (*Mesh)(nil)

// Name returns the name the mesh was created with
func (m *Mesh) Name() string {
	return m.name
}

// SetPosition implements interface
func (m *Mesh) SetPosition(pos glm.Mat4) {
	m.mutex.Lock()
	m.position = pos
	m.mutex.Unlock()
}

// Position implements interface
func (m *Mesh) Position() glm.Mat4 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.position
}

// SetRotation implements interface
func (m *Mesh) SetRotation(rot glm.Mat4) {
	m.mutex.Lock()
	m.rotation = rot
	m.mutex.Unlock()
}

// Rotation implements interface
func (m *Mesh) Rotation() glm.Mat4 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.rotation
}

// ModelMatrix combines position and rotation into the
// matrix that goes into Uniform.Model
func (m *Mesh) ModelMatrix() glm.Mat4 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.position.Mul4(m.rotation)
}

// Vertices implements interface
func (m *Mesh) Vertices() []Vertex {
	return m.vertices
}

// Bytes returns the vertex buffer image of the mesh
func (m *Mesh) Bytes() []byte {
	return EncodeVertices(m.vertices)
}

// NewPlane builds a textured quad of the given extent, centered on center,
// out of two triangles. Vertices sit at depth center.Z around the origin,
// and the mesh position translates them to center.
func NewPlane(extent glm.Vec2, center glm.Vec3) *Mesh {
	halfWidth := extent.X() / 2
	halfHeight := extent.Y() / 2
	z := center.Z()

	vertices := []Vertex{
		{Pos: glm.Vec3{-halfWidth, halfHeight, z}, TexCoord: glm.Vec2{0, 1}},
		{Pos: glm.Vec3{-halfWidth, -halfHeight, z}, TexCoord: glm.Vec2{0, 0}},
		{Pos: glm.Vec3{halfWidth, halfHeight, z}, TexCoord: glm.Vec2{1, 1}},
		{Pos: glm.Vec3{halfWidth, -halfHeight, z}, TexCoord: glm.Vec2{1, 0}},
		{Pos: glm.Vec3{-halfWidth, -halfHeight, z}, TexCoord: glm.Vec2{0, 0}},
		{Pos: glm.Vec3{halfWidth, halfHeight, z}, TexCoord: glm.Vec2{1, 1}},
	}

	plane := NewMesh("Plane", vertices)
	plane.SetPosition(glm.Translate3D(center.X(), center.Y(), center.Z()))
	return plane
}
