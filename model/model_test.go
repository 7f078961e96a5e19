package model_test

import (
	"math"
	"testing"
	"unsafe"

	"github.com/devblok/pinch/model"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestUniformLayout(t *testing.T) {
	var u model.Uniform
	assert.EqualValues(t, 192, unsafe.Sizeof(u))
	assert.EqualValues(t, model.UniformSize, unsafe.Sizeof(u))
	assert.EqualValues(t, 0, unsafe.Offsetof(u.Model))
	assert.EqualValues(t, 64, unsafe.Offsetof(u.View))
	assert.EqualValues(t, 128, unsafe.Offsetof(u.Projection))
	assert.EqualValues(t, model.MatrixSize, unsafe.Sizeof(u.Model))
}

func TestVertexLayout(t *testing.T) {
	var v model.Vertex
	assert.EqualValues(t, 20, unsafe.Sizeof(v))
	assert.EqualValues(t, 0, unsafe.Offsetof(v.Pos))
	assert.EqualValues(t, 12, unsafe.Offsetof(v.TexCoord))
	assert.EqualValues(t, 12, unsafe.Sizeof(v.Pos))
	assert.EqualValues(t, 8, unsafe.Sizeof(v.TexCoord))

	// arrays must not pad between vertices
	vertices := make([]model.Vertex, 2)
	stride := uintptr(unsafe.Pointer(&vertices[1])) - uintptr(unsafe.Pointer(&vertices[0]))
	assert.EqualValues(t, model.VertexSize, stride)
}

func sequentialUniform() model.Uniform {
	var u model.Uniform
	for idx := 0; idx < 16; idx++ {
		u.Model[idx] = float32(idx)
		u.View[idx] = float32(100 + idx)
		u.Projection[idx] = float32(200 + idx)
	}
	return u
}

func TestUniformBytesMatchMemory(t *testing.T) {
	u := sequentialUniform()
	raw := (*[model.UniformSize]byte)(unsafe.Pointer(&u))[:]

	// little-endian hosts store floats exactly as the upload image does
	var word uint16 = 1
	if *(*byte)(unsafe.Pointer(&word)) == 1 {
		assert.Equal(t, raw, u.Bytes())
	}

	data := u.Bytes()
	require.Len(t, data, model.UniformSize)
	first := math.Float32frombits(uint32(data[model.ViewOffset]) | uint32(data[model.ViewOffset+1])<<8 |
		uint32(data[model.ViewOffset+2])<<16 | uint32(data[model.ViewOffset+3])<<24)
	assert.Equal(t, float32(100), first)
}

func TestUniformRoundTrip(t *testing.T) {
	u := sequentialUniform()
	u.Model[3] = float32(math.NaN())
	u.View[7] = float32(math.Inf(-1))
	nanBits := math.Float32bits(u.Model[3])

	var decoded model.Uniform
	require.NoError(t, decoded.Decode(u.Bytes()))
	assert.Equal(t, nanBits, math.Float32bits(decoded.Model[3]))
	assert.True(t, math.IsInf(float64(decoded.View[7]), -1))
	for idx := 0; idx < 16; idx++ {
		if idx == 3 {
			continue
		}
		assert.Equal(t, math.Float32bits(u.Model[idx]), math.Float32bits(decoded.Model[idx]))
		assert.Equal(t, math.Float32bits(u.Projection[idx]), math.Float32bits(decoded.Projection[idx]))
	}
}

func TestUniformDecodeShort(t *testing.T) {
	var u model.Uniform
	err := u.Decode(make([]byte, model.UniformSize-1))
	assert.Equal(t, model.ErrShortBuffer, errors.Cause(err))
}

func TestIdentityUniform(t *testing.T) {
	u := model.IdentityUniform()
	assert.Equal(t, glm.Ident4(), u.Model)
	assert.Equal(t, glm.Ident4(), u.View)
	assert.Equal(t, glm.Ident4(), u.Projection)
}

func TestVertexRoundTrip(t *testing.T) {
	v := model.Vertex{
		Pos:      glm.Vec3{1.5, -2.25, 3},
		TexCoord: glm.Vec2{0.125, 1},
	}
	data := v.Bytes()
	require.Len(t, data, model.VertexSize)

	var decoded model.Vertex
	require.NoError(t, decoded.Decode(data))
	assert.Equal(t, v, decoded)

	// texture coordinate starts right after the position
	var uv model.Vertex
	require.NoError(t, uv.Decode(append(make([]byte, model.PositionSize), data[model.TexCoordOffset:]...)))
	assert.Equal(t, v.TexCoord, uv.TexCoord)
	assert.Equal(t, glm.Vec3{}, uv.Pos)
}

func TestVerticesRoundTrip(t *testing.T) {
	plane := model.NewPlane(glm.Vec2{2, 4}, glm.Vec3{0, 0, 0.5})
	data := model.EncodeVertices(plane.Vertices())
	assert.Len(t, data, 6*model.VertexSize)
	assert.Equal(t, data, plane.Bytes())

	decoded, err := model.DecodeVertices(data)
	require.NoError(t, err)
	assert.Equal(t, plane.Vertices(), decoded)

	_, err = model.DecodeVertices(data[:len(data)-1])
	assert.Equal(t, model.ErrStride, errors.Cause(err))

	empty, err := model.DecodeVertices(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestVertexDescriptors(t *testing.T) {
	bindings := model.VertexBindingDescriptions()
	require.Len(t, bindings, 1)
	assert.EqualValues(t, model.VertexSize, bindings[0].Stride)
	assert.Equal(t, vk.VertexInputRateVertex, bindings[0].InputRate)

	attributes := model.VertexAttributeDescriptions()
	require.Len(t, attributes, 2)
	assert.EqualValues(t, model.PositionLocation, attributes[0].Location)
	assert.Equal(t, vk.FormatR32g32b32Sfloat, attributes[0].Format)
	assert.EqualValues(t, model.PositionOffset, attributes[0].Offset)
	assert.EqualValues(t, model.TexCoordLocation, attributes[1].Location)
	assert.Equal(t, vk.FormatR32g32Sfloat, attributes[1].Format)
	assert.EqualValues(t, model.TexCoordOffset, attributes[1].Offset)

	assert.EqualValues(t, model.UniformSize, model.UniformBufferSize())
}

func TestPlane(t *testing.T) {
	plane := model.NewPlane(glm.Vec2{0.5, 0.5}, glm.Vec3{1, 2, 3})
	assert.Equal(t, "Plane", plane.Name())

	vertices := plane.Vertices()
	require.Len(t, vertices, 6)
	assert.Equal(t, glm.Vec3{-0.25, 0.25, 3}, vertices[0].Pos)
	assert.Equal(t, glm.Vec2{0, 1}, vertices[0].TexCoord)
	assert.Equal(t, glm.Vec3{0.25, -0.25, 3}, vertices[3].Pos)
	assert.Equal(t, glm.Vec2{1, 0}, vertices[3].TexCoord)
	assert.Equal(t, vertices[1], vertices[4])
	assert.Equal(t, vertices[2], vertices[5])

	assert.Equal(t, glm.Translate3D(1, 2, 3), plane.ModelMatrix())
}

func TestMeshTransform(t *testing.T) {
	mesh := model.NewMesh("m", nil)
	assert.Equal(t, glm.Ident4(), mesh.ModelMatrix())

	rot := glm.HomogRotate3DZ(math.Pi / 2)
	mesh.SetRotation(rot)
	mesh.SetPosition(glm.Translate3D(1, 0, 0))
	assert.Equal(t, rot, mesh.Rotation())
	assert.Equal(t, glm.Translate3D(1, 0, 0), mesh.Position())
	assert.Equal(t, glm.Translate3D(1, 0, 0).Mul4(rot), mesh.ModelMatrix())
}
