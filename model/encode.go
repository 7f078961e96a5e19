package model

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// package errors
var (
	ErrShortBuffer = errors.New("buffer too small for record")
	ErrStride      = errors.New("vertex buffer length is not a multiple of the vertex stride")
)

var byteOrder = binary.LittleEndian

func putFloats(dst []byte, src []float32) {
	for idx, f := range src {
		byteOrder.PutUint32(dst[idx*FloatSize:], math.Float32bits(f))
	}
}

func getFloats(dst []float32, src []byte) {
	for idx := range dst {
		dst[idx] = math.Float32frombits(byteOrder.Uint32(src[idx*FloatSize:]))
	}
}

// Bytes returns the upload image of the uniform block: Model, View and
// Projection back to back, each column-major.
func (u Uniform) Bytes() []byte {
	data := make([]byte, UniformSize)
	u.PutBytes(data)
	return data
}

// PutBytes writes the upload image into dst, which has to hold
// at least UniformSize bytes.
func (u Uniform) PutBytes(dst []byte) {
	putFloats(dst[ModelOffset:], u.Model[:])
	putFloats(dst[ViewOffset:], u.View[:])
	putFloats(dst[ProjectionOffset:], u.Projection[:])
}

// Decode reads a uniform block from its upload image
func (u *Uniform) Decode(data []byte) error {
	if len(data) < UniformSize {
		return errors.Wrapf(ErrShortBuffer, "uniform needs %d bytes, got %d", UniformSize, len(data))
	}
	getFloats(u.Model[:], data[ModelOffset:])
	getFloats(u.View[:], data[ViewOffset:])
	getFloats(u.Projection[:], data[ProjectionOffset:])
	return nil
}

// Bytes returns the vertex as it sits in a vertex buffer
func (v Vertex) Bytes() []byte {
	data := make([]byte, VertexSize)
	v.PutBytes(data)
	return data
}

// PutBytes writes the vertex into dst, which has to hold
// at least VertexSize bytes.
func (v Vertex) PutBytes(dst []byte) {
	putFloats(dst[PositionOffset:], v.Pos[:])
	putFloats(dst[TexCoordOffset:], v.TexCoord[:])
}

// Decode reads a vertex from its buffer representation
func (v *Vertex) Decode(data []byte) error {
	if len(data) < VertexSize {
		return errors.Wrapf(ErrShortBuffer, "vertex needs %d bytes, got %d", VertexSize, len(data))
	}
	getFloats(v.Pos[:], data[PositionOffset:])
	getFloats(v.TexCoord[:], data[TexCoordOffset:])
	return nil
}

// EncodeVertices packs vertices at VertexSize stride, in order.
// Vertex order defines the mesh's index space.
func EncodeVertices(vertices []Vertex) []byte {
	data := make([]byte, len(vertices)*VertexSize)
	for idx, v := range vertices {
		v.PutBytes(data[idx*VertexSize:])
	}
	return data
}

// DecodeVertices unpacks a vertex buffer produced by EncodeVertices
func DecodeVertices(data []byte) ([]Vertex, error) {
	if len(data)%VertexSize != 0 {
		return nil, errors.Wrapf(ErrStride, "length %d", len(data))
	}
	vertices := make([]Vertex, len(data)/VertexSize)
	for idx := range vertices {
		if err := vertices[idx].Decode(data[idx*VertexSize:]); err != nil {
			return nil, err
		}
	}
	return vertices, nil
}
