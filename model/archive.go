package model

import (
	"bytes"
	"strings"

	"github.com/devblok/pinch/utility/kar"
)

// MeshPrefix and MeshSuffix frame the archive name of a packed mesh
const (
	MeshPrefix = "meshes/"
	MeshSuffix = ".vtx"
)

// MeshEntryName returns the archive name a mesh is stored under
func MeshEntryName(name string) string {
	return MeshPrefix + name + MeshSuffix
}

// MeshName is the inverse of MeshEntryName. The second return is false
// for entries that are not meshes.
func MeshName(entry string) (string, bool) {
	if !strings.HasPrefix(entry, MeshPrefix) || !strings.HasSuffix(entry, MeshSuffix) {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(entry, MeshPrefix), MeshSuffix), true
}

// PackMesh adds the mesh's vertex buffer to the archive builder
func PackMesh(b *kar.Builder, m *Mesh) error {
	return b.Add(MeshEntryName(m.Name()), bytes.NewReader(m.Bytes()))
}

// LoadMesh reads a vertex buffer packed with PackMesh back into a Mesh
func LoadMesh(ar *kar.Archive, name string) (*Mesh, error) {
	data, err := ar.ReadAll(MeshEntryName(name))
	if err != nil {
		return nil, err
	}
	vertices, err := DecodeVertices(data)
	if err != nil {
		return nil, err
	}
	return NewMesh(name, vertices), nil
}
