package model

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/devblok/pinch/util/collada"
	"github.com/pkg/errors"
)

// Collada semantics the importer understands
const (
	semanticVertex   = "VERTEX"
	semanticPosition = "POSITION"
	semanticTexCoord = "TEXCOORD"
)

// package errors
var (
	ErrNoGeometry = errors.New("collada document has no geometry")
	ErrNoSource   = errors.New("source type not found")
	ErrIndexRange = errors.New("collada index out of range")
)

// ImportColladaObject reads given file and converts the first Collada
// geometry to a Mesh. Triangles are expanded, one Vertex per index tuple.
// Texture coordinates are zero when the geometry has none.
func ImportColladaObject(fileContents []byte) (*Mesh, error) {
	var colladaModel collada.Collada
	if err := xml.Unmarshal(fileContents, &colladaModel); err != nil {
		return nil, errors.Wrap(err, "decode collada")
	}
	if len(colladaModel.Geometries) == 0 {
		return nil, ErrNoGeometry
	}

	geometry := colladaModel.Geometries[0]
	mesh := geometry.Mesh
	positions, err := positionSource(mesh)
	if err != nil {
		return nil, err
	}

	triangles := mesh.Triangles
	stride := triangles.Stride()
	vertexInput, ok := triangles.Input(semanticVertex)
	if !ok || stride == 0 {
		return nil, errors.Wrap(ErrNoSource, "triangles have no VERTEX input")
	}

	var (
		texCoords   collada.Source
		texInput    collada.Input
		hasTexCoord bool
	)
	if texInput, hasTexCoord = triangles.Input(semanticTexCoord); hasTexCoord {
		if texCoords, hasTexCoord = mesh.SourceByRef(texInput.Source); !hasTexCoord {
			return nil, errors.Wrapf(ErrNoSource, "texcoord source %s", texInput.Source)
		}
	}

	var vertices []Vertex
	for idx := 0; idx < len(triangles.Index)/stride; idx++ {
		indices := triangles.Index[stride*idx : (stride*idx)+stride]

		var vert Vertex
		pos, err := floatsAt(positions, indices[vertexInput.Offset], 3)
		if err != nil {
			return nil, err
		}
		copy(vert.Pos[:], pos)

		if hasTexCoord {
			uv, err := floatsAt(texCoords, indices[texInput.Offset], 2)
			if err != nil {
				return nil, err
			}
			copy(vert.TexCoord[:], uv)
		}
		vertices = append(vertices, vert)
	}

	name := geometry.Name
	if name == "" {
		name = geometry.ID
	}
	return NewMesh(name, vertices), nil
}

// positionSource follows <vertices> to its POSITION source, falling back to
// the "-positions" id suffix exporters commonly use
func positionSource(mesh collada.Mesh) (collada.Source, error) {
	if in, ok := mesh.Vertices.Input(semanticPosition); ok {
		if s, ok := mesh.SourceByRef(in.Source); ok {
			return s, nil
		}
	}
	return findSource(mesh.Source, "positions")
}

// floatsAt returns the count floats of element idx, honoring the accessor stride
func floatsAt(source collada.Source, idx int, count int) ([]float32, error) {
	stride := source.Accessor.Stride
	if stride <= 0 {
		stride = count
	}
	n := len(source.Floats.Data)
	if idx < 0 || count > n || idx > (n-count)/stride {
		return nil, errors.Wrapf(ErrIndexRange, "%s[%d]", source.ID, idx)
	}
	start := idx * stride
	return source.Floats.Data[start : start+count], nil
}

func findSource(sources []collada.Source, dataType string) (collada.Source, error) {
	for _, s := range sources {
		if strings.HasSuffix(s.ID, fmt.Sprintf("-%s", dataType)) {
			return s, nil
		}
	}
	return collada.Source{}, errors.Wrap(ErrNoSource, dataType)
}
