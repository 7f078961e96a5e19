package model_test

import (
	"strings"
	"testing"

	"github.com/devblok/pinch/model"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quadDocument = `<?xml version="1.0" encoding="utf-8"?>
<COLLADA xmlns="http://www.collada.org/2005/11/COLLADASchema" version="1.4.1">
  <library_geometries>
    <geometry id="Quad-mesh" name="Quad">
      <mesh>
        <source id="Quad-mesh-positions">
          <float_array id="Quad-mesh-positions-array" count="12">-1 -1 0 1 -1 0 -1 1 0 1 1 0</float_array>
          <technique_common>
            <accessor source="#Quad-mesh-positions-array" count="4" stride="3"/>
          </technique_common>
        </source>
        <source id="Quad-mesh-map-0">
          <float_array id="Quad-mesh-map-0-array" count="8">0 0 1 0 0 1 1 1</float_array>
          <technique_common>
            <accessor source="#Quad-mesh-map-0-array" count="4" stride="2"/>
          </technique_common>
        </source>
        <vertices id="Quad-mesh-vertices">
          <input semantic="POSITION" source="#Quad-mesh-positions"/>
        </vertices>
        <triangles count="2">
          <input semantic="VERTEX" source="#Quad-mesh-vertices" offset="0"/>
          <input semantic="TEXCOORD" source="#Quad-mesh-map-0" offset="1" set="0"/>
          <p>1 1 3 3 2 2  1 1 2 2 0 0</p>
        </triangles>
      </mesh>
    </geometry>
  </library_geometries>
</COLLADA>`

func TestImportCollada(t *testing.T) {
	mesh, err := model.ImportColladaObject([]byte(quadDocument))
	require.NoError(t, err)
	assert.Equal(t, "Quad", mesh.Name())

	vertices := mesh.Vertices()
	require.Len(t, vertices, 6)
	assert.Equal(t, model.Vertex{Pos: glm.Vec3{1, -1, 0}, TexCoord: glm.Vec2{1, 0}}, vertices[0])
	assert.Equal(t, model.Vertex{Pos: glm.Vec3{1, 1, 0}, TexCoord: glm.Vec2{1, 1}}, vertices[1])
	assert.Equal(t, model.Vertex{Pos: glm.Vec3{-1, 1, 0}, TexCoord: glm.Vec2{0, 1}}, vertices[2])
	assert.Equal(t, model.Vertex{Pos: glm.Vec3{-1, -1, 0}, TexCoord: glm.Vec2{0, 0}}, vertices[5])
}

func TestImportColladaErrors(t *testing.T) {
	_, err := model.ImportColladaObject([]byte(`<COLLADA></COLLADA>`))
	assert.Equal(t, model.ErrNoGeometry, errors.Cause(err))

	_, err = model.ImportColladaObject([]byte(`<COLLADA`))
	assert.Error(t, err)

	outOfRange := `<COLLADA><library_geometries><geometry id="g"><mesh>
		<source id="g-positions"><float_array id="a">0 0 0</float_array></source>
		<triangles count="1"><input semantic="VERTEX" source="#g-vertices" offset="0"/><p>0 1 0</p></triangles>
	</mesh></geometry></library_geometries></COLLADA>`
	_, err = model.ImportColladaObject([]byte(outOfRange))
	assert.Equal(t, model.ErrIndexRange, errors.Cause(err))
}

func TestImportColladaStride(t *testing.T) {
	for _, stride := range []string{"0", "-3"} {
		doc := strings.Replace(quadDocument, `count="4" stride="3"`, `count="4" stride="`+stride+`"`, 1)
		mesh, err := model.ImportColladaObject([]byte(doc))
		require.NoError(t, err, "stride %s", stride)
		assert.Equal(t, model.Vertex{Pos: glm.Vec3{1, -1, 0}, TexCoord: glm.Vec2{1, 0}}, mesh.Vertices()[0])
	}

	// large strides must not wrap around onto valid data
	for _, stride := range []string{"6", "4611686018427387904"} {
		doc := strings.Replace(quadDocument, `count="4" stride="3"`, `count="4" stride="`+stride+`"`, 1)
		_, err := model.ImportColladaObject([]byte(doc))
		assert.Equal(t, model.ErrIndexRange, errors.Cause(err), "stride %s", stride)
	}
}
