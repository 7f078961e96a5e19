package model

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// Shader-side locations of the vertex attributes
const (
	PositionLocation = 0
	TexCoordLocation = 1
)

// VertexBindingDescriptions return Vulkan Vertex descriptors
func VertexBindingDescriptions() []vk.VertexInputBindingDescription {
	return []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    uint32(unsafe.Sizeof(Vertex{})),
		InputRate: vk.VertexInputRateVertex,
	}}
}

// VertexAttributeDescriptions return Vulkan attribute descriptors
func VertexAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: PositionLocation,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Pos)),
		},
		{
			Binding:  0,
			Location: TexCoordLocation,
			Format:   vk.FormatR32g32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.TexCoord)),
		},
	}
}

// UniformBufferSize is the size a uniform buffer holding
// one Uniform has to be created with
func UniformBufferSize() vk.DeviceSize {
	return vk.DeviceSize(unsafe.Sizeof(Uniform{}))
}
