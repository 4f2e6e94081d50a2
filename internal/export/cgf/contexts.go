// Package cgf exports mesh groups as static geometry files.
//
// Exporting a group walks a chain of contexts, each dispatched once per
// phase: the group, the file container, every exported node and the mesh of
// mesh nodes. Each context embeds its parent, so a handler of a nested
// context can reach the scene, the group and the container.
package cgf

import (
	"github.com/Faultbox/scenerc/internal/export"
	"github.com/Faultbox/scenerc/pkg/content"
	"github.com/Faultbox/scenerc/pkg/scene/events"
	"github.com/Faultbox/scenerc/pkg/scene/graph"
	"github.com/Faultbox/scenerc/pkg/scene/groups"
)

// Extension is the file extension of exported static meshes.
const Extension = "cgf"

// MeshGroupExportContext carries one mesh group of the exported scene.
type MeshGroupExportContext struct {
	export.ExportEventContext
	events.PhaseTag

	GroupName string
	Group     *groups.MeshGroup
}

// NewMeshGroupExportContext returns the context of group in the given phase.
func NewMeshGroupExportContext(parent *export.ExportEventContext, groupName string, group *groups.MeshGroup, phase events.Phase) *MeshGroupExportContext {
	return &MeshGroupExportContext{
		ExportEventContext: *parent,
		PhaseTag:           events.Tag(phase),
		GroupName:          groupName,
		Group:              group,
	}
}

// ContainerExportContext carries the content being filled for a group.
type ContainerExportContext struct {
	MeshGroupExportContext

	Container *content.CGF
}

// NewContainerExportContext returns the container context of a group.
func NewContainerExportContext(parent *MeshGroupExportContext, container *content.CGF, phase events.Phase) *ContainerExportContext {
	ctx := &ContainerExportContext{
		MeshGroupExportContext: *parent,
		Container:              container,
	}
	ctx.SetPhase(phase)
	return ctx
}

// NodeExportContext carries one exported node and the scene node it is built
// from.
type NodeExportContext struct {
	ContainerExportContext

	Node            *content.Node
	NodeName        string
	NodeIndex       graph.NodeIndex
	PhysicalizeType content.PhysicalizeType
}

// NewNodeExportContext returns the context of one node of the container.
func NewNodeExportContext(parent *ContainerExportContext, node *content.Node, nodeName string, index graph.NodeIndex, physicalize content.PhysicalizeType, phase events.Phase) *NodeExportContext {
	ctx := &NodeExportContext{
		ContainerExportContext: *parent,
		Node:                   node,
		NodeName:               nodeName,
		NodeIndex:              index,
		PhysicalizeType:        physicalize,
	}
	ctx.SetPhase(phase)
	return ctx
}

// MeshNodeExportContext carries the mesh of a mesh node.
type MeshNodeExportContext struct {
	NodeExportContext

	Mesh *content.Mesh
}

// NewMeshNodeExportContext returns the mesh context of a node.
func NewMeshNodeExportContext(parent *NodeExportContext, mesh *content.Mesh, phase events.Phase) *MeshNodeExportContext {
	ctx := &MeshNodeExportContext{
		NodeExportContext: *parent,
		Mesh:              mesh,
	}
	ctx.SetPhase(phase)
	return ctx
}
