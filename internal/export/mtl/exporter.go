package mtl

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/scenerc/internal/export"
	"github.com/Faultbox/scenerc/pkg/scene"
	"github.com/Faultbox/scenerc/pkg/scene/data"
	"github.com/Faultbox/scenerc/pkg/scene/events"
	"github.com/Faultbox/scenerc/pkg/scene/graph"
	"github.com/Faultbox/scenerc/pkg/scene/groups"
	"github.com/Faultbox/scenerc/pkg/scene/manifest"
	"github.com/Faultbox/scenerc/pkg/scene/rules"
	"github.com/Faultbox/scenerc/pkg/scene/selection"
)

// Policy controls how an existing MTL file is merged.
type Policy struct {
	Enabled      bool // Write the file at all
	Update       bool // Overwrite textures and flags of existing materials
	RemoveUnused bool // Drop materials the scene no longer uses
}

// PolicyFor reads the policy from the group's MaterialRule. Groups without
// one write materials and keep existing entries untouched.
func PolicyFor(group groups.Group) Policy {
	rule, ok := groups.FindRule[*rules.MaterialRule](group)
	if !ok {
		return Policy{Enabled: true}
	}
	return Policy{
		Enabled:      rule.EnableMaterials,
		Update:       rule.UpdateMaterials,
		RemoveUnused: rule.RemoveUnusedMaterials,
	}
}

// BuildMaterialGroup lists the materials used by a mesh group: the physics
// material when the physics rule selects any mesh, followed by the material
// end points of every selected render mesh in selection order. Textures are
// made relative to textureRoot.
func BuildMaterialGroup(group *groups.MeshGroup, s *scene.Scene, textureRoot string) *MaterialGroup {
	g := s.GetGraph()
	result := &MaterialGroup{}

	if physRule, ok := groups.FindRule[*rules.PhysicsRule](group); ok {
		targets := selection.GenerateTargetNodes(g, physRule.GetSceneNodeSelectionList(), selection.IsMesh)
		for _, name := range targets {
			if g.Find(name).IsValid() {
				m := NewMaterial(PhysicsNoDraw)
				m.Physical = true
				result.AddMaterial(m)
				break
			}
		}
	}

	advanced, hasAdvanced := groups.FindRule[*rules.MeshAdvancedRule](group)
	targets := selection.GenerateTargetNodes(g, group.GetSceneNodeSelectionList(), selection.IsMesh)
	for _, name := range targets {
		node := g.Find(name)
		if !node.IsValid() {
			continue
		}
		for child, material := range graph.ChildContentOf[*data.MaterialData](g, node) {
			m := NewMaterial(graph.GetShortName(g.GetNodeName(child)))
			for _, slot := range textureSlots {
				m.SetTexture(slot, export.GetRelativePath(material.GetTexture(slot), textureRoot))
			}
			if hasAdvanced {
				m.UseVertexColor = !advanced.IsVertexColorStreamDisabled() && advanced.VertexColorStreamName != ""
			} else {
				m.UseVertexColor = hasColorStream(g, node)
			}
			result.AddMaterial(m)
		}
	}
	return result
}

func hasColorStream(g *graph.Graph, node graph.NodeIndex) bool {
	for range graph.ChildContentOf[*data.VertexColorData](g, node) {
		return true
	}
	return false
}

// Merge folds the used materials into the existing file contents and
// returns the group to write. Existing materials keep their position. With
// Update their textures and flags are replaced; otherwise only the vertex
// colour flag follows the scene. A stale physics material is dropped when no
// proxy is exported.
func Merge(existing, used *MaterialGroup, policy Policy) *MaterialGroup {
	if existing == nil {
		existing = &MaterialGroup{}
	}
	hasPhysical := false

	for _, m := range used.materials {
		hasPhysical = hasPhysical || m.Physical

		i := existing.FindMaterialIndex(m.Name)
		switch {
		case i != NotFound && policy.Update:
			orig := existing.materials[i]
			orig.Name = m.Name
			orig.UseVertexColor = m.UseVertexColor
			orig.Physical = m.Physical
			for _, slot := range textureSlots {
				orig.SetTexture(slot, m.GetTexture(slot))
			}
		case i != NotFound:
			existing.materials[i].UseVertexColor = m.UseVertexColor
		default:
			existing.AddMaterial(m)
		}
	}

	if !hasPhysical {
		existing.RemoveMaterial(PhysicsNoDraw)
	}
	if policy.RemoveUnused {
		for _, name := range existing.Names() {
			if used.FindMaterialIndex(name) == NotFound {
				existing.RemoveMaterial(name)
			}
		}
	}
	return existing
}

// Exporter writes one MTL file per mesh group next to the source file
// before the assets are exported.
type Exporter struct {
	events.Binder
	logger *zap.Logger
}

// NewExporter returns an exporter bound to PreExportEventContext.
func NewExporter(logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Exporter{logger: logger}
	events.Bind(&e.Binder, e.preExport)
	return e
}

func (e *Exporter) preExport(ctx *export.PreExportEventContext) events.ProcessingResult {
	s := ctx.Scene
	sourceDir := filepath.Dir(s.GetSourceFilename())

	var result events.Combiner
	for name, group := range manifest.EntriesOf[*groups.MeshGroup](s.GetManifest()) {
		result.Add(e.exportGroup(s, name, group, sourceDir))
	}
	return result.Result()
}

func (e *Exporter) exportGroup(s *scene.Scene, name string, group *groups.MeshGroup, sourceDir string) events.ProcessingResult {
	policy := PolicyFor(group)
	if !policy.Enabled {
		return events.Ignored
	}

	materials := BuildMaterialGroup(group, s, sourceDir)
	if materials.GetMaterialCount() == 0 {
		e.logger.Debug("no materials", zap.String("group", name))
		return events.Ignored
	}

	path := export.CreateOutputFileName(name, sourceDir, Extension)
	if err := export.EnsureTargetFolderExists(path); err != nil {
		e.logger.Error("material folder", zap.String("group", name), zap.Error(err))
		return events.Failure
	}

	existing := &MaterialGroup{}
	if err := existing.Read(path); err == nil {
		e.logger.Debug("updating material file", zap.String("path", path))
	} else {
		existing = nil
		e.logger.Debug("creating material file", zap.String("path", path))
	}

	merged := Merge(existing, materials, policy)
	if err := merged.Write(path); err != nil {
		e.logger.Error("write material file", zap.String("path", path), zap.Error(err))
		return events.Failure
	}
	return events.Success
}
