package data

// Link binds a vertex to a bone.
type Link struct {
	BoneID int
	Weight float32
}

// SkinWeightData stores per-vertex bone links. Bone ids are assigned in the
// order bone names are first seen, starting at 0.
type SkinWeightData struct {
	links     [][]Link
	boneIDs   map[string]int
	boneNames []string
}

// TypeName implements graph.Content.
func (*SkinWeightData) TypeName() string { return "SkinWeightData" }

// GetVertexCount returns the number of vertices with link storage.
func (s *SkinWeightData) GetVertexCount() int {
	return len(s.links)
}

// ResizeContainerSpace makes room for size vertices.
func (s *SkinWeightData) ResizeContainerSpace(size int) {
	if size <= len(s.links) {
		s.links = s.links[:size]
		return
	}
	s.links = append(s.links, make([][]Link, size-len(s.links))...)
}

// AppendLink adds a link to vertex, growing the storage when needed.
func (s *SkinWeightData) AppendLink(vertex int, link Link) {
	if vertex >= len(s.links) {
		s.ResizeContainerSpace(vertex + 1)
	}
	s.links[vertex] = append(s.links[vertex], link)
}

// GetLinkCount returns the number of links of vertex.
func (s *SkinWeightData) GetLinkCount(vertex int) int {
	if vertex < 0 || vertex >= len(s.links) {
		return 0
	}
	return len(s.links[vertex])
}

// GetLink returns link i of vertex.
func (s *SkinWeightData) GetLink(vertex, i int) Link {
	return s.links[vertex][i]
}

// GetBoneId returns the id of boneName, assigning the next id on first use.
func (s *SkinWeightData) GetBoneId(boneName string) int {
	if id, ok := s.boneIDs[boneName]; ok {
		return id
	}
	if s.boneIDs == nil {
		s.boneIDs = make(map[string]int)
	}
	id := len(s.boneNames)
	s.boneIDs[boneName] = id
	s.boneNames = append(s.boneNames, boneName)
	return id
}

// GetBoneName returns the name registered for id, or "".
func (s *SkinWeightData) GetBoneName(id int) string {
	if id < 0 || id >= len(s.boneNames) {
		return ""
	}
	return s.boneNames[id]
}

// GetBoneCount returns the number of distinct bones.
func (s *SkinWeightData) GetBoneCount() int {
	return len(s.boneNames)
}
