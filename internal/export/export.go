// Package export contains the contexts and helpers shared by the asset
// exporters.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/scenerc/pkg/content"
	"github.com/Faultbox/scenerc/pkg/scene"
	"github.com/Faultbox/scenerc/pkg/scene/manifest"
)

// ErrEmptyFilename is returned for paths derived from an empty or invalid
// group name.
var ErrEmptyFilename = errors.New("empty output filename")

// PreExportEventContext is dispatched once before any asset is exported.
type PreExportEventContext struct {
	Scene *scene.Scene
}

// ExportEventContext asks every exporter to write its assets for Scene.
type ExportEventContext struct {
	OutputDirectory string
	Scene           *scene.Scene
}

// PostExportEventContext is dispatched once after all assets were exported.
type PostExportEventContext struct {
	OutputDirectory string
}

// AssetWriter serializes populated content to content.Filename.
type AssetWriter interface {
	WriteCGF(c *content.CGF) error
	WriteCHR(c *content.CGF) error
	WriteSKIN(c *content.CGF) error
}

// CreateOutputFileName returns <outputDir>/<groupName>.<ext>, or "" when
// groupName is not a valid manifest entry name. The result never leaves
// outputDir.
func CreateOutputFileName(groupName, outputDir, ext string) string {
	if !manifest.IsValidName(groupName) {
		return ""
	}
	return filepath.Join(outputDir, groupName+"."+strings.TrimPrefix(ext, "."))
}

// EnsureTargetFolderExists creates the directory that will hold path.
func EnsureTargetFolderExists(path string) error {
	if path == "" {
		return ErrEmptyFilename
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output folder: %w", err)
	}
	return nil
}

// GetRelativePath returns path relative to root when path is inside root,
// otherwise path unchanged. Separators are always forward slashes.
func GetRelativePath(path, root string) string {
	if path == "" || root == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
