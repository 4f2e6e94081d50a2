package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Faultbox/scenerc/internal/config"
	"github.com/Faultbox/scenerc/internal/export"
	"github.com/Faultbox/scenerc/pkg/formats"
	"github.com/Faultbox/scenerc/pkg/scene"
	"github.com/Faultbox/scenerc/pkg/scene/graph"
)

func loadScene(cfg *config.Config, source string) (*scene.Scene, error) {
	loader, err := newLoader(cfg)
	if err != nil {
		return nil, err
	}
	return loader.LoadScene(source)
}

func cmdInspect(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: scenetool inspect <source>")
	}
	s, err := loadScene(cfg, args[0])
	if err != nil {
		return err
	}

	g := s.GetGraph()
	fmt.Printf("Scene:    %s\n", s.GetName())
	fmt.Printf("Source:   %s\n", s.GetSourceFilename())
	fmt.Printf("Manifest: %s\n", s.GetManifestFilename())
	fmt.Printf("Nodes:    %d\n", g.GetNodeCount())
	fmt.Println()

	for node := range g.DepthFirst() {
		if node == g.Root() {
			continue
		}
		depth := -1
		for range g.Upwards(node) {
			depth++
		}
		line := strings.Repeat("  ", depth-1) + graph.GetShortName(g.GetNodeName(node))
		if content := g.GetNodeContent(node); content != nil {
			line += " [" + content.TypeName() + "]"
		}
		if g.IsNodeEndPoint(node) {
			line += " *"
		}
		fmt.Println(line)
	}

	fmt.Println()
	m := s.GetManifest()
	if m.IsEmpty() {
		fmt.Println("Manifest: (empty)")
		return nil
	}
	fmt.Println("Manifest entries:")
	for name, object := range m.Entries() {
		fmt.Printf("  %-20s %s\n", name, object.TypeName())
	}
	return nil
}

func cmdDot(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: scenetool dot <source> [output.dot]")
	}
	s, err := loadScene(cfg, args[0])
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return (export.DotExporter{}).Write(os.Stdout, s)
	}

	f, err := os.Create(args[1])
	if err != nil {
		return err
	}
	if err := (export.DotExporter{}).Write(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func cmdManifest(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("manifest", flag.ExitOnError)
	write := fs.Bool("write", false, "Save the manifest next to the source")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: scenetool manifest [-write] <source>")
	}
	s, err := loadScene(cfg, fs.Arg(0))
	if err != nil {
		return err
	}
	if *write {
		if err := s.GetManifest().Save(s.GetManifestFilename()); err != nil {
			return err
		}
		fmt.Printf("Written: %s\n", s.GetManifestFilename())
		return nil
	}
	return s.GetManifest().Encode(os.Stdout)
}

func cmdChunks(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: scenetool chunks <file>")
	}
	f, err := formats.ParseChunkFile(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("File:    %s\n", args[0])
	fmt.Printf("Type:    %s\n", f.Type)
	fmt.Printf("Version: %s\n", f.Version)
	fmt.Printf("Chunks:  %d\n", len(f.Chunks))
	fmt.Println()
	for _, c := range f.Chunks {
		fmt.Printf("  #%-4d %-16s v0x%04x  offset %-8d size %d\n", c.ID, c.Type, c.Version, c.Offset, c.Size)
	}

	cgf := f.Content
	if cgf == nil {
		return nil
	}
	if cgf.GetNodeCount() > 0 {
		fmt.Println()
		fmt.Println("Nodes:")
		for _, node := range cgf.Nodes() {
			line := fmt.Sprintf("  %-24s %s", node.Name, node.Type)
			if node.Mesh != nil {
				line += fmt.Sprintf("  %d vertices, %d faces", node.Mesh.GetVertexCount(), node.Mesh.GetFaceCount())
			}
			fmt.Println(line)
		}
	}
	if bones := cgf.SkinningInfo.BoneDescs; len(bones) > 0 {
		fmt.Println()
		fmt.Println("Bones:")
		for _, bone := range bones {
			fmt.Printf("  %-24s controller 0x%08x\n", bone.Name, bone.ControllerID)
		}
	}
	return nil
}
