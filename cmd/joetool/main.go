// joetool is a CLI utility for JOE models and JPK asset packs.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/openrally/joekit/internal/assets"
	"github.com/openrally/joekit/internal/config"
	"github.com/openrally/joekit/internal/engine/model"
	"github.com/openrally/joekit/internal/logger"
	"github.com/openrally/joekit/pkg/formats"
	"github.com/openrally/joekit/pkg/pack"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	rest := args[1:]

	switch command {
	case "info":
		cmdInfo(rest)
	case "list", "ls":
		cmdList(rest)
	case "extract", "x":
		cmdExtract(rest)
	case "create", "c":
		cmdCreate(rest)
	case "inspect":
		cmdInspect(cfg, rest)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`joetool - JOE model and JPK pack utility

Usage:
  joetool [global flags] <command> [options]

Commands:
  info <file.jpk>                    Show pack information
  list <file.jpk> [pattern]          List entries (optional glob pattern)
  extract <file.jpk> <path> [output] Extract entry/entries to directory
  create <file.jpk> <files...>       Build a pack from files
  inspect <model.joe>                Parse, weld and summarize a model

Global flags:
  -config <path>   Config file
  -pack <file.jpk> Search this pack before the filesystem
  -scale <f>       Override model vertex scale
  -debug           Debug logging

Examples:
  joetool info data.jpk
  joetool list data.jpk "*.joe"
  joetool create data.jpk models/car.joe models/tire.joe
  joetool -pack data.jpk inspect models/car.joe`)
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: joetool info <file.jpk>")
		os.Exit(1)
	}

	archive, err := pack.Open(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer archive.Close()

	entries := archive.List()

	extCount := make(map[string]int)
	for _, name := range entries {
		ext := strings.ToLower(filepath.Ext(name))
		if ext == "" {
			ext = "(no ext)"
		}
		extCount[ext]++
	}

	fmt.Printf("Pack:    %s\n", args[0])
	fmt.Printf("Entries: %d\n", len(entries))
	fmt.Println()
	fmt.Println("Entries by type:")

	type extStat struct {
		ext   string
		count int
	}
	var stats []extStat
	for ext, count := range extCount {
		stats = append(stats, extStat{ext, count})
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].count > stats[j].count
	})

	for _, s := range stats {
		fmt.Printf("  %-10s %d\n", s.ext, s.count)
	}
}

func cmdList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	limit := fs.Int("n", 0, "Limit output to N entries (0 = all)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: joetool list <file.jpk> [pattern]")
		os.Exit(1)
	}

	archive, err := pack.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer archive.Close()

	entries := archive.List()
	sort.Strings(entries)

	pattern := ""
	if fs.NArg() > 1 {
		pattern = strings.ToLower(fs.Arg(1))
	}

	count := 0
	for _, name := range entries {
		if pattern != "" {
			matched, _ := filepath.Match(pattern, filepath.Base(name))
			if !matched && !strings.Contains(name, pattern) {
				continue
			}
		}
		fmt.Println(name)
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}

	if pattern != "" {
		fmt.Fprintf(os.Stderr, "\n(%d entries matched)\n", count)
	}
}

func cmdExtract(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: joetool extract <file.jpk> <path> [output_dir]")
		os.Exit(1)
	}

	packPath := args[0]
	entryPath := args[1]
	outputDir := "."
	if len(args) > 2 {
		outputDir = args[2]
	}

	archive, err := pack.Open(packPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer archive.Close()

	if strings.Contains(entryPath, "*") {
		extractPattern(archive, entryPath, outputDir)
		return
	}

	if !archive.Contains(entryPath) {
		fmt.Fprintf(os.Stderr, "Entry not found: %s\n", entryPath)
		os.Exit(1)
	}

	data, err := archive.Read(entryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading entry: %v\n", err)
		os.Exit(1)
	}

	outputPath := filepath.Join(outputDir, filepath.Base(entryPath))
	if err := writeExtracted(outputPath, data); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Extracted: %s (%d bytes)\n", outputPath, len(data))
}

func extractPattern(archive *pack.Archive, pattern, outputDir string) {
	pattern = strings.ToLower(pattern)

	extracted := 0
	for _, name := range archive.List() {
		matched, _ := filepath.Match(pattern, filepath.Base(name))
		if !matched {
			continue
		}

		data, err := archive.Read(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", name, err)
			continue
		}

		// Preserve directory structure.
		outputPath := filepath.Join(outputDir, name)
		if err := writeExtracted(outputPath, data); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outputPath, err)
			continue
		}

		fmt.Printf("Extracted: %s\n", outputPath)
		extracted++
	}

	fmt.Fprintf(os.Stderr, "\nExtracted %d entries\n", extracted)
}

func writeExtracted(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func cmdCreate(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: joetool create <file.jpk> <files...>")
		os.Exit(1)
	}

	w, err := pack.NewWriter(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	added := 0
	for _, file := range args[1:] {
		data, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", file, err)
			continue
		}
		name := filepath.ToSlash(file)
		if err := w.Add(name, data); err != nil {
			fmt.Fprintf(os.Stderr, "Error adding %s: %v\n", name, err)
			continue
		}
		fmt.Printf("Added: %s (%d bytes)\n", pack.NormalizePath(name), len(data))
		added++
	}

	if err := w.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error finalizing pack: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nCreated %s with %d entries\n", args[0], added)
}

func cmdInspect(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	unrolled := fs.Bool("unrolled", false, "Precompute the unrolled (display-list style) layout")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: joetool inspect <model.joe>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	source := assets.NewManager()
	defer source.Close()
	for _, packPath := range cfg.Data.PackPaths {
		if err := source.AddPack(packPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	opts := formats.JOEOptions{Scale: cfg.Model.Scale, MaxFaces: cfg.Model.MaxFaces}

	data, err := source.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	joe, err := formats.ParseJOEWithOptions(data, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	mode := model.PrecomputeInterleaved
	if *unrolled {
		mode = model.PrecomputeUnrolled
	}

	loader := model.NewLoader(source, opts)
	mesh, err := loader.Load(path, mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Model:   %s\n", path)
	fmt.Printf("Version: %d\n", joe.Header.Version)
	fmt.Printf("Faces:   %d\n", joe.Header.FaceCount)
	fmt.Printf("Frames:  %d\n", joe.Header.FrameCount)
	if joe.NormalsCorrected {
		fmt.Println("Normals: corrected (Y/Z basis repair applied)")
	}
	for i := range joe.Frames {
		f := &joe.Frames[i]
		fmt.Printf("  frame %d: %d vertices, %d normals, %d texcoords\n",
			i, len(f.Vertices), len(f.Normals), len(f.TexCoords))
	}

	fmt.Println()
	fmt.Printf("Welded vertices: %d (from %d)\n", mesh.VertexCount(), len(joe.Frames[0].Vertices))
	fmt.Printf("Indices:         %d\n", len(mesh.Faces()))

	b := mesh.Bounds()
	fmt.Printf("Bounds:          (%.3f, %.3f, %.3f) .. (%.3f, %.3f, %.3f)\n",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
	fmt.Printf("Radius:          %.3f\n", mesh.Radius())

	if *unrolled {
		fmt.Printf("Unrolled floats: %d\n", len(mesh.Unrolled()))
	} else {
		fmt.Printf("Interleaved floats: %d\n", len(mesh.Interleaved()))
	}
}
