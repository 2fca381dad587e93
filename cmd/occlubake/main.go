// occlubake removes triangles that no observer can see from scene meshes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/occlubake/internal/bake"
	"github.com/Faultbox/occlubake/internal/config"
	"github.com/Faultbox/occlubake/internal/cull"
	"github.com/Faultbox/occlubake/internal/logger"
	"github.com/Faultbox/occlubake/internal/scene"
	"github.com/Faultbox/occlubake/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "bake":
		os.Exit(cmdBake(args))
	case "info":
		cmdInfo(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`occlubake - visibility-driven mesh reduction

Usage:
  occlubake <command> [options]

Commands:
  bake [flags] <scene.yaml>    Reduce every target in a scene
  info <mesh.omsh|mesh.obj>    Show mesh statistics
  config [path]                Write the effective config as YAML

Examples:
  occlubake bake level01.yaml
  occlubake bake -no-dilate -format obj -out ./baked level01.yaml
  occlubake info crate.omsh
  occlubake config ~/.config/occlubake/config.yaml`)
}

func cmdBake(args []string) int {
	config.SetOutput(os.Stderr)
	rest, err := config.ParseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if len(rest) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: occlubake bake [flags] <scene.yaml>")
		config.PrintDefaults()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		return 1
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	logger.Info("=== occlubake ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	s, err := scene.Load(rest[0])
	if err != nil {
		logger.Error("failed to load scene", zap.Error(err))
		return 1
	}

	var points *cull.DebugPoints
	runner := &bake.Runner{
		Config:   cfg.Kernel,
		Oracle:   s.World,
		Store:    scene.NewFileStore(cfg.Output, filepath.Dir(s.Path)),
		Progress: bake.LogProgress{},
	}
	if cfg.Output.DebugPoints != "" {
		points = cull.NewDebugPoints(cull.DefaultDebugCapacity)
		runner.Points = points
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := runner.Run(ctx, s.Observers, s.BakeTargets())
	if report == nil {
		logger.Error("bake rejected", zap.Error(err))
		return 1
	}

	printReport(report)
	if points != nil {
		if werr := writePoints(cfg.Output.DebugPoints, points); werr != nil {
			logger.Error("failed to write debug points", zap.Error(werr))
		}
	}

	if err != nil {
		logger.Warn("bake interrupted", zap.Error(err))
		return 130
	}
	if report.Reduced() == 0 {
		return 1
	}
	return 0
}

func printReport(report *bake.Report) {
	fmt.Printf("\nOutput: %s\n\n", report.Location)
	fmt.Printf("%-24s %-8s %8s %8s %8s\n", "TARGET", "STATUS", "TOTAL", "KEPT", "REDUCED")
	for _, res := range report.Results {
		reduced := "-"
		if res.Status == bake.StatusReduced {
			reduced = fmt.Sprintf("%.1f%%", res.Reduction)
		}
		fmt.Printf("%-24s %-8s %8d %8d %8s\n", res.Name, res.Status, res.Total, res.Kept, reduced)
		if res.Err != nil {
			fmt.Printf("  %v\n", res.Err)
		}
	}
	fmt.Printf("\nOptimized %d of %d meshes\n", report.Reduced(), len(report.Results))
}

func writePoints(path string, points *cull.DebugPoints) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := formats.WritePointsOBJ(f, points.Points()); err != nil {
		f.Close()
		return err
	}
	logger.Info("debug points written", zap.String("path", path), zap.Int("points", points.Len()))
	return f.Close()
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: occlubake info <mesh.omsh|mesh.obj>")
		os.Exit(1)
	}

	m, err := formats.LoadMesh(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Mesh:      %s\n", m.Name)
	fmt.Printf("Vertices:  %d\n", m.VertexCount())
	fmt.Printf("Triangles: %d\n", m.TriangleCount())
	fmt.Printf("Indices:   %d-bit\n", m.IndexFormat)
	fmt.Printf("Bounds:    (%.3f, %.3f, %.3f) - (%.3f, %.3f, %.3f)\n",
		m.Bounds.Min.X, m.Bounds.Min.Y, m.Bounds.Min.Z,
		m.Bounds.Max.X, m.Bounds.Max.Y, m.Bounds.Max.Z)

	channels := []struct {
		name string
		n    int
	}{
		{"uv", len(m.UV)},
		{"normals", len(m.Normals)},
		{"tangents", len(m.Tangents)},
		{"bone weights", len(m.BoneWeights)},
		{"bind poses", len(m.BindPoses)},
	}
	fmt.Println("Channels:")
	for _, c := range channels {
		if c.n > 0 {
			fmt.Printf("  %-12s %d\n", c.name, c.n)
		}
	}

	fmt.Printf("Submeshes: %d\n", len(m.SubMeshes))
	for i, sub := range m.SubMeshes {
		fmt.Printf("  [%d] %-20s %d triangles\n", i, sub.Name, sub.TriangleCount())
	}

	if err := m.Validate(); err != nil {
		fmt.Printf("\nWarning: %v\n", err)
	}
}

func cmdConfig(args []string) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if len(args) > 0 {
		err = cfg.SaveTo(args[0])
	} else {
		err = cfg.Save()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Config written")
}
