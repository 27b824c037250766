// shadowc compiles stencil shadow volumes for the lights of a scene and
// inspects the resulting .shv files.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/shadowvol/internal/batch"
	"github.com/Faultbox/shadowvol/internal/config"
	"github.com/Faultbox/shadowvol/internal/logger"
	"github.com/Faultbox/shadowvol/internal/preview"
	"github.com/Faultbox/shadowvol/internal/scene"
	"github.com/Faultbox/shadowvol/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "build", "b":
		cmdBuild(args)
	case "info":
		cmdInfo(args)
	case "check":
		cmdCheck(args)
	case "preview":
		cmdPreview(args)
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
	fmt.Println(`shadowc - stencil shadow volume compiler

Usage:
  shadowc <command> [options]

Commands:
  build [options] <scene.yaml>        Compile shadow volumes to <dir>/<scene>.shv
  info <file.shv>                     Show volumes in a file
  check <file.shv>                    Report volumes that are not closed
  preview [-size N] <file.shv> <out.png> [entry]
                                      Render one volume to a PNG
  config [options] [-save]           Print the effective config, or save it
                                      as the user default

Build options:
  -config <path>   Config file (default ./shadowc.yaml or the user config dir)
  -level <name>    none, merge_surfaces, cull_occluded, clip_occluders,
                   clip_sils (default), sil_optimize
  -workers <n>     Parallel jobs (default one per CPU)
  -o <dir>         Output directory
  -preview         Also write a PNG per volume
  -debug           Enable debug logging

Build writes the config it ran with to <dir>/<scene>.shadowc.yaml; pass it
back with -config to repeat the build.

Examples:
  shadowc build -level sil_optimize -o out scenes/room.yaml
  shadowc info out/room.shv
  shadowc config -level sil_optimize -workers 4 -save
  shadowc preview -size 1024 out/room.shv lamp.png 2`)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}

func cmdBuild(args []string) {
	if err := config.ParseFlags(args); err != nil {
		fatalf("Error: %v\n", err)
	}
	if len(config.Args()) < 1 {
		fatalf("Usage: shadowc build [options] <scene.yaml>\n")
	}
	scenePath := config.Args()[0]

	cfg, err := config.Load()
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fatalf("Error: %v\n", err)
	}
	defer logger.Sync()

	s, err := scene.Load(scenePath)
	if err != nil {
		logger.Fatal("Failed to load scene", zap.Error(err))
	}
	logger.Info("Loaded scene",
		zap.String("path", scenePath),
		zap.Int("surfaces", len(s.Surfaces)),
		zap.Int("lights", len(s.Lights)),
		zap.Int("triangles", s.Triangles()),
		zap.Stringer("level", cfg.Shadow.Level))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shv, report, err := batch.Run(ctx, s, batch.Options{
		Volume:  cfg.Shadow.VolumeOptions(),
		Workers: cfg.Shadow.NumWorkers(),
	})
	if shv == nil {
		logger.Fatal("Build failed", zap.Error(err))
	}
	for _, e := range multierr.Errors(err) {
		logger.Error("Job failed", zap.Error(e))
	}

	base := strings.TrimSuffix(filepath.Base(scenePath), filepath.Ext(scenePath))
	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		logger.Fatal("Failed to create output directory", zap.Error(err))
	}
	outPath := filepath.Join(cfg.Output.Dir, base+".shv")
	if err := formats.WriteSHVFile(outPath, shv); err != nil {
		logger.Fatal("Failed to write volumes", zap.Error(err))
	}
	cfgPath := filepath.Join(cfg.Output.Dir, base+".shadowc.yaml")
	if err := cfg.SaveTo(cfgPath); err != nil {
		logger.Error("Failed to write build config", zap.String("path", cfgPath), zap.Error(err))
	}

	if cfg.Output.Preview {
		for _, e := range shv.Entries {
			name := fmt.Sprintf("%s_%s_%s.png", base, fileSafe(e.Surface), fileSafe(e.Light))
			path := filepath.Join(cfg.Output.Dir, name)
			opts := preview.Options{Size: cfg.Output.PreviewSize, Title: e.Surface + " / " + e.Light}
			if err := preview.WritePNG(path, e.Volume, opts); err != nil {
				logger.Error("Failed to write preview", zap.String("path", path), zap.Error(err))
			}
		}
	}

	fmt.Printf("Scene:    %s\n", scenePath)
	fmt.Printf("Output:   %s\n", outPath)
	fmt.Printf("Config:   %s\n", cfgPath)
	fmt.Printf("Jobs:     %d (%d empty, %d skipped)\n", report.Jobs, report.Empty, report.Skipped)
	fmt.Printf("Volumes:  %d\n", report.Volumes)
	fmt.Printf("Verts:    %d\n", report.Verts)
	fmt.Printf("Indexes:  %d\n", report.Indexes)
	fmt.Printf("Took:     %v\n", report.Duration)

	if err != nil {
		os.Exit(1)
	}
}

func fileSafe(name string) string {
	if name == batch.MergedName {
		return "merged"
	}
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' || r == ':' {
			return '_'
		}
		return r
	}, name)
}

func openSHV(args []string, usage string) *formats.SHV {
	if len(args) < 1 {
		fatalf("Usage: %s\n", usage)
	}
	shv, err := formats.ParseSHVFile(args[0])
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	return shv
}

func cmdInfo(args []string) {
	shv := openSHV(args, "shadowc info <file.shv>")
	verts, indexes := shv.Stats()

	fmt.Printf("File:     %s\n", args[0])
	fmt.Printf("Version:  %s\n", shv.Version)
	fmt.Printf("Volumes:  %d\n", len(shv.Entries))
	fmt.Printf("Verts:    %d\n", verts)
	fmt.Printf("Indexes:  %d\n", indexes)
	fmt.Println()

	fmt.Printf("  %-4s %-20s %-16s %8s %8s %8s %8s  %s\n",
		"#", "surface", "light", "verts", "sil", "rear", "front", "frustums")
	for i, e := range shv.Entries {
		v := e.Volume
		fmt.Printf("  %-4d %-20s %-16s %8d %8d %8d %8d  %06b\n", i, e.Surface, e.Light,
			len(v.Verts),
			v.NumIndexesNoCaps/3,
			(v.NumIndexesNoFrontCaps-v.NumIndexesNoCaps)/3,
			(v.NumIndexes()-v.NumIndexesNoFrontCaps)/3,
			v.CapPlaneBits)
	}
}

func cmdCheck(args []string) {
	shv := openSHV(args, "shadowc check <file.shv>")

	open := 0
	for i, e := range shv.Entries {
		if free := e.Volume.FreeEdges(); free > 0 {
			fmt.Printf("  %d %s/%s: %d free edges\n", i, e.Surface, e.Light, free)
			open++
		}
	}

	fmt.Printf("%d of %d volumes closed\n", len(shv.Entries)-open, len(shv.Entries))
	if open > 0 {
		os.Exit(1)
	}
}

func cmdPreview(args []string) {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	size := fs.Int("size", preview.DefaultSize, "Image size in pixels")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fatalf("Usage: shadowc preview [-size N] <file.shv> <out.png> [entry]\n")
	}

	shv := openSHV(fs.Args(), "")
	entry := 0
	if fs.NArg() > 2 {
		n, err := strconv.Atoi(fs.Arg(2))
		if err != nil {
			fatalf("Invalid entry %q: %v\n", fs.Arg(2), err)
		}
		entry = n
	}
	if entry < 0 || entry >= len(shv.Entries) {
		fatalf("Entry %d out of range (%d volumes)\n", entry, len(shv.Entries))
	}

	e := shv.Entries[entry]
	opts := preview.Options{Size: *size, Title: e.Surface + " / " + e.Light}
	if err := preview.WritePNG(fs.Arg(1), e.Volume, opts); err != nil {
		fatalf("Error: %v\n", err)
	}
	fmt.Printf("Wrote %s\n", fs.Arg(1))
}

func cmdConfig(args []string) {
	if err := config.ParseFlags(args); err != nil {
		fatalf("Error: %v\n", err)
	}
	cfg, err := config.Load()
	if err != nil {
		fatalf("Error: %v\n", err)
	}

	if config.SaveRequested() {
		if err := cfg.Save(); err != nil {
			fatalf("Error: %v\n", err)
		}
		fmt.Printf("Saved %s\n", config.UserConfigPath())
		return
	}

	data, err := cfg.Marshal()
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	os.Stdout.Write(data)
}
