package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/zaidku/DentalCad-Pro/internal/adapter"
	"github.com/zaidku/DentalCad-Pro/internal/batch"
	"github.com/zaidku/DentalCad-Pro/internal/config"
	"github.com/zaidku/DentalCad-Pro/internal/core/geometry"
	"github.com/zaidku/DentalCad-Pro/internal/core/margin"
	"github.com/zaidku/DentalCad-Pro/internal/core/model"
	"github.com/zaidku/DentalCad-Pro/internal/core/prep"
	"github.com/zaidku/DentalCad-Pro/internal/core/pts"
	"github.com/zaidku/DentalCad-Pro/internal/core/solidify"
)

type marginOpts struct {
	in       string
	ptsIn    string
	remote   bool
	curve    bool
	normals  bool
	density  int
	smooth   int
	caseNum  string
	toothNum string
	out      string
}

func main() {
	// CLI flags
	inFile := flag.String("in", "", "Input STL file")
	ptsIn := flag.String("pts-in", "", "Input PTS margin file instead of detection")
	configFile := flag.String("config", "", "Path to config.toml")

	info := flag.Bool("info", false, "Print mesh statistics for the input file")
	orient := flag.String("orient", "", "Apply an orientation preset and write the result")

	detect := flag.Bool("detect", false, "Detect the preparation margin on the input mesh")
	remote := flag.Bool("remote", false, "Route the margin workflow through the modeling backend when reachable")
	density := flag.Int("density", 0, "Margin point density (default from config)")
	smooth := flag.Int("smooth", 0, "Smooth margin points with the given neighbor weight")
	curveOut := flag.Bool("curve", false, "Write the sampled margin curve instead of the control points")
	withNormals := flag.Bool("normals", false, "Include point normals in the PTS output")
	caseNum := flag.String("case", "", "Case number for PTS export")
	toothNum := flag.String("tooth", "", "Tooth number for PTS export")

	doSolidify := flag.Bool("solidify", false, "Solidify STL files given as arguments")
	depth := flag.Float64("depth", 0, "Wall depth in millimeters (default from config)")
	legacy := flag.Bool("legacy-boundary", false, "Stitch walls with the legacy proximity heuristic")
	outDir := flag.String("outdir", "", "Output directory for solidified files (default: next to inputs)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")

	outFile := flag.String("out", "", "Output file (default: derived from the export identifiers)")

	flag.Parse()

	var cfg *config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg = config.Default()
	}

	switch {
	case *info:
		runInfo(*inFile)
	case *orient != "":
		runOrient(*inFile, *orient, *outFile)
	case *doSolidify:
		runSolidify(cfg, *inFile, *depth, *legacy, *outDir, *workers)
	case *detect || *ptsIn != "":
		runMargin(cfg, marginOpts{
			in:       *inFile,
			ptsIn:    *ptsIn,
			remote:   *remote,
			curve:    *curveOut,
			normals:  *withNormals,
			density:  *density,
			smooth:   *smooth,
			caseNum:  *caseNum,
			toothNum: *toothNum,
			out:      *outFile,
		})
	default:
		fmt.Fprintln(os.Stderr, "Nothing to do. Use -info, -orient, -detect, -pts-in or -solidify.")
		flag.Usage()
		os.Exit(1)
	}
}

func loadMesh(path string) geometry.Mesh {
	if path == "" {
		fmt.Fprintln(os.Stderr, "Error: no input file. Use -in.")
		os.Exit(1)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
		os.Exit(1)
	}
	mesh, err := geometry.DecodeSTL(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding %s: %v\n", path, err)
		os.Exit(1)
	}
	return mesh
}

func runInfo(in string) {
	mi := geometry.Inspect(loadMesh(in))

	fmt.Printf("Vertices:     %d\n", mi.Vertices)
	fmt.Printf("Faces:        %d\n", mi.Faces)
	fmt.Printf("Watertight:   %v\n", mi.Watertight)
	if mi.Watertight {
		fmt.Printf("Volume:       %.3f mm3\n", mi.Volume)
	}
	fmt.Printf("Surface area: %.3f mm2\n", mi.SurfaceArea)
	b := mi.Bounds
	fmt.Printf("Bounds:       [%.3f %.3f %.3f] .. [%.3f %.3f %.3f]\n",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
}

func runOrient(in, preset, out string) {
	degrees, ok := geometry.PresetRotation(preset)
	if !ok {
		names := make([]string, 0, len(geometry.OrientationPresets))
		for name := range geometry.OrientationPresets {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(os.Stderr, "Unknown preset '%s'. Available: %s\n", preset, strings.Join(names, ", "))
		os.Exit(1)
	}

	mesh := loadMesh(in)
	rotated := geometry.Rotate(mesh, degrees)
	data, err := geometry.EncodeSTL(rotated)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding result: %v\n", err)
		os.Exit(1)
	}

	if out == "" {
		base := filepath.Base(in)
		out = strings.TrimSuffix(base, filepath.Ext(base)) + "_oriented.stl"
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", out, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%d faces)\n", out, rotated.TriangleCount())
}

func runSolidify(cfg *config.Config, in string, depth float64, legacy bool, outDir string, workers int) {
	paths := flag.Args()
	if len(paths) == 0 && in != "" {
		paths = []string{in}
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no STL files to solidify.")
		os.Exit(1)
	}

	if depth == 0 {
		depth = cfg.Solidify.ExtrusionDepth
	}
	mode := solidify.BoundaryLoops
	if legacy {
		mode = solidify.BoundaryProximity
	}

	fmt.Printf("Solidifying %d file(s), wall depth %.2f mm\n", len(paths), depth)
	start := time.Now()

	results := batch.Run(batch.Config{
		Depth:     depth,
		Mode:      mode,
		OutputDir: outDir,
		Workers:   workers,
	}, paths)

	success, failed := 0, 0
	for _, r := range results {
		if r.Success {
			success++
			fmt.Printf("  %s -> %s (%d faces)\n", r.Path, r.Output, r.Faces)
		} else {
			failed++
		}
	}
	fmt.Printf("Done in %.1fs: %d/%d solidified\n", time.Since(start).Seconds(), success, len(results))

	if failed > 0 {
		fmt.Printf("\nFailed (%d):\n", failed)
		for _, r := range results {
			if !r.Success {
				fmt.Printf("  %s: %s\n", r.Path, r.Error)
			}
		}
		os.Exit(1)
	}
}

func runMargin(cfg *config.Config, opts marginOpts) {
	settings := cfg.Detection
	if opts.density > 0 {
		settings.PointDensity = opts.density
	}

	var svc *adapter.Service
	if opts.remote {
		svc = adapter.NewService(
			adapter.NewRemote(cfg.Backend.BaseURL, cfg.Backend.RequestTimeout(), cfg.Backend.ProbeTimeout()),
			adapter.NewFallback(),
		)
	}
	ctx := context.Background()

	var points []model.MarginPoint
	switch {
	case opts.ptsIn != "":
		data, err := os.ReadFile(opts.ptsIn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", opts.ptsIn, err)
			os.Exit(1)
		}
		points, err = pts.Parse(string(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing %s: %v\n", opts.ptsIn, err)
			os.Exit(1)
		}
		fmt.Printf("Loaded %d margin points from %s\n", len(points), opts.ptsIn)
	default:
		mesh := loadMesh(opts.in)
		if svc != nil {
			res, err := svc.Detect(ctx, mesh, settings)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Margin detection failed: %v\n", err)
				os.Exit(1)
			}
			points = res.Points
			fmt.Printf("Detected %d margin points (source: %s)\n", res.Count, res.Source)
		} else {
			det, err := prep.NewDetector().Detect(mesh, settings)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Margin detection failed: %v\n", err)
				os.Exit(1)
			}
			points = det.SuggestedMargin
			fmt.Printf("Detected %d margin points (confidence %.2f)\n", len(points), det.Confidence)
		}
	}

	st := margin.NewStore()
	st.Replace(points)

	if opts.smooth > 0 {
		if svc != nil {
			res, err := svc.Refine(ctx, st.Points(), opts.smooth)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Margin refinement failed: %v\n", err)
				os.Exit(1)
			}
			st.Replace(res.Points)
			fmt.Printf("Refined margin (source: %s)\n", res.Source)
		} else {
			if err := st.Smooth(opts.smooth); err != nil {
				fmt.Fprintf(os.Stderr, "Smoothing failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Smoothed margin with weight %d\n", opts.smooth)
		}
	}

	fmt.Printf("Margin status: %s (%d points)\n", st.Status(), st.Count())

	var content, filename string
	switch {
	case opts.curve:
		samples := st.Curve()
		curvePoints := make([]model.MarginPoint, 0, len(samples))
		for _, v := range samples {
			curvePoints = append(curvePoints, model.MarginPoint{Position: v, Confidence: 1.0})
		}
		content = pts.Write(curvePoints, opts.caseNum, opts.toothNum)
		fmt.Printf("Sampled %d curve points\n", len(samples))
	case svc != nil:
		res, err := svc.ExportPTS(ctx, st.Points(), opts.caseNum, opts.toothNum)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Margin export failed: %v\n", err)
			os.Exit(1)
		}
		content, filename = res.Content, res.Filename
	case opts.normals:
		content = pts.WriteNormals(st.Points(), opts.caseNum, opts.toothNum)
	default:
		content = pts.Write(st.Points(), opts.caseNum, opts.toothNum)
	}

	if filename == "" {
		filename = pts.Filename(opts.caseNum, opts.toothNum)
	}
	if opts.out != "" {
		filename = opts.out
	}
	if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", filename, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", filename)
}
