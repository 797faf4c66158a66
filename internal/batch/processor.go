package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zaidku/DentalCad-Pro/internal/core/geometry"
	"github.com/zaidku/DentalCad-Pro/internal/core/model"
	"github.com/zaidku/DentalCad-Pro/internal/core/solidify"
)

// Config holds the shared settings for a batch solidification run.
type Config struct {
	Depth     float64
	Mode      solidify.BoundaryMode
	OutputDir string
	Workers   int
}

// Result holds the outcome of processing one STL file.
type Result struct {
	Path    string
	Output  string
	Faces   int
	Success bool
	Error   string
}

// Run solidifies all STL files using a worker pool.
func Run(cfg Config, paths []string) []Result {
	total := len(paths)
	results := make([]Result, total)
	var processed atomic.Int64

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					rate := float64(p) / elapsed
					fmt.Printf("  [%d/%d] %.1f files/sec\n", p, total, rate)
				}
			}
		}
	}()

	// Worker pool
	fileChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range fileChan {
				results[idx] = processFile(cfg, paths[idx])
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range paths {
		fileChan <- i
	}
	close(fileChan)

	wg.Wait()
	close(done)

	return results
}

func processFile(cfg Config, path string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Path: path, Error: err.Error()}
	}

	mesh, err := geometry.DecodeSTL(data)
	if err != nil {
		return Result{Path: path, Error: err.Error()}
	}

	sol := solidify.Solidifier{Mode: cfg.Mode}
	solid, err := sol.Solidify(mesh, model.SolidifySettings{ExtrusionDepth: cfg.Depth})
	if err != nil {
		return Result{Path: path, Error: err.Error()}
	}

	out, err := geometry.EncodeSTL(solid)
	if err != nil {
		return Result{Path: path, Error: err.Error()}
	}

	outPath := OutputPath(cfg.OutputDir, path)
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return Result{Path: path, Error: err.Error()}
	}
	if err := os.WriteFile(outPath, out, 0644); err != nil {
		return Result{Path: path, Error: err.Error()}
	}

	return Result{Path: path, Output: outPath, Faces: solid.TriangleCount(), Success: true}
}

// OutputPath places <name>_solid.stl in outDir, or next to the input when
// outDir is empty.
func OutputPath(outDir, path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + "_solid.stl"
	if outDir == "" {
		return filepath.Join(filepath.Dir(path), name)
	}
	return filepath.Join(outDir, name)
}
