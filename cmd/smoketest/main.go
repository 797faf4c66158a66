package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/zaidku/DentalCad-Pro/internal/core/geometry"
)

const (
	baseURL = "http://localhost:8080"
)

func main() {
	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting Smoke Test...")

	quad := quadSTL()
	cube := cubeSTL(4.0)

	// 1. Health
	fmt.Println("1. Health check...")
	if !sendRequest("GET", "/health", nil) {
		fmt.Println("FAILED: Health check")
		os.Exit(1)
	}
	fmt.Println("PASSED: Health check")

	// 2. Orientation presets
	fmt.Println("2. Orientation presets...")
	if !sendRequest("GET", "/api/orientation/presets", nil) {
		fmt.Println("FAILED: Orientation presets")
		os.Exit(1)
	}
	fmt.Println("PASSED: Orientation presets")

	// 3. Apply orientation
	fmt.Println("3. Apply orientation...")
	orientPayload := map[string]interface{}{
		"stl_data": quad,
		"preset":   "occlusalDown",
	}
	if !sendRequest("POST", "/api/orientation/apply", orientPayload) {
		fmt.Println("FAILED: Apply orientation")
		os.Exit(1)
	}
	fmt.Println("PASSED: Apply orientation")

	// 4. Model info
	fmt.Println("4. Model info...")
	infoPayload := map[string]interface{}{
		"stl_data": cube,
	}
	if !sendRequest("POST", "/api/model/info", infoPayload) {
		fmt.Println("FAILED: Model info")
		os.Exit(1)
	}
	fmt.Println("PASSED: Model info")

	// 5. Solidify
	fmt.Println("5. Solidify...")
	solidifyPayload := map[string]interface{}{
		"stl_data":       quad,
		"wall_thickness": 1.0,
	}
	if !sendRequest("POST", "/api/solidify", solidifyPayload) {
		fmt.Println("FAILED: Solidify")
		os.Exit(1)
	}
	fmt.Println("PASSED: Solidify")

	// 6. Margin detection
	fmt.Println("6. Margin detection...")
	detectPayload := map[string]interface{}{
		"stl_data": cube,
	}
	if !sendRequest("POST", "/api/margin/detect", detectPayload) {
		fmt.Println("FAILED: Margin detection")
		os.Exit(1)
	}
	fmt.Println("PASSED: Margin detection")

	// 7. Margin refinement
	fmt.Println("7. Margin refinement...")
	points := []map[string]interface{}{
		{"id": 1, "x": 0.0, "y": 0.0, "z": 1.0, "confidence": 0.8},
		{"id": 2, "x": 1.0, "y": 0.0, "z": 1.0, "confidence": 0.8},
		{"id": 3, "x": 1.0, "y": 1.0, "z": 1.0, "confidence": 0.8},
		{"id": 4, "x": 0.0, "y": 1.0, "z": 1.0, "confidence": 0.8},
	}
	refinePayload := map[string]interface{}{
		"points":     points,
		"smoothness": 3,
	}
	if !sendRequest("POST", "/api/margin/refine", refinePayload) {
		fmt.Println("FAILED: Margin refinement")
		os.Exit(1)
	}
	fmt.Println("PASSED: Margin refinement")

	// 8. Margin export
	fmt.Println("8. Margin export...")
	exportPayload := map[string]interface{}{
		"points":       points,
		"case_number":  "SMOKE-1",
		"tooth_number": "14",
	}
	if !sendRequest("POST", "/api/margin/export", exportPayload) {
		fmt.Println("FAILED: Margin export")
		os.Exit(1)
	}
	fmt.Println("PASSED: Margin export")
}

// quadSTL is an open flat shell, the minimal solidification input.
func quadSTL() string {
	m := geometry.Mesh{Positions: []r3.Vec{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
	}}
	data, _ := geometry.EncodeSTL(m)
	return base64.StdEncoding.EncodeToString(data)
}

// cubeSTL is a closed cube with its occlusal surface at z=e, tall enough
// for the detector's height threshold to isolate the top band.
func cubeSTL(e float64) string {
	quads := [][4]r3.Vec{
		{{X: 0, Y: 0, Z: 0}, {X: 0, Y: e, Z: 0}, {X: e, Y: e, Z: 0}, {X: e, Y: 0, Z: 0}},
		{{X: 0, Y: 0, Z: e}, {X: e, Y: 0, Z: e}, {X: e, Y: e, Z: e}, {X: 0, Y: e, Z: e}},
		{{X: 0, Y: 0, Z: 0}, {X: e, Y: 0, Z: 0}, {X: e, Y: 0, Z: e}, {X: 0, Y: 0, Z: e}},
		{{X: 0, Y: e, Z: 0}, {X: 0, Y: e, Z: e}, {X: e, Y: e, Z: e}, {X: e, Y: e, Z: 0}},
		{{X: 0, Y: 0, Z: 0}, {X: 0, Y: 0, Z: e}, {X: 0, Y: e, Z: e}, {X: 0, Y: e, Z: 0}},
		{{X: e, Y: 0, Z: 0}, {X: e, Y: e, Z: 0}, {X: e, Y: e, Z: e}, {X: e, Y: 0, Z: e}},
	}
	var m geometry.Mesh
	for _, q := range quads {
		m.Positions = append(m.Positions, q[0], q[1], q[2], q[0], q[2], q[3])
	}
	data, _ := geometry.EncodeSTL(m)
	return base64.StdEncoding.EncodeToString(data)
}

func sendRequest(method, endpoint string, payload interface{}) bool {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return false
	}

	respBody, _ := io.ReadAll(resp.Body)
	out := string(respBody)
	if len(out) > 300 {
		out = out[:300] + "..."
	}
	fmt.Printf("Response: %s\n", out)

	return true
}
