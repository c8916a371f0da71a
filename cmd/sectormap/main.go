// =============================================================================
// SPACE ARENA - SECTOR MAP
// =============================================================================
// Offline renderer: builds an engine from the environment config, seeds it
// with a scenario and a handful of ships, advances the simulation and writes
// a top-down PNG of the universe.
//
// USAGE:
//   go run ./cmd/sectormap -scenario scenarios/default.yaml -out map.png
// =============================================================================
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/pedro-modular/vibecode-pilot-game/internal/config"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game"
	"github.com/pedro-modular/vibecode-pilot-game/internal/render"
	"github.com/pedro-modular/vibecode-pilot-game/internal/scenario"
)

func main() {
	scenarioPath := flag.String("scenario", "scenarios/default.yaml", "scenario YAML to load (empty for none)")
	outPath := flag.String("out", "sectormap.png", "output PNG path")
	size := flag.Int("size", render.DefaultMapSize, "image edge length in pixels")
	ships := flag.Int("ships", 8, "number of ships to spawn")
	ticks := flag.Int("ticks", 120, "simulation ticks to run before rendering")
	labels := flag.Bool("labels", true, "draw ship and celestial labels")
	flag.Parse()

	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	}

	appConfig := config.Load()
	engine := game.NewEngine(appConfig.Engine())

	if *scenarioPath != "" {
		sc, err := scenario.Load(*scenarioPath)
		if err != nil {
			log.Fatalf("❌ Scenario: %v", err)
		}
		sum, err := sc.Apply(engine)
		if err != nil {
			log.Fatalf("❌ Scenario %q: %v", sc.Name, err)
		}
		log.Printf("🪐 Scenario %q: %d celestials, %d hazards", sc.Name, sum.Celestials, sum.Hazards)
	}

	for i := 0; i < *ships; i++ {
		if _, err := engine.AddShip(fmt.Sprintf("pilot-%02d", i+1)); err != nil {
			log.Printf("⚠️ Ship %d not spawned: %v", i+1, err)
			break
		}
	}

	dt := 1.0 / float64(engine.TickRate())
	var stats game.TickStats
	for i := 0; i < *ticks; i++ {
		stats = engine.Advance(dt)
	}
	log.Printf("🎮 Tick %d: %d ships (%d outside), %d hazards, %d occupied sectors",
		stats.Tick, stats.Ships, stats.ShipsOutside, stats.Hazards, stats.OccupiedSectors)

	env := engine.Environment()
	scene := render.Scene{
		Boundary:   env.Boundary,
		Sectors:    env.Sectors,
		Hazards:    env.Hazards,
		Celestials: env.CelestialObjects,
	}
	for _, s := range engine.Ships() {
		scene.Ships = append(scene.Ships, render.ShipMarker{Name: s.Name, Position: s.Position})
	}

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("❌ Output: %v", err)
	}
	renderer := render.NewMapRenderer(*size, *labels)
	if err := renderer.WritePNG(f, scene); err != nil {
		f.Close()
		log.Fatalf("❌ Render: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("❌ Output: %v", err)
	}
	log.Printf("🗺️  Wrote %dx%d map to %s", renderer.Size(), renderer.Size(), *outPath)
}
