package game

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pedro-modular/vibecode-pilot-game/internal/game/environment"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/vector"
)

// -----------------------------------------------------------------------------
// STRESS TEST: CONCURRENT ADMIN COMMANDS WHILE TICKING
// -----------------------------------------------------------------------------

func TestStress_ConcurrentCommands(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	cfg := DefaultEngineConfig()
	cfg.TickRate = 60
	cfg.Seed = 7
	engine := NewEngine(cfg)

	for i := 0; i < 30; i++ {
		engine.AddShip(fmt.Sprintf("Ship%d", i))
	}

	var wg sync.WaitGroup
	var commandsProcessed int64
	var failures int64

	stopChan := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second / 60)
		defer ticker.Stop()
		for {
			select {
			case <-stopChan:
				return
			case <-ticker.C:
				engine.tick()
			}
		}
	}()

	numWorkers := 8
	commandsPerWorker := 100

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(workerID)))
			for i := 0; i < commandsPerWorker; i++ {
				name := fmt.Sprintf("Worker%d_Ship%d", workerID, i%10)

				var err error
				switch rng.Intn(6) {
				case 0:
					_, err = engine.AddShip(name)
					if errors.Is(err, ErrShipLimit) {
						err = nil
					}
				case 1:
					for _, s := range engine.Ships() {
						if s.Name == name {
							if rerr := engine.RemoveShip(s.ID); rerr != nil && !errors.Is(rerr, ErrShipNotFound) {
								err = rerr
							}
						}
					}
				case 2:
					for _, s := range engine.Ships() {
						if s.Name == name {
							engine.SetControls(s.ID, Controls{Throttle: rng.Float64(), Yaw: rng.Float64()*2 - 1})
						}
					}
				case 3:
					_, err = engine.AddHazard(environment.Hazard{
						Type:     environment.HazardSolarFlare,
						Position: vector.New(rng.Float64()*1e4, 0, 0),
						Radius:   100,
						Duration: environment.Seconds(0.2),
					})
					if errors.Is(err, ErrHazardLimit) {
						err = nil
					}
				case 4:
					_ = engine.Environment()
				case 5:
					engine.ActiveSector(vector.New(rng.Float64()*1e5, rng.Float64()*1e5, 0))
				}

				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				atomic.AddInt64(&commandsProcessed, 1)
				time.Sleep(time.Millisecond)
			}
		}(w)
	}

	wg.Wait()
	close(stopChan)

	t.Logf("Concurrent Commands Test:")
	t.Logf("  Commands Processed: %d", commandsProcessed)
	t.Logf("  Failures: %d", failures)

	if failures > 0 {
		t.Errorf("Had %d failures during concurrent command processing", failures)
	}
}

// -----------------------------------------------------------------------------
// STRESS TEST: SUSTAINED TICK RATE
// -----------------------------------------------------------------------------

func TestStress_SustainedTickBudget(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	cfg := DefaultEngineConfig()
	cfg.Seed = 3
	engine := NewEngine(cfg)
	for i := 0; i < 200; i++ {
		s, _ := engine.AddShip(fmt.Sprintf("Ship%d", i))
		engine.SetControls(s.ID, Controls{Throttle: 1, Pitch: 0.2})
	}
	for i := 0; i < 200; i++ {
		engine.AddHazard(environment.Hazard{
			Type:     environment.HazardRadiation,
			Position: vector.New(float64(i)*250, 0, 0),
			Radius:   200,
		})
	}

	budget := time.Second / time.Duration(cfg.TickRate)
	var worst time.Duration
	for i := 0; i < 300; i++ {
		stats := engine.Advance(1.0 / float64(cfg.TickRate))
		if stats.Duration > worst {
			worst = stats.Duration
		}
	}

	t.Logf("worst tick %v (budget %v)", worst, budget)
	if worst > budget {
		t.Errorf("worst tick %v exceeds budget %v", worst, budget)
	}
}
