package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pedro-modular/vibecode-pilot-game/internal/api"
	"github.com/pedro-modular/vibecode-pilot-game/internal/config"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game"
	"github.com/pedro-modular/vibecode-pilot-game/internal/scenario"
)

func main() {
	hashPassword := flag.String("hash-password", "", "print a bcrypt hash for ADMIN_PASSWORD_HASH and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := api.HashPassword(*hashPassword)
		if err != nil {
			log.Fatalf("❌ Hash failed: %v", err)
		}
		fmt.Println(hash)
		return
	}

	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🚀 ================================")
	log.Println("🚀  SPACE ARENA - ENVIRONMENT SERVER")
	log.Println("🚀 ================================")

	// Load centralized configuration (SSOT - Single Source of Truth)
	appConfig := config.Load()
	serverCfg := appConfig.Server
	universe := appConfig.Universe

	log.Printf("🌌 Universe: boundary %.0f, push %.1f, sectors at %.0f",
		universe.BoundaryRadius, universe.PushForce, universe.SectorRadius)
	log.Printf("🎮 Config: %d TPS, spawn radius %.0f", appConfig.Sim.TickRate, appConfig.Sim.SpawnRadius)

	engine := game.NewEngine(appConfig.Engine())
	limits := engine.Limits()
	log.Printf("🛡️ Resource limits: %d ships, %d hazards, %d celestials",
		limits.MaxShips, limits.MaxHazards, limits.MaxCelestials)

	// Seed the universe
	if serverCfg.ScenarioPath != "" {
		sc, err := scenario.Load(serverCfg.ScenarioPath)
		if err != nil {
			log.Fatalf("❌ Scenario: %v", err)
		}
		sum, err := sc.Apply(engine)
		if err != nil {
			log.Fatalf("❌ Scenario %q: %v", sc.Name, err)
		}
		log.Printf("🪐 Scenario %q: %d celestials, %d hazards", sc.Name, sum.Celestials, sum.Hazards)
	}

	// Start event log
	if err := engine.StartEventLog(serverCfg.EventLogPath); err != nil {
		log.Printf("⚠️ Event log disabled: %v", err)
	} else if serverCfg.EventLogPath != "" {
		log.Printf("📝 Event log: %s", serverCfg.EventLogPath)
	}

	// Metrics
	engine.OnTick = api.RecordTick
	stopStats := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stopStats:
				return
			case <-ticker.C:
				api.UpdateEventLogStats(engine.EventLogStats())
			}
		}
	}()

	// Start debug server
	debugCfg := api.DefaultObservabilityConfig()
	debugCfg.ListenAddr = "127.0.0.1:" + strconv.Itoa(serverCfg.DebugPort)
	debugCfg.Enabled = os.Getenv("DISABLE_DEBUG_SERVER") != "true"
	debugCfg.BasicAuthUser = os.Getenv("DEBUG_USER")
	debugCfg.BasicAuthPass = os.Getenv("DEBUG_PASS")
	debugSrv := api.StartDebugServer(debugCfg)

	// Admin authentication setup
	var auth *api.AdminAuth
	if appConfig.Auth.Enabled() {
		ttl := time.Duration(appConfig.Auth.TokenTTLMin) * time.Minute
		auth = api.NewAdminAuth(appConfig.Auth.JWTSecret, appConfig.Auth.PasswordHash, ttl)
		log.Println("🔐 Admin authentication ENABLED")
		if appConfig.Auth.PasswordHash == "" {
			log.Println("⚠️ ADMIN_PASSWORD_HASH not set - /api/admin/token will refuse logins")
		}
	} else {
		log.Println("⚠️ Admin authentication DISABLED (set ADMIN_JWT_SECRET to enable)")
	}

	server := api.NewServer(engine, api.ServerOptions{
		CORSOrigins:  serverCfg.AllowedOrigins,
		Auth:         auth,
		MaxWSClients: appConfig.Limits.MaxWSClients,
	})

	// Start game engine
	engine.Start()
	log.Println("✅ Game Engine started")

	// Start API server in goroutine
	go func() {
		addr := ":" + strconv.Itoa(serverCfg.Port)
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ API shutdown: %v", err)
	}
	if debugSrv != nil {
		debugSrv.Shutdown(ctx)
	}
	close(stopStats)
	engine.Stop()
	engine.StopEventLog()
	log.Println("👋 Goodbye!")
}
