package main

import (
	"context"
	"log"

	"github.com/ehcaw/documix/internal/bootstrap"
	"github.com/ehcaw/documix/internal/config"
	"github.com/ehcaw/documix/internal/server"
	"github.com/ehcaw/documix/internal/tracer"
	"github.com/ehcaw/documix/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database (optional; without it the engine runs on the
	// embedded store with retrieval disabled)
	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		gormDB = db
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Transcript Persister...")
		if err := container.Persister.Run(context.Background()); err != nil {
			log.Printf("Background Persister Error: %v", err)
		}
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
