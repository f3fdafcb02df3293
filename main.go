package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/metnitcs/esay-ai-shop/modules/analyze"
	"github.com/metnitcs/esay-ai-shop/modules/assets"
	"github.com/metnitcs/esay-ai-shop/modules/comic"
	"github.com/metnitcs/esay-ai-shop/modules/common/config"
	"github.com/metnitcs/esay-ai-shop/modules/common/credit"
	"github.com/metnitcs/esay-ai-shop/modules/common/database"
	"github.com/metnitcs/esay-ai-shop/modules/common/gemini"
	commonredis "github.com/metnitcs/esay-ai-shop/modules/common/redis"
	"github.com/metnitcs/esay-ai-shop/modules/common/storage"
	"github.com/metnitcs/esay-ai-shop/modules/creator"
	"github.com/metnitcs/esay-ai-shop/modules/generate"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "esay-ai-shop",
	})
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	db := database.NewClient()
	if db == nil {
		log.Fatal("❌ Failed to initialize database client")
	}

	uploads := storage.NewClient()
	ledger := credit.NewLedger(db)
	generator := gemini.NewClient()

	if !cfg.HasVideoAuth() {
		log.Println("⚠️ GEMINI_VIDEO_API_KEY not set, video rendering will require authorization")
	}

	rdb := commonredis.Connect(cfg)
	if rdb == nil {
		log.Fatal("❌ Failed to connect to Redis")
	}
	log.Println("✅ Redis connected successfully")

	sessions := creator.NewSessionStore()
	pipeline := creator.NewPipeline(generator, db, uploads, ledger, creator.Costs{
		Image:        cfg.ImageCost,
		Video:        cfg.VideoCost,
		VoiceBase:    cfg.VoiceBaseCost,
		VoicePerClip: cfg.VoicePerClipCost,
	})
	hub := creator.NewHub()
	worker := creator.NewWorker(rdb, sessions, pipeline, hub)

	go worker.Start()

	r := mux.NewRouter()
	r.Use(enableCORS)

	r.HandleFunc("/", healthCheck).Methods("GET")
	r.HandleFunc("/health", healthCheck).Methods("GET")

	creator.NewHandler(sessions, pipeline, worker, hub).RegisterRoutes(r)
	assets.NewHandler(assets.NewService(db, uploads)).RegisterRoutes(r)
	analyze.NewHandler(analyze.NewService(generator, ledger, cfg.AnalysisCost)).RegisterRoutes(r)
	generate.NewHandler(generate.NewService(generator, db, uploads, ledger, generate.Costs{
		Image: cfg.ImageCost,
		Video: cfg.VideoCost,
	})).RegisterRoutes(r)
	comic.NewHandler(comic.NewService(generator, db, uploads, ledger, cfg.ComicCost)).RegisterRoutes(r)

	log.Printf("🚀 Creator Studio server starting on port %s", cfg.Port)
	log.Printf("❤️  Health check: http://localhost:%s/health", cfg.Port)
	log.Printf("📡 Progress WebSocket: ws://localhost:%s/ws/creator/{sessionId}", cfg.Port)

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
