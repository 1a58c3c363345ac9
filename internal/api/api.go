package api

import (
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ethanbaker/recap/internal/captions"
	"github.com/ethanbaker/recap/internal/chat"
	"github.com/ethanbaker/recap/internal/orchestrator"
	"github.com/ethanbaker/recap/internal/stores/video"
	"github.com/ethanbaker/recap/pkg/transcript"
	"github.com/ethanbaker/recap/pkg/utils"

	health_module "github.com/ethanbaker/recap/internal/api/modules/health"
	video_module "github.com/ethanbaker/recap/internal/api/modules/video"
)

func Start(cfg *utils.Config) {
	// Initialized configuration settings
	port := cfg.GetWithDefault("API_PORT", "8080")

	// Build the session store and start its background sweeper
	store := video.NewStore(
		cfg.GetDurationWithDefault("CACHE_ABSOLUTE_TTL", video.DefaultAbsoluteTTL),
		cfg.GetDurationWithDefault("CACHE_SLIDING_TTL", video.DefaultSlidingTTL),
	)
	if err := store.StartSweeper(cfg.GetWithDefault("CACHE_SWEEP_SPEC", "@every 10m")); err != nil {
		log.Fatal("[API-MAIN]: Failed to start cache sweeper: ", err)
	}
	defer store.Stop()

	// Build the external collaborators
	completer, err := chat.NewClient(cfg)
	if err != nil {
		log.Fatal("[API-MAIN]: Failed to create chat client: ", err)
	}

	source := captions.NewYouTube(
		captions.WithLanguage(cfg.GetWithDefault("CAPTION_LANGUAGE", "en")),
	)

	chunker := transcript.NewChunker(
		cfg.GetIntWithDefault("CHUNK_SIZE_CHARS", transcript.DefaultChunkSize),
		cfg.GetIntWithDefault("CHUNK_OVERLAP_CHARS", transcript.DefaultChunkOverlap),
	)

	prompts, err := orchestrator.LoadPrompts(cfg.Get("PROMPTS_FILE"))
	if err != nil {
		log.Fatal("[API-MAIN]: Failed to load prompts: ", err)
	}

	orch := orchestrator.New(source, completer, store, chunker, prompts)

	// Add app level settings/routes
	engine := gin.Default()

	// Add trusted proxies
	engine.SetTrustedProxies(nil)

	// Add CORS using gin-contrib/cors (https://github.com/gin-contrib/cors for documentation)
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.GetWithDefault("CORS_ALLOWED_ORIGINS", "*"), ","),
		AllowMethods:     []string{"OPTIONS", "GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Base group '/api' for all API routes
	baseGroup := engine.Group("/api")

	// Adding custom modules
	health_module.RegisterRoutes(baseGroup)

	video_module.RegisterRoutes(baseGroup, orch)

	// Then after performing initial setup, start the server
	if err := engine.Run(":" + port); err != nil {
		log.Fatal("[API-MAIN]: Failed to start server: ", err)
	}
}
