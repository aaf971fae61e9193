package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/vaahana-ai/vaahana/audiostore"
	"github.com/vaahana-ai/vaahana/auth"
	"github.com/vaahana-ai/vaahana/conversation"
	"github.com/vaahana-ai/vaahana/pkg/config"
	"github.com/vaahana-ai/vaahana/pkg/errx"
	"github.com/vaahana-ai/vaahana/pkg/logx"
	"github.com/vaahana-ai/vaahana/places"
	"github.com/vaahana-ai/vaahana/policy"
	"github.com/vaahana-ai/vaahana/rideapi"
	"github.com/vaahana-ai/vaahana/session"
	"github.com/vaahana-ai/vaahana/session/sessioninfra"
	"github.com/vaahana-ai/vaahana/session/sessionsrv"
	"github.com/vaahana-ai/vaahana/speech"
	"github.com/vaahana-ai/vaahana/translate"
)

const (
	serviceName    = "Vaahana Ride Assistant"
	serviceVersion = "1.0.0"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logx.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	initLogger(cfg)

	logx.Infof("🚀 Starting %s...", serviceName)
	logx.Infof("Environment: %s", cfg.Server.Environment)

	ctx := context.Background()

	// 3. Initialize Core Dependencies

	// --- A. Session Store ---
	store, closeStore := initSessionStore(ctx, cfg)
	defer closeStore()
	sessions := sessionsrv.NewSessionService(store)

	// --- B. Translation (Google Translate) ---
	translator, err := translate.NewGoogleTranslator(ctx, cfg.Google.TranslateAPIKey, session.Language(cfg.Language.Default))
	if err != nil {
		logx.Fatalf("❌ Failed to initialize translator: %v", err)
	}
	defer translator.Close()
	logx.Info("✅ Translator initialized")

	// --- C. Location Resolution (Google Places) ---
	var placeOpts []places.Option
	if cfg.Google.PlacesBiasLat != 0 || cfg.Google.PlacesBiasLng != 0 {
		placeOpts = append(placeOpts, places.WithBias(cfg.Google.PlacesBiasLat, cfg.Google.PlacesBiasLng))
	}
	resolver, err := places.NewResolver(cfg.Google.MapsAPIKey, placeOpts...)
	if err != nil {
		logx.Fatalf("❌ Failed to initialize places resolver: %v", err)
	}
	logx.Info("✅ Places resolver initialized")

	// --- D. Ride Provider ---
	rides := rideapi.NewClient(rideapi.Config{
		BaseURL:   cfg.RideAPI.BaseURL,
		Timeout:   cfg.RideAPI.Timeout,
		PhoneCode: cfg.RideAPI.PhoneCode,
	})
	logx.Infof("✅ Ride provider client ready (%s)", cfg.RideAPI.BaseURL)

	// --- E. Speech (Optional) ---
	var transcriber conversation.Transcriber
	if cfg.OpenAI.APIKey != "" {
		whisper, err := speech.NewWhisperTranscriber(cfg.OpenAI.APIKey, cfg.OpenAI.WhisperModel)
		if err != nil {
			logx.Warnf("⚠️ Voice input disabled: %v", err)
		} else {
			transcriber = whisper
			logx.Info("✅ Speech-to-text ready (Whisper)")
		}
	} else {
		logx.Warn("⚠️ OPENAI_API_KEY not set. Voice input disabled.")
	}

	var synthesizer conversation.Synthesizer
	tts, err := speech.NewGoogleSynthesizer(ctx, cfg.Google.CredentialsFile, cfg.Voice.SpeakingRate)
	if err != nil {
		logx.Warnf("⚠️ Text-to-speech disabled: %v", err)
	} else {
		synthesizer = tts
		defer tts.Close()
		logx.Info("✅ Text-to-speech ready")
	}

	// --- F. Audio Store ---
	var audio conversation.AudioStore
	var localAudio *audiostore.LocalStore
	switch cfg.Audio.Backend {
	case config.AudioBackendS3:
		s3store, err := audiostore.NewS3Store(ctx, cfg.AWS.Region, cfg.Audio.S3Bucket, cfg.Audio.S3Prefix, cfg.Audio.URLTTL)
		if err != nil {
			logx.Fatalf("❌ Failed to initialize S3 audio store: %v", err)
		}
		audio = s3store
		logx.Infof("✅ Audio store: s3://%s/%s", cfg.Audio.S3Bucket, cfg.Audio.S3Prefix)
	default:
		local, err := audiostore.NewLocalStore(cfg.Audio.Dir)
		if err != nil {
			logx.Fatalf("❌ Failed to initialize local audio store: %v", err)
		}
		localAudio = local
		audio = local
		startAudioSweeper(local, cfg.Audio.URLTTL)
		logx.Info("✅ Audio store: local directory")
	}

	// --- G. Bedrock Agent (Optional) ---
	var agent *policy.Agent
	if cfg.AWS.BedrockAgentID != "" && cfg.AWS.BedrockAgentAliasID != "" {
		agent, err = policy.NewAgent(ctx, cfg.AWS.Region, cfg.AWS.BedrockAgentID, cfg.AWS.BedrockAgentAliasID)
		if err != nil {
			logx.Warnf("⚠️ Bedrock agent unavailable: %v", err)
			agent = nil
		} else {
			logx.Info("✅ Bedrock agent client ready")
		}
	} else {
		logx.Info("ℹ️ Bedrock agent not configured (direct agent chat disabled)")
	}
	actions := policy.NewRouter(resolver, rides)

	// --- H. API Auth (Optional) ---
	var authSvc *auth.Service
	if cfg.Auth.Enabled {
		authSvc, err = auth.NewService(auth.Config{
			SecretKey:        cfg.Auth.SecretKey,
			ClientID:         cfg.Auth.ClientID,
			ClientSecretHash: cfg.Auth.ClientSecretHash,
			TokenTTL:         cfg.Auth.TokenTTL,
		})
		if err != nil {
			logx.Fatalf("❌ Failed to initialize auth service: %v", err)
		}
		logx.Info("✅ API auth enabled (bearer tokens)")
	} else {
		logx.Info("ℹ️ API auth disabled")
	}

	// --- I. Conversation Orchestrator ---
	orch := conversation.NewOrchestrator(conversation.Config{
		Sessions:        sessions,
		Translator:      translator,
		Transcriber:     transcriber,
		Synthesizer:     synthesizer,
		Locations:       resolver,
		Rides:           rides,
		Audio:           audio,
		DefaultLanguage: session.Language(cfg.Language.Default),
	})

	// 4. Create Fiber App
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler(),
		// Voice uploads run up to 25MB before multipart overhead.
		BodyLimit:   30 * 1024 * 1024,
		IdleTimeout: 120 * time.Second,
	})

	// 5. Middleware
	setupMiddleware(app, cfg)

	// 6. Routes
	registerRoutes(app, orch, serverDeps{
		agent:      agent,
		actions:    actions,
		authSvc:    authSvc,
		localAudio: localAudio,
	})

	// 7. Start Server
	startServer(app, cfg)
}

// ============================================================================
// Session Store Initialization
// ============================================================================

// initSessionStore builds the configured store. When the backing service
// is unreachable it falls back to the in-memory store so the assistant
// still answers on a single instance.
func initSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func()) {
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logx.Warnf("⚠️ Redis not available: %v", err)
			logx.Info("ℹ️ Falling back to in-memory sessions (single instance only)")
			client.Close()
			return session.NewMemoryStore(session.WithMemoryTTL(cfg.Session.TTL)), func() {}
		}
		logx.Info("✅ Redis session store connected")
		return sessioninfra.NewRedisStore(client, sessioninfra.WithRedisTTL(cfg.Session.TTL)), func() { client.Close() }

	case config.SessionBackendPostgres:
		db, err := initDatabase(cfg)
		if err != nil {
			logx.Warnf("⚠️ Database not available: %v", err)
			logx.Info("ℹ️ Falling back to in-memory sessions (single instance only)")
			return session.NewMemoryStore(session.WithMemoryTTL(cfg.Session.TTL)), func() {}
		}
		store := sessioninfra.NewPostgresStore(db, sessioninfra.WithPostgresTTL(cfg.Session.TTL))
		if err := store.Migrate(ctx); err != nil {
			logx.Fatalf("❌ Failed to migrate session table: %v", err)
		}
		startSessionReaper(store)
		logx.Info("✅ Postgres session store connected")
		return store, func() { db.Close() }

	default:
		logx.Info("ℹ️ Using in-memory session store (single instance only)")
		return session.NewMemoryStore(session.WithMemoryTTL(cfg.Session.TTL)), func() {}
	}
}

func initDatabase(cfg *config.Config) (*sqlx.DB, error) {
	logx.WithFields(logx.Fields{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
		"db":   cfg.Database.Name,
	}).Debug("Connecting to database")

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ============================================================================
// Background Jobs
// ============================================================================

// startSessionReaper deletes expired Postgres rows on a timer. Redis and
// the memory store expire entries on their own.
func startSessionReaper(store *sessioninfra.PostgresStore) {
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			n, err := store.DeleteExpired(context.Background())
			if err != nil {
				logx.WithError(err).Warn("Expired session sweep failed")
				continue
			}
			if n > 0 {
				logx.WithField("deleted", n).Debug("Expired sessions reaped")
			}
		}
	}()
}

// startAudioSweeper removes synthesized replies from disk once their
// URLs have gone stale.
func startAudioSweeper(store *audiostore.LocalStore, ttl time.Duration) {
	if ttl <= 0 {
		ttl = time.Hour
	}
	go func() {
		ticker := time.NewTicker(ttl)
		defer ticker.Stop()
		for range ticker.C {
			store.Sweep(ttl)
		}
	}()
}

// ============================================================================
// Routes
// ============================================================================

type serverDeps struct {
	agent      *policy.Agent
	actions    *policy.Router
	authSvc    *auth.Service
	localAudio *audiostore.LocalStore
}

func registerRoutes(app *fiber.App, orch *conversation.Orchestrator, deps serverDeps) {
	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status":  "healthy",
			"service": serviceName,
			"version": serviceVersion,
		}

		if err := orch.Health(c.Context()); err != nil {
			health["status"] = "degraded"
			health["error"] = err.Error()
		}

		return c.JSON(health)
	})

	// Service banner
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service":     serviceName,
			"version":     serviceVersion,
			"description": "Multilingual ride booking assistant with voice and chat support",
			"endpoints": fiber.Map{
				"chat":   "/api/v1/chat",
				"voice":  "/api/v1/voice",
				"health": "/health",
			},
		})
	})

	// Synthesized replies served from disk when the local audio store is
	// active. The S3 store hands out presigned URLs instead.
	if deps.localAudio != nil {
		app.Get("/audio/:filename", func(c *fiber.Ctx) error {
			return c.SendFile(deps.localAudio.Path(c.Params("filename")))
		})
	}

	// The token endpoint stays outside the bearer guard.
	if deps.authSvc != nil {
		app.Post("/api/v1/auth/token", func(c *fiber.Ctx) error {
			var req struct {
				ClientID     string `json:"client_id"`
				ClientSecret string `json:"client_secret"`
			}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid request body",
				})
			}

			token, err := deps.authSvc.IssueToken(req.ClientID, req.ClientSecret)
			if err != nil {
				return err
			}
			return c.JSON(token)
		})
	}

	api := app.Group("/api/v1")
	if deps.authSvc != nil {
		api.Use(auth.Middleware(deps.authSvc))
	}

	// ========================================================================
	// Conversation Endpoints
	// ========================================================================

	// 1. Text chat
	api.Post("/chat", func(c *fiber.Ctx) error {
		var req conversation.ChatRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		resp, err := orch.ProcessChat(c.Context(), req)
		if err != nil {
			return err
		}

		return c.JSON(resp)
	})

	// 2. Voice chat (multipart upload)
	api.Post("/voice", func(c *fiber.Ctx) error {
		file, err := c.FormFile("audio_file")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "audio_file is required",
			})
		}
		if ct := file.Header.Get(fiber.HeaderContentType); ct != "" && !strings.HasPrefix(ct, "audio/") {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "File must be an audio file",
			})
		}

		src, err := file.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Could not read audio_file",
			})
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Could not read audio_file",
			})
		}

		resp, err := orch.ProcessVoice(c.Context(), conversation.VoiceRequest{
			Audio:     data,
			Filename:  file.Filename,
			SessionID: c.FormValue("session_id", c.Query("session_id")),
			UserID:    c.FormValue("user_id", c.Query("user_id")),
		})
		if err != nil {
			return err
		}

		return c.JSON(resp)
	})

	// ========================================================================
	// Session Management Endpoints
	// ========================================================================

	// List sessions for a user
	api.Get("/sessions", func(c *fiber.Ctx) error {
		userID := c.Query("user_id")
		if userID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "user_id query parameter is required",
			})
		}

		limit := c.QueryInt("limit", 20)

		recs, err := orch.ListUserSessions(c.Context(), userID, limit)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"sessions": recs,
			"count":    len(recs),
			"user_id":  userID,
		})
	})

	// Get session by ID
	api.Get("/sessions/:session_id", func(c *fiber.Ctx) error {
		rec, err := orch.GetSession(c.Context(), c.Params("session_id"))
		if err != nil {
			return err
		}
		return c.JSON(rec)
	})

	// Extend session TTL
	api.Post("/sessions/:session_id/extend", func(c *fiber.Ctx) error {
		sessionID := c.Params("session_id")
		if err := orch.ExtendSession(c.Context(), sessionID); err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"session_id": sessionID,
			"extended":   true,
		})
	})

	// Delete session
	api.Delete("/sessions/:session_id", func(c *fiber.Ctx) error {
		if err := orch.DeleteSession(c.Context(), c.Params("session_id")); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	// ========================================================================
	// Ride Endpoints
	// ========================================================================

	api.Post("/rides/:ride_id/cancel", func(c *fiber.Ctx) error {
		rideID, err := parseRideID(c)
		if err != nil {
			return err
		}
		if err := orch.CancelRideByID(c.Context(), rideID); err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"ride_id":   rideID,
			"cancelled": true,
		})
	})

	api.Get("/rides/:ride_id/status", func(c *fiber.Ctx) error {
		rideID, err := parseRideID(c)
		if err != nil {
			return err
		}
		info, err := orch.RideStatusByID(c.Context(), rideID)
		if err != nil {
			return err
		}
		return c.JSON(info)
	})

	// ========================================================================
	// Bedrock Agent Endpoints
	// ========================================================================

	// Action group executor. The agent posts its tool invocations here.
	api.Post("/agent/actions", func(c *fiber.Ctx) error {
		var req policy.ActionRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
		return c.JSON(deps.actions.Dispatch(c.Context(), &req))
	})

	// Direct agent turn, bypassing the state machine.
	api.Post("/agent/chat", func(c *fiber.Ctx) error {
		if deps.agent == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Bedrock agent is not configured",
			})
		}

		var req struct {
			Message   string `json:"message"`
			SessionID string `json:"session_id"`
		}
		if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Message) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "message is required",
			})
		}

		sessionID := req.SessionID
		if sessionID == "" {
			sessionID = uuid.New().String()
		}

		reply, err := deps.agent.Invoke(c.Context(), sessionID, req.Message)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"response":   reply,
			"session_id": sessionID,
		})
	})
}

func parseRideID(c *fiber.Ctx) (int64, error) {
	rideID, err := strconv.ParseInt(c.Params("ride_id"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "ride_id must be numeric")
	}
	return rideID, nil
}

// ============================================================================
// Setup & Configuration
// ============================================================================

func initLogger(cfg *config.Config) {
	switch cfg.Server.LogLevel {
	case "debug":
		logx.SetLevel(logx.LevelDebug)
	case "trace":
		logx.SetLevel(logx.LevelTrace)
	case "warn":
		logx.SetLevel(logx.LevelWarn)
	case "error":
		logx.SetLevel(logx.LevelError)
	default:
		logx.SetLevel(logx.LevelInfo)
	}
	logx.SetPretty(cfg.IsDevelopment())

	logx.WithField("level", cfg.Server.LogLevel).Info("Logger initialized")
}

func setupMiddleware(app *fiber.App, cfg *config.Config) {
	// Recover from panics
	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.IsDevelopment(),
	}))

	// Request ID
	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
	}))

	// CORS
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Request logging
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
}

func globalErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		logx.WithFields(logx.Fields{
			"path":       c.Path(),
			"method":     c.Method(),
			"request_id": c.Get("X-Request-ID"),
		}).Errorf("Request error: %v", err)

		if e, ok := err.(*errx.Error); ok {
			return c.Status(e.HTTPStatus).JSON(fiber.Map{
				"error":  e.Message,
				"code":   e.Code,
				"status": e.HTTPStatus,
			})
		}

		if e, ok := err.(*fiber.Error); ok {
			return c.Status(e.Code).JSON(fiber.Map{
				"error": e.Message,
			})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal Server Error",
		})
	}
}

func startServer(app *fiber.App, cfg *config.Config) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	go func() {
		logx.Infof("🚀 Server listening on %s", addr)
		logx.Infof("📡 Health check: http://localhost:%d/health", cfg.Server.Port)
		if err := app.Listen(addr); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logx.Info("🛑 Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}

	logx.Info("✅ Server exited gracefully")
}
