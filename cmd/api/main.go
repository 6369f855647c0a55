package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"qrattend/internal/assets"
	"qrattend/internal/auth"
	"qrattend/internal/config"
	"qrattend/internal/directory"
	"qrattend/internal/httpmiddleware"
	"qrattend/internal/ledger"
	"qrattend/internal/queue"
	"qrattend/internal/scan"
	"qrattend/internal/station"
	"qrattend/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx := context.Background()

	var (
		db       *store.DB
		dirRepo  directory.Repository
		ledStore ledger.Store
		stations station.Registry
	)
	if cfg.StoreBackend == "memory" {
		dirRepo = directory.NewMemoryRepository()
		ledStore = ledger.NewMemoryStore()
		stations = station.NewMemoryRegistry()
		log.Println("using in-memory stores (STORE_BACKEND=memory)")
	} else {
		var err error
		db, err = store.NewDB(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db connect failed: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("db migrate failed: %w", err)
		}
		dirRepo = directory.NewPostgresRepository(db.Client)
		ledStore = ledger.NewPostgresStore(db.Client)
		stations = station.NewPostgresRegistry(db.Client)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "qrattend:outcomes")
	}

	var assetStore assets.Store
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		assetStore = assets.NewCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		log.Println("Cloudinary asset store configured:", cfg.CloudinaryCloudName)
	} else {
		assetStore = assets.NewLocal(cfg.AssetDir)
	}

	dir := directory.NewService(dirRepo, assetStore)
	led := ledger.NewService(dir, ledStore)
	pipelines := newPipelineSet(cfg, led, assetStore, q)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db != nil || cfg.StoreBackend == "memory"
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/v1/stations/register", func(c *gin.Context) {
		var req struct {
			StationID string `json:"station_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := stations.Register(c.Request.Context(), req.StationID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		tokens, err := auth.Issue(req.StationID, "station", cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}

		_ = stations.SaveRefreshToken(c.Request.Context(), req.StationID, tokens.RefreshToken, tokens.RefreshExp)

		c.JSON(http.StatusCreated, gin.H{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
		})
	})

	authGroup := r.Group("/v1", auth.StationAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	// One camera frame in, one annotated frame (or outcome JSON) out.
	authGroup.POST("/frames", func(c *gin.Context) {
		claimsAny, _ := c.Get("claims")
		claims, _ := claimsAny.(auth.Claims)

		img := readFrame(c)
		res := pipelines.get(claims.Subject).Process(c.Request.Context(), img, time.Now())

		if c.Query("annotated") == "1" && res.Frame != nil {
			var buf bytes.Buffer
			if err := png.Encode(&buf, res.Frame); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "encode annotated frame failed"})
				return
			}
			c.Data(http.StatusOK, "image/png", buf.Bytes())
			return
		}

		body := gin.H{"detected": res.Detection != nil}
		if res.Outcome != nil {
			body["outcome"] = res.Outcome.Kind.String()
			if res.Outcome.Record != nil {
				body["record"] = res.Outcome.Record
			}
		}
		c.JSON(http.StatusOK, body)
	})

	// UI shell polls the latest feedback; a missed outcome event self-heals here.
	authGroup.GET("/feedback", func(c *gin.Context) {
		claimsAny, _ := c.Get("claims")
		claims, _ := claimsAny.(auth.Claims)

		fb, ok := pipelines.get(claims.Subject).Feedback(time.Now())
		if !ok {
			c.JSON(http.StatusOK, gin.H{"state": "idle"})
			return
		}
		body := gin.H{
			"state":      "resolved",
			"outcome":    fb.Outcome.Kind.String(),
			"version":    fb.Version,
			"expires_at": fb.ExpiresAt,
		}
		if fb.Outcome.Record != nil {
			body["record"] = fb.Outcome.Record
		}
		c.JSON(http.StatusOK, body)
	})

	authGroup.POST("/users", func(c *gin.Context) {
		name := c.PostForm("name")
		roll := c.PostForm("roll_number")
		branch := c.PostForm("branch")

		var faceImage []byte
		if file, _, err := c.Request.FormFile("image"); err == nil {
			defer file.Close()
			faceImage, _ = io.ReadAll(io.LimitReader(file, 8<<20))
		}

		user, exists, err := dir.Register(c.Request.Context(), name, roll, branch, faceImage)
		if err != nil {
			status := http.StatusInternalServerError
			if err == directory.ErrMissingFields {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		status := http.StatusCreated
		if exists {
			status = http.StatusOK
		}
		c.JSON(status, gin.H{"user": user, "already_registered": exists})
	})

	authGroup.GET("/users", func(c *gin.Context) {
		users, err := dir.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users})
	})

	authGroup.GET("/users/:id/qr", func(c *gin.Context) {
		user, err := dir.Lookup(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if user == nil || user.QRPath == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		if strings.HasPrefix(user.QRPath, "https://") {
			c.Redirect(http.StatusFound, user.QRPath)
			return
		}
		rc, err := assetStore.Open(user.QRPath)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "qr badge missing"})
			return
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "read qr badge failed"})
			return
		}
		c.Data(http.StatusOK, "image/png", data)
	})

	authGroup.GET("/attendance", func(c *gin.Context) {
		var (
			records []ledger.Record
			err     error
		)
		if day := c.Query("date"); day != "" {
			records, err = led.ListByDay(c.Request.Context(), day)
		} else {
			records, err = led.ListAll(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": records})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete. Ledger writes are
	// single-statement atomic, so shutdown never leaves a partial record.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// readFrame decodes the uploaded frame from a multipart "frame" field or the
// raw request body. An unreadable frame returns nil, which the pipeline
// treats as a decode miss.
func readFrame(c *gin.Context) image.Image {
	var reader io.Reader
	if file, _, err := c.Request.FormFile("frame"); err == nil {
		defer file.Close()
		reader = file
	} else {
		reader = c.Request.Body
	}
	img, _, err := image.Decode(io.LimitReader(reader, 16<<20))
	if err != nil {
		return nil
	}
	return img
}

// pipelineSet lazily creates one pipeline per station: each frame stream has
// its own gate and feedback state.
type pipelineSet struct {
	mu        sync.Mutex
	cfg       config.App
	ledger    *ledger.Service
	assets    assets.Store
	sink      queue.Queue
	pipelines map[string]*scan.Pipeline
}

func newPipelineSet(cfg config.App, led *ledger.Service, store assets.Store, sink queue.Queue) *pipelineSet {
	return &pipelineSet{
		cfg:       cfg,
		ledger:    led,
		assets:    store,
		sink:      sink,
		pipelines: make(map[string]*scan.Pipeline),
	}
}

func (s *pipelineSet) get(stationID string) *scan.Pipeline {
	if stationID == "" {
		stationID = "default"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pipelines[stationID]
	if !ok {
		p = scan.NewPipeline(scan.Options{
			Station:        stationID,
			DebounceWindow: s.cfg.DebounceWindow,
			FeedbackTTL:    s.cfg.FeedbackTTL,
		}, s.ledger, s.assets, s.sink)
		s.pipelines[stationID] = p
	}
	return p
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
