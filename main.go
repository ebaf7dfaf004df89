package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/inkpress/inkpress/handlers"
	"github.com/inkpress/inkpress/internal/assets"
	"github.com/inkpress/inkpress/internal/authors"
	"github.com/inkpress/inkpress/internal/config"
	"github.com/inkpress/inkpress/internal/database"
	"github.com/inkpress/inkpress/internal/linkcheck"
	"github.com/inkpress/inkpress/internal/oidc"
	posthandler "github.com/inkpress/inkpress/internal/post/handler"
	postservice "github.com/inkpress/inkpress/internal/post/service"
	"github.com/inkpress/inkpress/internal/render"
	"github.com/inkpress/inkpress/internal/sessions"
	"github.com/inkpress/inkpress/pkg/logger"
	"github.com/inkpress/inkpress/pkg/metrics"
	"github.com/inkpress/inkpress/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging first (LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: keycloak=%v mongo=%v redis=%v", cfg.Keycloak.URL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "")
	if cfg.JWT.Secret == "" {
		logger.Warn("JWT_SECRET is not set; set a secure value in production")
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// permissive CORS for dev/test; production fronts this with a stricter proxy
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	ctx := context.Background()

	// Redis early: render cache, sessions, blacklist and the distributed
	// rate limiter all want it.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			sessions.SetBlacklistClient(redisClient)
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// OIDC verifier for protected endpoints
	var verifier middleware.Verifier
	if cfg.Keycloak.URL != "" && cfg.Keycloak.ClientID != "" && cfg.Keycloak.Realm != "" {
		issuer := strings.TrimRight(cfg.Keycloak.URL, "/") + "/realms/" + cfg.Keycloak.Realm
		ver, err := oidc.NewVerifier(ctx, issuer, cfg.Keycloak.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifier = ver
		}
	}
	if verifier == nil && strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
		logger.Warn("enabling insecure OIDC verifier (integration mode)")
		verifier = oidc.NewInsecureVerifier()
	}

	// Sessions: Redis preferred, Mongo fallback below.
	var sessionsSvc *sessions.Service
	if redisClient != nil {
		sessionsSvc = sessions.NewService(sessions.NewRedisRepository(redisClient, "session:"))
		logger.Infof("using Redis for session storage")
	}

	// Mongo: posts, authors, render jobs. Retry with backoff to tolerate
	// startup races against the database container.
	var mongoClient *mongo.Client
	var authorsSvc *authors.Service
	var postSvc postservice.Service
	var jobStore render.Store
	if cfg.MongoDB.URI != "" {
		const maxAttempts = 5
		backoff := time.Second
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			mongoClient, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
			mongoClient = nil
		}
	}
	if mongoClient != nil {
		defer func() { _ = mongoClient.Disconnect(ctx) }()
		db := mongoClient.Database(cfg.MongoDB.Database)
		authorsSvc = authors.NewService(authors.NewMongoRepository(db.Collection("authors")))
		postSvc = postservice.NewMongoService(db.Collection("posts"))
		jobStore = render.NewMongoStore(db.Collection("render_jobs"))
		if sessionsSvc == nil {
			sessionsSvc = sessions.NewService(sessions.NewMongoRepository(db.Collection("sessions")))
		}
	} else {
		postSvc = postservice.NewMemoryService()
		jobStore = render.NewMemoryStore()
		logger.Warnf("MongoDB unavailable; using in-memory post store")
	}

	// MinIO for assets and render artifacts (optional)
	var assetStore *assets.MinIOStorage
	var uploader render.ArtifactUploader
	if mcfg := assets.LoadMinIOConfig(); mcfg.Endpoint != "" {
		assetStore, err = assets.NewMinIOStorage(mcfg)
		if err != nil {
			logger.Warnf("failed to initialize MinIO storage: %v", err)
		} else {
			uploader = assetStore
			logger.Infof("connected to MinIO at %s (bucket %s)", mcfg.Endpoint, mcfg.Bucket)
		}
	}

	renderCache := render.NewCache(redisClient, "render:", cfg.Render.CacheTTL)
	renderMgr := render.NewManager(jobStore, uploader, renderCache)
	checker := linkcheck.NewChecker(nil, cfg.Render.LinkCheckTimeout)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// ready returns 200 only when critical dependencies are available
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["posts"] = postSvc != nil
		if cfg.MongoDB.URI != "" {
			deps["mongo"] = mongoClient != nil
			if mongoClient == nil {
				ready = false
			}
		}
		if cfg.Redis.Host != "" {
			deps["redis"] = redisClient != nil
			if redisClient == nil && cfg.RateLimit.UseRedis {
				ready = false
			}
		}
		if cfg.Keycloak.URL != "" {
			deps["oidc"] = verifier != nil
			if verifier == nil {
				ready = false
			}
		}

		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	// auth handlers need both author and session services
	if authorsSvc != nil && sessionsSvc != nil {
		handlers.NewAuthHandler(cfg, authorsSvc, sessionsSvc).Register(r.Group("/"))
	} else {
		logger.Warnf("auth handlers not registered because author/session services are unavailable")
	}
	handlers.RegisterSwagger(r)

	var authMW gin.HandlerFunc
	if verifier != nil {
		authMW = middleware.AuthMiddleware(verifier)
	}
	site := posthandler.Site{Title: cfg.Site.Title, BaseURL: cfg.Site.BaseURL, Description: cfg.Site.Description}
	posthandler.New(postSvc, renderMgr, renderCache, checker, site).Register(r, authMW)

	if assetStore != nil {
		handlers.NewAssetHandler(assetStore).Register(r, authMW)
	}

	api := r.Group("/api/v1")
	if verifier != nil {
		api.GET("/me", middleware.AuthMiddleware(verifier), func(c *gin.Context) {
			claims, _ := c.Get("claims")
			if authorsSvc != nil {
				if cm, ok := claims.(map[string]interface{}); ok {
					a, err := authorsSvc.UpsertFromClaims(c.Request.Context(), cm)
					if err == nil && a != nil {
						c.JSON(http.StatusOK, gin.H{"author": a})
						return
					}
				}
			}
			c.JSON(http.StatusOK, gin.H{"claims": claims})
		})
	} else {
		api.GET("/me", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "OIDC not configured"})
		})
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting inkpress on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
