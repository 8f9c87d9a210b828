package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fraudguard/riskengine/internal/alerts"
	"github.com/fraudguard/riskengine/internal/geofence"
	"github.com/fraudguard/riskengine/internal/history"
	"github.com/fraudguard/riskengine/internal/risk"
	"github.com/fraudguard/riskengine/internal/simulator"
	"github.com/fraudguard/riskengine/internal/unfreeze"
	"github.com/fraudguard/riskengine/pkg/common"
	"github.com/fraudguard/riskengine/pkg/config"
	"github.com/fraudguard/riskengine/pkg/database"
	"github.com/fraudguard/riskengine/pkg/health"
	"github.com/fraudguard/riskengine/pkg/logger"
	"github.com/fraudguard/riskengine/pkg/middleware"
	"github.com/fraudguard/riskengine/pkg/ratelimit"
	redispkg "github.com/fraudguard/riskengine/pkg/redis"
	"github.com/fraudguard/riskengine/pkg/resilience"
)

const serviceVersion = "1.0.0"

func main() {
	simulate := flag.Bool("simulate", false, "run a seeded traffic simulation against an in-memory engine and exit")
	simulateSeed := flag.Int64("simulate-seed", 42, "seed for -simulate")
	flag.Parse()

	cfg, err := config.Load("riskengine")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	if *simulate {
		runSimulation(*simulateSeed)
		return
	}

	// PostgreSQL
	pool, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close(pool)

	if err := database.Migrate(&cfg.Database); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database ready", zap.String("host", cfg.Database.Host))

	// Redis
	redisClient, err := redispkg.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("redis ready", zap.String("addr", cfg.Redis.RedisAddr()))

	// NATS, with startup retries so the engine survives broker restarts.
	var natsConn *nats.Conn
	if cfg.NATS.Enabled {
		result, err := resilience.Retry(context.Background(), resilience.DefaultRetryConfig(),
			func(ctx context.Context) (interface{}, error) {
				return nats.Connect(cfg.NATS.URL,
					nats.MaxReconnects(-1),
					nats.ReconnectWait(2*time.Second))
			})
		if err != nil {
			logger.Fatal("failed to connect to nats", zap.Error(err))
		}
		natsConn = result.(*nats.Conn)
		defer natsConn.Close()
		logger.Info("nats ready", zap.String("url", cfg.NATS.URL))
	}

	// Alert fan-out
	alertRepo := alerts.NewRepository(pool)
	publisher := alerts.NewPublisher(natsConn, cfg.NATS.Subject, alertRepo)

	// Verification code dispatch, breaker-wrapped per provider
	contacts := unfreeze.NewStaticDirectory()
	senders := map[string]unfreeze.Sender{}
	if cfg.Twilio.Enabled {
		smsBreaker := resilience.NewCircuitBreaker(resilience.Settings{
			Name:             "twilio",
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
			SuccessThreshold: 2,
		}, nil)
		senders["sms"] = unfreeze.NewSMSSender(&cfg.Twilio, contacts, smsBreaker)
	}
	if cfg.SMTP.Enabled {
		emailBreaker := resilience.NewCircuitBreaker(resilience.Settings{
			Name:             "smtp",
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
			SuccessThreshold: 2,
		}, nil)
		senders["email"] = unfreeze.NewEmailSender(&cfg.SMTP, contacts, emailBreaker)
	}
	unfreezeSvc := unfreeze.NewService(redisClient, senders,
		time.Duration(cfg.Risk.ChallengeTTLMinutes)*time.Minute)

	// Core engine
	store := history.NewRepository(pool)
	zones := geofence.NewIndex()
	engine := risk.NewEngine(store, zones,
		risk.WithUnfreezeService(unfreezeSvc),
		risk.WithAlertSink(publisher),
	)
	riskHandler := risk.NewHandler(engine)
	alertHandler := alerts.NewHandler(alertRepo)

	router := buildRouter(cfg, pool, redisClient, natsConn, riskHandler, alertHandler)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("risk engine listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}

func buildRouter(
	cfg *config.Config,
	pool *pgxpool.Pool,
	redisClient *redispkg.Client,
	natsConn *nats.Conn,
	riskHandler *risk.Handler,
	alertHandler *alerts.Handler,
) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics(cfg.Server.ServiceName))
	router.Use(middleware.SecurityHeaders())
	if cfg.Server.RequestTimeout > 0 {
		router.Use(requestTimeout(time.Duration(cfg.Server.RequestTimeout) * time.Second))
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.CORSOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", middleware.CorrelationIDHeader}
	router.Use(cors.New(corsConfig))

	if cfg.RateLimit.Enabled {
		limiter := ratelimit.NewLimiter(redisClient.Client, cfg.RateLimit)
		router.Use(middleware.RateLimit(limiter))
	}

	router.GET("/healthz", common.HealthCheckWithDeps(cfg.Server.ServiceName, serviceVersion, healthChecks(pool, redisClient, natsConn)))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/events", riskHandler.SubmitEvent)
		api.POST("/events/:id/approve", riskHandler.ApproveEvent)
		api.POST("/events/:id/block", riskHandler.BlockEvent)

		api.GET("/subjects/:id/status", riskHandler.GetAccountStatus)
		api.POST("/subjects/:id/unfreeze", riskHandler.RequestUnfreeze)
		api.POST("/unfreeze/confirm", riskHandler.ConfirmUnfreeze)

		api.GET("/subjects/:id/alerts", alertHandler.ListBySubject)
		api.GET("/alerts/:id", alertHandler.GetAlert)
		api.PATCH("/alerts/:id/status", alertHandler.UpdateStatus)

		api.POST("/locations/assess", riskHandler.AssessLocation)

		// Zone administration requires an authenticated admin token.
		admin := api.Group("/zones", middleware.AuthMiddleware(cfg.JWT.Secret), middleware.RequireRole("admin"))
		{
			admin.POST("", riskHandler.RegisterZone)
			admin.DELETE("/:id", riskHandler.RemoveZone)
		}
	}

	return router
}

// runSimulation feeds a seeded baseline-then-anomaly stream through an
// in-memory engine and logs every decision. Useful for demos and for
// eyeballing threshold changes without a database.
func runSimulation(seed int64) {
	ctx := context.Background()
	engine := risk.NewEngine(history.NewMemoryStore(), geofence.NewIndex())
	gen := simulator.NewGenerator(seed)

	start := time.Now().UTC().AddDate(0, 0, -14).Truncate(24 * time.Hour)
	inputs := gen.Baseline("sim-subject", 10, start)
	inputs = append(inputs, gen.Anomaly("sim-subject", inputs[len(inputs)-1].Timestamp))

	for _, input := range inputs {
		event, decision, err := engine.SubmitEvent(ctx, input)
		if err != nil {
			logger.Error("simulation event rejected", zap.Error(err))
			continue
		}
		logger.Info("simulated decision",
			zap.String("event_id", event.ID.String()),
			zap.String("location", input.Location),
			zap.Float64("amount", input.Amount),
			zap.Float64("risk_score", decision.RiskScore),
			zap.String("risk_level", decision.RiskLevel),
			zap.Bool("froze", decision.Froze),
			zap.String("alert", decision.Alert),
		)
	}

	status := engine.GetAccountStatus("sim-subject")
	logger.Info("simulation complete",
		zap.Bool("active", status.IsActive),
		zap.Int("frozen_channels", len(status.FrozenChannels)),
	)
}

func requestTimeout(d time.Duration) gin.HandlerFunc {
	return timeout.New(
		timeout.WithTimeout(d),
		timeout.WithHandler(func(c *gin.Context) { c.Next() }),
		timeout.WithResponse(func(c *gin.Context) {
			common.ErrorResponse(c, http.StatusRequestTimeout, "request timed out")
		}),
	)
}

func healthChecks(
	pool *pgxpool.Pool,
	redisClient *redispkg.Client,
	natsConn *nats.Conn,
) map[string]func() error {
	checks := map[string]func() error{
		"database": health.DatabaseChecker(pool),
		"redis":    health.RedisChecker(redisClient.Client),
	}
	if natsConn != nil {
		checks["nats"] = health.NATSChecker(natsConn)
	}
	return checks
}
