// Inkwell - blog backend with live change notifications.
//
// This is the main entry point. It serves the REST API for authors and
// posts, issues bearer tokens, and pushes a short text notification to
// every connected WebSocket client whenever content changes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nerrad567/inkwell/internal/api"
	"github.com/nerrad567/inkwell/internal/audit"
	"github.com/nerrad567/inkwell/internal/auth"
	"github.com/nerrad567/inkwell/internal/blog"
	"github.com/nerrad567/inkwell/internal/infrastructure/config"
	"github.com/nerrad567/inkwell/internal/infrastructure/database"
	"github.com/nerrad567/inkwell/internal/infrastructure/influxdb"
	"github.com/nerrad567/inkwell/internal/infrastructure/logging"
	"github.com/nerrad567/inkwell/internal/infrastructure/mqtt"
	"github.com/nerrad567/inkwell/internal/notify"
	"github.com/nerrad567/inkwell/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

const redisPingTimeout = 3 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Inkwell",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx, migrations.FS, "."); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", db.Path())

	// Optional: delivery telemetry
	var influxClient *influxdb.Client
	hubOpts := []notify.HubOption{notify.WithAllowedOrigins(cfg.API.CORS.AllowedOrigins)}
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		hubOpts = append(hubOpts, notify.WithRecorder(&influxRecorder{client: influxClient, site: cfg.Site.ID}))
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	hub := notify.NewHub(cfg.WebSocket, log, hubOpts...)
	hubDone := make(chan struct{})
	hubCtx, stopHub := context.WithCancel(context.Background())
	go func() {
		defer close(hubDone)
		hub.Run(hubCtx)
	}()
	defer func() {
		log.Info("closing notification sessions", "sessions", hub.SessionCount())
		stopHub()
		<-hubDone
	}()

	if influxClient != nil {
		go reportSessions(ctx, hub, influxClient, cfg.Site.ID, time.Duration(cfg.InfluxDB.FlushInterval)*time.Second)
	}

	// Optional: cross-instance relay
	var notifier notify.Notifier = hub
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() { log.Info("MQTT connected") })
		mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })

		relay, relayErr := notify.NewRelay(hub,
			&mqttBus{client: mqttClient},
			instanceOrigin(cfg.Site.ID),
			mqttClient.Topics().Notifications(),
			log,
		)
		if relayErr != nil {
			return fmt.Errorf("creating notification relay: %w", relayErr)
		}
		if startErr := relay.Start(); startErr != nil {
			return fmt.Errorf("starting notification relay: %w", startErr)
		}
		relayDone := make(chan struct{})
		relayCtx, stopRelay := context.WithCancel(context.Background())
		go func() {
			defer close(relayDone)
			relay.Run(relayCtx)
		}()
		// Runs before the MQTT close above, so queued envelopes still go out.
		defer func() {
			stopRelay()
			<-relayDone
		}()
		notifier = relay
	} else {
		log.Info("MQTT relay disabled")
	}

	// Optional: login throttle
	var throttle auth.Throttle
	if cfg.Security.LoginThrottle.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			if closeErr := redisClient.Close(); closeErr != nil {
				log.Error("error closing Redis", "error", closeErr)
			}
		}()

		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		pingErr := redisClient.Ping(pingCtx).Err()
		cancel()
		if pingErr != nil {
			// The throttle fails open, so a missing Redis only disables it.
			log.Warn("Redis unreachable, login throttle will fail open", "addr", cfg.Redis.Addr, "error", pingErr)
		}
		throttle = auth.NewLoginThrottle(redisClient,
			cfg.Security.LoginThrottle.MaxAttempts,
			cfg.GetLoginThrottleWindow(),
		)
		log.Info("login throttle enabled", "max_attempts", cfg.Security.LoginThrottle.MaxAttempts)
	}

	issuer, err := auth.NewTokenIssuer(cfg.Security.JWT.Secret, cfg.GetAccessTokenTTL())
	if err != nil {
		return fmt.Errorf("creating token issuer: %w", err)
	}
	authService := auth.NewService(auth.ServiceDeps{
		Users:    auth.NewUserRepository(db.DB),
		Issuer:   issuer,
		Throttle: throttle,
		Logger:   log,
	})

	blogRepo := blog.NewSQLiteRepository(db.DB)
	auditRepo := audit.NewSQLiteRepository(db.DB)

	apiDeps := api.Deps{
		Config:        cfg.API,
		WS:            cfg.WebSocket,
		Logger:        log,
		DB:            db,
		Hub:           hub,
		Notifier:      notifier,
		Auth:          authService,
		Gate:          auth.NewGate(issuer),
		Authors:       blogRepo,
		Posts:         blogRepo,
		AuditRepo:     auditRepo,
		AuditRecorder: audit.NewRecorder(auditRepo, audit.DefaultQueueSize, log),
		Version:       version,
	}
	if mqttClient != nil {
		apiDeps.Bus = mqttClient
	}

	server, err := api.New(apiDeps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal",
		"address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		"ws_path", cfg.WebSocket.Path,
	)

	<-ctx.Done()

	// Deferred Close() calls run in reverse order: API server, Redis,
	// relay publisher, MQTT, notification sessions, InfluxDB, database.
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses INKWELL_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("INKWELL_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// instanceOrigin tags relayed notifications so an instance can ignore its
// own echoes. Instances sharing a site id still get distinct origins.
func instanceOrigin(siteID string) string {
	return siteID + "/" + uuid.NewString()[:8]
}

// healthCheck verifies infrastructure connections. mqttClient and
// influxClient may be nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// reportSessions writes the open socket count every interval.
func reportSessions(ctx context.Context, hub *notify.Hub, client *influxdb.Client, site string, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			client.WriteSessionCount(site, hub.SessionCount())
		}
	}
}

// mqttBus adapts the infrastructure MQTT client to notify.Bus.
// The primary difference is the handler signature:
// - Infrastructure mqtt: func(topic, payload []byte) error
// - notify.Bus expects: func(payload []byte)
type mqttBus struct {
	client *mqtt.Client
}

// Publish implements notify.Bus.
func (b *mqttBus) Publish(topic string, payload []byte) error {
	return b.client.PublishDefault(topic, payload)
}

// Subscribe implements notify.Bus.
func (b *mqttBus) Subscribe(topic string, handler func(payload []byte)) error {
	qos := byte(b.client.QoS())
	return b.client.Subscribe(topic, qos, func(_ string, p []byte) error {
		handler(p)
		return nil
	})
}

// influxRecorder adapts the InfluxDB client to notify.Recorder.
type influxRecorder struct {
	client *influxdb.Client
	site   string
}

// RecordBroadcast implements notify.Recorder.
func (r *influxRecorder) RecordBroadcast(rep notify.Report) {
	r.client.WriteBroadcastStats(r.site, rep.Attempted, rep.Delivered, rep.Dropped)
}
