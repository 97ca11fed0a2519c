package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nerrad567/show-logic-core/internal/action"
	"github.com/nerrad567/show-logic-core/internal/api"
	"github.com/nerrad567/show-logic-core/internal/audit"
	"github.com/nerrad567/show-logic-core/internal/dispatch"
	"github.com/nerrad567/show-logic-core/internal/infrastructure/config"
	"github.com/nerrad567/show-logic-core/internal/infrastructure/database"
	"github.com/nerrad567/show-logic-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/show-logic-core/internal/infrastructure/logging"
	"github.com/nerrad567/show-logic-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/show-logic-core/internal/notify"
	"github.com/nerrad567/show-logic-core/internal/remote"
	"github.com/nerrad567/show-logic-core/internal/showstate"
	"github.com/nerrad567/show-logic-core/migrations"
)

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the action engine, MQTT listener and HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

// runServe starts every component in dependency order and blocks until ctx
// is cancelled. Deferred closes run in reverse order on the way out.
func runServe(ctx context.Context, opts *options) error {
	log := logging.Default()
	log.Info("starting Show Logic Core",
		"version", opts.info.Version,
		"commit", opts.info.Commit,
		"build_date", opts.info.Date,
	)

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	log.Info("configuration loaded", "path", opts.configPath)

	log = logging.New(cfg.Logging, opts.info.Version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database ready", "path", cfg.Database.Path)

	registry := action.NewRegistry(action.NewSQLiteRepository(db.DB))
	registry.SetLogger(log.Component("registry"))
	if refreshErr := registry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading action registry: %w", refreshErr)
	}
	log.Info("action registry initialised", "actions", registry.GetActionCount())

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.Component("mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	}

	// Trigger dispatch: the listed keys go out over MQTT, the engine adds
	// its own run_action and toggle_action below.
	triggers := dispatch.NewTable()
	publisher := dispatch.NewPublisher(mqttClient, mqttClient.QoS(), cfg.Engine.PublishQueueSize)
	publisher.SetLogger(log.Component("dispatch"))
	publisher.RegisterAll(triggers, cfg.Engine.MQTTTriggers)
	publisher.Start(ctx)
	defer publisher.Close()

	state := showstate.NewStore()

	notices := notify.NewCenter()
	notices.SetLogger(log.Component("notify"))
	go notices.Forward(ctx, mqttClient, mqtt.Topics{}.CoreNotify())

	engineOpts := action.EngineOptions{
		Store:      registry,
		Dispatcher: triggers,
		History:    action.NewHistoryLog(cfg.Engine.HistoryLimit),
		Slides:     state,
		Notifier:   notices,
		Expander:   action.NewTemplateExpander(stateValues(state)),
		Logger:     log.Component("engine"),
		Config: action.EngineConfig{
			RunningLinger:   cfg.Engine.RunningLinger(),
			ClearSlideDelay: cfg.Engine.ClearSlideDelay(),
			MaxNestedRuns:   cfg.Engine.MaxNestedRuns,
		},
	}
	if influxClient != nil {
		engineOpts.Recorder = influxClient
	}
	engine, err := action.NewEngine(engineOpts)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer engine.Close()
	engine.RegisterHandlers(triggers)
	log.Info("action engine initialised", "triggers", triggers.Len())

	listener := remote.NewListener(mqttClient, engine, state, mqttClient.QoS())
	listener.SetLogger(log.Component("remote"))
	if startErr := listener.Start(ctx); startErr != nil {
		return fmt.Errorf("starting remote listener: %w", startErr)
	}
	log.Info("remote listener subscribed")

	server, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Security: cfg.Security,
		Logger:   log.Component("api"),
		Registry: registry,
		Engine:   engine,
		Triggers: triggers,
		Notices:  notices,
		State:    state,
		MQTT:     mqttClient,
		Audit:    audit.NewSQLiteRepository(db.DB),
		Version:  opts.info.Version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	if cfg.Engine.RunStartupActions {
		if n := engine.CheckStartupActions(ctx); n > 0 {
			log.Info("startup actions run", "count", n)
		}
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// openDatabase opens the configured database and applies pending migrations.
func openDatabase(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// stateValues exposes the mirrored show state to {show} and {slide}
// placeholders.
func stateValues(state *showstate.Store) map[string]action.ValueFunc {
	return map[string]action.ValueFunc{
		"show": func() string {
			out := state.Snapshot().Output
			if out == nil {
				return ""
			}
			if name, ok := state.Name(action.CollectionShows, out.ShowID); ok {
				return name
			}
			return out.ShowID
		},
		"slide": func() string {
			out := state.Snapshot().Output
			if out == nil {
				return ""
			}
			return strconv.Itoa(out.Index + 1)
		},
	}
}

// healthCheck verifies the infrastructure connections. influxClient may be nil.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
