// Command modscot runs a moderation bot driven by JSON-lines events read from stdin. Answers and
// platform actions are written to stdout, also as JSON lines
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/alexandre-normand/modscot"
	"github.com/alexandre-normand/modscot/admin"
	"github.com/alexandre-normand/modscot/config"
	"github.com/alexandre-normand/modscot/connector/console"
	"github.com/alexandre-normand/modscot/plugins"
	"github.com/alexandre-normand/modscot/settings"
	"github.com/alexandre-normand/modscot/store"
	"github.com/alexandre-normand/modscot/store/datastoredb"
	"github.com/alexandre-normand/modscot/store/inmemorydb"
	"github.com/alexandre-normand/modscot/store/pgstore"
	"github.com/alexandre-normand/modscot/store/redisdb"
	"github.com/alexandre-normand/modscot/ticket"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/api/metric"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/api/option"
)

const (
	name = "modscot"

	settingsStoreName = "settings"
	ticketsStoreName  = "tickets"
)

var (
	configFile  = pflag.StringP("config", "c", "", "path to the configuration file")
	envFile     = pflag.String("env-file", ".env", "path to a .env file holding MODSCOT_ prefixed variables")
	storagePath = pflag.String("storage-path", "", "directory of the leveldb databases")
	adminAddr   = pflag.String("admin-addr", "", "listen address of the admin endpoint")
	debug       = pflag.BoolP("debug", "d", false, "enable debug logging")
)

func main() {
	pflag.Parse()

	v, err := loadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logger, err := newLogger(v.GetBool(config.DebugKey))
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err = run(context.Background(), v, logger, os.Stdin, os.Stdout); err != nil {
		logger.Fatal("modscot terminated with an error", zap.Error(err))
	}
}

func loadConfig() (v *viper.Viper, err error) {
	v = config.NewViperWithDefaults()

	if err = config.LoadEnv(v, *envFile); err != nil {
		return nil, err
	}

	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err = v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("Error reading configuration file [%s]: %v", *configFile, err)
		}
	}

	for key, flag := range map[string]string{config.StoragePathKey: "storage-path", config.AdminAddrKey: "admin-addr", config.DebugKey: "debug"} {
		if err = v.BindPFlag(key, pflag.Lookup(flag)); err != nil {
			return nil, err
		}
	}

	return v, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	zapCfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(level),
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:  "message",
			LevelKey:    "level",
			TimeKey:     "ts",
			EncodeLevel: zapcore.LowercaseLevelEncoder,
			EncodeTime:  zapcore.ISO8601TimeEncoder,
		},
		// stdout carries the platform records
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return zapCfg.Build()
}

// resources holds what must be closed when modscot terminates
type resources []io.Closer

// closeAll closes resources in reverse order
func (rs resources) closeAll() {
	for i := len(rs) - 1; i >= 0; i-- {
		rs[i].Close()
	}
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}

func run(ctx context.Context, v *viper.Viper, logger *zap.Logger, in io.Reader, out io.Writer) (err error) {
	var owned resources
	var adminOpts []admin.Option

	output := console.NewOutput(out)
	bot, err := build(ctx, v, logger, output, &owned, &adminOpts)
	if err != nil {
		owned.closeAll()
		return err
	}
	defer bot.Close()

	if addr := v.GetString(config.AdminAddrKey); addr != "" {
		server := admin.New(name, modscot.VERSION, bot, logger, adminOpts...)
		go func() {
			if err := server.Listen(addr); err != nil {
				logger.Error("Admin endpoint stopped", zap.Error(err))
			}
		}()
		defer server.Shutdown()
	}

	c := console.NewConnector(in, output, logger)
	c.Start(ctx)

	return bot.Run(ctx, c)
}

func build(ctx context.Context, v *viper.Viper, logger *zap.Logger, output *console.Output, owned *resources, adminOpts *[]admin.Option) (bot *modscot.Modscot, err error) {
	repo, err := newTicketRepository(ctx, v, logger, owned, adminOpts)
	if err != nil {
		return nil, err
	}

	settingsStorer, err := newSettingsStorer(v, owned)
	if err != nil {
		return nil, err
	}

	platform := console.NewPlatform(output, logger)
	communitySettings := settings.New(settingsStorer)

	workflow, err := ticket.NewWorkflow(v, repo, platform, communitySettings, modscot.NewSLogger(logger, v.GetBool(config.DebugKey)))
	if err != nil {
		return nil, err
	}

	mb := modscot.NewBot(name, v, modscot.OptionLog(logger), modscot.OptionPlatform(platform)).
		WithPlugin(&plugins.NewSupport(workflow, communitySettings).Plugin).
		WithPlugin(&plugins.NewSuspicious(communitySettings).Plugin).
		WithPlugin(plugins.NewMessages()).
		WithPlugin(plugins.NewVersioner(name, modscot.VERSION))

	if v.IsSet(fmt.Sprintf("%s.%s", config.PluginsKey, plugins.PresencePluginName)) {
		mb = mb.WithConfigurablePluginErr(plugins.PresencePluginName, func(c *config.PluginConfig) (*modscot.Plugin, error) {
			p, err := plugins.NewPresence(c)
			if err != nil {
				return nil, err
			}

			return &p.Plugin, nil
		})
	} else {
		logger.Info("Presence cycling disabled", zap.String("plugin", plugins.PresencePluginName))
	}

	for _, r := range *owned {
		mb = mb.WithCloser(r)
	}

	return mb.Build()
}

func newTicketRepository(ctx context.Context, v *viper.Viper, logger *zap.Logger, owned *resources, adminOpts *[]admin.Option) (repo ticket.Repository, err error) {
	switch backend := v.GetString(config.StorageBackendKey); backend {
	case config.MemoryBackend:
		return inmemorydb.NewTicketDB(), nil
	case config.LevelDBBackend:
		ldb, err := store.NewLevelDBTicketRepository(ticketsStoreName, v.GetString(config.StoragePathKey))
		if err != nil {
			return nil, err
		}
		*owned = append(*owned, ldb)

		return ldb, nil
	case config.PostgresBackend:
		pool, err := pgstore.Connect(ctx, pgstore.PoolConfig{DSN: v.GetString(config.StoragePostgresDSNKey)}, logger)
		if err != nil {
			return nil, err
		}
		*owned = append(*owned, closerFunc(pool.Close))
		*adminOpts = append(*adminOpts, admin.OptionPinger(config.PostgresBackend, pool.Ping))

		if err = pgstore.RunMigrations(ctx, pool, logger); err != nil {
			return nil, err
		}

		return pgstore.NewTicketRepository(pool), nil
	default:
		return nil, fmt.Errorf("Unknown ticket storage backend [%s]", backend)
	}
}

// newSettingsStorer returns the settings storer. Persistent backends are fronted by an in-memory
// copy loaded on startup
func newSettingsStorer(v *viper.Viper, owned *resources) (storer store.GlobalSiloStringStorer, err error) {
	var persistent store.GlobalSiloStringStorer

	switch backend := v.GetString(config.SettingsBackendKey); backend {
	case config.MemoryBackend:
	case config.LevelDBBackend:
		persistent, err = store.NewLevelDB(settingsStoreName, v.GetString(config.StoragePathKey))
	case config.RedisBackend:
		persistent, err = redisdb.New(settingsStoreName, redisdb.Options{Addr: v.GetString(config.SettingsRedisAddrKey), Password: v.GetString(config.SettingsRedisPasswordKey)})
	case config.DatastoreBackend:
		var opts []option.ClientOption
		if f := v.GetString(config.SettingsGCloudCredentialsFileKey); f != "" {
			opts = append(opts, option.WithCredentialsFile(f))
		}
		persistent, err = datastoredb.New(settingsStoreName, v.GetString(config.SettingsGCloudProjectIDKey), metric.NoopMeter{}, opts...)
	default:
		return nil, fmt.Errorf("Unknown settings storage backend [%s]", backend)
	}

	if err != nil {
		return nil, err
	}

	imdb, err := inmemorydb.New(persistent)
	if err != nil {
		if persistent != nil {
			persistent.Close()
		}

		return nil, err
	}
	*owned = append(*owned, imdb)

	return imdb, nil
}
