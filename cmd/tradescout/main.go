package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"TradeScout/internal/analyzer"
	"TradeScout/internal/api"
	"TradeScout/internal/collector"
	"TradeScout/internal/config"
	"TradeScout/internal/logger"
	"TradeScout/internal/markethours"
	"TradeScout/internal/metrics"
	"TradeScout/internal/notifier"
	"TradeScout/internal/portfolio"
	"TradeScout/internal/publisher"
	"TradeScout/internal/recorder"
	"TradeScout/internal/scheduler"
	"TradeScout/internal/strategy"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		bootLog := logger.New(logger.Config{})
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.App.Log)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Str("app", cfg.App.Name).Msg("starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	// Data source
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "alpaca":
		fetcher = collector.NewAlpacaFetcher(cfg.DataSource.AlpacaKey, cfg.DataSource.AlpacaSec)
	case "mock":
		fetcher = &collector.MockFetcher{Price: 1000}
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")

	cache := newCache(ctx, cfg.DataSource, log)
	col := collector.NewCollector(fetcher, cache, log.With().Str("component", "collector").Logger(), m)
	col.Workers = cfg.DataSource.Workers
	col.Timeout = cfg.DataSource.Timeout

	book := strategy.LoadBookOrDefault(cfg.StrategiesFile, log)
	an := analyzer.New(book, log.With().Str("component", "analyzer").Logger(), m)
	an.Workers = cfg.DataSource.Workers

	pm, err := portfolio.NewManager(cfg.Risk.StateFile, cfg.Risk.PortfolioValue, cfg.Risk.MaxPositions)
	if err != nil {
		log.Fatal().Err(err).Msg("init portfolio manager")
	}
	sizer := portfolio.NewSizer(cfg.Risk.PortfolioValue, cfg.Risk.MaxRiskPct, cfg.Risk.MaxPositionPct)

	cal, err := markethours.NewCalendar(cfg.MarketHours)
	if err != nil {
		log.Fatal().Err(err).Msg("market calendar")
	}

	// fatal paths run before any deferred Close is registered
	var pub publisher.Publisher = publisher.Noop{}
	if cfg.Alerts.Kafka.Enabled {
		kp, err := publisher.NewKafkaPublisher(cfg.Alerts.Kafka.Config, log)
		if err != nil {
			log.Fatal().Err(err).Msg("init kafka publisher")
		}
		pub = kp
	}
	defer pub.Close()

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			rec = sr
		}
	}
	defer rec.Close()

	multi := &notifier.Multi{Log: log, Metrics: m}
	var tg *notifier.TelegramNotifier
	if a := cfg.Alerts.Telegram; a.Enabled {
		tg = notifier.NewTelegramNotifier(a.BotToken, a.ChatID, cfg.Proxy, log.With().Str("component", "telegram").Logger())
		multi.Channels = append(multi.Channels, tg)
	}
	if a := cfg.Alerts.Email; a.Enabled {
		multi.Channels = append(multi.Channels, notifier.NewEmailNotifier(a.SMTPServer, a.SMTPPort, a.Sender, a.Password, a.Receiver))
	}
	if a := cfg.Alerts.Webhook; a.Enabled {
		multi.Channels = append(multi.Channels, notifier.NewWebhookNotifier(a.URL))
	}
	log.Info().Int("channels", multi.Len()).Msg("notifiers ready")

	sched := scheduler.NewScheduler(ctx, col, an, pm, sizer, multi, rec, pub, cal, scheduler.Options{
		Symbols:       cfg.DataSource.Symbols,
		Profiles:      cfg.Profiles,
		MinConfidence: cfg.Alerts.MinConfidence,
		MinVolume:     cfg.Risk.MinVolume,
		CheckInterval: cfg.Alerts.CheckInterval,
	}, log)
	if err := sched.RegisterAll(); err != nil {
		rec.Close()
		pub.Close()
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if tg != nil && cfg.Alerts.Telegram.Commands {
		go tg.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	var srv *api.Server
	if cfg.HTTP.Enabled {
		srv = api.NewServer(cfg.HTTP.Addr, &api.Handler{Source: col, Analyzer: an, Book: book, Recorder: rec}, m, log)
		srv.Start()
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, scanning now")
		go func() {
			for _, p := range cfg.EnabledProfiles() {
				sched.Scan(ctx, p)
			}
		}()
	}

	log.Info().Msg("running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping")
	cancel()
	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
	}
}

// newCache layers Redis behind the in-process cache when an address is configured.
func newCache(ctx context.Context, ds config.DataSource, log zerolog.Logger) collector.Cache {
	mem := collector.NewMemoryCache(ds.CacheTTL)
	if ds.Redis.Addr == "" {
		return mem
	}
	rc := collector.NewRedisCache(ds.Redis, ds.CacheTTL)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("addr", ds.Redis.Addr).Msg("redis unreachable, lookups will miss")
	}
	return collector.Layered{mem, rc}
}
