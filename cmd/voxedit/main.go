package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/voxedit/internal/config"
	"github.com/annel0/voxedit/internal/eventbus"
	"github.com/annel0/voxedit/internal/logging"
	"github.com/annel0/voxedit/internal/observability"
	"github.com/annel0/voxedit/internal/session"
	"github.com/annel0/voxedit/internal/storage"
	"github.com/annel0/voxedit/internal/world"
	"github.com/annel0/voxedit/internal/world/block"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	var (
		configPath = flag.String("config", "", "Путь к YAML конфигурации (или VOXEDIT_CONFIG)")
		op         = flag.String("op", "info", "Операция: info, replace, pickaxe, deltree, fill, paste")
		at         = flag.String("at", "0,64,0", "Позиция x,y,z")
		maskExpr   = flag.String("mask", "", "Маска для replace (например stone,dirt)")
		pattern    = flag.String("pattern", "air", "Шаблон блоков (например 70%stone,30%gravel)")
		radius     = flag.Int("radius", 8, "Радиус для pickaxe и fill")
		from       = flag.String("from", "", "Начало копируемого кубоида x,y,z для paste")
		to         = flag.String("to", "", "Конец копируемого кубоида x,y,z для paste")
		rotate     = flag.Float64("rotate", 0, "Поворот вокруг Y в градусах для paste")
		seed       = flag.Int64("seed", 0, "Сид случайных шаблонов")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if err := initLogging(cfg.Logging); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, request{
		Op:       *op,
		At:       *at,
		Mask:     *maskExpr,
		Pattern:  *pattern,
		Radius:   *radius,
		From:     *from,
		To:       *to,
		RotateY:  *rotate,
		Seed:     *seed,
		Diagonal: cfg.Edit.Diagonal,
	}); err != nil {
		logging.Error("❌ %v", err)
		logging.Close()
		os.Exit(1)
	}
}

func initLogging(cfg config.LoggingConfig) error {
	opts := logging.Options{Dir: cfg.Dir, ConsoleLevel: logging.INFO, FileLevel: logging.DEBUG}
	if cfg.Level != "" {
		lvl, err := logging.ParseLevel(cfg.Level)
		if err != nil {
			return err
		}
		opts.ConsoleLevel = lvl
	}
	if cfg.FileLevel != "" {
		lvl, err := logging.ParseLevel(cfg.FileLevel)
		if err != nil {
			return err
		}
		opts.FileLevel = lvl
	}
	if err := logging.Init(opts); err != nil {
		return err
	}

	for component, name := range cfg.Components {
		lvl, err := logging.ParseLevel(name)
		if err != nil {
			return fmt.Errorf("уровень компонента %s: %w", component, err)
		}
		fileLevel := opts.FileLevel
		if lvl < fileLevel {
			fileLevel = lvl
		}
		logging.GetLoggerManager().SetLogLevel(component, lvl, fileLevel)
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config, req request) error {
	stats := observability.NewProcessStats()

	shutdown, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("телеметрия: %w", err)
	}
	defer shutdown(context.Background())

	if cfg.Metrics.Enabled {
		srv := observability.StartMetricsServer(fmt.Sprintf(":%d", cfg.Metrics.GetMetricsPort()))
		defer srv.Shutdown(context.Background())
	}

	registry := block.Default()
	if cfg.World.BlocksFile != "" {
		if registry, err = block.LoadRegistry(cfg.World.BlocksFile); err != nil {
			return fmt.Errorf("реестр блоков: %w", err)
		}
	}

	store, err := storage.NewWorldStorage(cfg.Storage.GetStoragePath(), cfg.Storage.Compress)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := []world.Option{world.WithStore(store)}
	if cfg.World.Generate {
		gen, err := world.NewGenerator(cfg.World.Seed, registry)
		if err != nil {
			return err
		}
		opts = append(opts, world.WithGenerator(gen))
	}
	w := world.New(registry, cfg.World.HeightBounds(), opts...)

	if cfg.Edit.Prefetch {
		p := world.NewPrefetcher(w, cfg.Edit.PrefetchWorkers, cfg.Edit.PrefetchQueue)
		p.Start(ctx)
		defer p.Stop()
		req.Prefetcher = p
	}
	req.MaxDepth = cfg.Edit.MaxDepth
	req.MaxBranch = cfg.Edit.MaxBranch

	bus, err := openBus(cfg.EventBus)
	if err != nil {
		return err
	}
	defer bus.Close()
	if cfg.Metrics.Enabled {
		exporter, err := startBusMetrics(bus, prometheus.DefaultRegisterer)
		if err != nil {
			return err
		}
		defer exporter.Stop()
	}
	eventbus.Init(bus)
	if _, err := eventbus.StartLoggingListener(ctx, bus); err != nil {
		return err
	}
	source := "voxedit-" + uuid.NewString()[:8]
	if _, err := session.StartInvalidator(ctx, bus, w, source); err != nil {
		return err
	}

	s := session.New(ctx, w, session.Options{MaxChangedBlocks: cfg.Edit.MaxChangedBlocks, Bus: bus, Source: source})
	affected, opErr := execute(s.Context(), s, req)
	commit, err := s.Complete(ctx)
	if opErr != nil {
		return fmt.Errorf("операция %s: %w", req.Op, opErr)
	}
	if err != nil {
		return err
	}

	logging.Info("✅ %s: затронуто %d, изменено %d блоков в %d чанках", req.Op, affected, commit.Changed, len(commit.Chunks))
	report(stats, w)
	return nil
}

func openBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	if cfg.URL == "" {
		return eventbus.NewMemoryBus(256), nil
	}
	bus, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, time.Duration(cfg.Retention)*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("шина событий: %w", err)
	}
	return bus, nil
}

// startBusMetrics запускает перенос статистики шины в реестр Prometheus
func startBusMetrics(bus eventbus.EventBus, reg prometheus.Registerer) (*eventbus.MetricsExporter, error) {
	exporter, err := eventbus.NewMetricsExporter(bus, reg, time.Second)
	if err != nil {
		return nil, fmt.Errorf("метрики шины: %w", err)
	}
	exporter.Start()
	return exporter, nil
}

func report(stats *observability.ProcessStats, w *world.World) {
	logging.Info("📊 Время работы: %s, загружено чанков: %d", stats.Uptime(), w.LoadedChunks())
	if rss, err := stats.RSS(); err == nil {
		logging.Info("📊 RSS: %.1f MB", rss)
	}
	if cpu, err := stats.CPUUsage(); err == nil {
		logging.Info("📊 CPU: %.1f%%", cpu)
	}
	for k, v := range stats.MemoryStats() {
		logging.Debug("   %s = %v", k, v)
	}
}
