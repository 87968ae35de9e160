package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/blockworld/internal/config"
	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/mesh"
	"github.com/annel0/blockworld/internal/noise"
	"github.com/annel0/blockworld/internal/observability"
	"github.com/annel0/blockworld/internal/stream"
	"github.com/annel0/blockworld/internal/world"
	"github.com/annel0/blockworld/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (default: $BLOCKWORLD_CONFIG)")
		duration   = flag.Duration("duration", 10*time.Second, "How long to run the simulation (0 = until signal)")
		tickRate   = flag.Int("tps", 30, "Update ticks per second")
		speed      = flag.Float64("speed", 8, "Viewpoint speed along +X, blocks per second")
		statsEvery = flag.Duration("stats", time.Second, "Interval between stats reports")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	level, err := logging.ParseLevel(cfg.Log.GetLevel())
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	root := logging.NewWriterLogger("worldsim", os.Stdout)
	fileLevel := logging.OFF
	if cfg.Log.Dir != "" {
		if root, err = logging.NewFileLogger("worldsim", cfg.Log.Dir); err != nil {
			log.Fatalf("❌ Ошибка инициализации файловых логов: %v", err)
		}
		fileLevel = logging.TRACE
		logging.GetLoggerManager().Register("worldsim", root)
	}
	root.SetLevels(level, fileLevel)
	logging.SetDefaultLogger(root)
	logging.GetLoggerManager().SetConsoleLevel(level)
	defer logging.GetLoggerManager().CloseAll()

	runID := uuid.NewString()
	logging.Info("🌍 Запуск worldsim, run=%s", runID)

	warnings, err := cfg.Validate()
	if err != nil {
		log.Fatalf("❌ Некорректная конфигурация: %v", err)
	}
	for _, w := range warnings {
		logging.Warn("⚠️ %s", w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, observability.TelemetryOptions{
			ServiceName: cfg.Telemetry.GetServiceName(),
			RunID:       runID,
			Endpoint:    cfg.Telemetry.GetEndpoint(),
			Insecure:    cfg.Telemetry.Insecure,
			SampleRatio: cfg.Telemetry.SampleRatio,
		})
		if err != nil {
			logging.Error("Ошибка инициализации OpenTelemetry: %v", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logging.Error("Ошибка остановки OpenTelemetry: %v", err)
				}
			}()
		}
	}

	catalog, err := loadCatalog(cfg.Catalog.Path)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки каталога блоков: %v", err)
	}

	field := noise.NewPerlinField(cfg.NoiseSettings())
	worldSettings := cfg.WorldSettings()
	generator, err := world.NewTerrainGenerator(field, catalog, worldSettings)
	if err != nil {
		log.Fatalf("❌ Ошибка создания генератора: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := stream.NewMetrics(reg)

	var metricsServer *http.Server
	if addr := cfg.Telemetry.GetMetricsAddr(); addr != "" {
		metricsServer = startMetricsServer(addr, reg)
	}

	viewpoint := stream.NewFixedViewpoint(mgl32.Vec3{0, float32(worldSettings.WaterLevel), 0})
	sink := stream.NewMemorySink()

	manager, err := stream.NewManager(cfg.StreamSettings(), stream.Deps{
		Generator: generator,
		Mesher:    mesh.NewMesher(catalog),
		Pool:      stream.NewEntityPool(cfg.Stream.GetPoolCapacity(), field),
		Viewpoint: viewpoint,
		Sink:      sink,
		Metrics:   metrics,
	})
	if err != nil {
		log.Fatalf("❌ Ошибка создания менеджера стриминга: %v", err)
	}

	procStats, err := observability.NewProcessStats()
	if err != nil {
		logging.Warn("Статистика процесса недоступна: %v", err)
	}

	runLoop(ctx, manager, viewpoint, sink, procStats, loopOptions{
		duration:   *duration,
		tickRate:   *tickRate,
		speed:      float32(*speed),
		statsEvery: *statsEvery,
	})

	manager.Close()
	manager.Poll()
	reportStats(manager, sink, procStats)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.Error("Ошибка остановки Prometheus HTTP сервера: %v", err)
		}
		cancel()
	}
	logging.Info("👋 worldsim завершён")
}

type loopOptions struct {
	duration   time.Duration
	tickRate   int
	speed      float32
	statsEvery time.Duration
}

// runLoop двигает наблюдателя и вызывает Update с фиксированной частотой
func runLoop(ctx context.Context, manager *stream.Manager, viewpoint *stream.FixedViewpoint,
	sink *stream.MemorySink, procStats *observability.ProcessStats, opts loopOptions) {
	if opts.tickRate <= 0 {
		opts.tickRate = 30
	}
	dt := time.Second / time.Duration(opts.tickRate)
	ticker := time.NewTicker(dt)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if opts.duration > 0 {
		timer := time.NewTimer(opts.duration)
		defer timer.Stop()
		deadline = timer.C
	}

	var report <-chan time.Time
	if opts.statsEvery > 0 {
		statsTicker := time.NewTicker(opts.statsEvery)
		defer statsTicker.Stop()
		report = statsTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			logging.Info("📡 Получен сигнал завершения")
			return
		case <-deadline:
			return
		case <-report:
			reportStats(manager, sink, procStats)
		case <-ticker.C:
			pos, _ := viewpoint.Position()
			pos[0] += opts.speed * float32(dt.Seconds())
			viewpoint.Set(pos)
			manager.Update()
		}
	}
}

func reportStats(manager *stream.Manager, sink *stream.MemorySink, procStats *observability.ProcessStats) {
	s := manager.Stats()
	logging.Info("📊 Чанки: загружено=%d, в полёте=%d, свободно=%d/%d, отправлено=%d, выгружено=%d, ошибок=%d, треугольников=%d",
		s.Loaded, s.Loading, s.FreeSlots, s.Capacity, s.Dispatched, s.Evicted, s.Failed, sink.Triangles())

	if procStats == nil {
		return
	}
	snap, err := procStats.Sample()
	if err != nil {
		logging.Debug("Ошибка получения статистики процесса: %v", err)
		return
	}
	logging.Info("🖥️ Процесс: uptime=%s, CPU=%.1f%%, RSS=%.1fMB, heap=%.1fMB, горутин=%d",
		observability.FormatUptime(snap.Uptime), snap.CPUPercent, snap.RSSMB, snap.HeapMB, snap.Goroutines)
}

func loadCatalog(path string) (*block.Catalog, error) {
	if path == "" {
		return block.DefaultCatalog()
	}
	return block.LoadCatalogFile(path)
}

// startMetricsServer запускает HTTP-эндпоинт Prometheus в отдельной горутине
func startMetricsServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	return srv
}
