package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/annel0/voxedit/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "voxedit"

var (
	// TraversalsTotal - завершённые обходы по итоговому состоянию.
	TraversalsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "traversal",
		Name:      "total",
		Help:      "Число завершённых обходов по итоговому состоянию.",
	}, []string{"state"})

	TraversalVisited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "traversal",
		Name:      "visited_total",
		Help:      "Позиций посещено обходами.",
	})

	TraversalAffected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "traversal",
		Name:      "affected_total",
		Help:      "Позиций, изменённых функциями обхода.",
	})

	TraversalDepth = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "traversal",
		Name:      "depth",
		Help:      "Глубина, достигнутая обходом.",
		Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64, 128, 256},
	})

	// TransformLookups - обращения к кэшу преобразований: identity, hit, fill.
	TransformLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "transform",
		Name:      "lookups_total",
		Help:      "Обращения к таблицам преобразования состояний.",
	}, []string{"result"})

	TransformTables = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "transform",
		Name:      "tables_built_total",
		Help:      "Созданных таблиц преобразования (тип × направление).",
	})

	// PrefetchRequests - запросы подгрузки чанков: queued, duplicate, dropped, loaded.
	PrefetchRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "prefetch",
		Name:      "requests_total",
		Help:      "Запросы асинхронной подгрузки чанков.",
	}, []string{"result"})

	// ChunkLoads - источники загруженных чанков: store, generated, empty.
	ChunkLoads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "world",
		Name:      "chunk_loads_total",
		Help:      "Загрузки чанков по источнику.",
	}, []string{"source"})

	SessionChanges = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "changes_total",
		Help:      "Изменённых блоков в сессиях редактирования.",
	})

	SessionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "duration_seconds",
		Help:      "Длительность сессий редактирования.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	})
)

func init() {
	prometheus.MustRegister(
		TraversalsTotal,
		TraversalVisited,
		TraversalAffected,
		TraversalDepth,
		TransformLookups,
		TransformTables,
		PrefetchRequests,
		ChunkLoads,
		SessionChanges,
		SessionDuration,
	)
}

// MetricsServer - HTTP-эндпоинт Prometheus.
type MetricsServer struct {
	srv *http.Server
}

// StartMetricsServer запускает /metrics на указанном адресе (например, ":2112").
// Метод неблокирующий: HTTP-сервер стартует в отдельной горутине.
func StartMetricsServer(addr string) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	return &MetricsServer{srv: srv}
}

// Shutdown останавливает HTTP-сервер
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
