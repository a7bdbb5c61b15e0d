package world

import (
	"context"
	"sync"
	"time"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/logging"
	"github.com/annel0/voxedit/internal/observability"
	"github.com/annel0/voxedit/internal/vec"
)

// Prefetcher подгружает чанки мира в фоне пулом воркеров.
// RequestLoad никогда не блокирует: при переполненной очереди запрос отбрасывается.
type Prefetcher struct {
	world   *World
	queue   chan vec.Vec2
	workers int

	mu      sync.Mutex
	pending map[vec.Vec2]struct{}

	wg     sync.WaitGroup
	cancel context.CancelFunc
	logger *logging.Logger
}

var _ extent.ChunkPrefetcher = (*Prefetcher)(nil)

// NewPrefetcher создаёт пул. Воркеры запускаются методом Start.
func NewPrefetcher(w *World, workers, queueSize int) *Prefetcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Prefetcher{
		world:   w,
		queue:   make(chan vec.Vec2, queueSize),
		workers: workers,
		pending: make(map[vec.Vec2]struct{}),
		logger:  logging.GetWorldLogger(),
	}
}

// Start запускает воркеры до отмены ctx или вызова Stop
func (p *Prefetcher) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

// Stop останавливает воркеры и ждёт их завершения
func (p *Prefetcher) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// RequestLoad ставит чанк в очередь подгрузки
func (p *Prefetcher) RequestLoad(coords vec.Vec2) {
	if p.world.IsLoaded(coords) {
		observability.PrefetchRequests.WithLabelValues("loaded").Inc()
		return
	}

	p.mu.Lock()
	if _, ok := p.pending[coords]; ok {
		p.mu.Unlock()
		observability.PrefetchRequests.WithLabelValues("duplicate").Inc()
		return
	}
	select {
	case p.queue <- coords:
		p.pending[coords] = struct{}{}
		p.mu.Unlock()
		observability.PrefetchRequests.WithLabelValues("queued").Inc()
	default:
		p.mu.Unlock()
		observability.PrefetchRequests.WithLabelValues("dropped").Inc()
	}
}

// Pending возвращает число запросов в очереди или в работе
func (p *Prefetcher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// WaitIdle ждёт, пока очередь опустеет, или отмены ctx
func (p *Prefetcher) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for p.Pending() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func (p *Prefetcher) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case coords := <-p.queue:
			if _, err := p.world.LoadChunk(coords); err != nil {
				p.logger.Warn("подгрузка чанка %v: %v", coords, err)
			}
			p.mu.Lock()
			delete(p.pending, coords)
			p.mu.Unlock()
		}
	}
}
