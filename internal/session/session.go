// Package session группирует правки мира в сессию: лимит изменений,
// учёт изменённых чанков, сохранение, публикация события и трассировка.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/annel0/voxedit/internal/eventbus"
	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/logging"
	"github.com/annel0/voxedit/internal/observability"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world"
	"github.com/annel0/voxedit/internal/world/block"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrMaxChangedBlocks - сессия исчерпала лимит изменений.
	ErrMaxChangedBlocks = errors.New("max changed blocks exceeded")
	// ErrCompleted - сессия уже завершена.
	ErrCompleted = errors.New("session completed")
)

// Options задаёт параметры сессии
type Options struct {
	// MaxChangedBlocks - лимит изменений; 0 - без ограничения.
	MaxChangedBlocks int
	// Source попадает в поле Source событий.
	Source string
	// Bus - шина для события о завершении; nil - глобальная шина.
	Bus eventbus.EventBus
}

// CommitEvent - полезная нагрузка события EditCommitted.
type CommitEvent struct {
	SessionID  string     `json:"session_id"`
	Changed    int        `json:"changed"`
	Chunks     []vec.Vec2 `json:"chunks"`
	Saved      int        `json:"saved"`
	DurationMs int64      `json:"duration_ms"`
}

// EditSession - extent поверх мира, считающий изменения.
type EditSession struct {
	id    uuid.UUID
	world *world.World
	opts  Options

	mu        sync.Mutex
	changed   int
	chunks    map[vec.Vec2]int
	completed bool

	started time.Time
	ctx     context.Context
	span    trace.Span
	logger  *logging.Logger
}

var _ extent.Extent = (*EditSession)(nil)

// New открывает сессию над миром. Span сессии закрывается в Complete.
func New(ctx context.Context, w *world.World, opts Options) *EditSession {
	if opts.Source == "" {
		opts.Source = "voxedit"
	}
	id := uuid.New()
	ctx, span := observability.Tracer().Start(ctx, "EditSession",
		trace.WithAttributes(attribute.String("session.id", id.String())))

	s := &EditSession{
		id:      id,
		world:   w,
		opts:    opts,
		chunks:  make(map[vec.Vec2]int),
		started: time.Now(),
		ctx:     ctx,
		span:    span,
		logger:  logging.GetSessionLogger(),
	}
	s.logger.Debug("сессия %s открыта (лимит %d)", id, opts.MaxChangedBlocks)
	return s
}

// ID возвращает идентификатор сессии
func (s *EditSession) ID() string {
	return s.id.String()
}

// Context возвращает контекст сессии со span'ом
func (s *EditSession) Context() context.Context {
	return s.ctx
}

// World возвращает мир сессии
func (s *EditSession) World() *world.World {
	return s.world
}

// Registry возвращает реестр типов блоков
func (s *EditSession) Registry() *block.Registry {
	return s.world.Registry()
}

// GetBlock читает блок из мира
func (s *EditSession) GetBlock(pos vec.Vec3) block.State {
	return s.world.GetBlock(pos)
}

// SetBlock записывает блок в мир, соблюдая лимит изменений.
func (s *EditSession) SetBlock(pos vec.Vec3, state block.State) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return false, ErrCompleted
	}
	if s.opts.MaxChangedBlocks > 0 && s.changed >= s.opts.MaxChangedBlocks {
		return false, fmt.Errorf("%w: %d", ErrMaxChangedBlocks, s.opts.MaxChangedBlocks)
	}

	changed, err := s.world.SetBlock(pos, state)
	if err != nil || !changed {
		return changed, err
	}
	s.changed++
	s.chunks[pos.ChunkCoords()]++
	observability.SessionChanges.Inc()
	return true, nil
}

// Changed возвращает число изменённых блоков
func (s *EditSession) Changed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

// ChangedChunks возвращает изменённые чанки в порядке координат
func (s *EditSession) ChangedChunks() []vec.Vec2 {
	s.mu.Lock()
	out := make([]vec.Vec2, 0, len(s.chunks))
	for c := range s.chunks {
		out = append(out, c)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}

// ChunkChanges возвращает число изменений в чанке
func (s *EditSession) ChunkChanges(coords vec.Vec2) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chunks[coords]
}

// Complete сохраняет изменённые чанки, публикует EditCommitted и закрывает сессию.
// Повторный вызов возвращает ErrCompleted.
func (s *EditSession) Complete(ctx context.Context) (CommitEvent, error) {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		return CommitEvent{}, ErrCompleted
	}
	s.completed = true
	changed := s.changed
	s.mu.Unlock()

	defer s.span.End()

	elapsed := time.Since(s.started)
	chunks := s.ChangedChunks()
	ev := CommitEvent{
		SessionID:  s.ID(),
		Changed:    changed,
		Chunks:     chunks,
		DurationMs: elapsed.Milliseconds(),
	}
	observability.SessionDuration.Observe(elapsed.Seconds())
	s.span.SetAttributes(
		attribute.Int("session.changed", changed),
		attribute.Int("session.chunks", len(chunks)),
	)

	saved, err := s.world.Save(chunks...)
	ev.Saved = saved
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
		return ev, fmt.Errorf("сессия %s: %w", s.ID(), err)
	}

	if err := s.publish(ctx, ev); err != nil {
		s.logger.Warn("сессия %s: событие не опубликовано: %v", s.ID(), err)
	}
	s.logger.Info("сессия %s завершена: изменено %d блоков в %d чанках (сохранено %d) за %v",
		s.ID(), changed, len(chunks), saved, elapsed)
	return ev, nil
}

func (s *EditSession) publish(ctx context.Context, ev CommitEvent) error {
	if ev.Changed == 0 {
		return nil
	}
	env, err := eventbus.NewEnvelope(s.opts.Source, eventbus.EventEditCommitted, ev)
	if err != nil {
		return err
	}
	env.CorrelationID = ev.SessionID
	if s.opts.Bus != nil {
		return s.opts.Bus.Publish(ctx, env)
	}
	return eventbus.Publish(ctx, env)
}
