package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrJobPanicked фоновая задача завершилась паникой
var ErrJobPanicked = errors.New("chunk build panicked")

// task одна фоновая задача сборки. done имеет ёмкость 1: один производитель, один потребитель.
type task struct {
	entity *ChunkEntity
	coord  vec.Vec2
	done   chan buildResult
}

type buildResult struct {
	digest  uint64
	faces   int
	elapsed time.Duration
	err     error
}

// worker обрабатывает задачи до закрытия очереди
func (m *Manager) worker(id int) {
	defer m.wg.Done()

	for t := range m.jobs {
		t.done <- m.build(t)
	}
	m.log.Debug("Воркер %d остановлен", id)
}

// build выполняет генерацию и построение меша. Единственный код конвейера вне основного потока.
func (m *Manager) build(t *task) (res buildResult) {
	ctx, span := m.tracer.Start(context.Background(), "chunk.build",
		trace.WithAttributes(
			attribute.Int("chunk.x", t.coord.X),
			attribute.Int("chunk.z", t.coord.Z),
		))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res = buildResult{err: fmt.Errorf("%w: %v", ErrJobPanicked, r)}
		}
		res.elapsed = time.Since(start)
		if res.err != nil {
			span.RecordError(res.err)
			span.SetStatus(codes.Error, res.err.Error())
		} else {
			span.SetAttributes(attribute.Int("mesh.faces", res.faces))
		}
		span.End()
	}()

	var grid *world.VoxelGrid
	m.stage(ctx, "chunk.generate", func() {
		grid = m.generator.Generate(t.coord)
	})
	if grid == nil {
		return buildResult{err: fmt.Errorf("generator returned no grid for %s", t.coord)}
	}

	m.stage(ctx, "chunk.mesh", func() {
		m.mesher.Build(grid, t.entity.build)
	})

	res.faces = t.entity.build.FaceCount()
	if m.traceDigest {
		res.digest = grid.Digest()
	}
	return res
}

// stage выполняет шаг сборки в дочернем span. Span закрывается и при панике.
func (m *Manager) stage(ctx context.Context, name string, fn func()) {
	_, span := m.tracer.Start(ctx, name)
	defer span.End()
	fn()
}
