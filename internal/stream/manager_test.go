package stream

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/mesh"
	"github.com/annel0/blockworld/internal/noise"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
	"github.com/annel0/blockworld/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

const testChunkSize = 4

// scriptedGenerator считает вызовы, умеет паниковать на первом вызове и ждать открытия gate
type scriptedGenerator struct {
	inner Generator

	mu        sync.Mutex
	calls     map[vec.Vec2]int
	panicOnce map[vec.Vec2]bool
	gate      chan struct{}
}

func (g *scriptedGenerator) Generate(c vec.Vec2) *world.VoxelGrid {
	g.mu.Lock()
	g.calls[c]++
	shouldPanic := g.panicOnce[c] && g.calls[c] == 1
	gate := g.gate
	g.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if shouldPanic {
		panic("generator exploded")
	}
	return g.inner.Generate(c)
}

func (g *scriptedGenerator) callsFor(c vec.Vec2) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[c]
}

type fixture struct {
	manager *Manager
	gen     *scriptedGenerator
	view    *FixedViewpoint
	sink    *MemorySink
	metrics *Metrics
}

type fixtureOptions struct {
	capacity   int
	radius     int
	loadOrigin bool
	panicOnce  []vec.Vec2
	gate       chan struct{}
	registry   prometheus.Registerer
	tracer     trace.Tracer
}

func newFixture(t *testing.T, opts fixtureOptions) *fixture {
	t.Helper()

	cat, err := block.DefaultCatalog()
	require.NoError(t, err)

	field := noise.Constant(0)
	tg, err := world.NewTerrainGenerator(field, cat, world.Settings{ChunkSize: testChunkSize, MaxHeight: 16, WaterLevel: 8})
	require.NoError(t, err)

	gen := &scriptedGenerator{
		inner:     tg,
		calls:     make(map[vec.Vec2]int),
		panicOnce: make(map[vec.Vec2]bool),
		gate:      opts.gate,
	}
	for _, c := range opts.panicOnce {
		gen.panicOnce[c] = true
	}

	view := NewFixedViewpoint(chunkCenter(vec.Vec2{}))
	sink := NewMemorySink()
	metrics := NewMetrics(opts.registry)

	m, err := NewManager(Settings{
		ChunkSize:  testChunkSize,
		Radius:     opts.radius,
		Workers:    2,
		LoadOrigin: opts.loadOrigin,
	}, Deps{
		Generator: gen,
		Mesher:    mesh.NewMesher(cat),
		Pool:      NewEntityPool(opts.capacity, field),
		Viewpoint: view,
		Sink:      sink,
		Metrics:   metrics,
		Logger:    logging.NewWriterLogger("stream", io.Discard),
		Tracer:    opts.tracer,
	})
	require.NoError(t, err)
	t.Cleanup(m.Close)

	return &fixture{manager: m, gen: gen, view: view, sink: sink, metrics: metrics}
}

// chunkCenter мировая точка в середине чанка
func chunkCenter(c vec.Vec2) mgl32.Vec3 {
	half := float32(testChunkSize) / 2
	return mgl32.Vec3{float32(c.X*testChunkSize) + half, 20, float32(c.Z*testChunkSize) + half}
}

// pump гоняет Update, пока cond не выполнится
func pump(t *testing.T, m *Manager, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("состояние не достигнуто: %+v", m.Stats())
		}
		m.Update()
		time.Sleep(time.Millisecond)
	}
}

func settled(m *Manager, loaded int) func() bool {
	return func() bool {
		s := m.Stats()
		return s.Loaded == loaded && s.Loading == 0
	}
}

func TestManagerConvergesToDesiredSet(t *testing.T) {
	f := newFixture(t, fixtureOptions{capacity: 9, radius: 1, loadOrigin: true})
	m := f.manager

	pump(t, m, settled(m, 9))
	for i := 0; i < 5; i++ {
		m.Update()
	}

	desired := vec.Square(vec.Vec2{}, 1)
	assert.ElementsMatch(t, desired, m.Loaded())

	stats := m.Stats()
	assert.Equal(t, uint64(9), stats.Dispatched, "повторных отправок быть не должно")
	assert.Equal(t, uint64(9), stats.Committed)
	assert.Zero(t, stats.FreeSlots)
	for _, c := range desired {
		assert.Equal(t, 1, f.gen.callsFor(c), "чанк %s собран ровно один раз", c)

		e, ok := m.Chunk(c)
		require.True(t, ok)
		assert.Equal(t, StateLoaded, e.State())
		assert.True(t, e.Visible())
		assert.Equal(t, mgl32.Vec3{float32(c.X * testChunkSize), 0, float32(c.Z * testChunkSize)}, e.Origin())
		// Ровная поверхность на высоте 8: видны только верхние грани
		assert.Equal(t, testChunkSize*testChunkSize, e.Mesh().FaceCount())
		assert.Len(t, e.Mesh().Normals, len(e.Mesh().Vertices))
		assert.InDelta(t, 9, e.Bounds().Max.Y(), 1e-6)
	}
	assert.Equal(t, 9, f.sink.VisibleCount())
	assert.Equal(t, 9, f.sink.Uploads())
}

func TestManagerPoolExhaustion(t *testing.T) {
	f := newFixture(t, fixtureOptions{capacity: 4, radius: 1})
	m := f.manager

	pump(t, m, settled(m, 4))
	for i := 0; i < 5; i++ {
		m.Update()
	}

	stats := m.Stats()
	assert.Equal(t, 4, stats.Loaded, "загружено не больше ёмкости пула")
	assert.Equal(t, uint64(4), stats.Dispatched)
	assert.NotZero(t, stats.Exhausted)
	assert.True(t, m.IsLoaded(vec.Vec2{}), "центр запрашивается первым")

	// Переезд: старые чанки выгружаются, освободившиеся сущности идут на новую область
	far := vec.Vec2{X: 20, Z: -3}
	f.view.Set(chunkCenter(far))
	pump(t, m, func() bool {
		return settled(m, 4)() && m.IsLoaded(far)
	})

	desired := vec.Square(far, 1)
	for _, c := range m.Loaded() {
		assert.Contains(t, desired, c)
	}
	assert.Equal(t, uint64(4), m.Stats().Evicted)
}

func TestManagerEvictsOutsideRadius(t *testing.T) {
	f := newFixture(t, fixtureOptions{capacity: 9, radius: 1})
	m := f.manager

	pump(t, m, settled(m, 9))

	// Шаг на один чанк: уходит только столбец x = -1
	f.view.Set(chunkCenter(vec.Vec2{X: 1, Z: 0}))
	pump(t, m, func() bool {
		return settled(m, 9)() && m.IsLoaded(vec.Vec2{X: 2, Z: 0})
	})

	assert.ElementsMatch(t, vec.Square(vec.Vec2{X: 1, Z: 0}, 1), m.Loaded())
	assert.Equal(t, uint64(3), m.Stats().Evicted)
	assert.Equal(t, uint64(12), m.Stats().Dispatched, "оставшиеся в радиусе чанки не пересобираются")
	for z := -1; z <= 1; z++ {
		assert.False(t, m.IsLoaded(vec.Vec2{X: -1, Z: z}))
	}
}

func TestManagerRetriesFailedChunk(t *testing.T) {
	broken := vec.Vec2{X: 1, Z: 0}
	f := newFixture(t, fixtureOptions{capacity: 9, radius: 1, panicOnce: []vec.Vec2{broken}})
	m := f.manager

	pump(t, m, settled(m, 9))

	stats := m.Stats()
	assert.Equal(t, uint64(1), stats.Failed)
	assert.Equal(t, 2, f.gen.callsFor(broken), "после ошибки координата запрашивается снова")
	assert.True(t, m.IsLoaded(broken))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.failed))
}

func TestManagerCommitsOutOfRangeChunkThenEvicts(t *testing.T) {
	gate := make(chan struct{})
	f := newFixture(t, fixtureOptions{capacity: 2, radius: 0, gate: gate})
	m := f.manager

	origin := vec.Vec2{}
	next := vec.Vec2{X: 5, Z: 0}

	m.Tick()
	require.True(t, m.IsLoading(origin))

	f.view.Set(chunkCenter(next))
	m.Tick()
	assert.True(t, m.IsLoading(origin), "сборка в полёте не отменяется")
	assert.True(t, m.IsLoading(next))

	close(gate)
	deadline := time.Now().Add(5 * time.Second)
	for m.Stats().Loading > 0 {
		require.True(t, time.Now().Before(deadline), "сборка не завершилась")
		m.Poll()
		time.Sleep(time.Millisecond)
	}
	assert.True(t, m.IsLoaded(origin), "результат фиксируется даже вне области")

	m.Tick()
	assert.False(t, m.IsLoaded(origin), "на следующем тике чанк выгружается")
	assert.True(t, m.IsLoaded(next))
	assert.Equal(t, uint64(1), m.Stats().Evicted)
}

func TestManagerWithoutViewpoint(t *testing.T) {
	f := newFixture(t, fixtureOptions{capacity: 9, radius: 1, loadOrigin: true})
	m := f.manager
	f.view.Clear()

	pump(t, m, settled(m, 1))
	for i := 0; i < 5; i++ {
		m.Update()
	}

	assert.Equal(t, uint64(1), m.Stats().Dispatched, "без наблюдателя загружается только стартовый чанк")
	assert.Equal(t, []vec.Vec2{{}}, m.Loaded())
}

func TestManagerCloseStopsDispatch(t *testing.T) {
	f := newFixture(t, fixtureOptions{capacity: 9, radius: 1})
	m := f.manager

	m.Close()
	m.Close()

	m.Update()
	assert.Zero(t, m.Stats().Dispatched)
}

func TestManagerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newFixture(t, fixtureOptions{capacity: 9, radius: 1, registry: reg})
	m := f.manager

	pump(t, m, settled(m, 9))

	assert.Equal(t, 9.0, testutil.ToFloat64(f.metrics.committed))
	assert.Equal(t, 9.0, testutil.ToFloat64(f.metrics.dispatched))
	assert.Equal(t, 9.0, testutil.ToFloat64(f.metrics.loaded))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.loading))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.freeSlots))
	assert.Equal(t, 1, testutil.CollectAndCount(f.metrics.buildTime))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewManagerRequiresDependencies(t *testing.T) {
	_, err := NewManager(Settings{ChunkSize: 4}, Deps{})
	assert.ErrorIs(t, err, ErrMissingDependency)

	_, err = NewManager(Settings{ChunkSize: 0}, Deps{
		Generator: &scriptedGenerator{},
		Mesher:    mesh.NewMesher(nil),
		Pool:      NewEntityPool(1, noise.Constant(0)),
		Viewpoint: NewFixedViewpoint(mgl32.Vec3{}),
	})
	assert.Error(t, err)
}

func TestManagerEndsStageSpansOnPanic(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	f := newFixture(t, fixtureOptions{
		capacity:  1,
		radius:    0,
		panicOnce: []vec.Vec2{{}},
		tracer:    provider.Tracer("test"),
	})
	m := f.manager

	pump(t, m, settled(m, 1))
	require.Equal(t, uint64(1), m.Stats().Failed)

	ended := make(map[string]int)
	failedBuilds := 0
	for _, span := range recorder.Ended() {
		ended[span.Name()]++
		if span.Name() == "chunk.build" && span.Status().Code == codes.Error {
			failedBuilds++
		}
	}

	assert.Equal(t, 2, ended["chunk.build"])
	assert.Equal(t, 2, ended["chunk.generate"], "span генерации закрывается и при панике")
	assert.Equal(t, 1, ended["chunk.mesh"])
	assert.Equal(t, 1, failedBuilds)
	assert.Len(t, recorder.Started(), len(recorder.Ended()), "все начатые span закрыты")
}
