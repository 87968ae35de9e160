package stream

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/noise"
	"github.com/annel0/blockworld/internal/pool"
	"github.com/annel0/blockworld/internal/vec"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// ErrMissingDependency не передан обязательный компонент менеджера
var ErrMissingDependency = errors.New("stream manager dependency is missing")

// Settings параметры стриминга
type Settings struct {
	ChunkSize  int  // ширина чанка в блоках
	Radius     int  // радиус квадрата загрузки в чанках
	Workers    int  // число фоновых воркеров, <= 0 означает NumCPU
	LoadOrigin bool // запросить чанк (0,0) сразу при создании
}

// Deps компоненты, с которыми работает менеджер
type Deps struct {
	Generator Generator
	Mesher    Mesher
	Pool      *pool.Pool[*ChunkEntity]
	Viewpoint Viewpoint
	Sink      MeshSink        // по умолчанию MemorySink
	Scene     Scene           // по умолчанию NopScene
	Metrics   *Metrics        // по умолчанию незарегистрированные метрики
	Logger    *logging.Logger // по умолчанию логгер "stream"
	Tracer    trace.Tracer    // по умолчанию глобальный otel TracerProvider
}

// Stats снимок состояния менеджера
type Stats struct {
	Loaded     int
	Loading    int
	FreeSlots  int
	Capacity   int
	Dispatched uint64
	Committed  uint64
	Evicted    uint64
	Failed     uint64
	Exhausted  uint64
}

// NewEntityPool создаёт пул сущностей чанков, разделяющих одно поле шума
func NewEntityPool(capacity int, field noise.Field) *pool.Pool[*ChunkEntity] {
	return pool.New("chunks", capacity, func(slot int) *ChunkEntity {
		return newChunkEntity(slot, field)
	})
}

// Manager решает, какие чанки загружены, отправляет сборку в фоновые воркеры и
// фиксирует результаты. Все методы вызываются только из основного потока.
type Manager struct {
	settings  Settings
	generator Generator
	mesher    Mesher
	pool      *pool.Pool[*ChunkEntity]
	viewpoint Viewpoint
	sink      MeshSink
	scene     Scene
	metrics   *Metrics
	log       *logging.Logger
	tracer    trace.Tracer

	loaded   map[vec.Vec2]*ChunkEntity
	loading  map[vec.Vec2]*task
	inflight []*task // в порядке отправки

	jobs        chan *task
	wg          sync.WaitGroup
	closeOnce   sync.Once
	closed      bool
	traceDigest bool

	stats Stats
}

// NewManager запускает воркеры и, если задано, запрашивает чанк (0,0)
func NewManager(settings Settings, deps Deps) (*Manager, error) {
	switch {
	case deps.Generator == nil:
		return nil, fmt.Errorf("%w: generator", ErrMissingDependency)
	case deps.Mesher == nil:
		return nil, fmt.Errorf("%w: mesher", ErrMissingDependency)
	case deps.Pool == nil:
		return nil, fmt.Errorf("%w: pool", ErrMissingDependency)
	case deps.Viewpoint == nil:
		return nil, fmt.Errorf("%w: viewpoint", ErrMissingDependency)
	}
	if settings.ChunkSize <= 0 {
		return nil, errors.New("chunk size must be positive")
	}
	if settings.Radius < 0 {
		return nil, errors.New("radius must not be negative")
	}
	if settings.Workers <= 0 {
		settings.Workers = runtime.NumCPU()
	}

	m := &Manager{
		settings:  settings,
		generator: deps.Generator,
		mesher:    deps.Mesher,
		pool:      deps.Pool,
		viewpoint: deps.Viewpoint,
		sink:      deps.Sink,
		scene:     deps.Scene,
		metrics:   deps.Metrics,
		log:       deps.Logger,
		tracer:    deps.Tracer,
		loaded:    make(map[vec.Vec2]*ChunkEntity),
		loading:   make(map[vec.Vec2]*task),
		// Одновременно в полёте не больше задач, чем сущностей в пуле, поэтому отправка не блокирует
		jobs: make(chan *task, deps.Pool.Capacity()),
	}
	if m.sink == nil {
		m.sink = NewMemorySink()
	}
	if m.scene == nil {
		m.scene = NopScene{}
	}
	if m.metrics == nil {
		m.metrics = NewMetrics(nil)
	}
	if m.log == nil {
		m.log = logging.GetStreamLogger()
	}
	if m.tracer == nil {
		m.tracer = otel.Tracer("github.com/annel0/blockworld/internal/stream")
	}
	m.traceDigest = m.log.Enabled(logging.TRACE)

	desired := (2*settings.Radius + 1) * (2*settings.Radius + 1)
	if m.pool.Capacity() < desired {
		m.log.Warn("Ёмкость пула %d меньше области загрузки %d: часть чанков не будет загружена", m.pool.Capacity(), desired)
	}

	for i := 0; i < settings.Workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}
	m.log.Info("Менеджер стриминга запущен: радиус=%d, пул=%d, воркеров=%d", settings.Radius, m.pool.Capacity(), settings.Workers)

	if settings.LoadOrigin {
		m.request(vec.Vec2{})
	}
	m.syncGauges()
	return m, nil
}

// Update один кадр: пересчёт желаемой области и фиксация готовых чанков
func (m *Manager) Update() {
	m.Tick()
	m.Poll()
}

// Tick вычисляет желаемую область вокруг наблюдателя, выгружает лишние чанки и
// отправляет сборку для недостающих
func (m *Manager) Tick() {
	pos, ok := m.viewpoint.Position()
	if !ok {
		return
	}

	center := vec.ChunkOf(pos.X(), pos.Z(), m.settings.ChunkSize)
	desired := vec.Square(center, m.settings.Radius)

	// Сначала выгрузка, чтобы освободившиеся сущности пошли в дело в этом же тике
	for coord, e := range m.loaded {
		if coord.ChebyshevDistance(center) > m.settings.Radius {
			m.evict(coord, e)
		}
	}

	for _, c := range desired {
		if !m.request(c) && m.pool.InactiveCount() == 0 {
			break
		}
	}
	m.syncGauges()
}

// request отправляет сборку чанка. false, если чанк уже есть, в полёте или пул исчерпан.
func (m *Manager) request(c vec.Vec2) bool {
	if m.closed {
		return false
	}
	if _, ok := m.loaded[c]; ok {
		return false
	}
	if _, ok := m.loading[c]; ok {
		return false
	}

	e, ok := m.pool.Get()
	if !ok {
		m.stats.Exhausted++
		m.metrics.exhausted.Inc()
		m.log.Debug("Пул чанков исчерпан, %s ждёт следующего тика", c)
		return false
	}

	e.assign(c, m.settings.ChunkSize)
	m.scene.Place(e, e.origin)

	t := &task{entity: e, coord: c, done: make(chan buildResult, 1)}
	m.loading[c] = t
	m.inflight = append(m.inflight, t)
	m.jobs <- t

	m.stats.Dispatched++
	m.metrics.dispatched.Inc()
	return true
}

// Poll забирает готовые результаты и фиксирует их. Возвращает число зафиксированных чанков.
func (m *Manager) Poll() int {
	committed := 0
	remaining := m.inflight[:0]

	for _, t := range m.inflight {
		select {
		case res := <-t.done:
			if m.finish(t, res) {
				committed++
			}
		default:
			remaining = append(remaining, t)
		}
	}

	for i := len(remaining); i < len(m.inflight); i++ {
		m.inflight[i] = nil
	}
	m.inflight = remaining

	m.syncGauges()
	return committed
}

func (m *Manager) finish(t *task, res buildResult) bool {
	delete(m.loading, t.coord)
	e := t.entity
	m.metrics.buildTime.Observe(res.elapsed.Seconds())

	if res.err != nil {
		m.fail(e, res.err)
		return false
	}

	e.commit()
	if err := m.sink.Upload(e, e.mesh); err != nil {
		m.fail(e, err)
		return false
	}
	m.sink.SetVisible(e, true)
	m.loaded[t.coord] = e

	m.stats.Committed++
	m.metrics.committed.Inc()
	m.log.Trace("Чанк %s зафиксирован: граней=%d, digest=%016x, за %s", t.coord, res.faces, res.digest, res.elapsed)
	return true
}

// fail возвращает сущность в пул, координата снова доступна для запроса
func (m *Manager) fail(e *ChunkEntity, err error) {
	m.log.Error("Сборка чанка %s не удалась: %v", e.coord, err)
	m.stats.Failed++
	m.metrics.failed.Inc()
	m.release(e)
}

func (m *Manager) evict(coord vec.Vec2, e *ChunkEntity) {
	delete(m.loaded, coord)
	m.sink.SetVisible(e, false)
	m.release(e)
	m.stats.Evicted++
	m.metrics.evicted.Inc()
}

func (m *Manager) release(e *ChunkEntity) {
	e.visible = false
	m.scene.Park(e)
	m.pool.Return(e)
}

func (m *Manager) syncGauges() {
	m.metrics.loaded.Set(float64(len(m.loaded)))
	m.metrics.loading.Set(float64(len(m.loading)))
	m.metrics.freeSlots.Set(float64(m.pool.InactiveCount()))
}

// Stats возвращает снимок состояния
func (m *Manager) Stats() Stats {
	s := m.stats
	s.Loaded = len(m.loaded)
	s.Loading = len(m.loading)
	s.FreeSlots = m.pool.InactiveCount()
	s.Capacity = m.pool.Capacity()
	return s
}

// IsLoaded сообщает, загружен ли чанк
func (m *Manager) IsLoaded(c vec.Vec2) bool {
	_, ok := m.loaded[c]
	return ok
}

// IsLoading сообщает, выполняется ли сборка чанка
func (m *Manager) IsLoading(c vec.Vec2) bool {
	_, ok := m.loading[c]
	return ok
}

// Chunk возвращает загруженную сущность чанка
func (m *Manager) Chunk(c vec.Vec2) (*ChunkEntity, bool) {
	e, ok := m.loaded[c]
	return e, ok
}

// Loaded возвращает координаты загруженных чанков, отсортированные по Z, затем по X
func (m *Manager) Loaded() []vec.Vec2 {
	coords := make([]vec.Vec2, 0, len(m.loaded))
	for c := range m.loaded {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].Z != coords[j].Z {
			return coords[i].Z < coords[j].Z
		}
		return coords[i].X < coords[j].X
	})
	return coords
}

// Close останавливает воркеры после завершения задач в полёте.
// Готовые результаты можно забрать последним вызовом Poll.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.closed = true
		close(m.jobs)
		m.wg.Wait()
		m.log.Info("Менеджер стриминга остановлен: загружено %d, в полёте %d", len(m.loaded), len(m.loading))
	})
}
