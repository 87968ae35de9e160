package stream

import (
	"sync"

	"github.com/annel0/blockworld/internal/mesh"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
	"github.com/go-gl/mathgl/mgl32"
)

// Generator строит воксельную сетку чанка. Вызывается из фоновых горутин.
type Generator interface {
	Generate(coords vec.Vec2) *world.VoxelGrid
}

// Mesher строит меш по сетке в переданный буфер. Вызывается из фоновых горутин.
type Mesher interface {
	Build(grid *world.VoxelGrid, dst *mesh.Mesh)
}

// Viewpoint источник позиции наблюдателя. false отключает стриминг на текущий тик.
type Viewpoint interface {
	Position() (mgl32.Vec3, bool)
}

// MeshSink принимает готовые меши для отображения
type MeshSink interface {
	Upload(e *ChunkEntity, m *mesh.Mesh) error
	SetVisible(e *ChunkEntity, visible bool)
}

// Scene управляет размещением сущностей чанков в сцене
type Scene interface {
	// Place ставит активную сущность в мировую позицию
	Place(e *ChunkEntity, origin mgl32.Vec3)
	// Park убирает сущность в неактивную группу
	Park(e *ChunkEntity)
}

// FixedViewpoint позиция наблюдателя, задаваемая вручную
type FixedViewpoint struct {
	mu  sync.RWMutex
	pos mgl32.Vec3
	set bool
}

// NewFixedViewpoint создаёт наблюдателя в заданной позиции
func NewFixedViewpoint(pos mgl32.Vec3) *FixedViewpoint {
	return &FixedViewpoint{pos: pos, set: true}
}

// Set задаёт позицию
func (v *FixedViewpoint) Set(pos mgl32.Vec3) {
	v.mu.Lock()
	v.pos = pos
	v.set = true
	v.mu.Unlock()
}

// Clear снимает позицию; стриминг приостанавливается
func (v *FixedViewpoint) Clear() {
	v.mu.Lock()
	v.set = false
	v.mu.Unlock()
}

func (v *FixedViewpoint) Position() (mgl32.Vec3, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.pos, v.set
}

// MemorySink хранит статистику загрузок в памяти. Используется headless-драйвером и тестами.
type MemorySink struct {
	mu        sync.Mutex
	uploads   int
	triangles map[int]int
	visible   map[int]bool
}

// NewMemorySink создаёт пустой приёмник
func NewMemorySink() *MemorySink {
	return &MemorySink{
		triangles: make(map[int]int),
		visible:   make(map[int]bool),
	}
}

func (s *MemorySink) Upload(e *ChunkEntity, m *mesh.Mesh) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads++
	s.triangles[e.ID()] = m.TriangleCount()
	return nil
}

func (s *MemorySink) SetVisible(e *ChunkEntity, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible[e.ID()] = visible
}

// Uploads возвращает общее число загрузок
func (s *MemorySink) Uploads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}

// VisibleCount возвращает число видимых сущностей
func (s *MemorySink) VisibleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.visible {
		if v {
			n++
		}
	}
	return n
}

// Triangles возвращает суммарное число треугольников последних загрузок видимых сущностей
func (s *MemorySink) Triangles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for id, n := range s.triangles {
		if s.visible[id] {
			total += n
		}
	}
	return total
}

// NopScene сцена без размещения
type NopScene struct{}

func (NopScene) Place(*ChunkEntity, mgl32.Vec3) {}
func (NopScene) Park(*ChunkEntity)              {}
