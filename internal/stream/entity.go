package stream

import (
	"fmt"

	"github.com/annel0/blockworld/internal/mesh"
	"github.com/annel0/blockworld/internal/noise"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
)

// State состояние чанка в жизненном цикле пула
type State int

const (
	StateInactive State = iota // в пуле, не виден
	StateLoading               // выполняется фоновая сборка
	StateLoaded                // меш зафиксирован, чанк виден
)

func (s State) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ChunkEntity переиспользуемый держатель меша чанка.
// Пока сущность в состоянии Loading, буфер build принадлежит фоновой задаче;
// все остальные поля меняются только из основного потока.
type ChunkEntity struct {
	id      int
	coord   vec.Vec2
	origin  mgl32.Vec3
	state   State
	visible bool

	mesh   *mesh.Mesh // зафиксированный меш
	build  *mesh.Mesh // буфер фоновой сборки
	bounds mesh.AABB

	field noise.Field
}

func newChunkEntity(id int, field noise.Field) *ChunkEntity {
	return &ChunkEntity{
		id:    id,
		mesh:  &mesh.Mesh{},
		build: &mesh.Mesh{},
		field: field,
	}
}

// ResetItem подготавливает сущность к новой выдаче из пула
func (e *ChunkEntity) ResetItem() {
	e.coord = vec.Vec2{}
	e.origin = mgl32.Vec3{}
	e.state = StateInactive
	e.visible = false
	e.bounds = mesh.AABB{}
	e.mesh.Reset()
	e.build.Reset()
}

// Returned вызывается пулом при возврате сущности
func (e *ChunkEntity) Returned() {
	e.state = StateInactive
	e.visible = false
}

// assign привязывает сущность к координате чанка и переводит её в Loading
func (e *ChunkEntity) assign(coord vec.Vec2, chunkSize int) {
	e.coord = coord
	e.origin = mgl32.Vec3{float32(coord.X * chunkSize), 0, float32(coord.Z * chunkSize)}
	e.state = StateLoading
}

// commit переносит собранные буферы в рабочий меш и пересчитывает производные данные
func (e *ChunkEntity) commit() {
	e.mesh, e.build = e.build, e.mesh
	e.build.Reset()
	e.mesh.RecalculateNormals()
	e.bounds = e.mesh.Bounds()
	e.state = StateLoaded
	e.visible = true
}

// ID возвращает номер слота сущности в пуле
func (e *ChunkEntity) ID() int { return e.id }

// Coord возвращает координату чанка
func (e *ChunkEntity) Coord() vec.Vec2 { return e.coord }

// Origin возвращает мировую позицию чанка (chunkX*size, 0, chunkZ*size)
func (e *ChunkEntity) Origin() mgl32.Vec3 { return e.origin }

// State возвращает текущее состояние
func (e *ChunkEntity) State() State { return e.state }

// Visible сообщает, виден ли чанк
func (e *ChunkEntity) Visible() bool { return e.visible }

// Mesh возвращает зафиксированный меш. Содержимое валидно только в состоянии Loaded.
func (e *ChunkEntity) Mesh() *mesh.Mesh { return e.mesh }

// Bounds возвращает габариты зафиксированного меша в локальных координатах
func (e *ChunkEntity) Bounds() mesh.AABB { return e.bounds }

// Field возвращает общее поле шума мира
func (e *ChunkEntity) Field() noise.Field { return e.field }

func (e *ChunkEntity) String() string {
	return fmt.Sprintf("chunk#%d%s[%s]", e.id, e.coord, e.state)
}
