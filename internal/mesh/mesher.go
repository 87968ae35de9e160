package mesh

import (
	"github.com/annel0/blockworld/internal/world"
	"github.com/annel0/blockworld/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// Mesher строит геометрию чанка по сетке блоков с отсечением скрытых граней.
// Состояния не хранит, безопасен для одновременного использования.
type Mesher struct {
	catalog *block.Catalog
}

// NewMesher создаёт построитель сеток для каталога
func NewMesher(catalog *block.Catalog) *Mesher {
	return &Mesher{catalog: catalog}
}

// ShouldBuildFace решает, видна ли грань current со стороны соседа next.
// next == nil означает, что соседа нет (за пределами сетки).
func ShouldBuildFace(current, next *block.BlockType) bool {
	if next == nil {
		return true
	}
	if !next.Renderable {
		return true
	}
	if next.Transparent {
		return current.Renderable
	}
	return false
}

// BuildMesh строит новую сетку
func (m *Mesher) BuildMesh(grid *world.VoxelGrid) *Mesh {
	dst := &Mesh{}
	m.Build(grid, dst)
	return dst
}

// Build очищает dst и заполняет его гранями внутренних блоков сетки.
// Клетки рамки читаются только как соседи.
func (m *Mesher) Build(grid *world.VoxelGrid, dst *Mesh) {
	dst.Reset()

	size := grid.Size()
	for y := 1; y < grid.Height; y++ {
		for x := 1; x <= size; x++ {
			for z := 1; z <= size; z++ {
				current := m.catalog.Get(grid.Get(y, x, z))
				if !current.Renderable {
					continue
				}
				m.buildBlock(grid, dst, y, x, z, current)
			}
		}
	}
}

func (m *Mesher) buildBlock(grid *world.VoxelGrid, dst *Mesh, y, x, z int, current *block.BlockType) {
	// Начало блока в локальных координатах чанка без рамки
	origin := mgl32.Vec3{float32(x - 1), float32(y), float32(z - 1)}

	for f := block.Face(0); f < block.FaceCount; f++ {
		d := faceNeighbour[f]
		ny, nx, nz := y+d.dy, x+d.dx, z+d.dz

		var next *block.BlockType
		if grid.InBounds(ny, nx, nz) {
			next = m.catalog.Get(grid.Get(ny, nx, nz))
		}

		if ShouldBuildFace(current, next) {
			appendFace(dst, origin, f, &current.Faces[f])
		}
	}
}

func appendFace(dst *Mesh, origin mgl32.Vec3, f block.Face, uv *block.TileUV) {
	last := uint32(len(dst.Vertices))

	for _, corner := range FaceCorners[f] {
		dst.Vertices = append(dst.Vertices, origin.Add(corner))
	}
	for _, i := range faceIndices {
		dst.Indices = append(dst.Indices, last+i)
	}
	dst.UVs = append(dst.UVs, uv[:]...)
}
