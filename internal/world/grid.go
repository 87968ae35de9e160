package world

import (
	"encoding/binary"

	"github.com/annel0/blockworld/internal/world/block"
	"github.com/cespare/xxhash/v2"
)

// VoxelGrid трёхмерная сетка блоков чанка с рамкой в один блок по X и Z.
// Индексация [y][x][z]: y ∈ [0, Height), x, z ∈ [0, Width), Width = size+2.
// Рамка хранит блоки соседних столбцов и нужна только для отсечения граней.
type VoxelGrid struct {
	Height int
	Width  int
	Cells  []block.BlockID
}

// NewVoxelGrid создаёт сетку для чанка размера size, заполненную fill
func NewVoxelGrid(height, size int, fill block.BlockID) *VoxelGrid {
	width := size + 2
	g := &VoxelGrid{
		Height: height,
		Width:  width,
		Cells:  make([]block.BlockID, height*width*width),
	}
	if fill != 0 {
		for i := range g.Cells {
			g.Cells[i] = fill
		}
	}
	return g
}

// Size возвращает размер чанка без рамки
func (g *VoxelGrid) Size() int {
	return g.Width - 2
}

// InBounds проверяет, что координаты попадают в сетку (включая рамку)
func (g *VoxelGrid) InBounds(y, x, z int) bool {
	return y >= 0 && y < g.Height && x >= 0 && x < g.Width && z >= 0 && z < g.Width
}

func (g *VoxelGrid) index(y, x, z int) int {
	return (y*g.Width+x)*g.Width + z
}

// Get возвращает блок; координаты должны быть в пределах сетки
func (g *VoxelGrid) Get(y, x, z int) block.BlockID {
	return g.Cells[g.index(y, x, z)]
}

// Set устанавливает блок; координаты должны быть в пределах сетки
func (g *VoxelGrid) Set(y, x, z int, id block.BlockID) {
	g.Cells[g.index(y, x, z)] = id
}

// Fill заполняет прямоугольный объём [y0,y1)×[x0,x1)×[z0,z1) блоком id
func (g *VoxelGrid) Fill(y0, y1, x0, x1, z0, z1 int, id block.BlockID) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			for z := z0; z < z1; z++ {
				g.Set(y, x, z, id)
			}
		}
	}
}

// Count возвращает количество клеток с блоком id
func (g *VoxelGrid) Count(id block.BlockID) int {
	n := 0
	for _, c := range g.Cells {
		if c == id {
			n++
		}
	}
	return n
}

// Digest возвращает отпечаток содержимого сетки, включая размеры
func (g *VoxelGrid) Digest() uint64 {
	h := xxhash.New()
	var tmp [8]byte
	binary.LittleEndian.PutUint32(tmp[:4], uint32(g.Height))
	binary.LittleEndian.PutUint32(tmp[4:], uint32(g.Width))
	h.Write(tmp[:])

	buf := make([]byte, 2*len(g.Cells))
	for i, c := range g.Cells {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(c))
	}
	h.Write(buf)
	return h.Sum64()
}
