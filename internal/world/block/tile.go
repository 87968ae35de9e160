package block

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Параметры атласа текстур
const (
	AtlasTiles  = 8     // атлас 8x8 тайлов
	TilePadding = 0.001 // отступ внутрь тайла против "протекания" соседних
)

// Face определяет одну из шести граней куба
type Face int

const (
	FaceTop Face = iota
	FaceBottom
	FaceLeft  // -X
	FaceRight // +X
	FaceFront // -Z
	FaceBack  // +Z

	FaceCount // всегда последний: количество граней
)

var faceNames = [FaceCount]string{"top", "bottom", "left", "right", "front", "back"}

// String возвращает имя грани, совпадающее с ключом в файле каталога
func (f Face) String() string {
	if f < 0 || f >= FaceCount {
		return fmt.Sprintf("face(%d)", int(f))
	}
	return faceNames[f]
}

// TileIndex задаёт тайл атласа: столбец и строка
type TileIndex struct {
	Col int
	Row int
}

// Valid проверяет, что индекс попадает в атлас
func (t TileIndex) Valid() bool {
	return t.Col >= 0 && t.Col < AtlasTiles && t.Row >= 0 && t.Row < AtlasTiles
}

// TileUV содержит UV-координаты четырёх углов квада.
// Порядок углов совпадает с порядком вершин в таблице граней.
type TileUV [4]mgl32.Vec2

// NewTileUV вычисляет UV тайла с отступом TilePadding внутрь
func NewTileUV(idx TileIndex) TileUV {
	const step = 1.0 / AtlasTiles
	u0 := float32(idx.Col)*step + TilePadding
	v0 := float32(idx.Row)*step + TilePadding
	u1 := float32(idx.Col+1)*step - TilePadding
	v1 := float32(idx.Row+1)*step - TilePadding

	return TileUV{
		{u0, v0},
		{u0, v1},
		{u1, v1},
		{u1, v0},
	}
}
