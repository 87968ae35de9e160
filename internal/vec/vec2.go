package vec

import (
	"fmt"
	"math"
)

// Vec2 представляет целочисленные координаты столбца мира в плоскости XZ.
// Используется как ключ чанка: равенство точное, без плавающей точки.
type Vec2 struct {
	X, Z int
}

// Add складывает два вектора
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Z: v.Z + other.Z}
}

// Sub вычитает вектор
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Z: v.Z - other.Z}
}

// Scale умножает обе координаты на целое число
func (v Vec2) Scale(k int) Vec2 {
	return Vec2{X: v.X * k, Z: v.Z * k}
}

// ChebyshevDistance возвращает расстояние "по квадрату": max(|dx|, |dz|)
func (v Vec2) ChebyshevDistance(other Vec2) int {
	d := v.Sub(other)
	if d.X < 0 {
		d.X = -d.X
	}
	if d.Z < 0 {
		d.Z = -d.Z
	}
	if d.X > d.Z {
		return d.X
	}
	return d.Z
}

func (v Vec2) String() string {
	return fmt.Sprintf("(%d,%d)", v.X, v.Z)
}

// ChunkOf возвращает координаты чанка, содержащего мировую точку (x, z)
func ChunkOf(x, z float32, chunkSize int) Vec2 {
	size := float64(chunkSize)
	return Vec2{
		X: int(math.Floor(float64(x) / size)),
		Z: int(math.Floor(float64(z) / size)),
	}
}

// Square возвращает координаты квадрата радиуса r вокруг center,
// упорядоченные кольцами от центра наружу.
func Square(center Vec2, r int) []Vec2 {
	if r < 0 {
		return nil
	}
	side := 2*r + 1
	out := make([]Vec2, 0, side*side)
	out = append(out, center)
	for ring := 1; ring <= r; ring++ {
		for dx := -ring; dx <= ring; dx++ {
			out = append(out, center.Add(Vec2{X: dx, Z: -ring}))
		}
		for dz := -ring + 1; dz <= ring; dz++ {
			out = append(out, center.Add(Vec2{X: ring, Z: dz}))
		}
		for dx := ring - 1; dx >= -ring; dx-- {
			out = append(out, center.Add(Vec2{X: dx, Z: ring}))
		}
		for dz := ring - 1; dz > -ring; dz-- {
			out = append(out, center.Add(Vec2{X: -ring, Z: dz}))
		}
	}
	return out
}
