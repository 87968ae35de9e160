package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Mesh буферы геометрии чанка. Vertices, UVs и Normals индексируются параллельно.
type Mesh struct {
	Vertices []mgl32.Vec3
	Indices  []uint32
	UVs      []mgl32.Vec2
	Normals  []mgl32.Vec3
}

// AABB ограничивающий параллелепипед
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Size возвращает размеры параллелепипеда
func (b AABB) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Reset очищает буферы, сохраняя выделенную память
func (m *Mesh) Reset() {
	m.Vertices = m.Vertices[:0]
	m.Indices = m.Indices[:0]
	m.UVs = m.UVs[:0]
	m.Normals = m.Normals[:0]
}

// FaceCount количество квадов в сетке
func (m *Mesh) FaceCount() int {
	return len(m.Vertices) / 4
}

// TriangleCount количество треугольников
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Empty сообщает, что в сетке нет геометрии
func (m *Mesh) Empty() bool {
	return len(m.Indices) == 0
}

// RecalculateNormals пересчитывает нормали вершин по треугольникам
func (m *Mesh) RecalculateNormals() {
	if cap(m.Normals) >= len(m.Vertices) {
		m.Normals = m.Normals[:len(m.Vertices)]
		for i := range m.Normals {
			m.Normals[i] = mgl32.Vec3{}
		}
	} else {
		m.Normals = make([]mgl32.Vec3, len(m.Vertices))
	}

	for t := 0; t+2 < len(m.Indices); t += 3 {
		a, b, c := m.Indices[t], m.Indices[t+1], m.Indices[t+2]
		v0 := m.Vertices[a]
		n := m.Vertices[b].Sub(v0).Cross(m.Vertices[c].Sub(v0))
		m.Normals[a] = m.Normals[a].Add(n)
		m.Normals[b] = m.Normals[b].Add(n)
		m.Normals[c] = m.Normals[c].Add(n)
	}

	for i, n := range m.Normals {
		if n.Len() > 0 {
			m.Normals[i] = n.Normalize()
		}
	}
}

// Bounds возвращает ограничивающий параллелепипед вершин; для пустой сетки нулевой
func (m *Mesh) Bounds() AABB {
	if len(m.Vertices) == 0 {
		return AABB{}
	}

	inf := float32(math.Inf(1))
	box := AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
	for _, v := range m.Vertices {
		for axis := 0; axis < 3; axis++ {
			if v[axis] < box.Min[axis] {
				box.Min[axis] = v[axis]
			}
			if v[axis] > box.Max[axis] {
				box.Max[axis] = v[axis]
			}
		}
	}
	return box
}
