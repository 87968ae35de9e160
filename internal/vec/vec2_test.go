package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkOf(t *testing.T) {
	assert.Equal(t, Vec2{X: 0, Z: 0}, ChunkOf(0.5, 15.9, 16))
	assert.Equal(t, Vec2{X: -1, Z: 2}, ChunkOf(-0.1, 32, 16))
	assert.Equal(t, Vec2{X: -2, Z: -1}, ChunkOf(-16.5, -3, 16))
}

func TestSquare(t *testing.T) {
	center := Vec2{X: 3, Z: -2}

	assert.Equal(t, []Vec2{center}, Square(center, 0))
	assert.Nil(t, Square(center, -1))

	for r := 1; r <= 4; r++ {
		coords := Square(center, r)
		side := 2*r + 1
		assert.Len(t, coords, side*side, "радиус %d", r)

		seen := make(map[Vec2]struct{}, len(coords))
		prev := 0
		for _, c := range coords {
			_, dup := seen[c]
			assert.False(t, dup, "координата %v повторяется", c)
			seen[c] = struct{}{}

			d := c.ChebyshevDistance(center)
			assert.LessOrEqual(t, d, r)
			assert.GreaterOrEqual(t, d, prev, "кольца должны идти от центра")
			prev = d
		}
	}
}

func TestVec2Ops(t *testing.T) {
	a := Vec2{X: 1, Z: 2}
	b := Vec2{X: -3, Z: 5}
	assert.Equal(t, Vec2{X: -2, Z: 7}, a.Add(b))
	assert.Equal(t, Vec2{X: 4, Z: -3}, a.Sub(b))
	assert.Equal(t, Vec2{X: 16, Z: 32}, a.Scale(16))
	assert.Equal(t, 4, a.ChebyshevDistance(b))
	assert.Equal(t, 4, b.ChebyshevDistance(a))
	assert.Equal(t, 0, a.ChebyshevDistance(a))
	assert.Equal(t, "(1,2)", a.String())
}
