package noise

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPerlinFieldDeterministic(t *testing.T) {
	a := NewPerlinField(DefaultSettings(1337))
	b := NewPerlinField(DefaultSettings(1337))

	for x := -40.0; x <= 40; x += 3.5 {
		for z := -40.0; z <= 40; z += 4.25 {
			assert.Equal(t, a.Sample2D(x, z), b.Sample2D(x, z), "одинаковый сид должен давать одинаковый шум")
			assert.Equal(t, a.Sample3D(x, 7, z), b.Sample3D(x, 7, z))
		}
	}
	assert.Equal(t, int64(1337), a.Seed())
}

func TestPerlinFieldSeedsDiffer(t *testing.T) {
	a := NewPerlinField(DefaultSettings(1))
	b := NewPerlinField(DefaultSettings(2))

	differs := false
	for x := 0.0; x < 200 && !differs; x += 7.3 {
		differs = a.Sample2D(x, x*0.5) != b.Sample2D(x, x*0.5)
	}
	assert.True(t, differs, "разные сиды должны давать разный шум")
}

func TestPerlinFieldRange(t *testing.T) {
	f := NewPerlinField(DefaultSettings(42))
	for x := -500.0; x <= 500; x += 13 {
		for z := -500.0; z <= 500; z += 17 {
			v := f.Sample2D(x, z)
			assert.False(t, math.IsNaN(v))
			assert.LessOrEqual(t, math.Abs(v), 2.0, "значение шума вне ожидаемого диапазона")
		}
	}
}

func TestPerlinFieldConcurrentReads(t *testing.T) {
	f := NewPerlinField(DefaultSettings(7))
	want := f.Sample2D(12.5, -3.25)

	var wg sync.WaitGroup
	results := make([]float64, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.Sample2D(12.5, -3.25)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestConstant(t *testing.T) {
	var f Field = Constant(0.25)
	assert.Equal(t, 0.25, f.Sample2D(100, -5))
	assert.Equal(t, 0.25, f.Sample3D(1, 2, 3))
	assert.Equal(t, int64(0), f.Seed())
}
