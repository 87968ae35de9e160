package noise

import (
	"github.com/aquilax/go-perlin"
)

// Параметры шума Перлина по умолчанию
const (
	DefaultAlpha     = 2.0  // Сглаживание шума
	DefaultBeta      = 2.0  // Частота шума
	DefaultOctaves   = 3    // Количество октав
	DefaultFrequency = 0.01 // Масштаб мировых координат перед выборкой
)

// Field детерминированное скалярное поле. Реализации только читают своё
// состояние и безопасны для одновременного использования из горутин.
type Field interface {
	// Sample2D возвращает значение примерно в диапазоне [-1, 1]
	Sample2D(x, z float64) float64
	// Sample3D возвращает значение примерно в диапазоне [-1, 1]
	Sample3D(x, y, z float64) float64
	// Seed возвращает сид, которым инициализировано поле
	Seed() int64
}

// Settings параметры генератора шума
type Settings struct {
	Seed      int64
	Alpha     float64
	Beta      float64
	Octaves   int32
	Frequency float64
}

// DefaultSettings возвращает параметры по умолчанию для сида
func DefaultSettings(seed int64) Settings {
	return Settings{
		Seed:      seed,
		Alpha:     DefaultAlpha,
		Beta:      DefaultBeta,
		Octaves:   DefaultOctaves,
		Frequency: DefaultFrequency,
	}
}

// PerlinField поле шума Перлина, инициализируется один раз на мир
type PerlinField struct {
	perlin    *perlin.Perlin
	seed      int64
	frequency float64
}

// NewPerlinField создаёт поле шума с указанными параметрами
func NewPerlinField(s Settings) *PerlinField {
	if s.Alpha == 0 {
		s.Alpha = DefaultAlpha
	}
	if s.Beta == 0 {
		s.Beta = DefaultBeta
	}
	if s.Octaves <= 0 {
		s.Octaves = DefaultOctaves
	}
	if s.Frequency == 0 {
		s.Frequency = DefaultFrequency
	}

	return &PerlinField{
		perlin:    perlin.NewPerlin(s.Alpha, s.Beta, s.Octaves, s.Seed),
		seed:      s.Seed,
		frequency: s.Frequency,
	}
}

// Sample2D возвращает значение шума в точке (x, z)
func (p *PerlinField) Sample2D(x, z float64) float64 {
	return p.perlin.Noise2D(x*p.frequency, z*p.frequency)
}

// Sample3D возвращает значение шума в точке (x, y, z)
func (p *PerlinField) Sample3D(x, y, z float64) float64 {
	return p.perlin.Noise3D(x*p.frequency, y*p.frequency, z*p.frequency)
}

// Seed возвращает сид поля
func (p *PerlinField) Seed() int64 {
	return p.seed
}

// Constant поле, везде возвращающее одно значение. Нужно для плоских миров и тестов.
type Constant float64

func (c Constant) Sample2D(x, z float64) float64    { return float64(c) }
func (c Constant) Sample3D(x, y, z float64) float64 { return float64(c) }
func (c Constant) Seed() int64                      { return 0 }
