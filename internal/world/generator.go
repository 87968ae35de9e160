package world

import (
	"errors"
	"fmt"

	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/noise"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
)

// Константы рельефа
const (
	DetailFrequency = 0.8  // Частота мелкого слоя шума
	BaseFrequency   = 0.3  // Частота крупного слоя шума
	HeightAmplitude = 10.0 // Амплитуда обоих слоёв в блоках

	DefaultLeafThreshold = 0.14 // Порог мелкого шума для листвы

	// Мировой столбец с маркерными блоками в чанке (0,0)
	MarkerColumnX = 8
	MarkerColumnZ = 8
)

// ErrInvalidSettings недопустимые параметры генерации
var ErrInvalidSettings = errors.New("invalid generation settings")

// Settings параметры генерации ландшафта
type Settings struct {
	ChunkSize     int     // Ширина чанка в блоках
	MaxHeight     int     // Высота чанка в блоках
	WaterLevel    int     // Базовый уровень поверхности
	LeafThreshold float64 // Порог листвы; 0 означает значение по умолчанию
}

// DefaultSettings возвращает параметры по умолчанию
func DefaultSettings() Settings {
	return Settings{
		ChunkSize:     16,
		MaxHeight:     128,
		WaterLevel:    64,
		LeafThreshold: DefaultLeafThreshold,
	}
}

// Validate проверяет параметры генерации
func (s Settings) Validate() error {
	if s.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size %d", ErrInvalidSettings, s.ChunkSize)
	}
	if s.MaxHeight <= 1 {
		return fmt.Errorf("%w: max height %d", ErrInvalidSettings, s.MaxHeight)
	}
	if s.WaterLevel < 0 || s.WaterLevel >= s.MaxHeight {
		return fmt.Errorf("%w: water level %d outside [0, %d)", ErrInvalidSettings, s.WaterLevel, s.MaxHeight)
	}
	return nil
}

// palette ID блоков, которыми оперирует генератор
type palette struct {
	air     block.BlockID
	surface block.BlockID
	soil    block.BlockID

	glass, glowstone, leaves          block.BlockID
	hasGlass, hasGlowstone, hasLeaves bool
}

func newPalette(c *block.Catalog) palette {
	p := palette{air: c.Air()}

	surface, hasSurface := c.Find(block.GrassName)
	soil, hasSoil := c.Find(block.DirtName)
	// Если одного из блоков нет, все твёрдые клетки получают оставшийся
	switch {
	case hasSurface && hasSoil:
		p.surface, p.soil = surface, soil
	case hasSurface:
		p.surface, p.soil = surface, surface
	case hasSoil:
		p.surface, p.soil = soil, soil
	default:
		p.surface, p.soil = p.air, p.air
	}

	p.glass, p.hasGlass = c.Find(block.GlassName)
	p.glowstone, p.hasGlowstone = c.Find(block.GlowstoneName)
	p.leaves, p.hasLeaves = c.Find(block.SakuraLeavesName)
	return p
}

// TerrainGenerator строит сетку блоков чанка. Не имеет изменяемого состояния:
// один экземпляр можно вызывать из нескольких горутин одновременно.
type TerrainGenerator struct {
	noise    noise.Field
	catalog  *block.Catalog
	settings Settings
	palette  palette
}

// NewTerrainGenerator создаёт генератор ландшафта
func NewTerrainGenerator(field noise.Field, catalog *block.Catalog, settings Settings) (*TerrainGenerator, error) {
	if field == nil || catalog == nil {
		return nil, errors.New("terrain generator needs a noise field and a catalog")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if settings.LeafThreshold == 0 {
		settings.LeafThreshold = DefaultLeafThreshold
	}

	tg := &TerrainGenerator{
		noise:    field,
		catalog:  catalog,
		settings: settings,
		palette:  newPalette(catalog),
	}
	logging.GetWorldLogger().Debug("Генератор ландшафта: seed=%d, чанк=%d, высота=%d, уровень=%d",
		field.Seed(), settings.ChunkSize, settings.MaxHeight, settings.WaterLevel)
	return tg, nil
}

// Settings возвращает параметры генерации
func (tg *TerrainGenerator) Settings() Settings {
	return tg.settings
}

// Catalog возвращает каталог блоков генератора
func (tg *TerrainGenerator) Catalog() *block.Catalog {
	return tg.catalog
}

// column значения шума одного столбца, не зависящие от высоты
type column struct {
	surface float64 // высота поверхности
	detail  float64 // мелкий слой шума
	marker  bool
}

// Generate генерирует сетку чанка coords вместе с рамкой соседних столбцов.
// Результат детерминирован: зависит только от координат, шума, каталога и параметров.
func (tg *TerrainGenerator) Generate(coords vec.Vec2) *VoxelGrid {
	size := tg.settings.ChunkSize
	maxHeight := tg.settings.MaxHeight
	p := tg.palette

	grid := NewVoxelGrid(maxHeight, size, p.air)
	width := grid.Width

	origin := coords.Scale(size)
	originChunk := coords == vec.Vec2{}

	columns := make([]column, width*width)
	for x := 0; x < width; x++ {
		for z := 0; z < width; z++ {
			// -1 учитывает рамку
			wx := origin.X + x - 1
			wz := origin.Z + z - 1
			columns[x*width+z] = tg.sampleColumn(wx, wz, originChunk)
		}
	}

	// Сверху вниз: блок над текущим уже известен
	for y := maxHeight - 1; y >= 0; y-- {
		for x := 0; x < width; x++ {
			for z := 0; z < width; z++ {
				above := p.air
				if y < maxHeight-1 {
					above = grid.Get(y+1, x, z)
				}
				grid.Set(y, x, z, tg.blockAt(columns[x*width+z], y, above))
			}
		}
	}

	return grid
}

func (tg *TerrainGenerator) sampleColumn(wx, wz int, originChunk bool) column {
	x, z := float64(wx), float64(wz)

	detail := tg.noise.Sample2D(x*DetailFrequency, z*DetailFrequency) * HeightAmplitude
	base := tg.noise.Sample2D(x*BaseFrequency, z*BaseFrequency)
	broad := base * HeightAmplitude * (base + 0.5)

	return column{
		surface: detail + broad + float64(tg.settings.WaterLevel),
		detail:  detail,
		marker:  originChunk && wx == MarkerColumnX && wz == MarkerColumnZ,
	}
}

// blockAt применяет правила по приоритету: рельеф, маркеры, листва.
// Более поздние правила перекрывают ранние.
func (tg *TerrainGenerator) blockAt(col column, y int, above block.BlockID) block.BlockID {
	p := tg.palette
	if float64(y) > col.surface {
		return p.air
	}

	id := p.soil
	if !tg.catalog.IsRenderable(above) {
		id = p.surface
	}

	if col.marker {
		switch {
		case above == p.air && p.hasGlass:
			id = p.glass
		case p.hasGlass && above == p.glass && p.hasGlowstone:
			id = p.glowstone
		}
	}

	if p.hasLeaves && col.detail > tg.settings.LeafThreshold && above == p.air {
		id = p.leaves
	}

	return id
}
