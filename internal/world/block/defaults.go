package block

// Имена блоков, на которые опирается генератор ландшафта
const (
	GrassName        = "Grass"
	DirtName         = "Dirt"
	GlassName        = "Glass"
	GlowstoneName    = "Glowstone"
	SakuraLeavesName = "SakuraLeaves"
)

// DefaultDefinitions возвращает встроенный набор блоков
func DefaultDefinitions() []Definition {
	grass := UniformTiles(TileIndex{Col: 1, Row: 0})
	grass[FaceTop] = TileIndex{Col: 0, Row: 0}
	grass[FaceBottom] = TileIndex{Col: 2, Row: 0}

	return []Definition{
		{Name: AirName, Renderable: false},
		{Name: GrassName, Renderable: true, Tiles: grass},
		{Name: DirtName, Renderable: true, Tiles: UniformTiles(TileIndex{Col: 2, Row: 0})},
		{Name: GlassName, Renderable: true, Transparent: true, Tiles: UniformTiles(TileIndex{Col: 3, Row: 0})},
		{Name: GlowstoneName, Renderable: true, Tiles: UniformTiles(TileIndex{Col: 4, Row: 0})},
		{Name: SakuraLeavesName, Renderable: true, Transparent: true, Tiles: UniformTiles(TileIndex{Col: 5, Row: 0})},
	}
}

// DefaultCatalog финализирует встроенный набор блоков
func DefaultCatalog() (*Catalog, error) {
	reg := NewRegistry()
	for _, def := range DefaultDefinitions() {
		if err := reg.Register(def); err != nil {
			return nil, err
		}
	}
	return reg.Finalize()
}
