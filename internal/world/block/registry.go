package block

import (
	"errors"
	"fmt"

	"github.com/annel0/blockworld/internal/logging"
)

// AirName имя обязательного "пустого" блока
const AirName = "Air"

var (
	// ErrMissingAir каталог не содержит блока Air
	ErrMissingAir = errors.New("catalog has no \"Air\" block")
	// ErrDuplicateBlock имя блока зарегистрировано повторно
	ErrDuplicateBlock = errors.New("duplicate block name")
	// ErrInvalidTile индекс тайла вне атласа
	ErrInvalidTile = errors.New("tile index outside atlas")
	// ErrEmptyName блок без имени
	ErrEmptyName = errors.New("block name is empty")
	// ErrFinalized регистрация после финализации
	ErrFinalized = errors.New("registry already finalized")
)

// BlockID интернированный идентификатор блока: индекс в плотной таблице каталога
type BlockID uint16

// Definition описание блока до финализации
type Definition struct {
	Name        string
	Renderable  bool
	Transparent bool
	Tiles       [FaceCount]TileIndex
}

// UniformTiles возвращает одинаковый тайл для всех граней
func UniformTiles(idx TileIndex) [FaceCount]TileIndex {
	var tiles [FaceCount]TileIndex
	for f := range tiles {
		tiles[f] = idx
	}
	return tiles
}

// BlockType финализированный неизменяемый тип блока
type BlockType struct {
	ID          BlockID
	Name        string
	Renderable  bool
	Transparent bool
	Faces       [FaceCount]TileUV
}

// Registry собирает определения блоков перед финализацией
type Registry struct {
	defs      []Definition
	names     map[string]struct{}
	finalized bool
}

// NewRegistry создаёт пустой регистр
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// Register добавляет определение блока в регистр
func (r *Registry) Register(def Definition) error {
	if r.finalized {
		return ErrFinalized
	}
	if def.Name == "" {
		return ErrEmptyName
	}
	if _, exists := r.names[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateBlock, def.Name)
	}
	for f, tile := range def.Tiles {
		if !tile.Valid() {
			return fmt.Errorf("%w: block %s face %s (%d,%d)", ErrInvalidTile, def.Name, Face(f), tile.Col, tile.Row)
		}
	}

	r.names[def.Name] = struct{}{}
	r.defs = append(r.defs, def)
	return nil
}

// Finalize строит неизменяемый каталог. Отсутствие Air является фатальной ошибкой конфигурации.
func (r *Registry) Finalize() (*Catalog, error) {
	if _, ok := r.names[AirName]; !ok {
		return nil, ErrMissingAir
	}
	if len(r.defs) > int(^BlockID(0))+1 {
		return nil, fmt.Errorf("too many blocks: %d", len(r.defs))
	}

	c := &Catalog{
		blocks: make([]BlockType, len(r.defs)),
		index:  make(map[string]BlockID, len(r.defs)),
	}

	for i, def := range r.defs {
		bt := BlockType{
			ID:          BlockID(i),
			Name:        def.Name,
			Renderable:  def.Renderable,
			Transparent: def.Transparent,
		}
		for f, tile := range def.Tiles {
			bt.Faces[f] = NewTileUV(tile)
		}
		c.blocks[i] = bt
		c.index[def.Name] = bt.ID
	}
	c.air = c.index[AirName]

	r.finalized = true
	logging.GetCatalogLogger().Info("Каталог блоков финализирован: %d типов", len(c.blocks))
	return c, nil
}

// Catalog неизменяемый каталог блоков. Безопасен для чтения из любых горутин.
type Catalog struct {
	blocks []BlockType
	index  map[string]BlockID
	air    BlockID
}

// Air возвращает ID блока-заполнителя
func (c *Catalog) Air() BlockID {
	return c.air
}

// Lookup возвращает ID блока по имени; при промахе возвращает Air
func (c *Catalog) Lookup(name string) BlockID {
	if id, ok := c.index[name]; ok {
		return id
	}
	return c.air
}

// Find возвращает ID блока по имени и признак наличия
func (c *Catalog) Find(name string) (BlockID, bool) {
	id, ok := c.index[name]
	return id, ok
}

// Has проверяет наличие блока в каталоге
func (c *Catalog) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Get возвращает тип блока по ID; неизвестный ID даёт Air
func (c *Catalog) Get(id BlockID) *BlockType {
	if int(id) >= len(c.blocks) {
		return &c.blocks[c.air]
	}
	return &c.blocks[id]
}

// IsRenderable сокращение для Get(id).Renderable
func (c *Catalog) IsRenderable(id BlockID) bool {
	return c.Get(id).Renderable
}

// Len возвращает количество типов блоков
func (c *Catalog) Len() int {
	return len(c.blocks)
}

// Names возвращает имена блоков в порядке ID
func (c *Catalog) Names() []string {
	names := make([]string, len(c.blocks))
	for i := range c.blocks {
		names[i] = c.blocks[i].Name
	}
	return names
}
