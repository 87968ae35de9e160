package block

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile формат YAML-файла с описанием блоков:
//
//	blocks:
//	  - name: Air
//	    renderable: false
//	  - name: Grass
//	    tiles: {all: [1, 0], top: [0, 0], bottom: [2, 0]}
type catalogFile struct {
	Blocks []blockEntry `yaml:"blocks"`
}

type blockEntry struct {
	Name        string    `yaml:"name"`
	Renderable  *bool     `yaml:"renderable"` // по умолчанию true
	Transparent bool      `yaml:"transparent"`
	Tiles       tileEntry `yaml:"tiles"`
}

type tileEntry struct {
	All    []int `yaml:"all"`
	Top    []int `yaml:"top"`
	Bottom []int `yaml:"bottom"`
	Left   []int `yaml:"left"`
	Right  []int `yaml:"right"`
	Front  []int `yaml:"front"`
	Back   []int `yaml:"back"`
}

// LoadCatalogFile читает YAML-файл каталога и финализирует его
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения каталога %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog разбирает YAML-описание блоков и финализирует каталог
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("ошибка разбора каталога: %w", err)
	}

	reg := NewRegistry()
	for i, entry := range file.Blocks {
		def, err := entry.definition()
		if err != nil {
			return nil, fmt.Errorf("блок #%d: %w", i, err)
		}
		if err := reg.Register(def); err != nil {
			return nil, fmt.Errorf("блок #%d: %w", i, err)
		}
	}
	return reg.Finalize()
}

func (e blockEntry) definition() (Definition, error) {
	def := Definition{
		Name:        e.Name,
		Renderable:  true,
		Transparent: e.Transparent,
	}
	if e.Renderable != nil {
		def.Renderable = *e.Renderable
	}

	fallback, err := parseTile(e.Tiles.All, TileIndex{})
	if err != nil {
		return def, fmt.Errorf("%s: all: %w", e.Name, err)
	}

	perFace := [FaceCount][]int{
		FaceTop:    e.Tiles.Top,
		FaceBottom: e.Tiles.Bottom,
		FaceLeft:   e.Tiles.Left,
		FaceRight:  e.Tiles.Right,
		FaceFront:  e.Tiles.Front,
		FaceBack:   e.Tiles.Back,
	}
	for f, raw := range perFace {
		tile, err := parseTile(raw, fallback)
		if err != nil {
			return def, fmt.Errorf("%s: %s: %w", e.Name, Face(f), err)
		}
		def.Tiles[f] = tile
	}
	return def, nil
}

func parseTile(raw []int, fallback TileIndex) (TileIndex, error) {
	if raw == nil {
		return fallback, nil
	}
	if len(raw) != 2 {
		return TileIndex{}, fmt.Errorf("ожидалось [col, row], получено %v", raw)
	}
	return TileIndex{Col: raw[0], Row: raw[1]}, nil
}
