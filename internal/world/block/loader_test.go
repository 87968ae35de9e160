package block

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalogYAML = `
blocks:
  - name: Air
    renderable: false
  - name: Grass
    tiles:
      all: [1, 0]
      top: [0, 0]
  - name: Glass
    transparent: true
    tiles: {all: [3, 0]}
`

func TestParseCatalog(t *testing.T) {
	cat, err := ParseCatalog([]byte(testCatalogYAML))
	require.NoError(t, err)
	require.Equal(t, 3, cat.Len())

	grass := cat.Get(cat.Lookup(GrassName))
	assert.True(t, grass.Renderable, "renderable по умолчанию true")
	assert.False(t, grass.Transparent)
	assert.Equal(t, NewTileUV(TileIndex{Col: 0, Row: 0}), grass.Faces[FaceTop])
	assert.Equal(t, NewTileUV(TileIndex{Col: 1, Row: 0}), grass.Faces[FaceLeft], "грань без тайла берёт all")

	glass := cat.Get(cat.Lookup(GlassName))
	assert.True(t, glass.Transparent)
	assert.Equal(t, NewTileUV(TileIndex{Col: 3, Row: 0}), glass.Faces[FaceBack])

	assert.False(t, cat.Get(cat.Air()).Renderable)
}

func TestParseCatalogErrors(t *testing.T) {
	cases := map[string]string{
		"без Air":         "blocks:\n  - name: Grass\n",
		"кривой тайл":     "blocks:\n  - name: Air\n    tiles: {top: [1]}\n",
		"тайл вне атласа": "blocks:\n  - name: Air\n    tiles: {all: [9, 9]}\n",
		"не yaml":         "blocks: [\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(doc))
			assert.Error(t, err)
		})
	}

	_, err := ParseCatalog([]byte("blocks:\n  - name: Grass\n"))
	assert.ErrorIs(t, err, ErrMissingAir)
}

func TestLoadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalogYAML), 0644))

	cat, err := LoadCatalogFile(path)
	require.NoError(t, err)
	assert.True(t, cat.Has(GlassName))

	_, err = LoadCatalogFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
