package block

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryFinalize(t *testing.T) {
	cat, err := DefaultCatalog()
	require.NoError(t, err, "встроенный каталог должен финализироваться")

	assert.Equal(t, len(DefaultDefinitions()), cat.Len())
	assert.Equal(t, cat.Lookup(AirName), cat.Air())
	assert.False(t, cat.IsRenderable(cat.Air()), "Air не должен рендериться")

	glass, ok := cat.Find(GlassName)
	require.True(t, ok)
	bt := cat.Get(glass)
	assert.Equal(t, GlassName, bt.Name)
	assert.True(t, bt.Renderable)
	assert.True(t, bt.Transparent)
	assert.Equal(t, glass, bt.ID)

	for i, name := range cat.Names() {
		assert.Equal(t, BlockID(i), cat.Lookup(name), "ID должен совпадать с индексом таблицы")
	}
}

func TestCatalogLookupMiss(t *testing.T) {
	cat, err := DefaultCatalog()
	require.NoError(t, err)

	assert.Equal(t, cat.Air(), cat.Lookup("Obsidian"), "промах должен давать Air")
	assert.False(t, cat.Has("Obsidian"))
	_, ok := cat.Find("Obsidian")
	assert.False(t, ok)

	assert.Equal(t, AirName, cat.Get(BlockID(60000)).Name, "неизвестный ID должен давать Air")
}

func TestRegistryErrors(t *testing.T) {
	t.Run("без Air", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Register(Definition{Name: GrassName, Renderable: true}))
		_, err := reg.Finalize()
		assert.ErrorIs(t, err, ErrMissingAir)
	})

	t.Run("дубликат", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Register(Definition{Name: AirName}))
		assert.ErrorIs(t, reg.Register(Definition{Name: AirName}), ErrDuplicateBlock)
	})

	t.Run("пустое имя", func(t *testing.T) {
		assert.ErrorIs(t, NewRegistry().Register(Definition{}), ErrEmptyName)
	})

	t.Run("тайл вне атласа", func(t *testing.T) {
		def := Definition{Name: "Bad", Renderable: true, Tiles: UniformTiles(TileIndex{Col: 8, Row: 0})}
		assert.ErrorIs(t, NewRegistry().Register(def), ErrInvalidTile)
	})

	t.Run("регистрация после финализации", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Register(Definition{Name: AirName}))
		_, err := reg.Finalize()
		require.NoError(t, err)
		assert.ErrorIs(t, reg.Register(Definition{Name: GrassName}), ErrFinalized)
	})
}

func TestNewTileUV(t *testing.T) {
	uv := NewTileUV(TileIndex{Col: 1, Row: 2})

	const eps = 1e-6
	expected := TileUV{
		{0.125 + TilePadding, 0.25 + TilePadding},
		{0.125 + TilePadding, 0.375 - TilePadding},
		{0.25 - TilePadding, 0.375 - TilePadding},
		{0.25 - TilePadding, 0.25 + TilePadding},
	}
	for i := range uv {
		assert.True(t, uv[i].ApproxEqualThreshold(expected[i], eps), "угол %d: %v != %v", i, uv[i], expected[i])
	}

	origin := NewTileUV(TileIndex{})
	assert.True(t, origin[0].ApproxEqualThreshold(mgl32.Vec2{TilePadding, TilePadding}, eps))
}

func TestFaceString(t *testing.T) {
	assert.Equal(t, "top", FaceTop.String())
	assert.Equal(t, "back", FaceBack.String())
	assert.Equal(t, "face(9)", Face(9).String())
}
