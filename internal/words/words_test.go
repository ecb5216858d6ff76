package words

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	full := NewPool(map[string][]string{
		ThemeGeneral:    {"campo", "festa"},
		ThemeVerbs:      {"andar"},
		ThemeAdjectives: {"calmo"},
		ThemeReserve:    {"barco"},
	})
	emptyThemes := NewPool(map[string][]string{
		ThemeGeneral: {"campo"},
		ThemeReserve: {"barco"},
	})
	noReserve := NewPool(map[string][]string{
		ThemeGeneral: {"campo"},
	})

	tests := []struct {
		name     string
		pool     *Pool
		theme    string
		wantKey  string
		wantList []string
	}{
		{"general", full, ThemeGeneral, ThemeGeneral, []string{"campo", "festa"}},
		{"verbs with words", full, ThemeVerbs, ThemeVerbs, []string{"andar"}},
		{"adjectives with words", full, ThemeAdjectives, ThemeAdjectives, []string{"calmo"}},
		{"empty verbs use reserve", emptyThemes, ThemeVerbs, ThemeReserve, []string{"barco"}},
		{"empty adjectives use reserve", emptyThemes, ThemeAdjectives, ThemeReserve, []string{"barco"}},
		{"empty reserve falls back to general", noReserve, ThemeVerbs, ThemeGeneral, []string{"campo"}},
		{"unknown theme falls back to general", full, "animais", ThemeGeneral, []string{"campo", "festa"}},
		{"blank theme falls back to general", full, "", ThemeGeneral, []string{"campo", "festa"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, list := tt.pool.Resolve(tt.theme)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantList, list)
		})
	}
}

func TestResolveReturnsCopy(t *testing.T) {
	p := NewPool(map[string][]string{ThemeGeneral: {"campo", "festa"}})
	_, list := p.Resolve(ThemeGeneral)
	list[0] = "xxxxx"

	_, again := p.Resolve(ThemeGeneral)
	assert.Equal(t, "campo", again[0])
}

func TestNewPoolCleansLists(t *testing.T) {
	p := NewPool(map[string][]string{
		ThemeGeneral: {"Campo", " festa ", "campo", "mar", "ab1de", "névoa", "grandes"},
	})
	_, list := p.Resolve(ThemeGeneral)
	assert.Equal(t, []string{"campo", "festa", "névoa"}, list)
	assert.Equal(t, 3, p.Counts()[ThemeGeneral])
}

func TestAllowed(t *testing.T) {
	p := NewPool(map[string][]string{
		ThemeGeneral: {"névoa", "campo"},
		ThemeVerbs:   {"andar"},
	})
	assert.True(t, p.Allowed("nevoa"))
	assert.True(t, p.Allowed("NÉVOA"))
	assert.True(t, p.Allowed("andar"))
	assert.False(t, p.Allowed("zzzzz"))
	assert.False(t, p.Allowed(""))
}

func TestLoadEmbedded(t *testing.T) {
	p, err := Load("")
	require.NoError(t, err)

	counts := p.Counts()
	for _, theme := range Themes {
		assert.Positive(t, counts[theme], "theme %s should have words", theme)
	}
	key, list := p.Resolve(ThemeGeneral)
	assert.Equal(t, ThemeGeneral, key)
	for _, w := range list {
		assert.True(t, IsWord(w), "embedded word %q is not %d letters", w, WordLength)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("geral.txt", "# comment\ncampo\n\nfesta\n")
	write("reserve.txt", "barco\n")

	p, err := Load(dir)
	require.NoError(t, err)

	key, list := p.Resolve(ThemeVerbs)
	assert.Equal(t, ThemeReserve, key)
	assert.Equal(t, []string{"barco"}, list)
	assert.Equal(t, 0, p.Counts()[ThemeAdjectives])
}

func TestLoadDirRequiresGeneral(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestThemeName(t *testing.T) {
	assert.Equal(t, "Geral", ThemeName(ThemeGeneral))
	assert.Equal(t, "Verbs", ThemeName(ThemeVerbs))
	assert.Equal(t, "Adjectives", ThemeName(ThemeAdjectives))
	assert.Equal(t, "Reserve", ThemeName(ThemeReserve))
	assert.Equal(t, "outro", ThemeName("outro"))
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"CAMPO": "campo",
		"névoa": "nevoa",
		"Açaí":  "acai",
		"fácil": "facil",
		"ÚNICO": "unico",
		"pão":   "pao",
	}
	for in, want := range tests {
		assert.Equal(t, want, Normalize(in), in)
	}
	assert.Equal(t, 'c', NormalizeRune('ç'))
	assert.Equal(t, 'e', NormalizeRune('É'))
	assert.Equal(t, 'x', NormalizeRune('x'))
}
