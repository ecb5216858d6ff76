// assets/embed.go
//
// Embedded default word lists, one file per theme under words/.
// Used when no words directory is configured.

package assets

import (
	"embed"
	"errors"
	"io/fs"
	"strings"

	"github.com/samber/lo"
)

//go:embed words/*.txt
var FS embed.FS

// ThemeList returns the embedded list for theme, lowercased, without blank
// lines or # comments. A theme without an embedded file yields an empty list.
func ThemeList(theme string) ([]string, error) {
	data, err := fs.ReadFile(FS, "words/"+theme+".txt")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return lo.FilterMap(strings.Split(string(data), "\n"), func(line string, _ int) (string, bool) {
		line = strings.ToLower(strings.TrimSpace(line))
		return line, line != "" && !strings.HasPrefix(line, "#")
	}), nil
}
