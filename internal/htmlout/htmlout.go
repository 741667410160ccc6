// Package htmlout copies the viewer template and stylesheet from the HTML
// template directory into a finished map's output directory, substituting the
// render parameters into the template's placeholders.
package htmlout

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/equalpants/pigmap-go/internal/mapcoord"
)

// Write reads "template.html" from htmlPath, substitutes {tileSize}, {B},
// {T}, and {baseZoom} with mp's values, and writes the result to
// outputPath/pigmap-default.html; it then copies htmlPath/style.css to
// outputPath/style.css unchanged. A missing template.html is a silent
// no-op, matching a viewer being optional.
func Write(htmlPath, outputPath string, mp mapcoord.MapParams) error {
	templateBytes, err := os.ReadFile(filepath.Join(htmlPath, "template.html"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	text := string(templateBytes)
	text = strings.ReplaceAll(text, "{tileSize}", strconv.FormatInt(mp.TileSize(), 10))
	text = strings.ReplaceAll(text, "{B}", strconv.Itoa(mp.B))
	text = strings.ReplaceAll(text, "{T}", strconv.Itoa(mp.T))
	text = strings.ReplaceAll(text, "{baseZoom}", strconv.Itoa(mp.BaseZoom))

	if err := os.WriteFile(filepath.Join(outputPath, "pigmap-default.html"), []byte(text), 0o644); err != nil {
		return err
	}

	return copyFile(filepath.Join(htmlPath, "style.css"), filepath.Join(outputPath, "style.css"))
}

// copyFile copies src to dst, silently doing nothing if src doesn't
// exist -- the stylesheet is as optional as the template itself.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
