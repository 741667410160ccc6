// Package params reads and writes the pigmap.params file stored at the top
// of a map's output directory, which records the MapParams a render run
// used so a later incremental run can pick them back up without requiring
// the caller to respecify -B/-T/-Z on the command line.
package params

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/equalpants/pigmap-go/internal/mapcoord"
)

const fileName = "pigmap.params"

func buildParamMap(lines []string) (map[string]string, error) {
	out := make(map[string]string, len(lines))
	for _, line := range lines {
		tokens := strings.Fields(line)
		if len(tokens) != 2 {
			return nil, fmt.Errorf("malformed params line %q", line)
		}
		out[tokens[0]] = tokens[1]
	}
	return out, nil
}

func readIntParam(m map[string]string, key string) (int, bool) {
	s, ok := m[key]
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ReadFile reads and validates pigmap.params from outputPath, returning the
// stored MapParams.
func ReadFile(outputPath string) (mapcoord.MapParams, error) {
	var mp mapcoord.MapParams
	f, err := os.Open(filepath.Join(outputPath, fileName))
	if err != nil {
		return mp, fmt.Errorf("reading %s: %w", fileName, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return mp, fmt.Errorf("reading %s: %w", fileName, err)
	}

	pmap, err := buildParamMap(lines)
	if err != nil {
		return mp, fmt.Errorf("parsing %s: %w", fileName, err)
	}

	b, ok1 := readIntParam(pmap, "B")
	t, ok2 := readIntParam(pmap, "T")
	bz, ok3 := readIntParam(pmap, "baseZoom")
	if !ok1 || !ok2 || !ok3 {
		return mp, fmt.Errorf("%s missing required B/T/baseZoom", fileName)
	}
	mp.B, mp.T, mp.BaseZoom = b, t, bz

	if minY, ok := readIntParam(pmap, "userMinY"); ok {
		mp.MinY, mp.UserMinY = minY, true
	}
	if maxY, ok := readIntParam(pmap, "userMaxY"); ok {
		mp.MaxY, mp.UserMaxY = maxY, true
	}

	if !mp.Valid() || !mp.ValidZoom() {
		return mp, fmt.Errorf("%s contains invalid B/T/baseZoom", fileName)
	}
	return mp, nil
}

// WriteFile persists mp as pigmap.params in outputPath.
func WriteFile(outputPath string, mp mapcoord.MapParams) error {
	f, err := os.Create(filepath.Join(outputPath, fileName))
	if err != nil {
		return fmt.Errorf("writing %s: %w", fileName, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "B %d\n", mp.B)
	fmt.Fprintf(w, "T %d\n", mp.T)
	fmt.Fprintf(w, "baseZoom %d\n", mp.BaseZoom)
	if mp.UserMinY {
		fmt.Fprintf(w, "userMinY %d\n", mp.MinY)
	}
	if mp.UserMaxY {
		fmt.Fprintf(w, "userMaxY %d\n", mp.MaxY)
	}
	return w.Flush()
}
