package catalog

import (
	"path/filepath"
	"strings"
)

// detectionPrefix marks files exported by the detection pipeline.
const detectionPrefix = "Detection_"

// DetectionID extracts the detection identifier from an exported file name
// of the form Detection_<id>.las: everything between the prefix and the
// .las extension, so Detection_42_cropped.las yields "42_cropped". Files
// that don't follow the pattern return ok=false.
func DetectionID(filename string) (string, bool) {
	base := filepath.Base(filename)
	if !strings.EqualFold(filepath.Ext(base), ".las") {
		return "", false
	}

	rest, found := strings.CutPrefix(base, detectionPrefix)
	if !found {
		return "", false
	}

	id := rest[:len(rest)-len(filepath.Ext(rest))]
	if id == "" {
		return "", false
	}
	return id, true
}
