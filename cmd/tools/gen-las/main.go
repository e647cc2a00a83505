// Command gen-las generates synthetic Detection_<id>.las fixtures: a flat
// ground disc with one elevated object cluster per file.
package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"github.com/banshee-data/lasview/internal/fsutil"
	"github.com/banshee-data/lasview/internal/las"
	"github.com/banshee-data/lasview/internal/security"
)

func main() {
	outDir := flag.String("o", ".", "output directory")
	count := flag.Int("n", 5, "number of detection files")
	firstID := flag.Int("first-id", 1, "detection ID of the first file")
	groundPoints := flag.Int("ground", 12000, "ground disc points per file")
	clusterPoints := flag.Int("cluster", 3000, "object cluster points per file")
	withColor := flag.Bool("color", false, "populate RGB channels (point format 2)")
	seed := flag.Int64("seed", 1, "generator seed")
	flag.Parse()

	fsys := fsutil.OSFileSystem{}
	if err := fsys.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	format := uint8(0)
	if *withColor {
		format = 2
	}

	for i := 0; i < *count; i++ {
		opts := las.DefaultSyntheticOptions()
		opts.GroundPoints = *groundPoints
		opts.ClusterPoints = *clusterPoints
		opts.WithColor = *withColor
		opts.Seed = *seed + int64(i)

		id := security.SanitizeFilename(fmt.Sprintf("%d", *firstID+i))
		path := filepath.Join(*outDir, fmt.Sprintf("Detection_%s.las", id))

		cloud := las.Synthetic(opts)
		if err := las.WriteFile(fsys, path, cloud, format); err != nil {
			log.Fatalf("Failed to write %s: %v", path, err)
		}
		log.Printf("✓ %s (%d points)", path, cloud.Len())
	}
}
