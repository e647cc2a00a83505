// Command las-info prints the header and summary statistics of .las files.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/banshee-data/lasview/internal/catalog"
	"github.com/banshee-data/lasview/internal/fsutil"
	"github.com/banshee-data/lasview/internal/las"
)

func main() {
	headerOnly := flag.Bool("header", false, "print only the header, skip point statistics")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: las-info [-header] file.las [file.las ...]")
		os.Exit(2)
	}

	fsys := fsutil.OSFileSystem{}
	for _, path := range flag.Args() {
		if err := describe(fsys, path, *headerOnly); err != nil {
			log.Printf("%s: %v", path, err)
		}
	}
}

func describe(fsys fsutil.FileSystem, path string, headerOnly bool) error {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return err
	}

	h, err := las.ParseHeader(data)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", path)
	if id, ok := catalog.DetectionID(filepath.Base(path)); ok {
		fmt.Printf("  detection id:   %s\n", id)
	}
	fmt.Printf("  version:        LAS %s\n", h.Version())
	fmt.Printf("  point format:   %d (record length %d)\n", h.PointFormat, h.RecordLength)
	fmt.Printf("  points:         %d\n", h.PointCount)
	fmt.Printf("  has color:      %v\n", h.HasColor())
	fmt.Printf("  scale:          %g %g %g\n", h.XScale, h.YScale, h.ZScale)
	fmt.Printf("  offset:         %g %g %g\n", h.XOffset, h.YOffset, h.ZOffset)
	fmt.Printf("  bounds X:       [%g, %g]\n", h.MinX, h.MaxX)
	fmt.Printf("  bounds Y:       [%g, %g]\n", h.MinY, h.MaxY)
	fmt.Printf("  bounds Z:       [%g, %g]\n", h.MinZ, h.MaxZ)
	fmt.Printf("  software:       %s\n", h.GeneratingSoftware)

	if headerOnly {
		return nil
	}

	cloud, err := las.Parse(data)
	if err != nil {
		return err
	}
	stats := las.ComputeStats(cloud)
	fmt.Printf("  mean X/Y/Z:     %.3f / %.3f / %.3f\n", stats.MeanX, stats.MeanY, stats.MeanZ)
	fmt.Printf("  stddev Z:       %.3f\n", stats.StdDevZ)
	fmt.Printf("  mean intensity: %.1f\n", stats.MeanIntensity)
	return nil
}
