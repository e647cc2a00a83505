package las

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/banshee-data/lasview/internal/fsutil"
)

// ErrNoPoints marks a structurally valid LAS file whose point count is zero.
// Viewers treat this as a load failure rather than an empty scene.
var ErrNoPoints = errors.New("LAS file contains no points")

// Parse decodes a complete LAS file held in memory into a Cloud.
// The header's scale and offset are applied, so coordinates come back in
// real-world units.
func Parse(data []byte) (*Cloud, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	start := int(h.PointDataOffset)
	stride := int(h.RecordLength)
	if start > len(data) {
		return nil, fmt.Errorf("point data offset %d beyond file size %d", start, len(data))
	}

	if h.PointCount == 0 {
		return nil, ErrNoPoints
	}

	// Never trust the header count past the bytes actually present.
	capacity := uint64((len(data) - start) / stride)
	if h.PointCount > capacity {
		return nil, fmt.Errorf("point data truncated: header promises %d points, file has room for %d",
			h.PointCount, capacity)
	}

	n := int(h.PointCount)
	cloud := &Cloud{
		Header:         *h,
		X:              make([]float64, n),
		Y:              make([]float64, n),
		Z:              make([]float64, n),
		Intensity:      make([]uint16, n),
		Classification: make([]uint8, n),
	}

	hasColor := h.HasColor()
	rgbOffset := 0
	if hasColor {
		rgbOffset = colorOffset(h.PointFormat)
		cloud.Red = make([]uint16, n)
		cloud.Green = make([]uint16, n)
		cloud.Blue = make([]uint16, n)
	}

	// Legacy formats pack classification into 5 bits; extended formats
	// (6+) give it a full byte at a different offset.
	extended := h.PointFormat >= 6

	for i := 0; i < n; i++ {
		rec := data[start+i*stride:]

		rawX := int32(binary.LittleEndian.Uint32(rec[0:4]))
		rawY := int32(binary.LittleEndian.Uint32(rec[4:8]))
		rawZ := int32(binary.LittleEndian.Uint32(rec[8:12]))

		cloud.X[i] = float64(rawX)*h.XScale + h.XOffset
		cloud.Y[i] = float64(rawY)*h.YScale + h.YOffset
		cloud.Z[i] = float64(rawZ)*h.ZScale + h.ZOffset

		cloud.Intensity[i] = binary.LittleEndian.Uint16(rec[12:14])

		if extended {
			cloud.Classification[i] = rec[16]
		} else {
			cloud.Classification[i] = rec[15] & 0x1f
		}

		if hasColor {
			cloud.Red[i] = binary.LittleEndian.Uint16(rec[rgbOffset:])
			cloud.Green[i] = binary.LittleEndian.Uint16(rec[rgbOffset+2:])
			cloud.Blue[i] = binary.LittleEndian.Uint16(rec[rgbOffset+4:])
		}
	}

	return cloud, nil
}

// ReadFile reads and decodes the LAS file at path.
func ReadFile(fsys fsutil.FileSystem, path string) (*Cloud, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read LAS file: %w", err)
	}

	cloud, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cloud, nil
}
