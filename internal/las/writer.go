package las

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/banshee-data/lasview/internal/fsutil"
)

// WRITE_SCALE is the coordinate grid resolution for written files.
// A raw step of 0.001 keeps round-tripped coordinates stable to three
// decimal places.
const WRITE_SCALE = 0.001

const writerSoftware = "lasview"

// Marshal encodes a cloud as a complete LAS file using the given point
// format. Legacy formats (0, 2) produce a LAS 1.2 file; extended formats
// (6, 7) produce LAS 1.4. Axis offsets are set to the per-axis minimum so
// raw values always fit the int32 grid for survey-scale data.
func Marshal(c *Cloud, format uint8) ([]byte, error) {
	var headerSize int
	var versionMinor uint8
	switch format {
	case 0, 2:
		headerSize = HEADER_SIZE_12
		versionMinor = 2
	case 6, 7:
		headerSize = HEADER_SIZE_14
		versionMinor = 4
	default:
		return nil, fmt.Errorf("unsupported write format %d (formats 0, 2, 6 and 7 supported)", format)
	}

	recordLength, _ := minRecordLength(format)
	n := c.Len()
	if uint64(n) > math.MaxUint32 {
		return nil, fmt.Errorf("too many points to write: %d", n)
	}

	minX, maxX := axisRange(c.X)
	minY, maxY := axisRange(c.Y)
	minZ, maxZ := axisRange(c.Z)

	for _, axis := range []struct {
		name string
		span float64
	}{
		{"X", maxX - minX},
		{"Y", maxY - minY},
		{"Z", maxZ - minZ},
	} {
		if axis.span/WRITE_SCALE > math.MaxInt32 {
			return nil, fmt.Errorf("%s axis range %g exceeds int32 grid at scale %g",
				axis.name, axis.span, WRITE_SCALE)
		}
	}

	buf := make([]byte, headerSize+n*int(recordLength))

	copy(buf[0:4], FILE_SIGNATURE)
	// File source ID and project GUID stay zero.
	if format >= 6 {
		binary.LittleEndian.PutUint16(buf[6:], 1) // GPS standard time
	}
	buf[OFFSET_VERSION] = 1
	buf[OFFSET_VERSION+1] = versionMinor

	systemID := c.Header.SystemIdentifier
	if systemID == "" {
		systemID = "OTHER"
	}
	copy(buf[26:58], systemID)
	copy(buf[58:90], writerSoftware)

	now := time.Now().UTC()
	binary.LittleEndian.PutUint16(buf[90:], uint16(now.YearDay()))
	binary.LittleEndian.PutUint16(buf[92:], uint16(now.Year()))

	binary.LittleEndian.PutUint16(buf[OFFSET_HEADER_SIZE:], uint16(headerSize))
	binary.LittleEndian.PutUint32(buf[OFFSET_POINT_DATA:], uint32(headerSize))
	// VLR count stays zero: point data starts right after the header.
	buf[OFFSET_POINT_FORMAT] = format
	binary.LittleEndian.PutUint16(buf[OFFSET_RECORD_LEN:], recordLength)

	if format < 6 {
		binary.LittleEndian.PutUint32(buf[OFFSET_LEGACY_COUNT:], uint32(n))
		binary.LittleEndian.PutUint32(buf[111:], uint32(n)) // all points are first returns
	}

	putFloat64(buf, OFFSET_SCALES, WRITE_SCALE)
	putFloat64(buf, OFFSET_SCALES+8, WRITE_SCALE)
	putFloat64(buf, OFFSET_SCALES+16, WRITE_SCALE)
	putFloat64(buf, OFFSET_OFFSETS, minX)
	putFloat64(buf, OFFSET_OFFSETS+8, minY)
	putFloat64(buf, OFFSET_OFFSETS+16, minZ)

	putFloat64(buf, OFFSET_BOUNDS, maxX)
	putFloat64(buf, OFFSET_BOUNDS+8, minX)
	putFloat64(buf, OFFSET_BOUNDS+16, maxY)
	putFloat64(buf, OFFSET_BOUNDS+24, minY)
	putFloat64(buf, OFFSET_BOUNDS+32, maxZ)
	putFloat64(buf, OFFSET_BOUNDS+40, minZ)

	if format >= 6 {
		binary.LittleEndian.PutUint64(buf[OFFSET_COUNT_14:], uint64(n))
		binary.LittleEndian.PutUint64(buf[255:], uint64(n)) // all points are first returns
	}

	for i := 0; i < n; i++ {
		rec := buf[headerSize+i*int(recordLength):]

		putCoord(rec[0:], c.X[i], minX)
		putCoord(rec[4:], c.Y[i], minY)
		putCoord(rec[8:], c.Z[i], minZ)
		binary.LittleEndian.PutUint16(rec[12:], intensityAt(c, i))

		if format >= 6 {
			rec[14] = 0x11 // return 1 of 1
			rec[16] = classificationAt(c, i)
			if format == 7 {
				putColor(rec[30:], c, i)
			}
		} else {
			rec[14] = 0x09 // return 1 of 1
			rec[15] = classificationAt(c, i) & 0x1f
			if format == 2 {
				putColor(rec[20:], c, i)
			}
		}
	}

	return buf, nil
}

// WriteFile encodes the cloud and writes it to path.
func WriteFile(fsys fsutil.FileSystem, path string, c *Cloud, format uint8) error {
	data, err := Marshal(c, format)
	if err != nil {
		return err
	}
	return fsys.WriteFile(path, data, os.FileMode(0644))
}

func axisRange(values []float64) (min, max float64) {
	if len(values) == 0 {
		return 0, 0
	}
	min, max = values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

func putCoord(dst []byte, value, offset float64) {
	raw := int32(math.Round((value - offset) / WRITE_SCALE))
	binary.LittleEndian.PutUint32(dst, uint32(raw))
}

func putFloat64(buf []byte, offset int, v float64) {
	binary.LittleEndian.PutUint64(buf[offset:], math.Float64bits(v))
}

func intensityAt(c *Cloud, i int) uint16 {
	if i < len(c.Intensity) {
		return c.Intensity[i]
	}
	return 0
}

func classificationAt(c *Cloud, i int) uint8 {
	if i < len(c.Classification) {
		return c.Classification[i]
	}
	return 0
}

func putColor(dst []byte, c *Cloud, i int) {
	if i < len(c.Red) {
		binary.LittleEndian.PutUint16(dst[0:], c.Red[i])
	}
	if i < len(c.Green) {
		binary.LittleEndian.PutUint16(dst[2:], c.Green[i])
	}
	if i < len(c.Blue) {
		binary.LittleEndian.PutUint16(dst[4:], c.Blue[i])
	}
}
