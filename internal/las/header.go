// Package las reads and writes ASPRS LAS point cloud files.
package las

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

/*
LAS File Parser Architecture

LAS is the de facto interchange format for LiDAR survey data. Every file
starts with a little-endian public header block, optionally followed by
variable length records (VLRs), followed by fixed-width point records.

FILE STRUCTURE:
├── Public Header Block (227/235/375 bytes depending on version)
│   └── "LASF" signature + version + scale/offset + bounds + point count
├── Variable Length Records (skipped - headers point past them)
└── Point Data Records (fixed stride given by the header record length)

Raw point coordinates are stored as int32 grid steps. Real-world
coordinates are recovered per axis as: real = raw*scale + offset.

The parser validates the signature, version, point format and record
length before touching point data, and never trusts the header point
count beyond the bytes actually present in the file.

Compressed LAZ files flag bit 7 of the point format byte; they are
rejected rather than misparsed.
*/

// LAS public header block constants
// These define the fixed layout shared by LAS 1.0 through 1.4
const (
	FILE_SIGNATURE = "LASF" // Magic bytes at offset 0 of every LAS file

	HEADER_SIZE_12 = 227 // Public header size through LAS 1.2
	HEADER_SIZE_13 = 235 // LAS 1.3 appends the waveform packet start offset
	HEADER_SIZE_14 = 375 // LAS 1.4 appends EVLR fields and 64-bit point counts

	OFFSET_VERSION      = 24  // Version major/minor bytes
	OFFSET_HEADER_SIZE  = 94  // uint16 size of the public header block
	OFFSET_POINT_DATA   = 96  // uint32 offset to the first point record
	OFFSET_POINT_FORMAT = 104 // uint8 point data record format (bit 7 = LAZ)
	OFFSET_RECORD_LEN   = 105 // uint16 bytes per point record
	OFFSET_LEGACY_COUNT = 107 // uint32 legacy point record count
	OFFSET_SCALES       = 131 // 3 x float64 axis scale factors
	OFFSET_OFFSETS      = 155 // 3 x float64 axis offsets
	OFFSET_BOUNDS       = 179 // 6 x float64 max/min per axis (X, Y, Z)
	OFFSET_COUNT_14     = 247 // uint64 point record count (LAS 1.4 only)

	LAZ_FORMAT_BIT = 0x80 // Set on the format byte when point data is LAZ-compressed
)

// Minimum point record lengths per point data record format
const (
	RECORD_LENGTH_FORMAT_0 = 20 // XYZ + intensity + flags + class + angle + user + source
	RECORD_LENGTH_FORMAT_1 = 28 // format 0 + GPS time
	RECORD_LENGTH_FORMAT_2 = 26 // format 0 + 16-bit RGB
	RECORD_LENGTH_FORMAT_3 = 34 // format 1 + 16-bit RGB
	RECORD_LENGTH_FORMAT_6 = 30 // extended record: 16-bit scan angle, GPS time mandatory
	RECORD_LENGTH_FORMAT_7 = 36 // format 6 + 16-bit RGB
	RECORD_LENGTH_FORMAT_8 = 38 // format 7 + NIR channel
)

// Header is the decoded LAS public header block.
type Header struct {
	VersionMajor       uint8
	VersionMinor       uint8
	SystemIdentifier   string
	GeneratingSoftware string
	CreationDayOfYear  uint16
	CreationYear       uint16
	HeaderSize         uint16
	PointDataOffset    uint32
	VLRCount           uint32
	PointFormat        uint8
	RecordLength       uint16
	PointCount         uint64

	XScale, YScale, ZScale    float64
	XOffset, YOffset, ZOffset float64

	MaxX, MinX float64
	MaxY, MinY float64
	MaxZ, MinZ float64
}

// minRecordLength returns the smallest valid record length for a point
// format, and whether the format is one this parser understands.
func minRecordLength(format uint8) (uint16, bool) {
	switch format {
	case 0:
		return RECORD_LENGTH_FORMAT_0, true
	case 1:
		return RECORD_LENGTH_FORMAT_1, true
	case 2:
		return RECORD_LENGTH_FORMAT_2, true
	case 3:
		return RECORD_LENGTH_FORMAT_3, true
	case 6:
		return RECORD_LENGTH_FORMAT_6, true
	case 7:
		return RECORD_LENGTH_FORMAT_7, true
	case 8:
		return RECORD_LENGTH_FORMAT_8, true
	default:
		return 0, false
	}
}

// FormatHasColor reports whether a point format carries RGB channels.
func FormatHasColor(format uint8) bool {
	switch format {
	case 2, 3, 7, 8:
		return true
	default:
		return false
	}
}

// colorOffset returns the byte offset of the red channel within a point
// record. Only call for formats where FormatHasColor is true.
func colorOffset(format uint8) int {
	switch format {
	case 2:
		return 20
	case 3:
		return 28
	default: // 7, 8
		return 30
	}
}

// ParseHeader decodes and validates the public header block at the start
// of data. The slice must contain at least the full header; point records
// are not touched.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HEADER_SIZE_12 {
		return nil, fmt.Errorf("file too small for LAS header: need %d bytes, have %d",
			HEADER_SIZE_12, len(data))
	}

	if sig := string(data[0:4]); sig != FILE_SIGNATURE {
		return nil, fmt.Errorf("invalid file signature: expected %q, got %q", FILE_SIGNATURE, sig)
	}

	h := &Header{
		VersionMajor:       data[OFFSET_VERSION],
		VersionMinor:       data[OFFSET_VERSION+1],
		SystemIdentifier:   trimNul(data[26:58]),
		GeneratingSoftware: trimNul(data[58:90]),
		CreationDayOfYear:  binary.LittleEndian.Uint16(data[90:]),
		CreationYear:       binary.LittleEndian.Uint16(data[92:]),
		HeaderSize:         binary.LittleEndian.Uint16(data[OFFSET_HEADER_SIZE:]),
		PointDataOffset:    binary.LittleEndian.Uint32(data[OFFSET_POINT_DATA:]),
		VLRCount:           binary.LittleEndian.Uint32(data[100:]),
	}

	if h.VersionMajor != 1 || h.VersionMinor > 4 {
		return nil, fmt.Errorf("unsupported LAS version %d.%d", h.VersionMajor, h.VersionMinor)
	}

	formatByte := data[OFFSET_POINT_FORMAT]
	if formatByte&LAZ_FORMAT_BIT != 0 {
		return nil, fmt.Errorf("compressed LAZ point data is not supported")
	}
	h.PointFormat = formatByte

	minLen, ok := minRecordLength(h.PointFormat)
	if !ok {
		return nil, fmt.Errorf("unsupported point data format %d", h.PointFormat)
	}

	h.RecordLength = binary.LittleEndian.Uint16(data[OFFSET_RECORD_LEN:])
	if h.RecordLength < minLen {
		return nil, fmt.Errorf("point record length %d too small for format %d (need %d)",
			h.RecordLength, h.PointFormat, minLen)
	}

	h.PointCount = uint64(binary.LittleEndian.Uint32(data[OFFSET_LEGACY_COUNT:]))

	h.XScale = readFloat64(data, OFFSET_SCALES)
	h.YScale = readFloat64(data, OFFSET_SCALES+8)
	h.ZScale = readFloat64(data, OFFSET_SCALES+16)
	h.XOffset = readFloat64(data, OFFSET_OFFSETS)
	h.YOffset = readFloat64(data, OFFSET_OFFSETS+8)
	h.ZOffset = readFloat64(data, OFFSET_OFFSETS+16)

	h.MaxX = readFloat64(data, OFFSET_BOUNDS)
	h.MinX = readFloat64(data, OFFSET_BOUNDS+8)
	h.MaxY = readFloat64(data, OFFSET_BOUNDS+16)
	h.MinY = readFloat64(data, OFFSET_BOUNDS+24)
	h.MaxZ = readFloat64(data, OFFSET_BOUNDS+32)
	h.MinZ = readFloat64(data, OFFSET_BOUNDS+40)

	// LAS 1.4 moved the authoritative point count to a 64-bit field; the
	// legacy field is zero when the count does not fit in 32 bits.
	if h.VersionMinor >= 4 && len(data) >= OFFSET_COUNT_14+8 {
		if count := binary.LittleEndian.Uint64(data[OFFSET_COUNT_14:]); count > 0 {
			h.PointCount = count
		}
	}

	if int(h.HeaderSize) > len(data) {
		return nil, fmt.Errorf("header size %d exceeds file size %d", h.HeaderSize, len(data))
	}

	if uint64(h.PointDataOffset) < uint64(h.HeaderSize) {
		return nil, fmt.Errorf("point data offset %d inside header (size %d)",
			h.PointDataOffset, h.HeaderSize)
	}

	return h, nil
}

// HasColor reports whether this file's point format carries RGB channels.
func (h *Header) HasColor() bool {
	return FormatHasColor(h.PointFormat)
}

// Version returns the header version as a "1.x" string.
func (h *Header) Version() string {
	return fmt.Sprintf("%d.%d", h.VersionMajor, h.VersionMinor)
}

func trimNul(b []byte) string {
	return strings.TrimRight(string(b), "\x00")
}

func readFloat64(data []byte, offset int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(data[offset:]))
}
