package las

import (
	"strings"
	"testing"
)

func validHeaderBytes(t *testing.T) []byte {
	t.Helper()

	cloud := &Cloud{
		X: []float64{1.0, 2.0},
		Y: []float64{-1.0, 1.0},
		Z: []float64{100000, 200000},
	}
	data, err := Marshal(cloud, 0)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	return data
}

func TestParseHeaderRejectsShortFile(t *testing.T) {
	_, err := ParseHeader(make([]byte, 100))
	if err == nil {
		t.Fatal("expected error for short file")
	}
	if !strings.Contains(err.Error(), "too small") {
		t.Errorf("error = %v, want mention of 'too small'", err)
	}
}

func TestParseHeaderRejectsBadSignature(t *testing.T) {
	data := validHeaderBytes(t)
	copy(data[0:4], "XXXX")

	_, err := ParseHeader(data)
	if err == nil {
		t.Fatal("expected error for bad signature")
	}
	if !strings.Contains(err.Error(), "invalid file signature") {
		t.Errorf("error = %v, want mention of signature", err)
	}
}

func TestParseHeaderRejectsBadVersion(t *testing.T) {
	data := validHeaderBytes(t)
	data[OFFSET_VERSION] = 2
	data[OFFSET_VERSION+1] = 0

	_, err := ParseHeader(data)
	if err == nil {
		t.Fatal("expected error for LAS 2.0")
	}
	if !strings.Contains(err.Error(), "unsupported LAS version") {
		t.Errorf("error = %v, want version error", err)
	}
}

func TestParseHeaderRejectsLAZ(t *testing.T) {
	data := validHeaderBytes(t)
	data[OFFSET_POINT_FORMAT] |= LAZ_FORMAT_BIT

	_, err := ParseHeader(data)
	if err == nil {
		t.Fatal("expected error for LAZ-compressed data")
	}
	if !strings.Contains(err.Error(), "LAZ") {
		t.Errorf("error = %v, want LAZ rejection", err)
	}
}

func TestParseHeaderRejectsUnknownFormat(t *testing.T) {
	data := validHeaderBytes(t)
	data[OFFSET_POINT_FORMAT] = 5

	_, err := ParseHeader(data)
	if err == nil {
		t.Fatal("expected error for format 5")
	}
	if !strings.Contains(err.Error(), "unsupported point data format") {
		t.Errorf("error = %v, want format error", err)
	}
}

func TestParseHeaderRejectsShortRecordLength(t *testing.T) {
	data := validHeaderBytes(t)
	data[OFFSET_RECORD_LEN] = 10
	data[OFFSET_RECORD_LEN+1] = 0

	_, err := ParseHeader(data)
	if err == nil {
		t.Fatal("expected error for record length below format minimum")
	}
	if !strings.Contains(err.Error(), "too small for format") {
		t.Errorf("error = %v, want record length error", err)
	}
}

func TestParseHeaderFields(t *testing.T) {
	data := validHeaderBytes(t)

	h, err := ParseHeader(data)
	if err != nil {
		t.Fatalf("ParseHeader failed: %v", err)
	}

	if h.VersionMajor != 1 || h.VersionMinor != 2 {
		t.Errorf("version = %d.%d, want 1.2", h.VersionMajor, h.VersionMinor)
	}
	if h.HeaderSize != HEADER_SIZE_12 {
		t.Errorf("header size = %d, want %d", h.HeaderSize, HEADER_SIZE_12)
	}
	if h.PointFormat != 0 {
		t.Errorf("point format = %d, want 0", h.PointFormat)
	}
	if h.RecordLength != RECORD_LENGTH_FORMAT_0 {
		t.Errorf("record length = %d, want %d", h.RecordLength, RECORD_LENGTH_FORMAT_0)
	}
	if h.PointCount != 2 {
		t.Errorf("point count = %d, want 2", h.PointCount)
	}
	if h.GeneratingSoftware != writerSoftware {
		t.Errorf("generating software = %q, want %q", h.GeneratingSoftware, writerSoftware)
	}
	if h.XScale != WRITE_SCALE || h.YScale != WRITE_SCALE || h.ZScale != WRITE_SCALE {
		t.Errorf("scales = (%g, %g, %g), want all %g", h.XScale, h.YScale, h.ZScale, WRITE_SCALE)
	}
	if h.MinZ != 100000 || h.MaxZ != 200000 {
		t.Errorf("Z bounds = (%g, %g), want (100000, 200000)", h.MinZ, h.MaxZ)
	}
	if h.HasColor() {
		t.Error("format 0 should not report color")
	}
	if h.Version() != "1.2" {
		t.Errorf("Version() = %q, want '1.2'", h.Version())
	}
}

func TestFormatHasColor(t *testing.T) {
	tests := []struct {
		format uint8
		want   bool
	}{
		{0, false},
		{1, false},
		{2, true},
		{3, true},
		{6, false},
		{7, true},
		{8, true},
	}

	for _, tt := range tests {
		if got := FormatHasColor(tt.format); got != tt.want {
			t.Errorf("FormatHasColor(%d) = %v, want %v", tt.format, got, tt.want)
		}
	}
}
