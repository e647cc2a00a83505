package las

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/banshee-data/lasview/internal/fsutil"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func colorTestCloud() *Cloud {
	return &Cloud{
		X:              []float64{10.25, -3.5, 0.125},
		Y:              []float64{-20.75, 5.0, 1.5},
		Z:              []float64{250000, 251234.5, 700000.25},
		Intensity:      []uint16{100, 20000, 65535},
		Classification: []uint8{ClassGround, ClassGround, ClassBuilding},
		Red:            []uint16{1000, 2000, 3000},
		Green:          []uint16{4000, 5000, 6000},
		Blue:           []uint16{7000, 8000, 9000},
	}
}

func TestRoundTripFormat2(t *testing.T) {
	original := colorTestCloud()

	data, err := Marshal(original, 2)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	cloud, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cloud.Len() != 3 {
		t.Fatalf("point count = %d, want 3", cloud.Len())
	}
	if !cloud.HasColor() {
		t.Fatal("expected color channels for format 2")
	}
	if cloud.Header.Version() != "1.2" {
		t.Errorf("version = %s, want 1.2", cloud.Header.Version())
	}

	for i := range original.X {
		if !almostEqual(cloud.X[i], original.X[i], 1e-6) {
			t.Errorf("X[%d] = %g, want %g", i, cloud.X[i], original.X[i])
		}
		if !almostEqual(cloud.Y[i], original.Y[i], 1e-6) {
			t.Errorf("Y[%d] = %g, want %g", i, cloud.Y[i], original.Y[i])
		}
		if !almostEqual(cloud.Z[i], original.Z[i], 1e-6) {
			t.Errorf("Z[%d] = %g, want %g", i, cloud.Z[i], original.Z[i])
		}
		if cloud.Intensity[i] != original.Intensity[i] {
			t.Errorf("Intensity[%d] = %d, want %d", i, cloud.Intensity[i], original.Intensity[i])
		}
		if cloud.Classification[i] != original.Classification[i] {
			t.Errorf("Classification[%d] = %d, want %d", i, cloud.Classification[i], original.Classification[i])
		}
		if cloud.Red[i] != original.Red[i] || cloud.Green[i] != original.Green[i] || cloud.Blue[i] != original.Blue[i] {
			t.Errorf("RGB[%d] = (%d, %d, %d), want (%d, %d, %d)", i,
				cloud.Red[i], cloud.Green[i], cloud.Blue[i],
				original.Red[i], original.Green[i], original.Blue[i])
		}
	}
}

func TestRoundTripFormat7(t *testing.T) {
	original := colorTestCloud()
	// Extended formats carry the full classification byte.
	original.Classification[2] = 200

	data, err := Marshal(original, 7)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	cloud, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cloud.Header.Version() != "1.4" {
		t.Errorf("version = %s, want 1.4", cloud.Header.Version())
	}
	if cloud.Header.HeaderSize != HEADER_SIZE_14 {
		t.Errorf("header size = %d, want %d", cloud.Header.HeaderSize, HEADER_SIZE_14)
	}
	if cloud.Len() != 3 {
		t.Fatalf("point count = %d, want 3", cloud.Len())
	}
	if cloud.Classification[2] != 200 {
		t.Errorf("Classification[2] = %d, want 200 (full byte)", cloud.Classification[2])
	}
	if !cloud.HasColor() {
		t.Fatal("expected color channels for format 7")
	}
	for i := range original.Z {
		if !almostEqual(cloud.Z[i], original.Z[i], 1e-6) {
			t.Errorf("Z[%d] = %g, want %g", i, cloud.Z[i], original.Z[i])
		}
		if cloud.Red[i] != original.Red[i] {
			t.Errorf("Red[%d] = %d, want %d", i, cloud.Red[i], original.Red[i])
		}
	}
}

func TestParseFormat0HasNoColor(t *testing.T) {
	original := colorTestCloud()

	data, err := Marshal(original, 0)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	cloud, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cloud.HasColor() {
		t.Error("format 0 cloud should not carry color")
	}
	if len(cloud.Red) != 0 {
		t.Errorf("Red channel length = %d, want 0", len(cloud.Red))
	}
}

func TestLegacyClassificationMasksFlagBits(t *testing.T) {
	original := &Cloud{
		X:              []float64{1},
		Y:              []float64{2},
		Z:              []float64{3},
		Classification: []uint8{ClassGround},
	}

	data, err := Marshal(original, 0)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	// Set the synthetic/keypoint/withheld flag bits on the classification
	// byte; legacy parsing must mask them off.
	rec := data[HEADER_SIZE_12:]
	rec[15] |= 0xe0

	cloud, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cloud.Classification[0] != ClassGround {
		t.Errorf("Classification[0] = %d, want %d", cloud.Classification[0], ClassGround)
	}
}

func TestParseRejectsEmptyCloud(t *testing.T) {
	data, err := Marshal(&Cloud{}, 0)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	_, err = Parse(data)
	if !errors.Is(err, ErrNoPoints) {
		t.Errorf("expected ErrNoPoints for zero-point file, got %v", err)
	}
}

func TestParseRejectsTruncatedPointData(t *testing.T) {
	data, err := Marshal(colorTestCloud(), 2)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	// Inflate the header's point count past the actual data.
	binary.LittleEndian.PutUint32(data[OFFSET_LEGACY_COUNT:], 1000)

	_, err = Parse(data)
	if err == nil {
		t.Fatal("expected error for truncated point data")
	}
	if !strings.Contains(err.Error(), "truncated") {
		t.Errorf("error = %v, want mention of truncation", err)
	}
}

func TestMarshalRejectsUnsupportedFormat(t *testing.T) {
	_, err := Marshal(colorTestCloud(), 5)
	if err == nil {
		t.Fatal("expected error for write format 5")
	}
}

func TestMarshalRejectsHugeAxisRange(t *testing.T) {
	cloud := &Cloud{
		X: []float64{0, 3e9},
		Y: []float64{0, 0},
		Z: []float64{0, 0},
	}
	_, err := Marshal(cloud, 0)
	if err == nil {
		t.Fatal("expected error for axis range exceeding int32 grid")
	}
	if !strings.Contains(err.Error(), "exceeds int32 grid") {
		t.Errorf("error = %v, want grid overflow error", err)
	}
}

func TestReadFile(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()

	data, err := Marshal(colorTestCloud(), 2)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if err := mfs.WriteFile("/scans/Detection_42.las", data, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cloud, err := ReadFile(mfs, "/scans/Detection_42.las")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if cloud.Len() != 3 {
		t.Errorf("point count = %d, want 3", cloud.Len())
	}
}

func TestReadFileMissing(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()

	_, err := ReadFile(mfs, "/scans/missing.las")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	original := colorTestCloud()

	if err := WriteFile(mfs, "/out/cloud.las", original, 2); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cloud, err := ReadFile(mfs, "/out/cloud.las")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if cloud.Len() != original.Len() {
		t.Errorf("point count = %d, want %d", cloud.Len(), original.Len())
	}
}
