package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/Faultbox/shadowvol/pkg/math"
	"github.com/Faultbox/shadowvol/pkg/shadow/volume"
)

func testSHV() *SHV {
	return &SHV{
		Version: SHVVersion{Major: SHVVersionMajor, Minor: SHVVersionMinor},
		Entries: []SHVEntry{
			{
				Surface: "floor",
				Light:   "spot",
				Volume: &volume.Volume{
					Verts: []math.Vec3{
						{}, {Z: 5}, {X: 1}, {X: 2, Z: 5}, {Y: 1}, {Y: 2, Z: 5},
					},
					Indexes:               []uint32{0, 2, 1, 2, 3, 1, 1, 3, 5, 4, 2, 0},
					NumIndexesNoCaps:      6,
					NumIndexesNoFrontCaps: 9,
					CapPlaneBits:          1,
				},
			},
		},
	}
}

func encodeSHV(t *testing.T, s *SHV) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteSHV(&buf, s); err != nil {
		t.Fatalf("WriteSHV failed: %v", err)
	}
	return buf.Bytes()
}

func TestParseSHV_ValidFile(t *testing.T) {
	want := testSHV()
	got, err := ParseSHV(encodeSHV(t, want))
	if err != nil {
		t.Fatalf("ParseSHV failed: %v", err)
	}

	if got.Version.String() != "1.0" {
		t.Errorf("expected version 1.0, got %s", got.Version)
	}
	if len(got.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got.Entries))
	}

	e, w := got.Entries[0], want.Entries[0]
	if e.Surface != "floor" || e.Light != "spot" {
		t.Errorf("expected floor/spot, got %s/%s", e.Surface, e.Light)
	}
	if !slices.Equal(e.Volume.Verts, w.Volume.Verts) {
		t.Errorf("verts = %v, want %v", e.Volume.Verts, w.Volume.Verts)
	}
	if !slices.Equal(e.Volume.Indexes, w.Volume.Indexes) {
		t.Errorf("indexes = %v, want %v", e.Volume.Indexes, w.Volume.Indexes)
	}
	if e.Volume.NumIndexesNoCaps != 6 || e.Volume.NumIndexesNoFrontCaps != 9 || e.Volume.CapPlaneBits != 1 {
		t.Errorf("ranges = %d/%d bits %d", e.Volume.NumIndexesNoCaps, e.Volume.NumIndexesNoFrontCaps, e.Volume.CapPlaneBits)
	}

	verts, indexes := got.Stats()
	if verts != 6 || indexes != 12 {
		t.Errorf("Stats() = %d, %d", verts, indexes)
	}
}

func TestParseSHV_Errors(t *testing.T) {
	valid := encodeSHV(t, testSHV())

	badVersion := bytes.Clone(valid)
	badVersion[4] = 9

	// first index of the only entry, after magic, version, count, two
	// names, the header and six vertices
	badIndex := bytes.Clone(valid)
	off := 4 + 2 + 4 + (2 + 5) + (2 + 4) + 17 + 6*12
	binary.LittleEndian.PutUint32(badIndex[off:], 99)

	badRanges := bytes.Clone(valid)
	rangeOff := 4 + 2 + 4 + (2 + 5) + (2 + 4) + 8
	binary.LittleEndian.PutUint32(badRanges[rangeOff:], 100)

	// vertex count claiming far more data than the file holds
	hugeVerts := bytes.Clone(valid)
	binary.LittleEndian.PutUint32(hugeVerts[4+2+4+(2+5)+(2+4):], maxSHVCount)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"counts past end of data", hugeVerts, ErrTruncatedSHVData},
		{"too short", []byte("SHDV"), ErrTruncatedSHVData},
		{"bad magic", append([]byte("GRAT"), valid[4:]...), ErrInvalidSHVMagic},
		{"bad version", badVersion, ErrUnsupportedSHVVersion},
		{"truncated", valid[:len(valid)-2], ErrTruncatedSHVData},
		{"index out of range", badIndex, ErrInvalidSHVVolume},
		{"bad ranges", badRanges, ErrInvalidSHVVolume},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSHV(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseSHV() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSHVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.shv")
	if err := WriteSHVFile(path, testSHV()); err != nil {
		t.Fatalf("WriteSHVFile failed: %v", err)
	}

	got, err := ParseSHVFile(path)
	if err != nil {
		t.Fatalf("ParseSHVFile failed: %v", err)
	}
	if len(got.Entries) != 1 || got.Entries[0].Volume.NumIndexes() != 12 {
		t.Errorf("unexpected file contents: %+v", got)
	}

	if _, err := ParseSHVFile(filepath.Join(t.TempDir(), "missing.shv")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteSHV_LongName(t *testing.T) {
	s := testSHV()
	s.Entries[0].Surface = string(make([]byte, maxSHVName+1))

	var buf bytes.Buffer
	if err := WriteSHV(&buf, s); !errors.Is(err, ErrInvalidSHVVolume) {
		t.Errorf("WriteSHV() error = %v, want ErrInvalidSHVVolume", err)
	}
}
