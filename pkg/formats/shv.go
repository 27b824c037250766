package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/shadowvol/pkg/math"
	"github.com/Faultbox/shadowvol/pkg/shadow/volume"
)

// SHV format errors.
var (
	ErrInvalidSHVMagic       = errors.New("invalid SHV magic: expected 'SHDV'")
	ErrUnsupportedSHVVersion = errors.New("unsupported SHV version")
	ErrTruncatedSHVData      = errors.New("truncated SHV data")
	ErrInvalidSHVVolume      = errors.New("invalid SHV volume")
)

const shvMagic = "SHDV"

// Current SHV version written by WriteSHV.
const (
	SHVVersionMajor = 1
	SHVVersionMinor = 0
)

// Limits applied while parsing.
const (
	maxSHVEntries = 1 << 16
	maxSHVName    = 1024
	maxSHVCount   = 1 << 24
)

// SHVVersion represents the SHV file version.
type SHVVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v SHVVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// SHVEntry is the shadow volume one light casts from one surface.
type SHVEntry struct {
	Surface string
	Light   string
	Volume  *volume.Volume
}

// SHV is a compiled shadow volume file.
//
// Layout (little endian):
//
//	"SHDV" major:u8 minor:u8 count:u32
//	per entry:
//	  surface:str light:str (str = len:u16 bytes)
//	  numVerts:u32 numIndexes:u32 noCaps:u32 noFrontCaps:u32 capBits:u8
//	  verts: numVerts * 3 * f32
//	  indexes: numIndexes * u32
type SHV struct {
	Version SHVVersion
	Entries []SHVEntry
}

// Stats totals the entries of the file.
func (s *SHV) Stats() (verts, indexes int) {
	for _, e := range s.Entries {
		verts += len(e.Volume.Verts)
		indexes += len(e.Volume.Indexes)
	}
	return verts, indexes
}

// ParseSHV parses an SHV file from raw bytes.
func ParseSHV(data []byte) (*SHV, error) {
	if len(data) < 10 {
		return nil, ErrTruncatedSHVData
	}
	if string(data[0:4]) != shvMagic {
		return nil, ErrInvalidSHVMagic
	}

	version := SHVVersion{Major: data[4], Minor: data[5]}
	if version.Major != SHVVersionMajor {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSHVVersion, version)
	}

	r := bytes.NewReader(data[6:])

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: reading entry count", ErrTruncatedSHVData)
	}
	if count > maxSHVEntries {
		return nil, fmt.Errorf("%w: %d entries", ErrInvalidSHVVolume, count)
	}

	shv := &SHV{Version: version, Entries: make([]SHVEntry, 0, count)}
	for i := 0; i < int(count); i++ {
		entry, err := parseSHVEntry(r)
		if err != nil {
			return nil, fmt.Errorf("parsing entry %d: %w", i, err)
		}
		shv.Entries = append(shv.Entries, entry)
	}

	return shv, nil
}

func readSHVString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", fmt.Errorf("%w: reading string length", ErrTruncatedSHVData)
	}
	if n > maxSHVName {
		return "", fmt.Errorf("%w: name of %d bytes", ErrInvalidSHVVolume, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: reading string", ErrTruncatedSHVData)
	}
	return string(buf), nil
}

func parseSHVEntry(r *bytes.Reader) (SHVEntry, error) {
	var entry SHVEntry
	var err error

	if entry.Surface, err = readSHVString(r); err != nil {
		return SHVEntry{}, err
	}
	if entry.Light, err = readSHVString(r); err != nil {
		return SHVEntry{}, err
	}

	var header struct {
		NumVerts    uint32
		NumIndexes  uint32
		NoCaps      uint32
		NoFrontCaps uint32
		CapBits     uint8
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return SHVEntry{}, fmt.Errorf("%w: reading volume header", ErrTruncatedSHVData)
	}

	if header.NumVerts > maxSHVCount || header.NumIndexes > maxSHVCount {
		return SHVEntry{}, fmt.Errorf("%w: %d verts, %d indexes", ErrInvalidSHVVolume, header.NumVerts, header.NumIndexes)
	}
	if header.NumIndexes%3 != 0 || header.NoCaps > header.NoFrontCaps || header.NoFrontCaps > header.NumIndexes {
		return SHVEntry{}, fmt.Errorf("%w: index ranges %d/%d/%d", ErrInvalidSHVVolume,
			header.NoCaps, header.NoFrontCaps, header.NumIndexes)
	}
	need := int64(header.NumVerts)*12 + int64(header.NumIndexes)*4
	if int64(r.Len()) < need {
		return SHVEntry{}, fmt.Errorf("%w: volume needs %d bytes, %d left", ErrTruncatedSHVData, need, r.Len())
	}

	v := &volume.Volume{
		Verts:                 make([]math.Vec3, header.NumVerts),
		Indexes:               make([]uint32, header.NumIndexes),
		NumIndexesNoCaps:      int(header.NoCaps),
		NumIndexesNoFrontCaps: int(header.NoFrontCaps),
		CapPlaneBits:          header.CapBits,
	}
	if err := binary.Read(r, binary.LittleEndian, v.Verts); err != nil {
		return SHVEntry{}, fmt.Errorf("%w: reading vertices", ErrTruncatedSHVData)
	}
	if err := binary.Read(r, binary.LittleEndian, v.Indexes); err != nil {
		return SHVEntry{}, fmt.Errorf("%w: reading indexes", ErrTruncatedSHVData)
	}
	for i, idx := range v.Indexes {
		if idx >= header.NumVerts {
			return SHVEntry{}, fmt.Errorf("%w: index %d = %d, %d verts", ErrInvalidSHVVolume, i, idx, header.NumVerts)
		}
	}

	entry.Volume = v
	return entry, nil
}

// ParseSHVFile parses an SHV file from disk.
func ParseSHVFile(path string) (*SHV, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading SHV file: %w", err)
	}
	return ParseSHV(data)
}

func writeSHVString(w io.Writer, s string) error {
	if len(s) > maxSHVName {
		return fmt.Errorf("%w: name %q too long", ErrInvalidSHVVolume, s)
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// WriteSHV writes s in the current SHV version.
func WriteSHV(w io.Writer, s *SHV) error {
	bw := bufio.NewWriter(w)

	bw.WriteString(shvMagic)
	bw.WriteByte(SHVVersionMajor)
	bw.WriteByte(SHVVersionMinor)
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(s.Entries))); err != nil {
		return err
	}

	for i, e := range s.Entries {
		if err := writeSHVEntry(bw, e); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	return bw.Flush()
}

func writeSHVEntry(w io.Writer, e SHVEntry) error {
	if err := writeSHVString(w, e.Surface); err != nil {
		return err
	}
	if err := writeSHVString(w, e.Light); err != nil {
		return err
	}

	v := e.Volume
	header := struct {
		NumVerts    uint32
		NumIndexes  uint32
		NoCaps      uint32
		NoFrontCaps uint32
		CapBits     uint8
	}{
		NumVerts:    uint32(len(v.Verts)),
		NumIndexes:  uint32(len(v.Indexes)),
		NoCaps:      uint32(v.NumIndexesNoCaps),
		NoFrontCaps: uint32(v.NumIndexesNoFrontCaps),
		CapBits:     v.CapPlaneBits,
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, v.Verts); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, v.Indexes)
}

// WriteSHVFile writes s to path, creating or truncating it.
func WriteSHVFile(path string, s *SHV) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating SHV file: %w", err)
	}
	if err := WriteSHV(f, s); err != nil {
		f.Close()
		return fmt.Errorf("writing SHV file: %w", err)
	}
	return f.Close()
}
