package main

import (
	"bytes"
	"testing"
)

func TestBinaryImageZeroFillsGaps(t *testing.T) {
	m := NewModel()
	m.SetDollar(0)
	line := &Line{Loc: Location{Line: 1}}
	if _, err := m.AllocateStorage(line, CellByte, []Expression{&Number{Value: 0xAA}}); err != nil {
		t.Fatalf("AllocateStorage: %v", err)
	}
	m.SetDollar(4)
	if _, err := m.AllocateStorage(line, CellByte, []Expression{&Number{Value: 0xBB}}); err != nil {
		t.Fatalf("AllocateStorage: %v", err)
	}

	got := BinaryImage(m)
	want := []byte{0xAA, 0, 0, 0, 0xBB}
	if !bytes.Equal(got, want) {
		t.Errorf("BinaryImage = % X, want % X", got, want)
	}
}

func TestBinaryImageOverlapLastWriteWins(t *testing.T) {
	m := NewModel()
	m.SetDollar(0)
	line := &Line{Loc: Location{Line: 1}}
	if _, err := m.AllocateStorage(line, CellByte, []Expression{&Number{Value: 1}, &Number{Value: 2}}); err != nil {
		t.Fatalf("AllocateStorage: %v", err)
	}
	m.SetDollar(0)
	if _, err := m.AllocateStorage(line, CellByte, []Expression{&Number{Value: 9}}); err != nil {
		t.Fatalf("AllocateStorage: %v", err)
	}

	got := BinaryImage(m)
	want := []byte{9, 2}
	if !bytes.Equal(got, want) {
		t.Errorf("BinaryImage = % X, want % X (later allocation should win the overlap)", got, want)
	}
}

func TestBinaryImageHonorsEndianness(t *testing.T) {
	m := NewModel()
	m.bigEndian = false
	m.SetDollar(0)
	line := &Line{Loc: Location{Line: 1}}
	if _, err := m.AllocateStorage(line, CellWord, []Expression{&Number{Value: 0x0102}}); err != nil {
		t.Fatalf("AllocateStorage: %v", err)
	}
	got := BinaryImage(m)
	want := []byte{0x02, 0x01}
	if !bytes.Equal(got, want) {
		t.Errorf("little-endian word = % X, want % X", got, want)
	}
}

func TestBinaryImageEmptyModel(t *testing.T) {
	m := NewModel()
	if got := BinaryImage(m); got != nil {
		t.Errorf("BinaryImage(empty model) = %v, want nil", got)
	}
}

func TestLowestAddress(t *testing.T) {
	m := NewModel()
	line := &Line{Loc: Location{Line: 1}}
	m.SetDollar(0x2000)
	if _, err := m.AllocateStorage(line, CellByte, []Expression{&Number{Value: 1}}); err != nil {
		t.Fatalf("AllocateStorage: %v", err)
	}
	m.SetDollar(0x1000)
	if _, err := m.AllocateStorage(line, CellByte, []Expression{&Number{Value: 2}}); err != nil {
		t.Fatalf("AllocateStorage: %v", err)
	}
	if got := LowestAddress(m); got != 0x1000 {
		t.Errorf("LowestAddress = %X, want 0x1000", got)
	}
}

func TestIntelHexChecksum(t *testing.T) {
	record := []byte{0x10, 0x01, 0x00, 0x00, 0x21, 0x46, 0x01, 0x36, 0x01, 0x21, 0x47, 0x01, 0x36, 0x00, 0x7E, 0xFE, 0x09, 0xD2, 0x19}
	sum := byte(0)
	for _, b := range record {
		sum += b
	}
	got := intelHexChecksum(record)
	// A checksum byte appended to its own record must always sum to zero
	// mod 256: that is the defining property of the two's-complement
	// checksum, independent of the specific record contents.
	if byte(sum+got) != 0 {
		t.Errorf("record+checksum = %02X, want 00", byte(sum+got))
	}
}

func TestIntelHexProducesEOFRecord(t *testing.T) {
	out := IntelHex([]byte{1, 2, 3}, 0)
	if !bytes.Contains([]byte(out), []byte(":00000001FF")) {
		t.Errorf("missing EOF record in:\n%s", out)
	}
	if !bytes.Contains([]byte(out), []byte(":03000000010203F7")) {
		t.Errorf("missing expected data record in:\n%s", out)
	}
}

func TestIntelHexSegmentCrossing(t *testing.T) {
	img := make([]byte, 0x10010)
	out := IntelHex(img, 0)
	if !bytes.Contains([]byte(out), []byte(":02000004")) {
		t.Errorf("expected an Extended Linear Address record when crossing a 64K boundary:\n%s", out[:200])
	}
}
