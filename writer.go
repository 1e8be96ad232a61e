package main

import "encoding/binary"

// BinaryImage renders the model's storages into a single contiguous
// byte buffer spanning [lowest, highest) addresses, per spec.md §6
// ("Binary output") and the invariant in §8.2 that each storage writes
// exactly cellWidth(s) x len(data(s)) bytes at its own address.
//
// Overlapping storages (possible after an ORG rewinds $) write in
// allocation order, so a later overlapping write wins -- this matches
// the model's own source-order semantics, since a later-allocated
// storage reflects a statement that executed after the earlier one.
func BinaryImage(m *Model) []byte {
	storages := m.Storages()
	if len(storages) == 0 {
		return nil
	}

	lowest, highest := storages[0].Addr, storages[0].Addr
	for _, st := range storages {
		end := st.Addr + int32(st.byteLen())
		if st.Addr < lowest {
			lowest = st.Addr
		}
		if end > highest {
			highest = end
		}
	}

	buf := make([]byte, highest-lowest)
	order := byteOrder(m.BigEndian())
	for _, st := range storages {
		off := st.Addr - lowest
		writeStorage(buf[off:], st, order)
	}
	return buf
}

func byteOrder(bigEndian bool) binary.ByteOrder {
	if bigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// writeStorage encodes one storage's cells (or raw bytes) into dst,
// which must be at least st.byteLen() bytes long.
func writeStorage(dst []byte, st *Storage, order binary.ByteOrder) {
	if st.Width == 0 {
		copy(dst, st.Bytes)
		return
	}
	for i, v := range st.Data {
		cell := dst[i*int(st.Width):]
		switch st.Width {
		case CellByte:
			cell[0] = byte(v)
		case CellWord:
			order.PutUint16(cell, uint16(v))
		case CellDword:
			order.PutUint32(cell, uint32(v))
		}
	}
}

// LowestAddress returns the lowest byte address used by any storage, the
// address of the binary image's first byte and the base of the Intel HEX
// output. The listing prints absolute addresses.
func LowestAddress(m *Model) int32 {
	storages := m.Storages()
	if len(storages) == 0 {
		return 0
	}
	lowest := storages[0].Addr
	for _, st := range storages {
		if st.Addr < lowest {
			lowest = st.Addr
		}
	}
	return lowest
}
