// buffer.go is the write-only byte buffer the emitter writes function bodies
// into: append-byte and overwrite-at-offset, the two operations needed to
// back-patch forward jump references during Conditional/WhileLoop emission.
package bytecode

import "encoding/binary"

// Buffer is an append-only byte sequence supporting in-place overwrites at
// already-written offsets (used exclusively for jump back-patching).
type Buffer struct {
	bytes []byte
}

// Len returns the current length of the buffer, i.e. the offset the next
// appended byte will land at.
func (b *Buffer) Len() int { return len(b.bytes) }

// Bytes returns the buffer's contents. The returned slice aliases internal
// storage and must not be retained across further writes.
func (b *Buffer) Bytes() []byte { return b.bytes }

func (b *Buffer) append(v byte) { b.bytes = append(b.bytes, v) }

// WriteOp appends an opcode byte.
func (b *Buffer) WriteOp(op Op) { b.append(byte(op)) }

// WriteU8 appends a single-byte operand (constant-pool index, local/global
// slot, the signed byte of PUSH_I32_1BYTE).
func (b *Buffer) WriteU8(v uint8) { b.append(v) }

// WriteI16 appends a signed 16-bit big-endian operand (a jump offset; all
// multi-byte operands in this format are big-endian).
func (b *Buffer) WriteI16(v int16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], uint16(v))
	b.bytes = append(b.bytes, tmp[:]...)
}

// PatchI16 overwrites the 2-byte big-endian value at offset off (previously
// reserved by WriteI16) with v. Used to back-patch jump targets once the
// jump's destination byte position is known.
func (b *Buffer) PatchI16(off int, v int16) {
	binary.BigEndian.PutUint16(b.bytes[off:off+2], uint16(v))
}
