package cdr

import (
	"bytes"
	"errors"
	"testing"
)

func TestBuffer_WriteWithinCapacity(t *testing.T) {
	b := New(8)
	if _, err := b.Write([]byte{1, 2, 3}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := b.WriteUint32(0x04050607); err != nil {
		t.Fatalf("WriteUint32: %v", err)
	}
	if b.Length() != 7 {
		t.Errorf("Length = %d, want 7", b.Length())
	}
	if b.Free() != 1 {
		t.Errorf("Free = %d, want 1", b.Free())
	}
	want := []byte{1, 2, 3, 7, 6, 5, 4}
	if !bytes.Equal(b.Bytes(), want) {
		t.Errorf("Bytes = %v, want %v", b.Bytes(), want)
	}
}

func TestBuffer_OverflowIsAllOrNothing(t *testing.T) {
	b := New(4)
	if _, err := b.Write([]byte{1, 2, 3}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	_, err := b.Write([]byte{4, 5})
	if !errors.Is(err, ErrBufferFull) {
		t.Fatalf("expected ErrBufferFull, got %v", err)
	}
	if b.Length() != 3 {
		t.Errorf("Length after failed write = %d, want 3", b.Length())
	}
	if err := b.WriteUint16(1); !errors.Is(err, ErrBufferFull) {
		t.Errorf("WriteUint16 expected ErrBufferFull, got %v", err)
	}
	if b.Capacity() != 4 {
		t.Errorf("Capacity changed to %d", b.Capacity())
	}
}

func TestBuffer_ResetAndTruncate(t *testing.T) {
	b := New(16)
	_, _ = b.Write([]byte("headerpayload"))

	b.Truncate(6)
	if string(b.Bytes()) != "header" {
		t.Errorf("after Truncate = %q, want header", b.Bytes())
	}

	b.Reset()
	if b.Length() != 0 || b.Pos() != 0 {
		t.Errorf("after Reset length=%d pos=%d", b.Length(), b.Pos())
	}
}

func TestBuffer_TruncatePanicsBeyondLength(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	b := New(4)
	b.Truncate(1)
}

func TestBuffer_ReadBack(t *testing.T) {
	b := New(16)
	_ = b.WriteUint16(0xBEEF)
	_ = b.WriteUint32(42)
	_ = b.WriteZeros(2)

	v16, err := b.ReadUint16()
	if err != nil || v16 != 0xBEEF {
		t.Fatalf("ReadUint16 = %x, %v", v16, err)
	}
	v32, err := b.ReadUint32()
	if err != nil || v32 != 42 {
		t.Fatalf("ReadUint32 = %d, %v", v32, err)
	}
	if _, err := b.Next(3); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("expected ErrShortBuffer, got %v", err)
	}
	if err := b.Seek(0); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if b.Pos() != 0 {
		t.Errorf("Pos = %d after Seek(0)", b.Pos())
	}
}

func TestBuffer_PutUint16At(t *testing.T) {
	b := New(8)
	_ = b.WriteUint32(0)
	if err := b.PutUint16At(2, 0x0102); err != nil {
		t.Fatalf("PutUint16At: %v", err)
	}
	if !bytes.Equal(b.Bytes(), []byte{0, 0, 2, 1}) {
		t.Errorf("Bytes = %v", b.Bytes())
	}
	if err := b.PutUint16At(3, 1); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("expected ErrShortBuffer, got %v", err)
	}
}
