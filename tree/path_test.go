package tree

import "testing"

func TestNibblePath_IsValidMapKey(t *testing.T) {
	// this just needs to compile to pass the test.
	var _ map[NibblePath]bool
}

func TestNibblePath_EmptyPathHasLengthZero(t *testing.T) {
	if got, want := EmptyPath.Len(), 0; got != want {
		t.Errorf("unexpected length, wanted %d, got %d", want, got)
	}
}

func TestNibblePath_PushAndGet(t *testing.T) {
	p := EmptyPath.Push(0xA).Push(0x3).Push(0xF)
	if got, want := p.Len(), 3; got != want {
		t.Errorf("unexpected length, wanted %d, got %d", want, got)
	}
	want := []byte{0xA, 0x3, 0xF}
	for i, w := range want {
		if got := p.Get(i); got != w {
			t.Errorf("nibble %d: wanted %x, got %x", i, w, got)
		}
	}
}

func TestNibblePath_FromBytesMatchesFromKey(t *testing.T) {
	key := []byte{0x12, 0xAB, 0xFF}
	fromKey := NibblePathFromKey(key)
	if got, want := fromKey.Len(), 6; got != want {
		t.Errorf("unexpected length, wanted %d, got %d", want, got)
	}
	want := []byte{0x1, 0x2, 0xA, 0xB, 0xF, 0xF}
	for i, w := range want {
		if got := fromKey.Get(i); got != w {
			t.Errorf("nibble %d: wanted %x, got %x", i, w, got)
		}
	}
}

func TestNibblePath_PopFromEvenLengthZeroesPadNibble(t *testing.T) {
	// Two full bytes (even length): popping leaves an odd-length path whose
	// trailing nibble must be canonically zeroed.
	p := NibblePathFromKey([]byte{0x12, 0x34})
	if got, want := p.Len(), 4; got != want {
		t.Fatalf("unexpected length, wanted %d, got %d", want, got)
	}
	popped := p.Pop()
	if got, want := popped.Len(), 3; got != want {
		t.Fatalf("unexpected length after Pop, wanted %d, got %d", want, got)
	}
	other := NibblePathFromBytes([]byte{0x12, 0x30}, 3)
	if !popped.Equal(other) {
		t.Errorf("popped path does not match canonically-zeroed equivalent: %s vs %s", popped, other)
	}
}

func TestNibblePath_PopFromOddLengthDropsTrailingByte(t *testing.T) {
	// Three nibbles (odd length, one padding nibble already zeroed):
	// popping must land on a clean two-nibble, one-byte path.
	p := NibblePathFromBytes([]byte{0x12, 0x30}, 3)
	popped := p.Pop()
	if got, want := popped.Len(), 2; got != want {
		t.Fatalf("unexpected length after Pop, wanted %d, got %d", want, got)
	}
	other := NibblePathFromKey([]byte{0x12})
	if !popped.Equal(other) {
		t.Errorf("popped path does not match equivalent built from bytes: %s vs %s", popped, other)
	}
}

func TestNibblePath_PopOfEmptyPathIsNoop(t *testing.T) {
	if got := EmptyPath.Pop(); got.Len() != 0 {
		t.Errorf("popping an empty path should stay empty, got length %d", got.Len())
	}
}

func TestNibblePath_FromBytesZeroesOddPaddingRegardlessOfInput(t *testing.T) {
	a := NibblePathFromBytes([]byte{0x12, 0x3F}, 3)
	b := NibblePathFromBytes([]byte{0x12, 0x30}, 3)
	if !a.Equal(b) {
		t.Errorf("two paths differing only in the unused padding nibble should be equal: %s vs %s", a, b)
	}
	if got, want := a.Bytes()[1], byte(0x30); got != want {
		t.Errorf("padding nibble was not canonically zeroed: wanted %x, got %x", want, got)
	}
}

func TestNibblePath_CompareOrdersByLengthThenContent(t *testing.T) {
	short := NibblePathFromKey([]byte{0x01})
	long := NibblePathFromKey([]byte{0x01, 0x02})
	if short.Compare(long) >= 0 {
		t.Errorf("shorter path should compare less than a longer one")
	}
	a := NibblePathFromKey([]byte{0x01})
	b := NibblePathFromKey([]byte{0x02})
	if a.Compare(b) >= 0 {
		t.Errorf("0x01 should compare less than 0x02")
	}
	if a.Compare(a) != 0 {
		t.Errorf("a path should compare equal to itself")
	}
}

func TestNibblePath_GetOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic for an out-of-range Get")
		}
	}()
	EmptyPath.Get(0)
}
