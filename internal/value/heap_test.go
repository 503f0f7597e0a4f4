package value

import "testing"

func TestListOrderingAndBounds(t *testing.T) {
	h := NewHeap()
	xs := h.NewList()

	const n = 10
	for i := 0; i < n; i++ {
		if p := h.ListPush(xs, NewInt(int64(i*i))); p != nil {
			t.Fatalf("push %d: %v", i, p)
		}
	}

	length, p := h.ListLen(xs)
	if p != nil || length != n {
		t.Fatalf("len=%d panic=%v, want %d", length, p, n)
	}
	for i := int64(0); i < n; i++ {
		v, p := h.ListGet(xs, i)
		if p != nil {
			t.Fatalf("get %d: %v", i, p)
		}
		got, _ := AsInt(v)
		if got != i*i {
			t.Fatalf("get(%d)=%d want=%d", i, got, i*i)
		}
	}

	if _, p := h.ListGet(xs, n); p == nil {
		t.Fatalf("get(len) must panic")
	}
	if _, p := h.ListGet(xs, -1); p == nil {
		t.Fatalf("get(-1) must panic")
	}
}

func TestGrowthPreservesElements(t *testing.T) {
	h := NewHeap()
	xs := h.NewList()

	startCap, _ := h.ListCapacity(xs)
	// Push far enough to cross several doubling boundaries.
	total := startCap*8 + 3
	for i := 0; i < total; i++ {
		if p := h.ListPush(xs, NewInt(int64(i))); p != nil {
			t.Fatalf("push %d: %v", i, p)
		}
	}

	endCap, _ := h.ListCapacity(xs)
	if endCap <= startCap {
		t.Fatalf("capacity did not grow: %d -> %d", startCap, endCap)
	}
	length, _ := h.ListLen(xs)
	if length != int64(total) {
		t.Fatalf("len=%d want=%d", length, total)
	}
	for i := int64(0); i < int64(total); i++ {
		v, p := h.ListGet(xs, i)
		if p != nil {
			t.Fatalf("get %d: %v", i, p)
		}
		if got, _ := AsInt(v); got != i {
			t.Fatalf("element %d corrupted across growth: got %d", i, got)
		}
	}
}

func TestIsEmpty(t *testing.T) {
	h := NewHeap()
	xs := h.NewList()

	empty, p := h.ListIsEmpty(xs)
	if p != nil || !empty {
		t.Fatalf("fresh list should be empty (panic %v)", p)
	}
	h.ListPush(xs, NewInt(1))
	empty, _ = h.ListIsEmpty(xs)
	if empty {
		t.Fatalf("list with one element reported empty")
	}
}

func TestRecursiveFreeReleasesNestedLists(t *testing.T) {
	h := NewHeap()

	inner1 := h.NewList()
	h.ListPush(inner1, NewInt(1))
	inner2 := h.NewList()
	h.ListPush(inner2, NewFloat(2.5))

	outer := h.NewList()
	h.ListPush(outer, inner1)
	h.ListPush(outer, inner2)
	h.ListPush(outer, NewInt(3)) // scalars are not owned

	if h.Live() != 3 {
		t.Fatalf("Live()=%d want 3", h.Live())
	}
	if p := h.Free(outer); p != nil {
		t.Fatalf("free: %v", p)
	}
	if h.Live() != 0 {
		t.Fatalf("Live()=%d after free, want 0", h.Live())
	}
	if _, p := h.ListLen(inner1); p == nil {
		t.Fatalf("inner list should be gone after recursive free")
	}
}

func TestFreeRecordsRecursively(t *testing.T) {
	h := NewHeap()

	xs := h.NewList()
	h.ListPush(xs, NewInt(9))
	rec := h.NewRecord(TagEnum, 1, []Value{NewInt(255), xs})

	if h.Live() != 2 {
		t.Fatalf("Live()=%d want 2", h.Live())
	}
	if p := h.Free(rec); p != nil {
		t.Fatalf("free: %v", p)
	}
	if h.Live() != 0 {
		t.Fatalf("Live()=%d want 0", h.Live())
	}
}

func TestDoubleFreeIsDetected(t *testing.T) {
	h := NewHeap()
	xs := h.NewList()

	if p := h.Free(xs); p != nil {
		t.Fatalf("first free: %v", p)
	}
	if p := h.Free(xs); p == nil {
		t.Fatalf("second free must report an invalid handle")
	}
}

func TestStringsAreNotOwned(t *testing.T) {
	h := NewHeap()
	s := h.NewString("hello")

	if h.Live() != 0 {
		t.Fatalf("string allocation counted as owned: Live()=%d", h.Live())
	}
	got, p := h.AsString(s)
	if p != nil || got != "hello" {
		t.Fatalf("AsString=%q panic=%v", got, p)
	}
	// Interning returns the same handle for equal contents.
	if again := h.NewString("hello"); again.Payload != s.Payload {
		t.Fatalf("intern miss: %d vs %d", again.Payload, s.Payload)
	}
	// Free ignores non-heap tags entirely.
	if p := h.Free(s); p != nil {
		t.Fatalf("freeing a string value should be a no-op, got %v", p)
	}
}

func TestEnumRecordRoundTrip(t *testing.T) {
	h := NewHeap()
	v := h.NewRecord(TagEnum, 1, []Value{NewInt(255), NewInt(0), NewInt(0)})

	rec, p := h.RecordOf(v, TagEnum)
	if p != nil {
		t.Fatalf("RecordOf: %v", p)
	}
	if rec.Discriminant != 1 || len(rec.Fields) != 3 {
		t.Fatalf("record %+v", rec)
	}
	if n, _ := AsInt(rec.Fields[0]); n != 255 {
		t.Fatalf("field 0 = %d, want 255", n)
	}
	if _, p := h.RecordOf(v, TagStruct); p == nil {
		t.Fatalf("reading an enum record as struct must panic")
	}
}
