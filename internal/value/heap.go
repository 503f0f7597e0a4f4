package value

// Heap issues and tracks handles for heap-backed runtime objects: lists
// and the records behind structs, tuples and enums. It mirrors what the
// emitted runtime library does with malloc'd pointers, with the payload
// slot holding an opaque handle instead of an address.
//
// The heap is not synchronized; the interpreter is single-threaded, as is
// each compiled program's use of one list handle (a stated limitation of
// the runtime, not a guarantee).
type Heap struct {
	lists   map[uint64]*listObject
	records map[uint64]*Record
	strs    map[uint64]string
	interns map[string]uint64
	next    uint64
	live    int
}

// listObject keeps length separate from the allocated buffer so growth
// follows the allocate-double/copy/release discipline exactly.
type listObject struct {
	buf    []Value // len(buf) is the capacity
	length int
}

// Record is the payload of struct, tuple and enum values: an optional
// discriminant plus the boxed field values in declaration order.
type Record struct {
	Discriminant int64
	Fields       []Value
}

const initialListCapacity = 4

func NewHeap() *Heap {
	return &Heap{
		lists:   make(map[uint64]*listObject),
		records: make(map[uint64]*Record),
		strs:    make(map[uint64]string),
		interns: make(map[string]uint64),
		next:    1,
	}
}

// Live returns the number of outstanding heap allocations. A program that
// frees everything it created brings this back to zero; the leak tests
// rely on that.
func (h *Heap) Live() int { return h.live }

func (h *Heap) handle() uint64 {
	id := h.next
	h.next++
	return id
}

// NewList allocates an empty list and returns its List-tagged value.
func (h *Heap) NewList() Value {
	id := h.handle()
	h.lists[id] = &listObject{buf: make([]Value, initialListCapacity)}
	h.live++
	return Value{Tag: TagList, Payload: id}
}

func (h *Heap) list(v Value) (*listObject, *Panic) {
	if p := CheckTag(v, TagList); p != nil {
		return nil, p
	}
	obj, ok := h.lists[v.Payload]
	if !ok {
		return nil, panicf("invalid list handle %d", v.Payload)
	}
	return obj, nil
}

// ListPush appends elem, growing the buffer by doubling when full:
// allocate 2x, copy in order, release the old buffer, then store.
func (h *Heap) ListPush(v Value, elem Value) *Panic {
	obj, p := h.list(v)
	if p != nil {
		return p
	}
	if obj.length == len(obj.buf) {
		grown := make([]Value, 2*len(obj.buf))
		copy(grown, obj.buf[:obj.length])
		obj.buf = grown
	}
	obj.buf[obj.length] = elem
	obj.length++
	return nil
}

// ListGet is the bounds-checked indexed read. An out-of-range index goes
// through the same panic channel as a tag mismatch and never returns a
// value from outside the list.
func (h *Heap) ListGet(v Value, index int64) (Value, *Panic) {
	obj, p := h.list(v)
	if p != nil {
		return Value{}, p
	}
	if index < 0 || index >= int64(obj.length) {
		return Value{}, panicf("list index out of bounds: index %d, length %d", index, obj.length)
	}
	return obj.buf[index], nil
}

// ListLen returns the element count.
func (h *Heap) ListLen(v Value) (int64, *Panic) {
	obj, p := h.list(v)
	if p != nil {
		return 0, p
	}
	return int64(obj.length), nil
}

// ListIsEmpty reports whether the list holds no elements.
func (h *Heap) ListIsEmpty(v Value) (bool, *Panic) {
	n, p := h.ListLen(v)
	if p != nil {
		return false, p
	}
	return n == 0, nil
}

// ListCapacity exposes the allocated slot count for growth tests.
func (h *Heap) ListCapacity(v Value) (int, *Panic) {
	obj, p := h.list(v)
	if p != nil {
		return 0, p
	}
	return len(obj.buf), nil
}

// NewRecord allocates the backing record for a struct, tuple or enum
// value. tag selects which of the three reference tags the value carries;
// discr is meaningful only under TagEnum.
func (h *Heap) NewRecord(tag Tag, discr int64, fields []Value) Value {
	if tag != TagStruct && tag != TagTuple && tag != TagEnum {
		panic("NewRecord: tag must be Struct, Tuple or Enum")
	}
	id := h.handle()
	h.records[id] = &Record{Discriminant: discr, Fields: fields}
	h.live++
	return Value{Tag: tag, Payload: id}
}

// RecordOf resolves a record-backed value, checking the tag first.
func (h *Heap) RecordOf(v Value, expected Tag) (*Record, *Panic) {
	if p := CheckTag(v, expected); p != nil {
		return nil, p
	}
	rec, ok := h.records[v.Payload]
	if !ok {
		return nil, panicf("invalid %s handle %d", expected, v.Payload)
	}
	return rec, nil
}

// NewString boxes a string. Strings are interned static data, not owned
// allocations: they never count against Live and Free ignores them.
func (h *Heap) NewString(s string) Value {
	if id, ok := h.interns[s]; ok {
		return Value{Tag: TagString, Payload: id}
	}
	id := h.handle()
	h.strs[id] = s
	h.interns[s] = id
	return Value{Tag: TagString, Payload: id}
}

// AsString resolves a String-tagged value.
func (h *Heap) AsString(v Value) (string, *Panic) {
	if p := CheckTag(v, TagString); p != nil {
		return "", p
	}
	s, ok := h.strs[v.Payload]
	if !ok {
		return "", panicf("invalid string handle %d", v.Payload)
	}
	return s, nil
}

// Free releases the heap object behind v, recursively releasing every
// contained value whose tag is a heap reference. Values that are not heap
// references are ignored, so it is always safe to call on any value.
func (h *Heap) Free(v Value) *Panic {
	switch v.Tag {
	case TagList:
		obj, ok := h.lists[v.Payload]
		if !ok {
			return panicf("free of invalid list handle %d", v.Payload)
		}
		for i := 0; i < obj.length; i++ {
			if obj.buf[i].Tag.IsHeapRef() {
				if p := h.Free(obj.buf[i]); p != nil {
					return p
				}
			}
		}
		delete(h.lists, v.Payload)
		h.live--
	case TagStruct, TagTuple, TagEnum:
		rec, ok := h.records[v.Payload]
		if !ok {
			return panicf("free of invalid %s handle %d", v.Tag, v.Payload)
		}
		for _, f := range rec.Fields {
			if f.Tag.IsHeapRef() {
				if p := h.Free(f); p != nil {
					return p
				}
			}
		}
		delete(h.records, v.Payload)
		h.live--
	}
	return nil
}
