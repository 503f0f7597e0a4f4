// Package value defines the tagged runtime value representation shared by
// the interpreter and the native backend. The tag numbering and the
// 4-byte-tag/8-byte-payload layout are ABI: generated code and the emitted
// runtime library both depend on them, so they must never be renumbered
// independently.
//
// All bit-level reinterpretation in the compiler lives here; no other
// package converts between native values and payload bits.
package value

import (
	"fmt"
	"math"

	"mica/internal/types"
)

// Tag is the discriminant of a tagged value. The set is closed: adding a
// boxable type means adding a tag here and teaching TagFor about it.
type Tag uint32

const (
	TagInt    Tag = 0
	TagFloat  Tag = 1
	TagBool   Tag = 2
	TagString Tag = 3
	TagList   Tag = 4
	TagStruct Tag = 5
	TagTuple  Tag = 6
	TagEnum   Tag = 7
	TagNull   Tag = 8
)

var tagNames = [...]string{
	TagInt:    "Integer",
	TagFloat:  "Float",
	TagBool:   "Boolean",
	TagString: "String",
	TagList:   "List",
	TagStruct: "Struct",
	TagTuple:  "Tuple",
	TagEnum:   "Enum",
	TagNull:   "Null",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("Tag(%d)", uint32(t))
}

// IsHeapRef reports whether the payload under this tag references a heap
// object that a free operation must release. String is deliberately
// excluded: string payloads reference static program data (interned here,
// module globals in compiled code).
func (t Tag) IsHeapRef() bool {
	switch t {
	case TagList, TagStruct, TagTuple, TagEnum:
		return true
	default:
		return false
	}
}

// TagFor is the fixed static-type-to-tag table used by both marshaling
// directions. Every type the checker can produce has exactly one tag.
func TagFor(t types.Type) Tag {
	switch ty := t.(type) {
	case types.Basic:
		switch ty {
		case types.Int:
			return TagInt
		case types.Float:
			return TagFloat
		case types.Bool:
			return TagBool
		case types.String:
			return TagString
		case types.Null:
			return TagNull
		}
	case types.List:
		return TagList
	case types.Struct:
		return TagStruct
	case types.Tuple:
		return TagTuple
	case types.Enum:
		return TagEnum
	}
	panic(fmt.Sprintf("no tag for type %v", t))
}

// Value is the uniform tagged encoding: a discriminant plus an 8-byte
// payload slot. Scalars live directly in the payload (floats as their raw
// bit pattern); heap kinds store a handle issued by a Heap.
type Value struct {
	Tag     Tag
	Payload uint64
}

// Panic is the single runtime failure channel. Tag mismatches and bounds
// violations both surface as a *Panic; there is no recovery path, the
// caller terminates the program (or the interpreter unwinds to the driver).
type Panic struct {
	Message string
}

func (p *Panic) Error() string { return "runtime panic: " + p.Message }

func panicf(format string, args ...interface{}) *Panic {
	return &Panic{Message: fmt.Sprintf(format, args...)}
}

// tagMismatch builds the diagnostic for an unbox failure, naming both
// sides so the message pinpoints the boxing site's type as well.
func tagMismatch(expected, actual Tag) *Panic {
	return panicf("type tag mismatch: expected %s, found %s", expected, actual)
}

// NewInt boxes a native integer.
func NewInt(n int64) Value { return Value{Tag: TagInt, Payload: uint64(n)} }

// NewFloat boxes a native float by bit reinterpretation, never numeric
// conversion, so NaN payloads and signed zero survive the round trip.
func NewFloat(f float64) Value { return Value{Tag: TagFloat, Payload: math.Float64bits(f)} }

// NewBool boxes a native boolean.
func NewBool(b bool) Value {
	if b {
		return Value{Tag: TagBool, Payload: 1}
	}
	return Value{Tag: TagBool, Payload: 0}
}

// NewNull is the boxed null value.
func NewNull() Value { return Value{Tag: TagNull} }

// AsInt unboxes an integer. The tag is checked before any
// reinterpretation; on mismatch nothing is extracted.
func AsInt(v Value) (int64, *Panic) {
	if v.Tag != TagInt {
		return 0, tagMismatch(TagInt, v.Tag)
	}
	return int64(v.Payload), nil
}

// AsFloat unboxes a float via the inverse bit reinterpretation.
func AsFloat(v Value) (float64, *Panic) {
	if v.Tag != TagFloat {
		return 0, tagMismatch(TagFloat, v.Tag)
	}
	return math.Float64frombits(v.Payload), nil
}

// AsBool unboxes a boolean.
func AsBool(v Value) (bool, *Panic) {
	if v.Tag != TagBool {
		return false, tagMismatch(TagBool, v.Tag)
	}
	return v.Payload != 0, nil
}

// AsNull checks that v is the null value.
func AsNull(v Value) *Panic {
	if v.Tag != TagNull {
		return tagMismatch(TagNull, v.Tag)
	}
	return nil
}

// CheckTag verifies that v carries the tag implied by the expected static
// type. Heap kinds use this before handing the payload to the Heap.
func CheckTag(v Value, expected Tag) *Panic {
	if v.Tag != expected {
		return tagMismatch(expected, v.Tag)
	}
	return nil
}
