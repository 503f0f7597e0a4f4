package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	llvalue "github.com/llir/llvm/ir/value"

	"mica/internal/value"
)

// irValue shortens the llir value interface; internal/value keeps its
// name for the compiler's own representation.
type irValue = llvalue.Value

// valueSize is sizeof({i32, i64}) with alignment padding. The runtime
// sizes every buffer in multiples of it.
const valueSize = 16

// runtime is the emitted support library: every compiled module carries
// these definitions so the output links against nothing but libc. The
// boxed representation matches internal/value bit for bit.
type runtime struct {
	valueType  *types.StructType
	listType   *types.StructType
	recordType *types.StructType

	listPtr   *types.PointerType
	recordPtr *types.PointerType

	// libc
	printf   *ir.Func
	dprintf  *ir.Func
	snprintf *ir.Func
	malloc   *ir.Func
	libFree  *ir.Func
	memcpy   *ir.Func
	exit     *ir.Func

	tagNames *ir.Global

	panicFn  *ir.Func
	checkTag *ir.Func

	boxInt    *ir.Func
	boxFloat  *ir.Func
	boxBool   *ir.Func
	boxString *ir.Func

	asInt    *ir.Func
	asFloat  *ir.Func
	asBool   *ir.Func
	asString *ir.Func

	listNew  *ir.Func
	listHdr  *ir.Func
	listPush *ir.Func
	listGet  *ir.Func
	listLen  *ir.Func

	recordNew *ir.Func
	recordHdr *ir.Func
	recordSet *ir.Func
	recordGet *ir.Func
	enumDiscr *ir.Func

	valueFree *ir.Func
}

func i32(n int64) *constant.Int { return constant.NewInt(types.I32, n) }
func i64(n int64) *constant.Int { return constant.NewInt(types.I64, n) }

func tagConst(t value.Tag) *constant.Int { return i32(int64(t)) }

// emitRuntime declares the libc surface and defines every mica_*
// function in m.
func emitRuntime(m *ir.Module) *runtime {
	rt := &runtime{}

	rt.valueType = types.NewStruct(types.I32, types.I64)
	m.NewTypeDef("mica.value", rt.valueType)

	// list header: length, capacity, element buffer
	rt.listType = types.NewStruct(types.I64, types.I64, types.NewPointer(rt.valueType))
	m.NewTypeDef("mica.list", rt.listType)

	// record header: discriminant, field count, field buffer
	rt.recordType = types.NewStruct(types.I64, types.I64, types.NewPointer(rt.valueType))
	m.NewTypeDef("mica.record", rt.recordType)

	rt.listPtr = types.NewPointer(rt.listType)
	rt.recordPtr = types.NewPointer(rt.recordType)

	i8p := types.NewPointer(types.I8)

	rt.printf = m.NewFunc("printf", types.I32, ir.NewParam("", i8p))
	rt.printf.Sig.Variadic = true
	rt.dprintf = m.NewFunc("dprintf", types.I32, ir.NewParam("", types.I32), ir.NewParam("", i8p))
	rt.dprintf.Sig.Variadic = true
	rt.snprintf = m.NewFunc("snprintf", types.I32, ir.NewParam("", i8p), ir.NewParam("", types.I64), ir.NewParam("", i8p))
	rt.snprintf.Sig.Variadic = true
	rt.malloc = m.NewFunc("malloc", i8p, ir.NewParam("", types.I64))
	rt.libFree = m.NewFunc("free", types.Void, ir.NewParam("", i8p))
	rt.memcpy = m.NewFunc("memcpy", i8p, ir.NewParam("", i8p), ir.NewParam("", i8p), ir.NewParam("", types.I64))
	rt.exit = m.NewFunc("exit", types.Void, ir.NewParam("", types.I32))

	rt.emitTagNames(m)
	rt.emitPanic(m)
	rt.emitCheckTag(m)
	rt.emitBoxers(m)
	rt.emitUnboxers(m)
	rt.emitList(m)
	rt.emitRecord(m)
	rt.emitValueFree(m)

	return rt
}

// cstr defines a NUL-terminated private string global.
func cstr(m *ir.Module, name, s string) *ir.Global {
	g := m.NewGlobalDef(name, constant.NewCharArrayFromString(s + "\x00"))
	g.Linkage = enum.LinkagePrivate
	g.Immutable = true
	return g
}

// strGEP takes the i8* to a string global's first byte.
func strGEP(g *ir.Global) constant.Constant {
	elem := g.Type().(*types.PointerType).ElemType
	return constant.NewGetElementPtr(elem, g, i32(0), i32(0))
}

func (rt *runtime) emitTagNames(m *ir.Module) {
	names := []string{
		"Integer", "Float", "Boolean", "String", "List",
		"Struct", "Tuple", "Enum", "Null",
	}
	i8p := types.NewPointer(types.I8)
	elems := make([]constant.Constant, len(names))
	for i, n := range names {
		g := cstr(m, "mica.tag."+n, n)
		elems[i] = strGEP(g)
	}
	arr := constant.NewArray(types.NewArray(uint64(len(names)), i8p), elems...)
	rt.tagNames = m.NewGlobalDef("mica.tag_names", arr)
	rt.tagNames.Linkage = enum.LinkagePrivate
	rt.tagNames.Immutable = true
}

// loadTagName indexes mica.tag_names with a runtime i32 tag.
func (rt *runtime) loadTagName(bb *ir.Block, tag irValue) irValue {
	arrTy := rt.tagNames.Type().(*types.PointerType).ElemType
	slot := bb.NewGetElementPtr(arrTy, rt.tagNames, i32(0), tag)
	return bb.NewLoad(types.NewPointer(types.I8), slot)
}

// emitPanic defines the single fatal exit of every compiled program.
// The message goes to stderr, the channel interpreted programs use, and
// the process never returns from here.
func (rt *runtime) emitPanic(m *ir.Module) {
	msg := ir.NewParam("msg", types.NewPointer(types.I8))
	rt.panicFn = m.NewFunc("mica_panic", types.Void, msg)
	bb := rt.panicFn.NewBlock("entry")
	fmtG := cstr(m, "mica.fmt.panic", "runtime panic: %s\n")
	bb.NewCall(rt.dprintf, i32(2), strGEP(fmtG), msg)
	bb.NewCall(rt.exit, i32(1))
	bb.NewUnreachable()
}

// panicf formats a failure message into a stack buffer and hands it to
// mica_panic. Every runtime failure path terminates through here.
func (rt *runtime) panicf(bb *ir.Block, format *ir.Global, args ...irValue) {
	buf := bb.NewAlloca(types.NewArray(128, types.I8))
	ptr := bb.NewGetElementPtr(buf.ElemType, buf, i32(0), i32(0))
	callArgs := append([]irValue{ptr, i64(128), strGEP(format)}, args...)
	bb.NewCall(rt.snprintf, callArgs...)
	bb.NewCall(rt.panicFn, ptr)
	bb.NewUnreachable()
}

// emitCheckTag defines the unbox guard. Every marshaling site routes
// through it before touching a payload; on mismatch the process dies
// naming both tags.
func (rt *runtime) emitCheckTag(m *ir.Module) {
	v := ir.NewParam("v", rt.valueType)
	expected := ir.NewParam("expected", types.I32)
	rt.checkTag = m.NewFunc("mica_check_tag", types.Void, v, expected)

	entry := rt.checkTag.NewBlock("entry")
	okBB := rt.checkTag.NewBlock("ok")
	failBB := rt.checkTag.NewBlock("fail")

	tag := entry.NewExtractValue(v, 0)
	same := entry.NewICmp(enum.IPredEQ, tag, expected)
	entry.NewCondBr(same, okBB, failBB)

	okBB.NewRet(nil)

	fmtG := cstr(m, "mica.fmt.tag_mismatch",
		"type tag mismatch: expected %s, found %s")
	want := rt.loadTagName(failBB, expected)
	got := rt.loadTagName(failBB, tag)
	rt.panicf(failBB, fmtG, want, got)
}

// pack builds a value struct from a tag constant and an i64 payload.
func (rt *runtime) pack(bb *ir.Block, tag *constant.Int, payload irValue) irValue {
	withTag := bb.NewInsertValue(constant.NewUndef(rt.valueType), tag, 0)
	return bb.NewInsertValue(withTag, payload, 1)
}

func (rt *runtime) emitBoxers(m *ir.Module) {
	{
		n := ir.NewParam("n", types.I64)
		rt.boxInt = m.NewFunc("mica_int", rt.valueType, n)
		bb := rt.boxInt.NewBlock("entry")
		bb.NewRet(rt.pack(bb, tagConst(value.TagInt), n))
	}
	{
		// Floats cross by bit reinterpretation, never conversion.
		f := ir.NewParam("f", types.Double)
		rt.boxFloat = m.NewFunc("mica_float", rt.valueType, f)
		bb := rt.boxFloat.NewBlock("entry")
		bits := bb.NewBitCast(f, types.I64)
		bb.NewRet(rt.pack(bb, tagConst(value.TagFloat), bits))
	}
	{
		b := ir.NewParam("b", types.I1)
		rt.boxBool = m.NewFunc("mica_bool", rt.valueType, b)
		bb := rt.boxBool.NewBlock("entry")
		wide := bb.NewZExt(b, types.I64)
		bb.NewRet(rt.pack(bb, tagConst(value.TagBool), wide))
	}
	{
		s := ir.NewParam("s", types.NewPointer(types.I8))
		rt.boxString = m.NewFunc("mica_string", rt.valueType, s)
		bb := rt.boxString.NewBlock("entry")
		addr := bb.NewPtrToInt(s, types.I64)
		bb.NewRet(rt.pack(bb, tagConst(value.TagString), addr))
	}
}

func (rt *runtime) emitUnboxers(m *ir.Module) {
	{
		v := ir.NewParam("v", rt.valueType)
		rt.asInt = m.NewFunc("mica_as_int", types.I64, v)
		bb := rt.asInt.NewBlock("entry")
		bb.NewCall(rt.checkTag, v, tagConst(value.TagInt))
		bb.NewRet(bb.NewExtractValue(v, 1))
	}
	{
		v := ir.NewParam("v", rt.valueType)
		rt.asFloat = m.NewFunc("mica_as_float", types.Double, v)
		bb := rt.asFloat.NewBlock("entry")
		bb.NewCall(rt.checkTag, v, tagConst(value.TagFloat))
		bits := bb.NewExtractValue(v, 1)
		bb.NewRet(bb.NewBitCast(bits, types.Double))
	}
	{
		v := ir.NewParam("v", rt.valueType)
		rt.asBool = m.NewFunc("mica_as_bool", types.I1, v)
		bb := rt.asBool.NewBlock("entry")
		bb.NewCall(rt.checkTag, v, tagConst(value.TagBool))
		payload := bb.NewExtractValue(v, 1)
		bb.NewRet(bb.NewICmp(enum.IPredNE, payload, i64(0)))
	}
	{
		v := ir.NewParam("v", rt.valueType)
		rt.asString = m.NewFunc("mica_as_string", types.NewPointer(types.I8), v)
		bb := rt.asString.NewBlock("entry")
		bb.NewCall(rt.checkTag, v, tagConst(value.TagString))
		payload := bb.NewExtractValue(v, 1)
		bb.NewRet(bb.NewIntToPtr(payload, types.NewPointer(types.I8)))
	}
}

const initialListCapacity = 4

func (rt *runtime) emitList(m *ir.Module) {
	i8p := types.NewPointer(types.I8)
	valPtr := types.NewPointer(rt.valueType)

	// mica_list_hdr: payload handle back to the header pointer.
	{
		v := ir.NewParam("v", rt.valueType)
		rt.listHdr = m.NewFunc("mica_list_hdr", rt.listPtr, v)
		bb := rt.listHdr.NewBlock("entry")
		bb.NewCall(rt.checkTag, v, tagConst(value.TagList))
		payload := bb.NewExtractValue(v, 1)
		bb.NewRet(bb.NewIntToPtr(payload, rt.listPtr))
	}

	// mica_list_new: empty list with the initial capacity.
	{
		rt.listNew = m.NewFunc("mica_list_new", rt.valueType)
		bb := rt.listNew.NewBlock("entry")
		raw := bb.NewCall(rt.malloc, i64(3*8))
		hdr := bb.NewBitCast(raw, rt.listPtr)
		bufRaw := bb.NewCall(rt.malloc, i64(initialListCapacity*valueSize))
		buf := bb.NewBitCast(bufRaw, valPtr)
		bb.NewStore(i64(0), bb.NewGetElementPtr(rt.listType, hdr, i32(0), i32(0)))
		bb.NewStore(i64(initialListCapacity), bb.NewGetElementPtr(rt.listType, hdr, i32(0), i32(1)))
		bb.NewStore(buf, bb.NewGetElementPtr(rt.listType, hdr, i32(0), i32(2)))
		handle := bb.NewPtrToInt(hdr, types.I64)
		bb.NewRet(rt.pack(bb, tagConst(value.TagList), handle))
	}

	// mica_list_push: append, doubling the buffer when full. Growth is
	// allocate, copy in order, release the old buffer, then store.
	{
		v := ir.NewParam("v", rt.valueType)
		e := ir.NewParam("e", rt.valueType)
		rt.listPush = m.NewFunc("mica_list_push", types.Void, v, e)
		entry := rt.listPush.NewBlock("entry")
		growBB := rt.listPush.NewBlock("grow")
		storeBB := rt.listPush.NewBlock("store")

		hdr := entry.NewCall(rt.listHdr, v)
		lenPtr := entry.NewGetElementPtr(rt.listType, hdr, i32(0), i32(0))
		capPtr := entry.NewGetElementPtr(rt.listType, hdr, i32(0), i32(1))
		dataPtr := entry.NewGetElementPtr(rt.listType, hdr, i32(0), i32(2))
		length := entry.NewLoad(types.I64, lenPtr)
		capacity := entry.NewLoad(types.I64, capPtr)
		full := entry.NewICmp(enum.IPredEQ, length, capacity)
		entry.NewCondBr(full, growBB, storeBB)

		newCap := growBB.NewMul(capacity, i64(2))
		newBytes := growBB.NewMul(newCap, i64(valueSize))
		newRaw := growBB.NewCall(rt.malloc, newBytes)
		newBuf := growBB.NewBitCast(newRaw, valPtr)
		oldBuf := growBB.NewLoad(valPtr, dataPtr)
		oldRaw := growBB.NewBitCast(oldBuf, i8p)
		liveBytes := growBB.NewMul(length, i64(valueSize))
		growBB.NewCall(rt.memcpy, newRaw, oldRaw, liveBytes)
		growBB.NewCall(rt.libFree, oldRaw)
		growBB.NewStore(newBuf, dataPtr)
		growBB.NewStore(newCap, capPtr)
		growBB.NewBr(storeBB)

		buf := storeBB.NewLoad(valPtr, dataPtr)
		slot := storeBB.NewGetElementPtr(rt.valueType, buf, length)
		storeBB.NewStore(e, slot)
		storeBB.NewStore(storeBB.NewAdd(length, i64(1)), lenPtr)
		storeBB.NewRet(nil)
	}

	// mica_list_get: bounds-checked read. Out of range dies through the
	// same channel as a tag mismatch.
	{
		v := ir.NewParam("v", rt.valueType)
		idx := ir.NewParam("idx", types.I64)
		rt.listGet = m.NewFunc("mica_list_get", rt.valueType, v, idx)
		entry := rt.listGet.NewBlock("entry")
		okBB := rt.listGet.NewBlock("ok")
		failBB := rt.listGet.NewBlock("fail")

		hdr := entry.NewCall(rt.listHdr, v)
		length := entry.NewLoad(types.I64, entry.NewGetElementPtr(rt.listType, hdr, i32(0), i32(0)))
		nonNeg := entry.NewICmp(enum.IPredSGE, idx, i64(0))
		below := entry.NewICmp(enum.IPredSLT, idx, length)
		entry.NewCondBr(entry.NewAnd(nonNeg, below), okBB, failBB)

		buf := okBB.NewLoad(valPtr, okBB.NewGetElementPtr(rt.listType, hdr, i32(0), i32(2)))
		slot := okBB.NewGetElementPtr(rt.valueType, buf, idx)
		okBB.NewRet(okBB.NewLoad(rt.valueType, slot))

		fmtG := cstr(m, "mica.fmt.oob",
			"list index out of bounds: index %lld, length %lld")
		rt.panicf(failBB, fmtG, idx, length)
	}

	// mica_list_len
	{
		v := ir.NewParam("v", rt.valueType)
		rt.listLen = m.NewFunc("mica_list_len", types.I64, v)
		bb := rt.listLen.NewBlock("entry")
		hdr := bb.NewCall(rt.listHdr, v)
		bb.NewRet(bb.NewLoad(types.I64, bb.NewGetElementPtr(rt.listType, hdr, i32(0), i32(0))))
	}
}

func (rt *runtime) emitRecord(m *ir.Module) {
	valPtr := types.NewPointer(rt.valueType)

	// mica_record_new: struct, tuple and enum share one layout; the tag
	// parameter picks which kind the returned value carries.
	{
		tag := ir.NewParam("tag", types.I32)
		discr := ir.NewParam("discr", types.I64)
		n := ir.NewParam("n", types.I64)
		rt.recordNew = m.NewFunc("mica_record_new", rt.valueType, tag, discr, n)
		bb := rt.recordNew.NewBlock("entry")
		raw := bb.NewCall(rt.malloc, i64(3*8))
		hdr := bb.NewBitCast(raw, rt.recordPtr)
		bytes := bb.NewMul(n, i64(valueSize))
		fieldsRaw := bb.NewCall(rt.malloc, bytes)
		fields := bb.NewBitCast(fieldsRaw, valPtr)
		bb.NewStore(discr, bb.NewGetElementPtr(rt.recordType, hdr, i32(0), i32(0)))
		bb.NewStore(n, bb.NewGetElementPtr(rt.recordType, hdr, i32(0), i32(1)))
		bb.NewStore(fields, bb.NewGetElementPtr(rt.recordType, hdr, i32(0), i32(2)))
		handle := bb.NewPtrToInt(hdr, types.I64)
		withTag := bb.NewInsertValue(constant.NewUndef(rt.valueType), tag, 0)
		bb.NewRet(bb.NewInsertValue(withTag, handle, 1))
	}

	// mica_record_hdr: checked payload-to-header conversion.
	{
		v := ir.NewParam("v", rt.valueType)
		expected := ir.NewParam("expected", types.I32)
		rt.recordHdr = m.NewFunc("mica_record_hdr", rt.recordPtr, v, expected)
		bb := rt.recordHdr.NewBlock("entry")
		bb.NewCall(rt.checkTag, v, expected)
		payload := bb.NewExtractValue(v, 1)
		bb.NewRet(bb.NewIntToPtr(payload, rt.recordPtr))
	}

	// mica_record_set: unchecked field store, used only while the record
	// is being built.
	{
		v := ir.NewParam("v", rt.valueType)
		idx := ir.NewParam("idx", types.I64)
		f := ir.NewParam("f", rt.valueType)
		rt.recordSet = m.NewFunc("mica_record_set", types.Void, v, idx, f)
		bb := rt.recordSet.NewBlock("entry")
		payload := bb.NewExtractValue(v, 1)
		hdr := bb.NewIntToPtr(payload, rt.recordPtr)
		fields := bb.NewLoad(valPtr, bb.NewGetElementPtr(rt.recordType, hdr, i32(0), i32(2)))
		slot := bb.NewGetElementPtr(rt.valueType, fields, idx)
		bb.NewStore(f, slot)
		bb.NewRet(nil)
	}

	// mica_record_get: tag-checked field read.
	{
		v := ir.NewParam("v", rt.valueType)
		expected := ir.NewParam("expected", types.I32)
		idx := ir.NewParam("idx", types.I64)
		rt.recordGet = m.NewFunc("mica_record_get", rt.valueType, v, expected, idx)
		bb := rt.recordGet.NewBlock("entry")
		hdr := bb.NewCall(rt.recordHdr, v, expected)
		fields := bb.NewLoad(valPtr, bb.NewGetElementPtr(rt.recordType, hdr, i32(0), i32(2)))
		slot := bb.NewGetElementPtr(rt.valueType, fields, idx)
		bb.NewRet(bb.NewLoad(rt.valueType, slot))
	}

	// mica_enum_discr
	{
		v := ir.NewParam("v", rt.valueType)
		rt.enumDiscr = m.NewFunc("mica_enum_discr", types.I64, v)
		bb := rt.enumDiscr.NewBlock("entry")
		hdr := bb.NewCall(rt.recordHdr, v, tagConst(value.TagEnum))
		bb.NewRet(bb.NewLoad(types.I64, bb.NewGetElementPtr(rt.recordType, hdr, i32(0), i32(0))))
	}
}

// emitValueFree defines the recursive destructor. Scalars and strings
// pass through untouched; lists and records release their contents
// before their own buffers.
func (rt *runtime) emitValueFree(m *ir.Module) {
	i8p := types.NewPointer(types.I8)
	valPtr := types.NewPointer(rt.valueType)

	v := ir.NewParam("v", rt.valueType)
	rt.valueFree = m.NewFunc("mica_value_free", types.Void, v)
	f := rt.valueFree

	entry := f.NewBlock("entry")
	doneBB := f.NewBlock("done")
	listBB := f.NewBlock("list")
	recBB := f.NewBlock("record")

	tag := entry.NewExtractValue(v, 0)
	payload := entry.NewExtractValue(v, 1)
	entry.NewSwitch(tag, doneBB,
		ir.NewCase(tagConst(value.TagList), listBB),
		ir.NewCase(tagConst(value.TagStruct), recBB),
		ir.NewCase(tagConst(value.TagTuple), recBB),
		ir.NewCase(tagConst(value.TagEnum), recBB),
	)

	doneBB.NewRet(nil)

	// list: free each element, then the buffer, then the header
	{
		condBB := f.NewBlock("list.cond")
		bodyBB := f.NewBlock("list.body")
		afterBB := f.NewBlock("list.after")

		hdr := listBB.NewIntToPtr(payload, rt.listPtr)
		length := listBB.NewLoad(types.I64, listBB.NewGetElementPtr(rt.listType, hdr, i32(0), i32(0)))
		buf := listBB.NewLoad(valPtr, listBB.NewGetElementPtr(rt.listType, hdr, i32(0), i32(2)))
		listBB.NewBr(condBB)

		i := condBB.NewPhi(ir.NewIncoming(i64(0), listBB))
		more := condBB.NewICmp(enum.IPredSLT, i, length)
		condBB.NewCondBr(more, bodyBB, afterBB)

		slot := bodyBB.NewGetElementPtr(rt.valueType, buf, i)
		elem := bodyBB.NewLoad(rt.valueType, slot)
		bodyBB.NewCall(f, elem)
		next := bodyBB.NewAdd(i, i64(1))
		bodyBB.NewBr(condBB)
		i.Incs = append(i.Incs, ir.NewIncoming(next, bodyBB))

		afterBB.NewCall(rt.libFree, afterBB.NewBitCast(buf, i8p))
		afterBB.NewCall(rt.libFree, afterBB.NewBitCast(hdr, i8p))
		afterBB.NewRet(nil)
	}

	// record: same shape over the field buffer
	{
		condBB := f.NewBlock("record.cond")
		bodyBB := f.NewBlock("record.body")
		afterBB := f.NewBlock("record.after")

		hdr := recBB.NewIntToPtr(payload, rt.recordPtr)
		n := recBB.NewLoad(types.I64, recBB.NewGetElementPtr(rt.recordType, hdr, i32(0), i32(1)))
		fields := recBB.NewLoad(valPtr, recBB.NewGetElementPtr(rt.recordType, hdr, i32(0), i32(2)))
		recBB.NewBr(condBB)

		i := condBB.NewPhi(ir.NewIncoming(i64(0), recBB))
		more := condBB.NewICmp(enum.IPredSLT, i, n)
		condBB.NewCondBr(more, bodyBB, afterBB)

		slot := bodyBB.NewGetElementPtr(rt.valueType, fields, i)
		field := bodyBB.NewLoad(rt.valueType, slot)
		bodyBB.NewCall(f, field)
		next := bodyBB.NewAdd(i, i64(1))
		bodyBB.NewBr(condBB)
		i.Incs = append(i.Incs, ir.NewIncoming(next, bodyBB))

		afterBB.NewCall(rt.libFree, afterBB.NewBitCast(fields, i8p))
		afterBB.NewCall(rt.libFree, afterBB.NewBitCast(hdr, i8p))
		afterBB.NewRet(nil)
	}
}
