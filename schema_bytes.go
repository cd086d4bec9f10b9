package noproto

import (
	"encoding/binary"
	"math"
)

// ToBytes emits a CompiledSchema's compact binary form, per spec.md §4.2's
// "Bytes out": a string section (a verbatim copy of Source, so every span
// already addresses it correctly), the unique_id, and one record per
// ParsedSchema node. Grounded on
// original_source/no_proto_rs/src/schema/mod.rs's NP_Schema::to_bytes.
func (cs *CompiledSchema) ToBytes() ([]byte, error) {
	if len(cs.Source) > 0xFFFF {
		return nil, newErr(ErrOutOfBounds, "schema source exceeds the 16-bit string section length")
	}
	if len(cs.Schemas) > 0xFFFF {
		return nil, newErr(ErrOutOfBounds, "schema has more than 65535 nodes")
	}

	w := &byteWriter{}
	w.u16(uint16(len(cs.Source)))
	w.bytes(cs.Source)
	w.u32(cs.UniqueID)
	w.u16(uint16(len(cs.Schemas)))
	for i := range cs.Schemas {
		if err := writeSchemaRecord(w, &cs.Schemas[i]); err != nil {
			return nil, err
		}
	}
	return w.buf, nil
}

// SchemaFromBytes is the inverse of ToBytes: it reconstructs a CompiledSchema
// whose Source is the embedded string section, so every decoded Span
// resolves exactly as it did before encoding.
func SchemaFromBytes(data []byte) (*CompiledSchema, error) {
	r := &byteReader{buf: data}
	strLen, err := r.u16()
	if err != nil {
		return nil, err
	}
	source, err := r.take(int(strLen))
	if err != nil {
		return nil, err
	}
	uniqueID, err := r.u32()
	if err != nil {
		return nil, err
	}
	count, err := r.u16()
	if err != nil {
		return nil, err
	}

	cs := &CompiledSchema{
		Source:    append([]byte(nil), source...),
		Schemas:   make([]ParsedSchema, count),
		NameIndex: NewOMap[SchemaIndex](),
	}
	for i := 0; i < int(count); i++ {
		node, err := readSchemaRecord(r)
		if err != nil {
			return nil, err
		}
		cs.Schemas[i] = node
	}

	for addr := range cs.Schemas {
		s := &cs.Schemas[addr]
		if s.Kind == KindImpl {
			continue
		}
		if s.HasName {
			idx := SchemaIndex{DataAddr: addr}
			name := s.Name.Text(cs.Source)
			cs.NameIndex.Set(name, idx)
			if s.HasID {
				id := int(s.ID)
				for len(cs.IDIndex) <= id {
					cs.IDIndex = append(cs.IDIndex, SchemaIndex{})
				}
				cs.IDIndex[id] = idx
			}
		}
	}
	for addr := range cs.Schemas {
		s := &cs.Schemas[addr]
		if s.Kind != KindImpl {
			continue
		}
		if target, ok := cs.NameIndex.Get(cs.Name(s.TargetAddr)); ok {
			target.HasMethods = true
			target.MethodsAddr = addr
			cs.NameIndex.Set(cs.Name(s.TargetAddr), target)
			if int(cs.Schemas[s.TargetAddr].ID) < len(cs.IDIndex) {
				cs.IDIndex[cs.Schemas[s.TargetAddr].ID] = target
			}
		}
	}
	cs.UniqueID = uniqueID
	return cs, nil
}

// isBareAtomicRecord reports whether s can use the single-byte simple-
// primitive encoding (spec.md §4.2's encoding (a)): an atomic primitive
// with no name, id, args, or generics.
func isBareAtomicRecord(s *ParsedSchema) bool {
	return isAtomicPrimitive(s.Kind) &&
		!s.HasName && !s.HasID &&
		s.Args.Kind == ArgNull &&
		s.Generics.Kind == GenericsStateNone
}

// writeSchemaRecord picks between the compact simple-primitive encoding and
// the full record. The middle "two-byte, generics only" tier spec.md §4.2
// describes is folded into the full-record path here: it buys one byte per
// node in exchange for a second record shape the decoder must special-case,
// and our own round-trip is the only reader of this format.
func writeSchemaRecord(w *byteWriter, s *ParsedSchema) error {
	if isBareAtomicRecord(s) {
		tag, ok := bufferByteTag[s.Kind]
		if ok && tag < 0xFE {
			w.u8(tag + 1)
			return nil
		}
	}

	w.u8(0)
	w.u8(byte(s.Kind))
	writeGenerics(w, s.Generics)
	writeOptSpan(w, s.HasName, s.Name)
	w.boolByte(s.HasID)
	if s.HasID {
		w.u16(s.ID)
	}
	writeArgTree(w, s.Args)
	w.u32(s.Offset)
	w.u32(s.Size)

	switch s.Kind {
	case KindString, KindChar:
		writeOptSpan(w, s.HasDefaultStr, s.DefaultStr)
		w.u8(byte(s.Casing))
		w.boolByte(s.HasMaxLen)
		if s.HasMaxLen {
			w.u32(s.MaxLen)
		}
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint8, KindUint16, KindUint32, KindUint64:
		w.boolByte(s.HasDefaultInt)
		if s.HasDefaultInt {
			w.i64(s.DefaultInt)
		}
		w.boolByte(s.HasMin)
		if s.HasMin {
			w.i64(s.Min)
		}
		w.boolByte(s.HasMax)
		if s.HasMax {
			w.i64(s.Max)
		}
	case KindFloat32, KindFloat64, KindExp32, KindExp64:
		w.boolByte(s.HasDefaultFloat)
		if s.HasDefaultFloat {
			w.f64(s.DefaultFloat)
		}
		w.boolByte(s.HasMinFloat)
		if s.HasMinFloat {
			w.f64(s.MinFloat)
		}
		w.boolByte(s.HasMaxFloat)
		if s.HasMaxFloat {
			w.f64(s.MaxFloat)
		}
		w.u8(s.Exp)
	case KindBool:
		w.boolByte(s.HasDefaultBool)
		if s.HasDefaultBool {
			w.boolByte(s.DefaultBool)
		}
	case KindVec, KindList, KindMap, KindBox, KindOption:
		w.boolByte(s.HasOf)
		if s.HasOf {
			w.u32(uint32(s.Of))
		}
		w.boolByte(s.HasMaxLen)
		if s.HasMaxLen {
			w.u32(s.MaxLen)
		}
	case KindGeneric:
		w.u32(uint32(s.TargetAddr))
		w.u16(uint16(s.GenericIdx))
	case KindArray, KindSmallArray:
		w.boolByte(s.HasOf)
		if s.HasOf {
			w.u32(uint32(s.Of))
		}
		w.u32(s.ArrayLen)
	case KindResult:
		w.u32(uint32(s.Ok))
		w.u32(uint32(s.Err))
	case KindTuple:
		w.u16(uint16(len(s.Children)))
		for _, c := range s.Children {
			w.u32(uint32(c))
		}
	case KindStruct, KindImpl:
		if s.Kind == KindImpl {
			w.u32(uint32(s.TargetAddr))
		}
		w.u16(uint16(len(s.Children)))
		for i, c := range s.Children {
			w.u32(uint32(c))
			w.str(s.ChildrenName[i])
		}
	case KindEnum, KindSimpleEnum:
		w.u16(uint16(len(s.Children)))
		for i, c := range s.Children {
			w.u32(uint32(c))
			w.str(s.ChildrenName[i])
		}
		w.boolByte(s.HasDefaultIdx)
		if s.HasDefaultIdx {
			w.u16(uint16(s.DefaultIdx))
		}
	case KindCustom, KindSmallCustom, KindRpcRequest, KindRpcResponse:
		w.u32(uint32(s.TargetAddr))
		w.u16(uint16(len(s.GenericArgs)))
		for _, a := range s.GenericArgs {
			w.u32(uint32(a))
		}
	case KindThis:
		w.u32(uint32(s.TargetAddr))
	case KindMethod:
		w.u32(uint32(s.MethodReturns))
		w.u16(uint16(len(s.MethodArgs)))
		for _, a := range s.MethodArgs {
			w.u32(uint32(a))
		}
	}
	return nil
}

func readSchemaRecord(r *byteReader) (ParsedSchema, error) {
	marker, err := r.u8()
	if err != nil {
		return ParsedSchema{}, err
	}
	if marker != 0 {
		kind, ok := bufferByteTagRev[marker-1]
		if !ok {
			return ParsedSchema{}, newErr(ErrUnknownType, "unrecognized simple-primitive schema tag")
		}
		return ParsedSchema{Kind: kind}, nil
	}

	var s ParsedSchema
	kindByte, err := r.u8()
	if err != nil {
		return s, err
	}
	s.Kind = TypeKind(kindByte)
	if s.Generics, err = readGenerics(r); err != nil {
		return s, err
	}
	if s.HasName, s.Name, err = readOptSpan(r); err != nil {
		return s, err
	}
	if s.HasID, err = r.boolByte(); err != nil {
		return s, err
	}
	if s.HasID {
		if s.ID, err = r.u16(); err != nil {
			return s, err
		}
	}
	if s.Args, err = readArgTree(r); err != nil {
		return s, err
	}
	if s.Offset, err = r.u32(); err != nil {
		return s, err
	}
	if s.Size, err = r.u32(); err != nil {
		return s, err
	}

	switch s.Kind {
	case KindString, KindChar:
		if s.HasDefaultStr, s.DefaultStr, err = readOptSpan(r); err != nil {
			return s, err
		}
		c, err := r.u8()
		if err != nil {
			return s, err
		}
		s.Casing = Casing(c)
		if s.HasMaxLen, err = r.boolByte(); err != nil {
			return s, err
		}
		if s.HasMaxLen {
			if s.MaxLen, err = r.u32(); err != nil {
				return s, err
			}
		}
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint8, KindUint16, KindUint32, KindUint64:
		if s.HasDefaultInt, err = r.boolByte(); err != nil {
			return s, err
		}
		if s.HasDefaultInt {
			if s.DefaultInt, err = r.i64(); err != nil {
				return s, err
			}
		}
		if s.HasMin, err = r.boolByte(); err != nil {
			return s, err
		}
		if s.HasMin {
			if s.Min, err = r.i64(); err != nil {
				return s, err
			}
		}
		if s.HasMax, err = r.boolByte(); err != nil {
			return s, err
		}
		if s.HasMax {
			if s.Max, err = r.i64(); err != nil {
				return s, err
			}
		}
	case KindFloat32, KindFloat64, KindExp32, KindExp64:
		if s.HasDefaultFloat, err = r.boolByte(); err != nil {
			return s, err
		}
		if s.HasDefaultFloat {
			if s.DefaultFloat, err = r.f64(); err != nil {
				return s, err
			}
		}
		if s.HasMinFloat, err = r.boolByte(); err != nil {
			return s, err
		}
		if s.HasMinFloat {
			if s.MinFloat, err = r.f64(); err != nil {
				return s, err
			}
		}
		if s.HasMaxFloat, err = r.boolByte(); err != nil {
			return s, err
		}
		if s.HasMaxFloat {
			if s.MaxFloat, err = r.f64(); err != nil {
				return s, err
			}
		}
		if s.Exp, err = r.u8(); err != nil {
			return s, err
		}
	case KindBool:
		if s.HasDefaultBool, err = r.boolByte(); err != nil {
			return s, err
		}
		if s.HasDefaultBool {
			if s.DefaultBool, err = r.boolByte(); err != nil {
				return s, err
			}
		}
	case KindGeneric:
		target, err := r.u32()
		if err != nil {
			return s, err
		}
		gi, err := r.u16()
		if err != nil {
			return s, err
		}
		s.TargetAddr, s.GenericIdx = int(target), int(gi)
	case KindVec, KindList, KindMap, KindBox, KindOption:
		if s.HasOf, err = r.boolByte(); err != nil {
			return s, err
		}
		if s.HasOf {
			of, err := r.u32()
			if err != nil {
				return s, err
			}
			s.Of = int(of)
		}
		if s.HasMaxLen, err = r.boolByte(); err != nil {
			return s, err
		}
		if s.HasMaxLen {
			if s.MaxLen, err = r.u32(); err != nil {
				return s, err
			}
		}
	case KindArray, KindSmallArray:
		if s.HasOf, err = r.boolByte(); err != nil {
			return s, err
		}
		if s.HasOf {
			of, err := r.u32()
			if err != nil {
				return s, err
			}
			s.Of = int(of)
		}
		if s.ArrayLen, err = r.u32(); err != nil {
			return s, err
		}
	case KindResult:
		ok, err := r.u32()
		if err != nil {
			return s, err
		}
		errAddr, err := r.u32()
		if err != nil {
			return s, err
		}
		s.Ok, s.Err = int(ok), int(errAddr)
	case KindTuple:
		n, err := r.u16()
		if err != nil {
			return s, err
		}
		for i := 0; i < int(n); i++ {
			c, err := r.u32()
			if err != nil {
				return s, err
			}
			s.Children = append(s.Children, int(c))
		}
	case KindStruct, KindImpl:
		if s.Kind == KindImpl {
			target, err := r.u32()
			if err != nil {
				return s, err
			}
			s.TargetAddr = int(target)
		}
		n, err := r.u16()
		if err != nil {
			return s, err
		}
		for i := 0; i < int(n); i++ {
			c, err := r.u32()
			if err != nil {
				return s, err
			}
			name, err := r.str()
			if err != nil {
				return s, err
			}
			s.Children = append(s.Children, int(c))
			s.ChildrenName = append(s.ChildrenName, name)
		}
	case KindEnum, KindSimpleEnum:
		n, err := r.u16()
		if err != nil {
			return s, err
		}
		for i := 0; i < int(n); i++ {
			c, err := r.u32()
			if err != nil {
				return s, err
			}
			name, err := r.str()
			if err != nil {
				return s, err
			}
			s.Children = append(s.Children, int(c))
			s.ChildrenName = append(s.ChildrenName, name)
		}
		if s.HasDefaultIdx, err = r.boolByte(); err != nil {
			return s, err
		}
		if s.HasDefaultIdx {
			idx, err := r.u16()
			if err != nil {
				return s, err
			}
			s.DefaultIdx = int(idx)
		}
	case KindCustom, KindSmallCustom, KindRpcRequest, KindRpcResponse:
		target, err := r.u32()
		if err != nil {
			return s, err
		}
		s.TargetAddr = int(target)
		n, err := r.u16()
		if err != nil {
			return s, err
		}
		for i := 0; i < int(n); i++ {
			a, err := r.u32()
			if err != nil {
				return s, err
			}
			s.GenericArgs = append(s.GenericArgs, int(a))
		}
	case KindThis:
		target, err := r.u32()
		if err != nil {
			return s, err
		}
		s.TargetAddr = int(target)
	case KindMethod:
		ret, err := r.u32()
		if err != nil {
			return s, err
		}
		s.MethodReturns = int(ret)
		n, err := r.u16()
		if err != nil {
			return s, err
		}
		for i := 0; i < int(n); i++ {
			a, err := r.u32()
			if err != nil {
				return s, err
			}
			s.MethodArgs = append(s.MethodArgs, int(a))
		}
	}
	return s, nil
}

func writeGenerics(w *byteWriter, g GenericsState) {
	w.u8(byte(g.Kind))
	switch g.Kind {
	case GenericsStateParent:
		w.u32(uint32(g.SelfAddr))
		w.u16(uint16(len(g.ParamNames)))
		for _, p := range g.ParamNames {
			w.str(p)
		}
	case GenericsStateTypes:
		w.u16(uint16(len(g.ChildAddrs)))
		for _, a := range g.ChildAddrs {
			w.u32(uint32(a))
		}
	}
}

func readGenerics(r *byteReader) (GenericsState, error) {
	var g GenericsState
	kind, err := r.u8()
	if err != nil {
		return g, err
	}
	g.Kind = GenericsKind(kind)
	switch g.Kind {
	case GenericsStateParent:
		self, err := r.u32()
		if err != nil {
			return g, err
		}
		g.SelfAddr = int(self)
		n, err := r.u16()
		if err != nil {
			return g, err
		}
		for i := 0; i < int(n); i++ {
			p, err := r.str()
			if err != nil {
				return g, err
			}
			g.ParamNames = append(g.ParamNames, p)
		}
	case GenericsStateTypes:
		n, err := r.u16()
		if err != nil {
			return g, err
		}
		for i := 0; i < int(n); i++ {
			a, err := r.u32()
			if err != nil {
				return g, err
			}
			g.ChildAddrs = append(g.ChildAddrs, int(a))
		}
	}
	return g, nil
}

func writeOptSpan(w *byteWriter, has bool, span Span) {
	w.boolByte(has)
	if has {
		w.u32(uint32(span.Start))
		w.u32(uint32(span.End))
	}
}

func readOptSpan(r *byteReader) (bool, Span, error) {
	has, err := r.boolByte()
	if err != nil || !has {
		return has, Span{}, err
	}
	start, err := r.u32()
	if err != nil {
		return has, Span{}, err
	}
	end, err := r.u32()
	if err != nil {
		return has, Span{}, err
	}
	return has, Span{int(start), int(end)}, nil
}

// writeArgTree/readArgTree implement spec.md §6's arg-tree byte format
// (argtree.go's argByte* tag constants): string/number leaves reference the
// shared source span rather than re-copying text.
func writeArgTree(w *byteWriter, a ArgTree) {
	switch a.Kind {
	case ArgNull:
		w.u8(argByteNull)
	case ArgTrue:
		w.u8(argByteTrue)
	case ArgFalse:
		w.u8(argByteFalse)
	case ArgString:
		w.u8(argByteString)
		w.u32(uint32(a.Span.Start))
		w.u32(uint32(a.Span.End))
	case ArgNumber:
		w.u8(argByteNumber)
		w.u32(uint32(a.Span.Start))
		w.u32(uint32(a.Span.End))
	case ArgMap:
		w.u8(argByteMap)
		w.u16(uint16(a.Map.Len()))
		for _, pair := range a.Map.Iter() {
			w.str(pair.Key)
			writeArgTree(w, pair.Value)
		}
	case ArgList:
		w.u8(argByteList)
		w.u16(uint16(len(a.List)))
		for _, item := range a.List {
			writeArgTree(w, item)
		}
	}
}

func readArgTree(r *byteReader) (ArgTree, error) {
	tag, err := r.u8()
	if err != nil {
		return ArgTree{}, err
	}
	switch tag {
	case argByteNull:
		return ArgTree{Kind: ArgNull}, nil
	case argByteTrue:
		return ArgTree{Kind: ArgTrue}, nil
	case argByteFalse:
		return ArgTree{Kind: ArgFalse}, nil
	case argByteString, argByteNumber:
		start, err := r.u32()
		if err != nil {
			return ArgTree{}, err
		}
		end, err := r.u32()
		if err != nil {
			return ArgTree{}, err
		}
		kind := ArgString
		if tag == argByteNumber {
			kind = ArgNumber
		}
		return ArgTree{Kind: kind, Span: Span{int(start), int(end)}}, nil
	case argByteMap:
		n, err := r.u16()
		if err != nil {
			return ArgTree{}, err
		}
		m := NewOMap[ArgTree]()
		for i := 0; i < int(n); i++ {
			key, err := r.str()
			if err != nil {
				return ArgTree{}, err
			}
			child, err := readArgTree(r)
			if err != nil {
				return ArgTree{}, err
			}
			m.Set(key, child)
		}
		return ArgTree{Kind: ArgMap, Map: m}, nil
	case argByteList:
		n, err := r.u16()
		if err != nil {
			return ArgTree{}, err
		}
		list := make([]ArgTree, 0, n)
		for i := 0; i < int(n); i++ {
			child, err := readArgTree(r)
			if err != nil {
				return ArgTree{}, err
			}
			list = append(list, child)
		}
		return ArgTree{Kind: ArgList, List: list}, nil
	default:
		return ArgTree{}, newErr(ErrParseError, "unrecognized arg-tree byte tag")
	}
}

// byteWriter/byteReader are small little-endian cursors, per spec.md §4.2's
// "Big-endian-free (all multi-byte integers are little-endian)" note for
// the schema byte format — distinct from buffertype.go's big-endian buffer
// type trailers, which follow §4.3's own explicit "u16 BE" wording.
type byteWriter struct{ buf []byte }

func (w *byteWriter) u8(b byte)       { w.buf = append(w.buf, b) }
func (w *byteWriter) bytes(b []byte)  { w.buf = append(w.buf, b...) }
func (w *byteWriter) boolByte(b bool) {
	if b {
		w.u8(1)
	} else {
		w.u8(0)
	}
}
func (w *byteWriter) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.bytes(b[:])
}
func (w *byteWriter) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.bytes(b[:])
}
func (w *byteWriter) i64(v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	w.bytes(b[:])
}
func (w *byteWriter) f64(v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	w.bytes(b[:])
}
func (w *byteWriter) str(s string) {
	w.u16(uint16(len(s)))
	w.bytes([]byte(s))
}

type byteReader struct {
	buf []byte
	pos int
}

func (r *byteReader) take(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, newErr(ErrOutOfBounds, "truncated schema bytes")
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}
func (r *byteReader) u8() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}
func (r *byteReader) boolByte() (bool, error) {
	b, err := r.u8()
	return b != 0, err
}
func (r *byteReader) u16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}
func (r *byteReader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}
func (r *byteReader) i64() (int64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}
func (r *byteReader) f64() (float64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}
func (r *byteReader) str() (string, error) {
	n, err := r.u16()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
