package noproto

// BufferType is a type expression bound to a compiled schema, ready to be
// embedded in a buffer header, per spec.md §3/§4.3. Transcribed from
// original_source/no_proto_rs/src/buffer/type_parser.rs's
// NP_Buffer_Type{kind, generics}.
type BufferType struct {
	Kind     TypeKind
	Generics []BufferType

	// scalar0/scalar1 hold the kind-specific trailer value(s) — an array
	// or small-array length, a custom/small-custom type id, or an rpc
	// target type id (scalar0) plus its function index (scalar1). Unused
	// for every other kind. Unexported accessors are arrayLen/customIdx/
	// rpcAddrs below rather than public fields, since their meaning is
	// entirely kind-dependent.
	scalar0 uint32
	scalar1 uint32
}

// maxBufferTypeBytes bounds a single BufferType's encoding, per spec.md
// §4.3's "fits in 24 bytes total".
const maxBufferTypeBytes = 24

// GetBytes encodes b into its compact wire form: a leading tag byte, any
// kind-specific trailer, then each generic recursively encoded in place.
// Transcribed from type_parser.rs's get_bytes.
func (b BufferType) GetBytes() (int, [maxBufferTypeBytes]byte, error) {
	var buf [maxBufferTypeBytes]byte
	n, err := b.writeBytes(buf[:0])
	if err != nil {
		return 0, buf, err
	}
	var out [maxBufferTypeBytes]byte
	copy(out[:], n)
	return len(n), out, nil
}

func (b BufferType) writeBytes(buf []byte) ([]byte, error) {
	tag, ok := bufferByteTag[b.Kind]
	if !ok {
		return nil, newErr(ErrTypeMismatch, "type kind has no buffer-wire encoding")
	}
	buf = append(buf, tag)

	switch b.Kind {
	case KindArray:
		if len(b.Generics) != 1 {
			return nil, newErr(ErrArityMismatch, "array requires exactly one generic")
		}
		ln := b.arrayLen()
		buf = append(buf, byte(ln>>8), byte(ln))
	case KindSmallArray:
		ln := b.arrayLen()
		buf = append(buf, byte(ln))
	case KindCustom:
		idx := b.customIdx()
		buf = append(buf, byte(idx>>8), byte(idx))
	case KindSmallCustom:
		idx := b.customIdx()
		buf = append(buf, byte(idx))
	case KindRpcRequest, KindRpcResponse:
		idx, fn := b.rpcAddrs()
		buf = append(buf, byte(idx>>8), byte(idx), byte(fn))
	case KindTuple:
		buf = append(buf, byte(len(b.Generics)))
	}

	if len(buf) > maxBufferTypeBytes {
		return nil, newErr(ErrOutOfBounds, "too many buffer types, buffer schema overflow")
	}

	for _, g := range b.Generics {
		var err error
		buf, err = g.writeBytes(buf)
		if err != nil {
			return nil, err
		}
		if len(buf) > maxBufferTypeBytes {
			return nil, newErr(ErrOutOfBounds, "too many buffer types, buffer schema overflow")
		}
	}
	return buf, nil
}

// arrayLen/customIdx/rpcAddrs read the scalar trailer values held in
// scalar0/scalar1, which newArrayType/newCustomType/newRPCType in
// buffertype_parse.go set when parsing and FromBytes sets when decoding.
func (b BufferType) arrayLen() uint32    { return b.scalar0 }
func (b BufferType) customIdx() uint32   { return b.scalar0 }
func (b BufferType) rpcAddrs() (uint32, uint8) { return b.scalar0, uint8(b.scalar1) }

// FromBytes decodes a BufferType from its wire form, inverse of GetBytes.
// schema supplies the generic arity for Custom/SmallCustom/Rpc* kinds via
// read_generic_length. Transcribed from type_parser.rs's from_bytes.
func FromBytes(data []byte, schema *CompiledSchema) (consumed int, bt BufferType, err error) {
	if len(data) == 0 {
		return 0, BufferType{}, newErr(ErrOutOfBounds, "empty buffer type")
	}
	kind, ok := bufferByteTagRev[data[0]]
	if !ok {
		return 0, BufferType{}, newErr(ErrUnknownType, "unrecognized buffer type tag")
	}
	pos := 1
	bt.Kind = kind

	tupleLen := 0
	switch kind {
	case KindArray:
		if pos+2 > len(data) {
			return 0, BufferType{}, newErr(ErrOutOfBounds, "truncated array length")
		}
		bt.scalar0 = uint32(data[pos])<<8 | uint32(data[pos+1])
		pos += 2
	case KindSmallArray:
		if pos+1 > len(data) {
			return 0, BufferType{}, newErr(ErrOutOfBounds, "truncated small array length")
		}
		bt.scalar0 = uint32(data[pos])
		pos++
	case KindCustom:
		if pos+2 > len(data) {
			return 0, BufferType{}, newErr(ErrOutOfBounds, "truncated custom index")
		}
		bt.scalar0 = uint32(data[pos])<<8 | uint32(data[pos+1])
		pos += 2
	case KindSmallCustom:
		if pos+1 > len(data) {
			return 0, BufferType{}, newErr(ErrOutOfBounds, "truncated small custom index")
		}
		bt.scalar0 = uint32(data[pos])
		pos++
	case KindRpcRequest, KindRpcResponse:
		if pos+3 > len(data) {
			return 0, BufferType{}, newErr(ErrOutOfBounds, "truncated rpc address")
		}
		bt.scalar0 = uint32(data[pos])<<8 | uint32(data[pos+1])
		bt.scalar1 = uint32(data[pos+2])
		pos += 3
	case KindTuple:
		if pos+1 > len(data) {
			return 0, BufferType{}, newErr(ErrOutOfBounds, "truncated tuple length")
		}
		tupleLen = int(data[pos])
		pos++
	}

	genCount, gerr := readGenericLength(kind, bt.scalar0, tupleLen, schema)
	if gerr != nil {
		return 0, BufferType{}, gerr
	}
	for i := 0; i < genCount; i++ {
		n, child, err := FromBytes(data[pos:], schema)
		if err != nil {
			return 0, BufferType{}, err
		}
		bt.Generics = append(bt.Generics, child)
		pos += n
	}
	return pos, bt, nil
}

// readGenericLength mirrors type_parser.rs's read_generic_length: how many
// recursive BufferTypes follow a given kind's scalar trailer.
func readGenericLength(kind TypeKind, idx uint32, tupleLen int, schema *CompiledSchema) (int, error) {
	switch kind {
	case KindTuple:
		return tupleLen, nil
	case KindCustom, KindSmallCustom:
		if schema == nil {
			return 0, newErr(ErrOutOfBounds, "custom type index out of range")
		}
		ti, ok := schema.ResolveID(uint16(idx))
		if !ok {
			return 0, newErr(ErrOutOfBounds, "custom type index out of range")
		}
		target := &schema.Schemas[ti.DataAddr]
		if target.Generics.Kind == GenericsStateParent {
			return len(target.Generics.ParamNames), nil
		}
		return 0, nil
	case KindRpcRequest, KindRpcResponse:
		if schema == nil {
			return 0, newErr(ErrOutOfBounds, "rpc type index out of range")
		}
		ti, ok := schema.ResolveID(uint16(idx))
		if !ok {
			return 0, newErr(ErrOutOfBounds, "rpc type index out of range")
		}
		target := &schema.Schemas[ti.DataAddr]
		if target.Generics.Kind == GenericsStateParent {
			return len(target.Generics.ParamNames), nil
		}
		return 0, nil
	default:
		return genericArity(kind, tupleLen), nil
	}
}
