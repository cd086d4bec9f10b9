package noproto

// TypeKind is the closed sum type enumerated in spec.md §3. The numeric
// values match the wire tags used by both the binary schema format and the
// buffer-type byte format (spec.md §6), transcribed from
// original_source/no_proto_rs/src/types.rs and
// original_source/no_proto_rs/src/buffer/type_parser.rs.
type TypeKind uint8

const (
	KindNone TypeKind = iota
	KindAny
	KindString
	KindChar
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindExp32
	KindExp64
	KindBool
	KindGeo32
	KindGeo64
	KindGeo128
	KindUuid
	KindUlid
	KindDate
	KindVec
	KindMap
	KindBox
	KindResult
	KindOption
	KindArray
	KindCustom
	KindSmallCustom
	KindSmallArray
	KindTuple
	KindRpcRequest
	KindRpcResponse
	// Schema-only kinds: these never appear in a BufferType's byte encoding,
	// only in a ParsedSchema's Kind field.
	KindList
	KindStruct
	KindEnum
	KindSimpleEnum
	KindImpl
	KindMethod
	KindGeneric
	KindThis
	// KindInfo marks a top-level `__info[...]` block (spec.md §6's
	// infoBlock), which carries only an ArgTree (id/version) and is exempt
	// from the name/id invariant every other top-level declaration obeys.
	KindInfo
)

// typeNames maps each keyword spelling recognized by the IDL lexer/compiler
// to its TypeKind, transcribed from types.rs's From<&str> impl.
var typeNames = map[string]TypeKind{
	"none":    KindNone,
	"any":     KindAny,
	"string":  KindString,
	"char":    KindChar,
	"i8":      KindInt8,
	"i16":     KindInt16,
	"i32":     KindInt32,
	"i64":     KindInt64,
	"u8":      KindUint8,
	"u16":     KindUint16,
	"u32":     KindUint32,
	"u64":     KindUint64,
	"f32":     KindFloat32,
	"f64":     KindFloat64,
	"d32":     KindExp32,
	"d64":     KindExp64,
	"bool":    KindBool,
	"g32":     KindGeo32,
	"g64":     KindGeo64,
	"g128":    KindGeo128,
	"uuid":    KindUuid,
	"ulid":    KindUlid,
	"date":    KindDate,
	"Vec":     KindVec,
	"Map":     KindMap,
	"Box":     KindBox,
	"Result":  KindResult,
	"Option":  KindOption,
	"list":    KindList,
	"struct":  KindStruct,
	"enum":    KindEnum,
	"simple_enum": KindSimpleEnum,
	"impl":    KindImpl,
	"self":    KindThis,
}

// typeKeywords is the inverse of typeNames, used by GenerateString for
// kinds that have a fixed keyword spelling (as opposed to custom/struct/enum
// names, which come from the schema's name table).
var typeKeywords = func() map[TypeKind]string {
	out := make(map[TypeKind]string, len(typeNames))
	for k, v := range typeNames {
		out[v] = k
	}
	return out
}()

// bufferByteTag is the wire tag written as a BufferType's leading byte, per
// type_parser.rs's From<NP_Types> for u8. Only kinds that can actually
// appear in a compiled buffer type have an entry; schema-only kinds (List,
// Struct, Enum, ...) are never encoded this way.
var bufferByteTag = map[TypeKind]byte{
	KindNone:        0,
	KindAny:         1,
	KindString:      2,
	KindChar:        3,
	KindInt8:        4,
	KindInt16:       5,
	KindInt32:       6,
	KindInt64:       7,
	KindUint8:       8,
	KindUint16:      9,
	KindUint32:      10,
	KindUint64:      11,
	KindFloat32:     12,
	KindFloat64:     13,
	KindExp32:       14,
	KindExp64:       15,
	KindBool:        16,
	KindGeo32:       17,
	KindGeo64:       18,
	KindGeo128:      19,
	KindUuid:        20,
	KindUlid:        21,
	KindDate:        22,
	KindVec:         23,
	KindMap:         24,
	KindBox:         25,
	KindResult:      26,
	KindOption:      27,
	KindArray:       28,
	KindCustom:      29,
	KindSmallCustom: 30,
	KindSmallArray:  31,
	KindTuple:       32,
	KindRpcRequest:  33,
	KindRpcResponse: 34,
}

var bufferByteTagRev = func() map[byte]TypeKind {
	out := make(map[byte]TypeKind, len(bufferByteTag))
	for k, v := range bufferByteTag {
		out[v] = k
	}
	return out
}()

// kindFromKeyword resolves an identifier token to a TypeKind through the
// typeNames keyword table only; a user-declared schema name is not looked
// up and reports false.
func kindFromKeyword(name string) (TypeKind, bool) {
	k, ok := typeNames[name]
	return k, ok
}

// isAtomicPrimitive reports whether kind never takes generic parameters and
// has no variable-length trailer of its own (used by schema_bytes.go's
// isBareAtomicRecord to pick the single-byte record encoding).
func isAtomicPrimitive(kind TypeKind) bool {
	switch kind {
	case KindNone, KindAny, KindString, KindChar,
		KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint8, KindUint16, KindUint32, KindUint64,
		KindFloat32, KindFloat64, KindExp32, KindExp64,
		KindBool, KindGeo32, KindGeo64, KindGeo128,
		KindUuid, KindUlid, KindDate:
		return true
	default:
		return false
	}
}

// genericArity returns how many generic BufferTypes a kind's encoding
// carries, transcribed from type_parser.rs's read_generic_length. Custom
// and SmallCustom require a schema lookup and are handled separately by the
// caller; this table covers every other kind.
func genericArity(kind TypeKind, tupleLen int) int {
	switch kind {
	case KindVec, KindMap, KindBox, KindOption, KindArray, KindSmallArray:
		return 1
	case KindResult:
		return 2
	case KindTuple:
		return tupleLen
	default:
		return 0
	}
}
