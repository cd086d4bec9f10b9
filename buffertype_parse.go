package noproto

import "strconv"

// maxTypeExprLen bounds buffer-type expression input, per spec.md §5's
// "input-length cap of 255 characters".
const maxTypeExprLen = 255

func newArrayType(kind TypeKind, length uint32, of BufferType) BufferType {
	return BufferType{Kind: kind, Generics: []BufferType{of}, scalar0: length}
}

func newCustomType(kind TypeKind, idx uint32, generics []BufferType) BufferType {
	return BufferType{Kind: kind, Generics: generics, scalar0: idx}
}

func newRPCType(kind TypeKind, typeIdx uint32, funcIdx uint8, generics []BufferType) BufferType {
	return BufferType{Kind: kind, Generics: generics, scalar0: typeIdx, scalar1: uint32(funcIdx)}
}

// ParseType parses a type expression like "Vec<([bool;20], string)>" or
// "myType<u32>" against schema, per spec.md §4.3. Empty input yields
// (nil, nil); "()" yields Tuple{len:0}.
func ParseType(expr string, schema *CompiledSchema) (*BufferType, error) {
	return parseTypeGeneral(expr, false, schema)
}

// ParseTypeRPC parses "<type>.<method>" into an RpcRequest or RpcResponse
// BufferType, per spec.md §4.3's parse_type_rpc.
func ParseTypeRPC(isResponse bool, expr string, schema *CompiledSchema) (*BufferType, error) {
	dot := -1
	for i := 0; i < len(expr); i++ {
		if expr[i] == '.' {
			if dot != -1 {
				return nil, newErr(ErrParseError, "rpc type expression has more than one '.'")
			}
			dot = i
		}
	}
	if dot == -1 {
		return nil, newErr(ErrParseError, "rpc type expression must be of the form type.method")
	}
	typePart := expr[:dot]
	methodName := expr[dot+1:]

	bt, err := parseTypeGeneral(typePart, true, schema)
	if err != nil {
		return nil, err
	}
	if bt == nil {
		return nil, newErr(ErrParseError, "rpc type expression has no type")
	}

	var targetIdx uint32
	switch bt.Kind {
	case KindCustom, KindSmallCustom:
		targetIdx = bt.scalar0
	default:
		return nil, newErr(ErrTypeMismatch, "rpc type expression must name a custom type")
	}
	target, ok := schema.ResolveID(uint16(targetIdx))
	if !ok {
		return nil, newErr(ErrOutOfBounds, "rpc target index out of range")
	}
	if !target.HasMethods {
		return nil, newErrAt(ErrUnknownType, methodName, "target type declares no impl block")
	}
	impl := &schema.Schemas[target.MethodsAddr]
	funcIdx := -1
	for i, name := range impl.ChildrenName {
		if name == methodName {
			funcIdx = i
			break
		}
	}
	if funcIdx == -1 {
		return nil, newErrAt(ErrUnknownType, methodName, "method not found in impl block")
	}

	kind := KindRpcRequest
	if isResponse {
		kind = KindRpcResponse
	}
	result := newRPCType(kind, targetIdx, uint8(funcIdx), bt.Generics)
	return &result, nil
}

// parseTypeGeneral implements both the fast path (no brackets) and slow
// path (recursive descent over the brackets) of spec.md §4.3's parser.
func parseTypeGeneral(expr string, isRPCTarget bool, schema *CompiledSchema) (*BufferType, error) {
	if len(expr) > maxTypeExprLen {
		return nil, newErr(ErrOutOfBounds, "type expression exceeds 255 characters")
	}
	if len(expr) == 0 {
		return nil, nil
	}
	if expr == "()" {
		bt := BufferType{Kind: KindTuple}
		return &bt, nil
	}

	hasBrackets := false
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '<', '(', '[':
			hasBrackets = true
		}
	}

	var bt BufferType
	var err error
	if !hasBrackets {
		bt, err = parseTypeFast(expr, schema)
	} else {
		var consumed int
		bt, consumed, err = parseTypeSlow(expr, 0, schema)
		if err == nil && consumed != len(expr) {
			err = newErr(ErrBracketMismatch, "trailing characters after type expression")
		}
	}
	if err != nil {
		return nil, err
	}
	normalized := normalizeSmallVariants(bt)
	return &normalized, nil
}

// parseTypeFast handles a bracket-free expression: a primitive keyword or
// a bare custom type name, with zero generic arguments.
func parseTypeFast(name string, schema *CompiledSchema) (BufferType, error) {
	if kind, ok := typeNames[name]; ok {
		if genericArity(kind, 0) != 0 {
			return BufferType{}, newErr(ErrArityMismatch, "generic params required for this type")
		}
		return BufferType{Kind: kind}, nil
	}
	if schema == nil {
		return BufferType{}, newErrAt(ErrUnknownType, name, "unknown type")
	}
	idx, ok := schema.ResolveName(name)
	if !ok {
		return BufferType{}, newErrAt(ErrUnknownType, name, "unknown type")
	}
	target := &schema.Schemas[idx.DataAddr]
	if !target.HasID {
		return BufferType{}, newErrAt(ErrMissingID, name, "custom type has no id")
	}
	arity := 0
	if target.Generics.Kind == GenericsStateParent {
		arity = len(target.Generics.ParamNames)
	}
	if arity != 0 {
		return BufferType{}, newErrAt(ErrArityMismatch, name, "generic params required for this type")
	}
	return newCustomType(KindCustom, uint32(target.ID), nil), nil
}

type parseMode uint8

const (
	modeSearching parseMode = iota
	modeAngle
	modeSquare
	modeParens
)

// parseTypeSlow is the bracketed-expression parser for spec.md §4.3,
// after type_parser.rs's parse_type. It keeps no nesting counters: it
// recurses on '<', '(' to build nested generic/tuple structure, so the
// call depth is the nesting depth, and returns how many bytes of expr it
// consumed.
func parseTypeSlow(expr string, start int, schema *CompiledSchema) (BufferType, int, error) {
	i := start

	// A bare '(' (no preceding identifier) is a tuple literal.
	if i < len(expr) && expr[i] == '(' {
		i++
		var generics []BufferType
		for i < len(expr) && expr[i] != ')' {
			child, next, err := parseTypeSlow(expr, i, schema)
			if err != nil {
				return BufferType{}, i, err
			}
			generics = append(generics, child)
			i = next
			if i < len(expr) && expr[i] == ',' {
				i++
			}
		}
		if i >= len(expr) || expr[i] != ')' {
			return BufferType{}, i, newErr(ErrBracketMismatch, "expected ')' closing tuple")
		}
		i++
		return BufferType{Kind: KindTuple, Generics: generics}, i, nil
	}

	// A bare '[' (no preceding identifier) is an array literal: [T; N].
	if i < len(expr) && expr[i] == '[' {
		i++
		child, next, err := parseTypeSlow(expr, i, schema)
		if err != nil {
			return BufferType{}, i, err
		}
		i = next
		if i >= len(expr) || expr[i] != ';' {
			return BufferType{}, i, newErr(ErrParseError, "expected ';' in array type")
		}
		i++
		for i < len(expr) && expr[i] == ' ' {
			i++
		}
		lenStart := i
		for i < len(expr) && expr[i] >= '0' && expr[i] <= '9' {
			i++
		}
		n, perr := strconv.ParseUint(expr[lenStart:i], 10, 32)
		if perr != nil {
			return BufferType{}, i, newErr(ErrParseError, "invalid array length")
		}
		if i >= len(expr) || expr[i] != ']' {
			return BufferType{}, i, newErr(ErrBracketMismatch, "expected ']' closing array type")
		}
		i++
		return newArrayType(KindArray, uint32(n), child), i, nil
	}

	nameStart := i
	for i < len(expr) && isIdentRune(expr[i]) {
		i++
	}
	name := expr[nameStart:i]
	if name == "" {
		return BufferType{}, i, newErr(ErrParseError, "expected a type expression")
	}

	var bt BufferType
	var targetArity int
	isCustom := false
	var targetID uint32

	if kind, ok := typeNames[name]; ok {
		bt.Kind = kind
		targetArity = genericArity(kind, 0)
	} else if schema != nil {
		idx, ok := schema.ResolveName(name)
		if !ok {
			return BufferType{}, i, newErrAt(ErrUnknownType, name, "unknown type found")
		}
		target := &schema.Schemas[idx.DataAddr]
		isCustom = true
		targetID = uint32(target.ID)
		bt.Kind = KindCustom
		if target.Generics.Kind == GenericsStateParent {
			targetArity = len(target.Generics.ParamNames)
		}
	} else {
		return BufferType{}, i, newErrAt(ErrUnknownType, name, "unknown type found")
	}

	var generics []BufferType
	if i < len(expr) && expr[i] == '<' {
		i++ // consume '<'
		for {
			for i < len(expr) && expr[i] == ' ' {
				i++
			}
			child, next, err := parseTypeSlow(expr, i, schema)
			if err != nil {
				return BufferType{}, i, err
			}
			generics = append(generics, child)
			i = next
			for i < len(expr) && expr[i] == ' ' {
				i++
			}
			if i < len(expr) && expr[i] == ',' {
				i++
				continue
			}
			break
		}
		if i >= len(expr) || expr[i] != '>' {
			return BufferType{}, i, newErr(ErrBracketMismatch, "expected '>' closing generic argument list")
		}
		i++
	}

	if isCustom {
		bt = newCustomType(KindCustom, targetID, generics)
	} else {
		bt.Generics = generics
	}

	if len(generics) != targetArity {
		return BufferType{}, i, newErr(ErrArityMismatch, "wrong number of generic params for this type")
	}

	return bt, i, nil
}

func isIdentRune(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// normalizeSmallVariants rewrites Custom→SmallCustom (idx<256) and
// Array→SmallArray (len<256) recursively, per spec.md §4.3's "size
// normalization on parse".
func normalizeSmallVariants(bt BufferType) BufferType {
	out := bt
	for i := range out.Generics {
		out.Generics[i] = normalizeSmallVariants(out.Generics[i])
	}
	switch bt.Kind {
	case KindCustom:
		if bt.scalar0 < 256 {
			out.Kind = KindSmallCustom
		}
	case KindArray:
		if bt.scalar0 < 256 {
			out.Kind = KindSmallArray
		}
	}
	return out
}

// GenerateString pretty-prints b back into type-expression form, the
// inverse consulted by ParseType's round-trip property (spec.md §8).
// Transcribed from type_parser.rs's generate_string.
func (b BufferType) GenerateString(schema *CompiledSchema) string {
	var name string
	switch b.Kind {
	case KindTuple:
		s := "("
		for i, g := range b.Generics {
			if i > 0 {
				s += ", "
			}
			s += g.GenerateString(schema)
		}
		return s + ")"
	case KindArray, KindSmallArray:
		of := ""
		if len(b.Generics) == 1 {
			of = b.Generics[0].GenerateString(schema)
		}
		return "[" + of + "; " + strconv.FormatUint(uint64(b.scalar0), 10) + "]"
	case KindCustom, KindSmallCustom:
		if schema != nil && int(b.scalar0) < len(schema.IDIndex) {
			idx, ok := schema.ResolveID(uint16(b.scalar0))
			if ok {
				name = schema.Name(idx.DataAddr)
			}
		}
		if name == "" {
			name = "custom"
		}
	case KindRpcRequest, KindRpcResponse:
		if schema != nil && int(b.scalar0) < len(schema.IDIndex) {
			idx, ok := schema.ResolveID(uint16(b.scalar0))
			if ok {
				typeName := schema.Name(idx.DataAddr)
				impl := &schema.Schemas[idx.MethodsAddr]
				method := ""
				if int(b.scalar1) < len(impl.ChildrenName) {
					method = impl.ChildrenName[b.scalar1]
				}
				return typeName + "." + method
			}
		}
		return "unknown.unknown"
	default:
		name = typeKeywords[b.Kind]
	}

	if len(b.Generics) == 0 {
		return name
	}
	s := name + "<"
	for i, g := range b.Generics {
		if i > 0 {
			s += ", "
		}
		s += g.GenerateString(schema)
	}
	return s + ">"
}
