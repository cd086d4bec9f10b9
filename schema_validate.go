package noproto

// finalizeSchema runs the post-parse passes described in spec.md §4.2 steps
// 6 and 8: compute Struct/Tuple child offsets from intrinsic sizes, resolve
// each Enum's default_idx (Open Question O1), and simplify payload-free
// enums to SimpleEnum.
func finalizeSchema(cs *CompiledSchema) error {
	for addr := range cs.Schemas {
		s := &cs.Schemas[addr]
		switch s.Kind {
		case KindStruct, KindTuple:
			if err := computeOffsets(cs, addr); err != nil {
				return err
			}
		case KindEnum:
			if err := finalizeEnum(cs, addr); err != nil {
				return err
			}
		case KindString, KindChar:
			applyCasing(cs, addr)
		}
	}
	return nil
}

// applyCasing rewrites a String/Char node's declared default to match its
// own Casing constraint, so a schema author's literal default never
// silently violates the casing it declares.
func applyCasing(cs *CompiledSchema, addr int) {
	s := &cs.Schemas[addr]
	if s.Casing == CasingNone || !s.HasDefaultStr {
		return
	}
	original := s.DefaultStr.Text(cs.Source)
	normalized := enforceCasing(s.Casing, original)
	if normalized != original {
		s.DefaultStr = cs.internString(normalized)
	}
}

// computeOffsets sets each child's Offset to the running sum of its
// preceding siblings' intrinsic sizes, and records the parent's own Size as
// the total, per spec.md §3's Struct.children invariant.
func computeOffsets(cs *CompiledSchema, addr int) error {
	parent := &cs.Schemas[addr]
	var running uint32
	for _, childAddr := range parent.Children {
		cs.Schemas[childAddr].Offset = running
		running += intrinsicSize(cs, childAddr)
	}
	parent.Size = running
	return nil
}

// intrinsicSize returns the fixed, schema-shape-only byte size used for
// struct/tuple offset computation. Variable-length payloads (strings,
// Vec/List/Map and the other containers, custom types) are stored behind a
// fixed-width in-buffer reference rather than inline, so their intrinsic
// size is constant regardless of the data they eventually hold. Primitive
// fixed-width kinds have their own sizes, and Struct/Tuple/Array are laid
// out inline as the sum of their elements.
func intrinsicSize(cs *CompiledSchema, addr int) uint32 {
	s := &cs.Schemas[addr]
	switch s.Kind {
	case KindNone:
		return 0
	case KindBool, KindInt8, KindUint8, KindChar:
		return 1
	case KindInt16, KindUint16:
		return 2
	case KindInt32, KindUint32, KindFloat32, KindExp32, KindDate:
		return 4
	case KindInt64, KindUint64, KindFloat64, KindExp64:
		return 8
	case KindGeo32:
		return 4
	case KindGeo64:
		return 8
	case KindGeo128:
		return 16
	case KindUuid:
		return 16
	case KindUlid:
		return 16
	case KindStruct, KindTuple:
		if s.Size == 0 && len(s.Children) > 0 {
			computeOffsets(cs, addr)
		}
		return s.Size
	case KindArray, KindSmallArray:
		if s.HasOf {
			return s.ArrayLen * intrinsicSize(cs, s.Of)
		}
		return 0
	default:
		// String, Any, Vec, List, Map, Box, Result, Option, Enum,
		// SimpleEnum, Custom/SmallCustom, Generic, This, Impl/Method: all
		// stored as a 4-byte in-buffer reference.
		return 4
	}
}

// finalizeEnum resolves Open Question O1: an explicit `default` arg names a
// variant by its declared name; absent that, the first payload-free
// variant (declaration order) becomes the default. If every variant carries
// a payload, a default is mandatory and its absence is an error. Finally,
// if every variant is payload-free, the enum is simplified to SimpleEnum.
func finalizeEnum(cs *CompiledSchema, addr int) error {
	s := &cs.Schemas[addr]

	allEmpty := true
	for _, childAddr := range s.Children {
		if cs.Schemas[childAddr].Kind != KindNone {
			allEmpty = false
			break
		}
	}

	defArg, hasDefault := ArgTree{}, false
	if s.Args.Kind == ArgMap {
		defArg, hasDefault = s.Args.Map.Get("default")
	}
	if hasDefault && defArg.Kind == ArgString {
		name := defArg.Text(cs.Source)
		found := -1
		for i, n := range s.ChildrenName {
			if n == name {
				found = i
				break
			}
		}
		if found == -1 {
			return newErr(ErrInvalidDefault, "enum default names an undeclared variant")
		}
		if cs.Schemas[s.Children[found]].Kind != KindNone {
			return newErr(ErrInvalidDefault, "enum default variant must not carry a payload")
		}
		s.HasDefaultIdx = true
		s.DefaultIdx = found
	} else {
		for i, childAddr := range s.Children {
			if cs.Schemas[childAddr].Kind == KindNone {
				s.HasDefaultIdx = true
				s.DefaultIdx = i
				break
			}
		}
		if !s.HasDefaultIdx {
			return newErr(ErrInvalidDefault, "enum has no payload-free variant and no explicit default")
		}
	}

	if allEmpty {
		s.Kind = KindSimpleEnum
	}
	return nil
}
