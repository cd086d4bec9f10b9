package noproto

import (
	"strconv"
	"strings"
)

// GenerateIDL renders a compiled schema back into IDL source text, one
// top-level statement per declared node (struct/enum/primitive/impl/info),
// in arena order. Grounded on original_source/no_proto_rs/src/schema.rs's
// to_idl/_type_to_idl, it mirrors schema_idl.go's parseNamedTopLevel token
// order exactly (keyword, use-site generics, name, decl-generics, args,
// body) so that Compile(cs.GenerateIDL()) reconstructs an equivalent
// schema — same unique_id, same structural shape — even though it won't
// byte-for-byte match the original spelling (whitespace, explicit-vs.
// inferred enum defaults, and dropped method argument names are not
// preserved).
func (cs *CompiledSchema) GenerateIDL() (string, error) {
	var sb strings.Builder
	for addr := range cs.Schemas {
		s := &cs.Schemas[addr]
		if !isTopLevelIDLNode(s) {
			continue
		}
		writeTopLevelIDL(&sb, cs, addr)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func isTopLevelIDLNode(s *ParsedSchema) bool {
	return s.HasName || s.Kind == KindImpl || s.Kind == KindInfo
}

func writeTopLevelIDL(sb *strings.Builder, cs *CompiledSchema, addr int) {
	s := &cs.Schemas[addr]

	switch s.Kind {
	case KindImpl:
		writeImplIDL(sb, cs, addr)
		return
	case KindInfo:
		writeInfoIDL(sb, cs, s)
		return
	case KindArray:
		// "[T; N] name [args]" — the array-expr comes before the name,
		// unlike every keyword-led declaration (see parseArrayTopLevel).
		writeTypeExprIDL(sb, cs, addr)
		if s.HasName {
			sb.WriteByte(' ')
			sb.WriteString(cs.Name(addr))
		}
		if args := buildArgsIDLText(cs, s); args != "" {
			sb.WriteByte(' ')
			sb.WriteString(args)
		}
		return
	}

	sb.WriteString(topLevelKeyword(cs, s))

	switch s.Kind {
	case KindVec, KindMap, KindBox, KindOption:
		if s.HasOf {
			sb.WriteByte('<')
			writeTypeExprIDL(sb, cs, s.Of)
			sb.WriteByte('>')
		}
	case KindResult:
		if s.Generics.Kind == GenericsStateTypes {
			sb.WriteByte('<')
			writeTypeExprIDL(sb, cs, s.Ok)
			sb.WriteString(", ")
			writeTypeExprIDL(sb, cs, s.Err)
			sb.WriteByte('>')
		}
	case KindCustom:
		if len(s.GenericArgs) > 0 {
			sb.WriteByte('<')
			for i, a := range s.GenericArgs {
				if i > 0 {
					sb.WriteString(", ")
				}
				writeTypeExprIDL(sb, cs, a)
			}
			sb.WriteByte('>')
		}
	}

	if s.HasName {
		sb.WriteByte(' ')
		sb.WriteString(cs.Name(addr))
	}

	if s.Generics.Kind == GenericsStateParent && len(s.Generics.ParamNames) > 0 {
		sb.WriteByte('<')
		for i, p := range s.Generics.ParamNames {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p)
		}
		sb.WriteByte('>')
	}

	if args := buildArgsIDLText(cs, s); args != "" {
		sb.WriteByte(' ')
		sb.WriteString(args)
	}

	switch s.Kind {
	case KindStruct:
		sb.WriteByte('{')
		for i, childAddr := range s.Children {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(s.ChildrenName[i])
			sb.WriteString(": ")
			writeTypeExprIDL(sb, cs, childAddr)
		}
		sb.WriteByte('}')
	case KindEnum, KindSimpleEnum:
		sb.WriteByte('{')
		for i, childAddr := range s.Children {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(s.ChildrenName[i])
			writeEnumVariantPayloadIDL(sb, cs, childAddr)
		}
		sb.WriteByte('}')
	}
}

// topLevelKeyword picks the leading token for a named top-level
// declaration: a fixed keyword for struct/enum/primitives/containers, or
// the referenced type's own declared name for a top-level alias-by-
// reference ("FooType bar [id:7]", see parseNamedTopLevel's default case).
func topLevelKeyword(cs *CompiledSchema, s *ParsedSchema) string {
	switch s.Kind {
	case KindStruct:
		return "struct"
	case KindEnum, KindSimpleEnum:
		return "enum"
	case KindCustom:
		return cs.Name(s.TargetAddr)
	case KindThis:
		return "self"
	default:
		return typeKeywords[s.Kind]
	}
}

func writeImplIDL(sb *strings.Builder, cs *CompiledSchema, addr int) {
	s := &cs.Schemas[addr]
	sb.WriteString("impl ")
	sb.WriteString(cs.Name(s.TargetAddr))
	sb.WriteString(" {")
	for i, methodAddr := range s.Children {
		if i > 0 {
			sb.WriteString(", ")
		}
		m := &cs.Schemas[methodAddr]
		sb.WriteString(s.ChildrenName[i])
		sb.WriteByte('(')
		for j, argAddr := range m.MethodArgs {
			if j > 0 {
				sb.WriteString(", ")
			}
			writeTypeExprIDL(sb, cs, argAddr)
		}
		sb.WriteString(") -> ")
		writeTypeExprIDL(sb, cs, m.MethodReturns)
	}
	sb.WriteString("}")
}

func writeInfoIDL(sb *strings.Builder, cs *CompiledSchema, s *ParsedSchema) {
	sb.WriteString("__info")
	var parts []string
	if leaf, ok := s.Args.Query("id"); ok {
		parts = append(parts, `id: "`+leaf.Text(cs.Source)+`"`)
	}
	if leaf, ok := s.Args.Query("version"); ok {
		parts = append(parts, `version: "`+leaf.Text(cs.Source)+`"`)
	}
	if len(parts) > 0 {
		sb.WriteByte('[')
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteByte(']')
	}
}

// writeEnumVariantPayloadIDL renders a variant's optional payload: "(...)"
// for a tuple payload, "{...}" for a struct payload, nothing for a
// payload-free variant.
func writeEnumVariantPayloadIDL(sb *strings.Builder, cs *CompiledSchema, childAddr int) {
	child := &cs.Schemas[childAddr]
	switch child.Kind {
	case KindNone:
		return
	case KindTuple:
		sb.WriteByte('(')
		for i, grandchild := range child.Children {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeTypeExprIDL(sb, cs, grandchild)
		}
		sb.WriteByte(')')
	case KindStruct:
		sb.WriteByte('{')
		for i, grandchild := range child.Children {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(child.ChildrenName[i])
			sb.WriteString(": ")
			writeTypeExprIDL(sb, cs, grandchild)
		}
		sb.WriteByte('}')
	}
}

// writeTypeExprIDL renders a nested type expression (a struct field, tuple
// element, generic argument, array element type, method param/return) with
// no name/id/args of its own — those belong only to top-level declarations.
func writeTypeExprIDL(sb *strings.Builder, cs *CompiledSchema, addr int) {
	s := &cs.Schemas[addr]
	switch s.Kind {
	case KindThis:
		sb.WriteString("self")
	case KindGeneric:
		parent := &cs.Schemas[s.TargetAddr]
		if s.GenericIdx < len(parent.Generics.ParamNames) {
			sb.WriteString(parent.Generics.ParamNames[s.GenericIdx])
		}
	case KindCustom:
		sb.WriteString(cs.Name(s.TargetAddr))
		if len(s.GenericArgs) > 0 {
			sb.WriteByte('<')
			for i, a := range s.GenericArgs {
				if i > 0 {
					sb.WriteString(", ")
				}
				writeTypeExprIDL(sb, cs, a)
			}
			sb.WriteByte('>')
		}
	case KindVec, KindMap, KindBox, KindOption:
		sb.WriteString(typeKeywords[s.Kind])
		if s.HasOf {
			sb.WriteByte('<')
			writeTypeExprIDL(sb, cs, s.Of)
			sb.WriteByte('>')
		}
	case KindResult:
		sb.WriteString("Result<")
		writeTypeExprIDL(sb, cs, s.Ok)
		sb.WriteString(", ")
		writeTypeExprIDL(sb, cs, s.Err)
		sb.WriteByte('>')
	case KindArray:
		sb.WriteByte('[')
		if s.HasOf {
			writeTypeExprIDL(sb, cs, s.Of)
		}
		sb.WriteString("; ")
		sb.WriteString(strconv.FormatUint(uint64(s.ArrayLen), 10))
		sb.WriteByte(']')
	case KindStruct:
		sb.WriteByte('{')
		for i, childAddr := range s.Children {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(s.ChildrenName[i])
			sb.WriteString(": ")
			writeTypeExprIDL(sb, cs, childAddr)
		}
		sb.WriteByte('}')
	case KindTuple:
		sb.WriteByte('(')
		for i, childAddr := range s.Children {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeTypeExprIDL(sb, cs, childAddr)
		}
		sb.WriteByte(')')
	default:
		sb.WriteString(typeKeywords[s.Kind])
	}
}

// buildArgsIDLText renders a node's "[key: val, ...]" args block from its
// typed fields (the post-applyArgs/applyJSONArgs representation), mirroring
// applyArgs's field set in the same order it assigns them. Returns "" when
// the node carries no args at all.
func buildArgsIDLText(cs *CompiledSchema, s *ParsedSchema) string {
	var parts []string
	if s.HasID {
		parts = append(parts, "id: "+strconv.Itoa(int(s.ID)))
	}
	switch s.Kind {
	case KindString, KindChar:
		if s.HasDefaultStr {
			parts = append(parts, `default: "`+s.DefaultStr.Text(cs.Source)+`"`)
		}
		switch s.Casing {
		case CasingUpper:
			parts = append(parts, `casing: "upper"`)
		case CasingLower:
			parts = append(parts, `casing: "lower"`)
		}
		if s.HasMaxLen {
			parts = append(parts, "max_len: "+strconv.FormatUint(uint64(s.MaxLen), 10))
		}
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint8, KindUint16, KindUint32, KindUint64:
		if s.HasDefaultInt {
			parts = append(parts, "default: "+strconv.FormatInt(s.DefaultInt, 10))
		}
		if s.HasMin {
			parts = append(parts, "min: "+strconv.FormatInt(s.Min, 10))
		}
		if s.HasMax {
			parts = append(parts, "max: "+strconv.FormatInt(s.Max, 10))
		}
	case KindFloat32, KindFloat64, KindExp32, KindExp64:
		if s.HasDefaultFloat {
			parts = append(parts, "default: "+strconv.FormatFloat(s.DefaultFloat, 'g', -1, 64))
		}
		if s.HasMinFloat {
			parts = append(parts, "min: "+strconv.FormatFloat(s.MinFloat, 'g', -1, 64))
		}
		if s.HasMaxFloat {
			parts = append(parts, "max: "+strconv.FormatFloat(s.MaxFloat, 'g', -1, 64))
		}
		if s.Exp != 0 {
			parts = append(parts, "exp: "+strconv.Itoa(int(s.Exp)))
		}
	case KindBool:
		if s.HasDefaultBool {
			parts = append(parts, "default: "+strconv.FormatBool(s.DefaultBool))
		}
	case KindVec, KindList, KindBox, KindOption:
		if s.HasMaxLen {
			parts = append(parts, "max_len: "+strconv.FormatUint(uint64(s.MaxLen), 10))
		}
	case KindEnum, KindSimpleEnum:
		if s.HasDefaultIdx && s.DefaultIdx < len(s.ChildrenName) {
			parts = append(parts, `default: "`+s.ChildrenName[s.DefaultIdx]+`"`)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ToJSON renders a compiled schema back into the JSON-form surface syntax
// (spec.md §4.2's "two surface syntaxes, one AST" note), the mirror of
// schema_json.go's compileJSONType/applyJSONArgs. A schema with exactly one
// top-level node renders as a single dictionary; more than one renders as
// an array of dictionaries, matching compileJSONTop's two accepted shapes.
func (cs *CompiledSchema) ToJSON() (*Value, error) {
	var tops []int
	for addr := range cs.Schemas {
		if isTopLevelIDLNode(&cs.Schemas[addr]) {
			tops = append(tops, addr)
		}
	}
	if len(tops) == 1 {
		return typeExprToJSON(cs, tops[0], true), nil
	}
	arr := make([]*Value, len(tops))
	for i, addr := range tops {
		arr[i] = typeExprToJSON(cs, addr, true)
	}
	return NewArray(arr), nil
}

// typeExprToJSON renders one ParsedSchema node (top-level or nested) into
// its JSON-form dictionary, the inverse of compileJSONType's switch.
func typeExprToJSON(cs *CompiledSchema, addr int, topLevel bool) *Value {
	s := &cs.Schemas[addr]
	out := NewDict()

	if topLevel {
		if s.HasName {
			out.Dict.Set("name", NewString(cs.Name(addr)))
		}
		if s.HasID {
			out.Dict.Set("id", NewInteger(int64(s.ID)))
		}
	}

	switch s.Kind {
	case KindImpl:
		out.Dict.Set("type", NewString("impl"))
		out.Dict.Set("target", NewString(cs.Name(s.TargetAddr)))
		methods := make([]*Value, len(s.Children))
		for i, methodAddr := range s.Children {
			m := &cs.Schemas[methodAddr]
			method := NewDict()
			method.Dict.Set("name", NewString(s.ChildrenName[i]))
			args := make([]*Value, len(m.MethodArgs))
			for j, a := range m.MethodArgs {
				args[j] = typeExprToJSON(cs, a, false)
			}
			method.Dict.Set("args", NewArray(args))
			method.Dict.Set("returns", typeExprToJSON(cs, m.MethodReturns, false))
			methods[i] = method
		}
		out.Dict.Set("methods", NewArray(methods))
		return out
	case KindInfo:
		out.Dict.Set("type", NewString("info"))
		if leaf, ok := s.Args.Query("id"); ok {
			out.Dict.Set("id", NewString(leaf.Text(cs.Source)))
		}
		if leaf, ok := s.Args.Query("version"); ok {
			out.Dict.Set("version", NewString(leaf.Text(cs.Source)))
		}
		return out
	case KindThis:
		out.Dict.Set("type", NewString("self"))
		return out
	case KindStruct:
		out.Dict.Set("type", NewString("struct"))
		fields := NewDict()
		for i, childAddr := range s.Children {
			fields.Dict.Set(s.ChildrenName[i], typeExprToJSON(cs, childAddr, false))
		}
		out.Dict.Set("fields", fields)
		return out
	case KindEnum, KindSimpleEnum:
		out.Dict.Set("type", NewString("enum"))
		choices := make([]*Value, len(s.Children))
		for i, childAddr := range s.Children {
			choice := NewDict()
			choice.Dict.Set("name", NewString(s.ChildrenName[i]))
			if cs.Schemas[childAddr].Kind != KindNone {
				choice.Dict.Set("of", typeExprToJSON(cs, childAddr, false))
			}
			choices[i] = choice
		}
		out.Dict.Set("choices", NewArray(choices))
		if s.HasDefaultIdx && s.DefaultIdx < len(s.ChildrenName) {
			out.Dict.Set("default", NewString(s.ChildrenName[s.DefaultIdx]))
		}
		return out
	case KindVec, KindList, KindBox, KindOption:
		out.Dict.Set("type", NewString(jsonContainerName(s.Kind)))
		if s.HasOf {
			out.Dict.Set("of", typeExprToJSON(cs, s.Of, false))
		}
		if s.HasMaxLen {
			out.Dict.Set("max_len", NewInteger(int64(s.MaxLen)))
		}
		return out
	case KindMap:
		out.Dict.Set("type", NewString("map"))
		if s.HasOf {
			out.Dict.Set("value", typeExprToJSON(cs, s.Of, false))
		}
		return out
	case KindResult:
		out.Dict.Set("type", NewString("result"))
		out.Dict.Set("ok", typeExprToJSON(cs, s.Ok, false))
		out.Dict.Set("err", typeExprToJSON(cs, s.Err, false))
		return out
	case KindTuple:
		out.Dict.Set("type", NewString("tuple"))
		values := make([]*Value, len(s.Children))
		for i, childAddr := range s.Children {
			values[i] = typeExprToJSON(cs, childAddr, false)
		}
		out.Dict.Set("values", NewArray(values))
		return out
	case KindArray:
		out.Dict.Set("type", NewString("array"))
		if s.HasOf {
			out.Dict.Set("of", typeExprToJSON(cs, s.Of, false))
		}
		out.Dict.Set("len", NewInteger(int64(s.ArrayLen)))
		return out
	case KindCustom:
		out.Dict.Set("type", NewString(cs.Name(s.TargetAddr)))
		return out
	case KindGeneric:
		parent := &cs.Schemas[s.TargetAddr]
		if s.GenericIdx < len(parent.Generics.ParamNames) {
			out.Dict.Set("type", NewString(parent.Generics.ParamNames[s.GenericIdx]))
		}
		return out
	default:
		out.Dict.Set("type", NewString(typeKeywords[s.Kind]))
		applyJSONArgsOut(out, s, cs)
		return out
	}
}

func jsonContainerName(kind TypeKind) string {
	switch kind {
	case KindVec:
		return "vec"
	case KindList:
		return "list"
	case KindBox:
		return "box"
	case KindOption:
		return "option"
	default:
		return ""
	}
}

// applyJSONArgsOut fills a primitive node's JSON keys from its typed
// fields, the inverse of applyJSONArgs.
func applyJSONArgsOut(out *Value, s *ParsedSchema, cs *CompiledSchema) {
	switch s.Kind {
	case KindString, KindChar:
		if s.HasDefaultStr {
			out.Dict.Set("default", NewString(s.DefaultStr.Text(cs.Source)))
		}
		switch s.Casing {
		case CasingUpper:
			out.Dict.Set("casing", NewString("upper"))
		case CasingLower:
			out.Dict.Set("casing", NewString("lower"))
		}
		if s.HasMaxLen {
			out.Dict.Set("max_len", NewInteger(int64(s.MaxLen)))
		}
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint8, KindUint16, KindUint32, KindUint64:
		if s.HasDefaultInt {
			out.Dict.Set("default", NewInteger(s.DefaultInt))
		}
		if s.HasMin {
			out.Dict.Set("min", NewInteger(s.Min))
		}
		if s.HasMax {
			out.Dict.Set("max", NewInteger(s.Max))
		}
	case KindFloat32, KindFloat64, KindExp32, KindExp64:
		if s.HasDefaultFloat {
			out.Dict.Set("default", NewFloat(s.DefaultFloat))
		}
		if s.HasMinFloat {
			out.Dict.Set("min", NewFloat(s.MinFloat))
		}
		if s.HasMaxFloat {
			out.Dict.Set("max", NewFloat(s.MaxFloat))
		}
		if s.Exp != 0 {
			out.Dict.Set("exp", NewInteger(int64(s.Exp)))
		}
	case KindBool:
		if s.HasDefaultBool {
			out.Dict.Set("default", NewBool(s.DefaultBool))
		}
	}
}
