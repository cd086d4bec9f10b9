package noproto

import "strconv"

// idlCompiler drives spec.md §4.2's top-level loop and parse_single_type.
// It owns the growing arena directly (rather than building a separate
// intermediate tree first) so that named types can be resolved by index as
// soon as they're declared, matching the "arena + index, no owning
// pointers" discipline spec.md §9 requires for cyclic schema graphs.
type idlCompiler struct {
	src       []byte
	schemas   []ParsedSchema
	nameIndex *OMap[SchemaIndex]
	idIndex   []SchemaIndex
	maxID     uint16

	// genericScopes lets a nested type expression resolve a bare
	// identifier like "X" to Generic{parent_addr, idx} when it matches a
	// parameter declared by an enclosing top-level type.
	genericScopes []genericScope

	// currentTop is the address of the top-level type currently being
	// compiled, used to resolve a bare `self` reference inside its own
	// body directly into a This node targeting it (only JSON-form portal
	// nodes are left pending for schema_portal.go).
	currentTop int
}

type genericScope struct {
	selfAddr int
	params   []string
}

func newIDLCompiler(src []byte) *idlCompiler {
	return &idlCompiler{
		src:       src,
		nameIndex: NewOMap[SchemaIndex](),
		currentTop: -1,
	}
}

func (c *idlCompiler) schema() *CompiledSchema {
	return &CompiledSchema{
		Source:    c.src,
		Schemas:   c.schemas,
		NameIndex: c.nameIndex,
		IDIndex:   c.idIndex,
	}
}

func (c *idlCompiler) addNode(n ParsedSchema) int {
	addr := len(c.schemas)
	c.schemas = append(c.schemas, n)
	return addr
}

// internString appends s's bytes to the schema's owned source buffer and
// returns a Span over the appended region, so that names and default
// values decoded from a JSON-form document (which doesn't otherwise borrow
// spans from raw source bytes) still satisfy the "every span borrows from
// CompiledSchema.Source" invariant the IDL path gets for free.
func (c *idlCompiler) internString(s string) Span {
	start := len(c.src)
	c.src = append(c.src, s...)
	return Span{start, len(c.src)}
}

func isSeparator(k NodeKind) bool {
	return k == NodeNewline || k == NodeSemicolon
}

// compileTop walks the flat node stream, splitting it into top-level
// statements at newline/semicolon boundaries and compiling each in turn.
func (c *idlCompiler) compileTop(nodes []Node) error {
	i := 0
	for i < len(nodes) {
		for i < len(nodes) && (isSeparator(nodes[i].Kind) || nodes[i].Kind == NodeComma) {
			i++
		}
		if i >= len(nodes) {
			break
		}
		start := i
		for i < len(nodes) && !isSeparator(nodes[i].Kind) {
			i++
		}
		stmt := nodes[start:i]
		if len(stmt) == 0 {
			continue
		}
		if err := c.parseTopLevelStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

// parseTopLevelStatement implements spec.md §4.2 step 2-7 for one
// top-level statement: classify the head, resolve the name, parse args,
// recurse into the body, and register the result in both indices.
func (c *idlCompiler) parseTopLevelStatement(nodes []Node) error {
	if len(nodes) == 0 {
		return nil
	}
	head := nodes[0]

	switch head.Kind {
	case NodeCurly:
		// A bare `{...}` statement is an anonymous struct; without a
		// following name/id it can only be meaningful as the sole body of
		// another construct, which is handled by their own callers. At
		// top level this is almost always a stray fragment; still parse
		// it for resilience but it will fail invariant checks for
		// lacking name/id.
		addr := c.addNode(ParsedSchema{Kind: KindStruct})
		c.currentTop = addr
		if err := c.fillStructFields(addr, head.Items); err != nil {
			return err
		}
		return nil
	case NodeParens:
		addr := c.addNode(ParsedSchema{Kind: KindTuple})
		c.currentTop = addr
		return c.fillTupleChildren(addr, head.Items)
	case NodeSquare:
		return c.parseArrayTopLevel(nodes)
	case NodeToken:
		return c.parseNamedTopLevel(nodes)
	default:
		return newErr(ErrParseError, "unexpected token at start of statement")
	}
}

func tokenText(n Node, src []byte) string {
	return n.Span.Text(src)
}

// parseNamedTopLevel handles every statement whose head is an identifier:
// primitives, generic container instantiations (`Vec<string> list [id:1]`),
// struct/enum/simple_enum/impl declarations, and references to a
// previously declared custom type.
func (c *idlCompiler) parseNamedTopLevel(nodes []Node) error {
	kwNode := nodes[0]
	kw := tokenText(kwNode, c.src)
	pos := 1

	kind, isKeyword := typeNames[kw]

	// Container generics used directly ("Vec<string> list [id:1]"): the
	// use-site generic args come immediately after the keyword, before
	// the declared name.
	var useGenerics []int
	if isKeyword && (kind == KindVec || kind == KindMap || kind == KindBox ||
		kind == KindOption || kind == KindResult) {
		if pos < len(nodes) && nodes[pos].Kind == NodeAngle {
			args, err := c.parseGenericArgList(nodes[pos].Items)
			if err != nil {
				return err
			}
			useGenerics = args
			pos++
		}
	}

	// "impl TargetName { methods }"
	if kw == "impl" {
		return c.parseImplBlock(nodes, pos)
	}

	// "__info[id:"...", version:"..."]" carries the schema's unique_id
	// inputs (spec.md §4.5) and has neither a declared name nor id of its
	// own.
	if kw == "__info" {
		return c.parseInfoBlock(nodes, pos)
	}

	var nameSpan Span
	hasName := false
	if pos < len(nodes) && nodes[pos].Kind == NodeToken {
		nameSpan = nodes[pos].Span
		hasName = true
		pos++
	}

	var declGenerics []string
	if pos < len(nodes) && nodes[pos].Kind == NodeAngle {
		declGenerics = c.parseGenericParamNames(nodes[pos].Items)
		pos++
	}

	var argsTree ArgTree
	hasArgs := false
	if pos < len(nodes) && nodes[pos].Kind == NodeSquare {
		tree, err := c.parseArgsList(nodes[pos].Items)
		if err != nil {
			return err
		}
		argsTree = tree
		hasArgs = true
		pos++
	}

	var body *Node
	if pos < len(nodes) && (nodes[pos].Kind == NodeCurly || nodes[pos].Kind == NodeParens) {
		body = &nodes[pos]
		pos++
	}

	addr := c.addNode(ParsedSchema{})
	c.currentTop = addr
	node := &c.schemas[addr]
	node.HasName = hasName
	node.Name = nameSpan
	if hasArgs {
		node.Args = argsTree
		// Picks up the id for every kind of declaration; a primitive's
		// kind-specific args are applied once its kind is set below.
		if err := c.applyArgs(node); err != nil {
			return err
		}
	}

	if len(declGenerics) > 0 {
		node.Generics = GenericsState{Kind: GenericsStateParent, SelfAddr: addr, ParamNames: declGenerics}
		c.genericScopes = append(c.genericScopes, genericScope{selfAddr: addr, params: declGenerics})
		defer func() { c.genericScopes = c.genericScopes[:len(c.genericScopes)-1] }()
	}

	switch {
	case isKeyword && (kind == KindVec || kind == KindMap || kind == KindBox || kind == KindOption):
		node.Kind = kind
		if len(useGenerics) > 0 {
			node.HasOf = true
			node.Of = useGenerics[0]
			node.Generics = GenericsState{Kind: GenericsStateTypes, ChildAddrs: useGenerics}
		}
	case isKeyword && kind == KindResult:
		node.Kind = KindResult
		if len(useGenerics) >= 2 {
			node.Ok, node.Err = useGenerics[0], useGenerics[1]
			node.Generics = GenericsState{Kind: GenericsStateTypes, ChildAddrs: useGenerics}
		}
	case kw == "struct":
		node.Kind = KindStruct
		if body != nil && body.Kind == NodeCurly {
			if err := c.fillStructFields(addr, body.Items); err != nil {
				return err
			}
		}
	case kw == "enum" || kw == "simple_enum":
		node.Kind = KindEnum
		if body != nil && body.Kind == NodeCurly {
			if err := c.fillEnumVariants(addr, body.Items); err != nil {
				return err
			}
		}
	case isKeyword:
		node.Kind = kind
		if err := c.applyArgs(node); err != nil {
			return err
		}
	default:
		// Custom reference, generic parameter use, or `self`.
		if kw == "self" {
			node.Kind = KindThis
			node.TargetAddr = c.currentTop
		} else if scopeIdx, paramIdx, ok := c.resolveGenericParam(kw); ok {
			node.Kind = KindGeneric
			node.TargetAddr = scopeIdx
			node.GenericIdx = paramIdx
		} else if target, ok := c.nameIndex.Get(kw); ok {
			node.Kind = KindCustom
			node.TargetAddr = target.DataAddr
			if len(useGenerics) > 0 {
				node.GenericArgs = useGenerics
			}
		} else {
			return newErrAt(ErrUnknownType, kw, "unknown type referenced at top level")
		}
	}

	return c.registerTopLevel(addr)
}

// parseInfoBlock parses the `__info[...]` statement into a KindInfo node
// whose Args carry the raw id/version text consumed later by schema.go's
// Compile/CompileJSON to derive CompiledSchema.UniqueID.
func (c *idlCompiler) parseInfoBlock(nodes []Node, pos int) error {
	if pos >= len(nodes) || nodes[pos].Kind != NodeSquare {
		return newErr(ErrParseError, "expected '[' after '__info'")
	}
	tree, err := c.parseArgsList(nodes[pos].Items)
	if err != nil {
		return err
	}
	addr := c.addNode(ParsedSchema{Kind: KindInfo, Args: tree})
	c.currentTop = addr
	return c.registerTopLevel(addr)
}

// registerTopLevel enforces spec.md §3's name/id invariants and updates the
// name/id indices for a freshly compiled top-level node. Info and Impl
// blocks are exempt from requiring both name and id.
func (c *idlCompiler) registerTopLevel(addr int) error {
	node := &c.schemas[addr]
	if node.Kind == KindImpl {
		return nil
	}
	if node.Kind != KindInfo {
		if !node.HasName {
			return newErr(ErrMissingName, "top-level type is missing a name")
		}
		if !node.HasID {
			return newErr(ErrMissingID, "top-level type is missing an id")
		}
	}
	if node.HasName {
		name := node.Name.Text(c.src)
		idx := SchemaIndex{DataAddr: addr}
		c.nameIndex.Set(name, idx)
		if node.HasID {
			id := int(node.ID)
			for len(c.idIndex) <= id {
				c.idIndex = append(c.idIndex, SchemaIndex{})
			}
			c.idIndex[id] = idx
			if node.ID > c.maxID {
				c.maxID = node.ID
			}
		}
	}
	return nil
}

func (c *idlCompiler) resolveGenericParam(name string) (selfAddr int, paramIdx int, ok bool) {
	for i := len(c.genericScopes) - 1; i >= 0; i-- {
		scope := c.genericScopes[i]
		for pi, p := range scope.params {
			if p == name {
				return scope.selfAddr, pi, true
			}
		}
	}
	return 0, 0, false
}

// parseTypeExprNested parses a single nested type expression — a struct
// field's type, a tuple element, a generic argument, an array's element
// type, an enum variant's payload element — with no name/id/args of its
// own attached (those belong only to top-level declarations).
func (c *idlCompiler) parseTypeExprNested(nodes []Node, pos int) (addr int, next int, err error) {
	if pos >= len(nodes) {
		return 0, pos, newErr(ErrParseError, "expected a type expression")
	}
	n := nodes[pos]
	switch n.Kind {
	case NodeCurly:
		addr = c.addNode(ParsedSchema{Kind: KindStruct})
		if err = c.fillStructFields(addr, n.Items); err != nil {
			return 0, pos, err
		}
		return addr, pos + 1, nil
	case NodeParens:
		addr = c.addNode(ParsedSchema{Kind: KindTuple})
		if err = c.fillTupleChildren(addr, n.Items); err != nil {
			return 0, pos, err
		}
		return addr, pos + 1, nil
	case NodeSquare:
		return c.parseArrayExpr(n.Items)
	case NodeToken:
		name := tokenText(n, c.src)
		pos++
		if name == "self" {
			addr = c.addNode(ParsedSchema{Kind: KindThis, TargetAddr: c.currentTop})
			return addr, pos, nil
		}
		if scopeAddr, paramIdx, ok := c.resolveGenericParam(name); ok {
			addr = c.addNode(ParsedSchema{Kind: KindGeneric, TargetAddr: scopeAddr, GenericIdx: paramIdx})
			return addr, pos, nil
		}
		if kind, ok := typeNames[name]; ok {
			node := ParsedSchema{Kind: kind}
			if pos < len(nodes) && nodes[pos].Kind == NodeAngle {
				switch kind {
				case KindVec, KindMap, KindBox, KindOption:
					args, aerr := c.parseGenericArgList(nodes[pos].Items)
					if aerr != nil {
						return 0, pos, aerr
					}
					if len(args) > 0 {
						node.HasOf = true
						node.Of = args[0]
					}
					pos++
				case KindResult:
					args, aerr := c.parseGenericArgList(nodes[pos].Items)
					if aerr != nil {
						return 0, pos, aerr
					}
					if len(args) >= 2 {
						node.Ok, node.Err = args[0], args[1]
					}
					pos++
				}
			}
			addr = c.addNode(node)
			return addr, pos, nil
		}
		target, ok := c.nameIndex.Get(name)
		if !ok {
			return 0, pos, newErrAt(ErrUnknownType, name, "unknown type referenced")
		}
		node := ParsedSchema{Kind: KindCustom, TargetAddr: target.DataAddr}
		if pos < len(nodes) && nodes[pos].Kind == NodeAngle {
			args, aerr := c.parseGenericArgList(nodes[pos].Items)
			if aerr != nil {
				return 0, pos, aerr
			}
			node.GenericArgs = args
			pos++
		}
		addr = c.addNode(node)
		return addr, pos, nil
	default:
		return 0, pos, newErr(ErrParseError, "unexpected token in type expression")
	}
}

// parseGenericArgList parses a comma-separated list of type expressions
// (the contents of an Angle node) into arena addresses.
func (c *idlCompiler) parseGenericArgList(items []Node) ([]int, error) {
	var addrs []int
	pos := 0
	for pos < len(items) {
		for pos < len(items) && items[pos].Kind == NodeComma {
			pos++
		}
		if pos >= len(items) {
			break
		}
		addr, next, err := c.parseTypeExprNested(items, pos)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
		pos = next
	}
	return addrs, nil
}

// parseGenericParamNames parses the contents of a declaration-site Angle
// node ("<X, Y>") into bare parameter names.
func (c *idlCompiler) parseGenericParamNames(items []Node) []string {
	var names []string
	for _, n := range items {
		if n.Kind == NodeToken {
			names = append(names, tokenText(n, c.src))
		}
	}
	return names
}

// parseArrayExpr parses `[typeExpr ; INT]` into an Array node; the schema
// arena keeps KindArray whatever the length (only buffer types are
// normalized to SmallArray).
func (c *idlCompiler) parseArrayExpr(items []Node) (addr int, next int, err error) {
	ofAddr, pos, err := c.parseTypeExprNested(items, 0)
	if err != nil {
		return 0, 0, err
	}
	if pos >= len(items) || items[pos].Kind != NodeSemicolon {
		return 0, 0, newErr(ErrParseError, "expected ';' in array type")
	}
	pos++
	if pos >= len(items) || items[pos].Kind != NodeNumber {
		return 0, 0, newErr(ErrParseError, "expected array length")
	}
	n, perr := strconv.ParseUint(tokenText(items[pos], c.src), 10, 32)
	if perr != nil {
		return 0, 0, newErr(ErrParseError, "invalid array length")
	}
	addr = c.addNode(ParsedSchema{Kind: KindArray, HasOf: true, Of: ofAddr, ArrayLen: uint32(n)})
	return addr, pos + 1, nil
}

func (c *idlCompiler) parseArrayTopLevel(nodes []Node) error {
	addr, pos, err := c.parseArrayExpr(nodes[0].Items)
	if err != nil {
		return err
	}
	c.currentTop = addr
	node := &c.schemas[addr]
	if pos < len(nodes) && nodes[pos].Kind == NodeToken {
		node.HasName = true
		node.Name = nodes[pos].Span
		pos++
	}
	if pos < len(nodes) && nodes[pos].Kind == NodeSquare {
		tree, aerr := c.parseArgsList(nodes[pos].Items)
		if aerr != nil {
			return aerr
		}
		node.Args = tree
		if err := c.applyArgs(node); err != nil {
			return err
		}
	}
	return c.registerTopLevel(addr)
}

// fillStructFields parses `{ name: typeExpr, ... }` into Children +
// ChildrenName on the struct at addr.
func (c *idlCompiler) fillStructFields(addr int, items []Node) error {
	pos := 0
	for pos < len(items) {
		for pos < len(items) && (items[pos].Kind == NodeComma || items[pos].Kind == NodeNewline) {
			pos++
		}
		if pos >= len(items) {
			break
		}
		if items[pos].Kind != NodeToken {
			return newErr(ErrParseError, "expected field name in struct")
		}
		fieldName := tokenText(items[pos], c.src)
		pos++
		if pos >= len(items) || items[pos].Kind != NodeColon {
			return newErr(ErrParseError, "expected ':' after struct field name")
		}
		pos++
		childAddr, next, err := c.parseTypeExprNested(items, pos)
		if err != nil {
			return err
		}
		pos = next
		c.schemas[addr].Children = append(c.schemas[addr].Children, childAddr)
		c.schemas[addr].ChildrenName = append(c.schemas[addr].ChildrenName, fieldName)
	}
	return nil
}

// fillTupleChildren parses `(typeExpr, typeExpr, ...)` into Children on
// the tuple at addr.
func (c *idlCompiler) fillTupleChildren(addr int, items []Node) error {
	pos := 0
	for pos < len(items) {
		for pos < len(items) && items[pos].Kind == NodeComma {
			pos++
		}
		if pos >= len(items) {
			break
		}
		childAddr, next, err := c.parseTypeExprNested(items, pos)
		if err != nil {
			return err
		}
		c.schemas[addr].Children = append(c.schemas[addr].Children, childAddr)
		pos = next
	}
	return nil
}

// fillEnumVariants parses `{ variant, variant(typeExpr,...), variant{fields}, ... }`.
// Each variant becomes a child ParsedSchema: Tuple if it has a parenthesized
// payload, Struct if a curly payload, or a payload-free placeholder
// (kind None) otherwise.
func (c *idlCompiler) fillEnumVariants(addr int, items []Node) error {
	pos := 0
	for pos < len(items) {
		for pos < len(items) && (items[pos].Kind == NodeComma || items[pos].Kind == NodeNewline) {
			pos++
		}
		if pos >= len(items) {
			break
		}
		if items[pos].Kind != NodeToken {
			return newErr(ErrParseError, "expected variant name in enum")
		}
		variantName := tokenText(items[pos], c.src)
		pos++
		var childAddr int
		if pos < len(items) && items[pos].Kind == NodeParens {
			childAddr = c.addNode(ParsedSchema{Kind: KindTuple})
			if err := c.fillTupleChildren(childAddr, items[pos].Items); err != nil {
				return err
			}
			pos++
		} else if pos < len(items) && items[pos].Kind == NodeCurly {
			childAddr = c.addNode(ParsedSchema{Kind: KindStruct})
			if err := c.fillStructFields(childAddr, items[pos].Items); err != nil {
				return err
			}
			pos++
		} else {
			childAddr = c.addNode(ParsedSchema{Kind: KindNone})
		}
		c.schemas[addr].Children = append(c.schemas[addr].Children, childAddr)
		c.schemas[addr].ChildrenName = append(c.schemas[addr].ChildrenName, variantName)
	}
	return nil
}

// parseImplBlock parses `impl TargetName { method(args) -> ret, ... }`.
func (c *idlCompiler) parseImplBlock(nodes []Node, pos int) error {
	if pos >= len(nodes) || nodes[pos].Kind != NodeToken {
		return newErr(ErrParseError, "expected target type name after 'impl'")
	}
	targetName := tokenText(nodes[pos], c.src)
	pos++
	target, ok := c.nameIndex.Get(targetName)
	if !ok {
		return newErrAt(ErrUnknownType, targetName, "impl block targets an undeclared type")
	}
	if pos >= len(nodes) || nodes[pos].Kind != NodeCurly {
		return newErr(ErrParseError, "expected '{' after impl target type")
	}
	body := nodes[pos].Items

	implAddr := c.addNode(ParsedSchema{Kind: KindImpl, TargetAddr: target.DataAddr})
	c.currentTop = implAddr

	items := body
	bpos := 0
	for bpos < len(items) {
		for bpos < len(items) && (items[bpos].Kind == NodeComma || items[bpos].Kind == NodeNewline) {
			bpos++
		}
		if bpos >= len(items) {
			break
		}
		if items[bpos].Kind != NodeToken {
			return newErr(ErrParseError, "expected method name in impl block")
		}
		methodName := tokenText(items[bpos], c.src)
		bpos++
		if bpos >= len(items) || items[bpos].Kind != NodeParens {
			return newErr(ErrParseError, "expected '(' after method name")
		}
		argAddrs, err := c.parseMethodParams(items[bpos].Items)
		if err != nil {
			return err
		}
		bpos++
		if bpos >= len(items) || items[bpos].Kind != NodeArrow {
			return newErr(ErrParseError, "expected '->' after method params")
		}
		bpos++
		retAddr, next, err := c.parseTypeExprNested(items, bpos)
		if err != nil {
			return err
		}
		bpos = next

		methodAddr := c.addNode(ParsedSchema{Kind: KindMethod, MethodArgs: argAddrs, MethodReturns: retAddr})
		c.schemas[implAddr].Children = append(c.schemas[implAddr].Children, methodAddr)
		c.schemas[implAddr].ChildrenName = append(c.schemas[implAddr].ChildrenName, methodName)
	}

	target.HasMethods = true
	target.MethodsAddr = implAddr
	c.nameIndex.Set(targetName, target)
	if int(c.schemas[target.DataAddr].ID) < len(c.idIndex) {
		c.idIndex[c.schemas[target.DataAddr].ID] = target
	}
	return nil
}

// parseMethodParams parses `name: typeExpr, ...` inside a method's
// parens, discarding the declared argument names (only their types matter
// to a Method's MethodArgs).
func (c *idlCompiler) parseMethodParams(items []Node) ([]int, error) {
	var addrs []int
	pos := 0
	for pos < len(items) {
		for pos < len(items) && items[pos].Kind == NodeComma {
			pos++
		}
		if pos >= len(items) {
			break
		}
		if items[pos].Kind == NodeToken && pos+1 < len(items) && items[pos+1].Kind == NodeColon {
			pos += 2
		}
		addr, next, err := c.parseTypeExprNested(items, pos)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
		pos = next
	}
	return addrs, nil
}
