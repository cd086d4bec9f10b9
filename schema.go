package noproto

// Casing constrains a String or Char field's accepted casing, enforced
// with golang.org/x/text/cases (see schema_validate.go).
type Casing uint8

const (
	CasingNone Casing = iota
	CasingUpper
	CasingLower
)

// GenericsKind discriminates the GenericsState variants from spec.md §3.
type GenericsKind uint8

const (
	GenericsStateNone GenericsKind = iota
	GenericsStateParent
	GenericsStateTypes
)

// GenericsState records whether a ParsedSchema declares generic parameters
// (Parent) or is itself a use of another generic type with concrete
// argument addresses (Types).
type GenericsState struct {
	Kind       GenericsKind
	SelfAddr   int
	ParamNames []string
	ChildAddrs []int
}

// ParsedSchema is one node in a CompiledSchema's flat arena, per spec.md
// §3. Mirroring kaptinlin-jsonschema's Schema struct, every variant's
// payload lives as optional fields on one flat type rather than as a Go sum
// type — the arena stores `[]ParsedSchema` and children are addressed by
// index, never by pointer, so cyclic/self-referential schemas (struct
// fields referring to a type declared later, This-recursion) are
// representable without unsafe tricks.
type ParsedSchema struct {
	Kind TypeKind

	HasName bool
	Name    Span
	HasID   bool
	ID      uint16

	Args     ArgTree
	Generics GenericsState

	Offset uint32
	Size   uint32

	// String / Char
	HasDefaultStr bool
	DefaultStr    Span
	Casing        Casing
	MaxLen        uint32
	HasMaxLen     bool

	// Integer / Uint kinds
	HasDefaultInt bool
	DefaultInt    int64
	HasMin        bool
	Min           int64
	HasMax        bool
	Max           int64

	// Float / Exp kinds
	HasDefaultFloat bool
	DefaultFloat    float64
	HasMinFloat     bool
	MinFloat        float64
	HasMaxFloat     bool
	MaxFloat        float64
	Exp             uint8

	// Bool
	HasDefaultBool bool
	DefaultBool    bool

	// Single-child collections: Vec, List, Map, Box, Option, Array,
	// SmallArray, Generic (parent addr reuses TargetAddr).
	HasOf    bool
	Of       int
	ArrayLen uint32

	// Result
	Ok  int
	Err int

	// Struct / Tuple / Enum / SimpleEnum / Impl: ordered children plus,
	// for Struct fields and Enum/SimpleEnum variants and Impl methods,
	// parallel declared names.
	Children     []int
	ChildrenName []string

	// Enum / SimpleEnum
	HasDefaultIdx bool
	DefaultIdx    int

	// Custom, Generic, This, Portal (parse-time only)
	TargetAddr  int
	GenericArgs []int
	GenericIdx  int

	// Method
	MethodArgs    []int
	MethodReturns int

	// Portal: parse-time-only representation of an unresolved This
	// reference (see DESIGN.md's Open Question O2). Never observed on a
	// ParsedSchema once schema_portal.go's resolution pass completes.
	PortalPending bool
	PortalPath    string
}

// SchemaIndex is the value type stored in both name_index and id_index: the
// address of a type's data node, plus the address of its Impl block if one
// was declared.
type SchemaIndex struct {
	DataAddr    int
	HasMethods  bool
	MethodsAddr int
}

// CompiledSchema is the output of schema compilation: the owned source
// bytes every Span in the arena borrows from, the flat ParsedSchema arena,
// the name/id indices, and the cross-party identity hash.
type CompiledSchema struct {
	Source    []byte
	Schemas   []ParsedSchema
	NameIndex *OMap[SchemaIndex]
	IDIndex   []SchemaIndex
	UniqueID  uint32
}

// internString appends s's bytes to the schema's own owned source buffer
// and returns a Span over the appended region, mirroring idlCompiler's own
// internString (schema_idl.go) for post-compile rewrites such as
// applyCasing's normalized defaults.
func (c *CompiledSchema) internString(s string) Span {
	start := len(c.Source)
	c.Source = append(c.Source, s...)
	return Span{start, len(c.Source)}
}

// Name resolves a ParsedSchema's declared name against the owning schema's
// source bytes.
func (c *CompiledSchema) Name(addr int) string {
	s := &c.Schemas[addr]
	if !s.HasName {
		return ""
	}
	return s.Name.Text(c.Source)
}

// ResolveName looks up a top-level type by its declared name.
func (c *CompiledSchema) ResolveName(name string) (SchemaIndex, bool) {
	return c.NameIndex.Get(name)
}

// ResolveID looks up a top-level type by its declared numeric id.
func (c *CompiledSchema) ResolveID(id uint16) (SchemaIndex, bool) {
	if int(id) >= len(c.IDIndex) {
		return SchemaIndex{}, false
	}
	idx := c.IDIndex[id]
	if idx.DataAddr == 0 && int(id) != 0 {
		// address zero is only a legitimate id-0 slot; every other sparse
		// slot defaults to the zero value and is treated as absent.
		if _, ok := c.NameIndex.Get(c.Name(0)); !ok || c.Schemas[0].ID != id {
			return SchemaIndex{}, false
		}
	}
	return idx, true
}

// Compile parses IDL source into a CompiledSchema. It is the primary entry
// point described in spec.md §4.2's top-level loop.
func Compile(source []byte) (*CompiledSchema, error) {
	nodes, err := Lex(source)
	if err != nil {
		return nil, err
	}
	c := newIDLCompiler(source)
	if err := c.compileTop(nodes); err != nil {
		return nil, err
	}
	cs := c.schema()
	if err := resolvePortals(cs); err != nil {
		return nil, err
	}
	if err := finalizeSchema(cs); err != nil {
		return nil, err
	}
	cs.UniqueID = computeUniqueID(cs)
	return cs, nil
}

// CompileJSON parses a JSON-form schema document (spec.md §4.2's "two
// surface syntaxes, one AST" note) into a CompiledSchema.
func CompileJSON(source []byte) (*CompiledSchema, error) {
	val, err := ParseValue(source)
	if err != nil {
		return nil, err
	}
	return CompileValue(val)
}

// CompileValue compiles an already-parsed Value tree, the shared entry
// point CompileJSON and Compiler.CompileYAML both funnel through (YAML
// ingestion walks its own parsed AST into a Value first, see
// compiler.go's valueFromYAMLNode).
func CompileValue(val *Value) (*CompiledSchema, error) {
	c := newIDLCompiler(nil)
	if err := c.compileJSONTop(val); err != nil {
		return nil, err
	}
	cs := c.schema()
	if err := resolvePortals(cs); err != nil {
		return nil, err
	}
	if err := finalizeSchema(cs); err != nil {
		return nil, err
	}
	cs.UniqueID = computeUniqueID(cs)
	return cs, nil
}

// computeUniqueID scans for a top-level `__info[...]` block and derives
// CompiledSchema.UniqueID from its id/version args, per spec.md §4.5. A
// schema with no __info block gets unique_id 0.
func computeUniqueID(cs *CompiledSchema) uint32 {
	for i := range cs.Schemas {
		s := &cs.Schemas[i]
		if s.Kind != KindInfo {
			continue
		}
		var idText, versionText string
		if leaf, ok := s.Args.Query("id"); ok {
			idText = leaf.Text(cs.Source)
		}
		if leaf, ok := s.Args.Query("version"); ok {
			versionText = leaf.Text(cs.Source)
		}
		return uniqueID(idText, versionText)
	}
	return 0
}
