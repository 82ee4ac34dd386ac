package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// NodeSpec is an object describing a node type.
type NodeSpec struct {
	// The name of the node type.
	Key string `json:"-"`
	// The content expression for this node, as described in the schema
	// guide. When not given, the node does not allow any content.
	Content string `json:"content,omitempty"`
	// The marks that are allowed inside of this node. May be a
	// space-separated string referring to mark names or groups, "_" to
	// explicitly allow all marks, or "" to disallow marks. When not given,
	// nodes with inline content default to allowing all marks, other nodes
	// default to not allowing marks.
	Marks *string `json:"marks,omitempty"`
	// The group or space-separated groups to which this node belongs, which
	// can be referred to in the content expressions for the schema.
	Group string `json:"group,omitempty"`
	// Should be set to true for inline nodes. (Implied for text nodes.)
	Inline bool `json:"inline,omitempty"`
	// Can be set to true to indicate that, though this isn't a leaf node, it
	// doesn't have directly editable content and should be treated as a
	// single unit.
	Atom bool `json:"atom,omitempty"`
	// The attributes that nodes of this type get.
	Attrs map[string]*AttributeSpec `json:"attrs,omitempty"`
	// Controls whether nodes of this type can be selected as a node
	// selection. Defaults to true for non-text nodes.
	Selectable *bool `json:"selectable,omitempty"`
	// Determines whether nodes of this type can be dragged.
	Draggable bool `json:"draggable,omitempty"`
	// Can be used to indicate that this node contains code.
	Code bool `json:"code,omitempty"`
	// Controls way whitespace in this node is parsed: "normal" or "pre".
	Whitespace string `json:"whitespace,omitempty"`
	// Determines whether this node is considered an important parent node
	// during replace operations (such as paste).
	DefiningAsContext *bool `json:"definingAsContext,omitempty"`
	// In inserted content the defining parents of the content are preserved
	// when possible.
	DefiningForContent *bool `json:"definingForContent,omitempty"`
	// When enabled, enables both DefiningAsContext and DefiningForContent.
	Defining bool `json:"defining,omitempty"`
	// When enabled, the sides of nodes of this type count as boundaries that
	// regular editing operations, like backspacing or lifting, won't cross.
	Isolating bool `json:"isolating,omitempty"`
	// Whether a gap cursor is allowed directly inside this node.
	AllowGapCursor *bool `json:"allowGapCursor,omitempty"`
	// Defines the default way a node of this type should be serialized to a
	// string representation for debugging.
	ToDebugString func(node *Node) string `json:"-"`
	// Defines the default way a leaf node of this type should be serialized
	// to a string (as used by TextBetween and TextContent).
	LeafText func(node *Node) string `json:"-"`
}

// MarkSpec is an object describing a mark type.
type MarkSpec struct {
	// The name of the mark type.
	Key string `json:"-"`
	// The attributes that marks of this type get.
	Attrs map[string]*AttributeSpec `json:"attrs,omitempty"`
	// Whether this mark should be active when the cursor is positioned at its
	// end (or at its start when that is also the start of the parent node).
	// Defaults to true.
	Inclusive *bool `json:"inclusive,omitempty"`
	// Determines which other marks this mark can coexist with. Should be a
	// space-separated strings naming other marks or groups of marks. When not
	// given, only marks of the same type are excluded. "" means no mark is
	// excluded, "_" means all marks are.
	Excludes *string `json:"excludes,omitempty"`
	// The group or space-separated groups to which this mark belongs.
	Group string `json:"group,omitempty"`
	// Determines whether marks of this type can span multiple adjacent nodes
	// when serialized to DOM/HTML. Defaults to true.
	Spanning *bool `json:"spanning,omitempty"`
	// Marks the content of this span as being code.
	Code bool `json:"code,omitempty"`
}

// AttributeSpec is used to define attributes on nodes or marks.
type AttributeSpec struct {
	// The default value for this attribute, to use when no explicit value is
	// provided. Attributes that have no default must be provided whenever a
	// node or mark of a type that has them is created.
	Default interface{}
	// HasDefault must be set when the default is nil. It is set when a
	// "default" key is present in the JSON spec.
	HasDefault bool
	// A "|"-separated list of primitive types (number, string, boolean,
	// null, object) that values of this attribute may have.
	Validate string
	// A function that validates the attribute value, used instead of
	// Validate when set.
	ValidateFunc func(value interface{}) error
}

// SchemaSpec is an object describing a schema, as passed to the Schema
// constructor.
type SchemaSpec struct {
	// The node types in this schema. The first one is the default top node.
	// The order in which they occur in the spec is significant: it
	// determines which type is used by default when several types match.
	Nodes []*NodeSpec
	// The mark types that exist in this schema. The order in which they are
	// provided determines the order in which mark sets are sorted.
	Marks []*MarkSpec
	// The name of the default top-level node for the schema. Defaults to
	// "doc".
	TopNode string
}

// Schema holds the node and mark types of a document. Every node in a
// document is tagged with a type from its schema.
type Schema struct {
	// The spec on which the schema is based.
	Spec *SchemaSpec
	// An object mapping the schema's node names to node type objects.
	Nodes map[string]*NodeType
	// A map from mark names to mark type objects.
	Marks map[string]*MarkType
	// The type of the default top node for this schema.
	TopNodeType *NodeType

	nodeList []*NodeType
	markList []*MarkType
}

// NewSchema constructs a schema from a schema specification.
func NewSchema(spec *SchemaSpec) (*Schema, error) {
	schema := &Schema{
		Spec:  spec,
		Nodes: map[string]*NodeType{},
		Marks: map[string]*MarkType{},
	}

	for i, ns := range spec.Nodes {
		if ns.Key == "" {
			return nil, errors.New("Node spec without a name")
		}
		if _, ok := schema.Nodes[ns.Key]; ok {
			return nil, fmt.Errorf("Duplicate node type %s", ns.Key)
		}
		typ, err := newNodeType(ns.Key, schema, ns, i)
		if err != nil {
			return nil, err
		}
		schema.Nodes[ns.Key] = typ
		schema.nodeList = append(schema.nodeList, typ)
	}
	topName := spec.TopNode
	if topName == "" {
		topName = "doc"
	}
	top, ok := schema.Nodes[topName]
	if !ok {
		return nil, fmt.Errorf("Schema is missing its top node type ('%s')", topName)
	}
	schema.TopNodeType = top
	text, ok := schema.Nodes["text"]
	if !ok {
		return nil, errors.New("Every schema needs a 'text' type")
	}
	if len(text.Attrs) > 0 {
		return nil, errors.New("The text node type should not have attributes")
	}

	for i, ms := range spec.Marks {
		if ms.Key == "" {
			return nil, errors.New("Mark spec without a name")
		}
		if _, ok := schema.Nodes[ms.Key]; ok {
			return nil, fmt.Errorf("%s can not be both a node and a mark", ms.Key)
		}
		if _, ok := schema.Marks[ms.Key]; ok {
			return nil, fmt.Errorf("Duplicate mark type %s", ms.Key)
		}
		typ, err := newMarkType(ms.Key, i, schema, ms)
		if err != nil {
			return nil, err
		}
		schema.Marks[ms.Key] = typ
		schema.markList = append(schema.markList, typ)
	}

	contentExprCache := map[string]*ContentMatch{}
	for _, typ := range schema.nodeList {
		contentExpr := typ.Spec.Content
		match, ok := contentExprCache[contentExpr]
		if !ok {
			var err error
			match, err = parseContentMatch(contentExpr, schema)
			if err != nil {
				return nil, err
			}
			contentExprCache[contentExpr] = match
		}
		typ.ContentMatch = match
		typ.inlineContent = match.inlineContent()

		markExpr := typ.Spec.Marks
		switch {
		case markExpr != nil && *markExpr == "_":
			typ.MarkSet = nil
		case markExpr != nil && *markExpr != "":
			set, err := gatherMarks(schema, strings.Fields(*markExpr))
			if err != nil {
				return nil, err
			}
			typ.MarkSet = set
		case markExpr != nil || !typ.inlineContent:
			typ.MarkSet = []*MarkType{}
		default:
			typ.MarkSet = nil
		}
	}
	for _, typ := range schema.markList {
		excl := typ.Spec.Excludes
		switch {
		case excl == nil:
			typ.excluded = []*MarkType{typ}
		case *excl == "":
			typ.excluded = []*MarkType{}
		default:
			set, err := gatherMarks(schema, strings.Fields(*excl))
			if err != nil {
				return nil, err
			}
			typ.excluded = set
		}
	}
	return schema, nil
}

func gatherMarks(schema *Schema, marks []string) ([]*MarkType, error) {
	var found []*MarkType
	for _, name := range marks {
		if mark, ok := schema.Marks[name]; ok {
			found = append(found, mark)
			continue
		}
		ok := false
		for _, mark := range schema.markList {
			if name == "_" || hasWord(mark.Spec.Group, name) {
				found = append(found, mark)
				ok = true
			}
		}
		if !ok {
			return nil, fmt.Errorf("Unknown mark type: '%s'", name)
		}
	}
	if found == nil {
		found = []*MarkType{}
	}
	return found, nil
}

func hasWord(list, word string) bool {
	for _, w := range strings.Fields(list) {
		if w == word {
			return true
		}
	}
	return false
}

// NodeType returns the node type with the given name.
func (s *Schema) NodeType(name string) (*NodeType, error) {
	if typ, ok := s.Nodes[name]; ok {
		return typ, nil
	}
	return nil, fmt.Errorf("Unknown node type: %s", name)
}

// MarkType returns the mark type with the given name.
func (s *Schema) MarkType(name string) (*MarkType, error) {
	if typ, ok := s.Marks[name]; ok {
		return typ, nil
	}
	return nil, fmt.Errorf("Unknown mark type: %s", name)
}

// NodeTypes returns the node types of the schema, in the order of the spec.
func (s *Schema) NodeTypes() []*NodeType {
	return s.nodeList
}

// Node creates a node in this schema. The typ may be a string or a NodeType
// instance. Attributes will be extended with defaults, content may be a
// Fragment, nil, a Node, or an array of nodes.
func (s *Schema) Node(typ interface{}, attrs map[string]interface{}, content interface{}, marks []*Mark) (*Node, error) {
	var nodeType *NodeType
	switch t := typ.(type) {
	case string:
		var err error
		if nodeType, err = s.NodeType(t); err != nil {
			return nil, err
		}
	case *NodeType:
		if t.Schema != s {
			return nil, fmt.Errorf("Node type from different schema used (%s)", t.Name)
		}
		nodeType = t
	default:
		return nil, fmt.Errorf("Invalid node type: %v", typ)
	}
	return nodeType.CreateChecked(attrs, content, marks)
}

// Text creates a text node in the schema. Empty text nodes are not allowed.
func (s *Schema) Text(text string, marks ...*Mark) *Node {
	if text == "" {
		panic(errors.New("Empty text nodes are not allowed"))
	}
	typ := s.Nodes["text"]
	return NewTextNode(typ, typ.DefaultAttrs, text, MarkSetFrom(marks...))
}

// Mark creates a mark with the given type and attributes. It panics if the
// type doesn't exist or the attributes are invalid.
func (s *Schema) Mark(typ interface{}, attrs ...map[string]interface{}) *Mark {
	var markType *MarkType
	switch t := typ.(type) {
	case string:
		var err error
		if markType, err = s.MarkType(t); err != nil {
			panic(err)
		}
	case *MarkType:
		markType = t
	default:
		panic(fmt.Errorf("Invalid mark type: %v", typ))
	}
	var a map[string]interface{}
	if len(attrs) > 0 {
		a = attrs[0]
	}
	return markType.Create(a)
}

// NodeFromJSON deserializes a node from its JSON representation.
func (s *Schema) NodeFromJSON(raw interface{}) (*Node, error) {
	return NodeFromJSON(s, raw)
}

// MarkFromJSON deserializes a mark from its JSON representation.
func (s *Schema) MarkFromJSON(raw interface{}) (*Mark, error) {
	return MarkFromJSON(s, raw)
}

// NodeType are objects allocated once per Schema and used to tag Node
// instances. They contain information about the node type, such as its name
// and what kind of node it represents.
type NodeType struct {
	// The name the node type has in this schema.
	Name string
	// A link back to the Schema the node type belongs to.
	Schema *Schema
	// The spec that this type is based on.
	Spec *NodeSpec
	// The groups this node type belongs to.
	Groups []string
	// The attributes of this node type.
	Attrs map[string]*Attribute
	// The attributes to use when none are given, or nil when some
	// attributes are required.
	DefaultAttrs map[string]interface{}
	// The starting match of the node type's content expression.
	ContentMatch *ContentMatch
	// The set of marks allowed in this node. nil means that all marks are
	// allowed.
	MarkSet []*MarkType

	rank          int
	block         bool
	text          bool
	inlineContent bool
}

func newNodeType(name string, schema *Schema, spec *NodeSpec, rank int) (*NodeType, error) {
	attrs, err := initAttrs(name, spec.Attrs)
	if err != nil {
		return nil, err
	}
	typ := &NodeType{
		Name:   name,
		Schema: schema,
		Spec:   spec,
		Groups: strings.Fields(spec.Group),
		Attrs:  attrs,
		rank:   rank,
		block:  !(spec.Inline || name == "text"),
		text:   name == "text",
	}
	typ.DefaultAttrs = defaultAttrs(attrs)
	return typ, nil
}

// IsBlock is true if this is a block type.
func (nt *NodeType) IsBlock() bool {
	return nt.block
}

// IsText is true if this is the text node type.
func (nt *NodeType) IsText() bool {
	return nt.text
}

// IsInline is true if this is an inline type.
func (nt *NodeType) IsInline() bool {
	return !nt.block
}

// InlineContent is true if this node type has inline content.
func (nt *NodeType) InlineContent() bool {
	return nt.inlineContent
}

// IsTextblock is true if this is a textblock type, a block that contains
// inline content.
func (nt *NodeType) IsTextblock() bool {
	return nt.block && nt.inlineContent
}

// IsLeaf is true for node types that allow no content.
func (nt *NodeType) IsLeaf() bool {
	return nt.ContentMatch == EmptyContentMatch
}

// IsAtom is true when this node is an atom, i.e. when it does not have
// directly editable content.
func (nt *NodeType) IsAtom() bool {
	return nt.IsLeaf() || nt.Spec.Atom
}

// IsInGroup returns true when this node type is part of the given group.
func (nt *NodeType) IsInGroup(group string) bool {
	for _, g := range nt.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// Whitespace is the node type's whitespace option: "pre" or "normal".
func (nt *NodeType) Whitespace() string {
	if nt.Spec.Whitespace != "" {
		return nt.Spec.Whitespace
	}
	if nt.Spec.Code {
		return "pre"
	}
	return "normal"
}

// HasRequiredAttrs tells you whether this node type has any required
// attributes.
func (nt *NodeType) HasRequiredAttrs() bool {
	for _, attr := range nt.Attrs {
		if attr.IsRequired() {
			return true
		}
	}
	return false
}

// CompatibleContent indicates whether this node allows some of the same
// content as the given node type.
func (nt *NodeType) CompatibleContent(other *NodeType) bool {
	return nt == other || nt.ContentMatch.compatible(other.ContentMatch)
}

func (nt *NodeType) computeAttrs(attrs map[string]interface{}) (map[string]interface{}, error) {
	if attrs == nil && nt.DefaultAttrs != nil {
		return nt.DefaultAttrs, nil
	}
	return computeAttrs(nt.Attrs, attrs)
}

// Create a Node of this type. The given attributes are checked and
// defaulted (you can pass nil to use the type's defaults entirely, if no
// required attributes exist). content may be a Fragment, a node, an array of
// nodes, or nil. Similarly marks may be nil to default to the empty set of
// marks.
func (nt *NodeType) Create(attrs map[string]interface{}, content interface{}, marks []*Mark) (*Node, error) {
	if nt.text {
		return nil, errors.New("NodeType.create can't construct text nodes")
	}
	computed, err := nt.computeAttrs(attrs)
	if err != nil {
		return nil, err
	}
	frag, err := FragmentFrom(content)
	if err != nil {
		return nil, err
	}
	return NewNode(nt, computed, frag, MarkSetFrom(marks...)), nil
}

// CreateChecked is like Create, but checks the given content against the
// node type's content restrictions, and returns an error if it doesn't
// match.
func (nt *NodeType) CreateChecked(attrs map[string]interface{}, content interface{}, marks []*Mark) (*Node, error) {
	frag, err := FragmentFrom(content)
	if err != nil {
		return nil, err
	}
	if err := nt.CheckContent(frag); err != nil {
		return nil, err
	}
	computed, err := nt.computeAttrs(attrs)
	if err != nil {
		return nil, err
	}
	return NewNode(nt, computed, frag, MarkSetFrom(marks...)), nil
}

// CreateAndFill is like Create, but sees if it is necessary to add nodes to
// the start or end of the given fragment to make it fit the node. If no
// fitting wrapping can be found, it returns nil. Note that, due to the fact
// that required nodes can always be created, this will always succeed if
// you pass nil or EmptyFragment as content. The optional arguments are the
// attributes, the content and the marks.
func (nt *NodeType) CreateAndFill(args ...interface{}) (*Node, error) {
	var attrs map[string]interface{}
	var content interface{}
	var marks []*Mark
	if len(args) > 0 && args[0] != nil {
		attrs, _ = args[0].(map[string]interface{})
	}
	if len(args) > 1 {
		content = args[1]
	}
	if len(args) > 2 && args[2] != nil {
		marks, _ = args[2].([]*Mark)
	}
	computed, err := nt.computeAttrs(attrs)
	if err != nil {
		return nil, err
	}
	frag, err := FragmentFrom(content)
	if err != nil {
		return nil, err
	}
	if frag.Size > 0 {
		before := nt.ContentMatch.FillBefore(frag, false)
		if before == nil {
			return nil, nil
		}
		frag = before.Append(frag)
	}
	matched := nt.ContentMatch.MatchFragment(frag)
	if matched == nil {
		return nil, nil
	}
	after := matched.FillBefore(EmptyFragment, true)
	if after == nil {
		return nil, nil
	}
	return NewNode(nt, computed, frag.Append(after), MarkSetFrom(marks...)), nil
}

// ValidContent returns true if the given fragment is valid content for this
// node type.
func (nt *NodeType) ValidContent(content *Fragment) bool {
	result := nt.ContentMatch.MatchFragment(content)
	if result == nil || !result.ValidEnd {
		return false
	}
	for _, child := range content.Content {
		if !nt.AllowsMarks(child.Marks) {
			return false
		}
	}
	return true
}

// CheckContent returns an error if the given fragment is not valid content
// for this node type.
func (nt *NodeType) CheckContent(content *Fragment) error {
	if !nt.ValidContent(content) {
		str := content.String()
		if len(str) > 50 {
			str = str[:50]
		}
		return fmt.Errorf("Invalid content for node %s: %s", nt.Name, str)
	}
	return nil
}

func (nt *NodeType) checkAttrs(attrs map[string]interface{}) error {
	return checkAttrs(nt.Attrs, attrs, "node", nt.Name)
}

// AllowsMarkType checks whether the given mark type is allowed in this node.
func (nt *NodeType) AllowsMarkType(markType *MarkType) bool {
	if nt.MarkSet == nil {
		return true
	}
	for _, m := range nt.MarkSet {
		if m == markType {
			return true
		}
	}
	return false
}

// AllowsMarks tests whether the given set of marks are allowed in this node.
func (nt *NodeType) AllowsMarks(marks []*Mark) bool {
	if nt.MarkSet == nil {
		return true
	}
	for _, m := range marks {
		if !nt.AllowsMarkType(m.Type) {
			return false
		}
	}
	return true
}

// AllowedMarks removes the marks that are not allowed in this node from the
// given set.
func (nt *NodeType) AllowedMarks(marks []*Mark) []*Mark {
	if nt.MarkSet == nil {
		return marks
	}
	var cpy []*Mark
	for i, m := range marks {
		if !nt.AllowsMarkType(m.Type) {
			if cpy == nil {
				cpy = append([]*Mark{}, marks[:i]...)
			}
		} else if cpy != nil {
			cpy = append(cpy, m)
		}
	}
	if cpy == nil {
		return marks
	}
	if len(cpy) == 0 {
		return NoMarks
	}
	return cpy
}

func (nt *NodeType) String() string {
	return nt.Name
}

// Attribute is the compiled version of an AttributeSpec.
type Attribute struct {
	Default    interface{}
	HasDefault bool
	validate   func(value interface{}) error
}

// IsRequired is true when a value must be given for the attribute.
func (a *Attribute) IsRequired() bool {
	return !a.HasDefault
}

func initAttrs(typeName string, specs map[string]*AttributeSpec) (map[string]*Attribute, error) {
	attrs := map[string]*Attribute{}
	for name, spec := range specs {
		if spec == nil {
			spec = &AttributeSpec{}
		}
		attr := &Attribute{
			Default:    spec.Default,
			HasDefault: spec.HasDefault || spec.Default != nil,
		}
		switch {
		case spec.ValidateFunc != nil:
			attr.validate = spec.ValidateFunc
		case spec.Validate != "":
			attr.validate = validateType(typeName, name, spec.Validate)
		}
		attrs[name] = attr
	}
	return attrs, nil
}

func validateType(typeName, attrName, types string) func(value interface{}) error {
	allowed := strings.Split(types, "|")
	return func(value interface{}) error {
		rawType := jsonTypeOf(value)
		for _, t := range allowed {
			if t == rawType {
				return nil
			}
		}
		return fmt.Errorf("Expected value of type %s for attribute %s on type %s, got %s",
			strings.Join(allowed, ","), attrName, typeName, rawType)
	}
}

func jsonTypeOf(value interface{}) string {
	if value == nil {
		return "null"
	}
	if _, ok := toFloat(value); ok {
		return "number"
	}
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	}
	return "object"
}

func defaultAttrs(attrs map[string]*Attribute) map[string]interface{} {
	defaults := map[string]interface{}{}
	for name, attr := range attrs {
		if !attr.HasDefault {
			return nil
		}
		defaults[name] = attr.Default
	}
	return defaults
}

func computeAttrs(attrs map[string]*Attribute, value map[string]interface{}) (map[string]interface{}, error) {
	built := map[string]interface{}{}
	for _, name := range sortedAttrNames(attrs) {
		given, ok := value[name]
		if !ok {
			attr := attrs[name]
			if !attr.HasDefault {
				return nil, fmt.Errorf("No value supplied for attribute %s", name)
			}
			given = attr.Default
		}
		built[name] = given
	}
	return built, nil
}

func checkAttrs(attrs map[string]*Attribute, values map[string]interface{}, kind, typeName string) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := attrs[name]; !ok {
			return fmt.Errorf("Unsupported attribute %s for %s of type %s", name, kind, typeName)
		}
	}
	for _, name := range sortedAttrNames(attrs) {
		if attr := attrs[name]; attr.validate != nil {
			if err := attr.validate(values[name]); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortedAttrNames(attrs map[string]*Attribute) []string {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MarkType is the type object for marks. Like nodes, marks (which are
// associated with nodes to signify things like emphasis or being part of a
// link) are tagged with type objects, which are instantiated once per
// Schema.
type MarkType struct {
	// The name of the mark type.
	Name string
	// The rank of the mark type, which determines the order of marks in a
	// set.
	Rank int
	// The schema that this mark type instance is part of.
	Schema *Schema
	// The spec on which the type is based.
	Spec *MarkSpec
	// The attributes of this mark type.
	Attrs map[string]*Attribute

	excluded []*MarkType
	instance *Mark
}

func newMarkType(name string, rank int, schema *Schema, spec *MarkSpec) (*MarkType, error) {
	attrs, err := initAttrs(name, spec.Attrs)
	if err != nil {
		return nil, err
	}
	mt := &MarkType{Name: name, Rank: rank, Schema: schema, Spec: spec, Attrs: attrs}
	if defaults := defaultAttrs(attrs); defaults != nil {
		mt.instance = NewMark(mt, defaults)
	}
	return mt, nil
}

// Create a mark of this type. attrs may be nil or an object containing only
// some of the mark's attributes. The others, if they have defaults, will be
// added. It panics when a required attribute is missing.
func (mt *MarkType) Create(attrs map[string]interface{}) *Mark {
	mark, err := mt.create(attrs)
	if err != nil {
		panic(err)
	}
	return mark
}

func (mt *MarkType) create(attrs map[string]interface{}) (*Mark, error) {
	if attrs == nil && mt.instance != nil {
		return mt.instance, nil
	}
	computed, err := computeAttrs(mt.Attrs, attrs)
	if err != nil {
		return nil, err
	}
	return NewMark(mt, computed), nil
}

// RemoveFromSet, when there is a mark of this type in the given set, returns
// a new set without it. Otherwise, the input set is returned.
func (mt *MarkType) RemoveFromSet(set []*Mark) []*Mark {
	for i, m := range set {
		if m.Type == mt {
			cpy := make([]*Mark, 0, len(set)-1)
			cpy = append(cpy, set[:i]...)
			return append(cpy, set[i+1:]...)
		}
	}
	return set
}

// IsInSet tests whether there is a mark of this type in the given set.
func (mt *MarkType) IsInSet(set []*Mark) *Mark {
	for _, m := range set {
		if m.Type == mt {
			return m
		}
	}
	return nil
}

// Excludes queries whether a given mark type is excluded by this one.
func (mt *MarkType) Excludes(other *MarkType) bool {
	for _, m := range mt.excluded {
		if m == other {
			return true
		}
	}
	return false
}

// IsInclusive tells if the mark should be active at its end.
func (mt *MarkType) IsInclusive() bool {
	return mt.Spec.Inclusive == nil || *mt.Spec.Inclusive
}

func (mt *MarkType) checkAttrs(attrs map[string]interface{}) error {
	return checkAttrs(mt.Attrs, attrs, "mark", mt.Name)
}

func (mt *MarkType) String() string {
	return mt.Name
}
