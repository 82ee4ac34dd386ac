package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// NBCallback is the callback of NodesBetween. It is called with the node,
// its position, its parent and its index in the parent. When it returns
// false, the children of the node are skipped.
type NBCallback func(node *Node, pos int, parent *Node, index int) bool

// This class represents a node in the tree that makes up a ProseMirror
// document. So a document is an instance of Node, with children that are also
// instances of Node.
//
// Nodes are persistent data structures. Instead of changing them, you create
// new ones with the content you want. Old ones keep pointing at the old
// document shape. This is made cheaper by sharing structure between the old
// and new data as much as possible, which a tree shape like this (without back
// pointers) makes easy.
//
// Do not directly mutate the properties of a Node object.
type Node struct {
	// The type of node that this is.
	Type *NodeType
	// An object mapping attribute names to values. The kind of attributes
	// allowed and required are determined by the node type.
	Attrs map[string]interface{}
	// A container holding the node's children.
	Content *Fragment
	// For text nodes, this contains the node's text content.
	Text *string
	// The marks (things like whether it is emphasized or part of a link)
	// applied to this node.
	Marks []*Mark

	resolved atomic.Pointer[lru.Cache[int, *ResolvedPos]]
}

// NewNode is the constructor for non-text nodes.
func NewNode(typ *NodeType, attrs map[string]interface{}, content *Fragment, marks []*Mark) *Node {
	if content == nil {
		content = EmptyFragment
	}
	if marks == nil {
		marks = NoMarks
	}
	return &Node{Type: typ, Attrs: attrs, Content: content, Marks: marks}
}

// NewTextNode is the constructor for text nodes.
func NewTextNode(typ *NodeType, attrs map[string]interface{}, text string, marks []*Mark) *Node {
	if marks == nil {
		marks = NoMarks
	}
	return &Node{Type: typ, Attrs: attrs, Text: &text, Content: EmptyFragment, Marks: marks}
}

// NodeSize is the size of this node, as defined by the integer-based
// indexing scheme. For text nodes, this is the amount of characters (in
// UTF-16 code units). For other leaf nodes, it is one. For non-leaf nodes,
// it is the size of the content plus two (the start and end token).
func (n *Node) NodeSize() int {
	if n.IsText() {
		return TextLength(*n.Text)
	}
	if n.IsLeaf() {
		return 1
	}
	return 2 + n.Content.Size
}

// ChildCount is the number of children that the node has.
func (n *Node) ChildCount() int {
	return n.Content.ChildCount()
}

// Child gets the child node at the given index. Returns an error when the
// index is out of range.
func (n *Node) Child(index int) (*Node, error) {
	return n.Content.Child(index)
}

// MaybeChild gets the child node at the given index, if it exists.
func (n *Node) MaybeChild(index int) *Node {
	return n.Content.MaybeChild(index)
}

// FirstChild returns this node's first child, or nil if there are no
// children.
func (n *Node) FirstChild() *Node {
	return n.Content.FirstChild()
}

// LastChild returns this node's last child, or nil if there are no
// children.
func (n *Node) LastChild() *Node {
	return n.Content.LastChild()
}

// ForEach calls fn for every child node, passing the node, its offset into
// this parent node, and its index.
func (n *Node) ForEach(fn func(node *Node, offset int, index int)) {
	n.Content.ForEach(fn)
}

// NodesBetween invokes a callback for all descendant nodes recursively
// between the given two positions that are relative to start of this node's
// content. The last parameter can be used to specify a starting position to
// count from.
func (n *Node) NodesBetween(from, to int, fn NBCallback, startPos ...int) {
	s := 0
	if len(startPos) > 0 {
		s = startPos[0]
	}
	n.Content.NodesBetween(from, to, fn, s, n)
}

// Descendants calls the given callback for every descendant node.
func (n *Node) Descendants(fn NBCallback) {
	n.NodesBetween(0, n.Content.Size, fn)
}

// TextContent concatenates all the text nodes found in this fragment and its
// children.
func (n *Node) TextContent() string {
	if n.IsText() {
		return *n.Text
	}
	if n.IsLeaf() && n.Type.Spec.LeafText != nil {
		return n.Type.Spec.LeafText(n)
	}
	return n.TextBetween(0, n.Content.Size, "")
}

// TextBetween gets all text between positions from and to. When
// blockSeparator is given, it will be inserted to separate text from
// different block nodes. If leafText is given, it'll be inserted for every
// non-text leaf node encountered.
func (n *Node) TextBetween(from, to int, args ...string) string {
	if n.IsText() {
		return sliceText(*n.Text, from, to)
	}
	return n.Content.TextBetween(from, to, args...)
}

// Eq tests whether two nodes represent the same piece of document.
func (n *Node) Eq(other *Node) bool {
	if n == other {
		return true
	}
	if other == nil || !n.SameMarkup(other) {
		return false
	}
	if n.IsText() {
		return other.IsText() && *n.Text == *other.Text
	}
	return n.Content.Eq(other.Content)
}

// SameMarkup compares the markup (type, attributes, and marks) of this node
// to those of another. Returns true if both have the same markup.
func (n *Node) SameMarkup(other *Node) bool {
	return n.HasMarkup(other.Type, other.Attrs, other.Marks)
}

// HasMarkup checks whether this node's markup correspond to the given type,
// attributes, and marks. nil attributes mean the type's default attributes
// and nil marks the empty set.
func (n *Node) HasMarkup(typ *NodeType, attrs map[string]interface{}, marks []*Mark) bool {
	if n.Type != typ {
		return false
	}
	if attrs == nil {
		attrs = typ.DefaultAttrs
	}
	if !compareAttrs(n.Attrs, attrs) {
		return false
	}
	if marks == nil {
		marks = NoMarks
	}
	return SameMarkSet(n.Marks, marks)
}

// Copy creates a new node with the same markup as this node, containing the
// given content (or empty, if no content is given).
func (n *Node) Copy(content ...*Fragment) *Node {
	c := EmptyFragment
	if len(content) > 0 && content[0] != nil {
		c = content[0]
	}
	if c == n.Content {
		return n
	}
	return NewNode(n.Type, n.Attrs, c, n.Marks)
}

// Mark creates a copy of this node, with the given set of marks instead of
// the node's own marks.
func (n *Node) Mark(marks []*Mark) *Node {
	if SameMarkSet(n.Marks, marks) {
		return n
	}
	if n.IsText() {
		return NewTextNode(n.Type, n.Attrs, *n.Text, marks)
	}
	return NewNode(n.Type, n.Attrs, n.Content, marks)
}

// WithText creates a copy of this text node with the given text.
func (n *Node) WithText(text string) *Node {
	if text == *n.Text {
		return n
	}
	return NewTextNode(n.Type, n.Attrs, text, n.Marks)
}

// Cut creates a copy of this node with only the content between the given
// positions. If to is not given, it defaults to the end of the node.
func (n *Node) Cut(from int, to ...int) *Node {
	if n.IsText() {
		t := TextLength(*n.Text)
		if len(to) > 0 {
			t = to[0]
		}
		if from == 0 && t == TextLength(*n.Text) {
			return n
		}
		return n.WithText(sliceText(*n.Text, from, t))
	}
	t := n.Content.Size
	if len(to) > 0 {
		t = to[0]
	}
	if from == 0 && t == n.Content.Size {
		return n
	}
	return n.Copy(n.Content.Cut(from, t))
}

// Slice cuts out the part of the document between the given positions, and
// returns it as a Slice object.
func (n *Node) Slice(from int, to ...int) (*Slice, error) {
	t := n.Content.Size
	if len(to) > 0 {
		t = to[0]
	}
	return n.slice(from, t, false)
}

// SliceWithParents is like Slice, but the slice is opened up to the
// document root, so that the ancestors of the range are included.
func (n *Node) SliceWithParents(from, to int) (*Slice, error) {
	return n.slice(from, to, true)
}

func (n *Node) slice(from, to int, includeParents bool) (*Slice, error) {
	if from == to {
		return EmptySlice, nil
	}
	rFrom, err := n.Resolve(from)
	if err != nil {
		return nil, err
	}
	rTo, err := n.Resolve(to)
	if err != nil {
		return nil, err
	}
	depth := 0
	if !includeParents {
		depth = rFrom.SharedDepth(to)
	}
	start := rFrom.Start(depth)
	node := rFrom.Node(depth)
	content := node.Content.Cut(rFrom.Pos-start, rTo.Pos-start)
	return NewSlice(content, rFrom.Depth-depth, rTo.Depth-depth), nil
}

// Replace the part of the document between the given positions with the
// given slice. The slice must 'fit', meaning its open sides must be able to
// connect to the surrounding content, and its content nodes must be valid
// children for the node they are placed into. If any of this is violated, an
// error of type ReplaceError is returned.
func (n *Node) Replace(from, to int, slice *Slice) (*Node, error) {
	rFrom, err := n.Resolve(from)
	if err != nil {
		return nil, err
	}
	rTo, err := n.Resolve(to)
	if err != nil {
		return nil, err
	}
	return replace(rFrom, rTo, slice)
}

// NodeAt finds the node directly after the given position. It returns nil
// when there is none.
func (n *Node) NodeAt(pos int) *Node {
	node := n
	for {
		index, offset, err := node.Content.FindIndex(pos)
		if err != nil {
			return nil
		}
		node = node.MaybeChild(index)
		if node == nil {
			return nil
		}
		if offset == pos || node.IsText() {
			return node
		}
		pos -= offset + 1
	}
}

// ChildInfo describes a child node with its index and offset in its parent.
type ChildInfo struct {
	Node   *Node
	Index  int
	Offset int
}

// ChildAfter finds the (direct) child node after the given offset, if any,
// and return it along with its index and offset relative to this node.
func (n *Node) ChildAfter(pos int) (ChildInfo, error) {
	index, offset, err := n.Content.FindIndex(pos)
	if err != nil {
		return ChildInfo{}, err
	}
	return ChildInfo{Node: n.Content.MaybeChild(index), Index: index, Offset: offset}, nil
}

// ChildBefore finds the (direct) child node before the given offset, if
// any, and return it along with its index and offset relative to this node.
func (n *Node) ChildBefore(pos int) (ChildInfo, error) {
	if pos == 0 {
		return ChildInfo{}, nil
	}
	index, offset, err := n.Content.FindIndex(pos)
	if err != nil {
		return ChildInfo{}, err
	}
	if offset < pos {
		return ChildInfo{Node: n.Content.Content[index], Index: index, Offset: offset}, nil
	}
	node := n.Content.Content[index-1]
	return ChildInfo{Node: node, Index: index - 1, Offset: offset - node.NodeSize()}, nil
}

// Resolve the given position in the document, returning an object with
// information about its context.
func (n *Node) Resolve(pos int) (*ResolvedPos, error) {
	return resolvePosCached(n, pos)
}

// ResolveNoCache resolves a position without going through the cache.
func (n *Node) ResolveNoCache(pos int) (*ResolvedPos, error) {
	return resolvePos(n, pos)
}

// RangeHasMark tests whether a given mark or mark type (a *Mark or a
// *MarkType) occurs in this document between the two given positions.
func (n *Node) RangeHasMark(from, to int, typ interface{}) bool {
	found := false
	if to > from {
		n.NodesBetween(from, to, func(node *Node, _ int, _ *Node, _ int) bool {
			switch t := typ.(type) {
			case *Mark:
				found = found || t.IsInSet(node.Marks)
			case *MarkType:
				found = found || t.IsInSet(node.Marks) != nil
			}
			return !found
		})
	}
	return found
}

// IsBlock is true when this is a block (non-inline node).
func (n *Node) IsBlock() bool {
	return n.Type.IsBlock()
}

// IsTextblock is true when this is a textblock node, a block node with
// inline content.
func (n *Node) IsTextblock() bool {
	return n.Type.IsTextblock()
}

// InlineContent is true when this node allows inline content.
func (n *Node) InlineContent() bool {
	return n.Type.InlineContent()
}

// IsInline is true when this is an inline node (a text node or a node that
// can appear among text).
func (n *Node) IsInline() bool {
	return n.Type.IsInline()
}

// IsText is true when this is a text node.
func (n *Node) IsText() bool {
	return n.Text != nil
}

// IsLeaf is true when this is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.Type.IsLeaf()
}

// IsAtom is true when this is an atom, i.e. when it does not have directly
// editable content. This is usually the same as IsLeaf, but can be
// configured with the atom property on a node's spec.
func (n *Node) IsAtom() bool {
	return n.Type.IsAtom()
}

// String returns a string representation of this node for debugging
// purposes.
func (n *Node) String() string {
	if n.Type.Spec.ToDebugString != nil {
		return n.Type.Spec.ToDebugString(n)
	}
	if n.IsText() {
		return wrapMarks(n.Marks, fmt.Sprintf("%q", *n.Text))
	}
	name := n.Type.Name
	if n.Content.Size > 0 {
		name += fmt.Sprintf("(%s)", n.Content.toStringInner())
	}
	return wrapMarks(n.Marks, name)
}

// ContentMatchAt gets the content match in this node at the given index.
func (n *Node) ContentMatchAt(index int) (*ContentMatch, error) {
	match := n.Type.ContentMatch.MatchFragment(n.Content, 0, index)
	if match == nil {
		return nil, errors.New("Called contentMatchAt on a node with invalid content")
	}
	return match, nil
}

// CanReplace tests whether replacing the range between from and to (by
// child index) with the given replacement fragment (which defaults to the
// empty fragment) would leave the node's content valid. You can optionally
// pass start and end indices into the replacement fragment.
func (n *Node) CanReplace(from, to int, replacement *Fragment, startEnd ...int) bool {
	if replacement == nil {
		replacement = EmptyFragment
	}
	start, end := 0, replacement.ChildCount()
	if len(startEnd) > 0 {
		start = startEnd[0]
	}
	if len(startEnd) > 1 {
		end = startEnd[1]
	}
	match, err := n.ContentMatchAt(from)
	if err != nil {
		return false
	}
	one := match.MatchFragment(replacement, start, end)
	if one == nil {
		return false
	}
	two := one.MatchFragment(n.Content, to)
	if two == nil || !two.ValidEnd {
		return false
	}
	for i := start; i < end; i++ {
		if !n.Type.AllowsMarks(replacement.Content[i].Marks) {
			return false
		}
	}
	return true
}

// CanReplaceWith tests whether replacing the range from to to (by index)
// with a node of the given type would leave the node's content valid. The
// marks are checked when not nil.
func (n *Node) CanReplaceWith(from, to int, typ *NodeType, marks []*Mark) bool {
	if marks != nil && !n.Type.AllowsMarks(marks) {
		return false
	}
	match, err := n.ContentMatchAt(from)
	if err != nil {
		return false
	}
	start := match.MatchType(typ)
	if start == nil {
		return false
	}
	end := start.MatchFragment(n.Content, to)
	return end != nil && end.ValidEnd
}

// CanAppend tests whether the given node's content could be appended to this
// node. If that node is empty, this will only return true if there is at
// least one node type that can appear in both nodes (to avoid merging
// completely incompatible nodes).
func (n *Node) CanAppend(other *Node) bool {
	if other.Content.Size > 0 {
		return n.CanReplace(n.ChildCount(), n.ChildCount(), other.Content)
	}
	return n.Type.CompatibleContent(other.Type)
}

// Check that this node and all its descendants conform to the schema, and
// return an error when they do not.
func (n *Node) Check() error {
	if err := n.Type.CheckContent(n.Content); err != nil {
		return err
	}
	if err := n.Type.checkAttrs(n.Attrs); err != nil {
		return err
	}
	cpy := NoMarks
	for _, mark := range n.Marks {
		if err := mark.Type.checkAttrs(mark.Attrs); err != nil {
			return err
		}
		cpy = mark.AddToSet(cpy)
	}
	if !SameMarkSet(cpy, n.Marks) {
		names := make([]string, len(n.Marks))
		for i, m := range n.Marks {
			names[i] = m.Type.Name
		}
		return fmt.Errorf("Invalid collection of marks for node %s: %s", n.Type.Name, strings.Join(names, ","))
	}
	for _, child := range n.Content.Content {
		if err := child.Check(); err != nil {
			return err
		}
	}
	return nil
}

// ToJSON returns a JSON-serializeable representation of this node.
func (n *Node) ToJSON() map[string]interface{} {
	obj := map[string]interface{}{"type": n.Type.Name}
	if len(n.Attrs) > 0 {
		obj["attrs"] = n.Attrs
	}
	if n.IsText() {
		obj["text"] = *n.Text
	} else if n.Content.Size > 0 {
		obj["content"] = n.Content.ToJSON()
	}
	if len(n.Marks) > 0 {
		obj["marks"] = marksToJSON(n.Marks)
	}
	return obj
}

// MarshalJSON encodes the node with its ToJSON representation.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.ToJSON())
}

// NodeFromJSON deserializes a node from its JSON representation.
func NodeFromJSON(schema *Schema, raw interface{}) (*Node, error) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, errors.New("Invalid input for Node.fromJSON")
	}
	var marks []*Mark
	if rawMarks, ok := obj["marks"]; ok && rawMarks != nil {
		list, ok := rawMarks.([]interface{})
		if !ok {
			return nil, errors.New("Invalid mark data for Node.fromJSON")
		}
		for _, m := range list {
			mark, err := MarkFromJSON(schema, m)
			if err != nil {
				return nil, err
			}
			marks = append(marks, mark)
		}
	}
	if obj["type"] == "text" {
		text, ok := obj["text"].(string)
		if !ok {
			return nil, errors.New("Invalid text node in JSON")
		}
		if text == "" {
			return nil, errors.New("Empty text nodes are not allowed")
		}
		return schema.Text(text, marks...), nil
	}
	content, err := FragmentFromJSON(schema, obj["content"])
	if err != nil {
		return nil, err
	}
	name, _ := obj["type"].(string)
	typ, err := schema.NodeType(name)
	if err != nil {
		return nil, err
	}
	attrs, _ := obj["attrs"].(map[string]interface{})
	node, err := typ.Create(attrs, content, marks)
	if err != nil {
		return nil, err
	}
	if err := typ.checkAttrs(node.Attrs); err != nil {
		return nil, err
	}
	return node, nil
}

func wrapMarks(marks []*Mark, str string) string {
	for i := len(marks) - 1; i >= 0; i-- {
		str = fmt.Sprintf("%s(%s)", marks[i].Type.Name, str)
	}
	return str
}
