package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"
)

// MatchEdge is an outgoing edge of a ContentMatch: matching a node of Type
// leads to the Next state.
type MatchEdge struct {
	Type *NodeType
	Next *ContentMatch
}

// ContentMatch represents a match state of a node type's content expression,
// and can be used to find out whether further content matches here, and
// whether a given position is a valid end of the node.
type ContentMatch struct {
	// True when this match state represents a valid end of the node.
	ValidEnd bool
	next     []MatchEdge

	wrapMu    sync.Mutex
	wrapCache map[*NodeType]wrapResult
}

type wrapResult struct {
	types []*NodeType
	ok    bool
}

// NewContentMatch is the constructor for ContentMatch.
func NewContentMatch(validEnd bool) *ContentMatch {
	return &ContentMatch{ValidEnd: validEnd}
}

// EmptyContentMatch is the match state of the empty content expression.
var EmptyContentMatch = NewContentMatch(true)

// ParseContentMatch compiles a content expression into a deterministic
// automaton. The node types are looked up, by name or group, in the given
// map.
func ParseContentMatch(str string, nodeTypes map[string]*NodeType) (*ContentMatch, error) {
	stream := newTokenStream(str, nodeTypes)
	if stream.next() == nil {
		return EmptyContentMatch, nil
	}
	expr, err := parseExpr(stream)
	if err != nil {
		return nil, err
	}
	if stream.next() != nil {
		return nil, stream.err("Unexpected trailing text")
	}
	match := dfa(nfa(expr))
	if err := checkForDeadEnds(match, stream); err != nil {
		return nil, err
	}
	return match, nil
}

func parseContentMatch(str string, schema *Schema) (*ContentMatch, error) {
	return ParseContentMatch(str, schema.Nodes)
}

// MatchType matches a node type, returning a match after that node if
// successful.
func (cm *ContentMatch) MatchType(typ *NodeType) *ContentMatch {
	for _, edge := range cm.next {
		if edge.Type == typ {
			return edge.Next
		}
	}
	return nil
}

// MatchFragment tries to match a fragment. Returns the resulting match when
// successful. The optional arguments are the start and end indexes of the
// children to match.
func (cm *ContentMatch) MatchFragment(frag *Fragment, args ...int) *ContentMatch {
	cur := cm
	start, end := 0, frag.ChildCount()
	if len(args) > 0 {
		start = args[0]
	}
	if len(args) > 1 {
		end = args[1]
	}
	for i := start; cur != nil && i < end; i++ {
		cur = cur.MatchType(frag.Content[i].Type)
	}
	return cur
}

func (cm *ContentMatch) inlineContent() bool {
	return len(cm.next) != 0 && cm.next[0].Type.IsInline()
}

// DefaultType gets the first matching node type at this match position that
// can be generated.
func (cm *ContentMatch) DefaultType() *NodeType {
	for _, edge := range cm.next {
		if !(edge.Type.IsText() || edge.Type.HasRequiredAttrs()) {
			return edge.Type
		}
	}
	return nil
}

func (cm *ContentMatch) compatible(other *ContentMatch) bool {
	for _, a := range cm.next {
		for _, b := range other.next {
			if a.Type == b.Type {
				return true
			}
		}
	}
	return false
}

// FillBefore tries to match the given fragment, and if that fails, sees if
// it can be made to match by inserting nodes in front of it. When
// successful, returns a fragment of inserted nodes (which may be empty if
// nothing had to be inserted). When toEnd is true, only returns a fragment
// if the resulting match goes to the end of the content expression.
func (cm *ContentMatch) FillBefore(after *Fragment, toEnd bool, startIndex ...int) *Fragment {
	start := 0
	if len(startIndex) > 0 {
		start = startIndex[0]
	}
	type item struct {
		match *ContentMatch
		types []*NodeType
	}
	seen := map[*ContentMatch]bool{cm: true}
	active := []item{{match: cm}}
	for len(active) > 0 {
		current := active[0]
		active = active[1:]
		finished := current.match.MatchFragment(after, start)
		if finished != nil && (!toEnd || finished.ValidEnd) {
			nodes := make([]*Node, 0, len(current.types))
			for _, typ := range current.types {
				node, err := typ.CreateAndFill()
				if err != nil || node == nil {
					return nil
				}
				nodes = append(nodes, node)
			}
			return FragmentFromArray(nodes)
		}
		for _, edge := range current.match.next {
			if edge.Type.IsText() || edge.Type.HasRequiredAttrs() || seen[edge.Next] {
				continue
			}
			seen[edge.Next] = true
			types := make([]*NodeType, len(current.types), len(current.types)+1)
			copy(types, current.types)
			active = append(active, item{match: edge.Next, types: append(types, edge.Type)})
		}
	}
	return nil
}

// FindWrapping finds a set of wrapping node types that would allow a node of
// the given type to appear at this position. The result may be empty (when
// it fits directly) and the boolean is false when no valid wrapping exists.
func (cm *ContentMatch) FindWrapping(target *NodeType) ([]*NodeType, bool) {
	cm.wrapMu.Lock()
	defer cm.wrapMu.Unlock()
	if cached, ok := cm.wrapCache[target]; ok {
		return cached.types, cached.ok
	}
	types, ok := cm.computeWrapping(target)
	if cm.wrapCache == nil {
		cm.wrapCache = map[*NodeType]wrapResult{}
	}
	cm.wrapCache[target] = wrapResult{types: types, ok: ok}
	return types, ok
}

func (cm *ContentMatch) computeWrapping(target *NodeType) ([]*NodeType, bool) {
	type item struct {
		match *ContentMatch
		typ   *NodeType
		via   *item
	}
	seen := map[string]bool{}
	active := []*item{{match: cm}}
	for len(active) > 0 {
		current := active[0]
		active = active[1:]
		if current.match.MatchType(target) != nil {
			result := []*NodeType{}
			for obj := current; obj.typ != nil; obj = obj.via {
				result = append(result, obj.typ)
			}
			for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
				result[i], result[j] = result[j], result[i]
			}
			return result, true
		}
		for _, edge := range current.match.next {
			typ := edge.Type
			if !typ.IsLeaf() && !typ.HasRequiredAttrs() && !seen[typ.Name] &&
				(current.typ == nil || edge.Next.ValidEnd) {
				active = append(active, &item{match: typ.ContentMatch, typ: typ, via: current})
				seen[typ.Name] = true
			}
		}
	}
	return nil, false
}

// EdgeCount is the number of outgoing edges this node has in the finite
// automaton that describes the content expression.
func (cm *ContentMatch) EdgeCount() int {
	return len(cm.next)
}

// Edge gets the nth outgoing edge from this node in the finite automaton
// that describes the content expression.
func (cm *ContentMatch) Edge(n int) (MatchEdge, error) {
	if n < 0 || n >= len(cm.next) {
		return MatchEdge{}, fmt.Errorf("There's no %dth edge in this content match", n)
	}
	return cm.next[n], nil
}

// String returns a description of the automaton, for debugging.
func (cm *ContentMatch) String() string {
	var seen []*ContentMatch
	indexOf := func(m *ContentMatch) int {
		for i, s := range seen {
			if s == m {
				return i
			}
		}
		return -1
	}
	var scan func(m *ContentMatch)
	scan = func(m *ContentMatch) {
		seen = append(seen, m)
		for _, edge := range m.next {
			if indexOf(edge.Next) == -1 {
				scan(edge.Next)
			}
		}
	}
	scan(cm)
	lines := make([]string, len(seen))
	for i, m := range seen {
		var sb strings.Builder
		sb.WriteString(strconv.Itoa(i))
		if m.ValidEnd {
			sb.WriteString("* ")
		} else {
			sb.WriteString("  ")
		}
		for j, edge := range m.next {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s->%d", edge.Type.Name, indexOf(edge.Next))
		}
		lines[i] = sb.String()
	}
	return strings.Join(lines, "\n")
}

type tokenStream struct {
	str       string
	nodeTypes map[string]*NodeType
	inline    *bool
	pos       int
	tokens    []string
}

func newTokenStream(str string, nodeTypes map[string]*NodeType) *tokenStream {
	return &tokenStream{
		str:       str,
		nodeTypes: nodeTypes,
		tokens:    tokenize(str),
	}
}

// tokenize splits an expression into words and single non-word characters.
func tokenize(str string) []string {
	var tokens []string
	runes := []rune(str)
	for i := 0; i < len(runes); {
		switch {
		case unicode.IsSpace(runes[i]):
			i++
		case isWordChar(runes[i]):
			j := i
			for j < len(runes) && isWordChar(runes[j]) {
				j++
			}
			tokens = append(tokens, string(runes[i:j]))
			i = j
		default:
			tokens = append(tokens, string(runes[i]))
			i++
		}
	}
	return tokens
}

func isWordChar(c rune) bool {
	return c == '_' || '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func (ts *tokenStream) next() *string {
	if ts.pos >= len(ts.tokens) {
		return nil
	}
	return &ts.tokens[ts.pos]
}

func (ts *tokenStream) eat(tok string) bool {
	if s := ts.next(); s == nil || *s != tok {
		return false
	}
	ts.pos++
	return true
}

func (ts *tokenStream) err(format string, args ...interface{}) error {
	str := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s (in content expression '%s')", str, ts.str)
}

type exprType struct {
	Type  string
	Exprs []*exprType
	Expr  *exprType
	Min   int
	Max   int
	Value *NodeType
}

func parseExpr(stream *tokenStream) (*exprType, error) {
	exprs := []*exprType{}
	for {
		seq, err := parseExprSeq(stream)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, seq)
		if !stream.eat("|") {
			break
		}
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &exprType{Type: "choice", Exprs: exprs}, nil
}

func parseExprSeq(stream *tokenStream) (*exprType, error) {
	exprs := []*exprType{}
	for {
		sub, err := parseExprSubscript(stream)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, sub)
		if s := stream.next(); s == nil || *s == ")" || *s == "|" {
			break
		}
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &exprType{Type: "seq", Exprs: exprs}, nil
}

func parseExprSubscript(stream *tokenStream) (*exprType, error) {
	expr, err := parseExprAtom(stream)
	if err != nil {
		return nil, err
	}
	for {
		if stream.eat("+") {
			expr = &exprType{Type: "plus", Expr: expr}
		} else if stream.eat("*") {
			expr = &exprType{Type: "star", Expr: expr}
		} else if stream.eat("?") {
			expr = &exprType{Type: "opt", Expr: expr}
		} else if stream.eat("{") {
			expr, err = parseExprRange(stream, expr)
			if err != nil {
				return nil, err
			}
		} else {
			break
		}
	}
	return expr, nil
}

func parseNum(stream *tokenStream) (int, error) {
	s := stream.next()
	if s == nil {
		return 0, stream.err("Expected number, got end of expression")
	}
	result, err := strconv.Atoi(*s)
	if err != nil {
		return 0, stream.err("Expected number, got '%s'", *s)
	}
	stream.pos++
	return result, nil
}

func parseExprRange(stream *tokenStream, expr *exprType) (*exprType, error) {
	min, err := parseNum(stream)
	if err != nil {
		return nil, err
	}
	max := min
	if stream.eat(",") {
		if s := stream.next(); s != nil && *s != "}" {
			max, err = parseNum(stream)
			if err != nil {
				return nil, err
			}
		} else {
			max = -1
		}
	}
	if !stream.eat("}") {
		return nil, stream.err("Unclosed braced range")
	}
	return &exprType{Type: "range", Min: min, Max: max, Expr: expr}, nil
}

func resolveName(stream *tokenStream, name string) ([]*NodeType, error) {
	types := stream.nodeTypes
	if typ, ok := types[name]; ok {
		return []*NodeType{typ}, nil
	}
	var result []*NodeType
	for _, typ := range types {
		if typ.IsInGroup(name) {
			result = append(result, typ)
		}
	}
	if len(result) == 0 {
		return nil, stream.err("No node type or group '%s' found", name)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].rank < result[j].rank })
	return result, nil
}

func parseExprAtom(stream *tokenStream) (*exprType, error) {
	if stream.eat("(") {
		expr, err := parseExpr(stream)
		if err != nil {
			return nil, err
		}
		if !stream.eat(")") {
			return nil, stream.err("Missing closing paren")
		}
		return expr, nil
	}

	s := stream.next()
	if s == nil {
		return nil, stream.err("Unexpected end of expression")
	}
	if !isWordChar([]rune(*s)[0]) {
		return nil, stream.err("Unexpected token '%s'", *s)
	}
	types, err := resolveName(stream, *s)
	if err != nil {
		return nil, err
	}
	exprs := make([]*exprType, 0, len(types))
	for _, typ := range types {
		inline := typ.IsInline()
		if stream.inline == nil {
			stream.inline = &inline
		} else if *stream.inline != inline {
			return nil, stream.err("Mixing inline and block content")
		}
		exprs = append(exprs, &exprType{Type: "name", Value: typ})
	}
	stream.pos++
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &exprType{Type: "choice", Exprs: exprs}, nil
}

// The code below helps compile a regular-expression-like language into a
// deterministic finite automaton.

type nfaEdge struct {
	term *NodeType
	to   int
}

type nfaGraph [][]*nfaEdge

func nfa(expr *exprType) nfaGraph {
	graph := nfaGraph{{}}
	node := func() int {
		graph = append(graph, []*nfaEdge{})
		return len(graph) - 1
	}
	edge := func(from int, to int, term *NodeType) *nfaEdge {
		e := &nfaEdge{term: term, to: to}
		graph[from] = append(graph[from], e)
		return e
	}
	connect := func(edges []*nfaEdge, to int) {
		for _, e := range edges {
			e.to = to
		}
	}

	var compile func(expr *exprType, from int) []*nfaEdge
	compile = func(expr *exprType, from int) []*nfaEdge {
		switch expr.Type {
		case "choice":
			var out []*nfaEdge
			for _, e := range expr.Exprs {
				out = append(out, compile(e, from)...)
			}
			return out
		case "seq":
			for i := 0; ; i++ {
				next := compile(expr.Exprs[i], from)
				if i == len(expr.Exprs)-1 {
					return next
				}
				from = node()
				connect(next, from)
			}
		case "star":
			loop := node()
			edge(from, loop, nil)
			connect(compile(expr.Expr, loop), loop)
			return []*nfaEdge{edge(loop, -1, nil)}
		case "plus":
			loop := node()
			connect(compile(expr.Expr, from), loop)
			connect(compile(expr.Expr, loop), loop)
			return []*nfaEdge{edge(loop, -1, nil)}
		case "opt":
			return append([]*nfaEdge{edge(from, -1, nil)}, compile(expr.Expr, from)...)
		case "range":
			cur := from
			for i := 0; i < expr.Min; i++ {
				next := node()
				connect(compile(expr.Expr, cur), next)
				cur = next
			}
			if expr.Max == -1 {
				connect(compile(expr.Expr, cur), cur)
			} else {
				for i := expr.Min; i < expr.Max; i++ {
					next := node()
					edge(cur, next, nil)
					connect(compile(expr.Expr, cur), next)
					cur = next
				}
			}
			return []*nfaEdge{edge(cur, -1, nil)}
		case "name":
			return []*nfaEdge{edge(from, -1, expr.Value)}
		}
		panic(fmt.Errorf("Unknown expr type %s", expr.Type))
	}

	connect(compile(expr, 0), node())
	return graph
}

// nullFrom returns the sorted set of states reachable from node through
// null edges.
func nullFrom(graph nfaGraph, node int) []int {
	var result []int
	contains := func(n int) bool {
		for _, r := range result {
			if r == n {
				return true
			}
		}
		return false
	}
	var scan func(node int)
	scan = func(node int) {
		edges := graph[node]
		if len(edges) == 1 && edges[0].term == nil {
			scan(edges[0].to)
			return
		}
		result = append(result, node)
		for _, e := range edges {
			if e.term == nil && !contains(e.to) {
				scan(e.to)
			}
		}
	}
	scan(node)
	sort.Ints(result)
	return result
}

func stateKey(states []int) string {
	parts := make([]string, len(states))
	for i, s := range states {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ",")
}

// dfa converts the NFA to a DFA with the subset construction.
func dfa(graph nfaGraph) *ContentMatch {
	labeled := map[string]*ContentMatch{}
	type termSet struct {
		term   *NodeType
		states []int
	}

	var explore func(states []int) *ContentMatch
	explore = func(states []int) *ContentMatch {
		var out []*termSet
		for _, node := range states {
			for _, e := range graph[node] {
				if e.term == nil {
					continue
				}
				var set *termSet
				for _, o := range out {
					if o.term == e.term {
						set = o
					}
				}
				for _, n := range nullFrom(graph, e.to) {
					if set == nil {
						set = &termSet{term: e.term}
						out = append(out, set)
					}
					found := false
					for _, s := range set.states {
						if s == n {
							found = true
						}
					}
					if !found {
						set.states = append(set.states, n)
					}
				}
			}
		}
		validEnd := false
		for _, s := range states {
			if s == len(graph)-1 {
				validEnd = true
			}
		}
		state := NewContentMatch(validEnd)
		labeled[stateKey(states)] = state
		for _, o := range out {
			sort.Ints(o.states)
			next, ok := labeled[stateKey(o.states)]
			if !ok {
				next = explore(o.states)
			}
			state.next = append(state.next, MatchEdge{Type: o.term, Next: next})
		}
		return state
	}
	return explore(nullFrom(graph, 0))
}

func checkForDeadEnds(match *ContentMatch, stream *tokenStream) error {
	work := []*ContentMatch{match}
	for i := 0; i < len(work); i++ {
		state := work[i]
		dead := !state.ValidEnd
		var nodes []string
		for _, edge := range state.next {
			nodes = append(nodes, edge.Type.Name)
			if dead && !(edge.Type.IsText() || edge.Type.HasRequiredAttrs()) {
				dead = false
			}
			known := false
			for _, w := range work {
				if w == edge.Next {
					known = true
				}
			}
			if !known {
				work = append(work, edge.Next)
			}
		}
		if dead {
			return stream.err("Only non-generatable nodes (%s) in a required position", strings.Join(nodes, ", "))
		}
	}
	return nil
}
