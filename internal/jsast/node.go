package jsast

import sitter "github.com/smacker/go-tree-sitter"

// Node is a syntax tree node bound to its file's source. The zero Node is
// valid and reports KindUnknown for every query.
type Node struct {
	raw *sitter.Node
	src []byte
}

func (n Node) wrap(raw *sitter.Node) Node {
	if raw == nil || raw.IsNull() {
		return Node{}
	}
	return Node{raw: raw, src: n.src}
}

// IsZero reports whether the node is absent.
func (n Node) IsZero() bool {
	return n.raw == nil
}

// Kind returns the node's shape.
func (n Node) Kind() Kind {
	if n.raw == nil {
		return KindUnknown
	}
	return kindOf(n.raw.Type())
}

// Type returns the raw grammar node type.
func (n Node) Type() string {
	if n.raw == nil {
		return ""
	}
	return n.raw.Type()
}

// Text returns the exact source text covered by the node.
func (n Node) Text() string {
	if n.raw == nil {
		return ""
	}
	return n.raw.Content(n.src)
}

// Line returns the 1-based line the node starts on.
func (n Node) Line() int {
	if n.raw == nil {
		return 0
	}
	return int(n.raw.StartPoint().Row) + 1
}

// Field returns the child stored under a grammar field name.
func (n Node) Field(name string) Node {
	if n.raw == nil {
		return Node{}
	}
	return n.wrap(n.raw.ChildByFieldName(name))
}

// Children returns the named children, comments excluded.
func (n Node) Children() []Node {
	if n.raw == nil {
		return nil
	}
	count := int(n.raw.NamedChildCount())
	out := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		child := n.wrap(n.raw.NamedChild(i))
		if child.IsZero() || child.Kind() == KindComment {
			continue
		}
		out = append(out, child)
	}
	return out
}

// Args returns the argument list of a call or new expression. Tagged
// templates and argument-less constructors yield nil.
func (n Node) Args() []Node {
	switch n.Kind() {
	case KindCall, KindNew:
		args := n.Field("arguments")
		if args.Kind() != KindArguments {
			return nil
		}
		return args.Children()
	default:
		return nil
	}
}

// Callee returns the function of a call or the constructor of a new expression.
func (n Node) Callee() Node {
	switch n.Kind() {
	case KindCall:
		return n.Field("function")
	case KindNew:
		return n.Field("constructor")
	default:
		return Node{}
	}
}

// Unwrap strips parentheses, await and TypeScript type assertions.
func (n Node) Unwrap() Node {
	for {
		switch n.Kind() {
		case KindParenthesized, KindAwait, KindTypeWrapper:
			children := n.Children()
			if len(children) == 0 {
				return n
			}
			n = children[0]
		default:
			return n
		}
	}
}

// Name returns the identifier text for identifier-like nodes and "" otherwise.
func (n Node) Name() string {
	switch n.Kind() {
	case KindIdentifier, KindPropertyIdentifier, KindShorthandProperty:
		return n.Text()
	default:
		return ""
	}
}

// MemberParts splits a member expression into its object and property name.
// ok is false for computed or non-member nodes.
func (n Node) MemberParts() (object Node, property string, ok bool) {
	if n.Kind() != KindMember {
		return Node{}, "", false
	}
	prop := n.Field("property")
	if prop.Kind() != KindPropertyIdentifier {
		return Node{}, "", false
	}
	return n.Field("object"), prop.Text(), true
}

// Walk visits n and all its descendants in pre-order. Returning false from fn
// skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n.IsZero() {
		return
	}
	if !fn(n) {
		return
	}
	count := int(n.raw.NamedChildCount())
	for i := 0; i < count; i++ {
		Walk(n.wrap(n.raw.NamedChild(i)), fn)
	}
}
