package extractor

import (
	"fmt"

	"inspector/internal/jsast"
)

// HandlerNameOf renders a display name for a handler argument. It never
// fails: shapes it cannot name degrade to a marker.
func HandlerNameOf(n jsast.Node) HandlerName {
	n = n.Unwrap()
	switch n.Kind() {
	case jsast.KindIdentifier, jsast.KindShorthandProperty, jsast.KindMember, jsast.KindFunction:
		return Named(qualifiedName(n))
	case jsast.KindArray:
		elems := n.Children()
		names := make([]HandlerName, 0, len(elems))
		for _, el := range elems {
			names = append(names, HandlerNameOf(el))
		}
		return ListOf(names...)
	case jsast.KindCall:
		if IsRequireCall(n) {
			return Named(qualifiedName(n))
		}
		return Named(UnknownMarker)
	default:
		return Named(UnknownMarker)
	}
}

// qualifiedName renders identifier and member chains from the base outward.
func qualifiedName(n jsast.Node) string {
	n = n.Unwrap()
	switch n.Kind() {
	case jsast.KindIdentifier, jsast.KindShorthandProperty:
		return n.Text()
	case jsast.KindMember:
		obj, prop, ok := n.MemberParts()
		if !ok {
			return ComputedMarker
		}
		return qualifiedName(obj) + "." + prop
	case jsast.KindCall:
		if spec, ok := RequireSpecifier(n); ok {
			return RequireName(spec)
		}
		if IsRequireCall(n) {
			return "require(...)"
		}
		return ComputedMarker
	case jsast.KindFunction:
		return FunctionMarker
	default:
		return ComputedMarker
	}
}

// RequireName is the display name of an inline require of a literal module.
func RequireName(spec string) string {
	return fmt.Sprintf("require('%s')", spec)
}

// IsRequireCall reports whether n is a call to require.
func IsRequireCall(n jsast.Node) bool {
	return n.Kind() == jsast.KindCall && n.Callee().Kind() == jsast.KindIdentifier && n.Callee().Text() == "require"
}

// RequireSpecifier returns the module specifier of require('<literal>').
func RequireSpecifier(n jsast.Node) (string, bool) {
	if !IsRequireCall(n) {
		return "", false
	}
	args := n.Args()
	if len(args) == 0 {
		return "", false
	}
	return StringValue(args[0])
}
