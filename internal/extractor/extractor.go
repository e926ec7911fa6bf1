package extractor

import (
	"errors"
	"fmt"
	"strings"

	"inspector/internal/jsast"
)

// ErrUnsupportedFramework is returned for framework names outside the supported set.
var ErrUnsupportedFramework = errors.New("unsupported framework")

// Framework selects the route declaration idiom a codebase uses.
type Framework string

const (
	// Express: app objects and sub-routers mounted across files.
	Express Framework = "express"
	// Koa: koa-router instances carrying a local prefix.
	Koa Framework = "koa"
	// Fastify: declarative route objects and shorthand methods.
	Fastify Framework = "fastify"
)

// Frameworks lists the supported frameworks.
func Frameworks() []Framework {
	return []Framework{Express, Koa, Fastify}
}

// ParseFramework validates a framework name.
func ParseFramework(name string) (Framework, error) {
	fw := Framework(strings.ToLower(strings.TrimSpace(name)))
	switch fw {
	case Express, Koa, Fastify:
		return fw, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFramework, name)
	}
}

// NeedsMountResolution reports whether routes of this framework are composed
// across files after all files are visited.
func (f Framework) NeedsMountResolution() bool {
	return f == Express
}

// Visitor walks one parsed file and reports the routes it declares. Imports
// maps local binding names to the absolute files they resolve to; visitors
// that do not follow mounts ignore it.
type Visitor interface {
	Framework() Framework
	Visit(file *jsast.File, imports map[string]string) *FileResult
}

// NewVisitor creates the visitor for a framework.
func NewVisitor(fw Framework) (Visitor, error) {
	switch fw {
	case Express:
		return &ExpressVisitor{}, nil
	case Koa:
		return &KoaVisitor{}, nil
	case Fastify:
		return &FastifyVisitor{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFramework, fw)
	}
}

// routeCall splits a call like `binding.method(...)` into its parts.
func routeCall(call jsast.Node) (binding, method string, args []jsast.Node, ok bool) {
	if call.Kind() != jsast.KindCall {
		return "", "", nil, false
	}
	obj, prop, isMember := call.Callee().MemberParts()
	if !isMember {
		return "", "", nil, false
	}
	obj = obj.Unwrap()
	if obj.Kind() != jsast.KindIdentifier {
		return "", "", nil, false
	}
	return obj.Text(), prop, call.Args(), true
}

// handlerNames renders every argument as a handler name.
func handlerNames(args []jsast.Node) []HandlerName {
	names := make([]HandlerName, 0, len(args))
	for _, a := range args {
		names = append(names, HandlerNameOf(a))
	}
	return names
}

// objectProperty finds the value of a literal-keyed property in an object expression.
func objectProperty(obj jsast.Node, key string) (jsast.Node, bool) {
	if obj.Kind() != jsast.KindObject {
		return jsast.Node{}, false
	}
	for _, prop := range obj.Children() {
		switch prop.Kind() {
		case jsast.KindPair:
			if propertyKey(prop.Field("key")) == key {
				return prop.Field("value"), true
			}
		case jsast.KindShorthandProperty:
			if prop.Text() == key {
				return prop, true
			}
		}
	}
	return jsast.Node{}, false
}

func propertyKey(n jsast.Node) string {
	switch n.Kind() {
	case jsast.KindPropertyIdentifier, jsast.KindIdentifier:
		return n.Text()
	case jsast.KindString:
		v, _ := StringValue(n)
		return v
	default:
		return ""
	}
}

func methodSet(methods ...string) map[string]bool {
	set := make(map[string]bool, len(methods))
	for _, m := range methods {
		set[m] = true
	}
	return set
}
