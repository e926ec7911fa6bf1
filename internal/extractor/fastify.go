package extractor

import (
	"strings"

	"inspector/internal/jsast"
	"inspector/internal/routepath"
)

var fastifyMethods = methodSet("get", "post", "put", "delete", "patch", "head", "options")

// FastifyVisitor recognizes fastify instances created through a factory
// binding or a fused require('fastify')() call, and both their shorthand
// methods and route({ method, url, handler }) declarations.
type FastifyVisitor struct{}

func (v *FastifyVisitor) Framework() Framework {
	return Fastify
}

func (v *FastifyVisitor) Visit(file *jsast.File, _ map[string]string) *FileResult {
	st := &fastifyState{
		file:      file.Path,
		factories: map[string]bool{},
		instances: map[string]bool{},
	}
	jsast.Walk(file.Root, st.visit)
	return &FileResult{Routes: st.routes}
}

type fastifyState struct {
	file      string
	factories map[string]bool
	instances map[string]bool
	routes    []Route
}

func (s *fastifyState) visit(n jsast.Node) bool {
	switch n.Kind() {
	case jsast.KindImport:
		s.trackFactory(n)
	case jsast.KindVariableDeclarator:
		s.trackFactory(n)
		s.declare(n)
	case jsast.KindCall:
		s.call(n)
	}
	return true
}

func (s *fastifyState) trackFactory(n jsast.Node) {
	imp, ok := ParseModuleImport(n)
	if !ok || imp.Specifier != "fastify" {
		return
	}
	for _, name := range imp.Whole {
		s.factories[name] = true
	}
	for _, key := range []string{"default", "fastify"} {
		if local, ok := imp.Named[key]; ok {
			s.factories[local] = true
		}
	}
}

func (s *fastifyState) declare(decl jsast.Node) {
	name := decl.Field("name")
	value := decl.Field("value").Unwrap()
	if name.Kind() != jsast.KindIdentifier || value.Kind() != jsast.KindCall {
		return
	}

	callee := value.Callee().Unwrap()
	switch {
	case callee.Kind() == jsast.KindIdentifier && s.factories[callee.Text()]:
		s.instances[name.Text()] = true
	case callee.Kind() == jsast.KindCall:
		if spec, ok := RequireSpecifier(callee); ok && spec == "fastify" {
			s.instances[name.Text()] = true
		}
	}
}

func (s *fastifyState) call(n jsast.Node) {
	binding, method, args, ok := routeCall(n)
	if !ok || !s.instances[binding] {
		return
	}

	switch {
	case fastifyMethods[method]:
		if len(args) < 2 {
			return
		}
		p, ok := StringValue(args[0])
		if !ok {
			return
		}
		s.add(method, p, args[len(args)-1], n.Line())
	case method == "route":
		s.route(args, n.Line())
	}
}

// route handles fastify.route({ method, url, handler }).
func (s *fastifyState) route(args []jsast.Node, line int) {
	if len(args) == 0 || args[0].Kind() != jsast.KindObject {
		return
	}
	opts := args[0]

	methodNode, hasMethod := objectProperty(opts, "method")
	urlNode, hasURL := objectProperty(opts, "url")
	if !hasURL {
		urlNode, hasURL = objectProperty(opts, "path")
	}
	handlerNode, hasHandler := objectProperty(opts, "handler")
	if !hasMethod || !hasURL || !hasHandler {
		return
	}

	p, ok := StringValue(urlNode)
	if !ok {
		return
	}

	var methods []string
	switch methodNode.Kind() {
	case jsast.KindArray:
		for _, el := range methodNode.Children() {
			if m, ok := StringValue(el); ok {
				methods = append(methods, m)
			}
		}
	default:
		if m, ok := StringValue(methodNode); ok {
			methods = append(methods, m)
		}
	}
	for _, m := range methods {
		s.add(m, p, handlerNode, line)
	}
}

func (s *fastifyState) add(method, p string, handler jsast.Node, line int) {
	s.routes = append(s.routes, Route{
		Method:     strings.ToUpper(method),
		Path:       routepath.Normalize(p),
		Middleware: []HandlerName{HandlerNameOf(handler)},
		File:       s.file,
		Line:       line,
	})
}
