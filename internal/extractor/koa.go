package extractor

import (
	"strings"

	"inspector/internal/jsast"
	"inspector/internal/routepath"
)

var koaMethods = methodSet("get", "post", "put", "delete", "patch", "all")

// koaRouterModules are the packages whose default export is a Router constructor.
var koaRouterModules = map[string]bool{"koa-router": true, "@koa/router": true}

// KoaVisitor recognizes koa-router instances. Each router carries its own
// prefix, so routes are composed immediately and no mount step is needed.
type KoaVisitor struct{}

func (v *KoaVisitor) Framework() Framework {
	return Koa
}

func (v *KoaVisitor) Visit(file *jsast.File, _ map[string]string) *FileResult {
	st := &koaState{
		file:         file.Path,
		constructors: map[string]bool{"Router": true},
		prefixes:     map[string]string{},
	}
	jsast.Walk(file.Root, st.visit)
	return &FileResult{Routes: st.routes}
}

type koaState struct {
	file         string
	constructors map[string]bool
	prefixes     map[string]string // router binding -> prefix
	routes       []Route
}

func (s *koaState) visit(n jsast.Node) bool {
	switch n.Kind() {
	case jsast.KindImport:
		s.trackConstructor(n)
	case jsast.KindVariableDeclarator:
		s.trackConstructor(n)
		s.declare(n)
	case jsast.KindCall:
		s.call(n)
	}
	return true
}

func (s *koaState) trackConstructor(n jsast.Node) {
	imp, ok := ParseModuleImport(n)
	if !ok || !koaRouterModules[imp.Specifier] {
		return
	}
	for _, name := range imp.Whole {
		s.constructors[name] = true
	}
	if local, ok := imp.Named["default"]; ok {
		s.constructors[local] = true
	}
}

func (s *koaState) declare(decl jsast.Node) {
	name := decl.Field("name")
	value := decl.Field("value").Unwrap()
	if name.Kind() != jsast.KindIdentifier || value.Kind() != jsast.KindNew {
		return
	}
	ctor := value.Callee()
	if ctor.Kind() != jsast.KindIdentifier || !s.constructors[ctor.Text()] {
		return
	}

	prefix := ""
	if args := value.Args(); len(args) > 0 {
		if prefixNode, ok := objectProperty(args[0], "prefix"); ok {
			p, ok := StringValue(prefixNode)
			if !ok {
				return
			}
			prefix = p
		}
	}
	s.prefixes[name.Text()] = prefix
}

func (s *koaState) call(n jsast.Node) {
	binding, method, args, ok := routeCall(n)
	if !ok {
		return
	}
	prefix, tracked := s.prefixes[binding]
	if !tracked {
		return
	}

	if method == "prefix" {
		if len(args) > 0 {
			if p, ok := StringValue(args[0]); ok {
				s.prefixes[binding] = p
			}
		}
		return
	}
	if !koaMethods[method] || len(args) == 0 {
		return
	}

	p, ok := StringValue(args[0])
	if !ok {
		return
	}
	handlers := args[1:]
	// Named routes: router.get('name', '/path', handler)
	if len(args) > 1 {
		if second, ok := StringValue(args[1]); ok {
			p, handlers = second, args[2:]
		}
	}

	s.routes = append(s.routes, Route{
		Method:     strings.ToUpper(method),
		Path:       routepath.Join(prefix, p),
		Middleware: handlerNames(handlers),
		File:       s.file,
		Line:       n.Line(),
	})
}
