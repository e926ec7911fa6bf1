package extractor

import (
	"slices"
	"strings"

	"inspector/internal/jsast"
	"inspector/internal/routepath"
)

var expressMethods = methodSet("get", "post", "put", "delete", "patch", "all")

// ExpressVisitor recognizes express() applications and express.Router()
// sub-routers. Sub-routers mounted inside the file are flattened into the
// file's router; routers imported from other files become mount edges.
type ExpressVisitor struct{}

func (v *ExpressVisitor) Framework() Framework {
	return Express
}

func (v *ExpressVisitor) Visit(file *jsast.File, imports map[string]string) *FileResult {
	st := newExpressState(file.Path, imports)
	jsast.Walk(file.Root, st.visit)
	return st.finalize()
}

type expressBinding struct {
	name    string
	parent  string
	prefix  string
	mounted bool
}

type pendingRoute struct {
	binding string
	route   Route
}

type pendingMount struct {
	binding string
	edge    MountEdge
}

// expressState is the traversal state for one file.
type expressState struct {
	file    string
	imports map[string]string

	appFactories    map[string]bool
	routerFactories map[string]bool

	bindings map[string]*expressBinding
	primary  string
	routes   []pendingRoute
	mounts   []pendingMount
}

func newExpressState(file string, imports map[string]string) *expressState {
	if imports == nil {
		imports = map[string]string{}
	}
	return &expressState{
		file:            file,
		imports:         imports,
		appFactories:    map[string]bool{"express": true},
		routerFactories: map[string]bool{},
		bindings:        map[string]*expressBinding{},
	}
}

func (s *expressState) visit(n jsast.Node) bool {
	switch n.Kind() {
	case jsast.KindImport:
		s.trackFactories(n)
	case jsast.KindVariableDeclarator:
		s.trackFactories(n)
		s.declare(n)
	case jsast.KindCall:
		s.call(n)
	}
	return true
}

// trackFactories records aliases of the express module and its Router export.
func (s *expressState) trackFactories(n jsast.Node) {
	imp, ok := ParseModuleImport(n)
	if !ok || imp.Specifier != "express" {
		return
	}
	for _, name := range imp.Whole {
		s.appFactories[name] = true
	}
	if local, ok := imp.Named["Router"]; ok {
		s.routerFactories[local] = true
	}
	if local, ok := imp.Named["default"]; ok {
		s.appFactories[local] = true
	}
}

func (s *expressState) declare(decl jsast.Node) {
	name := decl.Field("name")
	if name.Kind() != jsast.KindIdentifier {
		return
	}
	value := decl.Field("value").Unwrap()
	if value.Kind() != jsast.KindCall || !s.isFactoryCall(value.Callee()) {
		return
	}
	if _, exists := s.bindings[name.Text()]; exists {
		return
	}
	s.bindings[name.Text()] = &expressBinding{name: name.Text()}
	if s.primary == "" {
		s.primary = name.Text()
	}
}

func (s *expressState) isFactoryCall(callee jsast.Node) bool {
	callee = callee.Unwrap()
	switch callee.Kind() {
	case jsast.KindIdentifier:
		return s.appFactories[callee.Text()] || s.routerFactories[callee.Text()]
	case jsast.KindCall:
		// require('express')()
		return s.isExpressModule(callee)
	}
	obj, prop, ok := callee.MemberParts()
	return ok && prop == "Router" && s.isExpressModule(obj)
}

// isExpressModule matches an alias of the express module or an inline
// require('express').
func (s *expressState) isExpressModule(n jsast.Node) bool {
	n = n.Unwrap()
	if n.Kind() == jsast.KindIdentifier {
		return s.appFactories[n.Text()]
	}
	spec, ok := RequireSpecifier(n)
	return ok && spec == "express"
}

func (s *expressState) call(n jsast.Node) {
	binding, method, args, ok := routeCall(n)
	if !ok {
		s.chainedRoute(n)
		return
	}
	if _, tracked := s.bindings[binding]; !tracked {
		return
	}
	switch {
	case expressMethods[method]:
		if len(args) == 0 {
			return
		}
		p, ok := StringValue(args[0])
		if !ok {
			return
		}
		s.addRoute(binding, method, p, args[1:], n.Line())
	case method == "use":
		s.use(binding, args)
	}
}

// chainedRoute handles app.route('/path').get(h).post(h).
func (s *expressState) chainedRoute(n jsast.Node) {
	obj, method, ok := n.Callee().MemberParts()
	if !ok || !expressMethods[method] {
		return
	}
	for obj.Kind() == jsast.KindCall {
		inner, prop, ok := obj.Callee().MemberParts()
		if !ok {
			return
		}
		if prop == "route" {
			base := inner.Unwrap()
			if base.Kind() != jsast.KindIdentifier {
				return
			}
			if _, tracked := s.bindings[base.Text()]; !tracked {
				return
			}
			args := obj.Args()
			if len(args) == 0 {
				return
			}
			p, ok := StringValue(args[0])
			if !ok {
				return
			}
			s.addRoute(base.Text(), method, p, n.Args(), n.Callee().Field("property").Line())
			return
		}
		if !expressMethods[prop] {
			return
		}
		obj = inner
	}
}

func (s *expressState) addRoute(binding, method, p string, handlers []jsast.Node, line int) {
	s.routes = append(s.routes, pendingRoute{
		binding: binding,
		route: Route{
			Method:     strings.ToUpper(method),
			Path:       p,
			Middleware: handlerNames(handlers),
			File:       s.file,
			Line:       line,
		},
	})
}

func (s *expressState) use(binding string, args []jsast.Node) {
	if len(args) == 0 {
		return
	}
	prefix, targets := routepath.Root, args[:1]
	if k := args[0].Kind(); k == jsast.KindString || k == jsast.KindTemplate {
		p, ok := StringValue(args[0])
		if !ok || len(args) < 2 {
			return
		}
		prefix, targets = p, args[1:]
	}
	for _, target := range targets {
		s.mount(binding, prefix, target.Unwrap())
	}
}

func (s *expressState) mount(binding, prefix string, target jsast.Node) {
	var key string
	switch target.Kind() {
	case jsast.KindIdentifier:
		key = target.Text()
		if child, ok := s.bindings[key]; ok {
			if key != binding {
				child.parent, child.prefix, child.mounted = binding, prefix, true
			}
			return
		}
	case jsast.KindCall:
		spec, ok := RequireSpecifier(target)
		if !ok {
			return
		}
		key = RequireName(spec)
	default:
		return
	}
	if childFile, ok := s.imports[key]; ok {
		s.mounts = append(s.mounts, pendingMount{
			binding: binding,
			edge:    MountEdge{Prefix: prefix, ChildFile: childFile},
		})
	}
}

// localBase composes the prefixes of in-file mounts above a binding. A
// binding caught in an in-file mount cycle resolves to the root.
func (s *expressState) localBase(name string) string {
	seen := map[string]bool{}
	var prefixes []string
	for b := s.bindings[name]; b != nil && b.mounted; b = s.bindings[b.parent] {
		if seen[b.name] {
			return routepath.Root
		}
		seen[b.name] = true
		prefixes = append(prefixes, b.prefix)
	}
	slices.Reverse(prefixes)
	return routepath.Join(prefixes...)
}

// finalize flattens every tracked binding into the file's router declaration.
func (s *expressState) finalize() *FileResult {
	if s.primary == "" {
		return &FileResult{}
	}

	decl := &RouterDecl{
		Name:   s.primary,
		Routes: make([]Route, 0, len(s.routes)),
		Mounts: make([]MountEdge, 0, len(s.mounts)),
	}
	for _, pr := range s.routes {
		r := pr.route
		if base := s.localBase(pr.binding); !routepath.IsRoot(base) {
			r = r.WithPath(routepath.Join(base, r.Path))
		}
		decl.Routes = append(decl.Routes, r)
	}
	for _, pm := range s.mounts {
		edge := pm.edge
		if base := s.localBase(pm.binding); !routepath.IsRoot(base) {
			edge.Prefix = routepath.Join(base, edge.Prefix)
		}
		decl.Mounts = append(decl.Mounts, edge)
	}
	return &FileResult{Router: decl}
}
