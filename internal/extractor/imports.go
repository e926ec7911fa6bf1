package extractor

import "inspector/internal/jsast"

// ModuleImport describes the local bindings one declaration creates from a
// literal module specifier.
type ModuleImport struct {
	Specifier string
	// Whole holds bindings to the module value itself: a require result,
	// a default import or a namespace import.
	Whole []string
	// Named maps an exported key to the local binding it is bound to.
	Named map[string]string
	Line  int
}

// Locals returns every local binding name the import creates.
func (m ModuleImport) Locals() []string {
	out := append([]string(nil), m.Whole...)
	for _, local := range m.Named {
		out = append(out, local)
	}
	return out
}

// ParseModuleImport recognizes
//
//	const x = require('m')
//	const { a, b: c } = require('m')
//	const x = require('m').key
//	import x, * as ns, { a, b as c } from 'm'
//
// and reports the bindings they create.
func ParseModuleImport(n jsast.Node) (ModuleImport, bool) {
	switch n.Kind() {
	case jsast.KindVariableDeclarator:
		return requireImport(n)
	case jsast.KindImport:
		return esImport(n)
	default:
		return ModuleImport{}, false
	}
}

func requireImport(decl jsast.Node) (ModuleImport, bool) {
	value := decl.Field("value").Unwrap()

	var memberKey string
	if obj, prop, ok := value.MemberParts(); ok {
		value, memberKey = obj.Unwrap(), prop
	}
	spec, ok := RequireSpecifier(value)
	if !ok {
		return ModuleImport{}, false
	}

	imp := ModuleImport{Specifier: spec, Named: map[string]string{}, Line: decl.Line()}
	name := decl.Field("name")
	switch name.Kind() {
	case jsast.KindIdentifier:
		if memberKey != "" {
			imp.Named[memberKey] = name.Text()
		} else {
			imp.Whole = append(imp.Whole, name.Text())
		}
	case jsast.KindObjectPattern:
		if memberKey != "" {
			return ModuleImport{}, false
		}
		for key, local := range patternBindings(name) {
			imp.Named[key] = local
		}
	default:
		return ModuleImport{}, false
	}
	return imp, true
}

// patternBindings maps destructured keys to their local binding names.
func patternBindings(pattern jsast.Node) map[string]string {
	out := map[string]string{}
	for _, prop := range pattern.Children() {
		switch prop.Kind() {
		case jsast.KindShorthandProperty:
			out[prop.Text()] = prop.Text()
		case jsast.KindPairPattern:
			key := propertyKey(prop.Field("key"))
			value := prop.Field("value")
			if value.Kind() == jsast.KindAssignmentPattern {
				value = value.Field("left")
			}
			if key != "" && value.Kind() == jsast.KindIdentifier {
				out[key] = value.Text()
			}
		case jsast.KindAssignmentPattern:
			left := prop.Field("left")
			if name := left.Name(); name != "" {
				out[name] = name
			}
		}
	}
	return out
}

func esImport(stmt jsast.Node) (ModuleImport, bool) {
	spec, ok := StringValue(stmt.Field("source"))
	if !ok {
		return ModuleImport{}, false
	}

	imp := ModuleImport{Specifier: spec, Named: map[string]string{}, Line: stmt.Line()}
	for _, child := range stmt.Children() {
		if child.Kind() != jsast.KindImportClause {
			continue
		}
		for _, part := range child.Children() {
			switch part.Kind() {
			case jsast.KindIdentifier:
				imp.Whole = append(imp.Whole, part.Text())
			case jsast.KindNamespaceImport:
				for _, id := range part.Children() {
					if id.Kind() == jsast.KindIdentifier {
						imp.Whole = append(imp.Whole, id.Text())
					}
				}
			case jsast.KindNamedImports:
				for _, s := range part.Children() {
					if s.Kind() != jsast.KindImportSpecifier {
						continue
					}
					key := propertyKey(s.Field("name"))
					local := key
					if alias := s.Field("alias"); alias.Kind() == jsast.KindIdentifier {
						local = alias.Text()
					}
					if key != "" {
						imp.Named[key] = local
					}
				}
			}
		}
	}
	return imp, true
}
