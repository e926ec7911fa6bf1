package jsast

// Kind is the closed set of syntax shapes the route engine distinguishes.
// Every grammar node type not listed here maps to KindUnknown.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindProgram
	KindIdentifier
	KindPropertyIdentifier
	KindShorthandProperty
	KindMember
	KindSubscript
	KindCall
	KindNew
	KindArguments
	KindString
	KindTemplate
	KindTemplateSubstitution
	KindNumber
	KindFunction
	KindArray
	KindObject
	KindPair
	KindVariableDeclarator
	KindObjectPattern
	KindPairPattern
	KindAssignmentPattern
	KindImport
	KindImportClause
	KindNamespaceImport
	KindNamedImports
	KindImportSpecifier
	KindParenthesized
	KindAwait
	KindTypeWrapper
	KindComment
)

var kindNames = [...]string{
	KindUnknown:              "unknown",
	KindProgram:              "program",
	KindIdentifier:           "identifier",
	KindPropertyIdentifier:   "property_identifier",
	KindShorthandProperty:    "shorthand_property",
	KindMember:               "member",
	KindSubscript:            "subscript",
	KindCall:                 "call",
	KindNew:                  "new",
	KindArguments:            "arguments",
	KindString:               "string",
	KindTemplate:             "template",
	KindTemplateSubstitution: "template_substitution",
	KindNumber:               "number",
	KindFunction:             "function",
	KindArray:                "array",
	KindObject:               "object",
	KindPair:                 "pair",
	KindVariableDeclarator:   "variable_declarator",
	KindObjectPattern:        "object_pattern",
	KindPairPattern:          "pair_pattern",
	KindAssignmentPattern:    "assignment_pattern",
	KindImport:               "import",
	KindImportClause:         "import_clause",
	KindNamespaceImport:      "namespace_import",
	KindNamedImports:         "named_imports",
	KindImportSpecifier:      "import_specifier",
	KindParenthesized:        "parenthesized",
	KindAwait:                "await",
	KindTypeWrapper:          "type_wrapper",
	KindComment:              "comment",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[KindUnknown]
}

// grammarKinds covers the javascript, typescript and tsx grammars.
var grammarKinds = map[string]Kind{
	"program":                               KindProgram,
	"identifier":                            KindIdentifier,
	"property_identifier":                   KindPropertyIdentifier,
	"private_property_identifier":           KindPropertyIdentifier,
	"shorthand_property_identifier":         KindShorthandProperty,
	"shorthand_property_identifier_pattern": KindShorthandProperty,
	"member_expression":                     KindMember,
	"subscript_expression":                  KindSubscript,
	"call_expression":                       KindCall,
	"new_expression":                        KindNew,
	"arguments":                             KindArguments,
	"string":                                KindString,
	"template_string":                       KindTemplate,
	"template_substitution":                 KindTemplateSubstitution,
	"number":                                KindNumber,
	"function":                              KindFunction,
	"function_expression":                   KindFunction,
	"arrow_function":                        KindFunction,
	"generator_function":                    KindFunction,
	"array":                                 KindArray,
	"object":                                KindObject,
	"pair":                                  KindPair,
	"variable_declarator":                   KindVariableDeclarator,
	"object_pattern":                        KindObjectPattern,
	"pair_pattern":                          KindPairPattern,
	"object_assignment_pattern":             KindAssignmentPattern,
	"import_statement":                      KindImport,
	"import_clause":                         KindImportClause,
	"namespace_import":                      KindNamespaceImport,
	"named_imports":                         KindNamedImports,
	"import_specifier":                      KindImportSpecifier,
	"parenthesized_expression":              KindParenthesized,
	"await_expression":                      KindAwait,
	"as_expression":                         KindTypeWrapper,
	"satisfies_expression":                  KindTypeWrapper,
	"non_null_expression":                   KindTypeWrapper,
	"comment":                               KindComment,
}

func kindOf(grammarType string) Kind {
	if k, ok := grammarKinds[grammarType]; ok {
		return k
	}
	return KindUnknown
}
