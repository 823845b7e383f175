// Package syntax provides the lossless concrete syntax tree used by declview
// together with the navigation primitives the declaration layer is built on.
package syntax

// Kind identifies the syntactic category of a node.
type Kind int

const (
	KindToken Kind = iota // leaf carrying a lexer token

	KindFile
	KindPackageDirective
	KindImportList
	KindImportDirective
	KindFunction
	KindClass
	KindClassBody
	KindModifierList
	KindAnnotation
	KindValueArgumentList
	KindTypeParameterList
	KindTypeParameter
	KindTypeConstraintList
	KindTypeConstraint
	KindValueParameterList
	KindValueParameter
	KindTypeReference
	KindTypeArgumentList
	KindBlock
	KindExpression
	KindError
)

var kindNames = map[Kind]string{
	KindToken:              "TOKEN",
	KindFile:               "FILE",
	KindPackageDirective:   "PACKAGE_DIRECTIVE",
	KindImportList:         "IMPORT_LIST",
	KindImportDirective:    "IMPORT_DIRECTIVE",
	KindFunction:           "FUN",
	KindClass:              "CLASS",
	KindClassBody:          "CLASS_BODY",
	KindModifierList:       "MODIFIER_LIST",
	KindAnnotation:         "ANNOTATION_ENTRY",
	KindValueArgumentList:  "VALUE_ARGUMENT_LIST",
	KindTypeParameterList:  "TYPE_PARAMETER_LIST",
	KindTypeParameter:      "TYPE_PARAMETER",
	KindTypeConstraintList: "TYPE_CONSTRAINT_LIST",
	KindTypeConstraint:     "TYPE_CONSTRAINT",
	KindValueParameterList: "VALUE_PARAMETER_LIST",
	KindValueParameter:     "VALUE_PARAMETER",
	KindTypeReference:      "TYPE_REFERENCE",
	KindTypeArgumentList:   "TYPE_ARGUMENT_LIST",
	KindBlock:              "BLOCK",
	KindExpression:         "EXPRESSION",
	KindError:              "ERROR_ELEMENT",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsDeclaration reports whether nodes of this kind are declarations.
func (k Kind) IsDeclaration() bool {
	return k == KindFunction || k == KindClass
}

// IsBody reports whether the kind is a body whose content is opaque to the
// indexing pass.
func (k Kind) IsBody() bool {
	return k == KindBlock || k == KindExpression || k == KindValueArgumentList
}
