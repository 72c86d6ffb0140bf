// Package inflect pins the two deterministic naming transforms the engine
// needs (pluralization and case conversion) behind pure wrapper functions.
// Nothing else in this repo should import go-pluralize or go-strcase
// directly, so the naming rules live in exactly one place.
package inflect

import (
	"github.com/gertd/go-pluralize"
	"github.com/stoewer/go-strcase"
)

var client = pluralize.NewClient()

// Singular returns the singular form of word. Idempotent: Singular(Singular(w)) == Singular(w).
func Singular(word string) string {
	return client.Singular(word)
}

// Plural returns the plural form of word. Idempotent the same way.
func Plural(word string) string {
	return client.Plural(word)
}

// Pascal converts a snake_case or space_separated identifier to PascalCase.
func Pascal(word string) string {
	return strcase.UpperCamelCase(word)
}

// Snake converts an identifier to snake_case.
func Snake(word string) string {
	return strcase.SnakeCase(word)
}

// EntityName derives the external, PascalCase, singular entity name from a
// store-side collection name, e.g. "accounts" -> "Account".
func EntityName(collectionName string) string {
	return Pascal(Singular(collectionName))
}

// EntityPluralName derives the external PascalCase plural form used in
// "getAll<EntityPlural>"-style operation names, e.g. "accounts" -> "Accounts".
func EntityPluralName(collectionName string) string {
	return Pascal(Plural(Singular(collectionName)))
}

// OperationName builds one of the seven canonical operation names for an
// entity, given its collection name.
func OperationName(kind string, collectionName string) string {
	entity := EntityName(collectionName)
	plural := EntityPluralName(collectionName)
	switch kind {
	case "get":
		return "get" + entity
	case "getAll":
		return "getAll" + plural
	case "create":
		return "create" + entity
	case "update":
		return "update" + entity
	case "updateAll":
		return "updateAll" + plural
	case "remove":
		return "remove" + entity
	case "removeAll":
		return "removeAll" + plural
	default:
		return ""
	}
}

// BoolExpName, IndexFilterName, SetName, InsertName, RelationshipsInsertName
// and EnumName build the conventional input/type names.
func BoolExpName(collectionName string) string { return EntityName(collectionName) + "BoolExp" }

func IndexFilterName(collectionName string) string {
	return EntityName(collectionName) + "IndexFilter"
}

func SetName(collectionName string) string { return EntityName(collectionName) + "Set" }

func InsertName(collectionName string) string { return EntityName(collectionName) + "Insert" }

func AttributesInsertName(collectionName string) string {
	return EntityName(collectionName) + "AttributesInsert"
}

func RelationshipsInsertName(collectionName string) string {
	return EntityName(collectionName) + "RelationshipsInsert"
}

func EnumName(collectionName, propertyName string) string {
	return EntityName(collectionName) + Pascal(propertyName) + "Enum"
}
