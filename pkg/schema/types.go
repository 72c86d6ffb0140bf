// Package schema implements the Schema Builder: it
// compiles a *catalog.Catalog into a runtime-constructed *graphql.Schema,
// the way a hand-wired GraphQL server builds one session's
// types by hand, generalized here to run once per catalog load instead of
// once per connection.
package schema

import (
	"github.com/graphql-go/graphql"

	"github.com/foretagq/typedstore/internal/inflect"
	"github.com/foretagq/typedstore/pkg/catalog"
)

// builder accumulates the graphql-go types built from one Catalog. Object
// types are built in two passes because relationship fields on one entity
// reference the graphql.Object of another entity that may not exist yet
// when the first pass runs.
type builder struct {
	cat *catalog.Catalog

	enums        map[string]*graphql.Enum
	enumCompares map[string]*graphql.InputObject
	objects      map[string]*graphql.Object

	boolExps      map[string]*graphql.InputObject
	indexFilters  map[string]*graphql.InputObject
	sets          map[string]*graphql.InputObject
	attrsInserts  map[string]*graphql.InputObject
	relInserts    map[string]*graphql.InputObject
	relItemInputs map[string]*graphql.InputObject
	inserts       map[string]*graphql.InputObject
}

func newBuilder(cat *catalog.Catalog) *builder {
	return &builder{
		cat:           cat,
		enums:         map[string]*graphql.Enum{},
		enumCompares:  map[string]*graphql.InputObject{},
		objects:       map[string]*graphql.Object{},
		boolExps:      map[string]*graphql.InputObject{},
		indexFilters:  map[string]*graphql.InputObject{},
		sets:          map[string]*graphql.InputObject{},
		attrsInserts:  map[string]*graphql.InputObject{},
		relInserts:    map[string]*graphql.InputObject{},
		relItemInputs: map[string]*graphql.InputObject{},
		inserts:       map[string]*graphql.InputObject{},
	}
}

// fieldResolve recovers a field's value from the parent row by the alias
// the client requested, since the Selection Planner already embeds nested
// relationship rows under that alias. graphql-go's own default
// resolver keys off the schema field name, which would miss aliased
// fields, so every entity field installs this explicitly instead.
func fieldResolve(p graphql.ResolveParams) (interface{}, error) {
	row, ok := p.Source.(map[string]any)
	if !ok || row == nil {
		return nil, nil
	}
	key := p.Info.FieldName
	for _, f := range p.Info.FieldASTs {
		if f.Alias != nil {
			key = f.Alias.Value
		}
		break
	}
	return row[key], nil
}

func (b *builder) buildEnums() {
	for _, e := range b.cat.Entities {
		for _, p := range e.Properties {
			if p.Kind != catalog.ScalarEnum || p.AssociatedEnum == nil {
				continue
			}
			b.enumType(p.AssociatedEnum)
		}
	}
}

func (b *builder) enumType(enum *catalog.Enum) *graphql.Enum {
	if existing, ok := b.enums[enum.Name]; ok {
		return existing
	}
	values := graphql.EnumValueConfigMap{}
	for _, v := range enum.Variants {
		values[v] = &graphql.EnumValueConfig{Value: v}
	}
	t := graphql.NewEnum(graphql.EnumConfig{Name: enum.Name, Values: values})
	b.enums[enum.Name] = t
	return t
}

// enumComparatorInput builds (once, cached) the _eq/_neq/_in/_nin
// comparator input for one enum type, extending the shared comparator table
// to enum scalars.
func (b *builder) enumComparatorInput(enum *catalog.Enum) *graphql.InputObject {
	if existing, ok := b.enumCompares[enum.Name]; ok {
		return existing
	}
	t := b.enumType(enum)
	input := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: enum.Name + "Comparators",
		Fields: graphql.InputObjectConfigFieldMap{
			"_eq":  &graphql.InputObjectFieldConfig{Type: t},
			"_neq": &graphql.InputObjectFieldConfig{Type: t},
			"_in":  &graphql.InputObjectFieldConfig{Type: graphql.NewList(t)},
			"_nin": &graphql.InputObjectFieldConfig{Type: graphql.NewList(t)},
		},
	})
	b.enumCompares[enum.Name] = input
	return input
}

// scalarOutputType maps one Property to the graphql.Output type used both
// for the entity's own field and, unwrapped, for Set/AttributesInsert
// field types.
func (b *builder) scalarOutputType(p catalog.Property) graphql.Output {
	return b.kindOutputType(p.Kind, p.ArrayElementKind, p.AssociatedEnum)
}

func (b *builder) kindOutputType(kind, elemKind catalog.ScalarKind, enum *catalog.Enum) graphql.Output {
	switch kind {
	case catalog.ScalarInt:
		return graphql.Int
	case catalog.ScalarFloat:
		return graphql.Float
	case catalog.ScalarBoolean:
		return graphql.Boolean
	case catalog.ScalarObject:
		return JSONType
	case catalog.ScalarEnum:
		if enum == nil {
			return graphql.String
		}
		return b.enumType(enum)
	case catalog.ScalarArray:
		return graphql.NewList(b.kindOutputType(elemKind, catalog.ScalarString, nil))
	default:
		return graphql.String
	}
}

// comparatorInputFor returns the comparator input type for a property's
// scalar kind. Object and Array properties have no declared
// comparator set (only String/Int/Float/Boolean/Enum scalars get one)
// and are omitted from BoolExp entirely.
func (b *builder) comparatorInputFor(p catalog.Property) (*graphql.InputObject, bool) {
	switch p.Kind {
	case catalog.ScalarString:
		return stringComparatorInput, true
	case catalog.ScalarInt:
		return intComparatorInput, true
	case catalog.ScalarFloat:
		return floatComparatorInput, true
	case catalog.ScalarBoolean:
		return boolComparatorInput, true
	case catalog.ScalarEnum:
		if p.AssociatedEnum == nil {
			return nil, false
		}
		return b.enumComparatorInput(p.AssociatedEnum), true
	default:
		return nil, false
	}
}

// buildObjectShells creates every entity's graphql.Object with empty field
// maps so relationship fields (added in a second pass) can reference each
// other regardless of declaration order.
func (b *builder) buildObjectShells() {
	for _, e := range b.cat.Entities {
		b.objects[e.Name] = graphql.NewObject(graphql.ObjectConfig{
			Name:   e.Name,
			Fields: graphql.Fields{},
		})
	}
}

// populateObjectFields runs after every shell exists, adding both scalar
// fields and relationship fields (which may reference a sibling entity's
// object type).
func (b *builder) populateObjectFields() {
	for _, e := range b.cat.Entities {
		obj := b.objects[e.Name]
		for _, p := range e.Properties {
			fieldType := b.scalarOutputType(p)
			if p.Required {
				fieldType = graphql.NewNonNull(fieldType)
			}
			obj.AddFieldConfig(p.Name, &graphql.Field{
				Type:    fieldType,
				Resolve: fieldResolve,
			})
		}
		for _, rel := range b.cat.RelationshipsFrom(e) {
			target := b.objects[rel.To.Name]
			fieldType := graphql.Output(target)
			if rel.Kind.ReturnsArray() {
				fieldType = graphql.NewList(target)
			}
			args := graphql.FieldConfigArgument{}
			if rel.Kind.ReturnsArray() {
				args["where"] = &graphql.ArgumentConfig{Type: b.boolExpInput(rel.To)}
				args["limit"] = &graphql.ArgumentConfig{Type: graphql.Int}
			}
			obj.AddFieldConfig(rel.Name, &graphql.Field{
				Type:    fieldType,
				Args:    args,
				Resolve: fieldResolve,
			})
		}
	}
}

// EntityName is re-exported for callers that want the GraphQL type name for a catalog entity without importing
// internal/inflect directly.
func EntityName(collectionName string) string { return inflect.EntityName(collectionName) }
