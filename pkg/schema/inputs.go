package schema

import (
	"github.com/graphql-go/graphql"

	"github.com/foretagq/typedstore/internal/inflect"
	"github.com/foretagq/typedstore/pkg/catalog"
)

// boolExpInput builds (once, cached) the <Entity>BoolExp input of spec
// §4.3: one comparator field per scalar property plus the self-referential
// _and/_or/_not composition keys. The self reference is wired by creating
// the input with no fields and adding every field afterwards through
// AddFieldConfig, since the type cannot list itself as a field type before
// it exists.
func (b *builder) boolExpInput(e *catalog.Entity) *graphql.InputObject {
	if existing, ok := b.boolExps[e.Name]; ok {
		return existing
	}
	name := inflect.BoolExpName(e.CollectionName)
	// _and/_or/_not reference this very type, so it must exist (empty)
	// before those fields can be declared; register it in the cache
	// first so a re-entrant call (there isn't one today, but a future
	// cross-entity BoolExp reference would hit it) doesn't recurse.
	self := graphql.NewInputObject(graphql.InputObjectConfig{Name: name, Fields: graphql.InputObjectConfigFieldMap{}})
	b.boolExps[e.Name] = self

	for _, p := range e.Properties {
		cmp, ok := b.comparatorInputFor(p)
		if !ok {
			continue
		}
		self.AddFieldConfig(p.Name, &graphql.InputObjectFieldConfig{Type: cmp})
	}
	self.AddFieldConfig("_and", &graphql.InputObjectFieldConfig{Type: graphql.NewList(self)})
	self.AddFieldConfig("_or", &graphql.InputObjectFieldConfig{Type: graphql.NewList(self)})
	self.AddFieldConfig("_not", &graphql.InputObjectFieldConfig{Type: self})
	return self
}

// indexFilterInput builds <Entity>IndexFilter, the equality-only filter
// used by get/update/remove, indexed by _key only.
func (b *builder) indexFilterInput(e *catalog.Entity) *graphql.InputObject {
	if existing, ok := b.indexFilters[e.Name]; ok {
		return existing
	}
	t := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: inflect.IndexFilterName(e.CollectionName),
		Fields: graphql.InputObjectConfigFieldMap{
			"_key": &graphql.InputObjectFieldConfig{Type: graphql.Int},
		},
	})
	b.indexFilters[e.Name] = t
	return t
}

// setInput builds <Entity>Set, the partial-update payload: every non-key
// property, always optional regardless of the catalog's Required flag,
// since an update need not touch every field.
func (b *builder) setInput(e *catalog.Entity) *graphql.InputObject {
	if existing, ok := b.sets[e.Name]; ok {
		return existing
	}
	fields := graphql.InputObjectConfigFieldMap{}
	for _, p := range e.Properties {
		if p.Name == "_key" {
			continue
		}
		fields[p.Name] = &graphql.InputObjectFieldConfig{Type: b.scalarOutputType(p)}
	}
	t := graphql.NewInputObject(graphql.InputObjectConfig{Name: inflect.SetName(e.CollectionName), Fields: fields})
	b.sets[e.Name] = t
	return t
}

// attributesInsertInput builds <Entity>AttributesInsert: every non-key
// property, wrapped NonNull where the catalog marks it Required.
func (b *builder) attributesInsertInput(e *catalog.Entity) *graphql.InputObject {
	if existing, ok := b.attrsInserts[e.Name]; ok {
		return existing
	}
	fields := graphql.InputObjectConfigFieldMap{}
	for _, p := range e.Properties {
		if p.Name == "_key" {
			continue
		}
		t := b.scalarOutputType(p)
		if p.Required {
			t = graphql.NewNonNull(t)
		}
		fields[p.Name] = &graphql.InputObjectFieldConfig{Type: t}
	}
	t := graphql.NewInputObject(graphql.InputObjectConfig{Name: inflect.AttributesInsertName(e.CollectionName), Fields: fields})
	b.attrsInserts[e.Name] = t
	return t
}

// relationshipItemInput builds the per-relationship {addExisting, addNew}
// item input used inside a RelationshipsInsert: compound
// create: attach either an existing row, identified by its IndexFilter, or
// a brand-new one, described by its AttributesInsert).
func (b *builder) relationshipItemInput(rel *catalog.Relationship) *graphql.InputObject {
	if existing, ok := b.relItemInputs[rel.Name]; ok {
		return existing
	}
	t := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: rel.From.Name + inflect.Pascal(rel.Name) + "RelationshipItem",
		Fields: graphql.InputObjectConfigFieldMap{
			"addExisting": &graphql.InputObjectFieldConfig{Type: b.indexFilterInput(rel.To)},
			"addNew":      &graphql.InputObjectFieldConfig{Type: b.attributesInsertInput(rel.To)},
		},
	})
	b.relItemInputs[rel.Name] = t
	return t
}

// relationshipsInsertInput builds <Entity>RelationshipsInsert: one field
// per relationship declared from this entity, list-typed for to-many
// relationships.
func (b *builder) relationshipsInsertInput(e *catalog.Entity) *graphql.InputObject {
	if existing, ok := b.relInserts[e.Name]; ok {
		return existing
	}
	fields := graphql.InputObjectConfigFieldMap{}
	for _, rel := range b.cat.RelationshipsFrom(e) {
		item := b.relationshipItemInput(rel)
		var t graphql.Input = item
		if rel.Kind.ReturnsArray() {
			t = graphql.NewList(item)
		}
		fields[rel.Name] = &graphql.InputObjectFieldConfig{Type: t}
	}
	t := graphql.NewInputObject(graphql.InputObjectConfig{Name: inflect.RelationshipsInsertName(e.CollectionName), Fields: fields})
	b.relInserts[e.Name] = t
	return t
}

// insertInput builds <Entity>Insert: {attributes: <Entity>AttributesInsert!, relationships: <Entity>RelationshipsInsert}.
func (b *builder) insertInput(e *catalog.Entity) *graphql.InputObject {
	if existing, ok := b.inserts[e.Name]; ok {
		return existing
	}
	t := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: inflect.InsertName(e.CollectionName),
		Fields: graphql.InputObjectConfigFieldMap{
			"attributes":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(b.attributesInsertInput(e))},
			"relationships": &graphql.InputObjectFieldConfig{Type: b.relationshipsInsertInput(e)},
		},
	})
	b.inserts[e.Name] = t
	return t
}
