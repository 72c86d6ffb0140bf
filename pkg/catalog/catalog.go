// Package catalog loads the entity/relationship model from the
// two meta-collections stored in the document store itself, and exposes it
// as an immutable value for the Schema Builder to compile into a live
// GraphQL-like schema.
package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/foretagq/typedstore/internal/inflect"
	"github.com/foretagq/typedstore/pkg/gateway"
)

// ScalarKind enumerates the primitive shapes a Property can take.
type ScalarKind int

const (
	ScalarString ScalarKind = iota
	ScalarInt
	ScalarFloat
	ScalarBoolean
	ScalarObject
	ScalarEnum
	ScalarArray
)

// Enum is a named set of variants, sorted alphabetically. Variants keep
// the spelling declared in the meta-collection; they are not converted to
// upper-snake-case.
type Enum struct {
	Name     string
	Variants []string
}

// Property is one field of an Entity.
type Property struct {
	Name             string
	Kind             ScalarKind
	AssociatedEnum   *Enum      // non-nil iff Kind == ScalarEnum
	ArrayElementKind ScalarKind // meaningful iff Kind == ScalarArray
	Required         bool
}

// Entity is a declared document type, always carrying an implicit `_key`
// property.
type Entity struct {
	Name           string
	CollectionName string
	Properties     []Property
}

// Property looks up a property by its external name.
func (e *Entity) Property(name string) (Property, bool) {
	for _, p := range e.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// RelationshipKind determines arity and therefore the GraphQL field shape.
type RelationshipKind int

const (
	OneToOne RelationshipKind = iota
	OneToMany
	ManyToOne
	ManyToMany
)

// ReturnsArray reports whether this relationship kind yields a list field.
func (k RelationshipKind) ReturnsArray() bool {
	return k == OneToMany || k == ManyToMany
}

// Direction is the edge traversal direction relative to the `from` entity.
type Direction int

const (
	DirectionOutbound Direction = iota
	DirectionInbound
	DirectionAny
)

func (d Direction) String() string {
	switch d {
	case DirectionInbound:
		return "INBOUND"
	case DirectionAny:
		return "ANY"
	default:
		return "OUTBOUND"
	}
}

// Relationship links two Entities through an edge collection.
type Relationship struct {
	Name          string
	EdgeCollection string
	From          *Entity
	To            *Entity
	Kind          RelationshipKind
	Direction     Direction
}

// Catalog is the full, immutable model loaded from the meta-collections.
// Once returned from Load it is never mutated; a new load produces a new
// Catalog value and the Hot Reload Controller swaps the reference.
type Catalog struct {
	Entities      []*Entity
	Relationships []*Relationship
	checksum      [32]byte
}

// EntityByCollection finds an Entity by its store-side collection name.
func (c *Catalog) EntityByCollection(collection string) (*Entity, bool) {
	for _, e := range c.Entities {
		if e.CollectionName == collection {
			return e, true
		}
	}
	return nil, false
}

// RelationshipsFrom returns the relationships declared with this entity as
// the `from` side, in the catalog's order (sorted by relationship name).
func (c *Catalog) RelationshipsFrom(e *Entity) []*Relationship {
	return lo.Filter(c.Relationships, func(r *Relationship, _ int) bool {
		return r.From == e
	})
}

// Checksum is a content hash over the canonical load, used by the Hot
// Reload Controller to skip rebuilding an unchanged schema.
func (c *Catalog) Checksum() [32]byte { return c.checksum }

// Meta-collection names, fixed by convention.
const (
	EntitiesMetaCollection      = "_typedstore_entities"
	RelationshipsMetaCollection = "_typedstore_relationships"
)

// entityDoc / relationshipDoc mirror the meta-collection documents' JSON layout.
type entityDoc struct {
	Name   string `json:"name"`
	Schema struct {
		Properties map[string]propSchema `json:"properties"`
		Required   []string               `json:"required"`
	} `json:"schema"`
}

type propSchema struct {
	Type  string       `json:"type"`
	Items *propSchema  `json:"items,omitempty"`
	Enum  []string     `json:"enum,omitempty"`
}

type relationshipDoc struct {
	Name      string `json:"name"`
	Edge      string `json:"edge"`
	From      string `json:"from"`
	To        string `json:"to"`
	Type      string `json:"type"`
	Direction string `json:"direction"`
}

// Load reads both meta-collections through the Gateway and builds a
// Catalog.
func Load(ctx context.Context, gw gateway.Gateway, log *zap.Logger) (*Catalog, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("catalog")

	entityRows, err := gw.ListDocuments(ctx, EntitiesMetaCollection)
	if err != nil {
		return nil, fmt.Errorf("loading entities meta-collection: %w", err)
	}
	relRows, err := gw.ListDocuments(ctx, RelationshipsMetaCollection)
	if err != nil {
		return nil, fmt.Errorf("loading relationships meta-collection: %w", err)
	}

	entities := make([]*Entity, 0, len(entityRows))
	byCollection := map[string]*Entity{}
	for _, row := range entityRows {
		var doc entityDoc
		if err := remarshal(row, &doc); err != nil {
			return nil, fmt.Errorf("decoding entity document: %w", err)
		}
		e := buildEntity(doc)
		entities = append(entities, e)
		byCollection[e.CollectionName] = e
	}

	sort.Slice(entities, func(i, j int) bool { return entities[i].Name < entities[j].Name })

	relationships := make([]*Relationship, 0, len(relRows))
	for _, row := range relRows {
		var doc relationshipDoc
		if err := remarshal(row, &doc); err != nil {
			return nil, fmt.Errorf("decoding relationship document: %w", err)
		}
		from, ok := byCollection[doc.From]
		if !ok {
			log.Warn("dropping relationship with unresolvable from collection", zap.String("relationship", doc.Name), zap.String("from", doc.From))
			continue
		}
		to, ok := byCollection[doc.To]
		if !ok {
			log.Warn("dropping relationship with unresolvable to collection", zap.String("relationship", doc.Name), zap.String("to", doc.To))
			continue
		}
		relationships = append(relationships, &Relationship{
			Name:           doc.Name,
			EdgeCollection: doc.Edge,
			From:           from,
			To:             to,
			Kind:           parseRelationshipKind(doc.Type),
			Direction:      parseDirection(doc.Direction),
		})
	}

	sort.Slice(relationships, func(i, j int) bool { return relationships[i].Name < relationships[j].Name })

	c := &Catalog{Entities: entities, Relationships: relationships}
	c.checksum = computeChecksum(c)
	return c, nil
}

func buildEntity(doc entityDoc) *Entity {
	collection := doc.Name
	props := make([]Property, 0, len(doc.Schema.Properties)+1)
	props = append(props, Property{Name: "_key", Kind: ScalarInt, Required: true})

	required := lo.SliceToMap(doc.Schema.Required, func(s string) (string, bool) { return s, true })

	// Deterministic order: sort property names so two loads of the same
	// document produce byte-identical checksums.
	names := lo.Keys(doc.Schema.Properties)
	sort.Strings(names)

	entityName := inflect.EntityName(collection)
	for _, name := range names {
		ps := doc.Schema.Properties[name]
		p := Property{Name: name, Required: required[name]}
		p.Kind, p.ArrayElementKind, p.AssociatedEnum = classify(ps, entityName, name)
		props = append(props, p)
	}

	return &Entity{Name: entityName, CollectionName: collection, Properties: props}
}

func classify(ps propSchema, entityName, propName string) (ScalarKind, ScalarKind, *Enum) {
	if len(ps.Enum) > 0 {
		sorted := append([]string(nil), ps.Enum...)
		sort.Strings(sorted)
		return ScalarEnum, 0, &Enum{Name: inflect.EnumName(entityName, propName), Variants: sorted}
	}
	switch ps.Type {
	case "integer":
		return ScalarInt, 0, nil
	case "number":
		return ScalarFloat, 0, nil
	case "boolean":
		return ScalarBoolean, 0, nil
	case "object":
		return ScalarObject, 0, nil
	case "array":
		inner := ScalarString
		if ps.Items != nil {
			inner, _, _ = classify(*ps.Items, entityName, propName)
		}
		return ScalarArray, inner, nil
	default:
		return ScalarString, 0, nil
	}
}

func parseRelationshipKind(t string) RelationshipKind {
	switch t {
	case "one_to_many":
		return OneToMany
	case "many_to_one":
		return ManyToOne
	case "many_to_many":
		return ManyToMany
	default:
		return OneToOne
	}
}

func parseDirection(d string) Direction {
	switch d {
	case "inbound":
		return DirectionInbound
	case "any":
		return DirectionAny
	default:
		return DirectionOutbound
	}
}

// remarshal is the one place a raw document (map[string]any, as returned
// by the Gateway) is converted into a typed meta-document struct.
func remarshal(doc map[string]any, out any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// computeChecksum hashes the canonical JSON encoding of the sorted entity
// and relationship lists, giving the Hot Reload Controller a cheap gate
// for skipping no-op schema rebuilds.
func computeChecksum(c *Catalog) [32]byte {
	type entitySnapshot struct {
		Name       string     `json:"name"`
		Collection string     `json:"collection"`
		Properties []Property `json:"properties"`
	}
	type relSnapshot struct {
		Name      string `json:"name"`
		Edge      string `json:"edge"`
		From      string `json:"from"`
		To        string `json:"to"`
		Kind      int    `json:"kind"`
		Direction int    `json:"direction"`
	}

	snap := struct {
		Entities      []entitySnapshot `json:"entities"`
		Relationships []relSnapshot    `json:"relationships"`
	}{}
	for _, e := range c.Entities {
		snap.Entities = append(snap.Entities, entitySnapshot{Name: e.Name, Collection: e.CollectionName, Properties: e.Properties})
	}
	for _, r := range c.Relationships {
		snap.Relationships = append(snap.Relationships, relSnapshot{
			Name: r.Name, Edge: r.EdgeCollection, From: r.From.CollectionName, To: r.To.CollectionName,
			Kind: int(r.Kind), Direction: int(r.Direction),
		})
	}
	data, _ := json.Marshal(snap)
	return sha256.Sum256(data)
}
