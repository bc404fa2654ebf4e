package db

import "strings"

// IndexBuilder is a fluent builder for index definitions.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts building an index definition.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

// Shards sets the number of primary shards.
func (b *IndexBuilder) Shards(n int) *IndexBuilder {
	b.def.Shards = n
	return b
}

// Replicas sets the number of replica shards.
func (b *IndexBuilder) Replicas(n int) *IndexBuilder {
	b.def.Replicas = n
	return b
}

// Keyword adds an exact-match keyword field.
func (b *IndexBuilder) Keyword(name string) *IndexBuilder {
	return b.field(name, IndexFieldKeyword)
}

// Text adds an analyzed full-text field.
func (b *IndexBuilder) Text(name string) *IndexBuilder {
	return b.field(name, IndexFieldText)
}

// Date adds a date field.
func (b *IndexBuilder) Date(name string) *IndexBuilder {
	return b.field(name, IndexFieldDate)
}

func (b *IndexBuilder) field(name string, typ IndexFieldType) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Name: name, Type: typ})
	return b
}

// Build validates and returns the index definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	def.Fields = append([]IndexField(nil), b.def.Fields...)
	return &def, nil
}

// MustBuild calls Build and panics on error.
func (b *IndexBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// String returns a compact debug representation, e.g. "docs {tenant:keyword title:text}".
func (idx *IndexDefinition) String() string {
	parts := make([]string, 0, len(idx.Fields))
	for i := range idx.Fields {
		parts = append(parts, idx.Fields[i].Name+":"+string(idx.Fields[i].Type))
	}
	return idx.Name + " {" + strings.Join(parts, " ") + "}"
}
