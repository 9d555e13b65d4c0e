package db

// IndexBuilder is a fluent builder for FT index definitions.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts building a hash-backed FT index definition.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

// Prefix adds key prefixes to the index.
func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

// Numeric adds a NUMERIC field (timestamps in unix millis).
func (b *IndexBuilder) Numeric(name string) *IndexBuilder {
	return b.field(IndexField{Name: name, Type: IndexFieldNumeric})
}

// Tag adds a case-insensitive TAG field.
func (b *IndexBuilder) Tag(name string) *IndexBuilder {
	return b.field(IndexField{Name: name, Type: IndexFieldTag})
}

// CaseSensitiveTag adds a TAG field matched byte for byte, for identifiers
// such as document ids and tenant hashes.
func (b *IndexBuilder) CaseSensitiveTag(name string) *IndexBuilder {
	return b.field(IndexField{Name: name, Type: IndexFieldTag, TagCaseSensitive: true})
}

// Vector adds the HNSW cosine vector field.
func (b *IndexBuilder) Vector(name string, dim int, p HNSWParams) *IndexBuilder {
	return b.field(IndexField{Name: name, Type: IndexFieldVector, VectorDim: dim, HNSW: p})
}

func (b *IndexBuilder) field(f IndexField) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, f)
	return b
}

// Build validates and returns the index definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	return &def, nil
}
