package db

import (
	"errors"
	"strconv"
)

// IndexFieldType enumerates supported mapping field types.
type IndexFieldType string

const (
	// IndexFieldKeyword is an exact-match, unanalyzed string field.
	IndexFieldKeyword IndexFieldType = "keyword"
	// IndexFieldText is an analyzed full-text field.
	IndexFieldText IndexFieldType = "text"
	// IndexFieldDate is a date field.
	IndexFieldDate IndexFieldType = "date"
)

// IndexField describes a single field in an index mapping.
type IndexField struct {
	Name string
	Type IndexFieldType
}

// IndexDefinition is a complete index definition used by CreateIndex.
// Zero Shards/Replicas leave the backend defaults in place.
type IndexDefinition struct {
	Name     string
	Shards   int
	Replicas int
	Fields   []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIndexName(idx.Name) {
		return errors.New("index name contains invalid characters")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}
	if idx.Shards < 0 || idx.Replicas < 0 {
		return errors.New("shards and replicas must not be negative")
	}

	seen := make(map[string]bool)
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return errors.New("field name is required at index " + strconv.Itoa(i))
		}
		if seen[f.Name] {
			return errors.New("duplicate field name: " + f.Name)
		}
		seen[f.Name] = true

		switch f.Type {
		case IndexFieldKeyword, IndexFieldText, IndexFieldDate:
		default:
			return errors.New("unsupported field type " + strconv.Quote(string(f.Type)) + " for " + f.Name)
		}
	}

	return nil
}

// IsValidIndexName returns true if s matches [a-z0-9_-]+ and does not start with '_' or '-'.
func IsValidIndexName(s string) bool {
	if s == "" || s[0] == '_' || s[0] == '-' {
		return false
	}
	for _, r := range s {
		isLower := r >= 'a' && r <= 'z'
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == '-'
		if !isLower && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
