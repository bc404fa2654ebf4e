package db

import (
	"strings"
	"testing"
)

func TestIndexBuilder_Simple(t *testing.T) {
	idx := NewIndex("documents").
		Keyword("tenant").
		Text("title").
		Date("createdAt").
		MustBuild()

	if err := idx.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Name != "documents" {
		t.Errorf("name = %q, want documents", idx.Name)
	}
	if len(idx.Fields) != 3 {
		t.Fatalf("fields count = %d, want 3", len(idx.Fields))
	}
	if idx.Fields[0].Name != "tenant" || idx.Fields[0].Type != IndexFieldKeyword {
		t.Errorf("field[0] = %+v, want tenant keyword", idx.Fields[0])
	}
	if idx.Fields[1].Type != IndexFieldText {
		t.Errorf("field[1] = %+v, want text", idx.Fields[1])
	}
	if idx.Fields[2].Type != IndexFieldDate {
		t.Errorf("field[2] = %+v, want date", idx.Fields[2])
	}
}

func TestIndexBuilder_ShardsReplicas(t *testing.T) {
	idx := NewIndex("documents").Shards(3).Replicas(1).Keyword("tenant").MustBuild()

	if idx.Shards != 3 || idx.Replicas != 1 {
		t.Errorf("shards=%d replicas=%d, want 3/1", idx.Shards, idx.Replicas)
	}
}

func TestIndexBuilder_BuildCopiesFields(t *testing.T) {
	b := NewIndex("documents").Keyword("tenant")
	first := b.MustBuild()
	b.Text("title")

	if len(first.Fields) != 1 {
		t.Errorf("first definition mutated by later builder calls: %v", first.Fields)
	}
}

func TestIndexBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder func() (*IndexDefinition, error)
		wantErr string
	}{
		{
			name: "empty name",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("").Keyword("x").Build()
			},
			wantErr: "index name is required",
		},
		{
			name: "uppercase name",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("Docs").Keyword("x").Build()
			},
			wantErr: "invalid characters",
		},
		{
			name: "no fields",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Build()
			},
			wantErr: "at least one field",
		},
		{
			name: "duplicate field",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Keyword("a").Text("a").Build()
			},
			wantErr: "duplicate field name: a",
		},
		{
			name: "negative shards",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Shards(-1).Keyword("a").Build()
			},
			wantErr: "must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestIndexDefinition_UnsupportedType(t *testing.T) {
	idx := &IndexDefinition{Name: "idx", Fields: []IndexField{{Name: "v", Type: "vector"}}}
	if err := idx.Validate(); err == nil || !strings.Contains(err.Error(), "unsupported field type") {
		t.Errorf("Validate() = %v, want unsupported field type", err)
	}
}

func TestIndexDefinition_String(t *testing.T) {
	idx := NewIndex("documents").Keyword("tenant").Text("title").MustBuild()
	if got := idx.String(); got != "documents {tenant:keyword title:text}" {
		t.Errorf("String() = %q", got)
	}
}

func TestIsValidIndexName(t *testing.T) {
	valid := []string{"documents", "docs-v2", "a_b", "x1"}
	invalid := []string{"", "_hidden", "-dash", "Upper", "has space", "a/b", "a:b"}

	for _, s := range valid {
		if !IsValidIndexName(s) {
			t.Errorf("IsValidIndexName(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if IsValidIndexName(s) {
			t.Errorf("IsValidIndexName(%q) = true, want false", s)
		}
	}
}

func TestStatusError(t *testing.T) {
	if got := (&StatusError{Code: 500}).Error(); got != "unexpected status 500" {
		t.Errorf("Error() = %q", got)
	}
	if got := (&StatusError{Code: 400, Type: "mapper_parsing_exception"}).Error(); !strings.Contains(got, "mapper_parsing_exception") {
		t.Errorf("Error() = %q", got)
	}
}
