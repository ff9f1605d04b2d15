package domain

import (
	"strings"
	"testing"
)

func TestSearchRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    string
		wantErr error
	}{
		{name: "valid", query: "75201 food bank", want: "75201 food bank"},
		{name: "trims whitespace", query: "  housing  ", want: "housing"},
		{name: "empty", query: "", wantErr: ErrEmptyQuery},
		{name: "whitespace only", query: "   ", wantErr: ErrEmptyQuery},
		{name: "too long", query: strings.Repeat("a", MaxQueryLength+1), wantErr: ErrQueryTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &SearchRequest{Query: tt.query}
			err := req.Validate()
			if err != tt.wantErr {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && req.Query != tt.want {
				t.Errorf("Query = %q, want %q", req.Query, tt.want)
			}
		})
	}
}

func TestRankRequestValidate(t *testing.T) {
	if err := (&RankRequest{}).Validate(); err == nil {
		t.Error("expected error for empty eins")
	}
	if err := (&RankRequest{EINs: []string{"123456789"}}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
