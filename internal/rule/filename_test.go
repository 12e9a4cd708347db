package rule

import (
	"testing"
	"time"
)

func TestParseFilename(t *testing.T) {
	tests := []struct {
		filename   string
		wantNumber string
		wantSlug   string
		wantErr    bool
	}{
		{"010-snowflake-sql.md", "010", "snowflake-sql", false},
		{"020a-streamlit.md", "020a", "streamlit", false},
		{"001-global-conventions.md", "001", "global-conventions", false},
		{"10-too-short.md", "", "", true},
		{"010_snowflake.md", "", "", true},
		{"010-Snowflake.md", "", "", true},
		{"010-snowflake.txt", "", "", true},
		{"README.md", "", "", true},
		{"010-.md", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			number, slug, err := ParseFilename(tt.filename)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.filename)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if number != tt.wantNumber || slug != tt.wantSlug {
				t.Errorf("got %q/%q, want %q/%q", number, slug, tt.wantNumber, tt.wantSlug)
			}
		})
	}
}

func TestNewRuleContent(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	content, err := NewRuleContent("snowflake-sql", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc, err := Parse("015-snowflake-sql.md", []byte(content))
	if err != nil {
		t.Fatalf("scaffolded rule should parse: %v", err)
	}
	if doc.Title != "Snowflake Sql" {
		t.Errorf("unexpected title: %q", doc.Title)
	}
	if doc.MetadataSource != MetadataFromSection {
		t.Errorf("scaffold should carry a Metadata section, got %q", doc.MetadataSource)
	}
	if doc.Metadata.LastUpdated != "2026-08-29" {
		t.Errorf("LastUpdated = %q, want 2026-08-29", doc.Metadata.LastUpdated)
	}

	// Every conventional section must be present in the scaffold
	for _, heading := range RequiredSections {
		if doc.Section(heading) == nil {
			t.Errorf("scaffold is missing section %q", heading)
		}
	}
}
