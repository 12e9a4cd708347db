package cmd

import (
	"testing"

	"github.com/odyssey/rulehub/internal/lint"
)

func TestNextFreeNumber(t *testing.T) {
	tests := []struct {
		name    string
		numbers []string
		want    string
		wantErr bool
	}{
		{name: "empty corpus starts at 010", numbers: nil, want: "010"},
		{name: "rounds up to next ten", numbers: []string{"010", "020"}, want: "030"},
		{name: "letter suffix shares base number", numbers: []string{"010", "011a"}, want: "020"},
		{name: "exact multiple still advances", numbers: []string{"030"}, want: "040"},
		{name: "unparseable numbers ignored", numbers: []string{"abc", "015"}, want: "020"},
		{name: "exhausted", numbers: []string{"995"}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := nextFreeNumber(tc.numbers)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFormatTokens(t *testing.T) {
	tests := []struct {
		tokens int
		want   string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1500, "1,500"},
		{12007, "12,007"},
	}

	for _, tc := range tests {
		if got := formatTokens(tc.tokens); got != tc.want {
			t.Errorf("formatTokens(%d) = %q, want %q", tc.tokens, got, tc.want)
		}
	}
}

func TestFilterReportPaths(t *testing.T) {
	report := &lint.Report{Findings: []lint.Finding{
		{Path: "/home/u/.rulehub/rules/010-snowflake-sql.md", Check: "filename"},
		{Path: "/home/u/.rulehub/rules/020-streamlit.md", Check: "filename"},
	}}

	t.Run("matches by basename", func(t *testing.T) {
		filtered := filterReportPaths(report, []string{"010-snowflake-sql.md"})
		if len(filtered.Findings) != 1 {
			t.Fatalf("expected 1 finding, got %d", len(filtered.Findings))
		}
		if filtered.Findings[0].Path != report.Findings[0].Path {
			t.Errorf("wrong finding kept: %s", filtered.Findings[0].Path)
		}
	})

	t.Run("matches by full path", func(t *testing.T) {
		filtered := filterReportPaths(report, []string{"/home/u/.rulehub/rules/020-streamlit.md"})
		if len(filtered.Findings) != 1 {
			t.Fatalf("expected 1 finding, got %d", len(filtered.Findings))
		}
	})

	t.Run("no match yields empty report", func(t *testing.T) {
		filtered := filterReportPaths(report, []string{"999-nope.md"})
		if len(filtered.Findings) != 0 {
			t.Fatalf("expected 0 findings, got %d", len(filtered.Findings))
		}
	})
}

func TestFormatSyncTime(t *testing.T) {
	if got := formatSyncTime(nil); got != "never" {
		t.Errorf("nil sync time: got %q, want %q", got, "never")
	}
}
