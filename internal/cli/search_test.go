package cli

import (
	"testing"

	"github.com/lu-zhengda/gmailkit/internal/query"
)

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name  string
		flags searchFlags
		want  string
	}{
		{
			name:  "no flags",
			flags: searchFlags{},
			want:  "",
		},
		{
			name:  "single field",
			flags: searchFlags{from: "alice@example.com"},
			want:  `from:"alice@example.com"`,
		},
		{
			name:  "multiple fields joined with and",
			flags: searchFlags{from: "alice@example.com", subject: "invoice"},
			want:  `(from:"alice@example.com" subject:invoice)`,
		},
		{
			name:  "date range",
			flags: searchFlags{after: "2024-01-01", before: "2024-06-30"},
			want:  "(after:2024-01-01 before:2024-06-30)",
		},
		{
			name:  "size bounds",
			flags: searchFlags{larger: "2M", smaller: "10M"},
			want:  "(larger:2M smaller:10M)",
		},
		{
			name:  "has attachment",
			flags: searchFlags{has: []string{"attachment"}},
			want:  "has:attachment",
		},
		{
			name:  "everything",
			flags: searchFlags{to: "bob@example.com", filename: "report.pdf", has: []string{"drive"}},
			want:  `(to:"bob@example.com" filename:"report.pdf" has:drive)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term, err := buildQuery(&tt.flags)
			if err != nil {
				t.Fatalf("buildQuery() error = %v", err)
			}
			if tt.want == "" {
				if term != nil {
					t.Fatalf("buildQuery() = %v, want nil", term)
				}
				return
			}
			got, err := query.Render(term)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildQueryUnknownHas(t *testing.T) {
	if _, err := buildQuery(&searchFlags{has: []string{"hologram"}}); err == nil {
		t.Fatal("expected error for unknown --has attribute")
	}
}

func TestBuildOrdering(t *testing.T) {
	got, err := buildOrdering([]string{"-date", "size", "from"})
	if err != nil {
		t.Fatalf("buildOrdering() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d orderings, want 3", len(got))
	}
	if !got[0].Descending {
		t.Error("first ordering should be descending")
	}
	if got[1].Descending || got[2].Descending {
		t.Error("remaining orderings should be ascending")
	}

	if _, err := buildOrdering([]string{"color"}); err == nil {
		t.Fatal("expected error for unknown order key")
	}
}
