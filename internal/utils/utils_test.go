package utils

import "testing"

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{name: "non-positive limit", input: "Write a cold email", limit: 0, expect: ""},
		{name: "fits", input: "prompt", limit: 10, expect: "prompt"},
		{name: "truncates", input: "### SCRAPED TEXT", limit: 3, expect: "###..."},
		{name: "counts runes", input: "héllo wörld", limit: 5, expect: "héllo..."},
		{name: "trims before measuring", input: "\n  email  \n", limit: 5, expect: "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
