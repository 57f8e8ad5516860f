package entity

import "testing"

func TestNormalizeSlug(t *testing.T) {
	tests := []struct {
		slug string
		name string
		want string
	}{
		{"My Song", "", "my-song"},
		{"  spaced   out ", "", "spaced-out"},
		{"already-fine", "", "already-fine"},
		{"", "Fallback Name", "fallback-name"},
		{"MiXeD", "ignored", "mixed"},
	}
	for _, tt := range tests {
		if got := NormalizeSlug(tt.slug, tt.name); got != tt.want {
			t.Errorf("NormalizeSlug(%q, %q) = %q, want %q", tt.slug, tt.name, got, tt.want)
		}
	}
}
