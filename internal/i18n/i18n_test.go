package i18n

import (
	"strings"
	"testing"
)

func TestLoadAndMatch(t *testing.T) {
	loc, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	cases := []struct {
		code string
		want string
	}{
		{"en", "Hi %s!"},
		{"en-US", "Hi %s!"},
		{"ru", "Привет"},
		{"ru-RU", "Привет"},
		{"de", "Hi %s!"}, // unsupported falls back to English
		{"", "Hi %s!"},
	}
	for _, tc := range cases {
		got := loc.For(tc.code).UserHello
		if !strings.HasPrefix(got, tc.want) {
			t.Errorf("For(%q).UserHello = %q, want prefix %q", tc.code, got, tc.want)
		}
	}
}

func TestCatalogComplete(t *testing.T) {
	loc, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	for _, code := range []string{"en", "ru"} {
		s := loc.For(code)
		if s.JobError == "" || s.TooManyQueries == "" || s.SendNextStylePrompt == "" {
			t.Fatalf("catalog %q has empty entries: %+v", code, s)
		}
	}
}
