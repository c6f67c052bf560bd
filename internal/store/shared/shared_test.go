package shared

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"The Pragmatic Programmer": "the-pragmatic-programmer",
		"  Cien años de soledad ":  "cien-anos-de-soledad",
		"Ender's Game":             "enders-game",
		"C++ -- Primer!":           "c-primer",
		"???":                      "n-a",
		"":                         "n-a",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFold(t *testing.T) {
	if got := Fold("  Gabriel  GARCÍA\tMárquez "); got != "gabriel garcia marquez" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveKeyCond(t *testing.T) {
	cond, arg := ResolveKeyCond("l", "3F2504E0-4F89-11D3-9A0C-0305E82C3301", 1)
	if cond != "l.id = $1" || arg != "3f2504e0-4f89-11d3-9a0c-0305e82c3301" {
		t.Fatalf("uuid: %s %v", cond, arg)
	}
	cond, arg = ResolveKeyCond("l", "dune-2", 2)
	if cond != "l.slug = $2" || arg != "dune-2" {
		t.Fatalf("slug: %s %v", cond, arg)
	}
}

func TestIsUUID(t *testing.T) {
	for in, want := range map[string]bool{
		"3f2504e0-4f89-11d3-9a0c-0305e82c3301":          true,
		"3f2504e04f8911d39a0c0305e82c3301":              false,
		"urn:uuid:3f2504e0-4f89-11d3-9a0c-0305e82c3301": false,
		"the-pragmatic-programmer":                      false,
	} {
		if IsUUID(in) != want {
			t.Errorf("IsUUID(%q) != %v", in, want)
		}
	}
}

func TestSlugifyTruncates(t *testing.T) {
	got := Slugify(strings.Repeat("word ", 30))
	if len(got) > 80 || strings.HasSuffix(got, "-") {
		t.Fatalf("bad truncation: %q", got)
	}
}
