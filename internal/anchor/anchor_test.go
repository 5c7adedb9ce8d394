package anchor

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"getting-started", "getting-started"},
		{"Hello World", "HelloWorld"},
		{"v1.2-release", "v-release"},
		{"--leading", "leading"},
		{"-nbsp-x", "x"},
		{"nbnbspsp", ""},
		{"a&nbsp;b", "ab"},
		{"nbspnbsp", ""},
		{"xnbnbnbspspspy", "xy"},
		{"NBSP", "NBSP"},
		{"café-crème", "caf-crme"},
		{"日本語", ""},
		{"🚀 launch", "launch"},
		{"", ""},
		{"---", ""},
		{"a--b", "a--b"},
	}
	for _, tt := range tests {
		got := Sanitize(tt.input)
		if got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeAlphabet(t *testing.T) {
	inputs := []string{
		"   -- Section 4.1: Überblick (draft) --",
		"-&nbsp;-nbsp-",
		"\t\n-\x00-\xff",
		"api/v2?x=1#frag",
		strings.Repeat("nb", 50) + strings.Repeat("sp", 50),
	}
	for _, in := range inputs {
		got := Sanitize(in)
		if strings.HasPrefix(got, "-") {
			t.Errorf("Sanitize(%q) = %q starts with a hyphen", in, got)
		}
		for i := 0; i < len(got); i++ {
			if !allowed(got[i]) {
				t.Errorf("Sanitize(%q) = %q contains %q", in, got, got[i])
			}
		}
		if strings.Contains(got, "nbsp") {
			t.Errorf("Sanitize(%q) = %q still contains nbsp", in, got)
		}
		if again := Sanitize(got); again != got {
			t.Errorf("Sanitize not idempotent for %q: %q then %q", in, got, again)
		}
	}
}

func TestSanitizeMatchesRepeatedRemoval(t *testing.T) {
	// Reference: whitelist, then strip leftmost "nbsp" until none remain.
	reference := func(s string) string {
		var b strings.Builder
		for i := 0; i < len(s); i++ {
			if allowed(s[i]) {
				b.WriteByte(s[i])
			}
		}
		out := b.String()
		for strings.Contains(out, "nbsp") {
			out = strings.Replace(out, "nbsp", "", 1)
		}
		return strings.TrimLeft(out, "-")
	}
	inputs := []string{
		"nnbspbsp", "nbsnbspp", "n-bsp", "nb1sp", "-nbs-p", "nbspn bsp",
		"nbnbnbspspsp", "a-nbsp--nbsp", "pnbsp", "nbsps",
	}
	for _, in := range inputs {
		if got, want := Sanitize(in), reference(in); got != want {
			t.Errorf("Sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}

// chain builds an H1 > H2 > H3 chain and returns the three headings.
func chain(h1Text, h1ID, h2Text, h2ID, h3Text, h3ID string) (*Heading, *Heading, *Heading) {
	h1 := &Heading{Level: H1, Text: h1Text, DomID: h1ID}
	h2 := &Heading{Level: H2, Text: h2Text, DomID: h2ID, Parents: []*Heading{h1}}
	h3 := &Heading{Level: H3, Text: h3Text, DomID: h3ID, Parents: []*Heading{h1, h2}}
	return h1, h2, h3
}

func TestDeriveIDH1(t *testing.T) {
	h := &Heading{Level: H1, Text: "Getting Started", DomID: "getting-started"}
	if got := DeriveID(h); got != "getting-started" {
		t.Errorf("DeriveID(H1) = %q, want %q", got, "getting-started")
	}
}

func TestDeriveIDH2(t *testing.T) {
	_, h2, _ := chain("Getting Started", "getting-started", "Install", "install", "", "")
	if got := DeriveID(h2); got != "getting-started-install" {
		t.Errorf("DeriveID(H2) = %q, want %q", got, "getting-started-install")
	}
}

func TestDeriveIDH3(t *testing.T) {
	_, _, h3 := chain("API", "api", "Create", "create", "Parameters", "params")
	if got := DeriveID(h3); got != "api-create-params" {
		t.Errorf("DeriveID(H3) = %q, want %q", got, "api-create-params")
	}
}

func TestDeriveIDOnlyFirstSpaceBecomesHyphen(t *testing.T) {
	_, h2, _ := chain("Errors and Status Codes", "errors", "Retry", "retry", "", "")
	if got := DeriveID(h2); got != "errors-andstatuscodes-retry" {
		t.Errorf("DeriveID = %q, want %q", got, "errors-andstatuscodes-retry")
	}
}

func TestDeriveIDSiblingSectionsDiffer(t *testing.T) {
	h1 := &Heading{Level: H1, Text: "API", DomID: "api"}
	create := &Heading{Level: H2, Text: "Create", DomID: "create", Parents: []*Heading{h1}}
	remove := &Heading{Level: H2, Text: "Delete", DomID: "delete", Parents: []*Heading{h1}}
	a := &Heading{Level: H3, Text: "Parameters", DomID: "parameters", Parents: []*Heading{h1, create}}
	b := &Heading{Level: H3, Text: "Parameters", DomID: "parameters", Parents: []*Heading{h1, remove}}

	ida, idb := DeriveID(a), DeriveID(b)
	if ida == idb {
		t.Fatalf("sibling H3 ids collide: %q", ida)
	}
	if ida != "api-create-parameters" || idb != "api-delete-parameters" {
		t.Errorf("ids = %q, %q", ida, idb)
	}
}

func TestDeriveIDDegenerate(t *testing.T) {
	tests := []struct {
		name string
		h    *Heading
		want string
	}{
		{"nil", nil, ""},
		{"empty h1", &Heading{Level: H1}, ""},
		{"emoji h1", &Heading{Level: H1, DomID: "🎉"}, ""},
		{"h2 without h1", &Heading{Level: H2, Text: "X", DomID: "orphan"}, "orphan"},
		{"unicode ancestors", func() *Heading {
			_, _, h3 := chain("日本", "", "語", "", "x", "x")
			return h3
		}(), "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveID(tt.h); got != tt.want {
				t.Errorf("DeriveID = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPoolDetectsWithoutRenaming(t *testing.T) {
	p := NewPool()
	for _, id := range []string{"a", "b", "a", "", "a", ""} {
		p.Issue(id)
	}
	if p.Len() != 3 {
		t.Errorf("Len = %d, want 3", p.Len())
	}
	if p.Count("a") != 3 {
		t.Errorf("Count(a) = %d, want 3", p.Count("a"))
	}
	dups := p.Duplicates()
	if len(dups) != 2 || dups[0] != "a" || dups[1] != "" {
		t.Errorf("Duplicates = %q, want [a \"\"]", dups)
	}
}

func TestPoolIssueReportsDuplicate(t *testing.T) {
	p := NewPool()
	if p.Issue("x") {
		t.Error("first Issue reported duplicate")
	}
	if !p.Issue("x") {
		t.Error("second Issue did not report duplicate")
	}
}
