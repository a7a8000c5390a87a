// internal/tenant/classify_test.go
//
// Unit-tests for Host classification and tenant-id syntax.
//
// Run: go test ./internal/tenant -v

package tenant

import (
	"strings"
	"testing"
)

func TestClassify_RootForms(t *testing.T) {
	c := NewClassifier("example.com")
	for _, h := range []string{
		"example.com",
		"www.example.com",
		"localhost",
		"example.com:3000",
		"www.example.com:443",
		"localhost:3000",
		"EXAMPLE.com",
		"example.com.",
	} {
		if got := c.Classify(h); got != Root {
			t.Errorf("Classify(%q) = %+v, want root", h, got)
		}
	}
}

func TestClassify_TenantSubdomains(t *testing.T) {
	c := NewClassifier("example.com")
	cases := map[string]string{
		"toko-a.example.com":      "toko-a",
		"toko-b.example.com:8443": "toko-b",
		"a.b.example.com":         "a.b",
		"Toko-C.Example.Com":      "toko-c",
		"x.example.com.":          "x",
	}
	for host, id := range cases {
		got := c.Classify(host)
		if got.Kind != KindTenant || got.TenantID != id {
			t.Errorf("Classify(%q) = %+v, want tenant %q", host, got, id)
		}
	}
}

func TestClassify_SubPrefixProperty(t *testing.T) {
	for _, base := range []string{"example.com", "portorey.my.id", "kalako.local"} {
		c := NewClassifier(base)
		for _, sub := range []string{"a", "toko-maju", "shop1", "x.y", "ww", "wwww"} {
			got := c.Classify(sub + "." + base)
			if got != TenantOf(sub) {
				t.Errorf("base %s: Classify(%q) = %+v", base, sub+"."+base, got)
			}
		}
	}
}

func TestClassify_Unroutable(t *testing.T) {
	c := NewClassifier("example.com")
	for _, h := range []string{
		"",
		"   ",
		"other.org",
		"notexample.com",
		".example.com",
		"a..example.com",
		"bad host.example.com",
		"evil.com/.example.com",
		"user@example.com",
		"sp!ce.example.com",
		"a+b.example.com",
		"a%2eb.example.com",
		strings.Repeat("x", 64) + ".example.com",
		"::1",
		"[::1]:8080",
		"127.0.0.1",
	} {
		if got := c.Classify(h); got != Unroutable {
			t.Errorf("Classify(%q) = %+v, want unroutable", h, got)
		}
	}
}

func TestClassify_LabelLength(t *testing.T) {
	c := NewClassifier("example.com")
	id := strings.Repeat("x", 63) + ".y"
	if got := c.Classify(id + ".example.com"); got != TenantOf(id) {
		t.Fatalf("63-char label = %+v, want tenant", got)
	}
}

func TestClassify_EmptyBaseDomain(t *testing.T) {
	c := NewClassifier("")
	if got := c.Classify("localhost"); got != Root {
		t.Errorf("localhost = %+v, want root", got)
	}
	if got := c.Classify("toko.example.com"); got != Unroutable {
		t.Errorf("toko.example.com = %+v, want unroutable", got)
	}
}

func TestNormalizeHost(t *testing.T) {
	cases := map[string]string{
		"Example.COM:80": "example.com",
		"[::1]:8080":     "::1",
		"[fe80::1]":      "fe80::1",
		"host.":          "host",
		" a.b ":          "a.b",
		"a b":            "",
	}
	for in, want := range cases {
		if got := NormalizeHost(in); got != want {
			t.Errorf("NormalizeHost(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestKindString(t *testing.T) {
	if KindRoot.String() != "root" || KindTenant.String() != "tenant" || KindUnroutable.String() != "unroutable" {
		t.Fatal("unexpected Kind strings")
	}
}
