package collect

import "testing"

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("https://example.com/a", "Title A")
	b := Fingerprint("https://example.com/a", "Title A")
	if a != b {
		t.Errorf("fingerprint not deterministic: %s != %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64-char hex digest, got %d chars", len(a))
	}
}

func TestFingerprintDistinct(t *testing.T) {
	base := Fingerprint("https://example.com/a", "Title A")
	if Fingerprint("https://example.com/a", "Title B") == base {
		t.Error("different titles must not collide")
	}
	if Fingerprint("https://example.com/b", "Title A") == base {
		t.Error("different links must not collide")
	}
}

func TestFingerprintIgnoresContent(t *testing.T) {
	// The fingerprint covers link+title only, so two fetches of the same
	// item with an edited description map to the same key.
	a := Article{Link: "https://example.com/a", Title: "T", Content: "v1"}
	b := Article{Link: "https://example.com/a", Title: "T", Content: "v2 edited"}
	if Fingerprint(a.Link, a.Title) != Fingerprint(b.Link, b.Title) {
		t.Error("content must not affect the fingerprint")
	}
}
