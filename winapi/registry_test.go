package winapi

import (
	"path/filepath"
	"testing"
)

func TestOpenOrCreateKeyAndHandle(t *testing.T) {
	r, err := loadRegistry(filepath.Join(t.TempDir(), "registry.json"))
	if err != nil {
		t.Fatalf("loadRegistry failed: %v", err)
	}
	if _, ok := r.openOrCreateKey(`HKCU\Software\Acme`, false); ok {
		t.Fatalf("openOrCreateKey(create=false) should fail for an absent key")
	}
	vals, ok := r.openOrCreateKey(`HKCU\Software\Acme`, true)
	if !ok {
		t.Fatalf("openOrCreateKey(create=true) should succeed")
	}
	vals["Version"] = RegValue{Type: regSZ, Str: "1.0"}

	h := r.handle(`HKCU\Software\Acme`)
	got, ok := r.keyForHandle(h)
	if !ok {
		t.Fatalf("keyForHandle failed for a just-minted handle")
	}
	if got["Version"].Str != "1.0" {
		t.Errorf("value round trip through the handle lost data: got %+v", got["Version"])
	}

	r.closeHandle(h)
	if _, ok := r.keyForHandle(h); ok {
		t.Errorf("keyForHandle succeeded after closeHandle")
	}
}

func TestNormalizeKeyCaseAndSlash(t *testing.T) {
	cases := []struct{ a, b string }{
		{`HKCU\Software\Acme`, `hkcu\software\acme`},
		{`HKCU/Software/Acme`, `HKCU\Software\Acme`},
	}
	for _, c := range cases {
		if normalizeKey(c.a) != normalizeKey(c.b) {
			t.Errorf("normalizeKey(%q) = %q, normalizeKey(%q) = %q, want equal",
				c.a, normalizeKey(c.a), c.b, normalizeKey(c.b))
		}
	}
}

func TestSaveAndReloadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	r, err := loadRegistry(path)
	if err != nil {
		t.Fatalf("loadRegistry failed: %v", err)
	}
	vals, _ := r.openOrCreateKey(`HKLM\Software\Widget`, true)
	vals["Count"] = RegValue{Type: regDWORD, Int: 42}
	if err := r.save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	reloaded, err := loadRegistry(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	got, ok := reloaded.openOrCreateKey(`HKLM\Software\Widget`, false)
	if !ok {
		t.Fatalf("reloaded registry missing the saved key")
	}
	if got["Count"].Int != 42 {
		t.Errorf("Count = %d, want 42", got["Count"].Int)
	}
}

func TestLoadRegistryMissingFileIsEmpty(t *testing.T) {
	r, err := loadRegistry(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("loadRegistry on a missing file should not error: %v", err)
	}
	if _, ok := r.openOrCreateKey(`HKCU\Anything`, false); ok {
		t.Errorf("a freshly loaded empty registry should have no keys")
	}
}
