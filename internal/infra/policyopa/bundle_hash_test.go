package policyopa

import (
	"testing"
	"testing/fstest"
)

func TestBundleHashStableAcrossOrdering(t *testing.T) {
	a := fstest.MapFS{
		"admission.rego": {Data: []byte("package provreg.admission\n")},
		"data.json":      {Data: []byte(`{"reserved": ["__internal"]}`)},
	}
	b := fstest.MapFS{
		"data.json":      {Data: []byte(`{"reserved": ["__internal"]}`)},
		"admission.rego": {Data: []byte("package provreg.admission\n")},
	}

	hashA, err := ComputeBundleHashFromFS(a, ".")
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	hashB, err := ComputeBundleHashFromFS(b, ".")
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}
	if hashA != hashB {
		t.Fatal("expected identical hashes for identical bundles")
	}
}

func TestBundleHashChangesWithContent(t *testing.T) {
	base := fstest.MapFS{
		"admission.rego": {Data: []byte("package provreg.admission\n")},
	}
	changed := fstest.MapFS{
		"admission.rego": {Data: []byte("package provreg.admission\n\ndefault allow = true\n")},
	}

	hashBase, err := ComputeBundleHashFromFS(base, ".")
	if err != nil {
		t.Fatalf("hash base: %v", err)
	}
	hashChanged, err := ComputeBundleHashFromFS(changed, ".")
	if err != nil {
		t.Fatalf("hash changed: %v", err)
	}
	if hashBase == hashChanged {
		t.Fatal("expected hash to change with bundle content")
	}
}

func TestBundleHashIgnoresNonNormativeFiles(t *testing.T) {
	base := fstest.MapFS{
		"admission.rego": {Data: []byte("package provreg.admission\n")},
	}
	withExtras := fstest.MapFS{
		"admission.rego": {Data: []byte("package provreg.admission\n")},
		"README.md":      {Data: []byte("notes\n")},
		".hidden":        {Data: []byte("x")},
	}

	hashBase, err := ComputeBundleHashFromFS(base, ".")
	if err != nil {
		t.Fatalf("hash base: %v", err)
	}
	hashExtras, err := ComputeBundleHashFromFS(withExtras, ".")
	if err != nil {
		t.Fatalf("hash extras: %v", err)
	}
	if hashBase != hashExtras {
		t.Fatal("expected non-normative files to be ignored")
	}
}
