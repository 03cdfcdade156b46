package blobstore

import (
	"context"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(context.Background(), Config{
		Region:       "us-east-1",
		Bucket:       "provreg-blobs",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		BaseEndpoint: "http://127.0.0.1:9000",
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestNewUploadURL(t *testing.T) {
	store := newTestStore(t)

	key, url, err := store.NewUploadURL(context.Background(), "packages")
	if err != nil {
		t.Fatalf("new upload url: %v", err)
	}
	if !strings.HasPrefix(key, "packages/") {
		t.Fatalf("expected key under packages/, got %q", key)
	}
	if !strings.Contains(url, "127.0.0.1:9000") {
		t.Fatalf("expected endpoint in url, got %q", url)
	}
	if !strings.Contains(url, "provreg-blobs") {
		t.Fatalf("expected bucket in url, got %q", url)
	}
	if !strings.Contains(url, "X-Amz-Signature=") {
		t.Fatalf("expected signed url, got %q", url)
	}

	key2, _, err := store.NewUploadURL(context.Background(), "packages")
	if err != nil {
		t.Fatalf("second upload url: %v", err)
	}
	if key == key2 {
		t.Fatal("expected fresh storage key per request")
	}
}

func TestDownloadURL(t *testing.T) {
	store := newTestStore(t)

	url, err := store.DownloadURL(context.Background(), "manifests/2026/02/01/some-key")
	if err != nil {
		t.Fatalf("download url: %v", err)
	}
	if !strings.Contains(url, "manifests/2026/02/01/some-key") {
		t.Fatalf("expected key in url, got %q", url)
	}
	if !strings.Contains(url, "X-Amz-Signature=") {
		t.Fatalf("expected signed url, got %q", url)
	}

	if _, err := store.DownloadURL(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{Region: "us-east-1"}); err == nil {
		t.Fatal("expected error for missing bucket")
	}
}
