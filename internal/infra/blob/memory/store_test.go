package memory

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/blob/blobtest"
	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/blob/core"
)

func TestStoreContract(t *testing.T) {
	blobtest.Run(t, New())
}

func TestStoreReturnsIsolatedCopies(t *testing.T) {
	store := New()
	ctx := context.Background()
	md := map[string]string{"a": "1"}
	if _, err := store.Put(ctx, "k", bytes.NewReader([]byte("v")), core.PutOptions{Metadata: md}); err != nil {
		t.Fatalf("put: %v", err)
	}
	md["a"] = "mutated"
	info, rc, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	if string(body) != "v" || info.Metadata["a"] != "1" {
		t.Fatalf("expected stored copy to be unaffected, got %s %#v", body, info.Metadata)
	}
	info.Metadata["a"] = "changed"
	head, _ := store.Head(ctx, "k")
	if head.Metadata["a"] != "1" {
		t.Fatalf("head metadata should not alias returned info")
	}
}

func TestStoreEdgeCases(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Put(ctx, "", bytes.NewReader(nil), core.PutOptions{}); err == nil {
		t.Fatalf("expected empty key error")
	}
	if _, err := store.PresignURL(ctx, "k", core.SignedURLOptions{}); err != core.ErrUnsupported {
		t.Fatalf("expected unsupported presign, got %v", err)
	}
	if store.Driver() != core.DriverMemory {
		t.Fatalf("unexpected driver %s", store.Driver())
	}
}
