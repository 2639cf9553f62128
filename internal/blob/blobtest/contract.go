// Package blobtest holds the behavioural contract every blob backend must
// satisfy. Backend tests call Run with a fresh, empty store.
package blobtest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/blob/core"
)

// Run exercises put/get/head/list/delete semantics against store.
func Run(t *testing.T, store core.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		if _, err := store.Head(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected ErrNotFound from head, got %v", err)
		}
		if _, _, err := store.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected ErrNotFound from get, got %v", err)
		}
		if ok, err := store.Delete(ctx, "missing"); err != nil || ok {
			t.Fatalf("expected delete of missing key to report false, got %v %v", ok, err)
		}
	})

	t.Run("put overwrites", func(t *testing.T) {
		if _, err := store.Put(ctx, "sarc/advisors", bytes.NewReader([]byte(`[]`)), core.PutOptions{ContentType: "application/json"}); err != nil {
			t.Fatalf("put: %v", err)
		}
		info, err := store.Put(ctx, "sarc/advisors", bytes.NewReader([]byte(`[{"id":1}]`)), core.PutOptions{
			ContentType: "application/json",
			Metadata:    map[string]string{"entity": "advisors"},
		})
		if err != nil {
			t.Fatalf("overwrite: %v", err)
		}
		if info.Key != "sarc/advisors" {
			t.Fatalf("unexpected key %q", info.Key)
		}
		got, rc, err := store.Get(ctx, "sarc/advisors")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		body, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(body) != `[{"id":1}]` {
			t.Fatalf("expected overwritten body, got %s", body)
		}
		if got.Size != int64(len(body)) {
			t.Fatalf("expected size %d, got %d", len(body), got.Size)
		}
		if got.ContentType != "application/json" {
			t.Fatalf("expected content type to round trip, got %q", got.ContentType)
		}
		head, err := store.Head(ctx, "sarc/advisors")
		if err != nil {
			t.Fatalf("head: %v", err)
		}
		if head.Size != got.Size {
			t.Fatalf("head size %d != get size %d", head.Size, got.Size)
		}
	})

	t.Run("list by prefix", func(t *testing.T) {
		for _, key := range []string{"sarc/routes", "sarc/clients", "other/routes"} {
			if _, err := store.Put(ctx, key, bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
				t.Fatalf("put %s: %v", key, err)
			}
		}
		infos, err := store.List(ctx, "sarc/")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		want := []string{"sarc/advisors", "sarc/clients", "sarc/routes"}
		if len(infos) != len(want) {
			t.Fatalf("expected %d entries, got %d", len(want), len(infos))
		}
		for i, info := range infos {
			if info.Key != want[i] {
				t.Fatalf("entry %d: expected %s, got %s", i, want[i], info.Key)
			}
		}
	})

	t.Run("delete", func(t *testing.T) {
		ok, err := store.Delete(ctx, "other/routes")
		if err != nil || !ok {
			t.Fatalf("expected delete to report true, got %v %v", ok, err)
		}
		if _, err := store.Head(ctx, "other/routes"); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected deleted key to be gone, got %v", err)
		}
	})
}
