package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"plantcore/internal/blob/core"
)

func TestRoundTripAndIsolation(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, err := store.Put(ctx, "plants/p1/a.jpg", strings.NewReader("abc"), core.PutOptions{ContentType: "image/jpeg", Metadata: map[string]string{"plant": "p1"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "plants/p1/a.jpg", strings.NewReader("xyz"), core.PutOptions{}); err == nil {
		t.Fatalf("expected duplicate put to fail")
	}

	info, rc, err := store.Get(ctx, "plants/p1/a.jpg")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "abc" || info.ContentType != "image/jpeg" {
		t.Fatalf("unexpected blob: body=%q info=%+v", body, info)
	}
	// Mutating returned metadata must not leak into the store.
	info.Metadata["plant"] = "tampered"
	again, err := store.Head(ctx, "plants/p1/a.jpg")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if again.Metadata["plant"] != "p1" {
		t.Fatalf("metadata aliased: %+v", again.Metadata)
	}
}

func TestDeleteAndList(t *testing.T) {
	store := New()
	ctx := context.Background()
	for _, key := range []string{"plants/p1/a.jpg", "plants/p2/b.jpg"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	ok, err := store.Delete(ctx, "plants/p2/b.jpg")
	if err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	ok, _ = store.Delete(ctx, "plants/p2/b.jpg")
	if ok {
		t.Fatalf("delete of absent blob should report false")
	}
	infos, err := store.List(ctx, "")
	if err != nil || len(infos) != 1 || infos[0].Key != "plants/p1/a.jpg" {
		t.Fatalf("unexpected list: %+v err=%v", infos, err)
	}
	if _, err := store.PresignURL(ctx, "plants/p1/a.jpg", core.SignedURLOptions{}); err != core.ErrUnsupported {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
