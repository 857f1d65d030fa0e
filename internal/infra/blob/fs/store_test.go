package fs

import (
	"context"
	"io"
	"strings"
	"testing"

	"plantcore/internal/blob/core"
)

var jpeg = core.PutOptions{ContentType: "image/jpeg"}

func TestPutGetDeleteRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	info, err := store.Put(ctx, "plants/p1/front.jpg", strings.NewReader("pixels"), jpeg)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len("pixels")) || info.ETag == "" {
		t.Fatalf("unexpected info after put: %+v", info)
	}
	if info.URL == "" {
		t.Fatalf("expected local URL, got empty")
	}

	if _, err := store.Put(ctx, "plants/p1/front.jpg", strings.NewReader("again"), jpeg); err == nil {
		t.Fatalf("expected duplicate put to fail")
	}

	got, rc, err := store.Get(ctx, "plants/p1/front.jpg")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "pixels" {
		t.Fatalf("expected body pixels, got %q", body)
	}
	if got.ContentType != "image/jpeg" {
		t.Fatalf("expected content type preserved, got %q", got.ContentType)
	}

	ok, err := store.Delete(ctx, "plants/p1/front.jpg")
	if err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	ok, err = store.Delete(ctx, "plants/p1/front.jpg")
	if err != nil || ok {
		t.Fatalf("second delete should report absent: ok=%v err=%v", ok, err)
	}
}

func TestListFiltersByPrefix(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"plants/p1/a.jpg", "plants/p1/b.jpg", "plants/p2/c.jpg"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), jpeg); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "plants/p1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 blobs under prefix, got %d", len(infos))
	}
	if infos[0].Key != "plants/p1/a.jpg" || infos[1].Key != "plants/p1/b.jpg" {
		t.Fatalf("unexpected list order: %+v", infos)
	}
}

func TestKeySanitization(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"", "  ", "../escape", "/abs/path", "a/../../b"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), jpeg); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
}

func TestPresignOnlySupportsGet(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if _, err := store.PresignURL(ctx, "plants/p1/a.jpg", core.SignedURLOptions{Method: "PUT"}); err != core.ErrUnsupported {
		t.Fatalf("expected ErrUnsupported for PUT presign, got %v", err)
	}
	u, err := store.PresignURL(ctx, "plants/p1/a.jpg", core.SignedURLOptions{})
	if err != nil || u == "" {
		t.Fatalf("expected GET presign to yield URL, got %q err=%v", u, err)
	}
}
