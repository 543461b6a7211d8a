package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestKVStorePrefixesKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewKVStore(newClient(mr))

	if _, ok, err := store.Get(ctx, "client:c1:genna_user"); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "client:c1:genna_user", `{"id":"user_12345"}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("genna:client:c1:genna_user") {
		t.Fatalf("expected prefixed key in redis")
	}
	if mr.TTL("genna:client:c1:genna_user") != 0 {
		t.Fatalf("local storage keys must not expire")
	}
	v, ok, err := store.Get(ctx, "client:c1:genna_user")
	if err != nil || !ok || v != `{"id":"user_12345"}` {
		t.Fatalf("unexpected value %q ok=%v err=%v", v, ok, err)
	}
	if err := store.Delete(ctx, "client:c1:genna_user"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("genna:client:c1:genna_user") {
		t.Fatalf("expected key removed")
	}
}
