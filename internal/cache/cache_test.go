package cache

import (
	"testing"
	"time"
)

func TestCacheSetGetRoundTrip(t *testing.T) {
	c := New(true)
	etag := c.Set("k", []byte(`{"count":1}`), time.Minute)

	data, gotETag, ok := c.Get("k")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(data) != `{"count":1}` {
		t.Fatalf("data = %s", data)
	}
	if gotETag != etag {
		t.Fatalf("etag = %q, want %q", gotETag, etag)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New(true)
	c.Set("k", []byte("v"), -time.Second)
	if _, _, ok := c.Get("k"); ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestCacheDisabledIsNoop(t *testing.T) {
	c := New(false)
	etag := c.Set("k", []byte("v"), time.Minute)
	if etag == "" {
		t.Fatal("disabled cache should still compute ETags")
	}
	if _, _, ok := c.Get("k"); ok {
		t.Fatal("disabled cache should never hit")
	}
}

func TestCheckETagMatch(t *testing.T) {
	etag := ComputeETag([]byte("payload"))
	if !CheckETagMatch(etag, etag) {
		t.Fatal("identical etags should match")
	}
	if !CheckETagMatch("*", etag) {
		t.Fatal("wildcard should match")
	}
	if CheckETagMatch("", etag) {
		t.Fatal("empty If-None-Match should not match")
	}
}
