package loop

import (
	"strings"
	"testing"
)

func TestSideStore_DistinctHandlesForIdenticalContent(t *testing.T) {
	s := newSideStore()
	h1 := s.Put("same content")
	h2 := s.Put("same content")
	if h1 == h2 {
		t.Errorf("handles collide: %q", h1)
	}
	if h1 != "result-1" || h2 != "result-2" {
		t.Errorf("handles = %q, %q", h1, h2)
	}
}

func TestSideStore_RoundTrip(t *testing.T) {
	s := newSideStore()
	h := s.Put("stored value")
	got, ok := s.Get(h)
	if !ok || got != "stored value" {
		t.Errorf("Get(%q) = %q, %v", h, got, ok)
	}
	if _, ok := s.Get("result-99"); ok {
		t.Error("unknown handle must not resolve")
	}
}

func TestSideStore_OffloadReferenceIsShort(t *testing.T) {
	s := newSideStore()
	content := strings.Repeat("abc ", 20_000)
	ref := s.offload(content, 100)

	if len(ref) > 300 {
		t.Errorf("offload reference is %d chars", len(ref))
	}
	if !strings.Contains(ref, `"result-1"`) {
		t.Errorf("reference missing handle: %q", ref)
	}
	if !strings.Contains(ref, "80000 chars") {
		t.Errorf("reference missing size: %q", ref)
	}

	got, ok := s.Get("result-1")
	if !ok || got != content {
		t.Error("offloaded content must be retrievable in full")
	}
}
