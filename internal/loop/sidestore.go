package loop

import (
	"fmt"
	"strings"
)

// sideStore holds oversized tool results outside the model's context. Each
// loop instance owns exactly one; handles use a monotonic counter so two
// offloads can never collide, even for identical content.
type sideStore struct {
	counter int
	entries map[string]string
}

func newSideStore() *sideStore {
	return &sideStore{entries: make(map[string]string)}
}

// Put stores content and returns its handle.
func (s *sideStore) Put(content string) string {
	s.counter++
	handle := fmt.Sprintf("result-%d", s.counter)
	s.entries[handle] = content
	return handle
}

// Get retrieves stored content by handle.
func (s *sideStore) Get(handle string) (string, bool) {
	content, ok := s.entries[handle]
	return content, ok
}

// offload replaces an oversized result with a short reference: the handle,
// the full size, and a preview the model can reason about.
func (s *sideStore) offload(content string, previewLen int) string {
	handle := s.Put(content)
	preview := content
	if len(preview) > previewLen {
		preview = preview[:previewLen]
	}
	preview = strings.ReplaceAll(preview, "\n", " ")
	return fmt.Sprintf("[offloaded %d chars as %q — fetch_result to read, preview: %s…]",
		len(content), handle, preview)
}
