package embedding

import "testing"

func TestNewRequiresEmbedder(t *testing.T) {
	if _, err := New(nil, 768); err == nil {
		t.Error("nil embedder accepted")
	}
}
