package result

import (
	"testing"

	"github.com/kailas-cloud/gymdex/internal/domain/document"
)

func TestNew(t *testing.T) {
	d := 2.5
	h := New(document.Document{ID: "gym-1"}, 1.75, &d)
	if h.Document().ID != "gym-1" {
		t.Errorf("Document().ID = %q", h.Document().ID)
	}
	if h.Score() != 1.75 {
		t.Errorf("Score() = %v", h.Score())
	}
	if h.Distance() == nil || *h.Distance() != 2.5 {
		t.Errorf("Distance() = %v", h.Distance())
	}
}

func TestNew_NoDistance(t *testing.T) {
	h := New(document.Document{ID: "gym-1"}, 0, nil)
	if h.Distance() != nil {
		t.Errorf("Distance() = %v, want nil", *h.Distance())
	}
}
