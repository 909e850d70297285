package openapi

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestServiceCachesDocument(t *testing.T) {
	reg := docRegistry(t)
	svc := NewService(NewGenerator("Cached", "", "1.2.3", ""), reg, zerolog.Nop())

	first := svc.Spec()
	second := svc.Spec()
	if first != second {
		t.Error("Spec() rebuilt the document on a second call")
	}

	svc.Invalidate()
	third := svc.Spec()
	if third == first {
		t.Error("Spec() returned the cached document after Invalidate()")
	}
}

func TestServiceJSON(t *testing.T) {
	reg := docRegistry(t)
	svc := NewService(NewGenerator("JSON Catalog", "", "1.0.0", ""), reg, zerolog.Nop())

	raw := svc.JSON()
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("JSON() produced invalid JSON: %v", err)
	}
	if decoded["openapi"] != "3.0.3" {
		t.Errorf("openapi = %v, want 3.0.3", decoded["openapi"])
	}
	if _, ok := decoded["paths"].(map[string]any); !ok {
		t.Error("paths object missing from serialized document")
	}
}

func TestServiceReadDoc(t *testing.T) {
	reg := docRegistry(t)
	svc := NewService(NewGenerator("Doc Catalog", "", "1.0.0", ""), reg, zerolog.Nop())

	doc := svc.ReadDoc()
	if !strings.Contains(doc, `"Doc Catalog"`) {
		t.Errorf("ReadDoc() missing title, got prefix %q", doc[:min(len(doc), 120)])
	}
	if doc != string(svc.JSON()) {
		t.Error("ReadDoc() and JSON() disagree")
	}
}
