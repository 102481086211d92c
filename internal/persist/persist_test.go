package persist

import (
	"strings"
	"testing"
	"time"

	"rostercore/pkg/domain"

	"github.com/google/uuid"
)

func TestEncodeSnapshotEmptyStoreIsAnEmptyArray(t *testing.T) {
	data, err := EncodeSnapshot(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "[]" {
		t.Fatalf("expected empty array document, got %s", got)
	}
	records, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestSnapshotDocumentShape(t *testing.T) {
	rec := &domain.Record{
		ID:        uuid.MustParse("9a1b2c3d-0000-4000-8000-000000000001"),
		Name:      "ada",
		Age:       36,
		CreatedAt: domain.Timestamp{Time: time.Date(2024, 3, 9, 14, 5, 6, 0, time.Local)},
	}
	data, err := EncodeSnapshot([]*domain.Record{rec})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	body := string(data)
	if !strings.HasPrefix(body, "[") {
		t.Fatalf("document must be a JSON array, got %s", body)
	}
	if !strings.Contains(body, "\n  ") {
		t.Fatalf("expected indented document, got %s", body)
	}
	for _, want := range []string{`"id"`, `"name"`, `"age"`, `"created_at"`, `"2024-03-09 14:05:06"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("document missing %s:\n%s", want, body)
		}
	}

	back, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(back) != 1 || back[0].ID != rec.ID || !back[0].CreatedAt.Equal(rec.CreatedAt) {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestDecodeSnapshotRejectsMalformedDocuments(t *testing.T) {
	if _, err := DecodeSnapshot([]byte(`{"id":"x"}`)); err == nil {
		t.Fatalf("expected non-array document to be rejected")
	}
	if _, err := DecodeSnapshot([]byte(`[{"age":"not a number"}]`)); err == nil {
		t.Fatalf("expected mistyped field to be rejected")
	}
}
