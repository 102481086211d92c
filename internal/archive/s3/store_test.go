package s3

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"rostercore/internal/persist"
	"rostercore/internal/store"
	"rostercore/pkg/domain"

	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestArchiveUploadsSnapshotDocument(t *testing.T) {
	ctx := context.Background()

	st := store.New()
	alice := domain.NewRecord("Alice", 30)
	if err := st.Add(alice, domain.NewRecord("Bob", 41)); err != nil {
		t.Fatalf("add: %v", err)
	}

	arch := NewMockForTests(st)
	arch.nowFn = func() time.Time {
		return time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)
	}

	key, err := arch.Archive(ctx)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if key != "snapshots/20240309T140506Z.json" {
		t.Fatalf("unexpected object key %q", key)
	}

	out, err := arch.client.GetObject(ctx, &awsS3.GetObjectInput{Bucket: &arch.bucket, Key: &key})
	if err != nil {
		t.Fatalf("read back object: %v", err)
	}
	defer out.Body.Close()
	body, err := io.ReadAll(out.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	records, err := persist.DecodeSnapshot(body)
	if err != nil {
		t.Fatalf("decode uploaded snapshot: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records in uploaded snapshot, got %d", len(records))
	}
	found := false
	for _, rec := range records {
		if rec.ID == alice.ID && rec.Name == alice.Name {
			found = true
		}
	}
	if !found {
		t.Fatalf("uploaded snapshot missing record %s", alice.ID)
	}
}

func TestArchiveEmptyStoreUploadsEmptyArray(t *testing.T) {
	ctx := context.Background()
	arch := NewMockForTests(store.New())

	key, err := arch.Archive(ctx)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	out, err := arch.client.GetObject(ctx, &awsS3.GetObjectInput{Bucket: &arch.bucket, Key: &key})
	if err != nil {
		t.Fatalf("read back object: %v", err)
	}
	defer out.Body.Close()
	body, err := io.ReadAll(out.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if got := strings.TrimSpace(string(body)); got != "[]" {
		t.Fatalf("expected empty array document, got %s", got)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}, store.New()); err == nil {
		t.Fatalf("expected missing bucket to be rejected")
	}
	if _, err := New(context.Background(), Config{Bucket: "b"}, nil); err == nil {
		t.Fatalf("expected nil store to be rejected")
	}
}

func TestOpenFromEnvRequiresBucket(t *testing.T) {
	t.Setenv("ROSTERCORE_ARCHIVE_S3_BUCKET", "")
	if _, err := OpenFromEnv(context.Background(), store.New()); err == nil {
		t.Fatalf("expected missing bucket env to be rejected")
	}
}
