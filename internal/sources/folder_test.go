package sources

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"lifeos-kb/internal/indexer"
	"lifeos-kb/internal/knowledge"
	"lifeos-kb/internal/sources/mocks"
)

func TestFolderSync_Sync(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "good.md"), "# Habits\n\nSleep **eight** hours.")
	writeFile(t, filepath.Join(root, "fails.txt"), "summarizer will fail on this one")
	writeFile(t, filepath.Join(root, "broken.docx"), "not a zip archive")
	writeFile(t, filepath.Join(root, "empty.txt"), "  ")

	ingester := mocks.NewMockIngester(ctrl)
	ingester.EXPECT().IngestBatch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, reqs []indexer.Request) []indexer.BatchResult {
			if len(reqs) != 2 {
				t.Fatalf("IngestBatch() got %d requests, want 2", len(reqs))
			}
			out := make([]indexer.BatchResult, len(reqs))
			for i, r := range reqs {
				if r.OwnerTenant != 3 || r.Scope != knowledge.ScopePrivate || !r.StoreRaw {
					t.Errorf("request = %+v", r)
				}
				if !filepath.IsAbs(filepath.FromSlash(r.SourceReference)) {
					t.Errorf("SourceReference = %s, want absolute path", r.SourceReference)
				}
				out[i] = indexer.BatchResult{Request: r, Result: &indexer.Result{Note: &knowledge.SummaryNote{ID: "n"}}}
				if strings.HasSuffix(r.SourceReference, "fails.txt") {
					out[i] = indexer.BatchResult{Request: r, Err: &knowledge.SummarizationError{Source: r.SourceReference, Err: errors.New("boom")}}
				}
				if strings.HasSuffix(r.SourceReference, "good.md") && strings.Contains(r.Text, "**") {
					t.Errorf("markdown was not extracted: %q", r.Text)
				}
			}
			return out
		})

	report, err := NewFolderSync(ingester).Sync(context.Background(), Folder{Root: root, Tenant: 3, Scope: knowledge.ScopePrivate})
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if report.Files != 4 || report.Ingested != 1 || len(report.Failed) != 3 {
		t.Errorf("report = %+v, want 4 files, 1 ingested, 3 failed", report)
	}
}

func TestFolderSync_IngestFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	root := t.TempDir()
	path := filepath.Join(root, "note.txt")
	writeFile(t, path, "LifeOS keeps you focused.")

	ingester := mocks.NewMockIngester(ctrl)
	ingester.EXPECT().Ingest(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req indexer.Request) (*indexer.Result, error) {
			if req.Text != "LifeOS keeps you focused." || req.Scope != knowledge.ScopeGlobal {
				t.Errorf("request = %+v", req)
			}
			return &indexer.Result{Note: &knowledge.SummaryNote{ID: "n1"}, ChunkCount: 1}, nil
		})

	s := NewFolderSync(ingester)
	res, err := s.IngestFile(context.Background(), Folder{Root: root, Tenant: 1, Scope: knowledge.ScopeGlobal}, path)
	if err != nil {
		t.Fatalf("IngestFile() error = %v", err)
	}
	if res.Note.ID != "n1" {
		t.Errorf("Note.ID = %s, want n1", res.Note.ID)
	}

	_, err = s.IngestFile(context.Background(), Folder{Root: root}, filepath.Join(root, "image.png"))
	if err == nil {
		t.Error("IngestFile() expected error for a missing unsupported file")
	}
}
