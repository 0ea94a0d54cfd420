package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"lifeos-kb/internal/contextutil"
	"lifeos-kb/internal/extract"
	"lifeos-kb/internal/indexer"
	"lifeos-kb/internal/knowledge"
)

// maxFileSize is the largest file FolderSync will read (50 MB).
const maxFileSize = 50 << 20

// Folder is a local directory synced into the knowledge base.
type Folder struct {
	Root   string
	Tenant knowledge.TenantID
	Scope  knowledge.Scope
}

// FileError records a file that could not be ingested.
type FileError struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// SyncReport summarizes a folder sync.
type SyncReport struct {
	Files    int         `json:"files"`
	Ingested int         `json:"ingested"`
	Failed   []FileError `json:"failed,omitempty"`
}

// FolderSync ingests the documents of local folders.
type FolderSync struct {
	ingester Ingester
}

// NewFolderSync creates a folder sync backed by ingester.
func NewFolderSync(ingester Ingester) *FolderSync {
	return &FolderSync{ingester: ingester}
}

// Sync ingests every supported file in f concurrently. A file that fails
// extraction or ingestion is reported and does not stop the others.
func (s *FolderSync) Sync(ctx context.Context, f Folder) (*SyncReport, error) {
	logger := contextutil.LoggerFromContext(ctx)

	files, err := ScanFolder(ctx, f.Root)
	if err != nil {
		return nil, err
	}

	report := &SyncReport{Files: len(files)}
	reqs := make([]indexer.Request, 0, len(files))
	for _, file := range files {
		req, err := fileRequest(file.AbsPath, f)
		if err != nil {
			logger.WarnContext(ctx, "skipping file", "path", file.AbsPath, "error", err)
			report.Failed = append(report.Failed, FileError{Path: file.RelPath, Err: err.Error()})
			continue
		}
		reqs = append(reqs, req)
	}

	for _, r := range s.ingester.IngestBatch(ctx, reqs) {
		if r.Err != nil {
			report.Failed = append(report.Failed, FileError{Path: r.Request.SourceReference, Err: r.Err.Error()})
			continue
		}
		report.Ingested++
	}

	logger.InfoContext(ctx, "folder synced",
		"root", f.Root,
		"tenant", f.Tenant,
		"files", report.Files,
		"ingested", report.Ingested,
		"failed", len(report.Failed))
	return report, nil
}

// IngestFile extracts and ingests a single file of f.
func (s *FolderSync) IngestFile(ctx context.Context, f Folder, path string) (*indexer.Result, error) {
	req, err := fileRequest(path, f)
	if err != nil {
		return nil, err
	}
	return s.ingester.Ingest(ctx, req)
}

// fileRequest reads and extracts path. The absolute path is the source reference.
func fileRequest(path string, f Folder) (indexer.Request, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return indexer.Request{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return indexer.Request{}, fmt.Errorf("failed to stat %s: %w", abs, err)
	}
	if info.Size() > maxFileSize {
		return indexer.Request{}, &knowledge.ExtractionError{Filename: filepath.Base(abs), Reason: "file too large"}
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return indexer.Request{}, fmt.Errorf("failed to read file %s: %w", abs, err)
	}

	text, err := extract.Text(data, filepath.Base(abs))
	if err != nil {
		return indexer.Request{}, err
	}
	return indexer.Request{
		Text:            text,
		SourceReference: filepath.ToSlash(abs),
		OwnerTenant:     f.Tenant,
		Scope:           f.Scope,
		StoreRaw:        true,
	}, nil
}
