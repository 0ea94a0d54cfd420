package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"lifeos-kb/internal/indexer"
	"lifeos-kb/internal/knowledge"
	"lifeos-kb/internal/retrieval"
	"lifeos-kb/internal/storage"
	"lifeos-kb/internal/websearch"
)

// IngestTextRequest ingests raw text.
type IngestTextRequest struct {
	Text            string             `validate:"required"`
	SourceReference string             `validate:"required,max=2048"`
	Tenant          knowledge.TenantID `validate:"gte=0"`
	Scope           knowledge.Scope    `validate:"required,oneof=PRIVATE GLOBAL"`
	StoreRaw        bool
}

// IngestFileRequest ingests an uploaded file.
type IngestFileRequest struct {
	Filename string             `validate:"required,max=255"`
	Data     []byte             `validate:"required"`
	Tenant   knowledge.TenantID `validate:"gte=0"`
	Scope    knowledge.Scope    `validate:"required,oneof=PRIVATE GLOBAL"`
	StoreRaw bool
}

// IngestURLRequest crawls a web page once and ingests it.
type IngestURLRequest struct {
	URL    string             `validate:"required,http_url"`
	Tenant knowledge.TenantID `validate:"gte=0"`
	Scope  knowledge.Scope    `validate:"required,oneof=PRIVATE GLOBAL"`
}

// IngestResponse describes an ingested document.
type IngestResponse struct {
	NoteID            string
	Title             string
	ChunkCount        int
	SkippedDuplicates int
	Truncated         bool
}

// SearchRequest runs the gated hybrid search.
type SearchRequest struct {
	Query  string             `validate:"required,max=4000"`
	Tenant knowledge.TenantID `validate:"gte=0"`
	K      int                `validate:"gte=0,lte=20"`
}

// SearchResponse is the gate output for a query.
type SearchResponse struct {
	Results     []retrieval.ResultItem
	WebResults  []websearch.Snippet
	SourceLabel string
	Outcome     string
	TopScore    float64
	Context     string
}

// AskRequest asks a question.
type AskRequest struct {
	Question string             `validate:"required,max=4000"`
	Tenant   knowledge.TenantID `validate:"gte=0"`
	K        int                `validate:"gte=0,lte=20"`
}

// WatchSourceRequest registers a web source.
type WatchSourceRequest struct {
	URL          string             `validate:"required,http_url"`
	Tenant       knowledge.TenantID `validate:"gte=0"`
	Scope        knowledge.Scope    `validate:"required,oneof=PRIVATE GLOBAL"`
	RefreshHours int                `validate:"gte=0,lte=8760"`
}

// WatchSourceResponse describes a watched source after registration.
type WatchSourceResponse struct {
	Source     *storage.Source
	Created    bool
	Ingested   *IngestResponse
	CrawlError string
}

// NoteDetail is a note with its raw chunks.
type NoteDetail struct {
	Note   *knowledge.SummaryNote
	Chunks []*knowledge.RawChunk
}

var validate = validator.New()

// validateRequest runs the struct tags of req and reports the first failure.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Field: "request", Message: err.Error()}
	}
	fe := verrs[0]
	return &ValidationError{Field: fieldName(fe.Field()), Message: fieldMessage(fe)}
}

var fieldNames = map[string]string{
	"Text":            "raw_text",
	"SourceReference": "source_reference",
	"Tenant":          "owner_tenant",
	"Scope":           "scope",
	"Filename":        "file",
	"Data":            "file",
	"URL":             "url",
	"Query":           "query_text",
	"Question":        "question",
	"K":               "k",
	"RefreshHours":    "refresh_hours",
}

func fieldName(f string) string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return strings.ToLower(f)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "http_url":
		return "must be an http or https URL"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "max":
		return "is too long"
	}
	return "is invalid"
}

func toIngestResponse(res *indexer.Result) IngestResponse {
	return IngestResponse{
		NoteID:            res.Note.ID,
		Title:             res.Note.Title,
		ChunkCount:        res.ChunkCount,
		SkippedDuplicates: res.SkippedDuplicates,
		Truncated:         res.Truncated,
	}
}
