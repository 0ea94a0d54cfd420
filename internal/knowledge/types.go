package knowledge

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TenantID identifies the owner of a record.
type TenantID int64

// SystemTenant owns every GLOBAL record.
const SystemTenant TenantID = 0

// Scope is the visibility class of a record.
type Scope string

const (
	// ScopePrivate records are visible only to their owning tenant.
	ScopePrivate Scope = "PRIVATE"
	// ScopeGlobal records are visible to every tenant.
	ScopeGlobal Scope = "GLOBAL"
)

// ParseScope parses a scope name case-insensitively. An empty string means PRIVATE.
func ParseScope(s string) (Scope, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(ScopePrivate):
		return ScopePrivate, nil
	case string(ScopeGlobal):
		return ScopeGlobal, nil
	default:
		return "", fmt.Errorf("unknown scope %q", s)
	}
}

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return s == ScopePrivate || s == ScopeGlobal
}

// EffectiveOwner returns the tenant that owns a record ingested by tenant with the given scope.
func EffectiveOwner(scope Scope, tenant TenantID) TenantID {
	if scope == ScopeGlobal {
		return SystemTenant
	}
	return tenant
}

// VisibleTo reports whether a record with the given owner and scope may be returned to tenant.
func VisibleTo(owner TenantID, scope Scope, tenant TenantID) bool {
	return scope == ScopeGlobal || owner == tenant
}

// SummaryNote is the distilled representation of one ingested document.
type SummaryNote struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Keywords        []string  `json:"keywords"`
	Disciplines     []string  `json:"disciplines"`
	Actions         []string  `json:"actions,omitempty"`
	Essence         string    `json:"essence"`
	CoreIdea        string    `json:"core_idea"`
	ActionItems     string    `json:"action_items,omitempty"`
	SourceReference string    `json:"source_reference"`
	Scope           Scope     `json:"scope"`
	OwnerTenant     TenantID  `json:"owner_tenant"`
	HasRaw          bool      `json:"has_raw"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SearchText is the text indexed for the note in the concept phase.
func (n *SummaryNote) SearchText() string {
	var b strings.Builder
	b.WriteString(n.Title)
	if len(n.Keywords) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(n.Keywords, " "))
	}
	if len(n.Disciplines) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(n.Disciplines, " "))
	}
	b.WriteString("\n")
	b.WriteString(n.Essence)
	b.WriteString("\n")
	b.WriteString(n.CoreIdea)
	if n.ActionItems != "" {
		b.WriteString("\n")
		b.WriteString(n.ActionItems)
	}
	return b.String()
}

// RawChunk is one contiguous text segment of an ingested document.
type RawChunk struct {
	ID           string   `json:"id"`
	ParentNoteID string   `json:"parent_note_id"`
	OwnerTenant  TenantID `json:"owner_tenant"`
	Scope        Scope    `json:"scope"`
	ChunkIndex   int      `json:"chunk_index"` // position in the original split, gaps mark skipped duplicates
	Content      string   `json:"content"`
	ContentHash  string   `json:"content_hash"`
}

var noteNamespace = uuid.MustParse("5f1e3c1a-8d0b-4c55-9a0e-2b7f4a6f3d10")

// NoteID derives the stable note identifier for a source and owner.
// The result is a UUID so it can be used as a vector point ID by every index backend.
func NoteID(sourceReference string, owner TenantID) string {
	name := sourceReference + "\x00" + strconv.FormatInt(int64(owner), 10)
	return uuid.NewSHA1(noteNamespace, []byte(name)).String()
}

// ChunkID derives the identifier of a chunk from its parent and position.
func ChunkID(noteID string, index int) string {
	return uuid.NewSHA1(noteNamespace, []byte(noteID+"#"+strconv.Itoa(index))).String()
}

// ContentHash returns the hex SHA-256 fingerprint of text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%x", sum)
}
