package domain

// ProcessingStatus is the lifecycle state of an uploaded document.
type ProcessingStatus string

// Document processing states.
const (
	// StatusPending is set when the upload is registered and not yet ingested.
	StatusPending ProcessingStatus = "pending"

	// StatusCompleted is set after a successful ingestion commit.
	StatusCompleted ProcessingStatus = "completed"

	// StatusError is set when ingestion failed at document level.
	StatusError ProcessingStatus = "error"
)

// IsValid returns true if the status is recognised.
func (s ProcessingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusError:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s ProcessingStatus) String() string {
	return string(s)
}

// Document represents an uploaded file.
// Documents are created by the upload layer and only their status and
// page count are mutated by ingestion.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// OwnerID scopes the document and everything derived from it to one user.
	OwnerID string

	// FileName is the display name shown in answers and references.
	FileName string

	// Status is the current processing state.
	Status ProcessingStatus

	// PageCount is the number of pages or sections extracted.
	PageCount int
}

// Page is a transient extraction unit. For PDF and PPTX it is a page or
// slide; DOCX, TXT and CSV produce a single page numbered 1.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// Text is the extracted text.
	Text string

	// CharLength is the number of characters (runes) in Text.
	CharLength int

	// UsedOCR is true when OCR contributed text to this page.
	UsedOCR bool

	// HasNativeText is true when the native extractor found any text.
	HasNativeText bool
}

// NewPage builds a page and computes its character length.
func NewPage(number int, text string) Page {
	return Page{
		Number:        number,
		Text:          text,
		CharLength:    CharCount(text),
		HasNativeText: text != "",
	}
}

// TotalChars sums CharLength across pages.
func TotalChars(pages []Page) int {
	total := 0
	for i := range pages {
		total += pages[i].CharLength
	}
	return total
}

// CharCount returns the number of characters in s.
func CharCount(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}

// ChunkCandidate is a chunker output before it is assigned an identity.
type ChunkCandidate struct {
	// Index is the 0-based position within the page.
	Index int

	// PageNumber is the page the candidate was cut from.
	PageNumber int

	// StartChar and EndChar are approximate character offsets in the page.
	// They are shifted back by a fixed step after each chunk and are not
	// exact across overlapping chunks.
	StartChar int
	EndChar   int

	// Text is the trimmed chunk text.
	Text string

	// WordCount is the number of whitespace separated words.
	WordCount int
}

// Chunk is a persisted retrieval unit.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string `json:"chunk_id"`

	// DocumentID links to the parent Document.
	DocumentID string `json:"pdf_id"`

	// OwnerID is copied from the parent Document.
	OwnerID string `json:"user_id"`

	// Index is unique within a page but not across pages.
	Index int `json:"chunk_index"`

	// PageNumber is the page the chunk was cut from.
	PageNumber int `json:"page_number"`

	StartChar int `json:"start_char"`
	EndChar   int `json:"end_char"`

	// Text is the chunk content.
	Text string `json:"chunk_text"`

	// WordCount is the number of whitespace separated words.
	WordCount int `json:"word_count"`
}

// NewChunk assigns identity and ownership to a candidate.
func NewChunk(id, documentID, ownerID string, c ChunkCandidate) Chunk {
	return Chunk{
		ID:         id,
		DocumentID: documentID,
		OwnerID:    ownerID,
		Index:      c.Index,
		PageNumber: c.PageNumber,
		StartChar:  c.StartChar,
		EndChar:    c.EndChar,
		Text:       c.Text,
		WordCount:  c.WordCount,
	}
}

// Embedding is the vector stored 1:1 with a Chunk.
// The chunk text and offsets are denormalised for search.
type Embedding struct {
	ChunkID    string
	DocumentID string
	OwnerID    string
	ChunkIndex int
	ChunkText  string
	StartChar  int
	EndChar    int
	Vector     []float32
}

// NewEmbedding pairs a chunk with its vector.
func NewEmbedding(c Chunk, vector []float32) Embedding {
	return Embedding{
		ChunkID:    c.ID,
		DocumentID: c.DocumentID,
		OwnerID:    c.OwnerID,
		ChunkIndex: c.Index,
		ChunkText:  c.Text,
		StartChar:  c.StartChar,
		EndChar:    c.EndChar,
		Vector:     vector,
	}
}

// RetrievedChunk is a chunk returned from similarity search.
type RetrievedChunk struct {
	Chunk

	// DocumentName is the file name of the parent document.
	DocumentName string `json:"pdf_name"`

	// Similarity is 1 - cosine distance, in [-1, 1].
	Similarity float64 `json:"similarity"`
}

// IngestStatus is the outcome reported by the ingestion pipeline.
type IngestStatus string

// Ingestion outcomes.
const (
	IngestSuccess IngestStatus = "success"
	IngestError   IngestStatus = "error"
)

// IngestResult summarises one ingestion run.
type IngestResult struct {
	// Status is success or error.
	Status IngestStatus `json:"status"`

	// Message is a human readable outcome.
	Message string `json:"message"`

	// ChunkCount is the number of chunks persisted with embeddings.
	ChunkCount int `json:"chunk_count"`

	// PageCount is the number of extracted pages or sections.
	PageCount int `json:"page_count"`

	// TotalChunks is the number of chunks produced before persistence.
	TotalChunks int `json:"total_chunks"`
}

// FailedChunks returns how many chunks were skipped.
func (r IngestResult) FailedChunks() int {
	return r.TotalChunks - r.ChunkCount
}
