package document

// Document is the raw input unit of ingestion. It is immutable once loaded;
// its lifecycle ends after splitting.
type Document struct {
	ID     string // source path/name
	Text   string
	Source string // origin collection label
}

// Segment is a contiguous chunk of a document's text, the unit of retrieval.
// Owned exclusively by the index that embeds it.
type Segment struct {
	ID         string
	DocumentID string
	Ordinal    int
	Text       string
	Source     string
}
