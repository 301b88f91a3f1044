package model

// Interaction is the full result of one ask call.
type Interaction struct {
	OriginalQuery  string   `json:"original_query"`
	RewrittenQuery string   `json:"rewritten_query"`
	Context        string   `json:"context"`
	Answer         string   `json:"answer"`
	CitedDocs      []string `json:"cited_docs"`
	ReferencedDocs []string `json:"referenced_docs"`
}

// GeneratedAnswer is the answer part of an interaction as stored in evaluation records.
type GeneratedAnswer struct {
	Answer    string   `json:"answer"`
	CitedDocs []string `json:"cited_docs"`
}
