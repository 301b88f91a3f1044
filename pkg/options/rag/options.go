// Package rag provides RAG (Retrieval-Augmented Generation) configuration options.
package rag

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/evorag/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains ingestion and query configuration.
type Options struct {
	// Collection is the name of the vector collection.
	Collection string `json:"collection" mapstructure:"collection"`

	// EmbeddingDim is the dimension of embedding vectors.
	EmbeddingDim int `json:"embedding-dim" mapstructure:"embedding-dim"`

	// BatchSize is the number of chunk texts sent per embedding call.
	BatchSize int `json:"batch-size" mapstructure:"batch-size"`

	// MinChunkWords drops text elements shorter than this.
	MinChunkWords int `json:"min-chunk-words" mapstructure:"min-chunk-words"`

	// MaxChunkWords splits text elements longer than this.
	MaxChunkWords int `json:"max-chunk-words" mapstructure:"max-chunk-words"`

	// AddContextPrefix prefixes embedded text with its source and section.
	AddContextPrefix bool `json:"add-context-prefix" mapstructure:"add-context-prefix"`

	// TopK is the number of results to return from similarity search.
	TopK int `json:"top-k" mapstructure:"top-k"`

	// RewritePromptFile overrides the built-in query rewrite template.
	RewritePromptFile string `json:"rewrite-prompt-file" mapstructure:"rewrite-prompt-file"`

	// SynthesisPromptFile overrides the built-in answer synthesis template.
	SynthesisPromptFile string `json:"synthesis-prompt-file" mapstructure:"synthesis-prompt-file"`

	// QueryTimeout bounds one ask call.
	QueryTimeout time.Duration `json:"query-timeout" mapstructure:"query-timeout"`

	// IngestTimeout bounds one document ingestion.
	IngestTimeout time.Duration `json:"ingest-timeout" mapstructure:"ingest-timeout"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Collection:    "my_rag_documents_v2",
		EmbeddingDim:  768,
		BatchSize:     128,
		MinChunkWords: 5,
		MaxChunkWords: 500,
		TopK:          7,
		QueryTimeout:  60 * time.Second,
		IngestTimeout: 10 * time.Minute,
	}
}

// AddFlags adds flags for RAG options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "rag."
	fs.StringVar(&o.Collection, p+"collection", o.Collection, "Vector collection name.")
	fs.IntVar(&o.EmbeddingDim, p+"embedding-dim", o.EmbeddingDim, "Embedding vector dimension.")
	fs.IntVar(&o.BatchSize, p+"batch-size", o.BatchSize, "Embedding batch size.")
	fs.IntVar(&o.MinChunkWords, p+"min-chunk-words", o.MinChunkWords, "Minimum words per chunk.")
	fs.IntVar(&o.MaxChunkWords, p+"max-chunk-words", o.MaxChunkWords, "Maximum words per chunk.")
	fs.BoolVar(&o.AddContextPrefix, p+"add-context-prefix", o.AddContextPrefix, "Prefix embedded text with source and section.")
	fs.IntVar(&o.TopK, p+"top-k", o.TopK, "Number of chunks to retrieve.")
	fs.StringVar(&o.RewritePromptFile, p+"rewrite-prompt-file", o.RewritePromptFile, "Query rewrite prompt template file.")
	fs.StringVar(&o.SynthesisPromptFile, p+"synthesis-prompt-file", o.SynthesisPromptFile, "Answer synthesis prompt template file.")
	fs.DurationVar(&o.QueryTimeout, p+"query-timeout", o.QueryTimeout, "Timeout for one query.")
	fs.DurationVar(&o.IngestTimeout, p+"ingest-timeout", o.IngestTimeout, "Timeout for one document ingestion.")
}

// Validate validates the RAG options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Collection == "" {
		errs = append(errs, fmt.Errorf("collection is required"))
	}
	if o.EmbeddingDim <= 0 {
		errs = append(errs, fmt.Errorf("embedding-dim must be positive"))
	}
	if o.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch-size must be positive"))
	}
	if o.MinChunkWords < 1 {
		errs = append(errs, fmt.Errorf("min-chunk-words must be at least 1"))
	}
	if o.MaxChunkWords < o.MinChunkWords {
		errs = append(errs, fmt.Errorf("max-chunk-words (%d) must not be below min-chunk-words (%d)", o.MaxChunkWords, o.MinChunkWords))
	}
	if o.TopK <= 0 {
		errs = append(errs, fmt.Errorf("top-k must be positive"))
	}
	return errs
}
