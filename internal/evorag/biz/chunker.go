package biz

import (
	"fmt"
	"strings"

	"github.com/kart-io/evorag/internal/evorag/convert"
)

// DefaultHeading labels chunks that precede the first heading.
const DefaultHeading = "Introduction"

// ChunkMetadata locates a chunk within its document.
type ChunkMetadata struct {
	Source     string
	Heading    string
	ChunkIndex int
	Page       *int
}

// Chunk is one retrieval unit. EmbedText is what gets embedded; it equals
// Text unless the context prefix is enabled.
type Chunk struct {
	ID        string
	Text      string
	EmbedText string
	Metadata  ChunkMetadata
}

// ChunkerConfig 分块器配置。
type ChunkerConfig struct {
	// MinWords 少于该字数的文本被丢弃。
	MinWords int
	// MaxWords 超过该字数的文本被切分。
	MaxWords int
	// AddContextPrefix 在向量化文本前加上来源和章节。
	AddContextPrefix bool
}

// DefaultChunkerConfig 返回默认分块配置。
func DefaultChunkerConfig() *ChunkerConfig {
	return &ChunkerConfig{MinWords: 5, MaxWords: 500}
}

// Chunker splits a converted element stream into size-bounded chunks.
type Chunker struct {
	config *ChunkerConfig
}

// NewChunker 创建分块器实例。
func NewChunker(config *ChunkerConfig) *Chunker {
	if config == nil {
		config = DefaultChunkerConfig()
	}
	return &Chunker{config: config}
}

// Chunk walks elements in order, tracking the current heading, and emits
// one chunk per qualifying text or list item. Oversized elements are split
// greedily into MaxWords windows; windows below MinWords are dropped.
func (c *Chunker) Chunk(elements []convert.Element, source string) []Chunk {
	heading := DefaultHeading
	var chunks []Chunk

	for _, el := range elements {
		text := strings.TrimSpace(el.Text)
		switch el.Kind {
		case convert.KindHeading:
			if text != "" {
				heading = text
			}
			continue
		case convert.KindText, convert.KindListItem:
		default:
			continue
		}

		words := strings.Fields(text)
		if len(words) < c.config.MinWords {
			continue
		}

		for _, sub := range c.split(text, words) {
			idx := len(chunks)
			chunks = append(chunks, Chunk{
				ID:        DeriveChunkID(source, idx, sub),
				Text:      sub,
				EmbedText: c.embedText(source, heading, sub),
				Metadata: ChunkMetadata{
					Source:     source,
					Heading:    heading,
					ChunkIndex: idx,
					Page:       el.Page,
				},
			})
		}
	}

	return chunks
}

func (c *Chunker) split(text string, words []string) []string {
	if len(words) <= c.config.MaxWords {
		return []string{text}
	}

	var out []string
	for start := 0; start < len(words); start += c.config.MaxWords {
		end := min(start+c.config.MaxWords, len(words))
		// a trailing window below MinWords is dropped
		if end-start < c.config.MinWords {
			break
		}
		out = append(out, strings.Join(words[start:end], " "))
	}
	return out
}

func (c *Chunker) embedText(source, heading, text string) string {
	if !c.config.AddContextPrefix {
		return text
	}
	return fmt.Sprintf("Source: %s\nSection: %s\n\n%s", source, heading, text)
}
