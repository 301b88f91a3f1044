package convert

import (
	"context"
	"os"
	"regexp"
	"strings"
)

var (
	headingRe  = regexp.MustCompile(`^\s{0,3}(#{1,6})\s+(.*?)\s*#*\s*$`)
	listItemRe = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+(.*)$`)
	fenceRe    = regexp.MustCompile("^\\s*(```|~~~)")
)

// Markdown converts Markdown and plain text files.
// Form feeds separate pages; pages are numbered from 1 and only
// attached when the file contains at least one form feed.
type Markdown struct{}

// Convert implements Converter.
func (m *Markdown) Convert(ctx context.Context, path string) ([]Element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ParseMarkdown(string(data)), nil
}

// ParseMarkdown parses content into elements.
func ParseMarkdown(content string) []Element {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	pages := strings.Split(content, "\f")
	paged := len(pages) > 1

	var out []Element
	for i, page := range pages {
		var pageNo *int
		if paged {
			n := i + 1
			pageNo = &n
		}
		out = append(out, parsePage(page, pageNo)...)
	}
	return out
}

type pageParser struct {
	page  *int
	out   []Element
	kind  Kind
	lines []string
}

func (p *pageParser) flush() {
	if len(p.lines) == 0 {
		return
	}
	text := strings.TrimSpace(strings.Join(p.lines, " "))
	if text != "" {
		p.out = append(p.out, Element{Kind: p.kind, Text: text, Page: p.page})
	}
	p.lines = nil
}

func (p *pageParser) start(kind Kind, line string) {
	p.flush()
	p.kind = kind
	p.lines = []string{line}
}

func parsePage(page string, pageNo *int) []Element {
	p := &pageParser{page: pageNo}
	inFence := false

	for _, line := range strings.Split(page, "\n") {
		if fenceRe.MatchString(line) {
			p.flush()
			inFence = !inFence
			if inFence {
				p.kind = KindText
			}
			continue
		}
		if inFence {
			p.kind = KindText
			p.lines = append(p.lines, strings.TrimSpace(line))
			continue
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			p.flush()
		case headingRe.MatchString(line):
			p.flush()
			m := headingRe.FindStringSubmatch(line)
			if m[2] != "" {
				p.out = append(p.out, Element{Kind: KindHeading, Text: m[2], Page: pageNo})
			}
		case listItemRe.MatchString(line):
			p.start(KindListItem, listItemRe.FindStringSubmatch(line)[1])
		case p.kind == KindListItem && len(p.lines) > 0 && line != trimmed:
			// indented continuation of the current list item
			p.lines = append(p.lines, trimmed)
		case len(p.lines) > 0 && p.kind == KindText:
			p.lines = append(p.lines, trimmed)
		default:
			p.start(KindText, trimmed)
		}
	}
	p.flush()
	return p.out
}
