// Package source loads a Machine Dialect document: it separates an
// optional leading YAML frontmatter block from the Markdown body and
// parses the block with a real YAML decoder rather than the lexer's
// cheap substring sniff, so fields beyond `executable` are available to
// callers that need them (title, description, future metadata).
package source

import (
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
)

// Metadata is a document's parsed frontmatter block.
type Metadata struct {
	Executable  bool   `yaml:"executable"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// Document is a loaded Machine Dialect file: its frontmatter metadata
// and the Markdown body that follows it.
type Document struct {
	Metadata Metadata
	Body     string
}

// Parse splits src into its frontmatter block (if any) and body, and
// decodes the block with goccy/go-yaml. A document with no `---`-fenced
// header returns the zero Metadata and the original source as Body.
func Parse(src string) (*Document, error) {
	trimmed := strings.TrimPrefix(src, "\xef\xbb\xbf")
	if !strings.HasPrefix(trimmed, "---") {
		return &Document{Body: src}, nil
	}

	lines := strings.SplitAfter(trimmed, "\n")
	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return &Document{Body: src}, nil
	}

	block := strings.Join(lines[1:end], "")
	body := strings.Join(lines[end+1:], "")

	var meta Metadata
	if strings.TrimSpace(block) != "" {
		if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
			return nil, fmt.Errorf("parsing frontmatter: %w", err)
		}
	}
	return &Document{Metadata: meta, Body: body}, nil
}
