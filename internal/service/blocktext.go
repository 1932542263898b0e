package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/jjenkins/notion-digest/internal/model"
)

const (
	// DefaultMaxBlockDepth bounds recursion into nested blocks
	DefaultMaxBlockDepth = 6
	// DefaultMaxBlocks bounds the number of blocks read per page
	DefaultMaxBlocks = 5000
)

var excessNewlines = regexp.MustCompile(`\n{3,}`)

// BlockLister lists the children of a block one page at a time
type BlockLister interface {
	ListBlockChildren(ctx context.Context, blockID, cursor string) (*model.BlockList, error)
}

// blockWalker carries the traversal budget of one PageText call
type blockWalker struct {
	api       BlockLister
	maxDepth  int
	maxBlocks int
	seen      int
	truncated bool
	lines     []string
}

// PageText collects the readable text of a page's block tree depth-first.
// truncated reports whether the depth or block bound cut the walk short.
func PageText(ctx context.Context, api BlockLister, pageID string, maxDepth, maxBlocks int) (string, bool, error) {
	w := &blockWalker{api: api, maxDepth: maxDepth, maxBlocks: maxBlocks}
	if err := w.walk(ctx, pageID, 0); err != nil {
		return "", false, err
	}
	return NormalizeText(strings.Join(w.lines, "\n")), w.truncated, nil
}

func (w *blockWalker) walk(ctx context.Context, blockID string, depth int) error {
	cursor := ""
	for {
		if w.seen >= w.maxBlocks {
			w.truncated = true
			return nil
		}

		list, err := w.api.ListBlockChildren(ctx, blockID, cursor)
		if err != nil {
			return err
		}

		for _, block := range list.Results {
			if w.seen >= w.maxBlocks {
				w.truncated = true
				return nil
			}
			w.seen++

			if text := blockLine(block); strings.TrimSpace(text) != "" {
				w.lines = append(w.lines, text)
			}

			if !block.HasChildren {
				continue
			}
			if depth >= w.maxDepth {
				w.truncated = true
				continue
			}
			if err := w.walk(ctx, block.ID, depth+1); err != nil {
				return err
			}
		}

		if !list.HasMore || list.NextCursor == "" {
			return nil
		}
		cursor = list.NextCursor
	}
}

// blockLine picks rich_text, then a title string, then a caption. A present
// rich_text array wins even when empty.
func blockLine(b model.Block) string {
	if b.HasRichText {
		return model.PlainText(b.RichText)
	}
	if b.Title != "" {
		return b.Title
	}
	if b.HasCaption {
		return model.PlainText(b.Caption)
	}
	return ""
}

// NormalizeText converts CRLF to LF, collapses runs of blank lines and trims
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = excessNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
