package receipts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/teemow/receiptfewer/internal/ocr"
)

// AssembleDocument folds OCR pages into a single markdown document. Pages
// are ordered by their index regardless of arrival order; each page becomes
// a "PAGE: n" block, blocks are separated by a blank line.
func AssembleDocument(pages []ocr.Page) string {
	sorted := make([]ocr.Page, len(pages))
	copy(sorted, pages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Index < sorted[j].Index
	})

	blocks := make([]string, 0, len(sorted))
	for _, page := range sorted {
		blocks = append(blocks, fmt.Sprintf("PAGE: %d\n%s\n", page.Index, page.Markdown))
	}

	return strings.Join(blocks, "\n")
}
