package stages

import (
	"fmt"
	"strings"

	"github.com/lamim/tutorialforge/internal/util"
	"github.com/lamim/tutorialforge/pkg/models"
)

// maxSnippetRunes bounds a single file's contribution to a prompt so one
// large file cannot crowd out the rest of the context.
const maxSnippetRunes = 8000

// fileListing renders "- index # path" lines for prompt consumption.
func fileListing(files []models.FileInfo) string {
	var b strings.Builder
	for i, f := range files {
		fmt.Fprintf(&b, "- %d # %s\n", i, f.Path)
	}
	return b.String()
}

// fileContext renders the content of the selected files, delimited by
// their index and path. A nil indices slice selects every file.
func fileContext(files []models.FileInfo, indices []int) string {
	if indices == nil {
		indices = make([]int, len(files))
		for i := range files {
			indices[i] = i
		}
	}

	var b strings.Builder
	for _, idx := range indices {
		if idx < 0 || idx >= len(files) {
			continue
		}
		f := files[idx]
		content := util.TruncateString(f.Content, maxSnippetRunes)
		fmt.Fprintf(&b, "--- File %d: %s ---\n%s\n\n", idx, f.Path, content)
	}
	return b.String()
}

// abstractionListing renders "index # name" lines.
func abstractionListing(abstractions []models.Abstraction) string {
	var b strings.Builder
	for i, a := range abstractions {
		fmt.Fprintf(&b, "- %d # %s\n", i, a.Name)
	}
	return b.String()
}

// relevantFileIndices collects the deduplicated union of file indices
// referenced by the given abstractions, in first-seen order.
func relevantFileIndices(abstractions []models.Abstraction) []int {
	seen := make(map[int]bool)
	var indices []int
	for _, a := range abstractions {
		for _, idx := range a.FileIndices {
			if !seen[idx] {
				seen[idx] = true
				indices = append(indices, idx)
			}
		}
	}
	return indices
}
