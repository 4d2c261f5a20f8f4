package stages

import (
	"strings"
	"testing"

	"github.com/lamim/tutorialforge/pkg/models"
)

func TestFileContextTruncatesLongFiles(t *testing.T) {
	long := strings.Repeat("x", maxSnippetRunes+500)
	files := []models.FileInfo{
		{Path: "big.go", Content: long},
		{Path: "small.go", Content: "package small"},
	}

	out := fileContext(files, nil)

	if strings.Contains(out, long) {
		t.Error("oversized file content included untruncated")
	}
	if !strings.Contains(out, strings.Repeat("x", maxSnippetRunes)+"...") {
		t.Error("truncated content missing the ellipsis marker")
	}
	if !strings.Contains(out, "--- File 1: small.go ---\npackage small") {
		t.Error("short file content should pass through unchanged")
	}
}

func TestFileContextSelectsIndices(t *testing.T) {
	files := []models.FileInfo{
		{Path: "a.go", Content: "alpha"},
		{Path: "b.go", Content: "bravo"},
		{Path: "c.go", Content: "charlie"},
	}

	out := fileContext(files, []int{2, 0, 99})

	if strings.Contains(out, "bravo") {
		t.Error("unselected file included")
	}
	for _, want := range []string{"charlie", "alpha"} {
		if !strings.Contains(out, want) {
			t.Errorf("selected file content %q missing", want)
		}
	}
	if strings.Index(out, "charlie") > strings.Index(out, "alpha") {
		t.Error("selected files should appear in the given index order")
	}
}
