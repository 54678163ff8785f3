package recipe

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	folderNameMaxLen = 50

	// FallbackFolderName names folders for titles that sanitize to nothing.
	FallbackFolderName = "unnamed-recipe"
)

var (
	illegalPathChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	nonWordChars     = regexp.MustCompile(`[^\w\s-]`)
	whitespaceRuns   = regexp.MustCompile(`\s+`)
	hyphenRuns       = regexp.MustCompile(`-+`)
)

// FolderName derives a filesystem-safe archive folder name from a recipe
// title: lower-cased, stripped of unsafe characters, whitespace collapsed to
// single hyphens, truncated to 50 characters. Names already present in used
// get a -2, -3, ... suffix in allocation order, so a batch of duplicate
// titles yields as many distinct names as inputs.
//
// The function only reads used; the caller records the returned name. One
// export run allocates every name up front and shares the id->folder mapping
// with all downstream steps so the index and the physical folders never
// disagree.
func FolderName(title string, used map[string]struct{}) string {
	name := strings.ToLower(title)
	name = illegalPathChars.ReplaceAllString(name, "")
	name = nonWordChars.ReplaceAllString(name, "")
	name = whitespaceRuns.ReplaceAllString(name, "-")
	name = hyphenRuns.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")

	if len(name) > folderNameMaxLen {
		name = name[:folderNameMaxLen]
	}

	if name == "" {
		name = FallbackFolderName
	}

	if _, exists := used[name]; !exists {
		return name
	}

	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", name, n)
		if _, exists := used[candidate]; !exists {
			return candidate
		}
	}
}
