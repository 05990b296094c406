package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// cropSuffix is appended to the source stem to form the output name.
const cropSuffix = "_cropped"

// outputName derives the output path for a source file inside dir:
// "<stem>_cropped<ext>", where the stem is the base name up to the final
// dot. On collision with an existing file the name gains a numeric
// suffix: "_1", "_2", and so on.
func outputName(dir, source string) string {
	base := filepath.Base(source)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	candidate := filepath.Join(dir, stem+cropSuffix+ext)
	for n := 1; exists(candidate); n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s%s_%d%s", stem, cropSuffix, n, ext))
	}
	return candidate
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
