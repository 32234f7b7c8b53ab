package scan

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// languageOther labels files enry cannot classify.
const languageOther = "other"

// languageOf detects the programming language of a diagnosed file for the
// per-language scan counts. Extension lookup is tried first; when the
// extension is ambiguous a small content sample is read for classification.
// Detection failures fall back to "other" rather than failing the scan.
func languageOf(projectRoot, file string) string {
	if lang, safe := enry.GetLanguageByExtension(file); safe && lang != "" {
		return normalizeLanguage(lang)
	}

	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(projectRoot, file)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return languageOther
	}
	if lang := enry.GetLanguage(filepath.Base(file), content); lang != "" {
		return normalizeLanguage(lang)
	}
	return languageOther
}

func normalizeLanguage(lang string) string {
	if lang == "Shell" {
		return "bash"
	}
	return strings.ToLower(lang)
}
