// Package glossary builds the terminology context passed to the external
// translator. Term lists live in per-domain YAML files and are rendered into
// an opaque context string the translation prompt carries unmodified.
package glossary

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"doctrans/internal/logger"
	"doctrans/internal/types"
)

// Term is one glossary entry: a source-language term and its required
// translations keyed by target language tag.
type Term struct {
	Source       string            `yaml:"source"`
	Translations map[string]string `yaml:"translations"`
	Note         string            `yaml:"note,omitempty"`
}

// File is the on-disk glossary layout for one domain.
type File struct {
	Domain string `yaml:"domain"`
	Terms  []Term `yaml:"terms"`
}

// ContextBuilder loads domain glossaries and renders translation context.
type ContextBuilder struct {
	dir string
}

// NewContextBuilder creates a builder reading glossaries from dir. An empty
// dir yields empty contexts.
func NewContextBuilder(dir string) *ContextBuilder {
	return &ContextBuilder{dir: dir}
}

// BuildContext renders the glossary context for one domain and language
// pair. A missing glossary file is not an error; translation simply runs
// without terminology constraints.
func (b *ContextBuilder) BuildContext(domain, srcLang, tgtLang string) (string, error) {
	if _, err := language.Parse(tgtLang); err != nil {
		return "", types.NewAppErrorWithDetails(types.ErrInvalidInput, "invalid target language tag", tgtLang, err)
	}

	if b.dir == "" || domain == "" {
		return "", nil
	}

	path := filepath.Join(b.dir, domain+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("no glossary for domain",
				logger.String("domain", domain),
				logger.String("path", path))
			return "", nil
		}
		return "", types.NewAppError(types.ErrConfig, "failed to read glossary file", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return "", types.NewAppErrorWithDetails(types.ErrConfig, "failed to parse glossary file", path, err)
	}

	entries := make([]string, 0, len(file.Terms))
	for _, term := range file.Terms {
		target, ok := term.Translations[tgtLang]
		if !ok {
			continue
		}
		line := fmt.Sprintf("%q -> %q", term.Source, target)
		if term.Note != "" {
			line += " (" + term.Note + ")"
		}
		entries = append(entries, line)
	}
	sort.Strings(entries)

	if len(entries) == 0 {
		return "", nil
	}

	logger.Debug("glossary context built",
		logger.String("domain", domain),
		logger.String("targetLang", tgtLang),
		logger.Int("terms", len(entries)))

	return strings.Join(entries, "\n"), nil
}
