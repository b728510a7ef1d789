package corpus

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/finassist/qa-engine/internal/core/domain"
)

// FileSource loads the versioned FAQ corpus from a YAML document. The
// corpus is a read-only content artifact shipped with the app.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Load(_ context.Context) (*domain.Corpus, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*domain.Corpus, error) {
	var corpus domain.Corpus
	if err := yaml.Unmarshal(raw, &corpus); err != nil {
		return nil, domain.WrapError(domain.ErrParsing, "parse corpus", err)
	}
	if corpus.Version == "" {
		return nil, domain.WrapError(domain.ErrParsing, "parse corpus", fmt.Errorf("missing corpus version"))
	}
	if len(corpus.Categories) == 0 {
		return nil, domain.WrapError(domain.ErrParsing, "parse corpus", fmt.Errorf("corpus has no categories"))
	}

	seen := map[string]struct{}{}
	for _, category := range corpus.Categories {
		for _, entry := range category.Entries {
			if entry.ID == "" || entry.Question == "" || entry.Answer == "" {
				return nil, domain.WrapError(domain.ErrParsing, "parse corpus",
					fmt.Errorf("category %q has an entry missing id, question, or answer", category.ID))
			}
			if _, dup := seen[entry.ID]; dup {
				return nil, domain.WrapError(domain.ErrParsing, "parse corpus",
					fmt.Errorf("duplicate entry id %q", entry.ID))
			}
			seen[entry.ID] = struct{}{}
		}
	}
	return &corpus, nil
}
