package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// ClassIndex is the JSON side-file mapping class names to the subjects they
// offer, including subjects that have no uploaded material yet.
type ClassIndex struct {
	fs     afero.Fs
	path   string
	logger zerolog.Logger
	mu     sync.Mutex
}

// NewClassIndex binds the side-index to a file path on fs.
func NewClassIndex(fs afero.Fs, path string, logger zerolog.Logger) *ClassIndex {
	return &ClassIndex{
		fs:     fs,
		path:   path,
		logger: logger.With().Str("component", "class_index").Logger(),
	}
}

// Load reads the side-index. A missing file is an empty index; an unreadable
// or malformed one is also treated as empty and the cause is logged.
func (i *ClassIndex) Load() map[string][]string {
	data, err := afero.ReadFile(i.fs, i.path)
	if err != nil {
		if !os.IsNotExist(err) {
			i.logger.Warn().Err(err).Str("path", i.path).Msg("class index unreadable, using empty index")
		}
		return map[string][]string{}
	}

	var parsed map[string][]string
	if err := json.Unmarshal(data, &parsed); err != nil {
		i.logger.Warn().Err(err).Str("path", i.path).Msg("class index malformed, using empty index")
		return map[string][]string{}
	}
	if parsed == nil {
		return map[string][]string{}
	}

	for class, subjects := range parsed {
		parsed[class] = normalizeSubjects(subjects)
	}
	return parsed
}

// Save replaces the side-index with data.
func (i *ClassIndex) Save(data map[string][]string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.save(data)
}

// Add merges subjects into class and persists the result.
func (i *ClassIndex) Add(class string, subjects ...string) (map[string][]string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	current := i.Load()
	current[class] = normalizeSubjects(append(current[class], subjects...))
	if err := i.save(current); err != nil {
		return nil, err
	}
	return current, nil
}

func (i *ClassIndex) save(data map[string][]string) error {
	if data == nil {
		data = map[string][]string{}
	}

	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode class index: %w", err)
	}

	tmp := i.path + ".tmp"
	if err := afero.WriteFile(i.fs, tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write class index: %w", err)
	}
	if err := i.fs.Rename(tmp, i.path); err != nil {
		return fmt.Errorf("replace class index: %w", err)
	}
	return nil
}

// MergeCatalog unions two class→subjects maps, deduplicating and sorting the
// subjects of every class.
func MergeCatalog(observed, indexed map[string][]string) map[string][]string {
	merged := make(map[string][]string, len(observed)+len(indexed))
	for class, subjects := range observed {
		merged[class] = append(merged[class], subjects...)
	}
	for class, subjects := range indexed {
		merged[class] = append(merged[class], subjects...)
	}
	for class, subjects := range merged {
		merged[class] = normalizeSubjects(subjects)
	}
	return merged
}

func normalizeSubjects(subjects []string) []string {
	seen := make(map[string]struct{}, len(subjects))
	result := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		subject = strings.TrimSpace(subject)
		if subject == "" {
			continue
		}
		if _, ok := seen[subject]; ok {
			continue
		}
		seen[subject] = struct{}{}
		result = append(result, subject)
	}
	sort.Strings(result)
	return result
}
