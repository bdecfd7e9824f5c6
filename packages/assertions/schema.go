package assertions

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/abdul-hamid-achik/hitreq/packages/payload"
)

// schemaCache keeps compiled schemas so a file checked by many requests in a
// session is read and compiled once. Entries are dropped when the file
// changes on disk.
type schemaCache struct {
	mu      sync.Mutex
	entries map[string]cachedSchema
}

type cachedSchema struct {
	modTime time.Time
	schema  *gojsonschema.Schema
}

var defaultSchemas = &schemaCache{entries: make(map[string]cachedSchema)}

func (c *schemaCache) load(path string) (*gojsonschema.Schema, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if hit, ok := c.entries[path]; ok && hit.modTime.Equal(info.ModTime()) {
		return hit.schema, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", path, err)
	}
	c.entries[path] = cachedSchema{modTime: info.ModTime(), schema: s}
	return s, nil
}

// validatePathWithinBase rejects schema paths that resolve outside baseDir.
func validatePathWithinBase(path, baseDir string) error {
	if baseDir == "" {
		return nil
	}
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	if abs != base && !strings.HasPrefix(abs, base+string(filepath.Separator)) {
		return fmt.Errorf("path traversal detected: %s is outside allowed directory %s", path, baseDir)
	}
	return nil
}

// checkSchema validates actual against the JSON Schema file named by
// expected, relative to the request file's directory.
func (e *Evaluator) checkSchema(actual, expected any) (bool, string) {
	path := fmt.Sprint(expected)
	if !filepath.IsAbs(path) && e.baseDir != "" {
		path = filepath.Join(e.baseDir, path)
	}
	if err := validatePathWithinBase(path, e.baseDir); err != nil {
		return false, err.Error()
	}

	s, err := e.schemas.load(path)
	if err != nil {
		return false, err.Error()
	}
	doc, err := payload.DefaultJSON.Marshal(actual)
	if err != nil {
		return false, fmt.Sprintf("failed to marshal actual value: %v", err)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return false, fmt.Sprintf("schema validation error: %v", err)
	}
	if res.Valid() {
		return true, ""
	}

	problems := make([]string, 0, len(res.Errors()))
	for _, d := range res.Errors() {
		problems = append(problems, d.String())
	}
	return false, "schema validation failed: " + strings.Join(problems, "; ")
}
