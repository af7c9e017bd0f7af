package sequence

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// Template directories under the configured template root.
const (
	LongDir  = "level_templates"
	ShortDir = "short_level_templates"
)

// ErrNoTemplates is returned when a template directory holds no template
// files.
var ErrNoTemplates = errors.New("no templates found")

// Loader reads template directories and picks one template per level.
// Parsed directories are cached for the configured TTL.
type Loader struct {
	root  string
	short bool
	cache *cache.Cache
}

// NewLoader creates a loader for root. A ttl <= 0 caches forever.
func NewLoader(root string, short bool, ttl time.Duration) *Loader {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &Loader{
		root:  root,
		short: short,
		cache: cache.New(ttl, ttl*2),
	}
}

// Dir is the directory templates are read from.
func (l *Loader) Dir() string {
	if l.short {
		return filepath.Join(l.root, ShortDir)
	}
	return filepath.Join(l.root, LongDir)
}

// Load returns every template in Dir, reading the directory on a cache
// miss.
func (l *Loader) Load() ([]Template, error) {
	dir := l.Dir()
	if cached, found := l.cache.Get(dir); found {
		return cached.([]Template), nil
	}

	templates, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	l.cache.Set(dir, templates, cache.DefaultExpiration)
	return templates, nil
}

// Pick returns a copy of one template chosen uniformly at random.
func (l *Loader) Pick() (Template, error) {
	templates, err := l.Load()
	if err != nil {
		return Template{}, err
	}
	return templates[rand.IntN(len(templates))].Clone(), nil
}

// Flush drops cached directories so the next Load rereads them.
func (l *Loader) Flush() {
	l.cache.Flush()
}

// LoadDir parses every .json, .yaml and .yml file in dir, in name order.
func LoadDir(dir string) ([]Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read template dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !isTemplateFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoTemplates, dir)
	}
	slices.Sort(names)

	templates := make([]Template, 0, len(names))
	for _, name := range names {
		t, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, nil
}

// LoadFile parses a single template file.
func LoadFile(path string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, fmt.Errorf("read template: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return Template{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return t, nil
}

func isTemplateFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}
