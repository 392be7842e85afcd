package catalog

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
)

//go:embed seed/challenges.yaml
var defaultSeed []byte

// Loader manages loading and caching of the seed challenge list
type Loader struct {
	mu         sync.RWMutex
	challenges map[string]*models.Challenge
	order      []string
}

// NewLoader creates an empty seed loader
func NewLoader() *Loader {
	return &Loader{
		challenges: make(map[string]*models.Challenge),
	}
}

// DefaultLoader returns a loader filled with the built-in seed list
func DefaultLoader() (*Loader, error) {
	l := NewLoader()
	if err := l.LoadBytes(defaultSeed); err != nil {
		return nil, fmt.Errorf("failed to load built-in seed: %w", err)
	}
	return l, nil
}

// LoadFromFile loads seed challenges from a YAML file
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if err := l.LoadBytes(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadBytes parses a YAML seed document. Entries without an id or title
// are skipped; a later entry with an already known id replaces it in place.
func (l *Loader) LoadBytes(data []byte) error {
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	loaded := 0
	for i := range sf.Challenges {
		c := sf.Challenges[i]
		if c.ID == "" || c.Title == "" {
			slog.Warn("skipping seed challenge without id or title", "index", i)
			continue
		}
		applyDefaults(&c)
		l.Add(&c)
		loaded++
	}

	slog.Info("seed challenges loaded", "count", loaded, "total", len(sf.Challenges))
	return nil
}

// Get retrieves a seed challenge by id
func (l *Loader) Get(id string) *models.Challenge {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.challenges[id]
}

// List returns the seed challenges in file order
func (l *Loader) List() []*models.Challenge {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.Challenge, 0, len(l.order))
	for _, id := range l.order {
		result = append(result, l.challenges[id])
	}
	return result
}

// Add programmatically adds a seed challenge
func (l *Loader) Add(c *models.Challenge) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.challenges[c.ID]; !exists {
		l.order = append(l.order, c.ID)
	}
	l.challenges[c.ID] = c
}

func applyDefaults(c *models.Challenge) {
	if c.Type == "" {
		c.Type = models.ChallengeEssay
	}
	if c.Tasks == nil {
		c.Tasks = []models.Task{}
	}
	for i := range c.Tasks {
		if c.Tasks[i].Status == "" {
			c.Tasks[i].Status = "pending"
		}
	}
	if c.Price < 0 {
		c.Price = 0
	}
}

// seedFile represents the YAML structure of a seed file
type seedFile struct {
	Challenges []models.Challenge `yaml:"challenges"`
}
