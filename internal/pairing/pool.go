package pairing

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
)

//go:embed seed/pool.yaml
var defaultPool []byte

// ErrEmptyPool is returned when a pool file lists no partners
var ErrEmptyPool = errors.New("partner pool is empty")

// Pool is the set of partners users are matched with
type Pool struct {
	Partners []models.Partner `yaml:"partners"`
}

// DefaultPool returns the built-in partner pool
func DefaultPool() (*Pool, error) {
	return parsePool(defaultPool)
}

// LoadPool reads a partner pool from a YAML file
func LoadPool(path string) (*Pool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	pool, err := parsePool(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pool, nil
}

func parsePool(data []byte) (*Pool, error) {
	var p Pool
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(p.Partners) == 0 {
		return nil, ErrEmptyPool
	}
	for i, partner := range p.Partners {
		if partner.Name == "" {
			return nil, fmt.Errorf("partner %d has no name", i)
		}
	}
	return &p, nil
}
