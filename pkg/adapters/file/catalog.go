package file

import (
	"bytes"
	"fmt"
	"os"

	"github.com/reliant/configurator/pkg/adapters/memory"
	"github.com/reliant/configurator/pkg/domain"
	"gopkg.in/yaml.v3"
)

// CatalogFile is the on-disk layout of a YAML catalog.
type CatalogFile struct {
	Products []domain.Product `yaml:"products"`
	Pages    []domain.Page    `yaml:"pages"`
}

// Load reads a YAML catalog into an in-memory page store and product catalog.
func Load(path string) (*memory.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	catalog, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return catalog, nil
}

// Parse decodes a YAML catalog. Unknown fields are rejected so typos in page
// definitions surface at load time.
func Parse(data []byte) (*memory.Catalog, error) {
	var cf CatalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	for _, p := range cf.Pages {
		if !p.Type.Valid() {
			return nil, fmt.Errorf("page %s has unknown type %q", p.ID, p.Type)
		}
	}
	return memory.NewCatalog(cf.Products, cf.Pages...)
}
