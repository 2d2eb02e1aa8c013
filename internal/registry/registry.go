// Package registry loads the built-in asset catalogue from a YAML file.
// The catalogue lists the coins the application tracks out of the box;
// entries are seeded into the asset table at startup when missing.
package registry

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SeedAsset is one catalogue entry. CoingeckoID is the provider identifier
// used for price lookups and must be unique within the file.
type SeedAsset struct {
	CoingeckoID string `yaml:"coingecko_id"`
	Symbol      string `yaml:"symbol"`
	Name        string `yaml:"name"`
	Currency    string `yaml:"currency"`
}

type catalogueFile struct {
	Assets []SeedAsset `yaml:"assets"`
}

// Load reads and validates the asset catalogue at path. A missing file is
// not an error: seeding is optional and Load returns an empty slice so the
// caller can continue without a catalogue.
func Load(path string) ([]SeedAsset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read asset catalogue: %w", err)
	}

	var file catalogueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse asset catalogue: %w", err)
	}

	seen := make(map[string]bool, len(file.Assets))
	for i := range file.Assets {
		entry := &file.Assets[i]
		entry.CoingeckoID = strings.TrimSpace(entry.CoingeckoID)
		entry.Symbol = strings.ToUpper(strings.TrimSpace(entry.Symbol))
		entry.Name = strings.TrimSpace(entry.Name)
		entry.Currency = strings.ToLower(strings.TrimSpace(entry.Currency))

		if entry.CoingeckoID == "" {
			return nil, fmt.Errorf("asset catalogue entry %d: coingecko_id is required", i+1)
		}
		if entry.Symbol == "" {
			return nil, fmt.Errorf("asset catalogue entry %q: symbol is required", entry.CoingeckoID)
		}
		if entry.Name == "" {
			entry.Name = entry.Symbol
		}
		if entry.Currency == "" {
			entry.Currency = "usd"
		}
		if seen[entry.CoingeckoID] {
			return nil, fmt.Errorf("asset catalogue entry %q: duplicate coingecko_id", entry.CoingeckoID)
		}
		seen[entry.CoingeckoID] = true
	}

	return file.Assets, nil
}
