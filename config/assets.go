package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Asset describes one approved collateral asset as deployed: its identifier,
// the native precision of its price feed, and an optional bootstrap price in
// feed units for self-contained runs.
type Asset struct {
	Symbol       string `yaml:"symbol"`
	Address      string `yaml:"address"`
	FeedDecimals uint8  `yaml:"feedDecimals"`
	InitialPrice string `yaml:"initialPrice"`
}

// AssetsFile is the YAML document listing every approved collateral asset.
// The order of entries fixes the registry's iteration order.
type AssetsFile struct {
	Assets []Asset `yaml:"assets"`
}

// LoadAssets reads and validates the asset table from the given path.
func LoadAssets(path string) ([]Asset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open assets file: %w", err)
	}
	defer file.Close()

	doc := AssetsFile{}
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("config: decode assets file: %w", err)
	}
	if len(doc.Assets) == 0 {
		return nil, fmt.Errorf("config: assets file %s lists no assets", path)
	}
	seen := make(map[string]struct{}, len(doc.Assets))
	for i, asset := range doc.Assets {
		if strings.TrimSpace(asset.Symbol) == "" {
			return nil, fmt.Errorf("config: asset %d missing symbol", i)
		}
		if _, err := asset.AssetID(); err != nil {
			return nil, err
		}
		if _, dup := seen[strings.ToLower(asset.Address)]; dup {
			return nil, fmt.Errorf("config: duplicate asset address %s", asset.Address)
		}
		seen[strings.ToLower(asset.Address)] = struct{}{}
	}
	return doc.Assets, nil
}

// AssetID parses the asset's hex address.
func (a Asset) AssetID() (common.Address, error) {
	addr := strings.TrimSpace(a.Address)
	if !common.IsHexAddress(addr) {
		return common.Address{}, fmt.Errorf("config: asset %s has invalid address %q", a.Symbol, a.Address)
	}
	return common.HexToAddress(addr), nil
}
