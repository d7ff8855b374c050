package common

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

type AdConfig struct {
	Text   string `yaml:"text"`
	Url    string `yaml:"url"`
	Reward string `yaml:"reward"`
}

type AdsConfig struct {
	Ads []AdConfig `yaml:"ads"`
}

// LoadAdConfig reads and validates the ad seed file. Rewards are kept as
// strings in YAML so they parse exactly as decimals.
func LoadAdConfig(adsFile string) ([]store.AddAdParams, error) {
	var adsPath string
	if filepath.IsAbs(adsFile) {
		adsPath = adsFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		adsPath = filepath.Join(wd, adsFile)
	}

	data, err := os.ReadFile(adsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", adsFile, err)
	}

	var config AdsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", adsFile, err)
	}

	params := make([]store.AddAdParams, 0, len(config.Ads))
	for i, ad := range config.Ads {
		if strings.TrimSpace(ad.Text) == "" {
			return nil, fmt.Errorf("ad at index %d missing text", i)
		}
		if strings.TrimSpace(ad.Url) == "" {
			return nil, fmt.Errorf("ad at index %d missing url", i)
		}
		reward, err := decimal.NewFromString(strings.TrimSpace(ad.Reward))
		if err != nil {
			return nil, fmt.Errorf("ad at index %d has invalid reward %q: %w", i, ad.Reward, err)
		}
		if !reward.IsPositive() {
			return nil, fmt.Errorf("ad at index %d reward must be positive, got %s", i, reward.String())
		}
		params = append(params, store.AddAdParams{Text: ad.Text, Destination: ad.Url, Reward: reward})
	}

	return params, nil
}

// SeedAds appends the configured ads to the catalog. An already populated
// catalog is left alone unless force is set.
func SeedAds(ctx context.Context, db store.LedgerStore, ads []store.AddAdParams, force bool) ([]models.Ad, error) {
	count, err := db.CountAds(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count ads: %w", err)
	}
	if count > 0 && !force {
		zap.L().Info("Catalog already populated, skipping seed", zap.Int64("ads", count))
		return nil, nil
	}

	created := make([]models.Ad, 0, len(ads))
	for _, params := range ads {
		ad, err := db.AddAd(ctx, params)
		if err != nil {
			return created, fmt.Errorf("failed to add ad %q: %w", params.Text, err)
		}
		created = append(created, *ad)
	}
	return created, nil
}
