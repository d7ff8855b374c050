/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"

	"ad-rewards-go/internal/common"
	"ad-rewards-go/internal/config"
	"ad-rewards-go/internal/models"

	"go.uber.org/zap"
)

func printAds(ads []models.Ad, currency string) {
	for i, ad := range ads {
		isLast := i == len(ads)-1
		fmt.Printf("%s #%-5d %-40s %10s %s\n", common.BoxPrefix(isLast), ad.Id, common.TruncateText(ad.Text, 40), ad.Reward.String(), currency)
		fmt.Printf("%s        %s\n", common.BoxDetailPrefix(isLast), ad.Destination)
	}
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	adsFlag := flag.String("ads", "", "Path to the ad seed file (default: ADS_FILE or ads.yaml)")
	forceFlag := flag.Bool("force", false, "Append the seed ads even when the catalog is not empty")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	adsFile := cfg.Ledger.AdsFile
	if *adsFlag != "" {
		adsFile = *adsFlag
	}

	// Opening the store creates the schema on first run
	db, err := common.InitializeStoreOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize ledger store", zap.Error(err))
	}
	defer db.Close()

	zap.L().Info("Loading ad configuration", zap.String("file", adsFile))
	seeds, err := common.LoadAdConfig(adsFile)
	if err != nil {
		zap.L().Fatal("Failed to load ad config", zap.Error(err))
	}
	zap.L().Info("Ad configuration loaded", zap.Int("count", len(seeds)))

	created, err := common.SeedAds(ctx, db, seeds, *forceFlag)
	if err != nil {
		zap.L().Fatal("Failed to seed ads",
			zap.Int("created_before_failure", len(created)),
			zap.Error(err))
	}

	if len(created) == 0 {
		fmt.Println("Catalog already has ads, nothing seeded (use -force to append anyway)")
		return
	}

	common.PrintHeader("SEEDED ADS", common.DefaultWidth)
	printAds(created, cfg.Ledger.Currency)
	common.PrintFooter(fmt.Sprintf("SUMMARY: %d ads added", len(created)), common.DefaultWidth)

	zap.L().Info("Setup complete", zap.Int("ads_created", len(created)))
}
