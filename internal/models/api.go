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

package models

import (
	"github.com/shopspring/decimal"
)

// EngagementResult represents the outcome of recording an ad engagement.
// AlreadyRecorded is a steady-state outcome, not a failure.
type EngagementResult struct {
	UserId          int64           `json:"user_id"`
	AdId            int64           `json:"ad_id"`
	ClickId         int64           `json:"click_id,omitempty"`
	Credited        decimal.Decimal `json:"credited"`
	AlreadyRecorded bool            `json:"already_recorded"`
}

// Stats is the admin overview of the ledger
type Stats struct {
	Users int64 `json:"users"`
	Ads   int64 `json:"ads"`
}
