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
	"time"

	"github.com/shopspring/decimal"
)

const (
	WithdrawalStatusPending  = "pending"
	WithdrawalStatusApproved = "approved"
)

const (
	TransactionTypeCommission = "commission"
	TransactionTypeWithdrawal = "withdrawal"
	TransactionTypeForfeit    = "forfeit"
)

// User represents a subscriber and their reward balance
type User struct {
	Id        int64           `db:"id"`
	Balance   decimal.Decimal `db:"balance"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// Ad represents a catalog entry. Ads are never updated once created.
type Ad struct {
	Id          int64           `db:"id"`
	Text        string          `db:"text"`
	Destination string          `db:"url"`
	Reward      decimal.Decimal `db:"reward"`
	CreatedAt   time.Time       `db:"created_at"`
}

// Click records the first engagement of a user with an ad
type Click struct {
	Id        int64     `db:"id"`
	UserId    int64     `db:"user_id"`
	AdId      int64     `db:"ad_id"`
	CreatedAt time.Time `db:"created_at"`
}

// WithdrawalRequest is a claim against an already debited balance
type WithdrawalRequest struct {
	Id         int64           `db:"id"`
	UserId     int64           `db:"user_id"`
	Amount     decimal.Decimal `db:"amount"`
	Status     string          `db:"status"`
	CreatedAt  time.Time       `db:"created_at"`
	ApprovedAt *time.Time      `db:"approved_at"`
}

// Transaction represents immutable balance history (audit trail)
type Transaction struct {
	Id              string          `db:"id"`
	UserId          int64           `db:"user_id"`
	TransactionType string          `db:"transaction_type"`
	Amount          decimal.Decimal `db:"amount"`
	BalanceBefore   decimal.Decimal `db:"balance_before"`
	BalanceAfter    decimal.Decimal `db:"balance_after"`
	Reference       string          `db:"reference"`
	CreatedAt       time.Time       `db:"created_at"`
}
