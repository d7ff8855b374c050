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

package database

const (
	// User queries
	queryInsertUser = `
		INSERT OR IGNORE INTO users (id, balance) VALUES (?, '0')`

	queryDeleteUser = `
		DELETE FROM users WHERE id = ?`

	queryGetUsers = `
		SELECT id, balance, created_at, updated_at
		FROM users
		ORDER BY id`

	queryCountUsers = `
		SELECT COUNT(*) FROM users`

	// Ad queries
	queryInsertAd = `
		INSERT INTO ads (text, url, reward, created_at)
		VALUES (?, ?, ?, ?)`

	queryGetAd = `
		SELECT id, text, url, reward, created_at
		FROM ads
		WHERE id = ?`

	queryListRecentAds = `
		SELECT id, text, url, reward, created_at
		FROM ads
		ORDER BY id DESC
		LIMIT ?`

	queryCountAds = `
		SELECT COUNT(*) FROM ads`

	queryGetAdReward = `
		SELECT reward FROM ads WHERE id = ?`

	// Click queries
	queryInsertClick = `
		INSERT OR IGNORE INTO clicks (user_id, ad_id, created_at) VALUES (?, ?, ?)`

	queryCountClicks = `
		SELECT COUNT(*) FROM clicks WHERE user_id = ? AND ad_id = ?`

	// Balance queries
	queryGetBalance = `
		SELECT balance
		FROM users
		WHERE id = ?`

	queryUpdateBalance = `
		UPDATE users
		SET balance = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	queryInsertTransaction = `
		INSERT INTO balance_transactions (
			id, user_id, transaction_type, amount, balance_before, balance_after, reference, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetTransactionHistory = `
		SELECT id, user_id, transaction_type, amount, balance_before, balance_after, reference, created_at
		FROM balance_transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?`

	queryGetTransactionAmounts = `
		SELECT amount FROM balance_transactions WHERE user_id = ?`

	// Withdrawal queries
	queryInsertWithdrawal = `
		INSERT INTO withdraw_requests (user_id, amount, status, created_at)
		VALUES (?, ?, ?, ?)`

	queryGetWithdrawal = `
		SELECT id, user_id, amount, status, created_at, approved_at
		FROM withdraw_requests
		WHERE id = ?`

	queryApproveWithdrawal = `
		UPDATE withdraw_requests
		SET status = ?, approved_at = ?
		WHERE id = ? AND status = ?`

	queryListWithdrawals = `
		SELECT id, user_id, amount, status, created_at, approved_at
		FROM withdraw_requests
		WHERE (? = '' OR status = ?)
		ORDER BY id DESC
		LIMIT ?`
)
