/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/blnkfinance/reachout/internal/apierror"
	"github.com/blnkfinance/reachout/model"
	"go.opentelemetry.io/otel"
)

const recordColumns = `id, email, status, "timestamp", error, confirmed, confirmation_token, confirmed_at, created_at, updated_at`

// upsertRecord writes one merged record. A confirmation that landed after the
// run read the ledger wins: confirmed is OR-ed and the confirmed token is kept.
// A row with a newer attempt than the one being written is left alone.
const upsertRecord = `
	INSERT INTO reachout.outreach_records (email, status, "timestamp", error, confirmed, confirmation_token, confirmed_at, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	ON CONFLICT (email) DO UPDATE SET
		status = EXCLUDED.status,
		"timestamp" = EXCLUDED."timestamp",
		error = EXCLUDED.error,
		confirmation_token = CASE WHEN reachout.outreach_records.confirmed
			THEN reachout.outreach_records.confirmation_token
			ELSE EXCLUDED.confirmation_token END,
		confirmed = reachout.outreach_records.confirmed OR EXCLUDED.confirmed,
		confirmed_at = COALESCE(reachout.outreach_records.confirmed_at, EXCLUDED.confirmed_at),
		updated_at = EXCLUDED.updated_at
	WHERE reachout.outreach_records."timestamp" <= EXCLUDED."timestamp"
`

func scanRecord(row rowScanner) (model.OutreachRecord, error) {
	r := model.OutreachRecord{}
	var status string
	var errText, token sql.NullString
	var confirmedAt sql.NullTime
	err := row.Scan(&r.ID, &r.Email, &status, &r.Timestamp, &errText, &r.Confirmed, &token, &confirmedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return r, err
	}
	r.Status = model.OutreachStatus(status)
	r.Error = errText.String
	r.ConfirmationToken = token.String
	if confirmedAt.Valid {
		t := confirmedAt.Time
		r.ConfirmedAt = &t
	}
	return r, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (d Datasource) GetOutreachRecords(ctx context.Context) ([]model.OutreachRecord, error) {
	ctx, span := otel.Tracer("reachout.database").Start(ctx, "Fetching outreach records from db")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `SELECT `+recordColumns+` FROM reachout.outreach_records ORDER BY id ASC`)
	if err != nil {
		span.RecordError(err)
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve outreach records", err)
	}
	defer rows.Close()

	records := []model.OutreachRecord{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan outreach record", err)
		}
		records = append(records, r)
	}

	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over outreach records", err)
	}
	return records, nil
}

func (d Datasource) GetOutreachRecordByEmail(ctx context.Context, email string) (*model.OutreachRecord, error) {
	row := d.Conn.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM reachout.outreach_records WHERE email = $1`, model.NormalizeEmail(email))
	r, err := scanRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Outreach record not found", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve outreach record", err)
	}
	return &r, nil
}

// SaveOutreachRecords upserts the whole merged ledger in a single transaction.
func (d Datasource) SaveOutreachRecords(ctx context.Context, records []model.OutreachRecord) error {
	ctx, span := otel.Tracer("reachout.database").Start(ctx, "Saving outreach records to db")
	defer span.End()

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	for _, r := range records {
		var confirmedAt sql.NullTime
		if r.ConfirmedAt != nil {
			confirmedAt = sql.NullTime{Time: *r.ConfirmedAt, Valid: true}
		}
		_, err = tx.ExecContext(ctx, upsertRecord,
			model.NormalizeEmail(r.Email), string(r.Status), r.Timestamp, nullIfEmpty(r.Error),
			r.Confirmed, nullIfEmpty(r.ConfirmationToken), confirmedAt, now)
		if err != nil {
			span.RecordError(err)
			return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to save outreach record", err)
		}
	}

	if err = tx.Commit(); err != nil {
		span.RecordError(err)
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit outreach records", err)
	}
	return nil
}

// ConfirmOutreachRecord flips confirmed only when the token matches and the
// record is not yet confirmed. It reports whether a row changed.
func (d Datasource) ConfirmOutreachRecord(ctx context.Context, email, token string, at time.Time) (bool, error) {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE reachout.outreach_records
		SET confirmed = true, confirmed_at = $3, updated_at = $3
		WHERE email = $1 AND confirmation_token = $2 AND confirmed = false
	`, model.NormalizeEmail(email), token, at)
	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to confirm outreach record", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to read affected rows", err)
	}
	return n > 0, nil
}
