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
	"encoding/json"

	"github.com/blnkfinance/reachout/internal/apierror"
	"github.com/blnkfinance/reachout/model"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
)

const prospectColumns = `id, name, email, phone, social, website, title, description, category, tags,
		company_size, inferred_intent, email_prompt, reached_out, meta_data, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProspect(row rowScanner) (model.Prospect, error) {
	p := model.Prospect{}
	var metaDataJSON []byte
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.Social, &p.Website, &p.Title,
		&p.Description, &p.Category, &p.Tags, &p.CompanySize, &p.InferredIntent, &p.EmailPrompt,
		&p.ReachedOut, &metaDataJSON, &p.CreatedAt)
	if err != nil {
		return p, err
	}
	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &p.MetaData); err != nil {
			return p, err
		}
	}
	return p, nil
}

func (d Datasource) CreateProspect(ctx context.Context, prospect model.Prospect) (model.Prospect, error) {
	ctx, span := otel.Tracer("reachout.database").Start(ctx, "Saving prospect to db")
	defer span.End()

	metaDataJSON, err := json.Marshal(prospect.MetaData)
	if err != nil {
		return model.Prospect{}, apierror.NewAPIError(apierror.ErrInvalidInput, "Failed to marshal metadata", err)
	}

	err = d.Conn.QueryRowContext(ctx, `
		INSERT INTO reachout.prospects (name, email, phone, social, website, title, description, category, tags,
			company_size, inferred_intent, email_prompt, reached_out, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at
	`, prospect.Name, prospect.Email, prospect.Phone, prospect.Social, prospect.Website, prospect.Title,
		prospect.Description, prospect.Category, prospect.Tags, prospect.CompanySize, prospect.InferredIntent,
		prospect.EmailPrompt, prospect.ReachedOut, metaDataJSON).Scan(&prospect.ID, &prospect.CreatedAt)
	if err != nil {
		span.RecordError(err)
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return model.Prospect{}, apierror.NewAPIError(apierror.ErrConflict, "Prospect with this email already exists", err)
		}
		return model.Prospect{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create prospect", err)
	}

	return prospect, nil
}

// GetAllProspects returns prospects in insertion order. A limit of zero returns every row.
func (d Datasource) GetAllProspects(ctx context.Context, limit, offset int) ([]model.Prospect, error) {
	ctx, span := otel.Tracer("reachout.database").Start(ctx, "Fetching prospects from db")
	defer span.End()

	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = d.Conn.QueryContext(ctx, `SELECT `+prospectColumns+` FROM reachout.prospects ORDER BY id ASC LIMIT $1 OFFSET $2`, limit, offset)
	} else {
		rows, err = d.Conn.QueryContext(ctx, `SELECT `+prospectColumns+` FROM reachout.prospects ORDER BY id ASC`)
	}
	if err != nil {
		span.RecordError(err)
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve prospects", err)
	}
	defer rows.Close()

	prospects := []model.Prospect{}
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan prospect data", err)
		}
		prospects = append(prospects, p)
	}

	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over prospects", err)
	}
	return prospects, nil
}

func (d Datasource) GetProspectByEmail(ctx context.Context, email string) (*model.Prospect, error) {
	row := d.Conn.QueryRowContext(ctx, `SELECT `+prospectColumns+` FROM reachout.prospects WHERE lower(email) = $1`, model.NormalizeEmail(email))
	p, err := scanProspect(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Prospect not found", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve prospect", err)
	}
	return &p, nil
}

func (d Datasource) DeleteProspect(ctx context.Context, email string) error {
	result, err := d.Conn.ExecContext(ctx, `DELETE FROM reachout.prospects WHERE lower(email) = $1`, model.NormalizeEmail(email))
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to delete prospect", err)
	}
	return requireAffected(result, "Prospect not found")
}

func (d Datasource) SetReachedOut(ctx context.Context, email string, reachedOut bool) error {
	result, err := d.Conn.ExecContext(ctx, `UPDATE reachout.prospects SET reached_out = $2 WHERE lower(email) = $1`, model.NormalizeEmail(email), reachedOut)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update prospect", err)
	}
	return requireAffected(result, "Prospect not found")
}

// MarkReachedOut flags every prospect whose address is in emails. Unknown addresses are ignored.
func (d Datasource) MarkReachedOut(ctx context.Context, emails []string) error {
	if len(emails) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(emails))
	for _, e := range emails {
		normalized = append(normalized, model.NormalizeEmail(e))
	}

	_, err := d.Conn.ExecContext(ctx, `UPDATE reachout.prospects SET reached_out = true WHERE lower(email) = ANY($1)`, pq.Array(normalized))
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to mark prospects as reached out", err)
	}
	return nil
}

func requireAffected(result sql.Result, notFound string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to read affected rows", err)
	}
	if n == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, notFound, nil)
	}
	return nil
}
