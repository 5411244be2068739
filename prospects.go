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

package reachout

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/blnkfinance/reachout/database"
	"github.com/blnkfinance/reachout/model"
)

// ProspectSource supplies the candidate list for a run. Malformed source data
// is reported as a *ValidationError.
type ProspectSource interface {
	LoadProspects(ctx context.Context) ([]model.Prospect, error)
}

type datasourceProspects struct {
	ds database.IDataSource
}

// NewDatasourceProspectSource reads candidates from the prospects table.
func NewDatasourceProspectSource(ds database.IDataSource) ProspectSource {
	return datasourceProspects{ds: ds}
}

func (d datasourceProspects) LoadProspects(ctx context.Context) ([]model.Prospect, error) {
	return d.ds.GetAllProspects(ctx, 0, 0)
}

// CSVProspectSource reads candidates from a CSV file with a header row. The
// header must contain an email column; unknown columns land in MetaData.
type CSVProspectSource struct {
	Path string
}

func (c CSVProspectSource) LoadProspects(_ context.Context) ([]model.Prospect, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseProspectsCSV(c.Path, f)
}

// ParseProspectsCSV parses r strictly: a ragged row or a missing email header
// fails the whole source.
func ParseProspectsCSV(source string, r io.Reader) ([]model.Prospect, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ValidationError{Source: source, Err: errors.New("missing header row")}
		}
		return nil, &ValidationError{Source: source, Line: 1, Err: err}
	}

	columns := make([]string, len(header))
	hasEmail := false
	for i, h := range header {
		columns[i] = strings.ToLower(strings.TrimSpace(h))
		if columns[i] == "email" {
			hasEmail = true
		}
	}
	if !hasEmail {
		return nil, &ValidationError{Source: source, Line: 1, Err: errors.New("header has no email column")}
	}

	prospects := []model.Prospect{}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line := 0
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				line = parseErr.Line
			}
			return nil, &ValidationError{Source: source, Line: line, Err: err}
		}

		p := model.Prospect{}
		for i, value := range row {
			setProspectField(&p, columns[i], strings.TrimSpace(value))
		}
		prospects = append(prospects, p)
	}
	return prospects, nil
}

func setProspectField(p *model.Prospect, column, value string) {
	switch column {
	case "name":
		p.Name = value
	case "email":
		p.Email = value
	case "phone":
		p.Phone = value
	case "social":
		p.Social = value
	case "website":
		p.Website = value
	case "title":
		p.Title = value
	case "description":
		p.Description = value
	case "category":
		p.Category = value
	case "tags":
		p.Tags = value
	case "company_size", "companysize":
		p.CompanySize = value
	case "inferred_intent", "inferredintent":
		p.InferredIntent = value
	case "email_prompt", "emailprompt":
		p.EmailPrompt = value
	case "reached_out", "reachedout":
		p.ReachedOut = strings.EqualFold(value, "true") || value == "1"
	default:
		if value == "" {
			return
		}
		if p.MetaData == nil {
			p.MetaData = map[string]interface{}{}
		}
		p.MetaData[column] = value
	}
}

func (c CSVProspectSource) String() string {
	return fmt.Sprintf("csv:%s", c.Path)
}
