package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"recipevault/internal/common"
	"recipevault/internal/entity"
	"recipevault/internal/recipe"
)

// ImportJSON imports recipes from a plain JSON document: a full export
// document, a bare array of records or one single record. No binary content
// travels this path, attachments resolve against whatever the stores already
// hold.
func (s *ImportService) ImportJSON(ctx context.Context, data []byte) (*entity.ImportSummary, error) {
	rawRecords, err := splitImportDocument(data)
	if err != nil {
		return nil, err
	}

	summary := &entity.ImportSummary{}
	for i, raw := range rawRecords {
		rec, err := recipe.Decode(raw)
		if err != nil {
			s.log.Warn("Skip invalid recipe", slog.Int("position", i), slog.Any("error", err))

			continue
		}

		summary.Records = append(summary.Records, rec)
	}

	if len(summary.Records) == 0 {
		return nil, common.ErrNoValidRecipesError
	}

	s.log.Info("Imported json document", slog.Int("imported", len(summary.Records)))

	return summary, nil
}

// splitImportDocument extracts the record payloads of an import document.
// A document only counts as a full export when metadata, index and recipes
// are all present; anything else falls through to the array and then the
// single-record shape.
func splitImportDocument(data []byte) ([]json.RawMessage, error) {
	var doc struct {
		Metadata json.RawMessage `json:"metadata"`
		Index    json.RawMessage `json:"index"`
		Recipes  json.RawMessage `json:"recipes"`
	}
	if err := json.Unmarshal(data, &doc); err == nil &&
		rawPresent(doc.Metadata) && rawPresent(doc.Index) && rawPresent(doc.Recipes) {
		var records []json.RawMessage
		if err := json.Unmarshal(doc.Recipes, &records); err != nil {
			return nil, fmt.Errorf("cannot parse recipes of export document: %w", err)
		}

		return records, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var single map[string]json.RawMessage
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("cannot parse import document: %w", err)
	}

	return []json.RawMessage{json.RawMessage(data)}, nil
}

func rawPresent(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
