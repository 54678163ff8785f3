// Package recipe holds the domain rules shared by every record source:
// structural validation and normalization of RecipeRecords, attachment key
// extraction and deterministic folder-name allocation for archive entries.
package recipe

import (
	"encoding/json"
	"fmt"

	"recipevault/internal/entity"
)

// Categories is the closed set of recipe categories. A record with any other
// category value is rejected outright.
var Categories = []string{"Batch", "Trigger", "Data List", "Action Button", "Data Loader"}

var categorySet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Categories))
	for _, c := range Categories {
		m[c] = struct{}{}
	}

	return m
}()

// Decode parses a recipe.json document and validates it. A collection field
// present with a non-sequence value fails the parse, which rejects the
// record the same way a structural violation does.
func Decode(data []byte) (*entity.RecipeRecord, error) {
	var rec entity.RecipeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("cannot parse recipe: %w", err)
	}

	if err := Validate(&rec); err != nil {
		return nil, err
	}

	return &rec, nil
}

// Validate checks a record against the acceptance rules and backfills absent
// collection fields with empty sequences. The in-place mutation is part of
// the contract: callers rely on post-validation records being fully
// populated. A record either fully validates or is rejected; there is no
// field-level partial acceptance.
func Validate(rec *entity.RecipeRecord) error {
	if rec.Title == "" {
		return fmt.Errorf("missing or empty title")
	}

	if rec.Category == "" {
		return fmt.Errorf("missing or empty category")
	}

	if _, ok := categorySet[rec.Category]; !ok {
		return fmt.Errorf("unknown category %q", rec.Category)
	}

	if rec.Versions == nil {
		rec.Versions = []string{}
	}
	if rec.Prerequisites == nil {
		rec.Prerequisites = []string{}
	}
	if rec.Walkthrough == nil {
		rec.Walkthrough = []entity.WalkthroughStep{}
	}
	if rec.DownloadExecutables == nil {
		rec.DownloadExecutables = []entity.ExecutableDescriptor{}
	}
	if rec.RelatedRecipes == nil {
		rec.RelatedRecipes = []string{}
	}
	if rec.Keywords == nil {
		rec.Keywords = []string{}
	}

	for i := range rec.Walkthrough {
		step := &rec.Walkthrough[i]

		if step.Step == "" {
			return fmt.Errorf("walkthrough step %d: missing step label", i+1)
		}

		// Both lists must be present, possibly empty. A nil slice here means
		// the field was absent from the source document.
		if step.Config == nil {
			return fmt.Errorf("walkthrough step %d: missing config list", i+1)
		}
		if step.Media == nil {
			return fmt.Errorf("walkthrough step %d: missing media list", i+1)
		}
	}

	return nil
}
