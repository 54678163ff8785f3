package entity

// RecipeRecord is the portable unit of the catalog: one step-by-step guide
// with its attachments referenced by relative path. The JSON shape is the
// interchange contract for recipe.json archive entries, the direct-download
// export document and the record store, so field names must stay stable.
type RecipeRecord struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`

	// Collection fields are always present after validation; absent input
	// collections are backfilled to empty slices, never left nil.
	Versions            []string               `json:"versions"`
	Prerequisites       []string               `json:"prerequisites"`
	Walkthrough         []WalkthroughStep      `json:"walkthrough"`
	DownloadExecutables []ExecutableDescriptor `json:"downloadExecutables"`
	RelatedRecipes      []string               `json:"relatedRecipes"`
	Keywords            []string               `json:"keywords"`

	GeneralImages []RecipeImage `json:"generalImages,omitempty"`
}

// WalkthroughStep is one step of a recipe walkthrough. Step is the label,
// Config the settings applied in that step, Media the illustrating
// attachments/links. Description carries optional rich text and plays no
// part in validation.
type WalkthroughStep struct {
	Step        string       `json:"step"`
	Description string       `json:"description,omitempty"`
	Config      []StepConfig `json:"config"`
	Media       []StepMedia  `json:"media"`
}

// StepConfig is a single field/value setting shown in a walkthrough step.
type StepConfig struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

const (
	MediaTypeImage    = "image"
	MediaTypeVideo    = "video"
	MediaTypeLink     = "link"
	MediaTypeDocument = "document"
)

// StepMedia is an attachment or link shown in a walkthrough step. URLs
// beginning with "images/" refer to archive attachments; anything else is
// passed through untouched.
type StepMedia struct {
	Type string `json:"type"`
	URL  string `json:"url"`
	Alt  string `json:"alt,omitempty"`
}

// ExecutableDescriptor references a downloadable executable definition under
// the downloadExecutables/ namespace of a recipe folder.
type ExecutableDescriptor struct {
	FilePath string `json:"filePath"`
}

// RecipeImage is a general (non-step) image of a recipe.
type RecipeImage struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}
