package entity

// Archive layout produced and consumed by export/import:
//
//	<root>/
//	  index.json                        ArchiveIndex
//	  DEPLOYMENT_INSTRUCTIONS.txt       export only, not parsed on import
//	  <folderName>/
//	    recipe.json                     RecipeRecord, pretty-printed
//	    images/<attachmentFile>         0..n
//	    downloadExecutables/<file>.json 0..n
//
// The same layout ships as the static bundle under assets/recipes/, which is
// why the bundle scan and the archive unpack share index semantics.
const (
	ArchiveIndexFile        = "index.json"
	ArchiveInstructionsFile = "DEPLOYMENT_INSTRUCTIONS.txt"
	ArchiveRecipeFile       = "recipe.json"
	ArchiveImagesDir        = "images"
	ArchiveExecutablesDir   = "downloadExecutables"
)

// ArchiveIndexEntry marks one exported recipe folder. FolderID is the
// allocated folder name; inactive entries are excluded on import even when
// their recipe.json validates.
type ArchiveIndexEntry struct {
	FolderID string `json:"folderId"`
	Active   bool   `json:"active"`
}

// ArchiveIndex is the per-archive manifest, regenerated on every export from
// the exported set and written once as a single JSON document.
type ArchiveIndex struct {
	Recipes []ArchiveIndexEntry `json:"recipes"`
}

// ExportMetadata describes one direct-download JSON export.
type ExportMetadata struct {
	ExportDate  string `json:"exportDate"`
	Version     string `json:"version"`
	RecipeCount int    `json:"recipeCount"`
	Format      string `json:"format"`
}

// ExportDocument is the direct-download JSON export: everything an archive
// carries except binary attachments.
type ExportDocument struct {
	Metadata ExportMetadata      `json:"metadata"`
	Index    []ArchiveIndexEntry `json:"index"`
	Recipes  []*RecipeRecord     `json:"recipes"`
}

// ImportSummary is the outcome of one archive or JSON import. Records holds
// the accepted recipes in archive order; SkippedFolders names the folders
// that were dropped with the reason already logged.
type ImportSummary struct {
	Records        []*RecipeRecord
	SkippedFolders []string
}
