package export

import (
	"archive/zip"
	"fmt"
	"strings"
	"time"

	"recipevault/internal/entity"
)

func writeInstructions(zw *zip.Writer, records []*entity.RecipeRecord, folders []string, catalogTotal int) error {
	text := buildInstructions(records, folders, catalogTotal, time.Now().UTC())

	return writeArchiveFile(zw, entity.ArchiveInstructionsFile, []byte(text))
}

func buildInstructions(records []*entity.RecipeRecord, folders []string, catalogTotal int, exportedAt time.Time) string {
	var b strings.Builder

	b.WriteString("RECIPE ARCHIVE DEPLOYMENT INSTRUCTIONS\n")
	b.WriteString("======================================\n\n")
	fmt.Fprintf(&b, "Exported: %s\n", exportedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "This archive contains %d of %d recipes in the catalog.\n\n", len(records), catalogTotal)

	b.WriteString("Contents\n")
	b.WriteString("--------\n")
	for i, rec := range records {
		fmt.Fprintf(&b, "  %s/  %s (%s)\n", folders[i], rec.Title, rec.Category)
	}
	b.WriteString("\n")

	b.WriteString("Each recipe folder holds:\n")
	fmt.Fprintf(&b, "  %s  the recipe document\n", entity.ArchiveRecipeFile)
	fmt.Fprintf(&b, "  %s/  walkthrough and general images\n", entity.ArchiveImagesDir)
	fmt.Fprintf(&b, "  %s/  executable definitions\n", entity.ArchiveExecutablesDir)
	b.WriteString("\n")

	b.WriteString("Deployment\n")
	b.WriteString("----------\n")
	b.WriteString("1. Unzip the archive.\n")
	b.WriteString("2. Copy every recipe folder into assets/recipes/ of the deployment.\n")
	fmt.Fprintf(&b, "3. Merge the entries of %s into the bundle index,\n", entity.ArchiveIndexFile)
	b.WriteString("   keeping \"active\": true for every recipe that should appear.\n")
	b.WriteString("4. Trigger a catalog reindex (POST /index) or restart the service.\n")

	return b.String()
}
