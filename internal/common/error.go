package common

import "fmt"

var (
	ErrRecipeNotFoundError              = fmt.Errorf("recipe not found")
	ErrAttachmentNotFoundError          = fmt.Errorf("attachment not found")
	ErrNoValidRecipesError              = fmt.Errorf("no valid recipes found")
	ErrOperationNotFoundError           = fmt.Errorf("operation not found")
	ErrIndexingProcessHasAlreadyStarted = fmt.Errorf("indexing process has already started")
)
