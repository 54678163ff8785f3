// Package mdadapter extends goldmark with the recipe attachment directive.
//
// Walkthrough markdown may reference a bundled file inline:
//
//	{{attachment: downloadExecutables/executable.json}}
//
// The directive renders as a download link and surfaces in the parsed step
// media, so exports pack the referenced file along with the recipe.
package mdadapter
