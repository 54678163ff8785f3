package recipe

import "strings"

const keySegments = 3

// AttachmentKey extracts the blob-store key from an attachment filename.
// Attachment names encode a three-part identifier (prefix_timestamp_random)
// followed by the original filename; the key is the first three
// underscore-delimited segments. Names with fewer segments are used whole:
//
//	img_1690000000_ab12_myphoto.png -> img_1690000000_ab12
//	logo.png                        -> logo.png
func AttachmentKey(fileName string) string {
	parts := strings.Split(fileName, "_")
	if len(parts) < keySegments {
		return fileName
	}

	return strings.Join(parts[:keySegments], "_")
}

// IsImageRef reports whether a media URL references an archive attachment
// rather than an external resource. Only "images/" paths are resolved
// through the blob store and static bundle; all other URLs pass through
// untouched.
func IsImageRef(url string) bool {
	return strings.HasPrefix(url, "images/")
}

// IsExecutableRef reports whether a URL references a bundled executable
// definition.
func IsExecutableRef(url string) bool {
	return strings.HasPrefix(url, "downloadExecutables/")
}

// IsAttachmentRef reports whether a URL points into a recipe folder at all,
// images or executable definitions.
func IsAttachmentRef(url string) bool {
	return IsImageRef(url) || IsExecutableRef(url)
}
