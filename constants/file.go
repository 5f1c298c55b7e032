package constants

import "strings"

// AllowedExtensions holds the file extensions treated as decoded receipt documents.
var AllowedExtensions = map[string]struct{}{
	"html": {},
	"htm":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether ext (with or without the dot) is an accepted document extension.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// JSONDumpName is the file name of the per-message JSON dump.
func JSONDumpName(messageID string) string {
	return "message-" + messageID + ".json"
}
