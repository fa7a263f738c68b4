package web

import (
	"path"
	"path/filepath"
	"strings"
)

// filepathFromURL maps a slash-separated URL path onto root the same way
// http.Dir does, so ".." can never leave root.
func filepathFromURL(root, urlPath string) string {
	if !strings.HasPrefix(urlPath, "/") {
		urlPath = "/" + urlPath
	}
	return filepath.Join(root, filepath.FromSlash(path.Clean(urlPath)))
}
