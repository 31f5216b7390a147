package tmdb

import "strings"

const (
	ImageBaseURL = "https://image.tmdb.org/t/p/"

	PosterSize   = "w500"
	BackdropSize = "w1280"
	ProfileSize  = "w185"
)

// ImageURL builds a full image URL from a service-relative path. Catalog rows
// already carry absolute URLs, which are returned unchanged.
func ImageURL(path *string, size string) string {
	if path == nil {
		return ""
	}
	p := strings.TrimSpace(*path)
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	if size == "" {
		size = "original"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return ImageBaseURL + size + p
}
