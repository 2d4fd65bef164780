package staticgen

import (
	"path"
	"strings"
)

// OutputPath maps a concrete URL path and language to a normalized relative
// output path. It is a pure function: identical inputs always produce
// identical paths, across runs and processes.
//
// A URL ending in a slash maps to index.html underneath, e.g. "/blog/a/" →
// "blog/a/index.html". Any other URL is used verbatim, e.g. "/feed.xml" →
// "feed.xml". Non-default languages are prefixed, e.g. ("/blog/a/", "fr") →
// "fr/blog/a/index.html"; the default language is unprefixed.
func OutputPath(url, lang, defaultLang string) (string, error) {
	if !strings.HasPrefix(url, "/") {
		return "", Errorf(EINVALID, "URL path must start with /: %q", url)
	}
	p := strings.TrimPrefix(url, "/")
	switch {
	case p == "" || strings.HasSuffix(p, "/"):
		p += "index.html"
	default:
		// Verbatim. Pages whose last segment carries no extension end up
		// as extensionless files, matching the URL they were served from.
	}
	p = path.Clean(p)
	if p == "." || strings.HasPrefix(p, "..") {
		return "", Errorf(EINVALID, "URL path escapes the output tree: %q", url)
	}
	if lang != "" && lang != defaultLang {
		p = lang + "/" + p
	}
	return p, nil
}

// DefaultAdminPrefixes are the administrative URL prefixes excluded when
// admin skipping is enabled.
var DefaultAdminPrefixes = []string{"admin", "grappelli", "unfold"}

// PathFilter excludes URL paths from generation before page targets are
// created. Paths under SkipDirs are excluded entirely; when SkipAdmin is set
// the admin prefixes are excluded as well.
type PathFilter struct {
	SkipDirs      []string
	SkipAdmin     bool
	AdminPrefixes []string // defaults to DefaultAdminPrefixes when empty
}

// Excluded reports whether the URL path falls under an excluded directory.
func (f *PathFilter) Excluded(url string) bool {
	if f == nil {
		return false
	}
	for _, dir := range f.SkipDirs {
		if underDir(url, dir) {
			return true
		}
	}
	if f.SkipAdmin {
		prefixes := f.AdminPrefixes
		if len(prefixes) == 0 {
			prefixes = DefaultAdminPrefixes
		}
		for _, dir := range prefixes {
			if underDir(url, dir) {
				return true
			}
		}
	}
	return false
}

// ExcludedDir reports whether a directory name matches the filter. Used when
// walking static file trees, where whole directories are skipped by name.
func (f *PathFilter) ExcludedDir(name string) bool {
	if f == nil {
		return false
	}
	for _, dir := range f.SkipDirs {
		if name == strings.Trim(dir, "/") {
			return true
		}
	}
	if f.SkipAdmin {
		prefixes := f.AdminPrefixes
		if len(prefixes) == 0 {
			prefixes = DefaultAdminPrefixes
		}
		for _, dir := range prefixes {
			if name == dir {
				return true
			}
		}
	}
	return false
}

func underDir(url, dir string) bool {
	dir = strings.Trim(dir, "/")
	if dir == "" {
		return false
	}
	p := strings.TrimPrefix(url, "/")
	return p == dir || strings.HasPrefix(p, dir+"/")
}
