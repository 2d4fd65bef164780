package staticgen

import (
	"fmt"
	"html"
	"strings"
)

// RedirectPage renders a static meta-refresh HTML stub pointing at the
// destination URL. Written in place of pages that moved, so that a purely
// static host can still serve old URLs.
func RedirectPage(destination string) []byte {
	dest := html.EscapeString(destination)
	lines := []string{
		"<!DOCTYPE html>",
		"<html>",
		"<head>",
		`<meta charset="UTF-8">`,
		fmt.Sprintf(`<meta http-equiv="refresh" content="0;URL=%s" />`, dest),
		fmt.Sprintf("<title>Redirecting to %s</title>", dest),
		`<meta name="robots" content="noindex" />`,
		"</head>",
		"<body>",
		fmt.Sprintf(`<h1>Redirecting to <a href="%s">%s</a></h1>`, dest, dest),
		fmt.Sprintf(`<p>If you are not automatically redirected please click <a href="%s">this link</a></p>`, dest),
		"</body>",
		"</html>",
	}
	return []byte(strings.Join(lines, "\n"))
}

// RedirectOutputPath maps an old URL path to the output path of its redirect
// stub. Paths already naming an .html file are used verbatim; anything else
// gets index.html underneath.
func RedirectOutputPath(oldPath string) string {
	p := strings.Trim(oldPath, "/")
	if p == "" {
		return "index.html"
	}
	if strings.HasSuffix(strings.ToLower(p), ".html") {
		return p
	}
	return p + "/index.html"
}
