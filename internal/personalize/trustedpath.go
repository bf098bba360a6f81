package personalize

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// uploadsMarker is the path segment stored logo references are expected
// to start with, e.g. "/uploads/logos/acme.png".
const uploadsMarker = "uploads"

// TrustedPathResolver maps stored logo references onto real files inside
// the uploads root. Anything that escapes the root, points at a foreign
// host, or does not exist on disk resolves to "".
type TrustedPathResolver struct {
	root string
}

// NewTrustedPathResolver constructs a resolver rooted at the uploads
// directory. The root is made absolute so containment checks are stable.
func NewTrustedPathResolver(uploadsDir string) *TrustedPathResolver {
	abs, err := filepath.Abs(uploadsDir)
	if err != nil {
		abs = filepath.Clean(uploadsDir)
	}
	return &TrustedPathResolver{root: abs}
}

// Root returns the absolute uploads root.
func (r *TrustedPathResolver) Root() string {
	return r.root
}

// Resolve turns a stored reference into an absolute path inside the
// uploads root, or "" when the reference cannot be trusted. It never
// returns an error: callers treat "" as "no logo".
func (r *TrustedPathResolver) Resolve(candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return ""
	}
	candidate = strings.ReplaceAll(candidate, "\\", "/")

	// A full URL keeps only its path component: a stored absolute URL
	// pointing at this server's own uploads area still resolves, but a
	// foreign host never produces a filesystem read.
	if parsed, err := url.Parse(candidate); err == nil && parsed.Scheme != "" && parsed.Host != "" {
		candidate = parsed.Path
	}

	candidate = strings.TrimLeft(candidate, "/")

	if rest, ok := strings.CutPrefix(candidate, uploadsMarker+"/"); ok {
		if abs := r.containedPath(rest); abs != "" {
			return abs
		}
	}

	// Fall back to treating the reference as a bare filename in the
	// well-known subdirectories.
	base := filepath.Base(filepath.FromSlash(candidate))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	for _, dir := range []string{"logos", "files"} {
		if abs := r.containedPath(dir + "/" + base); abs != "" {
			return abs
		}
	}
	return ""
}

// containedPath joins rel onto the root and returns the absolute path
// only when it both stays lexically inside the root and exists on disk.
func (r *TrustedPathResolver) containedPath(rel string) string {
	abs := filepath.Join(r.root, filepath.FromSlash(rel))

	inside, err := filepath.Rel(r.root, abs)
	if err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return ""
	}

	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return ""
	}
	return abs
}
