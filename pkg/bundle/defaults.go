package bundle

// DefaultCleanupPatterns are removed from every bundle after the
// configured exclude patterns. A trailing slash matches directories only.
var DefaultCleanupPatterns = []string{
	"*.pyc",
	"__pycache__",
	".DS_Store",
	"include/",
	"share/doc/",
	"share/man/",
	"conda-meta/",
	"pkgs/",
}

const (
	infoDictionaryVersion = "6.0"
	minimumSystemVersion  = "10.9.0"
	developmentRegion     = "en"
	launcherMode          = 0o755
	plistMode             = 0o644
)
