package pgtools

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/marcogbarcellos/pgstudio/internal/model"
)

const (
	ToolDump    = "pg_dump"
	ToolRestore = "pg_restore"
	ToolPsql    = "psql"
)

var defaultDirs = []string{"/usr/local/bin", "/usr/bin", "/opt/homebrew/bin"}

const postgresAppVersions = "/Applications/Postgres.app/Contents/Versions"

const versionTimeout = 5 * time.Second

// Locator finds the Postgres client tools on this host.
type Locator struct {
	extraDirs   []string
	fixedDirs   []string
	versionsDir string
	lookPath    func(string) (string, error)
}

// NewLocator searches extraDirs before the usual installation directories.
func NewLocator(extraDirs ...string) *Locator {
	return &Locator{
		extraDirs:   extraDirs,
		fixedDirs:   defaultDirs,
		versionsDir: postgresAppVersions,
		lookPath:    exec.LookPath,
	}
}

// Locate returns the absolute path of the first executable named name, or ""
// when none exists. The search order is the configured extra directories, the
// fixed installation directories, the Postgres.app bundles from newest to
// oldest version, and finally PATH.
func (l *Locator) Locate(name string) string {
	for _, dir := range l.candidateDirs() {
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			return candidate
		}
	}
	if l.lookPath == nil {
		return ""
	}
	found, err := l.lookPath(name)
	if err != nil || found == "" {
		return ""
	}
	abs, err := filepath.Abs(found)
	if err != nil || !isExecutable(abs) {
		return ""
	}
	return abs
}

func (l *Locator) candidateDirs() []string {
	dirs := make([]string, 0, len(l.extraDirs)+len(l.fixedDirs)+4)
	dirs = append(dirs, l.extraDirs...)
	dirs = append(dirs, l.fixedDirs...)
	for _, v := range bundledVersions(l.versionsDir) {
		dirs = append(dirs, filepath.Join(l.versionsDir, v, "bin"))
	}
	return dirs
}

// bundledVersions lists the version directories under root, numeric versions
// newest first, then any other names in lexical order.
func bundledVersions(root string) []string {
	if root == "" {
		return nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.SliceStable(names, func(i, j int) bool {
		vi, okI := parseVersion(names[i])
		vj, okJ := parseVersion(names[j])
		switch {
		case okI && okJ:
			return compareVersions(vi, vj) > 0
		case okI != okJ:
			return okI
		default:
			return names[i] < names[j]
		}
	})
	return names
}

func parseVersion(s string) ([]int, bool) {
	parts := strings.Split(s, ".")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, false
		}
		out = append(out, n)
	}
	return out, len(out) > 0
}

func compareVersions(a, b []int) int {
	for i := 0; i < len(a) || i < len(b); i++ {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if x != y {
			if x > y {
				return 1
			}
			return -1
		}
	}
	return 0
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}

// Version runs "<path> --version" and returns its trimmed output.
func (l *Locator) Version(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Detect reports which tools are installed and the pg_dump version.
func (l *Locator) Detect(ctx context.Context) model.ToolsStatus {
	var status model.ToolsStatus
	if p := l.Locate(ToolDump); p != "" {
		status.DumpPath = &p
		if v, err := l.Version(ctx, p); err == nil && v != "" {
			status.Version = &v
		}
	}
	if p := l.Locate(ToolRestore); p != "" {
		status.RestorePath = &p
	}
	if p := l.Locate(ToolPsql); p != "" {
		status.PsqlPath = &p
	}
	return status
}
