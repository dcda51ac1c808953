package pgtools

import (
	"strconv"

	"github.com/marcogbarcellos/pgstudio/internal/model"
)

// Target is where a tool connects. The password travels only through the
// child's environment.
type Target struct {
	Host     string
	Port     int
	User     string
	Database string
	Password string
}

// TargetFromDescriptor copies the network identity and credential of d.
func TargetFromDescriptor(d model.ConnectionDescriptor) Target {
	port := d.Port
	if port == 0 {
		port = model.DefaultPort
	}
	return Target{Host: d.Host, Port: port, User: d.User, Database: d.Database, Password: d.Password}
}

func (t Target) connArgs() []string {
	return []string{
		"-h", t.Host,
		"-p", strconv.Itoa(t.Port),
		"-U", t.User,
		"-d", t.Database,
	}
}

func (t Target) env(base []string) []string {
	env := make([]string, 0, len(base)+1)
	env = append(env, base...)
	return append(env, "PGPASSWORD="+t.Password)
}

func tableArgs(tables []string) []string {
	out := make([]string, 0, 2*len(tables))
	for _, table := range tables {
		out = append(out, "-t", table)
	}
	return out
}

// DumpArgs builds the pg_dump argument vector for a dump to outputPath.
func DumpArgs(t Target, format model.DumpFormat, schemaOnly bool, tables []string, outputPath string) []string {
	args := t.connArgs()
	args = append(args, "-F", format.Flag(), "-f", outputPath)
	if schemaOnly {
		args = append(args, "--schema-only")
	}
	return append(args, tableArgs(tables)...)
}

// RestoreArgs builds the pg_restore argument vector for an archive at path.
func RestoreArgs(t Target, clean, schemaOnly bool, path string) []string {
	args := t.connArgs()
	if clean {
		args = append(args, "--clean")
	}
	if schemaOnly {
		args = append(args, "--schema-only")
	}
	return append(args, path)
}

// PsqlArgs builds the psql argument vector for running a plain SQL file.
// ON_ERROR_STOP makes psql exit non-zero on the first failed statement
// instead of continuing and exiting 0.
func PsqlArgs(t Target, path string) []string {
	return append(t.connArgs(), "-v", "ON_ERROR_STOP=1", "-f", path)
}

// TransferDumpArgs dumps in custom format to stdout.
func TransferDumpArgs(t Target, schemaOnly bool, tables []string) []string {
	args := append(t.connArgs(), "-F", "c")
	if schemaOnly {
		args = append(args, "--schema-only")
	}
	return append(args, tableArgs(tables)...)
}

// TransferRestoreArgs restores an archive read from stdin.
func TransferRestoreArgs(t Target, clean bool) []string {
	args := t.connArgs()
	if clean {
		args = append(args, "--clean")
	}
	return args
}
