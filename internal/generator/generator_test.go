package generator

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ixops/inetd-gen/internal/config"
	"github.com/ixops/inetd-gen/internal/db"
	"github.com/ixops/inetd-gen/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseServices = `# Network services, Internet style
ftp		21/tcp
ssh		22/tcp
tftp		69/udp
`

const baseInetd = `# Internet server configuration database
ftp	stream	tcp	nowait	root	/usr/libexec/ftpd	ftpd -l
`

// testSettings builds a Settings pointing everything at a fresh temp
// directory, with both base templates in place.
func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Settings{
		ServicesFile:     filepath.Join(dir, "services"),
		InetdConfFile:    filepath.Join(dir, "inetd.conf"),
		BaseServicesFile: filepath.Join(dir, "base.services"),
		BaseInetdFile:    filepath.Join(dir, "base.inetd.conf"),
		TftpdPath:        "/usr/libexec/tftpd",
		FailureMarker:    filepath.Join(dir, ".dbfail"),
	}

	require.NoError(t, os.WriteFile(cfg.BaseServicesFile, []byte(baseServices), 0o644))
	require.NoError(t, os.WriteFile(cfg.BaseInetdFile, []byte(baseInetd), 0o644))

	return cfg
}

// openerForRow returns a StoreOpener producing a fresh mocked store on every
// call, answering the latest-row query with the given row (or no rows when
// row is nil).
func openerForRow(t *testing.T, row *db.TftpConfig) StoreOpener {
	t.Helper()
	return func() (*sql.DB, error) {
		mockDB, mock, err := sqlmock.New()
		require.NoError(t, err)

		rows := sqlmock.NewRows([]string{"id", "directory", "newfiles", "port", "username", "umask", "options"})
		if row != nil {
			rows.AddRow(row.ID, row.Directory, row.Newfiles, row.Port, row.Username, row.Umask, row.Options)
		}
		mock.ExpectQuery("SELECT id, directory, newfiles, port, username, umask, options FROM services_tftp").
			WillReturnRows(rows)
		mock.ExpectClose()

		return mockDB, nil
	}
}

func newTestService(cfg *config.Settings, open StoreOpener) *Service {
	svc := NewService(&config.MockProvider{Config: cfg}, log.Nop())
	return svc.WithStoreOpener(open)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestGenerateDisabled(t *testing.T) {
	cfg := testSettings(t)
	svc := newTestService(cfg, openerForRow(t, nil))

	require.NoError(t, svc.Generate())

	assert.Equal(t, baseServices, readFile(t, cfg.ServicesFile))
	assert.Equal(t, baseInetd, readFile(t, cfg.InetdConfFile))
}

func TestGenerateStandardPort(t *testing.T) {
	cfg := testSettings(t)
	row := &db.TftpConfig{
		ID: 1, Directory: "/tftproot", Port: 69, Username: "nobody", Umask: "22",
	}
	svc := newTestService(cfg, openerForRow(t, row))

	require.NoError(t, svc.Generate())

	// Standard port adds no services entry; the base template already maps it.
	assert.Equal(t, baseServices, readFile(t, cfg.ServicesFile))

	inetd := readFile(t, cfg.InetdConfFile)
	assert.True(t, strings.HasPrefix(inetd, baseInetd))

	added := strings.TrimPrefix(inetd, baseInetd)
	assert.Equal(t, []string{
		"tftp", "dgram", "udp", "wait", "root",
		"/usr/libexec/tftpd", "tftpd", "-l", "-s", "/tftproot", "-u", "nobody", "-U", "022",
	}, strings.Fields(added))
}

func TestGenerateNonStandardPort(t *testing.T) {
	cfg := testSettings(t)
	row := &db.TftpConfig{
		ID: 1, Directory: "/data", Newfiles: false, Port: 6969, Username: "nobody", Umask: "22",
	}
	svc := newTestService(cfg, openerForRow(t, row))

	require.NoError(t, svc.Generate())

	services := readFile(t, cfg.ServicesFile)
	assert.True(t, strings.HasPrefix(services, baseServices))
	assert.Equal(t, []string{"freenas-tftp", "6969/udp"},
		strings.Fields(strings.TrimPrefix(services, baseServices)))

	added := strings.TrimPrefix(readFile(t, cfg.InetdConfFile), baseInetd)
	fields := strings.Fields(added)
	assert.Equal(t, []string{
		"freenas-tftp", "dgram", "udp", "wait", "root",
		"/usr/libexec/tftpd", "tftpd", "-l", "-s", "/data", "-u", "nobody", "-U", "022",
	}, fields)
	assert.NotContains(t, fields, "-w")
}

func TestGenerateWriteEnabled(t *testing.T) {
	cfg := testSettings(t)
	row := &db.TftpConfig{
		ID: 1, Directory: "/data", Newfiles: true, Port: 6969, Username: "nobody", Umask: "22",
	}
	svc := newTestService(cfg, openerForRow(t, row))

	require.NoError(t, svc.Generate())

	fields := strings.Fields(strings.TrimPrefix(readFile(t, cfg.InetdConfFile), baseInetd))
	require.NotEmpty(t, fields)
	assert.Equal(t, "-w", fields[len(fields)-1])
}

func TestGenerateIdempotent(t *testing.T) {
	cfg := testSettings(t)
	row := &db.TftpConfig{
		ID: 1, Directory: "/data", Newfiles: true, Port: 6969, Username: "ftp", Umask: "77", Options: "-c",
	}
	svc := newTestService(cfg, openerForRow(t, row))

	require.NoError(t, svc.Generate())
	firstServices := readFile(t, cfg.ServicesFile)
	firstInetd := readFile(t, cfg.InetdConfFile)

	require.NoError(t, svc.Generate())
	assert.Equal(t, firstServices, readFile(t, cfg.ServicesFile))
	assert.Equal(t, firstInetd, readFile(t, cfg.InetdConfFile))
}

func TestGeneratePartialFailureIsolation(t *testing.T) {
	cfg := testSettings(t)
	row := &db.TftpConfig{
		ID: 1, Directory: "/data", Port: 6969, Username: "nobody", Umask: "22",
	}

	// The inetd side must not regenerate when its base template is missing,
	// and must not disturb the existing live file.
	require.NoError(t, os.Remove(cfg.BaseInetdFile))
	require.NoError(t, os.WriteFile(cfg.InetdConfFile, []byte("previous contents\n"), 0o644))

	svc := newTestService(cfg, openerForRow(t, row))
	err := svc.Generate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inetd.conf")

	assert.True(t, strings.HasPrefix(readFile(t, cfg.ServicesFile), baseServices))
	assert.Equal(t, "previous contents\n", readFile(t, cfg.InetdConfFile))
}

func TestGenerateStoreFailure(t *testing.T) {
	cfg := testSettings(t)

	failing := func() (*sql.DB, error) {
		return nil, errors.New("unable to open database file")
	}
	svc := newTestService(cfg, failing)

	err := svc.Generate()
	require.Error(t, err)

	// No output files are installed, only the failure marker.
	_, statErr := os.Stat(cfg.ServicesFile)
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(cfg.InetdConfFile)
	assert.True(t, os.IsNotExist(statErr))

	marker := readFile(t, cfg.FailureMarker)
	assert.Contains(t, marker, "unable to open database file")
}

func TestGenerateClearsFailureMarker(t *testing.T) {
	cfg := testSettings(t)
	require.NoError(t, os.WriteFile(cfg.FailureMarker, []byte("stale\n"), 0o644))

	svc := newTestService(cfg, openerForRow(t, nil))
	require.NoError(t, svc.Generate())

	_, err := os.Stat(cfg.FailureMarker)
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateAlternateNameCollision(t *testing.T) {
	cfg := testSettings(t)

	// A base template that already claims the alternate name must win; the
	// generator suppresses its own entry instead of duplicating the name.
	collided := baseServices + "freenas-tftp\t\t8080/udp\n"
	require.NoError(t, os.WriteFile(cfg.BaseServicesFile, []byte(collided), 0o644))

	row := &db.TftpConfig{
		ID: 1, Directory: "/data", Port: 6969, Username: "nobody", Umask: "22",
	}
	svc := newTestService(cfg, openerForRow(t, row))

	require.NoError(t, svc.Generate())

	assert.Equal(t, collided, readFile(t, cfg.ServicesFile))

	// The activation entry is still emitted under the alternate name.
	added := strings.TrimPrefix(readFile(t, cfg.InetdConfFile), baseInetd)
	assert.Equal(t, "freenas-tftp", strings.Fields(added)[0])
}

func TestGenerateOutputPermissions(t *testing.T) {
	cfg := testSettings(t)
	svc := newTestService(cfg, openerForRow(t, nil))

	require.NoError(t, svc.Generate())

	for _, path := range []string{cfg.ServicesFile, cfg.InetdConfFile} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
	}
}

func TestGenerateBaseWithoutTrailingNewline(t *testing.T) {
	cfg := testSettings(t)
	require.NoError(t, os.WriteFile(cfg.BaseServicesFile, []byte("tftp\t\t69/udp"), 0o644))

	row := &db.TftpConfig{
		ID: 1, Directory: "/data", Port: 6969, Username: "nobody", Umask: "22",
	}
	svc := newTestService(cfg, openerForRow(t, row))

	require.NoError(t, svc.Generate())

	lines := strings.Split(strings.TrimSuffix(readFile(t, cfg.ServicesFile), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"freenas-tftp", "6969/udp"}, strings.Fields(lines[1]))
}
