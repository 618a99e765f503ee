// Package generator rebuilds the services and inetd configuration files from
// their base templates and the TFTP settings stored in the database.
package generator

import (
	"bufio"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ixops/inetd-gen/internal/config"
	"github.com/ixops/inetd-gen/internal/db"
	"github.com/ixops/inetd-gen/internal/log"
)

// StoreOpener opens a read connection to the settings store.
type StoreOpener func() (*sql.DB, error)

// Service regenerates the live services and inetd files. All derived state is
// local to a single Generate call; nothing is shared between invocations.
type Service struct {
	configProvider config.Provider
	logger         log.Logger
	openStore      StoreOpener
	newRepo        func(*sql.DB) db.TftpRepository
}

// NewService creates a generator service with the given config provider and
// logger, connecting to the settings store through the db package.
func NewService(configProvider config.Provider, logger log.Logger) *Service {
	return &Service{
		configProvider: configProvider,
		logger:         logger,
		openStore:      db.Connect,
		newRepo:        db.NewTftpRepository,
	}
}

// WithStoreOpener sets a custom store opener for testing.
func (s *Service) WithStoreOpener(open StoreOpener) *Service {
	s.openStore = open
	return s
}

// Generate rebuilds both output files from their base templates plus the
// entries derived from the most recent TFTP row. The two files are merged
// independently: a failure on one side leaves its live file untouched and
// does not stop the other side. The settings store being unreachable is
// fatal, leaves a failure marker behind, and touches no files.
func (s *Service) Generate() error {
	cfg := s.configProvider.GetConfig()

	store, err := s.openStore()
	if err != nil {
		s.writeFailureMarker(cfg.FailureMarker, err)
		return fmt.Errorf("opening settings store: %w", err)
	}
	defer func() { _ = store.Close() }()

	row, err := s.newRepo(store).FindLatest()
	if err != nil {
		s.writeFailureMarker(cfg.FailureMarker, err)
		return fmt.Errorf("querying tftp settings: %w", err)
	}

	s.clearFailureMarker(cfg.FailureMarker)

	var extraServices, extraInetd []string

	if row == nil {
		s.logger.Debug("No tftp settings row, service disabled")
	} else {
		if entry := NewServiceEntry(row); entry != nil {
			if defined, err := serviceNameDefined(cfg.BaseServicesFile, entry.Name); err == nil && defined {
				s.logger.Warn("Base services template already defines service name, skipping entry",
					"name", entry.Name)
			} else {
				extraServices = append(extraServices, entry.Line())
			}
		}
		extraInetd = append(extraInetd, NewInetdEntry(row, cfg.TftpdPath).Line())
	}

	var errs []error

	if err := s.writeMerged(cfg.BaseServicesFile, cfg.ServicesFile, extraServices); err != nil {
		s.logger.Error("Failed to regenerate services file", "error", err)
		errs = append(errs, fmt.Errorf("services: %w", err))
	}

	if err := s.writeMerged(cfg.BaseInetdFile, cfg.InetdConfFile, extraInetd); err != nil {
		s.logger.Error("Failed to regenerate inetd configuration", "error", err)
		errs = append(errs, fmt.Errorf("inetd.conf: %w", err))
	}

	return errors.Join(errs...)
}

// writeMerged concatenates the base template and the extra lines into a
// uniquely-named temporary file next to the destination, then renames it into
// place. The live file is replaced atomically or not at all.
func (s *Service) writeMerged(basePath, destPath string, extra []string) error {
	base, err := os.ReadFile(basePath)
	if err != nil {
		return fmt.Errorf("reading base template: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), "."+filepath.Base(destPath)+".*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(base); err != nil {
		cleanup()
		return fmt.Errorf("writing base content: %w", err)
	}

	if len(base) > 0 && base[len(base)-1] != '\n' {
		if _, err := tmp.WriteString("\n"); err != nil {
			cleanup()
			return fmt.Errorf("writing base content: %w", err)
		}
	}

	for _, line := range extra {
		if _, err := tmp.WriteString(line + "\n"); err != nil {
			cleanup()
			return fmt.Errorf("writing derived entries: %w", err)
		}
	}

	if err := tmp.Chmod(0o644); err != nil {
		cleanup()
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temporary file: %w", err)
	}

	if err := os.Rename(tmpName, destPath); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("installing %s: %w", destPath, err)
	}

	s.logger.Debug("Installed merged file", "path", destPath, "extraLines", len(extra))

	return nil
}

// serviceNameDefined reports whether the services-format file at path already
// defines the given service name.
func serviceNameDefined(path, name string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if fields := strings.Fields(line); len(fields) > 0 && fields[0] == name {
			return true, nil
		}
	}

	return false, scanner.Err()
}

// writeFailureMarker leaves a sentinel file for operator inspection. The
// marker is diagnostic only; failure to write it is logged and ignored.
func (s *Service) writeFailureMarker(path string, cause error) {
	content := fmt.Sprintf("%s settings store unavailable: %v\n", time.Now().Format(time.RFC3339), cause)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		s.logger.Warn("Failed to write failure marker", "path", path, "error", err)
	}
}

// clearFailureMarker removes the sentinel left by a previous failed run.
func (s *Service) clearFailureMarker(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("Failed to remove failure marker", "path", path, "error", err)
	}
}
