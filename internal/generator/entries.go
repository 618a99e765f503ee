package generator

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ixops/inetd-gen/internal/db"
)

// Service naming contract: the base services template permanently defines the
// standard "tftp" name on port 69. A row bound to any other port gets the
// alternate name, which must stay out of the base template; Generate checks
// this at runtime instead of trusting the template.
const (
	StandardServiceName  = "tftp"
	AlternateServiceName = "freenas-tftp"
	StandardPort         = 69
	Protocol             = "udp"
)

// umask values are stored without their leading zero.
const umaskPrefix = "0"

// ServiceEntry is one line of the service-name/port registry.
type ServiceEntry struct {
	Name     string
	Port     int
	Protocol string
}

// Line renders the registry line, e.g. "freenas-tftp	6969/udp".
func (e ServiceEntry) Line() string {
	return fmt.Sprintf("%s\t\t%d/%s", e.Name, e.Port, e.Protocol)
}

// InetdEntry is one line of the service-activation registry.
type InetdEntry struct {
	Name       string
	DaemonPath string
	Args       []string
}

// Line renders the activation line in inetd.conf format: service name,
// transport, invoking user, daemon path, then the daemon argument vector
// starting with argv[0].
func (e InetdEntry) Line() string {
	argv := append([]string{filepath.Base(e.DaemonPath)}, e.Args...)
	return fmt.Sprintf("%s\tdgram\tudp\twait\troot\t%s\t%s", e.Name, e.DaemonPath, strings.Join(argv, " "))
}

// ServiceNameFor returns the service name for a TFTP row: the standard name
// on the well-known port, the alternate name otherwise.
func ServiceNameFor(port int) string {
	if port == StandardPort {
		return StandardServiceName
	}
	return AlternateServiceName
}

// NewServiceEntry derives the extra services-registry entry for a TFTP row.
// It returns nil on the standard port: the base template already maps the
// standard name.
func NewServiceEntry(cfg *db.TftpConfig) *ServiceEntry {
	if cfg.Port == StandardPort {
		return nil
	}
	return &ServiceEntry{
		Name:     AlternateServiceName,
		Port:     cfg.Port,
		Protocol: Protocol,
	}
}

// NewInetdEntry derives the activation-registry entry for a TFTP row.
func NewInetdEntry(cfg *db.TftpConfig, tftpdPath string) InetdEntry {
	args := []string{
		"-l",
		"-s", cfg.Directory,
		"-u", cfg.Username,
		"-U", umaskPrefix + cfg.Umask,
	}

	if opts := strings.Fields(cfg.Options); len(opts) > 0 {
		args = append(args, opts...)
	}

	if cfg.Newfiles {
		args = append(args, "-w")
	}

	return InetdEntry{
		Name:       ServiceNameFor(cfg.Port),
		DaemonPath: tftpdPath,
		Args:       args,
	}
}
