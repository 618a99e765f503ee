// Package config provides configuration management for inetd-gen
package config

import (
	"os"

	"github.com/spf13/viper"
)

// Provider defines the interface for configuration providers.
type Provider interface {
	// GetConfig returns the current application configuration.
	GetConfig() *Settings
	// SetConfig sets the application configuration.
	SetConfig(c *Settings)
	// InitConfig initializes the application configuration.
	InitConfig() *Settings
	// SetConfigFilePath sets the configuration file path.
	SetConfigFilePath(p string)
}

// defaultConfigProvider implements the Provider interface.
type defaultConfigProvider struct {
	cfg *Settings
}

// NewDefaultConfigProvider creates a new default config provider.
func NewDefaultConfigProvider() Provider {
	return &defaultConfigProvider{}
}

var defaultProvider = NewDefaultConfigProvider()

// DefaultProvider returns the process-wide configuration provider.
func DefaultProvider() Provider {
	return defaultProvider
}

// Default configuration values for the inetd-gen system. The base templates
// are the version-controlled starting files that derived entries get appended
// to; the live files are what the rest of the system reads.
const (
	DefaultServicesFile     = "/etc/services"
	DefaultInetdConfFile    = "/etc/inetd.conf"
	DefaultBaseServicesFile = "/conf/base/etc/services"
	DefaultBaseInetdFile    = "/conf/base/etc/inetd.conf"
	DefaultDBPath           = "/var/db/inetd-gen/settings.db"
	DefaultTftpdPath        = "/usr/libexec/tftpd"
	DefaultFailureMarker    = "/tmp/.inetd-gen-dbfail"
	DefaultInetdUnit        = "inetd.service"
	DefaultVerbose          = false
)

// Settings represents the configuration for the inetd-gen system. It contains
// the locations of the base templates, the live output files, the settings
// database, and the tftpd daemon binary.
type Settings struct {
	ServicesFile     string `yaml:"servicesFile"`
	InetdConfFile    string `yaml:"inetdConfFile"`
	BaseServicesFile string `yaml:"baseServicesFile"`
	BaseInetdFile    string `yaml:"baseInetdFile"`
	DBPath           string `yaml:"dbPath"`
	TftpdPath        string `yaml:"tftpdPath"`
	FailureMarker    string `yaml:"failureMarker"`
	InetdUnit        string `yaml:"inetdUnit"`
	Verbose          bool   `yaml:"verbose"`
}

// Implementation of Provider methods for defaultConfigProvider

func (p *defaultConfigProvider) SetConfig(c *Settings) {
	p.cfg = c
}

func (p *defaultConfigProvider) GetConfig() *Settings {
	return p.cfg
}

func (p *defaultConfigProvider) SetConfigFilePath(path string) {
	viper.SetConfigFile(path)
}

func (p *defaultConfigProvider) InitConfig() *Settings {
	p.cfg = initConfigInternal()
	return p.cfg
}

// For backward compatibility - pass through to default provider

// SetConfig sets the application configuration.
func SetConfig(c *Settings) {
	defaultProvider.SetConfig(c)
}

// GetConfig returns the current application configuration.
func GetConfig() *Settings {
	return defaultProvider.GetConfig()
}

// SetConfigFilePath sets the configuration file path.
func SetConfigFilePath(p string) {
	defaultProvider.SetConfigFilePath(p)
}

// InitConfig initializes the application configuration.
func InitConfig() *Settings {
	return defaultProvider.InitConfig()
}

// Internal function to initialize configuration.
func initConfigInternal() *Settings {
	cfg := &Settings{
		ServicesFile:     DefaultServicesFile,
		InetdConfFile:    DefaultInetdConfFile,
		BaseServicesFile: DefaultBaseServicesFile,
		BaseInetdFile:    DefaultBaseInetdFile,
		DBPath:           DefaultDBPath,
		TftpdPath:        DefaultTftpdPath,
		FailureMarker:    DefaultFailureMarker,
		InetdUnit:        DefaultInetdUnit,
		Verbose:          DefaultVerbose,
	}

	viper.SetDefault("servicesFile", DefaultServicesFile)
	viper.SetDefault("inetdConfFile", DefaultInetdConfFile)
	viper.SetDefault("baseServicesFile", DefaultBaseServicesFile)
	viper.SetDefault("baseInetdFile", DefaultBaseInetdFile)
	viper.SetDefault("dbPath", DefaultDBPath)
	viper.SetDefault("tftpdPath", DefaultTftpdPath)
	viper.SetDefault("failureMarker", DefaultFailureMarker)
	viper.SetDefault("inetdUnit", DefaultInetdUnit)
	viper.SetDefault("verbose", DefaultVerbose)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(os.ExpandEnv("$HOME/.config/inetd-gen"))
	viper.AddConfigPath("/etc/inetd-gen")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(err)
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		panic(err)
	}

	return cfg
}
