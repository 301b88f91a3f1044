// Package registry provides options for the ingested document registry.
package registry

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/evorag/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Options configures the gorm-backed document registry.
type Options struct {
	Driver          string        `json:"driver" mapstructure:"driver"`
	DSN             string        `json:"-" mapstructure:"dsn"`
	MaxOpenConns    int           `json:"max-open-conns" mapstructure:"max-open-conns"`
	MaxIdleConns    int           `json:"max-idle-conns" mapstructure:"max-idle-conns"`
	ConnMaxLifetime time.Duration `json:"conn-max-lifetime" mapstructure:"conn-max-lifetime"`
	AutoMigrate     bool          `json:"auto-migrate" mapstructure:"auto-migrate"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Driver:          DriverSQLite,
		DSN:             "evorag.db",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		AutoMigrate:     true,
	}
}

// Validate checks if the options are valid.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	var errs []error
	switch o.Driver {
	case DriverSQLite, DriverMySQL, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unsupported registry driver %q", o.Driver))
	}
	if o.DSN == "" {
		errs = append(errs, fmt.Errorf("registry dsn is required"))
	}
	return errs
}

// AddFlags adds flags for registry options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "registry."
	fs.StringVar(&o.Driver, p+"driver", o.Driver, "Registry database driver: sqlite, mysql or postgres.")
	fs.StringVar(&o.DSN, p+"dsn", o.DSN, "Registry database DSN.")
	fs.IntVar(&o.MaxOpenConns, p+"max-open-conns", o.MaxOpenConns, "Maximum open connections.")
	fs.IntVar(&o.MaxIdleConns, p+"max-idle-conns", o.MaxIdleConns, "Maximum idle connections.")
	fs.DurationVar(&o.ConnMaxLifetime, p+"conn-max-lifetime", o.ConnMaxLifetime, "Maximum connection lifetime.")
	fs.BoolVar(&o.AutoMigrate, p+"auto-migrate", o.AutoMigrate, "Create or migrate the registry table on startup.")
}
