// Package mongodb provides MongoDB options for the evaluation record sink.
package mongodb

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/evorag/pkg/options"
	"github.com/kart-io/evorag/pkg/utils/json"
)

var _ options.IOptions = (*Options)(nil)

const redactedPassword = "[REDACTED]"

// Options defines configuration options for MongoDB.
type Options struct {
	URI        string `json:"uri" mapstructure:"uri"`
	Host       string `json:"host" mapstructure:"host"`
	Port       int    `json:"port" mapstructure:"port"`
	Username   string `json:"username" mapstructure:"username"`
	Password   string `json:"-" mapstructure:"password"`
	Database   string `json:"database" mapstructure:"database"`
	Collection string `json:"collection" mapstructure:"collection"`
	AuthSource string `json:"auth-source" mapstructure:"auth-source"`

	MaxPoolSize            uint64        `json:"max-pool-size" mapstructure:"max-pool-size"`
	ConnectTimeout         time.Duration `json:"connect-timeout" mapstructure:"connect-timeout"`
	ServerSelectionTimeout time.Duration `json:"server-selection-timeout" mapstructure:"server-selection-timeout"`
}

// MarshalJSON implements json.Marshaler with password redaction.
func (o *Options) MarshalJSON() ([]byte, error) {
	type plain Options
	view := struct {
		plain
		Password string `json:"password"`
	}{plain: plain(*o)}
	if o.Password != "" {
		view.Password = redactedPassword
	}
	return json.Marshal(view)
}

// String returns a string representation with password redacted.
func (o *Options) String() string {
	password := redactedPassword
	if o.Password == "" {
		password = ""
	}
	return fmt.Sprintf("MongoDB{host=%s, port=%d, user=%s, password=%s, database=%s}",
		o.Host, o.Port, o.Username, password, o.Database)
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Host:                   "127.0.0.1",
		Port:                   27017,
		Database:               "evorag",
		Collection:             "evaluations",
		AuthSource:             "admin",
		MaxPoolSize:            20,
		ConnectTimeout:         10 * time.Second,
		ServerSelectionTimeout: 10 * time.Second,
	}
}

// Complete reads the password from MONGODB_PASSWORD when it is not configured.
func (o *Options) Complete() error {
	if o.Password == "" {
		o.Password = os.Getenv("MONGODB_PASSWORD")
	}
	return nil
}

// Validate checks if the options are valid.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	var errs []error
	if o.URI == "" && o.Host == "" {
		errs = append(errs, fmt.Errorf("mongodb uri or host is required"))
	}
	if o.Database == "" {
		errs = append(errs, fmt.Errorf("mongodb database is required"))
	}
	if o.Collection == "" {
		errs = append(errs, fmt.Errorf("mongodb collection is required"))
	}
	return errs
}

// BuildURI returns URI if set, otherwise assembles one from host and credentials.
func (o *Options) BuildURI() string {
	if o.URI != "" {
		return o.URI
	}
	u := url.URL{
		Scheme: "mongodb",
		Host:   fmt.Sprintf("%s:%d", o.Host, o.Port),
		Path:   "/",
	}
	if o.Username != "" {
		u.User = url.UserPassword(o.Username, o.Password)
		u.RawQuery = url.Values{"authSource": []string{o.AuthSource}}.Encode()
	}
	return u.String()
}

// AddFlags adds flags for MongoDB options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "mongodb."
	fs.StringVar(&o.URI, p+"uri", o.URI, "MongoDB connection URI. Overrides host and port.")
	fs.StringVar(&o.Host, p+"host", o.Host, "MongoDB host.")
	fs.IntVar(&o.Port, p+"port", o.Port, "MongoDB port.")
	fs.StringVar(&o.Username, p+"username", o.Username, "MongoDB username.")
	fs.StringVar(&o.Password, p+"password", o.Password, "MongoDB password (prefer the MONGODB_PASSWORD env var).")
	fs.StringVar(&o.Database, p+"database", o.Database, "MongoDB database.")
	fs.StringVar(&o.Collection, p+"collection", o.Collection, "Collection receiving evaluation records.")
	fs.StringVar(&o.AuthSource, p+"auth-source", o.AuthSource, "MongoDB auth source.")
	fs.Uint64Var(&o.MaxPoolSize, p+"max-pool-size", o.MaxPoolSize, "MongoDB max pool size.")
	fs.DurationVar(&o.ConnectTimeout, p+"connect-timeout", o.ConnectTimeout, "MongoDB connect timeout.")
	fs.DurationVar(&o.ServerSelectionTimeout, p+"server-selection-timeout", o.ServerSelectionTimeout, "MongoDB server selection timeout.")
}
