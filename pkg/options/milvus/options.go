// Package milvusopts provides options for the Milvus vector store.
package milvusopts

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/evorag/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains Milvus connection and HNSW index settings.
type Options struct {
	Address  string        `json:"address" mapstructure:"address"`
	Database string        `json:"database" mapstructure:"database"`
	Username string        `json:"username" mapstructure:"username"`
	Password string        `json:"-" mapstructure:"password"`
	Timeout  time.Duration `json:"timeout" mapstructure:"timeout"`

	// HNSWM is the max number of graph neighbours per node.
	HNSWM int `json:"hnsw-m" mapstructure:"hnsw-m"`
	// HNSWEfConstruction is the candidate list size while building the index.
	HNSWEfConstruction int `json:"hnsw-ef-construction" mapstructure:"hnsw-ef-construction"`
	// SearchEf is the candidate list size at query time; raised to topK when smaller.
	SearchEf int `json:"search-ef" mapstructure:"search-ef"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Address:            "localhost:19530",
		Database:           "default",
		Timeout:            30 * time.Second,
		HNSWM:              16,
		HNSWEfConstruction: 200,
		SearchEf:           64,
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "milvus."
	fs.StringVar(&o.Address, p+"address", o.Address, "Milvus server address (host:port).")
	fs.StringVar(&o.Database, p+"database", o.Database, "Milvus database name.")
	fs.StringVar(&o.Username, p+"username", o.Username, "Milvus username.")
	fs.StringVar(&o.Password, p+"password", o.Password, "Milvus password.")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "Connection timeout.")
	fs.IntVar(&o.HNSWM, p+"hnsw-m", o.HNSWM, "HNSW M used when the collection is created.")
	fs.IntVar(&o.HNSWEfConstruction, p+"hnsw-ef-construction", o.HNSWEfConstruction, "HNSW efConstruction used when the collection is created.")
	fs.IntVar(&o.SearchEf, p+"search-ef", o.SearchEf, "HNSW ef used at query time.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Address == "" {
		errs = append(errs, fmt.Errorf("milvus address is required"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("milvus timeout must be positive"))
	}
	if o.HNSWM < 2 || o.HNSWM > 2048 {
		errs = append(errs, fmt.Errorf("milvus hnsw-m must be in [2, 2048], got %d", o.HNSWM))
	}
	if o.HNSWEfConstruction <= 0 {
		errs = append(errs, fmt.Errorf("milvus hnsw-ef-construction must be positive"))
	}
	if o.SearchEf <= 0 {
		errs = append(errs, fmt.Errorf("milvus search-ef must be positive"))
	}
	return errs
}
