// Package evaluation provides options for the asynchronous evaluation pipeline.
package evaluation

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/evorag/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Queue backends.
const (
	BackendPool  = "pool"
	BackendRedis = "redis"
)

// Sink kinds.
const (
	SinkJSONL = "jsonl"
	SinkMongo = "mongodb"
)

// Options configures the judge task queue and the evaluation record sinks.
type Options struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	Backend      string        `json:"backend" mapstructure:"backend"`
	Workers      int           `json:"workers" mapstructure:"workers"`
	MaxRetries   int           `json:"max-retries" mapstructure:"max-retries"`
	RetryBackoff time.Duration `json:"retry-backoff" mapstructure:"retry-backoff"`
	JudgeTimeout time.Duration `json:"judge-timeout" mapstructure:"judge-timeout"`
	LogFile      string        `json:"log-file" mapstructure:"log-file"`
	Sinks        []string      `json:"sinks" mapstructure:"sinks"`
	RedisKey     string        `json:"redis-key" mapstructure:"redis-key"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Enabled:      true,
		Backend:      BackendPool,
		Workers:      4,
		MaxRetries:   2,
		RetryBackoff: 2 * time.Second,
		JudgeTimeout: 120 * time.Second,
		LogFile:      "evaluation_logs.jsonl",
		Sinks:        []string{SinkJSONL},
		RedisKey:     "evorag:tasks",
	}
}

// HasSink reports whether the named sink is configured.
func (o *Options) HasSink(name string) bool {
	return slices.Contains(o.Sinks, name)
}

// Validate checks if the options are valid.
func (o *Options) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}
	var errs []error
	if o.Backend != BackendPool && o.Backend != BackendRedis {
		errs = append(errs, fmt.Errorf("evaluation backend must be %q or %q, got %q", BackendPool, BackendRedis, o.Backend))
	}
	if o.Workers <= 0 {
		errs = append(errs, fmt.Errorf("evaluation workers must be positive"))
	}
	if o.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("evaluation max-retries cannot be negative"))
	}
	if len(o.Sinks) == 0 {
		errs = append(errs, fmt.Errorf("at least one evaluation sink is required"))
	}
	for _, s := range o.Sinks {
		if s != SinkJSONL && s != SinkMongo {
			errs = append(errs, fmt.Errorf("unknown evaluation sink %q", s))
		}
	}
	if o.HasSink(SinkJSONL) && o.LogFile == "" {
		errs = append(errs, fmt.Errorf("evaluation log-file is required for the jsonl sink"))
	}
	return errs
}

// AddFlags adds flags for evaluation options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "evaluation."
	fs.BoolVar(&o.Enabled, p+"enabled", o.Enabled, "Judge every answered query in the background.")
	fs.StringVar(&o.Backend, p+"backend", o.Backend, "Task queue backend: pool or redis.")
	fs.IntVar(&o.Workers, p+"workers", o.Workers, "Number of concurrent judge workers.")
	fs.IntVar(&o.MaxRetries, p+"max-retries", o.MaxRetries, "Retries for a failed evaluation task.")
	fs.DurationVar(&o.RetryBackoff, p+"retry-backoff", o.RetryBackoff, "Delay between task retries.")
	fs.DurationVar(&o.JudgeTimeout, p+"judge-timeout", o.JudgeTimeout, "Timeout for one judge call.")
	fs.StringVar(&o.LogFile, p+"log-file", o.LogFile, "Append-only JSONL evaluation log.")
	fs.StringSliceVar(&o.Sinks, p+"sinks", o.Sinks, "Evaluation record sinks: jsonl, mongodb.")
	fs.StringVar(&o.RedisKey, p+"redis-key", o.RedisKey, "Redis list used by the redis backend.")
}
