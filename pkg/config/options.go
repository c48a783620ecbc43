package config

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

// DefaultBufferSize is the read buffer size, in bytes, used when the config
// does not set a valid one.
const DefaultBufferSize = 4096

// Option names, as used in the [options] section and by Options.Value.
const (
	OptionPreResolveWorkers = "pre_resolve_workers"
	OptionBufferSize        = "buffer_size"
	OptionAlgorithm         = "algorithm"
)

// Algorithm names the strategy the dispatch engine uses to pick a worker.
type Algorithm string

const (
	AlgorithmRandom             Algorithm = "random"
	AlgorithmRoundRobin         Algorithm = "round_robin"
	AlgorithmWeightedRoundRobin Algorithm = "weighted_round_robin"
)

var algorithms = []Algorithm{AlgorithmRandom, AlgorithmRoundRobin, AlgorithmWeightedRoundRobin}

func (a Algorithm) Valid() bool {
	for _, known := range algorithms {
		if a == known {
			return true
		}
	}
	return false
}

// Options is the validated global option set. Every field always holds a
// usable value.
type Options struct {
	// PreResolveWorkers turns worker hostnames into addresses while parsing.
	// It is set by the program, the config file cannot change it.
	PreResolveWorkers bool      `yaml:"pre_resolve_workers"`
	BufferSize        int       `yaml:"buffer_size"`
	Algorithm         Algorithm `yaml:"algorithm"`
}

func DefaultOptions() Options {
	return Options{
		PreResolveWorkers: true,
		BufferSize:        DefaultBufferSize,
		Algorithm:         AlgorithmRandom,
	}
}

// Value looks an option up by its config name.
func (o Options) Value(name string) (any, error) {
	switch name {
	case OptionPreResolveWorkers:
		return o.PreResolveWorkers, nil
	case OptionBufferSize:
		return o.BufferSize, nil
	case OptionAlgorithm:
		return o.Algorithm, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownOption, name)
}

// Map returns the options keyed by config name.
func (o Options) Map() map[string]any {
	return map[string]any{
		OptionPreResolveWorkers: o.PreResolveWorkers,
		OptionBufferSize:        o.BufferSize,
		OptionAlgorithm:         o.Algorithm,
	}
}

// buildOptions applies the [options] section on top of opts.
//
// An invalid or missing buffer_size keeps the current value and warns. An invalid
// algorithm warns and falls back to random, a missing one falls back to
// random silently.
func buildOptions(file *ini.File, opts Options, log logrus.FieldLogger) Options {
	sec, err := file.GetSection(sectionOptions)
	if err != nil {
		return opts
	}

	if raw, ok := lookup(sec, OptionBufferSize); ok {
		if size, ok := parseBufferSize(raw); ok {
			opts.BufferSize = size
		} else {
			log.WithField("option", OptionBufferSize).
				Warnf("buffer_size must be an integer > 0 (bytes), got %q; retaining %d", raw, opts.BufferSize)
		}
	} else {
		log.WithField("option", OptionBufferSize).
			Warnf("buffer_size not set in [%s]; retaining %d", sectionOptions, opts.BufferSize)
	}

	raw, ok := lookup(sec, OptionAlgorithm)
	switch {
	case !ok:
		opts.Algorithm = AlgorithmRandom
	case Algorithm(raw).Valid():
		opts.Algorithm = Algorithm(raw)
	default:
		log.WithField("option", OptionAlgorithm).
			Warnf("unknown algorithm %q, defaulting to %q", raw, AlgorithmRandom)
		opts.Algorithm = AlgorithmRandom
	}

	return opts
}

// lookup returns the last value given for name in sec.
func lookup(sec *ini.Section, name string) (string, bool) {
	if !sec.HasKey(name) {
		return "", false
	}
	values := keyValues(sec.Key(name))
	return values[len(values)-1], true
}

// parseBufferSize accepts only plain decimal digits with a value above zero.
func parseBufferSize(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	size, err := strconv.Atoi(raw)
	if err != nil || size <= 0 {
		return 0, false
	}
	return size, true
}
