package config

import (
	"errors"
	"sort"

	"github.com/manojks1999/tcp-load-balancer/pkg/domain"
)

var (
	// ErrFileAccess is returned when the config file cannot be opened or read.
	ErrFileAccess = errors.New("config file not accessible")

	// ErrConfig is returned for configs that cannot be used at all, such as
	// a file without a [mappings] section.
	ErrConfig = errors.New("invalid config")

	ErrUnknownOption = errors.New("unknown option")
)

// Section names recognized in the config file.
const (
	sectionOptions  = "options"
	sectionMappings = "mappings"
)

// MappingTable holds the mappings keyed by the listener spec exactly as
// written in the config file ("8080", "127.0.0.1:8080"), not by a
// normalized address.
type MappingTable map[string]*domain.Mapping

// Keys returns the raw listener specs in sorted order.
func (t MappingTable) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Result is a validated configuration, the output of one parse.
// It is never modified after Build returns it.
type Result struct {
	Options Options `yaml:"options"`

	// Mappings is never nil in a Result returned by Build.
	Mappings MappingTable `yaml:"mappings"`
}
