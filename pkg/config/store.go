package config

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

// Store loads the load balancer config from a file and keeps the last
// successfully parsed Result.
//
// Parse may be called again to reload; each call rebuilds options and
// mappings from scratch, nothing is merged with the previous parse.
type Store struct {
	path     string
	settings settings
	result   *Result
}

func NewStore(path string, opts ...Option) *Store {
	s := newSettings(opts)
	return &Store{
		path:     path,
		settings: s,
		result:   &Result{Options: s.defaults, Mappings: MappingTable{}},
	}
}

func (s *Store) Path() string {
	return s.path
}

// Parse reads and validates the config file. It fails with ErrFileAccess
// when the file cannot be read and with ErrConfig when it has no [mappings]
// section. On failure the previously parsed Result is kept.
func (s *Store) Parse(ctx context.Context) error {
	file, err := s.readFile()
	if err != nil {
		return err
	}
	res, err := build(ctx, file, s.settings)
	if err != nil {
		return err
	}
	s.result = res
	return nil
}

// readFile loads the raw sections, the file is closed before returning.
func (s *Store) readFile() (*ini.File, error) {
	f, err := os.Open(s.path)
	if err != nil {
		s.settings.log.WithFields(logrus.Fields{"path": s.path}).
			WithError(err).Error("could not open config file")
		return nil, fmt.Errorf("%w: %w", ErrFileAccess, err)
	}
	defer f.Close()
	return ReadSections(f)
}

// Result returns the last parsed configuration.
func (s *Store) Result() *Result {
	return s.result
}

func (s *Store) Options() map[string]any {
	return s.result.Options.Map()
}

// OptionValue returns a single option. Unrecognized names fail with
// ErrUnknownOption.
func (s *Store) OptionValue(name string) (any, error) {
	return s.result.Options.Value(name)
}

func (s *Store) Mappings() MappingTable {
	return s.result.Mappings
}
