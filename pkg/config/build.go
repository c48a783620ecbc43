package config

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"

	"github.com/manojks1999/tcp-load-balancer/pkg/domain"
	"github.com/manojks1999/tcp-load-balancer/pkg/resolver"
)

// Option customizes Build and Store.
type Option func(*settings)

type settings struct {
	defaults Options
	resolver resolver.Resolver
	log      logrus.FieldLogger
}

func newSettings(opts []Option) settings {
	s := settings{
		defaults: DefaultOptions(),
		resolver: resolver.System{},
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithResolver sets how worker hostnames are resolved when
// pre_resolve_workers is on. Defaults to resolver.System.
func WithResolver(r resolver.Resolver) Option {
	return func(s *settings) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithLogger sets where warnings about skipped entries go. Defaults to the
// logrus standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *settings) {
		if log != nil {
			s.log = log
		}
	}
}

// WithPreResolve sets the pre_resolve_workers option.
func WithPreResolve(enabled bool) Option {
	return func(s *settings) {
		s.defaults.PreResolveWorkers = enabled
	}
}

// ReadSections parses INI content into raw sections. Only '=' separates
// keys from values, since listener keys contain ':'. Repeated keys are kept
// so that Build can report them. Values are taken verbatim: '#' and ';'
// only start a comment at the beginning of a line, and quotes are kept.
func ReadSections(r io.Reader) (*ini.File, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileAccess, err)
	}
	file, err := ini.LoadSources(ini.LoadOptions{
		KeyValueDelimiters:         "=",
		AllowShadows:               true,
		AllowDuplicateShadowValues: true,
		IgnoreInlineComment:        true,
		PreserveSurroundedQuote:    true,
	}, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return file, nil
}

// Build validates raw sections into a Result. It never modifies file.
//
// Malformed mappings and workers are logged and skipped. The only error is
// ErrConfig for a file without a [mappings] section.
func Build(ctx context.Context, file *ini.File, opts ...Option) (*Result, error) {
	return build(ctx, file, newSettings(opts))
}

func build(ctx context.Context, file *ini.File, s settings) (*Result, error) {
	warnUnsectioned(file, s.log)
	options := buildOptions(file, s.defaults, s.log)

	b := &mappingBuilder{
		ctx:        ctx,
		resolver:   s.resolver,
		log:        s.log,
		preResolve: options.PreResolveWorkers,
	}
	mappings, err := b.build(file)
	if err != nil {
		return nil, err
	}
	return &Result{Options: options, Mappings: mappings}, nil
}

// warnUnsectioned reports keys written before any section header. They
// belong to neither [options] nor [mappings] and are ignored.
func warnUnsectioned(file *ini.File, log logrus.FieldLogger) {
	sec, err := file.GetSection(ini.DefaultSection)
	if err != nil {
		return
	}
	for _, key := range sec.Keys() {
		log.WithField("key", key.Name()).
			Warn("ignoring key outside of [options] and [mappings] sections")
	}
}

type mappingBuilder struct {
	ctx        context.Context
	resolver   resolver.Resolver
	log        logrus.FieldLogger
	preResolve bool
}

func (b *mappingBuilder) build(file *ini.File) (MappingTable, error) {
	sec, err := file.GetSection(sectionMappings)
	if err != nil {
		return nil, fmt.Errorf("%w: missing required [%s] section", ErrConfig, sectionMappings)
	}

	table := make(MappingTable)
	for _, key := range sec.Keys() {
		spec := key.Name()
		for _, value := range keyValues(key) {
			m, ok := b.mapping(spec, value)
			if !ok {
				continue
			}
			if _, dup := table[spec]; dup {
				b.log.WithField("mapping", spec).
					Warnf("overriding existing mapping with %v", m.Workers())
			}
			table[spec] = m
		}
	}
	return table, nil
}

// keyValues returns every value given for key in file order. An empty
// value is kept so it can be reported.
func keyValues(key *ini.Key) []string {
	if values := key.ValueWithShadows(); len(values) > 0 {
		return values
	}
	return []string{key.Value()}
}

// mapping parses one "[addr:]port = workers" line.
func (b *mappingBuilder) mapping(spec, value string) (*domain.Mapping, bool) {
	log := b.log.WithField("mapping", spec)

	if strings.TrimSpace(value) == "" {
		log.Warn("skipping, no workers defined")
		return nil, false
	}

	var localAddr, localPort string
	switch parts := strings.Split(spec, ":"); len(parts) {
	case 1:
		localAddr, localPort = domain.WildcardAddr, parts[0]
	case 2:
		localAddr, localPort = parts[0], parts[1]
	default:
		log.Warnf("skipping invalid mapping %s = %s", spec, value)
		return nil, false
	}

	port, err := domain.ParsePort(localPort)
	if err != nil {
		log.WithError(err).Warn("skipping invalid mapping, cannot convert port")
		return nil, false
	}

	var workers []domain.Worker
	for _, token := range strings.Split(value, ",") {
		if w, ok := b.worker(log, strings.TrimSpace(token)); ok {
			workers = append(workers, w)
		}
	}
	if len(workers) == 0 {
		log.Warn("no usable workers left for mapping")
	}

	return domain.NewMapping(localAddr, port, workers), true
}

// worker parses one "addr:port[:weight]" token. Any problem skips the
// worker, never the whole mapping.
func (b *mappingBuilder) worker(log logrus.FieldLogger, token string) (domain.Worker, bool) {
	log = log.WithField("worker", token)

	parts := strings.Split(token, ":")
	if len(parts) < 2 || len(parts) > 3 {
		log.Warn("skipping invalid worker, expected addr:port[:weight]")
		return domain.Worker{}, false
	}

	addr := strings.TrimSpace(parts[0])
	if b.preResolve {
		resolved, err := b.resolver.Resolve(b.ctx, addr)
		if err != nil {
			log.WithError(err).Warnf("skipping worker, could not resolve %s", addr)
			return domain.Worker{}, false
		}
		addr = resolved
	}

	port, err := domain.ParsePort(parts[1])
	if err != nil {
		log.WithError(err).Warn("skipping worker, could not parse port")
		return domain.Worker{}, false
	}

	weight := 1
	if len(parts) == 3 {
		weight, err = strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil || weight < 1 {
			log.Warnf("skipping worker, weight must be an integer >= 1, got %q", parts[2])
			return domain.Worker{}, false
		}
	}

	return domain.Worker{Addr: addr, Port: port, Weight: weight}, true
}
