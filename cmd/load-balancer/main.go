package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/manojks1999/tcp-load-balancer/pkg/config"
	"github.com/manojks1999/tcp-load-balancer/pkg/resolver"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

var (
	configFile = flag.String("config-path", "", "The config file to supply to load-balancer")
	nameserver = flag.String("nameserver", "", "Resolve workers through this DNS server (host:port) instead of the system resolver")
	preResolve = flag.Bool("pre-resolve", true, "Resolve worker hostnames while loading the config")
	logLevel   = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
)

// newResolver picks the worker resolver from the flags.
func newResolver(nameserver string) resolver.Resolver {
	if nameserver == "" {
		return resolver.System{}
	}
	return resolver.DNS{Server: nameserver}
}

// printConfig writes the validated topology as YAML.
func printConfig(w io.Writer, res *config.Result) error {
	out, err := yaml.Marshal(res)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func main() {
	flag.Parse()

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	log.SetLevel(level)

	if *configFile == "" {
		log.Fatal("missing -config-path")
	}

	store := config.NewStore(*configFile,
		config.WithResolver(newResolver(*nameserver)),
		config.WithPreResolve(*preResolve),
	)
	if err := store.Parse(context.Background()); err != nil {
		log.Fatal(err)
	}

	res := store.Result()
	for _, key := range res.Mappings.Keys() {
		log.Infof("Loaded mapping '%s': %s", key, res.Mappings[key])
	}

	if err := printConfig(os.Stdout, res); err != nil {
		log.Fatal(fmt.Errorf("print config: %w", err))
	}
}
