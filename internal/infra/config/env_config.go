package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v11"
)

var (
	// ErrInvalidConfig is returned when the provided config is not a pointer to a struct
	// that embeds EnvConfig.
	ErrInvalidConfig = errors.New("config must be a pointer to a struct embedding EnvConfig")

	// ErrVarNotSet is returned when a required environment variable is not set and has no default.
	ErrVarNotSet = errors.New("env var not set")
)

// EnvConfig is a base type that must be embedded in configuration structs
// to enable environment variable parsing.
type EnvConfig struct {
	namespace string
}

// Namespace returns the prefix the configuration was parsed with.
func (c EnvConfig) Namespace() string {
	return c.namespace
}

//nolint:varnamelen
func getEnvConfig(cfg any) (*EnvConfig, error) {
	v := reflect.ValueOf(cfg)

	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, ErrInvalidConfig
	}

	v = v.Elem()
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		//nolint:exhaustruct,forcetypeassert
		if field.Anonymous && field.Type == reflect.TypeOf(EnvConfig{}) {
			if ev := v.Field(i); ev.CanAddr() {
				return ev.Addr().Interface().(*EnvConfig), nil
			}
		}
	}

	return nil, ErrInvalidConfig
}

// Parse loads configuration values from environment variables into the provided struct.
// The struct must embed EnvConfig and use `env`/`envDefault` tags; nested structs are
// prefixed with their `envPrefix` tag.
//
// The namespace is split on underscores and every leading part is tried as a prefix,
// with longer prefixes taking precedence: for namespace "APP_SVC" the variable
// APP_SVC_X wins over APP_X. An empty namespace reads unprefixed variables.
// Fields without a default fail with ErrVarNotSet when no variable is found.
func Parse(ctx context.Context, cfg any, namespace string) error {
	envConfig, err := getEnvConfig(cfg)
	if err != nil {
		return fmt.Errorf("get env config: %w", err)
	}

	envConfig.namespace = namespace

	//nolint:exhaustruct
	opts := env.Options{
		Environment:     namespacedEnvironment(namespace, os.Environ()),
		RequiredIfNoDef: true,
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		var aggErr env.AggregateError
		if errors.As(err, &aggErr) {
			for _, e := range aggErr.Errors {
				var notSet env.VarIsNotSetError
				if errors.As(e, &notSet) {
					return fmt.Errorf("%w: %s", ErrVarNotSet, notSet.Key)
				}
			}
		}

		return fmt.Errorf("parse env: %w", err)
	}

	return nil
}

func namespacedEnvironment(namespace string, environ []string) map[string]string {
	raw := make(map[string]string, len(environ))

	for _, kv := range environ {
		if key, value, ok := strings.Cut(kv, "="); ok {
			raw[key] = value
		}
	}

	if namespace == "" {
		return raw
	}

	resolved := make(map[string]string)
	nsParts := strings.Split(namespace, "_")

	// least specific first, so more specific prefixes overwrite
	for i := 1; i <= len(nsParts); i++ {
		prefix := strings.Join(nsParts[:i], "_") + "_"

		for key, value := range raw {
			if name, ok := strings.CutPrefix(key, prefix); ok && name != "" {
				resolved[name] = value
			}
		}
	}

	return resolved
}
