package config

import (
	"fmt"
	"strings"

	"github.com/schmitthub/ctfdocker/pkg/fixture"
)

const (
	// EnvVolumes holds extra comma-separated volume specs, each either
	// hostPath:containerPath[:mode] or a bare containerPath for an anonymous
	// volume, e.g. CTF_DOCKER_VOLUMES=out:in:z,out2:in2:z,/scratch
	EnvVolumes = "CTF_DOCKER_VOLUMES"
	// EnvEnvironment holds extra comma-separated key=value pairs,
	// e.g. CTF_DOCKER_ENV="foo=bar,env=baz"
	EnvEnvironment = "CTF_DOCKER_ENV"
)

// ParseError describes a malformed entry in an override variable.
type ParseError struct {
	Var    string // environment variable name
	Entry  string // offending comma-separated entry
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s entry %q: %s", e.Var, e.Entry, e.Reason)
}

// ParseVolumes splits a comma-separated list of volume specs. A spec is a
// bare container path or hostPath:containerPath[:mode]. Malformed entries are
// skipped and reported by the returned *ParseError (the first one found); the
// valid entries are always returned.
func ParseVolumes(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var (
		volumes  []string
		firstErr error
	)
	for _, entry := range strings.Split(raw, ",") {
		spec := strings.TrimSpace(entry)
		if reason := validateBindSpec(spec); reason != "" {
			if firstErr == nil {
				firstErr = &ParseError{Var: EnvVolumes, Entry: entry, Reason: reason}
			}
			continue
		}
		volumes = append(volumes, spec)
	}
	return volumes, firstErr
}

func validateBindSpec(spec string) string {
	if spec == "" {
		return "empty bind spec"
	}
	parts := strings.Split(spec, ":")
	if len(parts) > 3 {
		return "expected containerPath or hostPath:containerPath[:mode]"
	}
	if len(parts) > 2 {
		parts = parts[:2]
	}
	for _, p := range parts {
		if p == "" {
			return "empty path"
		}
	}
	return ""
}

// ParseEnv splits a comma-separated list of key=value pairs. The value may
// contain '='. Malformed entries are skipped and reported like ParseVolumes.
func ParseEnv(raw string) (map[string]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	env := map[string]string{}
	var firstErr error
	for _, entry := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			if firstErr == nil {
				firstErr = &ParseError{Var: EnvEnvironment, Entry: entry, Reason: "expected key=value"}
			}
			continue
		}
		env[name] = value
	}
	return env, firstErr
}

// LoadOverrides reads CTF_DOCKER_VOLUMES and CTF_DOCKER_ENV through lookup
// (os.LookupEnv in production). Parse errors are logged and whatever parsed
// is kept.
func LoadOverrides(lookup func(string) (string, bool), log fixture.Logger) fixture.Overrides {
	var o fixture.Overrides
	if raw, ok := lookup(EnvVolumes); ok {
		volumes, err := ParseVolumes(raw)
		if err != nil && log != nil {
			log.Error().Err(err).Msg("ignoring malformed volume override")
		}
		o.Volumes = volumes
	}
	if raw, ok := lookup(EnvEnvironment); ok {
		env, err := ParseEnv(raw)
		if err != nil && log != nil {
			log.Error().Err(err).Msg("ignoring malformed environment override")
		}
		o.Env = env
	}
	return o
}
