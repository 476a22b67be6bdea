package fixture

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/google/shlex"
	"github.com/mitchellh/mapstructure"
	"github.com/moby/moby/api/types/container"

	"github.com/schmitthub/ctfdocker/internal/docker"
)

// StartOptions are the per-call arguments to Start and StartWithCommand.
type StartOptions struct {
	// Environment is the lowest-precedence environment layer.
	Environment map[string]string
	// EnvJSON is a JSON object merged over every other environment layer.
	EnvJSON string

	Container ContainerArgs
	Host      HostArgs
}

// ContainerArgs are container-level creation arguments. Zero values leave the
// image defaults in place.
type ContainerArgs struct {
	// Command is split like a shell command line by ParseArgs.
	Command         []string `mapstructure:"command"`
	User            string   `mapstructure:"user"`
	WorkingDir      string   `mapstructure:"working_dir"`
	Hostname        string   `mapstructure:"hostname"`
	Domainname      string   `mapstructure:"domainname"`
	StopSignal      string   `mapstructure:"stop_signal"`
	Ports           []string `mapstructure:"ports"`
	Tty             bool     `mapstructure:"tty"`
	StdinOpen       bool     `mapstructure:"stdin_open"`
	NetworkDisabled bool     `mapstructure:"network_disabled"`
}

// HostArgs are host-config-level creation arguments.
type HostArgs struct {
	Privileged   bool                `mapstructure:"privileged"`
	ReadOnly     bool                `mapstructure:"read_only"`
	Init         bool                `mapstructure:"init"`
	NetworkMode  string              `mapstructure:"network_mode"`
	CapAdd       []string            `mapstructure:"cap_add"`
	CapDrop      []string            `mapstructure:"cap_drop"`
	ExtraHosts   []string            `mapstructure:"extra_hosts"`
	SecurityOpt  []string            `mapstructure:"security_opt"`
	PortBindings []string            `mapstructure:"port_bindings"`
	Memory       docker.MemBytes     `mapstructure:"mem_limit"`
	MemorySwap   docker.MemSwapBytes `mapstructure:"memswap_limit"`
	ShmSize      docker.MemBytes     `mapstructure:"shm_size"`
	NanoCPUs     docker.NanoCPUs     `mapstructure:"cpus"`
	CPUShares    int64               `mapstructure:"cpu_shares"`
	CPUQuota     int64               `mapstructure:"cpu_quota"`
	CPUPeriod    int64               `mapstructure:"cpu_period"`
	PidsLimit    int64               `mapstructure:"pids_limit"`
}

// Keys recognized by ParseArgs besides the container and host keys.
const (
	ArgEnvironment = "environment"
	ArgEnvJSON     = "env_json"
)

const argCommand = "command"

// ContainerArgKeys lists the keys ParseArgs decodes into ContainerArgs.
var ContainerArgKeys = []string{
	"command", "user", "working_dir", "hostname", "domainname",
	"stop_signal", "ports", "tty", "stdin_open", "network_disabled",
}

// HostArgKeys lists the keys ParseArgs decodes into HostArgs.
var HostArgKeys = []string{
	"privileged", "read_only", "init", "network_mode",
	"cap_add", "cap_drop", "extra_hosts", "security_opt", "port_bindings",
	"mem_limit", "memswap_limit", "shm_size", "cpus",
	"cpu_shares", "cpu_quota", "cpu_period", "pids_limit",
}

// ParseArgs builds StartOptions from untyped step arguments. Keys are matched
// against ContainerArgKeys, HostArgKeys, "environment" (comma separated
// key=value pairs) and "env_json". "command" is split with shell quoting
// rules; other list keys are comma separated. Unknown keys are an error.
func ParseArgs(args map[string]string) (StartOptions, error) {
	var opts StartOptions
	containerIn := map[string]any{}
	hostIn := map[string]any{}
	var unknown []string

	for k, v := range args {
		switch {
		case k == ArgEnvJSON:
			opts.EnvJSON = v
		case k == ArgEnvironment:
			env, err := parseEnvList(v)
			if err != nil {
				return StartOptions{}, err
			}
			opts.Environment = env
		case k == argCommand:
			cmd, err := shlex.Split(v)
			if err != nil {
				return StartOptions{}, fmt.Errorf("parsing command %q: %w", v, err)
			}
			containerIn[k] = cmd
		case slices.Contains(ContainerArgKeys, k):
			containerIn[k] = v
		case slices.Contains(HostArgKeys, k):
			hostIn[k] = v
		default:
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return StartOptions{}, fmt.Errorf("unknown start arguments: %s", strings.Join(unknown, ", "))
	}

	if err := decodeArgs(containerIn, &opts.Container); err != nil {
		return StartOptions{}, fmt.Errorf("decoding container arguments: %w", err)
	}
	if err := decodeArgs(hostIn, &opts.Host); err != nil {
		return StartOptions{}, fmt.Errorf("decoding host arguments: %w", err)
	}
	return opts, nil
}

func decodeArgs(in map[string]any, out any) error {
	if len(in) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.TextUnmarshallerHookFunc(),
		),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

func parseEnvList(s string) (map[string]string, error) {
	env := map[string]string{}
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		k, v, ok := strings.Cut(entry, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid environment entry %q: expected key=value", entry)
		}
		env[k] = v
	}
	return env, nil
}

// decodeEnvJSON decodes a JSON object of environment values. Non-string
// values keep their JSON text.
func decodeEnvJSON(s string) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("decoding env_json: %w", err)
	}
	env := make(map[string]string, len(raw))
	for k, v := range raw {
		var str string
		if err := json.Unmarshal(v, &str); err == nil {
			env[k] = str
			continue
		}
		env[k] = string(v)
	}
	return env, nil
}

// mergeEnv applies StartOptions.Environment, then environ, then EnvJSON.
func mergeEnv(opts StartOptions, environ map[string]string) (map[string]string, error) {
	env := maps.Clone(opts.Environment)
	if env == nil {
		env = map[string]string{}
	}
	maps.Copy(env, environ)
	if opts.EnvJSON != "" {
		extra, err := decodeEnvJSON(opts.EnvJSON)
		if err != nil {
			return nil, err
		}
		maps.Copy(env, extra)
	}
	return env, nil
}

func (a ContainerArgs) apply(cfg *container.Config) error {
	if len(a.Command) > 0 {
		cfg.Cmd = a.Command
	}
	cfg.User = a.User
	cfg.WorkingDir = a.WorkingDir
	cfg.Hostname = a.Hostname
	cfg.Domainname = a.Domainname
	cfg.StopSignal = a.StopSignal
	cfg.Tty = cfg.Tty || a.Tty
	cfg.OpenStdin = cfg.OpenStdin || a.StdinOpen
	cfg.NetworkDisabled = a.NetworkDisabled
	if len(a.Ports) > 0 {
		exposed, err := docker.ParseExposedPorts(a.Ports)
		if err != nil {
			return err
		}
		cfg.ExposedPorts = exposed
	}
	return nil
}

func (a HostArgs) apply(cfg *container.Config, hc *container.HostConfig) error {
	hc.Privileged = a.Privileged
	hc.ReadonlyRootfs = a.ReadOnly
	if a.Init {
		initProcess := true
		hc.Init = &initProcess
	}
	if a.NetworkMode != "" {
		hc.NetworkMode = container.NetworkMode(a.NetworkMode)
	}
	hc.CapAdd = a.CapAdd
	hc.CapDrop = a.CapDrop
	hc.ExtraHosts = a.ExtraHosts
	hc.SecurityOpt = a.SecurityOpt
	hc.ShmSize = a.ShmSize.Value()

	hc.Resources.Memory = a.Memory.Value()
	hc.Resources.MemorySwap = a.MemorySwap.Value()
	hc.Resources.NanoCPUs = a.NanoCPUs.Value()
	hc.Resources.CPUShares = a.CPUShares
	hc.Resources.CPUQuota = a.CPUQuota
	hc.Resources.CPUPeriod = a.CPUPeriod
	if a.PidsLimit != 0 {
		limit := a.PidsLimit
		hc.Resources.PidsLimit = &limit
	}

	if len(a.PortBindings) > 0 {
		exposed, bindings, err := docker.ParsePortBindings(a.PortBindings)
		if err != nil {
			return err
		}
		if cfg.ExposedPorts == nil {
			cfg.ExposedPorts = exposed
		} else {
			maps.Copy(cfg.ExposedPorts, exposed)
		}
		hc.PortBindings = bindings
	}
	return nil
}
