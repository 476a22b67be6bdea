package fixture

import (
	"reflect"
	"sort"
	"testing"

	"github.com/moby/moby/api/types/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgKeysMatchStructTags(t *testing.T) {
	tagsOf := func(v any) []string {
		var tags []string
		typ := reflect.TypeOf(v)
		for i := 0; i < typ.NumField(); i++ {
			tags = append(tags, typ.Field(i).Tag.Get("mapstructure"))
		}
		sort.Strings(tags)
		return tags
	}
	sorted := func(keys []string) []string {
		out := append([]string(nil), keys...)
		sort.Strings(out)
		return out
	}

	assert.Equal(t, tagsOf(ContainerArgs{}), sorted(ContainerArgKeys))
	assert.Equal(t, tagsOf(HostArgs{}), sorted(HostArgKeys))
}

func TestParseArgs(t *testing.T) {
	opts, err := ParseArgs(map[string]string{
		"environment":   "A=1, B=x=y",
		"env_json":      `{"C": "3"}`,
		"hostname":      "fixture",
		"tty":           "1",
		"ports":         "80,53/udp",
		"mem_limit":     "1g",
		"memswap_limit": "-1",
		"shm_size":      "64m",
		"cpus":          "1.5",
		"cpu_period":    "100000",
		"pids_limit":    "64",
		"cap_add":       "NET_ADMIN,SYS_PTRACE",
		"read_only":     "false",
		"network_mode":  "host",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"A": "1", "B": "x=y"}, opts.Environment)
	assert.Equal(t, `{"C": "3"}`, opts.EnvJSON)

	assert.Equal(t, "fixture", opts.Container.Hostname)
	assert.True(t, opts.Container.Tty)
	assert.Equal(t, []string{"80", "53/udp"}, opts.Container.Ports)

	assert.Equal(t, int64(1<<30), opts.Host.Memory.Value())
	assert.Equal(t, int64(-1), opts.Host.MemorySwap.Value())
	assert.Equal(t, int64(64<<20), opts.Host.ShmSize.Value())
	assert.Equal(t, int64(1_500_000_000), opts.Host.NanoCPUs.Value())
	assert.Equal(t, int64(100000), opts.Host.CPUPeriod)
	assert.Equal(t, int64(64), opts.Host.PidsLimit)
	assert.Equal(t, []string{"NET_ADMIN", "SYS_PTRACE"}, opts.Host.CapAdd)
	assert.False(t, opts.Host.ReadOnly)
	assert.Equal(t, "host", opts.Host.NetworkMode)
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]string
		wantErr string
	}{
		{"unknown keys sorted", map[string]string{"zeta": "1", "alpha": "2", "user": "root"}, "unknown start arguments: alpha, zeta"},
		{"bad memory", map[string]string{"mem_limit": "lots"}, "host arguments"},
		{"bad integer", map[string]string{"cpu_quota": "fast"}, "host arguments"},
		{"bad bool", map[string]string{"tty": "maybe"}, "container arguments"},
		{"bad environment", map[string]string{"environment": "NOVALUE"}, "invalid environment entry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseArgs_Command(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"single word", "nginx", []string{"nginx"}},
		{"quoted argument", `sh -c "sleep 100"`, []string{"sh", "-c", "sleep 100"}},
		{"comma is not a separator", `echo a,b`, []string{"echo", "a,b"}},
		{"single quotes", `python -c 'print("hi")'`, []string{"python", "-c", `print("hi")`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := ParseArgs(map[string]string{"command": tt.in})
			require.NoError(t, err)
			assert.Equal(t, tt.want, opts.Container.Command)

			cfg := &container.Config{}
			require.NoError(t, opts.Container.apply(cfg))
			assert.Equal(t, tt.want, []string(cfg.Cmd))
		})
	}
}

func TestParseArgs_UnterminatedCommandQuote(t *testing.T) {
	_, err := ParseArgs(map[string]string{"command": `sh -c "sleep`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing command")
}

func TestParseArgs_Empty(t *testing.T) {
	opts, err := ParseArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, StartOptions{}, opts)
}

func TestMergeEnv(t *testing.T) {
	tests := []struct {
		name    string
		opts    StartOptions
		environ map[string]string
		want    map[string]string
		wantErr bool
	}{
		{
			name: "empty",
			want: map[string]string{},
		},
		{
			name:    "instance wins over call",
			opts:    StartOptions{Environment: map[string]string{"K": "call", "CALL": "1"}},
			environ: map[string]string{"K": "instance"},
			want:    map[string]string{"K": "instance", "CALL": "1"},
		},
		{
			name:    "json wins over instance",
			opts:    StartOptions{EnvJSON: `{"K": "json", "N": 5, "B": true}`},
			environ: map[string]string{"K": "instance"},
			want:    map[string]string{"K": "json", "N": "5", "B": "true"},
		},
		{
			name:    "json array rejected",
			opts:    StartOptions{EnvJSON: `["K=V"]`},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mergeEnv(tt.opts, tt.environ)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMergeEnv_DoesNotMutateInputs(t *testing.T) {
	call := map[string]string{"K": "call"}
	environ := map[string]string{"K": "instance"}

	_, err := mergeEnv(StartOptions{Environment: call}, environ)
	require.NoError(t, err)

	assert.Equal(t, "call", call["K"])
}

func TestMountPoint(t *testing.T) {
	tests := map[string]string{
		"/host:/container":       "/container",
		"/host:/container:ro":    "/container",
		"/host:/container:ro,z":  "/container",
		"/anonymous":             "/anonymous",
		"named-volume:/var/data": "/var/data",
	}
	for spec, want := range tests {
		assert.Equal(t, want, mountPoint(spec), spec)
	}
}

func TestHostArgsApply(t *testing.T) {
	cfg := &container.Config{}
	hc := &container.HostConfig{}
	args := HostArgs{
		Init:         true,
		PidsLimit:    10,
		PortBindings: []string{"127.0.0.1:8080:80"},
	}

	require.NoError(t, args.apply(cfg, hc))

	require.NotNil(t, hc.Init)
	assert.True(t, *hc.Init)
	require.NotNil(t, hc.PidsLimit)
	assert.Equal(t, int64(10), *hc.PidsLimit)
	assert.Len(t, cfg.ExposedPorts, 1)
	assert.Len(t, hc.PortBindings, 1)
}

func TestHostArgsApply_InvalidPort(t *testing.T) {
	err := HostArgs{PortBindings: []string{"http:eighty"}}.apply(&container.Config{}, &container.HostConfig{})
	require.Error(t, err)
}

func TestContainerArgsApply_KeepsForcedTTY(t *testing.T) {
	cfg := &container.Config{Tty: true, OpenStdin: true}

	require.NoError(t, ContainerArgs{User: "app"}.apply(cfg))

	assert.True(t, cfg.Tty)
	assert.True(t, cfg.OpenStdin)
	assert.Equal(t, "app", cfg.User)
	assert.Nil(t, cfg.Cmd)
}
