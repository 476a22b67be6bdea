package version

import (
	"testing"

	"github.com/spf13/cobra"

	"github.com/schmitthub/ctfdocker/internal/cmdutil"
	"github.com/schmitthub/ctfdocker/internal/iostreams/iostreamstest"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		buildDate string
		want      string
	}{
		{
			name:    "version only",
			version: "1.2.3",
			want:    "ctfdocker version 1.2.3\n",
		},
		{
			name:      "version with date",
			version:   "v1.2.3",
			buildDate: "2026-10-01",
			want:      "ctfdocker version 1.2.3 (2026-10-01)\n",
		},
		{
			name:    "dev version",
			version: "dev",
			want:    "ctfdocker version dev\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(tt.version, tt.buildDate)
			if got != tt.want {
				t.Errorf("Format(%q, %q) = %q, want %q", tt.version, tt.buildDate, got, tt.want)
			}
		})
	}
}

func TestNewCmdVersion(t *testing.T) {
	tio := iostreamstest.New()
	f := &cmdutil.Factory{IOStreams: tio.IOStreams}

	root := &cobra.Command{
		Use:         "ctfdocker",
		Annotations: map[string]string{"versionInfo": Format("2.0.0", "")},
	}
	root.AddCommand(NewCmdVersion(f))
	root.SetArgs([]string{"version"})
	root.SetOut(tio.OutBuf)
	root.SetErr(tio.ErrBuf)

	if _, err := root.ExecuteC(); err != nil {
		t.Fatalf("ExecuteC: %v", err)
	}
	if got := tio.OutBuf.String(); got != "ctfdocker version 2.0.0\n" {
		t.Errorf("output = %q", got)
	}
}
