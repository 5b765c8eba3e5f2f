package commands

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestValidateRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rate    string
		wantErr bool
	}{
		{rate: "5-S"},
		{rate: "100-M"},
		{rate: "1000-H"},
		{rate: "", wantErr: true},
		{rate: "fast", wantErr: true},
		{rate: "5-W", wantErr: true},
	}

	for _, tt := range tests {
		if err := validateRate(tt.rate); (err != nil) != tt.wantErr {
			t.Errorf("validateRate(%q) error = %v, wantErr %v", tt.rate, err, tt.wantErr)
		}
	}
}

func TestParseUserID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		arg     string
		want    int64
		wantErr bool
	}{
		{arg: "12", want: 12},
		{arg: "0", wantErr: true},
		{arg: "-4", wantErr: true},
		{arg: "abc", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseUserID(tt.arg)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseUserID(%q) = %d, %v", tt.arg, got, err)
		}
	}
}

func TestCommandTree(t *testing.T) {
	t.Parallel()

	tests := []struct {
		root *cobra.Command
		args []string
	}{
		{root: NewMigrateCmd(), args: []string{"up"}},
		{root: NewMigrateCmd(), args: []string{"down"}},
		{root: NewMigrateCmd(), args: []string{"version"}},
		{root: NewRatelimitCmd(), args: []string{"list"}},
		{root: NewRatelimitCmd(), args: []string{"set"}},
		{root: NewUserCmd(), args: []string{"create"}},
		{root: NewProviderCmd(), args: []string{"set", "3"}},
		{root: NewProviderCmd(), args: []string{"unset", "3"}},
	}

	for _, tt := range tests {
		cmd, _, err := tt.root.Find(tt.args)
		if err != nil || cmd == tt.root {
			t.Errorf("%s %v: subcommand not found (%v)", tt.root.Name(), tt.args, err)
		}
	}
}

func TestProviderCmd_RequiresUserID(t *testing.T) {
	t.Parallel()

	cmd := NewProviderCmd()
	cmd.SetArgs([]string{"set"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err == nil {
		t.Error("Expected error when the user id is missing")
	}
}
