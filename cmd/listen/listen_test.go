package listen

import (
	"testing"

	"revmux/cmd/shared"
)

func TestGetCommand(t *testing.T) {
	t.Parallel()

	cmd := GetCommand()
	if cmd == nil {
		t.Fatal("GetCommand() returned nil")
	}
	if cmd.Name != "listen" {
		t.Errorf("command name = %q, want %q", cmd.Name, "listen")
	}

	want := []string{hostFlag, portFlag, shared.KeyFlag, shared.TransportFlag, shared.PtyFlag, shared.LogFileFlag, shared.SocksFlag, shared.VerboseFlag}
	for _, name := range want {
		found := false
		for _, f := range cmd.Flags {
			for _, n := range f.Names() {
				if n == name {
					found = true
				}
			}
		}
		if !found {
			t.Errorf("flag %q not defined", name)
		}
	}
}
