package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  CommandType
		args  []string
	}{
		{"feed with slash", "/feed 65f0 8 1.5", CommandFeed, []string{"65f0", "8", "1.5"}},
		{"upper case head", "FEED 65f0 8 1.5 grower", CommandFeed, []string{"65f0", "8", "1.5", "grower"}},
		{"totals", "/totals 65f0", CommandTotals, []string{"65f0"}},
		{"help", "help", CommandHelp, nil},
		{"empty", "   ", CommandUnknown, nil},
		{"unknown", "/eggs 120", CommandUnknown, []string{"120"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := ParseCommand(tt.input)
			assert.Equal(t, tt.want, cmd.Type)
			assert.Equal(t, tt.args, cmd.Args)
		})
	}
}
