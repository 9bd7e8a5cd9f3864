package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("FACTURE_TEST_DIR", "/var/data")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "absolute untouched", in: "/tmp/archive.db", want: "/tmp/archive.db"},
		{name: "tilde prefix", in: "~/facture.db", want: filepath.Join(home, "facture.db")},
		{name: "bare tilde", in: "~", want: home},
		{name: "env var", in: "$FACTURE_TEST_DIR/facture.db", want: "/var/data/facture.db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}
