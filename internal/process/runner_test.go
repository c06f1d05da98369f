package process

import (
	"bytes"
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"single", "terminus", []string{"terminus"}},
		{"with args", "lando terminus --yes", []string{"lando", "terminus", "--yes"}},
		{"quoted", `"/opt/my tools/terminus" -v`, []string{"/opt/my tools/terminus", "-v"}},
		{"single quoted", `docker run 'pantheon/terminus:latest'`, []string{"docker", "run", "pantheon/terminus:latest"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommand_Invalid(t *testing.T) {
	_, err := ParseCommand("   ")
	assert.Error(t, err)

	_, err = ParseCommand(`"unterminated`)
	assert.Error(t, err)
}

func TestPassthrough_Run(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not installed")
	}

	var out bytes.Buffer
	r := &Passthrough{Dir: t.TempDir(), Stdout: &out, Stderr: &out, Env: map[string]string{"SITEKIT_TEST": "ok"}}

	require.NoError(t, r.Run(context.Background(), []string{"sh", "-c", "echo $SITEKIT_TEST"}))
	assert.Equal(t, "ok\n", out.String())

	err := r.Run(context.Background(), []string{"sh", "-c", "exit 3"})
	assert.Error(t, err)

	assert.Error(t, r.Run(context.Background(), nil))
}
