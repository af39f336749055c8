package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Version(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, run([]string{"version"}, &buf))
	assert.Equal(t, "volnet "+version+"\n", buf.String())
}

func TestRun_Shape(t *testing.T) {
	var buf bytes.Buffer
	err := run([]string{"shape", "-in", "32x32x3", "-filter", "3x3", "-count", "16", "-pad", "1"}, &buf)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "output: 32x32x16\n")
	// 16 filters of 3*3*3 plus 16 biases.
	assert.Contains(t, buf.String(), "params: 448\n")
}

func TestRun_ShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad_input", []string{"shape", "-in", "3x3"}, `-in: expected 3 dimensions in "3x3"`},
		{"negative_dim", []string{"shape", "-in", "3x-1x1"}, `-in: dimension 1 of "3x-1x1" must be positive, got -1`},
		{"zero_stride", []string{"shape", "-stride", "0"}, "conv: invalid stride 0: must be positive"},
		{"zero_count", []string{"shape", "-count", "0"}, "conv: invalid filter count 0: must be positive"},
		{"filter_too_large", []string{"shape", "-in", "4x4x1"}, "conv: invalid input width 4: padded width 4 is smaller than filter width 5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.EqualError(t, run(tt.args, &buf), tt.want)
		})
	}
}

func TestRun_Demo(t *testing.T) {
	for _, args := range [][]string{{"demo"}, {"demo", "-parallel"}} {
		var buf bytes.Buffer
		require.NoError(t, run(args, &buf))

		out := buf.String()
		assert.Contains(t, out, "input Volume(5x5x1) -> output Volume(3x3x1)")
		assert.Contains(t, out, "output:\n     9    9    9\n")
		assert.Contains(t, out, "filter gradient:\n     9    9    9\n")
		assert.Contains(t, out, "input gradient:\n     1    2    3    2    1\n")
		assert.Contains(t, out, "bias gradient: 9\n")
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	var buf bytes.Buffer
	assert.EqualError(t, run([]string{"train"}, &buf), `unknown command "train"`)
	assert.Contains(t, buf.String(), "Commands:")
}
