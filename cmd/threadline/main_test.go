package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandb/threadline/internal/observabilitytest"
)

func TestParsePIDs(t *testing.T) {
	pids, err := parsePIDs(" 12, 7,,40 ")
	require.NoError(t, err)
	assert.Equal(t, []int32{12, 7, 40}, pids)

	_, err = parsePIDs("")
	assert.ErrorContains(t, err, "-pids")

	_, err = parsePIDs("12,abc")
	assert.ErrorContains(t, err, `"abc"`)
}

func TestNewSource(t *testing.T) {
	logger := observabilitytest.NewTestLogger(t)

	src, err := newSource(context.Background(), options{source: "demo"}, logger)
	require.NoError(t, err)
	assert.NotEmpty(t, src.Rows())

	_, err = newSource(context.Background(), options{source: "file"}, logger)
	assert.ErrorContains(t, err, "-file")

	_, err = newSource(context.Background(), options{source: "nope"}, logger)
	assert.ErrorContains(t, err, `unknown source "nope"`)
}
