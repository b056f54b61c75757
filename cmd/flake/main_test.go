package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/flake/idgen"
	"github.com/ceyewan/flake/xerrors"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

func TestGenerate(t *testing.T) {
	out, err := execute(t, "generate", "-n", "5", "--node", "17", "--format", "base58")
	require.NoError(t, err)

	got := lines(out)
	require.Len(t, got, 5)
	seen := make(map[idgen.ID]struct{})
	for _, s := range got {
		id, err := idgen.ParseID(s, idgen.FormatBase58)
		require.NoError(t, err)
		_, node, _ := idgen.Decompose(id)
		assert.Equal(t, int64(17), node)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 5)
}

func TestGenerateInvalidArgs(t *testing.T) {
	_, err := execute(t, "generate", "--node", "1024")
	assert.ErrorIs(t, err, idgen.ErrNodeIDTooLarge)

	_, err = execute(t, "generate", "-n", "0")
	assert.Error(t, err)

	_, err = execute(t, "generate", "--epoch", "2999-01-01T00:00:00Z")
	assert.ErrorIs(t, err, idgen.ErrEpochInTheFuture)

	_, err = execute(t, "generate", "--format", "hex")
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	id, err := idgen.Pack(1000, 5, 9)
	require.NoError(t, err)

	out, err := execute(t, "decode", id.String(), "--epoch", "2024-01-01T00:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, "time:      2024-01-01T00:00:01Z")
	assert.Contains(t, out, "elapsed:   1000ms")
	assert.Contains(t, out, "node:      5")
	assert.Contains(t, out, "sequence:  9")

	out, err = execute(t, "decode", id.Base36(), "--format", "base36")
	require.NoError(t, err)
	assert.Contains(t, out, "node:      5")

	_, err = execute(t, "decode")
	assert.Error(t, err)

	_, err = execute(t, "decode", "zzz")
	assert.Error(t, err)
}

func TestGenerateThenDecode(t *testing.T) {
	out, err := execute(t, "generate", "--node", "300")
	require.NoError(t, err)

	out, err = execute(t, "decode", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Contains(t, out, "node:      300")
	assert.Contains(t, out, "sequence:  0")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flake.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: error
  format: json
  output: stderr
idgen:
  node_id: 42
  epoch: "2021-01-01T00:00:00Z"
`), 0o644))

	out, err := execute(t, "--config", path, "generate")
	require.NoError(t, err)
	id, err := idgen.ParseID(strings.TrimSpace(out), idgen.FormatInt)
	require.NoError(t, err)
	_, node, _ := idgen.Decompose(id)
	assert.Equal(t, int64(42), node)

	// decode 默认使用配置中的纪元
	out, err = execute(t, "--config", path, "decode", id.String())
	require.NoError(t, err)
	assert.Contains(t, out, "node:      42")

	out, err = execute(t, "--config", path, "generate", "--node", "1")
	require.NoError(t, err)
	id, err = idgen.ParseID(strings.TrimSpace(out), idgen.FormatInt)
	require.NoError(t, err)
	_, node, _ = idgen.Decompose(id)
	assert.Equal(t, int64(1), node)
}

func TestConfigFileStaticAllocator(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flake.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
idgen:
  node_id: 3
allocator:
  driver: static
  node_id: 900
`), 0o644))

	out, err := execute(t, "--config", path, "generate")
	require.NoError(t, err)
	id, err := idgen.ParseID(strings.TrimSpace(out), idgen.FormatInt)
	require.NoError(t, err)
	_, node, _ := idgen.Decompose(id)
	assert.Equal(t, int64(900), node)
}

func TestConfigFileMissing(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "generate")
	assert.Error(t, err)
}

func TestBench(t *testing.T) {
	out, err := execute(t, "bench", "--workers", "4", "--count", "20001", "--no-smoothing", "--node", "8")
	require.NoError(t, err)
	assert.Contains(t, out, "generated:  20001")
	assert.Contains(t, out, "unique:     20001")
	assert.Contains(t, out, "throughput:")

	_, err = execute(t, "bench", "--workers", "0")
	assert.Error(t, err)
}

func TestRunBenchRateLimited(t *testing.T) {
	gen, err := idgen.New(1, idgen.DefaultEpoch)
	require.NoError(t, err)

	res, err := runBench(context.Background(), gen, &benchOptions{workers: 2, count: 50, rate: 1000})
	require.NoError(t, err)
	assert.Equal(t, 50, res.Generated)
	assert.Equal(t, 50, res.Unique)
	assert.Positive(t, res.throughput())
}

func TestRunBenchCanceled(t *testing.T) {
	gen, err := idgen.New(1, idgen.DefaultEpoch)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = runBench(ctx, gen, &benchOptions{workers: 2, count: 100, rate: 10})
	assert.Error(t, err)
}

func TestBenchResultVerify(t *testing.T) {
	assert.NoError(t, benchResult{Generated: 10, Unique: 10}.verify())

	err := benchResult{Generated: 10, Unique: 8}.verify()
	require.Error(t, err)
	assert.ErrorIs(t, err, errDuplicateIDs)
	assert.Equal(t, "duplicate_ids", xerrors.GetCode(err))
	assert.Contains(t, err.Error(), "found 2 duplicate ids")
}
