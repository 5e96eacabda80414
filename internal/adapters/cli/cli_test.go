package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/adapters/logger"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/adapters/store/memory"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/domain"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/service"
)

const sampleCSV = `id,name,email
1,John Smith,john@example.com
2,Jon Smith,jon@example.com
3,John Smith,johnsmith@example.com
4,Jane Doe,jane@example.com
`

func setupTestServices(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	SetServices(&Services{
		Matcher: service.NewMatcher(service.Options{Store: store}),
		Store:   store,
		Logger:  logger.NewNopLogger(),
	})
	t.Cleanup(func() { services = nil })
	return store
}

func writeRecords(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contacts.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))
	return path
}

// execute runs the root command and resets all flags so package-level
// commands do not leak state between tests.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestVersionCmd_Executes(t *testing.T) {
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	out, _, err := execute(t, "version")
	assert.NoError(t, err)
	assert.Contains(t, out, "dedupe version test-version-1.0.0")
}

func TestSimilarityCmd(t *testing.T) {
	setupTestServices(t)

	out, _, err := execute(t, "similarity", "John", "Johnny")
	require.NoError(t, err)
	assert.Equal(t, "0.8000\n", out)

	out, _, err = execute(t, "similarity", "--json", "abc", "ABC")
	require.NoError(t, err)
	assert.JSONEq(t, `{"score":1}`, out)
}

func TestSimilarityCmd_RequiresTwoArgs(t *testing.T) {
	setupTestServices(t)

	_, _, err := execute(t, "similarity", "only-one")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg(s)")
}

func TestScoreCmd(t *testing.T) {
	setupTestServices(t)

	out, _, err := execute(t, "score",
		"--name-a", "John Smith", "--email-a", "john@example.com",
		"--name-b", "John Smith", "--email-b", "johnsmith@example.com",
		"--json")
	require.NoError(t, err)

	var bd domain.Breakdown
	require.NoError(t, json.Unmarshal([]byte(out), &bd))
	assert.InDelta(t, 0.8875, bd.Total, 1e-12)

	out, _, err = execute(t, "score", "--name-a", "Ann", "--name-b", "Ann", "-w", "name=1")
	require.NoError(t, err)
	assert.Contains(t, out, "total      1.0000")

	_, _, err = execute(t, "score", "-w", "name=abc")
	assert.Error(t, err)

	_, _, err = execute(t, "score", "-w", "name=0.3")
	assert.ErrorIs(t, err, domain.ErrInvalidWeights)
}

func TestCountCmd(t *testing.T) {
	setupTestServices(t)
	path := writeRecords(t)

	tests := []struct {
		name       string
		args       []string
		want       string
		wantStderr string
	}{
		{name: "default threshold", args: []string{"count", path}, want: "1\n"},
		{name: "threshold 88", args: []string{"count", "-t", "88", path}, want: "2\n"},
		{name: "clamped low threshold", args: []string{"count", "--threshold", "10", path}, want: "3\n", wantStderr: "false positives"},
		{name: "clamped high threshold", args: []string{"count", "-t", "100", path}, want: "1\n", wantStderr: "clamped to 95%"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, stderr, err := execute(t, tc.args...)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
			if tc.wantStderr != "" {
				assert.Contains(t, stderr, tc.wantStderr)
			}
		})
	}
}

func TestCountCmd_UnsupportedFile(t *testing.T) {
	setupTestServices(t)

	_, _, err := execute(t, "count", filepath.Join(t.TempDir(), "contacts.txt"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestPairsCmd(t *testing.T) {
	setupTestServices(t)
	path := writeRecords(t)

	out, _, err := execute(t, "pairs", "-t", "80", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Duplicates: 3")
	assert.Contains(t, out, "1 <-> 2")
	assert.Contains(t, out, "2 <-> 3")

	out, _, err = execute(t, "pairs", "--json", "-t", "89", path)
	require.NoError(t, err)
	var res service.Outcome
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.Count)
	require.Len(t, res.Pairs, 1)
	assert.Equal(t, "1", res.Pairs[0].IDA)
	assert.Equal(t, "2", res.Pairs[0].IDB)
}

func TestTemplatesCmd(t *testing.T) {
	store := setupTestServices(t)
	path := writeRecords(t)

	out, _, err := execute(t, "templates", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No templates saved.")

	settings := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(settings, []byte("name:\n  enabled: true\n  remove_middle_name: true\n"), 0o600))

	out, _, err = execute(t, "templates", "save", "crm", "-s", settings, "-t", "88", "-w", "name=0.5", "-w", "email=0.5")
	require.NoError(t, err)
	assert.Contains(t, out, `Saved template "crm"`)

	saved, err := store.Get(context.Background(), "crm")
	require.NoError(t, err)
	assert.True(t, saved.Settings.Name.Enabled)
	assert.True(t, saved.Settings.Name.RemoveMiddleName)
	assert.Equal(t, domain.CasingTitle, saved.Settings.Name.Casing)
	assert.Equal(t, 88.0, saved.Threshold)
	assert.Equal(t, map[string]float64{"name": 0.5, "email": 0.5}, saved.Weights)

	out, _, err = execute(t, "templates", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "crm")
	assert.Contains(t, out, "88%")

	out, _, err = execute(t, "templates", "show", "crm")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "crm"`)

	out, stderr, err := execute(t, "count", "--template", "crm", path)
	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.NotEmpty(t, out)

	_, _, err = execute(t, "templates", "save", "bad", "-w", "name=3")
	assert.ErrorIs(t, err, domain.ErrInvalidTemplate)

	out, _, err = execute(t, "templates", "delete", "crm")
	require.NoError(t, err)
	assert.Contains(t, out, `Deleted template "crm"`)

	_, _, err = execute(t, "templates", "show", "crm")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestParseWeights(t *testing.T) {
	got, err := parseWeights([]string{"name=0.4", " email = 0.6 "})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"name": 0.4, "email": 0.6}, got)

	got, err = parseWeights(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, bad := range []string{"name", "=0.5", "name=x"} {
		_, err := parseWeights([]string{bad})
		assert.Error(t, err, bad)
	}
}
