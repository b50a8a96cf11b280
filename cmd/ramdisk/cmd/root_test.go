package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/corey/ramdisk/internal/adapters/bbolt"
	"github.com/corey/ramdisk/internal/domain/ramdisk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes a fresh command tree with captured output.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func scenario(t *testing.T) string {
	return writeTree(t, map[string]string{
		"a.txt":     "hi",
		"sub/b.bin": "\x00\x01",
		"note.txt~": "excluded",
	})
}

func TestGenerateCommand(t *testing.T) {
	chdir(t, t.TempDir())
	root := scenario(t)
	output := filepath.Join(t.TempDir(), "ramdisk.S")

	stdout, _, err := runCLI(t, output, root)
	require.NoError(t, err)
	assert.Contains(t, stdout, "⚡ ramdisk: output = "+output)
	assert.Contains(t, stdout, "⚡ ramdisk: Found 2 files.")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	src := string(data)
	assert.True(t, strings.HasPrefix(src, ".global ramdisk_path_array\n.global ramdisk_file_data_array\n"))
	assert.Contains(t, src, "path0:\n.string \"a.txt\"\n")
	assert.Contains(t, src, "path1:\n.string \"sub/b.bin\"\n")
	assert.True(t, strings.HasSuffix(src, "ramdisk_num:\n.word 0x2\n"))
}

func TestGenerateCommand_Args(t *testing.T) {
	chdir(t, t.TempDir())
	_, _, err := runCLI(t)
	assert.Error(t, err)

	_, _, err = runCLI(t, "only-output.S")
	assert.Error(t, err)

	_, _, err = runCLI(t, "a", "b", "c")
	assert.Error(t, err)
}

func TestGenerateCommand_Quiet(t *testing.T) {
	chdir(t, t.TempDir())
	output := filepath.Join(t.TempDir(), "out.S")
	stdout, _, err := runCLI(t, "-q", output, scenario(t))
	require.NoError(t, err)
	assert.Empty(t, stdout)
	_, err = os.Stat(output)
	assert.NoError(t, err)
}

func TestGenerateCommand_Verbose(t *testing.T) {
	chdir(t, t.TempDir())
	output := filepath.Join(t.TempDir(), "out.S")
	stdout, _, err := runCLI(t, "-v", "--color", "never", output, scenario(t))
	require.NoError(t, err)
	assert.Contains(t, stdout, "  a.txt\n")
	assert.Contains(t, stdout, "  sub/b.bin\n")
	assert.Contains(t, stdout, "│ 2 files │ 4 bytes │ sha256:")
	assert.NotContains(t, stdout, "\033[")
}

func TestGenerateCommand_NotADirectory(t *testing.T) {
	chdir(t, t.TempDir())
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	output := filepath.Join(t.TempDir(), "out.S")

	_, _, err := runCLI(t, output, file)
	assert.ErrorIs(t, err, ramdisk.ErrRootNotDir)
	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerateCommand_Flags(t *testing.T) {
	chdir(t, t.TempDir())
	root := writeTree(t, map[string]string{"b": "2", "a/z": "1"})
	output := filepath.Join(t.TempDir(), "out.S")

	_, _, err := runCLI(t, "--order", "path", "--word", ".quad", output, root)
	require.NoError(t, err)
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	src := string(data)
	assert.Contains(t, src, "path0:\n.string \"a/z\"\n")
	assert.Contains(t, src, "ramdisk_num:\n.quad 0x2\n")

	_, _, err = runCLI(t, "--order", "mtime", output, root)
	assert.ErrorIs(t, err, ramdisk.ErrInvalidOrder)
}

func TestGenerateCommand_ConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(".ramdisk.yaml", []byte("word: .long\norder: path\n"), 0644))
	root := writeTree(t, map[string]string{"b": "2", "a/z": "1"})
	output := filepath.Join(t.TempDir(), "out.S")

	// File value applies.
	_, _, err := runCLI(t, "-q", output, root)
	require.NoError(t, err)
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ramdisk_num:\n.long 0x2\n")
	assert.Contains(t, string(data), "path0:\n.string \"a/z\"\n")

	// Explicit flag wins over the file.
	_, _, err = runCLI(t, "-q", "--word", ".word", "--order", "tree", output, root)
	require.NoError(t, err)
	data, err = os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ramdisk_num:\n.word 0x2\n")
	assert.Contains(t, string(data), "path0:\n.string \"b\"\n")
}

func TestGenerateCommand_ExplicitConfigMissing(t *testing.T) {
	chdir(t, t.TempDir())
	_, _, err := runCLI(t, "--config", "nope.yaml", "out.S", scenario(t))
	assert.Error(t, err)
}

func TestManifestCommands(t *testing.T) {
	chdir(t, t.TempDir())
	root := scenario(t)
	outDir := t.TempDir()
	output := filepath.Join(outDir, "out.S")
	db := filepath.Join(outDir, "state", "manifest.db")

	_, _, err := runCLI(t, "-q", "--manifest", db, output, root)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("changed"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "c.txt"), []byte("new"), 0644))
	_, _, err = runCLI(t, "-q", "--manifest", db, output, root)
	require.NoError(t, err)

	stdout, _, err := runCLI(t, "--manifest", db, "--color", "never", "manifest", "show", output)
	require.NoError(t, err)
	assert.Contains(t, stdout, "⚡ build #2")
	assert.Contains(t, stdout, "Files:      3 (12 bytes)")
	assert.Contains(t, stdout, "[1] c.txt")
	assert.Contains(t, stdout, "[2] sub/b.bin")

	stdout, _, err = runCLI(t, "--manifest", db, "--color", "never", "manifest", "history", output)
	require.NoError(t, err)
	assert.Contains(t, stdout, "⚡ 2 builds")
	assert.Less(t, strings.Index(stdout, "#2"), strings.Index(stdout, "#1"), "newest first")

	stdout, _, err = runCLI(t, "--manifest", db, "manifest", "history", "-n", "1", output)
	require.NoError(t, err)
	assert.Contains(t, stdout, "⚡ 1 builds")

	stdout, _, err = runCLI(t, "--manifest", db, "--color", "never", "manifest", "diff", output)
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 added, 0 removed, 1 changed")
	assert.Contains(t, stdout, "+ c.txt")
	assert.Contains(t, stdout, "~ a.txt")
	assert.Contains(t, stdout, "> sub/b.bin")

	stdout, _, err = runCLI(t, "--manifest", db, "manifest", "list")
	require.NoError(t, err)
	assert.Equal(t, output+"\n", stdout)

	_, _, err = runCLI(t, "--manifest", db, "manifest", "forget", output)
	require.NoError(t, err)
	_, _, err = runCLI(t, "--manifest", db, "manifest", "show", output)
	assert.ErrorContains(t, err, "no builds recorded")
}

func TestManifestCommands_RelativeOutput(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	db := filepath.Join(dir, "m.db")

	_, _, err := runCLI(t, "-q", "--manifest", db, "out.S", scenario(t))
	require.NoError(t, err)

	stdout, _, err := runCLI(t, "--manifest", db, "manifest", "show", filepath.Join(dir, "out.S"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "⚡ build #1")
}

func TestManifestCommands_NotConfigured(t *testing.T) {
	chdir(t, t.TempDir())
	_, _, err := runCLI(t, "manifest", "show", "out.S")
	assert.ErrorIs(t, err, errNoManifest)
}

func TestManifestCommands_MissingDatabase(t *testing.T) {
	chdir(t, t.TempDir())
	db := filepath.Join(t.TempDir(), "absent.db")
	_, _, err := runCLI(t, "--manifest", db, "manifest", "list")
	require.Error(t, err)
	_, statErr := os.Stat(db)
	assert.True(t, os.IsNotExist(statErr), "read commands never create the database")
}

func TestGenerateCommand_LockedManifest(t *testing.T) {
	chdir(t, t.TempDir())
	db := filepath.Join(t.TempDir(), "m.db")
	holder, err := bbolt.NewStore(db)
	require.NoError(t, err)
	defer holder.Close()

	_, _, err = runCLI(t, "-q", "--manifest", db, filepath.Join(t.TempDir(), "out.S"), scenario(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is locked by another process")
}

func TestConfigCommand(t *testing.T) {
	chdir(t, t.TempDir())
	stdout, _, err := runCLI(t, "--color", "never", "config")
	require.NoError(t, err)
	assert.Contains(t, stdout, "File:       (defaults)")
	assert.Contains(t, stdout, "Order:      tree")
	assert.Contains(t, stdout, "Escape:     escape")
	assert.Contains(t, stdout, "Word:       .word")
	assert.Contains(t, stdout, "Exclude:    *~")
	assert.Contains(t, stdout, "Manifest:   (disabled)")

	require.NoError(t, os.WriteFile(".ramdisk.yaml", []byte("escape: reject\n"), 0644))
	stdout, _, err = runCLI(t, "--color", "never", "--word", ".quad", "config")
	require.NoError(t, err)
	assert.Contains(t, stdout, "File:       .ramdisk.yaml")
	assert.Contains(t, stdout, "Escape:     reject")
	assert.Contains(t, stdout, "Word:       .quad")
}

func TestIsDBLockError(t *testing.T) {
	assert.False(t, isDBLockError(nil))
	assert.False(t, isDBLockError(errors.New("permission denied")))
	assert.True(t, isDBLockError(errors.New("bbolt open: timeout")))
}

func TestResolveColor(t *testing.T) {
	assert.True(t, resolveColor("always"))
	assert.False(t, resolveColor("never"))
}
