package cli

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestSplitCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(input, []byte("ID,Numbers\nA,\"639171234567/x\"\nB,\n"), 0o600))

	validOut := filepath.Join(dir, "valid.csv")
	invalidOut := filepath.Join(dir, "invalid.csv")
	out, err := run(t, "split", input, "--sep", "/", "--keep-empty=false",
		"--valid-out", validOut, "--invalid-out", invalidOut, "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "valid numbers:   1")
	assert.Contains(t, out, "invalid entries: 1")

	valid, err := os.ReadFile(validOut)
	require.NoError(t, err)
	assert.Equal(t, "ID,TU1\nA,09171234567\n", string(valid))

	invalid, err := os.ReadFile(invalidOut)
	require.NoError(t, err)
	assert.Equal(t, "ID,Invalid Value\nA,x\n", string(invalid))
}

func TestSplitCommand_NoInvalidFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(input, []byte("ID,Numbers\nA,09171234567\n"), 0o600))
	invalidOut := filepath.Join(dir, "invalid.xlsx")

	_, err := run(t, "split", input, "--valid-out", filepath.Join(dir, "valid.xlsx"), "--invalid-out", invalidOut)
	require.NoError(t, err)
	assert.NoFileExists(t, invalidOut)
	assert.FileExists(t, filepath.Join(dir, "valid.xlsx"))
}

func TestSplitCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(input, []byte("ID\nA\n"), 0o600))

	_, err := run(t, "split", input, "--valid-out", filepath.Join(dir, "v.csv"))
	assert.ErrorContains(t, err, "missing required column")
	assert.Equal(t,
		"The file needs an ID column and a Numbers column (Code: VAL001). Put identifiers in the first column and numbers in the second",
		ErrorMessage(err))

	_, err = run(t, "split", filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
	assert.Equal(t, err.Error(), ErrorMessage(err), "unmapped errors are printed unchanged")

	_, err = run(t, "split")
	assert.Error(t, err)
}

func TestCheckCommand(t *testing.T) {
	out, err := run(t, "check", "+63 917 123 4567", "12345", "--explain")
	require.NoError(t, err)
	assert.Contains(t, out, "RULE")
	assert.Contains(t, out, "country-code")
	assert.Contains(t, out, "09171234567")
	assert.Contains(t, out, "mobile")
	assert.Contains(t, out, "invalid")

	out, err = run(t, "check", "09171234567", "--e164")
	require.NoError(t, err)
	assert.Contains(t, out, "+639171234567")
	assert.NotContains(t, out, "RULE")
}

func encryptedWorkbook(t *testing.T, password string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "secret"))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf, excelize.Options{Password: password}))
	return buf.Bytes()
}

func TestUnlockCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.xlsx")
	bad := filepath.Join(dir, "bad.xlsx")
	require.NoError(t, os.WriteFile(good, encryptedWorkbook(t, "pw"), 0o600))
	require.NoError(t, os.WriteFile(bad, encryptedWorkbook(t, "other"), 0o600))
	archive := filepath.Join(dir, "out.zip")

	out, err := run(t, "unlock", "--password", "pw", "--out", archive, good, bad)
	require.NoError(t, err)
	assert.Contains(t, out, "unlocked  good.xlsx")
	assert.Contains(t, out, "failed    bad.xlsx")

	zr, err := zip.OpenReader(archive)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 1)
	assert.Equal(t, "good.xlsx", zr.File[0].Name)
}

func TestUnlockCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.xlsx")
	require.NoError(t, os.WriteFile(bad, encryptedWorkbook(t, "other"), 0o600))

	_, err := run(t, "unlock", "--password", "pw", "--out", filepath.Join(dir, "o.zip"), bad)
	assert.ErrorIs(t, err, errNothingUnlocked)
	assert.NoFileExists(t, filepath.Join(dir, "o.zip"))

	_, err = run(t, "unlock", bad)
	assert.ErrorContains(t, err, "password")
}
