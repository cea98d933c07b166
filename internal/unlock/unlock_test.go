package unlock

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// encryptedWorkbook builds a one-cell workbook protected with password.
func encryptedWorkbook(t *testing.T, password, value string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", value))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf, excelize.Options{Password: password}))
	return buf.Bytes()
}

func TestDecrypt(t *testing.T) {
	data := encryptedWorkbook(t, "secret", "hello")

	plain, err := Decrypt(data, "secret")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(plain))
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue("Sheet1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
}

func TestDecrypt_Errors(t *testing.T) {
	data := encryptedWorkbook(t, "secret", "hello")

	_, err := Decrypt(data, "wrong")
	assert.ErrorIs(t, err, ErrWrongPassword)

	_, err = Decrypt(data, "")
	assert.ErrorIs(t, err, ErrNoPassword)

	_, err = Decrypt([]byte("PK\x03\x04plain zip"), "secret")
	assert.ErrorIs(t, err, ErrNotEncrypted)
}

func TestBatch(t *testing.T) {
	files := []File{
		{Name: "a.xlsx", Data: encryptedWorkbook(t, "pw", "A")},
		{Name: "bad.xlsx", Data: []byte("not a workbook")},
		{Name: `C:\Users\me\a.xlsx`, Data: encryptedWorkbook(t, "pw", "A2")},
		{Name: "other.xlsx", Data: encryptedWorkbook(t, "different", "B")},
	}

	report, err := Batch(context.Background(), "pw", files)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.xlsx", "a (2).xlsx"}, report.Unlocked)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, "bad.xlsx", report.Failures[0].Name)
	assert.Equal(t, ErrNotEncrypted.Error(), report.Failures[0].Error)
	assert.Equal(t, "other.xlsx", report.Failures[1].Name)

	zr, err := zip.NewReader(bytes.NewReader(report.Archive), int64(len(report.Archive)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer wb.Close()
	v, err := wb.GetCellValue("Sheet1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "A2", v)
}

func TestBatch_CallerErrors(t *testing.T) {
	_, err := Batch(context.Background(), "", []File{{Name: "a.xlsx"}})
	assert.ErrorIs(t, err, ErrNoPassword)

	_, err = Batch(context.Background(), "pw", nil)
	assert.ErrorIs(t, err, ErrNoFiles)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Batch(ctx, "pw", []File{{Name: "a.xlsx"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBatch_AllFailedStillProducesArchive(t *testing.T) {
	report, err := Batch(context.Background(), "pw", []File{{Name: "x.xlsx", Data: []byte("nope")}})
	require.NoError(t, err)
	assert.Empty(t, report.Unlocked)
	assert.Len(t, report.Failures, 1)

	zr, err := zip.NewReader(bytes.NewReader(report.Archive), int64(len(report.Archive)))
	require.NoError(t, err)
	assert.Empty(t, zr.File)
}
