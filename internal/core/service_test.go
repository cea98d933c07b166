package core

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/wind-7274/seatlease-process/internal/config"
	"github.com/wind-7274/seatlease-process/internal/history"
	"github.com/wind-7274/seatlease-process/internal/metrics"
	"github.com/wind-7274/seatlease-process/internal/phone"
	"github.com/wind-7274/seatlease-process/internal/sheet"
	"github.com/wind-7274/seatlease-process/internal/unlock"
)

func testConfig() *config.Config {
	return &config.Config{
		Upload:   config.UploadConfig{MaxFileSize: 1 << 20, MaxFiles: 3, MaxConcurrent: 2, MaxWaitTime: time.Second, Timeout: time.Minute},
		Split:    config.SplitConfig{Separator: ",", KeepEmpty: true, Workers: 4, ParallelThreshold: 100, PreviewRows: 2},
		Results:  config.ResultsConfig{TTL: time.Minute, MaxRuns: 10, SweepInterval: time.Minute},
		Database: config.DatabaseConfig{HistorySize: 10},
	}
}

func newTestService(t *testing.T) (*Service, *metrics.Metrics) {
	t.Helper()
	m, err := metrics.New()
	require.NoError(t, err)
	svc, err := NewService(testConfig(), nil, m)
	require.NoError(t, err)
	return svc, m
}

const sampleCSV = "Account,Numbers\n" +
	"A1,\"639171234567, abc\"\n" +
	"A2,\"9181234567,0281234567\"\n" +
	"A3,\n"

func TestService_Split(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	run, err := svc.Split(ctx, SplitRequest{
		FileName: "numbers.csv",
		Body:     strings.NewReader(sampleCSV),
		Options:  svc.DefaultSplitOptions(),
	})
	require.NoError(t, err)

	assert.Equal(t, SplitSummary{
		Records:        3,
		ValidIDs:       3,
		ValidNumbers:   3,
		InvalidEntries: 1,
		MaxNumbers:     2,
	}, run.Summary())
	assert.True(t, run.HasInvalid())
	assert.Equal(t, 2, run.Preview.Len())
	assert.Equal(t, "Account", run.Result.IDHeader)

	got, err := svc.SplitRun(run.ID)
	require.NoError(t, err)
	assert.Same(t, run, got)

	var buf bytes.Buffer
	require.NoError(t, run.WriteValid(&buf, sheet.FormatCSV))
	assert.Equal(t, "Account,TU1,TU2\nA1,09171234567,\nA2,09181234567,0281234567\nA3,,\n", buf.String())

	buf.Reset()
	require.NoError(t, run.WriteInvalid(&buf, sheet.FormatCSV))
	assert.Equal(t, "Account,Invalid Value\nA1,abc\n", buf.String())

	runs, err := svc.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, history.KindSplit, runs[0].Kind)
	assert.Equal(t, 3, runs[0].Valid)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.Records))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.ActiveJobs))
}

func TestService_SplitParallelMatchesSequential(t *testing.T) {
	svc, _ := newTestService(t)

	var b strings.Builder
	b.WriteString("ID,Numbers\n")
	for i := 0; i < 1500; i++ {
		fmt.Fprintf(&b, "R%d,\"9171234%03d, x%d, 0281234567\"\n", i, i%1000, i)
	}

	run, err := svc.Split(context.Background(), SplitRequest{
		FileName: "big.csv",
		Body:     strings.NewReader(b.String()),
		Options:  svc.DefaultSplitOptions(),
	})
	require.NoError(t, err)

	tbl, err := sheet.Read("big.csv", strings.NewReader(b.String()))
	require.NoError(t, err)
	records, _, err := phone.RecordsFromTable(tbl)
	require.NoError(t, err)
	want := phone.Process(records, svc.DefaultSplitOptions())

	assert.Equal(t, want.Valid, run.Result.Valid)
	assert.Equal(t, want.Invalid, run.Result.Invalid)
}

func TestService_SplitNoInvalid(t *testing.T) {
	svc, _ := newTestService(t)

	run, err := svc.Split(context.Background(), SplitRequest{
		FileName: "ok.csv",
		Body:     strings.NewReader("ID,Numbers\nA,09171234567\n"),
		Options:  svc.DefaultSplitOptions(),
	})
	require.NoError(t, err)
	assert.False(t, run.HasInvalid())
	assert.ErrorIs(t, run.WriteInvalid(&bytes.Buffer{}, sheet.FormatXLSX), ErrNoInvalidNumbers)
}

func TestService_SplitErrors(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     SplitRequest
		wantErr error
	}{
		{"single column", SplitRequest{FileName: "a.csv", Body: strings.NewReader("ID\nA\n")}, phone.ErrTooFewColumns},
		{"empty", SplitRequest{FileName: "a.csv", Body: strings.NewReader("")}, sheet.ErrEmptyFile},
		{"xls", SplitRequest{FileName: "a.xls", Body: strings.NewReader("x")}, sheet.ErrUnsupportedFormat},
		{"long separator", SplitRequest{FileName: "a.csv", Body: strings.NewReader(sampleCSV), Options: phone.Options{Separator: strings.Repeat("-", 11)}}, ErrInvalidSeparator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Split(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, float64(3), testutil.ToFloat64(m.Runs.WithLabelValues("split", "error")))
}

func encryptedWorkbook(t *testing.T, password string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "secret data"))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf, excelize.Options{Password: password}))
	return buf.Bytes()
}

func TestService_Unlock(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	run, err := svc.Unlock(ctx, UnlockRequest{
		Password: "pw",
		Files: []unlock.File{
			{Name: "good.xlsx", Data: encryptedWorkbook(t, "pw")},
			{Name: "plain.xlsx", Data: []byte("PK\x03\x04")},
		},
	})
	require.NoError(t, err)
	assert.True(t, run.HasArchive())
	assert.Equal(t, []string{"good.xlsx"}, run.Report.Unlocked)
	require.Len(t, run.Report.Failures, 1)

	got, err := svc.UnlockRun(run.ID)
	require.NoError(t, err)
	assert.Same(t, run, got)

	runs, err := svc.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, history.KindUnlock, runs[0].Kind)
	assert.Equal(t, "good.xlsx (+1 more)", runs[0].FileName)
	assert.Equal(t, 1, runs[0].Failed)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.UnlockFiles.WithLabelValues("failed")))
}

func TestService_UnlockErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	file := unlock.File{Name: "a.xlsx"}

	_, err := svc.Unlock(ctx, UnlockRequest{Files: []unlock.File{file}})
	assert.ErrorIs(t, err, unlock.ErrNoPassword)

	_, err = svc.Unlock(ctx, UnlockRequest{Password: "pw"})
	assert.ErrorIs(t, err, unlock.ErrNoFiles)

	_, err = svc.Unlock(ctx, UnlockRequest{Password: "pw", Files: []unlock.File{file, file, file, file}})
	assert.ErrorIs(t, err, ErrTooManyFiles)
}

func TestService_UnknownRun(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SplitRun("nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = svc.UnlockRun("nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestService_BusyWhenAllSlotsTaken(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxConcurrent = 1
	cfg.Upload.MaxWaitTime = 20 * time.Millisecond
	svc, err := NewService(cfg, nil, nil)
	require.NoError(t, err)

	require.True(t, svc.limiter.TryAcquire())
	defer svc.limiter.Release()

	_, err = svc.Split(context.Background(), SplitRequest{FileName: "a.csv", Body: strings.NewReader(sampleCSV)})
	assert.ErrorIs(t, err, ErrTooManyJobs)
	assert.Equal(t, 1, svc.JobStatus().Active)
}

func TestNewService_NilConfig(t *testing.T) {
	_, err := NewService(nil, nil, nil)
	assert.Error(t, err)
}
