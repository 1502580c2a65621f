package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/rossdash"
	"github.com/arloliu/rossdash/format"
	"github.com/arloliu/rossdash/rossfile"
	"github.com/arloliu/rossdash/server"
)

var smallConfig = GeneratorConfig{PEs: 2, KPsPerPE: 2, LPsPerKP: 3, Samples: 5, VTInterval: 10, Seed: 7}

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := RootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()

	return stdout.String(), err
}

func writeLog(t *testing.T, cfg GeneratorConfig) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ross.bin")
	_, err := generateFile(path, cfg, format.CompressionNone)
	require.NoError(t, err)

	return path
}

func TestGenerate_Counts(t *testing.T) {
	var buf bytes.Buffer
	stats, err := generateTo(&buf, smallConfig, format.CompressionNone)
	require.NoError(t, err)
	require.Equal(t, 10, stats.PERecords)
	require.Equal(t, 20, stats.KPRecords)
	require.Equal(t, 60, stats.LPRecords)

	want := 10*(24+104) + 20*(24+44) + 60*(24+36)
	require.Equal(t, want, buf.Len())

	tel, _, err := rossfile.Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, 10, tel.Len(format.KindPE))

	lp, err := tel.Table(format.KindLP)
	require.NoError(t, err)
	ids, err := lp.DistinctIDs("LP_ID")
	require.NoError(t, err)
	require.Len(t, ids, 12)

	span, ok := lp.Span(format.VirtualTime)
	require.True(t, ok)
	require.Equal(t, 10.0, span.Min)
	require.Equal(t, 50.0, span.Max)
}

func TestGenerate_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	_, err := generateTo(&a, smallConfig, format.CompressionNone)
	require.NoError(t, err)
	_, err = generateTo(&b, smallConfig, format.CompressionNone)
	require.NoError(t, err)
	require.Equal(t, a.Bytes(), b.Bytes())

	other := smallConfig
	other.Seed = 8
	var c bytes.Buffer
	_, err = generateTo(&c, other, format.CompressionNone)
	require.NoError(t, err)
	require.NotEqual(t, a.Bytes(), c.Bytes())
}

func TestGenerate_Invalid(t *testing.T) {
	var buf bytes.Buffer
	_, err := generateTo(&buf, GeneratorConfig{PEs: -1, VTInterval: 1}, format.CompressionNone)
	require.Error(t, err)
	_, err = generateTo(&buf, GeneratorConfig{PEs: 1, Samples: 1}, format.CompressionNone)
	require.Error(t, err)
}

func TestGenerateCommand_Compressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ross.bin.zst")
	_, err := run(t, "generate", "--out", path, "--pes", "1", "--kps", "1", "--lps", "1",
		"--samples", "3", "--compression", "zstd", "--log-level", "error")
	require.NoError(t, err)

	tel, src, err := rossdash.Open(path, rossfile.WithCompression(format.CompressionAuto))
	require.NoError(t, err)
	require.Equal(t, format.CompressionZstd, src.Stats.Compression)
	require.Equal(t, 3, tel.Len(format.KindLP))

	for _, mode := range []string{"auto", "zstd"} {
		out, err := run(t, "query", "lp", "--data", path, "--input-compression", mode,
			"--log-level", "error", "--columns", "LP_ID")
		require.NoError(t, err, mode)
		require.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 1+3, mode)
	}

	// Without the flag the file is read as raw frames.
	_, err = run(t, "summary", "--data", path, "--log-level", "error")
	require.Error(t, err)
	_, err = run(t, "summary", "--data", path, "--input-compression", "gzip")
	require.Error(t, err)
}

func TestSummary(t *testing.T) {
	path := writeLog(t, smallConfig)

	out, err := run(t, "summary", "--data", path, "--log-level", "error")
	require.NoError(t, err)
	require.Contains(t, out, "("+string(rossdash.FormatLog)+")")
	require.Contains(t, out, "[10, 50]")

	lines := strings.Split(out, "\n")
	var peLine string
	for _, l := range lines {
		if strings.HasPrefix(l, "pe ") {
			peLine = l
		}
	}
	require.Equal(t, []string{"pe", "10", "2", "[10,", "50]"}, strings.Fields(peLine)[:5])
}

func TestDataFromEnvironment(t *testing.T) {
	path := writeLog(t, smallConfig)
	t.Setenv(DataEnv, path)

	out, err := run(t, "summary", "--log-level", "error")
	require.NoError(t, err)
	require.Contains(t, out, path)
}

func TestDataFromConfigFile(t *testing.T) {
	path := writeLog(t, smallConfig)
	cfgPath := filepath.Join(t.TempDir(), "rossdash.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("data: "+path+"\nlog-level: error\n"), 0o600))

	out, err := run(t, "summary", "--config", cfgPath)
	require.NoError(t, err)
	require.Contains(t, out, path)
}

func TestMissingData(t *testing.T) {
	t.Setenv(DataEnv, "")

	_, err := run(t, "summary")
	require.ErrorContains(t, err, DataEnv)
}

func TestBadLoggingFlags(t *testing.T) {
	path := writeLog(t, smallConfig)

	_, err := run(t, "summary", "--data", path, "--log-level", "loud")
	require.Error(t, err)
	_, err = run(t, "summary", "--data", path, "--log-format", "xml")
	require.Error(t, err)
	_, err = run(t, "summary", "--data", path, "--byte-order", "middle")
	require.Error(t, err)
}

func TestColumns(t *testing.T) {
	out, err := run(t, "columns", "kp")
	require.NoError(t, err)
	require.Contains(t, out, "time_ahead_gvt")
	require.Contains(t, out, "Time Ahead GVT")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 14)
	require.Equal(t, []string{"PE_ID", "PE", "ID", "uint32", "false"}, strings.Fields(lines[1]))

	_, err = run(t, "columns", "gvt")
	require.Error(t, err)
}

func TestQuery_CSV(t *testing.T) {
	path := writeLog(t, smallConfig)

	out, err := run(t, "query", "kp", "--data", path, "--log-level", "error",
		"--columns", "KP_ID,virtual_time", "--min", "20", "--max", "30")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Equal(t, []string{"KP_ID", "virtual_time"}, records[0])
	require.Len(t, records, 1+8)
	require.Equal(t, []string{"0", "20"}, records[1])
	require.Equal(t, []string{"3", "30"}, records[8])
}

func TestQuery_OpenBoundJSON(t *testing.T) {
	path := writeLog(t, smallConfig)

	out, err := run(t, "query", "pe", "--data", path, "--log-level", "error",
		"--columns", "PE_ID", "--min", "40", "--format", "json")
	require.NoError(t, err)

	var res queryOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Equal(t, []string{"PE_ID"}, res.Columns)
	require.Len(t, res.Rows, 4)
}

func TestQuery_Errors(t *testing.T) {
	path := writeLog(t, smallConfig)

	_, err := run(t, "query", "pe", "--data", path, "--columns", "nope")
	require.Error(t, err)
	_, err = run(t, "query", "pe", "--data", path, "--min", "5", "--max", "1")
	require.Error(t, err)
	_, err = run(t, "query", "pe", "--data", path, "--format", "xml")
	require.Error(t, err)
	_, err = run(t, "query", "pe", "--data", path, "--basis", "wall")
	require.Error(t, err)
}

func TestSnapshotCommand(t *testing.T) {
	path := writeLog(t, smallConfig)
	out := filepath.Join(t.TempDir(), "ross.rsnp")

	_, err := run(t, "snapshot", "--data", path, "--out", out, "--compression", "s2", "--log-level", "error")
	require.NoError(t, err)

	fromLog, logSrc, err := rossdash.Open(path)
	require.NoError(t, err)
	fromSnap, snapSrc, err := rossdash.Open(out)
	require.NoError(t, err)
	require.Equal(t, rossdash.FormatSnapshot, snapSrc.Format)
	require.Equal(t, logSrc.Fingerprint, snapSrc.Fingerprint)
	require.Equal(t, format.CompressionS2, snapSrc.Snapshot.Compression)

	for _, kind := range format.RecordKinds {
		want, err := fromLog.Table(kind)
		require.NoError(t, err)
		got, err := fromSnap.Table(kind)
		require.NoError(t, err)
		require.Equal(t, want.Len(), got.Len())
		for i := range want.Len() {
			require.Equal(t, want.Sample(i), got.Sample(i))
		}
	}
	require.Equal(t, uint8(3), snapSrc.Snapshot.TableCount)
}

func TestServe_Shutdown(t *testing.T) {
	path := writeLog(t, smallConfig)
	tel, _, err := rossdash.Open(path)
	require.NoError(t, err)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	logger, _ := logtest.NewNullLogger()
	srv, err := server.New(tel, server.WithLogger(logger))
	require.NoError(t, err)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, lis, srv.Handler(), logger) }()

	resp, err := http.Get("http://" + lis.Addr().String() + "/api/v1/tables/lp/span")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `"max":50`)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}
