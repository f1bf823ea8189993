package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupRenamesKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := Setup("veritasord", "test", Options{Output: &buf})
	defer closer.Close()

	Component(logger, "node").Info("started", slog.String("listen", ":8080"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	require.Equal(t, "started", line["message"])
	require.Equal(t, "INFO", line["severity"])
	require.Equal(t, "veritasord", line["service"])
	require.Equal(t, "test", line["env"])
	require.Equal(t, "node", line["component"])
	require.Contains(t, line, "timestamp")
}

func TestSetupTeesIntoRotatingFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "node.log")
	logger, closer := Setup("veritasord", "", Options{Output: &buf, File: path})
	logger.Warn("disk")
	require.NoError(t, closer.Close())
	require.FileExists(t, path)
	require.Contains(t, buf.String(), `"severity":"WARN"`)
}

func TestMaskField(t *testing.T) {
	require.Equal(t, "Bearer "+RedactedValue, MaskField("Authorization", "Bearer abc.def.ghi").Value.String())
	require.Equal(t, RedactedValue, MaskField("subject", "ops@veritasor").Value.String())
	require.Equal(t, "boom", MaskField("error", "boom").Value.String())
	require.Equal(t, "", MaskField("token", "").Value.String())
	require.True(t, IsSecret(" JWT_SECRET "))
	require.False(t, IsSecret("caller"))
}

func TestSetupMasksSecretAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := Setup("veritasord", "", Options{Output: &buf})
	defer closer.Close()

	logger.Info("token rejected", slog.String("authorization", "Bearer s3cret"), slog.String("token", "s3cret"), slog.String("route", "/v1/admin/pause"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	require.NotContains(t, buf.String(), "s3cret")
	require.Equal(t, "Bearer "+RedactedValue, line["authorization"])
	require.Equal(t, RedactedValue, line["token"])
	require.Equal(t, "/v1/admin/pause", line["route"])
}
