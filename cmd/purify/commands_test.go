package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/agenthands/purify/internal/classifier"
	"github.com/agenthands/purify/internal/core/model"
)

func fakeClassifier(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req classifier.ClassifyBatchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := classifier.ClassifyBatchResponse{ModelVersion: "test"}
		for _, text := range req.Texts {
			abuse := 0.02
			if text == "이 멍청한 새끼" {
				abuse = 0.91
			}
			resp.Results = append(resp.Results, model.ScoreVector{
				{Label: "clean", Score: 1 - abuse},
				{Label: "악플/욕설", Score: abuse},
				{Label: "기타 혐오", Score: 0.03},
			})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func writeConfig(t *testing.T, classifierURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	body := fmt.Sprintf(`
[classifier]
base_url = %q

[llm]
provider = "ollama"
model = "llama3"
`, classifierURL)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDetectCommand(t *testing.T) {
	server := fakeClassifier(t)
	path := writeConfig(t, server.URL)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"detect", "--config", path, "안녕하세요", "이 멍청한 새끼"})

	require.NoError(t, cmd.Execute())

	var detections []model.Detection
	require.NoError(t, json.Unmarshal(out.Bytes(), &detections))
	require.Len(t, detections, 2)
	assert.False(t, detections[0].IsAbusive)
	assert.Equal(t, []model.Label{"기타 혐오"}, detections[0].Labels)
	assert.True(t, detections[1].IsAbusive)
	assert.InDelta(t, 0.91, detections[1].Confidence, 1e-9)
}

func TestCommandArgs(t *testing.T) {
	t.Run("detect requires text", func(t *testing.T) {
		cmd := newRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"detect"})
		assert.Error(t, cmd.Execute())
	})

	t.Run("missing explicit config", func(t *testing.T) {
		cmd := newRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"detect", "--config", filepath.Join(t.TempDir(), "nope.toml"), "text"})
		assert.Error(t, cmd.Execute())
	})
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestCloseLogged(t *testing.T) {
	obsCore, logs := observer.New(zapcore.WarnLevel)
	log := zap.New(obsCore)

	closeLogged(log, closerFunc(func() error { return nil }))
	assert.Equal(t, 0, logs.Len())

	closeLogged(log, closerFunc(func() error { return errors.New("gemini: close: broken pipe") }))
	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Failed to close dependencies", entries[0].Message)
	assert.Equal(t, "gemini: close: broken pipe", entries[0].ContextMap()["error"])
}
