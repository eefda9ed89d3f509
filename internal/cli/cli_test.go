package cli

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BetterCallFirewall/techscope/internal/config"
	"github.com/BetterCallFirewall/techscope/internal/models"
)

func quietEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DETECTOR_FINGERPRINT", "false")
	t.Setenv("DETECTOR_SNIFF_WINDOW", "0s")
	t.Setenv(config.EnvConfigPath, "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestDetectCommand(t *testing.T) {
	quietEnv(t)
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<!DOCTYPE html><html><head>
<script src="https://www.googletagmanager.com/gtag/js?id=G-1"></script>
</head><body><div id="app" data-v-app></div><form><input type="password"></form></body></html>`))
	}))
	defer site.Close()

	out, err := run(t, "detect", site.URL, site.URL+"/second")
	require.NoError(t, err)

	var results []detectResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, site.URL, results[0].URL)
	for _, r := range results {
		assert.Empty(t, r.Error)
		require.NotNil(t, r.Report)
		forms, ok := r.Report.Find(models.CategoryForms, "Login Forms")
		require.True(t, ok, "login form expected")
		assert.NotEmpty(t, forms.Version)
	}
}

func TestDetectRunsWithoutEventBroker(t *testing.T) {
	quietEnv(t)
	a, err := newApp(config.Default(), false, false)
	require.NoError(t, err)
	assert.Nil(t, a.events)

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div data-reactroot></div></body></html>`))
	}))
	defer site.Close()

	logs := &bytes.Buffer{}
	log.SetOutput(logs)
	defer log.SetOutput(os.Stderr)

	_, err = run(t, "detect", site.URL)
	require.NoError(t, err)
	assert.NotContains(t, logs.String(), "dropped")
	assert.Contains(t, logs.String(), "finished")
}

func TestDetectCommandReportsFailures(t *testing.T) {
	quietEnv(t)

	out, err := run(t, "detect", "chrome://settings")
	require.Error(t, err)

	var results []detectResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Error, "permission denied")
}

func TestDetectCommandNeedsURL(t *testing.T) {
	quietEnv(t)
	_, err := run(t, "detect")
	assert.Error(t, err)
}

func TestWhoisCommand(t *testing.T) {
	quietEnv(t)
	registry := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/whois/example.org", r.URL.Path)
		_, _ = w.Write([]byte(`<div class="whois-data">
Registrar: Example Registrar
Name Server: NS1.EXAMPLE.ORG
</div>`))
	}))
	defer registry.Close()
	t.Setenv("WHOIS_URL_TEMPLATE", registry.URL+"/whois/%s")

	out, err := run(t, "whois", "example.org")
	require.NoError(t, err)

	var findings []models.Finding
	require.NoError(t, json.Unmarshal([]byte(out), &findings))
	assert.Equal(t, []models.Finding{
		{Name: "Registrar", Version: "Example Registrar", Icon: "🏢"},
		{Name: "Name Servers", Version: "NS1.EXAMPLE.ORG", Icon: "🌐"},
	}, findings)
}

func TestConfigFlag(t *testing.T) {
	quietEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("whois:\n  url_template: nope\n"), 0o600))

	_, err := run(t, "--config", path, "whois", "example.org")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url template")
}
