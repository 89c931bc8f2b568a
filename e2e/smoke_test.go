//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const repoRootRel = ".."   // relative to ./e2e
const mainPkgRel = "./cmd" // main.go lives in cmd/

const londonBody = `{"coord":{"lon":-0.1257,"lat":51.5085},"weather":[{"id":804,"main":"Clouds","description":"overcast clouds","icon":"04d"}],"base":"stations","main":{"temp":13.08,"feels_like":12.68,"temp_min":12.23,"temp_max":13.89,"pressure":1016,"humidity":90},"visibility":10000,"wind":{"speed":3.68,"deg":247},"clouds":{"all":100},"dt":1752500000,"sys":{"country":"GB","sunrise":1752460000,"sunset":1752520000},"timezone":3600,"id":2643743,"name":"London","cod":200}`
const parisBody = `{"coord":{"lon":2.3488,"lat":48.8534},"weather":[{"id":800,"main":"Clear","description":"clear sky","icon":"01d"}],"base":"stations","main":{"temp":32.21,"feels_like":31.2,"temp_min":30.9,"temp_max":33.4,"pressure":1011,"humidity":25},"visibility":10000,"wind":{"speed":2.4,"deg":80},"clouds":{"all":0},"dt":1752500000,"sys":{"country":"FR","sunrise":1752460000,"sunset":1752520000},"timezone":7200,"id":2988507,"name":"Paris","cod":200}`

func TestSmoke_CheckThenHistory(t *testing.T) {
	repoRoot := repoRootPath(t)
	sqlitePath := startSQLite(t)
	mock := startMockProvider(t)
	bin := buildBinary(t, repoRoot)

	out := runBinary(t, bin, sqlitePath, mock.URL, "check", "London")
	for _, want := range []string{
		"CITY: London",
		"Temperature: 13.08°C",
		"Humidity: 90%",
		"logged successfully",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("check output missing %q; got:\n%s", want, out)
		}
	}

	// A fresh process must see the stored row.
	out = runBinary(t, bin, sqlitePath, mock.URL, "history", "--limit", "5")
	if !strings.Contains(out, "London | 13.08°C | 90% | 1016 hPa") {
		t.Errorf("history output missing stored London row; got:\n%s", out)
	}
}

func TestSmoke_UnknownCity(t *testing.T) {
	repoRoot := repoRootPath(t)
	sqlitePath := startSQLite(t)
	mock := startMockProvider(t)
	bin := buildBinary(t, repoRoot)

	cmd := exec.Command(bin, "check", "Atlantis")
	cmd.Env = binaryEnv(sqlitePath, mock.URL)
	out, err := cmd.Output()
	if err == nil {
		t.Fatal("check for unknown city exited zero; want nonzero")
	}
	if !strings.Contains(string(out), "was not found") {
		t.Errorf("output missing unknown-city message; got:\n%s", out)
	}

	// Nothing must have been stored for the failed check.
	histOut := runBinary(t, bin, sqlitePath, mock.URL, "history")
	if !strings.Contains(histOut, "No logs found.") {
		t.Errorf("history not empty after failed check; got:\n%s", histOut)
	}
}

func TestSmoke_InteractiveMenu(t *testing.T) {
	repoRoot := repoRootPath(t)
	sqlitePath := startSQLite(t)
	mock := startMockProvider(t)
	bin := buildBinary(t, repoRoot)

	cmd := exec.Command(bin)
	cmd.Env = binaryEnv(sqlitePath, mock.URL)
	cmd.Stdin = strings.NewReader("1\nParis\n2\n3\n")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("start menu: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-time.After(30 * time.Second):
		_ = cmd.Process.Kill()
		t.Fatalf("menu did not exit in time; output so far:\n%s", out.String())
	case err := <-done:
		if err != nil {
			t.Fatalf("menu exited with error: %v\noutput:\n%s", err, out.String())
		}
	}

	got := out.String()
	for _, want := range []string{
		"CITY: Paris",
		"Weather data for Paris logged successfully!",
		"RECENT WEATHER LOGS",
		"1. Paris | 32.21°C | 25% | 1011 hPa",
		"Goodbye!",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("menu output missing %q; got:\n%s", want, got)
		}
	}
}

// startMockProvider serves OpenWeatherMap-shaped responses for the
// binary under test.
func startMockProvider(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("appid") != "e2e-key" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key."}`))
			return
		}
		switch r.URL.Query().Get("q") {
		case "London":
			_, _ = w.Write([]byte(londonBody))
		case "Paris":
			_, _ = w.Write([]byte(parisBody))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func binaryEnv(sqlitePath, baseURL string) []string {
	return append(os.Environ(),
		"APP_ENV=dev",
		"LOG_LEVEL=info",
		"DB_DRIVER=sqlite3",
		"SQLITE_PATH="+sqlitePath,
		"OPENWEATHER_API_KEY=e2e-key",
		"WEATHER_BASE_URL="+baseURL,
		"HISTORY_LIMIT=5",
	)
}

func runBinary(t *testing.T, bin, sqlitePath, baseURL string, args ...string) string {
	t.Helper()

	cmd := exec.Command(bin, args...)
	cmd.Env = binaryEnv(sqlitePath, baseURL)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("%s %v: %v\noutput:\n%s", filepath.Base(bin), args, err, out.String())
	}
	return out.String()
}

func startSQLite(t *testing.T) string {
	t.Helper()

	// Host temp dir that will contain weather_data.db
	hostDir := t.TempDir()
	dbPath := filepath.Join(hostDir, "weather_data.db")

	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:      "nouchka/sqlite3:latest",
		WorkingDir: "/data",
		// Create the DB file and keep container alive
		Entrypoint: []string{"sh", "-c"},
		Cmd: []string{
			"sqlite3 /data/weather_data.db \"PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON;\" && " +
				"echo 'sqlite ready' && " +
				"tail -f /dev/null",
		},

		HostConfigModifier: func(hc *container.HostConfig) {
			hc.Binds = append(hc.Binds, hostDir+":/data")
		},
		WaitingFor: wait.ForLog("sqlite ready").WithStartupTimeout(30 * time.Second),
	}

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start sqlite container: %v", err)
	}

	t.Cleanup(func() {
		_ = c.Terminate(ctx)
	})

	// Ensure file exists on host (container created it in the bind mount)
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("sqlite db file not created: %v", err)
	}

	return dbPath
}

func repoRootPath(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}

	repo := filepath.Clean(filepath.Join(wd, repoRootRel))
	if _, err := os.Stat(filepath.Join(repo, "go.mod")); err != nil {
		t.Fatalf("repo root %q does not contain go.mod: %v", repo, err)
	}

	return repo
}

func buildBinary(t *testing.T, repoRoot string) string {
	t.Helper()

	tmp := t.TempDir()
	out := filepath.Join(tmp, "weatherlog")

	build := exec.Command("go", "build", "-o", out, mainPkgRel)
	build.Dir = repoRoot
	build.Env = os.Environ()

	b, err := build.CombinedOutput()
	if err != nil {
		t.Fatalf("go build failed: %v\n%s", err, string(b))
	}

	return out
}
