package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/triviadash/internal/config"
	"github.com/verte-zerg/triviadash/internal/model"
)

func fakeTriviaServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api_category.php":
			_, _ = fmt.Fprint(w, `{"trivia_categories":[{"id":9,"name":"General Knowledge"},{"id":21,"name":"Sports"}]}`)
		case "/api_count.php":
			switch r.URL.Query().Get("category") {
			case "9":
				_, _ = fmt.Fprint(w, `{"category_id":9,"category_question_count":{"total_question_count":50,"total_easy_question_count":20,"total_medium_question_count":20,"total_hard_question_count":10}}`)
			default:
				http.Error(w, "boom", http.StatusInternalServerError)
			}
		case "/api.php":
			_, _ = fmt.Fprint(w, `{"response_code":0,"results":[{"type":"boolean","difficulty":"easy","category":"Sports","question":"Q","correct_answer":"True","incorrect_answers":["False"]}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv(config.EnvBaseURL, "")
	t.Setenv(config.EnvDBPath, "")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCategoriesCommand(t *testing.T) {
	isolateEnv(t)
	server := fakeTriviaServer(t)

	out, err := execute(t, "categories", "--base-url", server.URL)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	for _, want := range []string{"Found 2 categories", "#9", "General Knowledge", "Sports"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestCountsCommandSkipsFailedCategory(t *testing.T) {
	isolateEnv(t)
	server := fakeTriviaServer(t)

	out, err := execute(t, "counts", "--base-url", server.URL, "--delay", "0s")
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if !strings.Contains(out, "1 category with 50 total questions") {
		t.Fatalf("expected summary in output:\n%s", out)
	}
	if strings.Contains(out, "Sports") {
		t.Fatalf("failed category should be skipped:\n%s", out)
	}
}

func TestReportCommandJSON(t *testing.T) {
	isolateEnv(t)
	server := fakeTriviaServer(t)
	path := filepath.Join(t.TempDir(), "report.json")

	if _, err := execute(t, "report", "--base-url", server.URL, "--format", "json", "--mode", "sample", "--sample-size", "10", "--out", path); err != nil {
		t.Fatalf("report: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var decoded struct {
		Mode       string `json:"mode"`
		SampleSize int    `json:"sample_size"`
		Total      int    `json:"total_questions"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if decoded.Mode != "sample" || decoded.SampleSize != 10 || decoded.Total != 1 {
		t.Fatalf("unexpected report: %+v", decoded)
	}
}

func TestReportCommandRequiresOutForXLSX(t *testing.T) {
	isolateEnv(t)
	if _, err := execute(t, "report", "--format", "xlsx"); err == nil {
		t.Fatal("expected error without --out")
	}
}

func TestSnapshotAndHistoryCommands(t *testing.T) {
	isolateEnv(t)
	server := fakeTriviaServer(t)
	db := filepath.Join(t.TempDir(), "history.db")

	out, err := execute(t, "snapshot", "--base-url", server.URL, "--delay", "0s", "--db", db)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !strings.Contains(out, "Recorded snapshot #1 (1 categories, 50 questions)") {
		t.Fatalf("unexpected snapshot output:\n%s", out)
	}

	out, err = execute(t, "history", "--db", db, "--show", "1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "General Knowledge") {
		t.Fatalf("expected snapshot rows:\n%s", out)
	}
}

func TestResolveSettingsLayers(t *testing.T) {
	isolateEnv(t)
	cfgPath := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := "[api]\nbase-url = \"http://file.example\"\ndelay = \"1s\"\n\n[dashboard]\nmode = \"sample\"\nsample-size = 30\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(config.EnvBaseURL, "http://env.example")

	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--sample-size", "40"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	settings, err := resolveSettings(cmd)
	if err != nil {
		t.Fatalf("resolve settings: %v", err)
	}
	if settings.BaseURL != "http://env.example" {
		t.Fatalf("expected env base URL, got %q", settings.BaseURL)
	}
	if settings.RequestDelay != time.Second {
		t.Fatalf("expected file delay, got %s", settings.RequestDelay)
	}
	if settings.Mode != model.ModeSample {
		t.Fatalf("expected file mode, got %s", settings.Mode)
	}
	if settings.SampleSize != 40 {
		t.Fatalf("expected flag sample size, got %d", settings.SampleSize)
	}
}

func TestValidateSettings(t *testing.T) {
	base := model.Settings{BaseURL: "https://opentdb.com", SampleSize: 50, DBPath: "x.db"}
	if err := validateSettings(base); err != nil {
		t.Fatalf("expected valid settings: %v", err)
	}
	cases := map[string]func(*model.Settings){
		"sample size low":  func(s *model.Settings) { s.SampleSize = 5 },
		"sample size high": func(s *model.Settings) { s.SampleSize = 55 },
		"negative delay":   func(s *model.Settings) { s.RequestDelay = -time.Second },
		"negative timeout": func(s *model.Settings) { s.Timeout = -time.Second },
		"bad scheme":       func(s *model.Settings) { s.BaseURL = "ftp://opentdb.com" },
		"empty db":         func(s *model.Settings) { s.DBPath = "" },
	}
	for name, mutate := range cases {
		s := base
		mutate(&s)
		if err := validateSettings(s); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestHistoryFilter(t *testing.T) {
	filter, err := historyFilter("sample", "2026-01-02", 3)
	if err != nil {
		t.Fatalf("history filter: %v", err)
	}
	if filter.Mode == nil || *filter.Mode != model.ModeSample || filter.Since == nil || filter.Last != 3 {
		t.Fatalf("unexpected filter: %+v", filter)
	}
	if _, err := historyFilter("", "yesterday", 0); err == nil {
		t.Fatal("expected error for bad date")
	}
	if _, err := historyFilter("", "", -1); err == nil {
		t.Fatal("expected error for negative last")
	}
}
