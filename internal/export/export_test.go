package export

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/triviadash/internal/model"
	"github.com/verte-zerg/triviadash/internal/stats"
)

func testReport() stats.Report {
	categories := []model.Category{{ID: 9, Name: "General Knowledge"}, {ID: 21, Name: "Sports"}}
	counts := []model.CategoryQuestionCount{
		{CategoryID: 9, Counts: model.DifficultyCounts{Total: 50, Easy: 20, Medium: 20, Hard: 10}},
		{CategoryID: 21, Counts: model.DifficultyCounts{Total: 10, Easy: 5, Medium: 5}},
	}
	return stats.BuildReport(model.ModeDatabase, 0, categories, counts, nil)
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatText, "JSON": FormatJSON, "yml": FormatYAML, "xlsx": FormatXLSX}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, testReport()); err != nil {
		t.Fatalf("write json: %v", err)
	}
	var decoded struct {
		Mode  string `json:"mode"`
		Total int    `json:"total_questions"`
		Bars  []struct {
			Name      string `json:"name"`
			Questions int    `json:"questions"`
		} `json:"bars"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if decoded.Mode != "database" || decoded.Total != 60 || len(decoded.Bars) != 2 || decoded.Bars[0].Name != "General Knowledge" {
		t.Fatalf("unexpected json report: %+v", decoded)
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatYAML, testReport()); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	var decoded map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if decoded["total_questions"] != 60 {
		t.Fatalf("unexpected total: %v", decoded["total_questions"])
	}
	if _, ok := decoded["categories"]; ok {
		t.Fatal("category list should not be exported")
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatText, testReport()); err != nil {
		t.Fatalf("write text: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Questions by Category", "Questions by Difficulty", "General Knowledge"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestWriteRejectsXLSXStream(t *testing.T) {
	if err := Write(&bytes.Buffer{}, FormatXLSX, testReport()); err == nil {
		t.Fatal("expected error for xlsx stream")
	}
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	if err := WriteXLSX(path, testReport()); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	t.Cleanup(func() {
		_ = f.Close()
	})

	rows, err := f.GetRows(categoriesSheet)
	if err != nil {
		t.Fatalf("read categories: %v", err)
	}
	if len(rows) != 3 || rows[1][1] != "General Knowledge" || rows[1][2] != "50" {
		t.Fatalf("unexpected category rows: %v", rows)
	}

	rows, err = f.GetRows(difficultySheet)
	if err != nil {
		t.Fatalf("read difficulty: %v", err)
	}
	if len(rows) != 5 || rows[1][0] != "easy" || rows[1][1] != "25" || rows[4][1] != "60" {
		t.Fatalf("unexpected difficulty rows: %v", rows)
	}
}
