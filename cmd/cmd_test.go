package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Rana718/querygraft/internal/config"
	"github.com/Rana718/querygraft/template"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	defer rootCmd.SetOut(nil)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestVarsCommand(t *testing.T) {
	out, err := execute(t, "vars", "select * from t where a = ${a} and b = ${b} or c = ${a}")
	if err != nil {
		t.Fatalf("vars failed: %v", err)
	}
	if out != "a\nb\na\n" {
		t.Errorf("vars output = %q", out)
	}
}

func TestAnalyzeCommand(t *testing.T) {
	out, err := execute(t, "--source", "none", "analyze", "select id, name from doctor where id = ${doctorId}")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	var doc struct {
		Tables    []string `json:"tables"`
		Variables []string `json:"variables"`
		Filter    struct {
			Where  map[string]any `json:"where"`
			Fields []string       `json:"fields"`
		} `json:"filter"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if !reflect.DeepEqual(doc.Tables, []string{"doctor"}) || !reflect.DeepEqual(doc.Variables, []string{"doctorId"}) {
		t.Errorf("unexpected descriptor: %+v", doc)
	}
	if doc.Filter.Where["id"] != "doctorId" {
		t.Errorf("where = %v", doc.Filter.Where)
	}
}

func TestAnalyzeCommandYAML(t *testing.T) {
	out, err := execute(t, "--source", "none", "analyze", "--format", "yaml", "--query", "select * from doctor limit 5")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if !strings.Contains(out, "includeAll: true") || !strings.Contains(out, "limit: 5") {
		t.Errorf("unexpected yaml:\n%s", out)
	}
}

func TestAnalyzeCommandSQL(t *testing.T) {
	out, err := execute(t, "--source", "none", "analyze", "--sql", "select count(*) from doctor where id = ${id}")
	if err != nil {
		t.Fatalf("analyze --sql failed: %v", err)
	}
	for _, want := range []string{"SELECT * FROM doctor WHERE id = $1;", "SELECT COUNT(*) FROM doctor WHERE id = $1;", "-- args: [${id}]"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "--source", "none", "analyze", "--sql", "--var", "id=7", "select id from doctor where id = ${id}")
	if err != nil {
		t.Fatalf("analyze --sql --var failed: %v", err)
	}
	if !strings.Contains(out, "-- args: [7]") {
		t.Errorf("variable not bound:\n%s", out)
	}
}

func TestAnalyzeCommandErrors(t *testing.T) {
	if _, err := execute(t, "--source", "none", "analyze", "update doctor set name = 'x'"); err == nil {
		t.Error("expected error for non-SELECT statement")
	}
	if _, err := execute(t, "--source", "none", "analyze", "--file", filepath.Join(t.TempDir(), "missing.sql")); err == nil {
		t.Error("expected error for missing query file")
	}
}

func TestParseVars(t *testing.T) {
	got, err := parseVars([]string{"id=7", "name=a=b"})
	if err != nil {
		t.Fatalf("parseVars failed: %v", err)
	}
	if !reflect.DeepEqual(got, map[string]string{"id": "7", "name": "a=b"}) {
		t.Errorf("parseVars = %v", got)
	}
	if _, err := parseVars([]string{"oops"}); err == nil {
		t.Error("expected error for missing '='")
	}
}

func TestInitializeProject(t *testing.T) {
	root := t.TempDir()
	if err := initializeProject(root, template.SQLite); err != nil {
		t.Fatalf("initializeProject failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, config.FileName+".json"))
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	var cfg config.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("config is not JSON: %v", err)
	}
	if cfg.Database.Provider != "sqlite" || cfg.Metadata.Source != "schema" {
		t.Errorf("unexpected config: %+v", cfg)
	}

	for _, name := range []string{"db/schema/doctor.sql", "db/queries/doctor.sql", ".env"} {
		if _, err := os.Stat(filepath.Join(root, name)); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}

	custom := filepath.Join(root, "db/queries/doctor.sql")
	if err := os.WriteFile(custom, []byte("-- mine"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := initializeProject(root, template.SQLite); err != nil {
		t.Fatalf("second initializeProject failed: %v", err)
	}
	if data, _ := os.ReadFile(custom); string(data) != "-- mine" {
		t.Error("existing query file was overwritten")
	}
}

func TestHandleEnvFile(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envPath, []byte("APP=1"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := handleEnvFile(envPath, "DATABASE_URL=sqlite://./x\n"); err != nil {
		t.Fatalf("handleEnvFile failed: %v", err)
	}
	data, _ := os.ReadFile(envPath)
	if !strings.HasPrefix(string(data), "APP=1\n") || !strings.Contains(string(data), "DATABASE_URL=sqlite://./x") {
		t.Errorf(".env = %q", data)
	}

	before := string(data)
	handleEnvFile(envPath, "DATABASE_URL=other\n")
	if after, _ := os.ReadFile(envPath); string(after) != before {
		t.Error("DATABASE_URL appended twice")
	}
}
