package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sales-dashboard/internal/charts"
	"sales-dashboard/internal/dataset"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rc := NewRootCommand(strings.NewReader(""), &stdout, &stderr)
	rc.SetArgs(args)
	err := rc.Execute()
	return stdout.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	rc := NewRootCommand(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})

	for _, name := range []string{"charts", "generate", "report", "serve"} {
		if _, _, err := rc.Find([]string{name}); err != nil {
			t.Errorf("subcommand %q not registered: %v", name, err)
		}
	}
}

func TestGenerate_Stdout(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := run(t, "generate", "-o", "-", "-n", "5", "--seed", "1", "--end-date", "2024-06-30")
	if err != nil {
		t.Fatalf("generate error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines, want header + 5 rows:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "transaction_id,date,region") {
		t.Errorf("unexpected header %q", lines[0])
	}

	again, err := run(t, "generate", "-o", "-", "-n", "5", "--seed", "1", "--end-date", "2024-06-30")
	if err != nil {
		t.Fatal(err)
	}
	if again != out {
		t.Error("same seed should produce identical output")
	}
}

func TestGenerate_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "out.csv")

	out, err := run(t, "generate", "--output", path, "--sample-size", "12", "--regions", "North,South")
	if err != nil {
		t.Fatalf("generate error = %v", err)
	}
	if !strings.Contains(out, "wrote 12 transactions") {
		t.Errorf("unexpected output %q", out)
	}

	rows, err := dataset.ReadFile(t.Context(), path)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 12 {
		t.Fatalf("file has %d rows, want 12", len(rows))
	}
	for _, r := range rows {
		if r.Region != "North" && r.Region != "South" {
			t.Errorf("unexpected region %q", r.Region)
		}
	}
}

func TestGenerate_Env(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SALES_SAMPLE_SIZE", "3")

	out, err := run(t, "generate", "-o", "-")
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(strings.TrimSpace(out), "\n"); n != 3 {
		t.Errorf("env sample size: got %d rows, want 3", n)
	}
}

func TestGenerate_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	conf := filepath.Join(dir, "sales.toml")
	toml := "sample-size = 4\nchannels = [\"Online\"]\n"
	if err := os.WriteFile(conf, []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "generate", "-o", "-", "--config", conf)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(strings.TrimSpace(out), "\n"); n != 4 {
		t.Errorf("config file sample size: got %d rows, want 4", n)
	}
	if strings.Contains(out, ",Store,") || strings.Contains(out, ",Partner,") {
		t.Error("config file channels should restrict the output to Online")
	}

	// flags beat the file
	out, err = run(t, "generate", "-o", "-", "--config", conf, "-n", "2")
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(strings.TrimSpace(out), "\n"); n != 2 {
		t.Errorf("flag sample size: got %d rows, want 2", n)
	}
}

func TestGenerate_InvalidParameters(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := [][]string{
		{"generate", "-o", "-", "-n", "0"},
		{"generate", "-o", "-", "--seed", "abc"},
		{"generate", "-o", "-", "--regions", "North,North"},
	}
	for _, args := range tests {
		if _, err := run(t, args...); err == nil {
			t.Errorf("%v should fail", args)
		}
	}
}

func TestReport(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := run(t, "report", "-n", "100", "--seed", "42", "--regions", "North,South,East", "--channels", "Online,Store")
	if err != nil {
		t.Fatalf("report error = %v", err)
	}
	for _, want := range []string{"Total Revenue:", "Profit Margin:", "Revenue by Region", "North", "Monthly Revenue"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if strings.Contains(out, "West") {
		t.Error("report should only list configured regions")
	}

	filtered, err := run(t, "report", "-n", "100", "--region", "North")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(filtered, "South") {
		t.Error("region filter should drop other regions from the report")
	}
}

func TestReport_Input(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "in.csv")
	csv := "date,region,channel,product,customer_id,quantity,revenue,cost\n" +
		"2024-01-01,North,Online,Laptop,C1,1,100,60\n" +
		"2024-01-02,South,Store,Mouse,C2,2,50,30\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "report", "--input", path)
	if err != nil {
		t.Fatalf("report error = %v", err)
	}
	if !strings.Contains(out, "$150.00") {
		t.Errorf("report should total the imported revenue:\n%s", out)
	}
}

func TestCharts(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	chartsDir := filepath.Join(dir, "png")

	out, err := run(t, "charts", "-n", "50", "--dir", chartsDir)
	if err != nil {
		t.Fatalf("charts error = %v", err)
	}
	for _, name := range charts.Files() {
		if !strings.Contains(out, name) {
			t.Errorf("output missing %s", name)
		}
		if _, err := os.Stat(filepath.Join(chartsDir, name)); err != nil {
			t.Errorf("chart not written: %v", err)
		}
	}
}
