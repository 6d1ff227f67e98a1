package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/debemdeboas/yasny-slukh/internal/model"
)

const seedContent = `{
  "products": [{"id": "p1", "name": "Phonak Audeo", "price": "100"}],
  "hero": {"title": "Hear again"},
  "orders": [{"id": "o1", "customer_name": "Anna", "total_amount": "100", "status": "new"}]
}`

// run executes contentctl against a file backend at path.
func run(t *testing.T, path string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append([]string{
		"--config", filepath.Join(t.TempDir(), "missing.yaml"),
		"--backend", "file",
		"--file", path,
		"--log-level", "error",
	}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func seed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "content.json")
	if err := os.WriteFile(path, []byte(seedContent), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readStored(t *testing.T, path string) *model.Snapshot {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	s := model.NewSnapshot()
	if err := json.Unmarshal(data, s); err != nil {
		t.Fatalf("Stored file is not JSON: %v", err)
	}
	return s
}

func TestPull(t *testing.T) {
	path := seed(t)

	t.Run("Stdout", func(t *testing.T) {
		out, err := run(t, path, "pull")
		if err != nil {
			t.Fatalf("pull failed: %v", err)
		}
		if !strings.Contains(out, `"Phonak Audeo"`) || !strings.Contains(out, `"Hear again"`) {
			t.Errorf("Expected exported content, got %s", out)
		}
	})

	t.Run("Output file", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "export.json")
		if _, err := run(t, path, "pull", "-o", target); err != nil {
			t.Fatalf("pull failed: %v", err)
		}
		if s := readStored(t, target); len(s.Products) != 1 || s.Products[0].ID != "p1" {
			t.Errorf("Unexpected export %+v", s.Products)
		}
	})
}

func TestPush(t *testing.T) {
	path := seed(t)

	doc := filepath.Join(t.TempDir(), "doc.json")
	pushed := `{"products": [{"name": "Oticon More", "price": "200"}], "orders": []}`
	if err := os.WriteFile(doc, []byte(pushed), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, path, "push", doc)
	if err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if !strings.Contains(out, "products") {
		t.Errorf("Expected a summary, got %s", out)
	}

	s := readStored(t, path)
	if len(s.Products) != 1 || s.Products[0].Name != "Oticon More" || s.Products[0].ID == "" {
		t.Errorf("Expected pushed product with an id, got %+v", s.Products)
	}
	if s.Hero.Title != "" {
		t.Errorf("Expected hero replaced, got %q", s.Hero.Title)
	}
	if len(s.Orders) != 1 || s.Orders[0].ID != "o1" {
		t.Errorf("Orders must survive a push, got %+v", s.Orders)
	}

	if _, err := run(t, path, "push", filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("Expected missing file to fail")
	}
}

func TestStatus(t *testing.T) {
	path := seed(t)

	out, err := run(t, path, "status", "o1", "processing")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "processing") {
		t.Errorf("Unexpected output %q", out)
	}
	if s := readStored(t, path); s.Orders[0].Status != model.StatusProcessing {
		t.Errorf("Expected processing, got %q", s.Orders[0].Status)
	}

	if _, err := run(t, path, "status", "o1", "lost"); err == nil {
		t.Error("Expected invalid status to fail")
	}
	if _, err := run(t, path, "status", "nope", "new"); err == nil {
		t.Error("Expected unknown order to fail")
	}
	if _, err := run(t, path, "status", "o1"); err == nil {
		t.Error("Expected missing argument to fail")
	}
}

func TestBackendFromEnv(t *testing.T) {
	path := seed(t)
	t.Setenv("CONTENTCTL_BACKEND", "nope")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "--file", path, "pull"})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "nope") {
		t.Errorf("Expected the env backend to be used, got %v", err)
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, seed(t), "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "contentctl dev") {
		t.Errorf("Unexpected version %q", out)
	}
}

func TestParseArticle(t *testing.T) {
	testCases := []struct {
		name      string
		md        string
		wantTitle string
		wantBody  string
		wantErr   bool
	}{
		{
			name:      "Front matter",
			md:        "---\ntitle: Care tips\ndate: 2026-01-02\n---\nKeep them dry.",
			wantTitle: "Care tips",
			wantBody:  "Keep them dry.",
		},
		{
			name:     "No front matter",
			md:       "# Just content",
			wantBody: "# Just content",
		},
		{
			name:    "Unterminated",
			md:      "---\ntitle: Care tips\n",
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fm, body, err := parseArticle([]byte(tc.md))
			if tc.wantErr {
				if err == nil {
					t.Fatal("Expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if fm.Title != tc.wantTitle {
				t.Errorf("Expected title %q, got %q", tc.wantTitle, fm.Title)
			}
			if string(body) != tc.wantBody {
				t.Errorf("Expected body %q, got %q", tc.wantBody, body)
			}
		})
	}
}

func TestArticles(t *testing.T) {
	path := seed(t)
	dir := t.TempDir()
	files := map[string]string{
		"care.md":    "---\ntitle: Care tips\ndate: 2026-01-02\n---\nKeep them dry.",
		"fitting.md": "Book a fitting.",
		"notes.txt":  "ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := run(t, path, "articles", dir); err != nil {
		t.Fatalf("articles failed: %v", err)
	}

	s := readStored(t, path)
	if len(s.Articles) != 2 {
		t.Fatalf("Expected 2 articles, got %+v", s.Articles)
	}
	if s.Articles[0].Title != "Care tips" || s.Articles[0].Date != "2026-01-02" {
		t.Errorf("Unexpected first article %+v", s.Articles[0])
	}
	if s.Articles[1].Title != "fitting" || s.Articles[1].ID == "" {
		t.Errorf("Unexpected second article %+v", s.Articles[1])
	}
	if len(s.Products) != 1 {
		t.Error("Expected other collections to be kept")
	}

	if _, err := run(t, path, "articles", t.TempDir()); err == nil {
		t.Error("Expected an empty directory to fail")
	}
}
