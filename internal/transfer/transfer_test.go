package transfer

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/debemdeboas/yasny-slukh/internal/model"
)

func sample() *model.Snapshot {
	s := model.NewSnapshot()
	s.Products = []model.Product{{ID: "p1", Name: "Phonak Audeo", Price: "100", Specs: "RIC"}, {Name: "unsaved"}}
	s.Services = []model.Service{{ID: "s1", Title: "Fitting", Icon: "Wrench", Link: "/book"}}
	s.Articles = []model.Article{{ID: "a1", Title: "Care", Content: "# Clean daily", Date: "01.02.2026"}}
	s.About = []model.AboutItem{{ID: "b1", Title: "Since 1999", Icon: "Info"}}
	s.Advantages = []model.Advantage{{ID: "v1", Title: "Warranty", Icon: "Star"}}
	s.Partners = []model.Partner{{ID: "r1", Name: "Signia", Logo: "signia.png"}}
	s.Hero = model.Hero{Title: "Hear", HighlightedText: "clearly", Subtitle: "again", Description: "d"}
	s.Orders = []model.Order{{
		ID:           "o1",
		CustomerName: "Ivan",
		Items:        []model.LineItem{{Name: "Phonak Audeo", Quantity: 2, Price: "100"}},
		TotalAmount:  "200",
		Status:       model.StatusProcessing,
		CreatedAt:    time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
	}}
	return s
}

func TestExportImportRoundTrip(t *testing.T) {
	orig := sample()
	now := time.Date(2026, 10, 19, 23, 0, 0, 0, time.UTC)

	doc, err := Export(orig, now)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if doc.Filename != "admin-data-2026-10-19.json" {
		t.Errorf("Unexpected filename %q", doc.Filename)
	}
	if !strings.Contains(string(doc.Body), "\n  \"products\": [") {
		t.Errorf("Expected indented output, got %s", doc.Body)
	}

	back, err := Import(strings.NewReader(string(doc.Body)))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	again, err := Export(back, now)
	if err != nil {
		t.Fatalf("Second export failed: %v", err)
	}
	if string(again.Body) != string(doc.Body) {
		t.Errorf("Round trip changed the document:\n%s\n---\n%s", doc.Body, again.Body)
	}
	if !back.Orders[0].CreatedAt.Equal(orig.Orders[0].CreatedAt) {
		t.Errorf("Order time changed: %v", back.Orders[0].CreatedAt)
	}
	if back.Products[1].ID != "" {
		t.Error("Records without ids must stay new")
	}
}

func TestExportKeyOrder(t *testing.T) {
	doc, err := Export(model.NewSnapshot(), time.Now())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	body := string(doc.Body)
	last := -1
	for _, key := range []string{"products", "services", "articles", "about", "advantages", "partners", "hero", "orders"} {
		i := strings.Index(body, `"`+key+`"`)
		if i < 0 {
			t.Fatalf("Missing key %s", key)
		}
		if i < last {
			t.Errorf("Key %s is out of order", key)
		}
		last = i
	}
}

func TestImportLenient(t *testing.T) {
	s, err := Import(strings.NewReader(`{"products":[{"id":"p1","name":"X","color":"red"}],"reviews":[1,2]}`))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(s.Products) != 1 || s.Products[0].Name != "X" {
		t.Errorf("Unexpected products %+v", s.Products)
	}
	if s.Services == nil || len(s.Services) != 0 {
		t.Error("Missing collections should be empty")
	}
	if s.Orders == nil {
		t.Error("Missing orders should be empty")
	}
}

func TestImportFormatErrors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"Empty", ""},
		{"Not JSON", "products: []"},
		{"Truncated", `{"products": [`},
		{"Array", `[{"name":"X"}]`},
		{"Null", "null"},
		{"Wrong shape", `{"products": "none"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Import(strings.NewReader(tc.input))
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("Expected FormatError, got %v", err)
			}
			if fe.Error() == "" {
				t.Error("Expected a message")
			}
		})
	}
}

func TestImportTooLarge(t *testing.T) {
	big := strings.NewReader(`{"products":"` + strings.Repeat("x", MaxDocumentSize) + `"}`)
	_, err := Import(big)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected FormatError, got %v", err)
	}
}
