package model

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/debemdeboas/yasny-slukh/internal/config"
)

func TestParseKind(t *testing.T) {
	for _, k := range append(EditableKinds, KindOrders) {
		got, err := ParseKind(string(k))
		if err != nil {
			t.Errorf("ParseKind(%q) returned error: %v", k, err)
		}
		if got != k {
			t.Errorf("ParseKind(%q) = %q", k, got)
		}
	}

	for _, bad := range []string{"", "hero", "bulk", "all", "Products"} {
		if _, err := ParseKind(bad); err == nil {
			t.Errorf("Expected error for kind %q", bad)
		}
	}

	if KindOrders.Editable() {
		t.Error("Orders must not be editable")
	}
}

func TestParseOrderStatus(t *testing.T) {
	for _, s := range []string{"new", "processing", "completed"} {
		st, err := ParseOrderStatus(s)
		if err != nil {
			t.Fatalf("ParseOrderStatus(%q) returned error: %v", s, err)
		}
		if st.String() != s {
			t.Errorf("Expected %q, got %q", s, st)
		}
	}

	_, err := ParseOrderStatus("shipped")
	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("Expected ErrInvalidStatus, got %v", err)
	}
}

func TestRecordWith(t *testing.T) {
	t.Run("Product fields", func(t *testing.T) {
		p := Product{ID: "p1", Name: "Old", Price: "10"}
		for _, field := range Fields(KindProducts) {
			updated, err := p.With(field, "v")
			if err != nil {
				t.Fatalf("With(%q) returned error: %v", field, err)
			}
			if updated.ID != "p1" {
				t.Errorf("With(%q) changed the id", field)
			}
		}

		updated, _ := p.With("price", "100")
		if updated.Price != "100" || updated.Name != "Old" {
			t.Errorf("Unexpected product after update: %+v", updated)
		}
		if p.Price != "10" {
			t.Error("With must not modify the receiver")
		}
	})

	t.Run("Unknown field", func(t *testing.T) {
		_, err := Partner{}.With("id", "x")
		if !errors.Is(err, ErrUnknownField) {
			t.Errorf("Expected ErrUnknownField, got %v", err)
		}
		_, err = Hero{}.With("banner", "x")
		if !errors.Is(err, ErrUnknownField) {
			t.Errorf("Expected ErrUnknownField, got %v", err)
		}
	})

	t.Run("Every listed field is writable", func(t *testing.T) {
		s := NewSnapshot()
		for _, kind := range EditableKinds {
			for _, field := range Fields(kind) {
				if !IsField(kind, field) {
					t.Errorf("IsField(%q, %q) = false", kind, field)
				}
			}
		}
		for _, field := range HeroFields() {
			if _, err := s.Hero.With(field, "x"); err != nil {
				t.Errorf("Hero.With(%q) returned error: %v", field, err)
			}
		}
	})
}

func TestSnapshotNormalize(t *testing.T) {
	s := &Snapshot{Orders: []Order{{ID: "o1"}}}
	s.Normalize()

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	for _, key := range []string{"products", "services", "articles", "about", "advantages", "partners"} {
		if string(decoded[key]) != "[]" {
			t.Errorf("Expected %s to encode as [], got %s", key, decoded[key])
		}
	}
	if s.Orders[0].Items == nil {
		t.Error("Expected order items to be normalized")
	}
}

func TestSnapshotClone(t *testing.T) {
	orig := NewSnapshot()
	orig.Products = append(orig.Products, Product{ID: "p1", Name: "A"})
	orig.Orders = append(orig.Orders, Order{ID: "o1", Items: []LineItem{{Name: "aid", Quantity: 1, Price: "5"}}})

	c := orig.Clone()
	if !reflect.DeepEqual(orig, c) {
		t.Fatalf("Clone differs from original")
	}

	c.Products[0].Name = "B"
	c.Orders[0].Items[0].Quantity = 7
	if orig.Products[0].Name != "A" {
		t.Error("Clone shares products with original")
	}
	if orig.Orders[0].Items[0].Quantity != 1 {
		t.Error("Clone shares line items with original")
	}
}

func TestSnapshotAssignIDs(t *testing.T) {
	s := NewSnapshot()
	s.Products = []Product{{ID: "keep"}, {Name: "new"}}
	s.Partners = []Partner{{Name: "p"}}

	n := 0
	s.AssignIDs(func() string {
		n++
		return "gen-" + string(rune('0'+n))
	})

	if s.Products[0].ID != "keep" {
		t.Errorf("Existing id was replaced: %q", s.Products[0].ID)
	}
	if s.Products[1].ID == "" || s.Partners[0].ID == "" {
		t.Error("Expected new records to receive ids")
	}
	if n != 2 {
		t.Errorf("Expected 2 generated ids, got %d", n)
	}
}

func TestRecordEncoding(t *testing.T) {
	s := NewSnapshot()
	s.Articles = []Article{{ID: "a1", Title: "Hello", Content: "# hi", Date: "01.02.2026"}}

	recs, err := s.EncodeRecords(KindArticles)
	if err != nil {
		t.Fatalf("EncodeRecords failed: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "a1" {
		t.Fatalf("Unexpected records: %+v", recs)
	}

	back := NewSnapshot()
	if err := back.AppendRecord(KindArticles, "stored-id", recs[0].Data); err != nil {
		t.Fatalf("AppendRecord failed: %v", err)
	}
	if back.Articles[0].ID != "stored-id" {
		t.Errorf("Expected stored id to win, got %q", back.Articles[0].ID)
	}
	if back.Articles[0].Title != "Hello" {
		t.Errorf("Expected title Hello, got %q", back.Articles[0].Title)
	}

	if _, err := s.EncodeRecords(KindOrders); err == nil {
		t.Error("Expected error encoding orders as editable records")
	}

	rec, err := DecodeRecord(KindPartners, []byte(`{"id":"x1","name":"Oticon","logo":"o.png","extra":1}`))
	if err != nil {
		t.Fatalf("DecodeRecord failed: %v", err)
	}
	if rec.ID != "x1" {
		t.Errorf("Expected id x1, got %q", rec.ID)
	}
	if string(rec.Data) != `{"name":"Oticon","logo":"o.png"}` {
		t.Errorf("Unexpected canonical form: %s", rec.Data)
	}
}

func TestSnapshotLookups(t *testing.T) {
	s := NewSnapshot()
	s.Orders = []Order{{ID: "o1", Status: StatusNew, CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}}
	s.Articles = []Article{{ID: "a1"}}

	if _, ok := s.Order("o1"); !ok {
		t.Error("Expected order o1")
	}
	if _, ok := s.Order("missing"); ok {
		t.Error("Did not expect order 'missing'")
	}
	if _, ok := s.Article("a1"); !ok {
		t.Error("Expected article a1")
	}
	if s.Len(KindOrders) != 1 || s.Len(KindProducts) != 0 {
		t.Error("Unexpected Len results")
	}

	w := s.WithOrders(nil)
	if w.Orders == nil || len(w.Orders) != 0 {
		t.Error("WithOrders(nil) should yield an empty list")
	}
	if len(s.Orders) != 1 {
		t.Error("WithOrders must not modify the receiver")
	}
}

func TestNewPageData(t *testing.T) {
	originalConfig := config.AppConfig
	defer func() { config.AppConfig = originalConfig }()

	config.AppConfig = &config.Config{
		Site: config.SiteConfig{
			Name:    "Test Site",
			Tagline: "Test Tagline",
		},
		Theme: config.ThemeConfig{Default: config.DarkTheme},
	}

	t.Run("Defaults from config", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test/path", nil)
		pd := NewPageData(req)

		if pd.SiteName != "Test Site" {
			t.Errorf("Expected SiteName 'Test Site', got %s", pd.SiteName)
		}
		if pd.Tagline != "Test Tagline" {
			t.Errorf("Expected Tagline 'Test Tagline', got %s", pd.Tagline)
		}
		if pd.PageURL != "/test/path" {
			t.Errorf("Expected PageURL '/test/path', got %s", pd.PageURL)
		}
		if pd.Theme != config.DarkTheme {
			t.Errorf("Expected dark theme, got %s", pd.Theme)
		}
		if pd.IsAdmin() {
			t.Error("Expected public page")
		}
	})

	t.Run("Theme cookie", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: config.CookieTheme, Value: config.LightTheme})

		pd := NewPageData(req)
		if pd.Theme != config.LightTheme {
			t.Errorf("Expected light theme, got %s", pd.Theme)
		}
	})

	t.Run("Admin path", func(t *testing.T) {
		req := httptest.NewRequest("GET", config.AdminUrlPath+"orders", nil)
		if !NewPageData(req).IsAdmin() {
			t.Error("Expected admin page")
		}

		no := false
		pd := NewPageData(req)
		pd.IsAdminPage = &no
		if pd.IsAdmin() {
			t.Error("Explicit flag should win over path")
		}
	})
}

func TestSnapshotReplaceRemove(t *testing.T) {
	s := NewSnapshot()
	s.Partners = []Partner{{ID: "r1", Name: "Signia"}, {ID: "r2", Name: "Oticon"}}

	ok, err := s.ReplaceRecord(KindPartners, "r2", []byte(`{"id":"ignored","name":"Widex","logo":"w.png"}`))
	if err != nil || !ok {
		t.Fatalf("ReplaceRecord = %v, %v", ok, err)
	}
	if s.Partners[1] != (Partner{ID: "r2", Name: "Widex", Logo: "w.png"}) {
		t.Errorf("Unexpected partner %+v", s.Partners[1])
	}

	if ok, _ := s.ReplaceRecord(KindPartners, "missing", []byte(`{}`)); ok {
		t.Error("Did not expect to replace a missing record")
	}
	if _, err := s.ReplaceRecord(KindOrders, "o1", []byte(`{}`)); err == nil {
		t.Error("Expected error replacing an order")
	}

	if !s.RemoveRecord(KindPartners, "r1") {
		t.Error("Expected r1 to be removed")
	}
	if s.RemoveRecord(KindPartners, "r1") {
		t.Error("Did not expect r1 twice")
	}
	if len(s.Partners) != 1 || s.Partners[0].ID != "r2" {
		t.Errorf("Unexpected partners %+v", s.Partners)
	}
}
