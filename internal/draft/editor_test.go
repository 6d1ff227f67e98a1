package draft

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/debemdeboas/yasny-slukh/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func counterIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newEditor(clientIDs bool) *Editor {
	return NewEditor(Options{
		ClientIDs: clientIDs,
		NewID:     counterIDs(),
		Now:       func() time.Time { return fixedNow },
	})
}

func seeded() *model.Snapshot {
	s := model.NewSnapshot()
	s.Products = []model.Product{
		{ID: "p1", Name: "Phonak", Price: "100", Specs: "BTE"},
		{ID: "p2", Name: "Oticon", Price: "200"},
	}
	s.Services = []model.Service{{ID: "s1", Title: "Fitting", Icon: "Ear"}}
	s.Articles = []model.Article{{Title: "No id yet"}}
	s.About = []model.AboutItem{{ID: "a1", Title: "Since 1999"}}
	s.Advantages = []model.Advantage{{ID: "v1", Title: "Warranty"}}
	s.Partners = []model.Partner{{ID: "r1", Name: "Signia"}}
	s.Hero = model.Hero{Title: "Hear", HighlightedText: "clearly"}
	s.Orders = []model.Order{{ID: "o1", Status: model.StatusNew, Items: []model.LineItem{{Name: "aid", Quantity: 1}}}}
	return s
}

func fieldsOf(t *testing.T, v any) map[string]any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestAddThenDeleteRestores(t *testing.T) {
	for _, clientIDs := range []bool{false, true} {
		for _, kind := range model.EditableKinds {
			t.Run(fmt.Sprintf("%s/client_ids=%v", kind, clientIDs), func(t *testing.T) {
				e := newEditor(clientIDs)
				before := seeded()

				added, key, err := e.Add(before, kind)
				require.NoError(t, err)
				assert.Equal(t, before.Len(kind)+1, added.Len(kind))

				restored, err := e.Delete(added, kind, key)
				require.NoError(t, err)
				assert.Equal(t, seeded(), restored)
			})
		}
	}
}

func TestAddDefaults(t *testing.T) {
	e := newEditor(false)
	s := model.NewSnapshot()

	s, key, err := e.Add(s, model.KindServices)
	require.NoError(t, err)
	assert.Equal(t, "@0", key)
	assert.Equal(t, DefaultServiceIcon, s.Services[0].Icon)
	assert.Empty(t, s.Services[0].ID)

	s, _, err = e.Add(s, model.KindAbout)
	require.NoError(t, err)
	assert.Equal(t, DefaultAboutIcon, s.About[0].Icon)

	s, _, err = e.Add(s, model.KindAdvantages)
	require.NoError(t, err)
	assert.Equal(t, DefaultAdvantageIcon, s.Advantages[0].Icon)

	s, _, err = e.Add(s, model.KindArticles)
	require.NoError(t, err)
	assert.Equal(t, "14.03.2026", s.Articles[0].Date)

	s, _, err = e.Add(s, model.KindProducts)
	require.NoError(t, err)
	assert.Equal(t, model.Product{}, s.Products[0])
}

func TestAddClientIDs(t *testing.T) {
	e := newEditor(true)
	s := model.NewSnapshot()

	s, k1, err := e.Add(s, model.KindProducts)
	require.NoError(t, err)
	s, k2, err := e.Add(s, model.KindProducts)
	require.NoError(t, err)

	assert.Equal(t, "id-1", k1)
	assert.Equal(t, "id-2", k2)
	assert.Equal(t, []string{"id-1", "id-2"}, []string{s.Products[0].ID, s.Products[1].ID})
}

func TestUpdateTouchesOneField(t *testing.T) {
	e := newEditor(false)

	for _, kind := range model.EditableKinds {
		for _, field := range model.Fields(kind) {
			t.Run(fmt.Sprintf("%s.%s", kind, field), func(t *testing.T) {
				before := seeded()
				keys, err := e.Keys(before, kind)
				require.NoError(t, err)
				require.NotEmpty(t, keys)

				after, err := e.Update(before, kind, keys[0], field, "changed")
				require.NoError(t, err)

				beforeRecs, err := before.EncodeRecords(kind)
				require.NoError(t, err)
				afterRecs, err := after.EncodeRecords(kind)
				require.NoError(t, err)
				require.Len(t, afterRecs, len(beforeRecs))

				for i := range beforeRecs {
					b := fieldsOf(t, beforeRecs[i].Data)
					a := fieldsOf(t, afterRecs[i].Data)
					if i != 0 {
						assert.Equal(t, b, a, "record %d changed", i)
						continue
					}
					assert.Equal(t, "changed", a[field])
					delete(a, field)
					delete(b, field)
					assert.Equal(t, b, a)
				}

				// Every other collection is untouched
				for _, other := range model.EditableKinds {
					if other == kind {
						continue
					}
					o1, _ := before.EncodeRecords(other)
					o2, _ := after.EncodeRecords(other)
					assert.Equal(t, o1, o2)
				}
				assert.Equal(t, before.Hero, after.Hero)
				assert.Equal(t, before.Orders, after.Orders)
			})
		}
	}
}

func TestOperationsArePure(t *testing.T) {
	e := newEditor(true)
	s := seeded()
	orig := s.Clone()

	_, _, err := e.Add(s, model.KindProducts)
	require.NoError(t, err)
	_, err = e.Update(s, model.KindProducts, "p1", "name", "Widex")
	require.NoError(t, err)
	_, err = e.Delete(s, model.KindProducts, "p2")
	require.NoError(t, err)
	_, err = e.SetHero(s, "title", "Listen")
	require.NoError(t, err)

	assert.Equal(t, orig, s)
}

func TestPositionalKeys(t *testing.T) {
	e := newEditor(false)
	s := seeded()

	keys, err := e.Keys(s, model.KindArticles)
	require.NoError(t, err)
	require.Equal(t, []string{"@0"}, keys)
	assert.True(t, IsPositional(keys[0]))

	s, err = e.Update(s, model.KindArticles, "@0", "content", "# Body")
	require.NoError(t, err)
	assert.Equal(t, "# Body", s.Articles[0].Content)

	_, err = e.Update(s, model.KindArticles, "@5", "content", "x")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestEditorErrors(t *testing.T) {
	e := newEditor(false)
	s := seeded()

	t.Run("Unknown record", func(t *testing.T) {
		out, err := e.Delete(s, model.KindProducts, "missing")
		assert.ErrorIs(t, err, ErrRecordNotFound)
		assert.Same(t, s, out)
	})

	t.Run("Unknown field", func(t *testing.T) {
		_, err := e.Update(s, model.KindProducts, "p1", "weight", "1")
		assert.ErrorIs(t, err, ErrUnknownField)
	})

	t.Run("Id is not writable", func(t *testing.T) {
		_, err := e.Update(s, model.KindProducts, "p1", "id", "p9")
		assert.ErrorIs(t, err, ErrUnknownField)
	})

	t.Run("Orders are read-only", func(t *testing.T) {
		_, _, err := e.Add(s, model.KindOrders)
		assert.ErrorIs(t, err, ErrReadOnlyKind)
		_, err = e.Delete(s, model.KindOrders, "o1")
		assert.ErrorIs(t, err, ErrReadOnlyKind)
	})

	t.Run("Unknown kind", func(t *testing.T) {
		_, _, err := e.Add(s, model.Kind("reviews"))
		assert.ErrorIs(t, err, ErrUnknownKind)
	})

	t.Run("Unknown hero field", func(t *testing.T) {
		_, err := e.SetHero(s, "banner", "x")
		assert.ErrorIs(t, err, ErrUnknownField)
	})
}

func TestSetHero(t *testing.T) {
	e := newEditor(false)
	s := seeded()

	out, err := e.SetHero(s, "subtitle", "Modern hearing aids")
	require.NoError(t, err)
	assert.Equal(t, "Modern hearing aids", out.Hero.Subtitle)
	assert.Equal(t, "Hear", out.Hero.Title)
	assert.Equal(t, s.Products, out.Products)
}

func TestCollectionKeyOf(t *testing.T) {
	c := Collection[model.Partner]{
		KeyOf: func(p model.Partner, _ int) string { return p.Name },
	}
	items := []model.Partner{{Name: "Signia"}, {Name: "Oticon"}}

	out, err := c.Delete(items, "Oticon")
	require.NoError(t, err)
	assert.Equal(t, []model.Partner{{Name: "Signia"}}, out)
	assert.Len(t, items, 2)
}
