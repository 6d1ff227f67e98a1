// Package model defines the content records the site is built from.
package model

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownField is returned when a record has no field with the given name.
var ErrUnknownField = errors.New("unknown field")

func unknownField(kind Kind, field string) error {
	return fmt.Errorf("%w: %s.%s", ErrUnknownField, kind, field)
}

type Product struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	ImageURL    string `json:"imageUrl"`
	Price       string `json:"price"`
	Description string `json:"description"`
	Specs       string `json:"specs"`
}

func (p Product) GetID() string { return p.ID }

func (p Product) WithID(id string) Product {
	p.ID = id
	return p
}

func (p Product) With(field, value string) (Product, error) {
	switch field {
	case "name":
		p.Name = value
	case "imageUrl":
		p.ImageURL = value
	case "price":
		p.Price = value
	case "description":
		p.Description = value
	case "specs":
		p.Specs = value
	default:
		return p, unknownField(KindProducts, field)
	}
	return p, nil
}

// Service carries the fields of both catalog layouts; unused ones stay empty.
type Service struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Icon        string `json:"icon"`
	ImageURL    string `json:"imageUrl"`
	Contact     string `json:"contact"`
	Link        string `json:"link"`
}

func (s Service) GetID() string { return s.ID }

func (s Service) WithID(id string) Service {
	s.ID = id
	return s
}

func (s Service) With(field, value string) (Service, error) {
	switch field {
	case "title":
		s.Title = value
	case "name":
		s.Name = value
	case "description":
		s.Description = value
	case "price":
		s.Price = value
	case "icon":
		s.Icon = value
	case "imageUrl":
		s.ImageURL = value
	case "contact":
		s.Contact = value
	case "link":
		s.Link = value
	default:
		return s, unknownField(KindServices, field)
	}
	return s, nil
}

type Article struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Image   string `json:"image"`
	Date    string `json:"date"`
}

func (a Article) GetID() string { return a.ID }

func (a Article) WithID(id string) Article {
	a.ID = id
	return a
}

func (a Article) With(field, value string) (Article, error) {
	switch field {
	case "title":
		a.Title = value
	case "content":
		a.Content = value
	case "image":
		a.Image = value
	case "date":
		a.Date = value
	default:
		return a, unknownField(KindArticles, field)
	}
	return a, nil
}

type AboutItem struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

func (a AboutItem) GetID() string { return a.ID }

func (a AboutItem) WithID(id string) AboutItem {
	a.ID = id
	return a
}

func (a AboutItem) With(field, value string) (AboutItem, error) {
	switch field {
	case "title":
		a.Title = value
	case "description":
		a.Description = value
	case "icon":
		a.Icon = value
	default:
		return a, unknownField(KindAbout, field)
	}
	return a, nil
}

type Advantage struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

func (a Advantage) GetID() string { return a.ID }

func (a Advantage) WithID(id string) Advantage {
	a.ID = id
	return a
}

func (a Advantage) With(field, value string) (Advantage, error) {
	switch field {
	case "title":
		a.Title = value
	case "description":
		a.Description = value
	case "icon":
		a.Icon = value
	default:
		return a, unknownField(KindAdvantages, field)
	}
	return a, nil
}

type Partner struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Logo string `json:"logo"`
}

func (p Partner) GetID() string { return p.ID }

func (p Partner) WithID(id string) Partner {
	p.ID = id
	return p
}

func (p Partner) With(field, value string) (Partner, error) {
	switch field {
	case "name":
		p.Name = value
	case "logo":
		p.Logo = value
	default:
		return p, unknownField(KindPartners, field)
	}
	return p, nil
}

// Hero is the banner copy of the landing page. There is exactly one.
type Hero struct {
	Title           string `json:"title"`
	HighlightedText string `json:"highlightedText"`
	Subtitle        string `json:"subtitle"`
	Description     string `json:"description"`
}

func (h Hero) With(field, value string) (Hero, error) {
	switch field {
	case "title":
		h.Title = value
	case "highlightedText":
		h.HighlightedText = value
	case "subtitle":
		h.Subtitle = value
	case "description":
		h.Description = value
	default:
		return h, unknownField("hero", field)
	}
	return h, nil
}

// Record is the constraint every editable list record satisfies.
type Record[T any] interface {
	GetID() string
	WithID(id string) T
	With(field, value string) (T, error)
}

// Fields lists the editable field names of a kind in display order.
func Fields(kind Kind) []string {
	switch kind {
	case KindProducts:
		return []string{"name", "imageUrl", "price", "description", "specs"}
	case KindServices:
		return []string{"title", "name", "description", "price", "icon", "imageUrl", "contact", "link"}
	case KindArticles:
		return []string{"title", "content", "image", "date"}
	case KindAbout, KindAdvantages:
		return []string{"title", "description", "icon"}
	case KindPartners:
		return []string{"name", "logo"}
	}
	return nil
}

// HeroFields lists the hero fields in display order.
func HeroFields() []string {
	return []string{"title", "highlightedText", "subtitle", "description"}
}

// IsField reports whether field is an editable field of kind.
func IsField(kind Kind, field string) bool {
	return slices.Contains(Fields(kind), field)
}
