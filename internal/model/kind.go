package model

import "fmt"

// Kind names a content collection. The value doubles as the JSON key of the
// collection in a Snapshot and as the `type` query parameter of the data API.
type Kind string

const (
	KindProducts   Kind = "products"
	KindServices   Kind = "services"
	KindArticles   Kind = "articles"
	KindAbout      Kind = "about"
	KindAdvantages Kind = "advantages"
	KindPartners   Kind = "partners"
	KindOrders     Kind = "orders"
)

// EditableKinds are the list collections an admin edits directly, in tab order.
var EditableKinds = []Kind{
	KindProducts,
	KindServices,
	KindArticles,
	KindAbout,
	KindAdvantages,
	KindPartners,
}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if k == KindOrders || k.Editable() {
		return k, nil
	}
	return "", fmt.Errorf("unknown collection: %q", s)
}

func (k Kind) Editable() bool {
	for _, e := range EditableKinds {
		if e == k {
			return true
		}
	}
	return false
}

func (k Kind) String() string { return string(k) }
