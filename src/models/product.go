package models

type MProduct struct {
	ID       int     `json:"producto_id"`
	Name     string  `json:"nombre"`
	Price    float64 `json:"precio"`
	Quantity int     `json:"cantidad"`
	Category string  `json:"categoria"`
}

type MProductList struct {
	Products  []MProduct `json:"productos"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"cantidad_items"`
}

// MProductLists holds the three variants produced for every session.
type MProductLists struct {
	Exact    MProductList `json:"lista_exacta"`
	Superior MProductList `json:"lista_superior"`
	Inferior MProductList `json:"lista_inferior"`
}

// ListKind names one of the three list variants, using the API vocabulary.
type ListKind string

const (
	ListExact    ListKind = "exacta"
	ListSuperior ListKind = "superior"
	ListInferior ListKind = "inferior"
)

func (k ListKind) Valid() bool {
	switch k {
	case ListExact, ListSuperior, ListInferior:
		return true
	}
	return false
}

// Get returns the list matching kind.
func (l MProductLists) Get(kind ListKind) (MProductList, bool) {
	switch kind {
	case ListExact:
		return l.Exact, true
	case ListSuperior:
		return l.Superior, true
	case ListInferior:
		return l.Inferior, true
	}
	return MProductList{}, false
}

// -----------------------------------------------------------------------------

type MInvoiceItem struct {
	Name      string  `json:"nombre"`
	Quantity  int     `json:"cantidad"`
	Subtotal  float64 `json:"subtotal"`
	ProductID int     `json:"producto_id"`
	Category  string  `json:"categoria"`
	UnitPrice float64 `json:"precio_unitario"`
}

type MInvoice struct {
	CashierID string         `json:"cajero_id"`
	Total     float64        `json:"total"`
	ItemCount int            `json:"cantidad_items"`
	Items     []MInvoiceItem `json:"items"`
}

// MArchivedInvoice is an invoice stored after a session completed.
type MArchivedInvoice struct {
	BuyerID   string   `json:"comprador_id"`
	BranchID  string   `json:"sucursal_id"`
	Invoice   MInvoice `json:"factura"`
	CreatedAt int64    `json:"created_at"`
}
