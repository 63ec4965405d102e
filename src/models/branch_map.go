package models

type MDimensions struct {
	Rows int `json:"filas"`
	Cols int `json:"columnas"`
}

type MCell struct {
	Row int `json:"fila"`
	Col int `json:"columna"`
}

type MCashier struct {
	ID  string `json:"id"`
	Row int    `json:"fila"`
	Col int    `json:"columna"`
}

type MProductZone struct {
	Row      int   `json:"fila"`
	Col      int   `json:"columna"`
	Products []int `json:"productos"`
}

// MBranchMap mirrors the map document served by /api/mapas/{id}.
type MBranchMap struct {
	BranchID     string                  `json:"sucursal_id"`
	Name         string                  `json:"nombre"`
	Dimensions   MDimensions             `json:"dimensiones"`
	Entrance     *MCell                  `json:"entrada,omitempty"`
	Cashiers     []MCashier              `json:"cajeros"`
	Obstacles    []MCell                 `json:"obstaculos"`
	ProductZones map[string]MProductZone `json:"zonas_productos"`
}

// CashierIDs returns the ids of every cashier on the map, in map order.
func (m *MBranchMap) CashierIDs() []string {
	if m == nil {
		return nil
	}
	ids := make([]string, 0, len(m.Cashiers))
	for _, c := range m.Cashiers {
		ids = append(ids, c.ID)
	}
	return ids
}

type MBranchSummary struct {
	BranchID   string      `json:"sucursal_id"`
	Name       string      `json:"nombre"`
	Dimensions MDimensions `json:"dimensiones"`
}

// -----------------------------------------------------------------------------

type MInventoryProduct struct {
	ID       int     `json:"id"`
	Name     string  `json:"nombre"`
	Price    float64 `json:"precio"`
	Category string  `json:"categoria"`
}

type MInventory struct {
	Products []MInventoryProduct `json:"productos"`
}
