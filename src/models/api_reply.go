package models

import "encoding/json"

// Reply payloads of the simulation API. Positions stay raw until normalized by the engine.

type MCreateBuyerReply struct {
	Buyer     json.RawMessage `json:"comprador"`
	BranchMap *MBranchMap     `json:"mapa_sucursal,omitempty"`
}

// -----------------------------------------------------------------------------

type MCollectionStep struct {
	ProductID int               `json:"producto_id"`
	Name      string            `json:"nombre"`
	Quantity  int               `json:"cantidad"`
	Location  json.RawMessage   `json:"ubicacion"`
	Route     []json.RawMessage `json:"ruta"`
	Distance  float64           `json:"distancia"`
}

type MCollectionPlan struct {
	Steps         []MCollectionStep `json:"plan_recoleccion"`
	TotalDistance float64           `json:"distancia_total_planificada"`
}

type MCollectedProduct struct {
	ProductID int             `json:"producto_id"`
	Name      string          `json:"nombre"`
	Quantity  int             `json:"cantidad"`
	Location  json.RawMessage `json:"ubicacion_recoleccion"`
}

type MCollectionResult struct {
	Collected       []MCollectedProduct `json:"productos_recolectados"`
	Distance        float64             `json:"distancia_recorrida"`
	CurrentPosition json.RawMessage     `json:"posicion_actual"`
	FinalPosition   json.RawMessage     `json:"posicion_final"`
}

type MCollectionReply struct {
	Plan   MCollectionPlan   `json:"plan"`
	Result MCollectionResult `json:"resultado"`
}

// -----------------------------------------------------------------------------

type MCashierReply struct {
	Cashier  *MCashier         `json:"cajero"`
	Route    []json.RawMessage `json:"ruta_a_cajero"`
	Distance float64           `json:"distancia_a_cajero"`
	Unplaced bool              `json:"-"` // cajero came without fila or columna
}

// UnmarshalJSON records whether the cashier carried its cell, since a missing one decodes as 0.
func (r *MCashierReply) UnmarshalJSON(data []byte) error {
	type plain MCashierReply
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var cell struct {
		Cashier *struct {
			Row *int `json:"fila"`
			Col *int `json:"columna"`
		} `json:"cajero"`
	}
	if err := json.Unmarshal(data, &cell); err != nil {
		return err
	}
	*r = MCashierReply(p)
	r.Unplaced = cell.Cashier != nil && (cell.Cashier.Row == nil || cell.Cashier.Col == nil)
	return nil
}
