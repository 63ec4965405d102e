package simapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"shop-sim-viewer/src/helpers"
	"shop-sim-viewer/src/interfaces"
	"shop-sim-viewer/src/logger"
	"shop-sim-viewer/src/models"
)

// Endpoint names, used in errors and logs.
const (
	EndpointCreateBuyer     = "comprador/crear"
	EndpointGenerateLists   = "comprador/generar-listas"
	EndpointSelectList      = "comprador/seleccionar-lista"
	EndpointStartCollection = "comprador/iniciar-recoleccion"
	EndpointGoToCashier     = "comprador/ir-a-cajero"
	EndpointTalkToCashier   = "comprador/comunicar-cajero"
	EndpointMaps            = "mapas"
	EndpointInventories     = "inventarios"
)

// Client talks to the simulation API. It implements interfaces.ISimulationAPI and
// interfaces.IBranchSource.
type Client struct {
	BaseURL string
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

var (
	_ interfaces.ISimulationAPI = (*Client)(nil)
	_ interfaces.IBranchSource  = (*Client)(nil)
)

// -----------------------------------------------------------------------------

func NewClient(baseURL string, netMgr interfaces.INetworkManager, log *logger.Logger) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Network: netMgr,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

// envelope holds the fields every reply shares. mensaje is a string on failures but an object
// on some successful replies, so it stays raw.
type envelope struct {
	Success *bool           `json:"success"`
	Message json.RawMessage `json:"mensaje"`
	Error   string          `json:"error"`
}

func (e envelope) text() string {
	if len(e.Message) > 0 {
		var s string
		if err := json.Unmarshal(e.Message, &s); err == nil && s != "" {
			return s
		}
	}
	return e.Error
}

// -----------------------------------------------------------------------------

// decodeReply turns one HTTP exchange into either out or a typed error.
func decodeReply(endpoint string, status int, body []byte, out interface{}) error {
	var env envelope
	envErr := json.Unmarshal(body, &env)

	if status < 200 || status > 299 {
		if envErr == nil && env.text() != "" {
			return helpers.NewAPIError(endpoint, status, env.text())
		}
		return helpers.NewTransportError(endpoint, status, nil)
	}
	if envErr != nil {
		return helpers.NewTransportError(endpoint, status, fmt.Errorf("malformed reply: %w", envErr))
	}
	if env.Success == nil || !*env.Success {
		return helpers.NewAPIError(endpoint, status, env.text())
	}
	if out == nil {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(out); err != nil {
		return helpers.NewTransportError(endpoint, status, fmt.Errorf("malformed reply: %w", err))
	}
	return nil
}

// -----------------------------------------------------------------------------

func (c *Client) post(ctx context.Context, endpoint string, payload interface{}, out interface{}) error {
	status, body, err := c.Network.PostJSON(ctx, c.BaseURL+"/api/"+endpoint, payload)
	if err != nil {
		return helpers.NewTransportError(endpoint, 0, err)
	}
	if err := decodeReply(endpoint, status, body, out); err != nil {
		c.Logger.Warning("%s: %v", endpoint, err)
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	status, body, err := c.Network.Get(ctx, c.BaseURL+"/api/"+endpoint, nil)
	if err != nil {
		return helpers.NewTransportError(endpoint, 0, err)
	}
	if err := decodeReply(endpoint, status, body, out); err != nil {
		c.Logger.Warning("%s: %v", endpoint, err)
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------
// Buyer endpoints
// -----------------------------------------------------------------------------

type buyerRequest struct {
	BuyerID   string          `json:"comprador_id"`
	BranchID  string          `json:"sucursal_id,omitempty"`
	Budget    float64         `json:"presupuesto,omitempty"`
	ListKind  models.ListKind `json:"tipo_lista,omitempty"`
	CashierID string          `json:"cajero_id,omitempty"`
}

// CreateBuyer registers the buyer in the branch.
func (c *Client) CreateBuyer(ctx context.Context, buyerID, branchID string, budget float64) (*models.MCreateBuyerReply, error) {
	var reply models.MCreateBuyerReply
	req := buyerRequest{BuyerID: buyerID, BranchID: branchID, Budget: budget}
	if err := c.post(ctx, EndpointCreateBuyer, req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// -----------------------------------------------------------------------------

func (c *Client) GenerateLists(ctx context.Context, buyerID string) (*models.MProductLists, error) {
	var reply struct {
		Lists models.MProductLists `json:"listas"`
	}
	if err := c.post(ctx, EndpointGenerateLists, buyerRequest{BuyerID: buyerID}, &reply); err != nil {
		return nil, err
	}
	return &reply.Lists, nil
}

// -----------------------------------------------------------------------------

func (c *Client) SelectList(ctx context.Context, buyerID string, kind models.ListKind) error {
	return c.post(ctx, EndpointSelectList, buyerRequest{BuyerID: buyerID, ListKind: kind}, nil)
}

// -----------------------------------------------------------------------------

func (c *Client) StartCollection(ctx context.Context, buyerID string) (*models.MCollectionReply, error) {
	var reply models.MCollectionReply
	if err := c.post(ctx, EndpointStartCollection, buyerRequest{BuyerID: buyerID}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// -----------------------------------------------------------------------------

func (c *Client) FindNearestCashier(ctx context.Context, buyerID string) (*models.MCashierReply, error) {
	var reply struct {
		Cashier models.MCashierReply `json:"cajero"`
	}
	if err := c.post(ctx, EndpointGoToCashier, buyerRequest{BuyerID: buyerID}, &reply); err != nil {
		return nil, err
	}
	return &reply.Cashier, nil
}

// -----------------------------------------------------------------------------

// SubmitPurchase sends the collected products to the cashier and returns the invoice.
func (c *Client) SubmitPurchase(ctx context.Context, buyerID, cashierID string) (*models.MInvoice, error) {
	var reply struct {
		Invoice *models.MInvoice `json:"factura"`
	}
	req := buyerRequest{BuyerID: buyerID, CashierID: cashierID}
	if err := c.post(ctx, EndpointTalkToCashier, req, &reply); err != nil {
		return nil, err
	}
	if reply.Invoice == nil {
		return nil, helpers.NewAPIError(EndpointTalkToCashier, http.StatusOK, "reply carried no invoice")
	}
	return reply.Invoice, nil
}

// -----------------------------------------------------------------------------
// Branch endpoints
// -----------------------------------------------------------------------------

func (c *Client) GetMap(ctx context.Context, branchID string) (*models.MBranchMap, error) {
	var reply struct {
		Map *models.MBranchMap `json:"mapa"`
	}
	if err := c.get(ctx, EndpointMaps+"/"+url.PathEscape(branchID), &reply); err != nil {
		return nil, err
	}
	if reply.Map == nil {
		return nil, helpers.NewAPIError(EndpointMaps, http.StatusOK, "reply carried no map")
	}
	if reply.Map.BranchID == "" {
		reply.Map.BranchID = branchID
	}
	return reply.Map, nil
}

// -----------------------------------------------------------------------------

func (c *Client) ListMaps(ctx context.Context) ([]models.MBranchSummary, error) {
	var reply struct {
		Maps []models.MBranchSummary `json:"mapas"`
	}
	if err := c.get(ctx, EndpointMaps, &reply); err != nil {
		return nil, err
	}
	return reply.Maps, nil
}

// -----------------------------------------------------------------------------

func (c *Client) GetInventory(ctx context.Context, branchID string) (*models.MInventory, error) {
	var reply struct {
		Inventory *models.MInventory `json:"inventario"`
	}
	if err := c.get(ctx, EndpointInventories+"/"+url.PathEscape(branchID), &reply); err != nil {
		return nil, err
	}
	if reply.Inventory == nil {
		return &models.MInventory{}, nil
	}
	return reply.Inventory, nil
}

// -----------------------------------------------------------------------------

// SaveMap stores a map document under branchID.
func (c *Client) SaveMap(ctx context.Context, branchID string, m *models.MBranchMap) error {
	return c.post(ctx, EndpointMaps+"/"+url.PathEscape(branchID), m, nil)
}
