package engine

import (
	"context"
	"encoding/json"
	"sync"

	"shop-sim-viewer/src/models"
)

// fakeAPI is a scripted ISimulationAPI. A non-nil error field makes that call fail.
type fakeAPI struct {
	mu    sync.Mutex
	calls []string

	createReply     *models.MCreateBuyerReply
	lists           *models.MProductLists
	collectionReply *models.MCollectionReply
	cashierReply    *models.MCashierReply
	invoice         *models.MInvoice

	createErr, listsErr, selectErr, collectErr, cashierErr, purchaseErr error
}

func (f *fakeAPI) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) CreateBuyer(ctx context.Context, buyerID, branchID string, budget float64) (*models.MCreateBuyerReply, error) {
	f.record("create")
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createReply == nil {
		return &models.MCreateBuyerReply{}, nil
	}
	return f.createReply, nil
}

func (f *fakeAPI) GenerateLists(ctx context.Context, buyerID string) (*models.MProductLists, error) {
	f.record("lists")
	if f.listsErr != nil {
		return nil, f.listsErr
	}
	return f.lists, nil
}

func (f *fakeAPI) SelectList(ctx context.Context, buyerID string, kind models.ListKind) error {
	f.record("select")
	return f.selectErr
}

func (f *fakeAPI) StartCollection(ctx context.Context, buyerID string) (*models.MCollectionReply, error) {
	f.record("collect")
	if f.collectErr != nil {
		return nil, f.collectErr
	}
	return f.collectionReply, nil
}

func (f *fakeAPI) FindNearestCashier(ctx context.Context, buyerID string) (*models.MCashierReply, error) {
	f.record("cashier")
	if f.cashierErr != nil {
		return nil, f.cashierErr
	}
	return f.cashierReply, nil
}

func (f *fakeAPI) SubmitPurchase(ctx context.Context, buyerID, cashierID string) (*models.MInvoice, error) {
	f.record("purchase")
	if f.purchaseErr != nil {
		return nil, f.purchaseErr
	}
	return f.invoice, nil
}

// -----------------------------------------------------------------------------

type fakeMaps struct {
	m   *models.MBranchMap
	err error
}

func (f *fakeMaps) GetMap(ctx context.Context, branchID string) (*models.MBranchMap, error) {
	return f.m, f.err
}

type fakeSink struct {
	archived []models.MInvoice
}

func (f *fakeSink) ArchiveInvoice(ctx context.Context, buyerID, branchID string, inv models.MInvoice) error {
	f.archived = append(f.archived, inv)
	return nil
}

type frameRecorder struct {
	mu     sync.Mutex
	frames []models.MSessionFrame
}

func (r *frameRecorder) OnFrame(f models.MSessionFrame) {
	r.mu.Lock()
	r.frames = append(r.frames, f)
	r.mu.Unlock()
}

func (r *frameRecorder) Frames() []models.MSessionFrame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.MSessionFrame(nil), r.frames...)
}

// -----------------------------------------------------------------------------

func raw(s string) json.RawMessage { return json.RawMessage(s) }

// happyAPI returns a fake that completes the whole workflow.
func happyAPI() *fakeAPI {
	return &fakeAPI{
		createReply: &models.MCreateBuyerReply{BranchMap: &models.MBranchMap{
			Entrance: &models.MCell{Row: 0, Col: 17},
			Cashiers: []models.MCashier{{ID: "CAJ_01", Row: 18, Col: 5}, {ID: "CAJ_02", Row: 18, Col: 9}},
		}},
		lists: &models.MProductLists{
			Exact: models.MProductList{
				Products:  []models.MProduct{{ID: 3, Name: "Arroz", Price: 12.75, Quantity: 2, Category: "granos"}},
				Total:     25.5,
				ItemCount: 1,
			},
		},
		collectionReply: &models.MCollectionReply{
			Plan: models.MCollectionPlan{Steps: []models.MCollectionStep{
				{ProductID: 3, Name: "Arroz", Quantity: 2, Route: []json.RawMessage{raw(`[0,15]`), raw(`{"fila":1,"columna":15}`)}},
			}},
			Result: models.MCollectionResult{
				Collected:       []models.MCollectedProduct{{ProductID: 3, Name: "Arroz", Quantity: 2}},
				CurrentPosition: raw(`[1,16]`),
			},
		},
		cashierReply: &models.MCashierReply{
			Cashier: &models.MCashier{ID: "CAJ_01", Row: 18, Col: 5},
			Route:   []json.RawMessage{raw(`[2,15]`), raw(`[3,15]`)},
		},
		invoice: &models.MInvoice{
			CashierID: "CAJ_01",
			Total:     25.5,
			ItemCount: 1,
			Items:     []models.MInvoiceItem{{Name: "Arroz", Quantity: 2, UnitPrice: 12.75, Subtotal: 25.5}},
		},
	}
}
