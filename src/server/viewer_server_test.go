package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shop-sim-viewer/src/engine"
	"shop-sim-viewer/src/helpers"
	"shop-sim-viewer/src/logger"
	"shop-sim-viewer/src/models"
	"shop-sim-viewer/src/render"
	"shop-sim-viewer/src/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"
)

// stubAPI answers every call successfully.
type stubAPI struct{}

func (stubAPI) CreateBuyer(ctx context.Context, b, s string, budget float64) (*models.MCreateBuyerReply, error) {
	return &models.MCreateBuyerReply{BranchMap: testMap()}, nil
}
func (stubAPI) GenerateLists(ctx context.Context, b string) (*models.MProductLists, error) {
	return &models.MProductLists{Exact: models.MProductList{Total: 25.5, ItemCount: 1}}, nil
}
func (stubAPI) SelectList(ctx context.Context, b string, k models.ListKind) error { return nil }
func (stubAPI) StartCollection(ctx context.Context, b string) (*models.MCollectionReply, error) {
	return &models.MCollectionReply{}, nil
}
func (stubAPI) FindNearestCashier(ctx context.Context, b string) (*models.MCashierReply, error) {
	return &models.MCashierReply{Cashier: &models.MCashier{ID: "CAJ_01", Row: 3, Col: 4}}, nil
}
func (stubAPI) SubmitPurchase(ctx context.Context, b, c string) (*models.MInvoice, error) {
	return &models.MInvoice{CashierID: c, Total: 25.5, ItemCount: 1, Items: []models.MInvoiceItem{{Quantity: 2, UnitPrice: 12.75, Subtotal: 25.5}}}, nil
}

// fakeCatalog serves one branch; err makes every call fail.
type fakeCatalog struct {
	err   error
	saved *models.MBranchMap
}

func (f *fakeCatalog) GetMap(ctx context.Context, id string) (*models.MBranchMap, error) {
	if f.err != nil {
		return nil, f.err
	}
	return testMap(), nil
}
func (f *fakeCatalog) ListMaps(ctx context.Context) ([]models.MBranchSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []models.MBranchSummary{{BranchID: "SUC_01", Name: "Central"}}, nil
}
func (f *fakeCatalog) GetInventory(ctx context.Context, id string) (*models.MInventory, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.MInventory{Products: []models.MInventoryProduct{{ID: 3, Name: "Arroz", Price: 12.75}}}, nil
}
func (f *fakeCatalog) SaveMap(ctx context.Context, id string, m *models.MBranchMap) error {
	if f.err != nil {
		return f.err
	}
	if m.Name == "" {
		return helpers.NewValidationError("nombre", "map name is required")
	}
	f.saved = m
	return nil
}
func (f *fakeCatalog) Invoices(ctx context.Context, id string) ([]models.MArchivedInvoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []models.MArchivedInvoice{{BuyerID: "COMP_1", BranchID: id, Invoice: models.MInvoice{Total: 10}}}, nil
}

func testMap() *models.MBranchMap {
	return &models.MBranchMap{
		BranchID:   "SUC_01",
		Name:       "Central",
		Dimensions: models.MDimensions{Rows: 4, Cols: 5},
		Entrance:   &models.MCell{Row: 0, Col: 2},
		Cashiers:   []models.MCashier{{ID: "CAJ_01", Row: 3, Col: 4}},
	}
}

func newTestServer(t *testing.T, catalog *fakeCatalog) (*ViewerServer, *session.Manager) {
	gin.SetMode(gin.TestMode)
	log := logger.NewLogger(nil, "ViewerTest")
	log.SetOutput(io.Discard)

	cfg := &models.MConfig{
		Host:     "127.0.0.1",
		Port:     8000,
		LogLevel: "ERROR",
		Viewer:   models.MViewerConfig{CellSize: 20, DefaultStart: models.MPosition{Row: 0, Col: 15}},
	}
	manager := session.NewManager(cfg, stubAPI{}, log)
	manager.Pacer = &engine.RecordingPacer{}

	renderer, err := render.NewMapRenderer(cfg.Viewer.CellSize, log)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	s := NewViewerServer(cfg, manager, catalog, renderer, log)
	manager.Observer = s
	return s, manager
}

func do(s *ViewerServer, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]interface{} {
	out := map[string]interface{}{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

func createSession(s *ViewerServer) string {
	w := do(s, http.MethodPost, "/api/sessions", `{"branch_id":"SUC_01"}`)
	id, _ := decode(w)["buyer_id"].(string)
	return id
}

func waitForStage(m *session.Manager, id string, stage models.Stage) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c, err := m.Get(id)
		if err == nil && c.Stage() == stage && !c.Busy() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestSessionRoutes(t *testing.T) {
	Convey("Given a viewer server", t, func() {
		s, manager := newTestServer(t, &fakeCatalog{})
		defer s.Stop()
		defer manager.Stop()

		Convey("A session needs a branch", func() {
			w := do(s, http.MethodPost, "/api/sessions", `{"branch_id":""}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["success"], ShouldEqual, false)
		})

		Convey("Creating a session returns its buyer id", func() {
			w := do(s, http.MethodPost, "/api/sessions", `{"branch_id":"SUC_01"}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			id := decode(w)["buyer_id"].(string)
			So(id, ShouldStartWith, "COMP_")

			w = do(s, http.MethodGet, "/api/sessions/"+id, "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["stage"], ShouldEqual, "awaiting_budget")

			w = do(s, http.MethodGet, "/api/sessions", "")
			So(w.Body.String(), ShouldContainSubstring, id)
		})

		Convey("An unknown session is 404", func() {
			So(do(s, http.MethodGet, "/api/sessions/COMP_missing", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(s, http.MethodPost, "/api/sessions/COMP_missing/resume", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("An invalid budget is rejected without leaving the first stage", func() {
			id := createSession(s)
			w := do(s, http.MethodPost, "/api/sessions/"+id+"/budget", `{"budget":"0"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["error"], ShouldEqual, "please enter a valid budget")

			c, _ := manager.Get(id)
			So(c.Stage(), ShouldEqual, models.StageAwaitingBudget)
		})

		Convey("Triggers out of order are conflicts", func() {
			id := createSession(s)
			So(do(s, http.MethodPost, "/api/sessions/"+id+"/list", `{"tipo_lista":"exacta"}`).Code, ShouldEqual, http.StatusConflict)
			So(do(s, http.MethodPost, "/api/sessions/"+id+"/resume", "").Code, ShouldEqual, http.StatusConflict)
		})

		Convey("An unknown list type is a bad request", func() {
			id := createSession(s)
			So(do(s, http.MethodPost, "/api/sessions/"+id+"/list", `{"tipo_lista":"mejor"}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("A budget given as a number moves on to list selection", func() {
			id := createSession(s)
			w := do(s, http.MethodPost, "/api/sessions/"+id+"/budget", `{"budget":150}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["stage"], ShouldEqual, "selecting_list")
			So(decode(w)["budget"], ShouldEqual, 150)

			Convey("Selecting a list runs the rest of the workflow in the background", func() {
				w := do(s, http.MethodPost, "/api/sessions/"+id+"/list", `{"tipo_lista":"exacta"}`)
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(waitForStage(manager, id, models.StageComplete), ShouldBeTrue)

				c, _ := manager.Get(id)
				So(c.Snapshot().Invoice.Total, ShouldEqual, 25.5)

				report := decode(do(s, http.MethodGet, "/api/sessions/"+id+"/report", ""))
				So(report["spent"], ShouldEqual, 25.5)
			})
		})

		Convey("A session can be deleted once", func() {
			id := createSession(s)
			So(do(s, http.MethodDelete, "/api/sessions/"+id, "").Code, ShouldEqual, http.StatusOK)
			So(do(s, http.MethodDelete, "/api/sessions/"+id, "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestBranchRoutes(t *testing.T) {
	Convey("Given a catalog that works", t, func() {
		catalog := &fakeCatalog{}
		s, manager := newTestServer(t, catalog)
		defer s.Stop()
		defer manager.Stop()

		So(do(s, http.MethodGet, "/api/branches", "").Body.String(), ShouldContainSubstring, "SUC_01")
		So(do(s, http.MethodGet, "/api/branches/SUC_01/map", "").Code, ShouldEqual, http.StatusOK)
		So(do(s, http.MethodGet, "/api/branches/SUC_01/inventory", "").Body.String(), ShouldContainSubstring, "Arroz")
		So(do(s, http.MethodGet, "/api/branches/SUC_01/invoices", "").Body.String(), ShouldContainSubstring, "COMP_1")
		So(decode(do(s, http.MethodGet, "/api/branches/SUC_01/report", ""))["invoices"], ShouldEqual, 1)

		Convey("Saving a map goes through the catalog", func() {
			w := do(s, http.MethodPost, "/api/branches/SUC_02/map", `{"nombre":"Norte","dimensiones":{"filas":3,"columnas":3}}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(catalog.saved.Name, ShouldEqual, "Norte")

			So(do(s, http.MethodPost, "/api/branches/SUC_02/map", `{"nombre":""}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(s, http.MethodPost, "/api/branches/SUC_02/map", `not json`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Pages render", func() {
			w := do(s, http.MethodGet, "/", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "/simulation/SUC_01")

			w = do(s, http.MethodGet, "/simulation/SUC_01", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `id="branch-map"`)
			So(w.Body.String(), ShouldContainSubstring, `id="agent" cx="50" cy="10"`)

			So(do(s, http.MethodGet, "/simulation/SUC_01?session=COMP_missing", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Health and config answer", func() {
			So(decode(do(s, http.MethodGet, "/api/health", ""))["status"], ShouldEqual, "ok")
			So(do(s, http.MethodGet, "/api/config", "").Code, ShouldEqual, http.StatusOK)
		})
	})

	Convey("Given a catalog whose upstream fails", t, func() {
		s, manager := newTestServer(t, &fakeCatalog{err: helpers.NewTransportError("mapas", 0, io.ErrUnexpectedEOF)})
		defer s.Stop()
		defer manager.Stop()

		So(do(s, http.MethodGet, "/api/branches/SUC_01/map", "").Code, ShouldEqual, http.StatusBadGateway)
		So(do(s, http.MethodGet, "/", "").Code, ShouldEqual, http.StatusBadGateway)
	})
}

func TestWebSocket(t *testing.T) {
	Convey("Given a websocket client watching a session", t, func() {
		s, manager := newTestServer(t, &fakeCatalog{})
		defer s.Stop()
		defer manager.Stop()

		srv := httptest.NewServer(s.Handler())
		defer srv.Close()

		id := createSession(s)
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?session=" + id
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		So(err, ShouldBeNil)
		defer conn.Close()

		read := func() []render.EleUpdate {
			var updates []render.EleUpdate
			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			if err := conn.ReadJSON(&updates); err != nil {
				return nil
			}
			return updates
		}

		Convey("It first receives the whole session", func() {
			updates := read()
			So(updates, ShouldNotBeEmpty)
			So(updates[0].EleId, ShouldEqual, "agent")

			Convey("Then an update for every change, with new messages appended", func() {
				So(do(s, http.MethodPost, "/api/sessions/"+id+"/budget", `{"budget":"100"}`).Code, ShouldEqual, http.StatusOK)

				appended := 0
				for i := 0; i < 20 && appended == 0; i++ {
					for _, u := range read() {
						for _, op := range u.Ops {
							if op.Key == render.KeyAppendMessage {
								appended++
							}
						}
					}
				}
				So(appended, ShouldBeGreaterThan, 0)
			})
		})

		Convey("An unknown session is refused before the upgrade", func() {
			_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws?session=nope", nil)
			So(err, ShouldNotBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}
