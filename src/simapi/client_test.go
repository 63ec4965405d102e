package simapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"shop-sim-viewer/src/helpers"
	"shop-sim-viewer/src/logger"
	"shop-sim-viewer/src/models"
	"shop-sim-viewer/src/network"

	. "github.com/smartystreets/goconvey/convey"
)

type recordedCall struct {
	Path string
	Body map[string]interface{}
}

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	cfg := &models.MConfig{API: models.MAPIConfig{BaseURL: srv.URL}}
	log := logger.NewLogger(nil, "SimAPI")
	log.SetOutput(io.Discard)
	return NewClient(srv.URL+"/", network.NewAsyncNetworkManager(cfg, log), log), srv
}

func TestClient(t *testing.T) {
	Convey("Given a simulation API client", t, func() {
		var calls []recordedCall
		replies := map[string]string{}
		statuses := map[string]int{}

		client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			call := recordedCall{Path: r.URL.Path}
			if r.Method == http.MethodPost {
				data, _ := io.ReadAll(r.Body)
				_ = json.Unmarshal(data, &call.Body)
			}
			calls = append(calls, call)
			if code, ok := statuses[r.URL.Path]; ok {
				w.WriteHeader(code)
			}
			io.WriteString(w, replies[r.URL.Path])
		})
		defer srv.Close()
		ctx := context.Background()

		Convey("CreateBuyer posts the budget and decodes the branch map", func() {
			replies["/api/comprador/crear"] = `{"success":true,"comprador":{"comprador_id":"COMP_1"},
				"mapa_sucursal":{"cajeros":[{"id":"CAJ_01","fila":18,"columna":5},{"id":"CAJ_02","fila":18,"columna":9}]}}`

			reply, err := client.CreateBuyer(ctx, "COMP_1", "sucursal_1", 150.5)
			So(err, ShouldBeNil)
			So(reply.BranchMap, ShouldNotBeNil)
			So(reply.BranchMap.CashierIDs(), ShouldResemble, []string{"CAJ_01", "CAJ_02"})

			So(calls, ShouldHaveLength, 1)
			So(calls[0].Body["comprador_id"], ShouldEqual, "COMP_1")
			So(calls[0].Body["sucursal_id"], ShouldEqual, "sucursal_1")
			So(calls[0].Body["presupuesto"], ShouldEqual, 150.5)
		})

		Convey("success:false surfaces the server text as an APIError", func() {
			replies["/api/comprador/ir-a-cajero"] = `{"success":false,"mensaje":"No hay cajeros disponibles"}`

			_, err := client.FindNearestCashier(ctx, "COMP_1")
			var apiErr *helpers.APIError
			So(errors.As(err, &apiErr), ShouldBeTrue)
			So(apiErr.Message, ShouldEqual, "No hay cajeros disponibles")
			So(apiErr.Endpoint, ShouldEqual, EndpointGoToCashier)
		})

		Convey("the error field is used when mensaje is absent", func() {
			replies["/api/comprador/generar-listas"] = `{"error":"Comprador no encontrado"}`
			statuses["/api/comprador/generar-listas"] = http.StatusNotFound

			_, err := client.GenerateLists(ctx, "COMP_X")
			So(helpers.UserMessage(err), ShouldEqual, "Comprador no encontrado")
		})

		Convey("a non-2xx reply without a body is a TransportError with the status", func() {
			statuses["/api/comprador/seleccionar-lista"] = http.StatusBadGateway

			err := client.SelectList(ctx, "COMP_1", models.ListExact)
			var tErr *helpers.TransportError
			So(errors.As(err, &tErr), ShouldBeTrue)
			So(tErr.Status, ShouldEqual, http.StatusBadGateway)
			So(calls[0].Body["tipo_lista"], ShouldEqual, "exacta")
		})

		Convey("StartCollection keeps raw positions for later normalization", func() {
			replies["/api/comprador/iniciar-recoleccion"] = `{"success":true,
				"plan":{"plan_recoleccion":[{"producto_id":3,"nombre":"Arroz","cantidad":2,"ruta":[[0,15],{"fila":1,"columna":15}]}]},
				"resultado":{"productos_recolectados":[{"producto_id":3,"nombre":"Arroz","cantidad":2}],"posicion_actual":[1,15]}}`

			reply, err := client.StartCollection(ctx, "COMP_1")
			So(err, ShouldBeNil)
			So(reply.Plan.Steps, ShouldHaveLength, 1)
			So(reply.Plan.Steps[0].Route, ShouldHaveLength, 2)
			So(string(reply.Result.CurrentPosition), ShouldEqual, "[1,15]")
			So(reply.Result.FinalPosition, ShouldBeNil)
		})

		Convey("FindNearestCashier marks a cashier that came without its cell", func() {
			replies["/api/comprador/ir-a-cajero"] = `{"success":true,
				"cajero":{"cajero":{"id":"CAJ001"},"ruta_a_cajero":[[1,15],[2,15]],"distancia_a_cajero":2}}`

			reply, err := client.FindNearestCashier(ctx, "COMP_1")
			So(err, ShouldBeNil)
			So(reply.Cashier.ID, ShouldEqual, "CAJ001")
			So(reply.Unplaced, ShouldBeTrue)
			So(reply.Route, ShouldHaveLength, 2)

			replies["/api/comprador/ir-a-cajero"] = `{"success":true,
				"cajero":{"cajero":{"id":"CAJ001","fila":0,"columna":0},"ruta_a_cajero":[]}}`
			reply, err = client.FindNearestCashier(ctx, "COMP_1")
			So(err, ShouldBeNil)
			So(reply.Unplaced, ShouldBeFalse)
		})

		Convey("SubmitPurchase tolerates an object in mensaje and returns the invoice", func() {
			replies["/api/comprador/comunicar-cajero"] = `{"success":true,"mensaje":{"tipo":"pedido_procesamiento"},
				"factura":{"cajero_id":"CAJ_01","total":25.5,"cantidad_items":1,"items":[{"nombre":"Arroz","cantidad":2,"precio_unitario":12.75,"subtotal":25.5}]}}`

			inv, err := client.SubmitPurchase(ctx, "COMP_1", "CAJ_01")
			So(err, ShouldBeNil)
			So(inv.Total, ShouldEqual, 25.5)
			So(inv.Items[0].UnitPrice, ShouldEqual, 12.75)
			So(calls[0].Body["cajero_id"], ShouldEqual, "CAJ_01")
		})

		Convey("a success reply without an invoice is an APIError", func() {
			replies["/api/comprador/comunicar-cajero"] = `{"success":true}`
			_, err := client.SubmitPurchase(ctx, "COMP_1", "CAJ_01")
			var apiErr *helpers.APIError
			So(errors.As(err, &apiErr), ShouldBeTrue)
		})

		Convey("GetMap fills the branch id and ListMaps decodes summaries", func() {
			replies["/api/mapas/sucursal_1"] = `{"success":true,"mapa":{"nombre":"Centro","dimensiones":{"filas":20,"columnas":30},
				"entrada":{"fila":0,"columna":17,"tipo":"entrada"},"zonas_productos":{"lacteos":{"fila":3,"columna":4,"productos":[1,5]}}}}`
			replies["/api/mapas"] = `{"success":true,"mapas":[{"sucursal_id":"sucursal_1","nombre":"Centro","dimensiones":{"filas":20,"columnas":30}}]}`

			m, err := client.GetMap(ctx, "sucursal_1")
			So(err, ShouldBeNil)
			So(m.BranchID, ShouldEqual, "sucursal_1")
			So(m.Entrance.Col, ShouldEqual, 17)
			So(m.ProductZones["lacteos"].Products, ShouldResemble, []int{1, 5})

			list, err := client.ListMaps(ctx)
			So(err, ShouldBeNil)
			So(list, ShouldHaveLength, 1)
			So(list[0].Dimensions.Cols, ShouldEqual, 30)
		})

		Convey("an unreachable server is a TransportError without status", func() {
			srv.Close()
			_, err := client.CreateBuyer(ctx, "COMP_1", "sucursal_1", 10)
			var tErr *helpers.TransportError
			So(errors.As(err, &tErr), ShouldBeTrue)
			So(tErr.Status, ShouldEqual, 0)
		})
	})
}
