package network

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"shop-sim-viewer/src/logger"
	"shop-sim-viewer/src/models"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAsyncNetworkManager(t *testing.T) {
	Convey("Given a network manager against a test server", t, func() {
		var hits int
		var lastBody map[string]interface{}
		var lastUA, lastQuery string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			lastUA = r.Header.Get("User-Agent")
			lastQuery = r.URL.Query().Get("q")
			if r.Method == http.MethodPost {
				data, _ := io.ReadAll(r.Body)
				_ = json.Unmarshal(data, &lastBody)
			}
			if r.URL.Path == "/fail" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Write([]byte(`{"success":true}`))
		}))
		defer srv.Close()

		cfg := &models.MConfig{API: models.MAPIConfig{BaseURL: srv.URL, UserAgent: "viewer-test"}}
		nm := NewAsyncNetworkManager(cfg, logger.NewLogger(nil, "Network"))

		Convey("GET sends query params and the user agent", func() {
			status, body, err := nm.Get(context.Background(), srv.URL+"/x", map[string]string{"q": "1"})
			So(err, ShouldBeNil)
			So(status, ShouldEqual, http.StatusOK)
			So(string(body), ShouldEqual, `{"success":true}`)
			So(lastUA, ShouldEqual, "viewer-test")
			So(lastQuery, ShouldEqual, "1")
		})

		Convey("POST encodes the payload as JSON", func() {
			_, _, err := nm.PostJSON(context.Background(), srv.URL+"/y", map[string]string{"comprador_id": "COMP_1"})
			So(err, ShouldBeNil)
			So(lastBody["comprador_id"], ShouldEqual, "COMP_1")
		})

		Convey("A non-2xx status is returned once, without retries", func() {
			status, _, err := nm.Get(context.Background(), srv.URL+"/fail", nil)
			So(err, ShouldBeNil)
			So(status, ShouldEqual, http.StatusInternalServerError)
			So(hits, ShouldEqual, 1)
		})

		Convey("A cancelled context fails without a status", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			status, _, err := nm.Get(ctx, srv.URL, nil)
			So(err, ShouldNotBeNil)
			So(status, ShouldEqual, 0)
		})
	})
}
