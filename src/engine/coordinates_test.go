package engine

import (
	"encoding/json"
	"testing"

	"shop-sim-viewer/src/models"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalize(t *testing.T) {
	Convey("Given wire positions", t, func() {
		Convey("A pair and a named record normalize to the same position", func() {
			a, okA := NormalizeJSON(json.RawMessage(`[3,4]`))
			b, okB := NormalizeJSON(json.RawMessage(`{"fila":3,"columna":4}`))
			c, okC := NormalizeJSON(json.RawMessage(`{"row":3,"col":4}`))
			So(okA && okB && okC, ShouldBeTrue)
			So(a, ShouldResemble, models.MPosition{Row: 3, Col: 4})
			So(b, ShouldResemble, a)
			So(c, ShouldResemble, a)
		})

		Convey("Go values are accepted directly", func() {
			p, ok := Normalize([]int{0, 15})
			So(ok, ShouldBeTrue)
			So(p, ShouldResemble, models.MPosition{Row: 0, Col: 15})

			p, ok = Normalize([]float64{2, 7})
			So(ok, ShouldBeTrue)
			So(p.Col, ShouldEqual, 7)

			p, ok = Normalize(models.MPosition{Row: 1, Col: 1})
			So(ok, ShouldBeTrue)
			So(p, ShouldResemble, models.MPosition{Row: 1, Col: 1})

			p, ok = Normalize(map[string]any{"fila": 5.0, "columna": 6})
			So(ok, ShouldBeTrue)
			So(p, ShouldResemble, models.MPosition{Row: 5, Col: 6})
		})

		Convey("Malformed shapes are absent", func() {
			for _, raw := range []string{
				`null`, `[]`, `[1]`, `[1,2,3]`, `"3,4"`, `[-1,2]`, `[2.5,1]`,
				`{"fila":1}`, `{"row":1,"columna":2}`, `["1","2"]`, `true`, ``, `{`,
			} {
				_, ok := NormalizeJSON(json.RawMessage(raw))
				So(ok, ShouldBeFalse)
			}
			_, ok := Normalize(nil)
			So(ok, ShouldBeFalse)
			_, ok = Normalize("text")
			So(ok, ShouldBeFalse)
			_, ok = Normalize(models.MPosition{Row: -1})
			So(ok, ShouldBeFalse)
		})

		Convey("Integral floats such as 4.0 are accepted", func() {
			p, ok := NormalizeJSON(json.RawMessage(`[4.0, 2]`))
			So(ok, ShouldBeTrue)
			So(p.Row, ShouldEqual, 4)
		})

		Convey("NormalizePath keeps order and counts drops", func() {
			raw := []json.RawMessage{
				json.RawMessage(`[0,15]`),
				json.RawMessage(`null`),
				json.RawMessage(`{"fila":1,"columna":15}`),
				json.RawMessage(`[1]`),
			}
			path, dropped := NormalizePath(raw)
			So(dropped, ShouldEqual, 2)
			So(path, ShouldResemble, []models.MPosition{{Row: 0, Col: 15}, {Row: 1, Col: 15}})

			path, dropped = NormalizePath(nil)
			So(path, ShouldBeEmpty)
			So(dropped, ShouldEqual, 0)
		})
	})
}
