package engine

import (
	"sync"
	"testing"
	"time"

	"shop-sim-viewer/src/models"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCommunicationLog(t *testing.T) {
	Convey("Given a communication log with a fixed clock", t, func() {
		clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		log := NewCommunicationLog(func() time.Time { return clock })

		Convey("Appends are ordered and stamped", func() {
			first := log.Append("System", "COMP_1", models.CategoryInfo, "entered")
			clock = clock.Add(time.Second)
			second := log.Append("COMP_1", "CAJ_01", models.CategoryCommunication, "sending list")

			So(first.Seq, ShouldEqual, 0)
			So(second.Seq, ShouldEqual, 1)
			So(second.Timestamp.Sub(first.Timestamp), ShouldEqual, time.Second)
			So(log.Len(), ShouldEqual, 2)
			So(log.Count(models.CategoryCommunication), ShouldEqual, 1)
		})

		Convey("Duplicates are kept", func() {
			log.Append("a", "b", models.CategoryInfo, "same")
			log.Append("a", "b", models.CategoryInfo, "same")
			So(log.Len(), ShouldEqual, 2)
		})

		Convey("Snapshot is a copy", func() {
			log.Append("a", "b", models.CategoryInfo, "x")
			snap := log.Snapshot()
			snap[0].Content = "changed"
			So(log.Snapshot()[0].Content, ShouldEqual, "x")
		})

		Convey("Since returns only newer entries", func() {
			for i := 0; i < 4; i++ {
				log.Append("a", "b", models.CategoryInfo, "m")
			}
			So(log.Since(1), ShouldHaveLength, 2)
			So(log.Since(1)[0].Seq, ShouldEqual, 2)
			So(log.Since(-1), ShouldHaveLength, 4)
			So(log.Since(10), ShouldBeEmpty)
		})

		Convey("Concurrent appends keep unique sequence numbers", func() {
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					log.Append("a", "b", models.CategoryInfo, "m")
				}()
			}
			wg.Wait()
			seen := map[int]bool{}
			for _, m := range log.Snapshot() {
				seen[m.Seq] = true
			}
			So(seen, ShouldHaveLength, 20)
		})
	})
}

func TestCashierStatusTracker(t *testing.T) {
	Convey("Given a cashier tracker", t, func() {
		tr := NewCashierStatusTracker()

		Convey("Initialize sets every cashier waiting and replaces prior content", func() {
			tr.SetStatus("OLD", models.CashierReceiving)
			tr.Initialize([]string{"CAJ_01", "CAJ_02"})
			So(tr.Snapshot(), ShouldResemble, map[string]models.CashierStatus{
				"CAJ_01": models.CashierWaiting,
				"CAJ_02": models.CashierWaiting,
			})
		})

		Convey("SetStatus is a lenient upsert", func() {
			tr.Initialize([]string{"CAJ_01"})
			tr.SetStatus("CAJ_01", models.CashierReceiving)
			tr.SetStatus("CAJ_09", models.CashierReceiving)

			s, ok := tr.Status("CAJ_01")
			So(ok, ShouldBeTrue)
			So(s, ShouldEqual, models.CashierReceiving)
			So(tr.Len(), ShouldEqual, 2)

			_, ok = tr.Status("nope")
			So(ok, ShouldBeFalse)
		})

		Convey("Snapshot is a copy", func() {
			tr.Initialize([]string{"CAJ_01"})
			snap := tr.Snapshot()
			snap["CAJ_01"] = models.CashierReceiving
			s, _ := tr.Status("CAJ_01")
			So(s, ShouldEqual, models.CashierWaiting)
		})
	})
}
