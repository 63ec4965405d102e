package session

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"shop-sim-viewer/src/engine"
	"shop-sim-viewer/src/helpers"
	"shop-sim-viewer/src/logger"
	"shop-sim-viewer/src/models"

	. "github.com/smartystreets/goconvey/convey"
)

// stubAPI answers every call successfully with empty payloads.
type stubAPI struct{}

func (stubAPI) CreateBuyer(ctx context.Context, b, s string, budget float64) (*models.MCreateBuyerReply, error) {
	return &models.MCreateBuyerReply{}, nil
}
func (stubAPI) GenerateLists(ctx context.Context, b string) (*models.MProductLists, error) {
	return &models.MProductLists{}, nil
}
func (stubAPI) SelectList(ctx context.Context, b string, k models.ListKind) error { return nil }
func (stubAPI) StartCollection(ctx context.Context, b string) (*models.MCollectionReply, error) {
	return &models.MCollectionReply{}, nil
}
func (stubAPI) FindNearestCashier(ctx context.Context, b string) (*models.MCashierReply, error) {
	return &models.MCashierReply{Cashier: &models.MCashier{ID: "CAJ_01"}}, nil
}
func (stubAPI) SubmitPurchase(ctx context.Context, b, c string) (*models.MInvoice, error) {
	return &models.MInvoice{CashierID: c, Total: 1}, nil
}

func newTestManager() *Manager {
	log := logger.NewLogger(nil, "SessionManager")
	log.SetOutput(io.Discard)
	cfg := &models.MConfig{LogLevel: "ERROR", Viewer: models.MViewerConfig{DefaultStart: models.MPosition{Row: 0, Col: 15}}}
	m := NewManager(cfg, stubAPI{}, log)
	m.Pacer = &engine.RecordingPacer{}
	return m
}

func TestManager(t *testing.T) {
	Convey("Given a session manager", t, func() {
		m := newTestManager()
		defer m.Stop()

		Convey("Buyer ids have the COMP_ prefix and eight hex digits", func() {
			re := regexp.MustCompile(`^COMP_[0-9a-f]{8}$`)
			seen := map[string]bool{}
			for i := 0; i < 50; i++ {
				id := NewBuyerID()
				So(re.MatchString(id), ShouldBeTrue)
				seen[id] = true
			}
			So(len(seen), ShouldEqual, 50)
		})

		Convey("Create registers a session awaiting its budget", func() {
			c, err := m.Create("sucursal_1")
			So(err, ShouldBeNil)
			So(c.Stage(), ShouldEqual, models.StageAwaitingBudget)
			So(c.Snapshot().Position, ShouldResemble, models.MPosition{Row: 0, Col: 15})

			got, err := m.Get(c.BuyerID())
			So(err, ShouldBeNil)
			So(got, ShouldEqual, c)
			So(m.List(), ShouldHaveLength, 1)
		})

		Convey("An empty branch is rejected", func() {
			_, err := m.Create("  ")
			var vErr *helpers.ValidationError
			So(errors.As(err, &vErr), ShouldBeTrue)
		})

		Convey("Unknown sessions are not found", func() {
			_, err := m.Get("COMP_00000000")
			So(errors.Is(err, helpers.ErrSessionNotFound), ShouldBeTrue)
			So(errors.Is(m.Remove("COMP_00000000"), helpers.ErrSessionNotFound), ShouldBeTrue)
		})

		Convey("Go runs a trigger in the background", func() {
			c, _ := m.Create("sucursal_1")
			So(c.SubmitBudget(context.Background(), "50"), ShouldBeNil)

			err := m.Go(c.BuyerID(), func(ctx context.Context, c *engine.StageController) error {
				return c.SelectList(ctx, models.ListExact)
			})
			So(err, ShouldBeNil)

			deadline := time.Now().Add(5 * time.Second)
			for c.Stage() != models.StageComplete && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			So(c.Stage(), ShouldEqual, models.StageComplete)
		})

		Convey("Remove deletes an idle session", func() {
			c, _ := m.Create("sucursal_1")
			So(m.Remove(c.BuyerID()), ShouldBeNil)
			So(m.List(), ShouldBeEmpty)
		})

		Convey("Ready accepts only the listed stages of an idle session", func() {
			c, _ := m.Create("sucursal_1")
			So(Ready(c, models.StageAwaitingBudget), ShouldBeNil)
			So(errors.Is(Ready(c, models.StageShopping, models.StageCheckingOut), helpers.ErrInvalidTransition), ShouldBeTrue)
		})

		Convey("New pacing applies to sessions created afterwards", func() {
			a := m.Animation()
			a.StepMs = 7
			m.SetAnimation(a)
			So(m.Animation().StepMs, ShouldEqual, 7)
			So(m.Config.Animation.StepMs, ShouldEqual, 7)
		})

		Convey("After Stop no trigger is accepted", func() {
			c, _ := m.Create("sucursal_1")
			So(m.Stop(), ShouldBeNil)
			err := m.Go(c.BuyerID(), func(ctx context.Context, c *engine.StageController) error { return nil })
			So(err, ShouldNotBeNil)
		})
	})
}
