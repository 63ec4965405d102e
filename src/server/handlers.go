package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"shop-sim-viewer/src/engine"
	"shop-sim-viewer/src/helpers"
	"shop-sim-viewer/src/models"
	"shop-sim-viewer/src/session"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Pages
// -----------------------------------------------------------------------------

func (s *ViewerServer) getIndex(c *gin.Context) {
	branches, err := s.Catalog.ListMaps(c.Request.Context())
	if err != nil {
		s.Errors.Handle(err, "index")
		c.String(s.Errors.HTTPStatus(err), "Branches unavailable: %s", helpers.UserMessage(err))
		return
	}

	var buf bytes.Buffer
	if err := s.Renderer.Index(&buf, branches); err != nil {
		s.Errors.Handle(err, "index")
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// -----------------------------------------------------------------------------

// getSimulationPage renders the viewer of a branch. With ?session=<id> it shows that session;
// otherwise the page creates a new one when loaded.
func (s *ViewerServer) getSimulationPage(c *gin.Context) {
	branchID := c.Param("branchId")
	m, err := s.Catalog.GetMap(c.Request.Context(), branchID)
	if err != nil {
		s.Errors.Handle(err, "simulation page")
		c.String(s.Errors.HTTPStatus(err), "Map of %s unavailable: %s", branchID, helpers.UserMessage(err))
		return
	}

	frame := models.MSessionFrame{
		BranchID: branchID,
		Position: s.Config.Viewer.DefaultStart,
	}
	if m.Entrance != nil {
		if p, ok := engine.Normalize(*m.Entrance); ok {
			frame.Position = p
		}
	}
	if id := c.Query("session"); id != "" {
		controller, err := s.Sessions.Get(id)
		if err != nil {
			s.Errors.Handle(err, "simulation page")
			c.String(http.StatusNotFound, "Unknown session %s", id)
			return
		}
		frame = controller.Snapshot()
	}

	var buf bytes.Buffer
	if err := s.Renderer.Page(&buf, m, frame); err != nil {
		s.Errors.Handle(err, "simulation page")
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// -----------------------------------------------------------------------------
// Sessions
// -----------------------------------------------------------------------------

func (s *ViewerServer) createSession(c *gin.Context) {
	var req struct {
		BranchID string `json:"branch_id"`
	}
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err, "create session")
		return
	}

	controller, err := s.Sessions.Create(req.BranchID)
	if err != nil {
		s.respondError(c, err, "create session")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"buyer_id":  controller.BuyerID(),
		"branch_id": controller.BranchID(),
	})
}

// -----------------------------------------------------------------------------

func (s *ViewerServer) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": s.Sessions.List()})
}

// -----------------------------------------------------------------------------

func (s *ViewerServer) getSession(c *gin.Context) {
	controller, err := s.Sessions.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, err, "get session")
		return
	}
	c.JSON(http.StatusOK, controller.Snapshot())
}

// -----------------------------------------------------------------------------

func (s *ViewerServer) deleteSession(c *gin.Context) {
	if err := s.Sessions.Remove(c.Param("id")); err != nil {
		s.respondError(c, err, "delete session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// -----------------------------------------------------------------------------

func (s *ViewerServer) getSessionReport(c *gin.Context) {
	controller, err := s.Sessions.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, err, "session report")
		return
	}
	c.JSON(http.StatusOK, s.Analysis.SummarizeSession(controller.Snapshot()))
}

// -----------------------------------------------------------------------------

// submitBudget runs synchronously: the reply carries the outcome of create + generate-lists.
func (s *ViewerServer) submitBudget(c *gin.Context) {
	controller, err := s.Sessions.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, err, "submit budget")
		return
	}

	var req struct {
		Budget json.RawMessage `json:"budget"`
	}
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err, "submit budget")
		return
	}

	if err := controller.SubmitBudget(c.Request.Context(), rawText(req.Budget)); err != nil {
		s.respondError(c, err, "submit budget")
		return
	}
	c.JSON(http.StatusOK, controller.Snapshot())
}

// -----------------------------------------------------------------------------

// selectList starts the automatic chain in the background and answers 202 at once. The chain
// reports its progress through the session frames.
func (s *ViewerServer) selectList(c *gin.Context) {
	controller, err := s.Sessions.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, err, "select list")
		return
	}

	var req struct {
		Kind models.ListKind `json:"tipo_lista"`
	}
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err, "select list")
		return
	}
	if !req.Kind.Valid() {
		s.respondError(c, helpers.NewValidationError("tipo_lista", "unknown list type %q", req.Kind), "select list")
		return
	}
	if err := session.Ready(controller, models.StageSelectingList); err != nil {
		s.respondError(c, err, "select list")
		return
	}

	err = s.Sessions.Go(controller.BuyerID(), func(ctx context.Context, sc *engine.StageController) error {
		return sc.SelectList(ctx, req.Kind)
	})
	if err != nil {
		s.respondError(c, err, "select list")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true, "buyer_id": controller.BuyerID(), "tipo_lista": req.Kind})
}

// -----------------------------------------------------------------------------

func (s *ViewerServer) resume(c *gin.Context) {
	controller, err := s.Sessions.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, err, "resume")
		return
	}
	if err := session.Ready(controller, models.StageShopping, models.StageCheckingOut); err != nil {
		s.respondError(c, err, "resume")
		return
	}

	err = s.Sessions.Go(controller.BuyerID(), func(ctx context.Context, sc *engine.StageController) error {
		return sc.Resume(ctx)
	})
	if err != nil {
		s.respondError(c, err, "resume")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true, "buyer_id": controller.BuyerID()})
}

// -----------------------------------------------------------------------------
// Branches
// -----------------------------------------------------------------------------

func (s *ViewerServer) listBranches(c *gin.Context) {
	branches, err := s.Catalog.ListMaps(c.Request.Context())
	if err != nil {
		s.respondError(c, err, "list branches")
		return
	}
	c.JSON(http.StatusOK, gin.H{"mapas": branches})
}

// -----------------------------------------------------------------------------

func (s *ViewerServer) getBranchMap(c *gin.Context) {
	m, err := s.Catalog.GetMap(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err, "get map")
		return
	}
	c.JSON(http.StatusOK, m)
}

// -----------------------------------------------------------------------------

func (s *ViewerServer) saveBranchMap(c *gin.Context) {
	var m models.MBranchMap
	if err := c.ShouldBindJSON(&m); err != nil {
		s.respondError(c, helpers.NewValidationError("body", "invalid map document: %v", err), "save map")
		return
	}
	if err := s.Catalog.SaveMap(c.Request.Context(), c.Param("id"), &m); err != nil {
		s.respondError(c, err, "save map")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "mensaje": "Map saved"})
}

// -----------------------------------------------------------------------------

func (s *ViewerServer) getInventory(c *gin.Context) {
	inv, err := s.Catalog.GetInventory(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err, "get inventory")
		return
	}
	c.JSON(http.StatusOK, inv)
}

// -----------------------------------------------------------------------------

func (s *ViewerServer) getInvoices(c *gin.Context) {
	invoices, err := s.Catalog.Invoices(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err, "get invoices")
		return
	}
	c.JSON(http.StatusOK, gin.H{"facturas": invoices})
}

// -----------------------------------------------------------------------------

func (s *ViewerServer) getBranchReport(c *gin.Context) {
	branchID := c.Param("id")
	invoices, err := s.Catalog.Invoices(c.Request.Context(), branchID)
	if err != nil {
		s.respondError(c, err, "branch report")
		return
	}
	c.JSON(http.StatusOK, s.Analysis.SummarizeBranch(branchID, invoices))
}

// -----------------------------------------------------------------------------
// Service
// -----------------------------------------------------------------------------

func (s *ViewerServer) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"api_base_url": s.Config.API.BaseURL,
		"animation":    s.Sessions.Animation(),
		"viewer":       s.Config.Viewer,
	})
}

// -----------------------------------------------------------------------------

func (s *ViewerServer) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": s.connections.Load(),
		"sessions":    len(s.Sessions.List()),
		"errors":      s.Errors.Count(),
	})
}
