package grpc_control

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"

	"shop-sim-viewer/src/config"
	"shop-sim-viewer/src/engine"
	"shop-sim-viewer/src/helpers"
	"shop-sim-viewer/src/logger"
	"shop-sim-viewer/src/models"
	"shop-sim-viewer/src/session"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

var _ SimulationControlServer = (*ControlService)(nil)

// maxPauseMs caps every pacing field accepted by UpdateAnimation.
const maxPauseMs = 60000

// ControlService drives sessions from scripts. It shares the session registry with the viewer,
// so anything started here is visible in the browser.
type ControlService struct {
	Config     *config.Config
	ConfigPath string // empty keeps config changes in memory
	Sessions   *session.Manager
	Logger     *logger.Logger
	Errors     *helpers.ErrorHandler

	mu sync.Mutex // serializes config updates
}

// NewControlService creates a new instance of ControlService
func NewControlService(
	cfg *config.Config,
	cfgPath string,
	sessions *session.Manager,
	log *logger.Logger,
) *ControlService {
	return &ControlService{
		Config:     cfg,
		ConfigPath: cfgPath,
		Sessions:   sessions,
		Logger:     log,
		Errors:     helpers.NewErrorHandler(log),
	}
}

// -----------------------------------------------------------------------------

func (s *ControlService) CreateSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	c, err := s.Sessions.Create(textField(req, "branch_id"))
	if err != nil {
		return nil, s.toStatus(err, "CreateSession")
	}
	s.Logger.Info("Session %s created over gRPC", c.BuyerID())
	return toStruct(map[string]interface{}{
		"success":   true,
		"buyer_id":  c.BuyerID(),
		"branch_id": c.BranchID(),
	})
}

// -----------------------------------------------------------------------------

// SubmitBudget blocks until the buyer is created and the lists are generated.
func (s *ControlService) SubmitBudget(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	c, err := s.session(req)
	if err != nil {
		return nil, s.toStatus(err, "SubmitBudget")
	}
	if err := c.SubmitBudget(ctx, textField(req, "budget")); err != nil {
		return nil, s.toStatus(err, "SubmitBudget")
	}
	return toStruct(c.Snapshot())
}

// -----------------------------------------------------------------------------

// SelectList starts the shopping chain in the background and returns at once.
func (s *ControlService) SelectList(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	c, err := s.session(req)
	if err != nil {
		return nil, s.toStatus(err, "SelectList")
	}

	kind := models.ListKind(textField(req, "tipo_lista"))
	if !kind.Valid() {
		return nil, status.Errorf(codes.InvalidArgument, "unknown list type %q", kind)
	}
	if err := session.Ready(c, models.StageSelectingList); err != nil {
		return nil, s.toStatus(err, "SelectList")
	}

	err = s.Sessions.Go(c.BuyerID(), func(ctx context.Context, sc *engine.StageController) error {
		return sc.SelectList(ctx, kind)
	})
	if err != nil {
		return nil, s.toStatus(err, "SelectList")
	}
	return toStruct(map[string]interface{}{
		"success":    true,
		"buyer_id":   c.BuyerID(),
		"tipo_lista": string(kind),
	})
}

// -----------------------------------------------------------------------------

func (s *ControlService) Resume(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	c, err := s.session(req)
	if err != nil {
		return nil, s.toStatus(err, "Resume")
	}
	if err := session.Ready(c, models.StageShopping, models.StageCheckingOut); err != nil {
		return nil, s.toStatus(err, "Resume")
	}

	err = s.Sessions.Go(c.BuyerID(), func(ctx context.Context, sc *engine.StageController) error {
		return sc.Resume(ctx)
	})
	if err != nil {
		return nil, s.toStatus(err, "Resume")
	}
	return toStruct(map[string]interface{}{"success": true, "buyer_id": c.BuyerID()})
}

// -----------------------------------------------------------------------------

func (s *ControlService) GetSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	c, err := s.session(req)
	if err != nil {
		return nil, s.toStatus(err, "GetSession")
	}
	return toStruct(c.Snapshot())
}

// -----------------------------------------------------------------------------

func (s *ControlService) ListSessions(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(map[string]interface{}{"sessions": s.Sessions.List()})
}

// -----------------------------------------------------------------------------

// UpdateAnimation changes the pacing of new sessions and persists it to the config file.
// Fields left out of the request keep their value.
func (s *ControlService) UpdateAnimation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 1. Apply the requested fields over the current pacing
	a := s.Sessions.Animation()
	fields := []struct {
		name  string
		value *int
	}{
		{"step_ms", &a.StepMs},
		{"dwell_ms", &a.DwellMs},
		{"collection_pause_ms", &a.CollectionPauseMs},
		{"cashier_pause_ms", &a.CashierPauseMs},
		{"processing_pause_ms", &a.ProcessingPauseMs},
	}
	for _, f := range fields {
		v, ok := req.GetFields()[f.name]
		if !ok {
			continue
		}
		n, isNumber := v.GetKind().(*structpb.Value_NumberValue)
		if !isNumber || n.NumberValue < 0 || n.NumberValue != math.Trunc(n.NumberValue) {
			return nil, status.Errorf(codes.InvalidArgument, "%s must be a non-negative integer", f.name)
		}
		if n.NumberValue > maxPauseMs {
			return nil, status.Errorf(codes.InvalidArgument, "%s must be at most %d", f.name, maxPauseMs)
		}
		*f.value = int(n.NumberValue)
	}

	// 2. Update the registry, then the file
	s.Sessions.SetAnimation(a)
	if s.ConfigPath != "" {
		if err := s.Config.Save(s.ConfigPath); err != nil {
			s.Logger.Error("Failed to save config: %v", err)
			return nil, status.Errorf(codes.Internal, "failed to save config: %v", err)
		}
	}
	return toStruct(map[string]interface{}{"success": true, "animation": a})
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func (s *ControlService) session(req *structpb.Struct) (*engine.StageController, error) {
	id := textField(req, "buyer_id")
	if id == "" {
		return nil, helpers.NewValidationError("buyer_id", "buyer_id is required")
	}
	return s.Sessions.Get(id)
}

// -----------------------------------------------------------------------------

// toStatus logs err and maps it onto a gRPC status carrying the operator message.
func (s *ControlService) toStatus(err error, method string) error {
	s.Errors.Handle(err, method)

	var (
		vErr *helpers.ValidationError
		tErr *helpers.TransportError
		aErr *helpers.APIError
	)
	code := codes.Internal
	switch {
	case errors.As(err, &vErr):
		code = codes.InvalidArgument
	case errors.Is(err, helpers.ErrSessionNotFound):
		code = codes.NotFound
	case errors.Is(err, helpers.ErrInvalidTransition), errors.Is(err, helpers.ErrSessionBusy):
		code = codes.FailedPrecondition
	case errors.As(err, &tErr), errors.As(err, &aErr):
		code = codes.Unavailable
	}
	return status.Error(code, helpers.UserMessage(err))
}

// -----------------------------------------------------------------------------

// textField reads a string or number field as the user typed it.
func textField(req *structpb.Struct, name string) string {
	v, ok := req.GetFields()[name]
	if !ok {
		return ""
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return strings.TrimSpace(k.StringValue)
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(k.NumberValue, 'f', -1, 64)
	}
	return ""
}

// -----------------------------------------------------------------------------

// toStruct converts v through its JSON form, so replies use the same field names as the REST API.
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode reply: %v", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, status.Errorf(codes.Internal, "encode reply: %v", err)
	}
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode reply: %v", err)
	}
	return out, nil
}
