package render

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strconv"
	"strings"

	"shop-sim-viewer/src/logger"
	"shop-sim-viewer/src/models"
)

var stageLabels = map[models.Stage]string{
	models.StageAwaitingBudget: "Budget",
	models.StageSelectingList:  "List",
	models.StageShopping:       "Shopping",
	models.StageCheckingOut:    "Checkout",
	models.StageComplete:       "Complete",
}

// Element ids shared by the page template and Updates.
const (
	idAgent       = "agent"
	idRouteLine   = "route-line"
	idRouteDots   = "route-dots"
	idRouteTarget = "route-target"
	idProgress    = "progress-text"
	idActivity    = "activity-text"
	idBudget      = "budget-text"
	idInvoice     = "invoice-text"
	idMessageLog  = "message-log"
	idStageLabel  = "stage-label"
)

var panelIDs = []string{"budget-panel", "list-panel", "resume-panel"}

// -----------------------------------------------------------------------------

// MapRenderer draws a branch map and the state of one session as an SVG page, and turns later
// session frames into element updates for that page. It only reads frames.
type MapRenderer struct {
	CellSize int
	Logger   *logger.Logger

	page  *template.Template
	index *template.Template
}

// -----------------------------------------------------------------------------

func NewMapRenderer(cellSize int, log *logger.Logger) (*MapRenderer, error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("cell size must be positive, got %d", cellSize)
	}
	if log == nil {
		log = logger.NewLogger(nil, "MapRenderer")
	}

	funcs := template.FuncMap{
		"add":  func(i, j int) int { return i + j },
		"mult": func(i, j int) int { return i * j },
		"div":  func(i, j int) int { return i / j },
		"cellID": func(c CellView) string {
			if c.Kind == CellCashier {
				return cashierCellID(c.Label)
			}
			return fmt.Sprintf("cell-%d-%d", c.Row, c.Col)
		},
	}

	page, err := template.New("simulation").Funcs(funcs).Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse simulation template: %w", err)
	}
	index, err := template.New("index").Parse(indexTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}

	return &MapRenderer{
		CellSize: cellSize,
		Logger:   log,
		page:     page,
		index:    index,
	}, nil
}

// -----------------------------------------------------------------------------

func cashierCellID(id string) string   { return "cashier-" + id + "-cell" }
func cashierStatusID(id string) string { return "cashier-" + id + "-status" }
func stageID(s models.Stage) string    { return "stage-" + s.String() }
func listID(kind models.ListKind) string {
	return "list-" + string(kind) + "-summary"
}

// -----------------------------------------------------------------------------

// Layout returns every cell of the map in row-major order. Cashiers win over the entrance,
// the entrance over product zones, and zones over obstacles.
func (r *MapRenderer) Layout(m *models.MBranchMap) []CellView {
	if m == nil || m.Dimensions.Rows <= 0 || m.Dimensions.Cols <= 0 {
		return nil
	}
	rows, cols := m.Dimensions.Rows, m.Dimensions.Cols
	cells := make([]CellView, 0, rows*cols)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			cells = append(cells, CellView{Row: row, Col: col, Kind: CellEmpty})
		}
	}

	set := func(row, col int, kind CellKind, label string) {
		if row < 0 || col < 0 || row >= rows || col >= cols {
			r.Logger.Debug("Skipping %s cell outside the grid at (%d,%d)", kind, row, col)
			return
		}
		cells[row*cols+col] = CellView{Row: row, Col: col, Kind: kind, Label: label}
	}

	for _, o := range m.Obstacles {
		set(o.Row, o.Col, CellObstacle, "")
	}

	names := make([]string, 0, len(m.ProductZones))
	for name := range m.ProductZones {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		z := m.ProductZones[name]
		set(z.Row, z.Col, CellZone, name)
	}

	if m.Entrance != nil {
		set(m.Entrance.Row, m.Entrance.Col, CellEntrance, "Entrance")
	}
	for _, c := range m.Cashiers {
		set(c.Row, c.Col, CellCashier, c.ID)
	}
	return cells
}

// -----------------------------------------------------------------------------

func (r *MapRenderer) center(p models.MPosition) (int, int) {
	half := r.CellSize / 2
	return p.Col*r.CellSize + half, p.Row*r.CellSize + half
}

// routePoints is the dashed polyline from the agent through the rest of the route.
func (r *MapRenderer) routePoints(from models.MPosition, remaining []models.MPosition) string {
	if len(remaining) == 0 {
		return ""
	}
	parts := make([]string, 0, len(remaining)+1)
	for _, p := range append([]models.MPosition{from}, remaining...) {
		x, y := r.center(p)
		parts = append(parts, strconv.Itoa(x)+","+strconv.Itoa(y))
	}
	return strings.Join(parts, " ")
}

// routeDots draws one small circle per pending waypoint as a single path.
func (r *MapRenderer) routeDots(remaining []models.MPosition) string {
	radius := r.CellSize / 6
	if radius < 2 {
		radius = 2
	}
	var b strings.Builder
	for _, p := range remaining {
		x, y := r.center(p)
		fmt.Fprintf(&b, "M%d %d a%d,%d 0 1,0 %d,0 a%d,%d 0 1,0 %d,0 ",
			x-radius, y, radius, radius, 2*radius, radius, radius, -2*radius)
	}
	return strings.TrimSpace(b.String())
}

// -----------------------------------------------------------------------------

func progressText(p models.MAnimationProgress) string {
	if p.TotalSteps == 0 {
		return ""
	}
	return fmt.Sprintf("Step %d of %d", p.CurrentStep, p.TotalSteps)
}

func budgetText(budget float64) string {
	if budget <= 0 {
		return ""
	}
	return "Budget: Bs. " + strconv.FormatFloat(budget, 'f', 2, 64)
}

func invoiceText(inv *models.MInvoice) string {
	if inv == nil {
		return ""
	}
	return fmt.Sprintf("Total: Bs. %.2f (%d items, cashier %s)", inv.Total, inv.ItemCount, inv.CashierID)
}

func cashierStatus(status models.CashierStatus) (string, string) {
	if status == models.CashierReceiving {
		return "busy", "status busy"
	}
	return "free", "status free"
}

func stageViews(current models.Stage) []stageView {
	out := make([]stageView, 0, len(stageLabels))
	for _, s := range models.AllStages() {
		class := "stage pending"
		switch {
		case s < current:
			class = "stage done"
		case s == current:
			class = "stage active"
		}
		out = append(out, stageView{Name: stageID(s), Label: stageLabels[s], Class: class})
	}
	return out
}

func listViews(lists *models.MProductLists) []listView {
	out := make([]listView, 0, 3)
	for _, kind := range []models.ListKind{models.ListExact, models.ListSuperior, models.ListInferior} {
		v := listView{Kind: string(kind)}
		if lists != nil {
			l, _ := lists.Get(kind)
			v.Summary = fmt.Sprintf("Bs. %.2f, %d items", l.Total, l.ItemCount)
		}
		out = append(out, v)
	}
	return out
}

func toMessageView(m models.MMessage) messageView {
	return messageView{
		Seq:      m.Seq,
		Time:     m.Timestamp.Format("15:04:05"),
		From:     m.From,
		To:       m.To,
		Category: string(m.Category),
		Content:  m.Content,
	}
}

// panels decides which control panels the page shows for a frame.
func panels(frame models.MSessionFrame) map[string]string {
	visible := map[string]bool{
		"budget-panel": frame.Stage == models.StageAwaitingBudget,
		"list-panel":   frame.Stage == models.StageSelectingList,
	}
	if frame.Stage == models.StageShopping || frame.Stage == models.StageCheckingOut {
		n := len(frame.Messages)
		visible["resume-panel"] = n > 0 && frame.Messages[n-1].Category == models.CategoryError
	}

	out := make(map[string]string, len(panelIDs))
	for _, id := range panelIDs {
		if visible[id] {
			out[id] = "panel"
		} else {
			out[id] = "panel hidden"
		}
	}
	return out
}

// -----------------------------------------------------------------------------

// Page writes the full viewer document for a branch. frame may be the zero frame when no session
// exists yet; the page then creates one itself.
func (r *MapRenderer) Page(w io.Writer, m *models.MBranchMap, frame models.MSessionFrame) error {
	data := pageData{
		BranchID:     frame.BranchID,
		BuyerID:      frame.BuyerID,
		Size:         r.CellSize,
		Cells:        r.Layout(m),
		Stages:       stageViews(frame.Stage),
		Lists:        listViews(frame.Lists),
		LastSeq:      -1,
		RoutePoints:  r.routePoints(frame.Position, frame.Remaining),
		RouteDots:    r.routeDots(frame.Remaining),
		StageLabel:   stageLabels[frame.Stage],
		ProgressText: progressText(frame.Progress),
		Activity:     frame.Activity,
		BudgetText:   budgetText(frame.Budget),
		InvoiceText:  invoiceText(frame.Invoice),
		Panels:       panels(frame),
	}
	if m != nil {
		data.Title = m.Name
		data.Width = m.Dimensions.Cols * r.CellSize
		data.Height = m.Dimensions.Rows * r.CellSize
		if data.BranchID == "" {
			data.BranchID = m.BranchID
		}
		for _, c := range m.Cashiers {
			status, class := cashierStatus(frame.CashierStatuses[c.ID])
			data.Cashiers = append(data.Cashiers, cashierView{ID: c.ID, Row: c.Row, Col: c.Col, Status: status, Class: class})
		}
	}
	if data.Title == "" {
		data.Title = data.BranchID
	}
	data.AgentX, data.AgentY = r.center(frame.Position)

	for _, msg := range frame.Messages {
		data.Messages = append(data.Messages, toMessageView(msg))
		data.LastSeq = msg.Seq
	}

	return r.page.Execute(w, data)
}

// -----------------------------------------------------------------------------

// Index writes the branch list page.
func (r *MapRenderer) Index(w io.Writer, branches []models.MBranchSummary) error {
	return r.index.Execute(w, branches)
}

// -----------------------------------------------------------------------------

// Updates converts a frame into element updates for a page already showing the session.
// Messages with a sequence number below sent are left out.
func (r *MapRenderer) Updates(frame models.MSessionFrame, sent int) []EleUpdate {
	x, y := r.center(frame.Position)
	visibility := "hidden"
	tx, ty := x, y
	if n := len(frame.Remaining); n > 0 {
		visibility = "visible"
		tx, ty = r.center(frame.Remaining[n-1])
	}

	updates := []EleUpdate{
		{EleId: idAgent, Ops: []Op{
			{Key: "cx", Value: strconv.Itoa(x)},
			{Key: "cy", Value: strconv.Itoa(y)},
		}},
		{EleId: idRouteLine, Ops: []Op{{Key: "points", Value: r.routePoints(frame.Position, frame.Remaining)}}},
		{EleId: idRouteDots, Ops: []Op{{Key: "d", Value: r.routeDots(frame.Remaining)}}},
		{EleId: idRouteTarget, Ops: []Op{
			{Key: "cx", Value: strconv.Itoa(tx)},
			{Key: "cy", Value: strconv.Itoa(ty)},
			{Key: "visibility", Value: visibility},
		}},
		{EleId: idProgress, Ops: []Op{{Key: KeyText, Value: progressText(frame.Progress)}}},
		{EleId: idActivity, Ops: []Op{{Key: KeyText, Value: frame.Activity}}},
		{EleId: idBudget, Ops: []Op{{Key: KeyText, Value: budgetText(frame.Budget)}}},
		{EleId: idInvoice, Ops: []Op{{Key: KeyText, Value: invoiceText(frame.Invoice)}}},
		{EleId: idStageLabel, Ops: []Op{{Key: KeyText, Value: stageLabels[frame.Stage]}}},
	}

	for _, s := range stageViews(frame.Stage) {
		updates = append(updates, EleUpdate{EleId: s.Name, Ops: []Op{{Key: "class", Value: s.Class}}})
	}

	ids := make([]string, 0, len(frame.CashierStatuses))
	for id := range frame.CashierStatuses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		status, class := cashierStatus(frame.CashierStatuses[id])
		updates = append(updates,
			EleUpdate{EleId: cashierStatusID(id), Ops: []Op{{Key: KeyText, Value: status}, {Key: "class", Value: class}}},
			EleUpdate{EleId: cashierCellID(id), Ops: []Op{{Key: "class", Value: "cell cashier " + status}}},
		)
	}

	if frame.Lists != nil {
		for _, l := range listViews(frame.Lists) {
			updates = append(updates, EleUpdate{EleId: listID(models.ListKind(l.Kind)), Ops: []Op{{Key: KeyText, Value: l.Summary}}})
		}
	}

	classes := panels(frame)
	for _, id := range panelIDs {
		updates = append(updates, EleUpdate{EleId: id, Ops: []Op{{Key: "class", Value: classes[id]}}})
	}

	for _, msg := range frame.Messages {
		if msg.Seq < sent {
			continue
		}
		data, err := json.Marshal(toMessageView(msg))
		if err != nil {
			r.Logger.Warning("Skipping message %d: %v", msg.Seq, err)
			continue
		}
		updates = append(updates, EleUpdate{EleId: idMessageLog, Ops: []Op{{Key: KeyAppendMessage, Value: string(data)}}})
	}
	return updates
}

// -----------------------------------------------------------------------------

// FrameView follows one session and remembers how many messages it already turned into updates.
// It is not safe for concurrent use.
type FrameView struct {
	renderer *MapRenderer
	sent     int
}

func (r *MapRenderer) NewFrameView() *FrameView {
	return &FrameView{renderer: r}
}

// Convert returns the updates for frame and advances the message cursor.
func (v *FrameView) Convert(frame models.MSessionFrame) []EleUpdate {
	updates := v.renderer.Updates(frame, v.sent)
	if n := len(frame.Messages); n > 0 && frame.Messages[n-1].Seq+1 > v.sent {
		v.sent = frame.Messages[n-1].Seq + 1
	}
	return updates
}
