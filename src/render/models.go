package render

// EleUpdate is an element identifier and a set of operations to apply to its attributes/content.
type EleUpdate struct {
	// The id by which to find the element
	EleId string
	// Op keys are attribute keys or one of the reserved keys below; values are the strings to
	// which these are set. ('cx','110') means set attribute 'cx' to 110.
	Ops []Op
}

// Op is a key and value. For example an svg attribute and its new value.
type Op struct {
	Key   string
	Value string
}

// Reserved op keys understood by the viewer page.
const (
	// KeyText sets ele.textContent.
	KeyText = "textContent"
	// KeyAppendMessage appends one JSON encoded messageView to the message list. The page skips
	// sequence numbers it has already shown.
	KeyAppendMessage = "appendMessage"
)

// -----------------------------------------------------------------------------

type CellKind string

const (
	CellEmpty    CellKind = "empty"
	CellObstacle CellKind = "obstacle"
	CellEntrance CellKind = "entrance"
	CellZone     CellKind = "zone"
	CellCashier  CellKind = "cashier"
)

// CellView is one grid cell as drawn on the page.
type CellView struct {
	Row   int
	Col   int
	Kind  CellKind
	Label string
}

type cashierView struct {
	ID     string
	Row    int
	Col    int
	Status string
	Class  string
}

type stageView struct {
	Name  string
	Label string
	Class string
}

type messageView struct {
	Seq      int    `json:"seq"`
	Time     string `json:"time"`
	From     string `json:"from"`
	To       string `json:"to"`
	Category string `json:"category"`
	Content  string `json:"content"`
}

type listView struct {
	Kind    string
	Summary string
}

// pageData is bound to the viewer template.
type pageData struct {
	Title        string
	BranchID     string
	BuyerID      string
	Size         int
	Width        int
	Height       int
	Cells        []CellView
	Cashiers     []cashierView
	Stages       []stageView
	Lists        []listView
	Messages     []messageView
	LastSeq      int
	AgentX       int
	AgentY       int
	RoutePoints  string
	RouteDots    string
	StageLabel   string
	ProgressText string
	Activity     string
	BudgetText   string
	InvoiceText  string
	Panels       map[string]string
}
