package render

// The viewer page. The inline script owns the session lifecycle: it creates a session when the
// page has none, posts the user triggers, and applies the element updates pushed over the
// websocket.
const pageTemplate = `<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>{{ .Title }} - shop simulation</title>
	<style>
		body { font-family: sans-serif; margin: 16px; display: flex; gap: 24px; }
		.hidden { display: none; }
		.cell { stroke: #ccc; stroke-width: 1px; fill: #fff; }
		.cell.obstacle { fill: #4b5563; }
		.cell.entrance { fill: #22c55e; }
		.cell.zone { fill: #93c5fd; }
		.cell.cashier { fill: #facc15; }
		.cell.cashier.busy { fill: #f97316; }
		#agent { fill: #dc2626; }
		#route-line { fill: none; stroke: #2563eb; stroke-width: 2px; stroke-dasharray: 4 3; }
		#route-dots { fill: #2563eb; }
		#route-target { fill: none; stroke: #2563eb; stroke-width: 2px; }
		.stage { padding: 2px 8px; border-radius: 4px; margin-right: 4px; }
		.stage.done { background: #bbf7d0; }
		.stage.active { background: #fde68a; font-weight: bold; }
		.stage.pending { background: #e5e7eb; }
		.status.busy { color: #c2410c; }
		.status.free { color: #15803d; }
		#message-log { list-style: none; padding: 0; max-height: 360px; overflow-y: auto; font-size: 13px; }
		.msg-error { color: #b91c1c; }
		.msg-success { color: #15803d; }
		.msg-diagnostic { color: #6b7280; font-style: italic; }
		.msg-communication { color: #7c3aed; }
	</style>
	{{ $half := div .Size 2 }}
	<script>
		const branchId = {{ .BranchID }};
		let buyerId = {{ .BuyerID }};
		let lastSeq = {{ .LastSeq }};

		function showError(text) {
			document.getElementById("error-text").textContent = text || "";
		}

		function appendMessage(raw) {
			const m = JSON.parse(raw);
			if (m.seq <= lastSeq) {
				return;
			}
			lastSeq = m.seq;
			const li = document.createElement("li");
			li.className = "msg msg-" + m.category;
			li.textContent = "[" + m.time + "] " + m.from + " -> " + m.to + ": " + m.content;
			const log = document.getElementById("message-log");
			log.appendChild(li);
			log.scrollTop = log.scrollHeight;
		}

		// Apply a batch of element updates pushed by the server.
		function apply(items) {
			for (const update of items) {
				const ele = document.getElementById(update.EleId);
				if (!ele) {
					continue;
				}
				for (const op of update.Ops) {
					if (op.Key === "textContent") {
						ele.textContent = op.Value;
					} else if (op.Key === "appendMessage") {
						appendMessage(op.Value);
					} else {
						ele.setAttribute(op.Key, op.Value);
					}
				}
			}
		}

		async function post(path, body) {
			showError("");
			const resp = await fetch(path, {
				method: "POST",
				headers: { "Content-Type": "application/json" },
				body: JSON.stringify(body || {}),
			});
			const data = await resp.json().catch(function () { return {}; });
			if (!resp.ok) {
				showError(data.error || resp.statusText);
			}
			return data;
		}

		function connect() {
			const proto = location.protocol === "https:" ? "wss://" : "ws://";
			const ws = new WebSocket(proto + location.host + "/ws?session=" + encodeURIComponent(buyerId));
			ws.onmessage = function (event) {
				apply(JSON.parse(event.data));
			};
			ws.addEventListener("error", function (event) {
				console.log("WebSocket error: ", event);
			});
		}

		async function start() {
			if (!buyerId) {
				const data = await post("/api/sessions", { branch_id: branchId });
				if (!data.buyer_id) {
					return;
				}
				buyerId = data.buyer_id;
			}
			document.getElementById("buyer-text").textContent = buyerId;
			connect();
		}

		function submitBudget(event) {
			event.preventDefault();
			post("/api/sessions/" + buyerId + "/budget", { budget: document.getElementById("budget-input").value });
		}

		function selectList(kind) {
			post("/api/sessions/" + buyerId + "/list", { tipo_lista: kind });
		}

		function resume() {
			post("/api/sessions/" + buyerId + "/resume", {});
		}

		window.addEventListener("load", start);
	</script>
</head>
<body>
	<div>
		<h2>{{ .Title }}</h2>
		<div>
			{{ range .Stages }}<span id="{{ .Name }}" class="{{ .Class }}">{{ .Label }}</span>{{ end }}
		</div>
		<p>Stage: <b id="stage-label">{{ .StageLabel }}</b> | Buyer: <span id="buyer-text">{{ .BuyerID }}</span></p>
		<svg id="branch-map" width="{{ .Width }}px" height="{{ .Height }}px">
		{{ $size := .Size }}
		{{ range .Cells }}
			<rect id="{{ cellID . }}" class="cell {{ .Kind }}"
				x="{{ mult .Col $size }}" y="{{ mult .Row $size }}"
				width="{{ $size }}" height="{{ $size }}">{{ if .Label }}<title>{{ .Label }}</title>{{ end }}</rect>
		{{ end }}
			<polyline id="route-line" points="{{ .RoutePoints }}"/>
			<path id="route-dots" d="{{ .RouteDots }}"/>
			<circle id="route-target" cx="{{ .AgentX }}" cy="{{ .AgentY }}" r="{{ $half }}" visibility="hidden"/>
			<circle id="agent" cx="{{ .AgentX }}" cy="{{ .AgentY }}" r="{{ div $size 3 }}"/>
		</svg>
		<p id="progress-text">{{ .ProgressText }}</p>
		<p id="activity-text">{{ .Activity }}</p>
	</div>
	<div>
		<p id="error-text" class="msg-error"></p>
		<p id="budget-text">{{ .BudgetText }}</p>
		<div id="budget-panel" class="{{ index .Panels "budget-panel" }}">
			<form onsubmit="submitBudget(event)">
				<input id="budget-input" type="text" placeholder="Budget (Bs.)">
				<button type="submit">Start</button>
			</form>
		</div>
		<div id="list-panel" class="{{ index .Panels "list-panel" }}">
			{{ range .Lists }}
			<div>
				<button onclick="selectList({{ .Kind }})">{{ .Kind }}</button>
				<span id="list-{{ .Kind }}-summary">{{ .Summary }}</span>
			</div>
			{{ end }}
		</div>
		<div id="resume-panel" class="{{ index .Panels "resume-panel" }}">
			<button onclick="resume()">Retry</button>
		</div>
		<h3>Cashiers</h3>
		<ul>
		{{ range .Cashiers }}
			<li>{{ .ID }} ({{ .Row }},{{ .Col }}): <span id="cashier-{{ .ID }}-status" class="{{ .Class }}">{{ .Status }}</span></li>
		{{ end }}
		</ul>
		<p id="invoice-text">{{ .InvoiceText }}</p>
		<h3>Communication</h3>
		<ul id="message-log">
		{{ range .Messages }}
			<li class="msg msg-{{ .Category }}">[{{ .Time }}] {{ .From }} -> {{ .To }}: {{ .Content }}</li>
		{{ end }}
		</ul>
	</div>
</body>
</html>
`

const indexTemplate = `<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>Branches - shop simulation</title>
</head>
<body>
	<h2>Branches</h2>
	<ul>
	{{ range . }}
		<li><a href="/simulation/{{ .BranchID }}">{{ .Name }}</a> ({{ .Dimensions.Rows }}x{{ .Dimensions.Cols }})</li>
	{{ else }}
		<li>No branches available</li>
	{{ end }}
	</ul>
</body>
</html>
`
