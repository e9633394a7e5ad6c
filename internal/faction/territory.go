package faction

// Territory is a contestable holding controlled by at most one
// faction at a time (spec.md §3).
type Territory struct {
	ID                 string  `json:"id"`
	ControllingFaction ID      `json:"controlling_faction"`
	ControlStrength    float64 `json:"control_strength"` // [0,1]
	StrategicValue     float64 `json:"strategic_value"`
	Contested          bool    `json:"contested"`

	// ContestedWeeks supplements the distilled spec: the teacher tracks
	// how long a settlement has been fought over (checkFactionTensions
	// accelerates relation decay the longer factions contest a
	// settlement); here it lets callers surface "long-contested"
	// territories distinctly from freshly-contested ones without a
	// separate event log scan.
	ContestedWeeks int `json:"contested_weeks"`
}

// TradeRoute is a route between two territories/agents exchanging
// goods, rolled once per simulated day (spec.md §3, §4.11).
type TradeRoute struct {
	ID            string  `json:"id"`
	From          string  `json:"from"`
	To            string  `json:"to"`
	Goods         string  `json:"goods"`
	ProfitMargin  float64 `json:"profit_margin"`
	RiskLevel     float64 `json:"risk_level"` // [0,1]
	Status        string  `json:"status"`     // active, disrupted, retired
	TotalTrades   int     `json:"total_trades"`
}

const (
	RouteActive     = "active"
	RouteDisrupted  = "disrupted"
	RouteRetired    = "retired"
)

// Battle is an in-progress or resolved contest for a territory
// (spec.md §3, §4.11).
type Battle struct {
	ID           string  `json:"id"`
	Territory    string  `json:"territory"`
	Attacker     ID      `json:"attacker"`
	Defender     ID      `json:"defender"`
	AttackerStr  float64 `json:"attacker_str"`
	DefenderStr  float64 `json:"defender_str"`
	Status       string  `json:"status"` // inProgress, attackerWon, defenderWon
	Casualties   float64 `json:"casualties"`
}

const (
	BattleInProgress = "inProgress"
	BattleAttackerWon = "attackerWon"
	BattleDefenderWon = "defenderWon"
)
