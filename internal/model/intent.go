package model

// IntentType enumerates the actions the signal evaluator can propose.
type IntentType string

const (
	IntentNone     IntentType = "NONE"
	IntentOpenLong IntentType = "OPEN_LONG"
	IntentClose    IntentType = "CLOSE_LONG"
)

// Intent is a proposed position action for a single bar. It is a
// recommendation only: the execution simulator decides whether and how it
// fills. StopLoss/TakeProfit are set for OpenLong intents.
type Intent struct {
	Type       IntentType `json:"type"`
	BarIndex   int        `json:"bar_index"`
	StopLoss   float64    `json:"stop_loss,omitempty"`
	TakeProfit float64    `json:"take_profit,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}

// None is the zero intent for a bar where no rule fired.
func None(barIndex int) Intent {
	return Intent{Type: IntentNone, BarIndex: barIndex}
}

// PositionState is the evaluator's read-only view of the current position.
// The simulator is the single writer.
type PositionState struct {
	Long       bool    `json:"long"`
	EntryPrice float64 `json:"entry_price,omitempty"`
	StopLoss   float64 `json:"stop_loss,omitempty"`
	TakeProfit float64 `json:"take_profit,omitempty"`
	Qty        float64 `json:"qty,omitempty"`
}
