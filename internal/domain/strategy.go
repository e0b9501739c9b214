package domain

// Strategy type identifiers. The set is closed for configuration purposes;
// additional implementations register through the strategy package.
const (
	StrategyTypeBuyAndHold            = "BUY_AND_HOLD"
	StrategyTypeDividendCapture       = "DIVIDEND_CAPTURE"
	StrategyTypeCustomDividendCapture = "CUSTOM_DIVIDEND_CAPTURE"
)

// StrategyConfig selects a strategy type with its parameters. Pointer
// fields distinguish "not provided" from a zero value; the strategy
// factory validates presence per type.
type StrategyConfig struct {
	StrategyType    string
	EntryDaysBefore *int // DIVIDEND_CAPTURE: trading days before ex-date to enter
	ExitDaysAfter   *int // trading days after ex-date to exit
}
