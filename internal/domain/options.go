package domain

// WeaponsAsCurrency controls whether craft weapons are treated as money.
// When enabled, the listed weapon SKUs are excluded from inventory cost
// tracking the same way pure metal and keys are.
type WeaponsAsCurrency struct {
	Enable  bool     `json:"enable"`
	Weapons []string `json:"weapons"`
}

// Statistics is the persisted profit baseline: cumulative figures from trade
// log segments that have already been trimmed away, expressed in refined
// metal so they survive key-price changes.
type Statistics struct {
	LastTotalProfitMadeInRef    float64 `json:"last_total_profit_made_in_ref"`
	LastTotalProfitOverpayInRef float64 `json:"last_total_profit_overpay_in_ref"`
	LastTotalTrades             int     `json:"last_total_trades"`
}

// Options is the live bot options document. It is read at the start of every
// profit computation and updated in place by operator commands and by the
// trade-log trimmer.
type Options struct {
	WeaponsAsCurrency WeaponsAsCurrency `json:"weapons_as_currency"`
	Statistics        Statistics        `json:"statistics"`
}

// DefaultOptions returns the options document used before an operator has
// ever customized anything.
func DefaultOptions() Options {
	return Options{
		WeaponsAsCurrency: WeaponsAsCurrency{Enable: true, Weapons: nil},
	}
}
