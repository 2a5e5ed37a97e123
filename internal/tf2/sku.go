package tf2

// Canonical pure-currency SKUs. These four items are money, not inventory:
// moving them establishes no cost basis and realizes no profit.
const (
	SKUKey       = "5021;6" // Mann Co. Supply Crate Key
	SKUScrap     = "5000;6" // Scrap Metal
	SKUReclaimed = "5001;6" // Reclaimed Metal
	SKURefined   = "5002;6" // Refined Metal
)

// IsPureSKU reports whether sku is one of the four canonical currency items.
func IsPureSKU(sku string) bool {
	switch sku {
	case SKUKey, SKUScrap, SKUReclaimed, SKURefined:
		return true
	}
	return false
}

// CurrencyPredicate builds the currency-equivalence check used by the profit
// aggregator. Pure currency SKUs always match; the configured weapon SKUs
// match only when the weapons-as-currency option is enabled.
func CurrencyPredicate(weaponsEnabled bool, weapons []string) func(sku string) bool {
	set := make(map[string]bool, len(weapons))
	for _, w := range weapons {
		set[w] = true
	}
	return func(sku string) bool {
		if IsPureSKU(sku) {
			return true
		}
		return weaponsEnabled && set[sku]
	}
}
