package feed

import "fmt"

// symbolMap translates platform symbols to broker feed symbols.
var symbolMap = map[string]string{
	"EURUSD": "frxEURUSD",
	"GBPUSD": "frxGBPUSD",
	"USDJPY": "frxUSDJPY",
	"AUDUSD": "frxAUDUSD",
	"USDCHF": "frxUSDCHF",
	"USDCAD": "frxUSDCAD",
	"NZDUSD": "frxNZDUSD",
	"EURGBP": "frxEURGBP",
	"EURJPY": "frxEURJPY",
	"GBPJPY": "frxGBPJPY",
}

// BrokerSymbol maps a platform symbol to the broker's identifier.
func BrokerSymbol(symbol string) (string, error) {
	mapped, ok := symbolMap[symbol]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedSymbol, symbol)
	}
	return mapped, nil
}
