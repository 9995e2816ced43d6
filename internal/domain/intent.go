package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

type Intent string

const (
	IntentSetPriceAlert      Intent = "set_price_alert"
	IntentSetNewListingAlert Intent = "set_new_listing_alert"
	IntentGetProjectSummary  Intent = "get_project_summary"
	IntentTrackWallet        Intent = "track_wallet"
	IntentGetMarketTrends    Intent = "get_market_trends"
	IntentGreeting           Intent = "greeting"
	IntentUnknown            Intent = "unknown"
)

var Intents = []Intent{
	IntentSetPriceAlert,
	IntentSetNewListingAlert,
	IntentGetProjectSummary,
	IntentTrackWallet,
	IntentGetMarketTrends,
	IntentGreeting,
	IntentUnknown,
}

func ParseIntent(value string) Intent {
	for _, intent := range Intents {
		if string(intent) == value {
			return intent
		}
	}
	return IntentUnknown
}

// Entities holds the parameters extracted from a message. A nil field
// means the value was not extracted.
type Entities struct {
	CollectionName *string
	ThresholdPrice *decimal.Decimal
	Direction      *Direction
	WalletAddress  *string
}

type Classification struct {
	Intent     Intent
	Entities   Entities
	Confidence float64
	Reasoning  string
}

// LanguageModel is a text-in, text-out generation capability.
type LanguageModel interface {
	Generate(ctx context.Context, prompt string, jsonOutput bool) (string, error)
}
