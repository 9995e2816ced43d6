package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/NasaVasa/mira/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	MsgAskCollection      = "Which NFT collection do you mean? Please include the collection name."
	MsgAskWallet          = "Which wallet should I track? Please send its address (0x...)."
	MsgNegativeThreshold  = "The price threshold can't be negative. Please give a price of 0 or more."
	MsgSummaryUnavailable = "I'm sorry, I was unable to generate a summary at this time."
	MsgTrendsUnavailable  = "Sorry, I couldn't fetch the market trends right now. Please try again later."
	MsgSaveFailed         = "Sorry, something went wrong while saving that. Please try again."
)

// WelcomeMessage is sent for /start and for greetings.
func WelcomeMessage(firstName string) string {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hi %s! I'm Mira, your personal AI agent for NFTs.\n\n"+
		"You can ask me for project summaries, set price alerts, and more. "+
		"Just talk to me in natural language!\n\n"+
		"For example, try asking: 'Give me a summary of the Doodles collection.'", name)
}

func collectionNotFoundMessage(name string) string {
	return fmt.Sprintf("Sorry, I couldn't find an NFT collection named %q.", name)
}

func dataUnavailableMessage(name string) string {
	return fmt.Sprintf("Sorry, I couldn't get market data for %s right now. Please try again later.", name)
}

func invalidWalletMessage(address string) string {
	return fmt.Sprintf("%q doesn't look like a valid wallet address. Please send a 0x-prefixed address.", address)
}

func missingPriceAlertFieldsMessage(missing []string) string {
	var list string
	switch len(missing) {
	case 1:
		list = missing[0]
	case 2:
		list = missing[0] + " and " + missing[1]
	default:
		list = strings.Join(missing[:len(missing)-1], ", ") + " and " + missing[len(missing)-1]
	}
	return fmt.Sprintf("To set a price alert I still need the %s. For example: \"alert me if Doodles drops below 10 ETH\".", list)
}

func priceAlertConfirmation(alert domain.PriceAlert) string {
	return fmt.Sprintf("✅ Alert set! I'll notify you if %s goes %s %s ETH.", alert.CollectionName, alert.Direction, alert.Threshold.String())
}

func newListingConfirmation(alert domain.NewListingAlert) string {
	return fmt.Sprintf("✅ New listing alert set! I'll let you know when new %s items are listed.", alert.CollectionName)
}

func trackWalletConfirmation(wallet domain.TrackedWallet) string {
	return fmt.Sprintf("✅ Now tracking wallet %s.", wallet.WalletAddress)
}

// PriceAlertNotification is the text pushed to a user when their alert triggers.
func PriceAlertNotification(alert domain.PriceAlert, floorPrice decimal.Decimal) string {
	return fmt.Sprintf(
		"🔔 Price alert for %s: the floor price is now %s ETH (your alert: %s %s ETH).",
		alert.CollectionName,
		formatAmount(floorPrice),
		alert.Direction,
		formatAmount(alert.Threshold),
	)
}

// formatAmount always shows at least one decimal place, so 2 reads as 2.0.
func formatAmount(value decimal.Decimal) string {
	text := value.String()
	if !strings.Contains(text, ".") {
		text += ".0"
	}
	return text
}

func diagnosticMessage(classification domain.Classification) string {
	return fmt.Sprintf(
		"🤔 I'm not sure what you'd like me to do.\nIntent: %s\nEntities: %s\nConfidence: %.2f",
		classification.Intent,
		formatEntities(classification.Entities),
		classification.Confidence,
	)
}

func formatEntities(entities domain.Entities) string {
	fields := make([]string, 0, 4)
	if entities.CollectionName != nil {
		fields = append(fields, "collection_name="+*entities.CollectionName)
	}
	if entities.ThresholdPrice != nil {
		fields = append(fields, "threshold_price="+entities.ThresholdPrice.String())
	}
	if entities.Direction != nil {
		fields = append(fields, "direction="+string(*entities.Direction))
	}
	if entities.WalletAddress != nil {
		fields = append(fields, "wallet_address="+*entities.WalletAddress)
	}
	sort.Strings(fields)
	return "{" + strings.Join(fields, ", ") + "}"
}

func marketTrendMessage(trend domain.MarketTrend) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📈 NFT market overview (%s)\n", trend.TimeRange))
	builder.WriteString(trendLine("Volume", trend.Volume, trend.VolumeChange, " ETH"))
	builder.WriteString(trendLine("Sales", trend.Sales, trend.SalesChange, ""))
	builder.WriteString(trendLine("Traders", trend.Traders, nil, ""))
	return strings.TrimRight(builder.String(), "\n")
}

func trendLine(label string, value, change *decimal.Decimal, unit string) string {
	if value == nil {
		return fmt.Sprintf("%s: n/a\n", label)
	}
	if change == nil {
		return fmt.Sprintf("%s: %s%s\n", label, value.String(), unit)
	}
	return fmt.Sprintf("%s: %s%s (change %s)\n", label, value.String(), unit, change.String())
}
