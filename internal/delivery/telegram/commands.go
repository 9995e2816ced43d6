package telegram

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/NasaVasa/mira/internal/domain"
)

const HelpText = `Just write to me in plain language. For example:
- Give me a summary of the Doodles collection
- Alert me if Pudgy Penguins drops below 10 ETH
- Tell me when new Azuki items are listed
- Track wallet 0xde0b295669a9fd93d5f28d9ec85e40f4cb697bae
- How is the NFT market doing?

Commands:
/start - register and show the welcome message
/help - show this help
/alerts - list your alerts
`

// Telegram rejects messages longer than 4096 characters.
const maxMessageLen = 4000

func formatUserAlerts(alerts *domain.UserAlerts) string {
	if alerts == nil || alerts.Empty() {
		return "You have no alerts yet. Try: \"alert me if Doodles drops below 10 ETH\"."
	}

	var builder strings.Builder
	builder.WriteString("Your alerts:\n")
	if len(alerts.PriceAlerts) > 0 {
		builder.WriteString("\nPrice alerts:\n")
		for _, alert := range alerts.PriceAlerts {
			builder.WriteString(fmt.Sprintf("#%d [%s] %s %s %s ETH\n", alert.ID, status(alert.Active, "triggered"), alert.CollectionName, alert.Direction, alert.Threshold.String()))
		}
	}
	if len(alerts.NewListingAlerts) > 0 {
		builder.WriteString("\nNew listing alerts:\n")
		for _, alert := range alerts.NewListingAlerts {
			builder.WriteString(fmt.Sprintf("#%d [%s] %s\n", alert.ID, status(alert.Active, "inactive"), alert.CollectionName))
		}
	}
	if len(alerts.TrackedWallets) > 0 {
		builder.WriteString("\nTracked wallets:\n")
		for _, wallet := range alerts.TrackedWallets {
			builder.WriteString(fmt.Sprintf("#%d [%s] %s\n", wallet.ID, status(wallet.Active, "inactive"), wallet.WalletAddress))
		}
	}
	return strings.TrimRight(builder.String(), "\n")
}

func status(active bool, inactive string) string {
	if active {
		return "active"
	}
	return inactive
}

// splitMessage cuts text into chunks of at most limit bytes, preferring line
// breaks and never splitting a UTF-8 sequence.
func splitMessage(text string, limit int) []string {
	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" || len(chunks) == 0 {
		chunks = append(chunks, text)
	}
	return chunks
}
