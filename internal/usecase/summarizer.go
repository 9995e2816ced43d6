package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/NasaVasa/mira/internal/domain"
	"github.com/shopspring/decimal"
)

const summaryPrompt = `Based on the following data for an NFT collection, generate a concise and insightful summary for a potential investor or collector.

Highlight key metrics like floor price, volume, and number of holders. Mention any notable trends.
Keep the summary to 2-3 paragraphs. Prices are in ETH.

Data:
%s

Summary:`

type SummaryGenerator struct {
	model domain.LanguageModel
}

func NewSummaryGenerator(model domain.LanguageModel) *SummaryGenerator {
	return &SummaryGenerator{model: model}
}

func (g *SummaryGenerator) Summarize(ctx context.Context, collection domain.ResolvedCollection, metrics domain.CollectionMetrics) (string, error) {
	data := map[string]any{
		"name":             collection.Name,
		"blockchain":       collection.Chain,
		"contract_address": collection.Address,
	}
	addMetric(data, "floor_price", metrics.FloorPrice)
	addMetric(data, "volume", metrics.Volume)
	addMetric(data, "sales", metrics.Sales)
	addMetric(data, "holders", metrics.Holders)
	addMetric(data, "marketcap", metrics.MarketCap)

	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return g.model.Generate(ctx, fmt.Sprintf(summaryPrompt, payload), false)
}

func addMetric(data map[string]any, key string, value *decimal.Decimal) {
	if value == nil {
		return
	}
	data[key] = value.String()
}
