package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/NasaVasa/mira/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const classificationSchema = `{
  "type": "object",
  "properties": {
    "intent": {
      "type": "string",
      "enum": ["set_price_alert", "set_new_listing_alert", "get_project_summary", "track_wallet", "get_market_trends", "greeting", "unknown"]
    },
    "entities": {
      "type": "object",
      "properties": {
        "collection_name": {"type": "string"},
        "threshold_price": {"type": "number"},
        "direction": {"type": "string", "enum": ["above", "below"]},
        "wallet_address": {"type": "string"}
      }
    },
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "reasoning": {"type": "string"}
  },
  "required": ["intent", "confidence", "reasoning"]
}`

const classificationPrompt = `Analyze the following user request and classify it into one of the predefined intents.
Extract any relevant entities based on the schema. Omit entities that are not present in the request.

Your response MUST be a valid JSON object that adheres to the following schema:
%s

Intent definitions:
- 'set_price_alert': User wants to be notified about a price change for an NFT collection.
- 'set_new_listing_alert': User wants to know when new NFTs from a collection are listed.
- 'get_project_summary': User is asking for a summary or details about an NFT project.
- 'track_wallet': User wants to monitor an Ethereum wallet address for NFT activity.
- 'get_market_trends': User is asking for a general overview of the NFT market.
- 'greeting': A simple greeting or introductory message.
- 'unknown': The user's intent cannot be determined from the request.

Provide a confidence score between 0 and 1 and a brief reasoning for your classification.

User Request: %q

JSON Response:`

var errNoJSONObject = errors.New("no JSON object in model output")

// IntentClassifier turns free text into a Classification. It never fails:
// any problem with the model or its output yields the unknown intent.
type IntentClassifier struct {
	model  domain.LanguageModel
	logger *zap.Logger
}

func NewIntentClassifier(model domain.LanguageModel, logger *zap.Logger) *IntentClassifier {
	return &IntentClassifier{model: model, logger: logger}
}

func (c *IntentClassifier) Classify(ctx context.Context, text string) (result domain.Classification) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("intent classification panicked", zap.Any("panic", r))
			result = fallbackClassification(fmt.Errorf("panic: %v", r))
		}
	}()

	output, err := c.model.Generate(ctx, fmt.Sprintf(classificationPrompt, classificationSchema, text), true)
	if err != nil {
		c.logger.Warn("intent classification failed", zap.Error(err))
		return fallbackClassification(err)
	}

	classification, err := parseClassification(output)
	if err != nil {
		c.logger.Warn("intent classification output rejected", zap.Error(err), zap.String("output", truncate(output, 200)))
		return fallbackClassification(err)
	}
	return classification
}

func fallbackClassification(cause error) domain.Classification {
	return domain.Classification{
		Intent:     domain.IntentUnknown,
		Confidence: 0,
		Reasoning:  fmt.Sprintf("classification failed: %v", cause),
	}
}

type rawClassification struct {
	Intent     string                     `json:"intent"`
	Entities   map[string]json.RawMessage `json:"entities"`
	Confidence json.RawMessage            `json:"confidence"`
	Reasoning  string                     `json:"reasoning"`
}

func parseClassification(output string) (domain.Classification, error) {
	object, err := extractJSONObject(output)
	if err != nil {
		return domain.Classification{}, err
	}

	var raw rawClassification
	if err := json.Unmarshal(object, &raw); err != nil {
		return domain.Classification{}, fmt.Errorf("decode classification: %w", err)
	}
	if strings.TrimSpace(raw.Intent) == "" {
		return domain.Classification{}, errors.New("classification has no intent")
	}

	return domain.Classification{
		Intent:     domain.ParseIntent(strings.ToLower(strings.TrimSpace(raw.Intent))),
		Entities:   parseEntities(raw.Entities),
		Confidence: parseConfidence(raw.Confidence),
		Reasoning:  strings.TrimSpace(raw.Reasoning),
	}, nil
}

// extractJSONObject strips markdown fences and any prose around the outermost object.
func extractJSONObject(output string) ([]byte, error) {
	start := strings.Index(output, "{")
	end := strings.LastIndex(output, "}")
	if start < 0 || end < start {
		return nil, errNoJSONObject
	}
	return []byte(output[start : end+1]), nil
}

func parseEntities(raw map[string]json.RawMessage) domain.Entities {
	var entities domain.Entities
	if name, ok := stringEntity(raw["collection_name"]); ok {
		entities.CollectionName = &name
	}
	if price, ok := decimalEntity(raw["threshold_price"]); ok {
		entities.ThresholdPrice = &price
	}
	if value, ok := stringEntity(raw["direction"]); ok {
		if direction, err := domain.ParseDirection(value); err == nil {
			entities.Direction = &direction
		}
	}
	if wallet, ok := stringEntity(raw["wallet_address"]); ok {
		entities.WalletAddress = &wallet
	}
	return entities
}

func stringEntity(data json.RawMessage) (string, bool) {
	if len(data) == 0 {
		return "", false
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func decimalEntity(data json.RawMessage) (decimal.Decimal, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return decimal.Decimal{}, false
	}
	text := string(trimmed)
	if trimmed[0] == '"' {
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return decimal.Decimal{}, false
		}
		text = strings.TrimSpace(text)
	}
	value, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return value, true
}

func parseConfidence(data json.RawMessage) float64 {
	value, ok := decimalEntity(data)
	if !ok {
		return 0
	}
	confidence := value.InexactFloat64()
	if math.IsNaN(confidence) || confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

// truncate shortens s to at most limit bytes without splitting a UTF-8 sequence.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit] + "..."
}
