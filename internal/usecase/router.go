package usecase

import (
	"context"
	"errors"

	"github.com/NasaVasa/mira/internal/domain"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

type Classifier interface {
	Classify(ctx context.Context, text string) domain.Classification
}

type Resolver interface {
	Resolve(ctx context.Context, name string) (*domain.ResolvedCollection, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, collection domain.ResolvedCollection, metrics domain.CollectionMetrics) (string, error)
}

// Router answers one chat message. It keeps no conversation state; anything
// that must outlive the message is written through AlertUsecase.
type Router struct {
	classifier    Classifier
	resolver      Resolver
	analytics     domain.AnalyticsClient
	summarizer    Summarizer
	alertUC       *AlertUsecase
	minConfidence float64
	logger        *zap.Logger
}

func NewRouter(classifier Classifier, resolver Resolver, analytics domain.AnalyticsClient, summarizer Summarizer, alertUC *AlertUsecase, minConfidence float64, logger *zap.Logger) *Router {
	return &Router{
		classifier:    classifier,
		resolver:      resolver,
		analytics:     analytics,
		summarizer:    summarizer,
		alertUC:       alertUC,
		minConfidence: minConfidence,
		logger:        logger,
	}
}

func (r *Router) Route(ctx context.Context, sender Sender, text string) string {
	classification := r.classifier.Classify(ctx, text)
	logger := r.logger.With(
		zap.Int64("telegram_user_id", sender.TelegramUserID),
		zap.String("intent", string(classification.Intent)),
		zap.Float64("confidence", classification.Confidence),
	)
	logger.Info("message classified", zap.String("reasoning", classification.Reasoning))

	if classification.Confidence < r.minConfidence {
		return diagnosticMessage(classification)
	}

	switch classification.Intent {
	case domain.IntentGetProjectSummary:
		return r.projectSummary(ctx, logger, classification.Entities)
	case domain.IntentSetPriceAlert:
		return r.setPriceAlert(ctx, logger, sender, classification.Entities)
	case domain.IntentSetNewListingAlert:
		return r.setNewListingAlert(ctx, logger, sender, classification.Entities)
	case domain.IntentTrackWallet:
		return r.trackWallet(ctx, logger, sender, classification.Entities)
	case domain.IntentGetMarketTrends:
		return r.marketTrends(ctx, logger)
	case domain.IntentGreeting:
		return WelcomeMessage(sender.FirstName)
	default:
		return diagnosticMessage(classification)
	}
}

func (r *Router) projectSummary(ctx context.Context, logger *zap.Logger, entities domain.Entities) string {
	if entities.CollectionName == nil {
		return MsgAskCollection
	}
	name := *entities.CollectionName

	collection, err := r.resolver.Resolve(ctx, name)
	if err != nil {
		return collectionNotFoundMessage(name)
	}

	metrics, err := r.analytics.GetCollectionMetrics(ctx, collection.Chain, collection.Address)
	if err != nil || metrics == nil {
		logger.Warn("collection metrics unavailable", zap.String("chain", collection.Chain), zap.String("address", collection.Address), zap.Error(err))
		return dataUnavailableMessage(collection.Name)
	}

	summary, err := r.summarizer.Summarize(ctx, *collection, *metrics)
	if err != nil {
		logger.Warn("summary generation failed", zap.String("collection", collection.Name), zap.Error(err))
		return MsgSummaryUnavailable
	}
	return summary
}

func (r *Router) setPriceAlert(ctx context.Context, logger *zap.Logger, sender Sender, entities domain.Entities) string {
	var missing []string
	if entities.CollectionName == nil {
		missing = append(missing, "collection name")
	}
	if entities.ThresholdPrice == nil {
		missing = append(missing, "price threshold")
	}
	if entities.Direction == nil {
		missing = append(missing, "direction (above or below)")
	}
	if len(missing) > 0 {
		return missingPriceAlertFieldsMessage(missing)
	}
	if entities.ThresholdPrice.IsNegative() {
		return MsgNegativeThreshold
	}

	name := *entities.CollectionName
	collection, err := r.resolver.Resolve(ctx, name)
	if err != nil {
		return collectionNotFoundMessage(name)
	}

	alert, err := r.alertUC.AddPriceAlert(ctx, sender, *collection, *entities.ThresholdPrice, *entities.Direction)
	if err != nil {
		if errors.Is(err, ErrInvalidThreshold) {
			return MsgNegativeThreshold
		}
		logger.Error("failed to save price alert", zap.String("collection", collection.Name), zap.Error(err))
		return MsgSaveFailed
	}
	logger.Info("price alert created", zap.Uint("alert_id", alert.ID), zap.String("collection", alert.CollectionName))
	return priceAlertConfirmation(*alert)
}

func (r *Router) setNewListingAlert(ctx context.Context, logger *zap.Logger, sender Sender, entities domain.Entities) string {
	if entities.CollectionName == nil {
		return MsgAskCollection
	}
	name := *entities.CollectionName

	collection, err := r.resolver.Resolve(ctx, name)
	if err != nil {
		return collectionNotFoundMessage(name)
	}

	alert, err := r.alertUC.AddNewListingAlert(ctx, sender, *collection)
	if err != nil {
		logger.Error("failed to save new listing alert", zap.String("collection", collection.Name), zap.Error(err))
		return MsgSaveFailed
	}
	logger.Info("new listing alert created", zap.Uint("alert_id", alert.ID), zap.String("collection", alert.CollectionName))
	return newListingConfirmation(*alert)
}

func (r *Router) trackWallet(ctx context.Context, logger *zap.Logger, sender Sender, entities domain.Entities) string {
	if entities.WalletAddress == nil {
		return MsgAskWallet
	}
	if !common.IsHexAddress(*entities.WalletAddress) {
		return invalidWalletMessage(*entities.WalletAddress)
	}
	address := common.HexToAddress(*entities.WalletAddress).Hex()

	wallet, err := r.alertUC.TrackWallet(ctx, sender, address)
	if err != nil {
		logger.Error("failed to save tracked wallet", zap.String("wallet", address), zap.Error(err))
		return MsgSaveFailed
	}
	logger.Info("wallet tracked", zap.Uint("wallet_id", wallet.ID))
	return trackWalletConfirmation(*wallet)
}

func (r *Router) marketTrends(ctx context.Context, logger *zap.Logger) string {
	trend, err := r.analytics.GetMarketTrend(ctx)
	if err != nil || trend == nil {
		logger.Warn("market trend unavailable", zap.Error(err))
		return MsgTrendsUnavailable
	}
	return marketTrendMessage(*trend)
}
