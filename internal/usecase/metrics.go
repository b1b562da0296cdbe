package usecase

import "context"

// MetricsSummary represents aggregated signin verification insights.
type MetricsSummary struct {
	TotalSignins    int64   `json:"total_signins"`
	VerifiedSignins int64   `json:"verified_signins"`
	SuccessRate     float64 `json:"success_rate"`
	AverageDistance float64 `json:"average_distance"`
}

// GetMetricsSummary aggregates verification metrics from persisted auth events.
func (uc *AuthUseCase) GetMetricsSummary(ctx context.Context) (*MetricsSummary, error) {
	aggregation, err := uc.events.AggregateMetrics(ctx)
	if err != nil {
		return nil, err
	}

	summary := &MetricsSummary{
		TotalSignins:    aggregation.TotalCount,
		VerifiedSignins: aggregation.VerifiedCount,
		AverageDistance: aggregation.AverageDistance,
	}

	if aggregation.TotalCount > 0 {
		summary.SuccessRate = float64(aggregation.VerifiedCount) / float64(aggregation.TotalCount)
	}

	return summary, nil
}
