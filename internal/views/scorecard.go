package views

import (
	"context"

	"github.com/odyssey-erp/lead-insights/internal/analytics"
	"github.com/odyssey-erp/lead-insights/internal/format"
	"github.com/odyssey-erp/lead-insights/internal/loadctl"
	"github.com/odyssey-erp/lead-insights/internal/records"
	"github.com/odyssey-erp/lead-insights/internal/shared"
)

// LeadFetcher loads lead scoring snapshots.
type LeadFetcher interface {
	GetLeadMetrics(ctx context.Context, leadID string) (analytics.LeadMetrics, error)
}

// RecordSource loads the lead display record.
type RecordSource interface {
	Lead(ctx context.Context, id string) (records.LeadRecord, error)
}

// Scorecard is the lead level view.
type Scorecard struct {
	leadID  string
	ctrl    *loadctl.Controller
	metrics *loadctl.Slot[analytics.LeadMetrics, analytics.LeadMetrics]
	record  *loadctl.Slot[records.LeadRecord, records.LeadRecord]
}

// NewScorecard builds the scorecard for leadID. recordSrc may be nil, in
// which case no record is shown.
func NewScorecard(leadID string, fetcher LeadFetcher, recordSrc RecordSource, deps Deps) *Scorecard {
	s := &Scorecard{leadID: leadID}
	s.metrics = loadctl.NewSlot("metrics", MsgLeadMetrics,
		func(ctx context.Context) (analytics.LeadMetrics, error) {
			return fetcher.GetLeadMetrics(ctx, leadID)
		},
		loadctl.Identity[analytics.LeadMetrics],
	)
	sources := []loadctl.Source{s.metrics}
	if recordSrc != nil {
		s.record = loadctl.NewSlot("record", "",
			func(ctx context.Context) (records.LeadRecord, error) {
				return recordSrc.Lead(ctx, leadID)
			},
			loadctl.Identity[records.LeadRecord],
			loadctl.AsPassive(),
		)
		sources = append(sources, s.record)
	}
	s.ctrl = loadctl.New(deps.config(KindScorecard, leadID), sources...)
	return s
}

// Controller exposes the load controller.
func (s *Scorecard) Controller() *loadctl.Controller {
	return s.ctrl
}

// ScorecardModel is the rendered state of a scorecard.
type ScorecardModel struct {
	LeadID                string              `json:"leadId"`
	Status                loadctl.Status      `json:"status"`
	HasMetrics            bool                `json:"hasMetrics"`
	TotalScore            string              `json:"totalScore"`
	ScoreGrade            string              `json:"scoreGrade"`
	ConversionProbability string              `json:"conversionProbability"`
	DemographicScore      string              `json:"demographicScore"`
	BehavioralScore       string              `json:"behavioralScore"`
	FirmographicScore     string              `json:"firmographicScore"`
	EngagementScore       string              `json:"engagementScore"`
	ScoreVariant          shared.Variant      `json:"scoreVariant"`
	ScoreTier             format.Tier         `json:"scoreTier"`
	ProgressBarClass      string              `json:"progressBarClass"`
	ProgressWidth         string              `json:"progressWidth"`
	Record                *records.LeadRecord `json:"record,omitempty"`
}

// Model derives the view model from the current snapshots.
func (s *Scorecard) Model() ScorecardModel {
	state := s.metrics.State()
	var m analytics.LeadMetrics
	if state.Value != nil {
		m = *state.Value
	}

	total := format.Score(m.TotalScore)
	tier := format.ClassifyScoreTier(total)
	model := ScorecardModel{
		LeadID:                s.leadID,
		Status:                s.ctrl.Status(),
		HasMetrics:            state.HasValue(),
		TotalScore:            total,
		ScoreGrade:            format.Text(m.ScoreGrade, fallbackGrade),
		ConversionProbability: format.Percentage(m.ConversionProbability),
		DemographicScore:      format.Score(m.DemographicScore),
		BehavioralScore:       format.Score(m.BehavioralScore),
		FirmographicScore:     format.Score(m.FirmographicScore),
		EngagementScore:       format.Score(m.EngagementScore),
		ScoreVariant:          format.ClassifyGrade(m.ScoreGrade),
		ScoreTier:             tier,
		ProgressBarClass:      format.ProgressBarClass(tier),
		ProgressWidth:         format.ProgressWidth(total),
	}
	if s.record != nil {
		if rec := s.record.State(); rec.Value != nil {
			r := *rec.Value
			model.Record = &r
		}
	}
	return model
}
