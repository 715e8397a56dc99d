package consultant

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("salonbooking/consultant")

var fallbacksServed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "salon_consultant_fallbacks_total",
	Help: "Consultations answered without the model, by operation.",
}, []string{"operation"})

// Service never lets a model failure reach the caller: analysis falls
// back to the static list and previews come back empty.
type Service struct {
	model Model
	log   *zap.Logger
}

// NewService accepts a nil model, in which case every answer is a fallback.
func NewService(model Model, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{model: model, log: log}
}

// Analysis is the result of Analyze. Fallback marks the static list.
type Analysis struct {
	Recommendations []Recommendation `json:"recommendations"`
	Fallback        bool             `json:"fallback"`
}

func (s *Service) Analyze(ctx context.Context, description, image string) (*Analysis, error) {
	ctx, span := tracer.Start(ctx, "consultant.Analyze")
	defer span.End()

	description = strings.TrimSpace(description)
	if description == "" && strings.TrimSpace(image) == "" {
		return nil, fmt.Errorf("%w: a description or a photo is required", ErrValidation)
	}

	if s.model == nil {
		fallbacksServed.WithLabelValues("analyze").Inc()
		return &Analysis{Recommendations: Fallback(), Fallback: true}, nil
	}

	recs, err := s.model.Analyze(ctx, description, image)
	if err != nil {
		s.log.Warn("style analysis failed, serving fallback", zap.Error(err))
		fallbacksServed.WithLabelValues("analyze").Inc()
		return &Analysis{Recommendations: Fallback(), Fallback: true}, nil
	}

	out := make([]Recommendation, 0, len(recs))
	for _, r := range recs {
		if strings.TrimSpace(r.Name) == "" {
			continue
		}
		r.ImageURL = placeholderImage
		out = append(out, r)
	}
	return &Analysis{Recommendations: out}, nil
}

// Preview returns nil when no preview could be generated.
func (s *Service) Preview(ctx context.Context, image, styleName, styleDescription string) (*string, error) {
	ctx, span := tracer.Start(ctx, "consultant.Preview")
	defer span.End()

	if strings.TrimSpace(image) == "" || strings.TrimSpace(styleName) == "" {
		return nil, fmt.Errorf("%w: photo and style name are required", ErrValidation)
	}
	if s.model == nil {
		fallbacksServed.WithLabelValues("preview").Inc()
		return nil, nil
	}

	url, err := s.model.GeneratePreview(ctx, image, styleName, styleDescription)
	if err != nil {
		s.log.Warn("preview generation failed", zap.String("style", styleName), zap.Error(err))
		fallbacksServed.WithLabelValues("preview").Inc()
		return nil, nil
	}
	if url == "" {
		return nil, nil
	}
	return &url, nil
}
