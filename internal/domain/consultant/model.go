package consultant

import (
	"context"
	"errors"
)

var (
	ErrValidation = errors.New("validation error")
	// ErrUnavailable means no model is configured.
	ErrUnavailable = errors.New("consultant model unavailable")
	ErrBadResponse = errors.New("unreadable model response")
)

// Recommendation is one suggested hairstyle.
type Recommendation struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	FaceShapeMatch   string `json:"faceShapeMatch"`
	MaintenanceLevel string `json:"maintenanceLevel"`
	ImageURL         string `json:"imageUrl,omitempty"`
}

// Model is the generative backend. Both calls may fail; Service turns
// failures into the static fallbacks.
type Model interface {
	Analyze(ctx context.Context, description, image string) ([]Recommendation, error)
	GeneratePreview(ctx context.Context, image, styleName, styleDescription string) (string, error)
}

const placeholderImage = "https://images.unsplash.com/photo-1585747860715-2ba37e788b70?w=400&auto=format&fit=crop&q=60"

// Fallback is served whenever the model cannot answer.
func Fallback() []Recommendation {
	return []Recommendation{
		{
			Name:             "Classic Textured Crop",
			Description:      "Modern ve çok yönlü bir kesim. Bu stil, yüz hatlarını dengeleyen katmanlar ve doğal doku ile çalışır. Günlük kullanıma uygun, hafif ürünlerle şekillendirilebilir.",
			FaceShapeMatch:   "Oval/Yuvarlatılmış Kare - yan katmanlar yüzü çerçeveler",
			MaintenanceLevel: "Düşük",
			ImageURL:         "https://images.unsplash.com/photo-1503951914875-452162b7f300?w=400&auto=format&fit=crop&q=60",
		},
		{
			Name:             "Modern Quiff",
			Description:      "Özgüvenli ve şık bir görünüm. Üstte hacim, yanda fade ile modern bir siluet oluşturur. Güçlü çene hattı olan yüzler için mükemmel bir denge sağlar.",
			FaceShapeMatch:   "Kare/Diamond - yukarıdaki hacim yüzü uzatır",
			MaintenanceLevel: "Orta",
			ImageURL:         "https://images.unsplash.com/photo-1622286342621-4bd786c2447c?w=400&auto=format&fit=crop&q=60",
		},
		{
			Name:             "Textured Fringe",
			Description:      "Genç ve dinamik bir stil. Öndeki perçem kaşları hafifçe örtüp yumuşak bir geçiş sağlar. Yumuşak hatlara sahip yüzler için idealdir.",
			FaceShapeMatch:   "Kalp/Oval - ön perçem yüzü dengeler",
			MaintenanceLevel: "Düşük-Orta",
			ImageURL:         "https://images.unsplash.com/photo-1599351431202-1e0f0137899a?w=400&auto=format&fit=crop&q=60",
		},
	}
}
