package consultant

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"salonbooking/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const modelName = "test-model"

type fakeModel struct {
	t       *testing.T
	status  int
	reply   generateResponse
	lastReq generateRequest
	calls   int
}

func (f *fakeModel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls++
	assert.Equal(f.t, "/models/"+modelName+":generateContent", r.URL.Path)
	assert.Equal(f.t, "secret", r.Header.Get("x-goog-api-key"))
	assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&f.lastReq))

	if f.status != 0 && f.status != http.StatusOK {
		w.WriteHeader(f.status)
		return
	}
	_ = json.NewEncoder(w).Encode(f.reply)
}

func textReply(text string) generateResponse {
	var r generateResponse
	r.Candidates = append(r.Candidates, struct {
		Content content `json:"content"`
	}{Content: content{Parts: []part{{Text: text}}}})
	return r
}

func newClient(t *testing.T, fake *fakeModel) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientConfig{BaseURL: srv.URL + "/", APIKey: "secret", Model: modelName, Timeout: time.Second},
		config.NewCircuitBreaker("Consultant-Model", zap.NewNop()))
	require.NoError(t, err)
	return c
}

func TestClient_AnalyzeStripsFencesAndImageHeader(t *testing.T) {
	fake := &fakeModel{t: t, reply: textReply("```json\n[{\"name\":\"Buzz Cut\",\"description\":\"kısa\",\"faceShapeMatch\":\"Oval\",\"maintenanceLevel\":\"Düşük\"}]\n```")}
	c := newClient(t, fake)

	recs, err := c.Analyze(context.Background(), "kısa bir şey", "data:image/jpeg;base64,QUJD")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Buzz Cut", recs[0].Name)

	parts := fake.lastReq.Contents[0].Parts
	require.Len(t, parts, 3)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "QUJD", parts[1].InlineData.Data)
	assert.Contains(t, parts[2].Text, "kısa bir şey")
	assert.Equal(t, "application/json", fake.lastReq.GenerationConfig.ResponseMimeType)
}

func TestClient_AnalyzeRejectsGarbage(t *testing.T) {
	c := newClient(t, &fakeModel{t: t, reply: textReply("I think a mullet would suit you.")})

	_, err := c.Analyze(context.Background(), "anything", "")
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestClient_PreviewReturnsDataURL(t *testing.T) {
	var reply generateResponse
	reply.Candidates = append(reply.Candidates, struct {
		Content content `json:"content"`
	}{Content: content{Parts: []part{{Text: "here"}, {InlineData: &inlineData{MimeType: "image/jpeg", Data: "SU1H"}}}}})

	c := newClient(t, &fakeModel{t: t, reply: reply})
	img, err := c.GeneratePreview(context.Background(), "QUJD", "Modern Quiff", "hacimli")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,SU1H", img)

	c = newClient(t, &fakeModel{t: t, reply: textReply("no image today")})
	img, err = c.GeneratePreview(context.Background(), "QUJD", "Modern Quiff", "hacimli")
	require.NoError(t, err)
	assert.Empty(t, img)
}

func TestClient_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	fake := &fakeModel{t: t, status: http.StatusServiceUnavailable}
	c := newClient(t, fake)

	for i := 0; i < 5; i++ {
		_, err := c.Analyze(context.Background(), "x", "")
		assert.Error(t, err)
	}
	assert.Equal(t, 3, fake.calls, "open breaker stops calling the model")
}

func TestNewClient_RequiresConfiguration(t *testing.T) {
	_, err := NewClient(ClientConfig{APIKey: "k"}, nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = NewClient(ClientConfig{BaseURL: "http://model"}, nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

type failingModel struct{}

func (failingModel) Analyze(context.Context, string, string) ([]Recommendation, error) {
	return nil, assert.AnError
}

func (failingModel) GeneratePreview(context.Context, string, string, string) (string, error) {
	return "", assert.AnError
}

func TestService_FallsBack(t *testing.T) {
	ctx := context.Background()

	for name, model := range map[string]Model{"unconfigured": nil, "failing": failingModel{}} {
		t.Run(name, func(t *testing.T) {
			svc := NewService(model, zap.NewNop())

			res, err := svc.Analyze(ctx, "yüzüme uygun bir kesim", "")
			require.NoError(t, err)
			assert.True(t, res.Fallback)
			require.Len(t, res.Recommendations, 3)
			assert.Equal(t, "Classic Textured Crop", res.Recommendations[0].Name)
			assert.Equal(t, "Modern Quiff", res.Recommendations[1].Name)
			assert.Equal(t, "Textured Fringe", res.Recommendations[2].Name)

			img, err := svc.Preview(ctx, "QUJD", "Modern Quiff", "")
			require.NoError(t, err)
			assert.Nil(t, img)
		})
	}
}

func TestService_Validation(t *testing.T) {
	svc := NewService(nil, zap.NewNop())

	_, err := svc.Analyze(context.Background(), "  ", "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Preview(context.Background(), "", "Modern Quiff", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_ModelAnswerGetsPlaceholderImage(t *testing.T) {
	c := newClient(t, &fakeModel{t: t, reply: textReply(`[{"name":"Slick Back","description":"d","faceShapeMatch":"Kare","maintenanceLevel":"Orta"},{"name":""}]`)})
	svc := NewService(c, zap.NewNop())

	res, err := svc.Analyze(context.Background(), "klasik", "")
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, placeholderImage, res.Recommendations[0].ImageURL)
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewService(nil, zap.NewNop())).RegisterProtectedRoutes(r.Group(""))

	post := func(path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
		req := httptest.NewRequest(http.MethodPost, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post("/consultations", gin.H{"description": "modern"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"fallback":true`)

	w = post("/consultations", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post("/consultations/preview", gin.H{"image": "QUJD", "style_name": "Modern Quiff"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"image":null`)

	w = post("/consultations/preview", gin.H{"style_name": "Modern Quiff"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
