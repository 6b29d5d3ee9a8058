package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"health-records-api/internal/model"
)

func TestHTTPGenerator(t *testing.T) {
	var got inferenceRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode([]inferenceResult{{GeneratedText: got.Inputs + " Influenza."}})
	}))
	t.Cleanup(srv.Close)

	out, err := NewHTTPGenerator(srv.URL, "tok").Generate(context.Background(), "Symptoms: fever.")
	require.NoError(t, err)
	assert.Equal(t, "Influenza.", out)
	assert.Equal(t, "Symptoms: fever.", got.Inputs)
}

func TestHTTPGeneratorErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model loading"}`, http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	_, err := NewHTTPGenerator(srv.URL, "").Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnavailable)

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(empty.Close)
	_, err = NewHTTPGenerator(empty.URL, "").Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCannedGenerator(t *testing.T) {
	out, err := CannedGenerator{}.Generate(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, defaultCanned, out)

	out, _ = CannedGenerator{Text: "fixed"}.Generate(context.Background(), "anything")
	assert.Equal(t, "fixed", out)
}

type memCache struct {
	mu   sync.Mutex
	m    map[string]string
	fail bool
}

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return "", false, errors.New("cache down")
	}
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key, val string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("cache down")
	}
	c.m[key] = val
	return nil
}

type countingGen struct {
	calls   int
	prompts []string
}

func (g *countingGen) Generate(_ context.Context, prompt string) (string, error) {
	g.calls++
	g.prompts = append(g.prompts, prompt)
	return "answer", nil
}

func TestCachedGenerator(t *testing.T) {
	next := &countingGen{}
	cache := &memCache{m: map[string]string{}}
	g := &CachedGenerator{Next: next, Cache: cache, TTL: time.Hour}

	for i := 0; i < 3; i++ {
		out, err := g.Generate(context.Background(), "same prompt")
		require.NoError(t, err)
		assert.Equal(t, "answer", out)
	}
	assert.Equal(t, 1, next.calls)
	assert.Contains(t, cache.m, PromptKey("same prompt"))

	cache.fail = true
	_, err := g.Generate(context.Background(), "same prompt")
	require.NoError(t, err, "cache errors fall through to the generator")
	assert.Equal(t, 2, next.calls)
}

func TestRedisCache(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	key := PromptKey(t.Name() + time.Now().String())
	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, "v", time.Minute))
	v, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

type fakeCharts map[string]*model.PatientRecord

func (f fakeCharts) PatientRecord(_ context.Context, id string) (*model.PatientRecord, error) {
	rec, ok := f[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return rec, nil
}

func fptr(v float64) *float64 { return &v }

func TestServicePrompts(t *testing.T) {
	dob := time.Date(1980, 5, 15, 0, 0, 0, 0, time.UTC)
	ended := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	charts := fakeCharts{"PAT_001": {
		Patient: &model.Patient{ID: "PAT_001", FirstName: "John", LastName: "Doe", Gender: "Male", DateOfBirth: &dob},
		MedicalHistory: []model.MedicalHistory{
			{ChronicConditions: "Hypertension", Allergies: "None"},
			{Allergies: "Penicillin"},
		},
		Medications: []model.Medication{
			{MedicationName: "Lisinopril", Dosage: "10mg"},
			{MedicationName: "Amoxicillin", EndDate: &ended},
		},
		VitalSigns: []model.VitalSigns{
			{Temperature: fptr(100.4), BloodPressure: "130/85", BMI: fptr(26.1)},
			{Temperature: fptr(98.6)},
		},
	}}
	gen := &countingGen{}
	svc := NewService(charts, gen)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	out, err := svc.SuggestDiagnosis(context.Background(), "PAT_001", " fever, cough ")
	require.NoError(t, err)
	assert.Equal(t, "answer", out)

	p := gen.prompts[0]
	assert.Contains(t, p, "44-year-old male")
	assert.Contains(t, p, "Chronic conditions: Hypertension.")
	assert.Contains(t, p, "Allergies: Penicillin.")
	assert.Contains(t, p, "Current medications: Lisinopril 10mg.")
	assert.NotContains(t, p, "Amoxicillin")
	assert.Contains(t, p, "temperature 100.4°F")
	assert.Contains(t, p, "BMI 26.1 (Overweight)")
	assert.Contains(t, p, "Presenting symptoms: fever, cough.")

	_, err = svc.SuggestTreatment(context.Background(), "PAT_001", "Influenza")
	require.NoError(t, err)
	assert.Contains(t, gen.prompts[1], "Working diagnosis: Influenza.")

	_, err = svc.SuggestDiagnosis(context.Background(), "PAT_001", "  ")
	assert.Error(t, err)
	_, err = svc.SuggestTreatment(context.Background(), "PAT_404", "x")
	assert.Error(t, err)
}

func TestRenderUnknownAge(t *testing.T) {
	out, err := Render("diagnosis", promptData{Age: -1, Symptoms: "headache"})
	require.NoError(t, err)
	assert.Contains(t, out, "Patient: patient.")
}
