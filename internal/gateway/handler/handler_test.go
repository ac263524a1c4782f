package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexa/internal/gateway/auth"
	"nexa/internal/llm"
	llmclient "nexa/internal/llmClient"
	"nexa/internal/pipeline"
	"nexa/internal/types"
	"nexa/internal/whop"
)

const idea = "A fitness guide for new moms rebuilding core strength after pregnancy"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Missing []string        `json:"missing"`
	Retry   bool            `json:"retry"`
}

func newMux(t *testing.T, stages Stages, opts ...Option) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	New(stages, opts...).Register(mux, nil)
	return mux
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func fakePipeline() *pipeline.Pipeline {
	return pipeline.New(llm.NewFakeClient(), pipeline.Models{})
}

func TestRefineIdea(t *testing.T) {
	mux := newMux(t, fakePipeline())

	w, env := do(t, mux, http.MethodPost, "/api/refine-idea", `{"idea":"`+idea+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	var data types.RefinementData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Concepts, 4)
	assert.Equal(t, "D", data.Concepts[3].OptionLetter)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	w, env = do(t, mux, http.MethodPost, "/api/refine-idea", `{"idea":"short"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", env.Code)
	assert.False(t, env.Success)
}

func TestBodyErrors(t *testing.T) {
	mux := newMux(t, fakePipeline())
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed", `{"idea":`, http.StatusBadRequest, "INVALID_JSON"},
		{"empty", ``, http.StatusBadRequest, "INVALID_JSON"},
		{"wrong type", `{"idea":42}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"not an object", `["idea"]`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"too large", `{"idea":"` + strings.Repeat("x", MaxBodyBytes) + `"}`, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, mux, http.MethodPost, "/api/refine-idea", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, env.Code)
		})
	}
}

func TestBuildProductSpecAndGenerate(t *testing.T) {
	p := fakePipeline()
	mux := newMux(t, p)
	ref, err := p.Refine(context.Background(), types.RefineIn{Idea: idea})
	require.NoError(t, err)

	body, err := json.Marshal(types.SpecIn{SelectedOption: "A", OriginalIdea: idea, Refinement: &ref.RefinementData})
	require.NoError(t, err)
	w, env := do(t, mux, http.MethodPost, "/api/build-product-spec", string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var spec types.SpecOut
	require.NoError(t, json.Unmarshal(env.Data, &spec))
	assert.Equal(t, "passed", spec.ValidationStatus)
	assert.Equal(t, "A", spec.OptionLetter)

	body, err = json.Marshal(types.GenerateIn{Spec: &spec.ProductSpec})
	require.NoError(t, err)
	w, env = do(t, mux, http.MethodPost, "/api/generate-product", string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var doc types.ProductDocument
	require.NoError(t, json.Unmarshal(env.Data, &doc))
	assert.Equal(t, "Core Reset in 30 Days", doc.Title)
	assert.Len(t, doc.Sections, 2)
}

func TestStageErrorsUseEnvelope(t *testing.T) {
	mux := newMux(t, fakePipeline())

	w, env := do(t, mux, http.MethodPost, "/api/build-product-spec", `{"selectedOption":"E","refinementData":{"Concepts":[]}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_SELECTION", env.Code)
	assert.Equal(t, "Invalid option selection. Must choose A, B, C, or D.", env.Error)

	w, env = do(t, mux, http.MethodPost, "/api/generate-product", `{"product_spec":{"title":"t","audience":"a"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PRODUCT_SPEC", env.Code)
	assert.Equal(t, []string{"pain_points", "unique_value", "angle", "tone", "product_type", "transformation"}, env.Missing)

	w, env = do(t, mux, http.MethodPost, "/api/generate-product", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_PRODUCT_SPEC", env.Code)

	w, env = do(t, mux, http.MethodPost, "/api/generate-product", `{"product_spec":{"pain_points":"not a list"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", env.Code)
}

func TestUpstreamFailureIsRetryable(t *testing.T) {
	cli := llmclient.NewScriptedClient(llmclient.Reply{Text: "REFINED OPTION A:\nTitle: x\nREFINED OPTION B:\nTitle: y\n"})
	mux := newMux(t, pipeline.New(cli, pipeline.Models{}))

	w, env := do(t, mux, http.MethodPost, "/api/refine-idea", `{"idea":"`+idea+`"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "CARDINALITY_FAILURE", env.Code)
	assert.True(t, env.Retry)

	w, env = do(t, mux, http.MethodPost, "/api/refine-idea", `{"idea":"`+idea+`"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "UPSTREAM_FAILURE", env.Code)
	assert.Equal(t, "Failed to refine idea. Please try again.", env.Error)
}

type blockingStages struct{ Stages }

func (blockingStages) Refine(ctx context.Context, _ types.RefineIn) (types.RefineOut, error) {
	<-ctx.Done()
	return types.RefineOut{}, ctx.Err()
}

func TestStageTimeout(t *testing.T) {
	mux := newMux(t, blockingStages{}, WithStageTimeout(20*time.Millisecond))
	w, env := do(t, mux, http.MethodPost, "/api/refine-idea", `{"idea":"`+idea+`"}`)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, "TIMEOUT", env.Code)
	assert.True(t, env.Retry)
}

func TestChooseOption(t *testing.T) {
	mux := newMux(t, fakePipeline())
	body := `{"selectedOption":"B","originalIdea":"x","refinementData":{"Concepts":[
		{"Title":"a","KeyPainPoints":["p"]},
		{"Title":"b","KeyPainPoints":["p1","p2"],"ProductType":"Workbook"}]}}`
	w, env := do(t, mux, http.MethodPost, "/api/choose-option", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out types.SpecOut
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, "b", out.ProductSpec.Title)
	assert.Equal(t, "The Workbook Method", out.ProductSpec.SignatureFrameworkName)
	assert.Equal(t, "option_b", out.ProductSpec.ConceptID)
}

type stubPlatform struct {
	user        whop.User
	memberships []whop.Membership
	err         error
}

func (s stubPlatform) RetrieveUser(context.Context, string) (whop.User, error) {
	return s.user, s.err
}

func (s stubPlatform) ListMemberships(context.Context, string) ([]whop.Membership, error) {
	return s.memberships, s.err
}

func asUser(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := auth.AnonymousIdentity
			if userID != "" {
				id = auth.Identity{UserID: userID}
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

func TestEmbeddedUser(t *testing.T) {
	platform := stubPlatform{user: whop.User{ID: "user_1", Username: "mia", AvatarURL: "https://img"}}

	mux := http.NewServeMux()
	New(fakePipeline(), WithPlatform(platform, "plan_pro")).Register(mux, asUser("user_1"))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/embedded-user", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"user_1","username":"mia","avatar":"https://img"}`, w.Body.String())

	mux = http.NewServeMux()
	New(fakePipeline(), WithPlatform(platform, "plan_pro")).Register(mux, asUser(""))
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/embedded-user", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	mux = http.NewServeMux()
	New(fakePipeline(), WithPlatform(stubPlatform{err: errors.New("down")}, "plan_pro")).Register(mux, asUser("user_1"))
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/embedded-user", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentStatus(t *testing.T) {
	paidAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		user     string
		platform stubPlatform
		want     string
	}{
		{
			name: "paid",
			user: "user_1",
			platform: stubPlatform{memberships: []whop.Membership{
				{PlanID: "plan_pro", Status: "expired"},
				{PlanID: "plan_pro", Status: "past_due", CreatedAt: paidAt},
			}},
			want: `{"hasPaid":true,"planId":"plan_pro","paymentDate":"2024-05-01T12:00:00Z"}`,
		},
		{
			name:     "other plan",
			user:     "user_1",
			platform: stubPlatform{memberships: []whop.Membership{{PlanID: "plan_x", Status: "active"}}},
			want:     `{"hasPaid":false,"isChecking":false}`,
		},
		{
			name:     "lookup fails",
			user:     "user_1",
			platform: stubPlatform{err: errors.New("boom")},
			want:     `{"hasPaid":false,"isChecking":false}`,
		},
		{
			name: "anonymous",
			want: `{"hasPaid":false,"isChecking":false}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			New(fakePipeline(), WithPlatform(tt.platform, "plan_pro")).Register(mux, asUser(tt.user))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payment/status", nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, tt.want, w.Body.String())
		})
	}
}

func TestHealthz(t *testing.T) {
	w := httptest.NewRecorder()
	Healthz(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
