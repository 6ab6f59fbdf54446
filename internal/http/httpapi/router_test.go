package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donortrack/internal/adapter/memstore"
	"donortrack/internal/domain"
	"donortrack/internal/eventsvc"
	"donortrack/internal/http/handlers"
	"donortrack/internal/live"
	"donortrack/internal/middleware"
)

type testAPI struct {
	handler http.Handler
	svc     *eventsvc.Service
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	hub := live.NewHub()
	svc := eventsvc.New(memstore.New(), hub, zerolog.Nop())
	app := handlers.NewApp(svc, hub, zerolog.Nop(), "test-secret", time.Hour)
	app.Backend = "memory"
	return &testAPI{
		handler: NewRouter(app, Options{AllowedOrigins: []string{"*"}, SessionRateLimit: 3, DefaultLocale: "en-IN"}),
		svc:     svc,
	}
}

func (api *testAPI) do(t *testing.T, method, path, token string, body any, headers ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	api.handler.ServeHTTP(rr, req)

	var payload map[string]any
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") && rr.Body.Len() > 0 {
		_ = json.Unmarshal(rr.Body.Bytes(), &payload)
	}
	return rr, payload
}

func errorCode(payload map[string]any) string {
	env, _ := payload["error"].(map[string]any)
	code, _ := env["code"].(string)
	return code
}

func (api *testAPI) createEvent(t *testing.T) string {
	t.Helper()
	rr, payload := api.do(t, http.MethodPost, "/v1/events", "", map[string]any{
		"name": "Navratri 2025", "description": "Garba night", "adminPassword": "1111", "visitorPassword": "2222",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	id, _ := payload["id"].(string)
	require.NotEmpty(t, id)
	_, hasPassword := payload["adminPassword"]
	assert.False(t, hasPassword)
	return id
}

func (api *testAPI) session(t *testing.T, eventID, role, password string) string {
	t.Helper()
	rr, payload := api.do(t, http.MethodPost, "/v1/events/"+eventID+"/session", "", map[string]string{"role": role, "password": password})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	token, _ := payload["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealthAndDocs(t *testing.T) {
	api := newTestAPI(t)

	rr, payload := api.do(t, http.MethodGet, "/v1/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "memory", payload["backend"])

	rr, payload = api.do(t, http.MethodGet, "/v1/openapi.json", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "3.0.3", payload["openapi"])

	rr, _ = api.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "donortrack_http_requests_total")
}

func TestEventValidationAndSessions(t *testing.T) {
	api := newTestAPI(t)

	rr, payload := api.do(t, http.MethodPost, "/v1/events", "", map[string]any{"name": "x", "adminPassword": "1111", "visitorPassword": "1111"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "validation", errorCode(payload))

	rr, _ = api.do(t, http.MethodPost, "/v1/events", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	id := api.createEvent(t)

	rr, payload = api.do(t, http.MethodGet, "/v1/events", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	items, _ := payload["items"].([]any)
	require.Len(t, items, 1)

	rr, _ = api.do(t, http.MethodGet, "/v1/events/"+id, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr, payload = api.do(t, http.MethodPost, "/v1/events/"+id+"/session", "", map[string]string{"role": "admin", "password": "2222"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "unauthorized", errorCode(payload))

	visitor := api.session(t, id, "visitor", "2222")
	rr, payload = api.do(t, http.MethodGet, "/v1/events/"+id, visitor, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Navratri 2025", payload["name"])

	rr, _ = api.do(t, http.MethodPut, "/v1/events/"+id, visitor, map[string]any{"name": "y", "adminPassword": "1111", "visitorPassword": "2222"})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// a session for one event does not open another
	other := api.createEvent(t)
	rr, _ = api.do(t, http.MethodGet, "/v1/events/"+other, visitor, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSessionAttemptsAreRateLimited(t *testing.T) {
	api := newTestAPI(t)
	id := api.createEvent(t)

	for i := 0; i < 3; i++ {
		rr, _ := api.do(t, http.MethodPost, "/v1/events/"+id+"/session", "", map[string]string{"role": "admin", "password": "0000"})
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	}
	rr, payload := api.do(t, http.MethodPost, "/v1/events/"+id+"/session", "", map[string]string{"role": "admin", "password": "1111"})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "rate_limited", errorCode(payload))
}

func TestSchemaAndDonationFlow(t *testing.T) {
	api := newTestAPI(t)
	id := api.createEvent(t)
	admin := api.session(t, id, "admin", "1111")
	visitor := api.session(t, id, "visitor", "2222")
	base := "/v1/events/" + id

	rr, _ := api.do(t, http.MethodPost, base+"/fields", visitor, map[string]any{"label": "City", "fieldType": "selector", "options": []string{"Surat"}})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr, payload := api.do(t, http.MethodPost, base+"/fields", admin, map[string]any{"label": "City", "fieldType": "selector", "required": true, "options": []string{"Surat", "Vadodara"}})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, float64(1), payload["version"])
	fields := payload["fields"].([]any)
	cityID := fields[0].(map[string]any)["id"].(string)

	rr, payload = api.do(t, http.MethodPost, base+"/fields", admin, map[string]any{"label": "Phone", "fieldType": "text"})
	require.Equal(t, http.StatusCreated, rr.Code)
	phoneID := payload["fields"].([]any)[1].(map[string]any)["id"].(string)

	rr, payload = api.do(t, http.MethodPost, base+"/fields", admin, map[string]any{"label": "Mode", "fieldType": "radio"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "validation", errorCode(payload))

	rr, _ = api.do(t, http.MethodPost, base+"/fields/"+phoneID+"/move", admin, map[string]string{"direction": "up"})
	require.Equal(t, http.StatusOK, rr.Code)
	rr, _ = api.do(t, http.MethodPost, base+"/fields/"+phoneID+"/move", admin, map[string]string{"direction": "up"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	rr, _ = api.do(t, http.MethodPost, base+"/fields/"+phoneID+"/move", admin, map[string]string{"direction": "sideways"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr, _ = api.do(t, http.MethodPost, base+"/fields/"+cityID+"/options", admin, map[string]string{"value": " Surat "})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, "trimmed duplicate option")
	rr, _ = api.do(t, http.MethodPut, base+"/fields/"+cityID+"/options/x", admin, map[string]string{"value": "Rajkot"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr, _ = api.do(t, http.MethodDelete, base+"/fields/missing", admin, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, payload = api.do(t, http.MethodPost, base+"/donations", admin, map[string]any{"donorName": "Asha", "amount": "500"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, payload["error"].(map[string]any)["message"], "City")

	rr, _ = api.do(t, http.MethodPost, base+"/donations", admin, map[string]any{"donorName": "Asha", "amount": "abc", "customFields": map[string]any{cityID: "Surat"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	rr, _ = api.do(t, http.MethodPost, base+"/donations", admin, map[string]any{"donorName": "Asha", "amount": true, "customFields": map[string]any{cityID: "Surat"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, "boolean amount")

	rr, payload = api.do(t, http.MethodPost, base+"/donations", admin, map[string]any{
		"donorName": "Asha", "amount": 1250000, "customFields": map[string]any{cityID: "Surat", phoneID: "98250"},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	donationID := payload["id"].(string)
	rr, _ = api.do(t, http.MethodPost, base+"/donations", admin, map[string]any{"donorName": "Ravi", "amount": "250", "customFields": map[string]any{cityID: "Vadodara"}})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr, payload = api.do(t, http.MethodGet, base, visitor, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(1250250), payload["currentAmount"])
	assert.Equal(t, float64(2), payload["totalVisitors"])

	rr, payload = api.do(t, http.MethodGet, base+"/insights", visitor, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(2), payload["totalDonors"])
	insight := payload["fields"].([]any)[0].(map[string]any)
	buckets := insight["buckets"].([]any)
	require.Len(t, buckets, 2)
	labels := map[string]float64{}
	for _, b := range buckets {
		bm := b.(map[string]any)
		labels[bm["label"].(string)] = bm["percentage"].(float64)
	}
	assert.Equal(t, map[string]float64{"Surat": 50, "Vadodara": 50}, labels)

	// deleting a field hides it from the table but not from the export
	rr, _ = api.do(t, http.MethodDelete, base+"/fields/"+phoneID, admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr, payload = api.do(t, http.MethodGet, base+"/table", visitor, nil, "X-Locale", "en")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []any{"Donor Name", "Amount", "City", "Date"}, payload["headers"])
	rows := payload["rows"].([]any)
	require.Len(t, rows, 2)
	last := rows[1].(map[string]any)
	assert.Equal(t, "Asha", last["donorName"])
	assert.Equal(t, "₹1,250,000.00", last["amountDisplay"])
	assert.Equal(t, []any{"Surat"}, last["cells"])

	rr, _ = api.do(t, http.MethodGet, base+"/table?format=csv", visitor, nil, "X-Locale", "en")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "attachment")
	records, err := csv.NewReader(rr.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Donor Name", "Amount (INR)", "City", "Date"}, records[0])
	assert.Equal(t, []string{"Asha", "1250000.00", "Surat"}, records[2][:3])
	assert.Equal(t, last["date"], records[2][3])

	rr, _ = api.do(t, http.MethodGet, base+"/table?format=xml", visitor, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, payload = api.do(t, http.MethodGet, base+"/export", visitor, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	exported := payload["donations"].([]any)
	require.Len(t, exported, 2)
	asha := exported[1].(map[string]any)
	assert.Equal(t, "98250", asha["customFields"].(map[string]any)[phoneID])
	assert.Len(t, payload["customFields"], 1)

	rr, payload = api.do(t, http.MethodPut, base+"/donations/"+donationID, admin, map[string]any{"donorName": "Asha P", "amount": 1000, "customFields": map[string]any{cityID: "Surat"}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.NotNil(t, payload["updatedAt"])

	rr, _ = api.do(t, http.MethodDelete, base+"/donations/"+donationID, admin, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr, payload = api.do(t, http.MethodGet, base, visitor, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(250), payload["currentAmount"])
	assert.Equal(t, float64(1), payload["totalVisitors"])

	rr, _ = api.do(t, http.MethodDelete, base, admin, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr, _ = api.do(t, http.MethodGet, base+"/donations", admin, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

type sseFrame struct {
	event string
	data  string
}

func readFrame(t *testing.T, r *bufio.Reader) sseFrame {
	t.Helper()
	var f sseFrame
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if f.event != "" {
				return f
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event: "):
			f.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			f.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestStreamSendsSnapshots(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.handler)
	defer srv.Close()

	id := api.createEvent(t)
	visitor := api.session(t, id, "visitor", "2222")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/events/"+id+"/stream?topics=donations,form&access_token="+visitor, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	first := readFrame(t, reader)
	assert.Equal(t, "donations", first.event)
	assert.Equal(t, "[]", first.data)
	second := readFrame(t, reader)
	assert.Equal(t, "form", second.event)

	adminAccess := domain.Access{EventID: id, Role: domain.RoleAdmin}
	amount := mustAmount(t, "101")
	_, err = api.svc.CreateDonation(ctx, adminAccess, id, domain.DonationInput{DonorName: "Meera", Amount: &amount})
	require.NoError(t, err)

	next := readFrame(t, reader)
	assert.Equal(t, "donations", next.event)
	assert.Contains(t, next.data, "Meera")

	require.NoError(t, api.svc.DeleteEvent(ctx, adminAccess, id))
	for {
		f := readFrame(t, reader)
		if f.event == "deleted" {
			break
		}
	}
}

func TestStreamEndsWhenSessionExpires(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.handler)
	defer srv.Close()

	id := api.createEvent(t)
	token, err := middleware.SignSession("test-secret", middleware.SessionClaims{
		EventID: id,
		Role:    domain.RoleVisitor,
		Exp:     time.Now().Add(2 * time.Second).Unix(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/events/"+id+"/stream?topics=event&access_token="+token, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reader := bufio.NewReader(resp.Body)
	assert.Equal(t, "event", readFrame(t, reader).event)
	last := readFrame(t, reader)
	assert.Equal(t, "expired", last.event)
	assert.Contains(t, last.data, id)

	_, err = reader.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStreamRequiresSession(t *testing.T) {
	api := newTestAPI(t)
	id := api.createEvent(t)

	rr, _ := api.do(t, http.MethodGet, "/v1/events/"+id+"/stream", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	visitor := api.session(t, id, "visitor", "2222")
	rr, _ = api.do(t, http.MethodGet, "/v1/events/"+id+"/stream?topics=bogus", visitor, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func mustAmount(t *testing.T, raw string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(raw)
	require.NoError(t, err)
	return d
}
