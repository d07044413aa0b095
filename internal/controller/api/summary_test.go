package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"equipviz.dev/backend/internal/app/appconfig"
	"equipviz.dev/backend/internal/constant"
	"equipviz.dev/backend/internal/model"
	"equipviz.dev/backend/internal/pkg/cache"
	"equipviz.dev/backend/internal/pkg/vzerr"
	"equipviz.dev/backend/internal/repo"
	"equipviz.dev/backend/internal/server/httpserver"
	"equipviz.dev/backend/internal/server/svr"
	"equipviz.dev/backend/internal/service"
)

func newApp(t *testing.T) *fiber.App {
	t.Helper()

	conf := &appconfig.Config{ConfigSpec: appconfig.ConfigSpec{
		HistoryCacheTTL: time.Minute,
		ArchiveTimeout:  time.Second,
	}}
	svc := service.NewSummary(service.SummaryDeps{
		Store:  repo.NewMemoryRetention(),
		Cache:  cache.NewSingular[[]*model.SummaryRecord](constant.HistoryCacheKey),
		Config: conf,
	})

	app := fiber.New(fiber.Config{ErrorHandler: httpserver.ErrorHandler})
	api, _ := svr.CreateEndpointGroups(app)
	RegisterSummary(api, Summary{SummaryService: svc, Config: conf})
	return app
}

func uploadRequest(t *testing.T, field, content string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, "equipment.csv")
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/api/upload", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestUploadReturnsSummary(t *testing.T) {
	app := newApp(t)

	resp, body := do(t, app, uploadRequest(t, "file", "Type,Flowrate,Pressure,Temperature\nA,1,2,3\nB,4,5,6\nA,7,8,9\n"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)
	assert.Contains(t, resp.Header.Get(fiber.HeaderCacheControl), "no-store")
	assert.JSONEq(t, `{
		"total_items": 3,
		"avg_flowrate": 4,
		"avg_pressure": 5,
		"avg_temperature": 6,
		"type_distribution": {"A": 2, "B": 1}
	}`, body)
}

func TestUploadWithoutFile(t *testing.T) {
	app := newApp(t)

	resp, body := do(t, app, uploadRequest(t, "attachment", "Type\nA\n"))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No file provided", gjson.Get(body, "error").String())
}

func objectKeys(body string) []string {
	var keys []string
	gjson.Parse(body).ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}

func TestUploadFailuresAreCategorized(t *testing.T) {
	cases := []struct {
		name    string
		content string
		code    string
	}{
		{"missing column", "Type,Flowrate,Temperature\nA,1,3\n", vzerr.CodeSchemaMismatch},
		{"non numeric", "Type,Flowrate,Pressure,Temperature\nA,x,2,3\n", vzerr.CodeSchemaMismatch},
		{"header only", "Type,Flowrate,Pressure,Temperature\n", vzerr.CodeEmptyDataset},
		{"ragged", "Type,Flowrate,Pressure,Temperature\nA,1,2\n", vzerr.CodeMalformedInput},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newApp(t)

			resp, body := do(t, app, uploadRequest(t, "file", tc.content))
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tc.code, resp.Header.Get(constant.ErrorCodeHeader))
			assert.NotEmpty(t, gjson.Get(body, "error").String())
			assert.Equal(t, []string{"error"}, objectKeys(body))

			_, history := do(t, app, httptest.NewRequest(fiber.MethodGet, "/api/datasets", nil))
			assert.JSONEq(t, `[]`, history)
		})
	}
}

func TestDatasetsNewestFirstWithLimit(t *testing.T) {
	app := newApp(t)

	for i := 1; i <= 7; i++ {
		content := "Type,Flowrate,Pressure,Temperature\n"
		for j := 0; j < i; j++ {
			content += "A,1,1,1\n"
		}
		resp, body := do(t, app, uploadRequest(t, "file", content))
		require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)
	}

	resp, body := do(t, app, httptest.NewRequest(fiber.MethodGet, "/api/datasets", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	records := gjson.Parse(body).Array()
	require.Len(t, records, constant.MaxHistory)
	for i, r := range records {
		assert.Equal(t, int64(7-i), r.Get("total_items").Int())
		assert.True(t, r.Get("id").Exists())
		assert.True(t, r.Get("uploaded_at").Exists())
		assert.False(t, r.Get("type_distribution").Exists())
	}

	_, body = do(t, app, httptest.NewRequest(fiber.MethodGet, "/api/datasets?limit=2", nil))
	assert.Len(t, gjson.Parse(body).Array(), 2)
}

func TestDatasetsRejectsInvalidLimit(t *testing.T) {
	app := newApp(t)

	for _, limit := range []string{"0", "6", "abc"} {
		resp, _ := do(t, app, httptest.NewRequest(fiber.MethodGet, fmt.Sprintf("/api/datasets?limit=%s", limit), nil))
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "limit=%s", limit)
		assert.Equal(t, vzerr.CodeInvalidRequest, resp.Header.Get(constant.ErrorCodeHeader))
	}
}
