package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/grachmannico95/payments-engine/internal/domain"
	"github.com/grachmannico95/payments-engine/internal/mocks"
	"github.com/grachmannico95/payments-engine/pkg/amount"
	"github.com/grachmannico95/payments-engine/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*BatchHandler, *mocks.MockBatchService) {
	svc := mocks.NewMockBatchService(t)
	return NewBatchHandler(svc, logger.NewNop(), 1<<20), svc
}

func multipartBody(t *testing.T, content string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "transactions.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func completedBatch() *domain.Batch {
	return &domain.Batch{
		ID:            "batch-1",
		Status:        domain.BatchStatusCompleted,
		ProcessedRows: 1,
		Accounts: []domain.AccountSnapshot{
			{Client: 1, Available: amount.MustParse("1"), Total: amount.MustParse("1")},
		},
	}
}

func TestUpload_Multipart(t *testing.T) {
	h, svc := newTestHandler(t)
	e := echo.New()

	body, contentType := multipartBody(t, "deposit,1,1,1\n")
	req := httptest.NewRequest(http.MethodPost, "/batches", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()

	svc.On("SubmitBatch", mock.Anything, mock.Anything).Return(completedBatch(), nil).Once()

	err := h.Upload(e.NewContext(req, rec))

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
	got := decode(t, rec)
	assert.Equal(t, "batch-1", got["id"])
	assert.Equal(t, "completed", got["status"])
}

func TestUpload_RawBody(t *testing.T) {
	h, svc := newTestHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/batches", strings.NewReader("deposit,1,1,1\n"))
	req.Header.Set(echo.HeaderContentType, "text/csv")
	rec := httptest.NewRecorder()

	svc.On("SubmitBatch", mock.Anything, mock.Anything).Return(completedBatch(), nil).Once()

	err := h.Upload(e.NewContext(req, rec))

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestUpload_MissingFile(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()

	body, contentType := multipartBody(t, "")
	req := httptest.NewRequest(http.MethodPost, "/batches", strings.NewReader(strings.Replace(body.String(), `name="file"`, `name="other"`, 1)))
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()

	err := h.Upload(e.NewContext(req, rec))

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_EmptyBody(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/batches", nil)
	rec := httptest.NewRecorder()

	err := h.Upload(e.NewContext(req, rec))

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_Errors(t *testing.T) {
	failed := &domain.Batch{ID: "batch-2", Status: domain.BatchStatusFailed}

	tests := []struct {
		name     string
		batch    *domain.Batch
		err      error
		wantCode int
	}{
		{
			name:     "structural error",
			batch:    failed,
			err:      fmt.Errorf("line 3: %w: unknown transaction type", domain.ErrInvalidCSVFormat),
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "too large",
			batch:    failed,
			err:      fmt.Errorf("read input: %w", &http.MaxBytesError{Limit: 10}),
			wantCode: http.StatusRequestEntityTooLarge,
		},
		{
			name:     "storage error",
			err:      errors.New("database error"),
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc := newTestHandler(t)
			e := echo.New()

			req := httptest.NewRequest(http.MethodPost, "/batches", strings.NewReader("deposit,1,1,1\n"))
			rec := httptest.NewRecorder()

			svc.On("SubmitBatch", mock.Anything, mock.Anything).Return(tt.batch, tt.err).Once()

			err := h.Upload(e.NewContext(req, rec))

			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, rec.Code)
			got := decode(t, rec)
			assert.NotEmpty(t, got["error"])
			if tt.batch != nil {
				batch, ok := got["batch"].(map[string]interface{})
				require.True(t, ok)
				assert.Equal(t, tt.batch.ID, batch["id"])
			}
		})
	}
}

func TestGetBatch(t *testing.T) {
	tests := []struct {
		name     string
		batch    *domain.Batch
		err      error
		wantCode int
	}{
		{name: "found", batch: completedBatch(), wantCode: http.StatusOK},
		{name: "not found", err: domain.ErrBatchNotFound, wantCode: http.StatusNotFound},
		{name: "store error", err: errors.New("boom"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc := newTestHandler(t)
			e := echo.New()

			req := httptest.NewRequest(http.MethodGet, "/batches/batch-1", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues("batch-1")

			svc.On("GetBatch", mock.Anything, "batch-1").Return(tt.batch, tt.err).Once()

			err := h.GetBatch(c)

			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestGetAccounts_JSON(t *testing.T) {
	h, svc := newTestHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/batches/batch-1/accounts", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("batch-1")

	svc.On("GetAccounts", mock.Anything, "batch-1").Return(completedBatch().Accounts, nil).Once()

	err := h.GetAccounts(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"batch_id":"batch-1","accounts":[{"client":1,"available":"1.0000","held":"0.0000","total":"1.0000","locked":false}]}`,
		rec.Body.String(),
	)
}

func TestGetAccounts_CSV(t *testing.T) {
	h, svc := newTestHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/batches/batch-1/accounts", nil)
	req.Header.Set(echo.HeaderAccept, "text/csv")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("batch-1")

	svc.On("GetAccounts", mock.Anything, "batch-1").Return(completedBatch().Accounts, nil).Once()

	err := h.GetAccounts(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/csv")
	assert.Equal(t, "client,available,held,total,locked\n1,1.0000,0.0000,1.0000,false\n", rec.Body.String())
}

func TestGetAccounts_NotFinished(t *testing.T) {
	h, svc := newTestHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/batches/batch-1/accounts", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("batch-1")

	svc.On("GetAccounts", mock.Anything, "batch-1").
		Return(nil, fmt.Errorf("%w: batch is failed", domain.ErrBatchNotFinished)).
		Once()

	err := h.GetAccounts(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestList(t *testing.T) {
	h, svc := newTestHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/batches?status=failed", nil)
	rec := httptest.NewRecorder()

	failed := domain.BatchStatusFailed
	svc.On("ListBatches", mock.Anything, &failed).
		Return([]domain.Batch{{ID: "batch-2", Status: domain.BatchStatusFailed}}, nil).
		Once()

	err := h.List(e.NewContext(req, rec))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	got := decode(t, rec)
	assert.Equal(t, float64(1), got["total"])
}

func TestList_InvalidStatus(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/batches?status=done", nil)
	rec := httptest.NewRecorder()

	err := h.List(e.NewContext(req, rec))

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
