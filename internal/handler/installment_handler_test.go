package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/alhisab/school-fees-api/internal/models"
	"github.com/alhisab/school-fees-api/internal/service"
	appErrors "github.com/alhisab/school-fees-api/pkg/errors"
)

type fakeInstallmentSrv struct {
	installment *models.Installment
	err         error
	lastReq     service.RecordInstallmentRequest
	deleted     []string
}

func (f *fakeInstallmentSrv) Record(_ context.Context, req service.RecordInstallmentRequest) (*models.Installment, error) {
	f.lastReq = req
	return f.installment, f.err
}

func (f *fakeInstallmentSrv) List(context.Context, models.InstallmentFilter) ([]models.Installment, *models.Pagination, error) {
	return []models.Installment{}, &models.Pagination{Page: 1}, f.err
}

func (f *fakeInstallmentSrv) Get(context.Context, string) (*models.Installment, error) {
	return f.installment, f.err
}

func (f *fakeInstallmentSrv) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeInstallmentSrv) Receipt(context.Context, string) ([]byte, error) {
	return []byte("%PDF-1.4"), f.err
}

func TestInstallmentHandlerRecord(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeInstallmentSrv{
		installment: &models.Installment{ID: "ins-1", InstallmentNumber: 42, Amount: 400000},
	}
	h := NewInstallmentHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	body := bytes.NewBufferString(`{"student_id":"stu-1","amount":400000}`)
	c.Request = httptest.NewRequest(http.MethodPost, "/installments", body)
	c.Request.Header.Set("Content-Type", "application/json")

	h.Record(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "stu-1", srv.lastReq.StudentID)
	assert.Equal(t, 400000.0, srv.lastReq.Amount)
}

func TestInstallmentHandlerRecordOverpayment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewInstallmentHandler(&fakeInstallmentSrv{
		err: appErrors.Clone(appErrors.ErrOverpayment, "payment exceeds remaining balance"),
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	body := bytes.NewBufferString(`{"student_id":"stu-1","amount":900000}`)
	c.Request = httptest.NewRequest(http.MethodPost, "/installments", body)
	c.Request.Header.Set("Content-Type", "application/json")

	h.Record(c)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "OVERPAYMENT")
}

func TestInstallmentHandlerRecordBadJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewInstallmentHandler(&fakeInstallmentSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/installments", bytes.NewBufferString("{"))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Record(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInstallmentHandlerReceiptHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewInstallmentHandler(&fakeInstallmentSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/installments/ins-1/receipt", nil)
	c.Params = gin.Params{{Key: "id", Value: "ins-1"}}

	h.Receipt(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "installment_ins-1.pdf")
}
