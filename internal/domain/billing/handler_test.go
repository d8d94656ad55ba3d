package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careportal/careportal/internal/platform/auth"
	"github.com/careportal/careportal/pkg/pagination"
)

func newTestHandler() (*Handler, *Service, *echo.Echo) {
	svc, _ := newTestService()
	return NewHandler(svc), svc, echo.New()
}

func ctxWithSession(req *http.Request, userID uuid.UUID, role string) *http.Request {
	ctx := context.WithValue(req.Context(), auth.UserIDKey, userID)
	ctx = context.WithValue(ctx, auth.UserRoleKey, role)
	return req.WithContext(ctx)
}

func TestHandler_CreateBill(t *testing.T) {
	h, _, e := newTestHandler()
	body := `{"patient_id":"` + uuid.New().String() + `","amount":150.0,"description":"ward charges"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = ctxWithSession(req, uuid.New(), auth.RoleEmployee)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateBill(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var b Bill
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if b.Type != TypeHospital {
		t.Errorf("expected default type HOSPITAL, got %s", b.Type)
	}
}

func TestHandler_GetBill_OtherPatientForbidden(t *testing.T) {
	h, svc, e := newTestHandler()
	owner := uuid.New()
	b, err := svc.CreateAppointmentBill(context.Background(), owner, uuid.New(), 20.0, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = ctxWithSession(req, uuid.New(), auth.RolePatient)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(b.ID.String())

	err = h.GetBill(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Errorf("expected 403 error, got %v", err)
	}
}

func TestHandler_ListBills_PatientScopedToSelf(t *testing.T) {
	h, svc, e := newTestHandler()
	self, other := uuid.New(), uuid.New()
	if _, err := svc.CreateAppointmentBill(context.Background(), self, uuid.New(), 20.0, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.CreateAppointmentBill(context.Background(), other, uuid.New(), 20.0, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A patient asking for someone else's bills still gets their own.
	req := httptest.NewRequest(http.MethodGet, "/?patient_id="+other.String(), nil)
	req = ctxWithSession(req, self, auth.RolePatient)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListBills(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp pagination.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("expected 1 bill, got %d", resp.Total)
	}
}

func TestHandler_ListBills_StaffCanPickPatient(t *testing.T) {
	h, svc, e := newTestHandler()
	patientID := uuid.New()
	if _, err := svc.CreateAppointmentBill(context.Background(), patientID, uuid.New(), 20.0, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/?patient_id="+patientID.String(), nil)
	req = ctxWithSession(req, uuid.New(), auth.RoleEmployee)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListBills(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp pagination.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("expected 1 bill, got %d", resp.Total)
	}
}
