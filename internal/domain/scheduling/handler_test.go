package scheduling

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careportal/careportal/internal/domain/catalog"
	"github.com/careportal/careportal/internal/platform/auth"
)

func newTestHandler() (*Handler, *Service, *catalog.Doctor, *echo.Echo) {
	svc, _, _, doctor := newTestService()
	return NewHandler(svc), svc, doctor, echo.New()
}

func ctxWithSession(req *http.Request, userID uuid.UUID, role string) *http.Request {
	ctx := context.WithValue(req.Context(), auth.UserIDKey, userID)
	ctx = context.WithValue(ctx, auth.UserRoleKey, role)
	return req.WithContext(ctx)
}

func TestHandler_RequestSlot(t *testing.T) {
	h, _, doctor, e := newTestHandler()
	body := `{"doctor_id":"` + doctor.ID.String() + `","date":"` + monday + `","time":"10:00","symptoms":"chest pain"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = ctxWithSession(req, uuid.New(), auth.RolePatient)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.RequestSlot(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var a Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if a.Status != StatusBooked {
		t.Errorf("expected BOOKED, got %s", a.Status)
	}
}

func TestHandler_RequestSlot_Conflict(t *testing.T) {
	h, _, doctor, e := newTestHandler()
	body := `{"doctor_id":"` + doctor.ID.String() + `","date":"` + monday + `","time":"10:00"}`
	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req = ctxWithSession(req, uuid.New(), auth.RolePatient)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := h.RequestSlot(c)
		if i == 0 {
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			continue
		}
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != want {
			t.Errorf("expected %d error, got %v", want, err)
		}
	}
}

func TestHandler_CancelAppointment_OtherPatientForbidden(t *testing.T) {
	h, svc, doctor, e := newTestHandler()
	owner := uuid.New()
	a, err := svc.RequestSlot(context.Background(), owner, SlotRequest{
		DoctorID: doctor.ID, Date: monday, Time: "10:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req = ctxWithSession(req, uuid.New(), auth.RolePatient)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	err = h.CancelAppointment(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Errorf("expected 403 error, got %v", err)
	}
}

func TestHandler_AvailableTimes_RequiresDate(t *testing.T) {
	h, _, doctor, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(doctor.ID.String())

	err := h.AvailableTimes(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 error, got %v", err)
	}
}

func TestHandler_AvailableTimes(t *testing.T) {
	h, _, doctor, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/?date="+monday, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(doctor.ID.String())

	if err := h.AvailableTimes(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Date  string   `json:"date"`
		Times []string `json:"times"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(resp.Times) != 3 {
		t.Errorf("expected 3 open times, got %v", resp.Times)
	}
}
