package patient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/agendapp/office-service/internal/auth"
	"github.com/agendapp/office-service/internal/pagination"
	"github.com/agendapp/office-service/internal/testutil"
)

type mockService struct {
	createPatientFunc func(ctx context.Context, ownerID string, req CreatePatientRequest) (*PatientResponse, error)
	getPatientFunc    func(ctx context.Context, ownerID, id string) (*PatientResponse, error)
	listPatientsFunc  func(ctx context.Context, ownerID string, params pagination.Params) (*PaginatedPatientListResponse, error)
	updatePatientFunc func(ctx context.Context, ownerID, id string, req UpdatePatientRequest) (*PatientResponse, error)
	deletePatientFunc func(ctx context.Context, ownerID, id string) error
}

func (m *mockService) CreatePatient(ctx context.Context, ownerID string, req CreatePatientRequest) (*PatientResponse, error) {
	if m.createPatientFunc != nil {
		return m.createPatientFunc(ctx, ownerID, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) GetPatient(ctx context.Context, ownerID, id string) (*PatientResponse, error) {
	if m.getPatientFunc != nil {
		return m.getPatientFunc(ctx, ownerID, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) ListPatients(ctx context.Context, ownerID string, params pagination.Params) (*PaginatedPatientListResponse, error) {
	if m.listPatientsFunc != nil {
		return m.listPatientsFunc(ctx, ownerID, params)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) UpdatePatient(ctx context.Context, ownerID, id string, req UpdatePatientRequest) (*PatientResponse, error) {
	if m.updatePatientFunc != nil {
		return m.updatePatientFunc(ctx, ownerID, id, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) DeletePatient(ctx context.Context, ownerID, id string) error {
	if m.deletePatientFunc != nil {
		return m.deletePatientFunc(ctx, ownerID, id)
	}
	return errors.New("not implemented")
}

var owner = &auth.Principal{UserID: "owner-1", Roles: []string{"authenticated"}}

func TestHandler_CreatePatient(t *testing.T) {
	h := NewHandler(&mockService{
		createPatientFunc: func(ctx context.Context, ownerID string, req CreatePatientRequest) (*PatientResponse, error) {
			if ownerID != "owner-1" {
				t.Errorf("Expected owner from principal, got %s", ownerID)
			}
			return &PatientResponse{ID: "p1", Name: req.Name}, nil
		},
	})

	rec := testutil.Serve(t, h.CreatePatient, testutil.Request{
		Method: http.MethodPost, Path: "/patients", Principal: owner,
		Body: map[string]string{"name": "Maria"},
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp PatientSuccessResponse
	testutil.DecodeJSON(t, rec, &resp)
	if !resp.Success || resp.Patient == nil || resp.Patient.Name != "Maria" {
		t.Errorf("Unexpected response %+v", resp)
	}
}

func TestHandler_CreatePatient_Errors(t *testing.T) {
	testCases := []struct {
		name      string
		principal *auth.Principal
		body      interface{}
		svcErr    error
		status    int
		errorCode string
	}{
		{name: "unauthenticated", principal: nil, body: map[string]string{}, status: http.StatusUnauthorized, errorCode: "unauthenticated"},
		{name: "bad json", principal: owner, body: "{", status: http.StatusBadRequest, errorCode: "invalid_request"},
		{name: "validation", principal: owner, body: map[string]string{}, svcErr: fmt.Errorf("%w: name is required", ErrInvalidInput), status: http.StatusBadRequest, errorCode: "validation_error"},
		{name: "internal", principal: owner, body: map[string]string{}, svcErr: errors.New("db down"), status: http.StatusInternalServerError, errorCode: "creation_failed"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler(&mockService{
				createPatientFunc: func(ctx context.Context, ownerID string, req CreatePatientRequest) (*PatientResponse, error) {
					return nil, tc.svcErr
				},
			})
			rec := testutil.Serve(t, h.CreatePatient, testutil.Request{Method: http.MethodPost, Path: "/patients", Principal: tc.principal, Body: tc.body})

			if rec.Code != tc.status {
				t.Errorf("Expected %d, got %d", tc.status, rec.Code)
			}
			var body testutil.ErrorBody
			testutil.DecodeJSON(t, rec, &body)
			if body.Error != tc.errorCode {
				t.Errorf("Expected error %q, got %q", tc.errorCode, body.Error)
			}
		})
	}
}

func TestHandler_GetPatient_NotFound(t *testing.T) {
	h := NewHandler(&mockService{
		getPatientFunc: func(ctx context.Context, ownerID, id string) (*PatientResponse, error) {
			if id != "p404" {
				t.Errorf("Expected id from route, got %s", id)
			}
			return nil, fmt.Errorf("failed to get patient: %w", ErrPatientNotFound)
		},
	})

	rec := testutil.Serve(t, h.GetPatient, testutil.Request{
		Method: http.MethodGet, Path: "/patients/p404", Principal: owner, Vars: map[string]string{"id": "p404"},
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestHandler_ListPatients_PassesQuery(t *testing.T) {
	h := NewHandler(&mockService{
		listPatientsFunc: func(ctx context.Context, ownerID string, params pagination.Params) (*PaginatedPatientListResponse, error) {
			if params.Page != 2 || params.Search != "silva" {
				t.Errorf("Unexpected params %+v", params)
			}
			return &PaginatedPatientListResponse{Success: true, Patients: []PatientResponse{}}, nil
		},
	})

	rec := testutil.Serve(t, h.ListPatients, testutil.Request{Method: http.MethodGet, Path: "/patients?page=2&search=silva", Principal: owner})
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}

func TestHandler_UpdateAndDelete(t *testing.T) {
	h := NewHandler(&mockService{
		updatePatientFunc: func(ctx context.Context, ownerID, id string, req UpdatePatientRequest) (*PatientResponse, error) {
			if req.Phone == nil || *req.Phone != "11999990000" {
				t.Errorf("Expected phone in update, got %+v", req)
			}
			return &PatientResponse{ID: id}, nil
		},
		deletePatientFunc: func(ctx context.Context, ownerID, id string) error {
			return nil
		},
	})
	vars := map[string]string{"id": "p1"}

	rec := testutil.Serve(t, h.UpdatePatient, testutil.Request{
		Method: http.MethodPut, Path: "/patients/p1", Principal: owner, Vars: vars,
		Body: map[string]string{"phone": "11999990000"},
	})
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 on update, got %d", rec.Code)
	}

	rec = testutil.Serve(t, h.DeletePatient, testutil.Request{Method: http.MethodDelete, Path: "/patients/p1", Principal: owner, Vars: vars})
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 on delete, got %d", rec.Code)
	}
}
