package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/creditwatch/creditwatch/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// AddSubjectRequest is the registration payload for a new subject profile.
type AddSubjectRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	DOB             string `json:"dob"`
	NationalIDLast4 string `json:"national_id_last4"`
	Street          string `json:"street"`
	City            string `json:"city"`
	State           string `json:"state"`
	Zip             string `json:"zip"`
}

// SubjectResponse is the JSON representation of a subject profile.
type SubjectResponse struct {
	ID              string `json:"id"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	DOB             string `json:"dob"`
	NationalIDLast4 string `json:"national_id_last4"`
	Street          string `json:"street,omitempty"`
	City            string `json:"city,omitempty"`
	State           string `json:"state,omitempty"`
	Zip             string `json:"zip,omitempty"`
	CreatedAt       string `json:"created_at"`
}

func toSubjectResponse(s model.Subject) SubjectResponse {
	return SubjectResponse{
		ID:              s.ID,
		FirstName:       s.Identity.FirstName,
		LastName:        s.Identity.LastName,
		DOB:             s.Identity.DOB,
		NationalIDLast4: s.Identity.NationalIDLast4,
		Street:          s.Identity.Address.Street,
		City:            s.Identity.Address.City,
		State:           s.Identity.Address.State,
		Zip:             s.Identity.Address.Zip,
		CreatedAt:       s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// SnapshotResponse is the JSON representation of one stored snapshot.
type SnapshotResponse struct {
	ID          int64        `json:"id"`
	SubjectID   string       `json:"subject_id"`
	Bureau      string       `json:"bureau"`
	PreviousID  *int64       `json:"previous_id"`
	PullID      string       `json:"pull_id"`
	Sandbox     bool         `json:"sandbox"`
	ChangeCount int          `json:"change_count"`
	Report      model.Report `json:"report"`
	CreatedAt   string       `json:"created_at"`
}

func toSnapshotResponse(s model.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		ID:          s.ID,
		SubjectID:   s.SubjectID,
		Bureau:      string(s.Bureau),
		PreviousID:  s.PreviousID,
		PullID:      s.PullID,
		Sandbox:     s.Report.IsSandbox(),
		ChangeCount: s.ChangeCount,
		Report:      s.Report,
		CreatedAt:   s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ChangeResponse is the JSON representation of one detected change.
type ChangeResponse struct {
	ID            int64    `json:"id"`
	Bureau        string   `json:"bureau"`
	SnapshotID    int64    `json:"snapshot_id"`
	Type          string   `json:"type"`
	Category      string   `json:"category"`
	Severity      string   `json:"severity"`
	Description   string   `json:"description"`
	PreviousValue string   `json:"previous_value,omitempty"`
	CurrentValue  string   `json:"current_value,omitempty"`
	Delta         *float64 `json:"delta,omitempty"`
	IsPositive    bool     `json:"is_positive"`
	CreatedAt     string   `json:"created_at"`
}

func toChangeResponse(c model.Change) ChangeResponse {
	return ChangeResponse{
		ID:            c.ID,
		Bureau:        string(c.Bureau),
		SnapshotID:    c.SnapshotID,
		Type:          string(c.Type),
		Category:      string(c.Category),
		Severity:      string(c.Severity),
		Description:   c.Description,
		PreviousValue: c.PreviousValue,
		CurrentValue:  c.CurrentValue,
		Delta:         c.Delta,
		IsPositive:    c.IsPositive,
		CreatedAt:     c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// PullRecordResponse is the JSON representation of one pull attempt.
type PullRecordResponse struct {
	ID                 string `json:"id"`
	Bureau             string `json:"bureau"`
	Status             string `json:"status"`
	RequestedBy        string `json:"requested_by"`
	PermissiblePurpose string `json:"permissible_purpose"`
	ReportID           string `json:"report_id,omitempty"`
	ErrorMessage       string `json:"error_message,omitempty"`
	StartedAt          string `json:"started_at"`
	FinishedAt         string `json:"finished_at,omitempty"`
}

func toPullRecordResponse(rec model.PullRecord) PullRecordResponse {
	resp := PullRecordResponse{
		ID:                 rec.ID,
		Bureau:             string(rec.Bureau),
		Status:             string(rec.Status),
		RequestedBy:        rec.RequestedBy,
		PermissiblePurpose: rec.PermissiblePurpose,
		ReportID:           rec.ReportID,
		ErrorMessage:       rec.ErrorMessage,
		StartedAt:          rec.StartedAt.UTC().Format(time.RFC3339),
	}
	if rec.FinishedAt != nil {
		resp.FinishedAt = rec.FinishedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// BureauResponse reports one bureau's live/sandbox availability.
type BureauResponse struct {
	Bureau  string `json:"bureau"`
	Live    bool   `json:"live"`
	Sandbox bool   `json:"sandbox"`
}

// HealthResponse is the health check response body.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}
