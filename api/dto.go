/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract. Hours leave
  the API as JSON numbers; inside they stay decimals.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Validation is done in handlers and services, not in DTOs.
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/marinaops/staffdesk/generic"
	"github.com/marinaops/staffdesk/timeoff"
)

// =============================================================================
// LOGIN
// =============================================================================

type LoginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token      string           `json:"token"`
	ExpiresAt  string           `json:"expiresAt"`
	EmployeeID generic.EntityID `json:"employeeId"`
	Name       string           `json:"name"`
	IsAdmin    bool             `json:"isAdmin"`
}

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID       generic.EntityID `json:"id"`
	Name     string           `json:"name"`
	Position string           `json:"position"`
	Color    string           `json:"color"`
	PTOHours float64          `json:"ptoHours"`
	PSLHours float64          `json:"pslHours"`
}

func toEmployeeDTO(e timeoff.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:       e.ID,
		Name:     e.Name,
		Position: e.Position,
		Color:    e.Color,
		PTOHours: e.PTOHours.InexactFloat64(),
		PSLHours: e.PSLHours.InexactFloat64(),
	}
}

type SummerUsageDTO struct {
	EmployeeID    generic.EntityID `json:"employeeId"`
	Year          int              `json:"year"`
	DaysUsed      int              `json:"daysUsed"`
	CapDays       int              `json:"capDays"`
	DaysRemaining int              `json:"daysRemaining"`
}

// =============================================================================
// TIME-OFF REQUESTS
// =============================================================================

// RequestDTO is a stored time-off record.
type RequestDTO struct {
	ID                 string           `json:"id"`
	EmployeeID         generic.EntityID `json:"employeeId"`
	Kind               timeoff.Kind     `json:"kind"`
	Start              string           `json:"startISO"`
	End                string           `json:"endISO"`
	Hours              float64          `json:"hours"`
	Notes              string           `json:"notes"`
	Status             timeoff.Status   `json:"status"`
	CreatedAt          string           `json:"createdAtISO"`
	VerificationNeeded bool             `json:"verificationNeeded"`
}

func toRequestDTO(r timeoff.Request) RequestDTO {
	return RequestDTO{
		ID:                 r.ID,
		EmployeeID:         r.EmployeeID,
		Kind:               r.Kind,
		Start:              r.Start.UTC().Format(time.RFC3339),
		End:                r.End.UTC().Format(time.RFC3339),
		Hours:              r.Hours.InexactFloat64(),
		Notes:              r.Notes,
		Status:             r.Status,
		CreatedAt:          r.CreatedAt.UTC().Format(time.RFC3339),
		VerificationNeeded: r.VerificationNeeded,
	}
}

type ReasonDTO struct {
	Code     timeoff.Code     `json:"code"`
	Category timeoff.Category `json:"category"`
	Message  string           `json:"message"`
}

// DecisionResponse is returned for every evaluated draft, accepted or not.
type DecisionResponse struct {
	Accepted      bool        `json:"accepted"`
	Error         string      `json:"error,omitempty"`
	Request       *RequestDTO `json:"request,omitempty"`
	Reasons       []ReasonDTO `json:"reasons,omitempty"`
	RequestedDays int         `json:"requestedDays"`
}

func toDecisionResponse(d timeoff.Decision) DecisionResponse {
	resp := DecisionResponse{Accepted: d.Accepted, RequestedDays: d.RequestedDays}
	if d.Accepted {
		rec := toRequestDTO(d.Record)
		resp.Request = &rec
		return resp
	}
	for _, r := range d.Reasons {
		resp.Reasons = append(resp.Reasons, ReasonDTO{Code: r.Code, Category: r.Category, Message: r.Message})
	}
	if len(resp.Reasons) > 0 {
		resp.Error = resp.Reasons[0].Message
	}
	return resp
}

// =============================================================================
// TOTALS
// =============================================================================

type BucketDTO struct {
	Requested float64 `json:"requested"`
	Approved  float64 `json:"approved"`
	Taken     float64 `json:"taken"`
}

func toBucketDTO(b timeoff.Bucket) BucketDTO {
	f := func(d decimal.Decimal) float64 { return d.InexactFloat64() }
	return BucketDTO{Requested: f(b.Requested), Approved: f(b.Approved), Taken: f(b.Taken)}
}

type TotalsRowDTO struct {
	EmployeeID generic.EntityID `json:"employeeId"`
	Name       string           `json:"name"`
	Position   string           `json:"position"`
	PTO        BucketDTO        `json:"pto"`
	Sick       BucketDTO        `json:"sick"`
	PFML       BucketDTO        `json:"pfml"`
	Combined   BucketDTO        `json:"combined"`
}

type TotalsDTO struct {
	Year int            `json:"year"`
	Rows []TotalsRowDTO `json:"rows"`
}

func toTotalsDTO(t timeoff.Totals) TotalsDTO {
	rows := t.Rows()
	out := TotalsDTO{Year: t.Year, Rows: make([]TotalsRowDTO, len(rows))}
	for i, r := range rows {
		out.Rows[i] = TotalsRowDTO{
			EmployeeID: r.EmployeeID,
			Name:       r.Name,
			Position:   r.Position,
			PTO:        toBucketDTO(r.PTO),
			Sick:       toBucketDTO(r.Sick),
			PFML:       toBucketDTO(r.PFML),
			Combined:   toBucketDTO(r.Combined()),
		}
	}
	return out
}

type RosterSyncResponse struct {
	Employees int `json:"employees"`
}

// =============================================================================
// SHIFTS AND MAINTENANCE
// =============================================================================

// CreateShiftRequest carries raw form values; schedule.Parse validates them.
type CreateShiftRequest struct {
	Name      string `json:"name"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Notes     string `json:"notes"`
}

type CreateMaintenanceRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
