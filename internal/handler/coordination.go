package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/wedding-transport/internal/domain"
)

// CoordinationStatus is the body of GET /events/{id}/flight-coordination-status.
type CoordinationStatus struct {
	TotalNeeding         int        `json:"totalNeeding"`
	WithTravelInfo       int        `json:"withTravelInfo"`
	Confirmed            int        `json:"confirmed"`
	CompletionPercent    int        `json:"completionPercent"`
	FlightListExported   bool       `json:"flightListExported"`
	FlightListExportedAt *time.Time `json:"flightListExportedAt"`
}

// DelayRequest is the body of PATCH /events/{id}/travel-records/{guestId}/delay.
type DelayRequest struct {
	DelayMinutes  int        `json:"delayMinutes"`
	ActualArrival *time.Time `json:"actualArrival"`
}

// TravelRecord is the JSON form of domain.TravelRecord.
type TravelRecord struct {
	ID                  uuid.UUID  `json:"id"`
	GuestID             uuid.UUID  `json:"guestId"`
	ArrivalMode         string     `json:"arrivalMode"`
	DepartureMode       string     `json:"departureMode"`
	ScheduledArrival    *time.Time `json:"scheduledArrival"`
	ScheduledDeparture  *time.Time `json:"scheduledDeparture"`
	ActualArrival       *time.Time `json:"actualArrival"`
	DelayMinutes        int        `json:"delayMinutes"`
	Origin              string     `json:"origin,omitempty"`
	Destination         string     `json:"destination,omitempty"`
	FlightNumber        string     `json:"flightNumber,omitempty"`
	Airline             string     `json:"airline,omitempty"`
	Status              string     `json:"status"`
	NeedsTransportation bool       `json:"needsTransportation"`
}

// NotificationRequest is the body of POST /events/{id}/transport-notifications.
// Without guestIds every guest needing flight assistance is notified.
type NotificationRequest struct {
	Type     string      `json:"type"`
	GuestIDs []uuid.UUID `json:"guestIds"`
}

// NotificationOutcome is the per-guest result of a dispatch.
type NotificationOutcome struct {
	GuestID uuid.UUID `json:"guestId"`
	Sent    bool      `json:"sent"`
	Error   string    `json:"error,omitempty"`
}

// NotificationResponse tallies a dispatch.
type NotificationResponse struct {
	Sent     int                   `json:"sent"`
	Failed   int                   `json:"failed"`
	Outcomes []NotificationOutcome `json:"outcomes"`
}

// GetCoordinationStatus handles GET /events/{id}/flight-coordination-status.
func (s *Server) GetCoordinationStatus(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "id")
	if !ok {
		return
	}
	st, err := s.coordination.Status(r.Context(), ids[0])
	if err != nil {
		s.writeError(w, r, "event", err)
		return
	}
	writeJSON(w, http.StatusOK, CoordinationStatus(st))
}

// ReportDelay handles PATCH /events/{id}/travel-records/{guestId}/delay.
// Groups are not moved; the coordinator regenerates when ready.
func (s *Server) ReportDelay(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "id", "guestId")
	if !ok {
		return
	}
	var req DelayRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rec, err := s.coordination.ReportDelay(r.Context(), ids[0], ids[1], req.DelayMinutes, req.ActualArrival)
	if err != nil {
		s.writeError(w, r, "travel record", err)
		return
	}
	writeJSON(w, http.StatusOK, travelRecordToResponse(rec))
}

// DispatchNotifications handles POST /events/{id}/transport-notifications.
// Per-guest delivery failures are reported in the body with a 200.
func (s *Server) DispatchNotifications(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "id")
	if !ok {
		return
	}
	var req NotificationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	t, valid := domain.ParseNotificationType(req.Type)
	if !valid {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("type must be confirmation, reminder or update"))
		return
	}

	res, err := s.notifications.Dispatch(r.Context(), ids[0], t, req.GuestIDs)
	if err != nil {
		s.writeError(w, r, "event", err)
		return
	}
	out := NotificationResponse{Sent: res.Sent, Failed: res.Failed, Outcomes: make([]NotificationOutcome, len(res.Outcomes))}
	for i, o := range res.Outcomes {
		out.Outcomes[i] = NotificationOutcome(o)
	}
	writeJSON(w, http.StatusOK, out)
}

func travelRecordToResponse(r domain.TravelRecord) TravelRecord {
	return TravelRecord{
		ID:                  r.ID,
		GuestID:             r.GuestID,
		ArrivalMode:         string(r.ArrivalMode),
		DepartureMode:       string(r.DepartureMode),
		ScheduledArrival:    r.ScheduledArrival,
		ScheduledDeparture:  r.ScheduledDeparture,
		ActualArrival:       r.ActualArrival,
		DelayMinutes:        r.DelayMinutes,
		Origin:              r.Origin,
		Destination:         r.Destination,
		FlightNumber:        r.FlightNumber,
		Airline:             r.Airline,
		Status:              string(r.Status),
		NeedsTransportation: r.NeedsTransportation,
	}
}
