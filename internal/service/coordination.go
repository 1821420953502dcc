package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/pkordes/wedding-transport/internal/domain"
	"github.com/pkordes/wedding-transport/internal/metrics"
	"github.com/pkordes/wedding-transport/internal/repo"
)

// Manifest date and time layouts. Values are wall-clock in the event's zone.
const (
	manifestDate = "2006-01-02"
	manifestTime = "15:04"
)

// Reasons reported for skipped manifest rows.
const (
	SkipGuestNotFound = "guest_not_found"
	SkipAmbiguous     = "ambiguous_match"
	SkipInvalidRow    = "invalid_row"
)

// CoordinationService runs the travel-agent workflow: progress status,
// manifest export and import, and delay reports.
type CoordinationService struct {
	events  repo.EventRepo
	guests  repo.GuestRepo
	travel  repo.TravelRecordRepo
	log     *slog.Logger
	metrics *metrics.Metrics
	now     clock
}

// NewCoordinationService constructs a CoordinationService.
func NewCoordinationService(r repo.Repos, log *slog.Logger, m *metrics.Metrics) *CoordinationService {
	return &CoordinationService{
		events:  r.Events,
		guests:  r.Guests,
		travel:  r.Travel,
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

// Status reports how far the flight workflow has progressed. Each guest
// needing assistance counts once for having travel details and once for
// being confirmed, so the percentage reaches 100 only when every guest is
// confirmed.
func (s *CoordinationService) Status(ctx context.Context, eventID uuid.UUID) (domain.CoordinationStatus, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return domain.CoordinationStatus{}, fmt.Errorf("service.CoordinationService.Status: %w", err)
	}
	guests, records, err := s.load(ctx, eventID)
	if err != nil {
		return domain.CoordinationStatus{}, fmt.Errorf("service.CoordinationService.Status: %w", err)
	}

	st := domain.CoordinationStatus{
		TotalNeeding:         len(guests),
		FlightListExported:   event.FlightListExported,
		FlightListExportedAt: event.FlightListExportedAt,
	}
	for _, g := range guests {
		rec, ok := records[g.ID]
		if !ok {
			continue
		}
		if hasTravelInfo(rec) {
			st.WithTravelInfo++
		}
		if rec.Status == domain.TravelStatusConfirmed {
			st.Confirmed++
		}
	}
	st.CompletionPercent = completionPercent(st.WithTravelInfo, st.Confirmed, st.TotalNeeding)
	return st, nil
}

func completionPercent(withInfo, confirmed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(withInfo+confirmed) / float64(total*2) * 100))
}

func hasTravelInfo(r domain.TravelRecord) bool {
	return r.ScheduledArrival != nil || r.ScheduledDeparture != nil || r.FlightNumber != ""
}

// Export builds one manifest row per guest needing assistance and marks the
// flight list as exported.
func (s *CoordinationService) Export(ctx context.Context, eventID uuid.UUID) ([]domain.ManifestRow, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("service.CoordinationService.Export: %w", err)
	}
	guests, records, err := s.load(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("service.CoordinationService.Export: %w", err)
	}

	loc := event.Location()
	rows := make([]domain.ManifestRow, 0, len(guests))
	for _, g := range guests {
		row := domain.ManifestRow{
			GuestName:               g.Name,
			Email:                   g.Email,
			Phone:                   g.Phone,
			AccommodationPreference: g.AccommodationPreference,
			DietaryRestrictions:     g.DietaryRestrictions,
			SpecialRequests:         g.SpecialRequests,
		}
		if rec, ok := records[g.ID]; ok {
			row.TravelMode = string(rec.ArrivalMode)
			row.PreferredArrivalDate, row.ArrivalTime = formatDateTime(rec.ScheduledArrival, loc)
			row.PreferredDepartureDate, row.DepartureTime = formatDateTime(rec.ScheduledDeparture, loc)
			row.ActualArrivalDate, _ = formatDateTime(rec.ActualArrival, loc)
			row.FlightNumber = rec.FlightNumber
			row.OriginAirport = rec.Origin
			row.DestinationAirport = rec.Destination
			row.Airline = rec.Airline
		}
		rows = append(rows, row)
	}

	if _, err := s.events.MarkFlightListExported(ctx, eventID, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("service.CoordinationService.Export: %w", err)
	}
	return rows, nil
}

// Import reconciles a manifest returned by the travel agent.
//
// Rows are applied one at a time and a bad row never aborts the batch: a row
// that matches no guest, matches several, or carries malformed values is
// skipped and reported with its index. Guests are matched by email first,
// then by name, both case-insensitively. Matched rows overwrite the guest's
// travel details and mark them confirmed. A row that changes nothing on an
// already confirmed record counts as unchanged.
func (s *CoordinationService) Import(ctx context.Context, eventID uuid.UUID, rows []domain.ManifestRow) (res domain.ImportResult, err error) {
	ctx, span := startSpan(ctx, "CoordinationService.Import",
		attribute.String("event.id", eventID.String()),
		attribute.Int("manifest.rows", len(rows)))
	defer func() { endSpan(span, err) }()

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("service.CoordinationService.Import: %w", err)
	}
	loc := event.Location()

	res.Skipped = []domain.ImportSkip{}
	for i, row := range rows {
		outcome, err := s.importRow(ctx, eventID, loc, row)
		if err != nil {
			var skip *rowSkip
			if !errors.As(err, &skip) {
				return domain.ImportResult{}, fmt.Errorf("service.CoordinationService.Import: row %d: %w", i, err)
			}
			res.Skipped = append(res.Skipped, domain.ImportSkip{Row: i, Name: row.GuestName, Email: row.Email, Reason: skip.reason})
			s.metrics.ManifestRowsImported.WithLabelValues(skip.reason).Inc()
			continue
		}
		switch outcome {
		case rowCreated:
			res.CreatedCount++
		case rowUpdated:
			res.UpdatedCount++
		case rowUnchanged:
			res.UnchangedCount++
		}
		s.metrics.ManifestRowsImported.WithLabelValues(string(outcome)).Inc()
	}

	if len(res.Skipped) > 0 {
		s.log.WarnContext(ctx, "manifest rows skipped", "event_id", eventID, "skipped", len(res.Skipped))
	}
	return res, nil
}

type rowOutcome string

const (
	rowCreated   rowOutcome = "created"
	rowUpdated   rowOutcome = "updated"
	rowUnchanged rowOutcome = "unchanged"
)

// rowSkip marks a row-level problem that is reported rather than returned.
type rowSkip struct {
	reason string
	err    error
}

func (e *rowSkip) Error() string { return e.reason + ": " + e.err.Error() }
func (e *rowSkip) Unwrap() error { return e.err }

func (s *CoordinationService) importRow(ctx context.Context, eventID uuid.UUID, loc *time.Location, row domain.ManifestRow) (rowOutcome, error) {
	guest, err := s.matchGuest(ctx, eventID, row)
	if err != nil {
		return "", err
	}

	existing, err := s.travel.GetByGuest(ctx, eventID, guest.ID)
	found := err == nil
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	// A blank row for a guest without a record is what an export yields before
	// the agent has filled it in; confirming it would invent travel details.
	if !found && !row.HasTravelData() {
		return rowUnchanged, nil
	}

	rec, err := rowToRecord(row, loc, existing, found)
	if err != nil {
		return "", &rowSkip{reason: SkipInvalidRow, err: err}
	}
	rec.EventID = eventID
	rec.GuestID = guest.ID

	if found && existing.Status == domain.TravelStatusConfirmed && existing.SameTravelData(rec) {
		return rowUnchanged, nil
	}
	_, created, err := s.travel.Upsert(ctx, rec)
	if err != nil {
		return "", err
	}
	if created {
		return rowCreated, nil
	}
	return rowUpdated, nil
}

func (s *CoordinationService) matchGuest(ctx context.Context, eventID uuid.UUID, row domain.ManifestRow) (domain.Guest, error) {
	email := strings.TrimSpace(row.Email)
	name := strings.TrimSpace(row.GuestName)
	if email == "" && name == "" {
		return domain.Guest{}, &rowSkip{reason: SkipInvalidRow, err: errors.New("row has neither email nor guest name")}
	}

	var matches []domain.Guest
	if email != "" {
		found, err := s.guests.FindByEmail(ctx, eventID, email)
		if err != nil {
			return domain.Guest{}, err
		}
		matches = found
	}
	if len(matches) == 0 && name != "" {
		found, err := s.guests.FindByName(ctx, eventID, name)
		if err != nil {
			return domain.Guest{}, err
		}
		matches = found
	}

	switch len(matches) {
	case 0:
		return domain.Guest{}, &rowSkip{reason: SkipGuestNotFound, err: domain.ErrGuestNotFound}
	case 1:
		return matches[0], nil
	default:
		return domain.Guest{}, &rowSkip{reason: SkipAmbiguous, err: domain.ErrAmbiguousGuestMatch}
	}
}

// rowToRecord parses a manifest row into travel fields. Fields the manifest
// does not carry (departure mode, delay, transport need) keep the values of
// the existing record.
func rowToRecord(row domain.ManifestRow, loc *time.Location, existing domain.TravelRecord, found bool) (domain.TravelRecord, error) {
	mode := domain.TravelMode(strings.ToLower(strings.TrimSpace(row.TravelMode)))
	if mode == "" {
		mode = domain.TravelModeAir
	}
	if !mode.Valid() {
		return domain.TravelRecord{}, fmt.Errorf("unknown travel mode %q", row.TravelMode)
	}

	arrival, err := parseDateTime(row.PreferredArrivalDate, row.ArrivalTime, loc)
	if err != nil {
		return domain.TravelRecord{}, fmt.Errorf("arrival: %w", err)
	}
	departure, err := parseDateTime(row.PreferredDepartureDate, row.DepartureTime, loc)
	if err != nil {
		return domain.TravelRecord{}, fmt.Errorf("departure: %w", err)
	}
	if arrival != nil && departure != nil && departure.Before(*arrival) {
		return domain.TravelRecord{}, errors.New("departure is before arrival")
	}

	rec := domain.TravelRecord{
		ArrivalMode:         mode,
		DepartureMode:       mode,
		ScheduledArrival:    arrival,
		ScheduledDeparture:  departure,
		Origin:              strings.TrimSpace(row.OriginAirport),
		Destination:         strings.TrimSpace(row.DestinationAirport),
		FlightNumber:        strings.TrimSpace(row.FlightNumber),
		Airline:             strings.TrimSpace(row.Airline),
		Status:              domain.TravelStatusConfirmed,
		NeedsTransportation: true,
	}
	if found {
		rec.DepartureMode = existing.DepartureMode
		rec.DelayMinutes = existing.DelayMinutes
		rec.NeedsTransportation = existing.NeedsTransportation
	}

	if d := strings.TrimSpace(row.ActualArrivalDate); d != "" {
		day, err := time.ParseInLocation(manifestDate, d, loc)
		if err != nil {
			return domain.TravelRecord{}, fmt.Errorf("actual arrival date %q: %w", d, err)
		}
		// The manifest only carries the day; keep a known time on that day.
		if found && existing.ActualArrival != nil && sameDay(*existing.ActualArrival, day, loc) {
			rec.ActualArrival = existing.ActualArrival
		} else {
			actual, err := parseDateTime(d, row.ArrivalTime, loc)
			if err != nil {
				return domain.TravelRecord{}, fmt.Errorf("actual arrival: %w", err)
			}
			rec.ActualArrival = actual
		}
	}
	return rec, nil
}

// parseDateTime combines a manifest date and optional time. Both empty means
// unknown. A time without a date is rejected.
func parseDateTime(date, clock string, loc *time.Location) (*time.Time, error) {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	switch {
	case date == "" && clock == "":
		return nil, nil
	case date == "":
		return nil, fmt.Errorf("time %q given without a date", clock)
	case clock == "":
		t, err := time.ParseInLocation(manifestDate, date, loc)
		if err != nil {
			return nil, fmt.Errorf("date %q: %w", date, err)
		}
		return &t, nil
	}
	t, err := time.ParseInLocation(manifestDate+" "+manifestTime, date+" "+clock, loc)
	if err != nil {
		return nil, fmt.Errorf("date/time %q %q: %w", date, clock, err)
	}
	return &t, nil
}

func formatDateTime(t *time.Time, loc *time.Location) (date, clock string) {
	if t == nil {
		return "", ""
	}
	local := t.In(loc)
	return local.Format(manifestDate), local.Format(manifestTime)
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// ReportDelay records a late arrival for a guest. When actual is nil the
// actual arrival is the scheduled arrival plus the delay. Groups are not
// moved; the coordinator regenerates when ready.
func (s *CoordinationService) ReportDelay(ctx context.Context, eventID, guestID uuid.UUID, delayMinutes int, actual *time.Time) (domain.TravelRecord, error) {
	if delayMinutes < 0 {
		return domain.TravelRecord{}, fmt.Errorf("service.CoordinationService.ReportDelay: %w", validationf("delay_minutes must not be negative"))
	}
	rec, err := s.travel.GetByGuest(ctx, eventID, guestID)
	if err != nil {
		return domain.TravelRecord{}, fmt.Errorf("service.CoordinationService.ReportDelay: %w", err)
	}
	if actual == nil {
		if rec.ScheduledArrival == nil {
			return domain.TravelRecord{}, fmt.Errorf("service.CoordinationService.ReportDelay: %w",
				validationf("actual_arrival is required when no arrival is scheduled"))
		}
		t := rec.ScheduledArrival.Add(time.Duration(delayMinutes) * time.Minute)
		actual = &t
	}
	out, err := s.travel.UpdateDelay(ctx, eventID, guestID, delayMinutes, actual)
	if err != nil {
		return domain.TravelRecord{}, fmt.Errorf("service.CoordinationService.ReportDelay: %w", err)
	}
	s.log.InfoContext(ctx, "delay reported", "event_id", eventID, "guest_id", guestID, "delay_minutes", delayMinutes)
	return out, nil
}

// load returns the guests needing assistance and their travel records by guest.
func (s *CoordinationService) load(ctx context.Context, eventID uuid.UUID) ([]domain.Guest, map[uuid.UUID]domain.TravelRecord, error) {
	guests, err := s.guests.ListNeedingAssistance(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	records, err := s.travel.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	byGuest := make(map[uuid.UUID]domain.TravelRecord, len(records))
	for _, r := range records {
		byGuest[r.GuestID] = r
	}
	return guests, byGuest, nil
}
