// export.go implements the flight manifest round trip with
// the travel agent: POST /events/{id}/export-flight-list and
// POST /events/{id}/import-flight-details.
// Export supports content negotiation via ?format=csv (CSV) or default (JSON);
// import accepts the same two encodings, chosen by Content-Type.

package handler

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/pkordes/wedding-transport/internal/domain"
)

// ManifestRow is the JSON form of domain.ManifestRow. Dates are YYYY-MM-DD
// and times HH:MM in the event's time zone.
type ManifestRow struct {
	GuestName               string `json:"guestName"`
	Email                   string `json:"email"`
	Phone                   string `json:"phone"`
	TravelMode              string `json:"travelMode"`
	PreferredArrivalDate    string `json:"preferredArrivalDate"`
	PreferredDepartureDate  string `json:"preferredDepartureDate"`
	ActualArrivalDate       string `json:"actualArrivalDate"`
	AccommodationPreference string `json:"accommodationPreference"`
	DietaryRestrictions     string `json:"dietaryRestrictions"`
	SpecialRequests         string `json:"specialRequests"`
	FlightNumber            string `json:"flightNumber"`
	ArrivalTime             string `json:"arrivalTime"`
	DepartureTime           string `json:"departureTime"`
	OriginAirport           string `json:"originAirport"`
	DestinationAirport      string `json:"destinationAirport"`
	Airline                 string `json:"airline"`
}

// ImportSkip reports one row that was not applied.
type ImportSkip struct {
	Row    int    `json:"row"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Reason string `json:"reason"`
}

// ImportResponse is the body of a successful import.
type ImportResponse struct {
	UpdatedCount   int          `json:"updatedCount"`
	CreatedCount   int          `json:"createdCount"`
	UnchangedCount int          `json:"unchangedCount"`
	SkippedCount   int          `json:"skippedCount"`
	Skipped        []ImportSkip `json:"skipped"`
}

// csvHeaders defines the column names written as the first row of any CSV
// export. Import reads columns by these names, in any order.
var csvHeaders = []string{
	"guestName", "email", "phone", "travelMode",
	"preferredArrivalDate", "preferredDepartureDate", "actualArrivalDate",
	"accommodationPreference", "dietaryRestrictions", "specialRequests",
	"flightNumber", "arrivalTime", "departureTime",
	"originAirport", "destinationAirport", "airline",
}

// ExportFlightList handles POST /events/{id}/export-flight-list.
// It returns one row per guest needing flight assistance and marks the list
// as exported. Use ?format=csv to receive CSV; default is JSON.
func (s *Server) ExportFlightList(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "id")
	if !ok {
		return
	}
	var format *string
	if err := queryParam(r, "format", &format); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	wantCSV := format != nil && *format == "csv"
	if format != nil && !wantCSV && *format != "json" {
		writeJSON(w, http.StatusBadRequest, requestBody("format must be json or csv"))
		return
	}

	rows, err := s.coordination.Export(r.Context(), ids[0])
	if err != nil {
		s.writeError(w, r, "event", err)
		return
	}

	if wantCSV {
		buf := buildCSV(rows)
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="flight-list.csv"`)
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		//nolint:errcheck
		buf.WriteTo(w)
		return
	}
	out := make([]ManifestRow, len(rows))
	for i, row := range rows {
		out[i] = ManifestRow(row)
	}
	writeJSON(w, http.StatusOK, out)
}

// ImportFlightDetails handles POST /events/{id}/import-flight-details.
// The body is a JSON array of manifest rows, or CSV with a header row when
// sent as text/csv. Bad rows are reported, never fatal.
func (s *Server) ImportFlightDetails(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "id")
	if !ok {
		return
	}

	var rows []domain.ManifestRow
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "text/csv" {
		parsed, err := parseCSV(r.Body)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: ErrorDetail{Code: "payload_too_large", Message: err.Error()}})
				return
			}
			writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
			return
		}
		rows = parsed
	} else {
		var body []ManifestRow
		if !decodeBody(w, r, &body) {
			return
		}
		rows = make([]domain.ManifestRow, len(body))
		for i, row := range body {
			rows[i] = domain.ManifestRow(row)
		}
	}

	res, err := s.coordination.Import(r.Context(), ids[0], rows)
	if err != nil {
		s.writeError(w, r, "event", err)
		return
	}
	skipped := make([]ImportSkip, len(res.Skipped))
	for i, sk := range res.Skipped {
		skipped[i] = ImportSkip(sk)
	}
	writeJSON(w, http.StatusOK, ImportResponse{
		UpdatedCount:   res.UpdatedCount,
		CreatedCount:   res.CreatedCount,
		UnchangedCount: res.UnchangedCount,
		SkippedCount:   len(skipped),
		Skipped:        skipped,
	})
}

// buildCSV encodes manifest rows as CSV with the header first.
func buildCSV(rows []domain.ManifestRow) *bytes.Buffer {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	w.Write(csvHeaders)
	for _, r := range rows {
		//nolint:errcheck
		w.Write(rowToCSVRecord(r))
	}
	w.Flush()
	return &buf
}

func rowToCSVRecord(r domain.ManifestRow) []string {
	return []string{
		r.GuestName, r.Email, r.Phone, r.TravelMode,
		r.PreferredArrivalDate, r.PreferredDepartureDate, r.ActualArrivalDate,
		r.AccommodationPreference, r.DietaryRestrictions, r.SpecialRequests,
		r.FlightNumber, r.ArrivalTime, r.DepartureTime,
		r.OriginAirport, r.DestinationAirport, r.Airline,
	}
}

// parseCSV reads a manifest CSV. The header row names the columns; unknown
// columns are ignored and missing ones read as empty.
func parseCSV(body io.Reader) ([]domain.ManifestRow, error) {
	cr := csv.NewReader(body)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv body is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}

	var rows []domain.ManifestRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		get := func(name string) string {
			if i, ok := col[name]; ok && i < len(rec) {
				return rec[i]
			}
			return ""
		}
		rows = append(rows, domain.ManifestRow{
			GuestName:               get("guestName"),
			Email:                   get("email"),
			Phone:                   get("phone"),
			TravelMode:              get("travelMode"),
			PreferredArrivalDate:    get("preferredArrivalDate"),
			PreferredDepartureDate:  get("preferredDepartureDate"),
			ActualArrivalDate:       get("actualArrivalDate"),
			AccommodationPreference: get("accommodationPreference"),
			DietaryRestrictions:     get("dietaryRestrictions"),
			SpecialRequests:         get("specialRequests"),
			FlightNumber:            get("flightNumber"),
			ArrivalTime:             get("arrivalTime"),
			DepartureTime:           get("departureTime"),
			OriginAirport:           get("originAirport"),
			DestinationAirport:      get("destinationAirport"),
			Airline:                 get("airline"),
		})
	}
}
