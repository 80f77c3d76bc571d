package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"wedding-rsvp/internal/reservation"
)

var Header = []string{
	"Control Number", "Reservation Number", "Max Guests", "Actual Guests", "Status",
	"Submitted Date", "Guest #", "Primary", "Full Name", "Age", "Email", "Address",
}

const dateLayout = "2006-01-02"

// Filename is the attachment name for an export taken at now.
func Filename(now time.Time) string {
	return "wedding_reservations_" + now.Format(dateLayout) + ".csv"
}

// WriteCSV writes the header and one record per row.
func WriteCSV(w io.Writer, rows []reservation.GuestRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(record(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func record(row reservation.GuestRow) []string {
	submitted := "N/A"
	if row.SubmittedAt != nil {
		submitted = row.SubmittedAt.UTC().Format(dateLayout)
	}
	rec := []string{
		row.ControlNumber,
		row.ReservationNumber,
		strconv.Itoa(row.MaxGuests),
		strconv.Itoa(row.Guests),
		row.Status,
		submitted,
		"", "", "", "", "", "",
	}
	if g := row.Guest; g != nil {
		rec[6] = strconv.Itoa(row.Index)
		rec[7] = "No"
		if row.Primary {
			rec[7] = "Yes"
		}
		rec[8] = g.FullName
		if g.Age != nil {
			rec[9] = strconv.Itoa(*g.Age)
		}
		rec[10] = g.Email
		rec[11] = g.Address
	}
	return rec
}
