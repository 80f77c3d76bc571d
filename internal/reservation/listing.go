package reservation

import (
	"context"
	"sort"
	"strings"
	"time"

	"wedding-rsvp/internal/models"
)

const (
	StatusSubmitted = "submitted"
	StatusConfirmed = "confirmed"
	StatusPending   = "pending"

	SortControlNumber = "control_number"
	SortGuests        = "guests"
	SortDate          = "date"
)

type GuestFilter struct {
	Status string
	Search string
	Sort   string
	Desc   bool
	Page   int
	Limit  int
}

// GuestRecord is one control number lifted out of its reservation.
type GuestRecord struct {
	ID                 string                              `json:"_id"`
	ControlNumber      map[string]models.ControlNumberData `json:"control_number"`
	Submitted          bool                                `json:"submitted"`
	ExpirationNumber   *time.Time                          `json:"expiration_number"`
	DistributionNumber *time.Time                          `json:"distribution_number"`
	CreatedAt          time.Time                           `json:"createdAt"`
	UpdatedAt          time.Time                           `json:"updatedAt"`

	cn   string
	data models.ControlNumberData
}

func (g GuestRecord) Key() string                    { return g.cn }
func (g GuestRecord) Data() models.ControlNumberData { return g.data }

// ListGuests flattens every reservation into one record per control number,
// filters and sorts in memory, and returns the requested page with the
// total number of matches.
func (s *Service) ListGuests(ctx context.Context, f GuestFilter) ([]GuestRecord, int, error) {
	all, err := s.Store.List(ctx)
	if err != nil {
		return nil, 0, err
	}

	records := make([]GuestRecord, 0, len(all))
	for _, res := range all {
		for cn, data := range res.ControlNumber {
			if !matchesStatus(data, f.Status) || !matchesSearch(cn, data, f.Search) {
				continue
			}
			if data.GuestInfo == nil {
				data.GuestInfo = []models.GuestInfo{}
			}
			records = append(records, GuestRecord{
				ID:                 res.ID,
				ControlNumber:      map[string]models.ControlNumberData{cn: data},
				Submitted:          res.Submitted,
				ExpirationNumber:   res.ExpirationNumber,
				DistributionNumber: res.DistributionNumber,
				CreatedAt:          res.CreatedAt,
				UpdatedAt:          res.UpdatedAt,
				cn:                 cn,
				data:               data,
			})
		}
	}

	sortRecords(records, f.Sort, f.Desc)

	total := len(records)
	return paginate(records, f.Page, f.Limit), total, nil
}

func matchesStatus(data models.ControlNumberData, status string) bool {
	switch strings.ToLower(status) {
	case StatusSubmitted, StatusConfirmed:
		return data.Submitted
	case StatusPending:
		return !data.Submitted
	default:
		return true
	}
}

func matchesSearch(cn string, data models.ControlNumberData, search string) bool {
	term := strings.ToLower(strings.TrimSpace(search))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(cn), term) {
		return true
	}
	for _, g := range data.GuestInfo {
		if strings.Contains(strings.ToLower(g.FullName), term) ||
			strings.Contains(strings.ToLower(g.Email), term) {
			return true
		}
	}
	return false
}

func sortRecords(records []GuestRecord, by string, desc bool) {
	less := func(a, b GuestRecord) bool {
		switch by {
		case SortGuests:
			if a.data.Guests != b.data.Guests {
				return a.data.Guests < b.data.Guests
			}
		case SortDate:
			at, bt := submittedTime(a), submittedTime(b)
			if !at.Equal(bt) {
				return at.Before(bt)
			}
		}
		return a.cn < b.cn
	}
	sort.SliceStable(records, func(i, j int) bool {
		if desc {
			return less(records[j], records[i])
		}
		return less(records[i], records[j])
	})
}

// submittedTime orders unsubmitted slots by their reservation's creation.
func submittedTime(r GuestRecord) time.Time {
	if r.data.SubmittedAt != nil {
		return *r.data.SubmittedAt
	}
	return r.CreatedAt
}

func paginate(records []GuestRecord, page, limit int) []GuestRecord {
	if limit <= 0 {
		return records
	}
	if page < 1 {
		page = 1
	}
	// Compare page counts before multiplying so huge pages cannot overflow.
	pages := len(records) / limit
	if len(records)%limit != 0 {
		pages++
	}
	if page > pages {
		return []GuestRecord{}
	}
	start := (page - 1) * limit
	end := start + limit
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}

// GuestRow is one line of the export: a guest of a control number, or the
// control number alone when nobody has been registered yet.
type GuestRow struct {
	ControlNumber     string
	ReservationNumber string
	MaxGuests         int
	Guests            int
	Status            string
	SubmittedAt       *time.Time
	Index             int
	Primary           bool
	Guest             *models.GuestInfo
}

func (s *Service) GuestRows(ctx context.Context, f GuestFilter) ([]GuestRow, error) {
	f.Page, f.Limit = 0, 0
	records, _, err := s.ListGuests(ctx, f)
	if err != nil {
		return nil, err
	}

	var rows []GuestRow
	for _, rec := range records {
		data := rec.data
		base := GuestRow{
			ControlNumber:     rec.cn,
			ReservationNumber: data.ReservationNumber,
			MaxGuests:         data.MaxGuests,
			Guests:            data.Guests,
			Status:            data.Status(),
			SubmittedAt:       data.SubmittedAt,
		}
		if len(data.GuestInfo) == 0 {
			rows = append(rows, base)
			continue
		}
		for i := range data.GuestInfo {
			row := base
			row.Index = i + 1
			row.Primary = i == 0
			row.Guest = &data.GuestInfo[i]
			rows = append(rows, row)
		}
	}
	return rows, nil
}
