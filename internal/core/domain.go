package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	StatusPaid    Status = "paid"
	StatusPartial Status = "partial"
	StatusUnpaid  Status = "unpaid"
)

const (
	FieldName    ProfileField = "name"
	FieldPhone   ProfileField = "phone"
	FieldAddress ProfileField = "address"
)

const dateLayout = "2006-01-02"

type (
	Status string

	ProfileField string

	Date struct {
		time.Time
	}

	Member struct {
		ID      int
		Name    string
		Phone   string
		Address string
	}

	// PaymentRecord is one cell of the ledger grid.
	PaymentRecord struct {
		Month       int
		MemberID    int
		Status      Status
		Amount      int64
		PaymentDate Date // zero until a payment is recorded
		DueDate     Date
	}

	// Settings fixes the shape of a chit: who pays, for how long and how much.
	Settings struct {
		NumMembers    int
		NumMonths     int
		MonthlyAmount int64
		StartYear     int
		StartMonth    int // 1-12, calendar month of ledger month 1
		StrictPartial bool
	}
)

// ErrInvalidArgument is the only error the ledger core returns.
var ErrInvalidArgument = errors.New("invalid argument")

// DefaultSettings returns the 25 member, 26 month, 6000 per month chit.
func DefaultSettings() Settings {
	return Settings{
		NumMembers:    25,
		NumMonths:     26,
		MonthlyAmount: 6000,
		StartYear:     2024,
		StartMonth:    1,
	}
}

func (s Settings) Validate() error {
	if s.NumMembers < 1 {
		return fmt.Errorf("member count %d: %w", s.NumMembers, ErrInvalidArgument)
	}
	if s.NumMonths < 1 {
		return fmt.Errorf("month count %d: %w", s.NumMonths, ErrInvalidArgument)
	}
	if s.MonthlyAmount <= 0 {
		return fmt.Errorf("monthly amount %d: %w", s.MonthlyAmount, ErrInvalidArgument)
	}
	if s.StartMonth < 1 || s.StartMonth > 12 {
		return fmt.Errorf("start month %d: %w", s.StartMonth, ErrInvalidArgument)
	}
	if s.StartYear < 1 {
		return fmt.Errorf("start year %d: %w", s.StartYear, ErrInvalidArgument)
	}
	return nil
}

// DueDate maps a ledger month onto the calendar: month 1 is StartYear/StartMonth
// and every following month advances one calendar month.
func (s Settings) DueDate(month int) Date {
	return NewDate(s.StartYear, s.StartMonth+month-1, 1)
}

// MonthAt returns the ledger month whose calendar month contains t, clamped
// to 1..NumMonths.
func (s Settings) MonthAt(t time.Time) int {
	month := (t.Year()-s.StartYear)*12 + int(t.Month()) - s.StartMonth + 1
	return min(max(month, 1), s.NumMonths)
}

// TotalFund is the full value of the chit over its horizon.
func (s Settings) TotalFund() int64 {
	return int64(s.NumMembers) * int64(s.NumMonths) * s.MonthlyAmount
}

// MonthlyExpected is what the whole group owes in a single month.
func (s Settings) MonthlyExpected() int64 {
	return int64(s.NumMembers) * s.MonthlyAmount
}

func (s Settings) checkMonth(month int) error {
	if month < 1 || month > s.NumMonths {
		return fmt.Errorf("month %d out of range 1..%d: %w", month, s.NumMonths, ErrInvalidArgument)
	}
	return nil
}

func (s Settings) checkMember(memberID int) error {
	if memberID < 1 || memberID > s.NumMembers {
		return fmt.Errorf("member %d out of range 1..%d: %w", memberID, s.NumMembers, ErrInvalidArgument)
	}
	return nil
}

// ParseStatus accepts the three status names, case-insensitively.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("status %q: %w", s, ErrInvalidArgument)
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPaid, StatusPartial, StatusUnpaid:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}

// ParseProfileField accepts name, phone or address.
func ParseProfileField(s string) (ProfileField, error) {
	f := ProfileField(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FieldName, FieldPhone, FieldAddress:
		return f, nil
	default:
		return "", fmt.Errorf("profile field %q: %w", s, ErrInvalidArgument)
	}
}

// NewDate creates a new Date from year, month, day. Out of range months roll
// over the way time.Date does.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses YYYY-MM-DD. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("date %q: %w", s, ErrInvalidArgument)
	}
	return Date{Time: t}, nil
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String formats the date as YYYY-MM-DD, or "" when empty.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// Set replaces one profile field.
func (m *Member) Set(field ProfileField, value string) {
	switch field {
	case FieldName:
		m.Name = value
	case FieldPhone:
		m.Phone = value
	case FieldAddress:
		m.Address = value
	}
}

// Get reads one profile field.
func (m Member) Get(field ProfileField) string {
	switch field {
	case FieldName:
		return m.Name
	case FieldPhone:
		return m.Phone
	case FieldAddress:
		return m.Address
	}
	return ""
}

func placeholderMember(id int) Member {
	return Member{
		ID:      id,
		Name:    fmt.Sprintf("Member %d", id),
		Phone:   fmt.Sprintf("98765432%02d", id),
		Address: fmt.Sprintf("Address %d, Kanayannur, Kerala", id),
	}
}
