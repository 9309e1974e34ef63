package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Monthly    Frequency = 1
	Quarterly  Frequency = 3
	Semiannual Frequency = 6
	Annual     Frequency = 12
)

const (
	CategoryHouse        Category = "house"
	CategoryMedia        Category = "media"
	CategorySubscription Category = "subscription"
	CategoryCredit       Category = "credit"
	CategoryOther        Category = "other"
)

type (
	// Frequency is the number of months between two occurrences of a
	// recurring bill.
	Frequency int

	// Category classifies a bill into one of a fixed closed set.
	Category string

	// Bill is a single payment obligation. ID is assigned by the store on
	// insert and is empty for a bill that has not been persisted yet.
	// SeriesID ties together all occurrences generated from one recurring
	// template; it is empty for one-off bills and for recurring bills
	// created before series tracking existed.
	Bill struct {
		ID        string          `json:"id,omitempty"`
		Name      string          `json:"name"`
		Amount    decimal.Decimal `json:"amount"`
		DueDate   Date            `json:"dueDate"`
		Paid      bool            `json:"isPaid"`
		Recurring bool            `json:"isRecurring"`
		Frequency Frequency       `json:"frequency,omitempty"`
		Category  Category        `json:"category"`
		SeriesID  string          `json:"seriesId,omitempty"`
	}
)

var (
	ErrEmptyName        = errors.New("empty bill name")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid due date")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrOrphanSeries     = errors.New("series id set on non-recurring bill")

	// Failure taxonomy surfaced by the reconciliation and storage layers.
	ErrMissingConfiguration = errors.New("remote store not configured")
	ErrNetworkFailure       = errors.New("remote store unreachable")
	ErrRemoteOperation      = errors.New("remote operation failed")
	ErrDuplicateBill        = errors.New("duplicate bill for name and month")
	ErrNotFound             = errors.New("bill not found")
)

// Frequencies lists the valid frequencies in ascending order.
func Frequencies() []Frequency {
	return []Frequency{Monthly, Quarterly, Semiannual, Annual}
}

func (f Frequency) IsValid() bool {
	switch f {
	case Monthly, Quarterly, Semiannual, Annual:
		return true
	default:
		return false
	}
}

// Months returns the month step between occurrences.
func (f Frequency) Months() int {
	return int(f)
}

func (f Frequency) String() string {
	switch f {
	case Monthly:
		return "monthly"
	case Quarterly:
		return "quarterly"
	case Semiannual:
		return "semiannual"
	case Annual:
		return "annual"
	default:
		return "invalid"
	}
}

// ParseFrequency validates a months-between-occurrences value.
func ParseFrequency(months int) (Frequency, error) {
	f := Frequency(months)
	if !f.IsValid() {
		return 0, ErrInvalidFrequency
	}
	return f, nil
}

// Categories lists the closed category set.
func Categories() []Category {
	return []Category{CategoryHouse, CategoryMedia, CategorySubscription, CategoryCredit, CategoryOther}
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryHouse, CategoryMedia, CategorySubscription, CategoryCredit, CategoryOther:
		return true
	default:
		return false
	}
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory normalizes and validates a category label.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

func (b Bill) Validate() error {
	if len(strings.TrimSpace(b.Name)) == 0 {
		return ErrEmptyName
	}
	if len(b.Name) > 200 {
		return errors.New("bill name too long (max 200 characters)")
	}
	if b.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if err := b.DueDate.Validate(); err != nil {
		return err
	}
	if !b.Category.IsValid() {
		return ErrInvalidCategory
	}
	if b.Recurring && !b.Frequency.IsValid() {
		return ErrInvalidFrequency
	}
	if b.SeriesID != "" && !b.Recurring {
		return ErrOrphanSeries
	}
	return nil
}

// SameName reports whether two bills carry the same display label, compared
// case-insensitively after trimming. This is the name half of both the
// duplicate guard and the legacy series-membership heuristic.
func (b Bill) SameName(other Bill) bool {
	return strings.EqualFold(strings.TrimSpace(b.Name), strings.TrimSpace(other.Name))
}

// ConflictsWith reports whether other occupies the same (name, month, year)
// slot as b. A bill never conflicts with itself.
func (b Bill) ConflictsWith(other Bill) bool {
	if b.ID != "" && b.ID == other.ID {
		return false
	}
	return b.SameName(other) &&
		b.DueDate.Month() == other.DueDate.Month() &&
		b.DueDate.Year() == other.DueDate.Year()
}
