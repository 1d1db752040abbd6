package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SortField string

const (
	SortByDate      SortField = "date"
	SortByEventName SortField = "eventName"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type EventFilter struct {
	Page           int
	PageSize       int
	StartDate      time.Time
	EndDate        *time.Time
	LocationID     *uuid.UUID
	CategoryTypeID *uuid.UUID
	SortBy         SortField
	SortOrder      SortOrder
}

// Normalize fills defaults and rejects unknown sort keys. Events that have
// already started are never listed, so StartDate is raised to now.
func (f EventFilter) Normalize(now time.Time) (EventFilter, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	if f.StartDate.Before(now) {
		f.StartDate = now
	}
	if f.EndDate != nil && f.EndDate.Before(f.StartDate) {
		return f, fmt.Errorf("%w: end date before start date", ErrInvalidFilter)
	}

	switch f.SortBy {
	case "":
		f.SortBy = SortByDate
	case SortByDate, SortByEventName:
	default:
		return f, fmt.Errorf("%w: unknown sort field %q", ErrInvalidFilter, f.SortBy)
	}

	switch f.SortOrder {
	case "":
		f.SortOrder = SortAsc
	case SortAsc, SortDesc:
	default:
		return f, fmt.Errorf("%w: unknown sort order %q", ErrInvalidFilter, f.SortOrder)
	}
	return f, nil
}

func (f EventFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}
