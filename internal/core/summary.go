package core

import (
	"fmt"
	"time"
)

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// YearMonthOf returns the month t falls in, evaluated in loc.
func YearMonthOf(t time.Time, loc *time.Location) YearMonth {
	if loc != nil {
		t = t.In(loc)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Page is one page of a transaction listing plus the total match count.
type Page struct {
	Data  []Transaction `json:"data"`
	Total int           `json:"total"`
}
