package services

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/br"
)

// HolidayService answers whether a day is a Brazilian national holiday.
// Crews still submit on holidays; the flag only annotates the inbox summary.
type HolidayService struct {
	calendar *cal.BusinessCalendar
}

func NewHolidayService() *HolidayService {
	c := cal.NewBusinessCalendar()
	c.Name = "Brazil"
	c.AddHoliday(br.Holidays...)
	return &HolidayService{calendar: c}
}

// Holiday returns the holiday name for t, or "" on a regular day.
func (s *HolidayService) Holiday(t time.Time) string {
	actual, observed, h := s.calendar.IsHoliday(t)
	if (actual || observed) && h != nil {
		return h.Name
	}
	return ""
}

func (s *HolidayService) IsHoliday(t time.Time) bool {
	return s.Holiday(t) != ""
}

func (s *HolidayService) IsWorkday(t time.Time) bool {
	return s.calendar.IsWorkday(t)
}
