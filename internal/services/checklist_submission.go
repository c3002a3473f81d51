package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samuq/backend/internal/models"
	"github.com/samuq/backend/internal/services/checklist"
	"github.com/samuq/backend/internal/utils"
	"gorm.io/gorm"
)

// Checklist intake limits, in characters.
const (
	maxDoctorNameLength = 120
	maxUnitLength       = 120
	maxChecklistLength  = 50000
	maxUserAgentLength  = 300

	dailySummaryDays  = 14
	missingPreviewLen = 6
	obsPreviewLen     = 4
)

const DateLayout = "2006-01-02"

type ChecklistService struct {
	db       *gorm.DB
	roster   *checklist.Roster
	parser   *checklist.Parser
	holidays *HolidayService
	loc      *time.Location
	now      func() time.Time
}

func NewChecklistService(db *gorm.DB, roster *checklist.Roster, parser *checklist.Parser, holidays *HolidayService, loc *time.Location) *ChecklistService {
	if loc == nil {
		loc = time.Local
	}
	return &ChecklistService{db: db, roster: roster, parser: parser, holidays: holidays, loc: loc, now: time.Now}
}

type SubmitChecklistRequest struct {
	DoctorName string `json:"doctor_name"`
	Unit       string `json:"unit"`
	Text       string `json:"text"`
}

// Submit validates and stores a checklist. Nothing is written when validation fails.
func (s *ChecklistService) Submit(ctx context.Context, req *SubmitChecklistRequest, ip, userAgent string) (*models.ChecklistSubmission, error) {
	doctor := strings.TrimSpace(req.DoctorName)
	unit := strings.TrimSpace(req.Unit)
	text := strings.TrimSpace(req.Text)

	switch {
	case doctor == "":
		return nil, validationError("Nome do médico é obrigatório.")
	case unit == "":
		return nil, validationError("Unidade é obrigatória.")
	case text == "":
		return nil, validationError("Texto do checklist é obrigatório.")
	case utf8.RuneCountInString(doctor) > maxDoctorNameLength:
		return nil, validationError("Nome do médico muito longo.")
	case utf8.RuneCountInString(unit) > maxUnitLength:
		return nil, validationError("Unidade muito longa.")
	case utf8.RuneCountInString(text) > maxChecklistLength:
		return nil, validationError("Texto muito longo.")
	}

	submission := &models.ChecklistSubmission{
		DoctorName: doctor,
		Unit:       unit,
		Text:       text,
		CreatedAt:  s.now().UTC(),
		IPHash:     utils.HashIP(ip),
		UserAgent:  utils.Truncate(userAgent, maxUserAgentLength),
	}
	if err := s.db.WithContext(ctx).Create(submission).Error; err != nil {
		return nil, persistenceError("failed to save checklist", err)
	}
	return submission, nil
}

func (s *ChecklistService) GetByID(ctx context.Context, id uint) (*models.ChecklistSubmission, error) {
	var submission models.ChecklistSubmission
	if err := s.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("checklist not found")
		}
		return nil, persistenceError("failed to load checklist", err)
	}
	return &submission, nil
}

type ChecklistDetail struct {
	Submission   *models.ChecklistSubmission `json:"submission"`
	Unit         string                      `json:"unit"`
	InRoster     bool                        `json:"in_roster"`
	Missing      []string                    `json:"missing"`
	Observations []string                    `json:"observations"`
}

// Detail returns a submission with its flagged lines as written by the crew.
func (s *ChecklistService) Detail(ctx context.Context, id uint) (*ChecklistDetail, error) {
	sub, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	unit := checklist.NormalizeUnit(sub.Unit)
	missing, obs := s.parser.Extract(sub.Text, false)
	return &ChecklistDetail{
		Submission:   sub,
		Unit:         unit,
		InRoster:     s.roster.Contains(unit),
		Missing:      missing,
		Observations: obs,
	}, nil
}

// Today returns the current calendar day in the service time zone.
func (s *ChecklistService) Today() time.Time {
	return startOfDay(s.now(), s.loc)
}

// ParseDay reads a YYYY-MM-DD date in the configured zone.
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, validationError("Data inválida (use AAAA-MM-DD).")
	}
	return day, nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// dayBounds returns the UTC instants delimiting day in loc.
func dayBounds(day time.Time, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

// submissionsForDay loads the submissions of a local day, newest first (created_at, then id).
func submissionsForDay(ctx context.Context, db *gorm.DB, day time.Time, loc *time.Location) ([]models.ChecklistSubmission, error) {
	from, to := dayBounds(day, loc)
	var subs []models.ChecklistSubmission
	if err := db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at DESC, id DESC").
		Find(&subs).Error; err != nil {
		return nil, persistenceError("failed to load checklists", err)
	}
	sortNewestFirst(subs)
	return subs, nil
}

func sortNewestFirst(subs []models.ChecklistSubmission) {
	sort.SliceStable(subs, func(i, j int) bool {
		if !subs[i].CreatedAt.Equal(subs[j].CreatedAt) {
			return subs[i].CreatedAt.After(subs[j].CreatedAt)
		}
		return subs[i].ID > subs[j].ID
	})
}

// latestByUnit keeps the first submission seen per roster unit; subs must be newest first.
func latestByUnit(subs []models.ChecklistSubmission, roster *checklist.Roster) map[string]*models.ChecklistSubmission {
	latest := map[string]*models.ChecklistSubmission{}
	for i := range subs {
		unit := checklist.NormalizeUnit(subs[i].Unit)
		if !roster.Contains(unit) {
			continue
		}
		if _, ok := latest[unit]; !ok {
			latest[unit] = &subs[i]
		}
	}
	return latest
}

type ChecklistInboxRequest struct {
	Date     string `form:"date"`
	Query    string `form:"q"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

type DailySummary struct {
	Date         string   `json:"date"`
	Count        int      `json:"count"`
	Missing      []string `json:"missing"`
	MissingCount int      `json:"missing_count"`
	Holiday      string   `json:"holiday,omitempty"`
}

type UnitSummary struct {
	Unit           string     `json:"unit"`
	HasSubmission  bool       `json:"has_submission"`
	SubmissionID   *uint      `json:"submission_id"`
	DoctorName     string     `json:"doctor_name,omitempty"`
	CreatedAt      *time.Time `json:"created_at"`
	MissingCount   *int       `json:"missing_count"`
	ObsCount       *int       `json:"obs_count"`
	MissingPreview []string   `json:"missing_preview"`
	ObsPreview     []string   `json:"obs_preview"`
	DetailURL      string     `json:"detail_url,omitempty"`
}

type ChecklistInbox struct {
	Date          string                       `json:"date"`
	Query         string                       `json:"q"`
	Total         int64                        `json:"total"`
	Page          int                          `json:"page"`
	PageSize      int                          `json:"page_size"`
	Items         []models.ChecklistSubmission `json:"items"`
	ExpectedUnits []string                     `json:"expected_units"`
	PresentUnits  []string                     `json:"present_units"`
	MissingUnits  []string                     `json:"missing_units"`
	DailySummary  []DailySummary               `json:"daily_summary"`
	UnitSummaries []UnitSummary                `json:"unit_summaries"`
}

// Inbox assembles the staff view of one day: the filtered page of submissions, which roster
// units reported, a 14 day history and the flagged items of each unit's latest checklist.
func (s *ChecklistService) Inbox(ctx context.Context, req *ChecklistInboxRequest) (*ChecklistInbox, error) {
	day := s.Today()
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := ParseDay(req.Date, s.loc)
		if err != nil {
			return nil, err
		}
		day = parsed
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 20
	}
	query := strings.TrimSpace(req.Query)

	from, to := dayBounds(day, s.loc)
	base := s.db.WithContext(ctx).Model(&models.ChecklistSubmission{}).
		Where("created_at >= ? AND created_at < ?", from, to)
	if query != "" {
		like := "%" + query + "%"
		base = base.Where("doctor_name LIKE ? OR unit LIKE ? OR text LIKE ?", like, like, like)
	}
	db := base.Session(&gorm.Session{})

	inbox := &ChecklistInbox{
		Date:          day.Format(DateLayout),
		Query:         query,
		Page:          req.Page,
		PageSize:      req.PageSize,
		Items:         []models.ChecklistSubmission{},
		ExpectedUnits: s.displayUnits(s.roster.Units()),
	}
	if err := db.Count(&inbox.Total).Error; err != nil {
		return nil, persistenceError("failed to count checklists", err)
	}
	if err := db.Order("created_at DESC, id DESC").
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&inbox.Items).Error; err != nil {
		return nil, persistenceError("failed to list checklists", err)
	}

	// Present units follow the search filter, like the listing.
	var filteredUnits []string
	if err := db.Distinct("unit").Pluck("unit", &filteredUnits).Error; err != nil {
		return nil, persistenceError("failed to list checklist units", err)
	}
	present := map[string]bool{}
	for _, u := range filteredUnits {
		present[checklist.NormalizeUnit(u)] = true
	}
	inbox.PresentUnits, inbox.MissingUnits = s.splitRoster(present)

	summary, err := s.dailySummary(ctx, day)
	if err != nil {
		return nil, err
	}
	inbox.DailySummary = summary

	subs, err := submissionsForDay(ctx, s.db, day, s.loc)
	if err != nil {
		return nil, err
	}
	inbox.UnitSummaries = s.unitSummaries(latestByUnit(subs, s.roster))
	return inbox, nil
}

func (s *ChecklistService) displayUnits(units []string) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = s.roster.Display(u)
	}
	return out
}

// splitRoster partitions the roster into units present in the set and the rest, in roster order.
func (s *ChecklistService) splitRoster(present map[string]bool) (have, missing []string) {
	have, missing = []string{}, []string{}
	for _, u := range s.roster.Units() {
		if present[u] {
			have = append(have, s.roster.Display(u))
		} else {
			missing = append(missing, s.roster.Display(u))
		}
	}
	return have, missing
}

func (s *ChecklistService) dailySummary(ctx context.Context, day time.Time) ([]DailySummary, error) {
	first := day.AddDate(0, 0, -(dailySummaryDays - 1))
	from, _ := dayBounds(first, s.loc)
	_, to := dayBounds(day, s.loc)

	var rows []models.ChecklistSubmission
	if err := s.db.WithContext(ctx).
		Select("id", "unit", "created_at").
		Where("created_at >= ? AND created_at < ?", from, to).
		Find(&rows).Error; err != nil {
		return nil, persistenceError("failed to load checklist history", err)
	}

	counts := map[string]int{}
	present := map[string]map[string]bool{}
	for _, r := range rows {
		key := r.CreatedAt.In(s.loc).Format(DateLayout)
		counts[key]++
		if present[key] == nil {
			present[key] = map[string]bool{}
		}
		present[key][checklist.NormalizeUnit(r.Unit)] = true
	}

	summary := make([]DailySummary, 0, dailySummaryDays)
	for i := 0; i < dailySummaryDays; i++ {
		d := day.AddDate(0, 0, -i)
		key := d.Format(DateLayout)
		_, missing := s.splitRoster(present[key])
		entry := DailySummary{
			Date:         key,
			Count:        counts[key],
			Missing:      missing,
			MissingCount: len(missing),
		}
		if s.holidays != nil {
			entry.Holiday = s.holidays.Holiday(d)
		}
		summary = append(summary, entry)
	}
	return summary, nil
}

func (s *ChecklistService) unitSummaries(latest map[string]*models.ChecklistSubmission) []UnitSummary {
	summaries := make([]UnitSummary, 0, len(s.roster.Units()))
	for _, u := range s.roster.Units() {
		sub, ok := latest[u]
		if !ok {
			summaries = append(summaries, UnitSummary{
				Unit:           s.roster.Display(u),
				MissingPreview: []string{},
				ObsPreview:     []string{},
			})
			continue
		}
		missing, obs := s.parser.Extract(sub.Text, true)
		missingCount, obsCount := len(missing), len(obs)
		id := sub.ID
		createdAt := sub.CreatedAt
		summaries = append(summaries, UnitSummary{
			Unit:           s.roster.Display(u),
			HasSubmission:  true,
			SubmissionID:   &id,
			DoctorName:     sub.DoctorName,
			CreatedAt:      &createdAt,
			MissingCount:   &missingCount,
			ObsCount:       &obsCount,
			MissingPreview: head(missing, missingPreviewLen),
			ObsPreview:     head(obs, obsPreviewLen),
			DetailURL:      fmt.Sprintf("/api/inbox/checklists/%d", sub.ID),
		})
	}
	return summaries
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
