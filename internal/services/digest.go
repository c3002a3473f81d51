package services

import (
	"context"
	"strings"
	"time"

	"github.com/samuq/backend/internal/models"
	"github.com/samuq/backend/internal/services/checklist"
	"github.com/samuq/backend/internal/utils"
	"github.com/samuq/backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultDigestSlot = "manual"
	maxSlotLength     = 32
	maxDigestErrorLen = 4000

	DigestReasonAlreadySent = "already_sent"
)

// Digest is the daily checklist report of the roster.
type Digest struct {
	Date         string   `json:"date"`
	Message      string   `json:"message"`
	MissingUnits []string `json:"missing_units"`
	FlaggedLines []string `json:"flagged_lines"`
}

// DispatchResult is the outcome of one send-or-skip decision.
type DispatchResult struct {
	OK      bool     `json:"ok"`
	Skipped bool     `json:"skipped"`
	Reason  string   `json:"reason,omitempty"`
	SentTo  []string `json:"sent_to"`
	Error   string   `json:"error,omitempty"`
}

// Notifier is what the digest needs from a NotificationGateway.
type Notifier interface {
	Send(ctx context.Context, text string) SendResult
}

type DigestService struct {
	db       *gorm.DB
	roster   *checklist.Roster
	parser   *checklist.Parser
	notifier Notifier
	loc      *time.Location
	now      func() time.Time
}

func NewDigestService(db *gorm.DB, roster *checklist.Roster, parser *checklist.Parser, notifier Notifier, loc *time.Location) *DigestService {
	if loc == nil {
		loc = time.Local
	}
	return &DigestService{db: db, roster: roster, parser: parser, notifier: notifier, loc: loc, now: time.Now}
}

// Today returns the current calendar day in the digest time zone.
func (s *DigestService) Today() time.Time {
	return startOfDay(s.now(), s.loc)
}

// Location is the zone used for day boundaries and the header clock.
func (s *DigestService) Location() *time.Location {
	return s.loc
}

// NormalizeSlot trims a slot label, defaulting to "manual" and capping it at 32 characters.
func NormalizeSlot(slot string) string {
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return DefaultDigestSlot
	}
	return utils.Truncate(slot, maxSlotLength)
}

// Build composes the report for day from the latest submission of each roster unit.
// It only reads; the staff preview and the dispatcher both use it.
func (s *DigestService) Build(ctx context.Context, day time.Time) (*Digest, error) {
	subs, err := submissionsForDay(ctx, s.db, day, s.loc)
	if err != nil {
		return nil, err
	}
	latest := latestByUnit(subs, s.roster)

	missingUnits := []string{}
	flagged := []string{}
	for _, unit := range s.roster.Units() {
		display := s.roster.Display(unit)
		sub, ok := latest[unit]
		if !ok {
			missingUnits = append(missingUnits, display)
			continue
		}
		missing, obs := s.parser.Extract(sub.Text, true)
		if len(missing) == 0 && len(obs) == 0 {
			continue
		}
		flagged = append(flagged, "• "+display)
		if len(missing) > 0 {
			flagged = append(flagged, "  Faltas: "+strings.Join(missing, ", "))
		}
		if len(obs) > 0 {
			flagged = append(flagged, "  Obs: "+strings.Join(obs, "; "))
		}
		flagged = append(flagged, "")
	}
	for len(flagged) > 0 && strings.TrimSpace(flagged[len(flagged)-1]) == "" {
		flagged = flagged[:len(flagged)-1]
	}

	date := day.Format(DateLayout)
	lines := []string{"Checklist USA — " + date + " — " + s.now().In(s.loc).Format("15:04")}
	if len(missingUnits) > 0 {
		lines = append(lines, "Sem envio: "+strings.Join(missingUnits, ", "))
	} else {
		lines = append(lines, "Sem envio: (nenhuma) ✅")
	}
	lines = append(lines, "")
	if len(flagged) > 0 {
		lines = append(lines, "Faltas/Obs:")
		lines = append(lines, flagged...)
	} else {
		lines = append(lines, "Faltas/Obs: (nenhuma sinalizada)")
	}

	return &Digest{
		Date:         date,
		Message:      strings.Join(lines, "\n"),
		MissingUnits: missingUnits,
		FlaggedLines: flagged,
	}, nil
}

// AlreadySent reports whether a successful send is recorded for (day, slot).
func (s *DigestService) AlreadySent(ctx context.Context, day time.Time, slot string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.DigestLog{}).
		Where("date = ? AND slot = ? AND status = ?", day.Format(DateLayout), NormalizeSlot(slot), models.DigestStatusSuccess).
		Count(&count).Error
	return count > 0, err
}

// Dispatch sends the digest of day for slot unless a successful send is already on record
// (force skips that check). The outcome is written to the digest log whatever it is; a
// failure to write the log is logged and does not change the returned result.
// Two concurrent calls can both pass the check; the (date, slot) index keeps a single log row.
func (s *DigestService) Dispatch(ctx context.Context, day time.Time, slot string, force bool) *DispatchResult {
	slot = NormalizeSlot(slot)
	date := day.Format(DateLayout)

	if !force {
		sent, err := s.AlreadySent(ctx, day, slot)
		if err != nil {
			logger.Warn().Err(err).Str("date", date).Str("slot", slot).Msg("[Digest] Failed to check digest log")
		}
		if sent {
			logger.Info().Str("date", date).Str("slot", slot).Msg("[Digest] Already sent, skipping")
			return &DispatchResult{OK: true, Skipped: true, Reason: DigestReasonAlreadySent, SentTo: []string{}}
		}
	}

	var send SendResult
	message := ""
	digest, err := s.Build(ctx, day)
	if err != nil {
		send = SendResult{SentTo: []string{}, Error: err.Error()}
	} else {
		message = digest.Message
		send = s.notifier.Send(ctx, message)
	}

	status := models.DigestStatusError
	if send.OK {
		status = models.DigestStatusSuccess
	}
	entry := models.DigestLog{
		Date:      date,
		Slot:      slot,
		SentAt:    s.now().UTC(),
		Status:    status,
		Recipient: strings.Join(send.SentTo, ","),
		Message:   message,
		Error:     utils.Truncate(send.Error, maxDigestErrorLen),
	}
	if err := s.saveLog(ctx, &entry); err != nil {
		logger.Error().Err(err).Str("date", date).Str("slot", slot).Str("status", status).Msg("[Digest] Failed to record digest log")
	}

	if send.OK {
		logger.Info().Str("date", date).Str("slot", slot).Strs("sent_to", send.SentTo).Msg("[Digest] Sent")
	} else {
		logger.Warn().Str("date", date).Str("slot", slot).Str("error", send.Error).Msg("[Digest] Send failed")
	}

	return &DispatchResult{
		OK:      send.OK,
		Skipped: false,
		SentTo:  send.SentTo,
		Error:   send.Error,
	}
}

func (s *DigestService) saveLog(ctx context.Context, entry *models.DigestLog) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}, {Name: "slot"}},
		DoUpdates: clause.AssignmentColumns([]string{"sent_at", "status", "recipient", "message", "error", "updated_at"}),
	}).Create(entry).Error
}

// Logs lists recorded sends, newest date first.
func (s *DigestService) Logs(ctx context.Context, limit int) ([]models.DigestLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var logs []models.DigestLog
	if err := s.db.WithContext(ctx).
		Order("date DESC, slot ASC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, persistenceError("failed to list digest logs", err)
	}
	return logs, nil
}
