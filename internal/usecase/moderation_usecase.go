package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/physiohome/chat-service/internal/config"
	"github.com/physiohome/chat-service/internal/models"
	"github.com/physiohome/chat-service/internal/repository"
	"github.com/physiohome/chat-service/pkg/util"
)

// ModerationUseCase manages reports and derives conversation risk
// summaries. It reads room and message aggregates but never mutates them.
type ModerationUseCase struct {
	reports   repository.ReportRepository
	rooms     repository.RoomRepository
	messages  repository.MessageRepository
	directory repository.ParticipantDirectory
	policy    Policy
}

// Policy holds the configurable moderation rules.
type Policy struct {
	// PriorityFloors is the minimum priority per report reason.
	PriorityFloors map[models.ReportReason]models.ReportPriority
	// InactiveAfter marks conversations inactive past this quiet period.
	InactiveAfter time.Duration
	// LongConversation flags rooms at or above this message count.
	LongConversation int64
}

// PolicyFromConfig parses the "reason:priority" pairs of the moderation
// config section.
func PolicyFromConfig(conf *config.Config) Policy {
	floors := make(map[models.ReportReason]models.ReportPriority)
	for _, pair := range conf.Moderation.PriorityFloors {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			continue
		}
		floors[models.ReportReason(parts[0])] = models.ReportPriority(parts[1])
	}
	return Policy{
		PriorityFloors:   floors,
		InactiveAfter:    conf.Moderation.InactiveAfter,
		LongConversation: conf.Moderation.LongConversation,
	}
}

func NewModerationUseCase(
	reports repository.ReportRepository,
	rooms repository.RoomRepository,
	messages repository.MessageRepository,
	directory repository.ParticipantDirectory,
	conf *config.Config,
) *ModerationUseCase {
	return &ModerationUseCase{
		reports:   reports,
		rooms:     rooms,
		messages:  messages,
		directory: directory,
		policy:    PolicyFromConfig(conf),
	}
}

// FileReportParams is the filer-supplied shape of a complaint.
type FileReportParams struct {
	RoomID      string                `json:"room_id" validate:"required"`
	Reason      models.ReportReason   `json:"reason" validate:"required,oneof=inappropriate spam harassment privacy other"`
	Description string                `json:"description"`
	Priority    models.ReportPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

// FileReport snapshots the room's participants into a new pending report.
// Reports are not transport-gated; a flaky connection never blocks one.
func (uc *ModerationUseCase) FileReport(ctx context.Context, by models.Viewer, params FileReportParams) (*models.Report, error) {
	room, err := uc.rooms.GetByID(ctx, params.RoomID)
	if err != nil {
		return nil, err
	}

	participants, err := uc.directory.ListByIDs(ctx, room.ParticipantIDs)
	if err != nil {
		return nil, err
	}

	reporter := models.Reporter{ID: by.ID, Role: by.Role}
	if p, err := uc.directory.Resolve(ctx, by.ID); err == nil {
		reporter.Name = p.DisplayName
	}

	report := &models.Report{
		ReportedBy:   reporter,
		RoomID:       room.ID,
		Participants: participants,
		Reason:       params.Reason,
		Description:  params.Description,
		Status:       models.ReportStatusPending,
		Priority:     uc.effectivePriority(params.Reason, params.Priority),
		ReportedAt:   time.Now(),
	}
	if err := uc.reports.Create(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// effectivePriority applies the reason-based floor to the filer's choice.
func (uc *ModerationUseCase) effectivePriority(reason models.ReportReason, requested models.ReportPriority) models.ReportPriority {
	if requested == "" {
		requested = models.PriorityLow
	}
	floor, ok := uc.policy.PriorityFloors[reason]
	if ok && models.PriorityRank(floor) > models.PriorityRank(requested) {
		return floor
	}
	return requested
}

// Resolve closes a pending report as resolved. Terminal; a second call
// fails with ErrInvalidTransition.
func (uc *ModerationUseCase) Resolve(ctx context.Context, reviewer models.Viewer, reportID, resolution string) (*models.Report, error) {
	if resolution == "" {
		resolution = "Issue resolved"
	}
	return uc.reports.TransitionFromPending(ctx, reportID, models.ReportStatusResolved, reviewer.ID, resolution)
}

// Dismiss closes a pending report as dismissed.
func (uc *ModerationUseCase) Dismiss(ctx context.Context, reviewer models.Viewer, reportID, resolution string) (*models.Report, error) {
	if resolution == "" {
		resolution = "Report dismissed after review"
	}
	return uc.reports.TransitionFromPending(ctx, reportID, models.ReportStatusDismissed, reviewer.ID, resolution)
}

func (uc *ModerationUseCase) ListReports(ctx context.Context, status models.ReportStatus) ([]*models.Report, error) {
	return uc.reports.List(ctx, status)
}

// RiskSummary derives the moderation view of one room from its aggregates
// and linked reports. Read-only and recomputable at any time.
func (uc *ModerationUseCase) RiskSummary(ctx context.Context, roomID string) (*models.RiskSummary, error) {
	room, err := uc.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	count, err := uc.messages.CountByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	reports, err := uc.reports.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	participants, err := uc.directory.ListByIDs(ctx, room.ParticipantIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	summary := &models.RiskSummary{
		RoomID:          room.ID,
		Participants:    participants,
		MessageCount:    count,
		LastActivity:    room.UpdatedAt,
		Duration:        room.DurationLabel(now),
		Status:          models.ConversationActive,
		RiskLevel:       models.RiskLow,
		ComplianceFlags: []string{},
	}

	if now.Sub(room.UpdatedAt) > uc.policy.InactiveAfter {
		summary.Status = models.ConversationInactive
	}
	if uc.policy.LongConversation > 0 && count >= uc.policy.LongConversation {
		addFlag(summary, "long-conversation")
		escalate(summary, models.RiskMedium)
	}

	for _, report := range reports {
		if report.Status == models.ReportStatusDismissed {
			continue
		}
		switch report.Reason {
		case models.ReasonHarassment:
			addFlag(summary, "harassment-report")
			escalate(summary, models.RiskMedium)
		case models.ReasonInappropriate:
			addFlag(summary, "inappropriate-language")
			escalate(summary, models.RiskMedium)
		case models.ReasonPrivacy:
			addFlag(summary, "privacy-concern")
			escalate(summary, models.RiskMedium)
		}
		if report.Priority == models.PriorityUrgent && report.Status == models.ReportStatusPending {
			escalate(summary, models.RiskHigh)
			summary.Status = models.ConversationFlagged
		}
	}

	return summary, nil
}

// ListConversations derives the admin overview of every room.
func (uc *ModerationUseCase) ListConversations(ctx context.Context) ([]*models.RiskSummary, error) {
	rooms, err := uc.rooms.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]*models.RiskSummary, 0, len(rooms))
	for _, room := range rooms {
		summary, err := uc.RiskSummary(ctx, room.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Analytics is the admin overview rollup.
func (uc *ModerationUseCase) Analytics(ctx context.Context) (*models.ChatAnalytics, error) {
	total, err := uc.rooms.Count(ctx)
	if err != nil {
		return nil, err
	}
	active, err := uc.rooms.CountActiveSince(ctx, time.Now().Add(-uc.policy.InactiveAfter))
	if err != nil {
		return nil, err
	}
	messages, err := uc.messages.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	reports, err := uc.reports.Count(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := uc.reports.CountByStatus(ctx, models.ReportStatusPending)
	if err != nil {
		return nil, err
	}

	var flagged int64
	summaries, err := uc.ListConversations(ctx)
	if err != nil {
		return nil, err
	}
	for _, summary := range summaries {
		if summary.Status == models.ConversationFlagged {
			flagged++
		}
	}

	score := 100.0
	if total > 0 {
		score = 100.0 * float64(total-flagged) / float64(total)
	}

	return &models.ChatAnalytics{
		TotalConversations:  total,
		ActiveConversations: active,
		TotalMessages:       messages,
		ReportsCount:        reports,
		PendingReports:      pending,
		FlaggedCount:        flagged,
		ComplianceScore:     score,
	}, nil
}

func addFlag(summary *models.RiskSummary, flag string) {
	if util.SliceIncludes(summary.ComplianceFlags, flag) {
		return
	}
	summary.ComplianceFlags = append(summary.ComplianceFlags, flag)
}

func escalate(summary *models.RiskSummary, level models.RiskLevel) {
	if models.RiskRank(level) > models.RiskRank(summary.RiskLevel) {
		summary.RiskLevel = level
	}
}
