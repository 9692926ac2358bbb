package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physiohome/chat-service/internal/config"
	"github.com/physiohome/chat-service/internal/models"
	"github.com/physiohome/chat-service/internal/repo/memory"
)

type moderationFixture struct {
	uc       *ModerationUseCase
	rooms    *memory.RoomRepo
	messages *memory.MessageRepo
	reports  *memory.ReportRepo
}

func newModerationFixture(t *testing.T) *moderationFixture {
	t.Helper()

	conf := &config.Config{}
	conf.Moderation.PriorityFloors = []string{"harassment:medium", "privacy:medium", "inappropriate:medium"}
	conf.Moderation.InactiveAfter = 72 * time.Hour
	conf.Moderation.LongConversation = 50

	directory := memory.NewDirectory()
	memory.Seed(directory)

	f := &moderationFixture{
		rooms:    memory.NewRoomRepository(),
		messages: memory.NewMessageRepository(),
		reports:  memory.NewReportRepository(),
	}
	f.uc = NewModerationUseCase(f.reports, f.rooms, f.messages, directory, conf)
	return f
}

func (f *moderationFixture) room(t *testing.T, a, b string) *models.Room {
	t.Helper()
	room, _, err := f.rooms.GetOrCreate(context.Background(), a, b)
	require.NoError(t, err)
	return room
}

func (f *moderationFixture) file(t *testing.T, roomID string, reason models.ReportReason, priority models.ReportPriority) *models.Report {
	t.Helper()
	report, err := f.uc.FileReport(context.Background(), patient, FileReportParams{
		RoomID:   roomID,
		Reason:   reason,
		Priority: priority,
	})
	require.NoError(t, err)
	return report
}

func TestFileReportSnapshotsRoom(t *testing.T) {
	f := newModerationFixture(t)
	room := f.room(t, "1", "2")

	report, err := f.uc.FileReport(context.Background(), patient, FileReportParams{
		RoomID:      room.ID,
		Reason:      models.ReasonSpam,
		Description: "Unsolicited product offers",
	})
	require.NoError(t, err)

	assert.Equal(t, models.ReportStatusPending, report.Status)
	assert.Equal(t, "1", report.ReportedBy.ID)
	assert.Equal(t, "John Doe", report.ReportedBy.Name)
	assert.Len(t, report.Participants, 2)
	assert.Equal(t, models.PriorityLow, report.Priority)
	assert.False(t, report.ReportedAt.IsZero())
}

func TestFileReportUnknownRoom(t *testing.T) {
	f := newModerationFixture(t)

	_, err := f.uc.FileReport(context.Background(), patient, FileReportParams{
		RoomID: "missing",
		Reason: models.ReasonSpam,
	})
	assert.ErrorIs(t, err, models.ErrRoomNotFound)
}

func TestFileReportPriorityFloors(t *testing.T) {
	f := newModerationFixture(t)
	room := f.room(t, "1", "2")

	// Harassment never files below medium.
	report := f.file(t, room.ID, models.ReasonHarassment, models.PriorityLow)
	assert.Equal(t, models.PriorityMedium, report.Priority)

	// An explicit higher priority survives the floor.
	report = f.file(t, room.ID, models.ReasonPrivacy, models.PriorityUrgent)
	assert.Equal(t, models.PriorityUrgent, report.Priority)

	// Reasons without a floor keep the filer's choice.
	report = f.file(t, room.ID, models.ReasonOther, "")
	assert.Equal(t, models.PriorityLow, report.Priority)
}

func TestReportReviewLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newModerationFixture(t)
	room := f.room(t, "1", "2")
	report := f.file(t, room.ID, models.ReasonSpam, models.PriorityLow)

	resolved, err := f.uc.Resolve(ctx, admin, report.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, resolved.Status)
	assert.Equal(t, "Issue resolved", resolved.Resolution)
	assert.Equal(t, admin.ID, resolved.ReviewedBy)

	// Resolved is terminal in both directions.
	_, err = f.uc.Resolve(ctx, admin, report.ID, "again")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	_, err = f.uc.Dismiss(ctx, admin, report.ID, "")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	second := f.file(t, room.ID, models.ReasonOther, "")
	dismissed, err := f.uc.Dismiss(ctx, admin, second.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusDismissed, dismissed.Status)
	assert.Equal(t, "Report dismissed after review", dismissed.Resolution)

	_, err = f.uc.Resolve(ctx, admin, "missing", "")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRiskSummaryEscalations(t *testing.T) {
	ctx := context.Background()
	f := newModerationFixture(t)
	room := f.room(t, "1", "2")

	summary, err := f.uc.RiskSummary(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RiskLow, summary.RiskLevel)
	assert.Equal(t, models.ConversationActive, summary.Status)
	assert.Empty(t, summary.ComplianceFlags)

	f.file(t, room.ID, models.ReasonHarassment, models.PriorityLow)
	summary, err = f.uc.RiskSummary(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RiskMedium, summary.RiskLevel)
	assert.Contains(t, summary.ComplianceFlags, "harassment-report")
	assert.Equal(t, models.ConversationActive, summary.Status)

	// An urgent pending report flags the conversation at high risk.
	f.file(t, room.ID, models.ReasonPrivacy, models.PriorityUrgent)
	summary, err = f.uc.RiskSummary(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RiskHigh, summary.RiskLevel)
	assert.Equal(t, models.ConversationFlagged, summary.Status)
	assert.Contains(t, summary.ComplianceFlags, "privacy-concern")
}

func TestRiskSummaryIgnoresDismissedReports(t *testing.T) {
	ctx := context.Background()
	f := newModerationFixture(t)
	room := f.room(t, "1", "2")

	report := f.file(t, room.ID, models.ReasonHarassment, models.PriorityUrgent)
	_, err := f.uc.Dismiss(ctx, admin, report.ID, "no substance")
	require.NoError(t, err)

	summary, err := f.uc.RiskSummary(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RiskLow, summary.RiskLevel)
	assert.Equal(t, models.ConversationActive, summary.Status)
	assert.Empty(t, summary.ComplianceFlags)
}

func TestRiskSummaryResolvedReasonStillCounts(t *testing.T) {
	ctx := context.Background()
	f := newModerationFixture(t)
	room := f.room(t, "1", "2")

	report := f.file(t, room.ID, models.ReasonInappropriate, models.PriorityUrgent)
	_, err := f.uc.Resolve(ctx, admin, report.ID, "warned")
	require.NoError(t, err)

	summary, err := f.uc.RiskSummary(ctx, room.ID)
	require.NoError(t, err)
	// The reason keeps its floor, but only pending urgency flags the room.
	assert.Equal(t, models.RiskMedium, summary.RiskLevel)
	assert.Contains(t, summary.ComplianceFlags, "inappropriate-language")
	assert.Equal(t, models.ConversationActive, summary.Status)
}

func TestRiskSummaryLongConversation(t *testing.T) {
	ctx := context.Background()
	f := newModerationFixture(t)
	room := f.room(t, "1", "2")

	for i := int64(0); i < 50; i++ {
		require.NoError(t, f.messages.Append(ctx, &models.Message{
			RoomID:   room.ID,
			SenderID: "1",
			Type:     models.MessageTypeText,
			Content:  "rep",
		}))
	}

	summary, err := f.uc.RiskSummary(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), summary.MessageCount)
	assert.Contains(t, summary.ComplianceFlags, "long-conversation")
	assert.Equal(t, models.RiskMedium, summary.RiskLevel)
}

func TestAnalyticsRollup(t *testing.T) {
	ctx := context.Background()
	f := newModerationFixture(t)

	first := f.room(t, "1", "2")
	f.room(t, "3", "4")

	require.NoError(t, f.messages.Append(ctx, &models.Message{
		RoomID: first.ID, SenderID: "1", Type: models.MessageTypeText, Content: "hi",
	}))

	f.file(t, first.ID, models.ReasonHarassment, models.PriorityUrgent)
	report := f.file(t, first.ID, models.ReasonSpam, models.PriorityLow)
	_, err := f.uc.Resolve(ctx, admin, report.ID, "")
	require.NoError(t, err)

	analytics, err := f.uc.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), analytics.TotalConversations)
	assert.Equal(t, int64(2), analytics.ActiveConversations)
	assert.Equal(t, int64(1), analytics.TotalMessages)
	assert.Equal(t, int64(2), analytics.ReportsCount)
	assert.Equal(t, int64(1), analytics.PendingReports)
	assert.Equal(t, int64(1), analytics.FlaggedCount)
	assert.InDelta(t, 50.0, analytics.ComplianceScore, 0.01)

	summaries, err := f.uc.ListConversations(ctx)
	require.NoError(t, err)
	assert.Len(t, summaries, 2)
}
