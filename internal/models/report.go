package models

import "time"

type ReportReason string

const (
	ReasonInappropriate ReportReason = "inappropriate"
	ReasonSpam          ReportReason = "spam"
	ReasonHarassment    ReportReason = "harassment"
	ReasonPrivacy       ReportReason = "privacy"
	ReasonOther         ReportReason = "other"
)

type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusReviewed  ReportStatus = "reviewed"
	ReportStatusResolved  ReportStatus = "resolved"
	ReportStatusDismissed ReportStatus = "dismissed"
)

type ReportPriority string

const (
	PriorityLow    ReportPriority = "low"
	PriorityMedium ReportPriority = "medium"
	PriorityHigh   ReportPriority = "high"
	PriorityUrgent ReportPriority = "urgent"
)

// PriorityRank orders priorities for floor comparisons.
func PriorityRank(p ReportPriority) int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// Reporter identifies who filed a report.
type Reporter struct {
	ID   string `bson:"id" json:"id" validate:"required"`
	Name string `bson:"name,omitempty" json:"name,omitempty"`
	Role Role   `bson:"role" json:"role" validate:"required,oneof=patient physio"`
}

// Report is a filed complaint against a conversation. Its status only moves
// from pending to a terminal resolved or dismissed.
type Report struct {
	ID           string         `bson:"_id,omitempty" json:"id"`
	ReportedBy   Reporter       `bson:"reported_by" json:"reported_by"`
	RoomID       string         `bson:"room_id" json:"room_id" validate:"required"`
	Participants []Participant  `bson:"participants" json:"participants"`
	Reason       ReportReason   `bson:"reason" json:"reason" validate:"required,oneof=inappropriate spam harassment privacy other"`
	Description  string         `bson:"description" json:"description"`
	Status       ReportStatus   `bson:"status" json:"status"`
	Priority     ReportPriority `bson:"priority" json:"priority"`
	ReportedAt   time.Time      `bson:"reported_at" json:"reported_at"`
	ReviewedAt   *time.Time     `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	ReviewedBy   string         `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	Resolution   string         `bson:"resolution,omitempty" json:"resolution,omitempty"`
}

func (Report) CollectionName() string {
	return "reports"
}

func (r *Report) IsTerminal() bool {
	return r.Status == ReportStatusResolved || r.Status == ReportStatusDismissed
}

type ConversationStatus string

const (
	ConversationActive   ConversationStatus = "active"
	ConversationInactive ConversationStatus = "inactive"
	ConversationFlagged  ConversationStatus = "flagged"
	ConversationArchived ConversationStatus = "archived"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func RiskRank(r RiskLevel) int {
	switch r {
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

// RiskSummary is the moderation view over one room. It is derived on read
// and never mutates chat state.
type RiskSummary struct {
	RoomID             string             `json:"room_id"`
	Participants       []Participant      `json:"participants"`
	MessageCount       int64              `json:"message_count"`
	LastActivity       time.Time          `json:"last_activity"`
	Duration           string             `json:"duration"`
	Status             ConversationStatus `json:"status"`
	RiskLevel          RiskLevel          `json:"risk_level"`
	ComplianceFlags    []string           `json:"compliance_flags"`
	SatisfactionRating float64            `json:"satisfaction_rating,omitempty"`
}

// ChatAnalytics is the admin overview rollup.
type ChatAnalytics struct {
	TotalConversations  int64   `json:"total_conversations"`
	ActiveConversations int64   `json:"active_conversations"`
	TotalMessages       int64   `json:"total_messages"`
	ReportsCount        int64   `json:"reports_count"`
	PendingReports      int64   `json:"pending_reports"`
	FlaggedCount        int64   `json:"flagged_conversations"`
	ComplianceScore     float64 `json:"compliance_score"`
}
