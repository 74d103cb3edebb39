package model

// InviteAdminRequest invitation request
type InviteAdminRequest struct {
	Email string `json:"email" binding:"required"`
}

// RosterFilter client-side filter over a loaded roster
type RosterFilter struct {
	Query    string      `form:"q"`
	Status   AdminStatus `form:"status"`
	Page     int         `form:"page"`
	PageSize int         `form:"page_size"`
}

// RosterRow one roster row plus the controls the acting user may use on it
type RosterRow struct {
	AdminRecord
	IsSelf        bool  `json:"is_self"`
	CanToggle     bool  `json:"can_toggle"`
	CanDelete     bool  `json:"can_delete"`
	CanResend     bool  `json:"can_resend"`
	CooldownMs    int64 `json:"cooldown_ms"`
	Pending       bool  `json:"pending"`
	SlotAvailable bool  `json:"slot_available"`
}

// RosterPage a filtered, paginated roster view
type RosterPage struct {
	Rows         []RosterRow `json:"rows"`
	Total        int         `json:"total"`
	Page         int         `json:"page"`
	PageSize     int         `json:"page_size"`
	TotalPages   int         `json:"total_pages"`
	PendingCount int         `json:"pending_count"`
	SelfID       string      `json:"self_id"`
}

// CooldownResponse remaining resend cooldown for one admin
type CooldownResponse struct {
	UserID      string `json:"user_id"`
	RemainingMs int64  `json:"remaining_ms"`
	Active      bool   `json:"active"`
}
