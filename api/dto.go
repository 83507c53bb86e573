/*
dto.go - Request/response data structures for the HTTP API

PURPOSE:
  JSON shapes exchanged with clients. Decimal amounts are serialized as
  strings to avoid float rounding on the wire; time fields use RFC 3339.
*/
package api

import (
	"time"

	"github.com/verdant/eco-engine/auth"
	"github.com/verdant/eco-engine/ecotrack"
)

// =============================================================================
// AUTH
// =============================================================================

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

type UserDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func toUserDTO(u *auth.User) UserDTO {
	return UserDTO{ID: string(u.ID), Email: u.Email, Name: u.Name}
}

// =============================================================================
// CATALOG
// =============================================================================

type CategoryDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type EcoActionDTO struct {
	ID           string `json:"id"`
	CategoryID   string `json:"category_id"`
	Content      string `json:"content"`
	MoneySaved   string `json:"money_saved"`
	CO2Reduction string `json:"co2_reduction"`
}

func toEcoActionDTO(a ecotrack.EcoAction) EcoActionDTO {
	return EcoActionDTO{
		ID:           string(a.ID),
		CategoryID:   string(a.CategoryID),
		Content:      a.Content,
		MoneySaved:   a.Savings.Money.String(),
		CO2Reduction: a.Savings.CO2.String(),
	}
}

type EcoActionRequest struct {
	CategoryID   string `json:"category_id"`
	Content      string `json:"content"`
	MoneySaved   string `json:"money_saved"`
	CO2Reduction string `json:"co2_reduction"`
}

// =============================================================================
// SCHEDULES
// =============================================================================

type CreateScheduleRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	AllDay      bool    `json:"all_day"`
	Start       string  `json:"start,omitempty"` // RFC 3339
	End         string  `json:"end,omitempty"`
	CategoryID  *string `json:"category_id,omitempty"`
}

// UpdateScheduleRequest is a partial update: absent fields are unchanged.
// Setting category_id to the empty string clears the category.
type UpdateScheduleRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	AllDay      *bool   `json:"all_day,omitempty"`
	Start       *string `json:"start,omitempty"`
	End         *string `json:"end,omitempty"`
	CategoryID  *string `json:"category_id,omitempty"`
}

type ScheduleDTO struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Description  string           `json:"description,omitempty"`
	AllDay       bool             `json:"all_day"`
	Start        string           `json:"start,omitempty"`
	End          string           `json:"end,omitempty"`
	Category     *CategoryDTO     `json:"category,omitempty"`
	Achievements []AchievementDTO `json:"achievements"`
	CreatedAt    string           `json:"created_at"`
	UpdatedAt    string           `json:"updated_at"`
}

type AchievementDTO struct {
	ScheduleID  string `json:"schedule_id"`
	EcoActionID string `json:"eco_action_id"`
	IsCompleted bool   `json:"is_completed"`
	AchievedAt  string `json:"achieved_at"`
}

func toAchievementDTO(a ecotrack.Achievement) AchievementDTO {
	return AchievementDTO{
		ScheduleID:  string(a.ScheduleID),
		EcoActionID: string(a.EcoActionID),
		IsCompleted: a.IsCompleted,
		AchievedAt:  a.AchievedAt.Format(time.RFC3339),
	}
}

type SetAchievementStatusRequest struct {
	IsCompleted bool `json:"is_completed"`
}

// =============================================================================
// STATISTICS
// =============================================================================

type StatisticsDTO struct {
	TotalMoneySaved   string `json:"total_money_saved"`
	TotalCO2Reduction string `json:"total_co2_reduction"`
}

func toStatisticsDTO(s ecotrack.Savings) StatisticsDTO {
	return StatisticsDTO{
		TotalMoneySaved:   s.Money.String(),
		TotalCO2Reduction: s.CO2.String(),
	}
}

type RecordDeltaRequest struct {
	MoneySaved   string `json:"money_saved"`
	CO2Reduction string `json:"co2_reduction"`
}

// ErrorResponse is the uniform error shape.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}
