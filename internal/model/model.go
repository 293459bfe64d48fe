package model

import (
	"github.com/agrovive/greenhouse-live/internal/model/entities"
	"github.com/agrovive/greenhouse-live/internal/model/messages"
)

// Alias dei tipi comuni esposti ai servizi.

type (
	Greenhouse = entities.Greenhouse
	Zone       = entities.Zone
	Crop       = entities.Crop
	User       = entities.User
	Post       = entities.Post

	ReadingEvent       = messages.ReadingEvent
	VisitEvent         = messages.VisitEvent
	HardwareAlertEvent = messages.HardwareAlertEvent
	ScheduleEvent      = messages.ScheduleEvent
)

const (
	RoleAdmin    = entities.RoleAdmin
	RoleOperator = entities.RoleOperator

	SystemIrrigation = messages.SystemIrrigation
	SystemLighting   = messages.SystemLighting
	PhaseStart       = messages.PhaseStart
	PhaseEnd         = messages.PhaseEnd
)
