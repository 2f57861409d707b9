package domain

import "github.com/google/uuid"

type (
	UserId       = uuid.UUID
	StaffId      = int64
	PostId       = int64
	FlagId       = int64
	PoliticianId = int64

	Email    = string
	Password = string
)
