package dto

import "github.com/fekuna/omnipos-production-service/internal/model"

type MovementFilters struct {
	Type   model.MovementType
	Reason string
	// Unsourced restricts the listing to movements with no source tag.
	Unsourced bool
	ItemIDs   []int64
}
