package usecase

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var inputValidator = validator.New(validator.WithRequiredStructEnabled())

func validateInput(ctx context.Context, payload any) error {
	if err := inputValidator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", ErrInvalidInput, err)
	}
	return nil
}

type leaderboardScope struct {
	OrganizationID string `validate:"required"`
	Season         int    `validate:"gte=1900,lte=2200"`
}

func validateScope(ctx context.Context, organizationID string, season int) error {
	return validateInput(ctx, leaderboardScope{OrganizationID: organizationID, Season: season})
}

type seasonScope struct {
	Season int `validate:"gte=1900,lte=2200"`
}

func validateSeason(ctx context.Context, season int) error {
	return validateInput(ctx, seasonScope{Season: season})
}
