package reward

import "errors"

var (
	ErrInsufficientPoints      = errors.New("insufficient points")
	ErrInvalidRedemptionAmount = errors.New("invalid redemption amount")
	ErrLedgerNotFound          = errors.New("reward ledger not found")
	ErrSettingsNotFound        = errors.New("reward settings not configured")
	ErrInvalidSettings         = errors.New("invalid reward settings")
	ErrInternal                = errors.New("internal reward error")
)
