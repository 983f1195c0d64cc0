package settlement

import apperrors "github.com/louisbranch/auctionhouse/internal/platform/errors"

var (
	ErrInvalidPrice            = apperrors.New(apperrors.CodeSaleInvalidPrice, "sale price must be positive")
	ErrInvalidRecipientAccount = apperrors.New(apperrors.CodeSaleInvalidRecipientAccount, "invalid recipient holding")
	ErrMissingExpectedAccount  = apperrors.New(apperrors.CodeSaleMissingExpectedAccount, "missing recipient holding")
	ErrUnauthorizedUpdate      = apperrors.New(apperrors.CodeRoyaltyUnauthorizedUpdate, "caller is not the royalty authority")
	ErrConfigImmutable         = apperrors.New(apperrors.CodeRoyaltyConfigImmutable, "royalty configuration is immutable")
	ErrHoldingInvalid          = apperrors.New(apperrors.CodeHoldingInvalid, "holding cannot be used")
)
