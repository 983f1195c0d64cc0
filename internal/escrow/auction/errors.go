package auction

import apperrors "github.com/louisbranch/auctionhouse/internal/platform/errors"

var (
	ErrInvalidDuration    = apperrors.New(apperrors.CodeAuctionInvalidDuration, "auction duration must be positive")
	ErrInvalidAssetAmount = apperrors.New(apperrors.CodeAuctionInvalidAssetAmount, "asset holding must contain exactly one unit")
	ErrInvalidSnapshot    = apperrors.New(apperrors.CodeAuctionInvalidSnapshot, "bid snapshot is required")
	ErrNotExhibitor       = apperrors.New(apperrors.CodeAuctionNotExhibitor, "caller is not the exhibitor")
	ErrNotHighestBidder   = apperrors.New(apperrors.CodeAuctionNotHighestBidder, "caller is not the highest bidder")
	ErrSelfBid            = apperrors.New(apperrors.CodeAuctionSelfBid, "bidder may not outbid itself")
	ErrBidTooLow          = apperrors.New(apperrors.CodeAuctionBidTooLow, "bid does not exceed current price")
	ErrExpired            = apperrors.New(apperrors.CodeAuctionExpired, "auction has ended")
	ErrNotExpired         = apperrors.New(apperrors.CodeAuctionNotExpired, "auction has not ended")
	ErrBidPlaced          = apperrors.New(apperrors.CodeAuctionBidPlaced, "auction has a bid")
	ErrStaleSnapshot      = apperrors.New(apperrors.CodeAuctionStaleSnapshot, "auction changed since snapshot")
	ErrRecordMismatch     = apperrors.New(apperrors.CodeAuctionRecordMismatch, "holding does not match auction record")
	ErrHoldingInvalid     = apperrors.New(apperrors.CodeHoldingInvalid, "holding cannot be used")
)
