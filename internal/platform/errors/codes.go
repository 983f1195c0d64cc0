// Package errors provides structured error handling for the auction house.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Royalty configuration errors
	CodeRoyaltyInvalidConfig        Code = "ROYALTY_INVALID_CONFIG"
	CodeRoyaltyBasisPointsExceedMax Code = "ROYALTY_BASIS_POINTS_EXCEED_MAX"
	CodeRoyaltyTooManyRecipients    Code = "ROYALTY_TOO_MANY_RECIPIENTS"
	CodeRoyaltyBasisPointsMismatch  Code = "ROYALTY_BASIS_POINTS_MISMATCH"
	CodeRoyaltyInvalidRecipientType Code = "ROYALTY_INVALID_RECIPIENT_TYPE"
	CodeRoyaltyUnauthorizedUpdate   Code = "ROYALTY_UNAUTHORIZED_UPDATE"
	CodeRoyaltyConfigImmutable      Code = "ROYALTY_CONFIG_IMMUTABLE"

	// Settlement errors
	CodeSaleInvalidPrice            Code = "SALE_INVALID_PRICE"
	CodeSaleInvalidRecipientAccount Code = "SALE_INVALID_RECIPIENT_ACCOUNT"
	CodeSaleMissingExpectedAccount  Code = "SALE_MISSING_EXPECTED_ACCOUNT"
	CodeAssetAccessDenied           Code = "ASSET_ACCESS_DENIED"

	// Auction errors
	CodeAuctionInvalidDuration    Code = "AUCTION_INVALID_DURATION"
	CodeAuctionInvalidAssetAmount Code = "AUCTION_INVALID_ASSET_AMOUNT"
	CodeAuctionInvalidSnapshot    Code = "AUCTION_INVALID_SNAPSHOT"
	CodeAuctionNotExhibitor       Code = "AUCTION_NOT_EXHIBITOR"
	CodeAuctionNotHighestBidder   Code = "AUCTION_NOT_HIGHEST_BIDDER"
	CodeAuctionSelfBid            Code = "AUCTION_SELF_BID"
	CodeAuctionBidTooLow          Code = "AUCTION_BID_TOO_LOW"
	CodeAuctionExpired            Code = "AUCTION_EXPIRED"
	CodeAuctionNotExpired         Code = "AUCTION_NOT_EXPIRED"
	CodeAuctionBidPlaced          Code = "AUCTION_BID_PLACED"
	CodeAuctionStaleSnapshot      Code = "AUCTION_STALE_SNAPSHOT"
	CodeAuctionRecordMismatch     Code = "AUCTION_RECORD_MISMATCH"

	// Ledger errors
	CodeHoldingInvalid       Code = "HOLDING_INVALID"
	CodeHoldingOwnerMismatch Code = "HOLDING_OWNER_MISMATCH"
	CodeHoldingNotEmpty      Code = "HOLDING_NOT_EMPTY"
	CodeMintMismatch         Code = "MINT_MISMATCH"
	CodeMintUnauthorized     Code = "MINT_UNAUTHORIZED"
	CodeInsufficientFunds    Code = "INSUFFICIENT_FUNDS"
	CodeArithmeticOverflow   Code = "ARITHMETIC_OVERFLOW"
	CodeRecordCorrupt        Code = "RECORD_CORRUPT"

	// Transport errors
	CodeRequestSignatureInvalid  Code = "REQUEST_SIGNATURE_INVALID"
	CodeRequestSignatureReplayed Code = "REQUEST_SIGNATURE_REPLAYED"
	CodeJournalInvalidFilter     Code = "JOURNAL_INVALID_FILTER"
	CodeInvalidArgument          Code = "INVALID_ARGUMENT"

	// Generic errors
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
)

// Category groups codes by the kind of failure they describe.
type Category string

const (
	CategoryValidation    Category = "validation"
	CategoryAuthorization Category = "authorization"
	CategoryState         Category = "state"
	CategoryArithmetic    Category = "arithmetic"
	CategoryResource      Category = "resource"
	CategoryInternal      Category = "internal"
)

// Category returns the failure category for the code.
func (c Code) Category() Category {
	switch c {
	case CodeRoyaltyInvalidConfig,
		CodeRoyaltyBasisPointsExceedMax,
		CodeRoyaltyTooManyRecipients,
		CodeRoyaltyBasisPointsMismatch,
		CodeRoyaltyInvalidRecipientType,
		CodeSaleInvalidPrice,
		CodeSaleInvalidRecipientAccount,
		CodeSaleMissingExpectedAccount,
		CodeAuctionInvalidDuration,
		CodeAuctionInvalidAssetAmount,
		CodeAuctionInvalidSnapshot,
		CodeAuctionRecordMismatch,
		CodeHoldingInvalid,
		CodeJournalInvalidFilter,
		CodeInvalidArgument,
		CodeNotFound:
		return CategoryValidation

	case CodeRoyaltyUnauthorizedUpdate,
		CodeAssetAccessDenied,
		CodeAuctionNotExhibitor,
		CodeAuctionNotHighestBidder,
		CodeAuctionSelfBid,
		CodeHoldingOwnerMismatch,
		CodeMintUnauthorized,
		CodeRequestSignatureInvalid,
		CodeRequestSignatureReplayed:
		return CategoryAuthorization

	case CodeRoyaltyConfigImmutable,
		CodeAuctionBidTooLow,
		CodeAuctionExpired,
		CodeAuctionNotExpired,
		CodeAuctionBidPlaced,
		CodeAuctionStaleSnapshot,
		CodeHoldingNotEmpty,
		CodeAlreadyExists:
		return CategoryState

	case CodeArithmeticOverflow:
		return CategoryArithmetic

	case CodeInsufficientFunds,
		CodeMintMismatch:
		return CategoryResource

	default:
		return CategoryInternal
	}
}

// GRPCCode returns the appropriate gRPC status code for this error code.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeNotFound:
		return codes.NotFound
	case CodeAlreadyExists:
		return codes.AlreadyExists
	case CodeAuctionStaleSnapshot:
		// Callers re-read the auction and resubmit.
		return codes.Aborted
	case CodeRequestSignatureInvalid, CodeRequestSignatureReplayed:
		return codes.Unauthenticated
	case CodeArithmeticOverflow:
		return codes.OutOfRange
	}

	switch c.Category() {
	case CategoryValidation:
		return codes.InvalidArgument
	case CategoryAuthorization:
		return codes.PermissionDenied
	case CategoryState, CategoryResource:
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}
