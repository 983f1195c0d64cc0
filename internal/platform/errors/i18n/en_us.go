package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// Templates receive the error metadata map.
var enUSMessages = map[Code]string{
	"UNKNOWN": "An unexpected error occurred.",

	"ROYALTY_INVALID_CONFIG":          "The royalty configuration is invalid.",
	"ROYALTY_BASIS_POINTS_EXCEED_MAX": "Royalties may not exceed {{.max}} basis points (got {{.total}}).",
	"ROYALTY_TOO_MANY_RECIPIENTS":     "A royalty configuration allows at most {{.max}} recipients (got {{.count}}).",
	"ROYALTY_BASIS_POINTS_MISMATCH":   "Recipient shares add up to {{.sum}} basis points but the total is {{.total}}.",
	"ROYALTY_INVALID_RECIPIENT_TYPE":  "Unknown royalty recipient type {{.type}}.",
	"ROYALTY_UNAUTHORIZED_UPDATE":     "Only the configuration authority may update royalties.",
	"ROYALTY_CONFIG_IMMUTABLE":        "This royalty configuration can no longer be changed.",

	"SALE_INVALID_PRICE":             "The sale price must be greater than zero.",
	"SALE_INVALID_RECIPIENT_ACCOUNT": "Royalty destination {{.holding}} is not valid for recipient {{.recipient}}.",
	"SALE_MISSING_EXPECTED_ACCOUNT":  "Expected {{.want}} royalty destinations, got {{.got}}.",
	"ASSET_ACCESS_DENIED":            "You are not authorized to trade this asset.",

	"AUCTION_INVALID_DURATION":     "The auction duration must be positive.",
	"AUCTION_INVALID_ASSET_AMOUNT": "The asset holding must contain exactly one unit.",
	"AUCTION_INVALID_SNAPSHOT":     "A bid must reference the auction state it was built from.",
	"AUCTION_NOT_EXHIBITOR":        "Only the exhibitor may do this.",
	"AUCTION_NOT_HIGHEST_BIDDER":   "Only the highest bidder may close this auction.",
	"AUCTION_SELF_BID":             "You cannot outbid yourself.",
	"AUCTION_BID_TOO_LOW":          "Bids must exceed the current price of {{.price}}.",
	"AUCTION_EXPIRED":              "This auction has ended.",
	"AUCTION_NOT_EXPIRED":          "This auction is still running.",
	"AUCTION_BID_PLACED":           "An auction with bids cannot be cancelled.",
	"AUCTION_STALE_SNAPSHOT":       "The auction changed since you last read it. Refresh and try again.",
	"AUCTION_RECORD_MISMATCH":      "A referenced holding does not match the auction record.",

	"HOLDING_INVALID":        "Holding {{.holding}} cannot be used here.",
	"HOLDING_OWNER_MISMATCH": "Holding {{.holding}} is not owned by the signer.",
	"HOLDING_NOT_EMPTY":      "Holding {{.holding}} still has a balance.",
	"MINT_MISMATCH":          "The holdings use different assets.",
	"MINT_UNAUTHORIZED":      "Only the mint authority may issue units.",
	"INSUFFICIENT_FUNDS":     "Insufficient funds.",
	"ARITHMETIC_OVERFLOW":    "The amount is too large.",
	"RECORD_CORRUPT":         "Stored data could not be read.",

	"REQUEST_SIGNATURE_INVALID":  "The request signature is missing or invalid.",
	"REQUEST_SIGNATURE_REPLAYED": "This request was already submitted.",
	"JOURNAL_INVALID_FILTER":     "The journal filter is invalid.",
	"INVALID_ARGUMENT":           "{{.field}} is invalid.",

	"NOT_FOUND":      "The requested {{.kind}} was not found.",
	"ALREADY_EXISTS": "The {{.kind}} already exists.",
}
