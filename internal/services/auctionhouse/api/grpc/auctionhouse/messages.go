package auctionhouse

// Addresses travel as base58 strings. Empty means "not set".

// Auction is the wire view of a live auction.
type Auction struct {
	Address             string `cbor:"address"`
	Exhibitor           string `cbor:"exhibitor"`
	AssetMint           string `cbor:"asset_mint"`
	AssetCustody        string `cbor:"asset_custody"`
	Proceeds            string `cbor:"proceeds"`
	PaymentMint         string `cbor:"payment_mint"`
	Price               uint64 `cbor:"price"`
	EndAt               int64  `cbor:"end_at"`
	HighestBidder       string `cbor:"highest_bidder"`
	HighestBidderFunds  string `cbor:"highest_bidder_funds"`
	HighestBidderRefund string `cbor:"highest_bidder_refund"`
	HasBid              bool   `cbor:"has_bid"`
	Phase               string `cbor:"phase"`
}

type ExhibitRequest struct {
	AssetSource     string `cbor:"asset_source"`
	Proceeds        string `cbor:"proceeds"`
	InitialPrice    uint64 `cbor:"initial_price"`
	DurationSeconds int64  `cbor:"duration_seconds"`
}

// BidRequest carries the auction state the bidder observed. The bid is
// rejected as stale when it no longer matches.
type BidRequest struct {
	AssetMint      string `cbor:"asset_mint"`
	Refund         string `cbor:"refund"`
	Price          uint64 `cbor:"price"`
	ObservedPrice  uint64 `cbor:"observed_price"`
	ObservedBidder string `cbor:"observed_bidder"`
}

type CancelRequest struct {
	AssetMint        string `cbor:"asset_mint"`
	AssetDestination string `cbor:"asset_destination"`
}

type CloseRequest struct {
	AssetMint        string `cbor:"asset_mint"`
	AssetDestination string `cbor:"asset_destination"`
}

type GetAuctionRequest struct {
	AssetMint string `cbor:"asset_mint"`
}

type AuctionResponse struct {
	InvocationID string  `cbor:"invocation_id"`
	Auction      Auction `cbor:"auction"`
}

type CancelResponse struct {
	InvocationID string `cbor:"invocation_id"`
	Address      string `cbor:"address"`
}

// CloseResponse reports the settled auction as it was before removal.
type CloseResponse struct {
	InvocationID string  `cbor:"invocation_id"`
	Sold         bool    `cbor:"sold"`
	Auction      Auction `cbor:"auction"`
}

type ListAuctionsRequest struct {
	PageSize  int32  `cbor:"page_size"`
	PageToken string `cbor:"page_token"`
}

type ListAuctionsResponse struct {
	Auctions      []Auction `cbor:"auctions"`
	NextPageToken string    `cbor:"next_page_token"`
}

type Recipient struct {
	Recipient   string `cbor:"recipient"`
	BasisPoints uint16 `cbor:"basis_points"`
	Type        string `cbor:"type"`
}

type RoyaltyConfig struct {
	Address          string      `cbor:"address"`
	AssetMint        string      `cbor:"asset_mint"`
	TotalBasisPoints uint16      `cbor:"total_basis_points"`
	Recipients       []Recipient `cbor:"recipients"`
	Authority        string      `cbor:"authority"`
	IsMutable        bool        `cbor:"is_mutable"`
}

// RoyaltyConfigRequest creates or updates a configuration. IsMutable is
// only read on create.
type RoyaltyConfigRequest struct {
	AssetMint        string      `cbor:"asset_mint"`
	AuthorityHolding string      `cbor:"authority_holding"`
	TotalBasisPoints uint16      `cbor:"total_basis_points"`
	Recipients       []Recipient `cbor:"recipients"`
	IsMutable        bool        `cbor:"is_mutable"`
}

type GetRoyaltyConfigRequest struct {
	AssetMint string `cbor:"asset_mint"`
}

type RoyaltyConfigResponse struct {
	InvocationID string        `cbor:"invocation_id"`
	Config       RoyaltyConfig `cbor:"config"`
}

// SaleRequest is signed by the buyer.
type SaleRequest struct {
	Seller            string   `cbor:"seller"`
	AssetMint         string   `cbor:"asset_mint"`
	SellerAsset       string   `cbor:"seller_asset"`
	BuyerPayment      string   `cbor:"buyer_payment"`
	SellerPayment     string   `cbor:"seller_payment"`
	RecipientHoldings []string `cbor:"recipient_holdings"`
	SalePrice         uint64   `cbor:"sale_price"`
}

type Payout struct {
	Recipient string `cbor:"recipient"`
	Holding   string `cbor:"holding"`
	Amount    uint64 `cbor:"amount"`
}

type SaleResponse struct {
	InvocationID string   `cbor:"invocation_id"`
	Royalty      uint64   `cbor:"royalty"`
	Payouts      []Payout `cbor:"payouts"`
	SellerAmount uint64   `cbor:"seller_amount"`
	Dust         uint64   `cbor:"dust"`
	Direct       bool     `cbor:"direct"`
}

type JournalEntry struct {
	Seq          int64  `cbor:"seq"`
	InvocationID string `cbor:"invocation_id"`
	Kind         string `cbor:"kind"`
	Mint         string `cbor:"mint"`
	Source       string `cbor:"source"`
	Destination  string `cbor:"destination"`
	Authority    string `cbor:"authority"`
	Amount       uint64 `cbor:"amount"`
	// At is unix milliseconds.
	At int64 `cbor:"at"`
}

type ListJournalRequest struct {
	PageSize  int32  `cbor:"page_size"`
	PageToken string `cbor:"page_token"`
	// Filter is an AIP-160 expression over the entry fields.
	Filter string `cbor:"filter"`
}

type ListJournalResponse struct {
	Entries       []JournalEntry `cbor:"entries"`
	NextPageToken string         `cbor:"next_page_token"`
}

type Mint struct {
	Address   string `cbor:"address"`
	Authority string `cbor:"authority"`
	Decimals  uint8  `cbor:"decimals"`
	Supply    uint64 `cbor:"supply"`
}

type Holding struct {
	Address string `cbor:"address"`
	Mint    string `cbor:"mint"`
	Owner   string `cbor:"owner"`
	Amount  uint64 `cbor:"amount"`
}

// CreateMintRequest makes the signer the mint authority.
type CreateMintRequest struct {
	Address  string `cbor:"address"`
	Decimals uint8  `cbor:"decimals"`
}

type GetMintRequest struct {
	Address string `cbor:"address"`
}

type MintResponse struct {
	InvocationID string `cbor:"invocation_id"`
	Mint         Mint   `cbor:"mint"`
}

// OpenHoldingRequest opens a holding owned by the signer.
type OpenHoldingRequest struct {
	Address string `cbor:"address"`
	Mint    string `cbor:"mint"`
}

type GetHoldingRequest struct {
	Address string `cbor:"address"`
}

type MintToRequest struct {
	Mint        string `cbor:"mint"`
	Destination string `cbor:"destination"`
	Amount      uint64 `cbor:"amount"`
}

type HoldingResponse struct {
	InvocationID string  `cbor:"invocation_id"`
	Holding      Holding `cbor:"holding"`
}
