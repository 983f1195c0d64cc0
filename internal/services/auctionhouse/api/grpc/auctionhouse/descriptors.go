package auctionhouse

import (
	"context"
	"strings"

	"google.golang.org/grpc"
)

// Service names.
const (
	AuctionHouseServiceName = "auctionhouse.v1.AuctionHouse"
	LedgerServiceName       = "auctionhouse.v1.Ledger"
)

// Full method names.
const (
	ExhibitMethod             = "/auctionhouse.v1.AuctionHouse/Exhibit"
	BidMethod                 = "/auctionhouse.v1.AuctionHouse/Bid"
	CancelMethod              = "/auctionhouse.v1.AuctionHouse/Cancel"
	CloseMethod               = "/auctionhouse.v1.AuctionHouse/Close"
	GetAuctionMethod          = "/auctionhouse.v1.AuctionHouse/GetAuction"
	ListAuctionsMethod        = "/auctionhouse.v1.AuctionHouse/ListAuctions"
	CreateRoyaltyConfigMethod = "/auctionhouse.v1.AuctionHouse/CreateRoyaltyConfig"
	UpdateRoyaltyConfigMethod = "/auctionhouse.v1.AuctionHouse/UpdateRoyaltyConfig"
	GetRoyaltyConfigMethod    = "/auctionhouse.v1.AuctionHouse/GetRoyaltyConfig"
	ProcessSaleMethod         = "/auctionhouse.v1.AuctionHouse/ProcessSale"
	ListJournalMethod         = "/auctionhouse.v1.AuctionHouse/ListJournal"

	CreateMintMethod  = "/auctionhouse.v1.Ledger/CreateMint"
	GetMintMethod     = "/auctionhouse.v1.Ledger/GetMint"
	OpenHoldingMethod = "/auctionhouse.v1.Ledger/OpenHolding"
	GetHoldingMethod  = "/auctionhouse.v1.Ledger/GetHolding"
	MintToMethod      = "/auctionhouse.v1.Ledger/MintTo"
)

var signedMethods = map[string]bool{
	ExhibitMethod:             true,
	BidMethod:                 true,
	CancelMethod:              true,
	CloseMethod:               true,
	CreateRoyaltyConfigMethod: true,
	UpdateRoyaltyConfigMethod: true,
	ProcessSaleMethod:         true,
	CreateMintMethod:          true,
	OpenHoldingMethod:         true,
	MintToMethod:              true,
}

// RequiresSignature reports whether calls to fullMethod must be signed.
func RequiresSignature(fullMethod string) bool {
	return signedMethods[fullMethod]
}

// AuctionHouseServer is the server API for the auction house service.
type AuctionHouseServer interface {
	Exhibit(context.Context, *ExhibitRequest) (*AuctionResponse, error)
	Bid(context.Context, *BidRequest) (*AuctionResponse, error)
	Cancel(context.Context, *CancelRequest) (*CancelResponse, error)
	Close(context.Context, *CloseRequest) (*CloseResponse, error)
	GetAuction(context.Context, *GetAuctionRequest) (*AuctionResponse, error)
	ListAuctions(context.Context, *ListAuctionsRequest) (*ListAuctionsResponse, error)
	CreateRoyaltyConfig(context.Context, *RoyaltyConfigRequest) (*RoyaltyConfigResponse, error)
	UpdateRoyaltyConfig(context.Context, *RoyaltyConfigRequest) (*RoyaltyConfigResponse, error)
	GetRoyaltyConfig(context.Context, *GetRoyaltyConfigRequest) (*RoyaltyConfigResponse, error)
	ProcessSale(context.Context, *SaleRequest) (*SaleResponse, error)
	ListJournal(context.Context, *ListJournalRequest) (*ListJournalResponse, error)
}

// LedgerServer is the server API for the ledger service.
type LedgerServer interface {
	CreateMint(context.Context, *CreateMintRequest) (*MintResponse, error)
	GetMint(context.Context, *GetMintRequest) (*MintResponse, error)
	OpenHolding(context.Context, *OpenHoldingRequest) (*HoldingResponse, error)
	GetHolding(context.Context, *GetHoldingRequest) (*HoldingResponse, error)
	MintTo(context.Context, *MintToRequest) (*HoldingResponse, error)
}

// AuctionHouseServiceDesc describes the auction house service. Messages are
// plain structs carried by the CBOR codec.
var AuctionHouseServiceDesc = grpc.ServiceDesc{
	ServiceName: AuctionHouseServiceName,
	HandlerType: (*AuctionHouseServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ExhibitMethod, AuctionHouseServer.Exhibit),
		unary(BidMethod, AuctionHouseServer.Bid),
		unary(CancelMethod, AuctionHouseServer.Cancel),
		unary(CloseMethod, AuctionHouseServer.Close),
		unary(GetAuctionMethod, AuctionHouseServer.GetAuction),
		unary(ListAuctionsMethod, AuctionHouseServer.ListAuctions),
		unary(CreateRoyaltyConfigMethod, AuctionHouseServer.CreateRoyaltyConfig),
		unary(UpdateRoyaltyConfigMethod, AuctionHouseServer.UpdateRoyaltyConfig),
		unary(GetRoyaltyConfigMethod, AuctionHouseServer.GetRoyaltyConfig),
		unary(ProcessSaleMethod, AuctionHouseServer.ProcessSale),
		unary(ListJournalMethod, AuctionHouseServer.ListJournal),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "auctionhouse/v1/auctionhouse",
}

// LedgerServiceDesc describes the ledger service.
var LedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: LedgerServiceName,
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(CreateMintMethod, LedgerServer.CreateMint),
		unary(GetMintMethod, LedgerServer.GetMint),
		unary(OpenHoldingMethod, LedgerServer.OpenHolding),
		unary(GetHoldingMethod, LedgerServer.GetHolding),
		unary(MintToMethod, LedgerServer.MintTo),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "auctionhouse/v1/ledger",
}

// RegisterAuctionHouseServer registers srv on s.
func RegisterAuctionHouseServer(s grpc.ServiceRegistrar, srv AuctionHouseServer) {
	s.RegisterService(&AuctionHouseServiceDesc, srv)
}

// RegisterLedgerServer registers srv on s.
func RegisterLedgerServer(s grpc.ServiceRegistrar, srv LedgerServer) {
	s.RegisterService(&LedgerServiceDesc, srv)
}

func unary[S, Req, Resp any](fullMethod string, call func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: fullMethod[strings.LastIndex(fullMethod, "/")+1:],
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(*Req))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, handler)
		},
	}
}
