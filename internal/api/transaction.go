package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// TransactionServiceName is the fully-qualified name of the TransactionService service.
const TransactionServiceName = "grouptab.v1.TransactionService"

// Fully-qualified procedure names of the TransactionService RPCs.
const (
	TransactionServiceCreateTransactionProcedure = "/grouptab.v1.TransactionService/CreateTransaction"
	TransactionServiceGetTransactionProcedure    = "/grouptab.v1.TransactionService/GetTransaction"
	TransactionServiceListTransactionsProcedure  = "/grouptab.v1.TransactionService/ListTransactions"
	TransactionServiceSettleDebtProcedure        = "/grouptab.v1.TransactionService/SettleDebt"
)

// TransactionServiceHandler is implemented by the server side of TransactionService.
type TransactionServiceHandler interface {
	CreateTransaction(context.Context, *connect.Request[CreateTransactionRequest]) (*connect.Response[CreateTransactionResponse], error)
	GetTransaction(context.Context, *connect.Request[GetTransactionRequest]) (*connect.Response[GetTransactionResponse], error)
	ListTransactions(context.Context, *connect.Request[ListTransactionsRequest]) (*connect.Response[ListTransactionsResponse], error)
	SettleDebt(context.Context, *connect.Request[SettleDebtRequest]) (*connect.Response[SettleDebtResponse], error)
}

// NewTransactionServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewTransactionServiceHandler(svc TransactionServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(TransactionServiceCreateTransactionProcedure, connect.NewUnaryHandler(TransactionServiceCreateTransactionProcedure, svc.CreateTransaction, opts...))
	mux.Handle(TransactionServiceGetTransactionProcedure, connect.NewUnaryHandler(TransactionServiceGetTransactionProcedure, svc.GetTransaction, opts...))
	mux.Handle(TransactionServiceListTransactionsProcedure, connect.NewUnaryHandler(TransactionServiceListTransactionsProcedure, svc.ListTransactions, opts...))
	mux.Handle(TransactionServiceSettleDebtProcedure, connect.NewUnaryHandler(TransactionServiceSettleDebtProcedure, svc.SettleDebt, opts...))
	return "/" + TransactionServiceName + "/", mux
}

// TransactionServiceClient is a client for TransactionService.
type TransactionServiceClient interface {
	TransactionServiceHandler
}

// NewTransactionServiceClient constructs a client for TransactionService.
func NewTransactionServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) TransactionServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &transactionServiceClient{
		createTransaction: connect.NewClient[CreateTransactionRequest, CreateTransactionResponse](httpClient, baseURL+TransactionServiceCreateTransactionProcedure, opts...),
		getTransaction:    connect.NewClient[GetTransactionRequest, GetTransactionResponse](httpClient, baseURL+TransactionServiceGetTransactionProcedure, opts...),
		listTransactions:  connect.NewClient[ListTransactionsRequest, ListTransactionsResponse](httpClient, baseURL+TransactionServiceListTransactionsProcedure, opts...),
		settleDebt:        connect.NewClient[SettleDebtRequest, SettleDebtResponse](httpClient, baseURL+TransactionServiceSettleDebtProcedure, opts...),
	}
}

type transactionServiceClient struct {
	createTransaction *connect.Client[CreateTransactionRequest, CreateTransactionResponse]
	getTransaction    *connect.Client[GetTransactionRequest, GetTransactionResponse]
	listTransactions  *connect.Client[ListTransactionsRequest, ListTransactionsResponse]
	settleDebt        *connect.Client[SettleDebtRequest, SettleDebtResponse]
}

func (c *transactionServiceClient) CreateTransaction(ctx context.Context, req *connect.Request[CreateTransactionRequest]) (*connect.Response[CreateTransactionResponse], error) {
	return c.createTransaction.CallUnary(ctx, req)
}

func (c *transactionServiceClient) GetTransaction(ctx context.Context, req *connect.Request[GetTransactionRequest]) (*connect.Response[GetTransactionResponse], error) {
	return c.getTransaction.CallUnary(ctx, req)
}

func (c *transactionServiceClient) ListTransactions(ctx context.Context, req *connect.Request[ListTransactionsRequest]) (*connect.Response[ListTransactionsResponse], error) {
	return c.listTransactions.CallUnary(ctx, req)
}

func (c *transactionServiceClient) SettleDebt(ctx context.Context, req *connect.Request[SettleDebtRequest]) (*connect.Response[SettleDebtResponse], error) {
	return c.settleDebt.CallUnary(ctx, req)
}

// UnimplementedTransactionServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedTransactionServiceHandler struct{}

func (UnimplementedTransactionServiceHandler) CreateTransaction(context.Context, *connect.Request[CreateTransactionRequest]) (*connect.Response[CreateTransactionResponse], error) {
	return nil, unimplemented(TransactionServiceCreateTransactionProcedure)
}

func (UnimplementedTransactionServiceHandler) GetTransaction(context.Context, *connect.Request[GetTransactionRequest]) (*connect.Response[GetTransactionResponse], error) {
	return nil, unimplemented(TransactionServiceGetTransactionProcedure)
}

func (UnimplementedTransactionServiceHandler) ListTransactions(context.Context, *connect.Request[ListTransactionsRequest]) (*connect.Response[ListTransactionsResponse], error) {
	return nil, unimplemented(TransactionServiceListTransactionsProcedure)
}

func (UnimplementedTransactionServiceHandler) SettleDebt(context.Context, *connect.Request[SettleDebtRequest]) (*connect.Response[SettleDebtResponse], error) {
	return nil, unimplemented(TransactionServiceSettleDebtProcedure)
}
