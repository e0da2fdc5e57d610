// Copyright 2025 R5 Labs
// This file is part of the R5 Core library.
//
// This software is provided "as is", without warranty of any kind,
// express or implied, including but not limited to the warranties
// of merchantability, fitness for a particular purpose and
// noninfringement. In no event shall the authors or copyright
// holders be liable for any claim, damages, or other liability,
// whether in an action of contract, tort or otherwise, arising
// from, out of or in connection with the software or the use or
// other dealings in the software.

package provider

import "fmt"

// ErrorKind is a closed taxonomy of every error the core boundary can
// surface. New kinds are added here, never invented ad hoc at call sites.
type ErrorKind int

const (
	_ ErrorKind = iota

	// Endpoint / transport setup.
	InvalidEndpointConfig
	UnsupportedSchema
	FailedToConnect
	ReachedMaxRetryLimit
	UnexpectedServerResponse

	// WebSocket handshake.
	InvalidHandshakeMessage
	InvalidHandshakeKey
	DuplicateHandshakeHeader

	// WebSocket framing.
	MaskedServerMessage
	UnnegociatedReservedBits
	ControlFrameTooBig
	FragmentedControl
	UnexpectedFragment
	InvalidUtf8Payload
	UnsupportedOpcode
	MessageSizeOverflow

	// RPC error.code taxonomy.
	UnexpectedErrorFound
	ParseError
	InvalidRequest
	InvalidParams
	MethodNotFound
	MethodNotSupported
	InvalidInput
	ResourceNotFound
	ResourceUnavailable
	LimitExceeded
	TransactionRejected
	RpcVersionNotSupported
	UserRejectedRequest
	Unauthorized
	UnsupportedMethod
	Disconnected
	ChainDisconnected
	TooManyRequestError
	UnexpectedRpcErrorCode

	// Contract execution.
	EvmFailedToExecute

	// Null-result-on-lookup.
	TransactionNotFound
	TransactionReceiptNotFound
	InvalidBlockHash
	InvalidBlockNumber
	InvalidBlockHashOrIndex
	InvalidBlockNumberOrIndex
	InvalidFilterId

	// Fee estimation.
	UnableToFetchFeeInfoFromBlock
	MaxFeePerGasUnderflow

	// Wallet assert.
	InvalidChainId
	TransactionTipToHigh
	EmptyBlobs
	TooManyBlobs
	BlobVersionNotSupported
	CreateBlobTransaction

	// Wallet prepare.
	UnsupportedTransactionType

	// Receipt wait.
	FailedToGetReceipt

	// OP-Stack / ENS helpers.
	ExpectedOpStackContracts
	ExpectedEnsContracts
	FaultProofsNotEnabled
	GameNotFound
	InvalidWithdrawalHash
	WithdrawalNotProved

	// Wallet pool.
	TransactionNotFoundInPool

	// Decode helpers (multicall, ENS).
	FailedToDecodeResponse
)

var errorKindNames = map[ErrorKind]string{
	InvalidEndpointConfig:         "InvalidEndpointConfig",
	UnsupportedSchema:             "UnsupportedSchema",
	FailedToConnect:               "FailedToConnect",
	ReachedMaxRetryLimit:          "ReachedMaxRetryLimit",
	UnexpectedServerResponse:      "UnexpectedServerResponse",
	InvalidHandshakeMessage:       "InvalidHandshakeMessage",
	InvalidHandshakeKey:           "InvalidHandshakeKey",
	DuplicateHandshakeHeader:      "DuplicateHandshakeHeader",
	MaskedServerMessage:           "MaskedServerMessage",
	UnnegociatedReservedBits:      "UnnegociatedReservedBits",
	ControlFrameTooBig:            "ControlFrameTooBig",
	FragmentedControl:             "FragmentedControl",
	UnexpectedFragment:            "UnexpectedFragment",
	InvalidUtf8Payload:            "InvalidUtf8Payload",
	UnsupportedOpcode:             "UnsupportedOpcode",
	MessageSizeOverflow:           "MessageSizeOverflow",
	UnexpectedErrorFound:          "UnexpectedErrorFound",
	ParseError:                    "ParseError",
	InvalidRequest:                "InvalidRequest",
	InvalidParams:                 "InvalidParams",
	MethodNotFound:                "MethodNotFound",
	MethodNotSupported:            "MethodNotSupported",
	InvalidInput:                  "InvalidInput",
	ResourceNotFound:              "ResourceNotFound",
	ResourceUnavailable:           "ResourceUnavailable",
	LimitExceeded:                 "LimitExceeded",
	TransactionRejected:           "TransactionRejected",
	RpcVersionNotSupported:        "RpcVersionNotSupported",
	UserRejectedRequest:           "UserRejectedRequest",
	Unauthorized:                  "Unauthorized",
	UnsupportedMethod:             "UnsupportedMethod",
	Disconnected:                  "Disconnected",
	ChainDisconnected:             "ChainDisconnected",
	TooManyRequestError:           "TooManyRequestError",
	UnexpectedRpcErrorCode:        "UnexpectedRpcErrorCode",
	EvmFailedToExecute:            "EvmFailedToExecute",
	TransactionNotFound:           "TransactionNotFound",
	TransactionReceiptNotFound:    "TransactionReceiptNotFound",
	InvalidBlockHash:              "InvalidBlockHash",
	InvalidBlockNumber:            "InvalidBlockNumber",
	InvalidBlockHashOrIndex:       "InvalidBlockHashOrIndex",
	InvalidBlockNumberOrIndex:     "InvalidBlockNumberOrIndex",
	InvalidFilterId:               "InvalidFilterId",
	UnableToFetchFeeInfoFromBlock: "UnableToFetchFeeInfoFromBlock",
	MaxFeePerGasUnderflow:         "MaxFeePerGasUnderflow",
	InvalidChainId:                "InvalidChainId",
	TransactionTipToHigh:          "TransactionTipToHigh",
	EmptyBlobs:                    "EmptyBlobs",
	TooManyBlobs:                  "TooManyBlobs",
	BlobVersionNotSupported:       "BlobVersionNotSupported",
	CreateBlobTransaction:         "CreateBlobTransaction",
	UnsupportedTransactionType:    "UnsupportedTransactionType",
	FailedToGetReceipt:            "FailedToGetReceipt",
	ExpectedOpStackContracts:      "ExpectedOpStackContracts",
	ExpectedEnsContracts:          "ExpectedEnsContracts",
	FaultProofsNotEnabled:         "FaultProofsNotEnabled",
	GameNotFound:                  "GameNotFound",
	InvalidWithdrawalHash:         "InvalidWithdrawalHash",
	WithdrawalNotProved:           "WithdrawalNotProved",
	TransactionNotFoundInPool:     "TransactionNotFoundInPool",
	FailedToDecodeResponse:        "FailedToDecodeResponse",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error wraps an ErrorKind with context and an optional cause, the same
// shape as the teacher's wsHandshakeError: a kind, a message, and an
// unwrappable inner error.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same ErrorKind, so callers can
// write errors.Is(err, provider.Err(provider.TransactionNotFound)).
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

// Err constructs a bare sentinel for a kind, usable with errors.Is.
func Err(kind ErrorKind) *Error {
	return &Error{Kind: kind}
}

// Wrap builds an *Error with context, the constructor every driver uses.
func Wrap(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// rpcErrorCode maps a JSON-RPC error.code onto the closed taxonomy in
// spec.md §7. Codes follow the EIP-1474 / standard JSON-RPC ranges.
func rpcErrorCode(code int, message string) ErrorKind {
	switch code {
	case -32700:
		return ParseError
	case -32600:
		return InvalidRequest
	case -32601:
		return MethodNotFound
	case -32602:
		return InvalidParams
	case -32603:
		return UnexpectedErrorFound
	case -32000:
		return InvalidInput
	case -32001:
		return ResourceNotFound
	case -32002:
		return ResourceUnavailable
	case -32003:
		return TransactionRejected
	case -32004:
		return MethodNotSupported
	case -32005:
		return TooManyRequestError
	case -32006:
		return RpcVersionNotSupported
	case 4001:
		return UserRejectedRequest
	case 4100:
		return Unauthorized
	case 4200:
		return UnsupportedMethod
	case 4900:
		return Disconnected
	case 4901:
		return ChainDisconnected
	case 3:
		return EvmFailedToExecute
	default:
		return UnexpectedRpcErrorCode
	}
}

// isTooManyRequests reports whether an RPC error, or an HTTP status code,
// is the single retryable "rate limited" signal spec.md §7 describes.
func isTooManyRequests(kind ErrorKind) bool {
	return kind == TooManyRequestError
}
