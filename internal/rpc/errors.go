package rpc

import (
	"errors"

	"golang.org/x/exp/jsonrpc2"

	"github.com/marcogbarcellos/pgstudio/internal/pkg/apperr"
)

// JSON-RPC error codes. Application failures use the -32000 server range
// and always carry their kind in data.
const (
	CodeParseError     int64 = -32700
	CodeInvalidRequest int64 = -32600
	CodeMethodNotFound int64 = -32601
	CodeInvalidParams  int64 = -32602
	CodeInternal       int64 = -32603

	CodeConnection   int64 = -32001
	CodeNotConnected int64 = -32002
	CodeQuery        int64 = -32003
	CodeToolNotFound int64 = -32004
	CodeProcess      int64 = -32005
	CodeNotFound     int64 = -32006
	CodeAI           int64 = -32007
	CodeStorage      int64 = -32008
)

// ErrorData is attached to every application error.
type ErrorData struct {
	Kind string `json:"kind"`
}

var kindCodes = map[apperr.Kind]int64{
	apperr.Connection:   CodeConnection,
	apperr.NotConnected: CodeNotConnected,
	apperr.Query:        CodeQuery,
	apperr.ToolNotFound: CodeToolNotFound,
	apperr.Process:      CodeProcess,
	apperr.NotFound:     CodeNotFound,
	apperr.InvalidInput: CodeInvalidParams,
	apperr.AI:           CodeAI,
	apperr.Storage:      CodeStorage,
	apperr.Internal:     CodeInternal,
}

// toRPCError maps a handler error onto the wire. Query errors keep the
// server's own wording.
func toRPCError(err error) *RPCError {
	switch {
	case errors.Is(err, jsonrpc2.ErrMethodNotFound):
		return &RPCError{Code: CodeMethodNotFound, Message: err.Error()}
	case errors.Is(err, jsonrpc2.ErrInvalidParams):
		return &RPCError{Code: CodeInvalidParams, Message: err.Error(), Data: ErrorData{Kind: string(apperr.InvalidInput)}}
	}

	kind := apperr.KindOf(err)
	message := err.Error()
	if kind == apperr.Query {
		message = apperr.Detail(err)
	}
	code, ok := kindCodes[kind]
	if !ok {
		code = CodeInternal
	}
	return &RPCError{Code: code, Message: message, Data: ErrorData{Kind: string(kind)}}
}
