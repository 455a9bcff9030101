// Package api defines the GroupTab RPC surface: request and response
// messages, procedure names, and Connect handler and client constructors for
// GroupService and TransactionService.
//
// Messages are plain Go structs carried as JSON. Handlers and clients built
// here install Codec, so any Connect or plain HTTP client speaking
// "application/json" can call the services:
//
//	curl -X POST -H 'Content-Type: application/json' \
//	  -d '{"title":"Trip"}' http://localhost:8080/grouptab.v1.GroupService/CreateGroup
package api

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

var _ connect.Codec = Codec{}

// Codec marshals messages with encoding/json. It is registered under the
// name "json", replacing Connect's protobuf JSON codec.
type Codec struct{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	return data, nil
}

func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return nil
}
