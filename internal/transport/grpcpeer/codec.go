// Package grpcpeer implements the cross-process Peer transport: each
// rank runs a small gRPC server for incoming exchanges and a client
// that talks to its partners and to a coordinator rank for collectives.
package grpcpeer

import (
	"bytes"
	"encoding/gob"

	"google.golang.org/grpc/encoding"
)

// codecName names the gob-based codec this package registers with gRPC,
// used in place of protobuf since the messages exchanged here are
// plain int32 payloads with no schema evolution concerns.
const codecName = "gob"

func init() {
	encoding.RegisterCodec(gobCodec{})
}

type gobCodec struct{}

func (gobCodec) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobCodec) Unmarshal(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func (gobCodec) Name() string { return codecName }
