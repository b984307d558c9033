package protocol

import "errors"

var (
	ErrUnknownKind         = errors.New("protocol: unknown message kind")
	ErrUnexpectedMessage   = errors.New("protocol: message type not valid in this direction")
	ErrInvalidField        = errors.New("protocol: invalid field value")
	ErrInvalidCardEncoding = errors.New("protocol: invalid card encoding")
)
