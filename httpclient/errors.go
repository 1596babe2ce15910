package httpclient

import "errors"

var (
	errRequestTooLarge         = errors.New("request exceeds 2048-byte buffer")
	errMissingHeaderTerminator = errors.New("response missing \\r\\n\\r\\n terminator")
	errMissingStatusLine       = errors.New("response missing status line")
	errMalformedStatusLine     = errors.New("malformed status line")
	errMalformedHeaderLine     = errors.New("malformed header line")
	errHeaderTooLarge          = errors.New("header name or value exceeds bound")
	errTooManyHeaders          = errors.New("more than 16 headers")
	errBodyOverflow            = errors.New("body exceeds 2048-byte buffer")
)
