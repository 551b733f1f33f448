// Package stamp runs the two-leg stamp flow: a request payment carrying an
// upload URI to the counterparty, then a funding payment whose recipient
// and amount come from the counterparty's on-ledger reply.
package stamp

import (
	"errors"
	"fmt"
	"math"

	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

// RequestTypeStamp is the only request type the counterparty answers.
const RequestTypeStamp = "STAMP"

// ErrInvalidResponse is returned for replies that cannot parameterize the
// funding leg.
var ErrInvalidResponse = errors.New("invalid stamp response")

// Request is the payload of the request leg.
type Request struct {
	RequestType string `json:"requestType"`
	URI         string `json:"uri"`
}

// RequestMetadata is the metadata object embedded in the request output.
type RequestMetadata struct {
	Request Request `json:"request"`
}

// NewRequestMetadata returns the request-leg metadata for uri.
func NewRequestMetadata(uri string) RequestMetadata {
	return RequestMetadata{Request: Request{RequestType: RequestTypeStamp, URI: uri}}
}

// Response is the counterparty's reply to a stamp request.
type Response struct {
	AmountToMint uint64 `json:"amountToMint"`
	DailyCost    uint64 `json:"dailyCost"`
	Address      string `json:"address"`
	Stamp        string `json:"stamp"`
}

// ResponseMetadata is the metadata object carried by the reply.
type ResponseMetadata struct {
	Response Response `json:"response"`
}

// FundingAmount returns AmountToMint + DailyCost*days.
func (r *Response) FundingAmount(days uint64) (uint64, error) {
	if days > 0 && r.DailyCost > math.MaxUint64/days {
		return 0, fmt.Errorf("%w: daily cost %d x %d days overflows", ErrInvalidResponse, r.DailyCost, days)
	}
	running := r.DailyCost * days
	if r.AmountToMint > math.MaxUint64-running {
		return 0, fmt.Errorf("%w: funding amount overflows", ErrInvalidResponse)
	}
	return r.AmountToMint + running, nil
}

// FundingAddress parses the address the funding leg pays.
func (r *Response) FundingAddress() (types.Address, error) {
	if r.Address == "" {
		return types.Address{}, fmt.Errorf("%w: missing address", ErrInvalidResponse)
	}
	addr, err := types.ParseAddress(r.Address)
	if err != nil {
		return types.Address{}, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return addr, nil
}
