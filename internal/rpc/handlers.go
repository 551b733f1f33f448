package rpc

import (
	"context"

	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

func (s *Server) handleGetInfo(ctx context.Context, _ *Request) (interface{}, *Error) {
	info, err := s.ledger.Info(ctx)
	if err != nil {
		return nil, ledgerError(err)
	}
	return info, nil
}

func (s *Server) handleOutputIDsByAddress(ctx context.Context, req *Request) (interface{}, *Error) {
	var params AddressParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.Address == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "address is required"}
	}
	addr, err := types.ParseAddress(params.Address)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: err.Error()}
	}

	ids, err := s.ledger.BasicOutputIDs(ctx, addr)
	if err != nil {
		return nil, ledgerError(err)
	}
	if ids == nil {
		ids = []types.OutputID{}
	}
	return &OutputIDsResult{Items: ids}, nil
}

func (s *Server) handleOutputGet(ctx context.Context, req *Request) (interface{}, *Error) {
	var params OutputIDsParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if len(params.OutputIDs) == 0 {
		return nil, &Error{Code: CodeInvalidParams, Message: "outputIds is required"}
	}

	outs, err := s.ledger.Outputs(ctx, params.OutputIDs)
	if err != nil {
		return nil, ledgerError(err)
	}
	return &OutputsResult{Outputs: outs}, nil
}

func (s *Server) handleOutputGetMetadata(ctx context.Context, req *Request) (interface{}, *Error) {
	var params OutputIDParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.OutputID.IsZero() {
		return nil, &Error{Code: CodeInvalidParams, Message: "outputId is required"}
	}

	meta, err := s.ledger.OutputMetadata(ctx, params.OutputID)
	if err != nil {
		return nil, ledgerError(err)
	}
	return meta, nil
}

func (s *Server) handleSubmitPayload(ctx context.Context, req *Request) (interface{}, *Error) {
	var params PayloadParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.Payload == nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "payload is required"}
	}
	if err := params.Payload.Validate(); err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "invalid payload: " + err.Error()}
	}

	blockID, err := s.ledger.SubmitPayload(ctx, params.Payload)
	if err != nil {
		return nil, ledgerError(err)
	}
	return &SubmitResult{BlockID: blockID, TransactionID: params.Payload.ID()}, nil
}

func (s *Server) handleBlockGet(ctx context.Context, req *Request) (interface{}, *Error) {
	var params BlockIDParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	blk, err := s.ledger.Block(ctx, params.BlockID)
	if err != nil {
		return nil, ledgerError(err)
	}
	return blk, nil
}

func (s *Server) handleIncludedBlock(ctx context.Context, req *Request) (interface{}, *Error) {
	var params TransactionIDParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	blk, err := s.ledger.IncludedBlock(ctx, params.TransactionID)
	if err != nil {
		return nil, ledgerError(err)
	}
	return blk, nil
}
