package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	jarviscommon "github.com/tranvictor/approvalscan/common"
	"github.com/tranvictor/approvalscan/networks"
	"github.com/tranvictor/approvalscan/scan"
)

const CodeInvalidRequest = "INVALID_REQUEST"

type ScanRequest struct {
	Address string  `json:"address"`
	ChainID *uint64 `json:"chain_id,omitempty"`
}

type ValidateRequest struct {
	Address string `json:"address"`
}

type ValidateChainRequest struct {
	ChainID uint64 `json:"chain_id"`
}

type ValidateChainResponse struct {
	Supported bool   `json:"supported"`
	Name      string `json:"name,omitempty"`
	Error     string `json:"error,omitempty"`
}

type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusOf(code string) int {
	switch code {
	case jarviscommon.CodeInvalidAddress, jarviscommon.CodeUnsupportedChain, CodeInvalidRequest:
		return http.StatusBadRequest
	case jarviscommon.CodeChainUnavailable, jarviscommon.CodeResolutionIncomplete:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := jarviscommon.ErrorCode(err)
	body := ErrorBody{
		Code:      code,
		Message:   err.Error(),
		Retryable: jarviscommon.Retryable(err),
	}
	if code == jarviscommon.CodeInternal {
		s.logger.Error("request failed",
			zap.String("request_id", r.Header.Get(HeaderRequestID)),
			zap.Error(err),
		)
		body.Message = "internal error"
	}
	writeJSON(w, statusOf(code), ErrorResponse{Error: body})
}

func (s *Server) badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorBody{
		Code:    CodeInvalidRequest,
		Message: message,
	}})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, fmt.Sprintf("malformed request body: %s", err))
		return
	}
	chainID := uint64(DEFAULT_CHAIN_ID)
	if req.ChainID != nil {
		chainID = *req.ChainID
	}
	s.scan(w, r, req.Address, chainID)
}

func (s *Server) handleScanByPath(w http.ResponseWriter, r *http.Request) {
	chainID := uint64(DEFAULT_CHAIN_ID)
	if raw := r.URL.Query().Get("chain_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			s.badRequest(w, fmt.Sprintf("chain_id %q is not a number", raw))
			return
		}
		chainID = id
	}
	s.scan(w, r, chi.URLParam(r, "address"), chainID)
}

// scan answers 200 for complete and incomplete reports alike; the latter
// carry status "incomplete" in the body and in X-Scan-Status.
func (s *Server) scan(w http.ResponseWriter, r *http.Request, address string, chainID uint64) {
	result, err := s.scanner.Scan(r.Context(), address, chainID)
	if err != nil && (result == nil || !errors.Is(err, jarviscommon.ErrResolutionIncomplete)) {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set(HeaderScanStatus, result.Status)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, fmt.Sprintf("malformed request body: %s", err))
		return
	}
	writeJSON(w, http.StatusOK, jarviscommon.ValidateAddress(req.Address))
}

func (s *Server) handleValidateChain(w http.ResponseWriter, r *http.Request) {
	var req ValidateChainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, fmt.Sprintf("malformed request body: %s", err))
		return
	}
	network, err := networks.GetNetworkByID(req.ChainID)
	if err != nil {
		writeJSON(w, http.StatusOK, ValidateChainResponse{
			Error: fmt.Sprintf("Chain %d is not supported.", req.ChainID),
		})
		return
	}
	writeJSON(w, http.StatusOK, ValidateChainResponse{Supported: true, Name: network.GetDisplayName()})
}

var _ Scanner = (*scan.Service)(nil)
