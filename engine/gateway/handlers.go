package gateway

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/fedibtc/minimint/model/mint"
	"github.com/fedibtc/minimint/storage"
)

func (g *Gateway) postRequest(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(g.log, r)

	var body RequestBody
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, g.cfg.MaxBodyBytes))
	decoder.DisallowUnknownFields()
	err := decoder.Decode(&body)
	if err != nil {
		g.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %s", err), log)
		return
	}

	req := &mint.ClientRequest{Messages: make([][]byte, 0, len(body.Messages))}
	for i, msg := range body.Messages {
		decoded, err := hex.DecodeString(msg)
		if err != nil {
			g.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid message %d: %s", i, err), log)
			return
		}
		req.Messages = append(req.Messages, decoded)
	}

	ctx, cancel := context.WithTimeout(r.Context(), g.cfg.SubmitTimeout)
	defer cancel()

	id, err := g.Submit(ctx, req)
	if err != nil {
		reason, rejected := mint.RejectReasonOf(err)
		switch {
		case rejected && reason == mint.RejectPendingFull:
			g.errorResponse(w, http.StatusServiceUnavailable, err.Error(), log)
		case rejected:
			g.errorResponse(w, http.StatusBadRequest, err.Error(), log)
		case errors.Is(err, ErrGatewayStopped), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			log.Warn().Err(err).Msg("could not hand request to the federation")
			g.errorResponse(w, http.StatusServiceUnavailable, "federation is busy, retry later", log)
		default:
			log.Error().Err(err).Msg("could not submit request")
			g.errorResponse(w, http.StatusInternalServerError, "internal error", log)
		}
		return
	}

	g.jsonResponse(w, http.StatusAccepted, SubmitResult{ID: id.String()}, log)
}

func (g *Gateway) getRequest(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(g.log, r)

	id, err := mint.HexStringToIdentifier(mux.Vars(r)["id"])
	if err != nil {
		g.errorResponse(w, http.StatusBadRequest, "invalid ID format", log)
		return
	}

	resp, err := g.Response(id)
	if errors.Is(err, storage.ErrNotFound) {
		g.errorResponse(w, http.StatusNotFound, fmt.Sprintf("no signatures for request %s", id), log)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("could not look up response")
		g.errorResponse(w, http.StatusInternalServerError, "internal error", log)
		return
	}

	signatures := make([]string, 0, len(resp.Signatures))
	for _, sig := range resp.Signatures {
		signatures = append(signatures, hex.EncodeToString(sig))
	}
	g.jsonResponse(w, http.StatusOK, SigResponse{
		ID:         resp.RequestID.String(),
		Epoch:      resp.Epoch,
		Signatures: signatures,
	}, log)
}

func (g *Gateway) getStatus(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(g.log, r)

	next, err := g.ledger.NextEpoch()
	if err != nil {
		log.Error().Err(err).Msg("could not read next epoch")
		g.errorResponse(w, http.StatusInternalServerError, "internal error", log)
		return
	}

	g.jsonResponse(w, http.StatusOK, Status{
		PeerID:    uint16(g.me),
		NextEpoch: next,
	}, log)
}

func (g *Gateway) jsonResponse(w http.ResponseWriter, code int, payload interface{}, log zerolog.Logger) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode response")
		g.errorResponse(w, http.StatusInternalServerError, "error generating response", log)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(code)
	_, err = w.Write(encoded)
	if err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func (g *Gateway) errorResponse(w http.ResponseWriter, code int, message string, log zerolog.Logger) {
	encoded, err := json.Marshal(ModelError{
		Code:    int32(code),
		Message: message,
	})
	if err != nil {
		log.Error().Str("response_message", message).Msg("failed to json encode error message")
		w.WriteHeader(code)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(code)
	_, err = w.Write(encoded)
	if err != nil {
		log.Error().Err(err).Msg("failed to send error response")
	}
}
