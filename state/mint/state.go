package mint

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"

	"github.com/fedibtc/minimint/consensus"
	model "github.com/fedibtc/minimint/model/mint"
	"github.com/fedibtc/minimint/module/signature"
	"github.com/fedibtc/minimint/storage"
)

// State is the mint's consensus state. It buffers client requests for
// proposal and applies agreed batches to the ledger: newly agreed requests
// are accepted and signed with this node's key share, and once enough peers'
// shares for a request were agreed on, the final signatures are recovered.
//
// Submissions may arrive concurrently with the application of a batch, but
// batches must be applied one at a time.
type State struct {
	log     zerolog.Logger
	me      model.PeerID
	cfg     Config
	ledger  storage.Ledger
	keys    *signature.PublicKeySet
	signer  *Signer
	pending *pendingBuffer
	seen    *lru.Cache // IDs of requests known to be accepted
}

var _ consensus.State = (*State)(nil)

// New creates the mint state of the given peer. The key share must be the
// peer's share of the federation key described by keys.
func New(
	log zerolog.Logger,
	me model.PeerID,
	ledger storage.Ledger,
	keys *signature.PublicKeySet,
	key *signature.SecretKeyShare,
	opts ...OptionFunc,
) (*State, error) {

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if key.Index() != int(me) {
		return nil, fmt.Errorf("key share %d does not belong to peer %d", key.Index(), me)
	}
	if cfg.MaxProposalItems == 0 || cfg.MaxPendingItems == 0 {
		return nil, fmt.Errorf("proposal and pending limits must be positive")
	}

	seen, err := lru.New(int(cfg.SeenCacheSize))
	if err != nil {
		return nil, fmt.Errorf("could not create seen cache: %w", err)
	}

	s := &State{
		log:     log.With().Str("component", "mint_state").Logger(),
		me:      me,
		cfg:     cfg,
		ledger:  ledger,
		keys:    keys,
		signer:  NewSigner(key, cfg.SigningWorkers),
		pending: newPendingBuffer(cfg.MaxPendingItems),
		seen:    seen,
	}

	// share sets computed before a restart are proposed again
	outgoing, err := ledger.OutgoingShares()
	if err != nil {
		s.signer.Stop()
		return nil, fmt.Errorf("could not load outgoing shares: %w", err)
	}
	for _, sig := range outgoing {
		item := model.NewPartialSignatureItem(sig)
		s.pending.Push(item.ID(), item)
	}
	if len(outgoing) > 0 {
		s.log.Info().Int("shares", len(outgoing)).Msg("restored outgoing signature shares")
	}

	return s, nil
}

// Stop releases the signing workers.
func (s *State) Stop() {
	s.signer.Stop()
}

// GetConsensusProposal returns the oldest pending items. The items stay
// pending until a batch containing them was applied.
func (s *State) GetConsensusProposal() model.Proposal {
	return s.pending.Snapshot(s.cfg.MaxProposalItems)
}

// SubmitClientRequest buffers a client request for a future proposal.
// Expected errors during normal operations:
//   - model.RejectError if the request is malformed, known or the buffer is full
func (s *State) SubmitClientRequest(req *model.ClientRequest) error {
	err := s.wellFormed(req)
	if err != nil {
		return err
	}

	requestID := req.ID()
	item := model.NewClientRequestItem(req)
	itemID := item.ID()

	if s.pending.Has(itemID) {
		return model.NewRejectErrorf(model.RejectDuplicate, "request %s is already pending", requestID)
	}
	accepted, err := s.accepted(requestID)
	if err != nil {
		return fmt.Errorf("could not check request %s: %w", requestID, err)
	}
	if accepted {
		signed, err := s.signed(requestID)
		if err != nil {
			return err
		}
		if signed {
			return model.NewRejectErrorf(model.RejectAlreadySigned, "request %s was already signed", requestID)
		}
		return model.NewRejectErrorf(model.RejectDuplicate, "request %s was accepted and awaits signatures", requestID)
	}
	if !s.pending.Add(itemID, item) {
		return model.NewRejectErrorf(model.RejectPendingFull, "%d requests pending", s.cfg.MaxPendingItems)
	}

	s.log.Debug().
		Hex("request_id", requestID[:]).
		Int("messages", len(req.Messages)).
		Msg("client request buffered")

	return nil
}

func (s *State) wellFormed(req *model.ClientRequest) error {
	if req == nil || len(req.Messages) == 0 {
		return model.NewRejectErrorf(model.RejectEmpty, "request has no messages")
	}
	if uint(len(req.Messages)) > s.cfg.MaxRequestMessages {
		return model.NewRejectErrorf(model.RejectTooLarge, "request has %d messages, at most %d allowed", len(req.Messages), s.cfg.MaxRequestMessages)
	}
	for i, msg := range req.Messages {
		if len(msg) == 0 {
			return model.NewRejectErrorf(model.RejectEmpty, "message %d is empty", i)
		}
	}
	return nil
}

func (s *State) accepted(requestID model.Identifier) (bool, error) {
	if s.seen.Contains(requestID) {
		return true, nil
	}
	accepted, err := s.ledger.IsAccepted(requestID)
	if err != nil {
		return false, err
	}
	if accepted {
		s.seen.Add(requestID, struct{}{})
	}
	return accepted, nil
}

// ProcessConsensusOutcome applies an agreed batch and returns the signatures
// it completed. Batches must be applied in increasing epoch order; a batch
// the ledger already contains is skipped, so batches replayed after a restart
// are harmless. Any error is fatal.
func (s *State) ProcessConsensusOutcome(ctx context.Context, batch *model.Batch) ([]*model.SigResponse, error) {
	log := s.log.With().Uint64("epoch", batch.Epoch).Logger()

	next, err := s.ledger.NextEpoch()
	if err != nil {
		return nil, fmt.Errorf("could not get next epoch: %w", err)
	}
	if batch.Epoch < next {
		log.Info().Uint64("next_epoch", next).Msg("skipping already applied batch")
		s.pending.Remove(itemIDs(batch)...)
		return nil, nil
	}

	app := newApplication(batch.Epoch)
	var partials []model.ContributedItem
	for _, contributed := range batch.Items() {
		if !app.first(contributed.Item) {
			continue
		}
		switch contributed.Item.Kind() {
		case model.ItemClientRequest:
			err = s.applyRequest(app, contributed.Peer, contributed.Item.ClientRequest)
			if err != nil {
				return nil, fmt.Errorf("could not apply client request: %w", err)
			}
		case model.ItemPartialSignature:
			if contributed.Peer == s.me {
				app.settle(contributed.Item.PartialSignature.RequestID)
			}
			// shares are checked once every request of the batch is known
			partials = append(partials, contributed)
		default:
			log.Warn().Uint16("peer", uint16(contributed.Peer)).Msg("skipping invalid item")
		}
	}

	for _, contributed := range partials {
		err = s.applyShares(app, contributed.Peer, contributed.Item.PartialSignature)
		if err != nil {
			return nil, fmt.Errorf("could not apply signature shares: %w", err)
		}
	}

	err = s.finish(app)
	if err != nil {
		return nil, fmt.Errorf("could not recover signatures: %w", err)
	}

	own, err := s.sign(ctx, app.update.Accepted)
	if err != nil {
		return nil, fmt.Errorf("could not sign accepted requests: %w", err)
	}
	for _, item := range own {
		app.update.Outgoing = append(app.update.Outgoing, item.PartialSignature)
	}

	err = s.ledger.ApplyEpoch(app.update)
	if err != nil {
		return nil, fmt.Errorf("could not apply epoch update: %w", err)
	}

	for _, req := range app.update.Accepted {
		s.seen.Add(req.ID(), struct{}{})
	}
	s.pending.Remove(itemIDs(batch)...)
	for _, item := range own {
		s.pending.Push(item.ID(), item)
	}

	log.Info().
		Int("accepted", len(app.update.Accepted)).
		Int("shares", len(app.update.Shares)).
		Int("signed", len(app.update.Finished)).
		Msg("batch applied")

	return app.update.Finished, nil
}

func (s *State) applyRequest(app *application, peer model.PeerID, req *model.ClientRequest) error {
	if s.wellFormed(req) != nil {
		s.log.Warn().
			Uint64("epoch", app.update.Epoch).
			Uint16("peer", uint16(peer)).
			Msg("skipping malformed client request")
		return nil
	}

	requestID := req.ID()
	accepted, err := s.accepted(requestID)
	if err != nil {
		return fmt.Errorf("could not check request %s: %w", requestID, err)
	}
	if accepted {
		return nil
	}

	app.accept(requestID, req)
	return nil
}

func (s *State) applyShares(app *application, peer model.PeerID, sig *model.PartialSignature) error {
	log := s.log.With().
		Uint64("epoch", app.update.Epoch).
		Uint16("peer", uint16(peer)).
		Hex("request_id", sig.RequestID[:]).
		Logger()

	if sig.Peer != peer {
		log.Warn().Uint16("signer", uint16(sig.Peer)).Msg("skipping shares contributed on behalf of another peer")
		return nil
	}

	req, err := s.request(app, sig.RequestID)
	if errors.Is(err, storage.ErrNotFound) {
		log.Warn().Msg("skipping shares for unknown request")
		return nil
	}
	if err != nil {
		return err
	}

	done, err := s.signed(sig.RequestID)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	stored, err := s.ledger.Shares(sig.RequestID)
	if err != nil {
		return fmt.Errorf("could not get shares of request %s: %w", sig.RequestID, err)
	}
	for _, prior := range stored {
		if prior.Peer == peer {
			log.Debug().Msg("skipping repeated shares")
			return nil
		}
	}

	err = s.verifyShares(req, sig)
	if err != nil {
		log.Warn().Err(err).Msg("skipping invalid shares")
		return nil
	}

	app.addShares(sig, stored)
	return nil
}

// request returns an accepted request, looking at the batch being applied first.
func (s *State) request(app *application, requestID model.Identifier) (*model.ClientRequest, error) {
	req, ok := app.accepted[requestID]
	if ok {
		return req, nil
	}
	req, err := s.ledger.AcceptedRequest(requestID)
	if err != nil {
		return nil, fmt.Errorf("could not get request %s: %w", requestID, err)
	}
	return req, nil
}

func (s *State) signed(requestID model.Identifier) (bool, error) {
	_, err := s.ledger.Response(requestID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("could not get response for request %s: %w", requestID, err)
	}
	return true, nil
}

func (s *State) verifyShares(req *model.ClientRequest, sig *model.PartialSignature) error {
	if len(sig.Shares) != len(req.Messages) {
		return fmt.Errorf("got %d shares for %d messages", len(sig.Shares), len(req.Messages))
	}
	for i, msg := range req.Messages {
		err := s.keys.VerifyShare(int(sig.Peer), msg, sig.Shares[i])
		if err != nil {
			return fmt.Errorf("invalid share for message %d: %w", i, err)
		}
	}
	return nil
}

// finish recovers the signatures of every request which reached the threshold.
func (s *State) finish(app *application) error {
	for _, requestID := range app.touched {
		sets := app.shares[requestID]
		if len(sets) < s.keys.Threshold() {
			continue
		}

		req, err := s.request(app, requestID)
		if err != nil {
			return err
		}

		signatures := make([][]byte, 0, len(req.Messages))
		for i, msg := range req.Messages {
			shares := make(map[int][]byte, len(sets))
			for _, set := range sets {
				shares[int(set.Peer)] = set.Shares[i]
			}
			sig, err := s.keys.Combine(shares)
			if err != nil {
				return fmt.Errorf("could not combine shares of message %d of request %s: %w", i, requestID, err)
			}
			err = s.keys.Verify(msg, sig)
			if err != nil {
				return fmt.Errorf("recovered invalid signature for message %d of request %s: %w", i, requestID, err)
			}
			signatures = append(signatures, sig)
		}

		app.settle(requestID)
		app.update.Finished = append(app.update.Finished, &model.SigResponse{
			RequestID:  requestID,
			Epoch:      app.update.Epoch,
			Signatures: signatures,
		})
	}
	return nil
}

// sign computes this node's shares for the newly accepted requests, to be
// contributed in a later epoch.
func (s *State) sign(ctx context.Context, accepted []*model.ClientRequest) ([]*model.ConsensusItem, error) {
	items := make([]*model.ConsensusItem, 0, len(accepted))
	for _, req := range accepted {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		shares, err := s.signer.SignAll(req.Messages)
		if err != nil {
			return nil, fmt.Errorf("could not sign request %s: %w", req.ID(), err)
		}
		items = append(items, model.NewPartialSignatureItem(&model.PartialSignature{
			RequestID: req.ID(),
			Peer:      s.me,
			Shares:    shares,
		}))
	}
	return items, nil
}

func itemIDs(batch *model.Batch) []model.Identifier {
	ids := make([]model.Identifier, 0, batch.Size())
	for _, contributed := range batch.Items() {
		ids = append(ids, contributed.Item.ID())
	}
	return ids
}
