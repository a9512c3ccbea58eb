// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pebblechain/pebblechain/business/web/errs"
	"github.com/pebblechain/pebblechain/foundation/events"
	"github.com/pebblechain/pebblechain/foundation/ledger/chain"
	"github.com/pebblechain/pebblechain/foundation/ledger/transaction"
	"github.com/pebblechain/pebblechain/foundation/nameservice"
	"github.com/pebblechain/pebblechain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of public endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	Chain *chain.Chain
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide chain events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	traceID := web.GetTraceID(ctx)

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(traceID)
	defer h.Evts.Release(traceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitTransaction adds a new transaction to the mempool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nt newTx
	if err := web.Decode(r, &nt); err != nil {
		return err
	}

	from, err := transaction.ToAddress(nt.From)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	to, err := transaction.ToAddress(nt.To)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	tx := transaction.New(from, to, nt.Amount, nt.Nonce)

	h.Log.Infow("add tran", "traceid", web.GetTraceID(ctx), "tx", tx)
	if err := h.Chain.SubmitTransaction(tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
		Hash   string `json:"hash"`
	}{
		Status: "transaction added to mempool",
		Hash:   tx.Hash().Hex(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions in mining order.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pending := h.Chain.Uncommitted()

	trans := make([]tx, len(pending))
	for i, t := range pending {
		trans[i] = toTx(t, h.NS)
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// SignalMining pulls the next batch from the mempool and mines a block
// over it. An empty mempool leaves the chain unchanged.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	before := h.Chain.Length()

	if err := h.Chain.AddBlock(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return errs.NewTrusted(err, http.StatusRequestTimeout)
		}
		return err
	}

	if h.Chain.Length() == before {
		resp := struct {
			Status string `json:"status"`
		}{
			Status: "no pending transactions",
		}
		return web.Respond(ctx, w, resp, http.StatusOK)
	}

	latest, _ := h.Chain.LatestBlock()
	return web.Respond(ctx, w, toBlk(latest, h.NS), http.StatusOK)
}

// Blocks returns the whole chain, or a single block when an index is
// specified in the route.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if param := web.Param(r, "index"); param != "" {
		index, err := strconv.Atoi(param)
		if err != nil {
			return errs.NewTrusted(errors.New("index is not a number"), http.StatusBadRequest)
		}

		b, exists := h.Chain.GetBlock(index)
		if !exists {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		return web.Respond(ctx, w, toBlk(b, h.NS), http.StatusOK)
	}

	blocks := make([]blk, h.Chain.Length())
	for i := range blocks {
		b, _ := h.Chain.GetBlock(i)
		blocks[i] = toBlk(b, h.NS)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// Latest returns the block at the tail of the chain.
func (h Handlers) Latest(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latest, exists := h.Chain.LatestBlock()
	if !exists {
		return errs.NewTrusted(chain.ErrEmptyChain, http.StatusNotFound)
	}

	return web.Respond(ctx, w, toBlk(latest, h.NS), http.StatusOK)
}

// Verify walks the chain re-deriving hashes and re-checking the linkage.
func (h Handlers) Verify(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := h.Chain.Verify(); err != nil {
		return errs.NewTrusted(err, http.StatusConflict)
	}

	resp := struct {
		Status string `json:"status"`
		Length int    `json:"length"`
	}{
		Status: "chain verified",
		Length: h.Chain.Length(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Status returns summary information about the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latest, _ := h.Chain.LatestBlock()

	resp := struct {
		LatestBlock string `json:"latest_block"`
		Length      int    `json:"length"`
		Difficulty  uint32 `json:"difficulty"`
		Uncommitted int    `json:"uncommitted"`
	}{
		LatestBlock: latest.Hash.Hex(),
		Length:      h.Chain.Length(),
		Difficulty:  h.Chain.Difficulty(),
		Uncommitted: h.Chain.MempoolCount(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
