// Package evm talks to the Billboard contract over JSON-RPC. It is the
// production adapter for the authority port: reads are plain eth_call, writes
// go through the custodial server wallet that the contract owner has
// authorized for on-behalf bids.
package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/billboard-mafia/backend/config"
	"github.com/billboard-mafia/backend/internal/authority"
	"github.com/billboard-mafia/backend/internal/billboard"
)

// Client implements authority.Authority and authority.Treasury against the
// deployed contract.
type Client struct {
	eth      *ethclient.Client
	contract *bind.BoundContract
	signer   *bind.TransactOpts
	operator common.Address
	timeout  time.Duration
	logger   *zap.Logger

	// txMu serializes custodial submissions. One shared wallet signs every
	// on-behalf transaction; concurrent submissions would race on the pending
	// nonce. Held for signing and broadcast only, not while waiting for the
	// receipt.
	txMu sync.Mutex
}

var _ authority.Authority = (*Client)(nil)
var _ authority.Treasury = (*Client)(nil)

// Dial connects to the RPC endpoint and binds the Billboard contract.
func Dial(ctx context.Context, cfg config.ChainConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	parsed, err := abi.JSON(strings.NewReader(billboardABI))
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.SignerPrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse signer key: %w", err)
	}
	signer, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(cfg.ChainID))
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}
	addr := common.HexToAddress(cfg.BillboardAddress)
	contract := bind.NewBoundContract(addr, parsed, eth, eth, eth)
	logger.Info("billboard contract bound",
		zap.String("contract", addr.Hex()),
		zap.String("operator", signer.From.Hex()),
		zap.Int64("chain_id", cfg.ChainID),
	)
	return &Client{
		eth:      eth,
		contract: contract,
		signer:   signer,
		operator: signer.From,
		timeout:  cfg.CallTimeoutTime(),
		logger:   logger,
	}, nil
}

// Operator returns the custodial signer's address.
func (c *Client) Operator() string { return c.operator.Hex() }

// Close releases the RPC connection.
func (c *Client) Close() { c.eth.Close() }

func (c *Client) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) call(ctx context.Context, out *[]interface{}, method string, args ...interface{}) error {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, out, method, args...); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func (c *Client) transact(ctx context.Context, method string, args ...interface{}) (string, error) {
	opts := *c.signer
	opts.Context = ctx

	c.txMu.Lock()
	tx, err := c.contract.Transact(&opts, method, args...)
	c.txMu.Unlock()
	if err != nil {
		return "", mapRevert(err)
	}

	ctx, cancel := c.callCtx(ctx)
	defer cancel()
	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return "", fmt.Errorf("%s: wait mined: %w", method, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("%s: transaction %s reverted", method, tx.Hash().Hex())
	}
	return tx.Hash().Hex(), nil
}

// mapRevert normalizes contract revert reasons to port sentinels. Unmatched
// errors pass through wrapped; handlers log them and respond generically.
func mapRevert(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Round already finalized"):
		return authority.ErrAlreadyFinalized
	case strings.Contains(msg, "Bidding is closed"),
		strings.Contains(msg, "Bidding closed"),
		strings.Contains(msg, "Bidding not open"):
		return authority.ErrWindowClosed
	case strings.Contains(msg, "Bid below minimum"):
		return authority.ErrBidTooLow
	case strings.Contains(msg, "Bid too low"),
		strings.Contains(msg, "Bid must be higher"),
		strings.Contains(msg, "Bid must be 10% higher"):
		return &authority.OutbidError{}
	case strings.Contains(msg, "Only owner"):
		return authority.ErrNotAuthorized
	}
	return err
}

func slotArg(slot billboard.Slot) *big.Int {
	return big.NewInt(int64(slot))
}

// SubmitBid relays a validated bid via placeBidFor. On an outbid revert the
// slot's current highest is fetched best-effort so the caller can echo it.
func (c *Client) SubmitBid(ctx context.Context, bid billboard.BidRequest) (string, error) {
	hash, err := c.transact(ctx, "placeBidFor",
		slotArg(bid.Slot),
		common.HexToAddress(bid.Advertiser),
		bid.ImageURL,
		bid.LinkURL,
		bid.Title,
		billboard.ToBaseUnits(bid.Amount),
	)
	if err != nil {
		if oe, ok := authority.AsOutbid(err); ok && oe.Highest == nil {
			if highest, herr := c.readHighestBid(ctx, bid.Slot); herr == nil {
				return "", &authority.OutbidError{Highest: highest}
			}
		}
		return "", err
	}
	return hash, nil
}

func (c *Client) readHighestBid(ctx context.Context, slot billboard.Slot) (*big.Int, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "highestBid", slotArg(slot)); err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// FinalizeRound settles the current round for a slot.
func (c *Client) FinalizeRound(ctx context.Context, slot billboard.Slot) (string, error) {
	return c.transact(ctx, "finalizeRound", slotArg(slot))
}

// ReadAllSlots fetches each slot's occupant and minimum.
func (c *Client) ReadAllSlots(ctx context.Context) ([]billboard.SlotState, error) {
	out := make([]billboard.SlotState, 0, len(billboard.AllSlots()))
	for _, slot := range billboard.AllSlots() {
		var ad []interface{}
		if err := c.call(ctx, &ad, "getSlotAd", slotArg(slot)); err != nil {
			return nil, err
		}
		min, err := c.ReadMinimumBid(ctx, slot)
		if err != nil {
			return nil, err
		}
		out = append(out, billboard.SlotState{
			Slot: slot,
			Ad: billboard.Ad{
				Advertiser: ad[0].(common.Address).Hex(),
				ImageURL:   ad[1].(string),
				LinkURL:    ad[2].(string),
				Title:      ad[3].(string),
				BidAmount:  ad[4].(*big.Int),
			},
			TimeRemaining: ad[5].(*big.Int).Uint64(),
			Active:        ad[6].(bool),
			MinimumBid:    min,
		})
	}
	return out, nil
}

// ReadBiddingStatus fetches the contract's window view.
func (c *Client) ReadBiddingStatus(ctx context.Context) (billboard.BiddingStatus, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "getBiddingStatus"); err != nil {
		return billboard.BiddingStatus{}, err
	}
	status := billboard.BiddingStatus{
		BiddingOpen:        out[0].(bool),
		CurrentRoundID:     out[1].(*big.Int).Uint64(),
		NextRoundID:        out[2].(*big.Int).Uint64(),
		TimeUntilBidding:   out[3].(*big.Int).Uint64(),
		TimeUntilNextRound: out[4].(*big.Int).Uint64(),
		HighestBids:        make(map[billboard.Slot]billboard.HighestBid, 2),
	}
	if amount := out[5].(*big.Int); amount.Sign() > 0 {
		status.HighestBids[billboard.SlotMain] = billboard.HighestBid{
			Amount: amount,
			Bidder: out[6].(common.Address).Hex(),
		}
	}
	if amount := out[7].(*big.Int); amount.Sign() > 0 {
		status.HighestBids[billboard.SlotSecondary] = billboard.HighestBid{
			Amount: amount,
			Bidder: out[8].(common.Address).Hex(),
		}
	}
	return status, nil
}

// ReadStats fetches lifetime totals.
func (c *Client) ReadStats(ctx context.Context) (billboard.Stats, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "getStats"); err != nil {
		return billboard.Stats{}, err
	}
	return billboard.Stats{
		TotalRevenue: out[0].(*big.Int),
		TotalBurned:  out[1].(*big.Int),
		TotalRounds:  out[2].(*big.Int).Uint64(),
	}, nil
}

// ReadMinimumBid fetches a slot's fixed minimum.
func (c *Client) ReadMinimumBid(ctx context.Context, slot billboard.Slot) (*big.Int, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "getMinimumBid", slotArg(slot)); err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// ReadPendingRefund fetches the refundable balance for an address.
func (c *Client) ReadPendingRefund(ctx context.Context, address string) (*big.Int, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "getPendingRefund", common.HexToAddress(address)); err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// ReadLastFinalizedRound fetches the last settled round for a slot.
func (c *Client) ReadLastFinalizedRound(ctx context.Context, slot billboard.Slot) (uint64, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "lastFinalizedRound", slotArg(slot)); err != nil {
		return 0, err
	}
	return out[0].(*big.Int).Uint64(), nil
}

// WithdrawRevenue moves accumulated revenue to the given address.
func (c *Client) WithdrawRevenue(ctx context.Context, to string) (string, error) {
	return c.transact(ctx, "withdrawRevenue", common.HexToAddress(to))
}

// RecordBurn reports a completed burn.
func (c *Client) RecordBurn(ctx context.Context, amount *big.Int) (string, error) {
	return c.transact(ctx, "recordBurn", amount)
}
