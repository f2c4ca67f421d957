// Package ledger is the in-process host for hosted contracts and escrow
// instances. It serializes every unit of work into one total order, makes
// each unit all-or-nothing through the contracts' journals, keeps a block
// height and publishes the events a unit emitted once it has committed.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/letmeget/swapgate/internal/pkg/apperrors"
	"github.com/letmeget/swapgate/internal/pkg/metrics"
	"github.com/letmeget/swapgate/internal/token"
)

// Journaled state can be rolled back to a snapshot taken earlier in the
// same unit of work.
type Journaled interface {
	Snapshot() int
	RevertToSnapshot(id int)
	Commit()
}

// Hosted is a contract living on the ledger.
type Hosted interface {
	Journaled
	As(caller common.Address) token.Contract
}

// Log is one event emitted by a unit of work.
type Log struct {
	Address common.Address
	Height  uint64
	Event   any
}

// Receipt describes a committed unit of work.
type Receipt struct {
	Height uint64
	Logs   []Log
}

type Options struct {
	Automine    bool
	StartHeight uint64
	Deployer    common.Address
}

type Ledger struct {
	mu       sync.Mutex
	height   uint64
	automine bool
	deployer common.Address
	nonce    uint64
	hosted   map[common.Address]Hosted

	subMu       sync.RWMutex
	subscribers []func(Receipt)
}

func New(opts Options) *Ledger {
	deployer := opts.Deployer
	if deployer == (common.Address{}) {
		deployer = common.HexToAddress("0x000000000000000000000000000000000000dEaD")
	}
	l := &Ledger{
		height:   opts.StartHeight,
		automine: opts.Automine,
		deployer: deployer,
		hosted:   make(map[common.Address]Hosted),
	}
	metrics.LedgerHeight.Set(float64(l.height))
	return l
}

// State is the read view handed to View callbacks and embedded in Tx.
type State interface {
	Height() uint64
	Contract(addr, caller common.Address) (token.Contract, error)
	Collection(addr common.Address) (*token.Collection, error)
}

// Tx is a unit of work in progress. It is only valid inside the Transact
// callback that received it.
type Tx struct {
	ledger *Ledger
	height uint64
	logs   []Log
}

func (tx *Tx) Height() uint64 { return tx.height }

func (tx *Tx) Contract(addr, caller common.Address) (token.Contract, error) {
	return tx.ledger.contractAt(addr, caller)
}

func (tx *Tx) Collection(addr common.Address) (*token.Collection, error) {
	return tx.ledger.collection(addr)
}

// Emit queues an event; it is published only if the unit of work commits.
func (tx *Tx) Emit(addr common.Address, event any) {
	tx.logs = append(tx.logs, Log{Address: addr, Height: tx.height, Event: event})
}

// Transact runs fn as one unit of work. If fn returns an error every hosted
// contract is reverted to its state before the call and no event is
// published.
func (l *Ledger) Transact(ctx context.Context, fn func(tx *Tx) error) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	snaps := make(map[common.Address]int, len(l.hosted))
	for addr, h := range l.hosted {
		snaps[addr] = h.Snapshot()
	}
	revert := func() {
		for addr, id := range snaps {
			l.hosted[addr].RevertToSnapshot(id)
		}
	}

	tx := &Tx{ledger: l, height: l.height}
	if err := l.run(tx, fn, revert); err != nil {
		return nil, err
	}

	for _, h := range l.hosted {
		h.Commit()
	}
	receipt := Receipt{Height: tx.height, Logs: tx.logs}
	if l.automine {
		l.height++
		metrics.LedgerHeight.Set(float64(l.height))
	}
	l.publish(receipt)
	return &receipt, nil
}

func (l *Ledger) run(tx *Tx, fn func(tx *Tx) error, revert func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			revert()
			panic(r)
		}
	}()
	if err = fn(tx); err != nil {
		revert()
	}
	return err
}

// View runs fn against the current state without opening a unit of work.
// Mutations made through State inside fn are not journaled and must not be
// attempted.
func (l *Ledger) View(ctx context.Context, fn func(s State) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(&Tx{ledger: l, height: l.height})
}

func (l *Ledger) Height() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.height
}

func (l *Ledger) Automine() bool {
	return l.automine
}

// Mine advances the height by n blocks and returns the new height.
func (l *Ledger) Mine(n uint64) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.height += n
	metrics.LedgerHeight.Set(float64(l.height))
	return l.height
}

// NewAddress allocates a fresh contract address derived from the deployer
// account and its nonce.
func (l *Ledger) NewAddress() common.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nextAddress()
}

func (l *Ledger) nextAddress() common.Address {
	addr := crypto.CreateAddress(l.deployer, l.nonce)
	l.nonce++
	return addr
}

// DeployCollection creates and hosts a new ERC-721 collection.
func (l *Ledger) DeployCollection(name, symbol string) *token.Collection {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := token.NewCollection(l.nextAddress(), name, symbol)
	l.hosted[c.Address()] = c
	return c
}

// Host places a custom contract at addr.
func (l *Ledger) Host(addr common.Address, h Hosted) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.hosted[addr]; ok {
		return fmt.Errorf("contract already hosted at %s", addr.Hex())
	}
	l.hosted[addr] = h
	return nil
}

// Contracts lists hosted contract addresses in a stable order.
func (l *Ledger) Contracts() []common.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]common.Address, 0, len(l.hosted))
	for addr := range l.hosted {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

// Subscribe registers fn to receive every committed receipt, in commit
// order. fn runs while the ledger is locked and must not block or call back
// into the ledger.
func (l *Ledger) Subscribe(fn func(Receipt)) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	l.subscribers = append(l.subscribers, fn)
}

func (l *Ledger) publish(r Receipt) {
	if len(r.Logs) == 0 {
		return
	}
	l.subMu.RLock()
	defer l.subMu.RUnlock()
	for _, fn := range l.subscribers {
		fn(r)
	}
}

func (l *Ledger) contractAt(addr, caller common.Address) (token.Contract, error) {
	h, ok := l.hosted[addr]
	if !ok {
		return nil, apperrors.Parameter(apperrors.ReasonContractNotFound)
	}
	return h.As(caller), nil
}

func (l *Ledger) collection(addr common.Address) (*token.Collection, error) {
	h, ok := l.hosted[addr]
	if !ok {
		return nil, apperrors.Parameter(apperrors.ReasonContractNotFound)
	}
	c, ok := h.(*token.Collection)
	if !ok {
		return nil, apperrors.NewInvalidRequest(fmt.Sprintf("contract %s is not a hosted collection", addr.Hex()))
	}
	return c, nil
}
