package token

import "github.com/ethereum/go-ethereum/common"

// Snapshot returns an identifier for the current journal position.
func (c *Collection) Snapshot() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.journal)
}

// RevertToSnapshot undoes every mutation recorded after id, newest first.
func (c *Collection) RevertToSnapshot(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id < 0 {
		id = 0
	}
	for i := len(c.journal) - 1; i >= id; i-- {
		c.journal[i]()
	}
	if id < len(c.journal) {
		c.journal = c.journal[:id]
	}
}

// Commit forgets the journal; committed state can no longer be reverted.
func (c *Collection) Commit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.journal = c.journal[:0]
}

// The helpers below must be called with c.mu held.

func (c *Collection) setOwner(key common.Hash, owner common.Address) {
	prev, had := c.owners[key]
	c.journal = append(c.journal, func() {
		if had {
			c.owners[key] = prev
		} else {
			delete(c.owners, key)
		}
	})
	c.owners[key] = owner
}

func (c *Collection) setApproved(key common.Hash, to common.Address) {
	prev, had := c.approved[key]
	c.journal = append(c.journal, func() {
		if had {
			c.approved[key] = prev
		} else {
			delete(c.approved, key)
		}
	})
	c.approved[key] = to
}

func (c *Collection) clearApproved(key common.Hash) {
	prev := c.approved[key]
	c.journal = append(c.journal, func() {
		c.approved[key] = prev
	})
	delete(c.approved, key)
}

func (c *Collection) setOperator(owner, operator common.Address, approved bool) {
	prev := c.operators[owner][operator]
	c.journal = append(c.journal, func() {
		c.putOperator(owner, operator, prev)
	})
	c.putOperator(owner, operator, approved)
}

func (c *Collection) putOperator(owner, operator common.Address, approved bool) {
	ops, ok := c.operators[owner]
	if !ok {
		if !approved {
			return
		}
		ops = make(map[common.Address]bool)
		c.operators[owner] = ops
	}
	if approved {
		ops[operator] = true
	} else {
		delete(ops, operator)
	}
}

func (c *Collection) addBalance(owner common.Address, delta int64) {
	prev := c.balances[owner]
	c.journal = append(c.journal, func() {
		c.balances[owner] = prev
	})
	c.balances[owner] = uint64(int64(prev) + delta)
}
