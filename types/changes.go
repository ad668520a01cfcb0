// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import "sort"

// AccountChanges holds the resource and module operations of one account.
// Resources are keyed by struct tag and modules by module name.
type AccountChanges struct {
	Resources map[string]Op
	Modules   map[string]Op
}

func newAccountChanges() *AccountChanges {
	return &AccountChanges{
		Resources: make(map[string]Op),
		Modules:   make(map[string]Op),
	}
}

// ChangeSet is the set of global storage effects of an execution.
type ChangeSet struct {
	accounts map[AccountAddress]*AccountChanges
}

func NewChangeSet() *ChangeSet {
	return &ChangeSet{accounts: make(map[AccountAddress]*AccountChanges)}
}

func (cs *ChangeSet) account(addr AccountAddress) *AccountChanges {
	ac, ok := cs.accounts[addr]
	if !ok {
		ac = newAccountChanges()
		cs.accounts[addr] = ac
	}
	return ac
}

// AddResourceOp records [op] for the resource [structTag] under [addr].
func (cs *ChangeSet) AddResourceOp(addr AccountAddress, structTag string, op Op) error {
	ac := cs.account(addr)
	if _, ok := ac.Resources[structTag]; ok {
		return NewVMError(StatusDuplicateWrite, "resource already changed").
			At(ResourceAccessPath(addr, structTag).String())
	}
	ac.Resources[structTag] = op
	return nil
}

// AddModuleOp records [op] for the module [name] under [addr].
func (cs *ChangeSet) AddModuleOp(addr AccountAddress, name string, op Op) error {
	ac := cs.account(addr)
	if _, ok := ac.Modules[name]; ok {
		return NewVMError(StatusDuplicateWrite, "module already changed").
			At(NewModuleID(addr, name).String())
	}
	ac.Modules[name] = op
	return nil
}

// Account returns the changes of [addr], or nil if it has none.
func (cs *ChangeSet) Account(addr AccountAddress) *AccountChanges {
	return cs.accounts[addr]
}

// Accounts returns the changed accounts in ascending order.
func (cs *ChangeSet) Accounts() []AccountAddress {
	addrs := make([]AccountAddress, 0, len(cs.accounts))
	for addr := range cs.accounts {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Compare(addrs[j]) < 0 })
	return addrs
}

// Len returns the number of recorded operations.
func (cs *ChangeSet) Len() int {
	n := 0
	for _, ac := range cs.accounts {
		n += len(ac.Resources) + len(ac.Modules)
	}
	return n
}

// SortedNames returns the keys of [ops] in ascending order.
func SortedNames(ops map[string]Op) []string {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
