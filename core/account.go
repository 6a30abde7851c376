package core

// Account is the persisted state of one address.
type Account struct {
	Lamports   uint64
	Data       []byte
	Owner      Address
	Executable bool
}

// Clone returns a deep copy of a.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	c.Data = append([]byte(nil), a.Data...)
	return &c
}

// IsEmpty reports whether the account holds nothing and belongs to the
// system program, i.e. it was never created.
func (a *Account) IsEmpty() bool {
	return a.Lamports == 0 && len(a.Data) == 0 && a.Owner == SystemProgramID && !a.Executable
}
