package domain

import "time"

// AuthorityState indica qual contexto de execução pode mutar um registro.
type AuthorityState string

const (
	// Owned: o ledger primário é o dono (valor zero).
	Owned AuthorityState = ""
	// Delegated: somente o contexto de rollup pode mutar o registro.
	Delegated AuthorityState = "delegated"
)

// Delegation é o estado tagueado de autoridade de um registro.
// Epoch cresce a cada delegação e amarra o snapshot do rollup à delegação que o criou.
type Delegation struct {
	State       AuthorityState `json:"state,omitempty"`
	Owner       string         `json:"owner,omitempty"`
	Delegate    string         `json:"delegate,omitempty"`
	Epoch       uint64         `json:"epoch"`
	DelegatedAt *time.Time     `json:"delegatedAt,omitempty"`
}

func (d Delegation) IsDelegated() bool { return d.State == Delegated }

// EnsureOwned falha com ErrRecordDelegated quando o registro está delegado.
// Toda instrução que muta um registro chama isto antes de qualquer escrita.
func EnsureOwned(r Record) error {
	if r.Header().Delegation.IsDelegated() {
		return ErrRecordDelegated
	}
	return nil
}
