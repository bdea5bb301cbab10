package fcl

import (
	"encoding/json"
)

const signableVersion = "1.0.1"

// Signable is sent to a wallet to request one account's signature.
type Signable struct {
	FType       string            `json:"f_type"`
	FVsn        string            `json:"f_vsn"`
	Data        map[string]string `json:"data"`
	Message     string            `json:"message"`
	KeyID       *int              `json:"keyId"`
	Addr        *string           `json:"addr"`
	Roles       Role              `json:"roles"`
	Cadence     *string           `json:"cadence"`
	Args        []json.RawMessage `json:"args"`
	Interaction *Interaction      `json:"interaction"`
	Voucher     *Voucher          `json:"voucher"`
}

// PreSignable is sent to the authorization service to negotiate signers.
type PreSignable struct {
	FType       string            `json:"f_type"`
	FVsn        string            `json:"f_vsn"`
	Roles       Role              `json:"roles"`
	Cadence     *string           `json:"cadence"`
	Args        []json.RawMessage `json:"args"`
	Data        map[string]string `json:"data"`
	Interaction *Interaction      `json:"interaction"`
	Voucher     *Voucher          `json:"voucher"`
}

// NewSignable builds the signature request of account over message.
func NewSignable(ix *Interaction, voucher *Voucher, account *SignableUser, message string) *Signable {
	return &Signable{
		FType:       "Signable",
		FVsn:        signableVersion,
		Data:        map[string]string{},
		Message:     message,
		KeyID:       account.KeyID,
		Addr:        account.Addr,
		Roles:       account.Role,
		Cadence:     ix.Message.Cadence,
		Args:        voucher.Arguments,
		Interaction: ix,
		Voucher:     voucher,
	}
}

// NewPreSignable asks the authorization service to fill every role.
func NewPreSignable(ix *Interaction) (*PreSignable, error) {
	voucher, err := BuildVoucher(ix)
	if err != nil {
		return nil, err
	}

	return &PreSignable{
		FType:       "PreSignable",
		FVsn:        signableVersion,
		Roles:       Role{Proposer: true, Authorizer: true, Payer: true},
		Cadence:     ix.Message.Cadence,
		Args:        voucher.Arguments,
		Data:        map[string]string{},
		Interaction: ix,
		Voucher:     voucher,
	}, nil
}
