package fcl

import (
	"encoding/hex"
	"encoding/json"

	"github.com/onflow/flow-go-sdk"
)

// Voucher is the canonical signing document derived from an Interaction. It
// is rebuilt after every change to the interaction, never patched.
type Voucher struct {
	Cadence      *string           `json:"cadence"`
	RefBlock     *string           `json:"refBlock"`
	ComputeLimit *int              `json:"computeLimit"`
	Arguments    []json.RawMessage `json:"arguments"`
	ProposalKey  ProposalKey       `json:"proposalKey"`
	Payer        *string           `json:"payer"`
	Authorizers  []string          `json:"authorizers"`
	PayloadSigs  []Signature       `json:"payloadSigs"`
	EnvelopeSigs []Signature       `json:"envelopeSigs"`
}

type ProposalKey struct {
	Address     *string `json:"address"`
	KeyID       *int    `json:"keyId"`
	SequenceNum *uint64 `json:"sequenceNum"`
}

type Signature struct {
	Address *string `json:"address"`
	KeyID   *int    `json:"keyId"`
	Sig     *string `json:"sig"`
}

// BuildVoucher projects ix into a voucher. Arguments follow
// ix.Message.Arguments and unknown argument ids are dropped. A role that
// points at an unknown account is an ErrInvalidInteraction.
func BuildVoucher(ix *Interaction) (*Voucher, error) {
	account := func(tempID string) (*SignableUser, error) {
		acct, ok := ix.Accounts[tempID]
		if !ok {
			return nil, Wrapf(ErrInvalidInteraction, "no account for temp-id %s", tempID)
		}
		return acct, nil
	}

	voucher := &Voucher{
		Cadence:      ix.Message.Cadence,
		RefBlock:     ix.Message.RefBlock,
		ComputeLimit: ix.Message.ComputeLimit,
		Arguments:    []json.RawMessage{},
		Authorizers:  []string{},
		PayloadSigs:  []Signature{},
		EnvelopeSigs: []Signature{},
	}

	for _, tempID := range ix.Message.Arguments {
		if arg, ok := ix.Arguments[tempID]; ok {
			voucher.Arguments = append(voucher.Arguments, arg.AsArgument)
		}
	}

	if ix.Proposer != nil {
		proposer, err := account(*ix.Proposer)
		if err != nil {
			return nil, err
		}
		voucher.ProposalKey = ProposalKey{
			Address:     addressOf(proposer),
			KeyID:       proposer.KeyID,
			SequenceNum: proposer.SequenceNum,
		}
	}

	if ix.Payer != nil {
		payer, err := account(*ix.Payer)
		if err != nil {
			return nil, err
		}
		voucher.Payer = addressOf(payer)
	}

	seen := map[string]bool{}
	for _, tempID := range ix.Authorizations {
		authorizer, err := account(tempID)
		if err != nil {
			return nil, err
		}
		address := addressOf(authorizer)
		if address == nil || seen[*address] {
			continue
		}
		seen[*address] = true
		voucher.Authorizers = append(voucher.Authorizers, *address)
	}

	for _, tempID := range InsideSigners(ix) {
		signer, err := account(tempID)
		if err != nil {
			return nil, err
		}
		voucher.PayloadSigs = append(voucher.PayloadSigs, signatureOf(signer))
	}
	for _, tempID := range OutsideSigners(ix) {
		signer, err := account(tempID)
		if err != nil {
			return nil, err
		}
		voucher.EnvelopeSigs = append(voucher.EnvelopeSigs, signatureOf(signer))
	}

	return voucher, nil
}

// Transaction converts the voucher into a Flow transaction carrying every
// signature collected so far.
func (v *Voucher) Transaction() (*flow.Transaction, error) {
	pk := v.ProposalKey
	switch {
	case v.Cadence == nil:
		return nil, Wrapf(ErrInvalidInteraction, "voucher has no cadence")
	case v.RefBlock == nil:
		return nil, Wrapf(ErrInvalidInteraction, "voucher has no reference block")
	case pk.Address == nil || pk.KeyID == nil || pk.SequenceNum == nil:
		return nil, Wrapf(ErrInvalidInteraction, "voucher has an incomplete proposal key")
	case v.Payer == nil:
		return nil, Wrapf(ErrInvalidInteraction, "voucher has no payer")
	}

	tx := flow.NewTransaction().
		SetScript([]byte(*v.Cadence)).
		SetReferenceBlockID(flow.HexToID(*v.RefBlock)).
		SetProposalKey(flow.HexToAddress(*pk.Address), *pk.KeyID, *pk.SequenceNum).
		SetPayer(flow.HexToAddress(*v.Payer))

	if v.ComputeLimit != nil {
		tx.GasLimit = uint64(*v.ComputeLimit)
	}

	for _, authorizer := range v.Authorizers {
		tx.AddAuthorizer(flow.HexToAddress(authorizer))
	}
	for _, arg := range v.Arguments {
		tx.AddRawArgument(arg)
	}

	for _, sig := range v.PayloadSigs {
		if err := attach(sig, tx.AddPayloadSignature); err != nil {
			return nil, err
		}
	}
	for _, sig := range v.EnvelopeSigs {
		if err := attach(sig, tx.AddEnvelopeSignature); err != nil {
			return nil, err
		}
	}

	return tx, nil
}

// PayloadMessage is the hex message payload signers sign: the transaction
// domain tag followed by the encoded payload.
func (v *Voucher) PayloadMessage() (string, error) {
	tx, err := v.Transaction()
	if err != nil {
		return "", err
	}
	return taggedMessage(tx.PayloadMessage()), nil
}

// EnvelopeMessage is the hex message the payer signs. It covers the payload
// signatures present on the voucher.
func (v *Voucher) EnvelopeMessage() (string, error) {
	tx, err := v.Transaction()
	if err != nil {
		return "", err
	}
	return taggedMessage(tx.EnvelopeMessage()), nil
}

func taggedMessage(message []byte) string {
	tagged := make([]byte, 0, len(flow.TransactionDomainTag)+len(message))
	tagged = append(tagged, flow.TransactionDomainTag[:]...)
	tagged = append(tagged, message...)
	return hex.EncodeToString(tagged)
}

func attach(sig Signature, add func(flow.Address, int, []byte) *flow.Transaction) error {
	if sig.Sig == nil || sig.Address == nil || sig.KeyID == nil {
		return nil
	}
	raw, err := hex.DecodeString(sansPrefix(*sig.Sig))
	if err != nil {
		return Wrap(ErrDecodeFailure, err)
	}
	add(flow.HexToAddress(*sig.Address), *sig.KeyID, raw)
	return nil
}

func addressOf(account *SignableUser) *string {
	if account.Addr == nil {
		return nil
	}
	return strPtr(sansPrefix(*account.Addr))
}

func signatureOf(account *SignableUser) Signature {
	return Signature{
		Address: addressOf(account),
		KeyID:   account.KeyID,
		Sig:     account.Signature,
	}
}
