package fcl

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/onflow/cadence"
	jsoncdc "github.com/onflow/cadence/encoding/json"
)

const (
	tagTransaction = "TRANSACTION"
	statusOK       = "OK"
	kindArgument   = "ARGUMENT"
	kindAccount    = "ACCOUNT"
)

// Interaction is a transaction being assembled. It owns its accounts; one
// Interaction must never be shared by two authorization attempts.
type Interaction struct {
	Tag            string                   `json:"tag"`
	Assigns        map[string]string        `json:"assigns"`
	Status         string                   `json:"status"`
	Reason         *string                  `json:"reason"`
	Accounts       map[string]*SignableUser `json:"accounts"`
	Params         map[string]string        `json:"params"`
	Arguments      map[string]Argument      `json:"arguments"`
	Message        Message                  `json:"message"`
	Proposer       *string                  `json:"proposer"`
	Authorizations []string                 `json:"authorizations"`
	Payer          *string                  `json:"payer"`
	Events         Events                   `json:"events"`
	Transaction    ID                       `json:"transaction"`
	Block          BlockRef                 `json:"block"`
	Account        AccountRef               `json:"account"`
	Collection     ID                       `json:"collection"`
}

type Message struct {
	Cadence        *string  `json:"cadence"`
	RefBlock       *string  `json:"refBlock"`
	ComputeLimit   *int     `json:"computeLimit"`
	Proposer       *string  `json:"proposer"`
	Payer          *string  `json:"payer"`
	Authorizations []string `json:"authorizations"`
	Params         []string `json:"params"`
	Arguments      []string `json:"arguments"`
}

type Events struct {
	EventType *string  `json:"eventType"`
	Start     *string  `json:"start"`
	End       *string  `json:"end"`
	BlockIDs  []string `json:"blockIds"`
}

type ID struct {
	ID *string `json:"id"`
}

type BlockRef struct {
	ID       *string `json:"id"`
	Height   *int64  `json:"height"`
	IsSealed *bool   `json:"isSealed"`
}

type AccountRef struct {
	Addr *string `json:"addr"`
}

// Argument is a transaction argument keyed by a temporary id. AsArgument holds
// the JSON-Cadence encoding sent to the network.
type Argument struct {
	Kind       string          `json:"kind"`
	TempID     string          `json:"tempId"`
	Value      any             `json:"value"`
	AsArgument json.RawMessage `json:"asArgument"`
	Xform      Xform           `json:"xform"`
}

type Xform struct {
	Label string `json:"label"`
}

// NewArgument encodes value as JSON-Cadence under a fresh temp-id.
func NewArgument(value cadence.Value) (Argument, error) {
	encoded, err := jsoncdc.Encode(value)
	if err != nil {
		return Argument{}, Wrap(ErrDecodeFailure, err)
	}
	return NewRawArgument(encoded)
}

// NewRawArgument wraps an argument already encoded as JSON-Cadence.
func NewRawArgument(encoded []byte) (Argument, error) {
	var decoded struct {
		Type  string `json:"type"`
		Value any    `json:"value"`
	}
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		return Argument{}, Wrap(ErrDecodeFailure, err)
	}

	return Argument{
		Kind:       kindArgument,
		TempID:     newTempID(),
		Value:      decoded.Value,
		AsArgument: json.RawMessage(strings.TrimSpace(string(encoded))),
		Xform:      Xform{Label: decoded.Type},
	}, nil
}

// NewInteraction creates a transaction document for cadence with args in call
// order.
func NewInteraction(script string, args []Argument, computeLimit int) *Interaction {
	ix := &Interaction{
		Tag:            tagTransaction,
		Assigns:        map[string]string{},
		Status:         statusOK,
		Accounts:       map[string]*SignableUser{},
		Params:         map[string]string{},
		Arguments:      map[string]Argument{},
		Authorizations: []string{},
		Events:         Events{BlockIDs: []string{}},
		Message: Message{
			Cadence:        &script,
			ComputeLimit:   &computeLimit,
			Authorizations: []string{},
			Params:         []string{},
			Arguments:      []string{},
		},
	}

	for _, arg := range args {
		ix.Arguments[arg.TempID] = arg
		ix.Message.Arguments = append(ix.Message.Arguments, arg.TempID)
	}

	return ix
}

// Role records which transaction roles an account plays.
type Role struct {
	Proposer   bool  `json:"proposer"`
	Authorizer bool  `json:"authorizer"`
	Payer      bool  `json:"payer"`
	Param      *bool `json:"param,omitempty"`
}

// Merge ORs other into r. A role never reverts to false.
func (r *Role) Merge(other Role) {
	r.Proposer = r.Proposer || other.Proposer
	r.Authorizer = r.Authorizer || other.Authorizer
	r.Payer = r.Payer || other.Payer
}

// SignableUser is one on-chain signer of the interaction.
type SignableUser struct {
	Kind        string  `json:"kind"`
	TempID      string  `json:"tempId"`
	Addr        *string `json:"addr"`
	Signature   *string `json:"signature"`
	KeyID       *int    `json:"keyId"`
	SequenceNum *uint64 `json:"sequenceNum"`
	Role        Role    `json:"role"`

	// Signer requests this account's signature. It is nil once the
	// signature has been collected.
	Signer SigningCapability `json:"-"`
}

func newTempID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

func sansPrefix(address string) string {
	return strings.TrimPrefix(strings.TrimPrefix(address, "0x"), "0X")
}
