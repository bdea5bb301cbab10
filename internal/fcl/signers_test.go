package fcl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_SignerPartition(t *testing.T) {
	t.Run("Should exclude the payer from inside signers", func(t *testing.T) {
		proposer, payer := "P", "Pay"
		ix := &Interaction{
			Proposer:       &proposer,
			Payer:          &payer,
			Authorizations: []string{"A", "B", "Pay"},
		}

		assert.ElementsMatch(t, []string{"P", "A", "B"}, InsideSigners(ix))
		assert.Equal(t, []string{"A", "B", "P"}, InsideSigners(ix))
		assert.Equal(t, []string{"Pay"}, OutsideSigners(ix))
	})

	t.Run("Should deduplicate authorizers and proposer", func(t *testing.T) {
		proposer := "A"
		ix := &Interaction{
			Proposer:       &proposer,
			Authorizations: []string{"A", "B", "A", "B"},
		}

		assert.Equal(t, []string{"A", "B"}, InsideSigners(ix))
		assert.Empty(t, OutsideSigners(ix))
	})

	t.Run("Should return empty partitions for an empty interaction", func(t *testing.T) {
		ix := &Interaction{}

		assert.Empty(t, InsideSigners(ix))
		assert.Empty(t, OutsideSigners(ix))
	})

	t.Run("Should leave inside signers empty when one account plays every role", func(t *testing.T) {
		solo := "S"
		ix := &Interaction{Proposer: &solo, Payer: &solo, Authorizations: []string{"S"}}

		assert.Empty(t, InsideSigners(ix))
		assert.Equal(t, []string{"S"}, OutsideSigners(ix))
	})
}
