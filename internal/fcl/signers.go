package fcl

// InsideSigners returns the payload signers: authorizers and the proposer,
// excluding the payer. Authorizers keep their first occurrence order and the
// proposer follows them.
func InsideSigners(ix *Interaction) []string {
	seen := map[string]bool{}
	if ix.Payer != nil {
		seen[*ix.Payer] = true
	}

	inside := []string{}
	add := func(tempID string) {
		if seen[tempID] {
			return
		}
		seen[tempID] = true
		inside = append(inside, tempID)
	}

	for _, tempID := range ix.Authorizations {
		add(tempID)
	}
	if ix.Proposer != nil {
		add(*ix.Proposer)
	}

	return inside
}

// OutsideSigners returns the envelope signers, which is only ever the payer.
func OutsideSigners(ix *Interaction) []string {
	if ix.Payer == nil {
		return []string{}
	}
	return []string{*ix.Payer}
}
