package authz

const (
	submittedTopic          = "fcl.authz.submitted"
	sealWatcherSubscription = "fcl.authz.submitted.seal-watcher-sub"

	eventTransactionSealed = "TRANSACTION_SEALED"
)

// AuthorizationSubmitted is published once a transaction reached the access
// node.
type AuthorizationSubmitted struct {
	AttemptId     uint64 `json:"attemptId"`
	SessionId     string `json:"sessionId"`
	Address       string `json:"address"`
	TransactionId string `json:"transactionId"`
}

func (AuthorizationSubmitted) GetEventTopicName() string {
	return submittedTopic
}
