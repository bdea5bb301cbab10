package model

// CustodialWallet is a Flow account whose key lives in Google Cloud KMS and is
// used by the gateway to co-sign on behalf of a signed-in user.
type CustodialWallet struct {
	Id         uint64 `gorm:"primaryKey" json:"id"`
	OwnerId    string `gorm:"uniqueIndex" json:"ownerId"`
	ResourceId string `json:"resourceId"`
	PublicKey  string `json:"publicKey"`
	Address    string `json:"address"`
	KeyIndex   int    `json:"keyIndex"`
}

func (CustodialWallet) TableName() string {
	return "custodial_wallet"
}
