package models

type WalletInfo struct {
	Address   string `json:"address"`
	ShortID   string `json:"short_id"`
	PublicKey string `json:"public_key"`
}

type SignedMessage struct {
	Address   string `json:"address"`
	PublicKey string `json:"public_key"`
	Message   []byte `json:"message"`
	Signature string `json:"signature"`
}

type VerifyResult struct {
	Address string `json:"address"`
	Valid   bool   `json:"valid"`
}

type KeystoreInfo struct {
	Path    string `json:"path"`
	Address string `json:"address"`
}
