package models

// StorageAccount is one linked storage account. The identity that linked
// it is the only one that can see it; Bucket and Prefix anchor the account
// inside the backing object store.
type StorageAccount struct {
	ID       string `json:"id"`
	Identity string `json:"identity"`
	Service  string `json:"service"`
	Label    string `json:"label"`
	Bucket   string `json:"bucket"`
	Prefix   string `json:"prefix"`
}
