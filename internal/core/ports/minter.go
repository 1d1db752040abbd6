package ports

import "context"

type MintRequest struct {
	ContractAddress string
	ImageRef        string
	Name            string
	Description     string
	TokenIndex      int
}

// Minter is the external collection deployment and token minting service.
type Minter interface {
	DeployCollection(ctx context.Context, name string, totalSupply int) (string, error)
	MintUnit(ctx context.Context, req MintRequest) error
}
