// Package chain binds the credential NFT and KYC vault contracts.
package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"credmint/internal/sentinel"
)

// ErrReadOnly is returned by Mint when no signing key is configured.
var ErrReadOnly = errors.New("credential contract bound without a transactor")

var (
	credentialABI = mustParse(CredentialABI)
	vaultABI      = mustParse(VaultABI)
)

func mustParse(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("chain: parse ABI: %v", err))
	}
	return parsed
}

// ParseAddress validates a hex wallet or contract address.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q is not a hex address", sentinel.ErrInvalidInput, s)
	}
	return common.HexToAddress(s), nil
}

// Dial connects to an Ethereum JSON-RPC endpoint.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial chain rpc: %w", err)
	}
	return client, nil
}

// NewTransactor builds signing options from a hex secp256k1 key.
func NewTransactor(hexKey string, chainID int64) (*bind.TransactOpts, error) {
	key, err := ParseKey(hexKey)
	if err != nil {
		return nil, err
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(chainID))
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}
	return opts, nil
}

// ParseKey decodes a hex secp256k1 private key with or without 0x.
func ParseKey(hexKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: private key: %v", sentinel.ErrInvalidInput, err)
	}
	return key, nil
}

// Credential is a binding to the credential NFT contract.
type Credential struct {
	address  common.Address
	contract *bind.BoundContract
	opts     *bind.TransactOpts
}

// NewCredential binds the contract at address. transactor may be nil for a
// read-only binding; backend must then still satisfy bind.ContractCaller.
func NewCredential(address common.Address, caller bind.ContractCaller, transactor bind.ContractTransactor, opts *bind.TransactOpts) *Credential {
	return &Credential{
		address:  address,
		contract: bind.NewBoundContract(address, credentialABI, caller, transactor, nil),
		opts:     opts,
	}
}

func (c *Credential) Address() common.Address { return c.address }

func (c *Credential) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	var out []any
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", owner); err != nil {
		return nil, fmt.Errorf("balanceOf: %w", err)
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

func (c *Credential) TokenOfOwnerByIndex(ctx context.Context, owner common.Address, index *big.Int) (*big.Int, error) {
	var out []any
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "tokenOfOwnerByIndex", owner, index); err != nil {
		return nil, fmt.Errorf("tokenOfOwnerByIndex: %w", err)
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

func (c *Credential) TokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	var out []any
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "tokenURI", tokenID); err != nil {
		return "", fmt.Errorf("tokenURI: %w", err)
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

// Mint submits mint(to, proof) and returns the transaction hash without
// waiting for it to be mined.
func (c *Credential) Mint(ctx context.Context, to common.Address, proof string) (common.Hash, error) {
	if c.opts == nil {
		return common.Hash{}, ErrReadOnly
	}
	opts := *c.opts
	opts.Context = ctx
	tx, err := c.contract.Transact(&opts, "mint", to, proof)
	if err != nil {
		return common.Hash{}, fmt.Errorf("mint: %w", err)
	}
	return tx.Hash(), nil
}

// Vault is a binding to the KYC vault contract.
type Vault struct {
	contract *bind.BoundContract
}

func NewVault(address common.Address, caller bind.ContractCaller) *Vault {
	return &Vault{contract: bind.NewBoundContract(address, vaultABI, caller, nil, nil)}
}

func (v *Vault) HasValidKYCNFT(ctx context.Context, user common.Address) (bool, error) {
	var out []any
	if err := v.contract.Call(&bind.CallOpts{Context: ctx}, &out, "hasValidKYCNFT", user); err != nil {
		return false, fmt.Errorf("hasValidKYCNFT: %w", err)
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}
