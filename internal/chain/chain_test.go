package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credmint/internal/sentinel"
)

// fakeBackend answers contract calls from in-memory state and records sent
// transactions.
type fakeBackend struct {
	abi    abi.ABI
	tokens map[common.Address][]*big.Int
	uris   map[string]string
	kyc    map[common.Address]bool
	fail   error

	mu   sync.Mutex
	sent []*types.Transaction
}

func (f *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeBackend) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	method, err := f.abi.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "balanceOf":
		return method.Outputs.Pack(big.NewInt(int64(len(f.tokens[args[0].(common.Address)]))))
	case "tokenOfOwnerByIndex":
		owned := f.tokens[args[0].(common.Address)]
		return method.Outputs.Pack(owned[args[1].(*big.Int).Int64()])
	case "tokenURI":
		return method.Outputs.Pack(f.uris[args[0].(*big.Int).String()])
	case "hasValidKYCNFT":
		return method.Outputs.Pack(f.kyc[args[0].(common.Address)])
	}
	return nil, fmt.Errorf("unexpected call %s", method.Name)
}

func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 100_000, nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) { return big.NewInt(1), nil }

func (f *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) { return big.NewInt(1), nil }

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(1)}, nil
}

func (f *fakeBackend) PendingCodeAt(context.Context, common.Address) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) { return 0, nil }

var (
	nftAddress = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	owner      = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

func TestCredentialReads(t *testing.T) {
	backend := &fakeBackend{
		abi:    credentialABI,
		tokens: map[common.Address][]*big.Int{owner: {big.NewInt(7), big.NewInt(9)}},
		uris:   map[string]string{"9": "ipfs://meta/binance-kyc.json"},
	}
	c := NewCredential(nftAddress, backend, nil, nil)
	ctx := context.Background()

	bal, err := c.BalanceOf(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(2), bal.Int64())

	id, err := c.TokenOfOwnerByIndex(ctx, owner, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, int64(9), id.Int64())

	uri, err := c.TokenURI(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://meta/binance-kyc.json", uri)
}

func TestCredentialReadError(t *testing.T) {
	backend := &fakeBackend{abi: credentialABI, fail: errors.New("connection refused")}
	c := NewCredential(nftAddress, backend, nil, nil)

	_, err := c.BalanceOf(context.Background(), owner)
	assert.ErrorContains(t, err, "connection refused")
}

func TestMint(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	opts, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(1337))
	require.NoError(t, err)
	opts.GasPrice = big.NewInt(1)
	opts.GasLimit = 200_000
	opts.Nonce = big.NewInt(0)

	backend := &fakeBackend{abi: credentialABI}
	c := NewCredential(nftAddress, backend, backend, opts)

	hash, err := c.Mint(context.Background(), owner, `{"proof":"p"}`)
	require.NoError(t, err)

	require.Len(t, backend.sent, 1)
	tx := backend.sent[0]
	assert.Equal(t, hash, tx.Hash())
	assert.Equal(t, nftAddress, *tx.To())
	assert.Equal(t, crypto.Keccak256([]byte("mint(address,string)"))[:4], tx.Data()[:4])

	args, err := credentialABI.Methods["mint"].Inputs.Unpack(tx.Data()[4:])
	require.NoError(t, err)
	assert.Equal(t, owner, args[0])
	assert.Equal(t, `{"proof":"p"}`, args[1])
}

func TestMintReadOnly(t *testing.T) {
	c := NewCredential(nftAddress, &fakeBackend{abi: credentialABI}, nil, nil)

	_, err := c.Mint(context.Background(), owner, "p")
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestVault(t *testing.T) {
	backend := &fakeBackend{abi: vaultABI, kyc: map[common.Address]bool{owner: true}}
	v := NewVault(common.HexToAddress("0x00000000000000000000000000000000000000bb"), backend)

	ok, err := v.HasValidKYCNFT(context.Background(), owner)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.HasValidKYCNFT(context.Background(), common.HexToAddress("0x2222222222222222222222222222222222222222"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x1111111111111111111111111111111111111111")
	require.NoError(t, err)
	assert.Equal(t, owner, addr)

	_, err = ParseAddress("not-an-address")
	assert.ErrorIs(t, err, sentinel.ErrInvalidInput)
}

func TestNewTransactor(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	hexKey := fmt.Sprintf("0x%x", crypto.FromECDSA(key))

	opts, err := NewTransactor(hexKey, 1)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), opts.From)

	_, err = NewTransactor("zz", 1)
	assert.ErrorIs(t, err, sentinel.ErrInvalidInput)
}
