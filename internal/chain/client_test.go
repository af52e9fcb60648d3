package chain

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ethService struct {
	chainID *big.Int
	head    uint64
}

func (s *ethService) ChainId() *hexutil.Big {
	return (*hexutil.Big)(s.chainID)
}

func (s *ethService) BlockNumber() hexutil.Uint64 {
	return hexutil.Uint64(s.head)
}

func newTestClient(t *testing.T, svc *ethService) *Client {
	t.Helper()
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", svc))
	t.Cleanup(server.Stop)

	c := newClient(rpc.DialInProc(server))
	t.Cleanup(c.Close)
	return c
}

func TestClientHeadInfo(t *testing.T) {
	c := newTestClient(t, &ethService{chainID: big.NewInt(31337), head: 42})
	ctx := context.Background()

	id, err := c.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "31337", id.String())

	head, err := c.LatestBlockNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), head)
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient(context.Background(), "unsupported://nowhere")
	require.Error(t, err)
}
