package oracle

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const dexABIJSON = `[
  {
    "inputs": [],
    "name": "spotPrice",
    "outputs": [
      {"internalType": "uint256", "name": "reserveA", "type": "uint256"},
      {"internalType": "uint256", "name": "reserveB", "type": "uint256"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "getTVL",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

var (
	dexABI     abi.ABI
	dexABIOnce sync.Once
	dexABIErr  error
)

func getDEXABI() (abi.ABI, error) {
	dexABIOnce.Do(func() {
		dexABI, dexABIErr = abi.JSON(strings.NewReader(dexABIJSON))
	})
	return dexABI, dexABIErr
}
