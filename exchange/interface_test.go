package exchange

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContractNaming(t *testing.T) {
	assert.Equal(t, "BTC_USDT", Contract("BTC"))
	assert.Equal(t, "SOL_USDT", Contract(" sol "))
	assert.Equal(t, "BTC", SymbolFromContract("BTC_USDT"))
	assert.Equal(t, "ETH", SymbolFromContract("eth_usdt"))
}

func TestIsPositionGone(t *testing.T) {
	assert.False(t, IsPositionGone(nil))
	assert.False(t, IsPositionGone(errors.New("timeout")))
	assert.True(t, IsPositionGone(errors.New("<APIError> code=-2022, msg=ReduceOnly Order is rejected.")))
	assert.True(t, IsPositionGone(errors.New("POSITION_EMPTY")))
}
