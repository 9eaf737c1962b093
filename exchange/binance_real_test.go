package exchange

import (
	"fmt"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

// TestBinanceClient_RealAPI_Connectivity runs real requests against the Binance futures API.
// WARNING: This test uses real credentials and connects to the live API.
func TestBinanceClient_RealAPI_Connectivity(t *testing.T) {
	// Load .env file
	_ = godotenv.Load("../.env")

	apiKey := os.Getenv("BINANCE_API_KEY")
	secretKey := os.Getenv("BINANCE_SECRET_KEY")

	if apiKey == "" || secretKey == "" {
		t.Skip("Skipping real API test: BINANCE_API_KEY or BINANCE_SECRET_KEY not set")
	}

	client := NewBinanceClient(apiKey, secretKey)
	assert.NotNil(t, client)

	t.Run("GetPositions", func(t *testing.T) {
		positions, err := client.GetPositions()
		if err != nil {
			t.Fatalf("GetPositions failed: %v", err)
		}
		fmt.Printf("Real API Positions: %d rows\n", len(positions))
	})

	t.Run("GetFuturesTicker", func(t *testing.T) {
		ticker, err := client.GetFuturesTicker("BTC_USDT")
		if err != nil {
			t.Fatalf("GetFuturesTicker failed: %v", err)
		}
		fmt.Printf("Real API Ticker (BTC_USDT): %+v\n", ticker)
		assert.NotNil(t, ticker)
	})
}
