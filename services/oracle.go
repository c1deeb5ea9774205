package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bellapacxx/raffle-backend/raffle"
)

// OracleClient talks to the external randomness service. A request returns a
// request id; the service later calls POST /api/oracle/fulfill with the same
// id and the random words.
type OracleClient struct {
	url    string
	apiKey string
	client *http.Client
}

func NewOracleClient(url, apiKey string) *OracleClient {
	return &OracleClient{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type randomWordsRequest struct {
	KeyHash          string `json:"key_hash"`
	Confirmations    int    `json:"confirmations"`
	NumWords         int    `json:"num_words"`
	CallbackGasLimit uint32 `json:"callback_gas_limit"`
}

type randomWordsResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

func (o *OracleClient) RequestRandomWords(req raffle.RandomnessRequest) (string, error) {
	payload := randomWordsRequest{
		KeyHash:          req.KeyHash,
		Confirmations:    req.Confirmations,
		NumWords:         req.NumWords,
		CallbackGasLimit: req.CallbackGasLimit,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %v", err)
	}

	httpReq, err := http.NewRequest("POST", o.url+"/api/request-random-words", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oracle returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var wordsResp randomWordsResponse
	if err := json.Unmarshal(bodyBytes, &wordsResp); err != nil {
		return "", fmt.Errorf("failed to parse response JSON: %v", err)
	}

	if wordsResp.RequestID == "" {
		return "", fmt.Errorf("oracle response missing request_id")
	}
	return wordsResp.RequestID, nil
}
