package dto

// ConnectConfig is the bootstrap configuration handed to a newly connected agent
type ConnectConfig struct {
	AgentID         string `json:"agentId" example:"0192f1a4-7c3e-7b61-9a55-3f1e2d4c5b6a"`
	AgentKey        string `json:"agentKey" example:"9f2c..."`
	PollingInterval int    `json:"pollingInterval" example:"60"`
	APIEndpoint     string `json:"apiEndpoint" example:"/api/agent/poll"`
}

// ConnectResponse represents the response to a successful token redemption
type ConnectResponse struct {
	Success bool          `json:"success" example:"true"`
	Message string        `json:"message" example:"Agent connected successfully"`
	Config  ConnectConfig `json:"config"`
}
